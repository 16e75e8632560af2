// Package slots decides which fields an action still needs before it can
// run, and how to ask the user for them.
package slots

import (
	"strings"

	"github.com/Veraticus/despensa/internal/model"
)

var required = map[model.ActionKind][]model.Field{
	model.ActionRegisterPurchase: {
		model.FieldEntityName,
		model.FieldQuantity,
		model.FieldUnit,
		model.FieldCost,
		model.FieldProvider,
		model.FieldPaymentMethod,
	},
	model.ActionRegisterExpense: {
		model.FieldExpenseCategory,
		model.FieldCost,
		model.FieldProvider,
		model.FieldPaymentMethod,
	},
	model.ActionRegisterUsage: {
		model.FieldEntityName,
		model.FieldQuantity,
	},
}

var labels = map[model.Field]string{
	model.FieldEntityName:      "nombre del producto",
	model.FieldQuantity:        "cantidad",
	model.FieldUnit:            "unidad de medida",
	model.FieldCost:            "precio",
	model.FieldCurrency:        "moneda",
	model.FieldProvider:        "proveedor",
	model.FieldPaymentMethod:   "medio de pago",
	model.FieldExpenseCategory: "categoría del gasto",
	model.FieldReason:          "motivo",
}

// RequiredFields returns the fields kind needs, in prompt order. Kinds with
// no requirements return an empty slice.
func RequiredFields(kind model.ActionKind) []model.Field {
	fields := required[kind]
	out := make([]model.Field, len(fields))
	copy(out, fields)
	return out
}

// MissingFields returns the required fields of kind that are not filled in
// fields, in RequiredFields order.
func MissingFields(kind model.ActionKind, fields model.Fields) []model.Field {
	missing := []model.Field{}
	for _, field := range required[kind] {
		if !fields.IsFilled(field) {
			missing = append(missing, field)
		}
	}
	return missing
}

// Label returns the Spanish name shown to the user for field.
func Label(field model.Field) string {
	if label, ok := labels[field]; ok {
		return label
	}
	return strings.ReplaceAll(string(field), "_", " ")
}

// FormatMissingPrompt renders a request for the given fields, e.g.
// "Por favor indícame: proveedor y medio de pago".
func FormatMissingPrompt(missing []model.Field) string {
	if len(missing) == 0 {
		return ""
	}

	names := make([]string, len(missing))
	for i, field := range missing {
		names[i] = Label(field)
	}

	list := names[0]
	if len(names) > 1 {
		list = strings.Join(names[:len(names)-1], ", ") + " y " + names[len(names)-1]
	}

	return "Por favor indícame: " + list
}
