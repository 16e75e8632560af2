package model

import "strings"

// Field names one slot of an action. The values double as JSON keys.
type Field string

const (
	FieldEntityName      Field = "entity_name"
	FieldQuantity        Field = "quantity"
	FieldUnit            Field = "unit"
	FieldCost            Field = "cost"
	FieldCurrency        Field = "currency"
	FieldProvider        Field = "provider"
	FieldPaymentMethod   Field = "payment_method"
	FieldExpenseCategory Field = "expense_category"
	FieldReason          Field = "reason"
)

// AllFields is the closed set of slots in declaration order.
var AllFields = []Field{
	FieldEntityName,
	FieldQuantity,
	FieldUnit,
	FieldCost,
	FieldCurrency,
	FieldProvider,
	FieldPaymentMethod,
	FieldExpenseCategory,
	FieldReason,
}

// Valid reports whether f is one of AllFields.
func (f Field) Valid() bool {
	for _, known := range AllFields {
		if f == known {
			return true
		}
	}
	return false
}

// Fields holds the optional slot values of an action. A nil pointer means
// the value was not provided.
type Fields struct {
	EntityName      *string  `json:"entity_name,omitempty"`
	Quantity        *float64 `json:"quantity,omitempty"`
	Unit            *string  `json:"unit,omitempty"`
	Cost            *float64 `json:"cost,omitempty"`
	Currency        *string  `json:"currency,omitempty"`
	Provider        *string  `json:"provider,omitempty"`
	PaymentMethod   *string  `json:"payment_method,omitempty"`
	ExpenseCategory *string  `json:"expense_category,omitempty"`
	Reason          *string  `json:"reason,omitempty"`
}

// slot returns the address of the storage for field. Exactly one of the
// results is non-nil for a valid field.
func (f *Fields) slot(field Field) (**string, **float64) {
	switch field {
	case FieldEntityName:
		return &f.EntityName, nil
	case FieldQuantity:
		return nil, &f.Quantity
	case FieldUnit:
		return &f.Unit, nil
	case FieldCost:
		return nil, &f.Cost
	case FieldCurrency:
		return &f.Currency, nil
	case FieldProvider:
		return &f.Provider, nil
	case FieldPaymentMethod:
		return &f.PaymentMethod, nil
	case FieldExpenseCategory:
		return &f.ExpenseCategory, nil
	case FieldReason:
		return &f.Reason, nil
	}
	return nil, nil
}

// IsFilled reports whether field holds a usable value: non-nil, not blank,
// and for cost, not zero.
func (f Fields) IsFilled(field Field) bool {
	text, number := f.slot(field)
	switch {
	case text != nil:
		return *text != nil && strings.TrimSpace(**text) != ""
	case number != nil:
		if *number == nil {
			return false
		}
		return field != FieldCost || **number != 0
	}
	return false
}

// Present lists the fields that carry a non-blank value, in AllFields order.
func (f Fields) Present() []Field {
	var out []Field
	for _, field := range AllFields {
		text, number := f.slot(field)
		if (text != nil && *text != nil && strings.TrimSpace(**text) != "") || (number != nil && *number != nil) {
			out = append(out, field)
		}
	}
	return out
}

// Clone returns a deep copy.
func (f Fields) Clone() Fields {
	var out Fields
	for _, field := range AllFields {
		srcText, srcNum := f.slot(field)
		dstText, dstNum := out.slot(field)
		if srcText != nil && *srcText != nil {
			v := **srcText
			*dstText = &v
		}
		if srcNum != nil && *srcNum != nil {
			v := **srcNum
			*dstNum = &v
		}
	}
	return out
}

// Overlay returns a copy of f where every non-nil, non-blank value of s
// replaces the corresponding value of f. Text values are trimmed.
func (f Fields) Overlay(s Fields) Fields {
	out := f.Clone()
	for _, field := range AllFields {
		srcText, srcNum := s.slot(field)
		dstText, dstNum := out.slot(field)
		switch {
		case srcText != nil && *srcText != nil:
			v := strings.TrimSpace(**srcText)
			if v != "" {
				*dstText = &v
			}
		case srcNum != nil && *srcNum != nil:
			v := **srcNum
			*dstNum = &v
		}
	}
	return out
}

// Only returns a copy of f restricted to the given fields.
func (f Fields) Only(fields ...Field) Fields {
	var out Fields
	for _, field := range fields {
		srcText, srcNum := f.slot(field)
		dstText, dstNum := out.slot(field)
		if srcText != nil && *srcText != nil {
			v := **srcText
			*dstText = &v
		}
		if srcNum != nil && *srcNum != nil {
			v := **srcNum
			*dstNum = &v
		}
	}
	return out
}

// String returns a pointer to s.
func String(s string) *string { return &s }

// Float returns a pointer to v.
func Float(v float64) *float64 { return &v }

// StringValue dereferences p, returning "" for nil. The result is trimmed.
func StringValue(p *string) string {
	if p == nil {
		return ""
	}
	return strings.TrimSpace(*p)
}

// FloatValue dereferences p, returning 0 for nil.
func FloatValue(p *float64) float64 {
	if p == nil {
		return 0
	}
	return *p
}
