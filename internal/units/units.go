// Package units maps informal unit tokens to the canonical units stored in
// the inventory.
package units

import "github.com/Veraticus/despensa/internal/fuzzy"

// Canonical units.
const (
	Kilograms = "kg"
	Liters    = "liters"
	Pieces    = "pcs"
)

type conversion struct {
	unit   string
	factor float64
}

var table = buildTable(map[conversion][]string{
	{Kilograms, 0.001}: {"g", "gr", "grs", "gram", "grams", "gramo", "gramos"},
	{Kilograms, 1}:     {"kg", "kgs", "kilo", "kilos", "kilogram", "kilograms", "kilogramo", "kilogramos"},
	{Liters, 0.001}:    {"ml", "milliliter", "milliliters", "millilitre", "millilitres", "mililitro", "mililitros"},
	{Liters, 1}:        {"l", "lt", "lts", "liter", "liters", "litre", "litres", "litro", "litros"},
	{Pieces, 1}: {
		"pcs", "pc", "piece", "pieces", "unit", "units",
		"pieza", "piezas", "unidad", "unidades", "und", "u",
	},
})

func buildTable(groups map[conversion][]string) map[string]conversion {
	t := make(map[string]conversion)
	for conv, tokens := range groups {
		for _, tok := range tokens {
			t[tok] = conv
		}
	}
	return t
}

// Normalize converts quantity and unit to a canonical pair. Unknown units,
// including the empty string, are returned unchanged.
func Normalize(unit string, quantity float64) (float64, string) {
	conv, ok := table[fuzzy.Normalize(unit)]
	if !ok {
		return quantity, unit
	}
	return quantity * conv.factor, conv.unit
}

// IsKnown reports whether unit maps to a canonical unit.
func IsKnown(unit string) bool {
	_, ok := table[fuzzy.Normalize(unit)]
	return ok
}
