// Package storage provides the data persistence layer for the assistant.
package storage

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/Veraticus/despensa/internal/model"
)

// Validation errors.
var (
	ErrNilContext      = errors.New("context cannot be nil")
	ErrEmptyString     = errors.New("string parameter cannot be empty")
	ErrInvalidQuantity = errors.New("quantity must be a positive number")
	ErrInvalidAmount   = errors.New("amount must be a non-negative number")
	ErrUnknownClass    = errors.New("unknown entity class")
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

func validateQuantity(q float64) error {
	if math.IsNaN(q) || math.IsInf(q, 0) || q <= 0 {
		return fmt.Errorf("%w: %v", ErrInvalidQuantity, q)
	}
	return nil
}

func validateAmount(a float64) error {
	if math.IsNaN(a) || math.IsInf(a, 0) || a < 0 {
		return fmt.Errorf("%w: %v", ErrInvalidAmount, a)
	}
	return nil
}

var classTables = map[model.EntityClass]string{
	model.ClassProduct:       "catalogo_productos",
	model.ClassProvider:      "proveedores",
	model.ClassPaymentMethod: "metodos_pago",
	model.ClassCategory:      "categorias",
	model.ClassExpenseType:   "tipos_gasto",
}

// tableFor maps an entity class to its table. Table names never come from
// user input.
func tableFor(class model.EntityClass) (string, error) {
	table, ok := classTables[class]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownClass, class)
	}
	return table, nil
}
