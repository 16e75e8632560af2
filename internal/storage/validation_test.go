package storage

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/Veraticus/despensa/internal/model"
)

func TestValidateContext(t *testing.T) {
	tests := []struct {
		ctx     context.Context
		name    string
		wantErr bool
	}{
		{
			name:    "valid context",
			ctx:     context.Background(),
			wantErr: false,
		},
		{
			name:    "nil context",
			ctx:     nil,
			wantErr: true,
		},
		{
			name: "canceled context still valid",
			ctx: func() context.Context {
				ctx, cancel := context.WithCancel(context.Background())
				cancel()
				return ctx
			}(),
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateContext(tt.ctx)
			if (err != nil) != tt.wantErr {
				t.Errorf("validateContext() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateString(t *testing.T) {
	tests := []struct {
		name      string
		str       string
		paramName string
		wantErr   bool
	}{
		{
			name:      "valid string",
			str:       "test",
			paramName: "param",
			wantErr:   false,
		},
		{
			name:      "empty string",
			str:       "",
			paramName: "param",
			wantErr:   true,
		},
		{
			name:      "whitespace only",
			str:       "   ",
			paramName: "param",
			wantErr:   true,
		},
		{
			name:      "string with spaces",
			str:       "  test  ",
			paramName: "param",
			wantErr:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateString(tt.str, tt.paramName)
			if (err != nil) != tt.wantErr {
				t.Errorf("validateString() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !strings.Contains(err.Error(), tt.paramName) {
				t.Errorf("validateString() error should contain param name %s, got %v", tt.paramName, err)
			}
		})
	}
}

func TestValidateQuantity(t *testing.T) {
	tests := []struct {
		name    string
		q       float64
		wantErr bool
	}{
		{"positive", 2.5, false},
		{"tiny", 0.001, false},
		{"zero", 0, true},
		{"negative", -1, true},
		{"nan", math.NaN(), true},
		{"infinite", math.Inf(1), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateQuantity(tt.q)
			if (err != nil) != tt.wantErr {
				t.Errorf("validateQuantity() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidQuantity) {
				t.Errorf("validateQuantity() error = %v, want ErrInvalidQuantity", err)
			}
		})
	}
}

func TestValidateAmount(t *testing.T) {
	tests := []struct {
		name    string
		a       float64
		wantErr bool
	}{
		{"positive", 3000, false},
		{"zero is allowed", 0, false},
		{"negative", -10, true},
		{"nan", math.NaN(), true},
		{"infinite", math.Inf(-1), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateAmount(tt.a)
			if (err != nil) != tt.wantErr {
				t.Errorf("validateAmount() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestTableFor(t *testing.T) {
	table, err := tableFor(model.ClassPaymentMethod)
	if err != nil || table != "metodos_pago" {
		t.Errorf("tableFor(payment_method) = %q, %v", table, err)
	}

	if _, err := tableFor(model.EntityClass("usuarios; DROP TABLE gastos")); !errors.Is(err, ErrUnknownClass) {
		t.Errorf("tableFor(unknown) error = %v, want ErrUnknownClass", err)
	}
}
