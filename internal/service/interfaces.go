// Package service defines the contracts shared between the assistant and its
// collaborators.
package service

import (
	"context"
	"time"

	"github.com/Veraticus/despensa/internal/model"
)

// PurchaseRecord is a purchase ready to be written: one expense row plus a
// stock increase for ProductID.
type PurchaseRecord struct {
	Notes           string
	ProductID       int64
	ProviderID      int64
	PaymentMethodID int64
	CategoryID      int64
	ExpenseTypeID   int64
	Quantity        float64
	Amount          float64
}

// ExpenseRecord is a payment with no stock effect.
type ExpenseRecord struct {
	Notes           string
	ProviderID      int64
	PaymentMethodID int64
	CategoryID      int64
	ExpenseTypeID   int64
	Amount          float64
}

// UsageRecord is a stock consumption.
type UsageRecord struct {
	Reason    string
	ProductID int64
	Quantity  float64
}

// Storage defines the contract for our persistence layer.
type Storage interface {
	// Name tables
	FindOrCreate(ctx context.Context, class model.EntityClass, name string) (model.Entity, bool, error)
	ListNames(ctx context.Context, class model.EntityClass) ([]string, error)

	// Product catalog
	GetProductByName(ctx context.Context, name string) (*model.Product, error)
	CreateProduct(ctx context.Context, name, unit string, categoryID int64) (*model.Product, error)
	SetMinStock(ctx context.Context, productID int64, minStock float64) error

	// Inventory
	GetStock(ctx context.Context, productID int64) (model.StockItem, error)
	ListStock(ctx context.Context) ([]model.StockItem, error)
	AddStock(ctx context.Context, productID int64, quantity float64) (model.StockItem, error)
	SetStock(ctx context.Context, productID int64, quantity float64) (model.StockItem, error)
	SearchStock(ctx context.Context, fragment string) ([]model.StockItem, error)

	// Ledger writes
	RecordPurchase(ctx context.Context, rec PurchaseRecord) (model.StockItem, error)
	RecordExpense(ctx context.Context, rec ExpenseRecord) (*model.Expense, error)
	RecordUsage(ctx context.Context, rec UsageRecord) (model.StockItem, error)

	// Reporting
	ExpensesByProvider(ctx context.Context, limit int) ([]model.ProviderTotal, error)
	QueryReadOnly(ctx context.Context, query string) ([]map[string]any, error)

	// Database management
	Migrate(ctx context.Context) error
	Close() error
}

// RetryOptions configures retry behavior for operations.
type RetryOptions struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}
