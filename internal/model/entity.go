package model

import "time"

// EntityClass names a table of canonical, user-visible names.
type EntityClass string

const (
	// ClassProduct is the product catalog.
	ClassProduct EntityClass = "product"
	// ClassProvider is the supplier list.
	ClassProvider EntityClass = "provider"
	// ClassPaymentMethod is the list of payment methods (efectivo, débito...).
	ClassPaymentMethod EntityClass = "payment_method"
	// ClassCategory is the expense and product category list.
	ClassCategory EntityClass = "category"
	// ClassExpenseType distinguishes fixed from variable expenses.
	ClassExpenseType EntityClass = "expense_type"
)

// Entity is a row of one of the name tables.
type Entity struct {
	Name  string
	Class EntityClass
	ID    int64
}

// Product is a catalog entry.
type Product struct {
	Name       string
	Unit       string
	ID         int64
	CategoryID int64
	MinStock   float64
}

// StockItem is the current stock of one product.
type StockItem struct {
	Name      string
	Unit      string
	ProductID int64
	Quantity  float64
	MinStock  float64
}

// Low reports whether the stock has fallen below its minimum.
func (s StockItem) Low() bool {
	return s.Quantity < s.MinStock
}

// Expense is a recorded payment, optionally tied to a product purchase.
type Expense struct {
	PurchasedAt     time.Time
	ProductID       *int64
	Quantity        *float64
	ID              string
	Notes           string
	Amount          float64
	ProviderID      int64
	PaymentMethodID int64
	CategoryID      int64
	ExpenseTypeID   int64
}

// Usage is a recorded stock consumption.
type Usage struct {
	UsedAt    time.Time
	ID        string
	Reason    string
	ProductID int64
	Quantity  float64
}

// ProviderTotal aggregates expenses per provider.
type ProviderTotal struct {
	Provider string
	Total    float64
	Count    int
}
