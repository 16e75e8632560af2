package inventory

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Veraticus/despensa/internal/common"
	"github.com/Veraticus/despensa/internal/model"
	"github.com/Veraticus/despensa/internal/resolver"
	"github.com/Veraticus/despensa/internal/service"
	"github.com/Veraticus/despensa/internal/storage"
)

// PurchaseRequest is a purchase of stock, already unit-normalized.
type PurchaseRequest struct {
	Product       string
	Unit          string
	Provider      string
	PaymentMethod string
	Quantity      float64
	Cost          float64
}

// PurchaseResult describes a recorded purchase.
type PurchaseResult struct {
	Product        resolver.MatchResult
	Provider       resolver.MatchResult
	PaymentMethod  resolver.MatchResult
	Unit           string
	Stock          model.StockItem
	Quantity       float64
	Cost           float64
	ProductCreated bool
}

// RegisterPurchase records an expense for the purchase and adds the bought
// quantity to stock. Unknown products are created.
func (s *Service) RegisterPurchase(ctx context.Context, req PurchaseRequest) (PurchaseResult, error) {
	if strings.TrimSpace(req.Product) == "" {
		return PurchaseResult{}, errNoProduct
	}

	provider, err := s.resolveEntity(ctx, model.ClassProvider, req.Provider, DefaultProvider)
	if err != nil {
		return PurchaseResult{}, err
	}
	payment, err := s.resolveEntity(ctx, model.ClassPaymentMethod, req.PaymentMethod, DefaultPaymentMethod)
	if err != nil {
		return PurchaseResult{}, err
	}

	match, product, err := s.resolveProduct(ctx, req.Product)
	if err != nil {
		return PurchaseResult{}, err
	}

	created := false
	if product == nil {
		category, catErr := s.resolveEntity(ctx, model.ClassCategory, DefaultProductCategory, DefaultProductCategory)
		if catErr != nil {
			return PurchaseResult{}, catErr
		}
		unit := req.Unit
		if strings.TrimSpace(unit) == "" {
			unit = DefaultProductUnit
		}
		product, err = s.store.CreateProduct(ctx, match.Name, unit, category.Entity.ID)
		if err != nil {
			return PurchaseResult{}, fmt.Errorf("failed to create product %q: %w", match.Name, err)
		}
		created = true
	}

	expenseType, _, err := s.store.FindOrCreate(ctx, model.ClassExpenseType, storage.ExpenseTypeVariable)
	if err != nil {
		return PurchaseResult{}, fmt.Errorf("failed to load expense type: %w", err)
	}

	stock, err := s.store.RecordPurchase(ctx, service.PurchaseRecord{
		Notes:           "Compra de " + product.Name,
		ProductID:       product.ID,
		ProviderID:      provider.Entity.ID,
		PaymentMethodID: payment.Entity.ID,
		CategoryID:      product.CategoryID,
		ExpenseTypeID:   expenseType.ID,
		Quantity:        req.Quantity,
		Amount:          req.Cost,
	})
	if err != nil {
		return PurchaseResult{}, fmt.Errorf("failed to record purchase: %w", err)
	}

	unit := req.Unit
	if strings.TrimSpace(unit) == "" {
		unit = product.Unit
	}
	match.Name = product.Name

	return PurchaseResult{
		Product:        match,
		Provider:       withName(provider),
		PaymentMethod:  withName(payment),
		Unit:           unit,
		Stock:          stock,
		Quantity:       req.Quantity,
		Cost:           req.Cost,
		ProductCreated: created,
	}, nil
}

// ExpenseRequest is a payment with no stock effect.
type ExpenseRequest struct {
	Category      string
	Provider      string
	PaymentMethod string
	Cost          float64
}

// ExpenseResult describes a recorded expense.
type ExpenseResult struct {
	Category      resolver.MatchResult
	Provider      resolver.MatchResult
	PaymentMethod resolver.MatchResult
	Expense       *model.Expense
	Cost          float64
}

// RegisterExpense records a fixed expense such as rent or electricity.
func (s *Service) RegisterExpense(ctx context.Context, req ExpenseRequest) (ExpenseResult, error) {
	category, err := s.resolveEntity(ctx, model.ClassCategory, req.Category, DefaultExpenseCategory)
	if err != nil {
		return ExpenseResult{}, err
	}
	provider, err := s.resolveEntity(ctx, model.ClassProvider, req.Provider, DefaultProvider)
	if err != nil {
		return ExpenseResult{}, err
	}
	payment, err := s.resolveEntity(ctx, model.ClassPaymentMethod, req.PaymentMethod, DefaultPaymentMethod)
	if err != nil {
		return ExpenseResult{}, err
	}

	expenseType, _, err := s.store.FindOrCreate(ctx, model.ClassExpenseType, storage.ExpenseTypeFixed)
	if err != nil {
		return ExpenseResult{}, fmt.Errorf("failed to load expense type: %w", err)
	}

	expense, err := s.store.RecordExpense(ctx, service.ExpenseRecord{
		Notes:           "Pago de " + category.Entity.Name,
		ProviderID:      provider.Entity.ID,
		PaymentMethodID: payment.Entity.ID,
		CategoryID:      category.Entity.ID,
		ExpenseTypeID:   expenseType.ID,
		Amount:          req.Cost,
	})
	if err != nil {
		return ExpenseResult{}, fmt.Errorf("failed to record expense: %w", err)
	}

	return ExpenseResult{
		Category:      withName(category),
		Provider:      withName(provider),
		PaymentMethod: withName(payment),
		Expense:       expense,
		Cost:          req.Cost,
	}, nil
}

// UsageOutcome is the business result of RegisterUsage.
type UsageOutcome int

const (
	// UsageRecorded means stock was decreased.
	UsageRecorded UsageOutcome = iota
	// UsageInsufficientStock means less than requested is on hand; nothing was written.
	UsageInsufficientStock
	// UsageProductNotFound means no product matched the typed name.
	UsageProductNotFound
)

// UsageRequest consumes stock, already unit-normalized.
type UsageRequest struct {
	Product  string
	Unit     string
	Reason   string
	Quantity float64
}

// UsageResult describes the outcome of RegisterUsage. Stock holds the
// remaining stock after a recorded usage, or the current stock when it was
// insufficient.
type UsageResult struct {
	Product   resolver.MatchResult
	Unit      string
	Stock     model.StockItem
	Requested float64
	Outcome   UsageOutcome
}

// RegisterUsage decreases the stock of a known product.
func (s *Service) RegisterUsage(ctx context.Context, req UsageRequest) (UsageResult, error) {
	if strings.TrimSpace(req.Product) == "" {
		return UsageResult{}, errNoProduct
	}

	match, product, err := s.resolveProduct(ctx, req.Product)
	if err != nil {
		return UsageResult{}, err
	}

	result := UsageResult{Product: match, Requested: req.Quantity, Unit: req.Unit}
	if product == nil {
		result.Outcome = UsageProductNotFound
		return result, nil
	}
	result.Product.Name = product.Name
	if strings.TrimSpace(result.Unit) == "" {
		result.Unit = product.Unit
	}

	stock, err := s.store.RecordUsage(ctx, service.UsageRecord{
		ProductID: product.ID,
		Quantity:  req.Quantity,
		Reason:    req.Reason,
	})
	if stockErr, ok := isInsufficient(err); ok {
		result.Outcome = UsageInsufficientStock
		result.Stock = stockErr.Item
		return result, nil
	}
	if errors.Is(err, common.ErrNotFound) {
		result.Outcome = UsageProductNotFound
		return result, nil
	}
	if err != nil {
		return UsageResult{}, fmt.Errorf("failed to record usage: %w", err)
	}

	result.Outcome = UsageRecorded
	result.Stock = stock
	return result, nil
}

// StockOutcome is the business result of CheckStock.
type StockOutcome int

const (
	// StockFound reports a single product.
	StockFound StockOutcome = iota
	// StockListed reports every tracked product.
	StockListed
	// StockEmpty means a full listing was asked for and nothing is tracked.
	StockEmpty
	// StockNotFound means no product matched the typed name.
	StockNotFound
)

// StockResult describes the outcome of CheckStock.
type StockResult struct {
	Product resolver.MatchResult
	Items   []model.StockItem
	Outcome StockOutcome
}

var wildcards = map[string]struct{}{
	"":           {},
	"todo":       {},
	"todos":      {},
	"all":        {},
	"everything": {},
	"inventory":  {},
	"inventario": {},
}

// IsWildcard reports whether name asks for the whole inventory.
func IsWildcard(name string) bool {
	_, ok := wildcards[strings.ToLower(strings.TrimSpace(name))]
	return ok
}

// CheckStock reports the stock of one product, or of every product when
// name is a wildcard.
func (s *Service) CheckStock(ctx context.Context, name string) (StockResult, error) {
	if IsWildcard(name) {
		items, err := s.store.ListStock(ctx)
		if err != nil {
			return StockResult{}, fmt.Errorf("failed to list stock: %w", err)
		}
		if len(items) == 0 {
			return StockResult{Outcome: StockEmpty}, nil
		}
		return StockResult{Outcome: StockListed, Items: items}, nil
	}

	match, product, err := s.resolveProduct(ctx, name)
	if err != nil {
		return StockResult{}, err
	}
	if product == nil {
		return StockResult{Outcome: StockNotFound, Product: match}, nil
	}
	match.Name = product.Name

	item, err := s.store.GetStock(ctx, product.ID)
	if errors.Is(err, common.ErrNotFound) {
		return StockResult{Outcome: StockNotFound, Product: match}, nil
	}
	if err != nil {
		return StockResult{}, fmt.Errorf("failed to load stock: %w", err)
	}

	return StockResult{Outcome: StockFound, Product: match, Items: []model.StockItem{item}}, nil
}

// withName returns the match with its name replaced by the stored one, so
// created entities report the name as persisted.
func withName(r resolved) resolver.MatchResult {
	m := r.Match
	m.Name = r.Entity.Name
	return m
}
