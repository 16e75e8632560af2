package inventory

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Veraticus/despensa/internal/common"
	"github.com/Veraticus/despensa/internal/model"
	"github.com/Veraticus/despensa/internal/resolver"
	"github.com/Veraticus/despensa/internal/units"
)

// AdjustRequest sets the stock of a known product to a counted quantity.
type AdjustRequest struct {
	Product string
	// Unit is optional; blank means the product's own unit.
	Unit     string
	Quantity float64
}

// AdjustOutcome is the business result of SetStock.
type AdjustOutcome int

const (
	// AdjustApplied means the stock now holds the requested quantity.
	AdjustApplied AdjustOutcome = iota
	// AdjustProductNotFound means no product matched the typed name.
	AdjustProductNotFound
	// AdjustUnitMismatch means the unit cannot be converted to the product's.
	AdjustUnitMismatch
)

// AdjustResult describes the outcome of SetStock.
type AdjustResult struct {
	Product  resolver.MatchResult
	Unit     string
	Previous float64
	Stock    model.StockItem
	Outcome  AdjustOutcome
}

var errNegativeStock = errors.New("stock cannot be negative")

// SetStock overwrites the stock of an existing product. Unknown names are
// never created.
func (s *Service) SetStock(ctx context.Context, req AdjustRequest) (AdjustResult, error) {
	if strings.TrimSpace(req.Product) == "" {
		return AdjustResult{}, errNoProduct
	}
	if req.Quantity < 0 {
		return AdjustResult{}, errNegativeStock
	}

	match, product, err := s.resolveProduct(ctx, req.Product)
	if err != nil {
		return AdjustResult{}, err
	}
	result := AdjustResult{Product: match, Unit: req.Unit}
	if product == nil {
		result.Outcome = AdjustProductNotFound
		return result, nil
	}
	result.Product.Name = product.Name

	quantity := req.Quantity
	if strings.TrimSpace(req.Unit) == "" {
		result.Unit = product.Unit
	} else {
		var unit string
		quantity, unit = units.Normalize(req.Unit, req.Quantity)
		_, productUnit := units.Normalize(product.Unit, 1)
		if unit != productUnit {
			result.Outcome = AdjustUnitMismatch
			result.Unit = unit
			return result, nil
		}
		result.Unit = product.Unit
	}

	before, err := s.store.GetStock(ctx, product.ID)
	if err != nil && !errors.Is(err, common.ErrNotFound) {
		return AdjustResult{}, fmt.Errorf("failed to load stock: %w", err)
	}
	result.Previous = before.Quantity

	stock, err := s.store.SetStock(ctx, product.ID, quantity)
	if errors.Is(err, common.ErrNotFound) {
		result.Outcome = AdjustProductNotFound
		return result, nil
	}
	if err != nil {
		return AdjustResult{}, fmt.Errorf("failed to set stock: %w", err)
	}

	slog.Info("stock adjusted",
		"product", product.Name,
		"previous", result.Previous,
		"quantity", stock.Quantity)

	result.Stock = stock
	result.Outcome = AdjustApplied
	return result, nil
}

// SearchStock lists products whose name contains fragment, ignoring case
// and accents. A wildcard fragment behaves like CheckStock's full listing.
func (s *Service) SearchStock(ctx context.Context, fragment string) (StockResult, error) {
	if IsWildcard(fragment) {
		return s.CheckStock(ctx, fragment)
	}

	items, err := s.store.SearchStock(ctx, fragment)
	if err != nil {
		return StockResult{}, fmt.Errorf("failed to search stock: %w", err)
	}
	typed := strings.TrimSpace(fragment)
	if len(items) == 0 {
		return StockResult{
			Outcome: StockNotFound,
			Product: resolver.MatchResult{Typed: typed, Name: typed, Tier: resolver.NoMatch},
		}, nil
	}
	return StockResult{Outcome: StockListed, Items: items}, nil
}
