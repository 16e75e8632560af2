// Package inventory implements the purchase, expense, usage and stock
// operations the assistant dispatches to. Business outcomes such as missing
// products or insufficient stock are returned as result values; errors are
// reserved for persistence failures.
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
	"github.com/Veraticus/despensa/internal/service"
	"github.com/Veraticus/despensa/internal/storage"
)

// Defaults applied when the user leaves a name blank.
const (
	DefaultProvider        = "Desconocido"
	DefaultPaymentMethod   = "Efectivo"
	DefaultProductCategory = "Insumos"
	DefaultExpenseCategory = "General"
	DefaultProductUnit     = "unidad"
)

// Service runs inventory and finance mutations against storage.
type Service struct {
	store service.Storage
}

// New creates a Service.
func New(store service.Storage) *Service {
	return &Service{store: store}
}

// resolved is a name matched against its table and persisted.
type resolved struct {
	Match  resolver.MatchResult
	Entity model.Entity
}

// resolveEntity matches typed against the current names of class and
// returns the stored entity, creating it on NoMatch. Names are fetched on
// every call so concurrent writers are seen.
func (s *Service) resolveEntity(ctx context.Context, class model.EntityClass, typed, fallback string) (resolved, error) {
	if strings.TrimSpace(typed) == "" {
		typed = fallback
	}

	names, err := s.store.ListNames(ctx, class)
	if err != nil {
		return resolved{}, fmt.Errorf("failed to list %s names: %w", class, err)
	}

	match := resolver.Resolve(typed, names)
	entity, created, err := s.store.FindOrCreate(ctx, class, match.Name)
	if err != nil {
		return resolved{}, fmt.Errorf("failed to resolve %s %q: %w", class, typed, err)
	}

	slog.Debug("resolved entity",
		"class", class,
		"typed", typed,
		"name", entity.Name,
		"tier", match.Tier,
		"score", match.Score,
		"created", created)

	return resolved{Match: match, Entity: entity}, nil
}

// resolveProduct matches typed against the product catalog. A nil product
// with a NoMatch result means the catalog has nothing close enough.
func (s *Service) resolveProduct(ctx context.Context, typed string) (resolver.MatchResult, *model.Product, error) {
	names, err := s.store.ListNames(ctx, model.ClassProduct)
	if err != nil {
		return resolver.MatchResult{}, nil, fmt.Errorf("failed to list product names: %w", err)
	}

	match := resolver.Resolve(typed, names)
	if !match.Matched() {
		return match, nil, nil
	}

	product, err := s.store.GetProductByName(ctx, match.Name)
	if errors.Is(err, common.ErrNotFound) {
		// Deleted between listing and lookup
		return resolver.MatchResult{Typed: match.Typed, Name: match.Typed, Tier: resolver.NoMatch}, nil, nil
	}
	if err != nil {
		return match, nil, fmt.Errorf("failed to load product %q: %w", match.Name, err)
	}

	return match, product, nil
}

// ExpensesByProvider returns expense totals per provider, largest first.
func (s *Service) ExpensesByProvider(ctx context.Context, limit int) ([]model.ProviderTotal, error) {
	return s.store.ExpensesByProvider(ctx, limit)
}

var errNoProduct = errors.New("product name is required")

func isInsufficient(err error) (*storage.InsufficientStockError, bool) {
	var stockErr *storage.InsufficientStockError
	if errors.As(err, &stockErr) {
		return stockErr, true
	}
	return nil, false
}
