// Package seed loads a starting catalog of categories, providers, payment
// methods and products into storage.
package seed

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/schollz/progressbar/v3"
	"gopkg.in/yaml.v3"

	"github.com/Veraticus/despensa/internal/common"
	"github.com/Veraticus/despensa/internal/config"
	"github.com/Veraticus/despensa/internal/model"
	"github.com/Veraticus/despensa/internal/service"
)

//go:embed default.yaml
var defaultCatalog []byte

// Catalog is the seed file format.
type Catalog struct {
	Categories     []string  `yaml:"categorias"`
	Providers      []string  `yaml:"proveedores"`
	PaymentMethods []string  `yaml:"metodos_pago"`
	Products       []Product `yaml:"productos"`
}

// Product is a catalog entry with its opening stock.
type Product struct {
	Name         string  `yaml:"nombre"`
	Unit         string  `yaml:"unidad"`
	Category     string  `yaml:"categoria"`
	MinStock     float64 `yaml:"stock_minimo"`
	InitialStock float64 `yaml:"stock_inicial"`
}

// Summary counts what Apply did.
type Summary struct {
	Created  int
	Existing int
}

// Load reads a catalog from path, or the built-in catalog when path is
// empty.
func Load(path string) (Catalog, error) {
	if path == "" {
		return Default()
	}

	data, err := os.ReadFile(config.ExpandPath(path))
	if err != nil {
		return Catalog{}, fmt.Errorf("failed to read seed file: %w", err)
	}
	return Parse(data)
}

// Default returns the built-in catalog.
func Default() (Catalog, error) {
	return Parse(defaultCatalog)
}

// Parse decodes and validates a catalog.
func Parse(data []byte) (Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return Catalog{}, fmt.Errorf("failed to parse seed catalog: %w", err)
	}
	if err := c.validate(); err != nil {
		return Catalog{}, err
	}
	return c, nil
}

func (c Catalog) validate() error {
	var errs []error
	for class, names := range map[string][]string{
		"categorias":   c.Categories,
		"proveedores":  c.Providers,
		"metodos_pago": c.PaymentMethods,
	} {
		for i, name := range names {
			if strings.TrimSpace(name) == "" {
				errs = append(errs, fmt.Errorf("%s[%d]: empty name", class, i))
			}
		}
	}
	for i, p := range c.Products {
		if strings.TrimSpace(p.Name) == "" {
			errs = append(errs, fmt.Errorf("productos[%d]: empty nombre", i))
		}
		if p.MinStock < 0 || p.InitialStock < 0 {
			errs = append(errs, fmt.Errorf("productos[%d] %q: negative stock", i, p.Name))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", common.ErrInvalidConfig, errors.Join(errs...))
	}
	return nil
}

// Size is the number of entries Apply will process.
func (c Catalog) Size() int {
	return len(c.Categories) + len(c.Providers) + len(c.PaymentMethods) + len(c.Products)
}

// Apply find-or-creates every entry, reporting progress to w. Opening stock
// and minimums are only applied to products created by this call, so
// applying the same catalog twice changes nothing.
func Apply(ctx context.Context, store service.Storage, c Catalog, w io.Writer) (Summary, error) {
	if w == nil {
		w = io.Discard
	}

	bar := progressbar.NewOptions(c.Size(),
		progressbar.OptionSetWriter(w),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription("Cargando catálogo..."),
		progressbar.OptionOnCompletion(func() {
			_, _ = fmt.Fprintln(w)
		}),
	)

	var summary Summary
	count := func(created bool) {
		if created {
			summary.Created++
		} else {
			summary.Existing++
		}
		if err := bar.Add(1); err != nil {
			slog.Warn("Failed to update progress bar", "error", err)
		}
	}

	entities := []struct {
		class model.EntityClass
		names []string
	}{
		{model.ClassCategory, c.Categories},
		{model.ClassProvider, c.Providers},
		{model.ClassPaymentMethod, c.PaymentMethods},
	}
	for _, group := range entities {
		for _, name := range group.names {
			_, created, err := store.FindOrCreate(ctx, group.class, name)
			if err != nil {
				return summary, fmt.Errorf("failed to seed %s %q: %w", group.class, name, err)
			}
			count(created)
		}
	}

	for _, p := range c.Products {
		created, err := applyProduct(ctx, store, p)
		if err != nil {
			return summary, err
		}
		count(created)
	}

	slog.Info("seeded catalog", "created", summary.Created, "existing", summary.Existing)
	return summary, nil
}

func applyProduct(ctx context.Context, store service.Storage, p Product) (bool, error) {
	existing, err := store.GetProductByName(ctx, p.Name)
	if err == nil && existing != nil {
		return false, nil
	}
	if err != nil && !errors.Is(err, common.ErrNotFound) {
		return false, fmt.Errorf("failed to look up product %q: %w", p.Name, err)
	}

	var categoryID int64
	if strings.TrimSpace(p.Category) != "" {
		category, _, err := store.FindOrCreate(ctx, model.ClassCategory, p.Category)
		if err != nil {
			return false, fmt.Errorf("failed to seed category %q: %w", p.Category, err)
		}
		categoryID = category.ID
	}

	product, err := store.CreateProduct(ctx, p.Name, p.Unit, categoryID)
	if err != nil {
		return false, fmt.Errorf("failed to seed product %q: %w", p.Name, err)
	}
	if p.MinStock > 0 {
		if err := store.SetMinStock(ctx, product.ID, p.MinStock); err != nil {
			return false, fmt.Errorf("failed to set minimum stock of %q: %w", p.Name, err)
		}
	}
	if p.InitialStock > 0 {
		if _, err := store.AddStock(ctx, product.ID, p.InitialStock); err != nil {
			return false, fmt.Errorf("failed to set opening stock of %q: %w", p.Name, err)
		}
	}
	return true, nil
}
