// Package testutil provides test databases and fixtures shared by package
// tests.
package testutil

import (
	"context"
	"testing"

	"github.com/Veraticus/despensa/internal/model"
	"github.com/Veraticus/despensa/internal/storage"
)

// TestDB is a migrated in-memory database scoped to one test.
type TestDB struct {
	Storage *storage.SQLStorage
	t       *testing.T
}

// SetupTestDB creates a new in-memory test database. Migrations run
// immediately and the database is closed when the test ends.
//
// Example:
//
//	db := testutil.SetupTestDB(t).
//		WithProduct("Arroz", "kg", 3).
//		WithProvider("Líder")
func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()

	store, err := storage.NewSQLiteStorage(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	if err := store.Migrate(context.Background()); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	t.Cleanup(func() {
		_ = store.Close()
	})

	return &TestDB{Storage: store, t: t}
}

// WithProduct adds a product with an opening stock of quantity.
func (db *TestDB) WithProduct(name, unit string, quantity float64) *TestDB {
	db.t.Helper()
	ctx := context.Background()

	product, err := db.Storage.CreateProduct(ctx, name, unit, 0)
	if err != nil {
		db.t.Fatalf("failed to seed product %q: %v", name, err)
	}
	if quantity > 0 {
		if _, err := db.Storage.AddStock(ctx, product.ID, quantity); err != nil {
			db.t.Fatalf("failed to seed stock for %q: %v", name, err)
		}
	}
	return db
}

// WithProvider adds a provider.
func (db *TestDB) WithProvider(names ...string) *TestDB {
	db.t.Helper()
	return db.withEntities(model.ClassProvider, names)
}

// WithPaymentMethod adds payment methods.
func (db *TestDB) WithPaymentMethod(names ...string) *TestDB {
	db.t.Helper()
	return db.withEntities(model.ClassPaymentMethod, names)
}

// WithCategory adds categories.
func (db *TestDB) WithCategory(names ...string) *TestDB {
	db.t.Helper()
	return db.withEntities(model.ClassCategory, names)
}

func (db *TestDB) withEntities(class model.EntityClass, names []string) *TestDB {
	db.t.Helper()
	for _, name := range names {
		if _, _, err := db.Storage.FindOrCreate(context.Background(), class, name); err != nil {
			db.t.Fatalf("failed to seed %s %q: %v", class, name, err)
		}
	}
	return db
}

// MustStock returns the current stock of the named product or fails the test.
func (db *TestDB) MustStock(name string) model.StockItem {
	db.t.Helper()
	ctx := context.Background()

	product, err := db.Storage.GetProductByName(ctx, name)
	if err != nil {
		db.t.Fatalf("product %q not found: %v", name, err)
	}
	item, err := db.Storage.GetStock(ctx, product.ID)
	if err != nil {
		db.t.Fatalf("stock for %q not found: %v", name, err)
	}
	return item
}

// MustNames lists the canonical names of class or fails the test.
func (db *TestDB) MustNames(class model.EntityClass) []string {
	db.t.Helper()
	names, err := db.Storage.ListNames(context.Background(), class)
	if err != nil {
		db.t.Fatalf("failed to list %s: %v", class, err)
	}
	return names
}

// CountRows returns the number of rows in table.
func (db *TestDB) CountRows(table string) int {
	db.t.Helper()
	rows, err := db.Storage.QueryReadOnly(context.Background(), "SELECT COUNT(*) AS n FROM "+table)
	if err != nil {
		db.t.Fatalf("failed to count %s: %v", table, err)
	}
	n, ok := rows[0]["n"].(int64)
	if !ok {
		db.t.Fatalf("unexpected count type %T", rows[0]["n"])
	}
	return int(n)
}
