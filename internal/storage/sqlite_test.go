package storage

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/Veraticus/despensa/internal/common"
	"github.com/Veraticus/despensa/internal/model"
	"github.com/Veraticus/despensa/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestStorage(t *testing.T) *SQLStorage {
	t.Helper()

	store, err := NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	require.NoError(t, store.Migrate(context.Background()))

	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestMigrate(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	version, err := store.SchemaVersion(ctx)
	require.NoError(t, err)
	assert.Equal(t, ExpectedSchemaVersion, version)

	// Running again is a no-op
	require.NoError(t, store.Migrate(ctx))

	names, err := store.ListNames(ctx, model.ClassExpenseType)
	require.NoError(t, err)
	assert.Equal(t, []string{ExpenseTypeFixed, ExpenseTypeVariable}, names)
}

func TestFindOrCreate(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	first, created, err := store.FindOrCreate(ctx, model.ClassProvider, " Líder ")
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "Líder", first.Name)
	assert.Equal(t, model.ClassProvider, first.Class)

	tests := []string{"Líder", "lider", "LIDER", "líder!"}
	for _, name := range tests {
		t.Run(name, func(t *testing.T) {
			got, created, err := store.FindOrCreate(ctx, model.ClassProvider, name)
			require.NoError(t, err)
			assert.False(t, created)
			assert.Equal(t, first.ID, got.ID)
			assert.Equal(t, "Líder", got.Name)
		})
	}

	names, err := store.ListNames(ctx, model.ClassProvider)
	require.NoError(t, err)
	assert.Equal(t, []string{"Líder"}, names)
}

func TestFindOrCreateValidation(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	_, _, err := store.FindOrCreate(ctx, model.ClassProvider, "   ")
	assert.ErrorIs(t, err, ErrEmptyString)

	_, _, err = store.FindOrCreate(ctx, model.EntityClass("planet"), "Marte")
	assert.ErrorIs(t, err, ErrUnknownClass)

	//nolint:staticcheck // testing nil context handling
	_, _, err = store.FindOrCreate(nil, model.ClassProvider, "Líder")
	assert.ErrorIs(t, err, ErrNilContext)
}

func TestFindOrCreateConcurrent(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	ids := make([]int64, 8)
	errs := make([]error, 8)
	for i := range ids {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			entity, _, err := store.FindOrCreate(ctx, model.ClassPaymentMethod, "Débito")
			ids[i], errs[i] = entity.ID, err
		}(i)
	}
	wg.Wait()

	for i := range ids {
		require.NoError(t, errs[i])
		assert.Equal(t, ids[0], ids[i])
	}
}

func TestCreateProduct(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	cat, _, err := store.FindOrCreate(ctx, model.ClassCategory, "Insumos")
	require.NoError(t, err)

	product, err := store.CreateProduct(ctx, "Azúcar", "kg", cat.ID)
	require.NoError(t, err)
	assert.Equal(t, "Azúcar", product.Name)
	assert.Equal(t, "kg", product.Unit)
	assert.Equal(t, cat.ID, product.CategoryID)
	assert.Equal(t, 5.0, product.MinStock)

	again, err := store.CreateProduct(ctx, "azucar", "g", 0)
	require.NoError(t, err)
	assert.Equal(t, product.ID, again.ID)
	assert.Equal(t, "kg", again.Unit)

	item, err := store.GetStock(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, 0.0, item.Quantity)

	byName, err := store.GetProductByName(ctx, "AZÚCAR")
	require.NoError(t, err)
	assert.Equal(t, product.ID, byName.ID)

	_, err = store.GetProductByName(ctx, "sal")
	assert.ErrorIs(t, err, common.ErrNotFound)

	noUnit, err := store.CreateProduct(ctx, "Huevos", "", 0)
	require.NoError(t, err)
	assert.Equal(t, "unidad", noUnit.Unit)
	assert.Zero(t, noUnit.CategoryID)
}

func TestSetMinStock(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	product, err := store.CreateProduct(ctx, "Leche", "liters", 0)
	require.NoError(t, err)

	require.NoError(t, store.SetMinStock(ctx, product.ID, 12))
	item, err := store.GetStock(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, 12.0, item.MinStock)
	assert.True(t, item.Low())

	assert.ErrorIs(t, store.SetMinStock(ctx, 9999, 1), common.ErrNotFound)
	assert.ErrorIs(t, store.SetMinStock(ctx, product.ID, -1), ErrInvalidAmount)
}

func TestSetStock(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	product, err := store.CreateProduct(ctx, "Leche", "liters", 0)
	require.NoError(t, err)
	_, err = store.AddStock(ctx, product.ID, 10)
	require.NoError(t, err)

	item, err := store.SetStock(ctx, product.ID, 2.5)
	require.NoError(t, err)
	assert.Equal(t, 2.5, item.Quantity)
	assert.Equal(t, "Leche", item.Name)

	item, err = store.SetStock(ctx, product.ID, 0)
	require.NoError(t, err)
	assert.Zero(t, item.Quantity)

	_, err = store.SetStock(ctx, 9999, 1)
	assert.ErrorIs(t, err, common.ErrNotFound)
	_, err = store.SetStock(ctx, product.ID, -1)
	assert.ErrorIs(t, err, ErrInvalidAmount)
}

func TestSearchStock(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	for _, name := range []string{"Harina", "Harina de maíz", "Azúcar"} {
		_, err := store.CreateProduct(ctx, name, "kg", 0)
		require.NoError(t, err)
	}

	items, err := store.SearchStock(ctx, "HARINA")
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "Harina", items[0].Name)
	assert.Equal(t, "Harina de maíz", items[1].Name)

	items, err = store.SearchStock(ctx, "maíz")
	require.NoError(t, err)
	require.Len(t, items, 1)

	items, err = store.SearchStock(ctx, "caviar")
	require.NoError(t, err)
	assert.Empty(t, items)

	_, err = store.SearchStock(ctx, " ")
	assert.ErrorIs(t, err, ErrEmptyString)
}

func seedPurchaseRefs(t *testing.T, store *SQLStorage) service.PurchaseRecord {
	t.Helper()
	ctx := context.Background()

	provider, _, err := store.FindOrCreate(ctx, model.ClassProvider, "Líder")
	require.NoError(t, err)
	payment, _, err := store.FindOrCreate(ctx, model.ClassPaymentMethod, "Débito")
	require.NoError(t, err)
	variable, _, err := store.FindOrCreate(ctx, model.ClassExpenseType, ExpenseTypeVariable)
	require.NoError(t, err)
	product, err := store.CreateProduct(ctx, "Arroz", "kg", 0)
	require.NoError(t, err)

	return service.PurchaseRecord{
		Notes:           "Compra de Arroz",
		ProductID:       product.ID,
		ProviderID:      provider.ID,
		PaymentMethodID: payment.ID,
		ExpenseTypeID:   variable.ID,
	}
}

func TestRecordPurchase(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	rec := seedPurchaseRefs(t, store)
	rec.Quantity, rec.Amount = 10, 15000

	item, err := store.RecordPurchase(ctx, rec)
	require.NoError(t, err)
	assert.Equal(t, 10.0, item.Quantity)
	assert.Equal(t, "Arroz", item.Name)

	item, err = store.RecordPurchase(ctx, rec)
	require.NoError(t, err)
	assert.Equal(t, 20.0, item.Quantity)

	rows, err := store.QueryReadOnly(ctx, `SELECT monto, cantidad_comprada, observaciones FROM gastos`)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, 15000.0, rows[0]["monto"])
	assert.Equal(t, "Compra de Arroz", rows[0]["observaciones"])

	rec.Quantity = 0
	_, err = store.RecordPurchase(ctx, rec)
	assert.ErrorIs(t, err, ErrInvalidQuantity)
}

func TestRecordExpense(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	cat, _, err := store.FindOrCreate(ctx, model.ClassCategory, "Luz")
	require.NoError(t, err)

	expense, err := store.RecordExpense(ctx, service.ExpenseRecord{
		Notes:      "Pago de Luz",
		CategoryID: cat.ID,
		Amount:     45000,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, expense.ID)
	assert.Nil(t, expense.ProductID)

	stock, err := store.ListStock(ctx)
	require.NoError(t, err)
	assert.Empty(t, stock)
}

func TestRecordUsage(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	rec := seedPurchaseRefs(t, store)
	rec.Quantity, rec.Amount = 3, 4500
	_, err := store.RecordPurchase(ctx, rec)
	require.NoError(t, err)

	t.Run("insufficient stock writes nothing", func(t *testing.T) {
		_, err := store.RecordUsage(ctx, service.UsageRecord{ProductID: rec.ProductID, Quantity: 5})
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrInsufficientStock)

		var stockErr *InsufficientStockError
		require.True(t, errors.As(err, &stockErr))
		assert.Equal(t, 3.0, stockErr.Item.Quantity)
		assert.Equal(t, 5.0, stockErr.Requested)

		item, err := store.GetStock(ctx, rec.ProductID)
		require.NoError(t, err)
		assert.Equal(t, 3.0, item.Quantity)

		rows, err := store.QueryReadOnly(ctx, `SELECT COUNT(*) AS n FROM salidas_inventario`)
		require.NoError(t, err)
		assert.Equal(t, int64(0), rows[0]["n"])
	})

	t.Run("exact amount empties stock", func(t *testing.T) {
		item, err := store.RecordUsage(ctx, service.UsageRecord{ProductID: rec.ProductID, Quantity: 3, Reason: "almuerzo"})
		require.NoError(t, err)
		assert.Equal(t, 0.0, item.Quantity)
	})

	t.Run("unknown product", func(t *testing.T) {
		_, err := store.RecordUsage(ctx, service.UsageRecord{ProductID: 4242, Quantity: 1})
		assert.ErrorIs(t, err, common.ErrNotFound)
	})
}

func TestExpensesByProvider(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	rec := seedPurchaseRefs(t, store)
	rec.Quantity, rec.Amount = 1, 1000
	_, err := store.RecordPurchase(ctx, rec)
	require.NoError(t, err)
	rec.Amount = 2500
	_, err = store.RecordPurchase(ctx, rec)
	require.NoError(t, err)

	other, _, err := store.FindOrCreate(ctx, model.ClassProvider, "Jumbo")
	require.NoError(t, err)
	_, err = store.RecordExpense(ctx, service.ExpenseRecord{ProviderID: other.ID, Amount: 9000})
	require.NoError(t, err)

	totals, err := store.ExpensesByProvider(ctx, 5)
	require.NoError(t, err)
	require.Len(t, totals, 2)
	assert.Equal(t, model.ProviderTotal{Provider: "Jumbo", Total: 9000, Count: 1}, totals[0])
	assert.Equal(t, model.ProviderTotal{Provider: "Líder", Total: 3500, Count: 2}, totals[1])
}

func TestQueryReadOnly(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	_, _, err := store.FindOrCreate(ctx, model.ClassProvider, "Líder")
	require.NoError(t, err)

	rows, err := store.QueryReadOnly(ctx, `SELECT nombre FROM proveedores`)
	require.NoError(t, err)
	assert.Equal(t, []map[string]any{{"nombre": "Líder"}}, rows)

	_, err = store.QueryReadOnly(ctx, `DELETE FROM proveedores`)
	require.Error(t, err)

	names, err := store.ListNames(ctx, model.ClassProvider)
	require.NoError(t, err)
	assert.Equal(t, []string{"Líder"}, names, "write must have been rejected")

	// The connection is writable again afterwards
	_, created, err := store.FindOrCreate(ctx, model.ClassProvider, "Jumbo")
	require.NoError(t, err)
	assert.True(t, created)
}

func TestParseDialect(t *testing.T) {
	for _, name := range []string{"", "sqlite", "SQLite3"} {
		d, err := ParseDialect(name)
		require.NoError(t, err)
		assert.Equal(t, DialectSQLite, d)
	}
	for _, name := range []string{"postgres", "postgresql", "pg"} {
		d, err := ParseDialect(name)
		require.NoError(t, err)
		assert.Equal(t, DialectPostgres, d)
	}
	_, err := ParseDialect("oracle")
	assert.Error(t, err)
}

func TestRebind(t *testing.T) {
	q := `SELECT * FROM t WHERE a = ? AND b = '?' AND c = ?`
	assert.Equal(t, q, DialectSQLite.Rebind(q))
	assert.Equal(t, `SELECT * FROM t WHERE a = $1 AND b = '?' AND c = $2`, DialectPostgres.Rebind(q))
}
