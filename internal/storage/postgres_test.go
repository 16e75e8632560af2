package storage

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/Veraticus/despensa/internal/model"
	"github.com/Veraticus/despensa/internal/service"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockStorage(t *testing.T) (*SQLStorage, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	return NewWithDB(db, DialectPostgres), mock
}

func TestPostgresFindOrCreate(t *testing.T) {
	selectQuery := regexp.QuoteMeta(`SELECT id, nombre FROM proveedores WHERE nombre_normalizado = $1`)
	insertQuery := regexp.QuoteMeta(`INSERT INTO proveedores (nombre, nombre_normalizado) VALUES ($1, $2) RETURNING id`)

	t.Run("existing row", func(t *testing.T) {
		store, mock := newMockStorage(t)

		mock.ExpectQuery(selectQuery).
			WithArgs("lider").
			WillReturnRows(sqlmock.NewRows([]string{"id", "nombre"}).AddRow(7, "Líder"))

		entity, created, err := store.FindOrCreate(context.Background(), model.ClassProvider, "LÍDER")
		require.NoError(t, err)
		assert.False(t, created)
		assert.Equal(t, model.Entity{ID: 7, Name: "Líder", Class: model.ClassProvider}, entity)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("insert new row", func(t *testing.T) {
		store, mock := newMockStorage(t)

		mock.ExpectQuery(selectQuery).
			WithArgs("jumbo").
			WillReturnRows(sqlmock.NewRows([]string{"id", "nombre"}))
		mock.ExpectQuery(insertQuery).
			WithArgs("Jumbo", "jumbo").
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(11))

		entity, created, err := store.FindOrCreate(context.Background(), model.ClassProvider, "Jumbo")
		require.NoError(t, err)
		assert.True(t, created)
		assert.Equal(t, int64(11), entity.ID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("lost race falls back to lookup", func(t *testing.T) {
		store, mock := newMockStorage(t)

		mock.ExpectQuery(selectQuery).
			WithArgs("lider").
			WillReturnRows(sqlmock.NewRows([]string{"id", "nombre"}))
		mock.ExpectQuery(insertQuery).
			WithArgs("Lider", "lider").
			WillReturnError(&pq.Error{Code: "23505", Message: "duplicate key value violates unique constraint"})
		mock.ExpectQuery(selectQuery).
			WithArgs("lider").
			WillReturnRows(sqlmock.NewRows([]string{"id", "nombre"}).AddRow(3, "Líder"))

		entity, created, err := store.FindOrCreate(context.Background(), model.ClassProvider, "Lider")
		require.NoError(t, err)
		assert.False(t, created)
		assert.Equal(t, "Líder", entity.Name)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("connection failure", func(t *testing.T) {
		store, mock := newMockStorage(t)

		mock.ExpectQuery(selectQuery).WillReturnError(errors.New("connection refused"))

		_, _, err := store.FindOrCreate(context.Background(), model.ClassProvider, "Jumbo")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "connection refused")
	})
}

func TestPostgresRecordUsageInsufficient(t *testing.T) {
	store, mock := newMockStorage(t)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE inventario\s+SET cantidad_actual = cantidad_actual - \$1, actualizado_en = CURRENT_TIMESTAMP\s+WHERE producto_id = \$2 AND cantidad_actual >= \$3`).
		WithArgs(5.0, int64(1), 5.0).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT p.id, p.nombre, p.unidad_medida, p.stock_minimo, i.cantidad_actual .+ WHERE p.id = \$1`).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "nombre", "unidad_medida", "stock_minimo", "cantidad_actual"}).
			AddRow(1, "Harina", "kg", 5.0, 3.0))
	mock.ExpectRollback()

	_, err := store.RecordUsage(context.Background(), service.UsageRecord{ProductID: 1, Quantity: 5})
	require.ErrorIs(t, err, ErrInsufficientStock)
	assert.Contains(t, err.Error(), "have 3, requested 5")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRecordPurchaseRollsBack(t *testing.T) {
	store, mock := newMockStorage(t)

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO gastos`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO inventario`).WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	_, err := store.RecordPurchase(context.Background(), service.PurchaseRecord{
		ProductID: 1,
		Quantity:  2,
		Amount:    3000,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to increase stock")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresQueryReadOnly(t *testing.T) {
	store, mock := newMockStorage(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT nombre, total FROM resumen`).
		WillReturnRows(sqlmock.NewRows([]string{"nombre", "total"}).
			AddRow([]byte("Líder"), 3500.0))
	mock.ExpectRollback()

	rows, err := store.QueryReadOnly(context.Background(), `SELECT nombre, total FROM resumen`)
	require.NoError(t, err)
	assert.Equal(t, []map[string]any{{"nombre": "Líder", "total": 3500.0}}, rows)
	assert.NoError(t, mock.ExpectationsWereMet())
}
