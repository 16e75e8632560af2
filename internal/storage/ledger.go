package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/Veraticus/despensa/internal/model"
	"github.com/Veraticus/despensa/internal/service"
	"github.com/google/uuid"
)

// ErrInsufficientStock means a usage asked for more than is on hand.
var ErrInsufficientStock = errors.New("insufficient stock")

// InsufficientStockError carries the quantities behind ErrInsufficientStock.
type InsufficientStockError struct {
	Item      model.StockItem
	Requested float64
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %s: have %s, requested %s",
		e.Item.Name,
		strconv.FormatFloat(e.Item.Quantity, 'f', -1, 64),
		strconv.FormatFloat(e.Requested, 'f', -1, 64))
}

// Is makes errors.Is(err, ErrInsufficientStock) succeed.
func (e *InsufficientStockError) Is(target error) bool {
	return target == ErrInsufficientStock
}

// now is replaced in tests.
var now = func() time.Time { return time.Now().UTC() }

func nullID(id int64) sql.NullInt64 {
	return sql.NullInt64{Int64: id, Valid: id > 0}
}

// RecordPurchase writes the expense row and increases stock in one
// transaction, returning the new stock.
func (s *SQLStorage) RecordPurchase(ctx context.Context, rec service.PurchaseRecord) (model.StockItem, error) {
	if err := validateContext(ctx); err != nil {
		return model.StockItem{}, err
	}
	if err := validateQuantity(rec.Quantity); err != nil {
		return model.StockItem{}, err
	}
	if err := validateAmount(rec.Amount); err != nil {
		return model.StockItem{}, err
	}

	var item model.StockItem
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		expense := service.ExpenseRecord{
			Notes:           rec.Notes,
			ProviderID:      rec.ProviderID,
			PaymentMethodID: rec.PaymentMethodID,
			CategoryID:      rec.CategoryID,
			ExpenseTypeID:   rec.ExpenseTypeID,
			Amount:          rec.Amount,
		}
		if _, err := s.insertExpense(ctx, tx, expense, rec.ProductID, rec.Quantity); err != nil {
			return err
		}
		if err := s.increaseStock(ctx, tx, rec.ProductID, rec.Quantity); err != nil {
			return err
		}

		var err error
		item, err = s.getStock(ctx, tx, rec.ProductID)
		return err
	})
	if err != nil {
		return model.StockItem{}, err
	}

	slog.Info("recorded purchase",
		"product_id", rec.ProductID,
		"quantity", rec.Quantity,
		"amount", rec.Amount,
		"stock", item.Quantity)
	return item, nil
}

// RecordExpense writes an expense with no stock effect.
func (s *SQLStorage) RecordExpense(ctx context.Context, rec service.ExpenseRecord) (*model.Expense, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateAmount(rec.Amount); err != nil {
		return nil, err
	}

	expense, err := s.insertExpense(ctx, s.db, rec, 0, 0)
	if err != nil {
		return nil, err
	}

	slog.Info("recorded expense", "id", expense.ID, "amount", rec.Amount, "category_id", rec.CategoryID)
	return expense, nil
}

func (s *SQLStorage) insertExpense(ctx context.Context, q queryable, rec service.ExpenseRecord, productID int64, quantity float64) (*model.Expense, error) {
	expense := &model.Expense{
		ID:              uuid.NewString(),
		PurchasedAt:     now(),
		Amount:          rec.Amount,
		ProviderID:      rec.ProviderID,
		PaymentMethodID: rec.PaymentMethodID,
		CategoryID:      rec.CategoryID,
		ExpenseTypeID:   rec.ExpenseTypeID,
		Notes:           rec.Notes,
	}

	qty := sql.NullFloat64{}
	if productID > 0 {
		expense.ProductID = &productID
		expense.Quantity = &quantity
		qty = sql.NullFloat64{Float64: quantity, Valid: true}
	}

	query := s.dialect.Rebind(`
		INSERT INTO gastos (
			id, monto, fecha_compra, proveedor_id, metodo_pago_id,
			categoria_id, tipo_gasto_id, producto_id, cantidad_comprada, observaciones
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)

	_, err := q.ExecContext(ctx, query,
		expense.ID, expense.Amount, expense.PurchasedAt,
		nullID(rec.ProviderID), nullID(rec.PaymentMethodID),
		nullID(rec.CategoryID), nullID(rec.ExpenseTypeID),
		nullID(productID), qty, rec.Notes,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert expense: %w", err)
	}

	return expense, nil
}

// RecordUsage decreases stock and writes the usage row in one transaction.
// When the product has less than requested nothing is written and the
// returned error is an *InsufficientStockError.
func (s *SQLStorage) RecordUsage(ctx context.Context, rec service.UsageRecord) (model.StockItem, error) {
	if err := validateContext(ctx); err != nil {
		return model.StockItem{}, err
	}
	if err := validateQuantity(rec.Quantity); err != nil {
		return model.StockItem{}, err
	}

	var item model.StockItem
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		update := s.dialect.Rebind(`
			UPDATE inventario
			SET cantidad_actual = cantidad_actual - ?, actualizado_en = CURRENT_TIMESTAMP
			WHERE producto_id = ? AND cantidad_actual >= ?`)
		result, err := tx.ExecContext(ctx, update, rec.Quantity, rec.ProductID, rec.Quantity)
		if err != nil {
			if isCheckViolation(err) {
				return s.insufficient(ctx, tx, rec)
			}
			return fmt.Errorf("failed to decrease stock: %w", err)
		}

		affected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get affected rows: %w", err)
		}
		if affected == 0 {
			return s.insufficient(ctx, tx, rec)
		}

		insert := s.dialect.Rebind(`
			INSERT INTO salidas_inventario (id, producto_id, cantidad_usada, motivo, fecha)
			VALUES (?, ?, ?, ?, ?)`)
		if _, err := tx.ExecContext(ctx, insert, uuid.NewString(), rec.ProductID, rec.Quantity, rec.Reason, now()); err != nil {
			return fmt.Errorf("failed to insert usage: %w", err)
		}

		item, err = s.getStock(ctx, tx, rec.ProductID)
		return err
	})
	if err != nil {
		return model.StockItem{}, err
	}

	slog.Info("recorded usage", "product_id", rec.ProductID, "quantity", rec.Quantity, "stock", item.Quantity)
	return item, nil
}

// insufficient builds the error for a rejected usage. A missing inventory
// row surfaces as common.ErrNotFound instead.
func (s *SQLStorage) insufficient(ctx context.Context, q queryable, rec service.UsageRecord) error {
	item, err := s.getStock(ctx, q, rec.ProductID)
	if err != nil {
		return err
	}
	return &InsufficientStockError{Item: item, Requested: rec.Quantity}
}
