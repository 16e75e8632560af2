package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Veraticus/despensa/internal/common"
	"github.com/Veraticus/despensa/internal/model"
)

const stockSelect = `
	SELECT p.id, p.nombre, p.unidad_medida, p.stock_minimo, i.cantidad_actual
	FROM catalogo_productos p
	JOIN inventario i ON i.producto_id = p.id`

// GetStock returns the current stock of a product, or common.ErrNotFound
// when the product has no inventory row.
func (s *SQLStorage) GetStock(ctx context.Context, productID int64) (model.StockItem, error) {
	if err := validateContext(ctx); err != nil {
		return model.StockItem{}, err
	}
	return s.getStock(ctx, s.db, productID)
}

func (s *SQLStorage) getStock(ctx context.Context, q queryable, productID int64) (model.StockItem, error) {
	query := s.dialect.Rebind(stockSelect + ` WHERE p.id = ?`)

	var item model.StockItem
	err := q.QueryRowContext(ctx, query, productID).Scan(
		&item.ProductID, &item.Name, &item.Unit, &item.MinStock, &item.Quantity,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return model.StockItem{}, fmt.Errorf("stock for product %d: %w", productID, common.ErrNotFound)
	}
	if err != nil {
		return model.StockItem{}, fmt.Errorf("failed to query stock: %w", err)
	}

	return item, nil
}

// ListStock returns every tracked product ordered by name.
func (s *SQLStorage) ListStock(ctx context.Context) ([]model.StockItem, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, stockSelect+` ORDER BY p.nombre`)
	if err != nil {
		return nil, fmt.Errorf("failed to query inventory: %w", err)
	}
	defer rows.Close()

	var items []model.StockItem
	for rows.Next() {
		var item model.StockItem
		if err := rows.Scan(&item.ProductID, &item.Name, &item.Unit, &item.MinStock, &item.Quantity); err != nil {
			return nil, fmt.Errorf("failed to scan stock item: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating inventory: %w", err)
	}

	return items, nil
}

// AddStock increases the stock of a product without recording an expense.
// It is used for opening balances.
func (s *SQLStorage) AddStock(ctx context.Context, productID int64, quantity float64) (model.StockItem, error) {
	if err := validateContext(ctx); err != nil {
		return model.StockItem{}, err
	}
	if err := validateQuantity(quantity); err != nil {
		return model.StockItem{}, err
	}

	var item model.StockItem
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if err := s.increaseStock(ctx, tx, productID, quantity); err != nil {
			return err
		}
		var err error
		item, err = s.getStock(ctx, tx, productID)
		return err
	})
	return item, err
}

func (s *SQLStorage) increaseStock(ctx context.Context, q queryable, productID int64, quantity float64) error {
	query := s.dialect.Rebind(`
		INSERT INTO inventario (producto_id, cantidad_actual) VALUES (?, ?)
		ON CONFLICT (producto_id) DO UPDATE
		SET cantidad_actual = inventario.cantidad_actual + excluded.cantidad_actual,
		    actualizado_en = CURRENT_TIMESTAMP`)
	if _, err := q.ExecContext(ctx, query, productID, quantity); err != nil {
		return fmt.Errorf("failed to increase stock: %w", err)
	}
	return nil
}

// SetStock overwrites the stock of a product after a physical count. No
// ledger row is written.
func (s *SQLStorage) SetStock(ctx context.Context, productID int64, quantity float64) (model.StockItem, error) {
	if err := validateContext(ctx); err != nil {
		return model.StockItem{}, err
	}
	if err := validateAmount(quantity); err != nil {
		return model.StockItem{}, err
	}

	var item model.StockItem
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		query := s.dialect.Rebind(`
			UPDATE inventario
			SET cantidad_actual = ?, actualizado_en = CURRENT_TIMESTAMP
			WHERE producto_id = ?`)
		result, err := tx.ExecContext(ctx, query, quantity, productID)
		if err != nil {
			return fmt.Errorf("failed to set stock: %w", err)
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to check rows affected: %w", err)
		}
		if affected == 0 {
			return fmt.Errorf("stock for product %d: %w", productID, common.ErrNotFound)
		}

		item, err = s.getStock(ctx, tx, productID)
		return err
	})
	return item, err
}

// SearchStock returns the tracked products whose normalized name contains
// fragment, ordered by name.
func (s *SQLStorage) SearchStock(ctx context.Context, fragment string) ([]model.StockItem, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(fragment, "fragment"); err != nil {
		return nil, err
	}

	query := s.dialect.Rebind(stockSelect + ` WHERE p.nombre_normalizado LIKE ? ORDER BY p.nombre`)
	rows, err := s.db.QueryContext(ctx, query, "%"+normalizedKey(fragment)+"%")
	if err != nil {
		return nil, fmt.Errorf("failed to search inventory: %w", err)
	}
	defer rows.Close()

	var items []model.StockItem
	for rows.Next() {
		var item model.StockItem
		if err := rows.Scan(&item.ProductID, &item.Name, &item.Unit, &item.MinStock, &item.Quantity); err != nil {
			return nil, fmt.Errorf("failed to scan stock item: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating inventory: %w", err)
	}

	return items, nil
}
