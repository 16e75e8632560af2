package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Veraticus/despensa/internal/common"
	"github.com/Veraticus/despensa/internal/fuzzy"
	"github.com/Veraticus/despensa/internal/model"
)

// Expense types seeded by the migrations.
const (
	ExpenseTypeFixed    = "Fijo"
	ExpenseTypeVariable = "Variable"
)

// normalizedKey is the value stored in nombre_normalizado.
func normalizedKey(name string) string {
	if key := fuzzy.Normalize(name); key != "" {
		return key
	}
	return strings.ToLower(strings.TrimSpace(name))
}

// FindOrCreate returns the entity of class whose normalized name equals
// name's, creating it when absent. The bool result is true when a row was
// inserted.
func (s *SQLStorage) FindOrCreate(ctx context.Context, class model.EntityClass, name string) (model.Entity, bool, error) {
	if err := validateContext(ctx); err != nil {
		return model.Entity{}, false, err
	}
	if err := validateString(name, "name"); err != nil {
		return model.Entity{}, false, err
	}
	table, err := tableFor(class)
	if err != nil {
		return model.Entity{}, false, err
	}

	name = strings.TrimSpace(name)
	key := normalizedKey(name)

	entity, err := s.findByKey(ctx, s.db, class, table, key)
	if err == nil {
		return entity, false, nil
	}
	if !errors.Is(err, common.ErrNotFound) {
		return model.Entity{}, false, err
	}

	var id int64
	insert := s.dialect.Rebind(fmt.Sprintf(
		`INSERT INTO %s (nombre, nombre_normalizado) VALUES (?, ?) RETURNING id`, table))
	err = s.db.QueryRowContext(ctx, insert, name, key).Scan(&id)
	if err != nil {
		if isUniqueViolation(err) {
			// Another writer created it between our lookup and insert.
			entity, lookupErr := s.findByKey(ctx, s.db, class, table, key)
			return entity, false, lookupErr
		}
		return model.Entity{}, false, fmt.Errorf("failed to create %s %q: %w", class, name, err)
	}

	slog.Info("created entity", "class", class, "name", name, "id", id)
	return model.Entity{ID: id, Name: name, Class: class}, true, nil
}

func (s *SQLStorage) findByKey(ctx context.Context, q queryable, class model.EntityClass, table, key string) (model.Entity, error) {
	query := s.dialect.Rebind(fmt.Sprintf(`SELECT id, nombre FROM %s WHERE nombre_normalizado = ?`, table))

	entity := model.Entity{Class: class}
	err := q.QueryRowContext(ctx, query, key).Scan(&entity.ID, &entity.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Entity{}, common.ErrNotFound
	}
	if err != nil {
		return model.Entity{}, fmt.Errorf("failed to query %s: %w", class, err)
	}
	return entity, nil
}

// ListNames returns every canonical name of class, ordered by name.
func (s *SQLStorage) ListNames(ctx context.Context, class model.EntityClass) ([]string, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	table, err := tableFor(class)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(`SELECT nombre FROM %s ORDER BY nombre`, table))
	if err != nil {
		return nil, fmt.Errorf("failed to query %s names: %w", class, err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan %s name: %w", class, err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating %s names: %w", class, err)
	}

	slog.Debug("retrieved names", "class", class, "count", len(names))
	return names, nil
}

// GetProductByName looks a product up by normalized name. It returns
// common.ErrNotFound when absent.
func (s *SQLStorage) GetProductByName(ctx context.Context, name string) (*model.Product, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(name, "name"); err != nil {
		return nil, err
	}
	return s.getProductByKey(ctx, s.db, normalizedKey(name))
}

func (s *SQLStorage) getProductByKey(ctx context.Context, q queryable, key string) (*model.Product, error) {
	query := s.dialect.Rebind(`
		SELECT id, nombre, unidad_medida, categoria_id, stock_minimo
		FROM catalogo_productos
		WHERE nombre_normalizado = ?`)

	var (
		p        model.Product
		category sql.NullInt64
	)
	err := q.QueryRowContext(ctx, query, key).Scan(&p.ID, &p.Name, &p.Unit, &category, &p.MinStock)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query product: %w", err)
	}
	p.CategoryID = category.Int64

	return &p, nil
}

// CreateProduct adds a catalog entry with an empty inventory row. If a
// product with the same normalized name exists it is returned instead.
func (s *SQLStorage) CreateProduct(ctx context.Context, name, unit string, categoryID int64) (*model.Product, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(name, "name"); err != nil {
		return nil, err
	}

	name = strings.TrimSpace(name)
	key := normalizedKey(name)
	if strings.TrimSpace(unit) == "" {
		unit = "unidad"
	}
	category := sql.NullInt64{Int64: categoryID, Valid: categoryID > 0}

	var product *model.Product
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var id int64
		insert := s.dialect.Rebind(`
			INSERT INTO catalogo_productos (nombre, nombre_normalizado, unidad_medida, categoria_id)
			VALUES (?, ?, ?, ?) RETURNING id`)
		if err := tx.QueryRowContext(ctx, insert, name, key, unit, category).Scan(&id); err != nil {
			return err
		}

		stock := s.dialect.Rebind(`INSERT INTO inventario (producto_id, cantidad_actual) VALUES (?, 0)`)
		if _, err := tx.ExecContext(ctx, stock, id); err != nil {
			return fmt.Errorf("failed to create inventory row: %w", err)
		}

		var err error
		product, err = s.getProductByKey(ctx, tx, key)
		return err
	})
	if err != nil {
		if isUniqueViolation(err) {
			return s.getProductByKey(ctx, s.db, key)
		}
		return nil, fmt.Errorf("failed to create product %q: %w", name, err)
	}

	slog.Info("created product", "name", name, "unit", unit, "id", product.ID)
	return product, nil
}

// SetMinStock changes the low-stock threshold of a product.
func (s *SQLStorage) SetMinStock(ctx context.Context, productID int64, minStock float64) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateAmount(minStock); err != nil {
		return err
	}

	query := s.dialect.Rebind(`UPDATE catalogo_productos SET stock_minimo = ? WHERE id = ?`)
	result, err := s.db.ExecContext(ctx, query, minStock, productID)
	if err != nil {
		return fmt.Errorf("failed to update minimum stock: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("product %d: %w", productID, common.ErrNotFound)
	}

	return nil
}
