package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Veraticus/despensa/internal/model"
)

// MaxQueryRows caps the rows returned by QueryReadOnly.
const MaxQueryRows = 50

// ExpensesByProvider totals expenses per provider, largest first.
func (s *SQLStorage) ExpensesByProvider(ctx context.Context, limit int) ([]model.ProviderTotal, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 5
	}

	query := s.dialect.Rebind(`
		SELECT pr.nombre, SUM(g.monto) AS total, COUNT(*) AS cantidad
		FROM gastos g
		JOIN proveedores pr ON pr.id = g.proveedor_id
		GROUP BY pr.nombre
		ORDER BY total DESC, pr.nombre
		LIMIT ?`)

	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query expenses by provider: %w", err)
	}
	defer rows.Close()

	var totals []model.ProviderTotal
	for rows.Next() {
		var t model.ProviderTotal
		if err := rows.Scan(&t.Provider, &t.Total, &t.Count); err != nil {
			return nil, fmt.Errorf("failed to scan provider total: %w", err)
		}
		totals = append(totals, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating provider totals: %w", err)
	}

	return totals, nil
}

// QueryReadOnly runs query inside a read-only transaction that is always
// rolled back, returning at most MaxQueryRows rows keyed by column name.
// Callers are still expected to screen the statement; this is the second
// line of defense.
func (s *SQLStorage) QueryReadOnly(ctx context.Context, query string) ([]map[string]any, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(query, "query"); err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{ReadOnly: s.dialect == DialectPostgres})
	if err != nil {
		return nil, fmt.Errorf("failed to begin read-only transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if s.dialect == DialectSQLite {
		if _, err := tx.ExecContext(ctx, `PRAGMA query_only = ON`); err != nil {
			return nil, fmt.Errorf("failed to enable query_only: %w", err)
		}
		defer func() { _, _ = tx.ExecContext(context.WithoutCancel(ctx), `PRAGMA query_only = OFF`) }()
	}

	rows, err := tx.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to run query: %w", err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to read columns: %w", err)
	}

	var results []map[string]any
	for rows.Next() && len(results) < MaxQueryRows {
		values := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		row := make(map[string]any, len(columns))
		for i, col := range columns {
			if b, ok := values[i].([]byte); ok {
				row[col] = string(b)
				continue
			}
			row[col] = values[i]
		}
		results = append(results, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return results, nil
}
