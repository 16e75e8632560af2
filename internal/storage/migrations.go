package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Veraticus/despensa/internal/fuzzy"
)

// ExpectedSchemaVersion is the latest schema version that the application expects.
const ExpectedSchemaVersion = 3

// Migration represents a database schema migration.
type Migration struct {
	Up          func(tx *sql.Tx, d Dialect) error
	Description string
	Version     int
}

// nameTables share the (id, nombre, nombre_normalizado) shape.
var nameTables = []string{"tipos_gasto", "categorias", "metodos_pago", "proveedores"}

var migrations = []Migration{
	{
		Version:     1,
		Description: "Initial schema",
		Up: func(tx *sql.Tx, d Dialect) error {
			pk, num := d.serialPrimaryKey(), d.floatType()

			var queries []string
			for _, table := range nameTables {
				queries = append(queries, fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
					id %s,
					nombre TEXT NOT NULL,
					nombre_normalizado TEXT NOT NULL UNIQUE
				)`, table, pk))
			}

			queries = append(queries,
				fmt.Sprintf(`CREATE TABLE IF NOT EXISTS catalogo_productos (
					id %s,
					nombre TEXT NOT NULL,
					nombre_normalizado TEXT NOT NULL UNIQUE,
					unidad_medida TEXT NOT NULL DEFAULT 'unidad',
					categoria_id BIGINT REFERENCES categorias(id),
					stock_minimo %s NOT NULL DEFAULT 5,
					creado_en TIMESTAMP DEFAULT CURRENT_TIMESTAMP
				)`, pk, num),

				fmt.Sprintf(`CREATE TABLE IF NOT EXISTS inventario (
					producto_id BIGINT PRIMARY KEY REFERENCES catalogo_productos(id),
					cantidad_actual %s NOT NULL DEFAULT 0 CHECK (cantidad_actual >= 0),
					actualizado_en TIMESTAMP DEFAULT CURRENT_TIMESTAMP
				)`, num),

				fmt.Sprintf(`CREATE TABLE IF NOT EXISTS gastos (
					id TEXT PRIMARY KEY,
					monto %[1]s NOT NULL,
					fecha_compra TIMESTAMP NOT NULL,
					proveedor_id BIGINT REFERENCES proveedores(id),
					metodo_pago_id BIGINT REFERENCES metodos_pago(id),
					categoria_id BIGINT REFERENCES categorias(id),
					tipo_gasto_id BIGINT REFERENCES tipos_gasto(id),
					producto_id BIGINT REFERENCES catalogo_productos(id),
					cantidad_comprada %[1]s,
					observaciones TEXT
				)`, num),

				fmt.Sprintf(`CREATE TABLE IF NOT EXISTS salidas_inventario (
					id TEXT PRIMARY KEY,
					producto_id BIGINT NOT NULL REFERENCES catalogo_productos(id),
					cantidad_usada %s NOT NULL,
					motivo TEXT,
					fecha TIMESTAMP NOT NULL
				)`, num),
			)

			return execAll(tx, queries)
		},
	},
	{
		Version:     2,
		Description: "Add reporting indexes",
		Up: func(tx *sql.Tx, _ Dialect) error {
			return execAll(tx, []string{
				`CREATE INDEX IF NOT EXISTS idx_gastos_fecha ON gastos(fecha_compra)`,
				`CREATE INDEX IF NOT EXISTS idx_gastos_proveedor ON gastos(proveedor_id)`,
				`CREATE INDEX IF NOT EXISTS idx_gastos_categoria ON gastos(categoria_id)`,
				`CREATE INDEX IF NOT EXISTS idx_salidas_producto ON salidas_inventario(producto_id)`,
			})
		},
	},
	{
		Version:     3,
		Description: "Seed expense types",
		Up: func(tx *sql.Tx, d Dialect) error {
			for _, name := range []string{ExpenseTypeFixed, ExpenseTypeVariable} {
				query := d.Rebind(`INSERT INTO tipos_gasto (nombre, nombre_normalizado) VALUES (?, ?)
					ON CONFLICT (nombre_normalizado) DO NOTHING`)
				if _, err := tx.Exec(query, name, fuzzy.Normalize(name)); err != nil {
					return fmt.Errorf("failed to seed expense type %q: %w", name, err)
				}
			}
			return nil
		},
	},
}

func execAll(tx *sql.Tx, queries []string) error {
	for _, query := range queries {
		if _, err := tx.Exec(query); err != nil {
			return fmt.Errorf("failed to execute query: %w", err)
		}
	}
	return nil
}

// Migrate brings the schema up to ExpectedSchemaVersion. It is safe to run
// repeatedly.
func (s *SQLStorage) Migrate(ctx context.Context) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	if _, err := s.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
		version INTEGER PRIMARY KEY,
		description TEXT NOT NULL,
		applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`); err != nil {
		return fmt.Errorf("failed to create schema_migrations: %w", err)
	}

	currentVersion, err := s.SchemaVersion(ctx)
	if err != nil {
		return err
	}

	for _, migration := range migrations {
		if migration.Version <= currentVersion {
			continue
		}

		tx, txErr := s.db.BeginTx(ctx, nil)
		if txErr != nil {
			return fmt.Errorf("failed to begin transaction: %w", txErr)
		}

		if upErr := migration.Up(tx, s.dialect); upErr != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d failed: %w", migration.Version, upErr)
		}

		record := s.dialect.Rebind(`INSERT INTO schema_migrations (version, description) VALUES (?, ?)`)
		if _, execErr := tx.ExecContext(ctx, record, migration.Version, migration.Description); execErr != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to update schema version: %w", execErr)
		}

		if commitErr := tx.Commit(); commitErr != nil {
			return fmt.Errorf("failed to commit migration %d: %w", migration.Version, commitErr)
		}

		slog.Info("Applied migration",
			"version", migration.Version,
			"description", migration.Description)
	}

	finalVersion, err := s.SchemaVersion(ctx)
	if err != nil {
		return err
	}
	if finalVersion != ExpectedSchemaVersion {
		return fmt.Errorf("schema version mismatch: expected %d, got %d", ExpectedSchemaVersion, finalVersion)
	}

	return nil
}

// SchemaVersion returns the highest applied migration, or 0.
func (s *SQLStorage) SchemaVersion(ctx context.Context) (int, error) {
	var version sql.NullInt64
	err := s.db.QueryRowContext(ctx, `SELECT MAX(version) FROM schema_migrations`).Scan(&version)
	if err != nil {
		if msg := err.Error(); strings.Contains(msg, "no such table") || strings.Contains(msg, "does not exist") {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to get schema version: %w", err)
	}
	return int(version.Int64), nil
}
