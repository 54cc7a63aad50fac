package database

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/jmoiron/sqlx"
)

//go:embed schema/postgres.sql
var postgresSchema string

//go:embed schema/sqlite.sql
var sqliteSchema string

// Migrate creates the tables the engine reads and writes and seeds the default
// alarm templates. It is idempotent and never overwrites edited templates.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	schema := postgresSchema
	if isSQLite(db) {
		schema = sqliteSchema
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to apply %s schema: %w", db.DriverName(), err)
	}
	return nil
}
