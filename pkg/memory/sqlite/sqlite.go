// Package sqlite provides a SQLite-backed memory.Driver using ent's SQL
// builder.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
	_ "github.com/mattn/go-sqlite3"

	"github.com/papercomputeco/mnemo/pkg/memory/entdriver"
)

// Driver implements memory.Driver using SQLite via the ent driver.
type Driver struct {
	*entdriver.EntDriver
}

// NewDriver opens or creates the database at dbPath. ":memory:" keeps the
// log in process.
func NewDriver(ctx context.Context, dbPath string, log *slog.Logger) (*Driver, error) {
	// Open the database using the github.com/mattn/go-sqlite3 driver (registered as "sqlite3")
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Every connection to ":memory:" is its own database.
	db.SetMaxOpenConns(1)

	// ent's SQLite migration refuses to run with foreign keys off
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	ed, err := entdriver.New(ctx, entsql.OpenDB(dialect.SQLite, db), log)
	if err != nil {
		db.Close()
		return nil, err
	}
	return &Driver{EntDriver: ed}, nil
}
