// Package entdriver implements memory.Driver over any SQL database ent
// supports. The table is migrated with ent's schema package and statements
// are built with its dialect-aware SQL builder. The sqlite and postgres
// packages open the connection and hand it over.
package entdriver

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	entsql "entgo.io/ent/dialect/sql"
	"entgo.io/ent/dialect/sql/schema"
	"entgo.io/ent/schema/field"

	"github.com/papercomputeco/mnemo/pkg/logger"
	"github.com/papercomputeco/mnemo/pkg/memory"
)

// Table holds one row per record, in append order.
const Table = "mnemo_memories"

// EntDriver stores each record as a JSON payload keyed by an auto-increment
// sequence, so reads return append order.
type EntDriver struct {
	drv     *entsql.Driver
	dialect string
	logger  *slog.Logger
}

// memoriesTable describes the log table. seq is the auto-increment key that
// gives append order; payload holds the JSON-encoded record.
func memoriesTable() *schema.Table {
	seq := &schema.Column{Name: "seq", Type: field.TypeInt64, Increment: true}
	return schema.NewTable(Table).
		AddPrimary(seq).
		AddColumn(&schema.Column{Name: "id", Type: field.TypeString}).
		AddColumn(&schema.Column{Name: "topic", Type: field.TypeString, Size: 2147483647}).
		AddColumn(&schema.Column{Name: "payload", Type: field.TypeString, Size: 2147483647})
}

// New migrates the memory table into drv, creating it if needed.
func New(ctx context.Context, drv *entsql.Driver, log *slog.Logger) (*EntDriver, error) {
	if log == nil {
		log = logger.Nop()
	}

	migrate, err := schema.NewMigrate(drv)
	if err != nil {
		return nil, fmt.Errorf("preparing memory schema: %w", err)
	}
	if err := migrate.Create(ctx, memoriesTable()); err != nil {
		return nil, fmt.Errorf("creating memory table: %w", err)
	}
	return &EntDriver{drv: drv, dialect: drv.Dialect(), logger: log}, nil
}

func (d *EntDriver) Append(ctx context.Context, rec memory.Record) error {
	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encoding record: %w", err)
	}

	query, args := entsql.Dialect(d.dialect).
		Insert(Table).
		Columns("id", "topic", "payload").
		Values(rec.ID, rec.Topic, string(payload)).
		Query()
	if err := d.drv.Exec(ctx, query, args, nil); err != nil {
		return fmt.Errorf("inserting record: %w", err)
	}
	return nil
}

// ReadAll decodes every row in sequence order. Rows that fail to decode are
// logged and skipped.
func (d *EntDriver) ReadAll(ctx context.Context) ([]memory.Record, error) {
	query, args := entsql.Dialect(d.dialect).
		Select("seq", "payload").
		From(entsql.Table(Table)).
		OrderBy("seq").
		Query()

	rows := &entsql.Rows{}
	if err := d.drv.Query(ctx, query, args, rows); err != nil {
		return nil, fmt.Errorf("querying records: %w", err)
	}
	defer rows.Close()

	recs := []memory.Record{}
	for rows.Next() {
		var (
			seq     int64
			payload string
		)
		if err := rows.Scan(&seq, &payload); err != nil {
			return nil, fmt.Errorf("scanning record: %w", err)
		}

		var rec memory.Record
		if err := json.Unmarshal([]byte(payload), &rec); err != nil {
			d.logger.Warn("skipping corrupt memory row", "table", Table, "seq", seq, "error", err)
			continue
		}
		if rec.Keywords == nil {
			rec.Keywords = []string{}
		}
		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading records: %w", err)
	}
	return recs, nil
}

func (d *EntDriver) Clear(ctx context.Context) error {
	query, args := entsql.Dialect(d.dialect).Delete(Table).Query()
	if err := d.drv.Exec(ctx, query, args, nil); err != nil {
		return fmt.Errorf("deleting records: %w", err)
	}
	return nil
}

func (d *EntDriver) Close() error {
	return d.drv.Close()
}

var _ memory.Driver = (*EntDriver)(nil)
