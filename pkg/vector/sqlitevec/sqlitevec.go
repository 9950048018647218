// Package sqlitevec provides a SQLite-backed vector driver using sqlite-vec.
// Embeddings live in a vec0 virtual table with the cosine distance metric,
// so the index survives restarts alongside the memory log.
package sqlitevec

import (
	"context"
	"database/sql"
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"

	sqlite_vec "github.com/asg017/sqlite-vec-go-bindings/cgo"
	_ "github.com/mattn/go-sqlite3"

	"github.com/papercomputeco/mnemo/pkg/logger"
	"github.com/papercomputeco/mnemo/pkg/vector"
)

const defaultTopK = 10

// vec0 tables are keyed by integer rowid, so record IDs map through
// memory_documents.
const (
	createDocuments = `CREATE TABLE IF NOT EXISTS memory_documents (
		rowid INTEGER PRIMARY KEY AUTOINCREMENT,
		doc_id TEXT NOT NULL UNIQUE
	)`
	createEmbeddings = `CREATE VIRTUAL TABLE IF NOT EXISTS memory_embeddings
		USING vec0(embedding float[%d] distance_metric=cosine)`

	upsertDocument = `INSERT INTO memory_documents(doc_id) VALUES (?)
		ON CONFLICT(doc_id) DO UPDATE SET doc_id = excluded.doc_id
		RETURNING rowid`
	deleteEmbedding = `DELETE FROM memory_embeddings WHERE rowid = ?`
	insertEmbedding = `INSERT INTO memory_embeddings(rowid, embedding) VALUES (?, ?)`

	knnQuery = `SELECT d.doc_id, e.distance
		FROM memory_embeddings e
		JOIN memory_documents d ON d.rowid = e.rowid
		WHERE e.embedding MATCH ? AND e.k = ?
		ORDER BY e.distance`
)

// Driver implements vector.Driver using SQLite with sqlite-vec.
type Driver struct {
	db         *sql.DB
	dimensions uint
	log        *slog.Logger
}

// Config holds configuration for the SQLite vec driver.
type Config struct {
	// DBPath is the path to the SQLite database file.
	// Use ":memory:" for an in-memory database.
	DBPath string

	// Dimensions is the number of dimensions for the embedding vectors.
	Dimensions uint

	Logger *slog.Logger
}

// NewDriver opens (or creates) a sqlite-vec index.
func NewDriver(c Config) (*Driver, error) {
	if c.DBPath == "" {
		return nil, errors.New("database path is required")
	}
	if c.Dimensions == 0 {
		return nil, errors.New("sqlite-vec embedding dimensions cannot be 0, must be configured")
	}

	// registers vec0 on every new sqlite3 connection
	sqlite_vec.Auto()

	db, err := sql.Open("sqlite3", c.DBPath)
	if err != nil {
		return nil, fmt.Errorf("%w: opening database: %v", vector.ErrConnection, err)
	}
	// one connection keeps ":memory:" databases coherent
	db.SetMaxOpenConns(1)

	d := &Driver{db: db, dimensions: c.Dimensions, log: logger.Component(c.Logger, "sqlitevec")}
	version, err := d.migrate()
	if err != nil {
		db.Close()
		return nil, err
	}

	d.log.Debug("sqlite-vec driver ready", "db_path", c.DBPath, "dimensions", c.Dimensions, "vec_version", version)
	return d, nil
}

func (d *Driver) migrate() (string, error) {
	var version string
	if err := d.db.QueryRow("SELECT vec_version()").Scan(&version); err != nil {
		return "", fmt.Errorf("%w: sqlite-vec not available: %v", vector.ErrConnection, err)
	}
	if _, err := d.db.Exec(createDocuments); err != nil {
		return "", fmt.Errorf("creating documents table: %w", err)
	}
	if _, err := d.db.Exec(fmt.Sprintf(createEmbeddings, d.dimensions)); err != nil {
		return "", fmt.Errorf("creating vec0 table: %w", err)
	}
	return version, nil
}

func (d *Driver) encode(emb []float32) ([]byte, error) {
	if uint(len(emb)) != d.dimensions {
		return nil, fmt.Errorf("%w: embedding has %d dimensions, index expects %d",
			vector.ErrEmbedding, len(emb), d.dimensions)
	}
	return sqlite_vec.SerializeFloat32(emb)
}

// decode reverses SerializeFloat32: little-endian float32s.
func decode(b []byte) ([]float32, error) {
	if len(b)%4 != 0 {
		return nil, fmt.Errorf("invalid embedding blob length %d: must be divisible by 4", len(b))
	}
	v := make([]float32, len(b)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return v, nil
}

// Add stores documents, replacing any with the same ID.
func (d *Driver) Add(ctx context.Context, docs []vector.Document) error {
	if len(docs) == 0 {
		return nil
	}

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	for _, doc := range docs {
		blob, err := d.encode(doc.Embedding)
		if err != nil {
			return fmt.Errorf("doc %s: %w", doc.ID, err)
		}

		var rowID int64
		if err := tx.QueryRowContext(ctx, upsertDocument, doc.ID).Scan(&rowID); err != nil {
			return fmt.Errorf("upserting document %s: %w", doc.ID, err)
		}
		// vec0 has no UPDATE; a missing row makes this a no-op
		if _, err := tx.ExecContext(ctx, deleteEmbedding, rowID); err != nil {
			return fmt.Errorf("replacing embedding for doc %s: %w", doc.ID, err)
		}
		if _, err := tx.ExecContext(ctx, insertEmbedding, rowID, blob); err != nil {
			return fmt.Errorf("inserting embedding for doc %s: %w", doc.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	d.log.Debug("indexed memory embeddings", "count", len(docs))
	return nil
}

// Query runs a KNN search. Cosine distance is converted back to similarity.
func (d *Driver) Query(ctx context.Context, embedding []float32, topK int) ([]vector.QueryResult, error) {
	if topK <= 0 {
		topK = defaultTopK
	}
	blob, err := d.encode(embedding)
	if err != nil {
		return nil, err
	}

	rows, err := d.db.QueryContext(ctx, knnQuery, blob, topK)
	if err != nil {
		return nil, fmt.Errorf("querying vectors: %w", err)
	}
	defer rows.Close()

	var results []vector.QueryResult
	for rows.Next() {
		var (
			id       string
			distance float64
		)
		if err := rows.Scan(&id, &distance); err != nil {
			return nil, fmt.Errorf("scanning query result: %w", err)
		}
		results = append(results, vector.QueryResult{
			Document: vector.Document{ID: id},
			Score:    float32(1 - distance),
		})
	}
	return results, rows.Err()
}

// Get returns stored documents with their embeddings.
func (d *Driver) Get(ctx context.Context, ids []string) ([]vector.Document, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	in, args := inClause(ids)
	rows, err := d.db.QueryContext(ctx, `SELECT d.doc_id, e.embedding
		FROM memory_documents d
		JOIN memory_embeddings e ON e.rowid = d.rowid
		WHERE d.doc_id IN (`+in+`)`, args...)
	if err != nil {
		return nil, fmt.Errorf("querying documents: %w", err)
	}
	defer rows.Close()

	docs := make([]vector.Document, 0, len(ids))
	for rows.Next() {
		var (
			id   string
			blob []byte
		)
		if err := rows.Scan(&id, &blob); err != nil {
			return nil, fmt.Errorf("scanning document: %w", err)
		}
		emb, err := decode(blob)
		if err != nil {
			return nil, fmt.Errorf("decoding embedding for doc %s: %w", id, err)
		}
		docs = append(docs, vector.Document{ID: id, Embedding: emb})
	}
	return docs, rows.Err()
}

// Delete removes documents by their IDs.
func (d *Driver) Delete(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	in, args := inClause(ids)
	if _, err := tx.ExecContext(ctx, `DELETE FROM memory_embeddings
		WHERE rowid IN (SELECT rowid FROM memory_documents WHERE doc_id IN (`+in+`))`, args...); err != nil {
		return fmt.Errorf("deleting embeddings: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM memory_documents WHERE doc_id IN (`+in+`)`, args...); err != nil {
		return fmt.Errorf("deleting documents: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	d.log.Debug("removed memory embeddings", "count", len(ids))
	return nil
}

// Close releases the database handle.
func (d *Driver) Close() error {
	return d.db.Close()
}

func inClause(ids []string) (string, []any) {
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return strings.TrimSuffix(strings.Repeat("?,", len(ids)), ","), args
}

var _ vector.Driver = (*Driver)(nil)
