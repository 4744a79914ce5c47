package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq" // PostgreSQL driver
	"go.uber.org/zap"

	"talent-pipeline/internal/errors"
)

const schema = `
CREATE TABLE IF NOT EXISTS documents (
    collection TEXT        NOT NULL,
    id         TEXT        NOT NULL,
    body       JSONB       NOT NULL DEFAULT '{}'::jsonb,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    PRIMARY KEY (collection, id)
);
CREATE INDEX IF NOT EXISTS documents_collection_created_idx ON documents (collection, created_at);
`

// DB is the Postgres document backend: every collection lives in one
// JSONB table keyed by (collection, id).
type DB struct {
	connection *sql.DB
	log        *zap.Logger
}

func NewDB(dataSourceName string, log *zap.Logger) (*DB, error) {
	db, err := sql.Open("postgres", dataSourceName)
	if err != nil {
		return nil, errors.Wrap(err, "open database")
	}

	// Connection pool tuning
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, errors.Wrap(err, "ping database")
	}

	return &DB{connection: db, log: log}, nil
}

// NewDBFromConn wraps an existing connection, e.g. a sqlmock one.
func NewDBFromConn(conn *sql.DB, log *zap.Logger) *DB {
	if log == nil {
		log = zap.NewNop()
	}
	return &DB{connection: conn, log: log}
}

func (db *DB) Close() {
	if err := db.connection.Close(); err != nil {
		db.log.Warn("closing the database connection", zap.Error(err))
	}
}

// Migrate creates the documents table if it does not exist yet.
func (db *DB) Migrate(ctx context.Context) error {
	if _, err := db.connection.ExecContext(ctx, schema); err != nil {
		return errors.Wrap(err, "migrate documents table")
	}
	return nil
}

func (db *DB) Create(ctx context.Context, collection string, body any) (string, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return "", errors.Wrapf(err, "encode %s document", collection)
	}

	id := uuid.NewString()
	query := `INSERT INTO documents (collection, id, body) VALUES ($1, $2, $3)`
	if _, err := db.connection.ExecContext(ctx, query, collection, id, data); err != nil {
		return "", errors.Wrapf(err, "insert %s document", collection)
	}
	return id, nil
}

func (db *DB) Get(ctx context.Context, collection, id string) (*Document, error) {
	query := `SELECT id, body, created_at, updated_at FROM documents WHERE collection = $1 AND id = $2`
	row := db.connection.QueryRowContext(ctx, query, collection, id)

	var d Document
	var body []byte
	err := row.Scan(&d.ID, &body, &d.CreatedAt, &d.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errors.NotFoundf("%s document %s not found", collection, id)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "get %s document %s", collection, id)
	}
	d.Body = body
	return &d, nil
}

func (db *DB) GetAllByIDs(ctx context.Context, collection string, ids []string) ([]*Document, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query := `SELECT id, body, created_at, updated_at FROM documents WHERE collection = $1 AND id = ANY($2)`
	docs, err := db.query(ctx, query, collection, pq.Array(ids))
	if err != nil {
		return nil, errors.Wrapf(err, "get %s documents", collection)
	}
	return orderByIDs(ids, docs), nil
}

func (db *DB) Update(ctx context.Context, collection, id string, fields map[string]any) error {
	data, err := json.Marshal(fields)
	if err != nil {
		return errors.Wrapf(err, "encode %s update", collection)
	}

	query := `UPDATE documents SET body = body || $3::jsonb, updated_at = NOW() WHERE collection = $1 AND id = $2`
	res, err := db.connection.ExecContext(ctx, query, collection, id, data)
	if err != nil {
		return errors.Wrapf(err, "update %s document %s", collection, id)
	}
	return expectOneRow(res, collection, id)
}

func (db *DB) Delete(ctx context.Context, collection, id string) error {
	query := `DELETE FROM documents WHERE collection = $1 AND id = $2`
	res, err := db.connection.ExecContext(ctx, query, collection, id)
	if err != nil {
		return errors.Wrapf(err, "delete %s document %s", collection, id)
	}
	return expectOneRow(res, collection, id)
}

// FindByField returns the documents whose top-level field equals value, oldest first.
func (db *DB) FindByField(ctx context.Context, collection, field, value string) ([]*Document, error) {
	query := `SELECT id, body, created_at, updated_at FROM documents
              WHERE collection = $1 AND body->>$2 = $3
              ORDER BY created_at`
	docs, err := db.query(ctx, query, collection, field, value)
	if err != nil {
		return nil, errors.Wrapf(err, "find %s documents by %s", collection, field)
	}
	return docs, nil
}

// List returns up to limit documents of collection, oldest first. A limit
// of zero or less returns them all.
func (db *DB) List(ctx context.Context, collection string, limit int) ([]*Document, error) {
	query := `SELECT id, body, created_at, updated_at FROM documents
              WHERE collection = $1
              ORDER BY created_at`
	args := []any{collection}
	if limit > 0 {
		query += ` LIMIT $2`
		args = append(args, limit)
	}
	docs, err := db.query(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrapf(err, "list %s documents", collection)
	}
	return docs, nil
}

func (db *DB) query(ctx context.Context, query string, args ...any) ([]*Document, error) {
	rows, err := db.connection.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []*Document
	for rows.Next() {
		d := &Document{}
		var body []byte
		if err := rows.Scan(&d.ID, &body, &d.CreatedAt, &d.UpdatedAt); err != nil {
			return nil, err
		}
		d.Body = body
		res = append(res, d)
	}
	return res, rows.Err()
}

func expectOneRow(res sql.Result, collection, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "rows affected")
	}
	if n == 0 {
		return errors.NotFoundf("%s document %s not found", collection, id)
	}
	return nil
}
