package store

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS kv_records (
	bucket     TEXT NOT NULL,
	key        TEXT NOT NULL,
	value      BLOB NOT NULL,
	updated_at TEXT NOT NULL,
	PRIMARY KEY (bucket, key)
);`

// SQLite stores records in an embedded database. The handle is expected to be
// limited to one open connection, so transactions are serialized by the pool.
type SQLite struct {
	db *sql.DB
}

// NewSQLite creates the table if needed and returns the store.
func NewSQLite(ctx context.Context, db *sql.DB) (*SQLite, error) {
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		return nil, failure("migrate kv_records", err)
	}
	return &SQLite{db: db}, nil
}

// Get returns the stored value.
func (s *SQLite) Get(ctx context.Context, bucket, key string) ([]byte, error) {
	const query = `SELECT value FROM kv_records WHERE bucket = ? AND key = ?`

	var value []byte
	err := s.db.QueryRowContext(ctx, query, bucket, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, failure("get", err)
	}
	return value, nil
}

// Update performs the read-modify-write inside one transaction.
func (s *SQLite) Update(ctx context.Context, bucket, key string, fn UpdateFunc) error {
	const (
		selectQuery = `SELECT value FROM kv_records WHERE bucket = ? AND key = ?`
		upsertQuery = `
			INSERT INTO kv_records (bucket, key, value, updated_at) VALUES (?, ?, ?, ?)
			ON CONFLICT (bucket, key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`
		deleteQuery = `DELETE FROM kv_records WHERE bucket = ? AND key = ?`
	)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return failure("begin transaction", err)
	}
	defer tx.Rollback()

	var cur []byte
	err = tx.QueryRowContext(ctx, selectQuery, bucket, key).Scan(&cur)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return failure("read record", err)
	}

	next, err := fn(cur)
	if err != nil {
		return err
	}

	if next == nil {
		_, err = tx.ExecContext(ctx, deleteQuery, bucket, key)
	} else {
		_, err = tx.ExecContext(ctx, upsertQuery, bucket, key, next, time.Now().UTC().Format(time.RFC3339Nano))
	}
	if err != nil {
		return failure("write record", err)
	}

	if err := tx.Commit(); err != nil {
		return failure("commit transaction", err)
	}
	return nil
}

// Delete removes a record.
func (s *SQLite) Delete(ctx context.Context, bucket, key string) error {
	const query = `DELETE FROM kv_records WHERE bucket = ? AND key = ?`
	if _, err := s.db.ExecContext(ctx, query, bucket, key); err != nil {
		return failure("delete", err)
	}
	return nil
}

// List returns matching records ordered by key.
func (s *SQLite) List(ctx context.Context, bucket, prefix string) ([]Record, error) {
	const query = `
		SELECT key, value FROM kv_records
		WHERE bucket = ? AND substr(key, 1, length(?)) = ?
		ORDER BY key`

	rows, err := s.db.QueryContext(ctx, query, bucket, prefix, prefix)
	if err != nil {
		return nil, failure("list", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var r Record
		if err := rows.Scan(&r.Key, &r.Value); err != nil {
			return nil, failure("scan record", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, failure("iterate records", err)
	}
	return out, nil
}

// Ping checks the database handle.
func (s *SQLite) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database handle.
func (s *SQLite) Close() error {
	return s.db.Close()
}
