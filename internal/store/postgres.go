package store

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS kv_records (
	bucket     TEXT        NOT NULL,
	key        TEXT        NOT NULL,
	value      JSONB       NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	PRIMARY KEY (bucket, key)
);`

// Postgres stores records in a single JSONB table. Update holds a transaction
// scoped advisory lock on the record identity, which also covers keys that do
// not exist yet (row locks cannot).
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres creates the table if needed and returns the store.
func NewPostgres(ctx context.Context, pool *pgxpool.Pool) (*Postgres, error) {
	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		return nil, failure("migrate kv_records", err)
	}
	return &Postgres{pool: pool}, nil
}

// Get returns the stored value.
func (p *Postgres) Get(ctx context.Context, bucket, key string) ([]byte, error) {
	const query = `SELECT value FROM kv_records WHERE bucket = $1 AND key = $2`

	var value []byte
	err := p.pool.QueryRow(ctx, query, bucket, key).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, failure("get", err)
	}
	return value, nil
}

// Update performs the read-modify-write inside one transaction.
func (p *Postgres) Update(ctx context.Context, bucket, key string, fn UpdateFunc) error {
	const (
		lockQuery   = `SELECT pg_advisory_xact_lock(hashtext($1))`
		selectQuery = `SELECT value FROM kv_records WHERE bucket = $1 AND key = $2`
		upsertQuery = `
			INSERT INTO kv_records (bucket, key, value, updated_at)
			VALUES ($1, $2, $3, NOW())
			ON CONFLICT (bucket, key) DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()`
		deleteQuery = `DELETE FROM kv_records WHERE bucket = $1 AND key = $2`
	)

	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return failure("begin transaction", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, lockQuery, lockKey(bucket, key)); err != nil {
		return failure("lock record", err)
	}

	var cur []byte
	err = tx.QueryRow(ctx, selectQuery, bucket, key).Scan(&cur)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return failure("read record", err)
	}

	next, err := fn(cur)
	if err != nil {
		return err
	}

	if next == nil {
		_, err = tx.Exec(ctx, deleteQuery, bucket, key)
	} else {
		_, err = tx.Exec(ctx, upsertQuery, bucket, key, next)
	}
	if err != nil {
		return failure("write record", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return failure("commit transaction", err)
	}
	return nil
}

// Delete removes a record.
func (p *Postgres) Delete(ctx context.Context, bucket, key string) error {
	const query = `DELETE FROM kv_records WHERE bucket = $1 AND key = $2`
	if _, err := p.pool.Exec(ctx, query, bucket, key); err != nil {
		return failure("delete", err)
	}
	return nil
}

// List returns matching records ordered by key.
func (p *Postgres) List(ctx context.Context, bucket, prefix string) ([]Record, error) {
	const query = `
		SELECT key, value FROM kv_records
		WHERE bucket = $1 AND starts_with(key, $2)
		ORDER BY key`

	rows, err := p.pool.Query(ctx, query, bucket, prefix)
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

// Ping checks the connection.
func (p *Postgres) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

// Close leaves the pool to its owner.
func (p *Postgres) Close() error { return nil }
