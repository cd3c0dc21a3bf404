// Package store provides the transactional key-value storage every service
// persists through. Each record lives under (bucket, key) and holds a JSON
// document. Update is an atomic read-modify-write of one record on every
// backend, which replaces whole-snapshot rewrites with per-entity updates.
package store

import (
	"context"
	"errors"
	"fmt"

	"monad-bot/internal/model"
)

// ErrNotFound is returned by Get when the record does not exist.
var ErrNotFound = errors.New("store: record not found")

// UpdateFunc receives the current value (nil when absent) and returns the value
// to write. Returning a nil value deletes the record. A non-nil error aborts the
// update without writing and is returned to the caller unchanged.
type UpdateFunc func(current []byte) ([]byte, error)

// Record is one listed key/value pair.
type Record struct {
	Key   string
	Value []byte
}

// Store is the storage contract consumed by the repositories.
type Store interface {
	Get(ctx context.Context, bucket, key string) ([]byte, error)
	Update(ctx context.Context, bucket, key string, fn UpdateFunc) error
	Delete(ctx context.Context, bucket, key string) error
	// List returns records whose key starts with prefix, ordered by key.
	List(ctx context.Context, bucket, prefix string) ([]Record, error)
	Ping(ctx context.Context) error
	Close() error
}

// failure tags a backend error as a storage failure while keeping the cause.
func failure(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", model.ErrStorageFailure, op, err)
}
