package store

import (
	"context"
	"sort"
	"strings"
	"sync"

	"monad-bot/internal/pkg/lock"
)

// Memory keeps records in process memory. Updates of one key are serialized by a
// keyed lock so the UpdateFunc can run without holding the map lock.
type Memory struct {
	mu   sync.RWMutex
	data map[string]map[string][]byte
	keys *lock.KeyLock

	// afterWrite runs after every successful mutation, still under the key lock.
	afterWrite func() error
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		data: make(map[string]map[string][]byte),
		keys: lock.New(),
	}
}

func lockKey(bucket, key string) string {
	return bucket + "/" + key
}

// Get returns a copy of the stored value.
func (m *Memory) Get(ctx context.Context, bucket, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	v, ok := m.read(bucket, key)
	if !ok {
		return nil, ErrNotFound
	}
	return v, nil
}

// Update runs fn against the current value while holding the record's lock.
func (m *Memory) Update(ctx context.Context, bucket, key string, fn UpdateFunc) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	id := lockKey(bucket, key)
	m.keys.Lock(id)
	defer m.keys.Unlock(id)

	cur, _ := m.read(bucket, key)
	next, err := fn(cur)
	if err != nil {
		return err
	}
	m.write(bucket, key, next)
	return m.notify()
}

// Delete removes a record. Deleting a missing record is not an error.
func (m *Memory) Delete(ctx context.Context, bucket, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	id := lockKey(bucket, key)
	m.keys.Lock(id)
	defer m.keys.Unlock(id)

	m.write(bucket, key, nil)
	return m.notify()
}

// List returns matching records ordered by key.
func (m *Memory) List(ctx context.Context, bucket, prefix string) ([]Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []Record
	for k, v := range m.data[bucket] {
		if strings.HasPrefix(k, prefix) {
			out = append(out, Record{Key: k, Value: append([]byte(nil), v...)})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

// Ping always succeeds.
func (m *Memory) Ping(ctx context.Context) error { return ctx.Err() }

// Close is a no-op.
func (m *Memory) Close() error { return nil }

func (m *Memory) read(bucket, key string) ([]byte, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[bucket][key]
	if !ok {
		return nil, false
	}
	return append([]byte(nil), v...), true
}

func (m *Memory) write(bucket, key string, value []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if value == nil {
		delete(m.data[bucket], key)
		return
	}
	b, ok := m.data[bucket]
	if !ok {
		b = make(map[string][]byte)
		m.data[bucket] = b
	}
	b[key] = append([]byte(nil), value...)
}

func (m *Memory) notify() error {
	if m.afterWrite == nil {
		return nil
	}
	return m.afterWrite()
}

// snapshot copies every bucket for serialization.
func (m *Memory) snapshot() map[string]map[string][]byte {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]map[string][]byte, len(m.data))
	for bucket, records := range m.data {
		cp := make(map[string][]byte, len(records))
		for k, v := range records {
			cp[k] = v
		}
		out[bucket] = cp
	}
	return out
}
