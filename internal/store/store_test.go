package store

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"monad-bot/internal/model"
	"monad-bot/internal/pkg/db"
)

type counterDoc struct {
	Count int `json:"count"`
}

// runConformance exercises the contract every backend must honor.
func runConformance(t *testing.T, s Store) {
	ctx := context.Background()

	t.Run("missing record", func(t *testing.T) {
		_, err := s.Get(ctx, "balances", "nobody")
		assert.ErrorIs(t, err, ErrNotFound)

		v, found, err := GetJSON[counterDoc](ctx, s, "balances", "nobody")
		require.NoError(t, err)
		assert.False(t, found)
		assert.Zero(t, v.Count)
	})

	t.Run("update creates then mutates", func(t *testing.T) {
		got, err := UpdateJSON(ctx, s, "counters", "a", func(v *counterDoc, exists bool) error {
			assert.False(t, exists)
			v.Count = 1
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, 1, got.Count)

		got, err = UpdateJSON(ctx, s, "counters", "a", func(v *counterDoc, exists bool) error {
			assert.True(t, exists)
			v.Count += 2
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, 3, got.Count)
	})

	t.Run("update error leaves record untouched", func(t *testing.T) {
		boom := errors.New("rejected")
		_, err := UpdateJSON(ctx, s, "counters", "a", func(v *counterDoc, _ bool) error {
			v.Count = 99
			return boom
		})
		assert.ErrorIs(t, err, boom)
		assert.NotErrorIs(t, err, model.ErrStorageFailure)

		v, _, err := GetJSON[counterDoc](ctx, s, "counters", "a")
		require.NoError(t, err)
		assert.Equal(t, 3, v.Count)
	})

	t.Run("list by prefix in key order", func(t *testing.T) {
		for _, k := range []string{"g1:u2", "g1:u1", "g2:u1"} {
			_, err := UpdateJSON(ctx, s, "listing", k, func(v *counterDoc, _ bool) error {
				v.Count = len(k)
				return nil
			})
			require.NoError(t, err)
		}
		records, err := s.List(ctx, "listing", "g1:")
		require.NoError(t, err)
		require.Len(t, records, 2)
		assert.Equal(t, "g1:u1", records[0].Key)
		assert.Equal(t, "g1:u2", records[1].Key)

		docs, err := ListJSON[counterDoc](ctx, s, "listing", "")
		require.NoError(t, err)
		assert.Len(t, docs, 3)
	})

	t.Run("nil value deletes", func(t *testing.T) {
		require.NoError(t, s.Update(ctx, "listing", "g2:u1", func([]byte) ([]byte, error) { return nil, nil }))
		_, err := s.Get(ctx, "listing", "g2:u1")
		assert.ErrorIs(t, err, ErrNotFound)

		require.NoError(t, s.Delete(ctx, "listing", "g1:u1"))
		require.NoError(t, s.Delete(ctx, "listing", "g1:u1"))
		records, err := s.List(ctx, "listing", "")
		require.NoError(t, err)
		assert.Len(t, records, 1)
	})

	t.Run("concurrent updates are not lost", func(t *testing.T) {
		const workers = 25
		var wg sync.WaitGroup
		wg.Add(workers)
		for i := 0; i < workers; i++ {
			go func() {
				defer wg.Done()
				_, err := UpdateJSON(ctx, s, "counters", "race", func(v *counterDoc, _ bool) error {
					v.Count++
					return nil
				})
				assert.NoError(t, err)
			}()
		}
		wg.Wait()

		v, found, err := GetJSON[counterDoc](ctx, s, "counters", "race")
		require.NoError(t, err)
		assert.True(t, found)
		assert.Equal(t, workers, v.Count)
	})

	assert.NoError(t, s.Ping(ctx))
}

func TestMemoryStore(t *testing.T) {
	runConformance(t, NewMemory())
}

func TestFileStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "data.json")
	s, err := OpenFile(path)
	require.NoError(t, err)
	runConformance(t, s)

	reopened, err := OpenFile(path)
	require.NoError(t, err)
	v, found, err := GetJSON[counterDoc](context.Background(), reopened, "counters", "race")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, 25, v.Count)
}

func TestFileStoreRejectsCorruptSnapshot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.json")
	s, err := OpenFile(path)
	require.NoError(t, err)
	require.NoError(t, s.Update(context.Background(), "b", "k", func([]byte) ([]byte, error) { return []byte(`{"count":1}`), nil }))

	require.NoError(t, writeFile(path, "{not json"))
	_, err = OpenFile(path)
	assert.ErrorIs(t, err, model.ErrStorageFailure)
}

func TestSQLiteStore(t *testing.T) {
	ctx := context.Background()
	handle, err := db.OpenSQLite(ctx, filepath.Join(t.TempDir(), "kv.db"))
	require.NoError(t, err)

	s, err := NewSQLite(ctx, handle)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	runConformance(t, s)
}
