package store

import (
	"context"
	"errors"
	"sort"
	"strings"

	goredis "github.com/redis/go-redis/v9"
)

// maxTxRetries bounds optimistic retries when a watched key changes mid-update.
const maxTxRetries = 100

// Redis stores each record as a plain string key "<prefix>:<bucket>:<key>".
// Update uses WATCH/MULTI and retries when another writer wins the race.
type Redis struct {
	client *goredis.Client
	prefix string
}

// NewRedis wraps a connected client.
func NewRedis(client *goredis.Client, prefix string) *Redis {
	return &Redis{client: client, prefix: prefix}
}

func (r *Redis) key(bucket, key string) string {
	return r.prefix + ":" + bucket + ":" + key
}

// Get returns the stored value.
func (r *Redis) Get(ctx context.Context, bucket, key string) ([]byte, error) {
	v, err := r.client.Get(ctx, r.key(bucket, key)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, failure("get", err)
	}
	return v, nil
}

// Update performs an optimistic read-modify-write.
func (r *Redis) Update(ctx context.Context, bucket, key string, fn UpdateFunc) error {
	k := r.key(bucket, key)

	for attempt := 0; attempt < maxTxRetries; attempt++ {
		var fnErr error
		err := r.client.Watch(ctx, func(tx *goredis.Tx) error {
			cur, err := tx.Get(ctx, k).Bytes()
			if errors.Is(err, goredis.Nil) {
				cur = nil
			} else if err != nil {
				return err
			}

			next, err := fn(cur)
			if err != nil {
				fnErr = err
				return err
			}

			_, err = tx.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
				if next == nil {
					pipe.Del(ctx, k)
				} else {
					pipe.Set(ctx, k, next, 0)
				}
				return nil
			})
			return err
		}, k)

		switch {
		case fnErr != nil:
			return fnErr
		case errors.Is(err, goredis.TxFailedErr):
			continue
		case err != nil:
			return failure("update", err)
		default:
			return nil
		}
	}
	return failure("update", goredis.TxFailedErr)
}

// Delete removes a record.
func (r *Redis) Delete(ctx context.Context, bucket, key string) error {
	if err := r.client.Del(ctx, r.key(bucket, key)).Err(); err != nil {
		return failure("delete", err)
	}
	return nil
}

// List scans matching keys and fetches their values.
func (r *Redis) List(ctx context.Context, bucket, prefix string) ([]Record, error) {
	base := r.key(bucket, "")
	pattern := escapeGlob(base+prefix) + "*"

	var keys []string
	iter := r.client.Scan(ctx, 0, pattern, 200).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, failure("scan", err)
	}
	if len(keys) == 0 {
		return nil, nil
	}
	sort.Strings(keys)

	values, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, failure("mget", err)
	}

	out := make([]Record, 0, len(keys))
	for i, v := range values {
		s, ok := v.(string)
		if !ok {
			// deleted between SCAN and MGET
			continue
		}
		out = append(out, Record{Key: strings.TrimPrefix(keys[i], base), Value: []byte(s)})
	}
	return out, nil
}

// Ping checks the connection.
func (r *Redis) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Close closes the client.
func (r *Redis) Close() error {
	return r.client.Close()
}

func escapeGlob(s string) string {
	replacer := strings.NewReplacer(`\`, `\\`, `*`, `\*`, `?`, `\?`, `[`, `\[`, `]`, `\]`)
	return replacer.Replace(s)
}
