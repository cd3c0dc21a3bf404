package store

import (
	"context"
	"encoding/json"
	"errors"
)

// GetJSON loads and decodes one record. found is false when the record is absent.
func GetJSON[T any](ctx context.Context, s Store, bucket, key string) (value T, found bool, err error) {
	raw, err := s.Get(ctx, bucket, key)
	if errors.Is(err, ErrNotFound) {
		return value, false, nil
	}
	if err != nil {
		return value, false, err
	}
	if err := json.Unmarshal(raw, &value); err != nil {
		return value, false, failure("decode "+bucket, err)
	}
	return value, true, nil
}

// UpdateJSON decodes the record (zero value when absent), lets fn mutate it and
// writes it back atomically. It returns the value as written.
func UpdateJSON[T any](ctx context.Context, s Store, bucket, key string, fn func(v *T, exists bool) error) (T, error) {
	var result T
	err := s.Update(ctx, bucket, key, func(cur []byte) ([]byte, error) {
		var v T
		exists := cur != nil
		if exists {
			if err := json.Unmarshal(cur, &v); err != nil {
				return nil, failure("decode "+bucket, err)
			}
		}
		if err := fn(&v, exists); err != nil {
			return nil, err
		}
		next, err := json.Marshal(v)
		if err != nil {
			return nil, failure("encode "+bucket, err)
		}
		result = v
		return next, nil
	})
	return result, err
}

// ListJSON decodes every record under prefix, ordered by key.
func ListJSON[T any](ctx context.Context, s Store, bucket, prefix string) ([]T, error) {
	records, err := s.List(ctx, bucket, prefix)
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, len(records))
	for _, r := range records {
		var v T
		if err := json.Unmarshal(r.Value, &v); err != nil {
			return nil, failure("decode "+bucket, err)
		}
		out = append(out, v)
	}
	return out, nil
}
