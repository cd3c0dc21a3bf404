package repository

import (
	"context"

	"monad-bot/internal/model"
	"monad-bot/internal/store"
)

// CounterRepository stores daily counters under "<date>:<kind>:<server>:<user>".
// The date leads the key so whole days can be listed and pruned.
type CounterRepository struct {
	t table[model.DailyCounter]
}

// NewCounterRepository creates a new CounterRepository.
func NewCounterRepository(s store.Store) *CounterRepository {
	return &CounterRepository{t: table[model.DailyCounter]{s: s, bucket: bucketCounters}}
}

func counterKey(kind model.ActivityKind, userID, serverID, date string) string {
	return key(date, string(kind), serverID, userID)
}

// Get returns the counter for one day; an absent counter is zero.
func (r *CounterRepository) Get(ctx context.Context, kind model.ActivityKind, userID, serverID, date string) (model.DailyCounter, error) {
	c, found, err := r.t.get(ctx, counterKey(kind, userID, serverID, date))
	if err != nil {
		return model.DailyCounter{}, err
	}
	if !found {
		c = model.DailyCounter{Kind: kind, UserID: userID, ServerID: serverID, Date: date}
	}
	return c, nil
}

// Increment adds one to the day's counter, creating it at zero first.
func (r *CounterRepository) Increment(ctx context.Context, kind model.ActivityKind, userID, serverID, date string) (model.DailyCounter, error) {
	return r.t.update(ctx, counterKey(kind, userID, serverID, date), func(c *model.DailyCounter, _ bool) error {
		c.Kind, c.UserID, c.ServerID, c.Date = kind, userID, serverID, date
		c.Count++
		return nil
	})
}

// DeleteBefore removes counters of days strictly before date and returns how many.
func (r *CounterRepository) DeleteBefore(ctx context.Context, date string) (int, error) {
	all, err := r.t.list(ctx, "")
	if err != nil {
		return 0, err
	}
	removed := 0
	for _, c := range all {
		if c.Date >= date {
			continue
		}
		if err := r.t.delete(ctx, counterKey(c.Kind, c.UserID, c.ServerID, c.Date)); err != nil {
			return removed, err
		}
		removed++
	}
	return removed, nil
}
