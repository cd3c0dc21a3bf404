package repository

import (
	"context"

	"monad-bot/internal/model"
	"monad-bot/internal/store"
)

// LoadoutRepository stores equipment and inventory under "<server>:<user>".
type LoadoutRepository struct {
	t table[model.Loadout]
}

// NewLoadoutRepository creates a new LoadoutRepository.
func NewLoadoutRepository(s store.Store) *LoadoutRepository {
	return &LoadoutRepository{t: table[model.Loadout]{s: s, bucket: bucketLoadouts}}
}

// Get returns the loadout, empty when absent.
func (r *LoadoutRepository) Get(ctx context.Context, userID, serverID string) (model.Loadout, error) {
	l, _, err := r.t.get(ctx, key(serverID, userID))
	if err != nil {
		return model.Loadout{}, err
	}
	normalize(&l, userID, serverID)
	return l, nil
}

// Update applies fn atomically. fn errors abort without writing.
func (r *LoadoutRepository) Update(ctx context.Context, userID, serverID string, fn func(l *model.Loadout) error) (model.Loadout, error) {
	return r.t.update(ctx, key(serverID, userID), func(l *model.Loadout, _ bool) error {
		normalize(l, userID, serverID)
		return fn(l)
	})
}

func normalize(l *model.Loadout, userID, serverID string) {
	l.UserID, l.ServerID = userID, serverID
	if l.Equipped == nil {
		l.Equipped = make(map[model.Slot]model.Item)
	}
	if l.Inventory == nil {
		l.Inventory = []model.Item{}
	}
}
