package repository

import (
	"context"

	"monad-bot/internal/model"
	"monad-bot/internal/store"
)

// BalanceRepository stores per-server balances under "<server>:<user>".
type BalanceRepository struct {
	t table[model.Balance]
}

// NewBalanceRepository creates a new BalanceRepository.
func NewBalanceRepository(s store.Store) *BalanceRepository {
	return &BalanceRepository{t: table[model.Balance]{s: s, bucket: bucketBalances}}
}

// Get returns the balance; found is false when it was never created.
func (r *BalanceRepository) Get(ctx context.Context, userID, serverID string) (model.Balance, bool, error) {
	return r.t.get(ctx, key(serverID, userID))
}

// Update applies fn to the balance, creating a zero record when absent.
func (r *BalanceRepository) Update(ctx context.Context, userID, serverID string, fn func(b *model.Balance) error) (model.Balance, error) {
	return r.t.update(ctx, key(serverID, userID), func(b *model.Balance, _ bool) error {
		b.UserID, b.ServerID = userID, serverID
		return fn(b)
	})
}

// ListByServer returns every balance of a server.
func (r *BalanceRepository) ListByServer(ctx context.Context, serverID string) ([]model.Balance, error) {
	return r.t.list(ctx, key(serverID, ""))
}
