package repository

import (
	"context"

	"monad-bot/internal/model"
	"monad-bot/internal/store"
)

// RumbleRepository stores live games by server and aggregate stats by user.
type RumbleRepository struct {
	games table[model.RumbleGame]
	stats table[model.RumbleStats]
}

// NewRumbleRepository creates a new RumbleRepository.
func NewRumbleRepository(s store.Store) *RumbleRepository {
	return &RumbleRepository{
		games: table[model.RumbleGame]{s: s, bucket: bucketRumbleGames},
		stats: table[model.RumbleStats]{s: s, bucket: bucketRumbleStats},
	}
}

// GetGame returns the live game of a server.
func (r *RumbleRepository) GetGame(ctx context.Context, serverID string) (model.RumbleGame, bool, error) {
	return r.games.get(ctx, serverID)
}

// UpdateGame applies fn to the server's game record atomically.
func (r *RumbleRepository) UpdateGame(ctx context.Context, serverID string, fn func(g *model.RumbleGame, exists bool) error) (model.RumbleGame, error) {
	return r.games.update(ctx, serverID, fn)
}

// DeleteGame clears the server's live game.
func (r *RumbleRepository) DeleteGame(ctx context.Context, serverID string) error {
	return r.games.delete(ctx, serverID)
}

// ListGames returns every stored game, used to recover after a restart.
func (r *RumbleRepository) ListGames(ctx context.Context) ([]model.RumbleGame, error) {
	return r.games.list(ctx, "")
}

// GetStats returns a user's aggregate stats, zero when absent.
func (r *RumbleRepository) GetStats(ctx context.Context, userID string) (model.RumbleStats, error) {
	st, _, err := r.stats.get(ctx, userID)
	st.UserID = userID
	return st, err
}

// UpdateStats applies fn to a user's stats atomically.
func (r *RumbleRepository) UpdateStats(ctx context.Context, userID string, fn func(s *model.RumbleStats) error) (model.RumbleStats, error) {
	return r.stats.update(ctx, userID, func(s *model.RumbleStats, _ bool) error {
		s.UserID = userID
		return fn(s)
	})
}

// ListStats returns every user's stats.
func (r *RumbleRepository) ListStats(ctx context.Context) ([]model.RumbleStats, error) {
	return r.stats.list(ctx, "")
}
