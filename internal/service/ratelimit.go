package service

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"monad-bot/internal/config"
	"monad-bot/internal/model"
	"monad-bot/internal/pkg/clock"
	"monad-bot/internal/repository"
)

// Limits maps each activity to its daily cap.
type Limits map[model.ActivityKind]int

// LimitsFromConfig builds the cap table from configuration.
func LimitsFromConfig(cfg config.LimitsConfig) Limits {
	return Limits{
		model.ActivityDice:          cfg.DiceGames,
		model.ActivityHunt:          cfg.Hunts,
		model.ActivityDuelInitiated: cfg.DuelsInitiated,
		model.ActivityDuelReceived:  cfg.DuelsReceived,
	}
}

// RateLimiter tracks daily activity counters keyed by UTC date.
type RateLimiter struct {
	counters *repository.CounterRepository
	limits   Limits
	now      clock.Clock
}

// NewRateLimiter creates a new RateLimiter.
func NewRateLimiter(counters *repository.CounterRepository, limits Limits, now clock.Clock) *RateLimiter {
	if now == nil {
		now = clock.System
	}
	return &RateLimiter{counters: counters, limits: limits, now: now}
}

// Limit returns the cap for kind.
func (r *RateLimiter) Limit(kind model.ActivityKind) int {
	return r.limits[kind]
}

// Check reads today's usage without changing it.
func (r *RateLimiter) Check(ctx context.Context, kind model.ActivityKind, userID, serverID string) (model.Usage, error) {
	c, err := r.counters.Get(ctx, kind, userID, serverID, clock.DateKey(r.now()))
	if err != nil {
		return model.Usage{}, wrap("read daily counter", err)
	}
	return r.usage(kind, c.Count), nil
}

// Increment adds one to today's counter. The cap is soft: counting continues
// past the limit and Remaining stays at zero.
func (r *RateLimiter) Increment(ctx context.Context, kind model.ActivityKind, userID, serverID string) (model.Usage, error) {
	c, err := r.counters.Increment(ctx, kind, userID, serverID, clock.DateKey(r.now()))
	if err != nil {
		log.Error().Err(err).Str("kind", string(kind)).Str("user", userID).Msg("Failed to increment daily counter")
		return model.Usage{}, wrap("increment daily counter", err)
	}
	return r.usage(kind, c.Count), nil
}

// Require fails with a LimitError when today's count has reached the cap.
func (r *RateLimiter) Require(ctx context.Context, kind model.ActivityKind, userID, serverID string) (model.Usage, error) {
	u, err := r.Check(ctx, kind, userID, serverID)
	if err != nil {
		return u, err
	}
	if u.Count >= u.Limit {
		return u, &model.LimitError{Kind: kind, Usage: u, ResetIn: clock.UntilNextDay(r.now())}
	}
	return u, nil
}

// Prune deletes counters older than keepDays days and returns how many went.
func (r *RateLimiter) Prune(ctx context.Context, keepDays int) (int, error) {
	if keepDays < 1 {
		keepDays = 1
	}
	cutoff := clock.DateKey(r.now().UTC().AddDate(0, 0, -(keepDays - 1)))
	n, err := r.counters.DeleteBefore(ctx, cutoff)
	if err != nil {
		return n, wrap("prune daily counters", err)
	}
	if n > 0 {
		log.Info().Int("removed", n).Str("before", cutoff).Msg("Pruned daily counters")
	}
	return n, nil
}

// ResetIn is the time until the counters roll over.
func (r *RateLimiter) ResetIn() time.Duration {
	return clock.UntilNextDay(r.now())
}

func (r *RateLimiter) usage(kind model.ActivityKind, count int) model.Usage {
	limit := r.limits[kind]
	return model.Usage{Count: count, Remaining: max(0, limit-count), Limit: limit}
}
