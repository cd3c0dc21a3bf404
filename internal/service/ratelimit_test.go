package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"monad-bot/internal/model"
)

func TestRateLimiter_RequireReportsReset(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := env.limiter.Require(ctx, model.ActivityDuelInitiated, "u1", "g1")
		require.NoError(t, err)
		_, err = env.limiter.Increment(ctx, model.ActivityDuelInitiated, "u1", "g1")
		require.NoError(t, err)
	}

	_, err := env.limiter.Require(ctx, model.ActivityDuelInitiated, "u1", "g1")
	require.ErrorIs(t, err, model.ErrDailyLimitReached)
	var le *model.LimitError
	require.True(t, errors.As(err, &le))
	assert.Equal(t, 3, le.Usage.Count)
	assert.Equal(t, 2*time.Hour, le.ResetIn)
}

func TestRateLimiter_ResetsAtUTCMidnight(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	u, err := env.limiter.Increment(ctx, model.ActivityHunt, "u1", "g1")
	require.NoError(t, err)
	assert.Equal(t, model.Usage{Count: 1, Remaining: 9, Limit: 10}, u)

	env.clock.Advance(2 * time.Hour)
	u, err = env.limiter.Check(ctx, model.ActivityHunt, "u1", "g1")
	require.NoError(t, err)
	assert.Zero(t, u.Count)
	assert.Equal(t, 10, u.Remaining)
}

func TestRateLimiter_Prune(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	for day := 0; day < 10; day++ {
		_, err := env.limiter.Increment(ctx, model.ActivityDice, "u1", "g1")
		require.NoError(t, err)
		env.clock.Advance(24 * time.Hour)
	}
	_, err := env.limiter.Increment(ctx, model.ActivityDice, "u1", "g1")
	require.NoError(t, err)

	removed, err := env.limiter.Prune(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, 4, removed)
}

// **Feature: monad-bot, Property: Soft Daily Cap**
// Incrementing always counts, even past the limit; remaining never goes below zero.
func TestRateLimiterSoftCapProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		env := newTestEnv()
		ctx := context.Background()
		n := rapid.IntRange(1, 25).Draw(t, "increments")

		var u model.Usage
		for i := 0; i < n; i++ {
			var err error
			u, err = env.limiter.Increment(ctx, model.ActivityDice, "u", "g")
			if err != nil {
				t.Fatalf("increment: %v", err)
			}
		}
		if u.Count != n {
			t.Fatalf("count %d, want %d", u.Count, n)
		}
		if want := max(0, 10-n); u.Remaining != want {
			t.Fatalf("remaining %d, want %d", u.Remaining, want)
		}
	})
}
