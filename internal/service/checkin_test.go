package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"monad-bot/internal/model"
)

func TestCheckIn_RewardAndCooldown(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	env.rng.Ints = []int{20} // randInt[80,120] -> 100

	res, err := env.checkins.CheckIn(ctx, "u1", "g1")
	require.NoError(t, err)
	assert.Equal(t, int64(100), res.Reward)
	assert.Equal(t, int64(100), res.Balance.Amount)
	assert.Equal(t, testEpoch.Add(12*time.Hour), res.NextAt)

	env.clock.Advance(11 * time.Hour)
	_, err = env.checkins.CheckIn(ctx, "u1", "g2")
	require.ErrorIs(t, err, model.ErrCooldown)
	var ce *model.CooldownError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, time.Hour, ce.Remaining)

	st, err := env.checkins.Status(ctx, "u1")
	require.NoError(t, err)
	assert.False(t, st.Available)

	env.clock.Advance(time.Hour)
	_, err = env.checkins.CheckIn(ctx, "u1", "g2")
	require.NoError(t, err)
}

func TestCheckIn_EquipmentBonus(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	env.give(t, "u1", "g1", "bandit_gloves")
	_, err := env.loadouts.Equip(ctx, "u1", "g1", 0)
	require.NoError(t, err)
	env.rng.Ints = []int{0}

	res, err := env.checkins.CheckIn(ctx, "u1", "g1")
	require.NoError(t, err)
	assert.Equal(t, int64(80), res.Base)
	assert.Equal(t, int64(3), res.Bonus)
	assert.Equal(t, int64(83), res.Balance.Amount)
}
