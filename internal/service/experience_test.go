package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"monad-bot/internal/model"
)

func TestShouldGrantChat(t *testing.T) {
	assert.True(t, ShouldGrantChat("gm", false))
	assert.False(t, ShouldGrantChat("/dice", false))
	assert.False(t, ShouldGrantChat("!help", false))
	assert.False(t, ShouldGrantChat("hello", true))
}

func TestExperience_ChatCapAndRollover(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	env.rng.Ints = []int{5} // randInt[5,10] -> 10

	var g ChatGrant
	var err error
	for i := 0; i < 100; i++ {
		g, err = env.exp.GrantChatExperience(ctx, "u1")
		require.NoError(t, err)
		require.True(t, g.Granted)
	}
	assert.Equal(t, 1000, g.ChatToday)

	g, err = env.exp.GrantChatExperience(ctx, "u1")
	require.NoError(t, err)
	assert.False(t, g.Granted)
	assert.Equal(t, int64(1000), g.Exp)

	env.clock.Advance(3 * time.Hour)
	g, err = env.exp.GrantChatExperience(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, g.Granted)
	assert.Equal(t, 10, g.ChatToday)
}

func TestExperience_ChatTrimmedToCap(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	_, err := env.repos.Experience.Update(ctx, "u1", func(e *model.Experience) error {
		e.ChatExpToday = 997
		e.LastChatExpDate = "2026-03-14"
		return nil
	})
	require.NoError(t, err)
	env.rng.Ints = []int{5}

	g, err := env.exp.GrantChatExperience(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(3), g.Amount)
	assert.Equal(t, 1000, g.ChatToday)
}

func TestExperience_GrantLevelsUp(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	g, err := env.exp.GrantExperience(ctx, "u1", 9999)
	require.NoError(t, err)
	assert.Equal(t, 1, g.Level)
	assert.False(t, g.LeveledUp)

	g, err = env.exp.GrantExperience(ctx, "u1", 1)
	require.NoError(t, err)
	assert.Equal(t, 2, g.Level)
	assert.True(t, g.LeveledUp)

	e, err := env.exp.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(20000), e.NextLevelExp())
}

func TestExperience_StatsUseCharacterBase(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	env.give(t, "u1", "g1", "wooden_sword")
	_, err := env.loadouts.Equip(ctx, "u1", "g1", 0)
	require.NoError(t, err)

	stats, err := env.exp.Stats(ctx, "u1", "g1")
	require.NoError(t, err)
	assert.Equal(t, 13, stats.Attack)
	assert.Equal(t, 1000, stats.HP)
	assert.Equal(t, 70, stats.Accuracy)
}
