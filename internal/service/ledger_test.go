package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"monad-bot/internal/model"
)

func TestLedger_GetBalanceCreatesRecord(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	b, err := env.ledger.GetBalance(ctx, "u1", "g1")
	require.NoError(t, err)
	assert.Zero(t, b.Amount)

	_, found, err := env.repos.Balances.Get(ctx, "u1", "g1")
	require.NoError(t, err)
	assert.True(t, found, "first access should persist the zero record")
}

func TestLedger_AdjustOutcomeCounters(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	_, err := env.ledger.Adjust(ctx, "u1", "g1", 100, model.OutcomeWin)
	require.NoError(t, err)
	b, err := env.ledger.Adjust(ctx, "u1", "g1", -500, model.OutcomeLoss)
	require.NoError(t, err)

	assert.Zero(t, b.Amount)
	assert.Equal(t, 2, b.TotalGames)
	assert.Equal(t, 1, b.Wins)
	assert.Equal(t, 1, b.Losses)
	assert.InDelta(t, 50.0, b.WinRate(), 0.001)
}

func TestLedger_DebitRejectsShortBalance(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	env.fund(t, "u1", "g1", 40)

	_, err := env.ledger.Debit(ctx, "u1", "g1", 50)
	require.ErrorIs(t, err, model.ErrInsufficientFunds)
	var fe *model.FundsError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, int64(50), fe.Required)
	assert.Equal(t, int64(40), fe.Available)

	b, err := env.ledger.Debit(ctx, "u1", "g1", 40)
	require.NoError(t, err)
	assert.Zero(t, b.Amount)
}

func TestLedger_Leaderboard(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	env.fund(t, "a", "g1", 10)
	env.fund(t, "b", "g1", 30)
	env.fund(t, "c", "g1", 20)
	env.fund(t, "d", "g2", 999)

	top, err := env.ledger.Leaderboard(ctx, "g1", 2)
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, "b", top[0].UserID)
	assert.Equal(t, "c", top[1].UserID)
}

// **Feature: monad-bot, Property: Balance Never Negative**
// For any sequence of adjustments the balance equals the running clamped sum
// and never drops below zero.
func TestLedgerBalanceNeverNegativeProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		env := newTestEnv()
		ctx := context.Background()
		deltas := rapid.SliceOfN(rapid.Int64Range(-1000, 1000), 1, 40).Draw(t, "deltas")

		var want int64
		for _, d := range deltas {
			want = max(0, want+d)
			b, err := env.ledger.Adjust(ctx, "u", "g", d, model.OutcomeNone)
			if err != nil {
				t.Fatalf("adjust: %v", err)
			}
			if b.Amount < 0 {
				t.Fatalf("negative balance %d", b.Amount)
			}
			if b.Amount != want {
				t.Fatalf("balance %d, want %d", b.Amount, want)
			}
		}
	})
}
