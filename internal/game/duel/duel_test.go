package duel

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"monad-bot/internal/catalog"
	"monad-bot/internal/model"
	"monad-bot/internal/pkg/clock"
	"monad-bot/internal/pkg/lock"
	"monad-bot/internal/pkg/rng"
	"monad-bot/internal/repository"
	"monad-bot/internal/scheduler"
	"monad-bot/internal/service"
	"monad-bot/internal/store"
)

type fixture struct {
	game   *Game
	ledger *service.Ledger
	sched  *scheduler.Manual
}

func newFixture(t *testing.T, src rng.Source) *fixture {
	t.Helper()
	repos := repository.New(store.NewMemory())
	clk := clock.NewManual(time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC))
	locks := lock.New()
	ledger := service.NewLedger(repos.Balances)
	limiter := service.NewRateLimiter(repos.Counters, service.Limits{
		model.ActivityDuelInitiated: 3,
		model.ActivityDuelReceived:  3,
	}, clk.Now)
	loadouts := service.NewLoadoutService(repos.Loadouts, ledger, catalog.Default(), locks, src, clk.Now, 0)
	exp := service.NewExperienceTracker(repos.Experience, loadouts, src, clk.Now, 0)
	sched := &scheduler.Manual{}
	return &fixture{
		game:   New(ledger, limiter, exp, locks, sched, src, 0),
		ledger: ledger,
		sched:  sched,
	}
}

func (f *fixture) fund(t *testing.T, userID string, amount int64) {
	t.Helper()
	_, err := f.ledger.Adjust(context.Background(), userID, "g1", amount, model.OutcomeNone)
	require.NoError(t, err)
}

func TestResolve(t *testing.T) {
	tests := []struct {
		name   string
		floats []float64
		ints   []int
		target int64
		want   Outcome
	}{
		{"challenger wins and steals", []float64{0.1, 0.1}, []int{120}, 500, Outcome{ChallengerWon: true, Stolen: 120}},
		{"challenger wins without steal roll", []float64{0.1, 0.9}, []int{120}, 500, Outcome{ChallengerWon: true}},
		{"poor target is never robbed", []float64{0.1, 0.1}, []int{120}, 99, Outcome{ChallengerWon: true}},
		{"target wins and steals", []float64{0.9, 0.1}, []int{180}, 0, Outcome{Stolen: 180}},
		{"target wins without steal", []float64{0.9, 0.9}, []int{180}, 0, Outcome{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Resolve(&rng.Scripted{Ints: tt.ints, Floats: tt.floats}, tt.target)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestChallenge_Validation(t *testing.T) {
	f := newFixture(t, &rng.Scripted{})
	ctx := context.Background()

	_, err := f.game.Challenge(ctx, "a", "a", "g1", false)
	assert.ErrorIs(t, err, model.ErrUnauthorized)
	_, err = f.game.Challenge(ctx, "a", "bot", "g1", true)
	assert.ErrorIs(t, err, model.ErrUnauthorized)

	for _, target := range []string{"b", "c", "d"} {
		_, err = f.game.Challenge(ctx, "a", target, "g1", false)
		require.NoError(t, err)
	}
	_, err = f.game.Challenge(ctx, "a", "e", "g1", false)
	assert.ErrorIs(t, err, model.ErrDailyLimitReached)

	for _, challenger := range []string{"x", "y"} {
		_, err = f.game.Challenge(ctx, challenger, "b", "g1", false)
		require.NoError(t, err)
	}
	_, err = f.game.Challenge(ctx, "z", "b", "g1", false)
	assert.ErrorIs(t, err, model.ErrDailyLimitReached, "target already received three duels")
}

func TestChallenge_DeferredSettlement(t *testing.T) {
	src := &rng.Scripted{Ints: []int{100}, Floats: []float64{0.1, 0.1}}
	f := newFixture(t, src)
	ctx := context.Background()
	f.fund(t, "a", 50)
	f.fund(t, "b", 300)

	c, err := f.game.Challenge(ctx, "a", "b", "g1", false)
	require.NoError(t, err)
	assert.Equal(t, 1, c.Initiated.Count)
	assert.Equal(t, 1, c.Received.Count)

	delay, ok := f.sched.NextDelay()
	require.True(t, ok)
	assert.Equal(t, DefaultDelay, delay)
	select {
	case <-c.Result.Done():
		t.Fatal("duel resolved before its delay")
	default:
	}

	require.True(t, f.sched.RunNext())
	res, err := c.Result.Await(ctx)
	require.NoError(t, err)
	assert.True(t, res.ChallengerWon)
	assert.Equal(t, int64(100), res.Stolen)
	assert.Equal(t, int64(150), res.ChallengerBalance.Amount)
	assert.Equal(t, int64(200), res.TargetBalance.Amount)
	assert.Equal(t, int64(200), res.WinnerExp.Amount)
	assert.Equal(t, int64(28), res.LoserExp.Amount)
}

func TestChallenge_ThiefGetsFullAmountFromClampedVictim(t *testing.T) {
	src := &rng.Scripted{Ints: []int{200}, Floats: []float64{0.9, 0.1}}
	f := newFixture(t, src)
	ctx := context.Background()
	f.fund(t, "a", 30)

	c, err := f.game.Challenge(ctx, "a", "b", "g1", false)
	require.NoError(t, err)
	f.sched.RunAll()

	res, err := c.Result.Await(ctx)
	require.NoError(t, err)
	assert.False(t, res.ChallengerWon)
	assert.Equal(t, "b", res.WinnerID)
	assert.Zero(t, res.ChallengerBalance.Amount)
	assert.Equal(t, int64(200), res.TargetBalance.Amount)
}

func TestChallenge_LeavesGameCountersAlone(t *testing.T) {
	tests := []struct {
		name   string
		ints   []int
		floats []float64
		stolen int64
	}{
		{"challenger wins without steal", []int{0}, []float64{0.1, 0.9}, 0},
		{"challenger wins and steals", []int{100}, []float64{0.1, 0.1}, 100},
		{"target wins and steals", []int{40}, []float64{0.9, 0.1}, 40},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, &rng.Scripted{Ints: tt.ints, Floats: tt.floats})
			ctx := context.Background()
			f.fund(t, "a", 500)
			f.fund(t, "b", 500)

			c, err := f.game.Challenge(ctx, "a", "b", "g1", false)
			require.NoError(t, err)
			f.sched.RunAll()
			res, err := c.Result.Await(ctx)
			require.NoError(t, err)
			assert.Equal(t, tt.stolen, res.Stolen)

			for _, id := range []string{"a", "b"} {
				b, err := f.ledger.GetBalance(ctx, id, "g1")
				require.NoError(t, err)
				assert.Zero(t, b.TotalGames, id)
				assert.Zero(t, b.Wins, id)
				assert.Zero(t, b.Losses, id)
			}
		})
	}
}

// **Feature: monad-bot, Property: Duel Steal Bounds**
// Stolen amounts stay inside the side's range, and a winning challenger never
// steals from a target below the balance floor.
func TestResolveBoundsProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		seed := rapid.Int64().Draw(t, "seed")
		target := rapid.Int64Range(0, 10_000).Draw(t, "target")

		o := Resolve(rng.New(seed), target)
		if o.Stolen < 0 {
			t.Fatalf("negative steal %d", o.Stolen)
		}
		if o.ChallengerWon {
			if o.Stolen > MaxChallengerSteal {
				t.Fatalf("challenger stole %d", o.Stolen)
			}
			if target < MinTargetBalance && o.Stolen != 0 {
				t.Fatalf("robbed a target holding %d", target)
			}
		} else if o.Stolen > MaxTargetSteal {
			t.Fatalf("target stole %d", o.Stolen)
		}
	})
}
