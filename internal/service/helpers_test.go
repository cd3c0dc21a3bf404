package service

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/stretchr/testify/require"

	"monad-bot/internal/catalog"
	"monad-bot/internal/config"
	"monad-bot/internal/model"
	"monad-bot/internal/pkg/clock"
	"monad-bot/internal/pkg/lock"
	"monad-bot/internal/pkg/rng"
	"monad-bot/internal/repository"
	"monad-bot/internal/store"
)

// testingT is satisfied by both *testing.T and *rapid.T.
type testingT interface {
	require.TestingT
	Helper()
}

var testEpoch = time.Date(2026, 3, 14, 22, 0, 0, 0, time.UTC)

type testEnv struct {
	repos    *repository.Repositories
	clock    *clock.Manual
	rng      *rng.Scripted
	locks    *lock.KeyLock
	ledger   *Ledger
	limiter  *RateLimiter
	loadouts *LoadoutService
	exp      *ExperienceTracker
	checkins *CheckInService
	roles    *RoleShop
}

func newTestEnv() *testEnv {
	return newTestEnvWith(store.NewMemory())
}

func newTestEnvWith(st store.Store) *testEnv {
	repos := repository.New(st)
	clk := clock.NewManual(testEpoch)
	src := &rng.Scripted{Ints: []int{0}, Floats: []float64{0.99}}
	locks := lock.New()

	env := &testEnv{repos: repos, clock: clk, rng: src, locks: locks}
	env.ledger = NewLedger(repos.Balances)
	env.limiter = NewRateLimiter(repos.Counters, Limits{
		model.ActivityDice:          10,
		model.ActivityHunt:          10,
		model.ActivityDuelInitiated: 3,
		model.ActivityDuelReceived:  3,
	}, clk.Now)
	env.loadouts = NewLoadoutService(repos.Loadouts, env.ledger, catalog.Default(), locks, src, clk.Now, DefaultInventorySize)
	env.exp = NewExperienceTracker(repos.Experience, env.loadouts, src, clk.Now, DefaultChatExpCap)
	env.checkins = NewCheckInService(repos.CheckIns, env.ledger, env.loadouts, src, clk.Now, config.EconomyConfig{
		CheckInCooldown: 12 * time.Hour,
		CheckInMin:      80,
		CheckInMax:      120,
	})
	env.roles = NewRoleShop(repos.Roles, env.ledger, locks, clk.Now)
	return env
}

func (e *testEnv) fund(t testingT, userID, serverID string, amount int64) {
	t.Helper()
	_, err := e.ledger.Adjust(context.Background(), userID, serverID, amount, model.OutcomeNone)
	require.NoError(t, err)
}

func (e *testEnv) give(t testingT, userID, serverID string, ids ...string) {
	t.Helper()
	reg := catalog.Default()
	for _, id := range ids {
		_, def, err := reg.FindItem(id)
		require.NoError(t, err)
		require.NoError(t, e.loadouts.AddToInventory(context.Background(), userID, serverID, def.Snapshot(testEpoch)))
	}
}

func itemIDs(items []model.Item) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.ID
	}
	return out
}

var errBucketDown = errors.New("bucket unavailable")

// flakyStore fails writes to one bucket while down is set.
type flakyStore struct {
	store.Store
	bucket string
	down   atomic.Bool
}

func (f *flakyStore) Update(ctx context.Context, bucket, key string, fn store.UpdateFunc) error {
	if bucket == f.bucket && f.down.Load() {
		return errBucketDown
	}
	return f.Store.Update(ctx, bucket, key, fn)
}
