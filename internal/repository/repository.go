// Package repository maps the domain records onto store buckets. Every
// mutation goes through a single-record atomic update.
package repository

import (
	"context"
	"strings"

	"monad-bot/internal/store"
)

// Bucket names.
const (
	bucketBalances        = "balances"
	bucketCounters        = "daily_counters"
	bucketLoadouts        = "loadouts"
	bucketExperience      = "experience"
	bucketCheckIns        = "checkins"
	bucketRumbleGames     = "rumble_games"
	bucketRumbleStats     = "rumble_stats"
	bucketRoleListings    = "role_listings"
	bucketRoleSubmissions = "role_submissions"
	bucketApprovedRoles   = "approved_roles"
)

// key joins identity parts with ':'; Discord snowflakes never contain one.
func key(parts ...string) string {
	return strings.Join(parts, ":")
}

// table is a typed view of one bucket.
type table[T any] struct {
	s      store.Store
	bucket string
}

func (t table[T]) get(ctx context.Context, k string) (T, bool, error) {
	return store.GetJSON[T](ctx, t.s, t.bucket, k)
}

func (t table[T]) update(ctx context.Context, k string, fn func(v *T, exists bool) error) (T, error) {
	return store.UpdateJSON(ctx, t.s, t.bucket, k, fn)
}

func (t table[T]) list(ctx context.Context, prefix string) ([]T, error) {
	return store.ListJSON[T](ctx, t.s, t.bucket, prefix)
}

func (t table[T]) delete(ctx context.Context, k string) error {
	return t.s.Delete(ctx, t.bucket, k)
}

// Repositories bundles every repository over one store.
type Repositories struct {
	Balances   *BalanceRepository
	Counters   *CounterRepository
	Loadouts   *LoadoutRepository
	Experience *ExperienceRepository
	CheckIns   *CheckInRepository
	Rumble     *RumbleRepository
	Roles      *RoleRepository
}

// New creates all repositories over s.
func New(s store.Store) *Repositories {
	return &Repositories{
		Balances:   NewBalanceRepository(s),
		Counters:   NewCounterRepository(s),
		Loadouts:   NewLoadoutRepository(s),
		Experience: NewExperienceRepository(s),
		CheckIns:   NewCheckInRepository(s),
		Rumble:     NewRumbleRepository(s),
		Roles:      NewRoleRepository(s),
	}
}
