// Package hunt implements monster hunts: a turn-based fight against a catalog
// monster, resolved a few seconds after it starts.
package hunt

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"monad-bot/internal/catalog"
	"monad-bot/internal/model"
	"monad-bot/internal/pkg/rng"
	"monad-bot/internal/scheduler"
	"monad-bot/internal/service"
)

const (
	DefaultDelay = 3 * time.Second
	MaxRounds    = 20
	BaseHP       = 100
	HPPerDefense = 2
)

// Round is one exchange of blows. MonsterDamage is zero when the monster died
// before striking back.
type Round struct {
	Number        int
	UserDamage    float64
	MonsterDamage float64
	UserHP        float64
	MonsterHP     float64
}

// Battle is the outcome of a simulated fight.
type Battle struct {
	Victory   bool
	Rounds    []Round
	UserMaxHP float64
	UserHP    float64
	MonsterHP float64
}

// Damage is the hit an attacker lands on a defender: attack minus half the
// defense, at least one point. Half points are kept.
func Damage(attack, defense float64) float64 {
	return max(1, attack-defense/2)
}

// Simulate fights monster with the given user stats. The user strikes first
// each round; a fight still undecided after MaxRounds is a defeat.
func Simulate(attack, defense int, monster model.Monster) Battle {
	userHP := float64(BaseHP + HPPerDefense*defense)
	monsterHP := float64(monster.HP)
	b := Battle{UserMaxHP: userHP}

	for n := 1; n <= MaxRounds; n++ {
		r := Round{Number: n}
		r.UserDamage = Damage(float64(attack), float64(monster.Defense))
		monsterHP -= r.UserDamage
		if monsterHP <= 0 {
			r.UserHP, r.MonsterHP = userHP, 0
			b.Rounds = append(b.Rounds, r)
			b.Victory = true
			break
		}
		r.MonsterDamage = Damage(float64(monster.Attack), float64(defense))
		userHP -= r.MonsterDamage
		r.UserHP, r.MonsterHP = max(0, userHP), monsterHP
		b.Rounds = append(b.Rounds, r)
		if userHP <= 0 {
			break
		}
	}

	b.UserHP = max(0, userHP)
	b.MonsterHP = max(0, monsterHP)
	return b
}

// Hunt is returned when a hunt starts.
type Hunt struct {
	Monster    model.Monster
	Usage      model.Usage
	ResolvesAt time.Time
	Result     *scheduler.Future[*Result]
}

// Result reports a resolved hunt. On defeat only Battle is set.
type Result struct {
	Monster model.Monster
	Stats   model.Stats
	Battle  Battle
	Reward  int64
	Balance model.Balance
	Exp     service.Grant

	// Drop is the item added to the inventory. DropLost names an item that was
	// rolled but did not fit or is missing from the catalog.
	Drop     *model.Item
	DropLost string
}

// Game runs hunts.
type Game struct {
	catalog  *catalog.Registry
	ledger   *service.Ledger
	limiter  *service.RateLimiter
	loadouts *service.LoadoutService
	exp      *service.ExperienceTracker
	sched    scheduler.Scheduler
	rng      rng.Source
	now      func() time.Time
	delay    time.Duration
}

// New creates a hunt Game. A zero delay uses DefaultDelay.
func New(
	registry *catalog.Registry,
	ledger *service.Ledger,
	limiter *service.RateLimiter,
	loadouts *service.LoadoutService,
	exp *service.ExperienceTracker,
	sched scheduler.Scheduler,
	src rng.Source,
	now func() time.Time,
	delay time.Duration,
) *Game {
	if delay <= 0 {
		delay = DefaultDelay
	}
	if now == nil {
		now = time.Now
	}
	return &Game{
		catalog:  registry,
		ledger:   ledger,
		limiter:  limiter,
		loadouts: loadouts,
		exp:      exp,
		sched:    sched,
		rng:      src,
		now:      now,
		delay:    delay,
	}
}

// Name returns the game's display name.
func (g *Game) Name() string { return "Hunt" }

// Command returns the command that triggers this game.
func (g *Game) Command() string { return "hunt" }

// Description returns the rules.
func (g *Game) Description() string {
	return "Fight a monster with your equipped gear. Victory pays $dMON and experience and may drop equipment."
}

// DailyLimit returns the hunts allowed per day.
func (g *Game) DailyLimit() int { return g.limiter.Limit(model.ActivityHunt) }

// Delay returns the time until the battle is resolved.
func (g *Game) Delay() time.Duration { return g.delay }

// Start consumes a hunt and schedules the battle.
func (g *Game) Start(ctx context.Context, userID, serverID, monsterKey string) (*Hunt, error) {
	if _, err := g.limiter.Require(ctx, model.ActivityHunt, userID, serverID); err != nil {
		return nil, err
	}
	monster, err := g.catalog.GetMonster(monsterKey)
	if err != nil {
		return nil, err
	}
	usage, err := g.limiter.Increment(ctx, model.ActivityHunt, userID, serverID)
	if err != nil {
		return nil, err
	}

	h := &Hunt{Monster: monster, Usage: usage, ResolvesAt: g.now().Add(g.delay)}
	h.Result = scheduler.Defer(g.sched, g.delay, "hunt", func(ctx context.Context) (*Result, error) {
		return g.resolve(ctx, userID, serverID, monster)
	})

	log.Info().Str("user", userID).Str("server", serverID).Str("monster", monster.Key).Msg("Hunt started")
	return h, nil
}

func (g *Game) resolve(ctx context.Context, userID, serverID string, monster model.Monster) (*Result, error) {
	stats, err := g.loadouts.AggregateStats(ctx, userID, serverID, model.CombatBase)
	if err != nil {
		return nil, err
	}
	res := &Result{Monster: monster, Stats: stats}
	res.Battle = Simulate(stats.Attack, stats.Defense, monster)
	if !res.Battle.Victory {
		log.Info().Str("user", userID).Str("monster", monster.Key).Msg("Hunt lost")
		return res, nil
	}

	res.Reward = rng.IntRange(g.rng, monster.Reward.Min, monster.Reward.Max)
	if res.Balance, err = g.ledger.Adjust(ctx, userID, serverID, res.Reward, model.OutcomeNone); err != nil {
		return nil, err
	}
	if err := g.rollDrop(ctx, userID, serverID, monster, res); err != nil {
		return nil, err
	}
	if res.Exp, err = g.exp.GrantRandom(ctx, userID, service.HuntExpMin, service.HuntExpMax); err != nil {
		return nil, err
	}

	log.Info().
		Str("user", userID).
		Str("server", serverID).
		Str("monster", monster.Key).
		Int("rounds", len(res.Battle.Rounds)).
		Int64("reward", res.Reward).
		Msg("Hunt won")
	return res, nil
}

// rollDrop adds a random possible drop. Unknown ids and a full inventory lose
// the drop without failing the hunt.
func (g *Game) rollDrop(ctx context.Context, userID, serverID string, monster model.Monster, res *Result) error {
	if len(monster.PossibleDrops) == 0 || !rng.Chance(g.rng, monster.DropChance) {
		return nil
	}
	id := monster.PossibleDrops[g.rng.Intn(len(monster.PossibleDrops))]
	_, def, err := g.catalog.FindItem(id)
	if err != nil {
		log.Warn().Str("item", id).Str("monster", monster.Key).Msg("Monster drop not in catalog")
		res.DropLost = id
		return nil
	}

	item := def.Snapshot(g.now())
	err = g.loadouts.AddToInventory(ctx, userID, serverID, item)
	switch {
	case errors.Is(err, model.ErrInventoryFull):
		res.DropLost = def.Name
		return nil
	case err != nil:
		return fmt.Errorf("failed to store hunt drop: %w", err)
	}
	res.Drop = &item
	return nil
}
