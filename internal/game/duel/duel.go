// Package duel implements player-versus-player duels. A challenge is announced
// immediately and resolved a few seconds later; the winner may steal $dMON.
package duel

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"monad-bot/internal/model"
	"monad-bot/internal/pkg/lock"
	"monad-bot/internal/pkg/rng"
	"monad-bot/internal/scheduler"
	"monad-bot/internal/service"
)

const (
	DefaultDelay = 5 * time.Second

	ChallengerWinChance = 0.5
	StealChance         = 0.5

	// A winning challenger only steals from targets holding at least this much.
	MinTargetBalance   = 100
	MaxChallengerSteal = 150
	MaxTargetSteal     = 200
)

// Outcome is the pure result of a duel roll.
type Outcome struct {
	ChallengerWon bool
	Stolen        int64
}

// Resolve rolls a duel. The rules are asymmetric: a winning
// challenger steals randInt[0,150] only from a target holding 100 or more,
// while a winning target steals randInt[0,200] with no balance floor.
func Resolve(src rng.Source, targetBalance int64) Outcome {
	if rng.Chance(src, ChallengerWinChance) {
		o := Outcome{ChallengerWon: true}
		if targetBalance >= MinTargetBalance && rng.Chance(src, StealChance) {
			o.Stolen = int64(src.Intn(MaxChallengerSteal + 1))
		}
		return o
	}
	o := Outcome{}
	if rng.Chance(src, StealChance) {
		o.Stolen = int64(src.Intn(MaxTargetSteal + 1))
	}
	return o
}

// Challenge is returned when a duel is accepted for resolution.
type Challenge struct {
	ChallengerID string
	TargetID     string
	ServerID     string
	Initiated    model.Usage
	Received     model.Usage
	ResolvesAt   time.Time
	Result       *scheduler.Future[*Result]
}

// Result reports a resolved duel. The thief is credited the full drawn amount
// even when the victim's balance was clamped at zero.
type Result struct {
	ChallengerID      string
	TargetID          string
	WinnerID          string
	LoserID           string
	ChallengerWon     bool
	Stolen            int64
	ChallengerBalance model.Balance
	TargetBalance     model.Balance
	WinnerExp         service.Grant
	LoserExp          service.Grant
}

// Game schedules and settles duels.
type Game struct {
	ledger  *service.Ledger
	limiter *service.RateLimiter
	exp     *service.ExperienceTracker
	locks   *lock.KeyLock
	sched   scheduler.Scheduler
	rng     rng.Source
	delay   time.Duration
}

// New creates a duel Game. A zero delay uses DefaultDelay.
func New(
	ledger *service.Ledger,
	limiter *service.RateLimiter,
	exp *service.ExperienceTracker,
	locks *lock.KeyLock,
	sched scheduler.Scheduler,
	src rng.Source,
	delay time.Duration,
) *Game {
	if delay <= 0 {
		delay = DefaultDelay
	}
	return &Game{ledger: ledger, limiter: limiter, exp: exp, locks: locks, sched: sched, rng: src, delay: delay}
}

// Name returns the game's display name.
func (g *Game) Name() string { return "Duel" }

// Command returns the command that triggers this game.
func (g *Game) Command() string { return "duel" }

// Description returns the rules.
func (g *Game) Description() string {
	return "Challenge another member. Either side can win; the winner may steal some $dMON from the loser."
}

// DailyLimit returns how many duels a user may start per day.
func (g *Game) DailyLimit() int { return g.limiter.Limit(model.ActivityDuelInitiated) }

// Delay returns the time between announcement and result.
func (g *Game) Delay() time.Duration { return g.delay }

// Challenge validates a duel, consumes both daily counters and schedules the
// resolution. Counters stay consumed even if the resolution never runs.
func (g *Game) Challenge(ctx context.Context, challengerID, targetID, serverID string, targetIsBot bool) (*Challenge, error) {
	if challengerID == targetID {
		return nil, fmt.Errorf("%w: you cannot duel yourself", model.ErrUnauthorized)
	}
	if targetIsBot {
		return nil, fmt.Errorf("%w: bots do not duel", model.ErrUnauthorized)
	}
	if _, err := g.limiter.Require(ctx, model.ActivityDuelInitiated, challengerID, serverID); err != nil {
		return nil, err
	}
	if _, err := g.limiter.Require(ctx, model.ActivityDuelReceived, targetID, serverID); err != nil {
		return nil, err
	}

	initiated, err := g.limiter.Increment(ctx, model.ActivityDuelInitiated, challengerID, serverID)
	if err != nil {
		return nil, err
	}
	received, err := g.limiter.Increment(ctx, model.ActivityDuelReceived, targetID, serverID)
	if err != nil {
		return nil, err
	}

	c := &Challenge{
		ChallengerID: challengerID,
		TargetID:     targetID,
		ServerID:     serverID,
		Initiated:    initiated,
		Received:     received,
		ResolvesAt:   time.Now().Add(g.delay),
	}
	c.Result = scheduler.Defer(g.sched, g.delay, "duel", func(ctx context.Context) (*Result, error) {
		return g.settle(ctx, challengerID, targetID, serverID)
	})

	log.Info().
		Str("challenger", challengerID).
		Str("target", targetID).
		Str("server", serverID).
		Msg("Duel announced")
	return c, nil
}

func (g *Game) settle(ctx context.Context, challengerID, targetID, serverID string) (*Result, error) {
	unlock := g.locks.LockAll(service.BalanceLock(challengerID, serverID), service.BalanceLock(targetID, serverID))
	defer unlock()

	target, err := g.ledger.GetBalance(ctx, targetID, serverID)
	if err != nil {
		return nil, err
	}
	o := Resolve(g.rng, target.Amount)

	res := &Result{
		ChallengerID:  challengerID,
		TargetID:      targetID,
		ChallengerWon: o.ChallengerWon,
		Stolen:        o.Stolen,
		WinnerID:      targetID,
		LoserID:       challengerID,
	}
	if o.ChallengerWon {
		res.WinnerID, res.LoserID = challengerID, targetID
	}

	// Duels move $dMON but leave the dice win/loss counters alone.
	winnerBal, err := g.ledger.Adjust(ctx, res.WinnerID, serverID, o.Stolen, model.OutcomeNone)
	if err != nil {
		return nil, err
	}
	loserBal, err := g.ledger.Adjust(ctx, res.LoserID, serverID, -o.Stolen, model.OutcomeNone)
	if err != nil {
		return nil, err
	}
	if o.ChallengerWon {
		res.ChallengerBalance, res.TargetBalance = winnerBal, loserBal
	} else {
		res.ChallengerBalance, res.TargetBalance = loserBal, winnerBal
	}

	if res.WinnerExp, err = g.exp.GrantRandom(ctx, res.WinnerID, service.DuelWinnerExpMin, service.DuelWinnerExpMax); err != nil {
		return nil, err
	}
	if res.LoserExp, err = g.exp.GrantRandom(ctx, res.LoserID, service.DuelLoserExpMin, service.DuelLoserExpMax); err != nil {
		return nil, err
	}

	log.Info().
		Str("winner", res.WinnerID).
		Str("loser", res.LoserID).
		Str("server", serverID).
		Int64("stolen", o.Stolen).
		Msg("Duel resolved")
	return res, nil
}
