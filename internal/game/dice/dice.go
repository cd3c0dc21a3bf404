// Package dice implements the weighted dice bet: the wager is split across up
// to three guessed faces, one die is rolled, and a matching guess pays five
// times its share.
package dice

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"monad-bot/internal/model"
	"monad-bot/internal/pkg/lock"
	"monad-bot/internal/pkg/rng"
	"monad-bot/internal/service"
)

const (
	DefaultMinWager = 10
	MaxGuesses      = 3
	MinWeight       = 1
	MaxWeight       = 10
	Faces           = 6
	PayoutFactor    = 5     // winning stake pays stake × 5
	LuckyChance     = 0.005 // forced win on a guessed face
)

// Guess is one face with its share of the wager.
type Guess struct {
	Face   int
	Weight int
}

// Bet is a full dice bet.
type Bet struct {
	Wager   int64
	Guesses []Guess
}

// Result reports a resolved bet. Leak is the part of the wager the floor
// rounding left unstaked; it is never charged.
type Result struct {
	Stakes  []int64
	Staked  int64
	Leak    int64
	Face    int
	Lucky   bool
	Won     bool
	Guess   Guess
	Payout  int64
	Balance model.Balance
	Usage   model.Usage
}

// ValidateBet checks the shape of a bet without touching any state.
func ValidateBet(bet Bet, minWager int64) error {
	if bet.Wager < minWager {
		return fmt.Errorf("%w: minimum wager is %d", model.ErrInvalidInput, minWager)
	}
	if len(bet.Guesses) == 0 || len(bet.Guesses) > MaxGuesses {
		return fmt.Errorf("%w: pick 1 to %d faces", model.ErrInvalidInput, MaxGuesses)
	}
	seen := make(map[int]bool, len(bet.Guesses))
	for _, g := range bet.Guesses {
		if g.Face < 1 || g.Face > Faces {
			return fmt.Errorf("%w: face %d is not between 1 and %d", model.ErrInvalidInput, g.Face, Faces)
		}
		if g.Weight < MinWeight || g.Weight > MaxWeight {
			return fmt.Errorf("%w: weight %d is not between %d and %d", model.ErrInvalidInput, g.Weight, MinWeight, MaxWeight)
		}
		if seen[g.Face] {
			return fmt.Errorf("%w: face %d", model.ErrDuplicateGuess, g.Face)
		}
		seen[g.Face] = true
	}
	return nil
}

// Stakes splits the wager by weight, rounding each share down.
func Stakes(bet Bet) (stakes []int64, staked, leak int64) {
	var total int64
	for _, g := range bet.Guesses {
		total += int64(g.Weight)
	}
	if total == 0 {
		return nil, 0, bet.Wager
	}
	stakes = make([]int64, len(bet.Guesses))
	for i, g := range bet.Guesses {
		stakes[i] = bet.Wager * int64(g.Weight) / total
		staked += stakes[i]
	}
	return stakes, staked, bet.Wager - staked
}

// Roll throws the die. With LuckyChance the result is forced to one of the
// guessed faces.
func Roll(src rng.Source, guesses []Guess) (face int, lucky bool) {
	if len(guesses) > 0 && rng.Chance(src, LuckyChance) {
		return guesses[src.Intn(len(guesses))].Face, true
	}
	return src.Intn(Faces) + 1, false
}

// Game runs dice bets against the ledger.
type Game struct {
	ledger   *service.Ledger
	limiter  *service.RateLimiter
	locks    *lock.KeyLock
	rng      rng.Source
	minWager int64
}

// Config holds dice settings.
type Config struct {
	MinWager int64
}

// New creates a new dice Game.
func New(ledger *service.Ledger, limiter *service.RateLimiter, locks *lock.KeyLock, src rng.Source, cfg *Config) *Game {
	minWager := int64(DefaultMinWager)
	if cfg != nil && cfg.MinWager > 0 {
		minWager = cfg.MinWager
	}
	return &Game{ledger: ledger, limiter: limiter, locks: locks, rng: src, minWager: minWager}
}

// Name returns the game's display name.
func (g *Game) Name() string { return "Dice" }

// Command returns the command that triggers this game.
func (g *Game) Command() string { return "dice" }

// Description returns the rules.
func (g *Game) Description() string {
	return fmt.Sprintf("Split a wager of at least %d $dMON over up to %d faces with weights 1-10. "+
		"If the die lands on one of them, that share pays %dx.", g.minWager, MaxGuesses, PayoutFactor)
}

// DailyLimit returns the number of bets allowed per day.
func (g *Game) DailyLimit() int { return g.limiter.Limit(model.ActivityDice) }

// Delay returns zero; dice resolve immediately.
func (g *Game) Delay() time.Duration { return 0 }

// MinWager returns the smallest accepted wager.
func (g *Game) MinWager() int64 { return g.minWager }

// Place validates and resolves a bet. Exactly one outcome is recorded per bet.
func (g *Game) Place(ctx context.Context, userID, serverID string, bet Bet) (*Result, error) {
	if err := ValidateBet(bet, g.minWager); err != nil {
		return nil, err
	}

	unlock := g.locks.LockAll(service.BalanceLock(userID, serverID))
	defer unlock()

	if _, err := g.ledger.RequireFunds(ctx, userID, serverID, bet.Wager); err != nil {
		return nil, err
	}
	if _, err := g.limiter.Require(ctx, model.ActivityDice, userID, serverID); err != nil {
		return nil, err
	}

	usage, err := g.limiter.Increment(ctx, model.ActivityDice, userID, serverID)
	if err != nil {
		return nil, err
	}
	stakes, staked, leak := Stakes(bet)
	if _, err := g.ledger.Debit(ctx, userID, serverID, staked); err != nil {
		return nil, err
	}

	res := &Result{Stakes: stakes, Staked: staked, Leak: leak, Usage: usage}
	res.Face, res.Lucky = Roll(g.rng, bet.Guesses)
	for i, guess := range bet.Guesses {
		if guess.Face == res.Face {
			res.Won = true
			res.Guess = guess
			res.Payout = stakes[i] * PayoutFactor
			break
		}
	}

	outcome := model.OutcomeLoss
	if res.Won {
		outcome = model.OutcomeWin
	}
	res.Balance, err = g.ledger.Adjust(ctx, userID, serverID, res.Payout, outcome)
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("user", userID).
		Str("server", serverID).
		Int64("wager", bet.Wager).
		Int64("staked", staked).
		Int("face", res.Face).
		Bool("lucky", res.Lucky).
		Int64("payout", res.Payout).
		Msg("Dice bet resolved")
	return res, nil
}
