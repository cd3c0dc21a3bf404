package service

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"monad-bot/internal/config"
	"monad-bot/internal/model"
	"monad-bot/internal/pkg/clock"
	"monad-bot/internal/pkg/rng"
	"monad-bot/internal/repository"
)

// CheckInResult reports a successful check-in.
type CheckInResult struct {
	Reward  int64
	Base    int64
	Bonus   int64
	Balance model.Balance
	NextAt  time.Time
}

// CheckInStatus reports whether a check-in is available.
type CheckInStatus struct {
	Available bool
	LastAt    time.Time
	NextAt    time.Time
}

// CheckInService pays the periodic check-in reward.
type CheckInService struct {
	checkins *repository.CheckInRepository
	ledger   *Ledger
	loadouts *LoadoutService
	rng      rng.Source
	now      clock.Clock
	cfg      config.EconomyConfig
}

// NewCheckInService creates a new CheckInService.
func NewCheckInService(
	checkins *repository.CheckInRepository,
	ledger *Ledger,
	loadouts *LoadoutService,
	src rng.Source,
	now clock.Clock,
	cfg config.EconomyConfig,
) *CheckInService {
	if now == nil {
		now = clock.System
	}
	return &CheckInService{checkins: checkins, ledger: ledger, loadouts: loadouts, rng: src, now: now, cfg: cfg}
}

// CheckIn claims the reward. The cooldown is per user across servers; the
// reward and the equipment bonus belong to the calling server.
func (s *CheckInService) CheckIn(ctx context.Context, userID, serverID string) (CheckInResult, error) {
	stats, err := s.loadouts.AggregateStats(ctx, userID, serverID, model.Stats{})
	if err != nil {
		return CheckInResult{}, err
	}

	now := s.now()
	_, err = s.checkins.Update(ctx, userID, func(c *model.CheckIn, exists bool) error {
		if exists {
			if left := c.LastAt.Add(s.cfg.CheckInCooldown).Sub(now); left > 0 {
				return &model.CooldownError{Remaining: left}
			}
		}
		c.LastAt = now
		return nil
	})
	if err != nil {
		return CheckInResult{}, wrap("record check-in", err)
	}

	base := rng.IntRange(s.rng, s.cfg.CheckInMin, s.cfg.CheckInMax)
	bonus := int64(stats.DmonBonus)
	bal, err := s.ledger.Adjust(ctx, userID, serverID, base+bonus, model.OutcomeNone)
	if err != nil {
		return CheckInResult{}, err
	}

	log.Info().
		Str("user", userID).
		Str("server", serverID).
		Int64("base", base).
		Int64("bonus", bonus).
		Msg("Check-in reward paid")
	return CheckInResult{
		Reward:  base + bonus,
		Base:    base,
		Bonus:   bonus,
		Balance: bal,
		NextAt:  now.Add(s.cfg.CheckInCooldown),
	}, nil
}

// Status reports when the next check-in is possible.
func (s *CheckInService) Status(ctx context.Context, userID string) (CheckInStatus, error) {
	c, found, err := s.checkins.Get(ctx, userID)
	if err != nil {
		return CheckInStatus{}, wrap("get check-in", err)
	}
	if !found {
		return CheckInStatus{Available: true}, nil
	}
	next := c.LastAt.Add(s.cfg.CheckInCooldown)
	return CheckInStatus{Available: !s.now().Before(next), LastAt: c.LastAt, NextAt: next}, nil
}
