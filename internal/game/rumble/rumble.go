// Package rumble implements the battle royale: players sign up during a
// window, then random events eliminate them round by round until one remains.
package rumble

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"monad-bot/internal/config"
	"monad-bot/internal/model"
	"monad-bot/internal/pkg/clock"
	"monad-bot/internal/pkg/lock"
	"monad-bot/internal/pkg/rng"
	"monad-bot/internal/repository"
	"monad-bot/internal/scheduler"
)

const (
	MinPlayers        = 2
	DefaultTopPlayers = 5
)

// Listener receives game progress so the transport can announce it.
type Listener interface {
	SignupClosed(g model.RumbleGame, cancelled bool)
	RoundPlayed(g model.RumbleGame, report RoundReport)
	Finished(g model.RumbleGame, standings []model.RumblePlayer)
}

// Game runs one battle royale per server.
type Game struct {
	repo     *repository.RumbleRepository
	locks    *lock.KeyLock
	sched    scheduler.Scheduler
	events   EventSource
	rng      rng.Source
	now      clock.Clock
	cfg      config.RumbleConfig
	listener Listener
}

// New creates a rumble Game. A nil events source draws from Events with src.
func New(
	repo *repository.RumbleRepository,
	locks *lock.KeyLock,
	sched scheduler.Scheduler,
	events EventSource,
	src rng.Source,
	now clock.Clock,
	cfg config.RumbleConfig,
) *Game {
	if events == nil {
		events = RandomEvents{Rng: src}
	}
	if now == nil {
		now = clock.System
	}
	return &Game{repo: repo, locks: locks, sched: sched, events: events, rng: src, now: now, cfg: cfg}
}

// SetListener registers the progress listener. Call before starting games.
func (g *Game) SetListener(l Listener) { g.listener = l }

// Name returns the game's display name.
func (g *Game) Name() string { return "Rumble" }

// Command returns the command that triggers this game.
func (g *Game) Command() string { return "rumble" }

// Description returns the rules.
func (g *Game) Description() string {
	return "A battle royale for the whole server. Join during signup; random events knock players out until one is left."
}

// DailyLimit returns zero; rumbles are not capped.
func (g *Game) DailyLimit() int { return 0 }

// Delay returns the default signup window.
func (g *Game) Delay() time.Duration { return g.cfg.DefaultSignup }

// SignupWindow clamps a requested window; zero selects the default.
func (g *Game) SignupWindow(requested time.Duration) time.Duration {
	if requested <= 0 {
		return g.cfg.DefaultSignup
	}
	return min(max(requested, g.cfg.MinSignup), g.cfg.MaxSignup)
}

func serverLock(serverID string) string { return "rumble:" + serverID }

// Start opens signup. Only members who can manage the server may start, and a
// server has at most one live game.
func (g *Game) Start(ctx context.Context, serverID, channelID, hostID string, canManageGuild bool, signup time.Duration) (model.RumbleGame, error) {
	if !canManageGuild {
		return model.RumbleGame{}, fmt.Errorf("%w: only server managers can start a rumble", model.ErrUnauthorized)
	}
	window := g.SignupWindow(signup)

	unlock := g.locks.LockAll(serverLock(serverID))

	now := g.now()
	game, err := g.repo.UpdateGame(ctx, serverID, func(cur *model.RumbleGame, exists bool) error {
		if exists && (cur.State == model.RumbleRecruiting || cur.State == model.RumbleRunning) {
			return model.ErrGameInProgress
		}
		*cur = model.RumbleGame{
			ID:         uuid.NewString(),
			ServerID:   serverID,
			ChannelID:  channelID,
			HostID:     hostID,
			State:      model.RumbleRecruiting,
			Players:    []model.RumblePlayer{},
			Eliminated: []model.RumblePlayer{},
			Round:      1,
			StartTime:  now,
			SignupEnds: now.Add(window),
		}
		return nil
	})
	unlock()
	if err != nil {
		return model.RumbleGame{}, wrap("start rumble", err)
	}

	if err := g.sched.After(window, "rumble-signup", func() { g.closeSignup(serverID, game.ID) }); err != nil {
		_ = g.repo.DeleteGame(ctx, serverID)
		return model.RumbleGame{}, fmt.Errorf("failed to schedule rumble signup: %w", err)
	}

	log.Info().Str("server", serverID).Str("game", game.ID).Dur("signup", window).Msg("Rumble signup opened")
	return game, nil
}

// Join adds userID to the recruiting game.
func (g *Game) Join(ctx context.Context, serverID, userID string) (model.RumbleGame, error) {
	game, err := g.repo.UpdateGame(ctx, serverID, func(cur *model.RumbleGame, exists bool) error {
		if !exists || cur.State != model.RumbleRecruiting {
			return fmt.Errorf("%w: no rumble is recruiting", model.ErrNotFound)
		}
		if cur.HasPlayer(userID) {
			return model.ErrAlreadyJoined
		}
		cur.Players = append(cur.Players, model.RumblePlayer{ID: userID, JoinTime: g.now()})
		return nil
	})
	if err != nil {
		return model.RumbleGame{}, wrap("join rumble", err)
	}
	log.Debug().Str("server", serverID).Str("user", userID).Int("players", len(game.Players)).Msg("Rumble joined")
	return game, nil
}

// Current returns the server's live game.
func (g *Game) Current(ctx context.Context, serverID string) (model.RumbleGame, bool, error) {
	game, found, err := g.repo.GetGame(ctx, serverID)
	return game, found, wrap("get rumble", err)
}

// closeSignup ends the signup window of gameID and schedules the first round.
func (g *Game) closeSignup(serverID, gameID string) {
	if g.endSignup(context.Background(), serverID, gameID) {
		g.scheduleRound(serverID, gameID, g.cfg.FirstRound)
	}
}

// endSignup cancels or starts the game and reports whether it is running.
func (g *Game) endSignup(ctx context.Context, serverID, gameID string) bool {
	unlock := g.locks.LockAll(serverLock(serverID))
	defer unlock()

	game, found, err := g.repo.GetGame(ctx, serverID)
	if err != nil {
		log.Error().Err(err).Str("server", serverID).Msg("Failed to load rumble at signup end")
		return false
	}
	if !found || game.ID != gameID || game.State != model.RumbleRecruiting {
		return false
	}

	if len(game.Players) < MinPlayers {
		game.State = model.RumbleCancelled
		game.EndTime = g.now()
		if err := g.repo.DeleteGame(ctx, serverID); err != nil {
			log.Error().Err(err).Str("server", serverID).Msg("Failed to clear cancelled rumble")
		}
		log.Info().Str("server", serverID).Int("players", len(game.Players)).Msg("Rumble cancelled")
		g.notify(func(l Listener) { l.SignupClosed(game, true) })
		return false
	}

	game, err = g.repo.UpdateGame(ctx, serverID, func(cur *model.RumbleGame, _ bool) error {
		cur.State = model.RumbleRunning
		return nil
	})
	if err != nil {
		log.Error().Err(err).Str("server", serverID).Msg("Failed to start rumble")
		return false
	}
	log.Info().Str("server", serverID).Int("players", len(game.Players)).Msg("Rumble started")
	g.notify(func(l Listener) { l.SignupClosed(game, false) })
	return true
}

func (g *Game) scheduleRound(serverID, gameID string, delay time.Duration) {
	if err := g.sched.After(delay, "rumble-round", func() { g.playRound(serverID, gameID) }); err != nil {
		log.Error().Err(err).Str("server", serverID).Msg("Failed to schedule rumble round")
	}
}

func (g *Game) playRound(serverID, gameID string) {
	ctx := context.Background()
	unlock := g.locks.LockAll(serverLock(serverID))

	var report RoundReport
	game, err := g.repo.UpdateGame(ctx, serverID, func(cur *model.RumbleGame, exists bool) error {
		if !exists || cur.ID != gameID || cur.State != model.RumbleRunning {
			return model.ErrNotFound
		}
		report = PlayRound(cur, g.events, g.rng)
		return nil
	})
	if err != nil {
		unlock()
		log.Warn().Err(err).Str("server", serverID).Msg("Rumble round skipped")
		return
	}
	g.notify(func(l Listener) { l.RoundPlayed(game, report) })

	if len(game.Players) > 1 {
		unlock()
		g.scheduleRound(serverID, gameID, g.cfg.RoundInterval)
		return
	}
	g.finish(ctx, game)
	unlock()
}

// finish ranks everyone, records stats and clears the live game. Caller holds the server lock.
func (g *Game) finish(ctx context.Context, game model.RumbleGame) {
	standings := Standings(&game)
	game.State = model.RumbleEnded
	game.EndTime = g.now()

	for _, p := range standings {
		_, err := g.repo.UpdateStats(ctx, p.ID, func(s *model.RumbleStats) error {
			s.GamesPlayed++
			if p.Rank == 1 {
				s.Wins++
			}
			if p.Rank <= 3 {
				s.TopThree++
			}
			return nil
		})
		if err != nil {
			log.Error().Err(err).Str("user", p.ID).Msg("Failed to record rumble stats")
		}
	}
	if err := g.repo.DeleteGame(ctx, game.ServerID); err != nil {
		log.Error().Err(err).Str("server", game.ServerID).Msg("Failed to clear finished rumble")
	}

	winner := ""
	if len(standings) > 0 {
		winner = standings[0].ID
	}
	log.Info().Str("server", game.ServerID).Str("winner", winner).Int("rounds", game.Round-1).Msg("Rumble finished")
	g.notify(func(l Listener) { l.Finished(game, standings) })
}

// Recover reschedules games left behind by a restart: open signups close at
// their original deadline (or now), running games continue with the next round.
func (g *Game) Recover(ctx context.Context) (int, error) {
	games, err := g.repo.ListGames(ctx)
	if err != nil {
		return 0, wrap("list rumbles", err)
	}
	for _, game := range games {
		switch game.State {
		case model.RumbleRecruiting:
			wait := max(0, game.SignupEnds.Sub(g.now()))
			serverID, gameID := game.ServerID, game.ID
			if err := g.sched.After(wait, "rumble-signup", func() { g.closeSignup(serverID, gameID) }); err != nil {
				return 0, fmt.Errorf("failed to reschedule rumble signup: %w", err)
			}
		case model.RumbleRunning:
			g.scheduleRound(game.ServerID, game.ID, g.cfg.RoundInterval)
		default:
			_ = g.repo.DeleteGame(ctx, game.ServerID)
		}
	}
	if len(games) > 0 {
		log.Info().Int("games", len(games)).Msg("Recovered rumble games")
	}
	return len(games), nil
}

// Stats returns a user's rumble history.
func (g *Game) Stats(ctx context.Context, userID string) (model.RumbleStats, error) {
	st, err := g.repo.GetStats(ctx, userID)
	return st, wrap("get rumble stats", err)
}

// TopPlayers returns the users with the most wins.
func (g *Game) TopPlayers(ctx context.Context, limit int) ([]model.RumbleStats, error) {
	if limit <= 0 {
		limit = DefaultTopPlayers
	}
	all, err := g.repo.ListStats(ctx)
	if err != nil {
		return nil, wrap("list rumble stats", err)
	}
	slices.SortStableFunc(all, func(a, b model.RumbleStats) int {
		if c := cmp.Compare(b.Wins, a.Wins); c != 0 {
			return c
		}
		if c := cmp.Compare(b.TopThree, a.TopThree); c != 0 {
			return c
		}
		return cmp.Compare(a.UserID, b.UserID)
	})
	if len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

func (g *Game) notify(fn func(Listener)) {
	if g.listener != nil {
		fn(g.listener)
	}
}

func wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	for _, kind := range []error{model.ErrUnauthorized, model.ErrGameInProgress, model.ErrAlreadyJoined, model.ErrNotFound} {
		if errors.Is(err, kind) {
			return err
		}
	}
	return fmt.Errorf("failed to %s: %w", op, err)
}
