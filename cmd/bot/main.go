// Package main is the entry point for MonadBot.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"monad-bot/internal/bot"
	"monad-bot/internal/catalog"
	"monad-bot/internal/config"
	"monad-bot/internal/game"
	"monad-bot/internal/game/dice"
	"monad-bot/internal/game/duel"
	"monad-bot/internal/game/hunt"
	"monad-bot/internal/game/rumble"
	"monad-bot/internal/health"
	"monad-bot/internal/pkg/clock"
	"monad-bot/internal/pkg/db"
	"monad-bot/internal/pkg/lock"
	"monad-bot/internal/pkg/rng"
	"monad-bot/internal/repository"
	"monad-bot/internal/scheduler"
	"monad-bot/internal/service"
	"monad-bot/internal/store"
)

// Housekeeping intervals.
const (
	counterPruneInterval = 24 * time.Hour
	limiterPruneInterval = 10 * time.Minute
	limiterIdle          = 30 * time.Minute
	shutdownTimeout      = 10 * time.Second
)

func main() {
	cfg, err := config.Load("config")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	setupLogger(cfg.Log)
	log.Info().Str("backend", cfg.Storage.Backend).Msg("Configuration loaded successfully")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	st, err := openStore(ctx, &cfg.Storage)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open storage")
	}
	defer func() {
		if err := st.Close(); err != nil {
			log.Error().Err(err).Msg("Failed to close storage")
		}
	}()

	reg := catalog.Default()
	if cfg.Catalog.Path != "" {
		if reg, err = catalog.Load(cfg.Catalog.Path); err != nil {
			log.Fatal().Err(err).Str("path", cfg.Catalog.Path).Msg("Failed to load catalog")
		}
	}

	sched, err := scheduler.NewGocron()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to start scheduler")
	}

	repos := repository.New(st)
	locks := lock.New()
	src := rng.NewTimeSeeded()
	now := clock.System

	// Services
	ledger := service.NewLedger(repos.Balances)
	limiter := service.NewRateLimiter(repos.Counters, service.LimitsFromConfig(cfg.Limits), now)
	loadouts := service.NewLoadoutService(repos.Loadouts, ledger, reg, locks, src, now, cfg.Economy.InventorySize)
	experience := service.NewExperienceTracker(repos.Experience, loadouts, src, now, cfg.Limits.ChatExperience)
	checkIns := service.NewCheckInService(repos.CheckIns, ledger, loadouts, src, now, cfg.Economy)
	roleShop := service.NewRoleShop(repos.Roles, ledger, locks, now)

	// Games
	diceGame := dice.New(ledger, limiter, locks, src, &dice.Config{MinWager: cfg.Economy.MinWager})
	duelGame := duel.New(ledger, limiter, experience, locks, sched, src, cfg.Economy.DuelDelay)
	huntGame := hunt.New(reg, ledger, limiter, loadouts, experience, sched, src, now, cfg.Economy.HuntDelay)
	rumbleGame := rumble.New(repos.Rumble, locks, sched, nil, src, now, cfg.Rumble)

	games := game.NewRegistry()
	for _, g := range []game.Game{diceGame, duelGame, huntGame, rumbleGame} {
		if err := games.Register(g); err != nil {
			log.Fatal().Err(err).Str("game", g.Name()).Msg("Failed to register game")
		}
	}
	log.Info().Int("game_count", games.Count()).Msg("Games registered")

	var commandLimiter *bot.UserLimiter
	if cfg.RateLimit.PerSecond > 0 {
		commandLimiter = bot.NewUserLimiter(cfg.RateLimit.PerSecond, cfg.RateLimit.Burst)
	}

	if err := scheduleHousekeeping(sched, limiter, commandLimiter, cfg.Limits.RetentionDays); err != nil {
		log.Fatal().Err(err).Msg("Failed to schedule housekeeping")
	}

	discordBot, err := bot.New(&bot.Dependencies{
		Config:         cfg,
		Ledger:         ledger,
		Limiter:        limiter,
		Loadouts:       loadouts,
		Experience:     experience,
		CheckIns:       checkIns,
		RoleShop:       roleShop,
		Catalog:        reg,
		GameRegistry:   games,
		Dice:           diceGame,
		Duel:           duelGame,
		Hunt:           huntGame,
		Rumble:         rumbleGame,
		CommandLimiter: commandLimiter,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create bot")
	}

	var healthServer *health.Server
	if cfg.Health.Enabled {
		healthServer = health.New(cfg.Health.Addr, discordBot, st)
		go func() {
			if err := healthServer.Start(); err != nil {
				log.Error().Err(err).Msg("Health server stopped")
			}
		}()
	}

	if err := discordBot.Start(ctx); err != nil {
		log.Fatal().Err(err).Msg("Failed to start bot")
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan
	log.Info().Str("signal", sig.String()).Msg("Received shutdown signal")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	if healthServer != nil {
		if err := healthServer.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("Failed to stop health server")
		}
	}
	if err := discordBot.Stop(); err != nil {
		log.Error().Err(err).Msg("Failed to close discord session")
	}
	if err := sched.Shutdown(); err != nil {
		log.Error().Err(err).Msg("Failed to stop scheduler")
	}
	log.Info().Msg("Bot stopped gracefully")
}

func setupLogger(cfg config.LogConfig) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	if cfg.Pretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
}

// openStore opens the configured backend.
func openStore(ctx context.Context, cfg *config.StorageConfig) (store.Store, error) {
	switch cfg.Backend {
	case config.BackendMemory:
		log.Warn().Msg("Using in-memory storage, data is lost on restart")
		return store.NewMemory(), nil
	case config.BackendFile:
		st, err := store.OpenFile(cfg.File.Path)
		if err != nil {
			return nil, err
		}
		return st, nil
	case config.BackendPostgres:
		pool, err := db.NewPool(ctx, &cfg.Database)
		if err != nil {
			return nil, err
		}
		st, err := store.NewPostgres(ctx, pool)
		if err != nil {
			pool.Close()
			return nil, err
		}
		return st, nil
	case config.BackendSQLite:
		sqlDB, err := db.OpenSQLite(ctx, cfg.SQLite.Path)
		if err != nil {
			return nil, err
		}
		st, err := store.NewSQLite(ctx, sqlDB)
		if err != nil {
			_ = sqlDB.Close()
			return nil, err
		}
		return st, nil
	case config.BackendRedis:
		client, err := db.NewRedis(ctx, &cfg.Redis)
		if err != nil {
			return nil, err
		}
		return store.NewRedis(client, cfg.Redis.KeyPrefix), nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}

// scheduleHousekeeping registers the periodic pruning jobs.
func scheduleHousekeeping(sched scheduler.Scheduler, limiter *service.RateLimiter, commands *bot.UserLimiter, retentionDays int) error {
	err := sched.Every(counterPruneInterval, "prune-counters", func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		removed, err := limiter.Prune(ctx, retentionDays)
		if err != nil {
			log.Error().Err(err).Msg("Failed to prune daily counters")
			return
		}
		log.Info().Int("removed", removed).Int("keep_days", retentionDays).Msg("Pruned daily counters")
	})
	if err != nil {
		return err
	}
	if commands == nil {
		return nil
	}
	return sched.Every(limiterPruneInterval, "prune-command-limiter", func() {
		if n := commands.Prune(limiterIdle); n > 0 {
			log.Debug().Int("removed", n).Msg("Pruned idle command limiters")
		}
	})
}
