package bot

import (
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"monad-bot/internal/config"
	"monad-bot/internal/handler"
)

// HandlerFunc handles one slash command.
type HandlerFunc func(c handler.Context) error

// Middleware wraps a HandlerFunc.
type Middleware func(next HandlerFunc) HandlerFunc

// chain applies mw so that mw[0] runs first.
func chain(h HandlerFunc, mw ...Middleware) HandlerFunc {
	for i := len(mw) - 1; i >= 0; i-- {
		h = mw[i](h)
	}
	return h
}

// GuildOnlyMiddleware rejects commands sent outside a server.
func GuildOnlyMiddleware() Middleware {
	return func(next HandlerFunc) HandlerFunc {
		return func(c handler.Context) error {
			if c.GuildID() == "" {
				return c.ReplyEphemeral("❌ Commands only work inside a server.")
			}
			return next(c)
		}
	}
}

// WhitelistMiddleware drops commands from servers outside the configured whitelist.
func WhitelistMiddleware(cfg *config.Config) Middleware {
	return func(next HandlerFunc) HandlerFunc {
		return func(c handler.Context) error {
			if !cfg.IsGuildAllowed(c.GuildID()) {
				log.Debug().
					Str("guild", c.GuildID()).
					Str("command", c.Command()).
					Msg("Ignoring command from non-whitelisted guild")
				return c.ReplyEphemeral("❌ This server is not authorized to use this bot.")
			}
			return next(c)
		}
	}
}

// PermissionMiddleware requires the invoker to hold perm in the server.
func PermissionMiddleware(perm int64) Middleware {
	return func(next HandlerFunc) HandlerFunc {
		return func(c handler.Context) error {
			if !c.HasPermission(perm) {
				log.Warn().
					Str("user", c.UserID()).
					Str("command", c.Command()).
					Int64("permission", perm).
					Msg("Missing permission for command")
				return c.ReplyEphemeral("❌ You do not have permission to use this command.")
			}
			return next(c)
		}
	}
}

// DeveloperMiddleware restricts a command to the configured developers.
func DeveloperMiddleware(cfg *config.Config) Middleware {
	return func(next HandlerFunc) HandlerFunc {
		return func(c handler.Context) error {
			if !cfg.IsDeveloper(c.UserID()) {
				log.Warn().
					Str("user", c.UserID()).
					Str("command", c.Command()).
					Msg("Non-developer attempted developer command")
				return c.ReplyEphemeral("❌ This command is for bot developers only.")
			}
			return next(c)
		}
	}
}

// UserLimiter keeps one token bucket per user.
type UserLimiter struct {
	limit rate.Limit
	burst int
	now   func() time.Time

	mu      sync.Mutex
	buckets map[string]*userBucket
}

type userBucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewUserLimiter allows perSecond commands per user with the given burst.
func NewUserLimiter(perSecond float64, burst int) *UserLimiter {
	return &UserLimiter{
		limit:   rate.Limit(perSecond),
		burst:   max(burst, 1),
		now:     time.Now,
		buckets: make(map[string]*userBucket),
	}
}

// Allow takes a token from userID's bucket.
func (u *UserLimiter) Allow(userID string) bool {
	u.mu.Lock()
	b, ok := u.buckets[userID]
	if !ok {
		b = &userBucket{limiter: rate.NewLimiter(u.limit, u.burst)}
		u.buckets[userID] = b
	}
	now := u.now()
	b.lastSeen = now
	u.mu.Unlock()
	return b.limiter.AllowN(now, 1)
}

// Prune forgets buckets idle for longer than idle and returns how many were dropped.
func (u *UserLimiter) Prune(idle time.Duration) int {
	cutoff := u.now().Add(-idle)
	u.mu.Lock()
	defer u.mu.Unlock()
	n := 0
	for id, b := range u.buckets {
		if b.lastSeen.Before(cutoff) {
			delete(u.buckets, id)
			n++
		}
	}
	return n
}

// RateLimitMiddleware throttles each user's commands.
func RateLimitMiddleware(limiter *UserLimiter) Middleware {
	return func(next HandlerFunc) HandlerFunc {
		return func(c handler.Context) error {
			if !limiter.Allow(c.UserID()) {
				log.Debug().Str("user", c.UserID()).Str("command", c.Command()).Msg("Command rate limited")
				return c.ReplyEphemeral("⏳ Slow down! Try again in a moment.")
			}
			return next(c)
		}
	}
}

// LoggingMiddleware logs every command with its outcome and duration.
func LoggingMiddleware() Middleware {
	return func(next HandlerFunc) HandlerFunc {
		return func(c handler.Context) error {
			start := time.Now()
			err := next(c)

			event := log.Debug()
			if err != nil {
				event = log.Error().Err(err)
			}
			event.
				Str("command", c.Command()).
				Str("subcommand", c.Subcommand()).
				Str("user", c.UserID()).
				Str("guild", c.GuildID()).
				Dur("took", time.Since(start)).
				Msg("Handled command")
			return err
		}
	}
}

// RecoveryMiddleware turns a handler panic into an error reply.
func RecoveryMiddleware() Middleware {
	return func(next HandlerFunc) HandlerFunc {
		return func(c handler.Context) (err error) {
			defer func() {
				if r := recover(); r != nil {
					log.Error().
						Interface("panic", r).
						Str("command", c.Command()).
						Str("stack", string(debug.Stack())).
						Msg("Recovered from panic in handler")
					_ = c.ReplyEphemeral("❌ An internal error occurred, please try again later.")
					err = fmt.Errorf("panic in /%s: %v", c.Command(), r)
				}
			}()
			return next(c)
		}
	}
}
