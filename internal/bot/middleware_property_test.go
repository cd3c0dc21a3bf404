package bot

import (
	"context"
	"fmt"
	"slices"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"monad-bot/internal/config"
	"monad-bot/internal/handler"
)

// stubContext is a minimal handler.Context for middleware tests.
type stubContext struct {
	guild     string
	user      string
	perms     int64
	ephemeral []string
}

func (s *stubContext) Ctx() context.Context                 { return context.Background() }
func (s *stubContext) Command() string                      { return "ping" }
func (s *stubContext) Subcommand() string                   { return "" }
func (s *stubContext) GuildID() string                      { return s.guild }
func (s *stubContext) GuildName() string                    { return "" }
func (s *stubContext) ChannelID() string                    { return "channel" }
func (s *stubContext) UserID() string                       { return s.user }
func (s *stubContext) HasPermission(perm int64) bool        { return hasPermission(s.perms, perm) }
func (s *stubContext) String(string) (string, bool)         { return "", false }
func (s *stubContext) Int(string) (int64, bool)             { return 0, false }
func (s *stubContext) User(string) (handler.UserRef, bool)  { return handler.UserRef{}, false }
func (s *stubContext) Role(string) (handler.RoleRef, bool)  { return handler.RoleRef{}, false }
func (s *stubContext) Reply(string) error                   { return nil }
func (s *stubContext) FollowUp(string) error                { return nil }
func (s *stubContext) ReplyEphemeral(text string) error {
	s.ephemeral = append(s.ephemeral, text)
	return nil
}

// passes reports whether mw lets the command through to the handler.
func passes(mw Middleware, c handler.Context) bool {
	called := false
	_ = mw(func(handler.Context) error {
		called = true
		return nil
	})(c)
	return called
}

// **Feature: monad-bot, Property: Guild Whitelist Enforcement**
func TestWhitelistEnforcementProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		guilds := rapid.SliceOfN(rapid.StringMatching(`[0-9]{3,6}`), 0, 5).Draw(t, "guilds")
		guild := rapid.StringMatching(`[0-9]{3,6}`).Draw(t, "guild")
		cfg := &config.Config{Discord: config.DiscordConfig{Guilds: guilds}}

		c := &stubContext{guild: guild, user: "u"}
		want := len(guilds) == 0 || slices.Contains(guilds, guild)
		if got := passes(WhitelistMiddleware(cfg), c); got != want {
			t.Fatalf("guild %s with whitelist %v: passed=%v, want %v", guild, guilds, got, want)
		}
		if !want && len(c.ephemeral) != 1 {
			t.Fatalf("rejected command got %d replies", len(c.ephemeral))
		}
	})
}

// **Feature: monad-bot, Property: Developer Check**
func TestDeveloperCheckProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		devs := rapid.SliceOfN(rapid.StringMatching(`[0-9]{4,8}`), 1, 5).Draw(t, "devs")
		cfg := &config.Config{Discord: config.DiscordConfig{DeveloperIDs: devs}}

		known := devs[rapid.IntRange(0, len(devs)-1).Draw(t, "index")]
		if !passes(DeveloperMiddleware(cfg), &stubContext{guild: "g", user: known}) {
			t.Fatalf("developer %s was rejected", known)
		}

		other := rapid.StringMatching(`[0-9]{4,8}`).Draw(t, "other")
		if passes(DeveloperMiddleware(cfg), &stubContext{guild: "g", user: other}) != slices.Contains(devs, other) {
			t.Fatalf("user %s misjudged against %v", other, devs)
		}
	})
}

// **Feature: monad-bot, Property: Permission Bits**
func TestPermissionBitsProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		granted := rapid.Int64Range(0, 1<<40).Draw(t, "granted")
		perm := int64(1) << rapid.IntRange(0, 40).Draw(t, "bit")

		want := granted&perm != 0 || granted&discordgo.PermissionAdministrator != 0
		if got := hasPermission(granted, perm); got != want {
			t.Fatalf("granted=%b perm=%b: got %v, want %v", granted, perm, got, want)
		}
	})
}

func TestGuildOnlyMiddleware(t *testing.T) {
	dm := &stubContext{user: "u"}
	assert.False(t, passes(GuildOnlyMiddleware(), dm))
	assert.Len(t, dm.ephemeral, 1)
	assert.True(t, passes(GuildOnlyMiddleware(), &stubContext{guild: "g", user: "u"}))
}

func TestRateLimitMiddleware(t *testing.T) {
	limiter := NewUserLimiter(1, 3)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return now }
	mw := RateLimitMiddleware(limiter)

	alice := &stubContext{guild: "g", user: "alice"}
	for i := 0; i < 3; i++ {
		require.True(t, passes(mw, alice), "burst call %d", i)
	}
	assert.False(t, passes(mw, alice))
	assert.True(t, passes(mw, &stubContext{guild: "g", user: "bob"}), "other users keep their own bucket")

	now = now.Add(time.Second)
	assert.True(t, passes(mw, alice), "one token refills per second")

	now = now.Add(time.Hour)
	assert.Equal(t, 2, limiter.Prune(10*time.Minute))
}

func TestRecoveryMiddleware(t *testing.T) {
	c := &stubContext{guild: "g", user: "u"}
	err := RecoveryMiddleware()(func(handler.Context) error {
		panic("boom")
	})(c)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
	assert.Len(t, c.ephemeral, 1)
}

func TestChainOrder(t *testing.T) {
	var order []string
	tag := func(name string) Middleware {
		return func(next HandlerFunc) HandlerFunc {
			return func(c handler.Context) error {
				order = append(order, name)
				return next(c)
			}
		}
	}
	h := chain(func(handler.Context) error {
		order = append(order, "handler")
		return nil
	}, tag("a"), tag("b"), tag("c"))

	require.NoError(t, h(&stubContext{}))
	assert.Equal(t, []string{"a", "b", "c", "handler"}, order)
}

func TestTruncate(t *testing.T) {
	short := "hello"
	assert.Equal(t, short, truncate(short))

	long := ""
	for len(long) <= maxMessageLength {
		long += fmt.Sprintf("🎲 line %d\n", len(long))
	}
	out := truncate(long)
	assert.LessOrEqual(t, len(out), maxMessageLength)
	assert.True(t, utf8.ValidString(out))
}
