package handler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/require"

	"monad-bot/internal/catalog"
	"monad-bot/internal/config"
	"monad-bot/internal/game"
	"monad-bot/internal/game/dice"
	"monad-bot/internal/game/duel"
	"monad-bot/internal/game/hunt"
	"monad-bot/internal/game/rumble"
	"monad-bot/internal/model"
	"monad-bot/internal/pkg/clock"
	"monad-bot/internal/pkg/lock"
	"monad-bot/internal/pkg/rng"
	"monad-bot/internal/repository"
	"monad-bot/internal/scheduler"
	"monad-bot/internal/service"
	"monad-bot/internal/store"
)

const testGuild = "guild-1"

var testEpoch = time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)

// fakeContext records replies instead of talking to Discord.
type fakeContext struct {
	command, sub string
	user         string
	perms        int64
	strings      map[string]string
	ints         map[string]int64
	users        map[string]UserRef
	roles        map[string]RoleRef

	mu        sync.Mutex
	replies   []string
	ephemeral []string
	followUps chan string
}

func newContext(command, sub, user string) *fakeContext {
	return &fakeContext{
		command:   command,
		sub:       sub,
		user:      user,
		strings:   map[string]string{},
		ints:      map[string]int64{},
		users:     map[string]UserRef{},
		roles:     map[string]RoleRef{},
		followUps: make(chan string, 4),
	}
}

func (f *fakeContext) Ctx() context.Context { return context.Background() }
func (f *fakeContext) Command() string      { return f.command }
func (f *fakeContext) Subcommand() string   { return f.sub }
func (f *fakeContext) GuildID() string      { return testGuild }
func (f *fakeContext) GuildName() string    { return "Monad Test" }
func (f *fakeContext) ChannelID() string    { return "channel-1" }
func (f *fakeContext) UserID() string       { return f.user }

func (f *fakeContext) HasPermission(perm int64) bool {
	return f.perms&discordgo.PermissionAdministrator != 0 || f.perms&perm == perm
}

func (f *fakeContext) String(name string) (string, bool) {
	v, ok := f.strings[name]
	return v, ok
}

func (f *fakeContext) Int(name string) (int64, bool) {
	v, ok := f.ints[name]
	return v, ok
}

func (f *fakeContext) User(name string) (UserRef, bool) {
	v, ok := f.users[name]
	return v, ok
}

func (f *fakeContext) Role(name string) (RoleRef, bool) {
	v, ok := f.roles[name]
	return v, ok
}

func (f *fakeContext) Reply(text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.replies = append(f.replies, text)
	return nil
}

func (f *fakeContext) ReplyEphemeral(text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ephemeral = append(f.ephemeral, text)
	return nil
}

func (f *fakeContext) FollowUp(text string) error {
	f.followUps <- text
	return nil
}

func (f *fakeContext) lastReply(t *testing.T) string {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	require.NotEmpty(t, f.replies, "no public reply; ephemeral: %v", f.ephemeral)
	return f.replies[len(f.replies)-1]
}

func (f *fakeContext) lastEphemeral(t *testing.T) string {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	require.NotEmpty(t, f.ephemeral, "no ephemeral reply; public: %v", f.replies)
	return f.ephemeral[len(f.ephemeral)-1]
}

func (f *fakeContext) awaitFollowUp(t *testing.T) string {
	t.Helper()
	select {
	case text := <-f.followUps:
		return text
	case <-time.After(2 * time.Second):
		t.Fatal("no follow-up posted")
		return ""
	}
}

// fakeGuild records channel posts and role grants.
type fakeGuild struct {
	mu         sync.Mutex
	posts      []string
	granted    []string
	addRoleErr error
	holders    []string
	info       GuildInfo
	members    map[string]MemberInfo
}

func (g *fakeGuild) Post(_, text string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.posts = append(g.posts, text)
	return nil
}

func (g *fakeGuild) AddRole(_, userID, roleID string) error {
	if g.addRoleErr != nil {
		return g.addRoleErr
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.granted = append(g.granted, userID+"/"+roleID)
	return nil
}

func (g *fakeGuild) RoleHolders(_, _ string) ([]string, error) {
	return g.holders, nil
}

func (g *fakeGuild) Info(guildID string) (GuildInfo, error) {
	if g.info.ID != guildID {
		return GuildInfo{}, errDiscordDown
	}
	return g.info, nil
}

func (g *fakeGuild) Member(_, userID string) (MemberInfo, error) {
	m, ok := g.members[userID]
	if !ok {
		return MemberInfo{}, errDiscordDown
	}
	return m, nil
}

func (g *fakeGuild) allPosts() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]string(nil), g.posts...)
}

var errDiscordDown = errors.New("discord unavailable")

type handlerEnv struct {
	guild    *fakeGuild
	sched    *scheduler.Manual
	ledger   *service.Ledger
	exp      *service.ExperienceTracker
	loadouts *service.LoadoutService
	roles    *service.RoleShop

	account   *AccountHandler
	info      *InfoHandler
	games     *GameHandler
	equipment *EquipmentHandler
	level     *LevelHandler
	rumble    *RumbleHandler
	roleShop  *RoleHandler
}

// newHandlerEnv wires every handler over a memory store. Duels and hunts
// resolve inline; rumbles wait on the manual scheduler.
func newHandlerEnv(src rng.Source) *handlerEnv {
	repos := repository.New(store.NewMemory())
	clk := clock.NewManual(testEpoch)
	locks := lock.New()
	reg := catalog.Default()
	inline := &scheduler.Inline{}

	env := &handlerEnv{guild: &fakeGuild{}, sched: &scheduler.Manual{}}
	env.ledger = service.NewLedger(repos.Balances)
	limiter := service.NewRateLimiter(repos.Counters, service.Limits{
		model.ActivityDice:          10,
		model.ActivityHunt:          10,
		model.ActivityDuelInitiated: 3,
		model.ActivityDuelReceived:  3,
	}, clk.Now)
	env.loadouts = service.NewLoadoutService(repos.Loadouts, env.ledger, reg, locks, src, clk.Now, service.DefaultInventorySize)
	env.exp = service.NewExperienceTracker(repos.Experience, env.loadouts, src, clk.Now, service.DefaultChatExpCap)
	checkIns := service.NewCheckInService(repos.CheckIns, env.ledger, env.loadouts, src, clk.Now, config.EconomyConfig{
		CheckInCooldown: 12 * time.Hour,
		CheckInMin:      80,
		CheckInMax:      120,
	})
	env.roles = service.NewRoleShop(repos.Roles, env.ledger, locks, clk.Now)

	diceGame := dice.New(env.ledger, limiter, locks, src, &dice.Config{MinWager: dice.DefaultMinWager})
	duelGame := duel.New(env.ledger, limiter, env.exp, locks, inline, src, time.Second)
	huntGame := hunt.New(reg, env.ledger, limiter, env.loadouts, env.exp, inline, src, clk.Now, time.Second)
	rumbleGame := rumble.New(repos.Rumble, locks, env.sched, rumble.Fixed(rumble.Events[0]), src, clk.Now, config.RumbleConfig{
		DefaultSignup: 60 * time.Second,
		MinSignup:     10 * time.Second,
		MaxSignup:     300 * time.Second,
		FirstRound:    3 * time.Second,
		RoundInterval: 5 * time.Second,
	})

	games := game.NewRegistry()
	for _, g := range []game.Game{diceGame, duelGame, huntGame, rumbleGame} {
		_ = games.Register(g)
	}

	env.account = NewAccountHandler(env.ledger, checkIns, games)
	env.info = NewInfoHandler(games, env.guild, []CommandSummary{
		{Name: "ping", Description: "Check that the bot is alive"},
		{Name: "dice", Description: "Weighted dice betting"},
		{Name: "checkin", Description: "Claim your periodic $dMON reward"},
	})
	env.games = NewGameHandler(diceGame, duelGame, huntGame, limiter)
	env.equipment = NewEquipmentHandler(env.loadouts, reg)
	env.level = NewLevelHandler(env.exp, env.guild)
	env.rumble = NewRumbleHandler(rumbleGame, env.guild)
	env.roleShop = NewRoleHandler(env.roles, env.guild, func(id string) bool { return id == "dev" })
	return env
}

func (e *handlerEnv) fund(t *testing.T, userID string, amount int64) {
	t.Helper()
	_, err := e.ledger.Adjust(context.Background(), userID, testGuild, amount, model.OutcomeNone)
	require.NoError(t, err)
}

func (e *handlerEnv) balance(t *testing.T, userID string) int64 {
	t.Helper()
	b, err := e.ledger.GetBalance(context.Background(), userID, testGuild)
	require.NoError(t, err)
	return b.Amount
}
