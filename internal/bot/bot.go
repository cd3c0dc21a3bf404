// Package bot connects the handlers to Discord: the gateway session, slash
// command registration, interaction routing and middleware.
package bot

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog/log"

	"monad-bot/internal/catalog"
	"monad-bot/internal/config"
	"monad-bot/internal/game"
	"monad-bot/internal/game/dice"
	"monad-bot/internal/game/duel"
	"monad-bot/internal/game/hunt"
	"monad-bot/internal/game/rumble"
	"monad-bot/internal/handler"
	"monad-bot/internal/service"
)

// commandTimeout bounds the synchronous part of a command.
const commandTimeout = 15 * time.Second

// Bot wraps the discordgo session with application dependencies.
type Bot struct {
	session    *discordgo.Session
	cfg        *config.Config
	deps       *Dependencies
	middleware []Middleware
	routes     map[string]HandlerFunc

	accountHandler   *handler.AccountHandler
	infoHandler      *handler.InfoHandler
	rankingHandler   *handler.RankingHandler
	gameHandler      *handler.GameHandler
	equipmentHandler *handler.EquipmentHandler
	levelHandler     *handler.LevelHandler
	rumbleHandler    *handler.RumbleHandler
	roleHandler      *handler.RoleHandler
}

// Dependencies holds everything the handlers need.
type Dependencies struct {
	Config       *config.Config
	Ledger       *service.Ledger
	Limiter      *service.RateLimiter
	Loadouts     *service.LoadoutService
	Experience   *service.ExperienceTracker
	CheckIns     *service.CheckInService
	RoleShop     *service.RoleShop
	Catalog      *catalog.Registry
	GameRegistry *game.Registry
	Dice         *dice.Game
	Duel         *duel.Game
	Hunt         *hunt.Game
	Rumble       *rumble.Game
	// CommandLimiter throttles commands per user.
	CommandLimiter *UserLimiter
}

// New creates the session and wires the handlers. It does not connect.
func New(deps *Dependencies) (*Bot, error) {
	if deps.Config.Discord.Token == "" {
		return nil, fmt.Errorf("discord token is required")
	}

	session, err := discordgo.New("Bot " + deps.Config.Discord.Token)
	if err != nil {
		return nil, fmt.Errorf("failed to create discord session: %w", err)
	}
	session.Identify.Intents = discordgo.IntentGuilds |
		discordgo.IntentGuildMessages |
		discordgo.IntentGuildMembers |
		discordgo.IntentMessageContent

	b := &Bot{
		session: session,
		cfg:     deps.Config,
		deps:    deps,
		routes:  make(map[string]HandlerFunc),
	}

	guild := guildAPI{session: session}
	b.accountHandler = handler.NewAccountHandler(deps.Ledger, deps.CheckIns, deps.GameRegistry)
	b.infoHandler = handler.NewInfoHandler(deps.GameRegistry, guild,
		Summaries(Commands(deps.Catalog.Monsters(), deps.Dice.MinWager())))
	b.rankingHandler = handler.NewRankingHandler(deps.Ledger)
	b.gameHandler = handler.NewGameHandler(deps.Dice, deps.Duel, deps.Hunt, deps.Limiter)
	b.equipmentHandler = handler.NewEquipmentHandler(deps.Loadouts, deps.Catalog)
	b.levelHandler = handler.NewLevelHandler(deps.Experience, guild)
	b.rumbleHandler = handler.NewRumbleHandler(deps.Rumble, guild)
	b.roleHandler = handler.NewRoleHandler(deps.RoleShop, guild, deps.Config.IsDeveloper)

	b.registerMiddleware()
	b.registerHandlers()

	session.AddHandler(b.onReady)
	session.AddHandler(b.onInteraction)
	session.AddHandler(b.onMessage)

	return b, nil
}

// registerMiddleware sets the middleware every command runs through, outermost first.
func (b *Bot) registerMiddleware() {
	b.middleware = []Middleware{
		RecoveryMiddleware(),
		LoggingMiddleware(),
		GuildOnlyMiddleware(),
		WhitelistMiddleware(b.cfg),
	}
	if b.deps.CommandLimiter != nil {
		b.middleware = append(b.middleware, RateLimitMiddleware(b.deps.CommandLimiter))
	}
}

// handle routes a command through the common middleware plus extra.
func (b *Bot) handle(command string, h HandlerFunc, extra ...Middleware) {
	mw := append(append([]Middleware(nil), b.middleware...), extra...)
	b.routes[command] = chain(h, mw...)
}

// registerHandlers registers every slash command.
func (b *Bot) registerHandlers() {
	// Account
	b.handle("ping", b.accountHandler.HandlePing)
	b.handle("help", b.infoHandler.HandleHelp)
	b.handle("server", b.infoHandler.HandleServer)
	b.handle("user", b.infoHandler.HandleUser)
	b.handle("checkin", b.accountHandler.HandleCheckIn)
	b.handle("dmon", b.accountHandler.HandleBalance)
	b.handle("leaderboard", b.rankingHandler.HandleLeaderboard)

	// Games
	b.handle("dice", b.gameHandler.HandleDice)
	b.handle("duel", b.gameHandler.HandleDuel)
	b.handle("hunt", b.gameHandler.HandleHunt)
	b.handle("rumble", b.rumbleHandler.HandleRumble)

	// Equipment and levels
	b.handle("equipment", b.equipmentHandler.HandleEquipment)
	b.handle("inventory", b.equipmentHandler.HandleInventory)
	b.handle("level", b.levelHandler.HandleLevel)

	// Roles
	b.handle("shop", b.roleHandler.HandleShop)
	b.handle("submit-role", b.roleHandler.HandleSubmitRole, PermissionMiddleware(discordgo.PermissionManageRoles))
	b.handle("review-role", b.roleHandler.HandleReviewRole, DeveloperMiddleware(b.cfg))
	b.handle("pending-roles", b.roleHandler.HandlePendingRoles, DeveloperMiddleware(b.cfg))
	b.handle("profile", b.roleHandler.HandleProfile)

	for _, g := range b.deps.GameRegistry.List() {
		if _, ok := b.routes[g.Command()]; !ok {
			log.Warn().Str("game", g.Name()).Str("command", g.Command()).Msg("Game has no command handler")
		}
	}
}

func (b *Bot) onReady(s *discordgo.Session, r *discordgo.Ready) {
	log.Info().
		Str("user", r.User.Username).
		Int("guilds", len(r.Guilds)).
		Msg("Connected to Discord")
}

func (b *Bot) onInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionApplicationCommand {
		return
	}
	name := i.ApplicationCommandData().Name
	h, ok := b.routes[name]
	if !ok {
		log.Warn().Str("command", name).Msg("Unknown command")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()
	_ = h(newInteractionContext(ctx, s, i))
}

func (b *Bot) onMessage(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || m.GuildID == "" || !b.cfg.IsGuildAllowed(m.GuildID) {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()
	b.levelHandler.HandleMessage(ctx, handler.ChatMessage{
		GuildID:   m.GuildID,
		ChannelID: m.ChannelID,
		AuthorID:  m.Author.ID,
		Content:   m.Content,
		FromBot:   m.Author.Bot,
	})
}

// Start connects to the gateway, registers the slash commands and resumes
// rumbles interrupted by a restart.
func (b *Bot) Start(ctx context.Context) error {
	log.Info().Msg("Starting bot...")
	if err := b.session.Open(); err != nil {
		return fmt.Errorf("failed to open discord session: %w", err)
	}

	appID := b.cfg.Discord.ApplicationID
	if appID == "" {
		appID = b.session.State.User.ID
	}
	cmds := Commands(b.deps.Catalog.Monsters(), b.deps.Dice.MinWager())
	registered, err := b.session.ApplicationCommandBulkOverwrite(appID, b.cfg.Discord.RegisterGuild, cmds)
	if err != nil {
		return fmt.Errorf("failed to register commands: %w", err)
	}
	log.Info().
		Int("commands", len(registered)).
		Str("guild", b.cfg.Discord.RegisterGuild).
		Msg("Slash commands registered")

	b.rumbleHandler.Recover(ctx)
	return nil
}

// Stop closes the gateway connection.
func (b *Bot) Stop() error {
	log.Info().Msg("Stopping bot...")
	return b.session.Close()
}

// Connected reports whether the gateway session is ready.
func (b *Bot) Connected() bool {
	return b.session.DataReady
}

// GuildCount returns the number of guilds the bot is in.
func (b *Bot) GuildCount() int {
	b.session.State.RLock()
	defer b.session.State.RUnlock()
	return len(b.session.State.Guilds)
}
