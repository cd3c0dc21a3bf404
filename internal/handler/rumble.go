package handler

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog/log"

	"monad-bot/internal/game/rumble"
	"monad-bot/internal/model"
)

// RumbleHandler handles /rumble and announces game progress in the game's channel.
type RumbleHandler struct {
	game  *rumble.Game
	guild Guild
}

// NewRumbleHandler creates a new RumbleHandler and registers it as the game's listener.
func NewRumbleHandler(game *rumble.Game, guild Guild) *RumbleHandler {
	h := &RumbleHandler{game: game, guild: guild}
	game.SetListener(h)
	return h
}

// HandleRumble handles /rumble start|join|stats.
func (h *RumbleHandler) HandleRumble(c Context) error {
	switch c.Subcommand() {
	case "start":
		return h.start(c)
	case "join":
		return h.join(c)
	default:
		return h.stats(c)
	}
}

func (h *RumbleHandler) start(c Context) error {
	seconds, _ := c.Int("signup")
	g, err := h.game.Start(c.Ctx(), c.GuildID(), c.ChannelID(), c.UserID(),
		c.HasPermission(discordgo.PermissionManageServer), time.Duration(seconds)*time.Second)
	if err != nil {
		return c.ReplyEphemeral(Reason(err))
	}
	return c.Reply(fmt.Sprintf(
		"🔥 **Rumble!** %s opened signup. Use `/rumble join` to enter.\nSignup closes <t:%d:R>; at least %d players are needed.",
		Mention(g.HostID), g.SignupEnds.Unix(), rumble.MinPlayers,
	))
}

func (h *RumbleHandler) join(c Context) error {
	g, err := h.game.Join(c.Ctx(), c.GuildID(), c.UserID())
	if err != nil {
		return c.ReplyEphemeral(Reason(err))
	}
	return c.Reply(fmt.Sprintf("✅ %s joined the rumble! (%d players)", Mention(c.UserID()), len(g.Players)))
}

func (h *RumbleHandler) stats(c Context) error {
	target := optionalUser(c, "user")
	s, err := h.game.Stats(c.Ctx(), target.ID)
	if err != nil {
		return c.ReplyEphemeral(Reason(err))
	}
	top, err := h.game.TopPlayers(c.Ctx(), rumble.DefaultTopPlayers)
	if err != nil {
		return c.ReplyEphemeral(Reason(err))
	}

	var sb strings.Builder
	if g, found, err := h.game.Current(c.Ctx(), c.GuildID()); err == nil && found {
		switch g.State {
		case model.RumbleRecruiting:
			fmt.Fprintf(&sb, "📣 Signup open: %d players, closes <t:%d:R>\n\n", len(g.Players), g.SignupEnds.Unix())
		case model.RumbleRunning:
			fmt.Fprintf(&sb, "⚔️ Rumble in progress: round %d, %d still standing\n\n", g.Round, len(g.Players))
		}
	}
	fmt.Fprintf(&sb, "🔥 Rumble stats of %s\nGames: %d | Wins: %d | Top 3: %d\n\n🏆 Top players\n",
		Mention(target.ID), s.GamesPlayed, s.Wins, s.TopThree)
	if len(top) == 0 {
		sb.WriteString("No games played yet.")
	}
	for i, p := range top {
		fmt.Fprintf(&sb, "%s %s: %d wins, %d top 3\n", rankLabel(i), Mention(p.UserID), p.Wins, p.TopThree)
	}
	return c.Reply(sb.String())
}

// SignupClosed announces the start or cancellation of a game.
func (h *RumbleHandler) SignupClosed(g model.RumbleGame, cancelled bool) {
	if cancelled {
		h.post(g, fmt.Sprintf("❌ Rumble cancelled: only %d player(s) joined, %d needed.", len(g.Players), rumble.MinPlayers))
		return
	}
	ids := make([]string, len(g.Players))
	for i, p := range g.Players {
		ids[i] = Mention(p.ID)
	}
	h.post(g, fmt.Sprintf("⚔️ Signup closed! %d fighters enter the arena: %s", len(g.Players), strings.Join(ids, ", ")))
}

// RoundPlayed announces every action of a round.
func (h *RumbleHandler) RoundPlayed(g model.RumbleGame, report rumble.RoundReport) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "🔔 **Round %d**\n", report.Round)
	for _, a := range report.Actions {
		sb.WriteString(a.Render(Mention))
		if a.Eliminated {
			sb.WriteString(" 💀")
		}
		sb.WriteString("\n")
	}
	fmt.Fprintf(&sb, "Survivors: %d", report.Survivors)
	h.post(g, sb.String())
}

// Finished announces the final standings.
func (h *RumbleHandler) Finished(g model.RumbleGame, standings []model.RumblePlayer) {
	var sb strings.Builder
	sb.WriteString("🏁 **The rumble is over!**\n")
	for i, p := range standings {
		if i == 3 {
			break
		}
		fmt.Fprintf(&sb, "%s %s (rank %d)\n", rankLabel(i), Mention(p.ID), p.Rank)
	}
	h.post(g, sb.String())
}

func (h *RumbleHandler) post(g model.RumbleGame, text string) {
	if err := h.guild.Post(g.ChannelID, text); err != nil {
		log.Error().Err(err).Str("server", g.ServerID).Str("game", g.ID).Msg("Failed to post rumble update")
	}
}

// Recover reschedules games interrupted by a restart.
func (h *RumbleHandler) Recover(ctx context.Context) {
	n, err := h.game.Recover(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Failed to recover rumbles")
		return
	}
	if n > 0 {
		log.Info().Int("games", n).Msg("Rumbles recovered")
	}
}
