package handler

import (
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"monad-bot/internal/game"
)

// CommandSummary is a slash command listed by /help.
type CommandSummary struct {
	Name        string
	Description string
}

// InfoHandler handles /help, /server and /user.
type InfoHandler struct {
	games    *game.Registry
	guild    Guild
	commands []CommandSummary
}

// NewInfoHandler creates a new InfoHandler. commands lists every registered
// slash command; game commands are shown from the registry instead.
func NewInfoHandler(games *game.Registry, guild Guild, commands []CommandSummary) *InfoHandler {
	return &InfoHandler{games: games, guild: guild, commands: commands}
}

// HandleHelp handles /help.
func (h *InfoHandler) HandleHelp(c Context) error {
	var sb strings.Builder
	sb.WriteString("📖 MonadBot commands\n━━━━━━━━━━━━━━━\n🎮 Games\n")

	gameCmds := make(map[string]bool)
	for _, g := range h.games.List() {
		gameCmds[g.Command()] = true
		fmt.Fprintf(&sb, "/%s: %s (%s)\n", g.Command(), g.Description(), dailyLimitLabel(g.DailyLimit()))
	}

	var other []string
	for _, cmd := range h.commands {
		if gameCmds[cmd.Name] {
			continue
		}
		other = append(other, fmt.Sprintf("/%s: %s", cmd.Name, cmd.Description))
	}
	if len(other) > 0 {
		sb.WriteString("\n📋 Other\n")
		sb.WriteString(strings.Join(other, "\n"))
	}
	return c.Reply(strings.TrimRight(sb.String(), "\n"))
}

func dailyLimitLabel(limit int) string {
	if limit <= 0 {
		return "no daily limit"
	}
	return fmt.Sprintf("%d per day", limit)
}

// HandleServer handles /server.
func (h *InfoHandler) HandleServer(c Context) error {
	info, err := h.guild.Info(c.GuildID())
	if err != nil {
		log.Warn().Err(err).Str("server", c.GuildID()).Msg("Failed to look up guild")
		return c.ReplyEphemeral("❌ Could not load this server's details right now.")
	}

	boost := "none"
	if info.BoostTier > 0 {
		boost = fmt.Sprintf("tier %d", info.BoostTier)
	}
	return c.Reply(fmt.Sprintf(
		"🏠 %s\n━━━━━━━━━━━━━━━\n"+
			"🆔 ID: %s\n"+
			"📅 Created: %s\n"+
			"👑 Owner: %s\n"+
			"👥 Members: %d\n"+
			"💬 Channels: %d\n"+
			"😀 Emojis: %d\n"+
			"🚀 Boosts: %d (%s)",
		info.Name, info.ID, discordDate(info.CreatedAt), Mention(info.OwnerID),
		info.Members, info.Channels, info.Emojis, info.Boosts, boost,
	))
}

// HandleUser handles /user [user].
func (h *InfoHandler) HandleUser(c Context) error {
	target := optionalUser(c, "user")
	m, err := h.guild.Member(c.GuildID(), target.ID)
	if err != nil {
		log.Warn().Err(err).Str("user", target.ID).Msg("Failed to look up member")
		return c.ReplyEphemeral("❌ Could not load that user's details right now.")
	}

	roles := "none"
	if len(m.RoleIDs) > 0 {
		mentions := make([]string, len(m.RoleIDs))
		for i, id := range m.RoleIDs {
			mentions[i] = roleMention(id)
		}
		roles = strings.Join(mentions, " ")
	}
	joined := "unknown"
	if !m.JoinedAt.IsZero() {
		joined = discordDate(m.JoinedAt)
	}

	name := m.Name
	if m.Bot {
		name += " 🤖"
	}
	return c.Reply(fmt.Sprintf(
		"👤 %s\n━━━━━━━━━━━━━━━\n"+
			"🆔 ID: %s\n"+
			"📅 Account created: %s\n"+
			"📥 Joined server: %s\n"+
			"🎭 Roles: %s",
		name, m.ID, discordDate(m.CreatedAt), joined, roles,
	))
}

// discordDate renders t as a Discord long-date timestamp.
func discordDate(t time.Time) string {
	return fmt.Sprintf("<t:%d:D>", t.Unix())
}
