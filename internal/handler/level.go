package handler

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"monad-bot/internal/model"
	"monad-bot/internal/service"
)

const progressBarWidth = 10

// LevelHandler handles /level and grants chat experience.
type LevelHandler struct {
	exp   *service.ExperienceTracker
	guild Guild
}

// NewLevelHandler creates a new LevelHandler.
func NewLevelHandler(exp *service.ExperienceTracker, guild Guild) *LevelHandler {
	return &LevelHandler{exp: exp, guild: guild}
}

// HandleLevel handles /level info|stats [user].
func (h *LevelHandler) HandleLevel(c Context) error {
	target := optionalUser(c, "user")
	if c.Subcommand() == "stats" {
		return h.stats(c, target)
	}

	e, err := h.exp.Get(c.Ctx(), target.ID)
	if err != nil {
		return c.ReplyEphemeral(Reason(err))
	}

	msg := fmt.Sprintf("📈 %s is level **%d**\n✨ %d XP", Mention(target.ID), e.Level, e.Exp)
	if next := e.NextLevelExp(); next > 0 {
		floor := int64(e.Level-1) * model.ExpPerLevel
		msg += fmt.Sprintf(" (%d to next level)\n%s", next-e.Exp, progressBar(e.Exp-floor, next-floor))
	} else {
		msg += " (max level)"
	}
	return c.Reply(msg)
}

func (h *LevelHandler) stats(c Context, target UserRef) error {
	s, err := h.exp.Stats(c.Ctx(), target.ID, c.GuildID())
	if err != nil {
		return c.ReplyEphemeral(Reason(err))
	}
	return c.Reply(fmt.Sprintf(
		"📊 Stats of %s\n"+
			"⚔️ Attack: %d\n🛡️ Defense: %d\n❤️ HP: %d\n"+
			"💨 Agility: %d\n🎯 Accuracy: %d\n💥 Critical: %d\n💰 $dMON bonus: %d",
		Mention(target.ID), s.Attack, s.Defense, s.HP, s.Agility, s.Accuracy, s.Critical, s.DmonBonus,
	))
}

// HandleMessage grants chat experience for a guild message and announces level ups.
func (h *LevelHandler) HandleMessage(ctx context.Context, msg ChatMessage) {
	if msg.GuildID == "" || !service.ShouldGrantChat(msg.Content, msg.FromBot) {
		return
	}

	res, err := h.exp.GrantChatExperience(ctx, msg.AuthorID)
	if err != nil {
		log.Error().Err(err).Str("user", msg.AuthorID).Msg("Failed to grant chat experience")
		return
	}
	if !res.LeveledUp {
		return
	}
	text := fmt.Sprintf("🎉 %s reached level **%d**!", Mention(msg.AuthorID), res.Level)
	if err := h.guild.Post(msg.ChannelID, text); err != nil {
		log.Warn().Err(err).Str("channel", msg.ChannelID).Msg("Failed to announce level up")
	}
}

func progressBar(cur, total int64) string {
	if total <= 0 {
		return ""
	}
	filled := int(cur * progressBarWidth / total)
	filled = min(max(filled, 0), progressBarWidth)
	return strings.Repeat("▰", filled) + strings.Repeat("▱", progressBarWidth-filled)
}
