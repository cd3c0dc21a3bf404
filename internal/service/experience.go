package service

import (
	"context"
	"strings"

	"github.com/rs/zerolog/log"

	"monad-bot/internal/model"
	"monad-bot/internal/pkg/clock"
	"monad-bot/internal/pkg/rng"
	"monad-bot/internal/repository"
)

// Experience grant ranges.
const (
	ChatExpMin        = 5
	ChatExpMax        = 10
	DefaultChatExpCap = 1000
	HuntExpMin        = 100
	HuntExpMax        = 1000
	DuelWinnerExpMin  = 100
	DuelWinnerExpMax  = 200
	DuelLoserExpMin   = 10
	DuelLoserExpMax   = 50
)

// Grant reports an experience change.
type Grant struct {
	Amount    int64
	Exp       int64
	Level     int
	LeveledUp bool
}

// ChatGrant reports a chat experience attempt. Granted is false when the daily
// chat cap was already reached.
type ChatGrant struct {
	Grant
	Granted   bool
	ChatToday int
}

// ExperienceTracker keeps global experience and levels.
type ExperienceTracker struct {
	records  *repository.ExperienceRepository
	loadouts *LoadoutService
	rng      rng.Source
	now      clock.Clock
	chatCap  int
}

// NewExperienceTracker creates a new ExperienceTracker.
func NewExperienceTracker(records *repository.ExperienceRepository, loadouts *LoadoutService, src rng.Source, now clock.Clock, chatCap int) *ExperienceTracker {
	if chatCap < 1 {
		chatCap = DefaultChatExpCap
	}
	if now == nil {
		now = clock.System
	}
	return &ExperienceTracker{records: records, loadouts: loadouts, rng: src, now: now, chatCap: chatCap}
}

// ShouldGrantChat filters out bots and command-like messages.
func ShouldGrantChat(content string, fromBot bool) bool {
	if fromBot {
		return false
	}
	return !strings.HasPrefix(content, "/") && !strings.HasPrefix(content, "!")
}

// GrantChatExperience awards a random chat amount, trimmed so the day's chat
// total never exceeds the cap. The counter resets on a new UTC date.
func (t *ExperienceTracker) GrantChatExperience(ctx context.Context, userID string) (ChatGrant, error) {
	today := clock.DateKey(t.now())
	roll := rng.IntRange(t.rng, ChatExpMin, ChatExpMax)

	var res ChatGrant
	_, err := t.records.Update(ctx, userID, func(e *model.Experience) error {
		res = ChatGrant{}
		if e.LastChatExpDate != today {
			e.ChatExpToday = 0
			e.LastChatExpDate = today
		}
		res.ChatToday = e.ChatExpToday
		if e.ChatExpToday >= t.chatCap {
			res.Exp, res.Level = e.Exp, e.Level
			return nil
		}
		amount := min(roll, int64(t.chatCap-e.ChatExpToday))
		e.ChatExpToday += int(amount)
		res.Grant = apply(e, amount)
		res.Granted = true
		res.ChatToday = e.ChatExpToday
		return nil
	})
	if err != nil {
		return ChatGrant{}, wrap("grant chat experience", err)
	}
	if res.LeveledUp {
		log.Info().Str("user", userID).Int("level", res.Level).Msg("User leveled up")
	}
	return res, nil
}

// GrantExperience adds amount unconditionally.
func (t *ExperienceTracker) GrantExperience(ctx context.Context, userID string, amount int64) (Grant, error) {
	var res Grant
	_, err := t.records.Update(ctx, userID, func(e *model.Experience) error {
		res = apply(e, amount)
		return nil
	})
	if err != nil {
		return Grant{}, wrap("grant experience", err)
	}
	log.Debug().Str("user", userID).Int64("amount", amount).Int64("exp", res.Exp).Msg("Experience granted")
	if res.LeveledUp {
		log.Info().Str("user", userID).Int("level", res.Level).Msg("User leveled up")
	}
	return res, nil
}

// GrantRandom draws an amount in [lo, hi] and grants it.
func (t *ExperienceTracker) GrantRandom(ctx context.Context, userID string, lo, hi int64) (Grant, error) {
	return t.GrantExperience(ctx, userID, rng.IntRange(t.rng, lo, hi))
}

// Get returns the experience record.
func (t *ExperienceTracker) Get(ctx context.Context, userID string) (model.Experience, error) {
	e, err := t.records.Get(ctx, userID)
	return e, wrap("get experience", err)
}

// Stats returns the character stats: CharacterBase plus the server loadout.
func (t *ExperienceTracker) Stats(ctx context.Context, userID, serverID string) (model.Stats, error) {
	return t.loadouts.AggregateStats(ctx, userID, serverID, model.CharacterBase)
}

func apply(e *model.Experience, amount int64) Grant {
	before := e.Level
	e.Exp += amount
	if e.Exp < 0 {
		e.Exp = 0
	}
	e.Level = model.LevelFor(e.Exp)
	return Grant{Amount: amount, Exp: e.Exp, Level: e.Level, LeveledUp: e.Level > before}
}
