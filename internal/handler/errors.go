package handler

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"monad-bot/internal/model"
)

// Reasons shown when an error carries no detail of its own.
var reasons = []struct {
	kind error
	text string
}{
	{model.ErrInvalidIndex, "There is no item at that position."},
	{model.ErrDuplicateGuess, "Each face can only be guessed once."},
	{model.ErrSlotEmpty, "Nothing is equipped in that slot."},
	{model.ErrInventoryFull, "Your inventory is full."},
	{model.ErrNotFound, "Not found."},
	{model.ErrUnauthorized, "You are not allowed to do that."},
	{model.ErrInvalidInput, "Invalid input."},
	{model.ErrGameInProgress, "A rumble is already running in this server."},
	{model.ErrAlreadyJoined, "You already joined this rumble."},
	{model.ErrSoldOut, "That role is sold out."},
	{model.ErrAlreadyOwned, "You already own that role."},
}

// Reason renders err as the short message shown to the user. Unknown and
// storage errors are logged and shown generically.
func Reason(err error) string {
	var funds *model.FundsError
	if errors.As(err, &funds) {
		return fmt.Sprintf("❌ Not enough $dMON: you need %d but have %d.", funds.Required, funds.Available)
	}
	var limit *model.LimitError
	if errors.As(err, &limit) {
		return fmt.Sprintf("⏳ Daily limit reached (%d/%d). Resets in %s.",
			limit.Usage.Count, limit.Usage.Limit, formatDuration(limit.ResetIn))
	}
	var cooldown *model.CooldownError
	if errors.As(err, &cooldown) {
		return fmt.Sprintf("⏳ Come back in %s.", formatDuration(cooldown.Remaining))
	}
	if errors.Is(err, model.ErrInsufficientFunds) {
		return "❌ Not enough $dMON."
	}
	if errors.Is(err, model.ErrDailyLimitReached) {
		return "⏳ Daily limit reached."
	}

	for _, r := range reasons {
		if errors.Is(err, r.kind) {
			if d := detail(err, r.kind); d != "" {
				return "❌ " + capitalize(d) + "."
			}
			return "❌ " + r.text
		}
	}

	log.Error().Err(err).Msg("Command failed")
	return "❌ Something went wrong, please try again later."
}

// detail extracts the text a service appended after the kind, e.g.
// "invalid input: minimum wager is 10" yields "minimum wager is 10".
func detail(err, kind error) string {
	msg := err.Error()
	prefix := kind.Error() + ": "
	i := strings.Index(msg, prefix)
	if i < 0 {
		return ""
	}
	return strings.TrimSuffix(msg[i+len(prefix):], ".")
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// formatDuration renders durations like "3h 5m" or "42s".
func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	if h == 0 {
		return fmt.Sprintf("%dm %ds", m, int(d.Seconds())%60)
	}
	return fmt.Sprintf("%dh %dm", h, m)
}
