package handler

import (
	"fmt"
	"strings"

	"monad-bot/internal/game"
	"monad-bot/internal/service"
)

// AccountHandler handles balance and check-in commands.
type AccountHandler struct {
	ledger   *service.Ledger
	checkIns *service.CheckInService
	games    *game.Registry
}

// NewAccountHandler creates a new AccountHandler.
func NewAccountHandler(ledger *service.Ledger, checkIns *service.CheckInService, games *game.Registry) *AccountHandler {
	return &AccountHandler{
		ledger:   ledger,
		checkIns: checkIns,
		games:    games,
	}
}

// HandleCheckIn handles /checkin.
func (h *AccountHandler) HandleCheckIn(c Context) error {
	res, err := h.checkIns.CheckIn(c.Ctx(), c.UserID(), c.GuildID())
	if err != nil {
		return c.ReplyEphemeral(Reason(err))
	}

	msg := fmt.Sprintf("✅ Checked in! You received **%d $dMON**", res.Reward)
	if res.Bonus > 0 {
		msg += fmt.Sprintf(" (%d + %d equipment bonus)", res.Base, res.Bonus)
	}
	msg += fmt.Sprintf(".\n💰 Balance: %d $dMON\n⏰ Next check-in <t:%d:R>", res.Balance.Amount, res.NextAt.Unix())
	return c.Reply(msg)
}

// HandleBalance handles /dmon [user].
func (h *AccountHandler) HandleBalance(c Context) error {
	target := optionalUser(c, "user")
	if target.Bot {
		return c.ReplyEphemeral("🤖 Bots do not hold $dMON.")
	}

	b, err := h.ledger.GetBalance(c.Ctx(), target.ID, c.GuildID())
	if err != nil {
		return c.ReplyEphemeral(Reason(err))
	}

	msg := fmt.Sprintf(
		"💰 %s has **%d $dMON**\n"+
			"🎮 Games: %d | Wins: %d | Losses: %d | Win rate: %.1f%%",
		Mention(target.ID), b.Amount, b.TotalGames, b.Wins, b.Losses, b.WinRate(),
	)
	if target.ID == c.UserID() {
		st, err := h.checkIns.Status(c.Ctx(), target.ID)
		if err != nil {
			return c.ReplyEphemeral(Reason(err))
		}
		if st.Available {
			msg += "\n✅ Check-in available, use /checkin"
		} else {
			msg += fmt.Sprintf("\n⏰ Next check-in <t:%d:R>", st.NextAt.Unix())
		}
	}
	return c.Reply(msg)
}

// HandlePing handles /ping.
func (h *AccountHandler) HandlePing(c Context) error {
	var names []string
	for _, g := range h.games.List() {
		names = append(names, "/"+g.Command())
	}
	return c.Reply(fmt.Sprintf("🏓 Pong! Games: %s", strings.Join(names, ", ")))
}
