package handler

import (
	"fmt"
	"strings"

	"monad-bot/internal/service"
)

// LeaderboardSize is the number of balances shown by /leaderboard.
const LeaderboardSize = 10

var medals = []string{"🥇", "🥈", "🥉"}

// RankingHandler handles leaderboard commands.
type RankingHandler struct {
	ledger *service.Ledger
}

// NewRankingHandler creates a new RankingHandler.
func NewRankingHandler(ledger *service.Ledger) *RankingHandler {
	return &RankingHandler{ledger: ledger}
}

// HandleLeaderboard handles /leaderboard.
func (h *RankingHandler) HandleLeaderboard(c Context) error {
	top, err := h.ledger.Leaderboard(c.Ctx(), c.GuildID(), LeaderboardSize)
	if err != nil {
		return c.ReplyEphemeral(Reason(err))
	}

	var sb strings.Builder
	sb.WriteString("🏆 $dMON Leaderboard\n━━━━━━━━━━━━━━━\n")
	if len(top) == 0 {
		sb.WriteString("No balances yet. Try /checkin!")
		return c.Reply(sb.String())
	}
	for i, b := range top {
		fmt.Fprintf(&sb, "%s %s: %d $dMON\n", rankLabel(i), Mention(b.UserID), b.Amount)
	}
	return c.Reply(sb.String())
}

func rankLabel(i int) string {
	if i < len(medals) {
		return medals[i]
	}
	return fmt.Sprintf("%d.", i+1)
}
