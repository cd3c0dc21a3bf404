package handler

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"monad-bot/internal/game/dice"
	"monad-bot/internal/game/duel"
	"monad-bot/internal/game/hunt"
	"monad-bot/internal/model"
	"monad-bot/internal/scheduler"
	"monad-bot/internal/service"
)

// followUpGrace is added to a game's delay while waiting for its result.
const followUpGrace = 30 * time.Second

// GameHandler handles /dice, /duel and /hunt.
type GameHandler struct {
	dice    *dice.Game
	duel    *duel.Game
	hunt    *hunt.Game
	limiter *service.RateLimiter
}

// NewGameHandler creates a new GameHandler.
func NewGameHandler(diceGame *dice.Game, duelGame *duel.Game, huntGame *hunt.Game, limiter *service.RateLimiter) *GameHandler {
	return &GameHandler{
		dice:    diceGame,
		duel:    duelGame,
		hunt:    huntGame,
		limiter: limiter,
	}
}

// HandleDice handles /dice bet|info.
func (h *GameHandler) HandleDice(c Context) error {
	if c.Subcommand() == "info" {
		return h.diceInfo(c)
	}

	amount, _ := c.Int("amount")
	bet := dice.Bet{Wager: amount}
	for i := 1; i <= dice.MaxGuesses; i++ {
		face, ok := c.Int(fmt.Sprintf("face%d", i))
		if !ok {
			continue
		}
		weight, ok := c.Int(fmt.Sprintf("weight%d", i))
		if !ok {
			weight = dice.MinWeight
		}
		bet.Guesses = append(bet.Guesses, dice.Guess{Face: int(face), Weight: int(weight)})
	}

	res, err := h.dice.Place(c.Ctx(), c.UserID(), c.GuildID(), bet)
	if err != nil {
		return c.ReplyEphemeral(Reason(err))
	}
	return c.Reply(renderDice(bet, res))
}

func renderDice(bet dice.Bet, res *dice.Result) string {
	var sb strings.Builder
	sb.WriteString("🎲 Dice\n")
	for i, g := range bet.Guesses {
		fmt.Fprintf(&sb, "• Face %d: %d $dMON\n", g.Face, res.Stakes[i])
	}
	fmt.Fprintf(&sb, "Rolled: **%d**\n", res.Face)
	if res.Lucky {
		sb.WriteString("🍀 Lucky moment!\n")
	}
	if res.Won {
		fmt.Fprintf(&sb, "🎉 You won **%d $dMON**!\n", res.Payout)
	} else {
		fmt.Fprintf(&sb, "😢 You lost %d $dMON.\n", res.Staked)
	}
	if res.Leak > 0 {
		fmt.Fprintf(&sb, "(%d $dMON of the wager was left unstaked by rounding)\n", res.Leak)
	}
	fmt.Fprintf(&sb, "💰 Balance: %d $dMON | Games today: %d/%d", res.Balance.Amount, res.Usage.Count, res.Usage.Limit)
	return sb.String()
}

func (h *GameHandler) diceInfo(c Context) error {
	usage, err := h.limiter.Check(c.Ctx(), model.ActivityDice, c.UserID(), c.GuildID())
	if err != nil {
		return c.ReplyEphemeral(Reason(err))
	}
	return c.ReplyEphemeral(fmt.Sprintf(
		"🎲 %s\n"+
			"• Pick up to %d faces and give each a weight from %d to %d.\n"+
			"• The wager is split by weight; a matching face pays %d× its share.\n"+
			"• Minimum wager: %d $dMON\n"+
			"• Games today: %d/%d (resets in %s)",
		h.dice.Description(), dice.MaxGuesses, dice.MinWeight, dice.MaxWeight, dice.PayoutFactor,
		h.dice.MinWager(), usage.Count, usage.Limit, formatDuration(h.limiter.ResetIn()),
	))
}

// HandleDuel handles /duel target.
func (h *GameHandler) HandleDuel(c Context) error {
	target, ok := c.User("target")
	if !ok {
		return c.ReplyEphemeral("❌ Pick someone to duel.")
	}

	ch, err := h.duel.Challenge(c.Ctx(), c.UserID(), target.ID, c.GuildID(), target.Bot)
	if err != nil {
		return c.ReplyEphemeral(Reason(err))
	}

	if err := c.Reply(fmt.Sprintf(
		"⚔️ %s challenges %s to a duel! The result comes <t:%d:R>.\n"+
			"Duels started today: %d/%d",
		Mention(ch.ChallengerID), Mention(ch.TargetID), ch.ResolvesAt.Unix(),
		ch.Initiated.Count, ch.Initiated.Limit,
	)); err != nil {
		return err
	}
	followUp(c, h.duel.Delay(), ch.Result, renderDuel)
	return nil
}

func renderDuel(res *duel.Result) string {
	msg := fmt.Sprintf("⚔️ %s defeated %s!", Mention(res.WinnerID), Mention(res.LoserID))
	if res.Stolen > 0 {
		msg += fmt.Sprintf("\n💸 %s stole **%d $dMON**.", Mention(res.WinnerID), res.Stolen)
	}
	msg += fmt.Sprintf("\n✨ XP: %s +%d, %s +%d",
		Mention(res.WinnerID), res.WinnerExp.Amount, Mention(res.LoserID), res.LoserExp.Amount)
	for _, lv := range []struct {
		id    string
		grant service.Grant
	}{{res.WinnerID, res.WinnerExp}, {res.LoserID, res.LoserExp}} {
		if lv.grant.LeveledUp {
			msg += fmt.Sprintf("\n🎉 %s reached level %d!", Mention(lv.id), lv.grant.Level)
		}
	}
	return msg
}

// HandleHunt handles /hunt monster.
func (h *GameHandler) HandleHunt(c Context) error {
	key, _ := c.String("monster")
	started, err := h.hunt.Start(c.Ctx(), c.UserID(), c.GuildID(), key)
	if err != nil {
		return c.ReplyEphemeral(Reason(err))
	}

	if err := c.Reply(fmt.Sprintf(
		"🗡️ %s sets out to hunt **%s** (Lv.%d)... Result <t:%d:R>.\nHunts today: %d/%d",
		Mention(c.UserID()), started.Monster.Name, started.Monster.Level, started.ResolvesAt.Unix(),
		started.Usage.Count, started.Usage.Limit,
	)); err != nil {
		return err
	}
	followUp(c, h.hunt.Delay(), started.Result, renderHunt)
	return nil
}

func renderHunt(res *hunt.Result) string {
	var sb strings.Builder
	b := res.Battle
	if !b.Victory {
		fmt.Fprintf(&sb, "💀 Defeated by **%s** after %d rounds. (HP %.1f/%.0f, monster HP %.1f)",
			res.Monster.Name, len(b.Rounds), b.UserHP, b.UserMaxHP, b.MonsterHP)
		return sb.String()
	}

	fmt.Fprintf(&sb, "🏆 Defeated **%s** in %d rounds! (HP %.1f/%.0f)\n", res.Monster.Name, len(b.Rounds), b.UserHP, b.UserMaxHP)
	fmt.Fprintf(&sb, "💰 +%d $dMON (balance %d)\n", res.Reward, res.Balance.Amount)
	fmt.Fprintf(&sb, "✨ +%d XP", res.Exp.Amount)
	if res.Exp.LeveledUp {
		fmt.Fprintf(&sb, " 🎉 Level %d!", res.Exp.Level)
	}
	switch {
	case res.Drop != nil:
		fmt.Fprintf(&sb, "\n🎁 Dropped: %s", itemLine(*res.Drop))
	case res.DropLost != "":
		fmt.Fprintf(&sb, "\n🎁 %s dropped, but it was lost. Is your inventory full?", res.DropLost)
	}
	return sb.String()
}

// followUp posts the deferred result once fut resolves.
func followUp[T any](c Context, delay time.Duration, fut *scheduler.Future[T], render func(T) string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), delay+followUpGrace)
		defer cancel()

		res, err := fut.Await(ctx)
		text := ""
		if err != nil {
			text = Reason(err)
		} else {
			text = render(res)
		}
		if err := c.FollowUp(text); err != nil {
			log.Error().Err(err).Str("command", c.Command()).Str("user", c.UserID()).Msg("Failed to post follow-up")
		}
	}()
}
