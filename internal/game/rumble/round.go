package rumble

import (
	"slices"
	"strings"

	"monad-bot/internal/model"
	"monad-bot/internal/pkg/rng"
)

// Action is one player's turn in a round.
type Action struct {
	ActorID    string
	Event      Event
	TargetID   string
	NoOpponent bool
	Eliminated bool
}

// Render formats the action with mention applied to user ids.
func (a Action) Render(mention func(userID string) string) string {
	text := a.Event.Text
	switch {
	case a.NoOpponent:
		text = NoOpponentText
	case a.TargetID != "":
		text = strings.ReplaceAll(text, targetToken, mention(a.TargetID))
	}
	return mention(a.ActorID) + " " + text
}

// RoundReport describes a played round.
type RoundReport struct {
	Round      int
	Actions    []Action
	Eliminated []model.RumblePlayer
	Survivors  int
}

// PlayRound runs one round on g. Each player not knocked out earlier in the
// round draws an event; targeted events pick a random other survivor. An
// eliminated target's rank is the survivor count before it fell.
func PlayRound(g *model.RumbleGame, events EventSource, src rng.Source) RoundReport {
	report := RoundReport{Round: g.Round}
	survivors := slices.Clone(g.Players)
	out := make(map[string]bool)

	for _, p := range g.Players {
		if out[p.ID] {
			continue
		}
		ev := events.Next()
		a := Action{ActorID: p.ID, Event: ev}

		if ev.Targeted() {
			others := make([]int, 0, len(survivors))
			for i, s := range survivors {
				if s.ID != p.ID {
					others = append(others, i)
				}
			}
			if len(others) == 0 {
				a.NoOpponent = true
			} else {
				idx := others[src.Intn(len(others))]
				target := survivors[idx]
				a.TargetID = target.ID
				if ev.Kind == KindElimination {
					target.Rank = len(survivors)
					survivors = slices.Delete(survivors, idx, idx+1)
					out[target.ID] = true
					a.Eliminated = true
					g.Eliminated = append(g.Eliminated, target)
					report.Eliminated = append(report.Eliminated, target)
				}
			}
		}
		report.Actions = append(report.Actions, a)
	}

	g.Players = survivors
	g.Round++
	report.Survivors = len(survivors)
	return report
}

// Standings closes a finished game: the last survivor takes rank 1 and every
// participant is returned by rank.
func Standings(g *model.RumbleGame) []model.RumblePlayer {
	if len(g.Players) == 1 {
		g.Players[0].Rank = 1
	}
	all := append(slices.Clone(g.Players), g.Eliminated...)
	slices.SortStableFunc(all, func(a, b model.RumblePlayer) int { return a.Rank - b.Rank })
	return all
}
