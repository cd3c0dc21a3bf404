package rumble

import (
	"strings"

	"monad-bot/internal/pkg/rng"
)

// EventKind groups round events.
type EventKind string

const (
	KindElimination EventKind = "elimination"
	KindSurvive     EventKind = "survive"
	KindBuff        EventKind = "buff"
	KindDebuff      EventKind = "debuff"
	KindSpecial     EventKind = "special"
)

// targetToken marks where the target's mention goes in an event text.
const targetToken = "{target}"

// NoOpponentText replaces a targeted event when nobody else is left.
const NoOpponentText = "looks around for an opponent but finds nobody!"

// Event is one flavor line. Only elimination events change the game state.
type Event struct {
	Kind EventKind
	Text string
}

// Targeted reports whether the event names another player.
func (e Event) Targeted() bool {
	return strings.Contains(e.Text, targetToken)
}

// Events is the fixed round event table.
var Events = []Event{
	{KindElimination, "throws {target} out of the ring!"},
	{KindElimination, "lands a heavy punch and knocks {target} down!"},
	{KindElimination, "finishes {target} with a special move!"},
	{KindSurvive, "dodges an attack from {target} and stays safe!"},
	{KindSurvive, "climbs back from the edge of the ring!"},
	{KindBuff, "finds a hidden weapon and feels stronger!"},
	{KindBuff, "drinks an energy drink and speeds up!"},
	{KindDebuff, "trips and loses balance for a moment!"},
	{KindDebuff, "takes a light wound and slows down!"},
	{KindSpecial, "discovers a secret passage and vanishes for a while!"},
	{KindSpecial, "gets cheered on by the crowd and fires up!"},
}

// EventSource picks the event for each player's turn.
type EventSource interface {
	Next() Event
}

// RandomEvents draws uniformly from Events.
type RandomEvents struct {
	Rng rng.Source
}

// Next returns a uniformly chosen event.
func (r RandomEvents) Next() Event {
	return Events[r.Rng.Intn(len(Events))]
}

// Fixed always returns the same event.
type Fixed Event

// Next returns the fixed event.
func (f Fixed) Next() Event { return Event(f) }
