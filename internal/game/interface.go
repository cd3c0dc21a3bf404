// Package game holds the games players start from chat: dice betting, duels,
// hunts and rumbles. Each game describes itself through Game so the transport
// can list and explain them without knowing their rules.
package game

import "time"

// Game describes a playable game.
type Game interface {
	// Name returns the display name, e.g. "Dice".
	Name() string

	// Command returns the slash command that starts the game.
	Command() string

	// Description returns the rules in one or two sentences.
	Description() string

	// DailyLimit returns how often a user may play per UTC day; 0 means unlimited.
	DailyLimit() int

	// Delay returns how long after starting the result is announced.
	Delay() time.Duration
}
