package model

import "time"

// RumbleState is the lifecycle of a battle royale game.
type RumbleState string

const (
	RumbleRecruiting RumbleState = "recruiting"
	RumbleRunning    RumbleState = "running"
	RumbleEnded      RumbleState = "ended"
	RumbleCancelled  RumbleState = "cancelled"
)

// RumblePlayer is a participant. Rank is 0 until the player is eliminated or wins.
type RumblePlayer struct {
	ID       string    `json:"id"`
	JoinTime time.Time `json:"joinTime"`
	Rank     int       `json:"rank"`
}

// RumbleGame is the live game of one server.
type RumbleGame struct {
	ID         string         `json:"id"`
	ServerID   string         `json:"serverId"`
	ChannelID  string         `json:"channelId"`
	HostID     string         `json:"hostId"`
	State      RumbleState    `json:"state"`
	Players    []RumblePlayer `json:"players"`
	Eliminated []RumblePlayer `json:"eliminatedPlayers"`
	Round      int            `json:"round"`
	StartTime  time.Time      `json:"startTime"`
	SignupEnds time.Time      `json:"signupEnds"`
	EndTime    time.Time      `json:"endTime,omitempty"`
}

// HasPlayer reports whether userID already joined.
func (g RumbleGame) HasPlayer(userID string) bool {
	for _, p := range g.Players {
		if p.ID == userID {
			return true
		}
	}
	return false
}

// RumbleStats aggregates a user's battle royale history.
type RumbleStats struct {
	UserID      string `json:"userId"`
	GamesPlayed int    `json:"gamesPlayed"`
	Wins        int    `json:"wins"`
	TopThree    int    `json:"topThree"`
}
