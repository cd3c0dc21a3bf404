// Package handler provides the Discord command handlers. Handlers parse the
// interaction options, call the services and games, and render plain text.
package handler

import (
	"context"
	"fmt"
	"time"
)

// UserRef is a user picked in a command option.
type UserRef struct {
	ID   string
	Name string
	Bot  bool
}

// RoleRef is a role picked in a command option.
type RoleRef struct {
	ID   string
	Name string
}

// Context is one slash command invocation. The bot package implements it on top
// of a discordgo interaction; tests use an in-memory fake.
type Context interface {
	Ctx() context.Context
	Command() string
	Subcommand() string
	GuildID() string
	GuildName() string
	ChannelID() string
	UserID() string
	// HasPermission reports whether the invoker holds every bit of perm.
	// Administrators hold all permissions.
	HasPermission(perm int64) bool

	String(name string) (string, bool)
	Int(name string) (int64, bool)
	User(name string) (UserRef, bool)
	Role(name string) (RoleRef, bool)

	Reply(text string) error
	ReplyEphemeral(text string) error
	// FollowUp posts a later message tied to the interaction, e.g. a deferred result.
	FollowUp(text string) error
}

// Guild is the part of the Discord API the handlers call outside an interaction.
type Guild interface {
	Post(channelID, text string) error
	AddRole(guildID, userID, roleID string) error
	RoleHolders(guildID, roleID string) ([]string, error)
	Info(guildID string) (GuildInfo, error)
	// Member looks up a guild member. A user who left the guild still
	// resolves, with a zero JoinedAt.
	Member(guildID, userID string) (MemberInfo, error)
}

// GuildInfo summarises a guild for /server.
type GuildInfo struct {
	ID        string
	Name      string
	OwnerID   string
	CreatedAt time.Time
	Members   int
	Channels  int
	Emojis    int
	BoostTier int
	Boosts    int
}

// MemberInfo summarises a user for /user.
type MemberInfo struct {
	ID        string
	Name      string
	Bot       bool
	CreatedAt time.Time
	JoinedAt  time.Time
	RoleIDs   []string
}

// ChatMessage is a plain guild message considered for chat experience.
type ChatMessage struct {
	GuildID   string
	ChannelID string
	AuthorID  string
	Content   string
	FromBot   bool
}

// Mention formats a user mention.
func Mention(userID string) string {
	return fmt.Sprintf("<@%s>", userID)
}

func roleMention(roleID string) string {
	return fmt.Sprintf("<@&%s>", roleID)
}

// optionalUser returns the picked user or the invoker.
func optionalUser(c Context, name string) UserRef {
	if u, ok := c.User(name); ok {
		return u
	}
	return UserRef{ID: c.UserID()}
}
