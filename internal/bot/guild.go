package bot

import (
	"fmt"
	"slices"
	"time"

	"github.com/bwmarrin/discordgo"

	"monad-bot/internal/handler"
)

// memberPageSize is the largest page the members endpoint returns.
const memberPageSize = 1000

// guildAPI implements handler.Guild with a discordgo session.
type guildAPI struct {
	session *discordgo.Session
}

func (g guildAPI) Post(channelID, text string) error {
	if _, err := g.session.ChannelMessageSend(channelID, truncate(text)); err != nil {
		return fmt.Errorf("failed to send message to %s: %w", channelID, err)
	}
	return nil
}

func (g guildAPI) AddRole(guildID, userID, roleID string) error {
	if err := g.session.GuildMemberRoleAdd(guildID, userID, roleID); err != nil {
		return fmt.Errorf("failed to add role %s to %s: %w", roleID, userID, err)
	}
	return nil
}

// RoleHolders pages through the guild members. Needs the guild members intent.
func (g guildAPI) RoleHolders(guildID, roleID string) ([]string, error) {
	var holders []string
	after := ""
	for {
		members, err := g.session.GuildMembers(guildID, after, memberPageSize)
		if err != nil {
			return nil, fmt.Errorf("failed to list members of %s: %w", guildID, err)
		}
		for _, m := range members {
			if m.User != nil && slices.Contains(m.Roles, roleID) {
				holders = append(holders, m.User.ID)
			}
		}
		if len(members) < memberPageSize {
			return holders, nil
		}
		after = members[len(members)-1].User.ID
	}
}

// Info reads the guild from the state cache, falling back to the REST API.
func (g guildAPI) Info(guildID string) (handler.GuildInfo, error) {
	guild, err := g.session.State.Guild(guildID)
	if err != nil {
		if guild, err = g.session.Guild(guildID); err != nil {
			return handler.GuildInfo{}, fmt.Errorf("failed to get guild %s: %w", guildID, err)
		}
	}
	members := guild.MemberCount
	if members == 0 {
		members = guild.ApproximateMemberCount
	}
	return handler.GuildInfo{
		ID:        guild.ID,
		Name:      guild.Name,
		OwnerID:   guild.OwnerID,
		CreatedAt: snowflakeTime(guild.ID),
		Members:   members,
		Channels:  len(guild.Channels),
		Emojis:    len(guild.Emojis),
		BoostTier: int(guild.PremiumTier),
		Boosts:    guild.PremiumSubscriptionCount,
	}, nil
}

// Member reads the member from the state cache, then the REST API. A user
// who is not in the guild is still described from their user record.
func (g guildAPI) Member(guildID, userID string) (handler.MemberInfo, error) {
	m, err := g.session.State.Member(guildID, userID)
	if err != nil {
		m, err = g.session.GuildMember(guildID, userID)
	}
	if err == nil && m.User != nil {
		return memberInfo(m.User, m.JoinedAt, m.Roles), nil
	}

	u, uerr := g.session.User(userID)
	if uerr != nil {
		return handler.MemberInfo{}, fmt.Errorf("failed to get user %s: %w", userID, uerr)
	}
	return memberInfo(u, time.Time{}, nil), nil
}

func memberInfo(u *discordgo.User, joinedAt time.Time, roles []string) handler.MemberInfo {
	return handler.MemberInfo{
		ID:        u.ID,
		Name:      u.Username,
		Bot:       u.Bot,
		CreatedAt: snowflakeTime(u.ID),
		JoinedAt:  joinedAt,
		RoleIDs:   roles,
	}
}

func snowflakeTime(id string) time.Time {
	t, err := discordgo.SnowflakeTimestamp(id)
	if err != nil {
		return time.Time{}
	}
	return t
}
