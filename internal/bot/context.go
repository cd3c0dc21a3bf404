package bot

import (
	"context"
	"sync"
	"unicode/utf8"

	"github.com/bwmarrin/discordgo"

	"monad-bot/internal/handler"
)

// maxMessageLength is Discord's content limit.
const maxMessageLength = 2000

// interactionContext adapts a slash command interaction to handler.Context.
type interactionContext struct {
	ctx     context.Context
	session *discordgo.Session
	i       *discordgo.InteractionCreate
	data    discordgo.ApplicationCommandInteractionData
	sub     string
	options map[string]*discordgo.ApplicationCommandInteractionDataOption

	mu      sync.Mutex
	replied bool
}

func newInteractionContext(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) *interactionContext {
	data := i.ApplicationCommandData()
	c := &interactionContext{
		ctx:     ctx,
		session: s,
		i:       i,
		data:    data,
		options: make(map[string]*discordgo.ApplicationCommandInteractionDataOption),
	}

	opts := data.Options
	if len(opts) == 1 && opts[0].Type == discordgo.ApplicationCommandOptionSubCommand {
		c.sub = opts[0].Name
		opts = opts[0].Options
	}
	for _, o := range opts {
		c.options[o.Name] = o
	}
	return c
}

func (c *interactionContext) Ctx() context.Context { return c.ctx }
func (c *interactionContext) Command() string      { return c.data.Name }
func (c *interactionContext) Subcommand() string   { return c.sub }
func (c *interactionContext) GuildID() string      { return c.i.GuildID }
func (c *interactionContext) ChannelID() string    { return c.i.ChannelID }

func (c *interactionContext) UserID() string {
	if c.i.Member != nil && c.i.Member.User != nil {
		return c.i.Member.User.ID
	}
	if c.i.User != nil {
		return c.i.User.ID
	}
	return ""
}

func (c *interactionContext) GuildName() string {
	if g, err := c.session.State.Guild(c.i.GuildID); err == nil && g.Name != "" {
		return g.Name
	}
	return c.i.GuildID
}

func (c *interactionContext) HasPermission(perm int64) bool {
	if c.i.Member == nil {
		return false
	}
	return hasPermission(c.i.Member.Permissions, perm)
}

func hasPermission(granted, perm int64) bool {
	return granted&discordgo.PermissionAdministrator != 0 || granted&perm == perm
}

func (c *interactionContext) option(name string, kind discordgo.ApplicationCommandOptionType) (*discordgo.ApplicationCommandInteractionDataOption, bool) {
	o, ok := c.options[name]
	if !ok || o.Type != kind {
		return nil, false
	}
	return o, true
}

func (c *interactionContext) String(name string) (string, bool) {
	o, ok := c.option(name, discordgo.ApplicationCommandOptionString)
	if !ok {
		return "", false
	}
	return o.StringValue(), true
}

func (c *interactionContext) Int(name string) (int64, bool) {
	o, ok := c.option(name, discordgo.ApplicationCommandOptionInteger)
	if !ok {
		return 0, false
	}
	return o.IntValue(), true
}

func (c *interactionContext) User(name string) (handler.UserRef, bool) {
	o, ok := c.option(name, discordgo.ApplicationCommandOptionUser)
	if !ok {
		return handler.UserRef{}, false
	}
	ref := handler.UserRef{ID: o.UserValue(nil).ID}
	if c.data.Resolved != nil {
		if u, ok := c.data.Resolved.Users[ref.ID]; ok {
			ref.Name, ref.Bot = u.Username, u.Bot
		}
	}
	return ref, true
}

func (c *interactionContext) Role(name string) (handler.RoleRef, bool) {
	o, ok := c.option(name, discordgo.ApplicationCommandOptionRole)
	if !ok {
		return handler.RoleRef{}, false
	}
	ref := handler.RoleRef{ID: o.RoleValue(nil, "").ID}
	if c.data.Resolved != nil {
		if r, ok := c.data.Resolved.Roles[ref.ID]; ok {
			ref.Name = r.Name
		}
	}
	return ref, true
}

func (c *interactionContext) Reply(text string) error {
	return c.respond(text, 0)
}

func (c *interactionContext) ReplyEphemeral(text string) error {
	return c.respond(text, discordgo.MessageFlagsEphemeral)
}

// respond answers the interaction; later calls become follow-ups.
func (c *interactionContext) respond(text string, flags discordgo.MessageFlags) error {
	text = truncate(text)
	c.mu.Lock()
	first := !c.replied
	c.replied = true
	c.mu.Unlock()

	if !first {
		_, err := c.session.FollowupMessageCreate(c.i.Interaction, true, &discordgo.WebhookParams{
			Content: text,
			Flags:   flags,
		})
		return err
	}
	return c.session.InteractionRespond(c.i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: text,
			Flags:   flags,
		},
	})
}

func (c *interactionContext) FollowUp(text string) error {
	_, err := c.session.FollowupMessageCreate(c.i.Interaction, true, &discordgo.WebhookParams{
		Content: truncate(text),
	})
	return err
}

func truncate(text string) string {
	if len(text) <= maxMessageLength {
		return text
	}
	cut := maxMessageLength - len("…")
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}
	return text[:cut] + "…"
}
