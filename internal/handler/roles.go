package handler

import (
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog/log"

	"monad-bot/internal/model"
	"monad-bot/internal/service"
)

// RoleHandler handles the role shop, premium role reviews and profiles.
type RoleHandler struct {
	shop        *service.RoleShop
	guild       Guild
	isDeveloper func(userID string) bool
}

// NewRoleHandler creates a new RoleHandler.
func NewRoleHandler(shop *service.RoleShop, guild Guild, isDeveloper func(userID string) bool) *RoleHandler {
	return &RoleHandler{shop: shop, guild: guild, isDeveloper: isDeveloper}
}

// HandleShop handles /shop list|buy|add|edit|remove.
func (h *RoleHandler) HandleShop(c Context) error {
	switch c.Subcommand() {
	case "buy":
		return h.buy(c)
	case "add":
		return h.add(c)
	case "edit":
		return h.edit(c)
	case "remove":
		return h.remove(c)
	default:
		return h.list(c)
	}
}

func (h *RoleHandler) list(c Context) error {
	listings, err := h.shop.List(c.Ctx(), c.GuildID())
	if err != nil {
		return c.ReplyEphemeral(Reason(err))
	}
	if len(listings) == 0 {
		return c.Reply("🏷️ No roles for sale in this server.")
	}

	var sb strings.Builder
	sb.WriteString("🏷️ Role Shop\n")
	for _, l := range listings {
		stock := "unlimited"
		if l.Quantity != model.UnlimitedQuantity {
			stock = fmt.Sprintf("%d left", l.Quantity)
		}
		fmt.Fprintf(&sb, "• %s: %d $dMON (%s)", roleMention(l.RoleID), l.Price, stock)
		if l.Description != "" {
			fmt.Fprintf(&sb, " · %s", l.Description)
		}
		sb.WriteString("\n")
	}
	return c.Reply(sb.String())
}

func (h *RoleHandler) buy(c Context) error {
	role, ok := c.Role("role")
	if !ok {
		return c.ReplyEphemeral("❌ Pick a role to buy.")
	}
	listing, bal, err := h.shop.Buy(c.Ctx(), c.UserID(), c.GuildID(), role.ID)
	if err != nil {
		return c.ReplyEphemeral(Reason(err))
	}

	if err := h.guild.AddRole(c.GuildID(), c.UserID(), role.ID); err != nil {
		log.Error().Err(err).Str("user", c.UserID()).Str("role", role.ID).Msg("Failed to grant purchased role")
		if _, rerr := h.shop.Refund(c.Ctx(), c.UserID(), c.GuildID(), role.ID); rerr != nil {
			log.Error().Err(rerr).Str("user", c.UserID()).Str("role", role.ID).Msg("Failed to refund role purchase")
		}
		return c.ReplyEphemeral("❌ I could not give you that role, so your $dMON was refunded. Ask an admin to check my permissions.")
	}
	return c.Reply(fmt.Sprintf("🏷️ %s bought %s for %d $dMON!\n💰 Balance: %d $dMON",
		Mention(c.UserID()), roleMention(listing.RoleID), listing.Price, bal.Amount))
}

func (h *RoleHandler) add(c Context) error {
	role, ok := c.Role("role")
	if !ok {
		return c.ReplyEphemeral("❌ Pick a role to sell.")
	}
	price, _ := c.Int("price")
	quantity := int64(model.UnlimitedQuantity)
	if q, ok := c.Int("quantity"); ok {
		quantity = q
	}
	desc, _ := c.String("description")

	l, err := h.shop.AddListing(c.Ctx(), model.RoleListing{
		ServerID:    c.GuildID(),
		RoleID:      role.ID,
		Name:        role.Name,
		Price:       price,
		Quantity:    int(quantity),
		Description: desc,
	}, isAdmin(c))
	if err != nil {
		return c.ReplyEphemeral(Reason(err))
	}
	return c.ReplyEphemeral(fmt.Sprintf("✅ %s is for sale at %d $dMON.", roleMention(l.RoleID), l.Price))
}

func (h *RoleHandler) edit(c Context) error {
	role, ok := c.Role("role")
	if !ok {
		return c.ReplyEphemeral("❌ Pick a role to edit.")
	}
	var patch service.ListingPatch
	if v, ok := c.String("name"); ok {
		patch.Name = &v
	}
	if v, ok := c.Int("price"); ok {
		patch.Price = &v
	}
	if v, ok := c.Int("quantity"); ok {
		q := int(v)
		patch.Quantity = &q
	}
	if v, ok := c.String("description"); ok {
		patch.Description = &v
	}

	l, err := h.shop.EditListing(c.Ctx(), c.GuildID(), role.ID, patch, isAdmin(c))
	if err != nil {
		return c.ReplyEphemeral(Reason(err))
	}
	return c.ReplyEphemeral(fmt.Sprintf("✅ Updated %s: %d $dMON, quantity %d.", roleMention(l.RoleID), l.Price, l.Quantity))
}

func (h *RoleHandler) remove(c Context) error {
	role, ok := c.Role("role")
	if !ok {
		return c.ReplyEphemeral("❌ Pick a role to remove.")
	}
	if err := h.shop.RemoveListing(c.Ctx(), c.GuildID(), role.ID, isAdmin(c)); err != nil {
		return c.ReplyEphemeral(Reason(err))
	}
	return c.ReplyEphemeral(fmt.Sprintf("🗑️ %s is no longer for sale.", roleMention(role.ID)))
}

// HandleSubmitRole handles /submit-role role [description].
func (h *RoleHandler) HandleSubmitRole(c Context) error {
	role, ok := c.Role("role")
	if !ok {
		return c.ReplyEphemeral("❌ Pick a role to submit.")
	}
	desc, _ := c.String("description")
	sub, err := h.shop.Submit(c.Ctx(), model.RoleSubmission{
		ServerID:    c.GuildID(),
		ServerName:  c.GuildName(),
		RoleID:      role.ID,
		RoleName:    role.Name,
		Description: desc,
		SubmittedBy: c.UserID(),
	}, c.HasPermission(discordgo.PermissionManageRoles))
	if err != nil {
		return c.ReplyEphemeral(Reason(err))
	}
	return c.ReplyEphemeral(fmt.Sprintf("📨 **%s** was submitted for review.", sub.RoleName))
}

// HandlePendingRoles handles /pending-roles. Developers only.
func (h *RoleHandler) HandlePendingRoles(c Context) error {
	if !h.isDeveloper(c.UserID()) {
		return c.ReplyEphemeral(Reason(model.ErrUnauthorized))
	}
	subs, err := h.shop.Pending(c.Ctx())
	if err != nil {
		return c.ReplyEphemeral(Reason(err))
	}
	if len(subs) == 0 {
		return c.ReplyEphemeral("📭 No pending submissions.")
	}

	var sb strings.Builder
	sb.WriteString("📬 Pending role submissions\n")
	for _, s := range subs {
		fmt.Fprintf(&sb, "• **%s** in %s (server `%s`, role `%s`) by %s <t:%d:R>\n",
			s.RoleName, s.ServerName, s.ServerID, s.RoleID, Mention(s.SubmittedBy), s.SubmittedAt.Unix())
		if s.Description != "" {
			fmt.Fprintf(&sb, "  %s\n", s.Description)
		}
	}
	return c.ReplyEphemeral(sb.String())
}

// HandleReviewRole handles /review-role server role decision [reason].
func (h *RoleHandler) HandleReviewRole(c Context) error {
	serverID, _ := c.String("server")
	roleID, _ := c.String("role")
	decision, _ := c.String("decision")
	reason, _ := c.String("reason")
	approve := decision == "approve"
	isDev := h.isDeveloper(c.UserID())

	var holders []string
	if approve && isDev {
		var err error
		if holders, err = h.guild.RoleHolders(serverID, roleID); err != nil {
			log.Error().Err(err).Str("server", serverID).Str("role", roleID).Msg("Failed to list role holders")
			return c.ReplyEphemeral("❌ Could not read the members of that server.")
		}
	}

	res, err := h.shop.Review(c.Ctx(), serverID, roleID, approve, reason, c.UserID(), isDev, holders)
	if err != nil {
		return c.ReplyEphemeral(Reason(err))
	}
	if !res.Approved {
		msg := fmt.Sprintf("🚫 Rejected **%s** from %s.", res.Submission.RoleName, res.Submission.ServerName)
		if res.Reason != "" {
			msg += " Reason: " + res.Reason
		}
		return c.ReplyEphemeral(msg)
	}
	return c.ReplyEphemeral(fmt.Sprintf("✅ Approved **%s** from %s. Added to %d profile(s).",
		res.Submission.RoleName, res.Submission.ServerName, len(res.Holders)))
}

// HandleProfile handles /profile [user].
func (h *RoleHandler) HandleProfile(c Context) error {
	target := optionalUser(c, "user")
	p, err := h.shop.Profile(c.Ctx(), target.ID)
	if err != nil {
		return c.ReplyEphemeral(Reason(err))
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "👤 Profile of %s\n", Mention(target.ID))
	if len(p.Roles) == 0 {
		sb.WriteString("No premium roles yet.")
	}
	for _, r := range p.Roles {
		fmt.Fprintf(&sb, "⭐ **%s** · %s\n", r.RoleName, r.ServerName)
	}
	return c.Reply(sb.String())
}

func isAdmin(c Context) bool {
	return c.HasPermission(discordgo.PermissionAdministrator)
}
