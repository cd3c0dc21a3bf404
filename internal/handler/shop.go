package handler

import (
	"fmt"
	"strings"

	"monad-bot/internal/catalog"
	"monad-bot/internal/model"
	"monad-bot/internal/service"
)

// ShopPageSize caps the items listed by /equipment shop.
const ShopPageSize = 15

var rarityIcons = map[model.Rarity]string{
	model.RarityCommon:    "⚪",
	model.RarityUncommon:  "🟢",
	model.RarityRare:      "🔵",
	model.RarityEpic:      "🟣",
	model.RarityLegendary: "🟠",
}

// EquipmentHandler handles /equipment and /inventory.
type EquipmentHandler struct {
	loadouts *service.LoadoutService
	catalog  *catalog.Registry
}

// NewEquipmentHandler creates a new EquipmentHandler.
func NewEquipmentHandler(loadouts *service.LoadoutService, registry *catalog.Registry) *EquipmentHandler {
	return &EquipmentHandler{loadouts: loadouts, catalog: registry}
}

// HandleEquipment handles /equipment list|equip|unequip|shop|buy.
func (h *EquipmentHandler) HandleEquipment(c Context) error {
	switch c.Subcommand() {
	case "equip":
		return h.equip(c)
	case "unequip":
		return h.unequip(c)
	case "shop":
		return h.shop(c)
	case "buy":
		return h.buy(c)
	default:
		return h.list(c)
	}
}

// HandleInventory handles /inventory view|sell|gift.
func (h *EquipmentHandler) HandleInventory(c Context) error {
	switch c.Subcommand() {
	case "sell":
		return h.sell(c)
	case "gift":
		return h.gift(c)
	default:
		return h.view(c)
	}
}

func (h *EquipmentHandler) list(c Context) error {
	l, err := h.loadouts.Get(c.Ctx(), c.UserID(), c.GuildID())
	if err != nil {
		return c.ReplyEphemeral(Reason(err))
	}

	var sb strings.Builder
	sb.WriteString("🛡️ Equipment\n")
	for _, slot := range model.Slots {
		if item, ok := l.Equipped[slot]; ok {
			fmt.Fprintf(&sb, "• %s: %s\n", slot, itemLine(item))
		} else {
			fmt.Fprintf(&sb, "• %s: empty\n", slot)
		}
	}
	fmt.Fprintf(&sb, "Total: %s", statsLine(l.EquipmentStats()))
	return c.Reply(sb.String())
}

func (h *EquipmentHandler) equip(c Context) error {
	index, ok := position(c, "index")
	if !ok {
		return c.ReplyEphemeral(Reason(model.ErrInvalidIndex))
	}
	res, err := h.loadouts.Equip(c.Ctx(), c.UserID(), c.GuildID(), index)
	if err != nil {
		return c.ReplyEphemeral(Reason(err))
	}
	msg := fmt.Sprintf("✅ Equipped %s", itemLine(res.Equipped))
	if res.Replaced != nil {
		msg += fmt.Sprintf("\n↩️ %s went back to your inventory.", res.Replaced.Name)
	}
	return c.Reply(msg)
}

func (h *EquipmentHandler) unequip(c Context) error {
	slot, _ := c.String("slot")
	item, err := h.loadouts.Unequip(c.Ctx(), c.UserID(), c.GuildID(), model.Slot(slot))
	if err != nil {
		return c.ReplyEphemeral(Reason(err))
	}
	return c.Reply(fmt.Sprintf("✅ Unequipped %s.", item.Name))
}

func (h *EquipmentHandler) shop(c Context) error {
	slot, _ := c.String("slot")
	rarity, _ := c.String("rarity")
	items := h.catalog.ListPurchasable(model.Slot(slot), model.Rarity(rarity))
	if len(items) == 0 {
		return c.ReplyEphemeral("🏪 Nothing for sale matches that filter.")
	}

	var sb strings.Builder
	sb.WriteString("🏪 Equipment Shop\n")
	for i, it := range items {
		if i == ShopPageSize {
			fmt.Fprintf(&sb, "...and %d more. Filter by slot or rarity.", len(items)-ShopPageSize)
			break
		}
		fmt.Fprintf(&sb, "%s **%s** `%s` (%s) %s: %d $dMON\n",
			rarityIcons[it.Rarity], it.Name, it.ID, it.Slot, statsLine(it.Stats), it.Price)
	}
	return c.ReplyEphemeral(sb.String())
}

func (h *EquipmentHandler) buy(c Context) error {
	id, _ := c.String("item")
	p, err := h.loadouts.Buy(c.Ctx(), c.UserID(), c.GuildID(), id)
	if err != nil {
		return c.ReplyEphemeral(Reason(err))
	}
	return c.Reply(fmt.Sprintf("🛒 Bought %s for %d $dMON.\n💰 Balance: %d $dMON",
		itemLine(p.Item), p.Price, p.Balance.Amount))
}

func (h *EquipmentHandler) view(c Context) error {
	l, err := h.loadouts.Get(c.Ctx(), c.UserID(), c.GuildID())
	if err != nil {
		return c.ReplyEphemeral(Reason(err))
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "🎒 Inventory (%d/%d)\n", len(l.Inventory), h.loadouts.Capacity())
	if len(l.Inventory) == 0 {
		sb.WriteString("Empty. Hunt monsters or visit /equipment shop.")
	}
	for i, item := range l.Inventory {
		fmt.Fprintf(&sb, "%d. %s\n", i+1, itemLine(item))
	}
	return c.ReplyEphemeral(sb.String())
}

func (h *EquipmentHandler) sell(c Context) error {
	index, ok := position(c, "index")
	if !ok {
		return c.ReplyEphemeral(Reason(model.ErrInvalidIndex))
	}
	s, err := h.loadouts.Sell(c.Ctx(), c.UserID(), c.GuildID(), index)
	if err != nil {
		return c.ReplyEphemeral(Reason(err))
	}
	return c.Reply(fmt.Sprintf("💰 Sold %s for %d $dMON.\nBalance: %d $dMON", s.Item.Name, s.Price, s.Balance.Amount))
}

func (h *EquipmentHandler) gift(c Context) error {
	to, ok := c.User("user")
	if !ok {
		return c.ReplyEphemeral("❌ Pick someone to gift to.")
	}
	index, ok := position(c, "index")
	if !ok {
		return c.ReplyEphemeral(Reason(model.ErrInvalidIndex))
	}
	item, err := h.loadouts.Gift(c.Ctx(), c.UserID(), to.ID, c.GuildID(), index, to.Bot)
	if err != nil {
		return c.ReplyEphemeral(Reason(err))
	}
	return c.Reply(fmt.Sprintf("🎁 %s gave %s to %s!", Mention(c.UserID()), itemLine(item), Mention(to.ID)))
}

// position reads a 1-based list position and returns the 0-based index.
func position(c Context, name string) (int, bool) {
	n, ok := c.Int(name)
	if !ok || n < 1 {
		return 0, false
	}
	return int(n - 1), true
}

func itemLine(item model.Item) string {
	return fmt.Sprintf("%s **%s** [%s] %s", rarityIcons[item.Rarity], item.Name, item.Rarity, statsLine(item.Stats))
}

func statsLine(s model.Stats) string {
	var parts []string
	for _, f := range []struct {
		name  string
		value int
	}{
		{"ATK", s.Attack},
		{"DEF", s.Defense},
		{"HP", s.HP},
		{"AGI", s.Agility},
		{"ACC", s.Accuracy},
		{"CRIT", s.Critical},
		{"$dMON", s.DmonBonus},
	} {
		if f.value != 0 {
			parts = append(parts, fmt.Sprintf("%s+%d", f.name, f.value))
		}
	}
	if len(parts) == 0 {
		return "(no stats)"
	}
	return "(" + strings.Join(parts, " ") + ")"
}
