package bot

import (
	"fmt"

	"github.com/bwmarrin/discordgo"

	"monad-bot/internal/game/dice"
	"monad-bot/internal/handler"
	"monad-bot/internal/model"
)

// maxChoices is Discord's limit of choices per option.
const maxChoices = 25

func subcommand(name, desc string, opts ...*discordgo.ApplicationCommandOption) *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionSubCommand,
		Name:        name,
		Description: desc,
		Options:     opts,
	}
}

func userOption(name, desc string, required bool) *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionUser,
		Name:        name,
		Description: desc,
		Required:    required,
	}
}

func roleOption(name, desc string) *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionRole,
		Name:        name,
		Description: desc,
		Required:    true,
	}
}

func stringOption(name, desc string, required bool, choices ...*discordgo.ApplicationCommandOptionChoice) *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionString,
		Name:        name,
		Description: desc,
		Required:    required,
		Choices:     choices,
	}
}

func intOption(name, desc string, required bool, lo, hi float64) *discordgo.ApplicationCommandOption {
	o := &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionInteger,
		Name:        name,
		Description: desc,
		Required:    required,
		MinValue:    &lo,
	}
	if hi > 0 {
		o.MaxValue = hi
	}
	return o
}

func choice(name, value string) *discordgo.ApplicationCommandOptionChoice {
	return &discordgo.ApplicationCommandOptionChoice{Name: name, Value: value}
}

func slotChoices() []*discordgo.ApplicationCommandOptionChoice {
	out := make([]*discordgo.ApplicationCommandOptionChoice, len(model.Slots))
	for i, s := range model.Slots {
		out[i] = choice(string(s), string(s))
	}
	return out
}

func rarityChoices() []*discordgo.ApplicationCommandOptionChoice {
	var out []*discordgo.ApplicationCommandOptionChoice
	for _, r := range []model.Rarity{model.RarityCommon, model.RarityUncommon, model.RarityRare, model.RarityEpic, model.RarityLegendary} {
		out = append(out, choice(string(r), string(r)))
	}
	return out
}

func monsterChoices(monsters []model.Monster) []*discordgo.ApplicationCommandOptionChoice {
	var out []*discordgo.ApplicationCommandOptionChoice
	for _, m := range monsters {
		if len(out) == maxChoices {
			break
		}
		out = append(out, choice(fmt.Sprintf("%s (Lv.%d)", m.Name, m.Level), m.Key))
	}
	return out
}

func diceBetOptions(minWager int64) []*discordgo.ApplicationCommandOption {
	opts := []*discordgo.ApplicationCommandOption{
		intOption("amount", "Total $dMON to wager", true, float64(minWager), 0),
	}
	for i := 1; i <= dice.MaxGuesses; i++ {
		opts = append(opts,
			intOption(fmt.Sprintf("face%d", i), "Face to guess", i == 1, 1, dice.Faces),
			intOption(fmt.Sprintf("weight%d", i), "Share of the wager for this face", false, dice.MinWeight, dice.MaxWeight),
		)
	}
	return opts
}

// Commands builds the slash command definitions.
func Commands(monsters []model.Monster, minWager int64) []*discordgo.ApplicationCommand {
	manageRoles := int64(discordgo.PermissionManageRoles)

	return []*discordgo.ApplicationCommand{
		{Name: "ping", Description: "Check that the bot is alive"},
		{Name: "help", Description: "List the available commands"},
		{Name: "server", Description: "Show information about this server"},
		{
			Name:        "user",
			Description: "Show information about a user",
			Options:     []*discordgo.ApplicationCommandOption{userOption("user", "Who to look up", false)},
		},
		{Name: "checkin", Description: "Claim your periodic $dMON reward"},
		{
			Name:        "dmon",
			Description: "Show a $dMON balance",
			Options:     []*discordgo.ApplicationCommandOption{userOption("user", "Whose balance", false)},
		},
		{Name: "leaderboard", Description: "Top $dMON holders of this server"},
		{
			Name:        "dice",
			Description: "Weighted dice betting",
			Options: []*discordgo.ApplicationCommandOption{
				subcommand("bet", "Bet on up to three faces", diceBetOptions(minWager)...),
				subcommand("info", "Rules and today's usage"),
			},
		},
		{
			Name:        "duel",
			Description: "Challenge another member",
			Options:     []*discordgo.ApplicationCommandOption{userOption("target", "Who to duel", true)},
		},
		{
			Name:        "hunt",
			Description: "Hunt a monster with your equipment",
			Options: []*discordgo.ApplicationCommandOption{
				stringOption("monster", "Monster to hunt", true, monsterChoices(monsters)...),
			},
		},
		{
			Name:        "equipment",
			Description: "Manage your equipment",
			Options: []*discordgo.ApplicationCommandOption{
				subcommand("list", "Show equipped items"),
				subcommand("equip", "Equip an inventory item", intOption("index", "Inventory position", true, 1, 0)),
				subcommand("unequip", "Unequip a slot", stringOption("slot", "Slot to empty", true, slotChoices()...)),
				subcommand("shop", "Browse equipment for sale",
					stringOption("slot", "Filter by slot", false, slotChoices()...),
					stringOption("rarity", "Filter by rarity", false, rarityChoices()...),
				),
				subcommand("buy", "Buy equipment", stringOption("item", "Item id from the shop", true)),
			},
		},
		{
			Name:        "inventory",
			Description: "Manage your inventory",
			Options: []*discordgo.ApplicationCommandOption{
				subcommand("view", "Show your inventory"),
				subcommand("sell", "Sell an item", intOption("index", "Inventory position", true, 1, 0)),
				subcommand("gift", "Give an item to someone",
					userOption("user", "Recipient", true),
					intOption("index", "Inventory position", true, 1, 0),
				),
			},
		},
		{
			Name:        "level",
			Description: "Experience and character stats",
			Options: []*discordgo.ApplicationCommandOption{
				subcommand("info", "Show level and experience", userOption("user", "Whose level", false)),
				subcommand("stats", "Show character stats", userOption("user", "Whose stats", false)),
			},
		},
		{
			Name:        "rumble",
			Description: "Server battle royale",
			Options: []*discordgo.ApplicationCommandOption{
				subcommand("start", "Open signup (Manage Server)", intOption("signup", "Signup window in seconds", false, 1, 0)),
				subcommand("join", "Join the open rumble"),
				subcommand("stats", "Rumble stats and top players", userOption("user", "Whose stats", false)),
			},
		},
		{
			Name:        "shop",
			Description: "Server role shop",
			Options: []*discordgo.ApplicationCommandOption{
				subcommand("list", "Roles for sale"),
				subcommand("buy", "Buy a role", roleOption("role", "Role to buy")),
				subcommand("add", "Sell a role (admin)",
					roleOption("role", "Role to sell"),
					intOption("price", "Price in $dMON", true, 0, 0),
					intOption("quantity", "Copies for sale, -1 for unlimited", false, -1, 0),
					stringOption("description", "Shown in the shop", false),
				),
				subcommand("edit", "Edit a listing (admin)",
					roleOption("role", "Listed role"),
					stringOption("name", "Display name", false),
					intOption("price", "Price in $dMON", false, 0, 0),
					intOption("quantity", "Copies for sale, -1 for unlimited", false, -1, 0),
					stringOption("description", "Shown in the shop", false),
				),
				subcommand("remove", "Stop selling a role (admin)", roleOption("role", "Listed role")),
			},
		},
		{
			Name:                     "submit-role",
			Description:              "Submit a premium role for review",
			DefaultMemberPermissions: &manageRoles,
			Options: []*discordgo.ApplicationCommandOption{
				roleOption("role", "Role to submit"),
				stringOption("description", "What the role means", false),
			},
		},
		{
			Name:        "review-role",
			Description: "Approve or reject a submitted role (developers)",
			Options: []*discordgo.ApplicationCommandOption{
				stringOption("server", "Server id", true),
				stringOption("role", "Role id", true),
				stringOption("decision", "Approve or reject", true, choice("approve", "approve"), choice("reject", "reject")),
				stringOption("reason", "Reason shown on rejection", false),
			},
		},
		{Name: "pending-roles", Description: "List role submissions awaiting review (developers)"},
		{
			Name:        "profile",
			Description: "Show approved premium roles",
			Options:     []*discordgo.ApplicationCommandOption{userOption("user", "Whose profile", false)},
		},
	}
}

// Summaries lists the command names and descriptions shown by /help.
func Summaries(cmds []*discordgo.ApplicationCommand) []handler.CommandSummary {
	out := make([]handler.CommandSummary, len(cmds))
	for i, c := range cmds {
		out[i] = handler.CommandSummary{Name: c.Name, Description: c.Description}
	}
	return out
}
