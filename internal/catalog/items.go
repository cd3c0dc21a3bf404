package catalog

import "monad-bot/internal/model"

// defaultItems is the built-in equipment list. Drop-only gear has no price.
var defaultItems = []model.CatalogItem{
	// Weapons
	{ID: "wooden_sword", Slot: model.SlotWeapon, Name: "Wooden Sword", Rarity: model.RarityCommon,
		Stats: model.Stats{Attack: 3}, Price: 100, Purchasable: true, Description: "A training blade."},
	{ID: "iron_sword", Slot: model.SlotWeapon, Name: "Iron Sword", Rarity: model.RarityUncommon,
		Stats: model.Stats{Attack: 6}, Price: 300, Purchasable: true, Description: "Reliable and sharp."},
	{ID: "steel_blade", Slot: model.SlotWeapon, Name: "Steel Blade", Rarity: model.RarityRare,
		Stats: model.Stats{Attack: 10, Critical: 2}, Price: 800, Purchasable: true},
	{ID: "flame_saber", Slot: model.SlotWeapon, Name: "Flame Saber", Rarity: model.RarityEpic,
		Stats: model.Stats{Attack: 16, Critical: 5}, Price: 2000, Purchasable: true, Description: "Burns on every swing."},
	{ID: "dragon_fang", Slot: model.SlotWeapon, Name: "Dragon Fang", Rarity: model.RarityLegendary,
		Stats: model.Stats{Attack: 25, Critical: 8, DmonBonus: 5}, Description: "Carved from a dragon's tooth."},

	// Shields
	{ID: "wooden_shield", Slot: model.SlotShield, Name: "Wooden Shield", Rarity: model.RarityCommon,
		Stats: model.Stats{Defense: 2}, Price: 80, Purchasable: true},
	{ID: "iron_shield", Slot: model.SlotShield, Name: "Iron Shield", Rarity: model.RarityUncommon,
		Stats: model.Stats{Defense: 4}, Price: 250, Purchasable: true},
	{ID: "tower_shield", Slot: model.SlotShield, Name: "Tower Shield", Rarity: model.RarityRare,
		Stats: model.Stats{Defense: 7, HP: 50}, Price: 700, Purchasable: true},
	{ID: "aegis", Slot: model.SlotShield, Name: "Aegis", Rarity: model.RarityEpic,
		Stats: model.Stats{Defense: 12, HP: 100}, Description: "Said to turn dragonfire."},

	// Helmets
	{ID: "leather_cap", Slot: model.SlotHelmet, Name: "Leather Cap", Rarity: model.RarityCommon,
		Stats: model.Stats{Defense: 1, HP: 10}, Price: 60, Purchasable: true},
	{ID: "iron_helmet", Slot: model.SlotHelmet, Name: "Iron Helmet", Rarity: model.RarityUncommon,
		Stats: model.Stats{Defense: 3, HP: 20}, Price: 220, Purchasable: true},
	{ID: "knight_helm", Slot: model.SlotHelmet, Name: "Knight Helm", Rarity: model.RarityRare,
		Stats: model.Stats{Defense: 5, HP: 40, Accuracy: 3}, Price: 650, Purchasable: true},
	{ID: "troll_skull_helm", Slot: model.SlotHelmet, Name: "Troll Skull Helm", Rarity: model.RarityEpic,
		Stats: model.Stats{Defense: 8, HP: 80}},

	// Armor
	{ID: "cloth_tunic", Slot: model.SlotArmor, Name: "Cloth Tunic", Rarity: model.RarityCommon,
		Stats: model.Stats{Defense: 2, HP: 20}, Price: 90, Purchasable: true},
	{ID: "chainmail", Slot: model.SlotArmor, Name: "Chainmail", Rarity: model.RarityUncommon,
		Stats: model.Stats{Defense: 5, HP: 40}, Price: 350, Purchasable: true},
	{ID: "plate_armor", Slot: model.SlotArmor, Name: "Plate Armor", Rarity: model.RarityRare,
		Stats: model.Stats{Defense: 9, HP: 80}, Price: 900, Purchasable: true},
	{ID: "dragon_scale_armor", Slot: model.SlotArmor, Name: "Dragon Scale Armor", Rarity: model.RarityLegendary,
		Stats: model.Stats{Defense: 18, HP: 200, DmonBonus: 10}},

	// Gloves
	{ID: "leather_gloves", Slot: model.SlotGloves, Name: "Leather Gloves", Rarity: model.RarityCommon,
		Stats: model.Stats{Attack: 1, Accuracy: 2}, Price: 50, Purchasable: true},
	{ID: "iron_gauntlets", Slot: model.SlotGloves, Name: "Iron Gauntlets", Rarity: model.RarityUncommon,
		Stats: model.Stats{Attack: 2, Defense: 1}, Price: 200, Purchasable: true},
	{ID: "bandit_gloves", Slot: model.SlotGloves, Name: "Bandit Gloves", Rarity: model.RarityRare,
		Stats: model.Stats{Attack: 3, Agility: 4, Critical: 3, DmonBonus: 3}},
	{ID: "lucky_gloves", Slot: model.SlotGloves, Name: "Lucky Gloves", Rarity: model.RarityEpic,
		Stats: model.Stats{DmonBonus: 8}, Price: 2500, Purchasable: true, Description: "Coins find their way to you."},

	// Boots
	{ID: "sandals", Slot: model.SlotBoots, Name: "Sandals", Rarity: model.RarityCommon,
		Stats: model.Stats{Agility: 2}, Price: 40, Purchasable: true},
	{ID: "leather_boots", Slot: model.SlotBoots, Name: "Leather Boots", Rarity: model.RarityUncommon,
		Stats: model.Stats{Agility: 4, Defense: 1}, Price: 180, Purchasable: true},
	{ID: "wind_boots", Slot: model.SlotBoots, Name: "Wind Boots", Rarity: model.RarityRare,
		Stats: model.Stats{Agility: 8}, Price: 600, Purchasable: true},
	{ID: "orc_warboots", Slot: model.SlotBoots, Name: "Orc Warboots", Rarity: model.RarityEpic,
		Stats: model.Stats{Attack: 2, Defense: 4, Agility: 6}},
}

// defaultMonsters is the built-in hunt roster.
var defaultMonsters = []model.Monster{
	{Key: "goblin", Name: "Goblin", Level: 1, HP: 30, Attack: 8, Defense: 2, Agility: 3, Accuracy: 60, Critical: 2,
		Reward: model.RewardRange{Min: 10, Max: 30}, DropChance: 0.2,
		PossibleDrops: []string{"wooden_sword", "leather_cap", "sandals"}},
	{Key: "wolf", Name: "Wolf", Level: 2, HP: 50, Attack: 12, Defense: 4, Agility: 8, Accuracy: 65, Critical: 3,
		Reward: model.RewardRange{Min: 20, Max: 50}, DropChance: 0.2,
		PossibleDrops: []string{"leather_gloves", "leather_boots", "cloth_tunic"}},
	{Key: "bandit", Name: "Bandit", Level: 5, HP: 90, Attack: 18, Defense: 8, Agility: 6, Accuracy: 70, Critical: 5,
		Reward: model.RewardRange{Min: 50, Max: 120}, DropChance: 0.25,
		PossibleDrops: []string{"bandit_gloves", "iron_sword", "iron_helmet"}},
	{Key: "orc", Name: "Orc", Level: 10, HP: 160, Attack: 28, Defense: 14, Agility: 4, Accuracy: 70, Critical: 5,
		Reward: model.RewardRange{Min: 100, Max: 250}, DropChance: 0.3,
		PossibleDrops: []string{"orc_warboots", "chainmail", "iron_shield"}},
	{Key: "troll", Name: "Troll", Level: 15, HP: 260, Attack: 38, Defense: 22, Agility: 2, Accuracy: 65, Critical: 5,
		Reward: model.RewardRange{Min: 200, Max: 450}, DropChance: 0.35,
		PossibleDrops: []string{"troll_skull_helm", "plate_armor", "tower_shield"}},
	{Key: "dragon", Name: "Dragon", Level: 30, HP: 600, Attack: 60, Defense: 40, Agility: 10, Accuracy: 80, Critical: 10,
		Reward: model.RewardRange{Min: 500, Max: 1200}, DropChance: 0.5,
		PossibleDrops: []string{"dragon_fang", "dragon_scale_armor", "aegis"}},
}
