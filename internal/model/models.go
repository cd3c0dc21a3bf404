// Package model defines the records shared by the economy and battle services.
// Records are stored as JSON documents in the key-value store.
package model

import "time"

// Outcome tags a balance adjustment as a finished game.
type Outcome int

const (
	OutcomeNone Outcome = iota
	OutcomeWin
	OutcomeLoss
)

// Balance is a user's $dMON account inside one server.
type Balance struct {
	UserID     string `json:"userId"`
	ServerID   string `json:"serverId"`
	Amount     int64  `json:"dmon"`
	TotalGames int    `json:"totalGames"`
	Wins       int    `json:"wins"`
	Losses     int    `json:"losses"`
}

// WinRate returns wins/totalGames as a percentage.
func (b Balance) WinRate() float64 {
	if b.TotalGames == 0 {
		return 0
	}
	return float64(b.Wins) / float64(b.TotalGames) * 100
}

// ActivityKind names a daily rate-limited activity.
type ActivityKind string

const (
	ActivityDice          ActivityKind = "dice"
	ActivityHunt          ActivityKind = "hunt"
	ActivityDuelInitiated ActivityKind = "duel_initiated"
	ActivityDuelReceived  ActivityKind = "duel_received"
)

// DailyCounter counts one activity for one user, server and UTC date.
type DailyCounter struct {
	Kind     ActivityKind `json:"kind"`
	UserID   string       `json:"userId"`
	ServerID string       `json:"serverId"`
	Date     string       `json:"date"`
	Count    int          `json:"count"`
}

// Usage is the caller-facing view of a daily counter.
type Usage struct {
	Count     int `json:"count"`
	Remaining int `json:"remaining"`
	Limit     int `json:"limit"`
}

// Slot is an equipment slot.
type Slot string

const (
	SlotWeapon Slot = "weapon"
	SlotShield Slot = "shield"
	SlotHelmet Slot = "helmet"
	SlotArmor  Slot = "armor"
	SlotGloves Slot = "gloves"
	SlotBoots  Slot = "boots"
)

// Slots lists every slot in display order.
var Slots = []Slot{SlotWeapon, SlotShield, SlotHelmet, SlotArmor, SlotGloves, SlotBoots}

// Valid reports whether s is a known slot.
func (s Slot) Valid() bool {
	for _, known := range Slots {
		if s == known {
			return true
		}
	}
	return false
}

// Rarity is an item tier. The zero value is not a valid rarity.
type Rarity string

const (
	RarityCommon    Rarity = "common"
	RarityUncommon  Rarity = "uncommon"
	RarityRare      Rarity = "rare"
	RarityEpic      Rarity = "epic"
	RarityLegendary Rarity = "legendary"
)

var rarityRank = map[Rarity]int{
	RarityCommon:    1,
	RarityUncommon:  2,
	RarityRare:      3,
	RarityEpic:      4,
	RarityLegendary: 5,
}

var rarityMultiplier = map[Rarity]int64{
	RarityCommon:    1,
	RarityUncommon:  2,
	RarityRare:      5,
	RarityEpic:      10,
	RarityLegendary: 20,
}

// Rank orders rarities common(1) < ... < legendary(5); unknown is 0.
func (r Rarity) Rank() int { return rarityRank[r] }

// Multiplier is the sell-price factor for the tier; unknown tiers sell as common.
func (r Rarity) Multiplier() int64 {
	if m, ok := rarityMultiplier[r]; ok {
		return m
	}
	return 1
}

// Valid reports whether r is a known tier.
func (r Rarity) Valid() bool { return r.Rank() > 0 }

// Stats holds every stat an item or character can carry. Absent JSON fields are zero.
type Stats struct {
	Attack    int `json:"attack,omitempty"`
	Defense   int `json:"defense,omitempty"`
	HP        int `json:"hp,omitempty"`
	Agility   int `json:"agility,omitempty"`
	Accuracy  int `json:"accuracy,omitempty"`
	Critical  int `json:"critical,omitempty"`
	DmonBonus int `json:"dmonBonus,omitempty"`
}

// Add returns the field-wise sum.
func (s Stats) Add(o Stats) Stats {
	return Stats{
		Attack:    s.Attack + o.Attack,
		Defense:   s.Defense + o.Defense,
		HP:        s.HP + o.HP,
		Agility:   s.Agility + o.Agility,
		Accuracy:  s.Accuracy + o.Accuracy,
		Critical:  s.Critical + o.Critical,
		DmonBonus: s.DmonBonus + o.DmonBonus,
	}
}

// Base stat sets. Hunts only use attack and defense; level stats use the full set.
var (
	CombatBase    = Stats{Attack: 10, Defense: 5}
	CharacterBase = Stats{Attack: 10, Defense: 5, HP: 1000, Agility: 5, Accuracy: 70, Critical: 5}
)

// CatalogItem is a shop/loot definition.
type CatalogItem struct {
	ID          string `json:"id"`
	Slot        Slot   `json:"type"`
	Name        string `json:"name"`
	Rarity      Rarity `json:"rarity"`
	Stats       Stats  `json:"stats"`
	Price       int64  `json:"price,omitempty"`
	Purchasable bool   `json:"purchasable"`
	Description string `json:"description,omitempty"`
}

// Snapshot copies the definition into an owned item.
func (c CatalogItem) Snapshot(now time.Time) Item {
	return Item{
		ID:          c.ID,
		Slot:        c.Slot,
		Name:        c.Name,
		Rarity:      c.Rarity,
		Stats:       c.Stats,
		Description: c.Description,
		AcquiredAt:  now,
	}
}

// Item is an owned copy of a catalog item. Later catalog edits do not touch it.
type Item struct {
	ID          string    `json:"id"`
	Slot        Slot      `json:"type"`
	Name        string    `json:"name"`
	Rarity      Rarity    `json:"rarity"`
	Stats       Stats     `json:"stats"`
	Description string    `json:"description,omitempty"`
	AcquiredAt  time.Time `json:"acquiredAt"`
}

// Loadout is a user's equipment and inventory inside one server.
type Loadout struct {
	UserID    string        `json:"userId"`
	ServerID  string        `json:"serverId"`
	Equipped  map[Slot]Item `json:"equipped"`
	Inventory []Item        `json:"inventory"`
}

// EquipmentStats sums the stats of every equipped item.
func (l Loadout) EquipmentStats() Stats {
	var total Stats
	for _, slot := range Slots {
		if item, ok := l.Equipped[slot]; ok {
			total = total.Add(item.Stats)
		}
	}
	return total
}

// Monster is a hunt target.
type Monster struct {
	Key           string      `json:"key"`
	Name          string      `json:"name"`
	Level         int         `json:"level"`
	HP            int         `json:"hp"`
	Attack        int         `json:"attack"`
	Defense       int         `json:"defense"`
	Agility       int         `json:"agility"`
	Accuracy      int         `json:"accuracy"`
	Critical      int         `json:"critical"`
	Reward        RewardRange `json:"dmonReward"`
	DropChance    float64     `json:"dropChance"`
	PossibleDrops []string    `json:"possibleDrops"`
}

// RewardRange is an inclusive integer range.
type RewardRange struct {
	Min int64 `json:"min"`
	Max int64 `json:"max"`
}

// Level rules: 10000 cumulative experience per level, capped.
const (
	ExpPerLevel = 10000
	MaxLevel    = 100
)

// LevelFor computes the level reached with exp experience.
func LevelFor(exp int64) int {
	if exp < 0 {
		exp = 0
	}
	level := exp/ExpPerLevel + 1
	if level > MaxLevel {
		return MaxLevel
	}
	return int(level)
}

// Experience is a user's global experience record.
type Experience struct {
	UserID          string `json:"userId"`
	Exp             int64  `json:"exp"`
	Level           int    `json:"level"`
	ChatExpToday    int    `json:"chatExpToday"`
	LastChatExpDate string `json:"lastChatExpDate"`
}

// NextLevelExp is the cumulative experience needed for the next level (0 at max level).
func (e Experience) NextLevelExp() int64 {
	if e.Level >= MaxLevel {
		return 0
	}
	return int64(e.Level) * ExpPerLevel
}

// CheckIn records the last check-in time of a user.
type CheckIn struct {
	UserID string    `json:"userId"`
	LastAt time.Time `json:"lastAt"`
}
