package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"monad-bot/internal/model"
)

func TestDefaultCatalogIsValid(t *testing.T) {
	r := Default()
	for _, m := range r.Monsters() {
		for _, id := range m.PossibleDrops {
			_, _, err := r.FindItem(id)
			assert.NoError(t, err, "monster %s drop %s", m.Key, id)
		}
	}
	assert.Equal(t, "goblin", r.Monsters()[0].Key)
	assert.Equal(t, "dragon", r.Monsters()[len(r.Monsters())-1].Key)
}

func TestFindItem(t *testing.T) {
	r := Default()
	slot, it, err := r.FindItem("iron_sword")
	require.NoError(t, err)
	assert.Equal(t, model.SlotWeapon, slot)
	assert.Equal(t, 6, it.Stats.Attack)

	_, _, err = r.FindItem("excalibur")
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestGetMonsterNotFound(t *testing.T) {
	_, err := Default().GetMonster("kraken")
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestListPurchasableFilters(t *testing.T) {
	r := Default()
	weapons := r.ListPurchasable(model.SlotWeapon, "")
	require.NotEmpty(t, weapons)
	for _, it := range weapons {
		assert.Equal(t, model.SlotWeapon, it.Slot)
		assert.True(t, it.Purchasable)
	}
	assert.Equal(t, "flame_saber", weapons[0].ID)

	rares := r.ListPurchasable("", model.RarityRare)
	for _, it := range rares {
		assert.Equal(t, model.RarityRare, it.Rarity)
	}
	assert.Equal(t, "plate_armor", rares[0].ID)
}

// TestListPurchasableOrderingProperty checks rarity-desc then price-desc ordering
// over randomly generated catalogs.
// **Feature: monad-bot, Property: Shop Ordering**
func TestListPurchasableOrderingProperty(t *testing.T) {
	rarities := []model.Rarity{model.RarityCommon, model.RarityUncommon, model.RarityRare, model.RarityEpic, model.RarityLegendary}
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(0, 30).Draw(t, "n")
		items := make([]model.CatalogItem, n)
		for i := range items {
			items[i] = model.CatalogItem{
				ID:          string(rune('a'+i%26)) + string(rune('A'+i/26)),
				Slot:        model.Slots[rapid.IntRange(0, len(model.Slots)-1).Draw(t, "slot")],
				Rarity:      rarities[rapid.IntRange(0, 4).Draw(t, "rarity")],
				Price:       rapid.Int64Range(1, 5000).Draw(t, "price"),
				Purchasable: rapid.Bool().Draw(t, "purchasable"),
			}
		}
		r, err := New(items, nil)
		if err != nil {
			t.Fatal(err)
		}
		list := r.ListPurchasable("", "")
		for i := 1; i < len(list); i++ {
			a, b := list[i-1], list[i]
			if a.Rarity.Rank() < b.Rarity.Rank() ||
				(a.Rarity == b.Rarity && a.Price < b.Price) {
				t.Fatalf("out of order at %d: %+v then %+v", i, a, b)
			}
		}
	})
}

func TestNewRejectsDuplicateIDs(t *testing.T) {
	items := []model.CatalogItem{
		{ID: "x", Slot: model.SlotWeapon, Rarity: model.RarityCommon},
		{ID: "x", Slot: model.SlotBoots, Rarity: model.RarityCommon},
	}
	_, err := New(items, nil)
	assert.ErrorIs(t, err, model.ErrInvalidInput)
}

func TestLoadOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.json")
	doc := `{"items":[{"id":"stick","type":"weapon","name":"Stick","rarity":"common","stats":{"attack":1},"price":5,"purchasable":true}],
	"monsters":[{"key":"rat","name":"Rat","level":1,"hp":5,"attack":1,"defense":0,"dmonReward":{"min":1,"max":2},"dropChance":1,"possibleDrops":["stick"]}]}`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o600))

	r, err := Load(path)
	require.NoError(t, err)
	_, it, err := r.FindItem("stick")
	require.NoError(t, err)
	assert.Equal(t, 1, it.Stats.Attack)
	assert.Zero(t, it.Stats.Defense)
	m, err := r.GetMonster("rat")
	require.NoError(t, err)
	assert.Equal(t, int64(2), m.Reward.Max)
}
