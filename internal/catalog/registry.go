// Package catalog holds the read-only equipment and monster reference data.
// The built-in catalog can be replaced by a JSON file at startup.
package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/rs/zerolog/log"

	"monad-bot/internal/model"
)

// Registry indexes items by id and monsters by key. It is immutable after construction.
type Registry struct {
	items    map[string]model.CatalogItem
	order    []string
	monsters map[string]model.Monster
}

// file is the on-disk override format.
type file struct {
	Items    []model.CatalogItem `json:"items"`
	Monsters []model.Monster     `json:"monsters"`
}

// Default returns the built-in catalog.
func Default() *Registry {
	r, err := New(defaultItems, defaultMonsters)
	if err != nil {
		panic(fmt.Sprintf("built-in catalog is invalid: %v", err))
	}
	return r
}

// Load reads a catalog override file. An empty path returns the built-in catalog.
func Load(path string) (*Registry, error) {
	if path == "" {
		return Default(), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}
	var f file
	if err := json.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("failed to decode catalog: %w", err)
	}
	r, err := New(f.Items, f.Monsters)
	if err != nil {
		return nil, err
	}
	log.Info().Str("path", path).Int("items", len(f.Items)).Int("monsters", len(f.Monsters)).Msg("Catalog loaded")
	return r, nil
}

// New validates and indexes the given definitions. Item ids must be unique
// across all slots.
func New(items []model.CatalogItem, monsters []model.Monster) (*Registry, error) {
	r := &Registry{
		items:    make(map[string]model.CatalogItem, len(items)),
		monsters: make(map[string]model.Monster, len(monsters)),
	}
	for _, it := range items {
		if it.ID == "" {
			return nil, fmt.Errorf("%w: item without id", model.ErrInvalidInput)
		}
		if _, dup := r.items[it.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate item id %q", model.ErrInvalidInput, it.ID)
		}
		if !it.Slot.Valid() {
			return nil, fmt.Errorf("%w: item %q has unknown slot %q", model.ErrInvalidInput, it.ID, it.Slot)
		}
		if !it.Rarity.Valid() {
			return nil, fmt.Errorf("%w: item %q has unknown rarity %q", model.ErrInvalidInput, it.ID, it.Rarity)
		}
		if it.Purchasable && it.Price <= 0 {
			return nil, fmt.Errorf("%w: purchasable item %q needs a price", model.ErrInvalidInput, it.ID)
		}
		r.items[it.ID] = it
		r.order = append(r.order, it.ID)
	}
	for _, m := range monsters {
		if m.Key == "" {
			return nil, fmt.Errorf("%w: monster without key", model.ErrInvalidInput)
		}
		if m.Reward.Min > m.Reward.Max || m.DropChance < 0 || m.DropChance > 1 {
			return nil, fmt.Errorf("%w: monster %q has invalid reward or drop chance", model.ErrInvalidInput, m.Key)
		}
		for _, id := range m.PossibleDrops {
			if _, ok := r.items[id]; !ok {
				// Hunts treat an unknown drop as no item.
				log.Warn().Str("monster", m.Key).Str("item", id).Msg("Monster drop references unknown item")
			}
		}
		r.monsters[m.Key] = m
	}
	return r, nil
}

// FindItem returns the item and its slot.
func (r *Registry) FindItem(id string) (model.Slot, model.CatalogItem, error) {
	it, ok := r.items[id]
	if !ok {
		return "", model.CatalogItem{}, fmt.Errorf("%w: item %q", model.ErrNotFound, id)
	}
	return it.Slot, it, nil
}

// ListPurchasable returns purchasable items, optionally filtered by slot and
// rarity (empty means any), sorted by rarity then price, both descending.
func (r *Registry) ListPurchasable(slot model.Slot, rarity model.Rarity) []model.CatalogItem {
	var out []model.CatalogItem
	for _, id := range r.order {
		it := r.items[id]
		if !it.Purchasable {
			continue
		}
		if slot != "" && it.Slot != slot {
			continue
		}
		if rarity != "" && it.Rarity != rarity {
			continue
		}
		out = append(out, it)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if ri, rj := out[i].Rarity.Rank(), out[j].Rarity.Rank(); ri != rj {
			return ri > rj
		}
		return out[i].Price > out[j].Price
	})
	return out
}

// GetMonster returns a monster by key.
func (r *Registry) GetMonster(key string) (model.Monster, error) {
	m, ok := r.monsters[key]
	if !ok {
		return model.Monster{}, fmt.Errorf("%w: monster %q", model.ErrNotFound, key)
	}
	return m, nil
}

// Monsters returns every monster ordered by level.
func (r *Registry) Monsters() []model.Monster {
	out := make([]model.Monster, 0, len(r.monsters))
	for _, m := range r.monsters {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Level != out[j].Level {
			return out[i].Level < out[j].Level
		}
		return out[i].Key < out[j].Key
	})
	return out
}
