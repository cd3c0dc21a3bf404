package service

import (
	"context"
	"fmt"
	"slices"

	"github.com/rs/zerolog/log"

	"monad-bot/internal/catalog"
	"monad-bot/internal/model"
	"monad-bot/internal/pkg/clock"
	"monad-bot/internal/pkg/lock"
	"monad-bot/internal/pkg/rng"
	"monad-bot/internal/repository"
)

// DefaultInventorySize is the number of unequipped items a loadout can hold.
const DefaultInventorySize = 12

// Sell price is randInt[SellMin, SellMax] times the rarity multiplier.
const (
	SellMin = 10
	SellMax = 100
)

// EquipResult reports an equip; Replaced is the item pushed back to the inventory.
type EquipResult struct {
	Equipped model.Item
	Replaced *model.Item
}

// Purchase reports a shop purchase.
type Purchase struct {
	Item    model.Item
	Price   int64
	Balance model.Balance
}

// Sale reports a sold item.
type Sale struct {
	Item    model.Item
	Price   int64
	Balance model.Balance
}

// LoadoutService manages equipment and inventories per (user, server).
// Every mutation holds the loadout's keyed lock so multi-record operations
// (buy, gift) observe a stable inventory.
type LoadoutService struct {
	loadouts *repository.LoadoutRepository
	ledger   *Ledger
	catalog  *catalog.Registry
	locks    *lock.KeyLock
	rng      rng.Source
	now      clock.Clock
	capacity int
}

// NewLoadoutService creates a new LoadoutService. A capacity below one uses DefaultInventorySize.
func NewLoadoutService(
	loadouts *repository.LoadoutRepository,
	ledger *Ledger,
	registry *catalog.Registry,
	locks *lock.KeyLock,
	src rng.Source,
	now clock.Clock,
	capacity int,
) *LoadoutService {
	if capacity < 1 {
		capacity = DefaultInventorySize
	}
	if now == nil {
		now = clock.System
	}
	return &LoadoutService{
		loadouts: loadouts,
		ledger:   ledger,
		catalog:  registry,
		locks:    locks,
		rng:      src,
		now:      now,
		capacity: capacity,
	}
}

// Capacity returns the inventory size limit.
func (s *LoadoutService) Capacity() int { return s.capacity }

func loadoutLock(userID, serverID string) string {
	return "loadout:" + serverID + ":" + userID
}

// Get returns the loadout, empty when the user has none.
func (s *LoadoutService) Get(ctx context.Context, userID, serverID string) (model.Loadout, error) {
	l, err := s.loadouts.Get(ctx, userID, serverID)
	return l, wrap("get loadout", err)
}

// Equip moves inventory[index] into its slot. A previously equipped item goes
// back to the end of the inventory, so the inventory size never grows.
func (s *LoadoutService) Equip(ctx context.Context, userID, serverID string, index int) (EquipResult, error) {
	unlock := s.locks.LockAll(loadoutLock(userID, serverID))
	defer unlock()

	var res EquipResult
	_, err := s.loadouts.Update(ctx, userID, serverID, func(l *model.Loadout) error {
		res = EquipResult{}
		if index < 0 || index >= len(l.Inventory) {
			return model.ErrInvalidIndex
		}
		item := l.Inventory[index]
		if !item.Slot.Valid() {
			return fmt.Errorf("%w: item %s has unknown slot %q", model.ErrInvalidInput, item.ID, item.Slot)
		}
		l.Inventory = slices.Delete(l.Inventory, index, index+1)
		if prev, ok := l.Equipped[item.Slot]; ok {
			l.Inventory = append(l.Inventory, prev)
			res.Replaced = &prev
		}
		l.Equipped[item.Slot] = item
		res.Equipped = item
		return nil
	})
	if err != nil {
		return EquipResult{}, wrap("equip item", err)
	}

	log.Info().Str("user", userID).Str("server", serverID).Str("item", res.Equipped.ID).Msg("Item equipped")
	return res, nil
}

// Unequip moves the slot's item back to the inventory.
func (s *LoadoutService) Unequip(ctx context.Context, userID, serverID string, slot model.Slot) (model.Item, error) {
	if !slot.Valid() {
		return model.Item{}, fmt.Errorf("%w: unknown slot %q", model.ErrInvalidInput, slot)
	}
	unlock := s.locks.LockAll(loadoutLock(userID, serverID))
	defer unlock()

	var item model.Item
	_, err := s.loadouts.Update(ctx, userID, serverID, func(l *model.Loadout) error {
		cur, ok := l.Equipped[slot]
		if !ok {
			return model.ErrSlotEmpty
		}
		if len(l.Inventory) >= s.capacity {
			return model.ErrInventoryFull
		}
		delete(l.Equipped, slot)
		l.Inventory = append(l.Inventory, cur)
		item = cur
		return nil
	})
	if err != nil {
		return model.Item{}, wrap("unequip item", err)
	}
	return item, nil
}

// AddToInventory appends item, failing with ErrInventoryFull at capacity.
func (s *LoadoutService) AddToInventory(ctx context.Context, userID, serverID string, item model.Item) error {
	unlock := s.locks.LockAll(loadoutLock(userID, serverID))
	defer unlock()
	return s.insert(ctx, userID, serverID, item, -1)
}

// RemoveFromInventory takes inventory[index] out and returns it.
func (s *LoadoutService) RemoveFromInventory(ctx context.Context, userID, serverID string, index int) (model.Item, error) {
	unlock := s.locks.LockAll(loadoutLock(userID, serverID))
	defer unlock()
	return s.remove(ctx, userID, serverID, index)
}

// AggregateStats adds the equipped item stats to base.
func (s *LoadoutService) AggregateStats(ctx context.Context, userID, serverID string, base model.Stats) (model.Stats, error) {
	l, err := s.loadouts.Get(ctx, userID, serverID)
	if err != nil {
		return model.Stats{}, wrap("get loadout", err)
	}
	return base.Add(l.EquipmentStats()), nil
}

// Buy charges the catalog price and adds a snapshot of the item. Room is
// checked before charging; a failed add refunds the charge.
func (s *LoadoutService) Buy(ctx context.Context, userID, serverID, itemID string) (Purchase, error) {
	_, def, err := s.catalog.FindItem(itemID)
	if err != nil || !def.Purchasable {
		return Purchase{}, fmt.Errorf("%w: item %q is not for sale", model.ErrNotFound, itemID)
	}

	unlock := s.locks.LockAll(loadoutLock(userID, serverID), BalanceLock(userID, serverID))
	defer unlock()

	l, err := s.loadouts.Get(ctx, userID, serverID)
	if err != nil {
		return Purchase{}, wrap("get loadout", err)
	}
	if len(l.Inventory) >= s.capacity {
		return Purchase{}, model.ErrInventoryFull
	}

	bal, err := s.ledger.Debit(ctx, userID, serverID, def.Price)
	if err != nil {
		return Purchase{}, err
	}

	item := def.Snapshot(s.now())
	if err := s.insert(ctx, userID, serverID, item, -1); err != nil {
		if _, rerr := s.ledger.Adjust(ctx, userID, serverID, def.Price, model.OutcomeNone); rerr != nil {
			log.Error().Err(rerr).Str("user", userID).Int64("price", def.Price).Msg("Failed to refund purchase")
		}
		return Purchase{}, err
	}

	log.Info().
		Str("user", userID).
		Str("server", serverID).
		Str("item", item.ID).
		Int64("price", def.Price).
		Msg("Item purchased")
	return Purchase{Item: item, Price: def.Price, Balance: bal}, nil
}

// Sell removes inventory[index] and credits a freshly rolled price.
func (s *LoadoutService) Sell(ctx context.Context, userID, serverID string, index int) (Sale, error) {
	unlock := s.locks.LockAll(loadoutLock(userID, serverID))
	defer unlock()

	item, err := s.remove(ctx, userID, serverID, index)
	if err != nil {
		return Sale{}, err
	}
	price := SellPrice(s.rng, item.Rarity)
	bal, err := s.ledger.Adjust(ctx, userID, serverID, price, model.OutcomeNone)
	if err != nil {
		if rerr := s.insert(ctx, userID, serverID, item, index); rerr != nil {
			log.Error().Err(rerr).Str("user", userID).Str("item", item.ID).Msg("Failed to restore unsold item")
		}
		return Sale{}, err
	}

	log.Info().Str("user", userID).Str("item", item.ID).Int64("price", price).Msg("Item sold")
	return Sale{Item: item, Price: price, Balance: bal}, nil
}

// SellPrice rolls a sale price for a rarity.
func SellPrice(src rng.Source, rarity model.Rarity) int64 {
	return rng.IntRange(src, SellMin, SellMax) * rarity.Multiplier()
}

// Gift moves inventory[index] from one user to another inside a server. If the
// receiver cannot take it, the item returns to its original position.
func (s *LoadoutService) Gift(ctx context.Context, fromID, toID, serverID string, index int, toIsBot bool) (model.Item, error) {
	if fromID == toID || toIsBot {
		return model.Item{}, fmt.Errorf("%w: cannot gift to yourself or a bot", model.ErrUnauthorized)
	}

	unlock := s.locks.LockAll(loadoutLock(fromID, serverID), loadoutLock(toID, serverID))
	defer unlock()

	item, err := s.remove(ctx, fromID, serverID, index)
	if err != nil {
		return model.Item{}, err
	}
	if err := s.insert(ctx, toID, serverID, item, -1); err != nil {
		if rerr := s.insert(ctx, fromID, serverID, item, index); rerr != nil {
			log.Error().Err(rerr).Str("user", fromID).Str("item", item.ID).Msg("Failed to restore gifted item")
		}
		return model.Item{}, err
	}

	log.Info().
		Str("from", fromID).
		Str("to", toID).
		Str("server", serverID).
		Str("item", item.ID).
		Msg("Item gifted")
	return item, nil
}

// insert places item at position (append when out of range). Caller holds the lock.
func (s *LoadoutService) insert(ctx context.Context, userID, serverID string, item model.Item, position int) error {
	_, err := s.loadouts.Update(ctx, userID, serverID, func(l *model.Loadout) error {
		if len(l.Inventory) >= s.capacity {
			return model.ErrInventoryFull
		}
		if position < 0 || position >= len(l.Inventory) {
			l.Inventory = append(l.Inventory, item)
			return nil
		}
		l.Inventory = slices.Insert(l.Inventory, position, item)
		return nil
	})
	return wrap("add inventory item", err)
}

// remove takes inventory[index] out. Caller holds the lock.
func (s *LoadoutService) remove(ctx context.Context, userID, serverID string, index int) (model.Item, error) {
	var item model.Item
	_, err := s.loadouts.Update(ctx, userID, serverID, func(l *model.Loadout) error {
		if index < 0 || index >= len(l.Inventory) {
			return model.ErrInvalidIndex
		}
		item = l.Inventory[index]
		l.Inventory = slices.Delete(l.Inventory, index, index+1)
		return nil
	})
	if err != nil {
		return model.Item{}, wrap("remove inventory item", err)
	}
	return item, nil
}
