// Package service implements the economy services: balances, daily limits,
// equipment, experience, check-in and the role shop.
package service

import (
	"context"
	"fmt"
	"sort"

	"github.com/rs/zerolog/log"

	"monad-bot/internal/model"
	"monad-bot/internal/repository"
)

// Ledger owns per-(user, server) balances.
type Ledger struct {
	balances *repository.BalanceRepository
}

// BalanceLock is the key-lock name every path that debits a balance holds,
// so a funds check and the debit that follows it see the same amount.
func BalanceLock(userID, serverID string) string {
	return "balance:" + serverID + ":" + userID
}

// NewLedger creates a new Ledger.
func NewLedger(balances *repository.BalanceRepository) *Ledger {
	return &Ledger{balances: balances}
}

// GetBalance returns the balance, creating and persisting a zero record on first access.
func (l *Ledger) GetBalance(ctx context.Context, userID, serverID string) (model.Balance, error) {
	b, found, err := l.balances.Get(ctx, userID, serverID)
	if err != nil {
		return model.Balance{}, wrap("get balance", err)
	}
	if found {
		return b, nil
	}
	b, err = l.balances.Update(ctx, userID, serverID, func(*model.Balance) error { return nil })
	return b, wrap("create balance", err)
}

// Adjust adds delta, clamping the result at zero. A win or loss outcome also
// bumps the game counters. Shortfalls are absorbed silently; use Debit when the
// caller must not go below the requested amount.
func (l *Ledger) Adjust(ctx context.Context, userID, serverID string, delta int64, outcome model.Outcome) (model.Balance, error) {
	b, err := l.balances.Update(ctx, userID, serverID, func(b *model.Balance) error {
		b.Amount = clampAdd(b.Amount, delta)
		recordOutcome(b, outcome)
		return nil
	})
	if err != nil {
		log.Error().Err(err).Str("user", userID).Str("server", serverID).Int64("delta", delta).Msg("Balance adjust failed")
		return model.Balance{}, wrap("adjust balance", err)
	}

	log.Debug().
		Str("user", userID).
		Str("server", serverID).
		Int64("delta", delta).
		Int64("balance", b.Amount).
		Msg("Balance adjusted")
	return b, nil
}

// Debit atomically removes amount, failing with a FundsError when the balance is short.
func (l *Ledger) Debit(ctx context.Context, userID, serverID string, amount int64) (model.Balance, error) {
	if amount < 0 {
		return model.Balance{}, fmt.Errorf("%w: negative debit %d", model.ErrInvalidInput, amount)
	}
	b, err := l.balances.Update(ctx, userID, serverID, func(b *model.Balance) error {
		if b.Amount < amount {
			return &model.FundsError{Required: amount, Available: b.Amount}
		}
		b.Amount -= amount
		return nil
	})
	if err != nil {
		return model.Balance{}, wrap("debit balance", err)
	}
	log.Debug().Str("user", userID).Str("server", serverID).Int64("amount", amount).Msg("Balance debited")
	return b, nil
}

// RequireFunds checks the balance without changing it.
func (l *Ledger) RequireFunds(ctx context.Context, userID, serverID string, amount int64) (model.Balance, error) {
	b, err := l.GetBalance(ctx, userID, serverID)
	if err != nil {
		return model.Balance{}, err
	}
	if b.Amount < amount {
		return b, &model.FundsError{Required: amount, Available: b.Amount}
	}
	return b, nil
}

// Leaderboard returns the richest accounts of a server.
func (l *Ledger) Leaderboard(ctx context.Context, serverID string, limit int) ([]model.Balance, error) {
	all, err := l.balances.ListByServer(ctx, serverID)
	if err != nil {
		return nil, wrap("list balances", err)
	}
	sort.SliceStable(all, func(i, j int) bool {
		if all[i].Amount != all[j].Amount {
			return all[i].Amount > all[j].Amount
		}
		return all[i].UserID < all[j].UserID
	})
	if limit > 0 && len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

func clampAdd(amount, delta int64) int64 {
	if n := amount + delta; n > 0 {
		return n
	}
	return 0
}

func recordOutcome(b *model.Balance, outcome model.Outcome) {
	switch outcome {
	case model.OutcomeWin:
		b.TotalGames++
		b.Wins++
	case model.OutcomeLoss:
		b.TotalGames++
		b.Losses++
	}
}
