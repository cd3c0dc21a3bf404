package model

import (
	"errors"
	"fmt"
	"time"
)

// Error kinds. Callers compare with errors.Is; services wrap them with detail.
var (
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrDailyLimitReached = errors.New("daily limit reached")
	ErrInvalidIndex      = errors.New("invalid index")
	ErrDuplicateGuess    = errors.New("duplicate guess")
	ErrSlotEmpty         = errors.New("slot empty")
	ErrInventoryFull     = errors.New("inventory full")
	ErrNotFound          = errors.New("not found")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrStorageFailure    = errors.New("storage failure")

	ErrInvalidInput   = errors.New("invalid input")
	ErrGameInProgress = errors.New("game already in progress")
	ErrAlreadyJoined  = errors.New("already joined")
	ErrCooldown       = errors.New("cooldown active")
	ErrSoldOut        = errors.New("sold out")
	ErrAlreadyOwned   = errors.New("already owned")
)

// FundsError carries the required and available amounts of a rejected debit.
type FundsError struct {
	Required  int64
	Available int64
}

func (e *FundsError) Error() string {
	return fmt.Sprintf("insufficient funds: need %d, have %d", e.Required, e.Available)
}

func (e *FundsError) Unwrap() error { return ErrInsufficientFunds }

// LimitError carries the exhausted counter and when it resets.
type LimitError struct {
	Kind    ActivityKind
	Usage   Usage
	ResetIn time.Duration
}

func (e *LimitError) Error() string {
	return fmt.Sprintf("daily limit reached for %s: %d/%d", e.Kind, e.Usage.Count, e.Usage.Limit)
}

func (e *LimitError) Unwrap() error { return ErrDailyLimitReached }

// CooldownError carries the time left before an action is available again.
type CooldownError struct {
	Remaining time.Duration
}

func (e *CooldownError) Error() string {
	return fmt.Sprintf("cooldown active: %s remaining", e.Remaining.Round(time.Second))
}

func (e *CooldownError) Unwrap() error { return ErrCooldown }
