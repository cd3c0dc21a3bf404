package service

import (
	"errors"
	"fmt"

	"monad-bot/internal/model"
)

// domainKinds are returned to callers unwrapped by storage context.
var domainKinds = []error{
	model.ErrInsufficientFunds,
	model.ErrDailyLimitReached,
	model.ErrInvalidIndex,
	model.ErrDuplicateGuess,
	model.ErrSlotEmpty,
	model.ErrInventoryFull,
	model.ErrNotFound,
	model.ErrUnauthorized,
	model.ErrInvalidInput,
	model.ErrGameInProgress,
	model.ErrAlreadyJoined,
	model.ErrCooldown,
	model.ErrSoldOut,
	model.ErrAlreadyOwned,
}

// wrap adds operation context to storage errors and passes domain errors through.
func wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	for _, kind := range domainKinds {
		if errors.Is(err, kind) {
			return err
		}
	}
	return fmt.Errorf("failed to %s: %w", op, err)
}
