package repository

import (
	"context"

	"monad-bot/internal/model"
	"monad-bot/internal/store"
)

// ExperienceRepository stores global per-user experience.
type ExperienceRepository struct {
	t table[model.Experience]
}

// NewExperienceRepository creates a new ExperienceRepository.
func NewExperienceRepository(s store.Store) *ExperienceRepository {
	return &ExperienceRepository{t: table[model.Experience]{s: s, bucket: bucketExperience}}
}

// Get returns the record, level 1 with no experience when absent.
func (r *ExperienceRepository) Get(ctx context.Context, userID string) (model.Experience, error) {
	e, found, err := r.t.get(ctx, userID)
	if err != nil {
		return model.Experience{}, err
	}
	if !found {
		e = model.Experience{UserID: userID, Level: 1}
	}
	return e, nil
}

// Update applies fn atomically.
func (r *ExperienceRepository) Update(ctx context.Context, userID string, fn func(e *model.Experience) error) (model.Experience, error) {
	return r.t.update(ctx, userID, func(e *model.Experience, exists bool) error {
		e.UserID = userID
		if !exists {
			e.Level = 1
		}
		return fn(e)
	})
}

// CheckInRepository stores the last check-in of each user.
type CheckInRepository struct {
	t table[model.CheckIn]
}

// NewCheckInRepository creates a new CheckInRepository.
func NewCheckInRepository(s store.Store) *CheckInRepository {
	return &CheckInRepository{t: table[model.CheckIn]{s: s, bucket: bucketCheckIns}}
}

// Update applies fn atomically; exists is false on the first check-in.
func (r *CheckInRepository) Update(ctx context.Context, userID string, fn func(c *model.CheckIn, exists bool) error) (model.CheckIn, error) {
	return r.t.update(ctx, userID, func(c *model.CheckIn, exists bool) error {
		c.UserID = userID
		return fn(c, exists)
	})
}

// Get returns the last check-in; found is false if the user never checked in.
func (r *CheckInRepository) Get(ctx context.Context, userID string) (model.CheckIn, bool, error) {
	return r.t.get(ctx, userID)
}
