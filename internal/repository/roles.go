package repository

import (
	"context"

	"monad-bot/internal/model"
	"monad-bot/internal/store"
)

// RoleRepository stores role-shop listings, pending submissions and approvals.
type RoleRepository struct {
	listings    table[model.RoleListing]
	submissions table[model.RoleSubmission]
	approved    table[model.Profile]
}

// NewRoleRepository creates a new RoleRepository.
func NewRoleRepository(s store.Store) *RoleRepository {
	return &RoleRepository{
		listings:    table[model.RoleListing]{s: s, bucket: bucketRoleListings},
		submissions: table[model.RoleSubmission]{s: s, bucket: bucketRoleSubmissions},
		approved:    table[model.Profile]{s: s, bucket: bucketApprovedRoles},
	}
}

// GetListing returns one listing.
func (r *RoleRepository) GetListing(ctx context.Context, serverID, roleID string) (model.RoleListing, bool, error) {
	return r.listings.get(ctx, key(serverID, roleID))
}

// UpdateListing applies fn to a listing atomically.
func (r *RoleRepository) UpdateListing(ctx context.Context, serverID, roleID string, fn func(l *model.RoleListing, exists bool) error) (model.RoleListing, error) {
	return r.listings.update(ctx, key(serverID, roleID), func(l *model.RoleListing, exists bool) error {
		l.ServerID, l.RoleID = serverID, roleID
		return fn(l, exists)
	})
}

// DeleteListing removes a listing.
func (r *RoleRepository) DeleteListing(ctx context.Context, serverID, roleID string) error {
	return r.listings.delete(ctx, key(serverID, roleID))
}

// ListListings returns a server's listings.
func (r *RoleRepository) ListListings(ctx context.Context, serverID string) ([]model.RoleListing, error) {
	return r.listings.list(ctx, key(serverID, ""))
}

// GetSubmission returns one pending submission.
func (r *RoleRepository) GetSubmission(ctx context.Context, serverID, roleID string) (model.RoleSubmission, bool, error) {
	return r.submissions.get(ctx, key(serverID, roleID))
}

// UpdateSubmission applies fn to a submission atomically.
func (r *RoleRepository) UpdateSubmission(ctx context.Context, serverID, roleID string, fn func(s *model.RoleSubmission, exists bool) error) (model.RoleSubmission, error) {
	return r.submissions.update(ctx, key(serverID, roleID), func(s *model.RoleSubmission, exists bool) error {
		s.ServerID, s.RoleID = serverID, roleID
		return fn(s, exists)
	})
}

// DeleteSubmission removes a pending submission.
func (r *RoleRepository) DeleteSubmission(ctx context.Context, serverID, roleID string) error {
	return r.submissions.delete(ctx, key(serverID, roleID))
}

// ListSubmissions returns every pending submission ordered by server then role.
func (r *RoleRepository) ListSubmissions(ctx context.Context) ([]model.RoleSubmission, error) {
	return r.submissions.list(ctx, "")
}

// GetProfile returns a user's approved roles.
func (r *RoleRepository) GetProfile(ctx context.Context, userID string) (model.Profile, error) {
	p, _, err := r.approved.get(ctx, userID)
	p.UserID = userID
	return p, err
}

// UpdateProfile applies fn to a user's approved roles atomically.
func (r *RoleRepository) UpdateProfile(ctx context.Context, userID string, fn func(p *model.Profile) error) (model.Profile, error) {
	return r.approved.update(ctx, userID, func(p *model.Profile, _ bool) error {
		p.UserID = userID
		return fn(p)
	})
}
