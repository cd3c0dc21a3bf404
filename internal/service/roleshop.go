package service

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/rs/zerolog/log"

	"monad-bot/internal/model"
	"monad-bot/internal/pkg/clock"
	"monad-bot/internal/pkg/lock"
	"monad-bot/internal/repository"
)

// ListingPatch carries the fields to change on a listing; nil means unchanged.
type ListingPatch struct {
	Name        *string
	Price       *int64
	Quantity    *int
	Description *string
}

// ReviewResult reports a reviewed submission.
type ReviewResult struct {
	Submission model.RoleSubmission
	Approved   bool
	Reason     string
	Holders    []string
}

// RoleShop sells server roles for $dMON and tracks premium role reviews.
// Granting and revoking the Discord role itself is the transport's job.
type RoleShop struct {
	roles  *repository.RoleRepository
	ledger *Ledger
	locks  *lock.KeyLock
	now    clock.Clock
}

// NewRoleShop creates a new RoleShop.
func NewRoleShop(roles *repository.RoleRepository, ledger *Ledger, locks *lock.KeyLock, now clock.Clock) *RoleShop {
	if now == nil {
		now = clock.System
	}
	return &RoleShop{roles: roles, ledger: ledger, locks: locks, now: now}
}

func listingLock(serverID, roleID string) string {
	return "role:" + serverID + ":" + roleID
}

// List returns the server's listings, cheapest first.
func (s *RoleShop) List(ctx context.Context, serverID string) ([]model.RoleListing, error) {
	all, err := s.roles.ListListings(ctx, serverID)
	if err != nil {
		return nil, wrap("list role listings", err)
	}
	slices.SortStableFunc(all, func(a, b model.RoleListing) int {
		if c := cmp.Compare(a.Price, b.Price); c != 0 {
			return c
		}
		return strings.Compare(a.Name, b.Name)
	})
	return all, nil
}

// Buy charges the listing price and records the buyer.
func (s *RoleShop) Buy(ctx context.Context, userID, serverID, roleID string) (model.RoleListing, model.Balance, error) {
	unlock := s.locks.LockAll(listingLock(serverID, roleID), BalanceLock(userID, serverID))
	defer unlock()

	listing, found, err := s.roles.GetListing(ctx, serverID, roleID)
	if err != nil {
		return model.RoleListing{}, model.Balance{}, wrap("get role listing", err)
	}
	if !found {
		return model.RoleListing{}, model.Balance{}, fmt.Errorf("%w: role %s is not for sale", model.ErrNotFound, roleID)
	}
	if err := checkAvailable(listing, userID); err != nil {
		return listing, model.Balance{}, err
	}

	price := listing.Price
	bal, err := s.ledger.Debit(ctx, userID, serverID, price)
	if err != nil {
		return listing, model.Balance{}, err
	}

	listing, err = s.roles.UpdateListing(ctx, serverID, roleID, func(l *model.RoleListing, exists bool) error {
		if !exists {
			return model.ErrNotFound
		}
		if err := checkAvailable(*l, userID); err != nil {
			return err
		}
		l.PurchasedBy = append(l.PurchasedBy, userID)
		if l.Quantity != model.UnlimitedQuantity {
			l.Quantity--
		}
		return nil
	})
	if err != nil {
		s.refundBalance(ctx, userID, serverID, price)
		return model.RoleListing{}, model.Balance{}, wrap("record role purchase", err)
	}

	log.Info().Str("user", userID).Str("server", serverID).Str("role", roleID).Int64("price", price).Msg("Role purchased")
	return listing, bal, nil
}

func checkAvailable(l model.RoleListing, userID string) error {
	if l.OwnedBy(userID) {
		return model.ErrAlreadyOwned
	}
	if l.SoldOut() {
		return model.ErrSoldOut
	}
	return nil
}

// Refund undoes a purchase whose role could not be granted.
func (s *RoleShop) Refund(ctx context.Context, userID, serverID, roleID string) (model.Balance, error) {
	unlock := s.locks.LockAll(listingLock(serverID, roleID))
	defer unlock()

	var price int64
	_, err := s.roles.UpdateListing(ctx, serverID, roleID, func(l *model.RoleListing, exists bool) error {
		if !exists || !l.OwnedBy(userID) {
			return model.ErrNotFound
		}
		price = l.Price
		l.PurchasedBy = slices.DeleteFunc(l.PurchasedBy, func(id string) bool { return id == userID })
		if l.Quantity != model.UnlimitedQuantity {
			l.Quantity++
		}
		return nil
	})
	if err != nil {
		return model.Balance{}, wrap("refund role purchase", err)
	}
	log.Warn().Str("user", userID).Str("role", roleID).Int64("price", price).Msg("Role purchase refunded")
	return s.ledger.Adjust(ctx, userID, serverID, price, model.OutcomeNone)
}

func (s *RoleShop) refundBalance(ctx context.Context, userID, serverID string, amount int64) {
	if _, err := s.ledger.Adjust(ctx, userID, serverID, amount, model.OutcomeNone); err != nil {
		log.Error().Err(err).Str("user", userID).Int64("amount", amount).Msg("Failed to refund role purchase")
	}
}

// AddListing creates or replaces a listing. Admins only.
func (s *RoleShop) AddListing(ctx context.Context, listing model.RoleListing, isAdmin bool) (model.RoleListing, error) {
	if !isAdmin {
		return model.RoleListing{}, model.ErrUnauthorized
	}
	if err := validateListing(listing.Price, listing.Quantity); err != nil {
		return model.RoleListing{}, err
	}
	out, err := s.roles.UpdateListing(ctx, listing.ServerID, listing.RoleID, func(l *model.RoleListing, exists bool) error {
		bought := l.PurchasedBy
		*l = listing
		if exists {
			l.PurchasedBy = bought
		}
		return nil
	})
	if err != nil {
		return model.RoleListing{}, wrap("add role listing", err)
	}
	log.Info().Str("server", listing.ServerID).Str("role", listing.RoleID).Int64("price", listing.Price).Msg("Role listing added")
	return out, nil
}

// EditListing applies patch to an existing listing. Admins only.
func (s *RoleShop) EditListing(ctx context.Context, serverID, roleID string, patch ListingPatch, isAdmin bool) (model.RoleListing, error) {
	if !isAdmin {
		return model.RoleListing{}, model.ErrUnauthorized
	}
	out, err := s.roles.UpdateListing(ctx, serverID, roleID, func(l *model.RoleListing, exists bool) error {
		if !exists {
			return model.ErrNotFound
		}
		if patch.Name != nil {
			l.Name = *patch.Name
		}
		if patch.Price != nil {
			l.Price = *patch.Price
		}
		if patch.Quantity != nil {
			l.Quantity = *patch.Quantity
		}
		if patch.Description != nil {
			l.Description = *patch.Description
		}
		return validateListing(l.Price, l.Quantity)
	})
	return out, wrap("edit role listing", err)
}

// RemoveListing deletes a listing. Admins only.
func (s *RoleShop) RemoveListing(ctx context.Context, serverID, roleID string, isAdmin bool) error {
	if !isAdmin {
		return model.ErrUnauthorized
	}
	_, found, err := s.roles.GetListing(ctx, serverID, roleID)
	if err != nil {
		return wrap("get role listing", err)
	}
	if !found {
		return model.ErrNotFound
	}
	return wrap("remove role listing", s.roles.DeleteListing(ctx, serverID, roleID))
}

func validateListing(price int64, quantity int) error {
	if price < 0 {
		return fmt.Errorf("%w: price must not be negative", model.ErrInvalidInput)
	}
	if quantity < model.UnlimitedQuantity {
		return fmt.Errorf("%w: quantity must be -1 (unlimited) or at least 0", model.ErrInvalidInput)
	}
	return nil
}

// Submit queues a premium role for developer review. Requires Manage Roles.
func (s *RoleShop) Submit(ctx context.Context, sub model.RoleSubmission, canManageRoles bool) (model.RoleSubmission, error) {
	if !canManageRoles {
		return model.RoleSubmission{}, model.ErrUnauthorized
	}
	sub.SubmittedAt = s.now()
	out, err := s.roles.UpdateSubmission(ctx, sub.ServerID, sub.RoleID, func(cur *model.RoleSubmission, exists bool) error {
		if exists {
			return fmt.Errorf("%w: role is already pending review", model.ErrInvalidInput)
		}
		*cur = sub
		return nil
	})
	if err != nil {
		return model.RoleSubmission{}, wrap("submit role", err)
	}
	log.Info().Str("server", sub.ServerID).Str("role", sub.RoleID).Str("by", sub.SubmittedBy).Msg("Role submitted for review")
	return out, nil
}

// Pending lists submissions awaiting review.
func (s *RoleShop) Pending(ctx context.Context) ([]model.RoleSubmission, error) {
	subs, err := s.roles.ListSubmissions(ctx)
	if err != nil {
		return nil, wrap("list role submissions", err)
	}
	slices.SortStableFunc(subs, func(a, b model.RoleSubmission) int { return a.SubmittedAt.Compare(b.SubmittedAt) })
	return subs, nil
}

// Review approves or rejects a submission. Developers only. On approval every
// current holder of the role gets it on their profile.
func (s *RoleShop) Review(ctx context.Context, serverID, roleID string, approve bool, reason, reviewerID string, isDeveloper bool, holders []string) (ReviewResult, error) {
	if !isDeveloper {
		return ReviewResult{}, model.ErrUnauthorized
	}
	sub, found, err := s.roles.GetSubmission(ctx, serverID, roleID)
	if err != nil {
		return ReviewResult{}, wrap("get role submission", err)
	}
	if !found {
		return ReviewResult{}, fmt.Errorf("%w: no pending submission for role %s", model.ErrNotFound, roleID)
	}

	res := ReviewResult{Submission: sub, Approved: approve, Reason: reason}
	if approve {
		approved := model.ApprovedRole{
			ServerID:    sub.ServerID,
			ServerName:  sub.ServerName,
			RoleID:      sub.RoleID,
			RoleName:    sub.RoleName,
			Description: sub.Description,
			ApprovedBy:  reviewerID,
			ApprovedAt:  s.now(),
		}
		for _, userID := range holders {
			if err := s.grantApproved(ctx, userID, approved); err != nil {
				return ReviewResult{}, err
			}
			res.Holders = append(res.Holders, userID)
		}
	}

	if err := s.roles.DeleteSubmission(ctx, serverID, roleID); err != nil {
		return ReviewResult{}, wrap("delete role submission", err)
	}
	log.Info().
		Str("server", serverID).
		Str("role", roleID).
		Bool("approved", approve).
		Int("holders", len(res.Holders)).
		Msg("Role submission reviewed")
	return res, nil
}

func (s *RoleShop) grantApproved(ctx context.Context, userID string, role model.ApprovedRole) error {
	_, err := s.roles.UpdateProfile(ctx, userID, func(p *model.Profile) error {
		p.Roles = slices.DeleteFunc(p.Roles, func(r model.ApprovedRole) bool {
			return r.ServerID == role.ServerID && r.RoleID == role.RoleID
		})
		p.Roles = append(p.Roles, role)
		return nil
	})
	return wrap("update profile", err)
}

// Profile returns the user's approved premium roles.
func (s *RoleShop) Profile(ctx context.Context, userID string) (model.Profile, error) {
	p, err := s.roles.GetProfile(ctx, userID)
	return p, wrap("get profile", err)
}
