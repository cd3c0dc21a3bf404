package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"monad-bot/internal/model"
)

func TestRoleShop_ListingAdminOnly(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	listing := model.RoleListing{ServerID: "g1", RoleID: "r1", Name: "VIP", Price: 500, Quantity: 1}

	_, err := env.roles.AddListing(ctx, listing, false)
	assert.ErrorIs(t, err, model.ErrUnauthorized)
	_, err = env.roles.AddListing(ctx, model.RoleListing{ServerID: "g1", RoleID: "r2", Price: -1}, true)
	assert.ErrorIs(t, err, model.ErrInvalidInput)

	_, err = env.roles.AddListing(ctx, listing, true)
	require.NoError(t, err)

	price := int64(250)
	out, err := env.roles.EditListing(ctx, "g1", "r1", ListingPatch{Price: &price}, true)
	require.NoError(t, err)
	assert.Equal(t, int64(250), out.Price)
	assert.Equal(t, "VIP", out.Name)

	_, err = env.roles.EditListing(ctx, "g1", "missing", ListingPatch{Price: &price}, true)
	assert.ErrorIs(t, err, model.ErrNotFound)

	require.NoError(t, env.roles.RemoveListing(ctx, "g1", "r1", true))
	assert.ErrorIs(t, env.roles.RemoveListing(ctx, "g1", "r1", true), model.ErrNotFound)
}

func TestRoleShop_BuyAndRefund(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	_, err := env.roles.AddListing(ctx, model.RoleListing{ServerID: "g1", RoleID: "r1", Name: "VIP", Price: 500, Quantity: 1}, true)
	require.NoError(t, err)

	_, _, err = env.roles.Buy(ctx, "u1", "g1", "r1")
	assert.ErrorIs(t, err, model.ErrInsufficientFunds)
	_, _, err = env.roles.Buy(ctx, "u1", "g1", "nope")
	assert.ErrorIs(t, err, model.ErrNotFound)

	env.fund(t, "u1", "g1", 600)
	env.fund(t, "u2", "g1", 600)
	listing, bal, err := env.roles.Buy(ctx, "u1", "g1", "r1")
	require.NoError(t, err)
	assert.Equal(t, int64(100), bal.Amount)
	assert.Zero(t, listing.Quantity)
	assert.Equal(t, []string{"u1"}, listing.PurchasedBy)

	_, _, err = env.roles.Buy(ctx, "u1", "g1", "r1")
	assert.ErrorIs(t, err, model.ErrAlreadyOwned)
	_, _, err = env.roles.Buy(ctx, "u2", "g1", "r1")
	assert.ErrorIs(t, err, model.ErrSoldOut)

	bal, err = env.roles.Refund(ctx, "u1", "g1", "r1")
	require.NoError(t, err)
	assert.Equal(t, int64(600), bal.Amount)

	_, _, err = env.roles.Buy(ctx, "u2", "g1", "r1")
	require.NoError(t, err)
}

func TestRoleShop_UnlimitedNeverSellsOut(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	_, err := env.roles.AddListing(ctx, model.RoleListing{ServerID: "g1", RoleID: "r1", Price: 0, Quantity: model.UnlimitedQuantity}, true)
	require.NoError(t, err)

	for _, u := range []string{"a", "b", "c"} {
		listing, _, err := env.roles.Buy(ctx, u, "g1", "r1")
		require.NoError(t, err)
		assert.Equal(t, model.UnlimitedQuantity, listing.Quantity)
	}
}

func TestRoleShop_SubmitAndReview(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	sub := model.RoleSubmission{ServerID: "g1", ServerName: "Monad", RoleID: "r9", RoleName: "OG", SubmittedBy: "mod"}

	_, err := env.roles.Submit(ctx, sub, false)
	assert.ErrorIs(t, err, model.ErrUnauthorized)
	_, err = env.roles.Submit(ctx, sub, true)
	require.NoError(t, err)
	_, err = env.roles.Submit(ctx, sub, true)
	assert.ErrorIs(t, err, model.ErrInvalidInput)

	pending, err := env.roles.Pending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, testEpoch, pending[0].SubmittedAt)

	_, err = env.roles.Review(ctx, "g1", "r9", true, "", "dev", false, nil)
	assert.ErrorIs(t, err, model.ErrUnauthorized)

	res, err := env.roles.Review(ctx, "g1", "r9", true, "", "dev", true, []string{"u1", "u2"})
	require.NoError(t, err)
	assert.True(t, res.Approved)
	assert.Equal(t, []string{"u1", "u2"}, res.Holders)

	p, err := env.roles.Profile(ctx, "u2")
	require.NoError(t, err)
	require.Len(t, p.Roles, 1)
	assert.Equal(t, "OG", p.Roles[0].RoleName)
	assert.Equal(t, "dev", p.Roles[0].ApprovedBy)

	pending, err = env.roles.Pending(ctx)
	require.NoError(t, err)
	assert.Empty(t, pending)

	_, err = env.roles.Review(ctx, "g1", "r9", false, "spam", "dev", true, nil)
	assert.ErrorIs(t, err, model.ErrNotFound)
}
