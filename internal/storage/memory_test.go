package storage_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nandaardn/eventix/internal/models"
	"github.com/nandaardn/eventix/internal/storage"
)

func TestReserveTierUnits_ConditionalOnCapacity(t *testing.T) {
	store := storage.NewMemoryStore()
	tierID := uuid.New()
	store.AddTier(models.Tier{ID: tierID, Name: "GA", Capacity: 3, Sold: 2})
	ctx := context.Background()

	require.NoError(t, store.ReserveTierUnits(ctx, tierID, 1))

	err := store.ReserveTierUnits(ctx, tierID, 1)
	assert.ErrorIs(t, err, storage.ErrCapacityExceeded)

	tier, err := store.GetTier(ctx, tierID)
	require.NoError(t, err)
	assert.Equal(t, 3, tier.Sold)
}

func TestReleaseTierUnits_ClampsAtZero(t *testing.T) {
	store := storage.NewMemoryStore()
	tierID := uuid.New()
	store.AddTier(models.Tier{ID: tierID, Name: "GA", Capacity: 10, Sold: 2})
	ctx := context.Background()

	clamped, err := store.ReleaseTierUnits(ctx, tierID, 2)
	require.NoError(t, err)
	assert.False(t, clamped)

	clamped, err = store.ReleaseTierUnits(ctx, tierID, 1)
	require.NoError(t, err)
	assert.True(t, clamped)

	tier, err := store.GetTier(ctx, tierID)
	require.NoError(t, err)
	assert.Equal(t, 0, tier.Sold)
}

func TestMarkOrderCancelled_ClaimsOnce(t *testing.T) {
	store := storage.NewMemoryStore()
	ctx := context.Background()

	order := &models.Order{ID: uuid.New(), UserID: uuid.New(), Status: models.OrderPending}
	require.NoError(t, store.CreateOrderWithTickets(ctx, order, nil))

	claimed, err := store.MarkOrderCancelled(ctx, order.ID, "abandoned during checkout")
	require.NoError(t, err)
	assert.True(t, claimed)

	claimed, err = store.MarkOrderCancelled(ctx, order.ID, "abandoned during checkout")
	require.NoError(t, err)
	assert.False(t, claimed)
}

func TestMarkOrderPaid_RefusesCancelledOrder(t *testing.T) {
	store := storage.NewMemoryStore()
	ctx := context.Background()

	order := &models.Order{ID: uuid.New(), UserID: uuid.New(), Status: models.OrderPendingPayment}
	require.NoError(t, store.CreateOrderWithTickets(ctx, order, nil))

	claimed, err := store.MarkOrderCancelled(ctx, order.ID, "cash hold expired")
	require.NoError(t, err)
	require.True(t, claimed)

	// Settlement lost the race against expiration.
	flipped, err := store.MarkOrderPaid(ctx, order.ID)
	require.NoError(t, err)
	assert.False(t, flipped)

	stored, err := store.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderCancelled, stored.Status)
}

func TestReleaseCouponUse_FloorsAtZero(t *testing.T) {
	store := storage.NewMemoryStore()
	ctx := context.Background()

	coupon := models.Coupon{ID: uuid.New(), Code: "EARLY", Discount: 10, IsActive: true, UsedCount: 1}
	store.AddCoupon(coupon)

	released, err := store.ReleaseCouponUse(ctx, coupon.ID)
	require.NoError(t, err)
	assert.True(t, released)

	released, err = store.ReleaseCouponUse(ctx, coupon.ID)
	require.NoError(t, err)
	assert.False(t, released)
}
