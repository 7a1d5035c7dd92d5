package services_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nandaardn/eventix/internal/models"
	"github.com/nandaardn/eventix/internal/services"
	"github.com/nandaardn/eventix/internal/storage"
)

func newCheckout(store storage.Store) *services.CheckoutService {
	inventory := services.NewInventoryService(store)
	coupons := services.NewCouponService(store)
	return services.NewCheckoutService(store, inventory, coupons)
}

func TestCreateOrder_Success(t *testing.T) {
	store := storage.NewMemoryStore()
	eventID := uuid.New()
	tierID := uuid.New()
	store.AddTier(models.Tier{ID: tierID, Name: "GA", Price: 50000, Capacity: 10, EventID: eventID})

	svc := newCheckout(store)
	ctx := context.Background()

	order, err := svc.CreateOrder(ctx, uuid.New(), []services.TierSelection{{TierID: tierID, Quantity: 2}}, "", false)
	require.NoError(t, err)

	assert.Equal(t, models.OrderPending, order.Status)
	assert.Equal(t, 100000, order.Total)
	assert.Len(t, order.Tickets, 2)

	tier, err := store.GetTier(ctx, tierID)
	require.NoError(t, err)
	assert.Equal(t, 2, tier.Sold)

	tickets, err := store.TicketsForOrder(ctx, order.ID)
	require.NoError(t, err)
	require.Len(t, tickets, 2)
	for _, ticket := range tickets {
		assert.Equal(t, models.OrderPending, ticket.Status)
		assert.Equal(t, tierID, ticket.TierID)
	}
}

func TestCreateOrder_CashStartsPendingPayment(t *testing.T) {
	store := storage.NewMemoryStore()
	tierID := uuid.New()
	store.AddTier(models.Tier{ID: tierID, Name: "GA", Price: 50000, Capacity: 10, EventID: uuid.New()})

	svc := newCheckout(store)

	order, err := svc.CreateOrder(context.Background(), uuid.New(), []services.TierSelection{{TierID: tierID, Quantity: 1}}, "", true)
	require.NoError(t, err)
	assert.Equal(t, models.OrderPendingPayment, order.Status)
}

func TestCreateOrder_CapacityExceeded(t *testing.T) {
	store := storage.NewMemoryStore()
	tierID := uuid.New()
	store.AddTier(models.Tier{ID: tierID, Name: "GA", Price: 50000, Capacity: 10, Sold: 8, EventID: uuid.New()})

	svc := newCheckout(store)
	ctx := context.Background()

	_, err := svc.CreateOrder(ctx, uuid.New(), []services.TierSelection{{TierID: tierID, Quantity: 5}}, "", false)
	assert.True(t, services.IsValidationError(err))
	assert.Contains(t, err.Error(), "not enough tickets")

	tier, err := store.GetTier(ctx, tierID)
	require.NoError(t, err)
	assert.Equal(t, 8, tier.Sold)
}

func TestCreateOrder_PartialReservationRolledBack(t *testing.T) {
	store := storage.NewMemoryStore()
	eventID := uuid.New()
	tierA := uuid.New()
	tierB := uuid.New()
	store.AddTier(models.Tier{ID: tierA, Name: "GA", Price: 50000, Capacity: 5, EventID: eventID})
	store.AddTier(models.Tier{ID: tierB, Name: "VIP", Price: 150000, Capacity: 1, Sold: 1, EventID: eventID})

	svc := newCheckout(store)
	ctx := context.Background()

	_, err := svc.CreateOrder(ctx, uuid.New(), []services.TierSelection{
		{TierID: tierA, Quantity: 2},
		{TierID: tierB, Quantity: 1},
	}, "", false)
	assert.True(t, services.IsValidationError(err))

	// The reservation on tier A must have been undone when tier B failed.
	a, err := store.GetTier(ctx, tierA)
	require.NoError(t, err)
	assert.Equal(t, 0, a.Sold)
}

func TestCreateOrder_MixedEventsRejected(t *testing.T) {
	store := storage.NewMemoryStore()
	tierA := uuid.New()
	tierB := uuid.New()
	store.AddTier(models.Tier{ID: tierA, Name: "GA", Price: 50000, Capacity: 5, EventID: uuid.New()})
	store.AddTier(models.Tier{ID: tierB, Name: "GA", Price: 50000, Capacity: 5, EventID: uuid.New()})

	svc := newCheckout(store)

	_, err := svc.CreateOrder(context.Background(), uuid.New(), []services.TierSelection{
		{TierID: tierA, Quantity: 1},
		{TierID: tierB, Quantity: 1},
	}, "", false)
	assert.True(t, services.IsValidationError(err))
	assert.Contains(t, err.Error(), "same event")
}

func TestCreateOrder_WithCoupon(t *testing.T) {
	store := storage.NewMemoryStore()
	eventID := uuid.New()
	tierID := uuid.New()
	store.AddTier(models.Tier{ID: tierID, Name: "GA", Price: 50000, Capacity: 10, EventID: eventID})

	coupon := models.Coupon{ID: uuid.New(), Code: "OFF10", EventID: eventID, Discount: 10, IsActive: true, MaxUses: intPtr(5)}
	store.AddCoupon(coupon)

	svc := newCheckout(store)
	ctx := context.Background()

	order, err := svc.CreateOrder(ctx, uuid.New(), []services.TierSelection{{TierID: tierID, Quantity: 2}}, "off10", false)
	require.NoError(t, err)

	require.NotNil(t, order.CouponID)
	assert.Equal(t, coupon.ID, *order.CouponID)
	assert.Equal(t, 90000, order.Total)

	stored, err := store.GetCouponByCode(ctx, "OFF10")
	require.NoError(t, err)
	assert.Equal(t, 1, stored.UsedCount)
}

func TestCreateOrder_RejectedCouponHoldsNoInventory(t *testing.T) {
	store := storage.NewMemoryStore()
	eventID := uuid.New()
	tierID := uuid.New()
	store.AddTier(models.Tier{ID: tierID, Name: "GA", Price: 50000, Capacity: 10, EventID: eventID})

	coupon := models.Coupon{ID: uuid.New(), Code: "USED", EventID: eventID, Discount: 10, IsActive: true, MaxUses: intPtr(1), UsedCount: 1}
	store.AddCoupon(coupon)

	svc := newCheckout(store)
	ctx := context.Background()

	_, err := svc.CreateOrder(ctx, uuid.New(), []services.TierSelection{{TierID: tierID, Quantity: 2}}, "USED", false)
	assert.True(t, services.IsValidationError(err))

	// Validation happens before reservation, so nothing was held.
	tier, err := store.GetTier(ctx, tierID)
	require.NoError(t, err)
	assert.Equal(t, 0, tier.Sold)
}

func TestCreateOrder_UnknownCoupon(t *testing.T) {
	store := storage.NewMemoryStore()
	tierID := uuid.New()
	store.AddTier(models.Tier{ID: tierID, Name: "GA", Price: 50000, Capacity: 10, EventID: uuid.New()})

	svc := newCheckout(store)

	_, err := svc.CreateOrder(context.Background(), uuid.New(), []services.TierSelection{{TierID: tierID, Quantity: 1}}, "NOPE", false)
	assert.True(t, services.IsValidationError(err))
	assert.Contains(t, err.Error(), "not found")
}

func TestCreateOrder_NoSelections(t *testing.T) {
	store := storage.NewMemoryStore()
	svc := newCheckout(store)

	_, err := svc.CreateOrder(context.Background(), uuid.New(), nil, "", false)
	assert.True(t, services.IsValidationError(err))
}
