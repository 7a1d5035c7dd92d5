package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nandaardn/eventix/internal/models"
	"github.com/nandaardn/eventix/internal/services"
	"github.com/nandaardn/eventix/internal/storage"
)

func intPtr(v int) *int { return &v }

func timePtr(v time.Time) *time.Time { return &v }

func testLines(tiers ...models.Tier) []services.CheckoutLine {
	lines := make([]services.CheckoutLine, 0, len(tiers))
	for _, tier := range tiers {
		lines = append(lines, services.CheckoutLine{Tier: tier, Quantity: 1})
	}
	return lines
}

func TestValidateAtCheckout_Inactive(t *testing.T) {
	store := storage.NewMemoryStore()
	svc := services.NewCouponService(store)

	eventID := uuid.New()
	tier := models.Tier{ID: uuid.New(), Name: "GA", Price: 50000, EventID: eventID}
	coupon := &models.Coupon{ID: uuid.New(), Code: "OFF10", EventID: eventID, Discount: 10, IsActive: false}

	err := svc.ValidateAtCheckout(context.Background(), coupon, uuid.New(), eventID, testLines(tier), 50000)
	assert.True(t, services.IsValidationError(err))
	assert.Contains(t, err.Error(), "no longer active")
}

func TestValidateAtCheckout_WrongEvent(t *testing.T) {
	store := storage.NewMemoryStore()
	svc := services.NewCouponService(store)

	eventID := uuid.New()
	tier := models.Tier{ID: uuid.New(), Name: "GA", Price: 50000, EventID: eventID}
	coupon := &models.Coupon{ID: uuid.New(), Code: "OFF10", EventID: uuid.New(), Discount: 10, IsActive: true}

	err := svc.ValidateAtCheckout(context.Background(), coupon, uuid.New(), eventID, testLines(tier), 50000)
	assert.True(t, services.IsValidationError(err))
	assert.Contains(t, err.Error(), "not valid for this event")
}

func TestValidateAtCheckout_ValidityWindow(t *testing.T) {
	store := storage.NewMemoryStore()
	svc := services.NewCouponService(store)

	eventID := uuid.New()
	tier := models.Tier{ID: uuid.New(), Name: "GA", Price: 50000, EventID: eventID}
	userID := uuid.New()

	notYet := &models.Coupon{
		ID: uuid.New(), Code: "SOON", EventID: eventID, Discount: 10, IsActive: true,
		ValidFrom: timePtr(time.Now().Add(time.Hour)),
	}
	err := svc.ValidateAtCheckout(context.Background(), notYet, userID, eventID, testLines(tier), 50000)
	assert.True(t, services.IsValidationError(err))
	assert.Contains(t, err.Error(), "not valid yet")

	expired := &models.Coupon{
		ID: uuid.New(), Code: "LATE", EventID: eventID, Discount: 10, IsActive: true,
		ValidUntil: timePtr(time.Now().Add(-time.Hour)),
	}
	err = svc.ValidateAtCheckout(context.Background(), expired, userID, eventID, testLines(tier), 50000)
	assert.True(t, services.IsValidationError(err))
	assert.Contains(t, err.Error(), "expired")
}

func TestValidateAtCheckout_TierRestriction(t *testing.T) {
	store := storage.NewMemoryStore()
	svc := services.NewCouponService(store)

	eventID := uuid.New()
	vip := models.Tier{ID: uuid.New(), Name: "VIP", Price: 150000, EventID: eventID}
	ga := models.Tier{ID: uuid.New(), Name: "GA", Price: 50000, EventID: eventID}

	coupon := &models.Coupon{
		ID: uuid.New(), Code: "VIPONLY", EventID: eventID, Discount: 10, IsActive: true,
		Tiers: []models.Tier{vip},
	}

	err := svc.ValidateAtCheckout(context.Background(), coupon, uuid.New(), eventID, testLines(vip), 150000)
	assert.NoError(t, err)

	err = svc.ValidateAtCheckout(context.Background(), coupon, uuid.New(), eventID, testLines(vip, ga), 200000)
	assert.True(t, services.IsValidationError(err))
	assert.Contains(t, err.Error(), "does not apply to tier GA")
}

func TestValidateAtCheckout_MinPurchase(t *testing.T) {
	store := storage.NewMemoryStore()
	svc := services.NewCouponService(store)

	eventID := uuid.New()
	tier := models.Tier{ID: uuid.New(), Name: "GA", Price: 50000, EventID: eventID}
	coupon := &models.Coupon{
		ID: uuid.New(), Code: "BIG", EventID: eventID, Discount: 10, IsActive: true,
		MinPurchase: intPtr(100000),
	}

	err := svc.ValidateAtCheckout(context.Background(), coupon, uuid.New(), eventID, testLines(tier), 50000)
	assert.True(t, services.IsValidationError(err))
	assert.Contains(t, err.Error(), "minimum purchase")
}

func TestValidateAtCheckout_MaxUses(t *testing.T) {
	store := storage.NewMemoryStore()
	svc := services.NewCouponService(store)

	eventID := uuid.New()
	tier := models.Tier{ID: uuid.New(), Name: "GA", Price: 50000, EventID: eventID}
	coupon := &models.Coupon{
		ID: uuid.New(), Code: "ONE", EventID: eventID, Discount: 10, IsActive: true,
		MaxUses: intPtr(1), UsedCount: 1,
	}

	err := svc.ValidateAtCheckout(context.Background(), coupon, uuid.New(), eventID, testLines(tier), 50000)
	assert.True(t, services.IsValidationError(err))
	assert.Contains(t, err.Error(), "usage limit")
}

func TestValidateAtCheckout_MaxUsesPerUser(t *testing.T) {
	store := storage.NewMemoryStore()
	svc := services.NewCouponService(store)

	ctx := context.Background()
	eventID := uuid.New()
	userID := uuid.New()
	tier := models.Tier{ID: uuid.New(), Name: "GA", Price: 50000, EventID: eventID}
	coupon := models.Coupon{
		ID: uuid.New(), Code: "PERUSER", EventID: eventID, Discount: 10, IsActive: true,
		MaxUsesPerUser: intPtr(1),
	}
	store.AddCoupon(coupon)

	// A live order by this user already applied the coupon.
	order := &models.Order{ID: uuid.New(), UserID: userID, Status: models.OrderPending, CouponID: &coupon.ID}
	require.NoError(t, store.CreateOrderWithTickets(ctx, order, []models.Ticket{{TierID: tier.ID}}))

	err := svc.ValidateAtCheckout(ctx, &coupon, userID, eventID, testLines(tier), 50000)
	assert.True(t, services.IsValidationError(err))
	assert.Contains(t, err.Error(), "per-user usage limit")

	// Another user is unaffected.
	err = svc.ValidateAtCheckout(ctx, &coupon, uuid.New(), eventID, testLines(tier), 50000)
	assert.NoError(t, err)
}

func TestConsume_RaceClosedByConditionalUpdate(t *testing.T) {
	store := storage.NewMemoryStore()
	svc := services.NewCouponService(store)

	coupon := models.Coupon{ID: uuid.New(), Code: "LAST", EventID: uuid.New(), Discount: 10, IsActive: true, MaxUses: intPtr(1)}
	store.AddCoupon(coupon)

	ctx := context.Background()
	require.NoError(t, svc.Consume(ctx, coupon.ID))

	err := svc.Consume(ctx, coupon.ID)
	assert.True(t, services.IsValidationError(err))
}

func TestReleaseUsage_ClampsAtZero(t *testing.T) {
	store := storage.NewMemoryStore()
	svc := services.NewCouponService(store)

	coupon := models.Coupon{ID: uuid.New(), Code: "ZERO", EventID: uuid.New(), Discount: 10, IsActive: true}
	store.AddCoupon(coupon)

	released, err := svc.ReleaseUsage(context.Background(), coupon.ID)
	require.NoError(t, err)
	assert.False(t, released)
}

func TestFeeWarnings(t *testing.T) {
	eventID := uuid.New()
	cheap := models.Tier{ID: uuid.New(), Name: "Early Bird", Price: 6000, EventID: eventID}
	pricey := models.Tier{ID: uuid.New(), Name: "VIP", Price: 150000, EventID: eventID}

	coupon := &models.Coupon{ID: uuid.New(), Code: "HALF", EventID: eventID, Discount: 50, IsActive: true}

	warnings := services.FeeWarnings(coupon, []models.Tier{cheap, pricey}, 5000)
	require.Len(t, warnings, 1)
	assert.Equal(t, cheap.ID, warnings[0].TierID)
	assert.Equal(t, 3000, warnings[0].DiscountedPrice)
}

func TestFeeWarnings_RespectsTierRestriction(t *testing.T) {
	eventID := uuid.New()
	cheap := models.Tier{ID: uuid.New(), Name: "Early Bird", Price: 6000, EventID: eventID}
	vip := models.Tier{ID: uuid.New(), Name: "VIP", Price: 150000, EventID: eventID}

	// Restricted to VIP, so the cheap tier is never evaluated.
	coupon := &models.Coupon{
		ID: uuid.New(), Code: "HALF", EventID: eventID, Discount: 50, IsActive: true,
		Tiers: []models.Tier{vip},
	}

	warnings := services.FeeWarnings(coupon, []models.Tier{cheap, vip}, 5000)
	assert.Empty(t, warnings)
}
