package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/nandaardn/eventix/internal/models"
	"github.com/nandaardn/eventix/internal/storage"
)

// ValidationError is a checkout-time rejection. It is raised before any
// counter is touched, so the caller never has to undo anything.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func validationErrorf(format string, args ...interface{}) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// IsValidationError reports whether err is a checkout validation rejection.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// CouponService keeps used_count a faithful count of live orders that
// applied a code. It is the only writer of that counter.
type CouponService struct {
	store storage.Store
}

func NewCouponService(store storage.Store) *CouponService {
	return &CouponService{store: store}
}

// Resolve looks a coupon up by its user-facing code.
func (s *CouponService) Resolve(ctx context.Context, code string) (*models.Coupon, error) {
	coupon, err := s.store.GetCouponByCode(ctx, code)
	if err != nil {
		if errors.Is(err, storage.ErrCouponNotFound) {
			return nil, validationErrorf("coupon %q not found", models.NormalizeCouponCode(code))
		}
		return nil, err
	}
	return coupon, nil
}

// ValidateAtCheckout checks every coupon constraint against the order being
// assembled. It must run before any tier reservation so a rejected coupon
// never causes an inventory hold.
func (s *CouponService) ValidateAtCheckout(ctx context.Context, coupon *models.Coupon, userID uuid.UUID, eventID uuid.UUID, lines []CheckoutLine, total int) error {
	if !coupon.IsActive {
		return validationErrorf("coupon %s is no longer active", coupon.Code)
	}
	if coupon.EventID != eventID {
		return validationErrorf("coupon %s is not valid for this event", coupon.Code)
	}

	now := time.Now()
	if coupon.ValidFrom != nil && now.Before(*coupon.ValidFrom) {
		return validationErrorf("coupon %s is not valid yet", coupon.Code)
	}
	if coupon.ValidUntil != nil && now.After(*coupon.ValidUntil) {
		return validationErrorf("coupon %s has expired", coupon.Code)
	}

	for _, line := range lines {
		if !coupon.AppliesToTier(line.Tier.ID) {
			return validationErrorf("coupon %s does not apply to tier %s", coupon.Code, line.Tier.Name)
		}
	}

	if coupon.MinPurchase != nil && total < *coupon.MinPurchase {
		return validationErrorf("coupon %s requires a minimum purchase of %d", coupon.Code, *coupon.MinPurchase)
	}

	if coupon.MaxUses != nil && coupon.UsedCount >= *coupon.MaxUses {
		return validationErrorf("coupon %s has reached its usage limit", coupon.Code)
	}

	if coupon.MaxUsesPerUser != nil {
		used, err := s.store.CountLiveCouponOrders(ctx, coupon.ID, userID)
		if err != nil {
			return err
		}
		if used >= int64(*coupon.MaxUsesPerUser) {
			return validationErrorf("coupon %s has reached its per-user usage limit", coupon.Code)
		}
	}

	return nil
}

// Consume records one usage against the coupon. The ceiling is re-checked
// by the store's conditional update, which closes the race between two
// checkouts validating the same last use.
func (s *CouponService) Consume(ctx context.Context, couponID uuid.UUID) error {
	err := s.store.ConsumeCouponUse(ctx, couponID)
	if errors.Is(err, storage.ErrCouponExhausted) {
		return &ValidationError{Message: "coupon has reached its usage limit"}
	}
	return err
}

// ReleaseUsage returns one usage when an order that applied the coupon is
// cancelled. Exactly one per order, regardless of the order's ticket count.
func (s *CouponService) ReleaseUsage(ctx context.Context, couponID uuid.UUID) (bool, error) {
	return s.store.ReleaseCouponUse(ctx, couponID)
}

// FeeWarning flags a tier whose discounted price would fall below the
// platform fee. Informational only; coupon creation is never blocked.
type FeeWarning struct {
	TierID          uuid.UUID `json:"tier_id"`
	TierName        string    `json:"tier_name"`
	DiscountedPrice int       `json:"discounted_price"`
	Message         string    `json:"message"`
}

// FeeWarnings computes the warning list for a coupon over its applicable
// tiers. Pure function, no persistence.
func FeeWarnings(coupon *models.Coupon, tiers []models.Tier, platformFee int) []FeeWarning {
	var warnings []FeeWarning
	for _, tier := range tiers {
		if !coupon.AppliesToTier(tier.ID) {
			continue
		}
		discounted := coupon.DiscountedPrice(tier.Price)
		if discounted < platformFee {
			warnings = append(warnings, FeeWarning{
				TierID:          tier.ID,
				TierName:        tier.Name,
				DiscountedPrice: discounted,
				Message:         fmt.Sprintf("discounted price %d for tier %s is below the platform fee %d", discounted, tier.Name, platformFee),
			})
		}
	}
	return warnings
}
