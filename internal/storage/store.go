package storage

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/nandaardn/eventix/internal/models"
)

var (
	ErrTierNotFound   = errors.New("tier not found")
	ErrOrderNotFound  = errors.New("order not found")
	ErrCouponNotFound = errors.New("coupon not found")

	// ErrCapacityExceeded is returned when a reservation would push a
	// tier's sold counter above its capacity. Nothing is committed.
	ErrCapacityExceeded = errors.New("tier capacity exceeded")

	// ErrCouponExhausted is returned when consuming a use would exceed the
	// coupon's max_uses ceiling or the coupon is no longer active.
	ErrCouponExhausted = errors.New("coupon usage limit reached")
)

// Store is the persistence boundary for the reservation subsystem. Counter
// mutations (tier sold, coupon used_count) are conditional updates against
// the current persisted value so concurrent adjustments never lose writes.
type Store interface {
	// Tiers
	GetTier(ctx context.Context, tierID uuid.UUID) (*models.Tier, error)
	// ReserveTierUnits adds qty to the tier's sold counter, failing with
	// ErrCapacityExceeded if the counter would pass capacity.
	ReserveTierUnits(ctx context.Context, tierID uuid.UUID, qty int) error
	// ReleaseTierUnits subtracts qty from the tier's sold counter, clamped
	// at zero. It reports whether clamping occurred.
	ReleaseTierUnits(ctx context.Context, tierID uuid.UUID, qty int) (clamped bool, err error)

	// Orders and tickets
	CreateOrderWithTickets(ctx context.Context, order *models.Order, tickets []models.Ticket) error
	GetOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
	// ListOrdersForExpiry returns orders still in the given status whose
	// creation timestamp is older than cutoff, oldest first.
	ListOrdersForExpiry(ctx context.Context, status models.OrderStatus, cutoff time.Time, limit int) ([]models.Order, error)
	TicketsForOrder(ctx context.Context, orderID uuid.UUID) ([]models.Ticket, error)
	// MarkOrderCancelled flips a still-pending order to CANCELLED with the
	// given reason. It reports false when the order was already terminal,
	// which makes the cancellation transition idempotent.
	MarkOrderCancelled(ctx context.Context, orderID uuid.UUID, reason string) (bool, error)
	MarkTicketsCancelled(ctx context.Context, orderID uuid.UUID) error
	// MarkOrderPaid flips a pending order and its tickets to PAID. False
	// means the order was no longer pending.
	MarkOrderPaid(ctx context.Context, orderID uuid.UUID) (bool, error)

	// Coupons
	GetCouponByCode(ctx context.Context, code string) (*models.Coupon, error)
	// CountLiveCouponOrders counts non-cancelled orders by one user that
	// applied the coupon, for the per-user usage ceiling.
	CountLiveCouponOrders(ctx context.Context, couponID, userID uuid.UUID) (int64, error)
	// ConsumeCouponUse increments used_count, guarded by the active flag
	// and the max_uses ceiling.
	ConsumeCouponUse(ctx context.Context, couponID uuid.UUID) error
	// ReleaseCouponUse decrements used_count by one, clamped at zero. It
	// reports whether a use was actually released.
	ReleaseCouponUse(ctx context.Context, couponID uuid.UUID) (bool, error)

	// WithinTx runs fn against a transaction-scoped store. Implementations
	// without real transactions run fn directly.
	WithinTx(ctx context.Context, fn func(Store) error) error
}
