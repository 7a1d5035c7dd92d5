package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/nandaardn/eventix/internal/models"
	"github.com/nandaardn/eventix/internal/storage"
)

const (
	// CashHoldDuration is how long a PENDING_PAYMENT order keeps its
	// inventory before the cash-hold sweep cancels it.
	CashHoldDuration = 30 * time.Minute
	// CheckoutTimeout is how long a PENDING order keeps its inventory
	// before the abandoned-checkout sweep cancels it.
	CheckoutTimeout = 30 * time.Minute

	SweepInterval  = 5 * time.Minute
	sweepBatchSize = 100
)

// SweepReport is telemetry for one sweep pass. The counts are
// observational only and drive no further logic.
type SweepReport struct {
	ExpiredOrders      int `json:"expired_orders"`
	TicketsReleased    int `json:"tickets_released"`
	CouponUsesReleased int `json:"coupon_uses_released"`
}

// ExpirationService finds time-boxed pending orders and cancels them,
// returning their tier units and coupon usages to the pool. It is the only
// component that moves a pending order to CANCELLED.
type ExpirationService struct {
	store     storage.Store
	inventory *InventoryService
	coupons   *CouponService
	lock      *SweepLock
}

// NewExpirationService builds the sweeper. lock may be nil when no Redis
// is configured; sweeps then run unguarded.
func NewExpirationService(store storage.Store, inventory *InventoryService, coupons *CouponService, lock *SweepLock) *ExpirationService {
	return &ExpirationService{store: store, inventory: inventory, coupons: coupons, lock: lock}
}

// SweepCashHolds cancels cash orders whose in-person settlement window has
// elapsed.
func (s *ExpirationService) SweepCashHolds(ctx context.Context) (*SweepReport, error) {
	return s.sweep(ctx, models.OrderPendingPayment, CashHoldDuration, models.ReasonCashHoldExpired, "cash-holds")
}

// SweepAbandonedCheckouts cancels online orders whose checkout was never
// completed.
func (s *ExpirationService) SweepAbandonedCheckouts(ctx context.Context) (*SweepReport, error) {
	return s.sweep(ctx, models.OrderPending, CheckoutTimeout, models.ReasonCheckoutAbandoned, "abandoned-checkouts")
}

func (s *ExpirationService) sweep(ctx context.Context, status models.OrderStatus, window time.Duration, reason, track string) (*SweepReport, error) {
	if s.lock != nil {
		token, ok, err := s.lock.Acquire(ctx, track)
		if err != nil {
			// Redis being down should not stop expiration; run unguarded.
			log.Printf("sweep %s: lock unavailable, continuing without it: %v", track, err)
		} else if !ok {
			// Another instance holds the pass; its run covers these orders.
			return &SweepReport{}, nil
		} else {
			defer func() {
				if err := s.lock.Release(ctx, track, token); err != nil {
					log.Printf("sweep %s: failed to release lock: %v", track, err)
				}
			}()
		}
	}

	cutoff := time.Now().Add(-window)
	orders, err := s.store.ListOrdersForExpiry(ctx, status, cutoff, sweepBatchSize)
	if err != nil {
		return nil, fmt.Errorf("sweep %s: listing expired orders: %w", track, err)
	}

	report := &SweepReport{}
	for i := range orders {
		ticketsReleased, couponReleased, err := s.CancelOrder(ctx, &orders[i], reason)
		if err != nil {
			// One order failing must not abort the batch; it stays
			// eligible and is retried on the next scheduled run.
			log.Printf("sweep %s: failed to cancel order %s: %v", track, orders[i].ID, err)
			continue
		}
		if ticketsReleased < 0 {
			// Already terminal, nothing was released.
			continue
		}
		report.ExpiredOrders++
		report.TicketsReleased += ticketsReleased
		if couponReleased {
			report.CouponUsesReleased++
		}
	}
	return report, nil
}

// CancelOrder applies the cancellation transition to one order as a single
// unit of work. It returns the number of tickets released, or -1 when the
// order was already terminal (the transition is idempotent). Tier releases
// are grouped from a snapshot of the order's tickets, so each tier is
// adjusted exactly once however many tickets it contributed.
func (s *ExpirationService) CancelOrder(ctx context.Context, order *models.Order, reason string) (int, bool, error) {
	ticketsReleased := -1
	couponReleased := false

	err := s.store.WithinTx(ctx, func(tx storage.Store) error {
		claimed, err := tx.MarkOrderCancelled(ctx, order.ID, reason)
		if err != nil {
			return err
		}
		if !claimed {
			return nil
		}

		tickets, err := tx.TicketsForOrder(ctx, order.ID)
		if err != nil {
			return err
		}

		unitsByTier := make(map[uuid.UUID]int)
		for _, ticket := range tickets {
			unitsByTier[ticket.TierID]++
		}
		for tierID, qty := range unitsByTier {
			if err := s.inventory.ReleaseUsing(ctx, tx, tierID, qty); err != nil {
				return err
			}
		}

		if err := tx.MarkTicketsCancelled(ctx, order.ID); err != nil {
			return err
		}

		if order.CouponID != nil {
			couponReleased, err = tx.ReleaseCouponUse(ctx, *order.CouponID)
			if err != nil {
				return err
			}
		}

		ticketsReleased = len(tickets)
		return nil
	})
	if err != nil {
		return -1, false, err
	}
	return ticketsReleased, couponReleased, nil
}

// Run drives both sweep tracks on a fixed interval until ctx is done.
func (s *ExpirationService) Run(ctx context.Context) {
	ticker := time.NewTicker(SweepInterval)
	defer ticker.Stop()

	log.Printf("expiration sweeper started, interval %s", SweepInterval)

	for {
		select {
		case <-ctx.Done():
			log.Println("expiration sweeper stopped")
			return
		case <-ticker.C:
			if report, err := s.SweepCashHolds(ctx); err != nil {
				log.Printf("cash-hold sweep failed: %v", err)
			} else if report.ExpiredOrders > 0 {
				log.Printf("cash-hold sweep: %d orders expired, %d tickets released", report.ExpiredOrders, report.TicketsReleased)
			}

			if report, err := s.SweepAbandonedCheckouts(ctx); err != nil {
				log.Printf("abandoned-checkout sweep failed: %v", err)
			} else if report.ExpiredOrders > 0 {
				log.Printf("abandoned-checkout sweep: %d orders expired, %d tickets released, %d coupon uses released", report.ExpiredOrders, report.TicketsReleased, report.CouponUsesReleased)
			}
		}
	}
}
