package services

import (
	"context"
	"errors"
	"log"

	"github.com/google/uuid"

	"github.com/nandaardn/eventix/internal/models"
	"github.com/nandaardn/eventix/internal/storage"
)

// TierSelection is one line of a checkout request.
type TierSelection struct {
	TierID   uuid.UUID `json:"tier_id" binding:"required"`
	Quantity int       `json:"quantity" binding:"required,min=1"`
}

// CheckoutLine is a selection with its tier loaded.
type CheckoutLine struct {
	Tier     models.Tier
	Quantity int
}

// CheckoutService creates orders. The write sequence is fixed: coupon
// validation, then tier reservation, then order/ticket creation, so a
// rejected coupon never holds inventory and a failed reservation leaves no
// partial state.
type CheckoutService struct {
	store     storage.Store
	inventory *InventoryService
	coupons   *CouponService
}

func NewCheckoutService(store storage.Store, inventory *InventoryService, coupons *CouponService) *CheckoutService {
	return &CheckoutService{store: store, inventory: inventory, coupons: coupons}
}

// CreateOrder runs one checkout attempt. Cash orders start in
// PENDING_PAYMENT and wait for in-person settlement; online orders start in
// PENDING and wait for the payment gateway.
func (s *CheckoutService) CreateOrder(ctx context.Context, userID uuid.UUID, selections []TierSelection, couponCode string, cash bool) (*models.Order, error) {
	if len(selections) == 0 {
		return nil, &ValidationError{Message: "no tickets selected"}
	}

	lines := make([]CheckoutLine, 0, len(selections))
	var eventID uuid.UUID
	for _, sel := range selections {
		if sel.Quantity <= 0 {
			return nil, &ValidationError{Message: "ticket quantity must be positive"}
		}
		tier, err := s.store.GetTier(ctx, sel.TierID)
		if err != nil {
			if errors.Is(err, storage.ErrTierNotFound) {
				return nil, validationErrorf("tier %s not found", sel.TierID)
			}
			return nil, err
		}
		if eventID == uuid.Nil {
			eventID = tier.EventID
		} else if tier.EventID != eventID {
			return nil, &ValidationError{Message: "all tickets must belong to the same event"}
		}
		lines = append(lines, CheckoutLine{Tier: *tier, Quantity: sel.Quantity})
	}

	var coupon *models.Coupon
	if couponCode != "" {
		var err error
		coupon, err = s.coupons.Resolve(ctx, couponCode)
		if err != nil {
			return nil, err
		}
		total := orderTotal(lines, nil)
		if err := s.coupons.ValidateAtCheckout(ctx, coupon, userID, eventID, lines, total); err != nil {
			return nil, err
		}
	}

	// Reserve tier by tier; undo everything reserved so far on failure so
	// a rejected checkout leaves no trace in the counters.
	var reserved []CheckoutLine
	for _, line := range lines {
		if err := s.inventory.Reserve(ctx, line.Tier.ID, line.Quantity); err != nil {
			s.rollbackReservations(ctx, reserved)
			if errors.Is(err, storage.ErrCapacityExceeded) {
				return nil, validationErrorf("not enough tickets left in tier %s", line.Tier.Name)
			}
			return nil, err
		}
		reserved = append(reserved, line)
	}

	if coupon != nil {
		if err := s.coupons.Consume(ctx, coupon.ID); err != nil {
			s.rollbackReservations(ctx, reserved)
			return nil, err
		}
	}

	status := models.OrderPending
	if cash {
		status = models.OrderPendingPayment
	}

	order := &models.Order{
		ID:     uuid.New(),
		UserID: userID,
		Status: status,
		Total:  orderTotal(lines, coupon),
	}
	if coupon != nil {
		order.CouponID = &coupon.ID
	}

	var tickets []models.Ticket
	for _, line := range lines {
		for i := 0; i < line.Quantity; i++ {
			tickets = append(tickets, models.Ticket{
				ID:     uuid.New(),
				TierID: line.Tier.ID,
			})
		}
	}

	if err := s.store.CreateOrderWithTickets(ctx, order, tickets); err != nil {
		s.rollbackReservations(ctx, reserved)
		if coupon != nil {
			if _, rerr := s.coupons.ReleaseUsage(ctx, coupon.ID); rerr != nil {
				log.Printf("checkout: failed to release coupon %s after aborted order: %v", coupon.ID, rerr)
			}
		}
		return nil, err
	}

	order.Tickets = tickets
	return order, nil
}

func (s *CheckoutService) rollbackReservations(ctx context.Context, reserved []CheckoutLine) {
	for _, line := range reserved {
		if err := s.inventory.Release(ctx, line.Tier.ID, line.Quantity); err != nil {
			log.Printf("checkout: failed to roll back %d units of tier %s: %v", line.Quantity, line.Tier.ID, err)
		}
	}
}

func orderTotal(lines []CheckoutLine, coupon *models.Coupon) int {
	var total int
	for _, line := range lines {
		price := line.Tier.Price
		if coupon != nil && coupon.AppliesToTier(line.Tier.ID) {
			price = coupon.DiscountedPrice(price)
		}
		total += price * line.Quantity
	}
	return total
}
