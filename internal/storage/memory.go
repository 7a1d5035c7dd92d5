package storage

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nandaardn/eventix/internal/models"
)

// MemoryStore is an in-memory Store used by tests and local development.
// Conditional-update semantics match the gorm implementation; WithinTx runs
// the callback directly without rollback.
type MemoryStore struct {
	mutex   sync.RWMutex
	tiers   map[uuid.UUID]*models.Tier
	orders  map[uuid.UUID]*models.Order
	tickets map[uuid.UUID]*models.Ticket
	coupons map[uuid.UUID]*models.Coupon
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		tiers:   make(map[uuid.UUID]*models.Tier),
		orders:  make(map[uuid.UUID]*models.Order),
		tickets: make(map[uuid.UUID]*models.Ticket),
		coupons: make(map[uuid.UUID]*models.Coupon),
	}
}

// AddTier seeds a tier. Not part of the Store interface.
func (s *MemoryStore) AddTier(tier models.Tier) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if tier.ID == uuid.Nil {
		tier.ID = uuid.New()
	}
	s.tiers[tier.ID] = &tier
}

// AddCoupon seeds a coupon. Not part of the Store interface.
func (s *MemoryStore) AddCoupon(coupon models.Coupon) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if coupon.ID == uuid.Nil {
		coupon.ID = uuid.New()
	}
	coupon.Code = models.NormalizeCouponCode(coupon.Code)
	s.coupons[coupon.ID] = &coupon
}

func (s *MemoryStore) GetTier(ctx context.Context, tierID uuid.UUID) (*models.Tier, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	tier, exists := s.tiers[tierID]
	if !exists {
		return nil, ErrTierNotFound
	}
	copied := *tier
	return &copied, nil
}

func (s *MemoryStore) ReserveTierUnits(ctx context.Context, tierID uuid.UUID, qty int) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	tier, exists := s.tiers[tierID]
	if !exists {
		return ErrTierNotFound
	}
	if tier.Sold+qty > tier.Capacity {
		return ErrCapacityExceeded
	}
	tier.Sold += qty
	return nil
}

func (s *MemoryStore) ReleaseTierUnits(ctx context.Context, tierID uuid.UUID, qty int) (bool, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	tier, exists := s.tiers[tierID]
	if !exists {
		return false, ErrTierNotFound
	}
	if tier.Sold >= qty {
		tier.Sold -= qty
		return false, nil
	}
	tier.Sold = 0
	return true, nil
}

func (s *MemoryStore) CreateOrderWithTickets(ctx context.Context, order *models.Order, tickets []models.Ticket) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	if order.CreatedAt.IsZero() {
		order.CreatedAt = time.Now()
	}
	copied := *order
	s.orders[order.ID] = &copied

	for i := range tickets {
		if tickets[i].ID == uuid.Nil {
			tickets[i].ID = uuid.New()
		}
		tickets[i].OrderID = order.ID
		tickets[i].Status = order.Status
		t := tickets[i]
		s.tickets[t.ID] = &t
	}
	return nil
}

func (s *MemoryStore) GetOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	order, exists := s.orders[orderID]
	if !exists {
		return nil, ErrOrderNotFound
	}
	copied := *order
	return &copied, nil
}

func (s *MemoryStore) ListOrdersForExpiry(ctx context.Context, status models.OrderStatus, cutoff time.Time, limit int) ([]models.Order, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	var orders []models.Order
	for _, order := range s.orders {
		if order.Status == status && order.CreatedAt.Before(cutoff) {
			orders = append(orders, *order)
			if len(orders) >= limit {
				break
			}
		}
	}
	return orders, nil
}

func (s *MemoryStore) TicketsForOrder(ctx context.Context, orderID uuid.UUID) ([]models.Ticket, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	var tickets []models.Ticket
	for _, ticket := range s.tickets {
		if ticket.OrderID == orderID {
			tickets = append(tickets, *ticket)
		}
	}
	return tickets, nil
}

func (s *MemoryStore) MarkOrderCancelled(ctx context.Context, orderID uuid.UUID, reason string) (bool, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	order, exists := s.orders[orderID]
	if !exists {
		return false, ErrOrderNotFound
	}
	if !order.Status.Cancellable() {
		return false, nil
	}
	order.Status = models.OrderCancelled
	order.FailureReason = &reason
	order.UpdatedAt = time.Now()
	return true, nil
}

func (s *MemoryStore) MarkTicketsCancelled(ctx context.Context, orderID uuid.UUID) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	for _, ticket := range s.tickets {
		if ticket.OrderID == orderID {
			ticket.Status = models.OrderCancelled
			ticket.UpdatedAt = time.Now()
		}
	}
	return nil
}

func (s *MemoryStore) MarkOrderPaid(ctx context.Context, orderID uuid.UUID) (bool, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	order, exists := s.orders[orderID]
	if !exists {
		return false, ErrOrderNotFound
	}
	if !order.Status.Cancellable() {
		return false, nil
	}
	order.Status = models.OrderPaid
	for _, ticket := range s.tickets {
		if ticket.OrderID == orderID {
			ticket.Status = models.OrderPaid
		}
	}
	return true, nil
}

func (s *MemoryStore) GetCouponByCode(ctx context.Context, code string) (*models.Coupon, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	normalized := models.NormalizeCouponCode(code)
	for _, coupon := range s.coupons {
		if coupon.Code == normalized {
			copied := *coupon
			return &copied, nil
		}
	}
	return nil, ErrCouponNotFound
}

func (s *MemoryStore) CountLiveCouponOrders(ctx context.Context, couponID, userID uuid.UUID) (int64, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	var count int64
	for _, order := range s.orders {
		if order.CouponID != nil && *order.CouponID == couponID &&
			order.UserID == userID && order.Status != models.OrderCancelled {
			count++
		}
	}
	return count, nil
}

func (s *MemoryStore) ConsumeCouponUse(ctx context.Context, couponID uuid.UUID) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	coupon, exists := s.coupons[couponID]
	if !exists {
		return ErrCouponNotFound
	}
	if !coupon.IsActive {
		return ErrCouponExhausted
	}
	if coupon.MaxUses != nil && coupon.UsedCount >= *coupon.MaxUses {
		return ErrCouponExhausted
	}
	coupon.UsedCount++
	return nil
}

func (s *MemoryStore) ReleaseCouponUse(ctx context.Context, couponID uuid.UUID) (bool, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	coupon, exists := s.coupons[couponID]
	if !exists {
		return false, ErrCouponNotFound
	}
	if coupon.UsedCount == 0 {
		return false, nil
	}
	coupon.UsedCount--
	return true, nil
}

func (s *MemoryStore) WithinTx(ctx context.Context, fn func(Store) error) error {
	return fn(s)
}
