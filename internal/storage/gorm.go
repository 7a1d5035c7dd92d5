package storage

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nandaardn/eventix/internal/models"
)

// GormStore implements Store on top of the shared gorm connection.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) GetTier(ctx context.Context, tierID uuid.UUID) (*models.Tier, error) {
	var tier models.Tier
	if err := s.db.WithContext(ctx).First(&tier, "id = ?", tierID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTierNotFound
		}
		return nil, err
	}
	return &tier, nil
}

func (s *GormStore) ReserveTierUnits(ctx context.Context, tierID uuid.UUID, qty int) error {
	res := s.db.WithContext(ctx).Model(&models.Tier{}).
		Where("id = ? AND sold + ? <= capacity", tierID, qty).
		UpdateColumn("sold", gorm.Expr("sold + ?", qty))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		if _, err := s.GetTier(ctx, tierID); err != nil {
			return err
		}
		return ErrCapacityExceeded
	}
	return nil
}

func (s *GormStore) ReleaseTierUnits(ctx context.Context, tierID uuid.UUID, qty int) (bool, error) {
	res := s.db.WithContext(ctx).Model(&models.Tier{}).
		Where("id = ? AND sold >= ?", tierID, qty).
		UpdateColumn("sold", gorm.Expr("sold - ?", qty))
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected > 0 {
		return false, nil
	}

	// The counter is already below qty: a concurrent release got here
	// first. Clamp at zero instead of going negative.
	if _, err := s.GetTier(ctx, tierID); err != nil {
		return false, err
	}
	res = s.db.WithContext(ctx).Model(&models.Tier{}).
		Where("id = ?", tierID).
		UpdateColumn("sold", gorm.Expr("GREATEST(sold - ?, 0)", qty))
	if res.Error != nil {
		return false, res.Error
	}
	return true, nil
}

func (s *GormStore) CreateOrderWithTickets(ctx context.Context, order *models.Order, tickets []models.Ticket) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(order).Error; err != nil {
			return err
		}
		for i := range tickets {
			tickets[i].OrderID = order.ID
			tickets[i].Status = order.Status
		}
		return tx.Create(&tickets).Error
	})
}

func (s *GormStore) GetOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	var order models.Order
	if err := s.db.WithContext(ctx).Preload("Tickets").First(&order, "id = ?", orderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	return &order, nil
}

func (s *GormStore) ListOrdersForExpiry(ctx context.Context, status models.OrderStatus, cutoff time.Time, limit int) ([]models.Order, error) {
	var orders []models.Order
	err := s.db.WithContext(ctx).
		Where("status = ? AND created_at < ?", status, cutoff).
		Order("created_at").
		Limit(limit).
		Find(&orders).Error
	return orders, err
}

func (s *GormStore) TicketsForOrder(ctx context.Context, orderID uuid.UUID) ([]models.Ticket, error) {
	var tickets []models.Ticket
	err := s.db.WithContext(ctx).Where("order_id = ?", orderID).Find(&tickets).Error
	return tickets, err
}

func (s *GormStore) MarkOrderCancelled(ctx context.Context, orderID uuid.UUID, reason string) (bool, error) {
	res := s.db.WithContext(ctx).Model(&models.Order{}).
		Where("id = ? AND status IN ?", orderID, []models.OrderStatus{models.OrderPending, models.OrderPendingPayment}).
		Updates(map[string]interface{}{
			"status":         models.OrderCancelled,
			"failure_reason": reason,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (s *GormStore) MarkTicketsCancelled(ctx context.Context, orderID uuid.UUID) error {
	return s.db.WithContext(ctx).Model(&models.Ticket{}).
		Where("order_id = ?", orderID).
		Update("status", models.OrderCancelled).Error
}

func (s *GormStore) MarkOrderPaid(ctx context.Context, orderID uuid.UUID) (bool, error) {
	var flipped bool
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Order{}).
			Where("id = ? AND status IN ?", orderID, []models.OrderStatus{models.OrderPending, models.OrderPendingPayment}).
			Update("status", models.OrderPaid)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		flipped = true
		return tx.Model(&models.Ticket{}).
			Where("order_id = ?", orderID).
			Update("status", models.OrderPaid).Error
	})
	return flipped, err
}

func (s *GormStore) GetCouponByCode(ctx context.Context, code string) (*models.Coupon, error) {
	var coupon models.Coupon
	err := s.db.WithContext(ctx).Preload("Tiers").
		Where("code = ?", models.NormalizeCouponCode(code)).
		First(&coupon).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCouponNotFound
		}
		return nil, err
	}
	return &coupon, nil
}

func (s *GormStore) CountLiveCouponOrders(ctx context.Context, couponID, userID uuid.UUID) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.Order{}).
		Where("coupon_id = ? AND user_id = ? AND status <> ?", couponID, userID, models.OrderCancelled).
		Count(&count).Error
	return count, err
}

func (s *GormStore) ConsumeCouponUse(ctx context.Context, couponID uuid.UUID) error {
	res := s.db.WithContext(ctx).Model(&models.Coupon{}).
		Where("id = ? AND is_active = true AND (max_uses IS NULL OR used_count < max_uses)", couponID).
		UpdateColumn("used_count", gorm.Expr("used_count + 1"))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		var coupon models.Coupon
		if err := s.db.WithContext(ctx).First(&coupon, "id = ?", couponID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrCouponNotFound
			}
			return err
		}
		return ErrCouponExhausted
	}
	return nil
}

func (s *GormStore) ReleaseCouponUse(ctx context.Context, couponID uuid.UUID) (bool, error) {
	res := s.db.WithContext(ctx).Model(&models.Coupon{}).
		Where("id = ? AND used_count > 0", couponID).
		UpdateColumn("used_count", gorm.Expr("used_count - 1"))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (s *GormStore) WithinTx(ctx context.Context, fn func(Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GormStore{db: tx})
	})
}
