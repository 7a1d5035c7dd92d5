package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type OrderStatus string

const (
	// OrderPending is an online checkout awaiting payment confirmation.
	OrderPending OrderStatus = "PENDING"
	// OrderPendingPayment is a cash sale awaiting in-person settlement.
	// It is an initial status chosen at creation, not reached from PENDING.
	OrderPendingPayment OrderStatus = "PENDING_PAYMENT"
	OrderPaid           OrderStatus = "PAID"
	OrderCancelled      OrderStatus = "CANCELLED"
)

// Cancellation reasons stamped on expired orders.
const (
	ReasonCheckoutAbandoned = "abandoned during checkout"
	ReasonCashHoldExpired   = "cash hold expired"
)

func (s OrderStatus) Terminal() bool {
	return s == OrderPaid || s == OrderCancelled
}

// Cancellable reports whether an order in this status may still be
// cancelled. Only the expiration sweeper moves orders out of these states.
func (s OrderStatus) Cancellable() bool {
	return s == OrderPending || s == OrderPendingPayment
}

// Order is one checkout attempt. It owns its tickets and optionally
// references the coupon applied at checkout. Orders are never hard-deleted;
// expired ones are kept as CANCELLED with a failure reason.
type Order struct {
	gorm.Model
	ID            uuid.UUID   `gorm:"type:uuid;primary_key" json:"id"`
	UserID        uuid.UUID   `gorm:"type:uuid;not null;index" json:"user_id"`
	User          User        `json:"-"`
	Status        OrderStatus `gorm:"not null;default:'PENDING';index" json:"status"`
	Total         int         `gorm:"not null" json:"total"`
	CouponID      *uuid.UUID  `gorm:"type:uuid;index" json:"coupon_id,omitempty"`
	Coupon        *Coupon     `json:"-"`
	FailureReason *string     `json:"failure_reason,omitempty"`
	Tickets       []Ticket    `json:"tickets,omitempty"`
}

func (order *Order) BeforeCreate(tx *gorm.DB) (err error) {
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	return
}
