package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Coupon is a discount code for one event. UsedCount tracks the number of
// live (non-cancelled) orders that applied it and must only be mutated
// through the coupon service, in lockstep with the order lifecycle.
type Coupon struct {
	ID             uuid.UUID  `gorm:"type:uuid;primary_key" json:"id"`
	Code           string     `gorm:"not null;uniqueIndex" json:"code"`
	EventID        uuid.UUID  `gorm:"type:uuid;not null;index" json:"event_id"`
	Event          Event      `json:"-"`
	Discount       int        `gorm:"not null" json:"discount"`
	UsedCount      int        `gorm:"not null;default:0" json:"used_count"`
	MaxUses        *int       `json:"max_uses,omitempty"`
	MaxUsesPerUser *int       `json:"max_uses_per_user,omitempty"`
	IsActive       bool       `gorm:"not null;default:true" json:"is_active"`
	ValidFrom      *time.Time `json:"valid_from,omitempty"`
	ValidUntil     *time.Time `json:"valid_until,omitempty"`
	MinPurchase    *int       `json:"min_purchase,omitempty"`
	// Tiers restricts the coupon to a subset of the event's tiers.
	// Empty means the coupon applies to every tier of the event.
	Tiers     []Tier `gorm:"many2many:coupon_tiers;" json:"tiers,omitempty"`
	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt gorm.DeletedAt `gorm:"index"`
}

func (coupon *Coupon) BeforeCreate(tx *gorm.DB) (err error) {
	if coupon.ID == uuid.Nil {
		coupon.ID = uuid.New()
	}
	coupon.Code = NormalizeCouponCode(coupon.Code)
	return
}

// NormalizeCouponCode upper-cases and trims a code so lookups are
// case-insensitive.
func NormalizeCouponCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// AppliesToTier reports whether the coupon covers the given tier. A coupon
// with no tier restriction covers every tier of its event.
func (c *Coupon) AppliesToTier(tierID uuid.UUID) bool {
	if len(c.Tiers) == 0 {
		return true
	}
	for _, t := range c.Tiers {
		if t.ID == tierID {
			return true
		}
	}
	return false
}

// DiscountedPrice applies the percentage discount to a tier price.
func (c *Coupon) DiscountedPrice(price int) int {
	return price - (price * c.Discount / 100)
}
