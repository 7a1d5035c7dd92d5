package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Ticket is one sold unit of a tier, owned by exactly one order. Its
// status follows the order's until the ticket is scanned at the venue.
type Ticket struct {
	gorm.Model
	ID      uuid.UUID   `gorm:"type:uuid;primary_key" json:"id"`
	OrderID uuid.UUID   `gorm:"type:uuid;not null;index" json:"order_id"`
	Order   Order       `json:"-"`
	TierID  uuid.UUID   `gorm:"type:uuid;not null;index" json:"tier_id"`
	Tier    Tier        `json:"-"`
	Status  OrderStatus `gorm:"not null;default:'PENDING'" json:"status"`
	IsUsed  bool        `gorm:"not null;default:false" json:"is_used"`
}

func (ticket *Ticket) BeforeCreate(tx *gorm.DB) (err error) {
	if ticket.ID == uuid.Nil {
		ticket.ID = uuid.New()
	}
	return
}
