package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Payment records an online settlement attempt against an order. The
// actual capture happens at the gateway; this row only mirrors its state.
type Payment struct {
	ID            uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	Amount        int       `gorm:"not null" json:"amount"`
	Method        string    `gorm:"not null" json:"method"`
	Status        string    `gorm:"not null;default:'pending'" json:"status"`
	TransactionID string    `gorm:"not null" json:"transaction_id"`
	UserID        uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	User          *User     `gorm:"foreignKey:UserID" json:"-"`
	OrderID       uuid.UUID `gorm:"type:uuid;not null;index" json:"order_id"`
	Order         *Order    `gorm:"foreignKey:OrderID" json:"-"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
	DeletedAt     gorm.DeletedAt `gorm:"index"`
}

func (payment *Payment) BeforeCreate(tx *gorm.DB) (err error) {
	if payment.ID == uuid.Nil {
		payment.ID = uuid.New()
	}
	return
}
