package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Tier is a priced ticket category with a fixed capacity. Sold is the
// number of units currently committed to live orders; it is only ever
// mutated through the inventory service.
type Tier struct {
	gorm.Model
	ID       uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	Name     string    `gorm:"not null" json:"name"`
	Price    int       `gorm:"not null" json:"price"`
	Capacity int       `gorm:"not null" json:"capacity"`
	Sold     int       `gorm:"not null;default:0" json:"sold"`
	EventID  uuid.UUID `gorm:"type:uuid;not null;index" json:"event_id"`
	Event    Event     `json:"-"`
}

func (tier *Tier) BeforeCreate(tx *gorm.DB) (err error) {
	if tier.ID == uuid.Nil {
		tier.ID = uuid.New()
	}
	return
}

func (t *Tier) Remaining() int {
	return t.Capacity - t.Sold
}
