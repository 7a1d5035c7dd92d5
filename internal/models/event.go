package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Event struct {
	gorm.Model
	ID          uuid.UUID  `gorm:"type:uuid;primary_key" json:"id"`
	Title       string     `gorm:"not null" json:"title"`
	Description string     `gorm:"not null" json:"description"`
	StartTime   time.Time  `gorm:"not null" json:"start_time"`
	EndTime     time.Time  `gorm:"not null" json:"end_time"`
	City        string     `gorm:"not null" json:"city"`
	Location    string     `gorm:"not null" json:"location"`
	Categories  []Category `gorm:"many2many:event_categories;" json:"categories,omitempty"`
	Tiers       []Tier     `json:"tiers,omitempty"`
	User        User       `json:"-"`
	UserID      uuid.UUID  `json:"user_id"`
}

func (event *Event) BeforeCreate(tx *gorm.DB) (err error) {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	return
}
