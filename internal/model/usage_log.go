package model

import (
	"time"

	"github.com/google/uuid"
)

// UsageLog records consumption of an item by a member. Each entry
// decrements the item's stock in the same transaction that creates it.
type UsageLog struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ItemID   uuid.UUID `gorm:"type:uuid;not null;index"`
	Quantity int       `gorm:"not null;default:1"`
	UsedBy   string
	Notes    string
	UsedAt   time.Time `gorm:"autoCreateTime;index"`

	Item *Item `gorm:"foreignKey:ItemID"`
}
