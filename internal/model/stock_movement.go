package model

import (
	"time"

	"github.com/google/uuid"
)

// Stock movement reasons.
const (
	MovementUsage      = "usage"
	MovementAdjustment = "adjustment"
	MovementDelivery   = "delivery"
)

// StockMovement is the audit trail for every change to an item's stock
// level, written in the same transaction as the change itself.
type StockMovement struct {
	ID     uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ItemID uuid.UUID `gorm:"type:uuid;not null;index"`
	// Delta is signed: negative for consumption, positive for restock.
	Delta       int    `gorm:"not null"`
	Reason      string `gorm:"not null"` // usage | adjustment | delivery
	Reference   string // reorder request ID, usage log ID, or free text
	PerformedBy string
	CreatedAt   time.Time `gorm:"autoCreateTime;index"`

	Item *Item `gorm:"foreignKey:ItemID"`
}
