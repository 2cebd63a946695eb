package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Price history change kinds.
const (
	PriceChangeCreated         = "created"
	PriceChangeUpdated         = "updated"
	PriceChangeSupplierChanged = "supplier_changed"
)

// PriceHistoryEntry is an immutable cost snapshot for a supplier link.
// Rows are only ever appended: corrections add a new entry instead of
// rewriting an old one. This is the audit trail for cost trend analysis.
type PriceHistoryEntry struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	SupplierLinkID uuid.UUID `gorm:"type:uuid;not null;index"`

	UnitCost           *decimal.Decimal `gorm:"type:decimal(10,2)"`
	PackageCost        *decimal.Decimal `gorm:"type:decimal(10,2)"`
	QuantityPerPackage int              `gorm:"not null;default:1"`

	ChangeKind string `gorm:"not null"` // created | updated | supplier_changed
	// PercentChange is relative to the previous entry for the same link,
	// nil when there is no prior entry to compare against.
	PercentChange *decimal.Decimal `gorm:"type:decimal(8,2)"`
	Notes         string
	RecordedAt    time.Time `gorm:"autoCreateTime;index"`

	SupplierLink *SupplierLink `gorm:"foreignKey:SupplierLinkID"`
}

func (PriceHistoryEntry) TableName() string { return "price_history" }
