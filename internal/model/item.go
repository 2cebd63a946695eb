package model

import (
	"time"

	"github.com/google/uuid"
)

// Item is a trackable supply unit in the makerspace.
// Stock is only mutated through usage logging, manual adjustments, and
// received reorder deliveries, never set directly by API writes.
type Item struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Name        string    `gorm:"index;not null"`
	Description string
	// SKU is auto-generated (UUID) when not supplied at creation.
	SKU        string     `gorm:"uniqueIndex;not null"`
	CategoryID *uuid.UUID `gorm:"type:uuid;index"`
	LocationID *uuid.UUID `gorm:"type:uuid;index"`

	ReorderQuantity int `gorm:"not null;default:1"` // default quantity for new reorder requests
	CurrentStock    int `gorm:"not null;default:0"`
	MinimumStock    int `gorm:"not null;default:0"`

	Active    bool `gorm:"not null;default:true"`
	Notes     string
	CreatedAt time.Time
	UpdatedAt time.Time

	Category      *Category      `gorm:"foreignKey:CategoryID"`
	Location      *Location      `gorm:"foreignKey:LocationID"`
	SupplierLinks []SupplierLink `gorm:"foreignKey:ItemID"`
}

// NeedsOrder reports whether stock has fallen below the minimum threshold.
func (i *Item) NeedsOrder() bool { return i.CurrentStock < i.MinimumStock }

// PrimaryLink returns the preferred supplier link when loaded, falling back
// to the first link if none is flagged primary.
func (i *Item) PrimaryLink() *SupplierLink {
	for idx := range i.SupplierLinks {
		if i.SupplierLinks[idx].IsPrimary {
			return &i.SupplierLinks[idx]
		}
	}
	if len(i.SupplierLinks) > 0 {
		return &i.SupplierLinks[0]
	}
	return nil
}
