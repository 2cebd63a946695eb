package model

import (
	"time"

	"github.com/google/uuid"
)

// Supplier type classification by distribution channel.
const (
	SupplierLocal    = "local"
	SupplierOnline   = "online"
	SupplierNational = "national"
)

type Supplier struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Name      string    `gorm:"index;not null"`
	Type      string    `gorm:"not null;default:'online'"` // local | online | national
	Website   *string
	Notes     string
	CreatedAt time.Time
	UpdatedAt time.Time

	Links []SupplierLink `gorm:"foreignKey:SupplierID"`
}
