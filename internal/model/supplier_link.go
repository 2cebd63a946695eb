package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SupplierLink is the priced relationship between one item and one supplier:
// supplier-specific SKU, package size, costs, and the denormalized average
// lead time maintained by the lead time estimator.
//
// Pricing mutations on this record are the single write path into the price
// history ledger.
type SupplierLink struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ItemID     uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_item_supplier"`
	SupplierID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_item_supplier"`

	SupplierSKU string `gorm:"not null"`
	SupplierURL *string
	PackageUPC  string
	UnitUPC     string

	QuantityPerPackage int              `gorm:"not null;default:1"`
	UnitCost           *decimal.Decimal `gorm:"type:decimal(10,2)"`
	PackageCost        *decimal.Decimal `gorm:"type:decimal(10,2)"`

	// AvgLeadTimeDays is recomputed out-of-band from completed reorders.
	// 0 means no estimate is known yet.
	AvgLeadTimeDays int `gorm:"not null;default:7"`

	IsPrimary bool `gorm:"not null;default:false"`
	Active    bool `gorm:"not null;default:true"`
	Notes     string
	CreatedAt time.Time
	UpdatedAt time.Time

	Item     *Item     `gorm:"foreignKey:ItemID"`
	Supplier *Supplier `gorm:"foreignKey:SupplierID"`
}

func (SupplierLink) TableName() string { return "supplier_links" }
