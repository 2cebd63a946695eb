package dto

import "github.com/shopspring/decimal"

// PriceHistoryFilter narrows ledger queries. Zero values mean no bound.
type PriceHistoryFilter struct {
	From  string `form:"from" binding:"omitempty,datetime=2006-01-02"`
	To    string `form:"to" binding:"omitempty,datetime=2006-01-02"`
	Limit int    `form:"limit" binding:"omitempty,gt=0,lte=500"`
}

type PriceHistoryResponse struct {
	ID                 string           `json:"id"`
	SupplierLinkID     string           `json:"supplier_link_id"`
	UnitCost           *decimal.Decimal `json:"unit_cost,omitempty"`
	PackageCost        *decimal.Decimal `json:"package_cost,omitempty"`
	QuantityPerPackage int              `json:"quantity_per_package"`
	ChangeKind         string           `json:"change_kind"`
	PercentChange      *decimal.Decimal `json:"percent_change,omitempty"`
	Notes              string           `json:"notes,omitempty"`
	RecordedAt         string           `json:"recorded_at"`
}
