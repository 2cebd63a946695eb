package dto

import "github.com/shopspring/decimal"

type CreateSupplierRequest struct {
	Name    string  `json:"name" binding:"required"`
	Type    string  `json:"type" binding:"omitempty,oneof=local online national"`
	Website *string `json:"website" binding:"omitempty,url"`
	Notes   string  `json:"notes"`
}

type UpdateSupplierRequest struct {
	Name    *string `json:"name"`
	Type    *string `json:"type" binding:"omitempty,oneof=local online national"`
	Website *string `json:"website" binding:"omitempty,url"`
	Notes   *string `json:"notes"`
}

type SupplierResponse struct {
	ID      string  `json:"id"`
	Name    string  `json:"name"`
	Type    string  `json:"type"`
	Website *string `json:"website,omitempty"`
	Notes   string  `json:"notes,omitempty"`
}

type CreateSupplierLinkRequest struct {
	ItemID             string           `json:"item_id" binding:"required,uuid"`
	SupplierID         string           `json:"supplier_id" binding:"required,uuid"`
	SupplierSKU        string           `json:"supplier_sku" binding:"required"`
	SupplierURL        *string          `json:"supplier_url" binding:"omitempty,url"`
	PackageUPC         string           `json:"package_upc"`
	UnitUPC            string           `json:"unit_upc"`
	QuantityPerPackage int              `json:"quantity_per_package" binding:"omitempty,gt=0"`
	UnitCost           *decimal.Decimal `json:"unit_cost"`
	PackageCost        *decimal.Decimal `json:"package_cost"`
	IsPrimary          bool             `json:"is_primary"`
	Notes              string           `json:"notes"`
}

type UpdateSupplierLinkRequest struct {
	SupplierID         *string          `json:"supplier_id" binding:"omitempty,uuid"`
	SupplierSKU        *string          `json:"supplier_sku"`
	SupplierURL        *string          `json:"supplier_url" binding:"omitempty,url"`
	PackageUPC         *string          `json:"package_upc"`
	UnitUPC            *string          `json:"unit_upc"`
	QuantityPerPackage *int             `json:"quantity_per_package" binding:"omitempty,gt=0"`
	UnitCost           *decimal.Decimal `json:"unit_cost"`
	PackageCost        *decimal.Decimal `json:"package_cost"`
	IsPrimary          *bool            `json:"is_primary"`
	Active             *bool            `json:"active"`
	Notes              *string          `json:"notes"`
}

type SupplierLinkResponse struct {
	ID                 string           `json:"id"`
	ItemID             string           `json:"item_id"`
	SupplierID         string           `json:"supplier_id"`
	SupplierName       string           `json:"supplier_name,omitempty"`
	SupplierSKU        string           `json:"supplier_sku"`
	SupplierURL        *string          `json:"supplier_url,omitempty"`
	QuantityPerPackage int              `json:"quantity_per_package"`
	UnitCost           *decimal.Decimal `json:"unit_cost,omitempty"`
	PackageCost        *decimal.Decimal `json:"package_cost,omitempty"`
	AvgLeadTimeDays    int              `json:"avg_lead_time_days"`
	IsPrimary          bool             `json:"is_primary"`
	Active             bool             `json:"active"`
}
