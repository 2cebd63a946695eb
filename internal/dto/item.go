package dto

import "github.com/shopspring/decimal"

type CreateItemRequest struct {
	Name            string  `json:"name" binding:"required"`
	Description     string  `json:"description"`
	SKU             string  `json:"sku"`
	CategoryID      *string `json:"category_id" binding:"omitempty,uuid"`
	LocationID      *string `json:"location_id" binding:"omitempty,uuid"`
	ReorderQuantity int     `json:"reorder_quantity" binding:"omitempty,gt=0"`
	CurrentStock    int     `json:"current_stock" binding:"omitempty,gte=0"`
	MinimumStock    int     `json:"minimum_stock" binding:"omitempty,gte=0"`
	Notes           string  `json:"notes"`
}

type UpdateItemRequest struct {
	Name            *string `json:"name"`
	Description     *string `json:"description"`
	CategoryID      *string `json:"category_id" binding:"omitempty,uuid"`
	LocationID      *string `json:"location_id" binding:"omitempty,uuid"`
	ReorderQuantity *int    `json:"reorder_quantity" binding:"omitempty,gt=0"`
	MinimumStock    *int    `json:"minimum_stock" binding:"omitempty,gte=0"`
	Active          *bool   `json:"active"`
	Notes           *string `json:"notes"`
}

type AdjustStockRequest struct {
	Delta  int    `json:"delta" binding:"required"`
	Reason string `json:"reason"`
}

type LogUsageRequest struct {
	Quantity int    `json:"quantity" binding:"omitempty,gt=0"`
	UsedBy   string `json:"used_by"`
	Notes    string `json:"notes"`
}

type ItemResponse struct {
	ID              string  `json:"id"`
	Name            string  `json:"name"`
	Description     string  `json:"description,omitempty"`
	SKU             string  `json:"sku"`
	Category        string  `json:"category,omitempty"`
	Location        string  `json:"location,omitempty"`
	ReorderQuantity int     `json:"reorder_quantity"`
	CurrentStock    int     `json:"current_stock"`
	MinimumStock    int     `json:"minimum_stock"`
	NeedsOrder      bool    `json:"needs_order"`
	Active          bool    `json:"active"`
	Notes           string  `json:"notes,omitempty"`
	PrimarySupplier *string `json:"primary_supplier,omitempty"`
}

type UsageLogResponse struct {
	ID       string `json:"id"`
	ItemID   string `json:"item_id"`
	Quantity int    `json:"quantity"`
	UsedBy   string `json:"used_by,omitempty"`
	Notes    string `json:"notes,omitempty"`
	UsedAt   string `json:"used_at"`
}

type StockMovementResponse struct {
	ID          string `json:"id"`
	ItemID      string `json:"item_id"`
	Delta       int    `json:"delta"`
	Reason      string `json:"reason"`
	Reference   string `json:"reference,omitempty"`
	PerformedBy string `json:"performed_by,omitempty"`
	CreatedAt   string `json:"created_at"`
}

type LowStockItem struct {
	ID           string           `json:"id"`
	Name         string           `json:"name"`
	CurrentStock int              `json:"current_stock"`
	MinimumStock int              `json:"minimum_stock"`
	UnitCost     *decimal.Decimal `json:"unit_cost,omitempty"`
}
