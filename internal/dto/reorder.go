package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

type SubmitReorderRequest struct {
	ItemID   string `json:"item_id" binding:"required,uuid"`
	Quantity int    `json:"quantity" binding:"omitempty,gt=0"`
	Priority string `json:"priority" binding:"omitempty,oneof=low normal high urgent"`
	Notes    string `json:"notes"`
}

type ReviewReorderRequest struct {
	AdminNotes string `json:"admin_notes"`
}

type MarkOrderedRequest struct {
	OrderNumber string           `json:"order_number"`
	ActualCost  *decimal.Decimal `json:"actual_cost"`
	AdminNotes  string           `json:"admin_notes"`
}

type MarkReceivedRequest struct {
	// DeliveredAt lets a delivery be logged after the fact. Defaults to
	// now when omitted.
	DeliveredAt *time.Time       `json:"delivered_at"`
	ActualCost  *decimal.Decimal `json:"actual_cost"`
	AdminNotes  string           `json:"admin_notes"`
}

type ReorderResponse struct {
	ID                string           `json:"id"`
	ItemID            string           `json:"item_id"`
	ItemName          string           `json:"item_name,omitempty"`
	Quantity          int              `json:"quantity"`
	Status            string           `json:"status"`
	Priority          string           `json:"priority"`
	RequestedBy       string           `json:"requested_by"`
	RequestNotes      string           `json:"request_notes,omitempty"`
	RequestedAt       string           `json:"requested_at"`
	ReviewedBy        *string          `json:"reviewed_by,omitempty"`
	ReviewedAt        *string          `json:"reviewed_at,omitempty"`
	AdminNotes        string           `json:"admin_notes,omitempty"`
	OrderedAt         *string          `json:"ordered_at,omitempty"`
	OrderNumber       string           `json:"order_number,omitempty"`
	EstimatedDelivery string           `json:"estimated_delivery"`
	ActualDelivery    *string          `json:"actual_delivery,omitempty"`
	EstimatedCost     *decimal.Decimal `json:"estimated_cost,omitempty"`
	ActualCost        *decimal.Decimal `json:"actual_cost,omitempty"`
	DaysPending       int              `json:"days_pending"`
}

type QueueSummary struct {
	Pending  int `json:"pending"`
	Approved int `json:"approved"`
	Ordered  int `json:"ordered"`
}

// ReorderStatusResponse answers "where does this item stand" in one
// shot: either a stock verdict or the in-flight request's status.
type ReorderStatusResponse struct {
	ItemID        string           `json:"item_id"`
	ItemName      string           `json:"item_name,omitempty"`
	Status        string           `json:"status"`
	CurrentStock  int              `json:"current_stock"`
	MinimumStock  int              `json:"minimum_stock"`
	ActiveRequest *ReorderResponse `json:"active_request,omitempty"`
}

// SupplierQueueGroup is one bucket of the bulk-ordering view: pending
// requests sharing a primary supplier, with their estimated total.
type SupplierQueueGroup struct {
	SupplierID     string            `json:"supplier_id,omitempty"`
	SupplierName   string            `json:"supplier_name,omitempty"`
	Requests       []ReorderResponse `json:"requests"`
	EstimatedTotal *decimal.Decimal  `json:"estimated_total,omitempty"`
}
