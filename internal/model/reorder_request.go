package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Reorder request statuses. Transitions only move forward:
// pending -> approved -> ordered -> received, with cancellation allowed
// from pending or approved. received and cancelled are terminal.
const (
	ReorderPending   = "pending"
	ReorderApproved  = "approved"
	ReorderOrdered   = "ordered"
	ReorderReceived  = "received"
	ReorderCancelled = "cancelled"
)

// Reorder request priorities.
const (
	PriorityLow    = "low"
	PriorityNormal = "normal"
	PriorityHigh   = "high"
	PriorityUrgent = "urgent"
)

// ActiveStatuses are the non-terminal statuses. At most one request per
// item may hold any of these at a time; the database enforces this with a
// partial unique index on (item_id) filtered to these values.
var ActiveStatuses = []string{ReorderPending, ReorderApproved, ReorderOrdered}

// PriorityRank orders priorities for queue sorting, highest first.
var PriorityRank = map[string]int{
	PriorityUrgent: 3,
	PriorityHigh:   2,
	PriorityNormal: 1,
	PriorityLow:    0,
}

// ReorderRequest tracks one item through the procurement lifecycle.
type ReorderRequest struct {
	ID     uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ItemID uuid.UUID `gorm:"type:uuid;not null;index:idx_reorder_item_status"`

	Quantity int    `gorm:"not null;default:1"`
	Status   string `gorm:"not null;default:'pending';index:idx_reorder_item_status"`
	Priority string `gorm:"not null;default:'normal'"`

	RequestedBy  string `gorm:"not null"`
	RequestNotes string
	RequestedAt  time.Time `gorm:"autoCreateTime;index"`

	ReviewedBy *string
	ReviewedAt *time.Time
	AdminNotes string

	OrderedAt         *time.Time
	OrderNumber       string
	EstimatedDelivery *time.Time

	ActualDelivery *time.Time
	ActualCost     *decimal.Decimal `gorm:"type:decimal(10,2)"`

	Item *Item `gorm:"foreignKey:ItemID"`
}

// Terminal reports whether the request can no longer change state.
func (r *ReorderRequest) Terminal() bool {
	return r.Status == ReorderReceived || r.Status == ReorderCancelled
}

// Active reports whether the request blocks new submissions for its item.
func (r *ReorderRequest) Active() bool { return !r.Terminal() }

// DaysPending is the whole number of days since submission.
func (r *ReorderRequest) DaysPending(now time.Time) int {
	return int(now.Sub(r.RequestedAt).Hours() / 24)
}
