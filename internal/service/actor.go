package service

import (
	"context"

	"github.com/google/uuid"
)

// Actor identifies the authenticated caller of a service operation.
// Admin operations record the actor as reviewer on state transitions.
type Actor struct {
	UserID   uuid.UUID
	Username string
	Role     string
}

// Dispatcher queues background work fire and forget. Enqueue failures
// are logged by the implementation, never surfaced to the caller.
type Dispatcher interface {
	QueueEvent(ctx context.Context, eventType string, payload any)
	QueueEmail(ctx context.Context, to []string, subject, body string)
	QueueLeadTimeRecompute(ctx context.Context, itemID uuid.UUID)
}
