package worker

import (
	"encoding/json"
	"time"
)

// Job types routed by the worker pool.
const (
	JobWebhookEvent      = "webhook_event"
	JobEmail             = "email"
	JobLeadTimeRecompute = "leadtime_recompute"
)

// queueKey is the Redis list the pool consumes from.
const queueKey = "jobs:queue"

// maxAttempts before a failing job is parked in the dead letter queue.
const maxAttempts = 3

// Job is the envelope pushed onto the Redis queue. Payload stays raw
// until the matching handler unmarshals it.
type Job struct {
	Type     string          `json:"type"`
	Payload  json.RawMessage `json:"payload"`
	Attempts int             `json:"attempts"`
}

// EventPayload carries an outbound lifecycle event.
type EventPayload struct {
	EventType  string         `json:"event_type"`
	Data       map[string]any `json:"data"`
	OccurredAt time.Time      `json:"occurred_at"`
}

// EmailPayload carries a queued notification email.
type EmailPayload struct {
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	Body    string   `json:"body"`
}

// LeadTimePayload requests a lead time recompute for one item.
type LeadTimePayload struct {
	ItemID string `json:"item_id"`
}
