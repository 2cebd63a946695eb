package worker

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/uid0/openmakersuite/internal/infra"
	"github.com/uid0/openmakersuite/internal/service"
)

// WorkerHandlers bundles the per-job-type handlers the pool routes to.
type WorkerHandlers struct {
	Events   *EventHandler
	Email    *EmailHandler
	LeadTime *LeadTimeHandler
}

// EventHandler delivers lifecycle events to the configured webhook.
type EventHandler struct {
	webhook *infra.WebhookClient
}

func NewEventHandler(webhook *infra.WebhookClient) *EventHandler {
	return &EventHandler{webhook: webhook}
}

func (h *EventHandler) Handle(ctx context.Context, raw json.RawMessage) error {
	if !h.webhook.Configured() {
		// No endpoint configured: events are best-effort, drop silently.
		return nil
	}
	var payload EventPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return fmt.Errorf("event payload: %w", err)
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	if err := h.webhook.Post(ctx, body); err != nil {
		return err
	}
	log.Debug().Str("event_type", payload.EventType).Msg("event delivered")
	return nil
}

// EmailHandler sends queued notification emails over SMTP.
type EmailHandler struct {
	mailer *infra.Mailer
}

func NewEmailHandler(mailer *infra.Mailer) *EmailHandler {
	return &EmailHandler{mailer: mailer}
}

func (h *EmailHandler) Handle(ctx context.Context, raw json.RawMessage) error {
	if !h.mailer.Configured() {
		return nil
	}
	var payload EmailPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return fmt.Errorf("email payload: %w", err)
	}
	if err := h.mailer.Send(payload.To, payload.Subject, payload.Body); err != nil {
		return err
	}
	log.Debug().Strs("to", payload.To).Str("subject", payload.Subject).Msg("email sent")
	return nil
}

// LeadTimeHandler recomputes one item's average lead time after a
// delivery lands.
type LeadTimeHandler struct {
	leadTimes service.LeadTimeService
}

func NewLeadTimeHandler(leadTimes service.LeadTimeService) *LeadTimeHandler {
	return &LeadTimeHandler{leadTimes: leadTimes}
}

func (h *LeadTimeHandler) Handle(ctx context.Context, raw json.RawMessage) error {
	var payload LeadTimePayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return fmt.Errorf("lead time payload: %w", err)
	}
	itemID, err := uuid.Parse(payload.ItemID)
	if err != nil {
		return fmt.Errorf("lead time payload: bad item id %q", payload.ItemID)
	}
	_, _, err = h.leadTimes.RecomputeForItem(ctx, itemID)
	return err
}
