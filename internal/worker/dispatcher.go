package worker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// RedisDispatcher enqueues jobs onto the Redis work queue. All Queue
// methods are fire and forget: enqueue failures are logged and dropped
// so a Redis hiccup never fails the request that triggered the job.
type RedisDispatcher struct {
	rdb *redis.Client
}

func NewDispatcher(rdb *redis.Client) *RedisDispatcher {
	return &RedisDispatcher{rdb: rdb}
}

func (d *RedisDispatcher) QueueEvent(ctx context.Context, eventType string, payload any) {
	data, ok := payload.(map[string]any)
	if !ok {
		data = map[string]any{"value": payload}
	}
	d.enqueue(ctx, JobWebhookEvent, EventPayload{
		EventType:  eventType,
		Data:       data,
		OccurredAt: time.Now().UTC(),
	})
}

func (d *RedisDispatcher) QueueEmail(ctx context.Context, to []string, subject, body string) {
	d.enqueue(ctx, JobEmail, EmailPayload{To: to, Subject: subject, Body: body})
}

func (d *RedisDispatcher) QueueLeadTimeRecompute(ctx context.Context, itemID uuid.UUID) {
	d.enqueue(ctx, JobLeadTimeRecompute, LeadTimePayload{ItemID: itemID.String()})
}

func (d *RedisDispatcher) enqueue(ctx context.Context, jobType string, payload any) {
	raw, err := json.Marshal(payload)
	if err != nil {
		log.Error().Err(err).Str("job_type", jobType).Msg("marshal job payload")
		return
	}
	job, err := json.Marshal(Job{Type: jobType, Payload: raw})
	if err != nil {
		log.Error().Err(err).Str("job_type", jobType).Msg("marshal job envelope")
		return
	}
	if err := d.rdb.LPush(ctx, queueKey, job).Err(); err != nil {
		log.Error().Err(err).Str("job_type", jobType).Msg("enqueue job")
	}
}
