package worker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// dlqPrefix namespaces dead letter lists per job type, e.g.
// dlq:webhook_event.
const dlqPrefix = "dlq:"

// DLQEntry wraps a job that exhausted its retries, with the final error
// for later inspection.
type DLQEntry struct {
	Job      Job       `json:"job"`
	Error    string    `json:"error"`
	FailedAt time.Time `json:"failed_at"`
}

func sendToDLQ(ctx context.Context, rdb *redis.Client, job Job, jobErr error) {
	entry := DLQEntry{
		Job:      job,
		Error:    jobErr.Error(),
		FailedAt: time.Now().UTC(),
	}
	raw, err := json.Marshal(entry)
	if err != nil {
		log.Error().Err(err).Str("job_type", job.Type).Msg("marshal DLQ entry")
		return
	}
	if err := rdb.LPush(ctx, dlqPrefix+job.Type, raw).Err(); err != nil {
		log.Error().Err(err).Str("job_type", job.Type).Msg("push to DLQ")
		return
	}
	log.Warn().
		Str("job_type", job.Type).
		Int("attempts", job.Attempts).
		Str("error", jobErr.Error()).
		Msg("job parked in dead letter queue")
}
