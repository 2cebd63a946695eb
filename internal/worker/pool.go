package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// StartWorkerPool launches numWorkers goroutines consuming the Redis
// job queue. Workers drain until ctx is cancelled. A job that fails is
// re-enqueued with an attempt counter; after maxAttempts it is parked
// in the dead letter queue.
func StartWorkerPool(ctx context.Context, rdb *redis.Client, handlers WorkerHandlers, numWorkers int) {
	if numWorkers <= 0 {
		numWorkers = 1
	}
	for i := 0; i < numWorkers; i++ {
		go runWorker(ctx, rdb, handlers, i)
	}
	log.Info().Int("workers", numWorkers).Msg("worker pool started")
}

func runWorker(ctx context.Context, rdb *redis.Client, handlers WorkerHandlers, id int) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		res, err := rdb.BRPop(ctx, 5*time.Second, queueKey).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) || ctx.Err() != nil {
				continue
			}
			log.Error().Err(err).Int("worker", id).Msg("queue pop failed")
			time.Sleep(time.Second)
			continue
		}
		// BRPop returns [key, value].
		if len(res) != 2 {
			continue
		}

		var job Job
		if err := json.Unmarshal([]byte(res[1]), &job); err != nil {
			log.Error().Err(err).Int("worker", id).Msg("malformed job envelope, dropping")
			continue
		}

		if err := dispatch(ctx, handlers, job); err != nil {
			retry(ctx, rdb, job, err)
		}
	}
}

func dispatch(ctx context.Context, handlers WorkerHandlers, job Job) error {
	switch job.Type {
	case JobWebhookEvent:
		return handlers.Events.Handle(ctx, job.Payload)
	case JobEmail:
		return handlers.Email.Handle(ctx, job.Payload)
	case JobLeadTimeRecompute:
		return handlers.LeadTime.Handle(ctx, job.Payload)
	default:
		return fmt.Errorf("unknown job type %q", job.Type)
	}
}

func retry(ctx context.Context, rdb *redis.Client, job Job, jobErr error) {
	job.Attempts++
	if job.Attempts >= maxAttempts {
		sendToDLQ(ctx, rdb, job, jobErr)
		return
	}
	log.Warn().
		Err(jobErr).
		Str("job_type", job.Type).
		Int("attempt", job.Attempts).
		Msg("job failed, re-enqueueing")

	raw, err := json.Marshal(job)
	if err != nil {
		log.Error().Err(err).Str("job_type", job.Type).Msg("marshal retry envelope")
		return
	}
	if err := rdb.LPush(ctx, queueKey, raw).Err(); err != nil {
		log.Error().Err(err).Str("job_type", job.Type).Msg("re-enqueue job")
	}
}
