package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/uid0/openmakersuite/internal/infra"
)

// Health reports dependency status: database, Redis, and the webhook
// circuit breaker. Returns 503 when a hard dependency is down.
func Health(db *gorm.DB, rdb *redis.Client, webhook *infra.WebhookClient) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		status := http.StatusOK

		dbStatus := "ok"
		if sqlDB, err := db.DB(); err != nil {
			dbStatus = "error"
		} else if err := sqlDB.PingContext(ctx); err != nil {
			dbStatus = "error"
		}

		redisStatus := "ok"
		if err := rdb.Ping(ctx).Err(); err != nil {
			redisStatus = "error"
		}

		if dbStatus != "ok" || redisStatus != "ok" {
			status = http.StatusServiceUnavailable
		}

		overall := "ok"
		if status != http.StatusOK {
			overall = "degraded"
		}
		c.JSON(status, gin.H{
			"status":          overall,
			"database":        dbStatus,
			"redis":           redisStatus,
			"webhook_circuit": webhook.State().String(),
		})
	}
}
