package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/uid0/openmakersuite/internal/config"
	"github.com/uid0/openmakersuite/internal/infra"
	"github.com/uid0/openmakersuite/internal/router"
	"github.com/uid0/openmakersuite/internal/worker"
)

func main() {
	// Structured logger — dev: pretty, prod: JSON
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	db, err := infra.NewDatabase(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}

	rdb, err := infra.NewRedis(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	webhookCB := infra.NewCircuitBreaker(infra.DefaultCBConfig())
	deps := router.New(cfg, db, rdb, webhookCB)

	// Worker pool for async jobs: webhook delivery, alert emails, and
	// lead time recomputes triggered by deliveries.
	workerHandlers := worker.WorkerHandlers{
		Events:   worker.NewEventHandler(deps.Webhook),
		Email:    worker.NewEmailHandler(deps.Mailer),
		LeadTime: worker.NewLeadTimeHandler(deps.LeadTimes),
	}
	worker.StartWorkerPool(ctx, rdb, workerHandlers, cfg.WorkerPoolSize)

	// Periodic full recompute keeps lead time estimates honest even if a
	// per-delivery job was lost.
	worker.StartLeadTimeCron(ctx, deps.LeadTimes, time.Duration(cfg.LeadTimeRecomputeHours)*time.Hour)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      deps.Engine,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown on SIGINT / SIGTERM
	go func() {
		log.Info().Msgf("OpenMakerSuite backend listening on :%d", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server…")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("forced shutdown")
	}
	log.Info().Msg("server exited")
}
