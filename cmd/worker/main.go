// Command worker consumes transcode tasks enqueued by the server when
// RELAY_DISPATCH=redis.
package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog/log"

	"github.com/dharsanguruparan/ReelRelay/internal/app"
	"github.com/dharsanguruparan/ReelRelay/internal/config"
	"github.com/dharsanguruparan/ReelRelay/internal/logging"
	"github.com/dharsanguruparan/ReelRelay/internal/queue"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		log.Fatal().Err(err).Msg("worker stopped")
	}
}

func run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger := logging.Setup("relay-worker", cfg.Log)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	components, err := app.Build(cfg, logger)
	if err != nil {
		return fmt.Errorf("init components: %w", err)
	}

	srv := asynq.NewServer(queue.RedisOpt(cfg.Redis), asynq.Config{
		Concurrency: cfg.Dispatch.Workers,
		Queues:      map[string]int{queue.QueueName: 1},
		Logger:      queue.NewLogger(logger.With().Str("component", "asynq").Logger()),
	})
	mux := queue.NewWorker(components.Pipeline.Process).Handler()

	logger.Info().Int("concurrency", cfg.Dispatch.Workers).Str("redis", cfg.Redis.Addr).Msg("worker starting")
	if err := srv.Start(mux); err != nil {
		return fmt.Errorf("start worker: %w", err)
	}
	<-ctx.Done()
	srv.Shutdown()
	logger.Info().Msg("worker shutdown complete")
	return nil
}
