// Command server runs the webhook endpoint. Depending on RELAY_DISPATCH it
// transcodes videos in-process or hands them to cmd/worker through redis.
package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"

	"github.com/dharsanguruparan/ReelRelay/internal/app"
	"github.com/dharsanguruparan/ReelRelay/internal/config"
	"github.com/dharsanguruparan/ReelRelay/internal/logging"
	"github.com/dharsanguruparan/ReelRelay/internal/relay"
	"github.com/dharsanguruparan/ReelRelay/internal/server"
	"github.com/dharsanguruparan/ReelRelay/internal/signing"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		log.Fatal().Err(err).Msg("relay stopped")
	}
	log.Info().Msg("relay shutdown complete")
}

func run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger := logging.Setup("relay", cfg.Log)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	components, err := app.Build(cfg, logger)
	if err != nil {
		return fmt.Errorf("init components: %w", err)
	}
	dispatcher, release, err := app.NewDispatcher(ctx, cfg, components.Pipeline.Process, logger)
	if err != nil {
		return fmt.Errorf("init dispatcher: %w", err)
	}
	// The listener is closed by the time Serve returns; let accepted jobs
	// finish before exiting.
	defer release()

	router := relay.NewRouter(components.Telegram, dispatcher, logger.With().Str("component", "router").Logger())
	signer := signing.NewSigner([]byte(cfg.Telegram.WebhookSecret))
	srv := server.New(cfg, router, components.Telegram, signer, logger)

	logger.Info().Str("dispatch", cfg.Dispatch.Mode).Str("bot", components.Telegram.Username()).Msg("relay starting")
	return srv.Serve(ctx)
}
