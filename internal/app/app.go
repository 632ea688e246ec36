// Package app assembles the relay's components from a Config so the binaries
// under cmd/ stay short.
package app

import (
	"context"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"github.com/dharsanguruparan/ReelRelay/internal/config"
	"github.com/dharsanguruparan/ReelRelay/internal/media"
	"github.com/dharsanguruparan/ReelRelay/internal/model"
	"github.com/dharsanguruparan/ReelRelay/internal/processing"
	"github.com/dharsanguruparan/ReelRelay/internal/queue"
	"github.com/dharsanguruparan/ReelRelay/internal/relay"
	"github.com/dharsanguruparan/ReelRelay/internal/storage"
	"github.com/dharsanguruparan/ReelRelay/internal/telegram"
)

// Components are the long-lived collaborators shared by server and worker.
type Components struct {
	Telegram *telegram.Client
	Pipeline *relay.Pipeline
}

// Build authorizes the bot and creates the Cloudinary submitter.
func Build(cfg *config.Config, logger zerolog.Logger) (*Components, error) {
	tg, err := telegram.New(cfg.Telegram, logger.With().Str("component", "telegram").Logger())
	if err != nil {
		return nil, err
	}
	cld, err := media.NewCloudinary(cfg.Cloudinary, logger.With().Str("component", "media").Logger())
	if err != nil {
		return nil, err
	}
	return &Components{
		Telegram: tg,
		Pipeline: relay.NewPipeline(tg, tg, cld, logger.With().Str("component", "pipeline").Logger()),
	}, nil
}

// NewDispatcher returns the dispatcher selected by cfg.Dispatch.Mode and a
// function that releases it. Jobs never inherit ctx's cancellation: once
// accepted, a video is processed even while the server shuts down. Redelivered
// updates are dropped in every mode; redis does it with task ids, the others
// with an in-process SeenUpdates.
func NewDispatcher(ctx context.Context, cfg *config.Config, process func(context.Context, model.TranscodeJob), logger zerolog.Logger) (relay.Dispatcher, func(), error) {
	detached := context.WithoutCancel(ctx)
	switch cfg.Dispatch.Mode {
	case config.DispatchInline:
		d := relay.DispatcherFunc(func(ctx context.Context, job model.TranscodeJob) error {
			process(context.WithoutCancel(ctx), job)
			return nil
		})
		return once(d, logger), func() {}, nil
	case config.DispatchPool:
		p := processing.New(process, cfg.Dispatch.Workers, cfg.Dispatch.QueueSize, logger.With().Str("component", "processor").Logger())
		p.Start(detached)
		return once(p, logger), p.Stop, nil
	case config.DispatchRedis:
		client := asynq.NewClient(queue.RedisOpt(cfg.Redis))
		d := queue.NewDispatcher(client, cfg.Cloudinary.UploadTimeout, logger.With().Str("component", "queue").Logger())
		return d, func() { _ = client.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unknown dispatch mode %q", cfg.Dispatch.Mode)
	}
}

// onceDispatcher forwards each update id at most once per window.
type onceDispatcher struct {
	next   relay.Dispatcher
	seen   *storage.SeenUpdates
	logger zerolog.Logger
}

func once(next relay.Dispatcher, logger zerolog.Logger) *onceDispatcher {
	return &onceDispatcher{next: next, seen: storage.NewSeenUpdates(storage.DefaultWindow), logger: logger}
}

func (d *onceDispatcher) Dispatch(ctx context.Context, job model.TranscodeJob) error {
	if job.UpdateID == 0 {
		return d.next.Dispatch(ctx, job)
	}
	if !d.seen.Claim(job.UpdateID) {
		d.logger.Info().Int("update_id", job.UpdateID).Msg("duplicate update dropped")
		return nil
	}
	if err := d.next.Dispatch(ctx, job); err != nil {
		d.seen.Release(job.UpdateID)
		return err
	}
	return nil
}
