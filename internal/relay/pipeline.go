package relay

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/dharsanguruparan/ReelRelay/internal/logging"
	"github.com/dharsanguruparan/ReelRelay/internal/model"
)

// Pipeline resolves, transcodes and reports one video.
type Pipeline struct {
	notifier   Notifier
	resolver   Resolver
	transcoder Transcoder
	logger     zerolog.Logger
}

// NewPipeline wires the three collaborators.
func NewPipeline(notifier Notifier, resolver Resolver, transcoder Transcoder, logger zerolog.Logger) *Pipeline {
	return &Pipeline{
		notifier:   notifier,
		resolver:   resolver,
		transcoder: transcoder,
		logger:     logger,
	}
}

// Process runs job to completion. The chat always receives the processing
// notice followed by exactly one outcome message, even when a collaborator
// panics; every external call is made at most once.
func (p *Pipeline) Process(ctx context.Context, job model.TranscodeJob) {
	log := logging.FromContext(ctx, p.logger).With().
		Str("request_id", job.RequestID).
		Int64("chat_id", job.ChatID).
		Str("file_id", job.FileID).
		Logger()
	ctx = log.WithContext(ctx)

	answered := false
	defer func() {
		r := recover()
		if r == nil {
			return
		}
		log.Error().Interface("panic", r).Msg("video processing panicked")
		if !answered {
			answered = true
			p.notifier.Notify(ctx, job.ChatID, FailureText)
		}
	}()

	p.notifier.Notify(ctx, job.ChatID, ProcessingText)

	url, err := p.run(ctx, job.FileID)
	answered = true
	if err != nil {
		log.Error().Err(err).Msg("video processing failed")
		p.notifier.Notify(ctx, job.ChatID, FailureText)
		return
	}
	log.Info().Str("playback_url", url).Msg("video ready")
	p.notifier.Notify(ctx, job.ChatID, ReadyText(url))
}

func (p *Pipeline) run(ctx context.Context, fileID string) (string, error) {
	ref, err := p.resolver.ResolveFile(ctx, fileID)
	if err != nil {
		return "", fmt.Errorf("resolve file: %w", err)
	}
	res, err := p.transcoder.Transcode(ctx, ref.URL)
	if err != nil {
		return "", fmt.Errorf("transcode: %w", err)
	}
	return res.PlaybackURL, nil
}

// ReadyText is the success reply carrying the playback URL.
func ReadyText(url string) string {
	return fmt.Sprintf(readyFormat, url)
}
