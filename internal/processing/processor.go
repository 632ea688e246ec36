// Package processing runs transcode jobs on a fixed pool of goroutines so a
// slow upload never holds up the webhook that accepted it.
package processing

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"

	"github.com/dharsanguruparan/ReelRelay/internal/model"
)

var (
	// ErrQueueFull is returned by Dispatch when every worker is busy and the
	// buffer is exhausted.
	ErrQueueFull = errors.New("processing: queue full")
	// ErrStopped is returned by Dispatch after Stop.
	ErrStopped = errors.New("processing: stopped")
)

// Handler runs one job. It owns its error reporting; the pool only logs panics.
type Handler func(ctx context.Context, job model.TranscodeJob)

// Processor consumes jobs from a buffered channel.
type Processor struct {
	handle  Handler
	queue   chan model.TranscodeJob
	workers int
	logger  zerolog.Logger

	mu      sync.RWMutex
	stopped bool
	wg      sync.WaitGroup
	once    sync.Once
}

// New builds a Processor. queueSize bounds how many accepted jobs may wait for
// a free worker.
func New(handle Handler, workers, queueSize int, logger zerolog.Logger) *Processor {
	if workers <= 0 {
		workers = 1
	}
	if queueSize <= 0 {
		queueSize = workers * 4
	}
	return &Processor{
		handle:  handle,
		queue:   make(chan model.TranscodeJob, queueSize),
		workers: workers,
		logger:  logger,
	}
}

// Start launches the worker goroutines. Jobs run with ctx, so cancelling it
// bounds in-flight uploads as well.
func (p *Processor) Start(ctx context.Context) {
	p.once.Do(func() {
		for i := 0; i < p.workers; i++ {
			p.wg.Add(1)
			go p.worker(ctx)
		}
		p.logger.Info().Int("workers", p.workers).Int("queue", cap(p.queue)).Msg("processor started")
	})
}

// Dispatch queues a job without blocking.
func (p *Processor) Dispatch(_ context.Context, job model.TranscodeJob) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.stopped {
		return ErrStopped
	}
	select {
	case p.queue <- job:
		return nil
	default:
		return ErrQueueFull
	}
}

// Stop refuses new jobs, lets the workers drain what is queued and waits
// for them to exit.
func (p *Processor) Stop() {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return
	}
	p.stopped = true
	close(p.queue)
	p.mu.Unlock()
	p.wg.Wait()
}

func (p *Processor) worker(ctx context.Context) {
	defer p.wg.Done()
	for job := range p.queue {
		p.run(ctx, job)
	}
}

func (p *Processor) run(ctx context.Context, job model.TranscodeJob) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error().
				Interface("panic", r).
				Str("request_id", job.RequestID).
				Int64("chat_id", job.ChatID).
				Msg("transcode job panicked")
		}
	}()
	p.handle(ctx, job)
}
