// Package queue carries transcode jobs through redis with asynq, so the
// webhook server and the transcoding workers can run as separate processes.
package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"github.com/dharsanguruparan/ReelRelay/internal/config"
	"github.com/dharsanguruparan/ReelRelay/internal/model"
)

const (
	// TranscodeTask is enqueued once per accepted video update.
	TranscodeTask = "video:transcode"
	// QueueName keeps relay tasks apart from anything else on the redis.
	QueueName = "relay"

	// dedupWindow is how long a finished task keeps its id reserved, which is
	// what turns a redelivered update into a no-op.
	dedupWindow = 24 * time.Hour
)

// RedisOpt maps the relay's redis settings onto asynq's connection options.
func RedisOpt(cfg config.RedisConfig) asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	}
}

// NewTranscodeTask serializes job into an asynq task.
func NewTranscodeTask(job model.TranscodeJob) (*asynq.Task, error) {
	data, err := json.Marshal(job)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}
	return asynq.NewTask(TranscodeTask, data), nil
}

// TaskID derives a stable id from the platform update id. Zero means unknown
// and yields no id.
func TaskID(job model.TranscodeJob) string {
	if job.UpdateID == 0 {
		return ""
	}
	return fmt.Sprintf("update:%d", job.UpdateID)
}

type enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// Dispatcher enqueues transcode jobs. Tasks are never retried: each video is
// attempted at most once.
type Dispatcher struct {
	client  enqueuer
	timeout time.Duration
	logger  zerolog.Logger
}

// NewDispatcher wraps an asynq client. timeout bounds each task's run time on
// the worker and should match the upload timeout.
func NewDispatcher(client *asynq.Client, timeout time.Duration, logger zerolog.Logger) *Dispatcher {
	return newDispatcher(client, timeout, logger)
}

func newDispatcher(client enqueuer, timeout time.Duration, logger zerolog.Logger) *Dispatcher {
	return &Dispatcher{client: client, timeout: timeout, logger: logger}
}

// Dispatch enqueues job. A duplicate of an already queued or recently
// finished update is dropped silently.
func (d *Dispatcher) Dispatch(ctx context.Context, job model.TranscodeJob) error {
	task, err := NewTranscodeTask(job)
	if err != nil {
		return err
	}
	opts := []asynq.Option{
		asynq.Queue(QueueName),
		asynq.MaxRetry(0),
		asynq.Retention(dedupWindow),
	}
	if d.timeout > 0 {
		// Leave headroom for the two notifications around the upload.
		opts = append(opts, asynq.Timeout(d.timeout+time.Minute))
	}
	if id := TaskID(job); id != "" {
		opts = append(opts, asynq.TaskID(id))
	}
	info, err := d.client.EnqueueContext(ctx, task, opts...)
	if errors.Is(err, asynq.ErrTaskIDConflict) {
		d.logger.Info().Int("update_id", job.UpdateID).Msg("duplicate update, already queued")
		return nil
	}
	if err != nil {
		return fmt.Errorf("enqueue transcode task: %w", err)
	}
	d.logger.Debug().Str("task_id", info.ID).Str("queue", info.Queue).Msg("transcode task enqueued")
	return nil
}
