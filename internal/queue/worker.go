package queue

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"

	"github.com/dharsanguruparan/ReelRelay/internal/model"
)

// ProcessFunc runs one job; it reports failures to the chat itself.
type ProcessFunc func(ctx context.Context, job model.TranscodeJob)

// Worker is plugged into the asynq server loop.
type Worker struct {
	process ProcessFunc
}

// NewWorker constructs a worker around the pipeline.
func NewWorker(process ProcessFunc) *Worker {
	return &Worker{process: process}
}

// Handler registers the transcode handler.
func (w *Worker) Handler() *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.Handle(TranscodeTask, w)
	return mux
}

// ProcessTask implements asynq.Handler. Pipeline failures are not task
// failures: the user was already told, and a retry would duplicate the
// upload.
func (w *Worker) ProcessTask(ctx context.Context, task *asynq.Task) error {
	var job model.TranscodeJob
	if err := json.Unmarshal(task.Payload(), &job); err != nil {
		return fmt.Errorf("decode payload: %v: %w", err, asynq.SkipRetry)
	}
	w.process(ctx, job)
	return nil
}
