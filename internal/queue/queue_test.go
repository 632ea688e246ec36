package queue

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dharsanguruparan/ReelRelay/internal/config"
	"github.com/dharsanguruparan/ReelRelay/internal/model"
)

type fakeEnqueuer struct {
	tasks []*asynq.Task
	opts  [][]asynq.Option
	err   error
}

func (f *fakeEnqueuer) EnqueueContext(_ context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	f.tasks = append(f.tasks, task)
	f.opts = append(f.opts, opts)
	if f.err != nil {
		return nil, f.err
	}
	return &asynq.TaskInfo{ID: "t-1", Queue: QueueName}, nil
}

func optionValues(opts []asynq.Option) map[asynq.OptionType]interface{} {
	out := map[asynq.OptionType]interface{}{}
	for _, o := range opts {
		out[o.Type()] = o.Value()
	}
	return out
}

func TestDispatchEnqueuesOnce(t *testing.T) {
	fake := &fakeEnqueuer{}
	d := newDispatcher(fake, 5*time.Minute, zerolog.Nop())
	job := model.TranscodeJob{RequestID: "r", UpdateID: 77, ChatID: 7, FileID: "abc"}

	require.NoError(t, d.Dispatch(context.Background(), job))
	require.Len(t, fake.tasks, 1)
	assert.Equal(t, TranscodeTask, fake.tasks[0].Type())
	assert.JSONEq(t, `{"request_id":"r","update_id":77,"chat_id":7,"file_id":"abc"}`, string(fake.tasks[0].Payload()))

	vals := optionValues(fake.opts[0])
	assert.Equal(t, 0, vals[asynq.MaxRetryOpt])
	assert.Equal(t, QueueName, vals[asynq.QueueOpt])
	assert.Equal(t, "update:77", vals[asynq.TaskIDOpt])
	assert.Equal(t, 6*time.Minute, vals[asynq.TimeoutOpt])
}

func TestDispatchWithoutUpdateID(t *testing.T) {
	fake := &fakeEnqueuer{}
	d := newDispatcher(fake, 0, zerolog.Nop())

	require.NoError(t, d.Dispatch(context.Background(), model.TranscodeJob{ChatID: 7, FileID: "abc"}))
	vals := optionValues(fake.opts[0])
	_, hasID := vals[asynq.TaskIDOpt]
	_, hasTimeout := vals[asynq.TimeoutOpt]
	assert.False(t, hasID)
	assert.False(t, hasTimeout)
}

func TestDispatchDuplicateIsDropped(t *testing.T) {
	d := newDispatcher(&fakeEnqueuer{err: asynq.ErrTaskIDConflict}, time.Minute, zerolog.Nop())
	assert.NoError(t, d.Dispatch(context.Background(), model.TranscodeJob{UpdateID: 1, FileID: "abc"}))
}

func TestDispatchError(t *testing.T) {
	boom := errors.New("redis down")
	d := newDispatcher(&fakeEnqueuer{err: boom}, time.Minute, zerolog.Nop())
	assert.ErrorIs(t, d.Dispatch(context.Background(), model.TranscodeJob{UpdateID: 1, FileID: "abc"}), boom)
}

func TestWorkerProcessTask(t *testing.T) {
	var got model.TranscodeJob
	w := NewWorker(func(_ context.Context, job model.TranscodeJob) { got = job })

	task, err := NewTranscodeTask(model.TranscodeJob{RequestID: "r", UpdateID: 5, ChatID: 9, FileID: "f"})
	require.NoError(t, err)
	require.NoError(t, w.ProcessTask(context.Background(), task))
	assert.Equal(t, model.TranscodeJob{RequestID: "r", UpdateID: 5, ChatID: 9, FileID: "f"}, got)
}

func TestWorkerRejectsBadPayload(t *testing.T) {
	called := false
	w := NewWorker(func(context.Context, model.TranscodeJob) { called = true })

	err := w.ProcessTask(context.Background(), asynq.NewTask(TranscodeTask, []byte("{")))
	require.ErrorIs(t, err, asynq.SkipRetry)
	assert.False(t, called)
}

func TestRedisOpt(t *testing.T) {
	opt := RedisOpt(config.RedisConfig{Addr: "redis:6379", Password: "pw", DB: 2})
	assert.Equal(t, "redis:6379", opt.Addr)
	assert.Equal(t, "pw", opt.Password)
	assert.Equal(t, 2, opt.DB)
}

func TestLoggerImplementsAsynqLogger(t *testing.T) {
	var _ asynq.Logger = NewLogger(zerolog.Nop())
}
