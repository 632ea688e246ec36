package relay

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dharsanguruparan/ReelRelay/internal/model"
)

// recorder captures every outbound call in order so tests can assert on the
// exact sequence.
type recorder struct {
	mu     sync.Mutex
	events []string

	resolveErr     error
	transcodeErr   error
	transcodePanic bool
}

func (r *recorder) add(format string, args ...any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, fmt.Sprintf(format, args...))
}

func (r *recorder) Events() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.events...)
}

func (r *recorder) Notify(_ context.Context, chatID int64, text string) {
	r.add("notify %d %s", chatID, text)
}

func (r *recorder) ResolveFile(_ context.Context, fileID string) (model.MediaReference, error) {
	r.add("resolve %s", fileID)
	if r.resolveErr != nil {
		return model.MediaReference{}, r.resolveErr
	}
	return model.MediaReference{FileID: fileID, URL: "https://files.example/" + fileID}, nil
}

func (r *recorder) Transcode(_ context.Context, sourceURL string) (model.TranscodeResult, error) {
	r.add("transcode %s", sourceURL)
	if r.transcodePanic {
		panic("cloudinary response missing")
	}
	if r.transcodeErr != nil {
		return model.TranscodeResult{}, r.transcodeErr
	}
	return model.TranscodeResult{PlaybackURL: "https://cdn.example/out.mp4"}, nil
}

func newInlineRouter(rec *recorder) *Router {
	pipeline := NewPipeline(rec, rec, rec, zerolog.Nop())
	dispatch := DispatcherFunc(func(ctx context.Context, job model.TranscodeJob) error {
		pipeline.Process(ctx, job)
		return nil
	})
	return NewRouter(rec, dispatch, zerolog.Nop())
}

func TestClassify(t *testing.T) {
	cases := []struct {
		name   string
		update model.Update
		want   Kind
	}{
		{"start", model.Update{Text: "/start"}, KindStart},
		{"start with video", model.Update{Text: "/start", Video: &model.Attachment{FileID: "v"}}, KindStart},
		{"video", model.Update{Video: &model.Attachment{FileID: "v"}}, KindVideo},
		{"video with text", model.Update{Text: "look", Video: &model.Attachment{FileID: "v"}}, KindVideo},
		{"video document", model.Update{Document: &model.Attachment{FileID: "d", MimeType: "video/mp4"}}, KindVideo},
		{"pdf document with caption", model.Update{Caption: "hi", Document: &model.Attachment{FileID: "d", MimeType: "application/pdf"}}, KindText},
		{"pdf document with text", model.Update{Text: "hi", Document: &model.Attachment{FileID: "d", MimeType: "application/pdf"}}, KindText},
		{"text", model.Update{Text: "hello"}, KindText},
		{"other command", model.Update{Text: "/help"}, KindText},
		{"bare pdf", model.Update{Document: &model.Attachment{FileID: "d", MimeType: "application/pdf"}}, KindIgnore},
		{"empty", model.Update{}, KindIgnore},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Classify(tc.update))
		})
	}
}

func TestStartOnlyWelcomes(t *testing.T) {
	rec := &recorder{}
	kind := newInlineRouter(rec).HandleUpdate(context.Background(), "r", model.Update{ChatID: 42, Text: "/start"})

	assert.Equal(t, KindStart, kind)
	assert.Equal(t, []string{"notify 42 " + WelcomeText}, rec.Events())
}

func TestTextGetsHint(t *testing.T) {
	rec := &recorder{}
	newInlineRouter(rec).HandleUpdate(context.Background(), "r", model.Update{ChatID: 3, Text: "hello"})

	assert.Equal(t, []string{"notify 3 " + HintText}, rec.Events())
}

func TestIgnoredUpdateHasNoSideEffects(t *testing.T) {
	rec := &recorder{}
	kind := newInlineRouter(rec).HandleUpdate(context.Background(), "r", model.Update{
		ChatID:   3,
		Document: &model.Attachment{FileID: "d", MimeType: "application/zip"},
	})

	assert.Equal(t, KindIgnore, kind)
	assert.Empty(t, rec.Events())
}

func TestVideoSuccess(t *testing.T) {
	rec := &recorder{}
	newInlineRouter(rec).HandleUpdate(context.Background(), "r", model.Update{ChatID: 7, Video: &model.Attachment{FileID: "abc"}})

	assert.Equal(t, []string{
		"notify 7 " + ProcessingText,
		"resolve abc",
		"transcode https://files.example/abc",
		"notify 7 " + ReadyText("https://cdn.example/out.mp4"),
	}, rec.Events())
}

func TestVideoDocumentUsesDocumentFile(t *testing.T) {
	rec := &recorder{}
	newInlineRouter(rec).HandleUpdate(context.Background(), "r", model.Update{
		ChatID:   7,
		Document: &model.Attachment{FileID: "doc", MimeType: "video/quicktime"},
	})

	require.Len(t, rec.Events(), 4)
	assert.Equal(t, "resolve doc", rec.Events()[1])
}

func TestVideoResolveFailure(t *testing.T) {
	rec := &recorder{resolveErr: errors.New("no file_path")}
	newInlineRouter(rec).HandleUpdate(context.Background(), "r", model.Update{ChatID: 7, Video: &model.Attachment{FileID: "abc"}})

	assert.Equal(t, []string{
		"notify 7 " + ProcessingText,
		"resolve abc",
		"notify 7 " + FailureText,
	}, rec.Events())
}

func TestVideoTranscodeFailure(t *testing.T) {
	rec := &recorder{transcodeErr: errors.New("timeout")}
	newInlineRouter(rec).HandleUpdate(context.Background(), "r", model.Update{ChatID: 7, Video: &model.Attachment{FileID: "abc"}})

	assert.Equal(t, []string{
		"notify 7 " + ProcessingText,
		"resolve abc",
		"transcode https://files.example/abc",
		"notify 7 " + FailureText,
	}, rec.Events())
}

func TestVideoTranscodePanicStillAnswers(t *testing.T) {
	rec := &recorder{transcodePanic: true}
	router := newInlineRouter(rec)

	assert.NotPanics(t, func() {
		router.HandleUpdate(context.Background(), "r", model.Update{ChatID: 7, Video: &model.Attachment{FileID: "abc"}})
	})
	assert.Equal(t, []string{
		"notify 7 " + ProcessingText,
		"resolve abc",
		"transcode https://files.example/abc",
		"notify 7 " + FailureText,
	}, rec.Events())
}

func TestDispatchFailureNotifies(t *testing.T) {
	rec := &recorder{}
	var got model.TranscodeJob
	dispatch := DispatcherFunc(func(_ context.Context, job model.TranscodeJob) error {
		got = job
		return errors.New("queue full")
	})
	router := NewRouter(rec, dispatch, zerolog.Nop())

	kind := router.HandleUpdate(context.Background(), "req-1", model.Update{UpdateID: 11, ChatID: 7, Video: &model.Attachment{FileID: "abc"}})

	assert.Equal(t, KindVideo, kind)
	assert.Equal(t, model.TranscodeJob{RequestID: "req-1", UpdateID: 11, ChatID: 7, FileID: "abc"}, got)
	assert.Equal(t, []string{"notify 7 " + FailureText}, rec.Events())
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "start", KindStart.String())
	assert.Equal(t, "video", KindVideo.String())
	assert.Equal(t, "text", KindText.String())
	assert.Equal(t, "ignore", KindIgnore.String())
}
