// Package relay decides what to do with an inbound chat update and runs the
// fetch, transcode and reply pipeline for videos.
package relay

import (
	"context"

	"github.com/dharsanguruparan/ReelRelay/internal/model"
)

// Reply texts sent to chats.
const (
	WelcomeText    = "🎬 Welcome! Send me a video file and I will process it to 720p."
	HintText       = "📹 Send me a video file to process to 720p!"
	ProcessingText = "File processing.....wait till the link is provided"
	FailureText    = "❌ Error processing video"
	readyFormat    = "✅ Your 720p video is ready!\n\n🔗 %s"

	startCommand = "/start"
)

// Notifier delivers a text to a chat. Implementations swallow their own
// failures.
type Notifier interface {
	Notify(ctx context.Context, chatID int64, text string)
}

// Resolver turns a platform file id into a fetchable URL.
type Resolver interface {
	ResolveFile(ctx context.Context, fileID string) (model.MediaReference, error)
}

// Transcoder hands a source URL to the media service and waits for the
// playback URL.
type Transcoder interface {
	Transcode(ctx context.Context, sourceURL string) (model.TranscodeResult, error)
}

// Dispatcher takes ownership of a transcode job. A returned error means the
// job will not run.
type Dispatcher interface {
	Dispatch(ctx context.Context, job model.TranscodeJob) error
}

// DispatcherFunc adapts a function to Dispatcher.
type DispatcherFunc func(ctx context.Context, job model.TranscodeJob) error

// Dispatch calls f.
func (f DispatcherFunc) Dispatch(ctx context.Context, job model.TranscodeJob) error {
	return f(ctx, job)
}
