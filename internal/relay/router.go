package relay

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/dharsanguruparan/ReelRelay/internal/logging"
	"github.com/dharsanguruparan/ReelRelay/internal/model"
)

// Kind is the branch an update takes.
type Kind int

const (
	KindIgnore Kind = iota
	KindStart
	KindVideo
	KindText
)

func (k Kind) String() string {
	switch k {
	case KindStart:
		return "start"
	case KindVideo:
		return "video"
	case KindText:
		return "text"
	default:
		return "ignore"
	}
}

// Classify applies the branches in priority order: /start, video, text.
func Classify(u model.Update) Kind {
	if u.Text == startCommand {
		return KindStart
	}
	if _, ok := u.VideoFile(); ok {
		return KindVideo
	}
	if u.Text != "" || u.Caption != "" {
		return KindText
	}
	return KindIgnore
}

// Router answers commands and text directly and hands videos to a Dispatcher.
type Router struct {
	notifier   Notifier
	dispatcher Dispatcher
	logger     zerolog.Logger
}

// NewRouter creates a Router.
func NewRouter(notifier Notifier, dispatcher Dispatcher, logger zerolog.Logger) *Router {
	return &Router{notifier: notifier, dispatcher: dispatcher, logger: logger}
}

// HandleUpdate acts on one update and reports the branch taken. It never
// fails: problems end up in the log and, for videos, in a chat message.
func (r *Router) HandleUpdate(ctx context.Context, requestID string, u model.Update) Kind {
	kind := Classify(u)
	log := logging.FromContext(ctx, r.logger)
	log.Debug().Stringer("kind", kind).Int("update_id", u.UpdateID).Msg("update classified")

	switch kind {
	case KindStart:
		r.notifier.Notify(ctx, u.ChatID, WelcomeText)
	case KindText:
		r.notifier.Notify(ctx, u.ChatID, HintText)
	case KindVideo:
		file, _ := u.VideoFile()
		job := model.TranscodeJob{
			RequestID: requestID,
			UpdateID:  u.UpdateID,
			ChatID:    u.ChatID,
			FileID:    file.FileID,
		}
		if err := r.dispatcher.Dispatch(ctx, job); err != nil {
			log.Error().Err(err).Msg("dispatch transcode job failed")
			r.notifier.Notify(ctx, u.ChatID, FailureText)
		}
	}
	return kind
}
