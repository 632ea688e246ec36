package queue

import (
	"fmt"

	"github.com/rs/zerolog"
)

// Logger routes asynq's internal logging through zerolog.
type Logger struct {
	l zerolog.Logger
}

// NewLogger wraps l for asynq.Config.Logger.
func NewLogger(l zerolog.Logger) *Logger {
	return &Logger{l: l}
}

func (a *Logger) Debug(args ...interface{}) { a.l.Debug().Msg(fmt.Sprint(args...)) }
func (a *Logger) Info(args ...interface{})  { a.l.Info().Msg(fmt.Sprint(args...)) }
func (a *Logger) Warn(args ...interface{})  { a.l.Warn().Msg(fmt.Sprint(args...)) }
func (a *Logger) Error(args ...interface{}) { a.l.Error().Msg(fmt.Sprint(args...)) }
func (a *Logger) Fatal(args ...interface{}) { a.l.Fatal().Msg(fmt.Sprint(args...)) }
