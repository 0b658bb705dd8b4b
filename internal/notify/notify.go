// Package notify delivers user-visible notifications. A notification is queued
// on the sink bound to the request context (the operator's session) and shown
// once on the next rendered page.
package notify

import (
	"context"

	"github.com/patric-chuzhbe/usradmin/internal/logger"
)

type Level string

const (
	LevelInfo    Level = "info"
	LevelSuccess Level = "success"
	LevelError   Level = "error"
)

// Message is a single notification.
type Message struct {
	Level Level
	Text  string
}

// Sink receives notifications for one operator.
type Sink interface {
	AddFlash(msg Message)
}

type contextKey struct{}

// ContextWithSink returns a copy of ctx that delivers notifications to sink.
func ContextWithSink(ctx context.Context, sink Sink) context.Context {
	return context.WithValue(ctx, contextKey{}, sink)
}

func sinkFromContext(ctx context.Context) (Sink, bool) {
	sink, ok := ctx.Value(contextKey{}).(Sink)
	return sink, ok && sink != nil
}

// SessionNotifier queues notifications on the sink found in the context
// and mirrors every one of them to the log.
type SessionNotifier struct{}

func NewSessionNotifier() *SessionNotifier {
	return &SessionNotifier{}
}

// Notify implements the notifier used by the API client and the views.
func (n *SessionNotifier) Notify(ctx context.Context, level Level, text string) {
	switch level {
	case LevelError:
		logger.Log.Warnln("notification", "level", level, "text", text)
	default:
		logger.Log.Debugln("notification", "level", level, "text", text)
	}

	sink, ok := sinkFromContext(ctx)
	if !ok {
		return
	}
	sink.AddFlash(Message{Level: level, Text: text})
}
