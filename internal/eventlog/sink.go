package eventlog

import (
	"context"
	"encoding/hex"
	"log/slog"
)

// Sink receives session events. Implementations must be safe for concurrent
// use and must not block the caller for long.
type Sink interface {
	Log(event Event)
}

// NoopSink discards all events
type NoopSink struct{}

func (NoopSink) Log(Event) {}

// MultiSink sends each event to every sink in order
type MultiSink []Sink

// NewMultiSink drops nil sinks and flattens the rest into one
func NewMultiSink(sinks ...Sink) MultiSink {
	var m MultiSink
	for _, s := range sinks {
		if s != nil {
			m = append(m, s)
		}
	}
	return m
}

func (m MultiSink) Log(event Event) {
	for _, s := range m {
		s.Log(event)
	}
}

// SlogSink mirrors events to an slog.Logger. Faults and malformed replies
// are logged at warn level, everything else at debug.
type SlogSink struct {
	logger *slog.Logger
}

// NewSlogSink creates a sink that writes to logger
func NewSlogSink(logger *slog.Logger) *SlogSink {
	return &SlogSink{logger: logger}
}

func (s *SlogSink) Log(event Event) {
	attrs := []slog.Attr{
		slog.String("address", event.Address),
		slog.String("kind", string(event.Kind)),
	}
	if event.SessionID != "" {
		attrs = append(attrs, slog.String("session", event.SessionID))
	}
	if len(event.Frame) > 0 {
		attrs = append(attrs,
			slog.String("direction", event.Direction.String()),
			slog.String("frame", hex.EncodeToString(event.Frame)),
		)
	}
	if event.Error != "" {
		attrs = append(attrs, slog.String("error", event.Error))
	}

	level := slog.LevelDebug
	switch event.Kind {
	case KindFault, KindMalformed:
		level = slog.LevelWarn
	case KindCompat, KindConnect:
		level = slog.LevelInfo
	}

	msg := event.Message
	if msg == "" {
		msg = string(event.Kind)
	}
	s.logger.LogAttrs(context.Background(), level, msg, attrs...)
}

var (
	_ Sink = NoopSink{}
	_ Sink = MultiSink(nil)
	_ Sink = (*SlogSink)(nil)
)
