package feedq

import "log/slog"

// logger wraps the optional slog logger behind nil-safe event methods so
// the queue body stays free of enabled checks. A nil *logger drops every
// event.
type logger struct {
	log *slog.Logger
}

func newLogger(log *slog.Logger, queue string) *logger {
	if log == nil {
		return nil
	}
	return &logger{log: log.With("queue", queue)}
}

func (l *logger) enqueued(buffers int) {
	if l == nil {
		return
	}
	l.log.Debug("buffers enqueued", "buffers", buffers)
}

func (l *logger) dequeued(length int) {
	if l == nil {
		return
	}
	l.log.Debug("buffer dequeued", "length", length)
}

func (l *logger) released(length int) {
	if l == nil {
		return
	}
	l.log.Debug("buffer released", "length", length)
}

func (l *logger) reset(drained int) {
	if l == nil {
		return
	}
	l.log.Debug("queue reset", "drained", drained)
}
