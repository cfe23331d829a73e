package sim

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// EventLogger is an hook that prints the event information.
type EventLogger struct {
	Logger *zap.Logger
}

// NewEventLogger returns a new EventLogger which will write in to the logger.
func NewEventLogger(logger *zap.Logger) *EventLogger {
	h := new(EventLogger)
	h.Logger = logger

	return h
}

// Func writes the event information into the logger.
func (h *EventLogger) Func(ctx HookCtx) {
	if ctx.Pos != HookPosBeforeEvent {
		return
	}

	var now VTime
	if tt, ok := ctx.Domain.(TimeTeller); ok {
		now = tt.CurrentTime()
	}

	if m, ok := ctx.Item.(zapcore.ObjectMarshaler); ok {
		h.Logger.Debug("event",
			zap.Float64("now", float64(now)),
			zap.Object("event", m))

		return
	}

	h.Logger.Debug("event",
		zap.Float64("now", float64(now)),
		zap.Any("event", ctx.Item))
}
