package proctor

import (
	"go.uber.org/zap"

	"interview-proctor/api/internal/logger"
)

// LogSink writes every emitted event to the structured log.
type LogSink struct{}

func (LogSink) OnViolation(ev ViolationEvent) {
	logger.L().Info("violation detected",
		zap.String("type", ev.Type),
		zap.String("session_id", ev.SessionID),
		zap.Float64("confidence", ev.Confidence),
	)
}

func (LogSink) OnError(err error) {
	logger.L().Warn("analysis error", zap.Error(err))
}
