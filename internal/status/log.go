package status

import (
	"context"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/oshokin/proximity-alarm/internal/logger"
)

// LogSink writes every status update as an info line. Its level is pinned so
// the notification trail stays visible when the global level is raised.
type LogSink struct {
	log *zap.SugaredLogger
}

// NewLogSink derives a sink logger from the global one.
func NewLogSink() *LogSink {
	return &LogSink{
		log: logger.Logger().Named("notification").WithOptions(logger.WithLevel(zapcore.InfoLevel)),
	}
}

// Publish logs update.
func (s *LogSink) Publish(_ context.Context, update Status) {
	kvs := []any{"kind", string(update.Kind), "title", Title}
	if update.SessionID != "" {
		kvs = append(kvs, "session_id", update.SessionID)
	}

	if update.DistanceMeters != nil {
		kvs = append(kvs, "distance_meters", *update.DistanceMeters)
	}

	s.log.Infow(update.Text, kvs...)
}
