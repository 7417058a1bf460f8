package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/college-erp-api/internal/models"
	"github.com/noah-isme/college-erp-api/pkg/cache"
)

// ProgressSink receives status updates of long running imports. Delivery is
// best effort and never blocks the caller on a slow consumer.
type ProgressSink interface {
	Publish(ctx context.Context, event models.ProgressEvent)
}

type channelPublisher interface {
	Publish(ctx context.Context, channel string, value interface{}) error
}

// RedisProgressSink publishes events on the job's pub/sub channel.
type RedisProgressSink struct {
	publisher channelPublisher
	logger    *zap.Logger
	timeout   time.Duration
}

// NewRedisProgressSink constructs a sink over the cache repository.
func NewRedisProgressSink(publisher channelPublisher, logger *zap.Logger) *RedisProgressSink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisProgressSink{publisher: publisher, logger: logger, timeout: 2 * time.Second}
}

// Publish sends the event and logs, rather than returns, delivery failures.
func (s *RedisProgressSink) Publish(ctx context.Context, event models.ProgressEvent) {
	if event.At.IsZero() {
		event.At = time.Now().UTC()
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
	defer cancel()
	if err := s.publisher.Publish(ctx, cache.ProgressChannel(event.JobID), event); err != nil {
		s.logger.Warn("progress publish failed", zap.String("job_id", event.JobID), zap.String("stage", string(event.Stage)), zap.Error(err))
	}
}

// LogProgressSink writes events to the logger. The CLI uses it.
type LogProgressSink struct {
	logger *zap.Logger
}

// NewLogProgressSink constructs a logging sink.
func NewLogProgressSink(logger *zap.Logger) *LogProgressSink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogProgressSink{logger: logger}
}

// Publish logs the event.
func (s *LogProgressSink) Publish(_ context.Context, event models.ProgressEvent) {
	s.logger.Info(event.Message, zap.String("job_id", event.JobID), zap.String("stage", string(event.Stage)))
}

// NopProgressSink drops every event.
type NopProgressSink struct{}

// Publish does nothing.
func (NopProgressSink) Publish(context.Context, models.ProgressEvent) {}
