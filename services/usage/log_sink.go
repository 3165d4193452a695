package usage

import (
	"context"

	"github.com/upb/model-orchestrator/models"
	"go.uber.org/zap"
)

// LogSink writes usage records to the structured log. Used when no database
// is configured, so local and test deployments still see their accounting.
type LogSink struct {
	logger *zap.Logger
}

// NewLogSink creates a new LogSink
func NewLogSink(logger *zap.Logger) *LogSink {
	return &LogSink{logger: logger}
}

// Insert logs the record at info level
func (s *LogSink) Insert(_ context.Context, record *models.UsageRecord) error {
	fields := []zap.Field{
		zap.String("id", record.ID.String()),
		zap.String("request_id", record.RequestID),
		zap.String("task", record.Task),
		zap.String("asset_kind", record.AssetKind),
		zap.String("provider_used", record.ProviderUsed),
		zap.Int64("processing_time_ms", record.ProcessingTimeMs),
		zap.Float64("cost_estimate", record.CostEstimate),
		zap.Bool("success", record.Success),
		zap.Int("fallback_depth", record.FallbackDepth),
	}
	if record.ErrorMessage != nil {
		fields = append(fields, zap.String("error_message", *record.ErrorMessage))
	}
	s.logger.Info("usage record", fields...)
	return nil
}
