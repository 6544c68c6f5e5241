package journal

import (
	"context"
	"log/slog"
)

// LogSink writes records as structured log events.
type LogSink struct {
	logger *slog.Logger
}

// NewLogSink creates a LogSink. A nil logger uses slog.Default().
func NewLogSink(logger *slog.Logger) *LogSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogSink{logger: logger.With("component", "journal")}
}

func (s *LogSink) Record(ctx context.Context, r Record) error {
	level := slog.LevelInfo
	if r.Error != "" {
		level = slog.LevelWarn
	}
	attrs := []slog.Attr{
		slog.String("kind", string(r.Kind)),
		slog.String("action", string(r.Action)),
		slog.String("transaction_id", r.TransactionID),
		slog.String("message_id", r.MessageID),
		slog.String("body_digest", r.BodyDigest),
		slog.Duration("duration", r.Duration),
	}
	if r.AckStatus != "" {
		attrs = append(attrs, slog.String("ack", string(r.AckStatus)))
	}
	if r.Target != "" {
		attrs = append(attrs, slog.String("target", r.Target), slog.Int("http_status", r.HTTPStatus))
	}
	if r.Error != "" {
		attrs = append(attrs, slog.String("error", r.Error))
	}
	s.logger.LogAttrs(ctx, level, "protocol message", attrs...)
	return nil
}
