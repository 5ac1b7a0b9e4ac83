package events

import (
	"context"
	"log/slog"
)

// LogSink mirrors every domain event into the structured log, replacing the
// old habit of logging from persistence hooks.
type LogSink struct {
	logger *slog.Logger
}

func NewLogSink(logger *slog.Logger) *LogSink {
	return &LogSink{logger: logger}
}

func (s *LogSink) Handle(ctx context.Context, event Event) error {
	s.logger.InfoContext(ctx, string(event.Type),
		"event_id", event.ID,
		"actor_id", event.ActorID,
		"donation_id", event.DonationID,
		"verification_id", event.VerificationID,
		"request_id", event.RequestID,
		"detail", event.Detail,
		"log_type", "domain_event",
	)
	return nil
}
