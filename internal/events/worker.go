package events

import (
	"context"
	"log/slog"
)

// ChannelPublisher buffers events on a channel for the worker. Emit never
// blocks the request path: if the buffer is full the event is dropped and
// counted against the logger, because lifecycle writes must not stall on a
// slow sink.
type ChannelPublisher struct {
	inbox  chan Event
	logger *slog.Logger
}

func NewChannelPublisher(buffer int, logger *slog.Logger) *ChannelPublisher {
	if buffer <= 0 {
		buffer = 256
	}
	return &ChannelPublisher{
		inbox:  make(chan Event, buffer),
		logger: logger,
	}
}

func (p *ChannelPublisher) Emit(ctx context.Context, event Event) error {
	select {
	case p.inbox <- event:
	default:
		p.logger.WarnContext(ctx, "event buffer full, dropping event",
			"event_type", string(event.Type),
			"event_id", event.ID,
		)
	}
	return nil
}

// Inbox exposes the channel for the worker.
func (p *ChannelPublisher) Inbox() <-chan Event { return p.inbox }

// Worker drains the publisher channel into one or more sinks.
type Worker struct {
	inbox  <-chan Event
	sinks  []Sink
	logger *slog.Logger
}

func NewWorker(inbox <-chan Event, logger *slog.Logger, sinks ...Sink) *Worker {
	return &Worker{inbox: inbox, sinks: sinks, logger: logger}
}

// Run delivers events until the context is cancelled. A failing sink is
// logged and skipped; one broken consumer must not starve the others.
func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event := <-w.inbox:
			for _, sink := range w.sinks {
				if err := sink.Handle(ctx, event); err != nil {
					w.logger.ErrorContext(ctx, "event sink failed",
						"error", err,
						"event_type", string(event.Type),
						"event_id", event.ID,
					)
				}
			}
		}
	}
}
