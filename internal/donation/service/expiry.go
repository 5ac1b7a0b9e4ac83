package service

import (
	"context"
	"log/slog"
	"time"

	"dana/internal/donation/metrics"
	"dana/internal/donation/models"
	"dana/internal/events"
	dErrors "dana/pkg/domain-errors"
	"dana/pkg/requestcontext"
)

// Sweeper marks donations expired once their expiry date passes. It is the
// only writer of the expired status; clients cannot request it.
type Sweeper struct {
	donations Store
	publisher events.Publisher
	metrics   *metrics.Metrics
	logger    *slog.Logger
	interval  time.Duration
}

func NewSweeper(donations Store, interval time.Duration, opts ...SweeperOption) *Sweeper {
	s := &Sweeper{
		donations: donations,
		publisher: events.NopPublisher{},
		metrics:   metrics.NewNop(),
		logger:    slog.Default(),
		interval:  interval,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type SweeperOption func(*Sweeper)

func SweeperWithLogger(logger *slog.Logger) SweeperOption {
	return func(s *Sweeper) { s.logger = logger }
}

func SweeperWithPublisher(publisher events.Publisher) SweeperOption {
	return func(s *Sweeper) { s.publisher = publisher }
}

func SweeperWithMetrics(m *metrics.Metrics) SweeperOption {
	return func(s *Sweeper) { s.metrics = m }
}

// Run sweeps on the configured interval until the context is cancelled.
func (s *Sweeper) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := s.Sweep(ctx); err != nil {
				s.logger.ErrorContext(ctx, "expiry sweep failed", "error", err)
			}
		}
	}
}

// Sweep expires every due donation. Each donation goes through Execute
// individually, so a donation completed between the listing and the write
// simply fails revalidation and is skipped.
func (s *Sweeper) Sweep(ctx context.Context) error {
	start := time.Now()
	defer func() {
		s.metrics.SweepDuration.Observe(time.Since(start).Seconds())
	}()

	now := time.Now()
	ctx = requestcontext.WithTime(ctx, now)
	due, err := s.donations.ListExpirable(ctx, now)
	if err != nil {
		return err
	}

	var expired int
	for _, candidate := range due {
		donation, err := s.donations.Execute(ctx, candidate.ID,
			func(d *models.Donation) error { return d.CanExpire() },
			func(d *models.Donation) { d.ApplyExpire(now) },
		)
		if err != nil {
			if dErrors.HasCode(err, dErrors.CodeValidation) {
				continue
			}
			s.logger.ErrorContext(ctx, "failed to expire donation",
				"donation_id", candidate.ID.String(),
				"error", err,
			)
			continue
		}
		expired++
		s.metrics.Transitions.WithLabelValues(string(models.StatusExpired)).Inc()

		event := events.New(events.DonationExpired, now)
		event.DonationID = donation.ID.String()
		if err := s.publisher.Emit(ctx, event); err != nil {
			s.logger.WarnContext(ctx, "failed to emit expiry event", "error", err)
		}
	}

	if expired > 0 {
		s.metrics.SweepExpired.Add(float64(expired))
		s.logger.InfoContext(ctx, "expiry sweep completed",
			"expired", expired,
			"candidates", len(due),
		)
	}
	return nil
}
