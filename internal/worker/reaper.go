// Package worker runs the background side of the engine: the reaper that expires
// stale holds and recovers leaked seats, and the payment outcome consumer.
package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Domenick1991/airinventory/internal/domain"
	"github.com/Domenick1991/airinventory/internal/ledger"
	"github.com/Domenick1991/airinventory/pkg/logger"
)

type BookingSweeper interface {
	ExpirePendingBookings(ctx context.Context) ([]domain.Booking, error)
	ReleaseOrphanTokens(ctx context.Context) (int, error)
}

type FlightLister interface {
	ListSummaries(ctx context.Context) ([]domain.FlightSummary, error)
}

type Auditor interface {
	Audit(ctx context.Context, flightID string) (ledger.AuditReport, error)
}

type SweepResult struct {
	Expired     int
	Orphans     int
	Audited     int
	Quarantined []string
}

type Reaper struct {
	bookings BookingSweeper
	flights  FlightLister
	auditor  Auditor
	interval time.Duration
	log      logger.Logger
}

type ReaperOption func(*Reaper)

// WithAudit audits every scheduled flight after each sweep.
func WithAudit(flights FlightLister, auditor Auditor) ReaperOption {
	return func(r *Reaper) {
		r.flights = flights
		r.auditor = auditor
	}
}

func NewReaper(bookings BookingSweeper, interval time.Duration, log logger.Logger, opts ...ReaperOption) *Reaper {
	r := &Reaper{
		bookings: bookings,
		interval: interval,
		log:      log.With("component", "reaper"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run sweeps every interval until ctx is canceled.
func (r *Reaper) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.log.Info("reaper started", "interval", r.interval.String())
	for {
		select {
		case <-ctx.Done():
			r.log.Info("reaper stopped")
			return nil
		case <-ticker.C:
			if _, err := r.Sweep(ctx); err != nil && ctx.Err() == nil {
				r.log.Error("sweep finished with errors", "error", err)
			}
		}
	}
}

// Sweep expires stale PENDING bookings, releases orphaned seat tokens and, when
// configured, audits every flight. Steps run independently; their errors are joined.
func (r *Reaper) Sweep(ctx context.Context) (SweepResult, error) {
	var (
		result SweepResult
		errs   []error
	)

	expired, err := r.bookings.ExpirePendingBookings(ctx)
	result.Expired = len(expired)
	if err != nil {
		errs = append(errs, fmt.Errorf("expire pending bookings: %w", err))
	}

	result.Orphans, err = r.bookings.ReleaseOrphanTokens(ctx)
	if err != nil {
		errs = append(errs, fmt.Errorf("release orphan tokens: %w", err))
	}

	if r.auditor != nil {
		audited, quarantined, err := r.auditAll(ctx)
		result.Audited, result.Quarantined = audited, quarantined
		if err != nil {
			errs = append(errs, err)
		}
	}

	if result.Expired > 0 || result.Orphans > 0 || len(result.Quarantined) > 0 {
		r.log.Info("sweep finished",
			"expired", result.Expired,
			"orphans_released", result.Orphans,
			"audited", result.Audited,
			"quarantined", len(result.Quarantined),
		)
	}
	return result, errors.Join(errs...)
}

func (r *Reaper) auditAll(ctx context.Context) (int, []string, error) {
	summaries, err := r.flights.ListSummaries(ctx)
	if err != nil {
		return 0, nil, fmt.Errorf("list flights: %w", err)
	}

	var (
		audited     int
		quarantined []string
		errs        []error
	)
	for _, fs := range summaries {
		report, err := r.auditor.Audit(ctx, fs.ID)
		if err != nil {
			errs = append(errs, fmt.Errorf("audit flight %s: %w", fs.ID, err))
			continue
		}
		audited++
		if report.Quarantined {
			quarantined = append(quarantined, fs.ID)
		}
		if !report.Healthy() {
			r.log.Error("flight accounting inconsistent",
				"flight_id", fs.ID, "problem", report.Problem, "invariant_violation", true)
		}
	}
	return audited, quarantined, errors.Join(errs...)
}
