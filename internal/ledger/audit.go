package ledger

import (
	"context"
	"fmt"
)

// AuditReport is one flight's seat accounting read from a single store snapshot.
type AuditReport struct {
	FlightID          string `json:"flight_id"`
	Capacity          int    `json:"capacity"`
	Available         int    `json:"available"`
	OutstandingTokens int    `json:"outstanding_tokens"`
	ActiveBookings    int    `json:"active_bookings"`
	Quarantined       bool   `json:"quarantined"`
	QuarantineReason  string `json:"quarantine_reason,omitempty"`
	Problem           string `json:"problem,omitempty"`
}

func (r AuditReport) Healthy() bool {
	return r.Problem == ""
}

// Audit checks available+outstanding == capacity and active bookings <= outstanding
// tokens. Bookings may briefly trail tokens while a create or cancel is in flight, but
// never lead them. A failed audit quarantines the flight.
func (l *Ledger) Audit(ctx context.Context, flightID string) (AuditReport, error) {
	unlock, err := l.locks.Lock(ctx, flightID)
	if err != nil {
		return AuditReport{}, err
	}
	defer unlock()

	report, err := l.snapshotLocked(ctx, flightID)
	if err != nil {
		return AuditReport{}, err
	}
	if !report.Healthy() && !report.Quarantined {
		l.quarantineLocked(ctx, flightID, report.Problem, "audit")
		report.Quarantined, report.QuarantineReason = true, report.Problem
	}
	return report, nil
}

// Quarantine freezes reservations on the flight until an operator resolves it.
func (l *Ledger) Quarantine(ctx context.Context, flightID, reason, kind string) error {
	unlock, err := l.locks.Lock(ctx, flightID)
	if err != nil {
		return err
	}
	defer unlock()

	return l.quarantineLocked(ctx, flightID, reason, kind)
}

// Resolve lifts a quarantine, but only if the flight's accounting is consistent again.
func (l *Ledger) Resolve(ctx context.Context, flightID string) (AuditReport, error) {
	unlock, err := l.locks.Lock(ctx, flightID)
	if err != nil {
		return AuditReport{}, err
	}
	defer unlock()

	report, err := l.snapshotLocked(ctx, flightID)
	if err != nil {
		return AuditReport{}, err
	}
	if !report.Healthy() {
		return report, fmt.Errorf("flight %s still inconsistent: %s", flightID, report.Problem)
	}
	if err := l.store.SetQuarantine(ctx, flightID, ""); err != nil {
		return report, err
	}
	report.Quarantined, report.QuarantineReason = false, ""
	l.log.Info("flight quarantine resolved", "flight_id", flightID)
	return report, nil
}

func (l *Ledger) snapshotLocked(ctx context.Context, flightID string) (AuditReport, error) {
	account, err := l.store.Snapshot(ctx, flightID)
	if err != nil {
		return AuditReport{}, err
	}
	flight, outstanding, active := account.Flight, account.OutstandingTokens, account.ActiveBookings

	report := AuditReport{
		FlightID:          flightID,
		Capacity:          flight.Capacity,
		Available:         flight.AvailableSeats,
		OutstandingTokens: outstanding,
		ActiveBookings:    active,
		Quarantined:       flight.Quarantined(),
		QuarantineReason:  flight.QuarantineReason,
	}
	switch {
	case flight.AvailableSeats < 0 || flight.AvailableSeats > flight.Capacity:
		report.Problem = fmt.Sprintf("available seats %d outside [0, %d]", flight.AvailableSeats, flight.Capacity)
	case flight.AvailableSeats+outstanding != flight.Capacity:
		report.Problem = fmt.Sprintf("available %d + outstanding tokens %d != capacity %d", flight.AvailableSeats, outstanding, flight.Capacity)
	case active > outstanding:
		report.Problem = fmt.Sprintf("active bookings %d exceed outstanding tokens %d", active, outstanding)
	}
	return report, nil
}

func (l *Ledger) quarantineLocked(ctx context.Context, flightID, reason, kind string) error {
	l.metrics.InvariantViolations.WithLabelValues(kind).Inc()
	l.log.Error("flight quarantined",
		"flight_id", flightID,
		"reason", reason,
		"kind", kind,
		"invariant_violation", true,
	)
	if err := l.store.SetQuarantine(ctx, flightID, reason); err != nil {
		l.log.Error("failed to persist quarantine", "flight_id", flightID, "error", err, "invariant_violation", true)
		return err
	}
	return nil
}
