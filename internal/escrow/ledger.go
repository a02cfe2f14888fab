package escrow

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Ledger applies lifecycle events to payment records. Every applied event
// validates against the state machine, appends an audit entry and persists
// under the record's optimistic-concurrency version, so at most one
// in-flight transition per record wins.
type Ledger struct {
	repo Repository
}

// NewLedger creates a new escrow ledger
func NewLedger(repo Repository) *Ledger {
	return &Ledger{repo: repo}
}

// Transition applies event to the record and persists the result. On an
// illegal event the record is returned to its read state and nothing is
// written. mutate, when non-nil, runs after the status change so callers can
// update processor references in the same versioned write.
func (l *Ledger) Transition(ctx context.Context, record *PaymentRecord, event Event, actor string, mutate func(*PaymentRecord)) error {
	from := record.Status

	next, err := from.Next(event)
	if err != nil {
		return err
	}

	readState := *record
	readVersion := record.Version
	record.Status = next
	if mutate != nil {
		mutate(record)
	}

	audit := &PaymentAudit{
		PaymentRecordID: record.ID,
		BookingID:       record.BookingID,
		FromStatus:      from,
		ToStatus:        next,
		Event:           event,
		TriggeringActor: actor,
		CreatedAt:       time.Now(),
	}

	if err := l.repo.SaveWithVersion(ctx, record, readVersion, audit); err != nil {
		// Roll the whole in-memory copy back, including mutate's changes,
		// so a retry starts from a clean read.
		*record = readState
		return fmt.Errorf("failed to persist transition %s -> %s: %w", from, next, err)
	}

	return nil
}

// MarkInconsistent flags the record for manual reconciliation without
// changing its lifecycle status. Used when an external call timed out and
// the processor-side outcome is unknown.
func (l *Ledger) MarkInconsistent(ctx context.Context, record *PaymentRecord, actor string) error {
	readVersion := record.Version
	record.InconsistentExternalState = true

	audit := &PaymentAudit{
		PaymentRecordID: record.ID,
		BookingID:       record.BookingID,
		FromStatus:      record.Status,
		ToStatus:        record.Status,
		Event:           Event("MARKED_INCONSISTENT"),
		TriggeringActor: actor,
		CreatedAt:       time.Now(),
	}

	if err := l.repo.SaveWithVersion(ctx, record, readVersion, audit); err != nil {
		record.InconsistentExternalState = false
		record.Version = readVersion
		return fmt.Errorf("failed to mark record inconsistent: %w", err)
	}

	return nil
}

// AuditTrail returns the append-only history for a record.
func (l *Ledger) AuditTrail(ctx context.Context, recordID uuid.UUID) ([]PaymentAudit, error) {
	return l.repo.GetAuditTrail(ctx, recordID)
}
