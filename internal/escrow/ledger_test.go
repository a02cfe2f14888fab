package escrow

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
)

// fakeRepo keeps records in memory and mimics the versioned write.
type fakeRepo struct {
	records map[uuid.UUID]*PaymentRecord
	audits  []PaymentAudit
	saveErr error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{records: make(map[uuid.UUID]*PaymentRecord)}
}

func (f *fakeRepo) CreatePaymentRecord(ctx context.Context, record *PaymentRecord) error {
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	if record.Version == 0 {
		record.Version = 1
	}
	copied := *record
	f.records[record.ID] = &copied
	return nil
}

func (f *fakeRepo) GetByBookingID(ctx context.Context, bookingID uuid.UUID) (*PaymentRecord, error) {
	for _, r := range f.records {
		if r.BookingID == bookingID {
			copied := *r
			return &copied, nil
		}
	}
	return nil, errors.New("payment record not found")
}

func (f *fakeRepo) GetByPaymentIntentID(ctx context.Context, paymentIntentID string) (*PaymentRecord, error) {
	for _, r := range f.records {
		if r.PaymentIntentID == paymentIntentID {
			copied := *r
			return &copied, nil
		}
	}
	return nil, errors.New("payment record not found")
}

func (f *fakeRepo) SaveWithVersion(ctx context.Context, record *PaymentRecord, readVersion int64, audit *PaymentAudit) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	stored, ok := f.records[record.ID]
	if !ok {
		return errors.New("payment record not found")
	}
	if stored.Version != readVersion {
		return ErrConcurrentModification
	}
	record.Version = readVersion + 1
	copied := *record
	f.records[record.ID] = &copied
	if audit != nil {
		f.audits = append(f.audits, *audit)
	}
	return nil
}

func (f *fakeRepo) ListDueForRelease(ctx context.Context, now time.Time, limit int) ([]PaymentRecord, error) {
	var due []PaymentRecord
	for _, r := range f.records {
		if (r.Status == StatusHeldInEscrow || r.Status == StatusPartiallyReleased) &&
			r.EscrowReleaseAt != nil && !r.EscrowReleaseAt.After(now) && !r.InconsistentExternalState {
			due = append(due, *r)
		}
	}
	return due, nil
}

func (f *fakeRepo) GetAuditTrail(ctx context.Context, recordID uuid.UUID) ([]PaymentAudit, error) {
	var trail []PaymentAudit
	for _, a := range f.audits {
		if a.PaymentRecordID == recordID {
			trail = append(trail, a)
		}
	}
	return trail, nil
}

func (f *fakeRepo) CreateRefundTransaction(ctx context.Context, refund *RefundTransaction) error {
	return nil
}

func (f *fakeRepo) GetRefundByBookingID(ctx context.Context, bookingID uuid.UUID) (*RefundTransaction, error) {
	return nil, errors.New("refund transaction not found")
}

func newHeldRecord(t *testing.T, repo *fakeRepo) *PaymentRecord {
	t.Helper()
	record := &PaymentRecord{
		ID:               uuid.New(),
		BookingID:        uuid.New(),
		AdvanceCents:     10000,
		PriestShareCents: 19000,
		Status:           StatusHeldInEscrow,
		Version:          1,
	}
	if err := repo.CreatePaymentRecord(context.Background(), record); err != nil {
		t.Fatalf("seed record: %v", err)
	}
	return record
}

func TestTransition_LegalPath(t *testing.T) {
	repo := newFakeRepo()
	ledger := NewLedger(repo)
	ctx := context.Background()

	record := &PaymentRecord{
		ID:        uuid.New(),
		BookingID: uuid.New(),
		Status:    StatusRequiresPayment,
		Version:   1,
	}
	repo.CreatePaymentRecord(ctx, record)

	steps := []struct {
		event Event
		want  Status
	}{
		{EventPaymentConfirmed, StatusProcessing},
		{EventChargeSettled, StatusHeldInEscrow},
		{EventReleased, StatusReleased},
		{EventCompleted, StatusCompleted},
	}

	for _, step := range steps {
		if err := ledger.Transition(ctx, record, step.event, "test", nil); err != nil {
			t.Fatalf("event %s: unexpected error: %v", step.event, err)
		}
		if record.Status != step.want {
			t.Fatalf("event %s: status = %s, want %s", step.event, record.Status, step.want)
		}
	}

	trail, _ := ledger.AuditTrail(ctx, record.ID)
	if len(trail) != len(steps) {
		t.Errorf("audit trail has %d entries, want %d", len(trail), len(steps))
	}
}

func TestTransition_IllegalEventLeavesRecordUnchanged(t *testing.T) {
	repo := newFakeRepo()
	ledger := NewLedger(repo)
	ctx := context.Background()
	record := newHeldRecord(t, repo)

	err := ledger.Transition(ctx, record, EventCompleted, "test", nil)

	var stateErr *InvalidStateTransitionError
	if !errors.As(err, &stateErr) {
		t.Fatalf("expected InvalidStateTransitionError, got %v", err)
	}
	if record.Status != StatusHeldInEscrow {
		t.Errorf("status = %s, want unchanged HELD_IN_ESCROW", record.Status)
	}
	if len(repo.audits) != 0 {
		t.Errorf("illegal transition appended %d audit entries", len(repo.audits))
	}
}

func TestTransition_ReleaseIsAtMostOnce(t *testing.T) {
	repo := newFakeRepo()
	ledger := NewLedger(repo)
	ctx := context.Background()
	record := newHeldRecord(t, repo)

	if err := ledger.Transition(ctx, record, EventReleased, "test", nil); err != nil {
		t.Fatalf("first release: %v", err)
	}

	err := ledger.Transition(ctx, record, EventReleased, "test", nil)
	var stateErr *InvalidStateTransitionError
	if !errors.As(err, &stateErr) {
		t.Fatalf("second release: expected InvalidStateTransitionError, got %v", err)
	}
	if record.Status != StatusReleased {
		t.Errorf("status = %s, want RELEASED", record.Status)
	}
}

func TestTransition_NoRefundAfterRelease(t *testing.T) {
	repo := newFakeRepo()
	ledger := NewLedger(repo)
	ctx := context.Background()
	record := newHeldRecord(t, repo)

	if err := ledger.Transition(ctx, record, EventReleased, "test", nil); err != nil {
		t.Fatalf("release: %v", err)
	}

	for _, event := range []Event{EventRefunded, EventPartiallyRefunded} {
		err := ledger.Transition(ctx, record, event, "test", nil)
		var stateErr *InvalidStateTransitionError
		if !errors.As(err, &stateErr) {
			t.Errorf("event %s after release: expected InvalidStateTransitionError, got %v", event, err)
		}
	}
}

func TestTransition_RefundReachableFromCapturedStates(t *testing.T) {
	for _, from := range []Status{StatusProcessing, StatusHeldInEscrow, StatusPartiallyReleased} {
		next, err := from.Next(EventPartiallyRefunded)
		if err != nil {
			t.Errorf("from %s: %v", from, err)
			continue
		}
		if next != StatusPartiallyRefunded {
			t.Errorf("from %s: next = %s, want PARTIALLY_REFUNDED", from, next)
		}
	}
}

func TestTransition_ConcurrentModificationRollsBackMemory(t *testing.T) {
	repo := newFakeRepo()
	ledger := NewLedger(repo)
	ctx := context.Background()
	record := newHeldRecord(t, repo)

	// Another writer advanced the stored record.
	repo.records[record.ID].Version = 5

	err := ledger.Transition(ctx, record, EventReleased, "test", nil)
	if !errors.Is(err, ErrConcurrentModification) {
		t.Fatalf("expected ErrConcurrentModification, got %v", err)
	}
	if record.Status != StatusHeldInEscrow {
		t.Errorf("status = %s, want rolled back to HELD_IN_ESCROW", record.Status)
	}
	if record.Version != 1 {
		t.Errorf("version = %d, want rolled back to 1", record.Version)
	}
}

func TestTransition_FailedPersistRollsBackMutation(t *testing.T) {
	repo := newFakeRepo()
	ledger := NewLedger(repo)
	ctx := context.Background()
	record := newHeldRecord(t, repo)

	repo.records[record.ID].Version = 5

	releaseAt := time.Now().Add(24 * time.Hour)
	err := ledger.Transition(ctx, record, EventReleased, "test", func(r *PaymentRecord) {
		r.PriestTransferID = "tr_ghost"
		r.EscrowReleaseAt = &releaseAt
	})
	if !errors.Is(err, ErrConcurrentModification) {
		t.Fatalf("expected ErrConcurrentModification, got %v", err)
	}
	if record.PriestTransferID != "" {
		t.Errorf("transfer ID = %q, want mutation rolled back", record.PriestTransferID)
	}
	if record.EscrowReleaseAt != nil {
		t.Error("release time must be rolled back with the failed write")
	}
}

func TestMarkInconsistent_PreservesStatus(t *testing.T) {
	repo := newFakeRepo()
	ledger := NewLedger(repo)
	ctx := context.Background()
	record := newHeldRecord(t, repo)

	if err := ledger.MarkInconsistent(ctx, record, "orchestrator"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !record.InconsistentExternalState {
		t.Error("expected inconsistent flag to be set")
	}
	if record.Status != StatusHeldInEscrow {
		t.Errorf("status = %s, want unchanged HELD_IN_ESCROW", record.Status)
	}
	if len(repo.audits) != 1 {
		t.Errorf("audit trail has %d entries, want 1", len(repo.audits))
	}
}

func TestStatus_Terminality(t *testing.T) {
	for _, s := range []Status{StatusCompleted, StatusRefunded, StatusPartiallyRefunded} {
		if !s.IsTerminal() {
			t.Errorf("%s should be terminal", s)
		}
	}
	for _, s := range []Status{StatusRequiresPayment, StatusProcessing, StatusHeldInEscrow, StatusPartiallyReleased, StatusReleased} {
		if s.IsTerminal() {
			t.Errorf("%s should not be terminal", s)
		}
	}
}
