package escrow

import (
	"time"

	"pujasetu/internal/pricing"
	"pujasetu/internal/shared/money"

	"github.com/google/uuid"
)

// PaymentRecord is the ledger entry for one booking's money. Created at
// advance-payment time, mutated only through Ledger.Transition, never
// deleted. All money columns are integer cents.
type PaymentRecord struct {
	ID        uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	BookingID uuid.UUID `gorm:"type:uuid;uniqueIndex;not null" json:"booking_id"`

	// The split computed at creation time, denormalized for dispute history
	TotalCents           int64 `gorm:"not null" json:"total_cents"`
	AdvanceCents         int64 `gorm:"not null" json:"advance_cents"`
	RemainingCents       int64 `gorm:"not null" json:"remaining_cents"`
	PriestShareCents     int64 `gorm:"not null" json:"priest_share_cents"`
	TempleShareCents     int64 `gorm:"not null;default:0" json:"temple_share_cents"`
	PlatformFeeCents     int64 `gorm:"not null" json:"platform_fee_cents"`
	RetentionAmountCents int64 `gorm:"not null;default:0" json:"retention_amount_cents"`

	Currency string `gorm:"type:varchar(3);default:'inr'" json:"currency"`

	// External processor references, stored verbatim
	PaymentIntentID  string `gorm:"type:varchar(120);index" json:"payment_intent_id"`
	TransferGroupID  string `gorm:"type:varchar(120)" json:"transfer_group_id"`
	PriestTransferID string `gorm:"type:varchar(120)" json:"priest_transfer_id,omitempty"`
	TempleTransferID string `gorm:"type:varchar(120)" json:"temple_transfer_id,omitempty"`

	Status Status `gorm:"type:varchar(24);not null;default:'REQUIRES_PAYMENT'" json:"status"`

	// InconsistentExternalState marks a timeout or partial failure where
	// the processor outcome is unknown; cleared only by reconciliation.
	InconsistentExternalState bool `gorm:"not null;default:false" json:"inconsistent_external_state"`

	// EscrowReleaseAt is when held funds become eligible for automatic release.
	EscrowReleaseAt *time.Time `gorm:"index" json:"escrow_release_at,omitempty"`

	// Version is the optimistic-concurrency token; every write checks and
	// increments it.
	Version int64 `gorm:"not null;default:1" json:"version"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName sets the table name for PaymentRecord
func (PaymentRecord) TableName() string {
	return "payment_records"
}

// Split reconstructs the PaymentSplit view of the record.
func (r *PaymentRecord) Split() pricing.PaymentSplit {
	return pricing.PaymentSplit{
		Total:           money.FromCents(r.TotalCents),
		Advance:         money.FromCents(r.AdvanceCents),
		Remaining:       money.FromCents(r.RemainingCents),
		PriestShare:     money.FromCents(r.PriestShareCents),
		TempleShare:     money.FromCents(r.TempleShareCents),
		PlatformFee:     money.FromCents(r.PlatformFeeCents),
		RetentionAmount: money.FromCents(r.RetentionAmountCents),
	}
}

// ApplySplit copies a computed split onto the record.
func (r *PaymentRecord) ApplySplit(split pricing.PaymentSplit) {
	r.TotalCents = split.Total.Cents()
	r.AdvanceCents = split.Advance.Cents()
	r.RemainingCents = split.Remaining.Cents()
	r.PriestShareCents = split.PriestShare.Cents()
	r.TempleShareCents = split.TempleShare.Cents()
	r.PlatformFeeCents = split.PlatformFee.Cents()
	r.RetentionAmountCents = split.RetentionAmount.Cents()
}

// OutstandingTransfers lists the payout legs not yet issued. A leg with a
// stored transfer id already succeeded and must never be re-sent.
func (r *PaymentRecord) OutstandingTransfers() []TransferLeg {
	var legs []TransferLeg
	if r.PriestTransferID == "" && r.PriestShareCents > 0 {
		legs = append(legs, TransferLegPriest)
	}
	if r.TempleTransferID == "" && r.TempleShareCents > 0 {
		legs = append(legs, TransferLegTemple)
	}
	return legs
}

// TransferLeg identifies a payout destination within a transfer group.
type TransferLeg string

const (
	TransferLegPriest TransferLeg = "priest"
	TransferLegTemple TransferLeg = "temple"
)

// PaymentAudit is one append-only lifecycle step. Audit rows are the durable
// dispute-resolution history and carry no foreign key to bookings so they
// survive a booking deletion.
type PaymentAudit struct {
	ID              uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	PaymentRecordID uuid.UUID `gorm:"type:uuid;index;not null" json:"payment_record_id"`
	BookingID       uuid.UUID `gorm:"type:uuid;index;not null" json:"booking_id"`
	FromStatus      Status    `gorm:"type:varchar(24);not null" json:"from_status"`
	ToStatus        Status    `gorm:"type:varchar(24);not null" json:"to_status"`
	Event           Event     `gorm:"type:varchar(24);not null" json:"event"`
	TriggeringActor string    `gorm:"type:varchar(120);not null" json:"triggering_actor"`
	CreatedAt       time.Time `json:"created_at"`
}

// TableName sets the table name for PaymentAudit
func (PaymentAudit) TableName() string {
	return "payment_audits"
}

// RefundStatus tracks the external refund call outcome.
type RefundStatus string

const (
	RefundStatusPending   RefundStatus = "PENDING"
	RefundStatusSucceeded RefundStatus = "SUCCEEDED"
	RefundStatusFailed    RefundStatus = "FAILED"
)

// RefundTransaction is created once per cancellation event and immutable
// after creation.
type RefundTransaction struct {
	ID              uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	BookingID       uuid.UUID `gorm:"type:uuid;uniqueIndex;not null" json:"booking_id"`
	PaymentIntentID string    `gorm:"type:varchar(120);not null" json:"payment_intent_id"`

	RefundAmountCents    int64 `gorm:"not null" json:"refund_amount_cents"`
	CancellationFeeCents int64 `gorm:"not null" json:"cancellation_fee_cents"`
	RefundPercentage     int   `gorm:"not null" json:"refund_percentage"`

	ReasonCode  string `gorm:"type:varchar(60)" json:"reason_code"`
	Explanation string `gorm:"type:text" json:"explanation"`

	ProcessorRefundID string       `gorm:"type:varchar(120)" json:"processor_refund_id,omitempty"`
	Status            RefundStatus `gorm:"type:varchar(12);not null;default:'PENDING'" json:"status"`

	CreatedAt time.Time `json:"created_at"`
}

// TableName sets the table name for RefundTransaction
func (RefundTransaction) TableName() string {
	return "refund_transactions"
}
