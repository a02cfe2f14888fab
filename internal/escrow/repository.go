package escrow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ErrConcurrentModification signals an optimistic-concurrency conflict: the
// record changed since it was read. Callers should re-read and retry.
var ErrConcurrentModification = errors.New("payment record was modified concurrently; re-read and retry")

// Repository interface defines the contract for escrow ledger persistence
type Repository interface {
	CreatePaymentRecord(ctx context.Context, record *PaymentRecord) error
	GetByBookingID(ctx context.Context, bookingID uuid.UUID) (*PaymentRecord, error)
	GetByPaymentIntentID(ctx context.Context, paymentIntentID string) (*PaymentRecord, error)
	// SaveWithVersion persists the record and its audit entry in one
	// transaction, guarded by the version read earlier.
	SaveWithVersion(ctx context.Context, record *PaymentRecord, readVersion int64, audit *PaymentAudit) error
	ListDueForRelease(ctx context.Context, now time.Time, limit int) ([]PaymentRecord, error)
	GetAuditTrail(ctx context.Context, recordID uuid.UUID) ([]PaymentAudit, error)

	CreateRefundTransaction(ctx context.Context, refund *RefundTransaction) error
	GetRefundByBookingID(ctx context.Context, bookingID uuid.UUID) (*RefundTransaction, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository creates a new escrow repository instance
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) CreatePaymentRecord(ctx context.Context, record *PaymentRecord) error {
	if record.Version == 0 {
		record.Version = 1
	}
	if err := r.db.WithContext(ctx).Create(record).Error; err != nil {
		return fmt.Errorf("failed to create payment record: %w", err)
	}
	return nil
}

func (r *repository) GetByBookingID(ctx context.Context, bookingID uuid.UUID) (*PaymentRecord, error) {
	var record PaymentRecord
	err := r.db.WithContext(ctx).First(&record, "booking_id = ?", bookingID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("payment record not found for booking: %s", bookingID)
		}
		return nil, fmt.Errorf("failed to get payment record: %w", err)
	}
	return &record, nil
}

func (r *repository) GetByPaymentIntentID(ctx context.Context, paymentIntentID string) (*PaymentRecord, error) {
	var record PaymentRecord
	err := r.db.WithContext(ctx).First(&record, "payment_intent_id = ?", paymentIntentID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("payment record not found for payment intent: %s", paymentIntentID)
		}
		return nil, fmt.Errorf("failed to get payment record: %w", err)
	}
	return &record, nil
}

// SaveWithVersion writes the record only if nobody advanced it since the
// caller's read. The version check and increment ride in the same UPDATE,
// and the audit insert shares the transaction so history can never diverge
// from the ledger.
func (r *repository) SaveWithVersion(ctx context.Context, record *PaymentRecord, readVersion int64, audit *PaymentAudit) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		record.Version = readVersion + 1
		record.UpdatedAt = time.Now()

		result := tx.Model(&PaymentRecord{}).
			Where("id = ? AND version = ?", record.ID, readVersion).
			Updates(map[string]interface{}{
				"status":                      record.Status,
				"payment_intent_id":           record.PaymentIntentID,
				"transfer_group_id":           record.TransferGroupID,
				"priest_transfer_id":          record.PriestTransferID,
				"temple_transfer_id":          record.TempleTransferID,
				"inconsistent_external_state": record.InconsistentExternalState,
				"escrow_release_at":           record.EscrowReleaseAt,
				"version":                     record.Version,
				"updated_at":                  record.UpdatedAt,
			})
		if result.Error != nil {
			return fmt.Errorf("failed to update payment record: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return ErrConcurrentModification
		}

		if audit != nil {
			if err := tx.Create(audit).Error; err != nil {
				return fmt.Errorf("failed to append audit entry: %w", err)
			}
		}

		return nil
	})
}

func (r *repository) ListDueForRelease(ctx context.Context, now time.Time, limit int) ([]PaymentRecord, error) {
	var records []PaymentRecord
	err := r.db.WithContext(ctx).
		Where("status IN ?", []Status{StatusHeldInEscrow, StatusPartiallyReleased}).
		Where("escrow_release_at IS NOT NULL AND escrow_release_at <= ?", now).
		Where("inconsistent_external_state = ?", false).
		Order("escrow_release_at ASC").
		Limit(limit).
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list records due for release: %w", err)
	}
	return records, nil
}

func (r *repository) GetAuditTrail(ctx context.Context, recordID uuid.UUID) ([]PaymentAudit, error) {
	var trail []PaymentAudit
	err := r.db.WithContext(ctx).
		Where("payment_record_id = ?", recordID).
		Order("created_at ASC").
		Find(&trail).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get audit trail: %w", err)
	}
	return trail, nil
}

func (r *repository) CreateRefundTransaction(ctx context.Context, refund *RefundTransaction) error {
	if err := r.db.WithContext(ctx).Create(refund).Error; err != nil {
		return fmt.Errorf("failed to create refund transaction: %w", err)
	}
	return nil
}

func (r *repository) GetRefundByBookingID(ctx context.Context, bookingID uuid.UUID) (*RefundTransaction, error) {
	var refund RefundTransaction
	err := r.db.WithContext(ctx).First(&refund, "booking_id = ?", bookingID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("refund transaction not found for booking: %s", bookingID)
		}
		return nil, fmt.Errorf("failed to get refund transaction: %w", err)
	}
	return &refund, nil
}
