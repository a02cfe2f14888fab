package payments

import (
	"time"

	"pujasetu/internal/escrow"
	"pujasetu/internal/pricing"
)

// PaymentResponse is the API view of a payment record.
type PaymentResponse struct {
	BookingID       string               `json:"booking_id"`
	PaymentIntentID string               `json:"payment_intent_id,omitempty"`
	ClientSecret    string               `json:"client_secret,omitempty"`
	Status          escrow.Status        `json:"status"`
	Currency        string               `json:"currency"`
	Split           pricing.PaymentSplit `json:"split"`
	EscrowReleaseAt *time.Time           `json:"escrow_release_at,omitempty"`

	// InconsistentExternalState surfaces records awaiting manual
	// reconciliation after a processor timeout.
	InconsistentExternalState bool `json:"inconsistent_external_state,omitempty"`
}

// ReleaseResponse reports the outcome of an escrow release.
type ReleaseResponse struct {
	BookingID        string        `json:"booking_id"`
	Status           escrow.Status `json:"status"`
	PriestTransferID string        `json:"priest_transfer_id,omitempty"`
	TempleTransferID string        `json:"temple_transfer_id,omitempty"`
	ReleasedCents    int64         `json:"released_cents"`
}

// RefundResponse explains a cancellation refund: what was returned, what
// was kept, and why.
type RefundResponse struct {
	BookingID            string        `json:"booking_id"`
	Status               escrow.Status `json:"status"`
	RefundAmountCents    int64         `json:"refund_amount_cents"`
	CancellationFeeCents int64         `json:"cancellation_fee_cents"`
	RefundPercentage     int           `json:"refund_percentage"`
	EmergencyOverride    bool          `json:"emergency_override"`
	Explanation          string        `json:"explanation"`
	ProcessorRefundID    string        `json:"processor_refund_id,omitempty"`
}

func buildPaymentResponse(record *escrow.PaymentRecord) *PaymentResponse {
	return &PaymentResponse{
		BookingID:                 record.BookingID.String(),
		PaymentIntentID:           record.PaymentIntentID,
		Status:                    record.Status,
		Currency:                  record.Currency,
		Split:                     record.Split(),
		EscrowReleaseAt:           record.EscrowReleaseAt,
		InconsistentExternalState: record.InconsistentExternalState,
	}
}
