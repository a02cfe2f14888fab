package payments

import (
	"context"
	"fmt"
)

// Processor abstracts the external payment provider. Only the advance is
// ever charged up front; the remainder settles offline between devotee and
// priest. All amounts are integer minor units of the record's currency.
type Processor interface {
	// CreateIntent authorizes and captures the advance for a booking.
	CreateIntent(ctx context.Context, params IntentParams) (*Intent, error)
	// GetIntent fetches the provider-side state of an intent, used to
	// reconcile records flagged after a timeout.
	GetIntent(ctx context.Context, intentID string) (*Intent, error)
	// CreateTransfer moves a share of held funds to a payout destination
	// within the intent's transfer group.
	CreateTransfer(ctx context.Context, params TransferParams) (*Transfer, error)
	// CreateRefund returns part or all of the captured advance to the payer.
	CreateRefund(ctx context.Context, params RefundParams) (*Refund, error)
}

// IntentParams describes the charge to create.
type IntentParams struct {
	AmountCents     int64
	Currency        string
	TransferGroupID string
	// IdempotencyKey is forwarded to the provider so retried calls cannot
	// double-charge.
	IdempotencyKey string
	Metadata       map[string]string
}

// IntentStatus is the provider-side lifecycle of a charge.
type IntentStatus string

const (
	IntentStatusRequiresPayment IntentStatus = "requires_payment"
	IntentStatusSucceeded       IntentStatus = "succeeded"
	IntentStatusFailed          IntentStatus = "failed"
)

// Intent is the provider's record of a charge.
type Intent struct {
	ID              string       `json:"id"`
	ClientSecret    string       `json:"client_secret"`
	AmountCents     int64        `json:"amount_cents"`
	Currency        string       `json:"currency"`
	TransferGroupID string       `json:"transfer_group_id"`
	Status          IntentStatus `json:"status"`
}

// TransferParams describes a payout leg.
type TransferParams struct {
	AmountCents     int64
	Currency        string
	Destination     string
	TransferGroupID string
	IdempotencyKey  string
}

// Transfer is the provider's record of a payout.
type Transfer struct {
	ID              string `json:"id"`
	AmountCents     int64  `json:"amount_cents"`
	Destination     string `json:"destination"`
	TransferGroupID string `json:"transfer_group_id"`
}

// RefundParams describes a refund against a captured intent.
type RefundParams struct {
	PaymentIntentID string
	AmountCents     int64
	Reason          string
	IdempotencyKey  string
}

// Refund is the provider's record of a refund.
type Refund struct {
	ID              string `json:"id"`
	PaymentIntentID string `json:"payment_intent_id"`
	AmountCents     int64  `json:"amount_cents"`
	Status          string `json:"status"`
}

// ProcessorError is a structured failure from the provider. Retryable
// errors (rate limits, transient network faults) may be retried with the
// same idempotency key; non-retryable ones surface to the caller.
type ProcessorError struct {
	Code      string
	Message   string
	Retryable bool
}

func (e *ProcessorError) Error() string {
	return fmt.Sprintf("processor error %s: %s", e.Code, e.Message)
}
