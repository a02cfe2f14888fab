package payments

// CreatePaymentRequest starts the advance charge for a confirmed booking.
type CreatePaymentRequest struct {
	BookingID  string `json:"booking_id" binding:"required,uuid"`
	PriestType string `json:"priest_type" binding:"required,oneof=independent temple_employee freelance"`
	// RetentionAmountCents is an optional audit marker withheld from the
	// priest payout schedule; it never changes the computed split.
	RetentionAmountCents int64 `json:"retention_amount_cents" binding:"gte=0"`
}

// ConfirmPaymentRequest acknowledges that the devotee-side payment flow
// settled the intent.
type ConfirmPaymentRequest struct {
	PaymentIntentID string `json:"payment_intent_id" binding:"required"`
}

// RefundRequest cancels a booking and triggers the policy-derived refund.
type RefundRequest struct {
	ReasonCode string `json:"reason_code" binding:"required"`
}
