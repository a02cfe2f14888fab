package notifications

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Type identifies what happened; consumers pick templates and channels from it.
type Type string

const (
	TypePaymentCaptured   Type = "payment_captured"
	TypeEscrowReleased    Type = "escrow_released"
	TypeRefundProcessed   Type = "refund_processed"
	TypeBookingCancelled  Type = "booking_cancelled"
	TypePlacementExpiring Type = "placement_expiring"
	TypePlacementExpired  Type = "placement_expired"
)

// Notification is the message published to the broker. Delivery channels
// (email, SMS, push) are resolved by the downstream consumer.
type Notification struct {
	ID          uuid.UUID              `json:"id"`
	Type        Type                   `json:"type"`
	RecipientID uuid.UUID              `json:"recipient_id"`
	Title       string                 `json:"title"`
	Body        string                 `json:"body"`
	BookingID   *uuid.UUID             `json:"booking_id,omitempty"`
	Data        map[string]interface{} `json:"data,omitempty"`
	CreatedAt   time.Time              `json:"created_at"`
}

// NewNotification builds a notification with a fresh ID and timestamp.
func NewNotification(notificationType Type, recipientID uuid.UUID, title, body string) *Notification {
	return &Notification{
		ID:          uuid.New(),
		Type:        notificationType,
		RecipientID: recipientID,
		Title:       title,
		Body:        body,
		CreatedAt:   time.Now(),
	}
}

// WithBooking attaches booking context for partition routing and templates.
func (n *Notification) WithBooking(bookingID uuid.UUID) *Notification {
	n.BookingID = &bookingID
	return n
}

// WithData attaches template data.
func (n *Notification) WithData(data map[string]interface{}) *Notification {
	n.Data = data
	return n
}

// ToJSON serializes the notification for the wire.
func (n *Notification) ToJSON() ([]byte, error) {
	return json.Marshal(n)
}

// PartitionKey routes all notifications for one recipient to the same
// partition so they are consumed in order.
func (n *Notification) PartitionKey() string {
	return n.RecipientID.String()
}
