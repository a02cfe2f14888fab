package bookings

type Status string

const (
	StatusQuoteRequested Status = "QUOTE_REQUESTED"
	StatusConfirmed      Status = "CONFIRMED"
	StatusInProgress     Status = "IN_PROGRESS"
	StatusCompleted      Status = "COMPLETED"
	StatusCancelled      Status = "CANCELLED"
)

// IsValid checks if the booking status is valid
func (s Status) IsValid() bool {
	switch s {
	case StatusQuoteRequested, StatusConfirmed, StatusInProgress, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// String returns the string representation of Status
func (s Status) String() string {
	return string(s)
}

// CanBeCancelled checks if a booking with this status can be cancelled
func (s Status) CanBeCancelled() bool {
	return s == StatusConfirmed || s == StatusInProgress
}

// IsPriceLocked reports whether the total price is frozen. The quote total
// becomes immutable the moment the devotee confirms.
func (s Status) IsPriceLocked() bool {
	return s != StatusQuoteRequested
}
