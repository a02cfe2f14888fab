package escrow

import "fmt"

// Status is the lifecycle state of a payment record.
type Status string

const (
	StatusRequiresPayment   Status = "REQUIRES_PAYMENT"
	StatusProcessing        Status = "PROCESSING"
	StatusHeldInEscrow      Status = "HELD_IN_ESCROW"
	StatusPartiallyReleased Status = "PARTIALLY_RELEASED"
	StatusReleased          Status = "RELEASED"
	StatusCompleted         Status = "COMPLETED"
	StatusRefunded          Status = "REFUNDED"
	StatusPartiallyRefunded Status = "PARTIALLY_REFUNDED"
)

// Event is a lifecycle trigger applied to a payment record.
type Event string

const (
	EventPaymentConfirmed Event = "PAYMENT_CONFIRMED"
	EventChargeSettled    Event = "CHARGE_SETTLED"
	EventPartialRelease   Event = "PARTIAL_RELEASE"
	EventReleased         Event = "RELEASED"
	EventCompleted        Event = "COMPLETED"
	EventRefunded         Event = "REFUNDED"
	EventPartiallyRefunded Event = "PARTIALLY_REFUNDED"
)

// transitions is the single source of truth for legal lifecycle steps.
// Release is only reachable from HELD_IN_ESCROW or PARTIALLY_RELEASED and
// RELEASED accepts no further release event, which is what makes a double
// payout structurally impossible rather than a matter of caller discipline.
// Refunds are reachable from any pre-release captured state but never from
// RELEASED.
var transitions = map[Status]map[Event]Status{
	StatusRequiresPayment: {
		EventPaymentConfirmed: StatusProcessing,
	},
	StatusProcessing: {
		EventChargeSettled:     StatusHeldInEscrow,
		EventRefunded:          StatusRefunded,
		EventPartiallyRefunded: StatusPartiallyRefunded,
	},
	StatusHeldInEscrow: {
		EventPartialRelease:    StatusPartiallyReleased,
		EventReleased:          StatusReleased,
		EventRefunded:          StatusRefunded,
		EventPartiallyRefunded: StatusPartiallyRefunded,
	},
	StatusPartiallyReleased: {
		EventReleased:          StatusReleased,
		EventRefunded:          StatusRefunded,
		EventPartiallyRefunded: StatusPartiallyRefunded,
	},
	StatusReleased: {
		EventCompleted: StatusCompleted,
	},
	// COMPLETED, REFUNDED and PARTIALLY_REFUNDED are terminal.
}

// IsValid checks if the status is a known lifecycle state
func (s Status) IsValid() bool {
	switch s {
	case StatusRequiresPayment, StatusProcessing, StatusHeldInEscrow,
		StatusPartiallyReleased, StatusReleased, StatusCompleted,
		StatusRefunded, StatusPartiallyRefunded:
		return true
	}
	return false
}

// String returns the string representation of Status
func (s Status) String() string {
	return string(s)
}

// IsTerminal reports whether no further events are accepted.
func (s Status) IsTerminal() bool {
	return len(transitions[s]) == 0
}

// CanRefund reports whether captured funds can still be returned.
func (s Status) CanRefund() bool {
	_, full := transitions[s][EventRefunded]
	_, partial := transitions[s][EventPartiallyRefunded]
	return full || partial
}

// Next returns the status reached by applying event, or an
// InvalidStateTransitionError when the step is illegal.
func (s Status) Next(event Event) (Status, error) {
	next, ok := transitions[s][event]
	if !ok {
		return s, &InvalidStateTransitionError{From: s, Event: event}
	}
	return next, nil
}

// InvalidStateTransitionError rejects an illegal lifecycle step; the record
// is left untouched.
type InvalidStateTransitionError struct {
	From  Status
	Event Event
}

func (e *InvalidStateTransitionError) Error() string {
	return fmt.Sprintf("invalid state transition: event %s not allowed from status %s", e.Event, e.From)
}
