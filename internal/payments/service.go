package payments

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"pujasetu/internal/bookings"
	"pujasetu/internal/cancellation"
	"pujasetu/internal/escrow"
	"pujasetu/internal/notifications"
	"pujasetu/internal/pricing"
	"pujasetu/internal/shared/config"
	"pujasetu/internal/shared/money"
	"pujasetu/pkg/logger"
)

// Service orchestrates the payment lifecycle: advance charge, escrow hold,
// split release, and cancellation refunds. Every external processor call is
// bounded by the configured timeout and keyed for idempotent replay.
type Service interface {
	CreateAdvancePayment(ctx context.Context, req CreatePaymentRequest) (*PaymentResponse, error)
	ConfirmPayment(ctx context.Context, bookingID uuid.UUID, req ConfirmPaymentRequest) (*PaymentResponse, error)
	ReleaseEscrowFunds(ctx context.Context, bookingID uuid.UUID, actor string) (*ReleaseResponse, error)
	ProcessCancellationRefund(ctx context.Context, bookingID uuid.UUID, req RefundRequest) (*RefundResponse, error)
	CompleteService(ctx context.Context, bookingID uuid.UUID, actor string) error
	GetPayment(ctx context.Context, bookingID uuid.UUID) (*PaymentResponse, error)
	GetAuditTrail(ctx context.Context, bookingID uuid.UUID) ([]escrow.PaymentAudit, error)
}

type service struct {
	bookingService bookings.Service
	policyService  cancellation.Service
	repo           escrow.Repository
	ledger         *escrow.Ledger
	processor      Processor
	idempotency    *IdempotencyStore
	notifier       notifications.Sender
	cfg            *config.Config
	log            *logger.Logger
}

func NewService(
	bookingService bookings.Service,
	policyService cancellation.Service,
	repo escrow.Repository,
	ledger *escrow.Ledger,
	processor Processor,
	idempotency *IdempotencyStore,
	notifier notifications.Sender,
	cfg *config.Config,
	log *logger.Logger,
) Service {
	return &service{
		bookingService: bookingService,
		policyService:  policyService,
		repo:           repo,
		ledger:         ledger,
		processor:      processor,
		idempotency:    idempotency,
		notifier:       notifier,
		cfg:            cfg,
		log:            log,
	}
}

// CreateAdvancePayment charges only the advance portion of a confirmed
// booking. The ledger record is created before the processor call so a
// timeout leaves a reconcilable row instead of an orphaned charge.
func (s *service) CreateAdvancePayment(ctx context.Context, req CreatePaymentRequest) (*PaymentResponse, error) {
	bookingID, err := uuid.Parse(req.BookingID)
	if err != nil {
		return nil, fmt.Errorf("invalid booking ID: %w", err)
	}

	var cached PaymentResponse
	if found, err := s.idempotency.Get(ctx, bookingID, OperationCreatePayment, &cached); err == nil && found {
		return &cached, nil
	}

	booking, err := s.bookingService.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if !booking.IsConfirmed() {
		return nil, fmt.Errorf("booking %s is not confirmed; payment requires a locked quote", bookingID)
	}

	if existing, err := s.repo.GetByBookingID(ctx, bookingID); err == nil {
		// A record already exists; replay instead of double-charging.
		return buildPaymentResponse(existing), nil
	}

	split, err := pricing.ComputeSplit(pricing.SplitInput{
		Total:                 money.FromCents(booking.TotalPriceCents),
		AdvancePercentage:     booking.AdvancePercentage,
		PriestType:            pricing.PriestType(req.PriestType),
		TempleSharePercentage: s.cfg.Payments.TempleSharePercentage,
		PlatformFeePercentage: s.cfg.Payments.PlatformFeePercentage,
		RetentionAmount:       money.FromCents(req.RetentionAmountCents),
	})
	if err != nil {
		return nil, err
	}

	record := &escrow.PaymentRecord{
		BookingID:       bookingID,
		Currency:        s.cfg.Payments.Currency,
		TransferGroupID: fmt.Sprintf("booking_%s", bookingID),
		Status:          escrow.StatusRequiresPayment,
		Version:         1,
	}
	record.ApplySplit(split)

	if err := s.repo.CreatePaymentRecord(ctx, record); err != nil {
		return nil, err
	}

	intent, err := s.callCreateIntent(ctx, record, split)
	if err != nil {
		return nil, err
	}

	record.PaymentIntentID = intent.ID
	if err := s.repo.SaveWithVersion(ctx, record, record.Version, nil); err != nil {
		return nil, fmt.Errorf("failed to attach payment intent: %w", err)
	}

	s.log.LogPaymentCreated(ctx, bookingID.String(), intent.ID, split.Advance.Cents())

	resp := buildPaymentResponse(record)
	resp.ClientSecret = intent.ClientSecret
	if err := s.idempotency.Save(ctx, bookingID, OperationCreatePayment, resp); err != nil {
		s.log.ErrorWithContext(ctx, "failed to save idempotency record", err, map[string]interface{}{"booking_id": bookingID.String()})
	}
	return resp, nil
}

func (s *service) callCreateIntent(ctx context.Context, record *escrow.PaymentRecord, split pricing.PaymentSplit) (*Intent, error) {
	callCtx, cancel := context.WithTimeout(ctx, s.cfg.Payments.ProcessorTimeout)
	defer cancel()

	intent, err := s.processor.CreateIntent(callCtx, IntentParams{
		AmountCents:     split.Advance.Cents(),
		Currency:        record.Currency,
		TransferGroupID: record.TransferGroupID,
		IdempotencyKey:  s.idempotency.Key(record.BookingID, OperationCreatePayment),
		Metadata:        map[string]string{"booking_id": record.BookingID.String()},
	})
	if err != nil {
		if isTimeout(err) {
			s.markInconsistent(ctx, record, "create_intent", err)
			return nil, fmt.Errorf("payment intent creation timed out; record flagged for reconciliation: %w", err)
		}
		return nil, fmt.Errorf("failed to create payment intent: %w", err)
	}
	return intent, nil
}

// ConfirmPayment verifies the charge settled on the provider side and moves
// the record into escrow. The release timestamp is set from the booking's
// service time plus the configured hold window.
func (s *service) ConfirmPayment(ctx context.Context, bookingID uuid.UUID, req ConfirmPaymentRequest) (*PaymentResponse, error) {
	record, err := s.repo.GetByBookingID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if record.PaymentIntentID != req.PaymentIntentID {
		return nil, fmt.Errorf("payment intent %s does not belong to booking %s", req.PaymentIntentID, bookingID)
	}
	if record.Status == escrow.StatusHeldInEscrow {
		return buildPaymentResponse(record), nil
	}

	booking, err := s.bookingService.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	callCtx, cancel := context.WithTimeout(ctx, s.cfg.Payments.ProcessorTimeout)
	intent, err := s.processor.GetIntent(callCtx, record.PaymentIntentID)
	cancel()
	if err != nil {
		if isTimeout(err) {
			s.markInconsistent(ctx, record, "confirm_payment", err)
			return nil, fmt.Errorf("payment confirmation timed out; record flagged for reconciliation: %w", err)
		}
		return nil, fmt.Errorf("failed to verify payment intent: %w", err)
	}
	if intent.Status != IntentStatusSucceeded {
		return nil, fmt.Errorf("payment intent %s has not settled (status %s)", intent.ID, intent.Status)
	}

	// A prior attempt may have confirmed but failed to persist the settle
	// step; resume from wherever the record is instead of re-firing.
	if record.Status != escrow.StatusProcessing {
		if err := s.ledger.Transition(ctx, record, escrow.EventPaymentConfirmed, "devotee", nil); err != nil {
			return nil, err
		}
	}

	releaseAt := booking.ServiceAt.Add(s.cfg.Payments.EscrowHoldWindow)
	if err := s.ledger.Transition(ctx, record, escrow.EventChargeSettled, "processor", func(r *escrow.PaymentRecord) {
		r.EscrowReleaseAt = &releaseAt
	}); err != nil {
		return nil, err
	}

	s.notify(ctx, notifications.NewNotification(
		notifications.TypePaymentCaptured,
		booking.PriestID,
		"Advance payment received",
		fmt.Sprintf("The advance for %s is held in escrow until after the service.", booking.ServiceName),
	).WithBooking(bookingID))

	return buildPaymentResponse(record), nil
}

// ReleaseEscrowFunds pays out the held shares. Each payout leg is transferred
// at most once: legs that already carry a transfer ID are skipped, and a
// partial failure leaves the record PARTIALLY_RELEASED with the completed
// leg's ID persisted.
func (s *service) ReleaseEscrowFunds(ctx context.Context, bookingID uuid.UUID, actor string) (*ReleaseResponse, error) {
	var cached ReleaseResponse
	if found, err := s.idempotency.Get(ctx, bookingID, OperationRelease, &cached); err == nil && found {
		return &cached, nil
	}

	record, err := s.repo.GetByBookingID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if record.InconsistentExternalState {
		return nil, fmt.Errorf("payment record for booking %s awaits manual reconciliation; refusing automatic release", bookingID)
	}
	if record.Status != escrow.StatusHeldInEscrow && record.Status != escrow.StatusPartiallyReleased {
		return nil, &escrow.InvalidStateTransitionError{From: record.Status, Event: escrow.EventReleased}
	}

	booking, err := s.bookingService.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	legs := record.OutstandingTransfers()
	if len(legs) == 0 {
		return nil, fmt.Errorf("no outstanding payout legs for booking %s", bookingID)
	}

	var (
		releasedCents int64
		transferIDs   []string
		completed     = make(map[escrow.TransferLeg]string)
	)

	for _, leg := range legs {
		amount, destination := s.legDetails(record, booking, leg)
		callCtx, cancel := context.WithTimeout(ctx, s.cfg.Payments.ProcessorTimeout)
		transfer, err := s.processor.CreateTransfer(callCtx, TransferParams{
			AmountCents:     amount,
			Currency:        record.Currency,
			Destination:     destination,
			TransferGroupID: record.TransferGroupID,
			IdempotencyKey:  fmt.Sprintf("%s:%s", s.idempotency.Key(bookingID, OperationRelease), leg),
		})
		cancel()
		if err != nil {
			s.persistPartialRelease(ctx, record, completed, actor)
			if isTimeout(err) {
				s.markInconsistent(ctx, record, fmt.Sprintf("release_%s_leg", leg), err)
				return nil, fmt.Errorf("%s transfer timed out; record flagged for reconciliation: %w", leg, err)
			}
			return nil, fmt.Errorf("%s transfer failed: %w", leg, err)
		}
		completed[leg] = transfer.ID
		transferIDs = append(transferIDs, transfer.ID)
		releasedCents += amount
	}

	if err := s.ledger.Transition(ctx, record, escrow.EventReleased, actor, func(r *escrow.PaymentRecord) {
		applyTransferIDs(r, completed)
	}); err != nil {
		// Money has moved but the ledger write failed; flag for
		// reconciliation so nothing trusts the stale status.
		s.markInconsistent(ctx, record, "release_ledger_write", err)
		return nil, fmt.Errorf("transfers succeeded but ledger update failed; record flagged for reconciliation: %w", err)
	}

	s.log.LogEscrowReleased(ctx, bookingID.String(), transferIDs)
	s.notify(ctx, notifications.NewNotification(
		notifications.TypeEscrowReleased,
		booking.PriestID,
		"Escrow released",
		fmt.Sprintf("Your share for %s has been paid out.", booking.ServiceName),
	).WithBooking(bookingID))

	resp := &ReleaseResponse{
		BookingID:        bookingID.String(),
		Status:           record.Status,
		PriestTransferID: record.PriestTransferID,
		TempleTransferID: record.TempleTransferID,
		ReleasedCents:    releasedCents,
	}
	if err := s.idempotency.Save(ctx, bookingID, OperationRelease, resp); err != nil {
		s.log.ErrorWithContext(ctx, "failed to save idempotency record", err, map[string]interface{}{"booking_id": bookingID.String()})
	}
	return resp, nil
}

// persistPartialRelease records legs that completed before a later leg
// failed, so a retry never re-transfers them.
func (s *service) persistPartialRelease(ctx context.Context, record *escrow.PaymentRecord, completed map[escrow.TransferLeg]string, actor string) {
	if len(completed) == 0 {
		return
	}
	if err := s.ledger.Transition(ctx, record, escrow.EventPartialRelease, actor, func(r *escrow.PaymentRecord) {
		applyTransferIDs(r, completed)
	}); err != nil {
		s.log.ErrorWithContext(ctx, "failed to persist partial release", err, map[string]interface{}{
			"booking_id": record.BookingID.String(),
		})
	}
}

func (s *service) legDetails(record *escrow.PaymentRecord, booking *bookings.Booking, leg escrow.TransferLeg) (int64, string) {
	switch leg {
	case escrow.TransferLegTemple:
		dest := "acct_temple_unassigned"
		if booking.TempleID != nil {
			dest = fmt.Sprintf("acct_temple_%s", booking.TempleID)
		}
		return record.TempleShareCents, dest
	default:
		return record.PriestShareCents, fmt.Sprintf("acct_priest_%s", booking.PriestID)
	}
}

func applyTransferIDs(r *escrow.PaymentRecord, completed map[escrow.TransferLeg]string) {
	if id, ok := completed[escrow.TransferLegPriest]; ok {
		r.PriestTransferID = id
	}
	if id, ok := completed[escrow.TransferLegTemple]; ok {
		r.TempleTransferID = id
	}
}

// ProcessCancellationRefund cancels the booking and refunds the advance
// per the priest's cancellation policy. The refund base is only what was
// captured: the advance, never the full booking price.
func (s *service) ProcessCancellationRefund(ctx context.Context, bookingID uuid.UUID, req RefundRequest) (*RefundResponse, error) {
	var cached RefundResponse
	if found, err := s.idempotency.Get(ctx, bookingID, OperationRefund, &cached); err == nil && found {
		return &cached, nil
	}
	if existing, err := s.repo.GetRefundByBookingID(ctx, bookingID); err == nil {
		return refundResponseFrom(existing), nil
	}

	booking, err := s.bookingService.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if !booking.Status.CanBeCancelled() {
		return nil, fmt.Errorf("booking %s cannot be cancelled from status %s", bookingID, booking.Status)
	}

	record, err := s.repo.GetByBookingID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if !record.Status.CanRefund() {
		return nil, &escrow.InvalidStateTransitionError{From: record.Status, Event: escrow.EventRefunded}
	}

	outcome := s.evaluatePolicy(ctx, booking, req.ReasonCode)

	advance := money.FromCents(record.AdvanceCents)
	refundAmount := advance.Percent(outcome.RefundPercentage)
	fee := advance.Sub(refundAmount)

	var processorRefundID string
	if refundAmount.Cents() > 0 {
		callCtx, cancel := context.WithTimeout(ctx, s.cfg.Payments.ProcessorTimeout)
		refund, err := s.processor.CreateRefund(callCtx, RefundParams{
			PaymentIntentID: record.PaymentIntentID,
			AmountCents:     refundAmount.Cents(),
			Reason:          req.ReasonCode,
			IdempotencyKey:  s.idempotency.Key(bookingID, OperationRefund),
		})
		cancel()
		if err != nil {
			if isTimeout(err) {
				s.markInconsistent(ctx, record, "cancellation_refund", err)
				return nil, fmt.Errorf("refund timed out; record flagged for reconciliation: %w", err)
			}
			return nil, fmt.Errorf("refund failed: %w", err)
		}
		processorRefundID = refund.ID
	}

	event := escrow.EventPartiallyRefunded
	if outcome.RefundPercentage == 100 {
		event = escrow.EventRefunded
	}
	if err := s.ledger.Transition(ctx, record, event, "devotee", nil); err != nil {
		if processorRefundID != "" {
			s.markInconsistent(ctx, record, "refund_ledger_write", err)
			return nil, fmt.Errorf("refund issued but ledger update failed; record flagged for reconciliation: %w", err)
		}
		return nil, err
	}

	refundTx := &escrow.RefundTransaction{
		BookingID:            bookingID,
		PaymentIntentID:      record.PaymentIntentID,
		RefundAmountCents:    refundAmount.Cents(),
		CancellationFeeCents: fee.Cents(),
		RefundPercentage:     outcome.RefundPercentage,
		ReasonCode:           req.ReasonCode,
		Explanation:          outcome.Explanation,
		ProcessorRefundID:    processorRefundID,
		Status:               escrow.RefundStatusSucceeded,
	}
	if err := s.repo.CreateRefundTransaction(ctx, refundTx); err != nil {
		return nil, err
	}

	if err := s.bookingService.MarkCancelled(ctx, bookingID); err != nil {
		s.log.ErrorWithContext(ctx, "refund processed but booking not marked cancelled", err, map[string]interface{}{
			"booking_id": bookingID.String(),
		})
	}

	s.log.LogRefundProcessed(ctx, bookingID.String(), refundAmount.Cents(), outcome.RefundPercentage)
	s.notify(ctx, notifications.NewNotification(
		notifications.TypeRefundProcessed,
		booking.DevoteeID,
		"Refund processed",
		outcome.Explanation,
	).WithBooking(bookingID))

	resp := &RefundResponse{
		BookingID:            bookingID.String(),
		Status:               record.Status,
		RefundAmountCents:    refundAmount.Cents(),
		CancellationFeeCents: fee.Cents(),
		RefundPercentage:     outcome.RefundPercentage,
		EmergencyOverride:    outcome.EmergencyOverride,
		Explanation:          outcome.Explanation,
		ProcessorRefundID:    processorRefundID,
	}
	if err := s.idempotency.Save(ctx, bookingID, OperationRefund, resp); err != nil {
		s.log.ErrorWithContext(ctx, "failed to save idempotency record", err, map[string]interface{}{"booking_id": bookingID.String()})
	}
	return resp, nil
}

// evaluatePolicy applies the priest's policy; a priest without one is a
// configuration gap and refunds nothing rather than assuming 100%.
func (s *service) evaluatePolicy(ctx context.Context, booking *bookings.Booking, reasonCode string) cancellation.Outcome {
	warn := func(detail string) {
		s.log.LogPolicyConfigWarning(ctx, booking.PriestID.String(), detail)
	}

	policy, err := s.policyService.GetPolicy(ctx, booking.PriestID)
	if err != nil {
		warn(fmt.Sprintf("no cancellation policy configured for priest %s; defaulting to 0%% refund", booking.PriestID))
		return cancellation.Outcome{
			RefundPercentage: 0,
			Explanation:      "no cancellation policy is configured for this priest; no refund applies",
		}
	}

	hours := cancellation.HoursUntilService(booking.ServiceAt, time.Now())
	return cancellation.Evaluate(policy, hours, reasonCode, warn)
}

// CompleteService marks the booking's service as performed and, once the
// escrow funds have been released, closes the payment record.
func (s *service) CompleteService(ctx context.Context, bookingID uuid.UUID, actor string) error {
	if err := s.bookingService.MarkServiceCompleted(ctx, bookingID); err != nil {
		return err
	}

	record, err := s.repo.GetByBookingID(ctx, bookingID)
	if err != nil {
		// No advance was ever charged, so there is no escrow record to close.
		return nil
	}
	if record.Status != escrow.StatusReleased {
		return nil
	}
	if err := s.ledger.Transition(ctx, record, escrow.EventCompleted, actor, nil); err != nil {
		return fmt.Errorf("failed to close payment record: %w", err)
	}
	return nil
}

func (s *service) GetPayment(ctx context.Context, bookingID uuid.UUID) (*PaymentResponse, error) {
	record, err := s.repo.GetByBookingID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	return buildPaymentResponse(record), nil
}

func (s *service) GetAuditTrail(ctx context.Context, bookingID uuid.UUID) ([]escrow.PaymentAudit, error) {
	record, err := s.repo.GetByBookingID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	return s.ledger.AuditTrail(ctx, record.ID)
}

// markInconsistent flags the record after a timeout. The external outcome is
// unknown: the call may have gone through, so the record is never assumed
// failed and all automatic money movement stops until reconciled.
func (s *service) markInconsistent(ctx context.Context, record *escrow.PaymentRecord, operation string, cause error) {
	s.log.LogInconsistentState(ctx, record.BookingID.String(), operation, cause)
	if err := s.ledger.MarkInconsistent(ctx, record, "orchestrator"); err != nil {
		s.log.ErrorWithContext(ctx, "failed to flag inconsistent record", err, map[string]interface{}{
			"booking_id": record.BookingID.String(),
		})
	}
}

// notify is fire-and-forget: delivery failures never fail a money movement.
func (s *service) notify(ctx context.Context, notification *notifications.Notification) {
	if err := s.notifier.Send(ctx, notification); err != nil {
		s.log.ErrorWithContext(ctx, "failed to send notification", err, map[string]interface{}{
			"notification_type": string(notification.Type),
		})
	}
}

func refundResponseFrom(refund *escrow.RefundTransaction) *RefundResponse {
	status := escrow.StatusPartiallyRefunded
	if refund.RefundPercentage == 100 {
		status = escrow.StatusRefunded
	}
	return &RefundResponse{
		BookingID:            refund.BookingID.String(),
		Status:               status,
		RefundAmountCents:    refund.RefundAmountCents,
		CancellationFeeCents: refund.CancellationFeeCents,
		RefundPercentage:     refund.RefundPercentage,
		Explanation:          refund.Explanation,
		ProcessorRefundID:    refund.ProcessorRefundID,
	}
}

func isTimeout(err error) bool {
	return errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled)
}
