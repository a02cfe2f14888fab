package payments

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// SandboxProcessor is an in-memory Processor used in development and tests.
// It honors idempotency keys the way a real provider does: replaying a key
// returns the original object instead of creating a new one.
type SandboxProcessor struct {
	mu        sync.Mutex
	intents   map[string]*Intent
	transfers map[string]*Transfer
	refunds   map[string]*Refund
	byKey     map[string]string
}

func NewSandboxProcessor() *SandboxProcessor {
	return &SandboxProcessor{
		intents:   make(map[string]*Intent),
		transfers: make(map[string]*Transfer),
		refunds:   make(map[string]*Refund),
		byKey:     make(map[string]string),
	}
}

func (p *SandboxProcessor) CreateIntent(ctx context.Context, params IntentParams) (*Intent, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if params.AmountCents <= 0 {
		return nil, &ProcessorError{Code: "amount_invalid", Message: "amount must be positive", Retryable: false}
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if id, ok := p.byKey[params.IdempotencyKey]; ok && params.IdempotencyKey != "" {
		return p.intents[id], nil
	}

	intent := &Intent{
		ID:              "pi_" + strings.ReplaceAll(uuid.New().String(), "-", ""),
		ClientSecret:    "secret_" + uuid.New().String(),
		AmountCents:     params.AmountCents,
		Currency:        params.Currency,
		TransferGroupID: params.TransferGroupID,
		Status:          IntentStatusRequiresPayment,
	}
	p.intents[intent.ID] = intent
	if params.IdempotencyKey != "" {
		p.byKey[params.IdempotencyKey] = intent.ID
	}
	return intent, nil
}

func (p *SandboxProcessor) GetIntent(ctx context.Context, intentID string) (*Intent, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	intent, ok := p.intents[intentID]
	if !ok {
		return nil, &ProcessorError{Code: "resource_missing", Message: fmt.Sprintf("no such payment intent: %s", intentID), Retryable: false}
	}
	return intent, nil
}

// SettleIntent marks a sandbox intent as captured, standing in for the
// client-side confirmation flow a real provider runs.
func (p *SandboxProcessor) SettleIntent(intentID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	intent, ok := p.intents[intentID]
	if !ok {
		return &ProcessorError{Code: "resource_missing", Message: fmt.Sprintf("no such payment intent: %s", intentID), Retryable: false}
	}
	intent.Status = IntentStatusSucceeded
	return nil
}

func (p *SandboxProcessor) CreateTransfer(ctx context.Context, params TransferParams) (*Transfer, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if params.AmountCents <= 0 {
		return nil, &ProcessorError{Code: "amount_invalid", Message: "amount must be positive", Retryable: false}
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if id, ok := p.byKey[params.IdempotencyKey]; ok && params.IdempotencyKey != "" {
		return p.transfers[id], nil
	}

	transfer := &Transfer{
		ID:              "tr_" + strings.ReplaceAll(uuid.New().String(), "-", ""),
		AmountCents:     params.AmountCents,
		Destination:     params.Destination,
		TransferGroupID: params.TransferGroupID,
	}
	p.transfers[transfer.ID] = transfer
	if params.IdempotencyKey != "" {
		p.byKey[params.IdempotencyKey] = transfer.ID
	}
	return transfer, nil
}

func (p *SandboxProcessor) CreateRefund(ctx context.Context, params RefundParams) (*Refund, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if params.AmountCents <= 0 {
		return nil, &ProcessorError{Code: "amount_invalid", Message: "refund amount must be positive", Retryable: false}
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if _, ok := p.intents[params.PaymentIntentID]; !ok {
		return nil, &ProcessorError{Code: "resource_missing", Message: fmt.Sprintf("no such payment intent: %s", params.PaymentIntentID), Retryable: false}
	}

	if id, ok := p.byKey[params.IdempotencyKey]; ok && params.IdempotencyKey != "" {
		return p.refunds[id], nil
	}

	refund := &Refund{
		ID:              "re_" + strings.ReplaceAll(uuid.New().String(), "-", ""),
		PaymentIntentID: params.PaymentIntentID,
		AmountCents:     params.AmountCents,
		Status:          "succeeded",
	}
	p.refunds[refund.ID] = refund
	if params.IdempotencyKey != "" {
		p.byKey[params.IdempotencyKey] = refund.ID
	}
	return refund, nil
}
