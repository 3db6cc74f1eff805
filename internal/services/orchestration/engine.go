// Package orchestration runs a transaction through merchant enrichment,
// validation, persistence, processor dispatch and optional recurring
// registration.
package orchestration

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/kevin07696/transaction-gateway/internal/domain"
	"github.com/kevin07696/transaction-gateway/internal/domain/ports"
	serviceports "github.com/kevin07696/transaction-gateway/internal/services/ports"
	"github.com/kevin07696/transaction-gateway/internal/validation"
	"github.com/kevin07696/transaction-gateway/pkg/resilience"
	"github.com/kevin07696/transaction-gateway/pkg/timeutil"
)

const (
	channelTerminal  = "terminal"
	channelRecurring = "recurring_inbound"
	outcomeRefused   = "refused"

	idLength = 10

	// sent to the processor in place of the cardholder name on recurring charges
	recurringHolderName = "RECURRING CHARGE"

	// the processor contract carries an encrypted copy of the transaction; the
	// gateway does not encrypt yet and sends a fixed marker
	encryptedPayloadPlaceholder = "UNENCRYPTED"

	DefaultSearchLimit = 50
	MaxSearchLimit     = 500
)

// Engine implements serviceports.TransactionService.
// It holds no per-request state and is safe for concurrent use.
type Engine struct {
	store     ports.TransactionStore
	merchants ports.MerchantDirectory
	processor ports.PaymentProcessor
	recurring ports.RecurringBilling
	rules     *validation.Rules
	logger    ports.Logger
	metrics   ports.MetricsRecorder
	timeouts  *resilience.TimeoutConfig
	now       func() time.Time
	newID     func() string
	newCode   func() string
}

// Option customizes an Engine
type Option func(*Engine)

// WithMetrics sets the business metrics recorder
func WithMetrics(m ports.MetricsRecorder) Option {
	return func(e *Engine) {
		if m != nil {
			e.metrics = m
		}
	}
}

// WithTimeouts overrides the default timeout configuration
func WithTimeouts(tc *resilience.TimeoutConfig) Option {
	return func(e *Engine) {
		if tc != nil {
			e.timeouts = tc
		}
	}
}

// WithClock replaces the clock used for createdAt and schedule computation
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// WithIDGenerator replaces the record id and correlation code generators
func WithIDGenerator(newID, newCode func() string) Option {
	return func(e *Engine) {
		if newID != nil {
			e.newID = newID
		}
		if newCode != nil {
			e.newCode = newCode
		}
	}
}

// NewEngine creates a new orchestration engine
func NewEngine(
	store ports.TransactionStore,
	merchants ports.MerchantDirectory,
	processor ports.PaymentProcessor,
	recurring ports.RecurringBilling,
	rules *validation.Rules,
	logger ports.Logger,
	opts ...Option,
) *Engine {
	e := &Engine{
		store:     store,
		merchants: merchants,
		processor: processor,
		recurring: recurring,
		rules:     rules,
		logger:    logger,
		metrics:   ports.NopMetrics{},
		timeouts:  resilience.DefaultTimeoutConfig(),
		now:       timeutil.Now,
		newID:     generateID,
		newCode:   uuid.NewString,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func generateID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:idLength]
}

// SubmitFromTerminal enriches a terminal request with the merchant's settlement
// data, validates it, persists it as PENDING and dispatches it to the processor.
// A rejected or failed dispatch returns the finalized record along with the error.
func (e *Engine) SubmitFromTerminal(ctx context.Context, req *serviceports.TerminalRequest) (*domain.TransactionRecord, error) {
	start := time.Now()
	if req == nil {
		return nil, domain.NewValidationError("request", "request is required")
	}

	lookupCtx, cancel := e.timeouts.MerchantContext(ctx)
	lookupStart := time.Now()
	merchant, err := e.merchants.Lookup(lookupCtx, req.PosCode)
	cancel()
	e.metrics.RecordMerchantLookup(err == nil, time.Since(lookupStart))
	if err != nil {
		e.logger.Warn("merchant lookup failed",
			ports.String("pos_code", req.PosCode),
			ports.Err(err))
		e.metrics.RecordSubmission(channelTerminal, outcomeRefused, time.Since(start))
		return nil, domain.WrapError(domain.ErrorCodeUpstreamUnavailable, "merchant data unavailable", err).
			WithDetail("pos_code", req.PosCode)
	}

	expiry, expiryErr := parseExpiry(req.CardExpiry)

	modality := ports.ParseModality(strings.ToUpper(strings.TrimSpace(req.Modality)))
	candidate := &domain.TransactionRecord{
		CorrelationCode: strings.TrimSpace(req.CorrelationCode),
		Amount:          req.Amount,
		Kind:            domain.ParseKind(strings.TrimSpace(req.Kind)),
		Brand:           strings.TrimSpace(req.Brand),
		Currency:        strings.ToUpper(strings.TrimSpace(req.Currency)),
		Country:         strings.ToUpper(strings.TrimSpace(req.Country)),
		CardNumber:      strings.TrimSpace(req.CardNumber),
		CardExpiry:      expiry,
		BankSwift:       merchant.SettlementSwift,
		BankIban:        merchant.SettlementIban,
		Deferred:        modality == ports.ModalityDeferred && req.Installments > 1,
	}
	candidate.AuxiliaryNote = fmt.Sprintf("pos=%s merchant=%s card=%s ref=%s",
		req.PosCode, merchant.MerchantCode, candidate.MaskedCard(), req.Reference)

	if err := e.rules.ValidateParsed(candidate, expiryErr); err != nil {
		e.logger.Info("terminal transaction refused",
			ports.String("pos_code", req.PosCode),
			ports.Err(err))
		e.metrics.RecordSubmission(channelTerminal, outcomeRefused, time.Since(start))
		return nil, err
	}

	payload := &ports.AuthorizationRequest{
		Amount:           candidate.Amount,
		PosCode:          req.PosCode,
		MerchantCode:     merchant.MerchantCode,
		Kind:             string(candidate.Kind),
		Brand:            candidate.Brand,
		Modality:         modality,
		Currency:         candidate.Currency,
		CardNumber:       candidate.CardNumber,
		CardholderName:   req.CardholderName,
		CardExpiry:       domain.FormatCardExpiry(candidate.CardExpiry),
		SettlementSwift:  merchant.SettlementSwift,
		SettlementIban:   merchant.SettlementIban,
		EncryptedPayload: encryptedPayloadPlaceholder,
		SecurityCode:     req.SecurityCode,
		Installments:     req.Installments,
	}

	record, err := e.persistAndDispatch(ctx, candidate, payload)
	e.metrics.RecordSubmission(channelTerminal, submissionOutcome(record, err), time.Since(start))
	if err != nil {
		return record, err
	}

	wantsRecurrence := req.Recurring || modality == ports.ModalityRecurring
	if wantsRecurrence && req.FrequencyDays != nil && record.State == domain.StateActive {
		e.registerRecurring(ctx, record, req.SecurityCode, req.FrequencyDays)
	}

	return record, nil
}

// SubmitRecurringInbound processes a charge initiated by the recurring-billing
// service. The request already carries the settlement identifiers.
func (e *Engine) SubmitRecurringInbound(ctx context.Context, req *serviceports.RecurringInboundRequest) (*domain.TransactionRecord, error) {
	start := time.Now()
	if req == nil {
		return nil, domain.NewValidationError("request", "request is required")
	}

	expiry, expiryErr := parseExpiry(req.CardExpiry)

	candidate := &domain.TransactionRecord{
		CorrelationCode: e.newCode(),
		Amount:          req.Amount,
		Kind:            domain.KindPayment,
		Brand:           strings.TrimSpace(req.Brand),
		Currency:        strings.ToUpper(strings.TrimSpace(req.Currency)),
		Country:         strings.ToUpper(strings.TrimSpace(req.Country)),
		CardNumber:      strings.TrimSpace(req.CardNumber),
		CardExpiry:      expiry,
		BankSwift:       req.BankSwift,
		BankIban:        req.BankIban,
	}
	candidate.AuxiliaryNote = fmt.Sprintf("recurring card=%s", candidate.MaskedCard())

	if err := e.rules.ValidateParsed(candidate, expiryErr); err != nil {
		e.logger.Info("recurring transaction refused", ports.Err(err))
		e.metrics.RecordSubmission(channelRecurring, outcomeRefused, time.Since(start))
		return nil, err
	}

	payload := &ports.AuthorizationRequest{
		Amount:           candidate.Amount,
		Kind:             string(candidate.Kind),
		Brand:            candidate.Brand,
		Modality:         ports.ModalityRecurring,
		Currency:         candidate.Currency,
		CardNumber:       candidate.CardNumber,
		CardholderName:   recurringHolderName,
		CardExpiry:       domain.FormatCardExpiry(candidate.CardExpiry),
		SettlementSwift:  candidate.BankSwift,
		SettlementIban:   candidate.BankIban,
		EncryptedPayload: encryptedPayloadPlaceholder,
		SecurityCode:     req.SecurityCode,
	}

	record, err := e.persistAndDispatch(ctx, candidate, payload)
	e.metrics.RecordSubmission(channelRecurring, submissionOutcome(record, err), time.Since(start))
	return record, err
}

// persistAndDispatch stores the candidate as PENDING, calls the processor and
// writes the terminal state. The returned record is non-nil whenever a record
// was persisted, even when err is non-nil.
func (e *Engine) persistAndDispatch(ctx context.Context, candidate *domain.TransactionRecord, payload *ports.AuthorizationRequest) (*domain.TransactionRecord, error) {
	now := e.now()
	candidate.ID = e.newID()
	if candidate.CorrelationCode == "" {
		candidate.CorrelationCode = e.newCode()
	}
	candidate.State = domain.StatePending
	candidate.CreatedAt = now
	candidate.UpdatedAt = now

	if err := e.store.Create(ctx, candidate); err != nil {
		e.logger.Error("failed to persist pending transaction",
			ports.String("correlation_code", candidate.CorrelationCode),
			ports.Err(err))
		if _, ok := asDomainError(err); ok {
			return nil, err
		}
		return nil, domain.WrapError(domain.ErrorCodeDatabaseError, "failed to persist transaction", err)
	}

	payload.CorrelationCode = candidate.CorrelationCode
	payload.GatewayTag = uuid.NewString()

	procCtx, cancel := e.timeouts.ProcessorContext(ctx)
	callStart := time.Now()
	outcome, callErr := e.processor.Authorize(procCtx, payload)
	cancel()

	target, resultErr := e.classify(candidate, outcome, callErr)
	e.metrics.RecordProcessorCall(processorOutcome(outcome, callErr), time.Since(callStart))

	// the caller may have gone away; the terminal state is written regardless
	writeCtx, cancelWrite := e.timeouts.DetachedWriteContext(ctx)
	defer cancelWrite()
	final, err := e.store.TransitionState(writeCtx, candidate.ID, domain.StatePending, target)
	if err != nil {
		e.logger.Error("failed to finalize transaction",
			ports.String("transaction_id", candidate.ID),
			ports.String("target_state", string(target)),
			ports.Err(err))
		if domain.IsDomainError(err, domain.ErrorCodeTxnInvalidState) {
			return candidate, err
		}
		return candidate, domain.WrapError(domain.ErrorCodeDatabaseError, "failed to finalize transaction", err).
			WithDetail("transaction_id", candidate.ID)
	}

	e.logger.Info("transaction finalized",
		ports.String("transaction_id", final.ID),
		ports.String("correlation_code", final.CorrelationCode),
		ports.String("state", string(final.State)))

	return final, resultErr
}

// classify maps the processor result onto the terminal state and the error
// returned to the caller.
func (e *Engine) classify(record *domain.TransactionRecord, outcome *ports.AuthorizationOutcome, callErr error) (domain.TransactionState, error) {
	switch {
	case callErr != nil:
		e.logger.Error("processor dispatch failed",
			ports.String("transaction_id", record.ID),
			ports.Err(callErr))
		return domain.StateError, domain.WrapError(domain.ErrorCodeProcessingError,
			fmt.Sprintf("processing error: %v", callErr), callErr).
			WithDetail("transaction_id", record.ID)

	case outcome == nil || !outcome.Success:
		fields := []ports.Field{ports.String("transaction_id", record.ID)}
		if outcome != nil {
			fields = append(fields,
				ports.Int("status_code", outcome.StatusCode),
				ports.String("response_code", outcome.ResponseCode),
				ports.String("response_message", outcome.Message))
		}
		e.logger.Warn("processor declined transaction", fields...)
		de := domain.NewDomainError(domain.ErrorCodeProcessorRejected, "rejected by processor").
			WithDetail("transaction_id", record.ID)
		if outcome != nil {
			de.WithDetail("status_code", outcome.StatusCode)
		}
		return domain.StateRejected, de
	}

	return domain.StateActive, nil
}

// registerRecurring schedules future charges. Failures are logged and counted
// and never change the submission's result.
func (e *Engine) registerRecurring(ctx context.Context, record *domain.TransactionRecord, securityCode int, frequencyDays *int) {
	schedule := domain.ComputeSchedule(frequencyDays, e.now())
	reg := &ports.RecurringRegistration{
		StartDate:       schedule.Start,
		EndDate:         schedule.End,
		CardExpiry:      record.CardExpiry,
		Amount:          record.Amount,
		CorrelationCode: record.CorrelationCode,
		Brand:           record.Brand,
		Currency:        record.Currency,
		Country:         record.Country,
		CardNumber:      record.CardNumber,
		SettlementSwift: record.BankSwift,
		SettlementIban:  record.BankIban,
		BillingDay:      schedule.BillingDay,
		SecurityCode:    securityCode,
		FrequencyDays:   schedule.FrequencyDays,
	}

	regCtx, cancel := e.timeouts.RecurringContext(ctx)
	defer cancel()
	if err := e.recurring.Register(regCtx, reg); err != nil {
		wrapped := domain.WrapError(domain.ErrorCodeRecurringRegistration, "recurring registration failed", err)
		e.logger.Warn("recurring registration failed",
			ports.String("transaction_id", record.ID),
			ports.String("correlation_code", record.CorrelationCode),
			ports.Err(wrapped))
		e.metrics.RecordRecurringRegistration(false)
		return
	}

	e.metrics.RecordRecurringRegistration(true)
	e.logger.Info("recurring schedule registered",
		ports.String("transaction_id", record.ID),
		ports.String("start", schedule.Start.Format(time.DateOnly)),
		ports.String("end", schedule.End.Format(time.DateOnly)),
		ports.Int("frequency_days", schedule.FrequencyDays))
}

// SetState overwrites a record's state. Only PENDING, ACTIVE and INACTIVE may be
// set administratively; the PENDING-origin rule of the submission flow does not apply.
func (e *Engine) SetState(ctx context.Context, id string, state domain.TransactionState) (*domain.TransactionRecord, error) {
	if _, err := e.store.FindByID(ctx, id); err != nil {
		return nil, err
	}

	state = domain.ParseState(string(state))
	if !state.IsAdministrative() {
		return nil, domain.NewValidationError("state",
			fmt.Sprintf("state %q cannot be set administratively", state))
	}

	record, err := e.store.UpdateState(ctx, id, state)
	if err != nil {
		return nil, err
	}

	e.logger.Info("transaction state overridden",
		ports.String("transaction_id", id),
		ports.String("state", string(state)))
	return record, nil
}

// Get returns a record by id
func (e *Engine) Get(ctx context.Context, id string) (*domain.TransactionRecord, error) {
	return e.store.FindByID(ctx, id)
}

// GetByCorrelationCode returns the newest record carrying the code
func (e *Engine) GetByCorrelationCode(ctx context.Context, code string) (*domain.TransactionRecord, error) {
	return e.store.FindByCorrelationCode(ctx, code)
}

// Search returns records matching the filter. The limit is clamped to MaxSearchLimit.
func (e *Engine) Search(ctx context.Context, filter domain.SearchFilter) ([]*domain.TransactionRecord, error) {
	switch {
	case filter.Limit <= 0:
		filter.Limit = DefaultSearchLimit
	case filter.Limit > MaxSearchLimit:
		filter.Limit = MaxSearchLimit
	}
	if filter.State != "" {
		filter.State = domain.ParseState(string(filter.State))
	}
	if filter.Kind != "" {
		filter.Kind = domain.ParseKind(string(filter.Kind))
	}
	return e.store.Search(ctx, filter)
}

// parseExpiry leaves a blank expiry zero so the rules report it as missing.
func parseExpiry(raw string) (time.Time, error) {
	if strings.TrimSpace(raw) == "" {
		return time.Time{}, nil
	}
	return domain.ParseCardExpiry(raw)
}

func submissionOutcome(record *domain.TransactionRecord, err error) string {
	if record == nil {
		return outcomeRefused
	}
	if err != nil && domain.IsDomainError(err, domain.ErrorCodeTxnInvalidState) {
		return "conflict"
	}
	return strings.ToLower(string(record.State))
}

func processorOutcome(outcome *ports.AuthorizationOutcome, err error) string {
	switch {
	case err != nil:
		return "error"
	case outcome != nil && outcome.Success:
		return "approved"
	default:
		return "declined"
	}
}

func asDomainError(err error) (*domain.DomainError, bool) {
	var de *domain.DomainError
	ok := errors.As(err, &de)
	return de, ok
}

var _ serviceports.TransactionService = (*Engine)(nil)
