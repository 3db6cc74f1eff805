// Package validation holds the structural and business checks a candidate
// transaction must pass before anything is persisted.
package validation

import (
	"fmt"
	"strings"
	"time"

	"github.com/kevin07696/transaction-gateway/internal/domain"
	"github.com/kevin07696/transaction-gateway/pkg/timeutil"
)

const (
	minCardDigits  = 15
	maxCardDigits  = 19
	maxBrandLength = 4
	amountScale    = 2
)

// Config carries the allow-lists the rules check against
type Config struct {
	Currencies []string
	Kinds      []domain.TransactionKind
}

// DefaultConfig returns the allow-lists the gateway starts with
func DefaultConfig() Config {
	return Config{
		Currencies: []string{"USD", "EUR"},
		Kinds: []domain.TransactionKind{
			domain.KindPayment,
			domain.KindWithdrawal,
			domain.KindTransfer,
			domain.KindRefund,
		},
	}
}

// Rules validates candidate transactions. It is safe for concurrent use.
type Rules struct {
	currencies map[string]struct{}
	kinds      map[domain.TransactionKind]struct{}
	now        func() time.Time
}

// Option configures Rules
type Option func(*Rules)

// WithClock replaces the clock used for the card-expiry check
func WithClock(now func() time.Time) Option {
	return func(r *Rules) {
		r.now = now
	}
}

// NewRules builds an immutable rule set from cfg
func NewRules(cfg Config, opts ...Option) *Rules {
	r := &Rules{
		currencies: make(map[string]struct{}, len(cfg.Currencies)),
		kinds:      make(map[domain.TransactionKind]struct{}, len(cfg.Kinds)),
		now:        timeutil.Now,
	}
	for _, c := range cfg.Currencies {
		r.currencies[strings.ToUpper(c)] = struct{}{}
	}
	for _, k := range cfg.Kinds {
		r.kinds[k] = struct{}{}
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Validate checks the candidate in a fixed order and reports the first violation.
// The candidate is not modified.
func (r *Rules) Validate(t *domain.TransactionRecord) error {
	return r.ValidateParsed(t, nil)
}

// ValidateParsed is Validate for candidates built from raw input. A non-nil
// expiryErr is the failure to parse the card expiry and is reported in the
// expiry position of the sequence.
func (r *Rules) ValidateParsed(t *domain.TransactionRecord, expiryErr error) error {
	if t == nil {
		return domain.NewValidationError("transaction", "transaction is required")
	}

	if !t.Amount.IsPositive() {
		return domain.NewValidationError("amount", "amount must be greater than zero")
	}
	if !t.Amount.Equal(t.Amount.Round(amountScale)) {
		return domain.NewValidationError("amount",
			fmt.Sprintf("amount must have at most %d decimal places", amountScale))
	}

	if expiryErr != nil {
		return domain.NewValidationError("card_expiry", "card expiry must be in MM/YY format")
	}
	if t.CardExpiry.IsZero() {
		return domain.NewValidationError("card_expiry", "card expiry is required")
	}
	if t.CardExpiry.Before(timeutil.StartOfDay(r.now())) {
		return domain.NewValidationError("card_expiry", "card is expired")
	}

	if _, ok := r.currencies[t.Currency]; !ok {
		return domain.NewValidationError("currency", fmt.Sprintf("unsupported currency: %s", t.Currency))
	}

	if n := len(t.Brand); n < 1 || n > maxBrandLength {
		return domain.NewValidationError("brand",
			fmt.Sprintf("brand must be between 1 and %d characters", maxBrandLength))
	}

	if t.CardNumber != "" {
		if len(t.CardNumber) < minCardDigits || len(t.CardNumber) > maxCardDigits {
			return domain.NewValidationError("card_number",
				fmt.Sprintf("card number must have between %d and %d digits", minCardDigits, maxCardDigits))
		}
		if !allDigits(t.CardNumber) {
			return domain.NewValidationError("card_number", "card number must contain only digits")
		}
	}

	if _, ok := r.kinds[t.Kind]; !ok {
		return domain.NewValidationError("kind", fmt.Sprintf("unsupported transaction kind: %s", t.Kind))
	}

	if t.Kind == domain.KindTransfer && (t.BankSwift == "" || t.BankIban == "") {
		return domain.NewValidationError("bank_swift", "transfers require bank SWIFT and IBAN")
	}

	if t.Kind == domain.KindPayment && t.CardNumber == "" {
		return domain.NewValidationError("card_number", "payments require a card number")
	}

	if len(t.Country) != 2 {
		return domain.NewValidationError("country", "country code must be 2 characters (ISO)")
	}

	return nil
}

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
