package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/kevin07696/transaction-gateway/pkg/timeutil"
	"github.com/shopspring/decimal"
)

// TransactionKind constrains which other fields of a record are mandatory
type TransactionKind string

const (
	KindPayment    TransactionKind = "PAYMENT"
	KindWithdrawal TransactionKind = "WITHDRAWAL"
	KindTransfer   TransactionKind = "TRANSFER"
	KindRefund     TransactionKind = "REFUND"
)

// legacyKinds maps the three-letter codes still sent by older terminals.
var legacyKinds = map[string]TransactionKind{
	"PAG": KindPayment,
	"RET": KindWithdrawal,
	"TRA": KindTransfer,
	"DEV": KindRefund,
}

// ParseKind normalizes a kind value. Unknown values are returned as-is so that
// validation can report them with the caller's spelling.
func ParseKind(s string) TransactionKind {
	v := strings.ToUpper(strings.TrimSpace(s))
	if k, ok := legacyKinds[v]; ok {
		return k
	}
	return TransactionKind(v)
}

// TransactionState is the lifecycle state of a record.
// PENDING -> {ACTIVE, REJECTED, ERROR} is the orchestration path.
// INACTIVE is only reachable through an administrative edit.
type TransactionState string

const (
	StatePending  TransactionState = "PENDING"
	StateActive   TransactionState = "ACTIVE"
	StateRejected TransactionState = "REJECTED"
	StateError    TransactionState = "ERROR"
	StateInactive TransactionState = "INACTIVE"
)

var legacyStates = map[string]TransactionState{
	"PEN": StatePending,
	"ACT": StateActive,
	"REJ": StateRejected,
	"REC": StateRejected,
	"ERR": StateError,
	"INA": StateInactive,
}

// ParseState normalizes a state value, accepting the legacy three-letter codes.
func ParseState(s string) TransactionState {
	v := strings.ToUpper(strings.TrimSpace(s))
	if st, ok := legacyStates[v]; ok {
		return st
	}
	return TransactionState(v)
}

// IsKnown reports whether the state belongs to the closed enumeration.
func (s TransactionState) IsKnown() bool {
	switch s {
	case StatePending, StateActive, StateRejected, StateError, StateInactive:
		return true
	}
	return false
}

// IsTerminal reports whether the orchestration workflow never leaves this state.
func (s TransactionState) IsTerminal() bool {
	return s == StateActive || s == StateRejected || s == StateError
}

// IsAdministrative reports whether the state may be set by a manual status edit.
func (s TransactionState) IsAdministrative() bool {
	return s == StatePending || s == StateActive || s == StateInactive
}

// AdministrativeStates lists the states accepted by SetState.
func AdministrativeStates() []TransactionState {
	return []TransactionState{StatePending, StateActive, StateInactive}
}

// CanFinalize reports whether the orchestration path may move from s to next.
func (s TransactionState) CanFinalize(next TransactionState) bool {
	return s == StatePending && next.IsTerminal()
}

// TransactionRecord is the unit of work and the unit of persistence
type TransactionRecord struct {
	CreatedAt       time.Time        `json:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at"`
	CardExpiry      time.Time        `json:"card_expiry"`
	Amount          decimal.Decimal  `json:"amount"`
	ID              string           `json:"id"`
	CorrelationCode string           `json:"correlation_code"`
	Kind            TransactionKind  `json:"kind"`
	Brand           string           `json:"brand"`
	Currency        string           `json:"currency"`
	Country         string           `json:"country"`
	CardNumber      string           `json:"card_number,omitempty"`
	BankSwift       string           `json:"bank_swift,omitempty"`
	BankIban        string           `json:"bank_iban,omitempty"`
	AuxiliaryNote   string           `json:"auxiliary_note,omitempty"`
	State           TransactionState `json:"state"`
	Deferred        bool             `json:"deferred"`
}

// Clone returns a copy that can be handed out without sharing storage.
func (t *TransactionRecord) Clone() *TransactionRecord {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}

// MaskedCard returns the card number with all but the first six and last four digits hidden.
func (t *TransactionRecord) MaskedCard() string {
	return MaskCardNumber(t.CardNumber)
}

// MaskCardNumber hides the middle digits of a PAN.
func MaskCardNumber(pan string) string {
	if len(pan) <= 10 {
		return strings.Repeat("*", len(pan))
	}
	return pan[:6] + strings.Repeat("*", len(pan)-10) + pan[len(pan)-4:]
}

// ParseCardExpiry parses an MM/YY expiry and returns the last day of that month in UTC.
func ParseCardExpiry(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	var month, year int
	if _, err := fmt.Sscanf(s, "%2d/%2d", &month, &year); err != nil || len(s) != 5 {
		return time.Time{}, fmt.Errorf("invalid card expiry %q: expected MM/YY", s)
	}
	if month < 1 || month > 12 {
		return time.Time{}, fmt.Errorf("invalid card expiry month %d", month)
	}
	return timeutil.LastDayOfMonth(2000+year, time.Month(month)), nil
}

// FormatCardExpiry renders a stored expiry date as MM/YY.
func FormatCardExpiry(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("01/06")
}

// SearchFilter selects records by secondary attributes. Zero values are ignored.
type SearchFilter struct {
	From       *time.Time
	To         *time.Time
	MinAmount  *decimal.Decimal
	MaxAmount  *decimal.Decimal
	State      TransactionState
	Kind       TransactionKind
	Brand      string
	Currency   string
	Country    string
	CardNumber string
	BankSwift  string
	BankIban   string
	Limit      int
}

// IsEmpty reports whether no filter criterion was supplied.
func (f SearchFilter) IsEmpty() bool {
	return f.From == nil && f.To == nil && f.MinAmount == nil && f.MaxAmount == nil &&
		f.State == "" && f.Kind == "" && f.Brand == "" && f.Currency == "" &&
		f.Country == "" && f.CardNumber == "" && f.BankSwift == "" && f.BankIban == ""
}

// Matches applies the filter to a record in memory.
func (f SearchFilter) Matches(t *TransactionRecord) bool {
	switch {
	case f.State != "" && t.State != f.State:
		return false
	case f.Kind != "" && t.Kind != f.Kind:
		return false
	case f.Brand != "" && t.Brand != f.Brand:
		return false
	case f.Currency != "" && t.Currency != f.Currency:
		return false
	case f.Country != "" && t.Country != f.Country:
		return false
	case f.CardNumber != "" && t.CardNumber != f.CardNumber:
		return false
	case f.BankSwift != "" && t.BankSwift != f.BankSwift:
		return false
	case f.BankIban != "" && t.BankIban != f.BankIban:
		return false
	case f.From != nil && t.CreatedAt.Before(*f.From):
		return false
	case f.To != nil && t.CreatedAt.After(*f.To):
		return false
	case f.MinAmount != nil && t.Amount.LessThan(*f.MinAmount):
		return false
	case f.MaxAmount != nil && t.Amount.GreaterThan(*f.MaxAmount):
		return false
	}
	return true
}
