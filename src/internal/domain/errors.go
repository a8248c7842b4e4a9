package domain

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	ErrAccountNotFound        = errors.New("account not found")
	ErrInvalidAccountState    = errors.New("invalid account state")
	ErrInsufficientFunds      = errors.New("insufficient funds")
	ErrInvalidAmount          = errors.New("invalid amount")
	ErrInvalidRequest         = errors.New("invalid request")
	ErrStatementNotFound      = errors.New("statement not found")
	ErrTransferNotFound       = errors.New("transfer not found")
	ErrStoreFailure           = errors.New("store failure")
	ErrLedgerInconsistency    = errors.New("ledger inconsistency")
	ErrRecordNotFound         = errors.New("Record not found")
	ErrConcurrentUpdate       = errors.New("account modified by another transaction")
	ErrDuplicateAccountNumber = errors.New("account number already exists")
)

// LedgerError is the error returned by every ledger operation. Kind is one of
// the sentinels above and is matched by errors.Is.
type LedgerError struct {
	Kind      error
	Op        string
	AccountID string
	Amount    decimal.NullDecimal
	Available decimal.NullDecimal
	Status    AccountStatus
	Message   string
	Err       error
}

func (e *LedgerError) Error() string {
	parts := []string{e.Kind.Error()}
	if e.Op != "" {
		parts = append([]string{e.Op}, parts...)
	}
	var details []string
	if e.AccountID != "" {
		details = append(details, "account="+e.AccountID)
	}
	if e.Status != "" {
		details = append(details, "status="+string(e.Status))
	}
	if e.Amount.Valid {
		details = append(details, "amount="+e.Amount.Decimal.StringFixed(2))
	}
	if e.Available.Valid {
		details = append(details, "available="+e.Available.Decimal.StringFixed(2))
	}
	msg := strings.Join(parts, ": ")
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if len(details) > 0 {
		msg += " (" + strings.Join(details, " ") + ")"
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *LedgerError) Is(target error) bool {
	return target == e.Kind
}

func (e *LedgerError) Unwrap() error {
	return e.Err
}

func NewAccountNotFoundError(op string, accountID string) *LedgerError {
	return &LedgerError{Kind: ErrAccountNotFound, Op: op, AccountID: accountID}
}

func NewInvalidAccountStateError(op string, account Account, message string) *LedgerError {
	return &LedgerError{
		Kind:      ErrInvalidAccountState,
		Op:        op,
		AccountID: account.ID,
		Status:    account.Status,
		Message:   message,
	}
}

func NewInsufficientFundsError(op string, account Account, requested decimal.Decimal) *LedgerError {
	return &LedgerError{
		Kind:      ErrInsufficientFunds,
		Op:        op,
		AccountID: account.ID,
		Status:    account.Status,
		Amount:    decimal.NewNullDecimal(requested),
		Available: decimal.NewNullDecimal(account.AvailableBalance),
	}
}

func NewInvalidAmountError(op string, amount decimal.Decimal, message string) *LedgerError {
	return &LedgerError{Kind: ErrInvalidAmount, Op: op, Amount: decimal.NewNullDecimal(amount), Message: message}
}

func NewInvalidRequestError(op string, format string, args ...any) *LedgerError {
	return &LedgerError{Kind: ErrInvalidRequest, Op: op, Message: fmt.Sprintf(format, args...)}
}

func NewStatementNotFoundError(op string, statementID string) *LedgerError {
	return &LedgerError{Kind: ErrStatementNotFound, Op: op, Message: "statement=" + statementID}
}

func NewTransferNotFoundError(op string, referenceNumber string) *LedgerError {
	return &LedgerError{Kind: ErrTransferNotFound, Op: op, Message: "reference=" + referenceNumber}
}

func NewLedgerInconsistencyError(op string, accountID string, message string) *LedgerError {
	return &LedgerError{Kind: ErrLedgerInconsistency, Op: op, AccountID: accountID, Message: message}
}

func NewStoreFailureError(op string, accountID string, err error) *LedgerError {
	return &LedgerError{Kind: ErrStoreFailure, Op: op, AccountID: accountID, Err: err}
}

// AsLedgerError returns err unchanged when it already carries a ledger kind,
// and wraps anything else as a store failure.
func AsLedgerError(op string, accountID string, err error) error {
	if err == nil {
		return nil
	}
	var ledgerErr *LedgerError
	if errors.As(err, &ledgerErr) {
		return ledgerErr
	}
	return NewStoreFailureError(op, accountID, err)
}
