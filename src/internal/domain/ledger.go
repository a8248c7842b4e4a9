package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type PostingRequest struct {
	AccountID   string
	Amount      decimal.Decimal
	Method      string
	Description string
	PerformedBy string
}

type PostingResult struct {
	Account     Account
	Transaction Transaction
}

type TransferRequest struct {
	FromAccountID string
	ToAccountID   string
	Amount        decimal.Decimal
	Description   string
	PerformedBy   string
}

type TransferResult struct {
	ReferenceNumber string
	FromAccount     Account
	ToAccount       Account
	Debit           Transaction
	Credit          Transaction
}

// TransferRecord is a posted transfer read back by its reference number.
type TransferRecord struct {
	ReferenceNumber string
	Debit           Transaction
	Credit          Transaction
}

type HoldRequest struct {
	AccountID string
	Amount    decimal.Decimal
	Reason    string
}

type OpenAccountRequest struct {
	AccountNumber  string
	CustomerID     string
	AccountTypeID  string
	InitialDeposit decimal.Decimal
	InterestRate   decimal.Decimal
	Method         string
	OpenedBy       string
}

type OpenAccountResult struct {
	Account            Account
	OpeningTransaction *Transaction
}

type StatementRequest struct {
	AccountID string
	StartDate time.Time
	EndDate   time.Time
}

type AccountFilter struct {
	CustomerID string
	Status     AccountStatus
	Limit      int
	Offset     int
}

type TransactionFilter struct {
	AccountID string
	From      *time.Time
	To        *time.Time
	Limit     int
	Offset    int
}
