package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type TransactionType string

const (
	TransactionTypeDeposit        TransactionType = "deposit"
	TransactionTypeWithdrawal     TransactionType = "withdrawal"
	TransactionTypeTransferIn     TransactionType = "transfer_in"
	TransactionTypeTransferOut    TransactionType = "transfer_out"
	TransactionTypeInterestCredit TransactionType = "interest_credit"
	TransactionTypeFeeDebit       TransactionType = "fee_debit"
)

func (t TransactionType) Valid() bool {
	switch t {
	case TransactionTypeDeposit,
		TransactionTypeWithdrawal,
		TransactionTypeTransferIn,
		TransactionTypeTransferOut,
		TransactionTypeInterestCredit,
		TransactionTypeFeeDebit:
		return true
	}
	return false
}

func (t TransactionType) IsCredit() bool {
	return t == TransactionTypeDeposit || t == TransactionTypeTransferIn || t == TransactionTypeInterestCredit
}

// SignedAmount returns amount with the sign this type applies to the running balance.
func (t TransactionType) SignedAmount(amount decimal.Decimal) decimal.Decimal {
	if t.IsCredit() {
		return amount
	}
	return amount.Neg()
}

// IssuesReceipt reports whether rows of this type carry a receipt number.
func (t TransactionType) IssuesReceipt() bool {
	return t == TransactionTypeDeposit || t == TransactionTypeWithdrawal
}

type Transaction struct {
	ID              string
	AccountID       string
	Type            TransactionType
	Amount          decimal.Decimal
	RunningBalance  decimal.Decimal
	Description     string
	Method          string
	PerformedBy     string
	ReferenceNumber string
	ReceiptNumber   string
	Sequence        int64
	TransactionDate time.Time
	CreatedAt       time.Time
}

// BalanceBefore reverses the row one step: the account balance immediately before it.
func (t Transaction) BalanceBefore() decimal.Decimal {
	return t.RunningBalance.Sub(t.Type.SignedAmount(t.Amount))
}
