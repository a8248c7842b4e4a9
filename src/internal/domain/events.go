package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

type LedgerEventType string

const (
	EventAccountOpened      LedgerEventType = "ledger.account_opened"
	EventDeposit            LedgerEventType = "ledger.deposit"
	EventWithdrawal         LedgerEventType = "ledger.withdrawal"
	EventTransfer           LedgerEventType = "ledger.transfer"
	EventInterestCredit     LedgerEventType = "ledger.interest_credit"
	EventFeeDebit           LedgerEventType = "ledger.fee_debit"
	EventHoldChanged        LedgerEventType = "ledger.hold_changed"
	EventStatusChanged      LedgerEventType = "ledger.status_changed"
	EventStatementGenerated LedgerEventType = "ledger.statement_generated"
)

// LedgerEvent is published after a ledger change has been committed.
type LedgerEvent struct {
	Type            LedgerEventType `json:"type"`
	AccountID       string          `json:"accountId"`
	CounterpartyID  string          `json:"counterpartyId,omitempty"`
	Amount          decimal.Decimal `json:"amount"`
	BalanceAfter    decimal.Decimal `json:"balanceAfter"`
	AvailableAfter  decimal.Decimal `json:"availableAfter"`
	Status          AccountStatus   `json:"status,omitempty"`
	ReferenceNumber string          `json:"referenceNumber,omitempty"`
	ReceiptNumber   string          `json:"receiptNumber,omitempty"`
	StatementID     string          `json:"statementId,omitempty"`
	PerformedBy     string          `json:"performedBy,omitempty"`
	OccurredAt      time.Time       `json:"occurredAt"`
}

type EventPublisher interface {
	Publish(ctx context.Context, event LedgerEvent) error
	Close() error
}
