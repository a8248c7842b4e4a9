package services

import (
	"context"
	"strings"
	"time"

	"github.com/api-sage/savings-ledger/src/internal/adapter/repository/repo_interfaces"
	"github.com/api-sage/savings-ledger/src/internal/domain"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// maxMagnitude is the first value that no longer fits a NUMERIC(20,2) column.
var maxMagnitude = decimal.New(1, 18)

// poster applies one balance-changing entry to a locked account inside an
// open unit of work. Deposits, withdrawals, both transfer legs and the
// opening deposit all go through post.
type poster struct {
	recorder *transactionRecorder
}

type postingInput struct {
	Type            domain.TransactionType
	Amount          decimal.Decimal
	Description     string
	Method          string
	PerformedBy     string
	ReferenceNumber string
	TransactionDate time.Time
}

func (p *poster) post(ctx context.Context, tx repo_interfaces.LedgerTx, op string, account domain.Account, in postingInput) (domain.Account, domain.Transaction, error) {
	if err := checkPostable(op, account, in.Type, in.Amount); err != nil {
		return domain.Account{}, domain.Transaction{}, err
	}

	signed := in.Type.SignedAmount(in.Amount)
	next := account
	next.CurrentBalance = account.CurrentBalance.Add(signed)
	next.AvailableBalance = account.AvailableBalance.Add(signed)
	if next.CurrentBalance.Abs().GreaterThanOrEqual(maxMagnitude) {
		return domain.Account{}, domain.Transaction{}, domain.NewInvalidAmountError(op, in.Amount, "resulting balance exceeds the supported range")
	}
	at := in.TransactionDate
	next.LastTransactionDate = &at

	row, err := p.recorder.record(ctx, tx, recordInput{
		Account:         next,
		Type:            in.Type,
		Amount:          in.Amount,
		Description:     in.Description,
		Method:          in.Method,
		PerformedBy:     in.PerformedBy,
		ReferenceNumber: in.ReferenceNumber,
		TransactionDate: in.TransactionDate,
	})
	if err != nil {
		return domain.Account{}, domain.Transaction{}, err
	}

	updated, err := tx.UpdateAccount(ctx, next)
	if err != nil {
		return domain.Account{}, domain.Transaction{}, err
	}

	return updated, row, nil
}

// checkPostable holds the gate for every balance mutation: the account must
// be active and a debit must fit in the available balance.
func checkPostable(op string, account domain.Account, txType domain.TransactionType, amount decimal.Decimal) error {
	if !account.IsActive() {
		return domain.NewInvalidAccountStateError(op, account, "account must be active")
	}
	if !txType.IsCredit() && account.AvailableBalance.LessThan(amount) {
		return domain.NewInsufficientFundsError(op, account, amount)
	}
	return nil
}

// transactionDate is now, or the latest date already on any of the accounts
// when that is later, so rows never go backwards in time for an account.
func transactionDate(now time.Time, accounts ...domain.Account) time.Time {
	at := now
	for _, account := range accounts {
		if account.LastTransactionDate != nil && account.LastTransactionDate.After(at) {
			at = account.LastTransactionDate.UTC()
		}
	}
	return at
}

func validateAmount(op string, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return domain.NewInvalidAmountError(op, amount, "amount must be greater than zero")
	}
	if !amount.Equal(amount.Round(2)) {
		return domain.NewInvalidAmountError(op, amount, "amount cannot have more than 2 decimal places")
	}
	if amount.GreaterThanOrEqual(maxMagnitude) {
		return domain.NewInvalidAmountError(op, amount, "amount exceeds the supported range")
	}
	return nil
}

func requireAccountID(op string, accountID string) (string, error) {
	id := strings.TrimSpace(accountID)
	if id == "" {
		return "", domain.NewInvalidRequestError(op, "accountId is required")
	}
	// uuid ids are stored lowercase and hyphenated.
	if parsed, err := uuid.Parse(id); err == nil {
		return parsed.String(), nil
	}
	return id, nil
}
