package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/api-sage/savings-ledger/src/internal/adapter/repository/repo_interfaces"
	"github.com/api-sage/savings-ledger/src/internal/domain"
	"github.com/shopspring/decimal"
)

type recordInput struct {
	// Account is the post-operation state; its CurrentBalance becomes the
	// row's running balance.
	Account         domain.Account
	Type            domain.TransactionType
	Amount          decimal.Decimal
	Description     string
	Method          string
	PerformedBy     string
	ReferenceNumber string
	TransactionDate time.Time
}

// transactionRecorder builds and appends ledger rows. Rows are never changed
// after AppendTransaction returns.
type transactionRecorder struct {
	receipts *receiptGenerator
}

func newTransactionRecorder() *transactionRecorder {
	return &transactionRecorder{receipts: newReceiptGenerator()}
}

func (r *transactionRecorder) record(ctx context.Context, tx repo_interfaces.LedgerTx, in recordInput) (domain.Transaction, error) {
	if !in.Type.Valid() {
		return domain.Transaction{}, fmt.Errorf("record transaction: unknown type %q", in.Type)
	}

	last, err := tx.LastSequence(ctx, in.Account.ID)
	if err != nil {
		return domain.Transaction{}, err
	}

	row := domain.Transaction{
		AccountID:       in.Account.ID,
		Type:            in.Type,
		Amount:          in.Amount,
		RunningBalance:  in.Account.CurrentBalance,
		Description:     strings.TrimSpace(in.Description),
		Method:          strings.TrimSpace(in.Method),
		PerformedBy:     strings.TrimSpace(in.PerformedBy),
		ReferenceNumber: in.ReferenceNumber,
		Sequence:        last + 1,
		TransactionDate: in.TransactionDate,
	}
	if row.ReferenceNumber == "" {
		row.ReferenceNumber = generateReferenceNumber()
	}
	if in.Type.IssuesReceipt() {
		row.ReceiptNumber = r.receipts.next(in.TransactionDate)
	}

	return tx.AppendTransaction(ctx, row)
}
