package service_interfaces

import (
	"context"

	"github.com/api-sage/savings-ledger/src/internal/domain"
)

type AccountQueryService interface {
	GetAccount(ctx context.Context, accountID string) (domain.Account, error)
	GetAccountByNumber(ctx context.Context, accountNumber string) (domain.Account, error)
	ListAccounts(ctx context.Context, filter domain.AccountFilter) ([]domain.Account, error)
	ListTransactions(ctx context.Context, filter domain.TransactionFilter) ([]domain.Transaction, error)
	GetTransfer(ctx context.Context, referenceNumber string) (domain.TransferRecord, error)
}
