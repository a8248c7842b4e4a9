package service_interfaces

import (
	"context"

	"github.com/api-sage/savings-ledger/src/internal/domain"
)

type LedgerService interface {
	Deposit(ctx context.Context, req domain.PostingRequest) (domain.PostingResult, error)
	Withdraw(ctx context.Context, req domain.PostingRequest) (domain.PostingResult, error)
	CreditInterest(ctx context.Context, req domain.PostingRequest) (domain.PostingResult, error)
	DebitFee(ctx context.Context, req domain.PostingRequest) (domain.PostingResult, error)
	Transfer(ctx context.Context, req domain.TransferRequest) (domain.TransferResult, error)
	PlaceHold(ctx context.Context, req domain.HoldRequest) (domain.Account, error)
	ReleaseHold(ctx context.Context, req domain.HoldRequest) (domain.Account, error)
	Freeze(ctx context.Context, accountID string, reason string) (domain.Account, error)
	Unfreeze(ctx context.Context, accountID string) (domain.Account, error)
	MarkDormant(ctx context.Context, accountID string) (domain.Account, error)
	Reactivate(ctx context.Context, accountID string) (domain.Account, error)
	Close(ctx context.Context, accountID string, reason string) (domain.Account, error)
}
