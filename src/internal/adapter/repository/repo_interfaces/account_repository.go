package repo_interfaces

import (
	"context"

	"github.com/api-sage/savings-ledger/src/internal/domain"
)

type AccountRepository interface {
	GetByID(ctx context.Context, id string) (domain.Account, error)
	GetByAccountNumber(ctx context.Context, accountNumber string) (domain.Account, error)
	List(ctx context.Context, filter domain.AccountFilter) ([]domain.Account, error)
}
