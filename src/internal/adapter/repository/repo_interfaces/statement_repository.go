package repo_interfaces

import (
	"context"

	"github.com/api-sage/savings-ledger/src/internal/domain"
)

type StatementRepository interface {
	Create(ctx context.Context, statement domain.Statement) (domain.Statement, error)
	GetByID(ctx context.Context, id string) (domain.Statement, error)
	ListByAccount(ctx context.Context, accountID string) ([]domain.Statement, error)
}
