package service_interfaces

import (
	"context"

	"github.com/api-sage/savings-ledger/src/internal/domain"
)

type StatementService interface {
	GenerateStatement(ctx context.Context, req domain.StatementRequest) (domain.Statement, error)
	GetStatement(ctx context.Context, statementID string) (domain.Statement, error)
	ListStatements(ctx context.Context, accountID string) ([]domain.Statement, error)
}
