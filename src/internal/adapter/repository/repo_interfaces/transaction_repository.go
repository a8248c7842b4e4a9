package repo_interfaces

import (
	"context"
	"time"

	"github.com/api-sage/savings-ledger/src/internal/domain"
)

type TransactionRepository interface {
	// ListByAccount returns rows ordered by transaction date, then sequence.
	ListByAccount(ctx context.Context, filter domain.TransactionFilter) ([]domain.Transaction, error)
	ListByReference(ctx context.Context, referenceNumber string) ([]domain.Transaction, error)
	// LastBefore and FirstAfter return domain.ErrRecordNotFound when no row qualifies.
	LastBefore(ctx context.Context, accountID string, before time.Time) (domain.Transaction, error)
	FirstAfter(ctx context.Context, accountID string, after time.Time) (domain.Transaction, error)
}
