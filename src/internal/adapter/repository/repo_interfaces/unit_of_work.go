package repo_interfaces

import (
	"context"

	"github.com/api-sage/savings-ledger/src/internal/domain"
)

// UnitOfWork runs fn inside one store transaction. Everything fn writes
// through tx is committed together when fn returns nil and discarded otherwise.
type UnitOfWork interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx LedgerTx) error) error
}

type LedgerTx interface {
	CreateAccount(ctx context.Context, account domain.Account) (domain.Account, error)
	// LockAccounts locks the rows in ascending id order and returns the ones that exist.
	LockAccounts(ctx context.Context, accountIDs ...string) (map[string]domain.Account, error)
	// UpdateAccount writes balances, status and last transaction date when the
	// stored version still equals account.Version, and returns the row with its
	// new version. A stale version yields domain.ErrConcurrentUpdate.
	UpdateAccount(ctx context.Context, account domain.Account) (domain.Account, error)
	LastSequence(ctx context.Context, accountID string) (int64, error)
	AppendTransaction(ctx context.Context, transaction domain.Transaction) (domain.Transaction, error)
}
