package domain

import "context"

// AccountCache holds read copies of accounts for the query side. Ledger
// operations never read from it.
//
// Set keeps whichever copy has the higher Version: storing an account whose
// Version is not newer than the cached one is a no-op, so a slow reader can
// never put back a row that a committed write has already replaced.
type AccountCache interface {
	Get(ctx context.Context, accountID string) (Account, bool, error)
	Set(ctx context.Context, account Account) error
	Invalidate(ctx context.Context, accountIDs ...string) error
}
