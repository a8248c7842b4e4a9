package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/api-sage/savings-ledger/src/internal/adapter/repository/repo_interfaces"
	"github.com/api-sage/savings-ledger/src/internal/domain"
	"github.com/api-sage/savings-ledger/src/internal/logger"
	"github.com/google/uuid"
)

// Operation names passed to a FailureFunc.
const (
	OpCreateAccount     = "create_account"
	OpLockAccounts      = "lock_accounts"
	OpUpdateAccount     = "update_account"
	OpAppendTransaction = "append_transaction"
	OpCommit            = "commit"
	OpListTransactions  = "list_transactions"
	OpCreateStatement   = "create_statement"
)

// FailureFunc is consulted before each store operation; a non-nil return
// makes that operation fail with the returned error.
type FailureFunc func(op string, accountID string) error

// Store is a transactional in-memory account store. WithinTx holds the write
// lock for the whole unit, stages every write and publishes them on commit.
type Store struct {
	mu           sync.RWMutex
	accounts     map[string]domain.Account
	accountOrder []string
	byNumber     map[string]string
	transactions map[string][]domain.Transaction
	statements   map[string]domain.Statement
	stmtOrder    []string
	failure      FailureFunc
}

var _ repo_interfaces.UnitOfWork = (*Store)(nil)

func NewStore() *Store {
	return &Store{
		accounts:     make(map[string]domain.Account),
		byNumber:     make(map[string]string),
		transactions: make(map[string][]domain.Transaction),
		statements:   make(map[string]domain.Statement),
	}
}

// SetFailure installs fn as the failure hook; nil removes it.
func (s *Store) SetFailure(fn FailureFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failure = fn
}

func (s *Store) fail(op, accountID string) error {
	if s.failure == nil {
		return nil
	}
	if err := s.failure(op, accountID); err != nil {
		return fmt.Errorf("memory store %s: %w", op, err)
	}
	return nil
}

func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, tx repo_interfaces.LedgerTx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("begin memory transaction: %w", err)
	}

	tx := &memoryTx{
		store:    s,
		accounts: make(map[string]domain.Account),
		appended: make(map[string][]domain.Transaction),
	}

	if err := fn(ctx, tx); err != nil {
		logger.Info("memory store transaction rolled back", logger.Fields{
			"reason": err.Error(),
		})
		return err
	}

	if err := s.fail(OpCommit, ""); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("commit memory transaction: %w", err)
	}

	for _, id := range tx.created {
		s.accountOrder = append(s.accountOrder, id)
		s.byNumber[tx.accounts[id].AccountNumber] = id
	}
	for id, account := range tx.accounts {
		s.accounts[id] = account
	}
	for accountID, rows := range tx.appended {
		s.transactions[accountID] = append(s.transactions[accountID], rows...)
	}

	return nil
}

type memoryTx struct {
	store    *Store
	accounts map[string]domain.Account
	created  []string
	appended map[string][]domain.Transaction
}

func (t *memoryTx) account(id string) (domain.Account, bool) {
	if account, ok := t.accounts[id]; ok {
		return account, true
	}
	account, ok := t.store.accounts[id]
	return account, ok
}

func (t *memoryTx) CreateAccount(_ context.Context, account domain.Account) (domain.Account, error) {
	if err := t.store.fail(OpCreateAccount, account.ID); err != nil {
		return domain.Account{}, err
	}

	if _, taken := t.store.byNumber[account.AccountNumber]; taken {
		return domain.Account{}, domain.ErrDuplicateAccountNumber
	}
	for _, id := range t.created {
		if t.accounts[id].AccountNumber == account.AccountNumber {
			return domain.Account{}, domain.ErrDuplicateAccountNumber
		}
	}

	now := time.Now().UTC()
	account.ID = uuid.NewString()
	account.Version = 1
	account.CreatedAt = now
	account.UpdatedAt = now

	t.accounts[account.ID] = account
	t.created = append(t.created, account.ID)
	return account, nil
}

func (t *memoryTx) LockAccounts(_ context.Context, accountIDs ...string) (map[string]domain.Account, error) {
	ids := append([]string(nil), accountIDs...)
	sort.Strings(ids)

	locked := make(map[string]domain.Account, len(ids))
	for _, id := range ids {
		if err := t.store.fail(OpLockAccounts, id); err != nil {
			return nil, err
		}
		if account, ok := t.account(id); ok {
			locked[id] = account
		}
	}
	return locked, nil
}

func (t *memoryTx) UpdateAccount(_ context.Context, account domain.Account) (domain.Account, error) {
	if err := t.store.fail(OpUpdateAccount, account.ID); err != nil {
		return domain.Account{}, err
	}

	current, ok := t.account(account.ID)
	if !ok {
		return domain.Account{}, domain.ErrRecordNotFound
	}
	if current.Version != account.Version {
		return domain.Account{}, domain.ErrConcurrentUpdate
	}

	current.CurrentBalance = account.CurrentBalance
	current.AvailableBalance = account.AvailableBalance
	current.Status = account.Status
	current.StatusReason = account.StatusReason
	current.LastTransactionDate = account.LastTransactionDate
	current.Version++
	current.UpdatedAt = time.Now().UTC()

	t.accounts[current.ID] = current
	return current, nil
}

func (t *memoryTx) LastSequence(_ context.Context, accountID string) (int64, error) {
	var last int64
	for _, rows := range [][]domain.Transaction{t.store.transactions[accountID], t.appended[accountID]} {
		for _, row := range rows {
			if row.Sequence > last {
				last = row.Sequence
			}
		}
	}
	return last, nil
}

func (t *memoryTx) AppendTransaction(ctx context.Context, transaction domain.Transaction) (domain.Transaction, error) {
	if err := t.store.fail(OpAppendTransaction, transaction.AccountID); err != nil {
		return domain.Transaction{}, err
	}
	if _, ok := t.account(transaction.AccountID); !ok {
		return domain.Transaction{}, domain.ErrRecordNotFound
	}

	last, err := t.LastSequence(ctx, transaction.AccountID)
	if err != nil {
		return domain.Transaction{}, err
	}
	if transaction.Sequence <= last {
		return domain.Transaction{}, fmt.Errorf("append transaction: sequence %d already used for account %s", transaction.Sequence, transaction.AccountID)
	}

	if transaction.ID == "" {
		transaction.ID = uuid.NewString()
	}
	transaction.CreatedAt = time.Now().UTC()

	t.appended[transaction.AccountID] = append(t.appended[transaction.AccountID], transaction)
	return transaction, nil
}
