package memory

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/api-sage/savings-ledger/src/internal/adapter/repository/repo_interfaces"
	"github.com/api-sage/savings-ledger/src/internal/domain"
	"github.com/google/uuid"
)

type AccountRepository struct {
	store *Store
}

type TransactionRepository struct {
	store *Store
}

type StatementRepository struct {
	store *Store
}

var (
	_ repo_interfaces.AccountRepository     = (*AccountRepository)(nil)
	_ repo_interfaces.TransactionRepository = (*TransactionRepository)(nil)
	_ repo_interfaces.StatementRepository   = (*StatementRepository)(nil)
)

func (s *Store) Accounts() *AccountRepository {
	return &AccountRepository{store: s}
}

func (s *Store) Transactions() *TransactionRepository {
	return &TransactionRepository{store: s}
}

func (s *Store) Statements() *StatementRepository {
	return &StatementRepository{store: s}
}

func (r *AccountRepository) GetByID(_ context.Context, id string) (domain.Account, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	account, ok := r.store.accounts[id]
	if !ok {
		return domain.Account{}, domain.ErrRecordNotFound
	}
	return account, nil
}

func (r *AccountRepository) GetByAccountNumber(_ context.Context, accountNumber string) (domain.Account, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	id, ok := r.store.byNumber[strings.TrimSpace(accountNumber)]
	if !ok {
		return domain.Account{}, domain.ErrRecordNotFound
	}
	return r.store.accounts[id], nil
}

func (r *AccountRepository) List(_ context.Context, filter domain.AccountFilter) ([]domain.Account, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	out := make([]domain.Account, 0)
	for _, id := range r.store.accountOrder {
		account := r.store.accounts[id]
		if filter.CustomerID != "" && account.CustomerID != filter.CustomerID {
			continue
		}
		if filter.Status != "" && account.Status != filter.Status {
			continue
		}
		out = append(out, account)
	}
	return window(out, filter.Limit, filter.Offset), nil
}

func (r *TransactionRepository) ListByAccount(_ context.Context, filter domain.TransactionFilter) ([]domain.Transaction, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	if err := r.store.fail(OpListTransactions, filter.AccountID); err != nil {
		return nil, err
	}

	out := make([]domain.Transaction, 0)
	for _, row := range r.store.sortedTransactions(filter.AccountID) {
		if filter.From != nil && row.TransactionDate.Before(*filter.From) {
			continue
		}
		if filter.To != nil && row.TransactionDate.After(*filter.To) {
			continue
		}
		out = append(out, row)
	}
	return window(out, filter.Limit, filter.Offset), nil
}

func (r *TransactionRepository) ListByReference(_ context.Context, referenceNumber string) ([]domain.Transaction, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	out := make([]domain.Transaction, 0)
	for _, rows := range r.store.transactions {
		for _, row := range rows {
			if row.ReferenceNumber == referenceNumber {
				out = append(out, row)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].TransactionDate.Equal(out[j].TransactionDate) {
			return out[i].TransactionDate.Before(out[j].TransactionDate)
		}
		return out[i].AccountID < out[j].AccountID
	})
	return out, nil
}

func (r *TransactionRepository) LastBefore(_ context.Context, accountID string, before time.Time) (domain.Transaction, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	rows := r.store.sortedTransactions(accountID)
	for i := len(rows) - 1; i >= 0; i-- {
		if rows[i].TransactionDate.Before(before) {
			return rows[i], nil
		}
	}
	return domain.Transaction{}, domain.ErrRecordNotFound
}

func (r *TransactionRepository) FirstAfter(_ context.Context, accountID string, after time.Time) (domain.Transaction, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	for _, row := range r.store.sortedTransactions(accountID) {
		if row.TransactionDate.After(after) {
			return row, nil
		}
	}
	return domain.Transaction{}, domain.ErrRecordNotFound
}

func (r *StatementRepository) Create(_ context.Context, statement domain.Statement) (domain.Statement, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if err := r.store.fail(OpCreateStatement, statement.AccountID); err != nil {
		return domain.Statement{}, err
	}
	if _, ok := r.store.accounts[statement.AccountID]; !ok {
		return domain.Statement{}, errors.New("create statement: account does not exist")
	}

	statement.ID = uuid.NewString()
	statement.CreatedAt = time.Now().UTC()
	r.store.statements[statement.ID] = statement
	r.store.stmtOrder = append(r.store.stmtOrder, statement.ID)
	return statement, nil
}

func (r *StatementRepository) GetByID(_ context.Context, id string) (domain.Statement, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	statement, ok := r.store.statements[id]
	if !ok {
		return domain.Statement{}, domain.ErrRecordNotFound
	}
	return statement, nil
}

// ListByAccount returns the newest statement first.
func (r *StatementRepository) ListByAccount(_ context.Context, accountID string) ([]domain.Statement, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	out := make([]domain.Statement, 0)
	for i := len(r.store.stmtOrder) - 1; i >= 0; i-- {
		statement := r.store.statements[r.store.stmtOrder[i]]
		if statement.AccountID == accountID {
			out = append(out, statement)
		}
	}
	return out, nil
}

func (s *Store) sortedTransactions(accountID string) []domain.Transaction {
	rows := append([]domain.Transaction(nil), s.transactions[accountID]...)
	sort.SliceStable(rows, func(i, j int) bool {
		if !rows[i].TransactionDate.Equal(rows[j].TransactionDate) {
			return rows[i].TransactionDate.Before(rows[j].TransactionDate)
		}
		return rows[i].Sequence < rows[j].Sequence
	})
	return rows
}

func window[T any](rows []T, limit, offset int) []T {
	if offset > 0 {
		if offset >= len(rows) {
			return rows[:0]
		}
		rows = rows[offset:]
	}
	if limit > 0 && limit < len(rows) {
		rows = rows[:limit]
	}
	return rows
}
