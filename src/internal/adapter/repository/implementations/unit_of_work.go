package implementations

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"

	"github.com/api-sage/savings-ledger/src/internal/adapter/repository/repo_interfaces"
	"github.com/api-sage/savings-ledger/src/internal/domain"
	"github.com/api-sage/savings-ledger/src/internal/logger"
	"github.com/lib/pq"
)

type UnitOfWork struct {
	db *sql.DB
}

func NewUnitOfWork(db *sql.DB) *UnitOfWork {
	return &UnitOfWork{db: db}
}

func (u *UnitOfWork) WithinTx(ctx context.Context, fn func(ctx context.Context, tx repo_interfaces.LedgerTx) error) (err error) {
	tx, err := u.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		logger.Error("unit of work begin tx failed", err, nil)
		return fmt.Errorf("begin ledger transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = fn(ctx, &ledgerTx{tx: tx}); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		logger.Error("unit of work commit tx failed", err, nil)
		return fmt.Errorf("commit ledger transaction: %w", err)
	}

	return nil
}

type ledgerTx struct {
	tx *sql.Tx
}

func (t *ledgerTx) CreateAccount(ctx context.Context, account domain.Account) (domain.Account, error) {
	logger.Info("ledger tx create account", logger.Fields{
		"customerId":    account.CustomerID,
		"accountNumber": account.AccountNumber,
	})

	query := `
INSERT INTO accounts (
	account_number,
	customer_id,
	account_type_id,
	current_balance,
	available_balance,
	interest_rate,
	status,
	status_reason,
	opening_date,
	last_transaction_date
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
RETURNING ` + accountColumns

	created, err := scanAccount(t.tx.QueryRowContext(
		ctx,
		query,
		account.AccountNumber,
		account.CustomerID,
		account.AccountTypeID,
		account.CurrentBalance,
		account.AvailableBalance,
		account.InterestRate,
		account.Status,
		account.StatusReason,
		account.OpeningDate,
		nullTime(account.LastTransactionDate),
	))
	if err != nil {
		if isUniqueViolation(err, accountNumberUniqueIx) {
			logger.Info("ledger tx create account duplicate account number", logger.Fields{
				"accountNumber": account.AccountNumber,
			})
			return domain.Account{}, domain.ErrDuplicateAccountNumber
		}
		logger.Error("ledger tx create account failed", err, logger.Fields{
			"accountNumber": account.AccountNumber,
		})
		return domain.Account{}, fmt.Errorf("create account: %w", err)
	}

	return created, nil
}

func (t *ledgerTx) LockAccounts(ctx context.Context, accountIDs ...string) (map[string]domain.Account, error) {
	ids := validIDs(accountIDs)
	sort.Strings(ids)

	logger.Info("ledger tx lock accounts", logger.Fields{
		"accountIds": ids,
	})

	locked := make(map[string]domain.Account, len(ids))
	if len(ids) == 0 {
		return locked, nil
	}

	// Rows are locked as they are returned, so ORDER BY fixes the lock order.
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = ANY($1::uuid[]) ORDER BY id FOR UPDATE`

	rows, err := t.tx.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		logger.Error("ledger tx lock accounts failed", err, logger.Fields{
			"accountIds": ids,
		})
		return nil, fmt.Errorf("lock accounts: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("scan locked account: %w", err)
		}
		locked[account.ID] = account
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate locked accounts: %w", err)
	}

	return locked, nil
}

func (t *ledgerTx) UpdateAccount(ctx context.Context, account domain.Account) (domain.Account, error) {
	logger.Info("ledger tx update account", logger.Fields{
		"accountId":        account.ID,
		"version":          account.Version,
		"currentBalance":   account.CurrentBalance,
		"availableBalance": account.AvailableBalance,
		"status":           account.Status,
	})

	query := `
UPDATE accounts
SET current_balance = $3,
    available_balance = $4,
    status = $5,
    status_reason = $6,
    last_transaction_date = $7,
    version = version + 1,
    updated_at = NOW()
WHERE id = $1
  AND version = $2
RETURNING ` + accountColumns

	updated, err := scanAccount(t.tx.QueryRowContext(
		ctx,
		query,
		account.ID,
		account.Version,
		account.CurrentBalance,
		account.AvailableBalance,
		account.Status,
		account.StatusReason,
		nullTime(account.LastTransactionDate),
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			logger.Info("ledger tx update account version conflict", logger.Fields{
				"accountId": account.ID,
				"version":   account.Version,
			})
			return domain.Account{}, domain.ErrConcurrentUpdate
		}
		logger.Error("ledger tx update account failed", err, logger.Fields{
			"accountId": account.ID,
		})
		return domain.Account{}, fmt.Errorf("update account: %w", err)
	}

	return updated, nil
}

func (t *ledgerTx) LastSequence(ctx context.Context, accountID string) (int64, error) {
	const query = `SELECT COALESCE(MAX(sequence), 0) FROM transactions WHERE account_id = $1`

	var last int64
	if err := t.tx.QueryRowContext(ctx, query, accountID).Scan(&last); err != nil {
		logger.Error("ledger tx last sequence failed", err, logger.Fields{
			"accountId": accountID,
		})
		return 0, fmt.Errorf("read last sequence: %w", err)
	}
	return last, nil
}

func (t *ledgerTx) AppendTransaction(ctx context.Context, transaction domain.Transaction) (domain.Transaction, error) {
	logger.Info("ledger tx append transaction", logger.Fields{
		"accountId":       transaction.AccountID,
		"type":            transaction.Type,
		"amount":          transaction.Amount,
		"referenceNumber": transaction.ReferenceNumber,
		"sequence":        transaction.Sequence,
	})

	const query = `
INSERT INTO transactions (
	account_id,
	type,
	amount,
	running_balance,
	description,
	method,
	performed_by,
	reference_number,
	receipt_number,
	sequence,
	transaction_date
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
RETURNING id, created_at`

	if err := t.tx.QueryRowContext(
		ctx,
		query,
		transaction.AccountID,
		transaction.Type,
		transaction.Amount,
		transaction.RunningBalance,
		transaction.Description,
		transaction.Method,
		transaction.PerformedBy,
		transaction.ReferenceNumber,
		nullString(transaction.ReceiptNumber),
		transaction.Sequence,
		transaction.TransactionDate,
	).Scan(&transaction.ID, &transaction.CreatedAt); err != nil {
		logger.Error("ledger tx append transaction failed", err, logger.Fields{
			"accountId":       transaction.AccountID,
			"referenceNumber": transaction.ReferenceNumber,
		})
		return domain.Transaction{}, fmt.Errorf("append transaction: %w", err)
	}

	return transaction, nil
}
