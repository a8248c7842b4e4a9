package implementations

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/api-sage/savings-ledger/src/internal/domain"
	"github.com/api-sage/savings-ledger/src/internal/logger"
)

type TransactionRepository struct {
	db *sql.DB
}

func NewTransactionRepository(db *sql.DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

func (r *TransactionRepository) ListByAccount(ctx context.Context, filter domain.TransactionFilter) ([]domain.Transaction, error) {
	logger.Info("transaction repository list by account", logger.Fields{
		"accountId": filter.AccountID,
		"from":      filter.From,
		"to":        filter.To,
		"limit":     filter.Limit,
		"offset":    filter.Offset,
	})

	if !isValidID(filter.AccountID) {
		return []domain.Transaction{}, nil
	}

	query := `
SELECT ` + transactionColumns + `
FROM transactions
WHERE account_id = $1
  AND ($2::timestamptz IS NULL OR transaction_date >= $2)
  AND ($3::timestamptz IS NULL OR transaction_date <= $3)
ORDER BY transaction_date, sequence
LIMIT $4 OFFSET $5`

	rows, err := r.db.QueryContext(ctx, query,
		filter.AccountID,
		nullTime(filter.From),
		nullTime(filter.To),
		nullLimit(filter.Limit),
		filter.Offset,
	)
	if err != nil {
		logger.Error("transaction repository list by account failed", err, logger.Fields{
			"accountId": filter.AccountID,
		})
		return nil, fmt.Errorf("list transactions: %w", err)
	}

	transactions, err := collectTransactions(rows)
	if err != nil {
		logger.Error("transaction repository list by account scan failed", err, logger.Fields{
			"accountId": filter.AccountID,
		})
		return nil, err
	}

	logger.Info("transaction repository list by account success", logger.Fields{
		"accountId": filter.AccountID,
		"count":     len(transactions),
	})

	return transactions, nil
}

func (r *TransactionRepository) ListByReference(ctx context.Context, referenceNumber string) ([]domain.Transaction, error) {
	logger.Info("transaction repository list by reference", logger.Fields{
		"referenceNumber": referenceNumber,
	})

	query := `
SELECT ` + transactionColumns + `
FROM transactions
WHERE reference_number = $1
ORDER BY transaction_date, account_id`

	rows, err := r.db.QueryContext(ctx, query, referenceNumber)
	if err != nil {
		logger.Error("transaction repository list by reference failed", err, logger.Fields{
			"referenceNumber": referenceNumber,
		})
		return nil, fmt.Errorf("list transactions by reference: %w", err)
	}

	return collectTransactions(rows)
}

func (r *TransactionRepository) LastBefore(ctx context.Context, accountID string, before time.Time) (domain.Transaction, error) {
	query := `
SELECT ` + transactionColumns + `
FROM transactions
WHERE account_id = $1 AND transaction_date < $2
ORDER BY transaction_date DESC, sequence DESC
LIMIT 1`

	return r.getOne(ctx, "last before", query, accountID, before)
}

func (r *TransactionRepository) FirstAfter(ctx context.Context, accountID string, after time.Time) (domain.Transaction, error) {
	query := `
SELECT ` + transactionColumns + `
FROM transactions
WHERE account_id = $1 AND transaction_date > $2
ORDER BY transaction_date, sequence
LIMIT 1`

	return r.getOne(ctx, "first after", query, accountID, after)
}

func (r *TransactionRepository) getOne(ctx context.Context, label string, query string, accountID string, at time.Time) (domain.Transaction, error) {
	logger.Info("transaction repository "+label, logger.Fields{
		"accountId": accountID,
		"at":        at,
	})

	if !isValidID(accountID) {
		return domain.Transaction{}, domain.ErrRecordNotFound
	}

	transaction, err := scanTransaction(r.db.QueryRowContext(ctx, query, accountID, at))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Transaction{}, domain.ErrRecordNotFound
		}
		logger.Error("transaction repository "+label+" failed", err, logger.Fields{
			"accountId": accountID,
		})
		return domain.Transaction{}, fmt.Errorf("get transaction %s: %w", label, err)
	}

	return transaction, nil
}

func collectTransactions(rows *sql.Rows) ([]domain.Transaction, error) {
	defer rows.Close()

	transactions := make([]domain.Transaction, 0)
	for rows.Next() {
		transaction, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		transactions = append(transactions, transaction)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}
	return transactions, nil
}
