package implementations

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/api-sage/savings-ledger/src/internal/domain"
	"github.com/api-sage/savings-ledger/src/internal/logger"
)

type StatementRepository struct {
	db *sql.DB
}

func NewStatementRepository(db *sql.DB) *StatementRepository {
	return &StatementRepository{db: db}
}

func (r *StatementRepository) Create(ctx context.Context, statement domain.Statement) (domain.Statement, error) {
	logger.Info("statement repository create", logger.Fields{
		"accountId": statement.AccountID,
		"startDate": statement.StartDate,
		"endDate":   statement.EndDate,
	})

	const query = `
INSERT INTO statements (
	account_id,
	statement_date,
	start_date,
	end_date,
	opening_balance,
	closing_balance,
	total_deposits,
	total_withdrawals,
	interest_earned,
	total_fees,
	transaction_count,
	delivery_status
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
RETURNING id, created_at`

	if err := r.db.QueryRowContext(
		ctx,
		query,
		statement.AccountID,
		statement.StatementDate,
		statement.StartDate,
		statement.EndDate,
		statement.OpeningBalance,
		statement.ClosingBalance,
		statement.TotalDeposits,
		statement.TotalWithdrawals,
		statement.InterestEarned,
		statement.TotalFees,
		statement.TransactionCount,
		statement.DeliveryStatus,
	).Scan(&statement.ID, &statement.CreatedAt); err != nil {
		logger.Error("statement repository create failed", err, logger.Fields{
			"accountId": statement.AccountID,
		})
		return domain.Statement{}, fmt.Errorf("create statement: %w", err)
	}

	logger.Info("statement repository create success", logger.Fields{
		"statementId": statement.ID,
		"accountId":   statement.AccountID,
	})

	return statement, nil
}

func (r *StatementRepository) GetByID(ctx context.Context, id string) (domain.Statement, error) {
	logger.Info("statement repository get by id", logger.Fields{
		"statementId": id,
	})

	if !isValidID(id) {
		return domain.Statement{}, domain.ErrRecordNotFound
	}

	query := `SELECT ` + statementColumns + ` FROM statements WHERE id = $1`

	statement, err := scanStatement(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			logger.Info("statement repository record not found", logger.Fields{
				"statementId": id,
			})
			return domain.Statement{}, domain.ErrRecordNotFound
		}
		logger.Error("statement repository get failed", err, logger.Fields{
			"statementId": id,
		})
		return domain.Statement{}, fmt.Errorf("get statement: %w", err)
	}

	return statement, nil
}

func (r *StatementRepository) ListByAccount(ctx context.Context, accountID string) ([]domain.Statement, error) {
	logger.Info("statement repository list by account", logger.Fields{
		"accountId": accountID,
	})

	if !isValidID(accountID) {
		return []domain.Statement{}, nil
	}

	query := `SELECT ` + statementColumns + ` FROM statements WHERE account_id = $1 ORDER BY created_at DESC, id`

	rows, err := r.db.QueryContext(ctx, query, accountID)
	if err != nil {
		logger.Error("statement repository list by account failed", err, logger.Fields{
			"accountId": accountID,
		})
		return nil, fmt.Errorf("list statements: %w", err)
	}
	defer rows.Close()

	statements := make([]domain.Statement, 0)
	for rows.Next() {
		statement, err := scanStatement(rows)
		if err != nil {
			return nil, fmt.Errorf("scan statement: %w", err)
		}
		statements = append(statements, statement)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate statements: %w", err)
	}

	return statements, nil
}
