package implementations

import (
	"database/sql"
	"errors"
	"time"

	"github.com/api-sage/savings-ledger/src/internal/domain"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

const (
	pqUniqueViolation     = "23505"
	pqInvalidTextRepr     = "22P02"
	accountNumberUniqueIx = "accounts_account_number_key"
)

const accountColumns = `id, account_number, customer_id, account_type_id, current_balance, available_balance,
       interest_rate, status, status_reason, opening_date, last_transaction_date, version, created_at, updated_at`

const transactionColumns = `id, account_id, type, amount, running_balance, description, method, performed_by,
       reference_number, receipt_number, sequence, transaction_date, created_at`

const statementColumns = `id, account_id, statement_date, start_date, end_date, opening_balance, closing_balance,
       total_deposits, total_withdrawals, interest_earned, total_fees, transaction_count, delivery_status, created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (domain.Account, error) {
	var (
		account         domain.Account
		lastTransaction sql.NullTime
	)
	if err := row.Scan(
		&account.ID,
		&account.AccountNumber,
		&account.CustomerID,
		&account.AccountTypeID,
		&account.CurrentBalance,
		&account.AvailableBalance,
		&account.InterestRate,
		&account.Status,
		&account.StatusReason,
		&account.OpeningDate,
		&lastTransaction,
		&account.Version,
		&account.CreatedAt,
		&account.UpdatedAt,
	); err != nil {
		return domain.Account{}, err
	}
	if lastTransaction.Valid {
		value := lastTransaction.Time.UTC()
		account.LastTransactionDate = &value
	}
	account.OpeningDate = account.OpeningDate.UTC()
	return account, nil
}

func scanTransaction(row rowScanner) (domain.Transaction, error) {
	var (
		transaction domain.Transaction
		receipt     sql.NullString
	)
	if err := row.Scan(
		&transaction.ID,
		&transaction.AccountID,
		&transaction.Type,
		&transaction.Amount,
		&transaction.RunningBalance,
		&transaction.Description,
		&transaction.Method,
		&transaction.PerformedBy,
		&transaction.ReferenceNumber,
		&receipt,
		&transaction.Sequence,
		&transaction.TransactionDate,
		&transaction.CreatedAt,
	); err != nil {
		return domain.Transaction{}, err
	}
	transaction.ReceiptNumber = receipt.String
	transaction.TransactionDate = transaction.TransactionDate.UTC()
	return transaction, nil
}

func scanStatement(row rowScanner) (domain.Statement, error) {
	var statement domain.Statement
	if err := row.Scan(
		&statement.ID,
		&statement.AccountID,
		&statement.StatementDate,
		&statement.StartDate,
		&statement.EndDate,
		&statement.OpeningBalance,
		&statement.ClosingBalance,
		&statement.TotalDeposits,
		&statement.TotalWithdrawals,
		&statement.InterestEarned,
		&statement.TotalFees,
		&statement.TransactionCount,
		&statement.DeliveryStatus,
		&statement.CreatedAt,
	); err != nil {
		return domain.Statement{}, err
	}
	statement.StatementDate = statement.StatementDate.UTC()
	statement.StartDate = statement.StartDate.UTC()
	statement.EndDate = statement.EndDate.UTC()
	return statement, nil
}

// validIDs drops anything that is not a UUID; such ids cannot match a row.
func validIDs(ids []string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, err := uuid.Parse(id); err == nil {
			out = append(out, id)
		}
	}
	return out
}

func isValidID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

func isUniqueViolation(err error, constraint string) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) || pqErr.Code != pqUniqueViolation {
		return false
	}
	return constraint == "" || pqErr.Constraint == constraint
}

func isInvalidText(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == pqInvalidTextRepr
}

func nullString(value string) sql.NullString {
	return sql.NullString{String: value, Valid: value != ""}
}

func nullTime(value *time.Time) sql.NullTime {
	if value == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *value, Valid: true}
}

func nullLimit(limit int) sql.NullInt64 {
	return sql.NullInt64{Int64: int64(limit), Valid: limit > 0}
}
