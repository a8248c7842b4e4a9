package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/api-sage/savings-ledger/src/internal/adapter/repository/repo_interfaces"
	"github.com/api-sage/savings-ledger/src/internal/domain"
	"github.com/api-sage/savings-ledger/src/internal/logger"
	"github.com/shopspring/decimal"
)

const (
	opGenerateStatement = "generate statement"
	opGetStatement      = "get statement"
	opListStatements    = "list statements"
)

type StatementService struct {
	accounts     repo_interfaces.AccountRepository
	transactions repo_interfaces.TransactionRepository
	statements   repo_interfaces.StatementRepository
	opts         options
}

func NewStatementService(
	accounts repo_interfaces.AccountRepository,
	transactions repo_interfaces.TransactionRepository,
	statements repo_interfaces.StatementRepository,
	opts ...Option,
) *StatementService {
	return &StatementService{
		accounts:     accounts,
		transactions: transactions,
		statements:   statements,
		opts:         buildOptions(opts),
	}
}

// GenerateStatement summarizes the committed rows dated within
// [StartDate, EndDate] and stores the result as a new pending statement.
func (s *StatementService) GenerateStatement(ctx context.Context, req domain.StatementRequest) (domain.Statement, error) {
	logger.Info("statement service generate request", logger.Fields{
		"accountId": req.AccountID,
		"startDate": req.StartDate,
		"endDate":   req.EndDate,
	})

	accountID, err := requireAccountID(opGenerateStatement, req.AccountID)
	if err != nil {
		return domain.Statement{}, s.failed(opGenerateStatement, "", err)
	}
	if req.StartDate.IsZero() || req.EndDate.IsZero() {
		return domain.Statement{}, s.failed(opGenerateStatement, accountID, domain.NewInvalidRequestError(opGenerateStatement, "startDate and endDate are required"))
	}
	start, end := req.StartDate.UTC(), req.EndDate.UTC()
	if start.After(end) {
		return domain.Statement{}, s.failed(opGenerateStatement, accountID, domain.NewInvalidRequestError(opGenerateStatement, "startDate must not be after endDate"))
	}

	ctx, cancel := s.opts.withTimeout(ctx)
	defer cancel()

	account, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			return domain.Statement{}, s.failed(opGenerateStatement, accountID, domain.NewAccountNotFoundError(opGenerateStatement, accountID))
		}
		return domain.Statement{}, s.failed(opGenerateStatement, accountID, err)
	}

	rows, err := s.transactions.ListByAccount(ctx, domain.TransactionFilter{
		AccountID: accountID,
		From:      &start,
		To:        &end,
	})
	if err != nil {
		return domain.Statement{}, s.failed(opGenerateStatement, accountID, err)
	}

	statement := domain.Statement{
		AccountID:        accountID,
		StatementDate:    s.opts.now(),
		StartDate:        start,
		EndDate:          end,
		TotalDeposits:    decimal.Zero,
		TotalWithdrawals: decimal.Zero,
		InterestEarned:   decimal.Zero,
		TotalFees:        decimal.Zero,
		TransactionCount: len(rows),
		DeliveryStatus:   domain.DeliveryStatusPending,
	}

	if len(rows) == 0 {
		balance, err := s.balanceOutsideRange(ctx, account, start, end)
		if err != nil {
			return domain.Statement{}, s.failed(opGenerateStatement, accountID, err)
		}
		statement.OpeningBalance = balance
		statement.ClosingBalance = balance
	} else {
		if err := checkRunningBalances(accountID, rows); err != nil {
			return domain.Statement{}, s.failed(opGenerateStatement, accountID, err)
		}
		statement.OpeningBalance = rows[0].BalanceBefore()
		statement.ClosingBalance = rows[len(rows)-1].RunningBalance
		addTotals(&statement, rows)
	}

	if !statement.Reconciles() {
		return domain.Statement{}, s.failed(opGenerateStatement, accountID, domain.NewLedgerInconsistencyError(opGenerateStatement, accountID,
			fmt.Sprintf("opening %s closing %s do not reconcile with totals", statement.OpeningBalance.StringFixed(2), statement.ClosingBalance.StringFixed(2))))
	}

	created, err := s.statements.Create(ctx, statement)
	if err != nil {
		return domain.Statement{}, s.failed(opGenerateStatement, accountID, err)
	}

	s.opts.afterCommit(ctx, nil, domain.LedgerEvent{
		Type:         domain.EventStatementGenerated,
		AccountID:    accountID,
		BalanceAfter: created.ClosingBalance,
		StatementID:  created.ID,
		OccurredAt:   created.StatementDate,
	})

	logger.Info("statement service generate success", logger.Fields{
		"statementId":      created.ID,
		"accountId":        accountID,
		"openingBalance":   created.OpeningBalance,
		"closingBalance":   created.ClosingBalance,
		"transactionCount": created.TransactionCount,
	})

	return created, nil
}

// balanceOutsideRange answers the balance over a window with no activity: the
// last running balance before it, else the balance before the first row after
// it, else the live balance of an account that never moved.
func (s *StatementService) balanceOutsideRange(ctx context.Context, account domain.Account, start, end time.Time) (decimal.Decimal, error) {
	before, err := s.transactions.LastBefore(ctx, account.ID, start)
	if err == nil {
		return before.RunningBalance, nil
	}
	if !errors.Is(err, domain.ErrRecordNotFound) {
		return decimal.Zero, err
	}

	after, err := s.transactions.FirstAfter(ctx, account.ID, end)
	if err == nil {
		return after.BalanceBefore(), nil
	}
	if !errors.Is(err, domain.ErrRecordNotFound) {
		return decimal.Zero, err
	}

	return account.CurrentBalance, nil
}

func addTotals(statement *domain.Statement, rows []domain.Transaction) {
	for _, row := range rows {
		switch row.Type {
		case domain.TransactionTypeDeposit, domain.TransactionTypeTransferIn:
			statement.TotalDeposits = statement.TotalDeposits.Add(row.Amount)
		case domain.TransactionTypeInterestCredit:
			statement.InterestEarned = statement.InterestEarned.Add(row.Amount)
		case domain.TransactionTypeWithdrawal, domain.TransactionTypeTransferOut:
			statement.TotalWithdrawals = statement.TotalWithdrawals.Add(row.Amount)
		case domain.TransactionTypeFeeDebit:
			statement.TotalWithdrawals = statement.TotalWithdrawals.Add(row.Amount)
			statement.TotalFees = statement.TotalFees.Add(row.Amount)
		}
	}
}

// checkRunningBalances verifies each row continues from the one before it.
func checkRunningBalances(accountID string, rows []domain.Transaction) error {
	for i := 1; i < len(rows); i++ {
		if !rows[i].BalanceBefore().Equal(rows[i-1].RunningBalance) {
			return domain.NewLedgerInconsistencyError(opGenerateStatement, accountID,
				fmt.Sprintf("running balance breaks at sequence %d", rows[i].Sequence))
		}
	}
	return nil
}

func (s *StatementService) GetStatement(ctx context.Context, statementID string) (domain.Statement, error) {
	id := strings.TrimSpace(statementID)
	if id == "" {
		return domain.Statement{}, s.failed(opGetStatement, "", domain.NewInvalidRequestError(opGetStatement, "statementId is required"))
	}

	ctx, cancel := s.opts.withTimeout(ctx)
	defer cancel()

	statement, err := s.statements.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			return domain.Statement{}, s.failed(opGetStatement, "", domain.NewStatementNotFoundError(opGetStatement, id))
		}
		return domain.Statement{}, s.failed(opGetStatement, "", err)
	}
	return statement, nil
}

func (s *StatementService) ListStatements(ctx context.Context, accountID string) ([]domain.Statement, error) {
	id, err := requireAccountID(opListStatements, accountID)
	if err != nil {
		return nil, s.failed(opListStatements, "", err)
	}

	ctx, cancel := s.opts.withTimeout(ctx)
	defer cancel()

	if _, err := s.accounts.GetByID(ctx, id); err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			return nil, s.failed(opListStatements, id, domain.NewAccountNotFoundError(opListStatements, id))
		}
		return nil, s.failed(opListStatements, id, err)
	}

	statements, err := s.statements.ListByAccount(ctx, id)
	if err != nil {
		return nil, s.failed(opListStatements, id, err)
	}
	return statements, nil
}

func (s *StatementService) failed(op string, accountID string, err error) error {
	err = domain.AsLedgerError(op, accountID, err)
	logger.Error("statement service "+op+" failed", err, logger.Fields{
		"accountId": accountID,
	})
	return err
}
