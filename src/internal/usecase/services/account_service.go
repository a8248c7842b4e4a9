package services

import (
	"context"
	"errors"
	"strings"

	"github.com/api-sage/savings-ledger/src/internal/adapter/repository/repo_interfaces"
	"github.com/api-sage/savings-ledger/src/internal/domain"
	"github.com/api-sage/savings-ledger/src/internal/logger"
	"github.com/shopspring/decimal"
)

const (
	opOpenAccount             = "open account"
	accountNumberAttempts     = 5
	defaultOpeningDepositType = "cash"
)

// AccountService opens accounts for approved applications.
type AccountService struct {
	uow    repo_interfaces.UnitOfWork
	poster *poster
	opts   options
}

func NewAccountService(uow repo_interfaces.UnitOfWork, opts ...Option) *AccountService {
	return &AccountService{
		uow:    uow,
		poster: &poster{recorder: newTransactionRecorder()},
		opts:   buildOptions(opts),
	}
}

// OpenAccount creates an active account at zero balance and records a
// non-zero initial deposit as a regular deposit in the same unit of work.
// Generated account numbers are retried on collision; a supplied one is not.
func (s *AccountService) OpenAccount(ctx context.Context, req domain.OpenAccountRequest) (domain.OpenAccountResult, error) {
	logger.Info("account service open account request", logger.Fields{
		"payload": logger.SanitizePayload(req),
	})

	if err := validateOpenAccount(req); err != nil {
		return domain.OpenAccountResult{}, s.failed(err)
	}

	ctx, cancel := s.opts.withTimeout(ctx)
	defer cancel()

	supplied := strings.TrimSpace(req.AccountNumber)
	attempts := accountNumberAttempts
	if supplied != "" {
		attempts = 1
	}

	var (
		result domain.OpenAccountResult
		err    error
	)
	for attempt := 1; attempt <= attempts; attempt++ {
		number := supplied
		if number == "" {
			number = generateAccountNumber()
		}

		result, err = s.open(ctx, req, number)
		if err == nil {
			break
		}
		if !errors.Is(err, domain.ErrDuplicateAccountNumber) {
			return domain.OpenAccountResult{}, s.failed(err)
		}

		logger.Info("account service account number collision", logger.Fields{
			"accountNumber": number,
			"attempt":       attempt,
		})
	}
	if err != nil {
		if supplied != "" {
			return domain.OpenAccountResult{}, s.failed(domain.NewInvalidRequestError(opOpenAccount, "accountNumber %s already exists", supplied))
		}
		return domain.OpenAccountResult{}, s.failed(err)
	}

	events := []domain.LedgerEvent{{
		Type:           domain.EventAccountOpened,
		AccountID:      result.Account.ID,
		Amount:         req.InitialDeposit,
		BalanceAfter:   result.Account.CurrentBalance,
		AvailableAfter: result.Account.AvailableBalance,
		Status:         result.Account.Status,
		PerformedBy:    req.OpenedBy,
		OccurredAt:     result.Account.OpeningDate,
	}}
	if opening := result.OpeningTransaction; opening != nil {
		events = append(events, domain.LedgerEvent{
			Type:            domain.EventDeposit,
			AccountID:       result.Account.ID,
			Amount:          opening.Amount,
			BalanceAfter:    opening.RunningBalance,
			AvailableAfter:  result.Account.AvailableBalance,
			ReferenceNumber: opening.ReferenceNumber,
			ReceiptNumber:   opening.ReceiptNumber,
			PerformedBy:     opening.PerformedBy,
			OccurredAt:      opening.TransactionDate,
		})
	}
	s.opts.afterCommit(ctx, nil, events...)

	logger.Info("account service open account success", logger.Fields{
		"accountId":      result.Account.ID,
		"accountNumber":  result.Account.AccountNumber,
		"customerId":     result.Account.CustomerID,
		"currentBalance": result.Account.CurrentBalance,
	})

	return result, nil
}

func (s *AccountService) open(ctx context.Context, req domain.OpenAccountRequest, accountNumber string) (domain.OpenAccountResult, error) {
	var result domain.OpenAccountResult
	err := s.uow.WithinTx(ctx, func(ctx context.Context, tx repo_interfaces.LedgerTx) error {
		now := s.opts.now()
		created, err := tx.CreateAccount(ctx, domain.Account{
			AccountNumber:    accountNumber,
			CustomerID:       strings.TrimSpace(req.CustomerID),
			AccountTypeID:    strings.TrimSpace(req.AccountTypeID),
			CurrentBalance:   decimal.Zero,
			AvailableBalance: decimal.Zero,
			InterestRate:     req.InterestRate,
			Status:           domain.AccountStatusActive,
			OpeningDate:      now,
		})
		if err != nil {
			return err
		}
		result.Account = created

		if !req.InitialDeposit.IsPositive() {
			return nil
		}

		method := strings.TrimSpace(req.Method)
		if method == "" {
			method = defaultOpeningDepositType
		}
		updated, row, err := s.poster.post(ctx, tx, opOpenAccount, created, postingInput{
			Type:            domain.TransactionTypeDeposit,
			Amount:          req.InitialDeposit,
			Description:     "Opening deposit",
			Method:          method,
			PerformedBy:     req.OpenedBy,
			TransactionDate: now,
		})
		if err != nil {
			return err
		}
		result.Account = updated
		result.OpeningTransaction = &row
		return nil
	})
	return result, err
}

func validateOpenAccount(req domain.OpenAccountRequest) error {
	if strings.TrimSpace(req.CustomerID) == "" {
		return domain.NewInvalidRequestError(opOpenAccount, "customerId is required")
	}
	if strings.TrimSpace(req.AccountTypeID) == "" {
		return domain.NewInvalidRequestError(opOpenAccount, "accountTypeId is required")
	}
	if number := strings.TrimSpace(req.AccountNumber); number != "" && !isTenDigitAccountNumber(number) {
		return domain.NewInvalidRequestError(opOpenAccount, "accountNumber must be exactly 10 digits")
	}
	if req.InitialDeposit.IsNegative() {
		return domain.NewInvalidAmountError(opOpenAccount, req.InitialDeposit, "initialDeposit cannot be negative")
	}
	if req.InitialDeposit.IsPositive() {
		if err := validateAmount(opOpenAccount, req.InitialDeposit); err != nil {
			return err
		}
	}
	if req.InterestRate.IsNegative() {
		return domain.NewInvalidRequestError(opOpenAccount, "interestRate cannot be negative")
	}
	return nil
}

func (s *AccountService) failed(err error) error {
	err = domain.AsLedgerError(opOpenAccount, "", err)
	logger.Error("account service open account failed", err, nil)
	return err
}
