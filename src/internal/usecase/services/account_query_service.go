package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/api-sage/savings-ledger/src/internal/adapter/repository/repo_interfaces"
	"github.com/api-sage/savings-ledger/src/internal/domain"
	"github.com/api-sage/savings-ledger/src/internal/logger"
)

const (
	defaultListLimit = 50
	maxListLimit     = 200

	opGetAccount       = "get account"
	opListAccounts     = "list accounts"
	opListTransactions = "list transactions"
	opGetTransfer      = "get transfer"
)

// AccountQueryService serves the read side. GetAccount reads through the
// account cache when one is configured; ledger writes never consult it.
type AccountQueryService struct {
	accounts     repo_interfaces.AccountRepository
	transactions repo_interfaces.TransactionRepository
	opts         options
}

func NewAccountQueryService(
	accounts repo_interfaces.AccountRepository,
	transactions repo_interfaces.TransactionRepository,
	opts ...Option,
) *AccountQueryService {
	return &AccountQueryService{
		accounts:     accounts,
		transactions: transactions,
		opts:         buildOptions(opts),
	}
}

func (s *AccountQueryService) GetAccount(ctx context.Context, accountID string) (domain.Account, error) {
	id, err := requireAccountID(opGetAccount, accountID)
	if err != nil {
		return domain.Account{}, s.failed(opGetAccount, "", err)
	}

	ctx, cancel := s.opts.withTimeout(ctx)
	defer cancel()

	if s.opts.cache != nil {
		cached, ok, err := s.opts.cache.Get(ctx, id)
		if err != nil {
			logger.Error("account cache get failed", err, logger.Fields{
				"accountId": id,
			})
		} else if ok {
			return cached, nil
		}
	}

	account, err := s.accounts.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			return domain.Account{}, s.failed(opGetAccount, id, domain.NewAccountNotFoundError(opGetAccount, id))
		}
		return domain.Account{}, s.failed(opGetAccount, id, err)
	}

	if s.opts.cache != nil {
		if err := s.opts.cache.Set(ctx, account); err != nil {
			logger.Error("account cache set failed", err, logger.Fields{
				"accountId": id,
			})
		}
	}

	return account, nil
}

func (s *AccountQueryService) GetAccountByNumber(ctx context.Context, accountNumber string) (domain.Account, error) {
	number := strings.TrimSpace(accountNumber)
	if !isTenDigitAccountNumber(number) {
		return domain.Account{}, s.failed(opGetAccount, "", domain.NewInvalidRequestError(opGetAccount, "accountNumber must be exactly 10 digits"))
	}

	ctx, cancel := s.opts.withTimeout(ctx)
	defer cancel()

	account, err := s.accounts.GetByAccountNumber(ctx, number)
	if err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			return domain.Account{}, s.failed(opGetAccount, "", &domain.LedgerError{
				Kind:    domain.ErrAccountNotFound,
				Op:      opGetAccount,
				Message: "accountNumber=" + number,
			})
		}
		return domain.Account{}, s.failed(opGetAccount, "", err)
	}
	return account, nil
}

func (s *AccountQueryService) ListAccounts(ctx context.Context, filter domain.AccountFilter) ([]domain.Account, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, s.failed(opListAccounts, "", domain.NewInvalidRequestError(opListAccounts, "status %q is not recognised", filter.Status))
	}
	filter.CustomerID = strings.TrimSpace(filter.CustomerID)
	filter.Limit, filter.Offset = normalizeWindow(filter.Limit, filter.Offset)

	ctx, cancel := s.opts.withTimeout(ctx)
	defer cancel()

	accounts, err := s.accounts.List(ctx, filter)
	if err != nil {
		return nil, s.failed(opListAccounts, "", err)
	}
	return accounts, nil
}

// ListTransactions returns the account's rows in ledger order.
func (s *AccountQueryService) ListTransactions(ctx context.Context, filter domain.TransactionFilter) ([]domain.Transaction, error) {
	id, err := requireAccountID(opListTransactions, filter.AccountID)
	if err != nil {
		return nil, s.failed(opListTransactions, "", err)
	}
	if filter.From != nil && filter.To != nil && filter.From.After(*filter.To) {
		return nil, s.failed(opListTransactions, id, domain.NewInvalidRequestError(opListTransactions, "from must not be after to"))
	}
	filter.AccountID = id
	filter.Limit, filter.Offset = normalizeWindow(filter.Limit, filter.Offset)

	ctx, cancel := s.opts.withTimeout(ctx)
	defer cancel()

	if _, err := s.accounts.GetByID(ctx, id); err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			return nil, s.failed(opListTransactions, id, domain.NewAccountNotFoundError(opListTransactions, id))
		}
		return nil, s.failed(opListTransactions, id, err)
	}

	rows, err := s.transactions.ListByAccount(ctx, filter)
	if err != nil {
		return nil, s.failed(opListTransactions, id, err)
	}
	return rows, nil
}

// GetTransfer returns both legs of the transfer posted under referenceNumber.
func (s *AccountQueryService) GetTransfer(ctx context.Context, referenceNumber string) (domain.TransferRecord, error) {
	reference := strings.TrimSpace(referenceNumber)
	if reference == "" {
		return domain.TransferRecord{}, s.failed(opGetTransfer, "", domain.NewInvalidRequestError(opGetTransfer, "referenceNumber is required"))
	}

	ctx, cancel := s.opts.withTimeout(ctx)
	defer cancel()

	rows, err := s.transactions.ListByReference(ctx, reference)
	if err != nil {
		return domain.TransferRecord{}, s.failed(opGetTransfer, "", err)
	}

	var debits, credits []domain.Transaction
	for _, row := range rows {
		switch row.Type {
		case domain.TransactionTypeTransferOut:
			debits = append(debits, row)
		case domain.TransactionTypeTransferIn:
			credits = append(credits, row)
		}
	}
	if len(debits) == 0 && len(credits) == 0 {
		return domain.TransferRecord{}, s.failed(opGetTransfer, "", domain.NewTransferNotFoundError(opGetTransfer, reference))
	}
	if len(debits) != 1 || len(credits) != 1 {
		return domain.TransferRecord{}, s.failed(opGetTransfer, "", domain.NewLedgerInconsistencyError(opGetTransfer, "",
			fmt.Sprintf("reference %s has %d debit and %d credit legs", reference, len(debits), len(credits))))
	}

	return domain.TransferRecord{
		ReferenceNumber: reference,
		Debit:           debits[0],
		Credit:          credits[0],
	}, nil
}

func normalizeWindow(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

func (s *AccountQueryService) failed(op string, accountID string, err error) error {
	err = domain.AsLedgerError(op, accountID, err)
	logger.Error("account query service "+op+" failed", err, logger.Fields{
		"accountId": accountID,
	})
	return err
}
