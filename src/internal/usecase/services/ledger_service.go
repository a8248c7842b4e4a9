package services

import (
	"context"
	"sort"
	"strings"

	"github.com/api-sage/savings-ledger/src/internal/adapter/repository/repo_interfaces"
	"github.com/api-sage/savings-ledger/src/internal/domain"
	"github.com/api-sage/savings-ledger/src/internal/logger"
	"github.com/shopspring/decimal"
)

const (
	opDeposit        = "deposit"
	opWithdraw       = "withdraw"
	opCreditInterest = "credit interest"
	opDebitFee       = "debit fee"
	opTransfer       = "transfer"
	opPlaceHold      = "place hold"
	opReleaseHold    = "release hold"
	opFreeze         = "freeze"
	opUnfreeze       = "unfreeze"
	opMarkDormant    = "mark dormant"
	opReactivate     = "reactivate"
	opClose          = "close"
)

var postingEvents = map[domain.TransactionType]domain.LedgerEventType{
	domain.TransactionTypeDeposit:        domain.EventDeposit,
	domain.TransactionTypeWithdrawal:     domain.EventWithdrawal,
	domain.TransactionTypeInterestCredit: domain.EventInterestCredit,
	domain.TransactionTypeFeeDebit:       domain.EventFeeDebit,
}

type LedgerService struct {
	uow    repo_interfaces.UnitOfWork
	poster *poster
	opts   options
}

func NewLedgerService(uow repo_interfaces.UnitOfWork, opts ...Option) *LedgerService {
	return &LedgerService{
		uow:    uow,
		poster: &poster{recorder: newTransactionRecorder()},
		opts:   buildOptions(opts),
	}
}

func (s *LedgerService) Deposit(ctx context.Context, req domain.PostingRequest) (domain.PostingResult, error) {
	return s.postSingle(ctx, opDeposit, domain.TransactionTypeDeposit, req)
}

func (s *LedgerService) Withdraw(ctx context.Context, req domain.PostingRequest) (domain.PostingResult, error) {
	return s.postSingle(ctx, opWithdraw, domain.TransactionTypeWithdrawal, req)
}

// CreditInterest posts an interest amount computed elsewhere; nothing here
// schedules or accrues interest.
func (s *LedgerService) CreditInterest(ctx context.Context, req domain.PostingRequest) (domain.PostingResult, error) {
	return s.postSingle(ctx, opCreditInterest, domain.TransactionTypeInterestCredit, req)
}

func (s *LedgerService) DebitFee(ctx context.Context, req domain.PostingRequest) (domain.PostingResult, error) {
	return s.postSingle(ctx, opDebitFee, domain.TransactionTypeFeeDebit, req)
}

func (s *LedgerService) postSingle(ctx context.Context, op string, txType domain.TransactionType, req domain.PostingRequest) (domain.PostingResult, error) {
	logger.Info("ledger service "+op+" request", logger.Fields{
		"payload": logger.SanitizePayload(req),
	})

	accountID, err := requireAccountID(op, req.AccountID)
	if err != nil {
		return domain.PostingResult{}, s.failed(op, "", err)
	}
	if err := validateAmount(op, req.Amount); err != nil {
		return domain.PostingResult{}, s.failed(op, accountID, err)
	}

	ctx, cancel := s.opts.withTimeout(ctx)
	defer cancel()

	var result domain.PostingResult
	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx repo_interfaces.LedgerTx) error {
		locked, err := tx.LockAccounts(ctx, accountID)
		if err != nil {
			return err
		}
		account, ok := locked[accountID]
		if !ok {
			return domain.NewAccountNotFoundError(op, accountID)
		}

		updated, row, err := s.poster.post(ctx, tx, op, account, postingInput{
			Type:            txType,
			Amount:          req.Amount,
			Description:     req.Description,
			Method:          req.Method,
			PerformedBy:     req.PerformedBy,
			TransactionDate: transactionDate(s.opts.now(), account),
		})
		if err != nil {
			return err
		}

		result = domain.PostingResult{Account: updated, Transaction: row}
		return nil
	})
	if err != nil {
		return domain.PostingResult{}, s.failed(op, accountID, err)
	}

	s.opts.afterCommit(ctx, []domain.Account{result.Account}, domain.LedgerEvent{
		Type:            postingEvents[txType],
		AccountID:       accountID,
		Amount:          result.Transaction.Amount,
		BalanceAfter:    result.Account.CurrentBalance,
		AvailableAfter:  result.Account.AvailableBalance,
		ReferenceNumber: result.Transaction.ReferenceNumber,
		ReceiptNumber:   result.Transaction.ReceiptNumber,
		PerformedBy:     result.Transaction.PerformedBy,
		OccurredAt:      result.Transaction.TransactionDate,
	})

	logger.Info("ledger service "+op+" success", logger.Fields{
		"accountId":       accountID,
		"amount":          result.Transaction.Amount,
		"currentBalance":  result.Account.CurrentBalance,
		"referenceNumber": result.Transaction.ReferenceNumber,
		"receiptNumber":   result.Transaction.ReceiptNumber,
	})

	return result, nil
}

// Transfer moves amount between two active accounts. Both rows are locked in
// ascending id order and every check runs on the locked rows, so the four
// writes either all commit or none do.
func (s *LedgerService) Transfer(ctx context.Context, req domain.TransferRequest) (domain.TransferResult, error) {
	logger.Info("ledger service transfer request", logger.Fields{
		"payload": logger.SanitizePayload(req),
	})

	fromID, fromErr := requireAccountID(opTransfer, req.FromAccountID)
	toID, toErr := requireAccountID(opTransfer, req.ToAccountID)
	if fromErr != nil || toErr != nil {
		return domain.TransferResult{}, s.failed(opTransfer, fromID, domain.NewInvalidRequestError(opTransfer, "fromAccountId and toAccountId are required"))
	}
	if fromID == toID {
		return domain.TransferResult{}, s.failed(opTransfer, fromID, domain.NewInvalidRequestError(opTransfer, "fromAccountId and toAccountId cannot be the same"))
	}
	if err := validateAmount(opTransfer, req.Amount); err != nil {
		return domain.TransferResult{}, s.failed(opTransfer, fromID, err)
	}

	ctx, cancel := s.opts.withTimeout(ctx)
	defer cancel()

	reference := generateReferenceNumber()

	var result domain.TransferResult
	err := s.uow.WithinTx(ctx, func(ctx context.Context, tx repo_interfaces.LedgerTx) error {
		locked, err := tx.LockAccounts(ctx, fromID, toID)
		if err != nil {
			return err
		}

		from, ok := locked[fromID]
		if !ok {
			return domain.NewAccountNotFoundError(opTransfer, fromID)
		}
		to, ok := locked[toID]
		if !ok {
			return domain.NewAccountNotFoundError(opTransfer, toID)
		}
		if err := checkPostable(opTransfer, from, domain.TransactionTypeTransferOut, req.Amount); err != nil {
			return err
		}
		if err := checkPostable(opTransfer, to, domain.TransactionTypeTransferIn, req.Amount); err != nil {
			return err
		}

		legs := []struct {
			account domain.Account
			txType  domain.TransactionType
		}{
			{from, domain.TransactionTypeTransferOut},
			{to, domain.TransactionTypeTransferIn},
		}
		sort.Slice(legs, func(i, j int) bool { return legs[i].account.ID < legs[j].account.ID })

		at := transactionDate(s.opts.now(), from, to)
		result.ReferenceNumber = reference
		for _, leg := range legs {
			updated, row, err := s.poster.post(ctx, tx, opTransfer, leg.account, postingInput{
				Type:            leg.txType,
				Amount:          req.Amount,
				Description:     req.Description,
				Method:          "transfer",
				PerformedBy:     req.PerformedBy,
				ReferenceNumber: reference,
				TransactionDate: at,
			})
			if err != nil {
				return err
			}
			if leg.txType == domain.TransactionTypeTransferOut {
				result.FromAccount, result.Debit = updated, row
			} else {
				result.ToAccount, result.Credit = updated, row
			}
		}
		return nil
	})
	if err != nil {
		return domain.TransferResult{}, s.failed(opTransfer, fromID, err)
	}

	s.opts.afterCommit(ctx, []domain.Account{result.FromAccount, result.ToAccount}, domain.LedgerEvent{
		Type:            domain.EventTransfer,
		AccountID:       fromID,
		CounterpartyID:  toID,
		Amount:          result.Debit.Amount,
		BalanceAfter:    result.FromAccount.CurrentBalance,
		AvailableAfter:  result.FromAccount.AvailableBalance,
		ReferenceNumber: reference,
		PerformedBy:     result.Debit.PerformedBy,
		OccurredAt:      result.Debit.TransactionDate,
	})

	logger.Info("ledger service transfer success", logger.Fields{
		"fromAccountId":   fromID,
		"toAccountId":     toID,
		"amount":          req.Amount,
		"referenceNumber": reference,
	})

	return result, nil
}

// PlaceHold moves amount out of the available balance without touching the
// current balance. No transaction row is written.
func (s *LedgerService) PlaceHold(ctx context.Context, req domain.HoldRequest) (domain.Account, error) {
	return s.adjustHold(ctx, opPlaceHold, req, req.Amount)
}

func (s *LedgerService) ReleaseHold(ctx context.Context, req domain.HoldRequest) (domain.Account, error) {
	return s.adjustHold(ctx, opReleaseHold, req, req.Amount.Neg())
}

func (s *LedgerService) adjustHold(ctx context.Context, op string, req domain.HoldRequest, delta decimal.Decimal) (domain.Account, error) {
	logger.Info("ledger service "+op+" request", logger.Fields{
		"payload": logger.SanitizePayload(req),
	})

	accountID, err := requireAccountID(op, req.AccountID)
	if err != nil {
		return domain.Account{}, s.failed(op, "", err)
	}
	if err := validateAmount(op, req.Amount); err != nil {
		return domain.Account{}, s.failed(op, accountID, err)
	}

	ctx, cancel := s.opts.withTimeout(ctx)
	defer cancel()

	var updated domain.Account
	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx repo_interfaces.LedgerTx) error {
		locked, err := tx.LockAccounts(ctx, accountID)
		if err != nil {
			return err
		}
		account, ok := locked[accountID]
		if !ok {
			return domain.NewAccountNotFoundError(op, accountID)
		}
		if !account.IsActive() {
			return domain.NewInvalidAccountStateError(op, account, "account must be active")
		}
		if delta.IsPositive() && account.AvailableBalance.LessThan(req.Amount) {
			return domain.NewInsufficientFundsError(op, account, req.Amount)
		}
		if delta.IsNegative() && account.HeldAmount().LessThan(req.Amount) {
			return domain.NewInvalidAmountError(op, req.Amount, "release exceeds held amount "+account.HeldAmount().StringFixed(2))
		}

		next := account
		next.AvailableBalance = account.AvailableBalance.Sub(delta)
		updated, err = tx.UpdateAccount(ctx, next)
		return err
	})
	if err != nil {
		return domain.Account{}, s.failed(op, accountID, err)
	}

	s.opts.afterCommit(ctx, []domain.Account{updated}, domain.LedgerEvent{
		Type:           domain.EventHoldChanged,
		AccountID:      accountID,
		Amount:         delta,
		BalanceAfter:   updated.CurrentBalance,
		AvailableAfter: updated.AvailableBalance,
		OccurredAt:     s.opts.now(),
	})

	logger.Info("ledger service "+op+" success", logger.Fields{
		"accountId":        accountID,
		"availableBalance": updated.AvailableBalance,
		"heldAmount":       updated.HeldAmount(),
	})

	return updated, nil
}

func (s *LedgerService) Freeze(ctx context.Context, accountID string, reason string) (domain.Account, error) {
	if strings.TrimSpace(reason) == "" {
		return domain.Account{}, s.failed(opFreeze, accountID, domain.NewInvalidRequestError(opFreeze, "reason is required"))
	}
	return s.changeStatus(ctx, opFreeze, accountID, domain.AccountStatusFrozen, reason, domain.AccountStatusActive)
}

func (s *LedgerService) Unfreeze(ctx context.Context, accountID string) (domain.Account, error) {
	return s.changeStatus(ctx, opUnfreeze, accountID, domain.AccountStatusActive, "", domain.AccountStatusFrozen)
}

func (s *LedgerService) MarkDormant(ctx context.Context, accountID string) (domain.Account, error) {
	return s.changeStatus(ctx, opMarkDormant, accountID, domain.AccountStatusDormant, "no customer activity", domain.AccountStatusActive)
}

func (s *LedgerService) Reactivate(ctx context.Context, accountID string) (domain.Account, error) {
	return s.changeStatus(ctx, opReactivate, accountID, domain.AccountStatusActive, "", domain.AccountStatusDormant)
}

// Close is terminal. It is accepted from every status that may move to closed.
func (s *LedgerService) Close(ctx context.Context, accountID string, reason string) (domain.Account, error) {
	if strings.TrimSpace(reason) == "" {
		return domain.Account{}, s.failed(opClose, accountID, domain.NewInvalidRequestError(opClose, "reason is required"))
	}
	return s.changeStatus(ctx, opClose, accountID, domain.AccountStatusClosed, reason)
}

// changeStatus moves the account to target. When from is empty, any status
// with a transition to target is accepted.
func (s *LedgerService) changeStatus(ctx context.Context, op string, accountID string, target domain.AccountStatus, reason string, from ...domain.AccountStatus) (domain.Account, error) {
	logger.Info("ledger service "+op+" request", logger.Fields{
		"accountId": accountID,
		"reason":    reason,
	})

	accountID, err := requireAccountID(op, accountID)
	if err != nil {
		return domain.Account{}, s.failed(op, "", err)
	}

	ctx, cancel := s.opts.withTimeout(ctx)
	defer cancel()

	var updated domain.Account
	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx repo_interfaces.LedgerTx) error {
		locked, err := tx.LockAccounts(ctx, accountID)
		if err != nil {
			return err
		}
		account, ok := locked[accountID]
		if !ok {
			return domain.NewAccountNotFoundError(op, accountID)
		}
		if !allowedFrom(account.Status, from) || !account.Status.CanTransitionTo(target) {
			return domain.NewInvalidAccountStateError(op, account, "cannot move account to "+string(target))
		}

		next := account
		next.Status = target
		next.StatusReason = strings.TrimSpace(reason)
		updated, err = tx.UpdateAccount(ctx, next)
		return err
	})
	if err != nil {
		return domain.Account{}, s.failed(op, accountID, err)
	}

	s.opts.afterCommit(ctx, []domain.Account{updated}, domain.LedgerEvent{
		Type:           domain.EventStatusChanged,
		AccountID:      accountID,
		BalanceAfter:   updated.CurrentBalance,
		AvailableAfter: updated.AvailableBalance,
		Status:         updated.Status,
		OccurredAt:     s.opts.now(),
	})

	logger.Info("ledger service "+op+" success", logger.Fields{
		"accountId": accountID,
		"status":    updated.Status,
	})

	return updated, nil
}

func allowedFrom(current domain.AccountStatus, from []domain.AccountStatus) bool {
	if len(from) == 0 {
		return true
	}
	for _, status := range from {
		if status == current {
			return true
		}
	}
	return false
}

func (s *LedgerService) failed(op string, accountID string, err error) error {
	err = domain.AsLedgerError(op, accountID, err)
	logger.Error("ledger service "+op+" failed", err, logger.Fields{
		"accountId": accountID,
	})
	return err
}
