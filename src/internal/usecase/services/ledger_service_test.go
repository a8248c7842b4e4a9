package services_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/api-sage/savings-ledger/src/internal/adapter/repository/memory"
	"github.com/api-sage/savings-ledger/src/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

func TestLedgerWalkthrough(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a := f.open(t, "1000")
	b := f.open(t, "200")

	// Deposit 500.
	windowStart := f.clock.Advance(time.Hour)
	dep := f.deposit(t, a.ID, "500")
	assert.True(t, dep.Account.CurrentBalance.Equal(dec("1500")))
	assert.True(t, dep.Transaction.RunningBalance.Equal(dec("1500")))
	assert.Equal(t, domain.TransactionTypeDeposit, dep.Transaction.Type)
	assert.NotEmpty(t, dep.Transaction.ReceiptNumber)

	// Withdrawing more than the balance fails and changes nothing.
	_, err := f.ledger.Withdraw(ctx, domain.PostingRequest{AccountID: a.ID, Amount: dec("2000")})
	require.ErrorIs(t, err, domain.ErrInsufficientFunds)
	var ledgerErr *domain.LedgerError
	require.ErrorAs(t, err, &ledgerErr)
	assert.Equal(t, a.ID, ledgerErr.AccountID)
	assert.True(t, ledgerErr.Available.Decimal.Equal(dec("1500")))
	assert.True(t, f.account(t, a.ID).CurrentBalance.Equal(dec("1500")))

	// Transfer 300 from A to B.
	windowEnd := f.clock.Advance(time.Hour)
	transfer, err := f.ledger.Transfer(ctx, domain.TransferRequest{
		FromAccountID: a.ID,
		ToAccountID:   b.ID,
		Amount:        dec("300"),
		PerformedBy:   "teller-1",
	})
	require.NoError(t, err)
	assert.True(t, transfer.FromAccount.CurrentBalance.Equal(dec("1200")))
	assert.True(t, transfer.ToAccount.CurrentBalance.Equal(dec("500")))
	assert.Equal(t, transfer.ReferenceNumber, transfer.Debit.ReferenceNumber)
	assert.Equal(t, transfer.ReferenceNumber, transfer.Credit.ReferenceNumber)
	assert.Len(t, transfer.ReferenceNumber, 30)
	assert.True(t, transfer.Debit.Amount.Equal(transfer.Credit.Amount))
	assert.Empty(t, transfer.Debit.ReceiptNumber)

	// A frozen account rejects withdrawals.
	f.clock.Advance(time.Hour)
	_, err = f.ledger.Freeze(ctx, a.ID, "customer request")
	require.NoError(t, err)
	_, err = f.ledger.Withdraw(ctx, domain.PostingRequest{AccountID: a.ID, Amount: dec("100")})
	require.ErrorIs(t, err, domain.ErrInvalidAccountState)
	assert.True(t, f.account(t, a.ID).CurrentBalance.Equal(dec("1200")))

	// Statement over the deposit and the transfer.
	statement, err := f.statements.GenerateStatement(ctx, domain.StatementRequest{
		AccountID: a.ID,
		StartDate: windowStart,
		EndDate:   windowEnd,
	})
	require.NoError(t, err)
	assert.True(t, statement.OpeningBalance.Equal(dec("1000")), statement.OpeningBalance.String())
	assert.True(t, statement.ClosingBalance.Equal(dec("1200")), statement.ClosingBalance.String())
	assert.True(t, statement.TotalDeposits.Equal(dec("500")))
	assert.True(t, statement.TotalWithdrawals.Equal(dec("300")))
	assert.True(t, statement.InterestEarned.IsZero())
	assert.Equal(t, 2, statement.TransactionCount)
	assert.Equal(t, domain.DeliveryStatusPending, statement.DeliveryStatus)
	assert.True(t, statement.Reconciles())

	assertLedgerConsistent(t, f, a.ID)
	assertLedgerConsistent(t, f, b.ID)
}

func TestTransferPairing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a := f.open(t, "100")
	b := f.open(t, "100")

	result, err := f.ledger.Transfer(ctx, domain.TransferRequest{FromAccountID: a.ID, ToAccountID: b.ID, Amount: dec("40.25")})
	require.NoError(t, err)

	rows, err := f.store.Transactions().ListByReference(ctx, result.ReferenceNumber)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	byType := map[domain.TransactionType]domain.Transaction{}
	for _, row := range rows {
		byType[row.Type] = row
	}
	out, in := byType[domain.TransactionTypeTransferOut], byType[domain.TransactionTypeTransferIn]
	assert.Equal(t, a.ID, out.AccountID)
	assert.Equal(t, b.ID, in.AccountID)
	assert.True(t, out.Amount.Equal(in.Amount))
	assert.True(t, out.RunningBalance.Equal(dec("59.75")))
	assert.True(t, in.RunningBalance.Equal(dec("140.25")))
	assert.Equal(t, out.TransactionDate, in.TransactionDate)
}

func TestTransferValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a := f.open(t, "100")
	b := f.open(t, "100")

	tests := []struct {
		name string
		req  domain.TransferRequest
		want error
	}{
		{"same account", domain.TransferRequest{FromAccountID: a.ID, ToAccountID: a.ID, Amount: dec("1")}, domain.ErrInvalidRequest},
		{"same account in another casing", domain.TransferRequest{FromAccountID: a.ID, ToAccountID: strings.ToUpper(a.ID), Amount: dec("1")}, domain.ErrInvalidRequest},
		{"same account in braces", domain.TransferRequest{FromAccountID: "{" + a.ID + "}", ToAccountID: a.ID, Amount: dec("1")}, domain.ErrInvalidRequest},
		{"missing destination id", domain.TransferRequest{FromAccountID: a.ID, Amount: dec("1")}, domain.ErrInvalidRequest},
		{"zero amount", domain.TransferRequest{FromAccountID: a.ID, ToAccountID: b.ID, Amount: dec("0")}, domain.ErrInvalidAmount},
		{"unknown source", domain.TransferRequest{FromAccountID: "missing", ToAccountID: b.ID, Amount: dec("1")}, domain.ErrAccountNotFound},
		{"unknown destination", domain.TransferRequest{FromAccountID: a.ID, ToAccountID: "missing", Amount: dec("1")}, domain.ErrAccountNotFound},
		{"insufficient funds", domain.TransferRequest{FromAccountID: a.ID, ToAccountID: b.ID, Amount: dec("100.01")}, domain.ErrInsufficientFunds},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.ledger.Transfer(ctx, tt.req)
			require.ErrorIs(t, err, tt.want)
		})
	}

	assert.True(t, f.account(t, a.ID).CurrentBalance.Equal(dec("100")))
	assert.True(t, f.account(t, b.ID).CurrentBalance.Equal(dec("100")))
}

func TestStateGatingRejectsDebitsRegardlessOfBalance(t *testing.T) {
	ctx := context.Background()

	for _, status := range []domain.AccountStatus{domain.AccountStatusFrozen, domain.AccountStatusClosed, domain.AccountStatusDormant} {
		t.Run(string(status), func(t *testing.T) {
			f := newFixture(t)
			a := f.open(t, "5000")
			b := f.open(t, "10")

			var err error
			switch status {
			case domain.AccountStatusFrozen:
				_, err = f.ledger.Freeze(ctx, a.ID, "fraud review")
			case domain.AccountStatusClosed:
				_, err = f.ledger.Close(ctx, a.ID, "customer request")
			case domain.AccountStatusDormant:
				_, err = f.ledger.MarkDormant(ctx, a.ID)
			}
			require.NoError(t, err)

			_, err = f.ledger.Withdraw(ctx, domain.PostingRequest{AccountID: a.ID, Amount: dec("1")})
			assert.ErrorIs(t, err, domain.ErrInvalidAccountState)

			_, err = f.ledger.Transfer(ctx, domain.TransferRequest{FromAccountID: a.ID, ToAccountID: b.ID, Amount: dec("1")})
			assert.ErrorIs(t, err, domain.ErrInvalidAccountState)

			_, err = f.ledger.Transfer(ctx, domain.TransferRequest{FromAccountID: b.ID, ToAccountID: a.ID, Amount: dec("1")})
			assert.ErrorIs(t, err, domain.ErrInvalidAccountState)

			_, err = f.ledger.Deposit(ctx, domain.PostingRequest{AccountID: a.ID, Amount: dec("1")})
			assert.ErrorIs(t, err, domain.ErrInvalidAccountState)

			_, err = f.ledger.DebitFee(ctx, domain.PostingRequest{AccountID: a.ID, Amount: dec("1")})
			assert.ErrorIs(t, err, domain.ErrInvalidAccountState)

			assert.True(t, f.account(t, a.ID).CurrentBalance.Equal(dec("5000")))
			assert.Len(t, f.history(t, a.ID), 1)
		})
	}
}

func TestTransferAtomicityUnderFailure(t *testing.T) {
	ctx := context.Background()
	injected := errors.New("connection reset")

	tests := []struct {
		name string
		op   string
		// leg picks the account whose operation fails.
		leg string
	}{
		{"destination balance update", memory.OpUpdateAccount, "to"},
		{"source balance update", memory.OpUpdateAccount, "from"},
		{"destination ledger row", memory.OpAppendTransaction, "to"},
		{"commit", memory.OpCommit, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			a := f.open(t, "1500")
			b := f.open(t, "200")
			published := len(f.publisher.events)

			target := map[string]string{"from": a.ID, "to": b.ID}[tt.leg]
			f.store.SetFailure(func(op, accountID string) error {
				if op == tt.op && (target == "" || accountID == target) {
					return injected
				}
				return nil
			})

			_, err := f.ledger.Transfer(ctx, domain.TransferRequest{FromAccountID: a.ID, ToAccountID: b.ID, Amount: dec("300")})
			require.ErrorIs(t, err, domain.ErrStoreFailure)
			require.ErrorIs(t, err, injected)

			f.store.SetFailure(nil)
			assert.True(t, f.account(t, a.ID).CurrentBalance.Equal(dec("1500")))
			assert.True(t, f.account(t, a.ID).AvailableBalance.Equal(dec("1500")))
			assert.True(t, f.account(t, b.ID).CurrentBalance.Equal(dec("200")))
			assert.Len(t, f.history(t, a.ID), 1)
			assert.Len(t, f.history(t, b.ID), 1)
			assert.Len(t, f.publisher.events, published, "nothing is published for a failed transfer")
		})
	}
}

func TestConcurrentPostingsKeepLedgerConsistent(t *testing.T) {
	f := newFixture(t)
	a := f.open(t, "1000")
	b := f.open(t, "1000")

	g, ctx := errgroup.WithContext(context.Background())
	for i := 0; i < 25; i++ {
		g.Go(func() error {
			_, err := f.ledger.Deposit(ctx, domain.PostingRequest{AccountID: a.ID, Amount: dec("10")})
			return err
		})
		g.Go(func() error {
			_, err := f.ledger.Transfer(ctx, domain.TransferRequest{FromAccountID: a.ID, ToAccountID: b.ID, Amount: dec("5")})
			return err
		})
		g.Go(func() error {
			_, err := f.ledger.Transfer(ctx, domain.TransferRequest{FromAccountID: b.ID, ToAccountID: a.ID, Amount: dec("3")})
			return err
		})
	}
	require.NoError(t, g.Wait())

	// a: 1000 + 25*10 - 25*5 + 25*3, b: 1000 + 25*5 - 25*3
	assert.True(t, f.account(t, a.ID).CurrentBalance.Equal(dec("1200")))
	assert.True(t, f.account(t, b.ID).CurrentBalance.Equal(dec("1050")))
	assertLedgerConsistent(t, f, a.ID)
	assertLedgerConsistent(t, f, b.ID)
}

func TestPostingAmountValidation(t *testing.T) {
	f := newFixture(t)
	a := f.open(t, "10")
	ctx := context.Background()

	for _, raw := range []string{"0", "-5", "1.005"} {
		_, err := f.ledger.Deposit(ctx, domain.PostingRequest{AccountID: a.ID, Amount: dec(raw)})
		assert.ErrorIs(t, err, domain.ErrInvalidAmount, raw)
	}

	_, err := f.ledger.Deposit(ctx, domain.PostingRequest{Amount: dec("1")})
	assert.ErrorIs(t, err, domain.ErrInvalidRequest)

	_, err = f.ledger.Deposit(ctx, domain.PostingRequest{AccountID: "missing", Amount: dec("1")})
	assert.ErrorIs(t, err, domain.ErrAccountNotFound)

	// Trailing zeros past the second place are fine.
	_, err = f.ledger.Deposit(ctx, domain.PostingRequest{AccountID: a.ID, Amount: dec("1.500")})
	assert.NoError(t, err)
}

func TestAmountsBeyondStoredPrecisionAreRejected(t *testing.T) {
	f := newFixture(t)
	a := f.open(t, "10")
	ctx := context.Background()

	for _, raw := range []string{"1000000000000000000", "1e20"} {
		_, err := f.ledger.Deposit(ctx, domain.PostingRequest{AccountID: a.ID, Amount: dec(raw)})
		assert.ErrorIs(t, err, domain.ErrInvalidAmount, raw)
	}

	_, err := f.ledger.Deposit(ctx, domain.PostingRequest{AccountID: a.ID, Amount: dec("999999999999999980.00")})
	require.NoError(t, err)

	// The amount fits but the balance it produces would not.
	_, err = f.ledger.Deposit(ctx, domain.PostingRequest{AccountID: a.ID, Amount: dec("10")})
	assert.ErrorIs(t, err, domain.ErrInvalidAmount)
	assert.True(t, f.account(t, a.ID).CurrentBalance.Equal(dec("999999999999999990")))
	assertLedgerConsistent(t, f, a.ID)
}

func TestAccountIDsAreCanonicalized(t *testing.T) {
	f := newFixture(t)
	a := f.open(t, "10")
	b := f.open(t, "10")
	ctx := context.Background()

	upper := strings.ToUpper(a.ID)
	result, err := f.ledger.Deposit(ctx, domain.PostingRequest{AccountID: upper, Amount: dec("5")})
	require.NoError(t, err)
	assert.Equal(t, a.ID, result.Account.ID)

	_, err = f.ledger.Withdraw(ctx, domain.PostingRequest{AccountID: "{" + a.ID + "}", Amount: dec("1")})
	require.NoError(t, err)

	_, err = f.ledger.Transfer(ctx, domain.TransferRequest{FromAccountID: upper, ToAccountID: strings.ToUpper(b.ID), Amount: dec("4")})
	require.NoError(t, err)

	got, err := f.queries.GetAccount(ctx, upper)
	require.NoError(t, err)
	assert.True(t, got.CurrentBalance.Equal(dec("10")))
	assert.True(t, f.account(t, b.ID).CurrentBalance.Equal(dec("14")))
}

func TestInterestAndFees(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.open(t, "100")

	interest, err := f.ledger.CreditInterest(ctx, domain.PostingRequest{AccountID: a.ID, Amount: dec("2.08"), PerformedBy: "batch"})
	require.NoError(t, err)
	assert.Equal(t, domain.TransactionTypeInterestCredit, interest.Transaction.Type)
	assert.Empty(t, interest.Transaction.ReceiptNumber)

	fee, err := f.ledger.DebitFee(ctx, domain.PostingRequest{AccountID: a.ID, Amount: dec("1.50"), Description: "SMS alerts"})
	require.NoError(t, err)
	assert.True(t, fee.Account.CurrentBalance.Equal(dec("100.58")))

	_, err = f.ledger.DebitFee(ctx, domain.PostingRequest{AccountID: a.ID, Amount: dec("500")})
	assert.ErrorIs(t, err, domain.ErrInsufficientFunds)

	assertLedgerConsistent(t, f, a.ID)
	assert.Contains(t, f.publisher.types(), domain.EventInterestCredit)
	assert.Contains(t, f.publisher.types(), domain.EventFeeDebit)
}

func TestHolds(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.open(t, "100")

	held, err := f.ledger.PlaceHold(ctx, domain.HoldRequest{AccountID: a.ID, Amount: dec("60"), Reason: "card authorisation"})
	require.NoError(t, err)
	assert.True(t, held.CurrentBalance.Equal(dec("100")))
	assert.True(t, held.AvailableBalance.Equal(dec("40")))
	assert.True(t, held.HeldAmount().Equal(dec("60")))

	_, err = f.ledger.Withdraw(ctx, domain.PostingRequest{AccountID: a.ID, Amount: dec("50")})
	assert.ErrorIs(t, err, domain.ErrInsufficientFunds, "held funds are not available")

	_, err = f.ledger.PlaceHold(ctx, domain.HoldRequest{AccountID: a.ID, Amount: dec("41")})
	assert.ErrorIs(t, err, domain.ErrInsufficientFunds)

	_, err = f.ledger.ReleaseHold(ctx, domain.HoldRequest{AccountID: a.ID, Amount: dec("61")})
	assert.ErrorIs(t, err, domain.ErrInvalidAmount)

	released, err := f.ledger.ReleaseHold(ctx, domain.HoldRequest{AccountID: a.ID, Amount: dec("60")})
	require.NoError(t, err)
	assert.True(t, released.AvailableBalance.Equal(dec("100")))

	assert.Len(t, f.history(t, a.ID), 1, "holds write no ledger rows")

	_, err = f.ledger.Freeze(ctx, a.ID, "review")
	require.NoError(t, err)
	_, err = f.ledger.PlaceHold(ctx, domain.HoldRequest{AccountID: a.ID, Amount: dec("1")})
	assert.ErrorIs(t, err, domain.ErrInvalidAccountState)
}

func TestStatusTransitions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.open(t, "10")

	_, err := f.ledger.Unfreeze(ctx, a.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidAccountState, "unfreeze needs a frozen account")

	_, err = f.ledger.Freeze(ctx, a.ID, "")
	assert.ErrorIs(t, err, domain.ErrInvalidRequest)

	frozen, err := f.ledger.Freeze(ctx, a.ID, "court order")
	require.NoError(t, err)
	assert.Equal(t, domain.AccountStatusFrozen, frozen.Status)
	assert.Equal(t, "court order", frozen.StatusReason)

	_, err = f.ledger.Freeze(ctx, a.ID, "again")
	assert.ErrorIs(t, err, domain.ErrInvalidAccountState)

	_, err = f.ledger.Reactivate(ctx, a.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidAccountState, "reactivate is for dormant accounts")

	active, err := f.ledger.Unfreeze(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.AccountStatusActive, active.Status)
	assert.Empty(t, active.StatusReason)

	_, err = f.ledger.MarkDormant(ctx, a.ID)
	require.NoError(t, err)
	_, err = f.ledger.Reactivate(ctx, a.ID)
	require.NoError(t, err)

	_, err = f.ledger.Close(ctx, a.ID, "")
	assert.ErrorIs(t, err, domain.ErrInvalidRequest)
	closed, err := f.ledger.Close(ctx, a.ID, "customer request")
	require.NoError(t, err)
	assert.Equal(t, domain.AccountStatusClosed, closed.Status)

	for _, attempt := range []func() error{
		func() error { _, err := f.ledger.Unfreeze(ctx, a.ID); return err },
		func() error { _, err := f.ledger.Reactivate(ctx, a.ID); return err },
		func() error { _, err := f.ledger.Freeze(ctx, a.ID, "x"); return err },
		func() error { _, err := f.ledger.Close(ctx, a.ID, "x"); return err },
	} {
		assert.ErrorIs(t, attempt(), domain.ErrInvalidAccountState, "closed is terminal")
	}

	assert.Len(t, f.history(t, a.ID), 1, "status changes write no ledger rows")

	_, err = f.ledger.Freeze(ctx, "missing", "x")
	assert.ErrorIs(t, err, domain.ErrAccountNotFound)
}

func TestTransactionDatesNeverGoBackwards(t *testing.T) {
	f := newFixture(t)
	a := f.open(t, "10")

	f.clock.Advance(2 * time.Hour)
	f.deposit(t, a.ID, "1")
	f.clock.Advance(-time.Hour)
	later := f.deposit(t, a.ID, "1")

	rows := f.history(t, a.ID)
	require.Len(t, rows, 3)
	assert.False(t, later.Transaction.TransactionDate.Before(rows[1].TransactionDate))
	assertLedgerConsistent(t, f, a.ID)
}

func TestCommittedChangesRefreshCacheAndPublish(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.open(t, "10")

	_, err := f.queries.GetAccount(ctx, a.ID)
	require.NoError(t, err)
	require.Contains(t, f.cache.accounts, a.ID)

	f.publisher.err = errors.New("broker down")
	result := f.deposit(t, a.ID, "5")

	cached, ok := f.cache.accounts[a.ID]
	require.True(t, ok)
	assert.Equal(t, result.Account.Version, cached.Version)
	assert.True(t, cached.CurrentBalance.Equal(dec("15")))
	assert.Empty(t, f.cache.invalidated)
	assert.Equal(t, domain.EventDeposit, f.publisher.events[len(f.publisher.events)-1].Type)

	got, err := f.queries.GetAccount(ctx, a.ID)
	require.NoError(t, err)
	assert.True(t, got.CurrentBalance.Equal(dec("15")))
}

func TestCacheRefreshFailureFallsBackToInvalidate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.open(t, "10")

	_, err := f.queries.GetAccount(ctx, a.ID)
	require.NoError(t, err)

	f.cache.setErr = errors.New("redis unavailable")
	f.deposit(t, a.ID, "5")

	assert.NotContains(t, f.cache.accounts, a.ID)
	assert.Contains(t, f.cache.invalidated, a.ID)
}

func TestStoreTimeoutLeavesNothingApplied(t *testing.T) {
	f := newFixture(t)
	a := f.open(t, "10")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.ledger.Deposit(ctx, domain.PostingRequest{AccountID: a.ID, Amount: dec("5")})
	require.ErrorIs(t, err, domain.ErrStoreFailure)
	assert.True(t, f.account(t, a.ID).CurrentBalance.Equal(dec("10")))
}
