package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/api-sage/savings-ledger/src/internal/adapter/repository/memory"
	"github.com/api-sage/savings-ledger/src/internal/domain"
	"github.com/api-sage/savings-ledger/src/internal/usecase/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatementFoldsFeesIntoWithdrawals(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.open(t, "1000")
	b := f.open(t, "0")

	start := f.clock.Advance(time.Hour)
	f.deposit(t, a.ID, "250")
	_, err := f.ledger.CreditInterest(ctx, domain.PostingRequest{AccountID: a.ID, Amount: dec("4.17")})
	require.NoError(t, err)
	_, err = f.ledger.DebitFee(ctx, domain.PostingRequest{AccountID: a.ID, Amount: dec("2.50")})
	require.NoError(t, err)
	_, err = f.ledger.Withdraw(ctx, domain.PostingRequest{AccountID: a.ID, Amount: dec("100")})
	require.NoError(t, err)
	_, err = f.ledger.Transfer(ctx, domain.TransferRequest{FromAccountID: a.ID, ToAccountID: b.ID, Amount: dec("50")})
	require.NoError(t, err)
	end := f.clock.Advance(time.Hour)

	statement, err := f.statements.GenerateStatement(ctx, domain.StatementRequest{AccountID: a.ID, StartDate: start, EndDate: end})
	require.NoError(t, err)

	assert.True(t, statement.OpeningBalance.Equal(dec("1000")))
	assert.True(t, statement.ClosingBalance.Equal(dec("1101.67")))
	assert.True(t, statement.TotalDeposits.Equal(dec("250")))
	assert.True(t, statement.InterestEarned.Equal(dec("4.17")))
	assert.True(t, statement.TotalWithdrawals.Equal(dec("152.50")))
	assert.True(t, statement.TotalFees.Equal(dec("2.50")))
	assert.Equal(t, 5, statement.TransactionCount)
	assert.True(t, statement.Reconciles())

	got, err := f.statements.GetStatement(ctx, statement.ID)
	require.NoError(t, err)
	assert.Equal(t, statement.ID, got.ID)
	assert.Contains(t, f.publisher.types(), domain.EventStatementGenerated)
}

func TestStatementEmptyRange(t *testing.T) {
	ctx := context.Background()

	t.Run("carries forward the balance before the window", func(t *testing.T) {
		f := newFixture(t)
		a := f.open(t, "100")

		windowStart := f.clock.Advance(time.Hour)
		windowEnd := f.clock.Advance(time.Hour)
		f.clock.Advance(24 * time.Hour)
		f.deposit(t, a.ID, "50")

		statement, err := f.statements.GenerateStatement(ctx, domain.StatementRequest{AccountID: a.ID, StartDate: windowStart, EndDate: windowEnd})
		require.NoError(t, err)
		assert.True(t, statement.OpeningBalance.Equal(dec("100")))
		assert.True(t, statement.ClosingBalance.Equal(dec("100")))
		assert.Equal(t, 0, statement.TransactionCount)
	})

	t.Run("reverses the first row after the window", func(t *testing.T) {
		f := newFixture(t)
		a := f.open(t, "0")

		windowStart := f.clock.Advance(time.Minute)
		windowEnd := f.clock.Advance(time.Minute)
		f.clock.Advance(time.Hour)
		f.deposit(t, a.ID, "75")

		statement, err := f.statements.GenerateStatement(ctx, domain.StatementRequest{AccountID: a.ID, StartDate: windowStart, EndDate: windowEnd})
		require.NoError(t, err)
		assert.True(t, statement.OpeningBalance.IsZero(), "balance then was zero, not today's 75")
		assert.True(t, statement.ClosingBalance.IsZero())
	})

	t.Run("uses the live balance when the account never moved", func(t *testing.T) {
		f := newFixture(t)
		a := f.open(t, "0")

		now := f.clock.Now()
		statement, err := f.statements.GenerateStatement(ctx, domain.StatementRequest{AccountID: a.ID, StartDate: now.Add(-time.Hour), EndDate: now})
		require.NoError(t, err)
		assert.True(t, statement.OpeningBalance.Equal(a.CurrentBalance))
		assert.True(t, statement.ClosingBalance.Equal(a.CurrentBalance))
	})
}

func TestStatementValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.open(t, "10")
	now := f.clock.Now()

	_, err := f.statements.GenerateStatement(ctx, domain.StatementRequest{AccountID: a.ID, StartDate: now, EndDate: now.Add(-time.Second)})
	assert.ErrorIs(t, err, domain.ErrInvalidRequest)

	_, err = f.statements.GenerateStatement(ctx, domain.StatementRequest{AccountID: a.ID, EndDate: now})
	assert.ErrorIs(t, err, domain.ErrInvalidRequest)

	_, err = f.statements.GenerateStatement(ctx, domain.StatementRequest{AccountID: "missing", StartDate: now, EndDate: now})
	assert.ErrorIs(t, err, domain.ErrAccountNotFound)

	_, err = f.statements.GetStatement(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrStatementNotFound)

	_, err = f.statements.ListStatements(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrAccountNotFound)
}

func TestStatementStoreFailures(t *testing.T) {
	ctx := context.Background()
	injected := errors.New("query timeout")

	for _, op := range []string{memory.OpListTransactions, memory.OpCreateStatement} {
		t.Run(op, func(t *testing.T) {
			f := newFixture(t)
			a := f.open(t, "10")
			now := f.clock.Now()

			f.store.SetFailure(func(failing, _ string) error {
				if failing == op {
					return injected
				}
				return nil
			})

			_, err := f.statements.GenerateStatement(ctx, domain.StatementRequest{AccountID: a.ID, StartDate: now.Add(-time.Hour), EndDate: now})
			require.ErrorIs(t, err, domain.ErrStoreFailure)
			require.ErrorIs(t, err, injected)

			f.store.SetFailure(nil)
			list, err := f.statements.ListStatements(ctx, a.ID)
			require.NoError(t, err)
			assert.Empty(t, list)
		})
	}
}

type brokenHistory struct {
	rows []domain.Transaction
}

func (b brokenHistory) ListByAccount(context.Context, domain.TransactionFilter) ([]domain.Transaction, error) {
	return b.rows, nil
}

func (b brokenHistory) ListByReference(context.Context, string) ([]domain.Transaction, error) {
	return b.rows, nil
}

func (b brokenHistory) LastBefore(context.Context, string, time.Time) (domain.Transaction, error) {
	return domain.Transaction{}, domain.ErrRecordNotFound
}

func (b brokenHistory) FirstAfter(context.Context, string, time.Time) (domain.Transaction, error) {
	return domain.Transaction{}, domain.ErrRecordNotFound
}

func TestStatementRejectsBrokenRunningBalance(t *testing.T) {
	f := newFixture(t)
	a := f.open(t, "100")
	now := f.clock.Now()

	history := brokenHistory{rows: []domain.Transaction{
		{AccountID: a.ID, Type: domain.TransactionTypeDeposit, Amount: dec("100"), RunningBalance: dec("100"), Sequence: 1, TransactionDate: now},
		{AccountID: a.ID, Type: domain.TransactionTypeDeposit, Amount: dec("10"), RunningBalance: dec("150"), Sequence: 2, TransactionDate: now},
	}}
	svc := services.NewStatementService(f.store.Accounts(), history, f.store.Statements())

	_, err := svc.GenerateStatement(context.Background(), domain.StatementRequest{AccountID: a.ID, StartDate: now, EndDate: now})
	require.ErrorIs(t, err, domain.ErrLedgerInconsistency)

	list, err := svc.ListStatements(context.Background(), a.ID)
	require.NoError(t, err)
	assert.Empty(t, list, "nothing is stored for an inconsistent history")
}
