package services_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/api-sage/savings-ledger/src/internal/adapter/repository/memory"
	"github.com/api-sage/savings-ledger/src/internal/domain"
	"github.com/api-sage/savings-ledger/src/internal/usecase/services"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
	return c.now
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []domain.LedgerEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, event domain.LedgerEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return p.err
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) types() []domain.LedgerEventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]domain.LedgerEventType, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

type mapCache struct {
	mu          sync.Mutex
	accounts    map[string]domain.Account
	invalidated []string
	hits        int
	setErr      error
}

func newMapCache() *mapCache {
	return &mapCache{accounts: make(map[string]domain.Account)}
}

func (c *mapCache) Get(_ context.Context, id string) (domain.Account, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	account, ok := c.accounts[id]
	if ok {
		c.hits++
	}
	return account, ok, nil
}

func (c *mapCache) Set(_ context.Context, account domain.Account) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.setErr != nil {
		return c.setErr
	}
	if cached, ok := c.accounts[account.ID]; ok && cached.Version >= account.Version {
		return nil
	}
	c.accounts[account.ID] = account
	return nil
}

func (c *mapCache) Invalidate(_ context.Context, ids ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, id := range ids {
		delete(c.accounts, id)
		c.invalidated = append(c.invalidated, id)
	}
	return nil
}

type fixture struct {
	store      *memory.Store
	clock      *fakeClock
	publisher  *recordingPublisher
	cache      *mapCache
	ledger     *services.LedgerService
	accounts   *services.AccountService
	statements *services.StatementService
	queries    *services.AccountQueryService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	store := memory.NewStore()
	clock := newFakeClock()
	publisher := &recordingPublisher{}
	cache := newMapCache()

	opts := []services.Option{
		services.WithClock(clock.Now),
		services.WithStoreTimeout(5 * time.Second),
		services.WithAccountCache(cache),
		services.WithEventPublisher(publisher),
	}

	return &fixture{
		store:      store,
		clock:      clock,
		publisher:  publisher,
		cache:      cache,
		ledger:     services.NewLedgerService(store, opts...),
		accounts:   services.NewAccountService(store, opts...),
		statements: services.NewStatementService(store.Accounts(), store.Transactions(), store.Statements(), opts...),
		queries:    services.NewAccountQueryService(store.Accounts(), store.Transactions(), opts...),
	}
}

func (f *fixture) open(t *testing.T, initial string) domain.Account {
	t.Helper()

	result, err := f.accounts.OpenAccount(context.Background(), domain.OpenAccountRequest{
		CustomerID:     "customer-1",
		AccountTypeID:  "regular-savings",
		InitialDeposit: dec(initial),
		InterestRate:   dec("2.5"),
		OpenedBy:       "officer-1",
	})
	require.NoError(t, err)
	return result.Account
}

func (f *fixture) account(t *testing.T, id string) domain.Account {
	t.Helper()

	account, err := f.store.Accounts().GetByID(context.Background(), id)
	require.NoError(t, err)
	return account
}

func (f *fixture) history(t *testing.T, id string) []domain.Transaction {
	t.Helper()

	rows, err := f.store.Transactions().ListByAccount(context.Background(), domain.TransactionFilter{AccountID: id})
	require.NoError(t, err)
	return rows
}

func (f *fixture) deposit(t *testing.T, id string, amount string) domain.PostingResult {
	t.Helper()

	result, err := f.ledger.Deposit(context.Background(), domain.PostingRequest{
		AccountID:   id,
		Amount:      dec(amount),
		Method:      "cash",
		PerformedBy: "teller-1",
	})
	require.NoError(t, err)
	return result
}

func dec(raw string) decimal.Decimal {
	return decimal.RequireFromString(raw)
}

// assertLedgerConsistent checks the balance identity and the running balance
// chain for one account.
func assertLedgerConsistent(t *testing.T, f *fixture, id string) {
	t.Helper()

	account := f.account(t, id)
	rows := f.history(t, id)

	balance := decimal.Zero
	for i, row := range rows {
		require.Equal(t, int64(i+1), row.Sequence, "sequence gap at row %d", i)
		require.True(t, row.BalanceBefore().Equal(balance), "row %d starts at %s, expected %s", i, row.BalanceBefore(), balance)
		balance = row.RunningBalance
		if i > 0 {
			require.False(t, row.TransactionDate.Before(rows[i-1].TransactionDate), "row %d dated before row %d", i, i-1)
		}
	}
	require.True(t, account.CurrentBalance.Equal(balance), "current %s != ledger %s", account.CurrentBalance, balance)
	require.True(t, account.AvailableBalance.LessThanOrEqual(account.CurrentBalance))
}
