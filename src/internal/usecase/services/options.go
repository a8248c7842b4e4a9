package services

import (
	"context"
	"time"

	"github.com/api-sage/savings-ledger/src/internal/domain"
	"github.com/api-sage/savings-ledger/src/internal/logger"
)

const defaultStoreTimeout = 10 * time.Second

type options struct {
	clock        func() time.Time
	storeTimeout time.Duration
	cache        domain.AccountCache
	publisher    domain.EventPublisher
}

type Option func(*options)

// WithClock replaces time.Now; tests use it to pin transaction dates.
func WithClock(clock func() time.Time) Option {
	return func(o *options) {
		if clock != nil {
			o.clock = clock
		}
	}
}

// WithStoreTimeout bounds every store unit of work. Zero keeps the default.
func WithStoreTimeout(timeout time.Duration) Option {
	return func(o *options) {
		if timeout > 0 {
			o.storeTimeout = timeout
		}
	}
}

func WithAccountCache(cache domain.AccountCache) Option {
	return func(o *options) {
		o.cache = cache
	}
}

func WithEventPublisher(publisher domain.EventPublisher) Option {
	return func(o *options) {
		o.publisher = publisher
	}
}

func buildOptions(opts []Option) options {
	o := options{
		clock:        time.Now,
		storeTimeout: defaultStoreTimeout,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func (o options) now() time.Time {
	return o.clock().UTC().Truncate(time.Microsecond)
}

func (o options) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, o.storeTimeout)
}

// afterCommit writes the committed post-state of the touched accounts into
// the cache and publishes the events. A copy that cannot be written is
// dropped instead. Failures are logged; the ledger change is already durable.
func (o options) afterCommit(ctx context.Context, accounts []domain.Account, events ...domain.LedgerEvent) {
	ctx = context.WithoutCancel(ctx)

	if o.cache != nil {
		for _, account := range accounts {
			o.refreshCached(ctx, account)
		}
	}

	if o.publisher == nil {
		return
	}
	for _, event := range events {
		if err := o.publisher.Publish(ctx, event); err != nil {
			logger.Error("ledger event publish failed", err, logger.Fields{
				"type":      event.Type,
				"accountId": event.AccountID,
			})
		}
	}
}

func (o options) refreshCached(ctx context.Context, account domain.Account) {
	err := o.cache.Set(ctx, account)
	if err == nil {
		return
	}
	logger.Error("account cache refresh failed", err, logger.Fields{
		"accountId": account.ID,
		"version":   account.Version,
	})
	if err := o.cache.Invalidate(ctx, account.ID); err != nil {
		logger.Error("account cache invalidate failed", err, logger.Fields{
			"accountId": account.ID,
		})
	}
}
