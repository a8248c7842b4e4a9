package events

import (
	"context"

	"github.com/api-sage/savings-ledger/src/internal/domain"
)

// NoopPublisher drops every event. It is used when no events driver is configured.
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, domain.LedgerEvent) error { return nil }

func (NoopPublisher) Close() error { return nil }
