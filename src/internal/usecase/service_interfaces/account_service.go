package service_interfaces

import (
	"context"

	"github.com/api-sage/savings-ledger/src/internal/domain"
)

type AccountService interface {
	OpenAccount(ctx context.Context, req domain.OpenAccountRequest) (domain.OpenAccountResult, error)
}
