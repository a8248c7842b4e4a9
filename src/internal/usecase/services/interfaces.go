package services

import "github.com/api-sage/savings-ledger/src/internal/usecase/service_interfaces"

var (
	_ service_interfaces.LedgerService       = (*LedgerService)(nil)
	_ service_interfaces.AccountService      = (*AccountService)(nil)
	_ service_interfaces.StatementService    = (*StatementService)(nil)
	_ service_interfaces.AccountQueryService = (*AccountQueryService)(nil)
)
