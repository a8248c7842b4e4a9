package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type AccountStatus string

const (
	AccountStatusActive  AccountStatus = "active"
	AccountStatusFrozen  AccountStatus = "frozen"
	AccountStatusDormant AccountStatus = "dormant"
	AccountStatusClosed  AccountStatus = "closed"
)

// closed has no outgoing transitions.
var accountTransitions = map[AccountStatus][]AccountStatus{
	AccountStatusActive:  {AccountStatusFrozen, AccountStatusDormant, AccountStatusClosed},
	AccountStatusFrozen:  {AccountStatusActive, AccountStatusClosed},
	AccountStatusDormant: {AccountStatusActive, AccountStatusClosed},
}

func (s AccountStatus) Valid() bool {
	switch s {
	case AccountStatusActive, AccountStatusFrozen, AccountStatusDormant, AccountStatusClosed:
		return true
	}
	return false
}

func (s AccountStatus) CanTransitionTo(next AccountStatus) bool {
	for _, allowed := range accountTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

type Account struct {
	ID                  string
	AccountNumber       string
	CustomerID          string
	AccountTypeID       string
	CurrentBalance      decimal.Decimal
	AvailableBalance    decimal.Decimal
	InterestRate        decimal.Decimal
	Status              AccountStatus
	StatusReason        string
	OpeningDate         time.Time
	LastTransactionDate *time.Time
	Version             int64
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

func (a Account) IsActive() bool {
	return a.Status == AccountStatusActive
}

// HeldAmount is the part of the current balance that is not available.
func (a Account) HeldAmount() decimal.Decimal {
	return a.CurrentBalance.Sub(a.AvailableBalance)
}
