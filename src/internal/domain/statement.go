package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type DeliveryStatus string

const (
	DeliveryStatusPending   DeliveryStatus = "pending"
	DeliveryStatusDelivered DeliveryStatus = "delivered"
)

type Statement struct {
	ID               string
	AccountID        string
	StatementDate    time.Time
	StartDate        time.Time
	EndDate          time.Time
	OpeningBalance   decimal.Decimal
	ClosingBalance   decimal.Decimal
	TotalDeposits    decimal.Decimal
	TotalWithdrawals decimal.Decimal
	InterestEarned   decimal.Decimal
	TotalFees        decimal.Decimal
	TransactionCount int
	DeliveryStatus   DeliveryStatus
	CreatedAt        time.Time
}

// Reconciles checks closing - opening == deposits - withdrawals + interest.
// Fees are already part of TotalWithdrawals.
func (s Statement) Reconciles() bool {
	movement := s.ClosingBalance.Sub(s.OpeningBalance)
	expected := s.TotalDeposits.Sub(s.TotalWithdrawals).Add(s.InterestEarned)
	return movement.Equal(expected)
}
