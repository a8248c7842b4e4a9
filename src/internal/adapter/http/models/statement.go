package models

import (
	"github.com/api-sage/savings-ledger/src/internal/domain"
)

type StatementRequest struct {
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
}

func (r StatementRequest) ToDomain(accountID string) (domain.StatementRequest, error) {
	var errs []string

	start, err := ParseTime("startDate", r.StartDate, false)
	if err != nil {
		errs = append(errs, err.Error())
	} else if start == nil {
		errs = append(errs, "startDate is required")
	}
	end, err := ParseTime("endDate", r.EndDate, true)
	if err != nil {
		errs = append(errs, err.Error())
	} else if end == nil {
		errs = append(errs, "endDate is required")
	}

	if err := joinErrors(errs); err != nil {
		return domain.StatementRequest{}, err
	}
	return domain.StatementRequest{AccountID: accountID, StartDate: *start, EndDate: *end}, nil
}

type StatementResponse struct {
	ID               string `json:"id"`
	AccountID        string `json:"accountId"`
	StatementDate    string `json:"statementDate"`
	StartDate        string `json:"startDate"`
	EndDate          string `json:"endDate"`
	OpeningBalance   string `json:"openingBalance"`
	ClosingBalance   string `json:"closingBalance"`
	TotalDeposits    string `json:"totalDeposits"`
	TotalWithdrawals string `json:"totalWithdrawals"`
	InterestEarned   string `json:"interestEarned"`
	TotalFees        string `json:"totalFees"`
	TransactionCount int    `json:"transactionCount"`
	DeliveryStatus   string `json:"deliveryStatus"`
}

func NewStatementResponse(s domain.Statement) StatementResponse {
	return StatementResponse{
		ID:               s.ID,
		AccountID:        s.AccountID,
		StatementDate:    timestamp(s.StatementDate),
		StartDate:        timestamp(s.StartDate),
		EndDate:          timestamp(s.EndDate),
		OpeningBalance:   money(s.OpeningBalance),
		ClosingBalance:   money(s.ClosingBalance),
		TotalDeposits:    money(s.TotalDeposits),
		TotalWithdrawals: money(s.TotalWithdrawals),
		InterestEarned:   money(s.InterestEarned),
		TotalFees:        money(s.TotalFees),
		TransactionCount: s.TransactionCount,
		DeliveryStatus:   string(s.DeliveryStatus),
	}
}

func NewStatementResponses(statements []domain.Statement) []StatementResponse {
	out := make([]StatementResponse, 0, len(statements))
	for _, s := range statements {
		out = append(out, NewStatementResponse(s))
	}
	return out
}
