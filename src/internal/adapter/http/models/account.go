package models

import (
	"strings"

	"github.com/api-sage/savings-ledger/src/internal/domain"
)

type OpenAccountRequest struct {
	AccountNumber  string `json:"accountNumber,omitempty"`
	CustomerID     string `json:"customerId"`
	AccountTypeID  string `json:"accountTypeId"`
	InitialDeposit string `json:"initialDeposit,omitempty"`
	InterestRate   string `json:"interestRate,omitempty"`
	Method         string `json:"method,omitempty"`
	OpenedBy       string `json:"openedBy,omitempty"`
}

func (r OpenAccountRequest) Validate() error {
	_, err := r.ToDomain()
	return err
}

func (r OpenAccountRequest) ToDomain() (domain.OpenAccountRequest, error) {
	var errs []string

	if strings.TrimSpace(r.CustomerID) == "" {
		errs = append(errs, "customerId is required")
	}
	if strings.TrimSpace(r.AccountTypeID) == "" {
		errs = append(errs, "accountTypeId is required")
	}

	deposit, msg := parseAmount("initialDeposit", r.InitialDeposit, false)
	if msg != "" {
		errs = append(errs, msg)
	}
	rate, msg := parseAmount("interestRate", r.InterestRate, false)
	if msg != "" {
		errs = append(errs, msg)
	}

	if err := joinErrors(errs); err != nil {
		return domain.OpenAccountRequest{}, err
	}

	return domain.OpenAccountRequest{
		AccountNumber:  strings.TrimSpace(r.AccountNumber),
		CustomerID:     strings.TrimSpace(r.CustomerID),
		AccountTypeID:  strings.TrimSpace(r.AccountTypeID),
		InitialDeposit: deposit,
		InterestRate:   rate,
		Method:         strings.TrimSpace(r.Method),
		OpenedBy:       strings.TrimSpace(r.OpenedBy),
	}, nil
}

type AccountResponse struct {
	ID                  string `json:"id"`
	AccountNumber       string `json:"accountNumber"`
	CustomerID          string `json:"customerId"`
	AccountTypeID       string `json:"accountTypeId"`
	CurrentBalance      string `json:"currentBalance"`
	AvailableBalance    string `json:"availableBalance"`
	HeldAmount          string `json:"heldAmount"`
	InterestRate        string `json:"interestRate"`
	Status              string `json:"status"`
	StatusReason        string `json:"statusReason,omitempty"`
	OpeningDate         string `json:"openingDate"`
	LastTransactionDate string `json:"lastTransactionDate,omitempty"`
	CreatedAt           string `json:"createdAt"`
	UpdatedAt           string `json:"updatedAt"`
}

func NewAccountResponse(a domain.Account) AccountResponse {
	return AccountResponse{
		ID:                  a.ID,
		AccountNumber:       a.AccountNumber,
		CustomerID:          a.CustomerID,
		AccountTypeID:       a.AccountTypeID,
		CurrentBalance:      money(a.CurrentBalance),
		AvailableBalance:    money(a.AvailableBalance),
		HeldAmount:          money(a.HeldAmount()),
		InterestRate:        a.InterestRate.String(),
		Status:              string(a.Status),
		StatusReason:        a.StatusReason,
		OpeningDate:         timestamp(a.OpeningDate),
		LastTransactionDate: optionalTimestamp(a.LastTransactionDate),
		CreatedAt:           timestamp(a.CreatedAt),
		UpdatedAt:           timestamp(a.UpdatedAt),
	}
}

func NewAccountResponses(accounts []domain.Account) []AccountResponse {
	out := make([]AccountResponse, 0, len(accounts))
	for _, a := range accounts {
		out = append(out, NewAccountResponse(a))
	}
	return out
}

type OpenAccountResponse struct {
	Account            AccountResponse      `json:"account"`
	OpeningTransaction *TransactionResponse `json:"openingTransaction,omitempty"`
}

func NewOpenAccountResponse(result domain.OpenAccountResult) OpenAccountResponse {
	resp := OpenAccountResponse{Account: NewAccountResponse(result.Account)}
	if result.OpeningTransaction != nil {
		row := NewTransactionResponse(*result.OpeningTransaction)
		resp.OpeningTransaction = &row
	}
	return resp
}

type StatusChangeRequest struct {
	Reason string `json:"reason,omitempty"`
}
