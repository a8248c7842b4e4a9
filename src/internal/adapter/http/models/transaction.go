package models

import (
	"strings"

	"github.com/api-sage/savings-ledger/src/internal/domain"
)

// PostingRequest is the body of deposit, withdrawal, interest and fee calls.
type PostingRequest struct {
	Amount      string `json:"amount"`
	Method      string `json:"method,omitempty"`
	Description string `json:"description,omitempty"`
	PerformedBy string `json:"performedBy,omitempty"`
}

func (r PostingRequest) ToDomain(accountID string) (domain.PostingRequest, error) {
	amount, msg := parseAmount("amount", r.Amount, true)
	if msg != "" {
		return domain.PostingRequest{}, joinErrors([]string{msg})
	}
	return domain.PostingRequest{
		AccountID:   accountID,
		Amount:      amount,
		Method:      strings.TrimSpace(r.Method),
		Description: strings.TrimSpace(r.Description),
		PerformedBy: strings.TrimSpace(r.PerformedBy),
	}, nil
}

type HoldRequest struct {
	Amount string `json:"amount"`
	Reason string `json:"reason,omitempty"`
}

func (r HoldRequest) ToDomain(accountID string) (domain.HoldRequest, error) {
	amount, msg := parseAmount("amount", r.Amount, true)
	if msg != "" {
		return domain.HoldRequest{}, joinErrors([]string{msg})
	}
	return domain.HoldRequest{
		AccountID: accountID,
		Amount:    amount,
		Reason:    strings.TrimSpace(r.Reason),
	}, nil
}

type TransactionResponse struct {
	ID              string `json:"id"`
	AccountID       string `json:"accountId"`
	Type            string `json:"type"`
	Amount          string `json:"amount"`
	RunningBalance  string `json:"runningBalance"`
	Description     string `json:"description,omitempty"`
	Method          string `json:"method,omitempty"`
	PerformedBy     string `json:"performedBy,omitempty"`
	ReferenceNumber string `json:"referenceNumber"`
	ReceiptNumber   string `json:"receiptNumber,omitempty"`
	Sequence        int64  `json:"sequence"`
	TransactionDate string `json:"transactionDate"`
}

func NewTransactionResponse(t domain.Transaction) TransactionResponse {
	return TransactionResponse{
		ID:              t.ID,
		AccountID:       t.AccountID,
		Type:            string(t.Type),
		Amount:          money(t.Amount),
		RunningBalance:  money(t.RunningBalance),
		Description:     t.Description,
		Method:          t.Method,
		PerformedBy:     t.PerformedBy,
		ReferenceNumber: t.ReferenceNumber,
		ReceiptNumber:   t.ReceiptNumber,
		Sequence:        t.Sequence,
		TransactionDate: timestamp(t.TransactionDate),
	}
}

func NewTransactionResponses(rows []domain.Transaction) []TransactionResponse {
	out := make([]TransactionResponse, 0, len(rows))
	for _, row := range rows {
		out = append(out, NewTransactionResponse(row))
	}
	return out
}

type PostingResponse struct {
	Account     AccountResponse     `json:"account"`
	Transaction TransactionResponse `json:"transaction"`
}

func NewPostingResponse(result domain.PostingResult) PostingResponse {
	return PostingResponse{
		Account:     NewAccountResponse(result.Account),
		Transaction: NewTransactionResponse(result.Transaction),
	}
}
