package models

import (
	"strings"

	"github.com/api-sage/savings-ledger/src/internal/domain"
)

type TransferRequest struct {
	FromAccountID string `json:"fromAccountId"`
	ToAccountID   string `json:"toAccountId"`
	Amount        string `json:"amount"`
	Description   string `json:"description,omitempty"`
	PerformedBy   string `json:"performedBy,omitempty"`
}

func (r TransferRequest) Validate() error {
	_, err := r.ToDomain()
	return err
}

func (r TransferRequest) ToDomain() (domain.TransferRequest, error) {
	var errs []string

	from := strings.TrimSpace(r.FromAccountID)
	to := strings.TrimSpace(r.ToAccountID)
	if from == "" {
		errs = append(errs, "fromAccountId is required")
	}
	if to == "" {
		errs = append(errs, "toAccountId is required")
	}
	amount, msg := parseAmount("amount", r.Amount, true)
	if msg != "" {
		errs = append(errs, msg)
	}

	if err := joinErrors(errs); err != nil {
		return domain.TransferRequest{}, err
	}

	return domain.TransferRequest{
		FromAccountID: from,
		ToAccountID:   to,
		Amount:        amount,
		Description:   strings.TrimSpace(r.Description),
		PerformedBy:   strings.TrimSpace(r.PerformedBy),
	}, nil
}

type TransferResponse struct {
	ReferenceNumber string              `json:"referenceNumber"`
	FromAccount     AccountResponse     `json:"fromAccount"`
	ToAccount       AccountResponse     `json:"toAccount"`
	Debit           TransactionResponse `json:"debit"`
	Credit          TransactionResponse `json:"credit"`
}

func NewTransferResponse(result domain.TransferResult) TransferResponse {
	return TransferResponse{
		ReferenceNumber: result.ReferenceNumber,
		FromAccount:     NewAccountResponse(result.FromAccount),
		ToAccount:       NewAccountResponse(result.ToAccount),
		Debit:           NewTransactionResponse(result.Debit),
		Credit:          NewTransactionResponse(result.Credit),
	}
}

type TransferRecordResponse struct {
	ReferenceNumber string              `json:"referenceNumber"`
	Debit           TransactionResponse `json:"debit"`
	Credit          TransactionResponse `json:"credit"`
}

func NewTransferRecordResponse(record domain.TransferRecord) TransferRecordResponse {
	return TransferRecordResponse{
		ReferenceNumber: record.ReferenceNumber,
		Debit:           NewTransactionResponse(record.Debit),
		Credit:          NewTransactionResponse(record.Credit),
	}
}
