package router_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/api-sage/savings-ledger/src/internal/adapter/http/controller"
	"github.com/api-sage/savings-ledger/src/internal/adapter/http/middleware"
	"github.com/api-sage/savings-ledger/src/internal/adapter/http/models"
	"github.com/api-sage/savings-ledger/src/internal/adapter/http/router"
	"github.com/api-sage/savings-ledger/src/internal/adapter/repository/memory"
	"github.com/api-sage/savings-ledger/src/internal/commons"
	"github.com/api-sage/savings-ledger/src/internal/usecase/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	channelID  = "BranchApp"
	channelKey = "BranchKey001"
)

type apiClient struct {
	t       *testing.T
	handler http.Handler
}

func newAPI(t *testing.T) *apiClient {
	t.Helper()

	store := memory.NewStore()
	ledger := services.NewLedgerService(store)
	accounts := services.NewAccountService(store)
	queries := services.NewAccountQueryService(store.Accounts(), store.Transactions())
	statements := services.NewStatementService(store.Accounts(), store.Transactions(), store.Statements())

	handler := router.New(
		middleware.BasicAuth(channelID, channelKey),
		nil,
		controller.NewAccountController(accounts, queries),
		controller.NewLedgerController(ledger),
		controller.NewTransferController(ledger, queries),
		controller.NewStatementController(statements),
	)
	return &apiClient{t: t, handler: handler}
}

func (c *apiClient) do(method, path string, body any, out any) int {
	c.t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(c.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.SetBasicAuth(channelID, channelKey)

	rr := httptest.NewRecorder()
	c.handler.ServeHTTP(rr, req)

	if out != nil {
		require.NoError(c.t, json.Unmarshal(rr.Body.Bytes(), out), rr.Body.String())
	}
	return rr.Code
}

func (c *apiClient) open(initial string) models.AccountResponse {
	c.t.Helper()

	var resp commons.Response[models.OpenAccountResponse]
	code := c.do(http.MethodPost, "/accounts", models.OpenAccountRequest{
		CustomerID:     "customer-1",
		AccountTypeID:  "regular-savings",
		InitialDeposit: initial,
	}, &resp)
	require.Equal(c.t, http.StatusCreated, code)
	require.True(c.t, resp.Success)
	return resp.Data.Account
}

func TestLedgerOverHTTP(t *testing.T) {
	api := newAPI(t)

	a := api.open("1000.00")
	b := api.open("50.00")
	assert.Equal(t, "1000.00", a.CurrentBalance)

	var posting commons.Response[models.PostingResponse]
	code := api.do(http.MethodPost, "/accounts/"+a.ID+"/withdrawals", models.PostingRequest{Amount: "200.00"}, &posting)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "800.00", posting.Data.Account.CurrentBalance)
	assert.Equal(t, "withdrawal", posting.Data.Transaction.Type)
	assert.NotEmpty(t, posting.Data.Transaction.ReceiptNumber)

	var transfer commons.Response[models.TransferResponse]
	code = api.do(http.MethodPost, "/transfers", models.TransferRequest{FromAccountID: a.ID, ToAccountID: b.ID, Amount: "300"}, &transfer)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "500.00", transfer.Data.FromAccount.CurrentBalance)
	assert.Equal(t, "350.00", transfer.Data.ToAccount.CurrentBalance)
	assert.Equal(t, transfer.Data.Debit.ReferenceNumber, transfer.Data.Credit.ReferenceNumber)

	var record commons.Response[models.TransferRecordResponse]
	code = api.do(http.MethodGet, "/transfers/"+transfer.Data.ReferenceNumber, nil, &record)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, transfer.Data.ReferenceNumber, record.Data.ReferenceNumber)
	assert.Equal(t, transfer.Data.Debit, record.Data.Debit)
	assert.Equal(t, transfer.Data.Credit, record.Data.Credit)

	var failed commons.Response[any]
	code = api.do(http.MethodPost, "/accounts/"+a.ID+"/withdrawals", models.PostingRequest{Amount: "600"}, &failed)
	assert.Equal(t, http.StatusUnprocessableEntity, code)
	assert.False(t, failed.Success)
	assert.Equal(t, "insufficient funds", failed.Message)

	var rows commons.Response[[]models.TransactionResponse]
	code = api.do(http.MethodGet, "/accounts/"+a.ID+"/transactions?limit=2", nil, &rows)
	require.Equal(t, http.StatusOK, code)
	require.Len(t, *rows.Data, 2)
	assert.Equal(t, 2, rows.Page.Limit)
	assert.Equal(t, "deposit", (*rows.Data)[0].Type)

	var statement commons.Response[models.StatementResponse]
	code = api.do(http.MethodPost, "/accounts/"+a.ID+"/statements", models.StatementRequest{StartDate: "2000-01-01", EndDate: "2999-12-31"}, &statement)
	require.Equal(t, http.StatusCreated, code)
	assert.Equal(t, "0.00", statement.Data.OpeningBalance)
	assert.Equal(t, "500.00", statement.Data.ClosingBalance)
	assert.Equal(t, "500.00", statement.Data.TotalWithdrawals)
	assert.Equal(t, 3, statement.Data.TransactionCount)

	var fetched commons.Response[models.StatementResponse]
	code = api.do(http.MethodGet, "/statements/"+statement.Data.ID, nil, &fetched)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, statement.Data, fetched.Data)
}

func TestStatusEndpoints(t *testing.T) {
	api := newAPI(t)
	a := api.open("10")

	var resp commons.Response[models.AccountResponse]
	code := api.do(http.MethodPost, "/accounts/"+a.ID+"/freeze", nil, &resp)
	assert.Equal(t, http.StatusBadRequest, code, "freeze needs a reason")

	code = api.do(http.MethodPost, "/accounts/"+a.ID+"/freeze", models.StatusChangeRequest{Reason: "fraud review"}, &resp)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "frozen", resp.Data.Status)

	var failed commons.Response[any]
	code = api.do(http.MethodPost, "/accounts/"+a.ID+"/deposits", models.PostingRequest{Amount: "5"}, &failed)
	assert.Equal(t, http.StatusConflict, code)

	code = api.do(http.MethodPost, "/accounts/"+a.ID+"/unfreeze", nil, &resp)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "active", resp.Data.Status)
}

func TestRequestErrors(t *testing.T) {
	api := newAPI(t)
	a := api.open("10")

	tests := []struct {
		name   string
		method string
		path   string
		body   any
		want   int
	}{
		{"unknown account", http.MethodGet, "/accounts/8f6c2e8a-3f1e-4e55-9a57-5b8f3c1f0a11", nil, http.StatusNotFound},
		{"bad account number", http.MethodGet, "/accounts/by-number/12ab", nil, http.StatusBadRequest},
		{"non numeric amount", http.MethodPost, "/accounts/" + a.ID + "/deposits", models.PostingRequest{Amount: "ten"}, http.StatusBadRequest},
		{"zero amount", http.MethodPost, "/accounts/" + a.ID + "/deposits", models.PostingRequest{Amount: "0"}, http.StatusBadRequest},
		{"bad limit", http.MethodGet, "/accounts?limit=-1", nil, http.StatusBadRequest},
		{"bad status filter", http.MethodGet, "/accounts?status=pending", nil, http.StatusBadRequest},
		{"bad date", http.MethodPost, "/accounts/" + a.ID + "/statements", models.StatementRequest{StartDate: "yesterday", EndDate: "2026-01-01"}, http.StatusBadRequest},
		{"unknown statement", http.MethodGet, "/statements/missing", nil, http.StatusNotFound},
		{"unknown transfer", http.MethodGet, "/transfers/TRF-UNKNOWN", nil, http.StatusNotFound},
		{"same account transfer", http.MethodPost, "/transfers", models.TransferRequest{FromAccountID: a.ID, ToAccountID: a.ID, Amount: "1"}, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var resp commons.Response[any]
			assert.Equal(t, tt.want, api.do(tt.method, tt.path, tt.body, &resp))
			assert.False(t, resp.Success)
		})
	}
}

func TestAuthAndPublicRoutes(t *testing.T) {
	api := newAPI(t)

	req := httptest.NewRequest(http.MethodGet, "/accounts", nil)
	rr := httptest.NewRecorder()
	api.handler.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	rr = httptest.NewRecorder()
	api.handler.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code)

	req = httptest.NewRequest(http.MethodGet, "/swagger/openapi.json", nil)
	rr = httptest.NewRecorder()
	api.handler.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.True(t, json.Valid(rr.Body.Bytes()))
}

func TestHealthReportsStoreFailure(t *testing.T) {
	handler := router.New(nil, func(context.Context) error { return errors.New("connection refused") })

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
}
