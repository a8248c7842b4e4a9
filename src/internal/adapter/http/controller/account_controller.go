package controller

import (
	"net/http"
	"time"

	"github.com/api-sage/savings-ledger/src/internal/adapter/http/models"
	"github.com/api-sage/savings-ledger/src/internal/commons"
	"github.com/api-sage/savings-ledger/src/internal/domain"
	"github.com/api-sage/savings-ledger/src/internal/usecase/service_interfaces"
	"github.com/go-chi/chi/v5"
)

type AccountController struct {
	accounts service_interfaces.AccountService
	queries  service_interfaces.AccountQueryService
}

func NewAccountController(accounts service_interfaces.AccountService, queries service_interfaces.AccountQueryService) *AccountController {
	return &AccountController{accounts: accounts, queries: queries}
}

func (c *AccountController) RegisterRoutes(r chi.Router) {
	r.Post("/accounts", c.openAccount)
	r.Get("/accounts", c.listAccounts)
	r.Get("/accounts/by-number/{accountNumber}", c.getAccountByNumber)
	r.Get("/accounts/{id}", c.getAccount)
	r.Get("/accounts/{id}/transactions", c.listTransactions)
}

func (c *AccountController) openAccount(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req models.OpenAccountRequest
	if err := decodeBody(r, &req, false); err != nil {
		badRequest(w, r, start, messageInvalidBody, err)
		return
	}
	logRequest(r, req)

	openReq, err := req.ToDomain()
	if err != nil {
		badRequest(w, r, start, messageValidationFailed, err)
		return
	}

	result, err := c.accounts.OpenAccount(r.Context(), openReq)
	if err != nil {
		fail(w, r, start, err)
		return
	}

	respond(w, r, start, http.StatusCreated, commons.SuccessResponse("Account opened", models.NewOpenAccountResponse(result)))
}

func (c *AccountController) getAccount(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logRequest(r, nil)

	account, err := c.queries.GetAccount(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		fail(w, r, start, err)
		return
	}

	respond(w, r, start, http.StatusOK, commons.SuccessResponse("Account fetched", models.NewAccountResponse(account)))
}

func (c *AccountController) getAccountByNumber(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logRequest(r, nil)

	account, err := c.queries.GetAccountByNumber(r.Context(), chi.URLParam(r, "accountNumber"))
	if err != nil {
		fail(w, r, start, err)
		return
	}

	respond(w, r, start, http.StatusOK, commons.SuccessResponse("Account fetched", models.NewAccountResponse(account)))
}

func (c *AccountController) listAccounts(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logRequest(r, nil)

	query := r.URL.Query()
	limit, offset, err := models.ParseWindow(query)
	if err != nil {
		badRequest(w, r, start, messageValidationFailed, err)
		return
	}
	filter := domain.AccountFilter{
		CustomerID: query.Get("customerId"),
		Status:     domain.AccountStatus(query.Get("status")),
		Limit:      limit,
		Offset:     offset,
	}

	accounts, err := c.queries.ListAccounts(r.Context(), filter)
	if err != nil {
		fail(w, r, start, err)
		return
	}

	respond(w, r, start, http.StatusOK, commons.PagedResponse("Accounts fetched", models.NewAccountResponses(accounts), limit, offset))
}

func (c *AccountController) listTransactions(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logRequest(r, nil)

	query := r.URL.Query()
	limit, offset, err := models.ParseWindow(query)
	if err != nil {
		badRequest(w, r, start, messageValidationFailed, err)
		return
	}
	from, err := models.ParseTime("from", query.Get("from"), false)
	if err != nil {
		badRequest(w, r, start, messageValidationFailed, err)
		return
	}
	to, err := models.ParseTime("to", query.Get("to"), true)
	if err != nil {
		badRequest(w, r, start, messageValidationFailed, err)
		return
	}

	rows, err := c.queries.ListTransactions(r.Context(), domain.TransactionFilter{
		AccountID: chi.URLParam(r, "id"),
		From:      from,
		To:        to,
		Limit:     limit,
		Offset:    offset,
	})
	if err != nil {
		fail(w, r, start, err)
		return
	}

	respond(w, r, start, http.StatusOK, commons.PagedResponse("Transactions fetched", models.NewTransactionResponses(rows), limit, offset))
}
