package controller

import (
	"context"
	"net/http"
	"time"

	"github.com/api-sage/savings-ledger/src/internal/adapter/http/models"
	"github.com/api-sage/savings-ledger/src/internal/commons"
	"github.com/api-sage/savings-ledger/src/internal/domain"
	"github.com/api-sage/savings-ledger/src/internal/usecase/service_interfaces"
	"github.com/go-chi/chi/v5"
)

type postingFunc func(ctx context.Context, req domain.PostingRequest) (domain.PostingResult, error)

type holdFunc func(ctx context.Context, req domain.HoldRequest) (domain.Account, error)

type statusFunc func(ctx context.Context, accountID string, reason string) (domain.Account, error)

// LedgerController exposes the single-account ledger operations.
type LedgerController struct {
	ledger service_interfaces.LedgerService
}

func NewLedgerController(ledger service_interfaces.LedgerService) *LedgerController {
	return &LedgerController{ledger: ledger}
}

func (c *LedgerController) RegisterRoutes(r chi.Router) {
	r.Post("/accounts/{id}/deposits", c.posting("Deposit posted", c.ledger.Deposit))
	r.Post("/accounts/{id}/withdrawals", c.posting("Withdrawal posted", c.ledger.Withdraw))
	r.Post("/accounts/{id}/interest", c.posting("Interest credited", c.ledger.CreditInterest))
	r.Post("/accounts/{id}/fees", c.posting("Fee debited", c.ledger.DebitFee))

	r.Post("/accounts/{id}/holds", c.hold("Hold placed", c.ledger.PlaceHold))
	r.Post("/accounts/{id}/holds/release", c.hold("Hold released", c.ledger.ReleaseHold))

	r.Post("/accounts/{id}/freeze", c.status("Account frozen", c.ledger.Freeze))
	r.Post("/accounts/{id}/unfreeze", c.status("Account unfrozen", withoutReason(c.ledger.Unfreeze)))
	r.Post("/accounts/{id}/dormant", c.status("Account marked dormant", withoutReason(c.ledger.MarkDormant)))
	r.Post("/accounts/{id}/reactivate", c.status("Account reactivated", withoutReason(c.ledger.Reactivate)))
	r.Post("/accounts/{id}/close", c.status("Account closed", c.ledger.Close))
}

func (c *LedgerController) posting(message string, post postingFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		var req models.PostingRequest
		if err := decodeBody(r, &req, false); err != nil {
			badRequest(w, r, start, messageInvalidBody, err)
			return
		}
		logRequest(r, req)

		postingReq, err := req.ToDomain(chi.URLParam(r, "id"))
		if err != nil {
			badRequest(w, r, start, messageValidationFailed, err)
			return
		}

		result, err := post(r.Context(), postingReq)
		if err != nil {
			fail(w, r, start, err)
			return
		}

		respond(w, r, start, http.StatusOK, commons.SuccessResponse(message, models.NewPostingResponse(result)))
	}
}

func (c *LedgerController) hold(message string, adjust holdFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		var req models.HoldRequest
		if err := decodeBody(r, &req, false); err != nil {
			badRequest(w, r, start, messageInvalidBody, err)
			return
		}
		logRequest(r, req)

		holdReq, err := req.ToDomain(chi.URLParam(r, "id"))
		if err != nil {
			badRequest(w, r, start, messageValidationFailed, err)
			return
		}

		account, err := adjust(r.Context(), holdReq)
		if err != nil {
			fail(w, r, start, err)
			return
		}

		respond(w, r, start, http.StatusOK, commons.SuccessResponse(message, models.NewAccountResponse(account)))
	}
}

func (c *LedgerController) status(message string, change statusFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		var req models.StatusChangeRequest
		if err := decodeBody(r, &req, true); err != nil {
			badRequest(w, r, start, messageInvalidBody, err)
			return
		}
		logRequest(r, req)

		account, err := change(r.Context(), chi.URLParam(r, "id"), req.Reason)
		if err != nil {
			fail(w, r, start, err)
			return
		}

		respond(w, r, start, http.StatusOK, commons.SuccessResponse(message, models.NewAccountResponse(account)))
	}
}

func withoutReason(change func(ctx context.Context, accountID string) (domain.Account, error)) statusFunc {
	return func(ctx context.Context, accountID string, _ string) (domain.Account, error) {
		return change(ctx, accountID)
	}
}
