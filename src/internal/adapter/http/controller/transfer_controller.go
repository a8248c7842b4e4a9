package controller

import (
	"net/http"
	"time"

	"github.com/api-sage/savings-ledger/src/internal/adapter/http/models"
	"github.com/api-sage/savings-ledger/src/internal/commons"
	"github.com/api-sage/savings-ledger/src/internal/usecase/service_interfaces"
	"github.com/go-chi/chi/v5"
)

type TransferController struct {
	ledger  service_interfaces.LedgerService
	queries service_interfaces.AccountQueryService
}

func NewTransferController(ledger service_interfaces.LedgerService, queries service_interfaces.AccountQueryService) *TransferController {
	return &TransferController{ledger: ledger, queries: queries}
}

func (c *TransferController) RegisterRoutes(r chi.Router) {
	r.Post("/transfers", c.transfer)
	r.Get("/transfers/{referenceNumber}", c.getTransfer)
}

func (c *TransferController) transfer(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req models.TransferRequest
	if err := decodeBody(r, &req, false); err != nil {
		badRequest(w, r, start, messageInvalidBody, err)
		return
	}
	logRequest(r, req)

	transferReq, err := req.ToDomain()
	if err != nil {
		badRequest(w, r, start, messageValidationFailed, err)
		return
	}

	result, err := c.ledger.Transfer(r.Context(), transferReq)
	if err != nil {
		fail(w, r, start, err)
		return
	}

	respond(w, r, start, http.StatusOK, commons.SuccessResponse("Transfer posted", models.NewTransferResponse(result)))
}

func (c *TransferController) getTransfer(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logRequest(r, nil)

	record, err := c.queries.GetTransfer(r.Context(), chi.URLParam(r, "referenceNumber"))
	if err != nil {
		fail(w, r, start, err)
		return
	}

	respond(w, r, start, http.StatusOK, commons.SuccessResponse("Transfer fetched", models.NewTransferRecordResponse(record)))
}
