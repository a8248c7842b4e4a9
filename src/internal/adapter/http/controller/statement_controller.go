package controller

import (
	"net/http"
	"time"

	"github.com/api-sage/savings-ledger/src/internal/adapter/http/models"
	"github.com/api-sage/savings-ledger/src/internal/commons"
	"github.com/api-sage/savings-ledger/src/internal/usecase/service_interfaces"
	"github.com/go-chi/chi/v5"
)

type StatementController struct {
	statements service_interfaces.StatementService
}

func NewStatementController(statements service_interfaces.StatementService) *StatementController {
	return &StatementController{statements: statements}
}

func (c *StatementController) RegisterRoutes(r chi.Router) {
	r.Post("/accounts/{id}/statements", c.generate)
	r.Get("/accounts/{id}/statements", c.list)
	r.Get("/statements/{id}", c.get)
}

func (c *StatementController) generate(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req models.StatementRequest
	if err := decodeBody(r, &req, false); err != nil {
		badRequest(w, r, start, messageInvalidBody, err)
		return
	}
	logRequest(r, req)

	statementReq, err := req.ToDomain(chi.URLParam(r, "id"))
	if err != nil {
		badRequest(w, r, start, messageValidationFailed, err)
		return
	}

	statement, err := c.statements.GenerateStatement(r.Context(), statementReq)
	if err != nil {
		fail(w, r, start, err)
		return
	}

	respond(w, r, start, http.StatusCreated, commons.SuccessResponse("Statement generated", models.NewStatementResponse(statement)))
}

func (c *StatementController) get(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logRequest(r, nil)

	statement, err := c.statements.GetStatement(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		fail(w, r, start, err)
		return
	}

	respond(w, r, start, http.StatusOK, commons.SuccessResponse("Statement fetched", models.NewStatementResponse(statement)))
}

func (c *StatementController) list(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logRequest(r, nil)

	statements, err := c.statements.ListStatements(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		fail(w, r, start, err)
		return
	}

	data := models.NewStatementResponses(statements)
	respond(w, r, start, http.StatusOK, commons.PagedResponse("Statements fetched", data, len(data), 0))
}
