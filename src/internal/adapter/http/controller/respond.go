package controller

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/api-sage/savings-ledger/src/internal/commons"
	"github.com/api-sage/savings-ledger/src/internal/domain"
)

const (
	messageInvalidBody      = "invalid request body"
	messageValidationFailed = "validation failed"
)

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func respond(w http.ResponseWriter, r *http.Request, start time.Time, status int, payload any) {
	writeJSON(w, status, payload)
	logResponse(r, status, payload, start)
}

// decodeBody reads a JSON body into dst. An empty body leaves dst untouched
// when optional is set.
func decodeBody(r *http.Request, dst any, optional bool) error {
	err := json.NewDecoder(r.Body).Decode(dst)
	if optional && errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

func badRequest(w http.ResponseWriter, r *http.Request, start time.Time, message string, err error) {
	logError(r, err, nil)
	respond(w, r, start, http.StatusBadRequest, commons.ErrorResponse[any](message, err.Error()))
}

// fail maps a ledger error kind to its HTTP status.
func fail(w http.ResponseWriter, r *http.Request, start time.Time, err error) {
	status, message := statusFor(err)
	logError(r, err, nil)
	respond(w, r, start, status, commons.ErrorResponse[any](message, err.Error()))
}

func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrInvalidAmount):
		return http.StatusBadRequest, domain.ErrInvalidAmount.Error()
	case errors.Is(err, domain.ErrInvalidRequest):
		return http.StatusBadRequest, domain.ErrInvalidRequest.Error()
	case errors.Is(err, domain.ErrAccountNotFound):
		return http.StatusNotFound, domain.ErrAccountNotFound.Error()
	case errors.Is(err, domain.ErrStatementNotFound):
		return http.StatusNotFound, domain.ErrStatementNotFound.Error()
	case errors.Is(err, domain.ErrTransferNotFound):
		return http.StatusNotFound, domain.ErrTransferNotFound.Error()
	case errors.Is(err, domain.ErrInvalidAccountState):
		return http.StatusConflict, domain.ErrInvalidAccountState.Error()
	case errors.Is(err, domain.ErrInsufficientFunds):
		return http.StatusUnprocessableEntity, domain.ErrInsufficientFunds.Error()
	case errors.Is(err, domain.ErrStoreFailure):
		return http.StatusServiceUnavailable, domain.ErrStoreFailure.Error()
	}
	return http.StatusInternalServerError, "internal error"
}
