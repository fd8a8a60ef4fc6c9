package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dmitrijs2005/gophauth/internal/common"
	validation "github.com/go-ozzo/ozzo-validation"
)

type errorResponse struct {
	StatusCode int               `json:"statusCode"`
	Message    string            `json:"message"`
	Errors     validation.Errors `json:"errors,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{StatusCode: status, Message: msg})
}

// errorStatus maps service errors to HTTP status codes. The first matching
// sentinel wins.
var errorStatus = []struct {
	err    error
	status int
}{
	{common.ErrInvalidCredentials, http.StatusUnauthorized},
	{common.ErrInvalidToken, http.StatusUnauthorized},
	{common.ErrorUnauthorized, http.StatusUnauthorized},
	{common.ErrAccountDeactivated, http.StatusUnauthorized},
	{common.ErrIncorrectPassword, http.StatusUnauthorized},
	{common.ErrEmailAlreadyRegistered, http.StatusConflict},
	{common.ErrForbiddenAction, http.StatusForbidden},
	{common.ErrorNotFound, http.StatusNotFound},
	{common.ErrorValidation, http.StatusBadRequest},
}

// writeError answers with the status and message of a known error. Anything
// else is a server fault and is reported as a bare "internal error", never
// in the shape of a credential rejection.
func (s *HTTPServer) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var verrs validation.Errors
	if errors.As(err, &verrs) {
		writeJSON(w, http.StatusBadRequest, errorResponse{
			StatusCode: http.StatusBadRequest,
			Message:    common.ErrorValidation.Error(),
			Errors:     verrs,
		})
		return
	}

	for _, m := range errorStatus {
		if !errors.Is(err, m.err) {
			continue
		}
		msg := m.err.Error()
		// Forbidden and validation errors carry a useful reason.
		if m.status == http.StatusForbidden || m.status == http.StatusBadRequest {
			msg = err.Error()
		}
		writeMessage(w, m.status, msg)
		return
	}

	s.logger.Error(r.Context(), "request failed", "error", err, "request_id", RequestIDFrom(r.Context()))
	writeMessage(w, http.StatusInternalServerError, common.ErrorInternal.Error())
}
