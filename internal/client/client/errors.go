package client

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/dmitrijs2005/gophauth/internal/client/models"
	"github.com/dmitrijs2005/gophauth/internal/common"
)

var (
	ErrUnavailable      = errors.New("server unavailable")
	ErrNotAuthenticated = errors.New("not logged in")
)

// unauthorizedErrors are told apart by message since they share a status.
var unauthorizedErrors = []error{
	common.ErrInvalidCredentials,
	common.ErrAccountDeactivated,
	common.ErrIncorrectPassword,
	common.ErrInvalidToken,
	common.ErrorUnauthorized,
}

// statusError turns an error response back into the matching sentinel. The
// server message is kept when it adds detail.
func statusError(status int, body models.ErrorBody) error {
	var sentinel error

	switch status {
	case http.StatusUnauthorized:
		sentinel = common.ErrorUnauthorized
		for _, e := range unauthorizedErrors {
			if body.Message == e.Error() {
				sentinel = e
				break
			}
		}
	case http.StatusConflict:
		sentinel = common.ErrEmailAlreadyRegistered
	case http.StatusForbidden:
		sentinel = common.ErrForbiddenAction
	case http.StatusNotFound:
		sentinel = common.ErrorNotFound
	case http.StatusBadRequest:
		sentinel = common.ErrorValidation
	default:
		sentinel = common.ErrorInternal
	}

	if len(body.Errors) > 0 {
		return &ValidationError{Fields: body.Errors}
	}
	if body.Message == "" || body.Message == sentinel.Error() {
		return sentinel
	}
	return fmt.Errorf("%w: %s", sentinel, body.Message)
}

// ValidationError carries per-field messages of a rejected request.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %v", common.ErrorValidation, e.Fields)
}

func (e *ValidationError) Unwrap() error { return common.ErrorValidation }
