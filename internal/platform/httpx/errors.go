package httpx

import (
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/wareline/wareline/internal/shared"
)

// ErrBadRequest covers request bodies that cannot be decoded at all.
var ErrBadRequest = errors.New("malformed request body")

// RespondError maps domain errors to the failure envelope. Unknown errors are
// reported as a generic 500 so internals never leak to the client.
func RespondError(w http.ResponseWriter, err error) {
	var verr validator.ValidationErrors
	switch {
	case errors.As(err, &verr):
		Fail(w, http.StatusBadRequest, verr.Error())
	case errors.Is(err, ErrBadRequest), errors.Is(err, shared.ErrValidation):
		Fail(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, shared.ErrUnauthenticated), errors.Is(err, shared.ErrInvalidCredentials):
		Fail(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, shared.ErrForbidden):
		Fail(w, http.StatusForbidden, err.Error())
	case errors.Is(err, shared.ErrNotFound):
		Fail(w, http.StatusNotFound, err.Error())
	case errors.Is(err, shared.ErrInvalidState), errors.Is(err, shared.ErrEmptyDocument):
		Fail(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, shared.ErrInsufficientStock), errors.Is(err, shared.ErrConflict),
		errors.Is(err, shared.ErrDuplicate), errors.Is(err, shared.ErrIdempotencyConflict):
		Fail(w, http.StatusConflict, err.Error())
	default:
		Fail(w, http.StatusInternalServerError, "internal server error")
	}
}
