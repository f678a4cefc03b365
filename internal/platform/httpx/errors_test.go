package httpx

import (
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wareline/wareline/internal/shared"
)

func TestRespondErrorStatusMapping(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{ErrBadRequest, 400},
		{shared.ErrValidation, 400},
		{shared.ErrInvalidState, 400},
		{shared.ErrEmptyDocument, 400},
		{shared.ErrUnauthenticated, 401},
		{shared.ErrInvalidCredentials, 401},
		{shared.ErrForbidden, 403},
		{shared.ErrNotFound, 404},
		{shared.ErrInsufficientStock, 409},
		{shared.ErrConflict, 409},
		{shared.ErrDuplicate, 409},
		{shared.ErrIdempotencyConflict, 409},
	}

	for _, tc := range cases {
		rr := httptest.NewRecorder()
		RespondError(rr, tc.err)
		require.Equal(t, tc.status, rr.Code, "error %v", tc.err)

		var env Envelope
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &env))
		require.False(t, env.Success)
		require.NotEmpty(t, env.Message)
	}
}

func TestRespondErrorWrappedSentinel(t *testing.T) {
	rr := httptest.NewRecorder()
	RespondError(rr, fmt.Errorf("%w: available 3, required 5", shared.ErrInsufficientStock))
	require.Equal(t, 409, rr.Code)
}

func TestRespondErrorUnknownErrorHidesDetail(t *testing.T) {
	rr := httptest.NewRecorder()
	RespondError(rr, fmt.Errorf("connection reset by peer"))
	require.Equal(t, 500, rr.Code)

	var env Envelope
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &env))
	require.Equal(t, "internal server error", env.Message)
}
