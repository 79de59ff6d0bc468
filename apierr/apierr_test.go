package apierr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusRoundTrip(t *testing.T) {
	tests := []struct {
		err    error
		status int
	}{
		{ErrNotFound, http.StatusNotFound},
		{ErrPermissionDenied, http.StatusForbidden},
		{ErrSessionExpired, http.StatusUnauthorized},
		{ErrValidation, http.StatusUnprocessableEntity},
		{ErrConflict, http.StatusConflict},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			wrapped := fmt.Errorf("lead 3: %w", tt.err)
			assert.Equal(t, tt.status, Status(wrapped))

			back := FromStatus(tt.status, "nope")
			assert.ErrorIs(t, back, tt.err)

			var apiErr *Error
			assert.True(t, errors.As(back, &apiErr))
			assert.Equal(t, tt.status, apiErr.StatusCode)
		})
	}
}

func TestMessageHidesInternalErrors(t *testing.T) {
	assert.Equal(t, "internal error", Message(errors.New("pq: relation \"leads\" does not exist")))
	assert.Equal(t, "invalid input: status Open is not valid", Message(Validation("status %s is not valid", "Open")))
	assert.Equal(t, http.StatusOK, Status(nil))
	assert.Equal(t, http.StatusUnauthorized, Status(ErrUnauthenticated))
}

func TestFromStatusUnknown(t *testing.T) {
	err := FromStatus(http.StatusBadGateway, "")
	assert.Equal(t, http.StatusInternalServerError, Status(err))
	assert.Contains(t, err.Error(), "502")
}
