package service

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTTPStatus(t *testing.T) {
	t.Parallel()

	tests := []struct {
		err  error
		want int
	}{
		{nil, http.StatusOK},
		{ErrInvalidEmail, http.StatusBadRequest},
		{ErrUsernameTaken, http.StatusBadRequest},
		{ErrCredentialMismatch, http.StatusBadRequest},
		{ErrUserBanned, http.StatusForbidden},
		{ErrUserUnverified, http.StatusForbidden},
		{ErrNoPermission, http.StatusForbidden},
		{ErrConfirmFailed, http.StatusForbidden},
		{ErrProductNotFound, http.StatusNotFound},
		{ErrRevoked, http.StatusUnauthorized},
		{ErrSessionEnded, http.StatusUnauthorized},
		{fmt.Errorf("wrapped: %w", ErrEmailTaken), http.StatusBadRequest},
		{errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, HTTPStatus(tt.err), "%v", tt.err)
	}
}

func TestMessage(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "Email already exists", Message(fmt.Errorf("x: %w", ErrEmailTaken)))
	assert.Empty(t, Message(errors.New("boom")))
}
