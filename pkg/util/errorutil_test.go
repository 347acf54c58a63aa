package util

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConstructorsHTTPStatus(t *testing.T) {
	tests := []struct {
		err    error
		code   string
		status int
	}{
		{NewValidationError("bad", nil), CodeValidation, http.StatusBadRequest},
		{NewAuthorizationError("ticket:assign", "CUSTOMER"), CodeForbidden, http.StatusForbidden},
		{NewNotFound("ticket", map[string]any{"ticket_id": "t1"}), CodeNotFound, http.StatusNotFound},
		{NewConflict("stale", nil), CodeConflict, http.StatusConflict},
		{NewDependencyUnavailable("claims source", errors.New("dial tcp")), CodeDependencyUnavailable, http.StatusServiceUnavailable},
		{NewUnauthorized("no token"), CodeUnauthorized, http.StatusUnauthorized},
		{NewInternalError(errors.New("boom")), CodeInternal, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			de := ToDomainError(tt.err)
			require.NotNil(t, de)
			assert.Equal(t, tt.code, de.Code)
			assert.Equal(t, tt.status, de.HTTPStatus)
			assert.True(t, IsCode(tt.err, tt.code))
		})
	}
}

func TestToDomainErrorWrapsUnknown(t *testing.T) {
	plain := errors.New("plain")
	de := ToDomainError(plain)
	assert.Equal(t, CodeInternal, de.Code)
	assert.ErrorIs(t, de, plain)
	assert.Nil(t, ToDomainError(nil))
}

func TestIsCodeSeesThroughWrapping(t *testing.T) {
	err := fmt.Errorf("assign: %w", NewConflict("stale", nil))
	assert.True(t, IsCode(err, CodeConflict))
	assert.False(t, IsCode(err, CodeNotFound))
	assert.False(t, IsCode(errors.New("x"), CodeConflict))
}

func TestNotFoundCarriesIdentifier(t *testing.T) {
	de := ToDomainError(NewNotFound("category", map[string]any{"category_id": "c9"}))
	assert.Equal(t, "category not found", de.Message)
	assert.Equal(t, "c9", de.Details["category_id"])
}
