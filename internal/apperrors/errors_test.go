package apperrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		kind Kind
		want int
	}{
		{KindValidation, http.StatusBadRequest},
		{KindInvalidOperation, http.StatusBadRequest},
		{KindInvalidTransition, http.StatusBadRequest},
		{KindUnauthorized, http.StatusUnauthorized},
		{KindForbidden, http.StatusForbidden},
		{KindVerificationRequired, http.StatusForbidden},
		{KindNotFound, http.StatusNotFound},
		{KindInvalidState, http.StatusConflict},
		{KindConflict, http.StatusConflict},
		{KindUnavailable, http.StatusInternalServerError},
		{KindUnknown, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, HTTPStatus(tt.kind))
		})
	}
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindUnknown, KindOf(nil))
	assert.Equal(t, KindUnavailable, KindOf(errors.New("boom")))
	assert.Equal(t, KindConflict, KindOf(ErrShipmentExists))

	wrapped := fmt.Errorf("accept: %w", ErrProposalNotPending)
	assert.Equal(t, KindInvalidState, KindOf(wrapped))
	assert.True(t, errors.Is(wrapped, ErrProposalNotPending))
	assert.True(t, Is(wrapped, KindInvalidState))
}

func TestInternalHidesCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := Internal(cause)

	assert.Equal(t, "internal server error", err.Message)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, KindUnavailable, KindOf(err))
}

func TestInvalidTransitionMessage(t *testing.T) {
	err := InvalidTransition("created", "delivered")
	assert.Equal(t, "Transition from created to delivered not allowed", err.Error())
	assert.Equal(t, KindInvalidTransition, err.Kind)
}
