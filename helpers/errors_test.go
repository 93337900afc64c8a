package helpers

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindStatusMapping(t *testing.T) {
	cases := []struct {
		err    *AppError
		kind   ErrorKind
		status int
	}{
		{NotFound("x"), KindNotFound, http.StatusNotFound},
		{Forbidden("x"), KindForbidden, http.StatusForbidden},
		{InvalidState("x"), KindInvalidState, http.StatusConflict},
		{InvalidArgument("x"), KindInvalidArgument, http.StatusBadRequest},
		{Conflict("x", nil), KindConflict, http.StatusConflict},
		{Unavailable("x", nil), KindUnavailable, http.StatusServiceUnavailable},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.kind, tc.err.Kind)
		assert.Equal(t, tc.status, tc.err.Status)
	}
}

func TestKindSurvivesWrapping(t *testing.T) {
	base := errors.New("lock ocupado")
	err := fmt.Errorf("aceptando propuesta: %w", Unavailable("posting ocupado", base))

	assert.True(t, IsKind(err, KindUnavailable))
	assert.False(t, IsKind(err, KindConflict))
	assert.ErrorIs(t, err, base)
	assert.Equal(t, KindUnknown, KindOf(base))
	assert.False(t, IsKind(nil, KindUnknown))
}

func TestAsAppError(t *testing.T) {
	assert.Nil(t, AsAppError(nil, "x"))

	plain := AsAppError(errors.New("boom"), "")
	assert.Equal(t, http.StatusInternalServerError, plain.Status)
	assert.Equal(t, "error inesperado", plain.Message)
	assert.Equal(t, "error inesperado: boom", plain.Error())

	known := NotFound("posting no encontrado")
	assert.Same(t, known, AsAppError(fmt.Errorf("ctx: %w", known), "otro"))
}
