package utils

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTTPStatus(t *testing.T) {
	cases := []struct {
		code Code
		want int
	}{
		{CodeInvalidArgument, http.StatusBadRequest},
		{CodeInvalidState, http.StatusBadRequest},
		{CodeUnauthorized, http.StatusUnauthorized},
		{CodeForbidden, http.StatusForbidden},
		{CodeNotFound, http.StatusNotFound},
		{CodeConflict, http.StatusConflict},
		{CodeUnavailable, http.StatusServiceUnavailable},
		{CodeTimeout, http.StatusGatewayTimeout},
		{CodeInternal, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(string(tc.code), func(t *testing.T) {
			assert.Equal(t, tc.want, HTTPStatus(E(tc.code, "Op", "msg", nil)))
		})
	}
}

func TestHTTPStatus_WrappedAppError(t *testing.T) {
	inner := E(CodeNotFound, "Repo.Get", "row missing", ErrNotFound)
	outer := fmt.Errorf("loading session: %w", inner)
	assert.Equal(t, http.StatusNotFound, HTTPStatus(outer))
}

func TestHTTPStatus_PlainError(t *testing.T) {
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(errors.New("boom")))
	assert.Equal(t, http.StatusNotFound, HTTPStatus(ErrNotFound))
}

func TestIsCode(t *testing.T) {
	err := E(CodeInvalidState, "SessionService.End", "not started", nil)
	assert.True(t, IsCode(err, CodeInvalidState))
	assert.False(t, IsCode(err, CodeInternal))
	assert.False(t, IsCode(errors.New("plain"), CodeInternal))
}

func TestAppError_Unwrap(t *testing.T) {
	err := E(CodeInternal, "Op", "msg", ErrNotFound)
	assert.True(t, errors.Is(err, ErrNotFound))
}
