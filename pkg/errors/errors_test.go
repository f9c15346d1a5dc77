package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorFormat(t *testing.T) {
	err := New(ErrCodeInvalidGeometry, "bad ring")
	assert.Equal(t, "[PLOT_003] bad ring", err.Error())

	err = err.WithDetail("plot_id=PLOT_007")
	assert.Equal(t, "[PLOT_003] bad ring: plot_id=PLOT_007", err.Error())
}

func TestWithDetailDoesNotMutateReceiver(t *testing.T) {
	base := New(ErrCodeNotFound, "missing")
	derived := base.WithDetail("token=abc")

	assert.Empty(t, base.Detail)
	assert.Equal(t, "token=abc", derived.Detail)
}

func TestWrapPreservesChain(t *testing.T) {
	cause := stderrors.New("connection refused")
	err := Wrap(cause, ErrCodeOracleUnreachable, "gfw query failed")

	assert.True(t, stderrors.Is(err, cause))
	assert.True(t, IsCode(err, ErrCodeOracleUnreachable))
}

func TestIsCodeThroughFmtWrap(t *testing.T) {
	inner := NotFound("session not found")
	outer := fmt.Errorf("restore: %w", inner)

	assert.True(t, IsNotFound(outer))
	assert.False(t, IsValidation(outer))
}

func TestCodeOfFallsBackToInternal(t *testing.T) {
	assert.Equal(t, ErrCodeInternal, CodeOf(stderrors.New("plain")))
	assert.Equal(t, ErrCodeSessionNotFound, CodeOf(New(ErrCodeSessionNotFound, "gone")))
}

func TestHTTPStatusMapping(t *testing.T) {
	cases := []struct {
		code ErrorCode
		want int
	}{
		{ErrCodeNotGeoJSON, http.StatusBadRequest},
		{ErrCodeNoFeatures, http.StatusBadRequest},
		{ErrCodeSessionNotFound, http.StatusNotFound},
		{ErrCodeOracleTimeout, http.StatusGatewayTimeout},
		{ErrCodeLayerUnavailable, http.StatusServiceUnavailable},
		{ErrCodeInternal, http.StatusInternalServerError},
		{ErrorCode("UNMAPPED_999"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, HTTPStatus(tc.code), "code %s", tc.code)
	}
}
