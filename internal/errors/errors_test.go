package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDomainError_IsMatchesCode(t *testing.T) {
	err := fmt.Errorf("get quote: %w", UpstreamTimeout(stderrors.New("deadline")))

	assert.True(t, stderrors.Is(err, ErrUpstreamTimeout))
	assert.False(t, stderrors.Is(err, ErrUpstreamError))
	assert.True(t, IsRetryable(err))
}

func TestUpstreamError_KeepsStatusAndBody(t *testing.T) {
	err := UpstreamError(http.StatusTooManyRequests, `{"reason":"rate limited"}`)

	assert.Equal(t, http.StatusTooManyRequests, StatusOf(err))
	assert.Equal(t, `{"reason":"rate limited"}`, err.Details)
	assert.False(t, IsRetryable(err))
}

func TestUpstreamError_NonErrorStatusMapsToBadGateway(t *testing.T) {
	assert.Equal(t, http.StatusBadGateway, StatusOf(UpstreamError(0, "")))
	assert.Equal(t, http.StatusBadGateway, StatusOf(UpstreamError(302, "")))
}

func TestStatusOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"invalid request", InvalidRequest("bad %s", "amount"), http.StatusBadRequest},
		{"unsupported chain", UnsupportedChain(999999), http.StatusBadRequest},
		{"timeout", UpstreamTimeout(nil), http.StatusRequestTimeout},
		{"not found", NotFound("trade %s not found", "x"), http.StatusNotFound},
		{"canceled", Canceled(nil), StatusClientClosedRequest},
		{"plain error", stderrors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StatusOf(tt.err))
		})
	}
}

func TestInternal_HidesCauseFromMessage(t *testing.T) {
	err := Internal("failed to parse aggregator response", stderrors.New("unexpected EOF"))

	assert.Equal(t, "failed to parse aggregator response", err.Message)
	assert.Contains(t, err.Error(), "unexpected EOF")
}
