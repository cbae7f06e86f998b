package httpclient

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCircuitBreakerClient_TripsOnServerErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	cb := NewCircuitBreakerClient(New(Config{Timeout: time.Second}), CircuitBreakerConfig{
		Name:         "test-trip",
		MaxRequests:  1,
		Timeout:      time.Minute,
		FailureRatio: 0.5,
		MinRequests:  2,
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))

	for i := 0; i < 2; i++ {
		req, _ := http.NewRequest(http.MethodPost, srv.URL, nil)
		_, err := cb.Do(context.Background(), req)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "server error 500")
	}

	assert.Equal(t, gobreaker.StateOpen, cb.State())
	assert.Equal(t, float64(2), testutil.ToFloat64(circuitBreakerState.WithLabelValues("test-trip")))

	req, _ := http.NewRequest(http.MethodPost, srv.URL, nil)
	_, err := cb.Do(context.Background(), req)
	assert.True(t, errors.Is(err, ErrCircuitOpen))
}

func TestCircuitBreakerClient_ClientErrorsDoNotTrip(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	cb := NewCircuitBreakerClient(New(Config{Timeout: time.Second}), CircuitBreakerConfig{
		Name: "test-4xx", FailureRatio: 0.1, MinRequests: 1, Timeout: time.Minute,
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))

	for i := 0; i < 3; i++ {
		req, _ := http.NewRequest(http.MethodGet, srv.URL, nil)
		resp, err := cb.Do(context.Background(), req)
		require.NoError(t, err)
		_ = resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	}
	assert.Equal(t, gobreaker.StateClosed, cb.State())
}
