package health

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serveReadiness(t *testing.T, h *Handler) (int, Response) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ReadinessHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

	var resp Response
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return rec.Code, resp
}

func TestLivenessHandler_AlwaysReturns200(t *testing.T) {
	h := NewHandler()
	h.Register("postgres", func(context.Context) error { return fmt.Errorf("down") })

	rec := httptest.NewRecorder()
	h.LivenessHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/live", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var resp Response
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, StatusUp, resp.Status)
	assert.Empty(t, resp.Checks)
}

func TestReadinessHandler_AllUp(t *testing.T) {
	h := NewHandler()
	h.RegisterCritical("postgres", func(context.Context) error { return nil })
	h.RegisterCritical("redis", func(context.Context) error { return nil })
	h.RegisterNonCritical("kafka", func(context.Context) error { return nil })

	code, resp := serveReadiness(t, h)

	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, StatusUp, resp.Status)
	assert.Len(t, resp.Checks, 3)
}

func TestReadinessHandler_NoCheckers(t *testing.T) {
	code, resp := serveReadiness(t, NewHandler())
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, StatusUp, resp.Status)
}

func TestReadinessHandler_CriticalDown_Returns503(t *testing.T) {
	h := NewHandler()
	h.RegisterCritical("redis", func(context.Context) error { return fmt.Errorf("connection refused") })
	h.RegisterNonCritical("kafka", func(context.Context) error { return nil })

	code, resp := serveReadiness(t, h)

	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, StatusDown, resp.Status)
	assert.Equal(t, "connection refused", resp.Checks["redis"].Error)
	assert.True(t, resp.Checks["redis"].Critical)
}

func TestReadinessHandler_NonCriticalDown_ReturnsDegraded200(t *testing.T) {
	h := NewHandler()
	h.RegisterCritical("postgres", func(context.Context) error { return nil })
	h.RegisterNonCritical("kafka", func(context.Context) error { return fmt.Errorf("broker unreachable") })

	code, resp := serveReadiness(t, h)

	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, StatusDegraded, resp.Status)
	assert.False(t, resp.Checks["kafka"].Critical)
	assert.Equal(t, StatusDown, resp.Checks["kafka"].Status)
}

func TestRegister_IsCriticalAndOverwrites(t *testing.T) {
	h := NewHandler()
	h.Register("postgres", func(context.Context) error { return fmt.Errorf("first") })
	h.Register("postgres", func(context.Context) error { return nil })

	code, resp := serveReadiness(t, h)

	assert.Equal(t, http.StatusOK, code)
	assert.True(t, resp.Checks["postgres"].Critical)
	assert.Equal(t, StatusUp, resp.Checks["postgres"].Status)
}
