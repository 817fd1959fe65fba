package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubChecker struct {
	name string
	err  error
}

func (s stubChecker) Name() string                  { return s.name }
func (s stubChecker) Check(ctx context.Context) error { return s.err }

func healthRouter(h *HealthHandler) *gin.Engine {
	r := gin.New()
	h.RegisterRoutes(r)
	return r
}

func TestHealthHandler_Liveness(t *testing.T) {
	r := healthRouter(NewHealthHandler("1.2.3", stubChecker{name: "postgres", err: fmt.Errorf("down")}))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	var resp LivenessResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "alive", resp.Status)
	assert.Equal(t, "1.2.3", resp.Version)
}

func TestHealthHandler_Readiness(t *testing.T) {
	tests := []struct {
		name     string
		checkers []HealthChecker
		code     int
		status   string
	}{
		{"no dependencies", nil, http.StatusOK, "ready"},
		{"all healthy", []HealthChecker{stubChecker{name: "postgres"}, stubChecker{name: "redis"}}, http.StatusOK, "ready"},
		{"one failing", []HealthChecker{stubChecker{name: "postgres"}, stubChecker{name: "redis", err: fmt.Errorf("connection refused")}}, http.StatusServiceUnavailable, "not_ready"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := healthRouter(NewHealthHandler("dev", tt.checkers...))
			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))
			assert.Equal(t, tt.code, w.Code)

			var resp ReadinessResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, tt.status, resp.Status)
			assert.Len(t, resp.Components, len(tt.checkers))
		})
	}
}

func TestHealthHandler_Detailed(t *testing.T) {
	r := healthRouter(NewHealthHandler("dev",
		stubChecker{name: "minio"},
		stubChecker{name: "milvus", err: fmt.Errorf("collection missing")},
	))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz/detail", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	var resp DetailedResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "degraded", resp.Status)
	assert.Equal(t, statusHealthy, resp.Components["minio"].Status)
	assert.Equal(t, statusUnhealthy, resp.Components["milvus"].Status)
	assert.Equal(t, "collection missing", resp.Components["milvus"].Error)
}

//Personal.AI order the ending
