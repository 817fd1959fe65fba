package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func corsRouter(origins []string, credentials bool) *gin.Engine {
	cfg := DefaultCORSConfig()
	cfg.AllowedOrigins = origins
	cfg.AllowCredentials = credentials

	r := gin.New()
	r.Use(CORS(cfg))
	r.GET("/api/v1/maps", func(c *gin.Context) { c.Status(http.StatusOK) })
	return r
}

func corsRequest(r http.Handler, method, origin string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, "/api/v1/maps", nil)
	if origin != "" {
		req.Header.Set("Origin", origin)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestCORS_AllowAll(t *testing.T) {
	w := corsRequest(corsRouter([]string{"*"}, false), http.MethodGet, "https://app.example.com")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, w.Header().Get("Access-Control-Expose-Headers"), HeaderRequestID)
}

func TestCORS_Preflight(t *testing.T) {
	w := corsRequest(corsRouter([]string{"https://app.example.com"}, true), http.MethodOptions, "https://app.example.com")
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://app.example.com", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Methods"), http.MethodDelete)
	assert.Equal(t, "86400", w.Header().Get("Access-Control-Max-Age"))
}

func TestCORS_WildcardSubdomain(t *testing.T) {
	r := corsRouter([]string{"*.example.com"}, false)
	assert.Equal(t, "https://lab.example.com", corsRequest(r, http.MethodGet, "https://lab.example.com").Header().Get("Access-Control-Allow-Origin"))
	assert.Empty(t, corsRequest(r, http.MethodGet, "https://example.org").Header().Get("Access-Control-Allow-Origin"))
}

func TestCORS_DisallowedOrNoOrigin(t *testing.T) {
	r := corsRouter([]string{"https://app.example.com"}, false)

	w := corsRequest(r, http.MethodGet, "https://evil.example.net")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))

	w = corsRequest(r, http.MethodGet, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("Vary"))
}

//Personal.AI order the ending
