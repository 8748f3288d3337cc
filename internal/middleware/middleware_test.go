package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/tanzimsiamm/fiwippo-backend/internal/config"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newEngine(handlers ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.Use(handlers...)
	r.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })
	r.OPTIONS("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })
	return r
}

func serve(r http.Handler, method, origin string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, "/ping", nil)
	if origin != "" {
		req.Header.Set("Origin", origin)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRateLimiterRejectsAfterBurst(t *testing.T) {
	limiter := NewRateLimiter(10)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return now }
	r := newEngine(limiter.Handler())

	// burst is a tenth of the per-minute budget
	require.Equal(t, http.StatusOK, serve(r, http.MethodGet, "").Code)

	w := serve(r, http.MethodGet, "")
	require.Equal(t, http.StatusTooManyRequests, w.Code)
	require.NotEmpty(t, w.Header().Get("Retry-After"))
	require.Contains(t, w.Body.String(), "Too many requests")

	now = now.Add(7 * time.Second)
	require.Equal(t, http.StatusOK, serve(r, http.MethodGet, "").Code)
}

func TestRateLimiterDisabled(t *testing.T) {
	var limiter *RateLimiter = NewRateLimiter(0)
	require.Nil(t, limiter)

	r := newEngine(limiter.Handler())
	for i := 0; i < 50; i++ {
		require.Equal(t, http.StatusOK, serve(r, http.MethodGet, "").Code)
	}
}

func TestCORS(t *testing.T) {
	base := config.Config{
		CORSAllowedMethods: []string{"GET", "POST"},
		CORSAllowedHeaders: []string{"Authorization", "Content-Type"},
	}

	t.Run("wildcard", func(t *testing.T) {
		cfg := base
		cfg.CORSAllowedOrigins = []string{"*"}
		w := serve(newEngine(CORS(cfg)), http.MethodGet, "https://app.example.com")
		require.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
		require.Equal(t, "GET, POST", w.Header().Get("Access-Control-Allow-Methods"))
	})

	t.Run("wildcard with credentials echoes origin", func(t *testing.T) {
		cfg := base
		cfg.CORSAllowedOrigins = []string{"*"}
		cfg.CORSAllowCredentials = true
		w := serve(newEngine(CORS(cfg)), http.MethodGet, "https://app.example.com")
		require.Equal(t, "https://app.example.com", w.Header().Get("Access-Control-Allow-Origin"))
		require.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))
	})

	t.Run("unlisted origin", func(t *testing.T) {
		cfg := base
		cfg.CORSAllowedOrigins = []string{"https://app.example.com", "https://app.example.com"}
		w := serve(newEngine(CORS(cfg)), http.MethodGet, "https://evil.example.com")
		require.Equal(t, http.StatusOK, w.Code)
		require.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("preflight", func(t *testing.T) {
		cfg := base
		cfg.CORSAllowedOrigins = []string{"https://app.example.com"}
		w := serve(newEngine(CORS(cfg)), http.MethodOptions, "https://APP.example.com")
		require.Equal(t, http.StatusNoContent, w.Code)
		require.Equal(t, "https://APP.example.com", w.Header().Get("Access-Control-Allow-Origin"))
	})
}

func TestSecureHeaders(t *testing.T) {
	w := serve(newEngine(SecureHeaders()), http.MethodGet, "")
	require.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	require.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
}
