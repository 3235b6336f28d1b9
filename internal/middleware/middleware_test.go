package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	return gin.New()
}

func TestSecurityHeaders(t *testing.T) {
	router := newTestRouter()
	router.Use(SecurityHeaders())
	router.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, "pong")
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
	assert.NotEmpty(t, w.Header().Get("Content-Security-Policy"))
}

func TestCorrelationID(t *testing.T) {
	t.Run("Generates_When_Missing", func(t *testing.T) {
		router := newTestRouter()
		router.Use(CorrelationID())
		router.GET("/ping", func(c *gin.Context) {
			assert.NotEmpty(t, c.GetString("correlation_id"))
			c.Status(http.StatusOK)
		})

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		router.ServeHTTP(w, req)

		assert.NotEmpty(t, w.Header().Get("X-Correlation-ID"))
	})

	t.Run("Preserves_Incoming_Header", func(t *testing.T) {
		router := newTestRouter()
		router.Use(CorrelationID())
		router.GET("/ping", func(c *gin.Context) {
			c.Status(http.StatusOK)
		})

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		req.Header.Set("X-Correlation-ID", "test-correlation-id")
		router.ServeHTTP(w, req)

		assert.Equal(t, "test-correlation-id", w.Header().Get("X-Correlation-ID"))
	})
}

func TestCORS_PreflightShortCircuits(t *testing.T) {
	router := newTestRouter()
	router.Use(CORS())
	router.POST("/evaluate", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodOptions, "/evaluate", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestClientRateLimiter(t *testing.T) {
	logger := logrus.New()
	logger.SetLevel(logrus.FatalLevel) // Suppress logs during testing

	t.Run("Allows_Within_Burst", func(t *testing.T) {
		rl := NewClientRateLimiter(logger, 1, 3)

		router := newTestRouter()
		router.Use(rl.Middleware())
		router.GET("/ping", func(c *gin.Context) {
			c.Status(http.StatusOK)
		})

		for i := 0; i < 3; i++ {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/ping", nil)
			req.RemoteAddr = "10.0.0.1:1234"
			router.ServeHTTP(w, req)
			require.Equal(t, http.StatusOK, w.Code, "request %d should pass", i)
		}
	})

	t.Run("Rejects_Beyond_Burst", func(t *testing.T) {
		rl := NewClientRateLimiter(logger, 1, 2)

		router := newTestRouter()
		router.Use(rl.Middleware())
		router.GET("/ping", func(c *gin.Context) {
			c.Status(http.StatusOK)
		})

		var lastCode int
		for i := 0; i < 4; i++ {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/ping", nil)
			req.RemoteAddr = "10.0.0.2:1234"
			router.ServeHTTP(w, req)
			lastCode = w.Code
		}

		assert.Equal(t, http.StatusTooManyRequests, lastCode)
	})

	t.Run("Defaults_Applied", func(t *testing.T) {
		rl := NewClientRateLimiter(logger, 0, 0)
		stats := rl.Stats()

		assert.Equal(t, float64(25), stats["requests_per_sec"])
		assert.Equal(t, 50, stats["burst"])
	})

	t.Run("Idle_Buckets_Removed", func(t *testing.T) {
		rl := NewClientRateLimiter(logger, 1, 1)
		rl.allow("10.0.0.3")
		require.Equal(t, 1, rl.Stats()["active_clients"])

		rl.removeIdleClients(0)
		assert.Equal(t, 0, rl.Stats()["active_clients"])
	})
}
