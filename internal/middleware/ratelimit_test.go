package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"golang.org/x/time/rate"
)

func limitedRouter(ipLimiter *IPRateLimiter, quota *PersonaQuota) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/generate", RateLimitMiddleware(ipLimiter, quota), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	return r
}

func doPost(r *gin.Engine) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/generate", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestPersonaQuotaCounts(t *testing.T) {
	q := NewPersonaQuota(2)

	assert.True(t, q.Allow())
	assert.True(t, q.Allow())
	assert.False(t, q.Allow())
	assert.Equal(t, int64(2), q.Count())
	assert.Equal(t, int64(0), q.Remaining())
}

func TestRateLimitMiddlewareQuotaExhausted(t *testing.T) {
	r := limitedRouter(NewIPRateLimiter(rate.Inf, 1), NewPersonaQuota(1))

	assert.Equal(t, http.StatusOK, doPost(r).Code)

	w := doPost(r)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "PERSONA_LIMIT_REACHED")
}

func TestRateLimitMiddlewareIPBurst(t *testing.T) {
	// Burst of 2, negligible refill: the third request in a row trips it.
	r := limitedRouter(NewIPRateLimiter(rate.Limit(0.001), 2), NewPersonaQuota(100))

	assert.Equal(t, http.StatusOK, doPost(r).Code)
	assert.Equal(t, http.StatusOK, doPost(r).Code)

	w := doPost(r)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Contains(t, w.Body.String(), "RATE_LIMITED")
	assert.Equal(t, "1", w.Header().Get("Retry-After"))
}

func TestAPIKeyAuth(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/secure", APIKeyAuth("secret"), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	req := httptest.NewRequest(http.MethodGet, "/secure", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req = httptest.NewRequest(http.MethodGet, "/secure", nil)
	req.Header.Set("X-API-Key", "wrong")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req = httptest.NewRequest(http.MethodGet, "/secure", nil)
	req.Header.Set("X-API-Key", "secret")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAPIKeyAuthDisabledWhenUnset(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/secure", APIKeyAuth(""), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	req := httptest.NewRequest(http.MethodGet, "/secure", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}
