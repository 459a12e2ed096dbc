package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func TestRateLimitMiddleware_AllowsUnderLimit(t *testing.T) {
	r := gin.New()
	r.Use(RateLimitMiddleware(10, 2)) // generous rate
	r.GET("/ok", func(c *gin.Context) { c.JSON(200, gin.H{"ok": true}) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/ok", nil))
	w2 := httptest.NewRecorder()
	r.ServeHTTP(w2, httptest.NewRequest("GET", "/ok", nil))

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, http.StatusOK, w2.Code)
}

func TestRateLimitMiddleware_BlocksWhenExceeded(t *testing.T) {
	r := gin.New()
	// very low rate to force rejections
	r.Use(RateLimitMiddleware(0.5, 1))
	r.GET("/limited", func(c *gin.Context) { c.JSON(200, gin.H{"ok": true}) })

	// key on a dedicated identity so other tests don't share the bucket
	mk := func() int {
		w := httptest.NewRecorder()
		req := httptest.NewRequest("GET", "/limited", nil)
		req.Header.Set(IdentityHeader, "limited@x.com")
		r.ServeHTTP(w, req)
		return w.Code
	}

	require.Equal(t, http.StatusOK, mk())

	// immediate second request -> should be rate-limited
	require.Equal(t, http.StatusTooManyRequests, mk())

	// wait long enough to replenish one token
	time.Sleep(2100 * time.Millisecond)
	require.Equal(t, http.StatusOK, mk())
}

func TestRateLimitMiddleware_KeysOnIdentityHeader(t *testing.T) {
	r := gin.New()
	r.Use(RateLimitMiddleware(0.5, 1))
	r.GET("/u", func(c *gin.Context) { c.JSON(200, gin.H{"ok": true}) })

	mk := func(identity string) int {
		w := httptest.NewRecorder()
		req := httptest.NewRequest("GET", "/u", nil)
		req.Header.Set(IdentityHeader, identity)
		r.ServeHTTP(w, req)
		return w.Code
	}

	require.Equal(t, http.StatusOK, mk("u1@x.com"))
	require.Equal(t, http.StatusTooManyRequests, mk("u1@x.com"))
	// a different identity has its own bucket
	require.Equal(t, http.StatusOK, mk("u2@x.com"))
}
