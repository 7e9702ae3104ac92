package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func TestLimiterStoreAllowExhaustsBurst(t *testing.T) {
	store := NewLimiterStore(1, 2, time.Minute)
	defer store.Stop()

	require.True(t, store.Allow("1.2.3.4"))
	require.True(t, store.Allow("1.2.3.4"))
	require.False(t, store.Allow("1.2.3.4"))

	// Independent keys keep their own bucket.
	require.True(t, store.Allow("5.6.7.8"))
}

func TestRateLimitMiddlewareReturns429(t *testing.T) {
	store := NewLimiterStore(1, 1, time.Minute)
	defer store.Stop()

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/user/signin", RateLimitMiddleware(store), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	first := httptest.NewRecorder()
	r.ServeHTTP(first, httptest.NewRequest(http.MethodPost, "/user/signin", nil))
	require.Equal(t, http.StatusOK, first.Code)

	second := httptest.NewRecorder()
	r.ServeHTTP(second, httptest.NewRequest(http.MethodPost, "/user/signin", nil))
	require.Equal(t, http.StatusTooManyRequests, second.Code)
}
