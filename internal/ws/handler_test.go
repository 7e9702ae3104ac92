package ws

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"social-service/internal/auth"
	"social-service/internal/logging"
)

func setupWSRouter(verifier TokenVerifier) *gin.Engine {
	gin.SetMode(gin.TestMode)
	handler := NewHandler(NewHub(logging.NewConsoleSink()), verifier, nil)
	r := gin.New()
	r.GET("/ws", handler.Handle)
	return r
}

func TestHandleRejectsMissingCredential(t *testing.T) {
	router := setupWSRouter(auth.NewJWTManager("secret", time.Hour))

	req := httptest.NewRequest(http.MethodGet, "/ws", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Contains(t, rec.Body.String(), "Authentication Error")
}

func TestHandleRejectsBadToken(t *testing.T) {
	router := setupWSRouter(auth.NewJWTManager("secret", time.Hour))

	req := httptest.NewRequest(http.MethodGet, "/ws?token=garbage", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCredentialFromRequestPrefersCookie(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/ws?token=from-query", nil)
	c.Request.AddCookie(&http.Cookie{Name: "token", Value: "from-cookie"})
	c.Request.Header.Set("Authorization", "Bearer from-header")

	require.Equal(t, "from-cookie", credentialFromRequest(c))
}

func TestCredentialFromRequestFallsBackToQuery(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/ws?token=from-query", nil)

	require.Equal(t, "from-query", credentialFromRequest(c))
}
