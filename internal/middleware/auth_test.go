package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"social-service/internal/auth"
)

func setupAuthRouter(verifier TokenVerifier) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/protected", AuthMiddleware(verifier), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"userID":    c.GetInt("userID"),
			"userEmail": c.GetString("userEmail"),
		})
	})
	return r
}

func TestAuthMiddlewareMissingCredentials(t *testing.T) {
	router := setupAuthRouter(auth.NewJWTManager("secret", time.Hour))

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthMiddlewareAcceptsCookie(t *testing.T) {
	manager := auth.NewJWTManager("secret", time.Hour)
	router := setupAuthRouter(manager)

	token, _, err := manager.Issue(3, "carol@example.com")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.AddCookie(&http.Cookie{Name: "token", Value: token})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"userID":3`)
	require.Contains(t, rec.Body.String(), "carol@example.com")
}

func TestAuthMiddlewareAcceptsBearerHeader(t *testing.T) {
	manager := auth.NewJWTManager("secret", time.Hour)
	router := setupAuthRouter(manager)

	token, _, err := manager.Issue(3, "carol@example.com")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
}

func TestAuthMiddlewareRejectsExpiredToken(t *testing.T) {
	expired := auth.NewJWTManager("secret", -time.Minute)
	router := setupAuthRouter(auth.NewJWTManager("secret", time.Hour))

	token, _, err := expired.Issue(3, "carol@example.com")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.AddCookie(&http.Cookie{Name: "token", Value: token})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Contains(t, rec.Body.String(), "Session expired")
}
