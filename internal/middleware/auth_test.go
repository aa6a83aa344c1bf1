package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/user/phimhub/internal/model"
)

const testSecret = "bi-mat-thu-nghiem"

func adminRouter() (*gin.Engine, *int) {
	gin.SetMode(gin.TestMode)
	hits := 0
	r := gin.New()
	admin := r.Group("/api/admin")
	admin.Use(OptionalAuth(testSecret))
	admin.Use(RequireAdmin())
	admin.POST("/sync-all", func(c *gin.Context) {
		hits++
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	return r, &hits
}

func doRequest(r *gin.Engine, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest("POST", "/api/admin/sync-all", nil)
	if token != "" {
		req.AddCookie(&http.Cookie{Name: "token", Value: token})
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAdminRouteUnauthenticated(t *testing.T) {
	r, hits := adminRouter()

	w := doRequest(r, "")
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.JSONEq(t, `{"error":"Forbidden"}`, w.Body.String())
	assert.Equal(t, 0, *hits, "禁止放行到处理函数")
}

func TestAdminRouteNonAdmin(t *testing.T) {
	r, hits := adminRouter()

	token, err := GenerateToken(1, "user@example.com", model.RoleVip, testSecret, time.Hour)
	require.NoError(t, err)

	w := doRequest(r, token)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.JSONEq(t, `{"error":"Forbidden"}`, w.Body.String())
	assert.Equal(t, 0, *hits)
}

func TestAdminRouteAdmin(t *testing.T) {
	r, hits := adminRouter()

	for _, role := range []string{model.RoleAdmin, model.RoleSuperAdmin} {
		token, err := GenerateToken(1, "admin@example.com", role, testSecret, time.Hour)
		require.NoError(t, err)

		w := doRequest(r, token)
		assert.Equal(t, http.StatusOK, w.Code, "角色 %s 应放行", role)
	}
	assert.Equal(t, 2, *hits)
}

func TestRequireAuthAPIReturns401(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/api/favorites", RequireAuth(testSecret), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	req := httptest.NewRequest("GET", "/api/favorites", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.JSONEq(t, `{"error":"Chưa đăng nhập"}`, w.Body.String())
}

func TestRequireAuthHTMLRedirects(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/dashboard", RequireAuth(testSecret), func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})

	req := httptest.NewRequest("GET", "/dashboard", nil)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/auth/login?redirect=/dashboard", w.Header().Get("Location"))
}

func TestTokenRoundTrip(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/whoami", OptionalAuth(testSecret), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user_id": GetUserID(c), "role": GetRole(c)})
	})

	token, err := GenerateToken(42, "a@b.c", model.RoleFree, testSecret, time.Hour)
	require.NoError(t, err)

	req := httptest.NewRequest("GET", "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"user_id":42,"role":"free"}`, w.Body.String())
}

func TestExpiredTokenRejected(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/api/me", RequireAuth(testSecret), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	token, err := GenerateToken(42, "a@b.c", model.RoleFree, testSecret, -time.Minute)
	require.NoError(t, err)

	req := httptest.NewRequest("GET", "/api/me", nil)
	req.AddCookie(&http.Cookie{Name: "token", Value: token})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
