package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vietanh2810/class-treasury-api/internal/pkg/jwthelper"
)

const signingKey = "middleware-test-key"

func newRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()

	admin := r.Group("/", NewAuthenticator(signingKey).VerifyJWT(), RequireRole(RoleAdmin, RoleSuperadmin))
	admin.GET("/admin", func(ctx *gin.Context) {
		ctx.String(http.StatusOK, ctx.GetString(ContextUserID))
	})

	super := r.Group("/", NewAuthenticator(signingKey).VerifyJWT(), RequireRole(RoleSuperadmin))
	super.GET("/super", func(ctx *gin.Context) {
		ctx.Status(http.StatusNoContent)
	})

	return r
}

func token(t *testing.T, role string) string {
	t.Helper()
	signed, err := jwthelper.GenerateToken([]byte(signingKey), "user-9", role, time.Hour)
	require.NoError(t, err)
	return "Bearer " + signed
}

func TestAuth(t *testing.T) {
	r := newRouter()

	tests := []struct {
		name   string
		path   string
		header string
		status int
	}{
		{"no header", "/admin", "", http.StatusUnauthorized},
		{"wrong scheme", "/admin", "Basic abc", http.StatusUnauthorized},
		{"garbage token", "/admin", "Bearer abc", http.StatusUnauthorized},
		{"student role", "/admin", token(t, "student"), http.StatusForbidden},
		{"admin", "/admin", token(t, RoleAdmin), http.StatusOK},
		{"superadmin on admin route", "/admin", token(t, RoleSuperadmin), http.StatusOK},
		{"admin on superadmin route", "/super", token(t, RoleAdmin), http.StatusForbidden},
		{"superadmin", "/super", token(t, RoleSuperadmin), http.StatusNoContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()

			r.ServeHTTP(w, req)

			assert.Equal(t, tt.status, w.Code)
			if tt.status == http.StatusOK {
				assert.Equal(t, "user-9", w.Body.String())
			}
		})
	}
}

func TestAuth_WebsocketQueryToken(t *testing.T) {
	r := newRouter()
	signed := strings.TrimPrefix(token(t, RoleAdmin), "Bearer ")

	plain := httptest.NewRequest(http.MethodGet, "/admin?access_token="+signed, nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, plain)
	assert.Equal(t, http.StatusUnauthorized, w.Code, "query token is only honoured on upgrades")

	upgrade := httptest.NewRequest(http.MethodGet, "/admin?access_token="+signed, nil)
	upgrade.Header.Set("Upgrade", "websocket")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, upgrade)
	assert.Equal(t, http.StatusOK, w.Code)
}
