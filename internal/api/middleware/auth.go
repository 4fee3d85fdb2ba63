package middleware

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/vietanh2810/class-treasury-api/internal/api/handler/v1/response"
	"github.com/vietanh2810/class-treasury-api/internal/pkg/jwthelper"
)

const (
	ContextUserID = "userID"
	ContextRole   = "role"

	RoleAdmin      = "admin"
	RoleSuperadmin = "superadmin"
)

var errMissingToken = errors.New("missing bearer token")

type Authenticator struct {
	jwtSigningKey []byte
}

func NewAuthenticator(jwtSigningKey string) *Authenticator {
	return &Authenticator{
		jwtSigningKey: []byte(jwtSigningKey),
	}
}

// VerifyJWT checks the bearer token and stores the caller's id and role in
// the gin context.
func (a *Authenticator) VerifyJWT() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		token, ok := bearerToken(ctx)
		if !ok {
			response.RenderErr(ctx, response.ErrUnauthorized(errMissingToken))
			return
		}

		claims, err := jwthelper.ParseToken(a.jwtSigningKey, token)
		if err != nil {
			response.RenderErr(ctx, response.ErrUnauthorized(jwthelper.ErrInvalidToken))
			return
		}

		ctx.Set(ContextUserID, claims.Subject)
		ctx.Set(ContextRole, claims.Role)
		ctx.Next()
	}
}

// bearerToken reads the Authorization header. Browsers cannot set headers on
// a websocket handshake, so upgrades may pass the token as access_token.
func bearerToken(ctx *gin.Context) (string, bool) {
	if header := ctx.GetHeader("Authorization"); header != "" {
		scheme, token, found := strings.Cut(header, " ")
		return token, found && strings.EqualFold(scheme, "Bearer") && token != ""
	}

	if strings.EqualFold(ctx.GetHeader("Upgrade"), "websocket") {
		token := ctx.Query("access_token")
		return token, token != ""
	}

	return "", false
}

// RequireRole lets the request through only for the listed roles. It must
// run after VerifyJWT.
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		role := ctx.GetString(ContextRole)
		if !slices.Contains(roles, role) {
			response.RenderErr(ctx, response.ErrPermissionDenied(fmt.Errorf("role %q may not access this resource", role)))
			return
		}

		ctx.Next()
	}
}
