package v1

import (
	"github.com/gin-gonic/gin"

	"github.com/vietanh2810/class-treasury-api/internal/api/middleware"
	"github.com/vietanh2810/class-treasury-api/internal/domain"
)

// actorFromContext identifies the authenticated caller for the audit trail.
func actorFromContext(ctx *gin.Context) domain.Actor {
	return domain.Actor{
		ID:            ctx.GetString(middleware.ContextUserID),
		Role:          ctx.GetString(middleware.ContextRole),
		SourceAddress: ctx.ClientIP(),
	}
}
