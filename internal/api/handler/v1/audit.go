package v1

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vietanh2810/class-treasury-api/internal/api/handler/v1/request"
	"github.com/vietanh2810/class-treasury-api/internal/api/handler/v1/response"
	"github.com/vietanh2810/class-treasury-api/internal/domain"
)

type AuditService interface {
	List(ctx context.Context, page domain.Page) ([]domain.AuditLog, int64, error)
}

type AuditHandler struct {
	svc AuditService
}

func NewAuditHandler(svc AuditService) *AuditHandler {
	return &AuditHandler{
		svc: svc,
	}
}

// HandleListAudit godoc
// @Summary      List audit records
// @Description  Newest first. Superadmin only.
// @Tags         audit
// @Produce      json
// @Param        page   query     int  false  "Page number"  default(1)
// @Param        limit  query     int  false  "Page size"    default(50)
// @Success      200    {object}  response.AuditPage
// @Failure      400    {object}  response.Err
// @Failure      401    {object}  response.Err
// @Failure      403    {object}  response.Err
// @Failure      500    {object}  response.Err
// @Router       /audit [get]
// @Security BearerAuth
func (h *AuditHandler) HandleListAudit(ctx *gin.Context) {
	var query request.PageQuery
	if err := ctx.ShouldBindQuery(&query); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}
	if err := query.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	logs, total, err := h.svc.List(ctx.Request.Context(), query.ToDomain())
	if err != nil {
		err = fmt.Errorf("HandleListAudit -> h.svc.List -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}
	if logs == nil {
		logs = []domain.AuditLog{}
	}

	ctx.JSON(http.StatusOK, response.AuditPage{Logs: logs, Total: total})
}
