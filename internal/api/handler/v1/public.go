package v1

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/vietanh2810/class-treasury-api/internal/api/handler/v1/response"
	"github.com/vietanh2810/class-treasury-api/internal/domain"
)

type FundraisingService interface {
	TotalRaised(ctx context.Context) (decimal.Decimal, error)
}

type OpenRaffleLister interface {
	ListOpenRaffles(ctx context.Context) ([]domain.Raffle, error)
}

// PublicHandler serves the unauthenticated endpoints.
type PublicHandler struct {
	ledger  FundraisingService
	raffles OpenRaffleLister
}

func NewPublicHandler(ledger FundraisingService, raffles OpenRaffleLister) *PublicHandler {
	return &PublicHandler{
		ledger:  ledger,
		raffles: raffles,
	}
}

// HandleInfo godoc
// @Summary      Public fundraising info
// @Tags         public
// @Produce      json
// @Success      200  {object}  response.PublicInfo
// @Failure      500  {object}  response.Err
// @Router       /public/info [get]
func (h *PublicHandler) HandleInfo(ctx *gin.Context) {
	raised, err := h.ledger.TotalRaised(ctx.Request.Context())
	if err != nil {
		err = fmt.Errorf("HandleInfo -> h.ledger.TotalRaised -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.JSON(http.StatusOK, response.PublicInfo{TotalRaised: raised.StringFixed(2)})
}

// HandleOpenRaffles godoc
// @Summary      Open raffles
// @Tags         public
// @Produce      json
// @Success      200  {array}   response.PublicRaffle
// @Failure      500  {object}  response.Err
// @Router       /public/raffles [get]
func (h *PublicHandler) HandleOpenRaffles(ctx *gin.Context) {
	raffles, err := h.raffles.ListOpenRaffles(ctx.Request.Context())
	if err != nil {
		err = fmt.Errorf("HandleOpenRaffles -> h.raffles.ListOpenRaffles -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.JSON(http.StatusOK, response.NewPublicRaffles(raffles))
}
