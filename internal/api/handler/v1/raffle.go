package v1

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vietanh2810/class-treasury-api/internal/api/handler/v1/request"
	"github.com/vietanh2810/class-treasury-api/internal/api/handler/v1/response"
	"github.com/vietanh2810/class-treasury-api/internal/domain"
	"github.com/vietanh2810/class-treasury-api/internal/service"
)

type RaffleService interface {
	CreateRaffle(ctx context.Context, actor domain.Actor, in domain.NewRaffle) (domain.Raffle, error)
	ListRaffles(ctx context.Context, status domain.RaffleStatus) ([]domain.Raffle, error)
	ListOpenRaffles(ctx context.Context) ([]domain.Raffle, error)
	GetRaffle(ctx context.Context, id string) (domain.Raffle, error)
	AddParticipant(ctx context.Context, actor domain.Actor, raffleID, studentID string, tickets int64) (domain.RaffleParticipant, error)
	Draw(ctx context.Context, actor domain.Actor, raffleID string) (domain.DrawResult, error)
	Cancel(ctx context.Context, actor domain.Actor, raffleID string) (domain.Raffle, error)
	VerifyDraw(ctx context.Context, raffleID string) (domain.DrawVerification, error)
}

type RaffleHandler struct {
	svc RaffleService
}

func NewRaffleHandler(svc RaffleService) *RaffleHandler {
	return &RaffleHandler{
		svc: svc,
	}
}

// renderRaffleErr maps raffle state errors to client errors and anything
// else to a 500 tagged with op.
func renderRaffleErr(ctx *gin.Context, op, raffleID string, err error) {
	switch {
	case errors.Is(err, service.ErrRaffleNotFound):
		response.RenderErr(ctx, response.ErrNotFound("raffle", "id", raffleID))
	case errors.Is(err, service.ErrDrawNotFound):
		response.RenderErr(ctx, response.ErrNotFound("draw", "raffleID", raffleID))
	case errors.Is(err, service.ErrRaffleNotOpen):
		response.RenderErr(ctx, response.ErrBadRequest(service.ErrRaffleNotOpen))
	case errors.Is(err, service.ErrRaffleAlreadyDrawn):
		response.RenderErr(ctx, response.ErrBadRequest(service.ErrRaffleAlreadyDrawn))
	case errors.Is(err, service.ErrNoParticipants):
		response.RenderErr(ctx, response.ErrBadRequest(service.ErrNoParticipants))
	case errors.Is(err, service.ErrInvalidInput):
		response.RenderErr(ctx, response.ErrBadRequest(err))
	default:
		response.RenderErr(ctx, response.ErrInternalServerError(fmt.Errorf("%s -> %w", op, err)))
	}
}

func raffleIDParam(ctx *gin.Context) (string, bool) {
	raffleID := ctx.Param("raffleID")
	if err := request.ValidateID(raffleID); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(fmt.Errorf("raffleID: %w", err)))
		return "", false
	}

	return raffleID, true
}

// HandleListRaffles godoc
// @Summary      List raffles
// @Tags         raffles
// @Produce      json
// @Param        status  query     string  false  "Filter by status"  Enums(OPEN, CLOSED, CANCELLED)
// @Success      200     {array}   domain.Raffle
// @Failure      400     {object}  response.Err
// @Failure      401     {object}  response.Err
// @Failure      500     {object}  response.Err
// @Router       /raffles [get]
// @Security BearerAuth
func (h *RaffleHandler) HandleListRaffles(ctx *gin.Context) {
	var query request.ListRafflesQuery
	if err := ctx.ShouldBindQuery(&query); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}
	if err := query.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	raffles, err := h.svc.ListRaffles(ctx.Request.Context(), domain.RaffleStatus(query.Status))
	if err != nil {
		err = fmt.Errorf("HandleListRaffles -> h.svc.ListRaffles -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}
	if raffles == nil {
		raffles = []domain.Raffle{}
	}

	ctx.JSON(http.StatusOK, raffles)
}

// HandleCreateRaffle godoc
// @Summary      Create a raffle
// @Tags         raffles
// @Accept       json
// @Produce      json
// @Param        input  body      request.CreateRaffleRequest  true  "Raffle"
// @Success      201    {object}  domain.Raffle
// @Failure      400    {object}  response.Err
// @Failure      401    {object}  response.Err
// @Failure      500    {object}  response.Err
// @Router       /raffles [post]
// @Security BearerAuth
func (h *RaffleHandler) HandleCreateRaffle(ctx *gin.Context) {
	var req request.CreateRaffleRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}
	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	raffle, err := h.svc.CreateRaffle(ctx.Request.Context(), actorFromContext(ctx), domain.NewRaffle{
		Title:       req.Title,
		Description: req.Description,
		DrawDate:    req.DrawDate,
	})
	if err != nil {
		renderRaffleErr(ctx, "HandleCreateRaffle -> h.svc.CreateRaffle", "", err)
		return
	}

	ctx.JSON(http.StatusCreated, raffle)
}

// HandleGetRaffle godoc
// @Summary      Get a raffle
// @Tags         raffles
// @Produce      json
// @Param        raffleID  path      string  true  "Raffle ID"
// @Success      200       {object}  domain.Raffle
// @Failure      400       {object}  response.Err
// @Failure      404       {object}  response.Err
// @Failure      500       {object}  response.Err
// @Router       /raffles/{raffleID} [get]
// @Security BearerAuth
func (h *RaffleHandler) HandleGetRaffle(ctx *gin.Context) {
	raffleID, ok := raffleIDParam(ctx)
	if !ok {
		return
	}

	raffle, err := h.svc.GetRaffle(ctx.Request.Context(), raffleID)
	if err != nil {
		renderRaffleErr(ctx, "HandleGetRaffle -> h.svc.GetRaffle", raffleID, err)
		return
	}

	ctx.JSON(http.StatusOK, raffle)
}

// HandleAddParticipant godoc
// @Summary      Add tickets for a student
// @Description  Adds to the student's existing ticket count when already entered.
// @Tags         raffles
// @Accept       json
// @Produce      json
// @Param        raffleID  path      string                         true  "Raffle ID"
// @Param        input     body      request.AddParticipantRequest  true  "Participant"
// @Success      200       {object}  domain.RaffleParticipant
// @Failure      400       {object}  response.Err
// @Failure      404       {object}  response.Err
// @Failure      500       {object}  response.Err
// @Router       /raffles/{raffleID}/participants [post]
// @Security BearerAuth
func (h *RaffleHandler) HandleAddParticipant(ctx *gin.Context) {
	raffleID, ok := raffleIDParam(ctx)
	if !ok {
		return
	}

	var req request.AddParticipantRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}
	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	participant, err := h.svc.AddParticipant(ctx.Request.Context(), actorFromContext(ctx), raffleID, req.StudentID, req.TicketCount())
	if err != nil {
		renderRaffleErr(ctx, "HandleAddParticipant -> h.svc.AddParticipant", raffleID, err)
		return
	}

	ctx.JSON(http.StatusOK, participant)
}

// HandleDraw godoc
// @Summary      Draw the winner
// @Description  Closes the raffle. The response discloses the seed and hash so the result can be replayed.
// @Tags         raffles
// @Produce      json
// @Param        raffleID  path      string  true  "Raffle ID"
// @Success      200       {object}  domain.DrawResult
// @Failure      400       {object}  response.Err
// @Failure      404       {object}  response.Err
// @Failure      500       {object}  response.Err
// @Router       /raffles/{raffleID}/draw [post]
// @Security BearerAuth
func (h *RaffleHandler) HandleDraw(ctx *gin.Context) {
	raffleID, ok := raffleIDParam(ctx)
	if !ok {
		return
	}

	result, err := h.svc.Draw(ctx.Request.Context(), actorFromContext(ctx), raffleID)
	if err != nil {
		renderRaffleErr(ctx, "HandleDraw -> h.svc.Draw", raffleID, err)
		return
	}

	ctx.JSON(http.StatusOK, result)
}

// HandleVerifyDraw godoc
// @Summary      Verify a draw
// @Description  Replays the stored seed against the stored participants.
// @Tags         raffles
// @Produce      json
// @Param        raffleID  path      string  true  "Raffle ID"
// @Success      200       {object}  domain.DrawVerification
// @Failure      400       {object}  response.Err
// @Failure      404       {object}  response.Err
// @Failure      500       {object}  response.Err
// @Router       /raffles/{raffleID}/draw/verify [get]
// @Security BearerAuth
func (h *RaffleHandler) HandleVerifyDraw(ctx *gin.Context) {
	raffleID, ok := raffleIDParam(ctx)
	if !ok {
		return
	}

	verification, err := h.svc.VerifyDraw(ctx.Request.Context(), raffleID)
	if err != nil {
		renderRaffleErr(ctx, "HandleVerifyDraw -> h.svc.VerifyDraw", raffleID, err)
		return
	}

	ctx.JSON(http.StatusOK, verification)
}

// HandleCancelRaffle godoc
// @Summary      Cancel a raffle
// @Tags         raffles
// @Produce      json
// @Param        raffleID  path      string  true  "Raffle ID"
// @Success      200       {object}  domain.Raffle
// @Failure      400       {object}  response.Err
// @Failure      404       {object}  response.Err
// @Failure      500       {object}  response.Err
// @Router       /raffles/{raffleID}/cancel [patch]
// @Security BearerAuth
func (h *RaffleHandler) HandleCancelRaffle(ctx *gin.Context) {
	raffleID, ok := raffleIDParam(ctx)
	if !ok {
		return
	}

	raffle, err := h.svc.Cancel(ctx.Request.Context(), actorFromContext(ctx), raffleID)
	if err != nil {
		renderRaffleErr(ctx, "HandleCancelRaffle -> h.svc.Cancel", raffleID, err)
		return
	}

	ctx.JSON(http.StatusOK, raffle)
}
