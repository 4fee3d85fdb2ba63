package v1

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/vietanh2810/class-treasury-api/internal/api/handler/v1/request"
	"github.com/vietanh2810/class-treasury-api/internal/api/handler/v1/response"
	"github.com/vietanh2810/class-treasury-api/internal/domain"
	"github.com/vietanh2810/class-treasury-api/internal/service"
)

const (
	csvDateLayout = "2006-01-02"
	utf8BOM       = "\xef\xbb\xbf"
)

var csvHeader = []string{"Date", "Type", "Amount", "Description", "Student"}

type LedgerService interface {
	GetOrCreateWallet(ctx context.Context) (domain.Wallet, error)
	Balance(ctx context.Context) (decimal.Decimal, error)
	RecordCredit(ctx context.Context, actor domain.Actor, in domain.CreditInput) (domain.LedgerEntry, error)
	RecordDebit(ctx context.Context, actor domain.Actor, in domain.DebitInput) (domain.LedgerEntry, error)
	ReverseEntry(ctx context.Context, actor domain.Actor, entryID string) (domain.LedgerEntry, error)
	ListEntries(ctx context.Context, walletID string, page domain.Page) ([]domain.LedgerEntry, int64, error)
	ExportAll(ctx context.Context, walletID string) ([]domain.LedgerEntry, error)
	Summary(ctx context.Context) (domain.WalletSummary, error)
}

type LedgerHandler struct {
	svc LedgerService
}

func NewLedgerHandler(svc LedgerService) *LedgerHandler {
	return &LedgerHandler{
		svc: svc,
	}
}

// HandleGetWallet godoc
// @Summary      Wallet summary
// @Description  Balance, lifetime totals and the last twelve months of credits and debits.
// @Tags         finance
// @Produce      json
// @Success      200  {object}  domain.WalletSummary
// @Failure      401  {object}  response.Err
// @Failure      403  {object}  response.Err
// @Failure      500  {object}  response.Err
// @Router       /finance/wallet [get]
// @Security BearerAuth
func (h *LedgerHandler) HandleGetWallet(ctx *gin.Context) {
	summary, err := h.svc.Summary(ctx.Request.Context())
	if err != nil {
		err = fmt.Errorf("HandleGetWallet -> h.svc.Summary -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.JSON(http.StatusOK, summary)
}

// HandleGetBalance godoc
// @Summary      Current balance
// @Tags         finance
// @Produce      json
// @Success      200  {object}  response.Balance
// @Failure      401  {object}  response.Err
// @Failure      500  {object}  response.Err
// @Router       /finance/balance [get]
// @Security BearerAuth
func (h *LedgerHandler) HandleGetBalance(ctx *gin.Context) {
	balance, err := h.svc.Balance(ctx.Request.Context())
	if err != nil {
		err = fmt.Errorf("HandleGetBalance -> h.svc.Balance -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.JSON(http.StatusOK, response.Balance{Balance: balance.StringFixed(2)})
}

// HandleListLedger godoc
// @Summary      List ledger entries
// @Description  Newest first.
// @Tags         finance
// @Produce      json
// @Param        page   query     int  false  "Page number"  default(1)
// @Param        limit  query     int  false  "Page size"    default(30)
// @Success      200    {object}  response.LedgerPage
// @Failure      400    {object}  response.Err
// @Failure      401    {object}  response.Err
// @Failure      500    {object}  response.Err
// @Router       /finance/ledger [get]
// @Security BearerAuth
func (h *LedgerHandler) HandleListLedger(ctx *gin.Context) {
	var query request.PageQuery
	if err := ctx.ShouldBindQuery(&query); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}
	if err := query.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	wallet, err := h.svc.GetOrCreateWallet(ctx.Request.Context())
	if err != nil {
		err = fmt.Errorf("HandleListLedger -> h.svc.GetOrCreateWallet -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	entries, total, err := h.svc.ListEntries(ctx.Request.Context(), wallet.ID, query.ToDomain())
	if err != nil {
		err = fmt.Errorf("HandleListLedger -> h.svc.ListEntries -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}
	if entries == nil {
		entries = []domain.LedgerEntry{}
	}

	ctx.JSON(http.StatusOK, response.LedgerPage{Entries: entries, Total: total})
}

// HandleCredit godoc
// @Summary      Record a credit
// @Tags         finance
// @Accept       json
// @Produce      json
// @Param        input  body      request.CreditRequest  true  "Credit"
// @Success      201    {object}  domain.LedgerEntry
// @Failure      400    {object}  response.Err
// @Failure      401    {object}  response.Err
// @Failure      500    {object}  response.Err
// @Router       /finance/credit [post]
// @Security BearerAuth
func (h *LedgerHandler) HandleCredit(ctx *gin.Context) {
	var req request.CreditRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}
	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	entry, err := h.svc.RecordCredit(ctx.Request.Context(), actorFromContext(ctx), domain.CreditInput{
		Amount:        req.Amount,
		Description:   req.Description,
		StudentID:     req.StudentID,
		ReferenceID:   req.ReferenceID,
		ReferenceType: req.ReferenceType,
	})
	if err != nil {
		if errors.Is(err, service.ErrInvalidInput) {
			response.RenderErr(ctx, response.ErrBadRequest(err))
			return
		}

		err = fmt.Errorf("HandleCredit -> h.svc.RecordCredit -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.JSON(http.StatusCreated, entry)
}

// HandleDebit godoc
// @Summary      Record a debit
// @Description  Fails with 400 and the current balance when the wallet cannot cover the amount.
// @Tags         finance
// @Accept       json
// @Produce      json
// @Param        input  body      request.DebitRequest  true  "Debit"
// @Success      201    {object}  domain.LedgerEntry
// @Failure      400    {object}  response.Err
// @Failure      401    {object}  response.Err
// @Failure      500    {object}  response.Err
// @Router       /finance/debit [post]
// @Security BearerAuth
func (h *LedgerHandler) HandleDebit(ctx *gin.Context) {
	var req request.DebitRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}
	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	entry, err := h.svc.RecordDebit(ctx.Request.Context(), actorFromContext(ctx), domain.DebitInput{
		Amount:      req.Amount,
		Description: req.Description,
	})
	if err != nil {
		var fundsErr *domain.InsufficientFundsError
		if errors.As(err, &fundsErr) {
			response.RenderErr(ctx, response.ErrInsufficientFunds(domain.ErrInsufficientFunds,
				fundsErr.Balance.StringFixed(2), fundsErr.Requested.StringFixed(2)))
			return
		}
		if errors.Is(err, service.ErrInvalidInput) {
			response.RenderErr(ctx, response.ErrBadRequest(err))
			return
		}

		err = fmt.Errorf("HandleDebit -> h.svc.RecordDebit -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.JSON(http.StatusCreated, entry)
}

// HandleReverse godoc
// @Summary      Reverse a ledger entry
// @Description  Appends a REVERSAL entry referencing the original. The original is never modified.
// @Tags         finance
// @Produce      json
// @Param        entryID  path      string  true  "Entry ID"
// @Success      200      {object}  domain.LedgerEntry
// @Failure      400      {object}  response.Err
// @Failure      401      {object}  response.Err
// @Failure      404      {object}  response.Err
// @Failure      500      {object}  response.Err
// @Router       /finance/reverse/{entryID} [post]
// @Security BearerAuth
func (h *LedgerHandler) HandleReverse(ctx *gin.Context) {
	entryID := ctx.Param("entryID")
	if err := request.ValidateID(entryID); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(fmt.Errorf("entryID: %w", err)))
		return
	}

	reversal, err := h.svc.ReverseEntry(ctx.Request.Context(), actorFromContext(ctx), entryID)
	if err != nil {
		if errors.Is(err, service.ErrEntryNotFound) {
			response.RenderErr(ctx, response.ErrNotFound("ledger entry", "id", entryID))
			return
		}

		err = fmt.Errorf("HandleReverse -> h.svc.ReverseEntry -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.JSON(http.StatusOK, reversal)
}

// HandleExportCSV godoc
// @Summary      Export the ledger as CSV
// @Description  UTF-8 with a byte order mark so spreadsheet tools detect the encoding.
// @Tags         finance
// @Produce      text/csv
// @Success      200  {string}  string
// @Failure      401  {object}  response.Err
// @Failure      500  {object}  response.Err
// @Router       /finance/export/csv [get]
// @Security BearerAuth
func (h *LedgerHandler) HandleExportCSV(ctx *gin.Context) {
	wallet, err := h.svc.GetOrCreateWallet(ctx.Request.Context())
	if err != nil {
		err = fmt.Errorf("HandleExportCSV -> h.svc.GetOrCreateWallet -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	entries, err := h.svc.ExportAll(ctx.Request.Context(), wallet.ID)
	if err != nil {
		err = fmt.Errorf("HandleExportCSV -> h.svc.ExportAll -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	filename := fmt.Sprintf("ledger-%s.csv", time.Now().UTC().Format(csvDateLayout))
	ctx.Header("Content-Type", "text/csv; charset=utf-8")
	ctx.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	ctx.Status(http.StatusOK)

	// Headers are sent from here on, so write failures can only be logged.
	if _, err = ctx.Writer.WriteString(utf8BOM); err != nil {
		zap.L().Warn("failed to write csv export", zap.Error(err))
		return
	}

	w := csv.NewWriter(ctx.Writer)
	if err = w.Write(csvHeader); err != nil {
		zap.L().Warn("failed to write csv export", zap.Error(err))
		return
	}
	for _, e := range entries {
		if err = w.Write(csvRow(e)); err != nil {
			zap.L().Warn("failed to write csv export", zap.Error(err))
			return
		}
	}

	w.Flush()
	if err = w.Error(); err != nil {
		zap.L().Warn("failed to flush csv export", zap.Error(err))
	}
}

func csvRow(e domain.LedgerEntry) []string {
	student := ""
	if e.StudentID != nil {
		student = *e.StudentID
	}

	return []string{
		e.CreatedAt.UTC().Format(csvDateLayout),
		string(e.Type),
		e.Amount.StringFixed(2),
		csvText(e.Description),
		csvText(student),
	}
}

// csvText quotes free text that a spreadsheet would otherwise evaluate as a
// formula.
func csvText(s string) string {
	if s != "" && strings.ContainsRune("=+-@\t\r", rune(s[0])) {
		return "'" + s
	}

	return s
}
