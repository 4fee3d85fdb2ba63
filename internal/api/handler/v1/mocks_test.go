package v1

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/vietanh2810/class-treasury-api/internal/api/middleware"
	"github.com/vietanh2810/class-treasury-api/internal/domain"
)

const (
	testUserID  = "admin-1"
	testWallet  = "0190a8c2-0000-7000-8000-000000000001"
	testEntryID = "0190a8c2-0000-7000-8000-0000000000e1"
	testRaffle  = "0190a8c2-0000-7000-8000-0000000000a1"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// asAdmin stands in for VerifyJWT.
func asAdmin(ctx *gin.Context) {
	ctx.Set(middleware.ContextUserID, testUserID)
	ctx.Set(middleware.ContextRole, middleware.RoleAdmin)
	ctx.Next()
}

func actorMatcher() interface{} {
	return mock.MatchedBy(func(a domain.Actor) bool {
		return a.ID == testUserID && a.Role == middleware.RoleAdmin
	})
}

func doRequest(t *testing.T, r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

type mockLedgerService struct {
	mock.Mock
}

func (m *mockLedgerService) GetOrCreateWallet(ctx context.Context) (domain.Wallet, error) {
	args := m.Called(ctx)
	return args.Get(0).(domain.Wallet), args.Error(1)
}

func (m *mockLedgerService) Balance(ctx context.Context) (decimal.Decimal, error) {
	args := m.Called(ctx)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *mockLedgerService) RecordCredit(ctx context.Context, actor domain.Actor, in domain.CreditInput) (domain.LedgerEntry, error) {
	args := m.Called(ctx, actor, in)
	return args.Get(0).(domain.LedgerEntry), args.Error(1)
}

func (m *mockLedgerService) RecordDebit(ctx context.Context, actor domain.Actor, in domain.DebitInput) (domain.LedgerEntry, error) {
	args := m.Called(ctx, actor, in)
	return args.Get(0).(domain.LedgerEntry), args.Error(1)
}

func (m *mockLedgerService) ReverseEntry(ctx context.Context, actor domain.Actor, entryID string) (domain.LedgerEntry, error) {
	args := m.Called(ctx, actor, entryID)
	return args.Get(0).(domain.LedgerEntry), args.Error(1)
}

func (m *mockLedgerService) ListEntries(ctx context.Context, walletID string, page domain.Page) ([]domain.LedgerEntry, int64, error) {
	args := m.Called(ctx, walletID, page)
	return args.Get(0).([]domain.LedgerEntry), args.Get(1).(int64), args.Error(2)
}

func (m *mockLedgerService) ExportAll(ctx context.Context, walletID string) ([]domain.LedgerEntry, error) {
	args := m.Called(ctx, walletID)
	return args.Get(0).([]domain.LedgerEntry), args.Error(1)
}

func (m *mockLedgerService) Summary(ctx context.Context) (domain.WalletSummary, error) {
	args := m.Called(ctx)
	return args.Get(0).(domain.WalletSummary), args.Error(1)
}

func (m *mockLedgerService) TotalRaised(ctx context.Context) (decimal.Decimal, error) {
	args := m.Called(ctx)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

type mockRaffleService struct {
	mock.Mock
}

func (m *mockRaffleService) CreateRaffle(ctx context.Context, actor domain.Actor, in domain.NewRaffle) (domain.Raffle, error) {
	args := m.Called(ctx, actor, in)
	return args.Get(0).(domain.Raffle), args.Error(1)
}

func (m *mockRaffleService) ListRaffles(ctx context.Context, status domain.RaffleStatus) ([]domain.Raffle, error) {
	args := m.Called(ctx, status)
	return args.Get(0).([]domain.Raffle), args.Error(1)
}

func (m *mockRaffleService) ListOpenRaffles(ctx context.Context) ([]domain.Raffle, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.Raffle), args.Error(1)
}

func (m *mockRaffleService) GetRaffle(ctx context.Context, id string) (domain.Raffle, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.Raffle), args.Error(1)
}

func (m *mockRaffleService) AddParticipant(ctx context.Context, actor domain.Actor, raffleID, studentID string, tickets int64) (domain.RaffleParticipant, error) {
	args := m.Called(ctx, actor, raffleID, studentID, tickets)
	return args.Get(0).(domain.RaffleParticipant), args.Error(1)
}

func (m *mockRaffleService) Draw(ctx context.Context, actor domain.Actor, raffleID string) (domain.DrawResult, error) {
	args := m.Called(ctx, actor, raffleID)
	return args.Get(0).(domain.DrawResult), args.Error(1)
}

func (m *mockRaffleService) Cancel(ctx context.Context, actor domain.Actor, raffleID string) (domain.Raffle, error) {
	args := m.Called(ctx, actor, raffleID)
	return args.Get(0).(domain.Raffle), args.Error(1)
}

func (m *mockRaffleService) VerifyDraw(ctx context.Context, raffleID string) (domain.DrawVerification, error) {
	args := m.Called(ctx, raffleID)
	return args.Get(0).(domain.DrawVerification), args.Error(1)
}

type mockAuditService struct {
	mock.Mock
}

func (m *mockAuditService) List(ctx context.Context, page domain.Page) ([]domain.AuditLog, int64, error) {
	args := m.Called(ctx, page)
	return args.Get(0).([]domain.AuditLog), args.Get(1).(int64), args.Error(2)
}
