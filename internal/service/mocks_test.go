package service

import (
	"context"
	"sync"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"github.com/vietanh2810/class-treasury-api/internal/domain"
	"github.com/vietanh2810/class-treasury-api/internal/repository"
)

type mockLedgerRepo struct {
	mock.Mock
}

func (m *mockLedgerRepo) GetOrCreateWallet(ctx context.Context) (domain.Wallet, error) {
	args := m.Called(ctx)
	return args.Get(0).(domain.Wallet), args.Error(1)
}

func (m *mockLedgerRepo) Balance(ctx context.Context, walletID string) (decimal.Decimal, error) {
	args := m.Called(ctx, walletID)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *mockLedgerRepo) CreateEntry(ctx context.Context, entry domain.LedgerEntry, audit domain.AuditLog) (domain.LedgerEntry, error) {
	args := m.Called(ctx, entry, audit)
	if fn, ok := args.Get(0).(func(context.Context, domain.LedgerEntry, domain.AuditLog) domain.LedgerEntry); ok {
		return fn(ctx, entry, audit), args.Error(1)
	}
	return args.Get(0).(domain.LedgerEntry), args.Error(1)
}

func (m *mockLedgerRepo) CreateDebit(ctx context.Context, entry domain.LedgerEntry, audit domain.AuditLog) (domain.LedgerEntry, decimal.Decimal, error) {
	args := m.Called(ctx, entry, audit)
	if fn, ok := args.Get(0).(func(context.Context, domain.LedgerEntry, domain.AuditLog) domain.LedgerEntry); ok {
		return fn(ctx, entry, audit), args.Get(1).(decimal.Decimal), args.Error(2)
	}
	return args.Get(0).(domain.LedgerEntry), args.Get(1).(decimal.Decimal), args.Error(2)
}

func (m *mockLedgerRepo) FindEntryByID(ctx context.Context, id string) (domain.LedgerEntry, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.LedgerEntry), args.Error(1)
}

func (m *mockLedgerRepo) ListEntries(ctx context.Context, walletID string, page domain.Page) ([]domain.LedgerEntry, int64, error) {
	args := m.Called(ctx, walletID, page)
	return args.Get(0).([]domain.LedgerEntry), args.Get(1).(int64), args.Error(2)
}

func (m *mockLedgerRepo) AllEntries(ctx context.Context, walletID string) ([]domain.LedgerEntry, error) {
	args := m.Called(ctx, walletID)
	return args.Get(0).([]domain.LedgerEntry), args.Error(1)
}

func (m *mockLedgerRepo) Totals(ctx context.Context, walletID string) (domain.LedgerTotals, error) {
	args := m.Called(ctx, walletID)
	return args.Get(0).(domain.LedgerTotals), args.Error(1)
}

func (m *mockLedgerRepo) MonthlyTotals(ctx context.Context, walletID string, months int) ([]domain.MonthlyTotals, error) {
	args := m.Called(ctx, walletID, months)
	return args.Get(0).([]domain.MonthlyTotals), args.Error(1)
}

type mockRaffleRepo struct {
	mock.Mock
}

func (m *mockRaffleRepo) Create(ctx context.Context, raffle domain.NewRaffle, audit domain.AuditLog) (domain.Raffle, error) {
	args := m.Called(ctx, raffle, audit)
	return args.Get(0).(domain.Raffle), args.Error(1)
}

func (m *mockRaffleRepo) GetByID(ctx context.Context, id string) (domain.Raffle, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.Raffle), args.Error(1)
}

func (m *mockRaffleRepo) List(ctx context.Context, status domain.RaffleStatus) ([]domain.Raffle, error) {
	args := m.Called(ctx, status)
	return args.Get(0).([]domain.Raffle), args.Error(1)
}

func (m *mockRaffleRepo) ListSummaries(ctx context.Context, status domain.RaffleStatus) ([]domain.Raffle, error) {
	args := m.Called(ctx, status)
	return args.Get(0).([]domain.Raffle), args.Error(1)
}

func (m *mockRaffleRepo) AddParticipant(ctx context.Context, participant domain.RaffleParticipant, audit domain.AuditLog) (domain.RaffleParticipant, error) {
	args := m.Called(ctx, participant, audit)
	return args.Get(0).(domain.RaffleParticipant), args.Error(1)
}

// Draw runs pick against the raffle and participants configured on the
// expectation, mimicking the locked read done by the real store.
func (m *mockRaffleRepo) Draw(ctx context.Context, raffleID string, pick repository.DrawPicker) (domain.RaffleDraw, error) {
	args := m.Called(ctx, raffleID)
	if err := args.Error(2); err != nil {
		return domain.RaffleDraw{}, err
	}

	draw, _, err := pick(args.Get(0).(domain.Raffle), args.Get(1).([]domain.RaffleParticipant))
	return draw, err
}

func (m *mockRaffleRepo) Cancel(ctx context.Context, raffleID string, audit domain.AuditLog) (domain.Raffle, error) {
	args := m.Called(ctx, raffleID, audit)
	return args.Get(0).(domain.Raffle), args.Error(1)
}

func (m *mockRaffleRepo) GetDraw(ctx context.Context, raffleID string) (domain.RaffleDraw, []domain.RaffleParticipant, error) {
	args := m.Called(ctx, raffleID)
	return args.Get(0).(domain.RaffleDraw), args.Get(1).([]domain.RaffleParticipant), args.Error(2)
}

type mockAuditRepo struct {
	mock.Mock
}

func (m *mockAuditRepo) Create(ctx context.Context, log domain.AuditLog) (domain.AuditLog, error) {
	args := m.Called(ctx, log)
	return args.Get(0).(domain.AuditLog), args.Error(1)
}

func (m *mockAuditRepo) List(ctx context.Context, page domain.Page) ([]domain.AuditLog, int64, error) {
	args := m.Called(ctx, page)
	return args.Get(0).([]domain.AuditLog), args.Get(1).(int64), args.Error(2)
}

// recordingAnnouncer keeps every announced audit record.
type recordingAnnouncer struct {
	mu   sync.Mutex
	logs []domain.AuditLog
}

func (a *recordingAnnouncer) Announce(_ context.Context, log domain.AuditLog) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.logs = append(a.logs, log)
}

func (a *recordingAnnouncer) announced() []domain.AuditLog {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]domain.AuditLog(nil), a.logs...)
}

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) Publish(ctx context.Context, key string, event any) error {
	args := m.Called(ctx, key, event)
	return args.Error(0)
}

func (m *mockPublisher) Close() error {
	return m.Called().Error(0)
}
