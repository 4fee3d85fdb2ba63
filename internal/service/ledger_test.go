package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/vietanh2810/class-treasury-api/internal/domain"
	"github.com/vietanh2810/class-treasury-api/internal/repository"
)

var (
	testWallet = domain.Wallet{ID: "0190a8c2-0000-7000-8000-000000000001"}
	testActor  = domain.Actor{ID: "admin-1", Role: "admin", SourceAddress: "10.0.0.1"}
)

func newLedgerFixture() (*LedgerService, *mockLedgerRepo, *recordingAnnouncer) {
	repo := &mockLedgerRepo{}
	announcer := &recordingAnnouncer{}
	return NewLedgerService(repo, announcer), repo, announcer
}

func TestLedgerService_RecordCredit(t *testing.T) {
	ctx := context.Background()
	svc, repo, announcer := newLedgerFixture()
	student := "student-42"

	repo.On("GetOrCreateWallet", ctx).Return(testWallet, nil)
	repo.On("CreateEntry", ctx,
		mock.MatchedBy(func(e domain.LedgerEntry) bool {
			return e.Type == domain.EntryCredit &&
				e.WalletID == testWallet.ID &&
				e.Amount.Equal(decimal.RequireFromString("12.50")) &&
				e.Description == "Bake sale" &&
				e.StudentID != nil && *e.StudentID == student &&
				e.ID != ""
		}),
		mock.MatchedBy(func(a domain.AuditLog) bool {
			return a.Action == domain.ActionLedgerCredit &&
				a.Module == domain.ModuleFinance &&
				a.Severity == domain.SeverityInfo &&
				a.ActorID == testActor.ID &&
				a.SourceAddress == testActor.SourceAddress &&
				a.Details["amount"] == "12.50"
		}),
	).Return(func(_ context.Context, e domain.LedgerEntry, _ domain.AuditLog) domain.LedgerEntry {
		return e
	}, nil)

	entry, err := svc.RecordCredit(ctx, testActor, domain.CreditInput{
		Amount:      decimal.RequireFromString("12.50"),
		Description: "  Bake sale ",
		StudentID:   &student,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.EntryCredit, entry.Type)
	assert.Equal(t, "Bake sale", entry.Description)

	logs := announcer.announced()
	require.Len(t, logs, 1)
	assert.Equal(t, domain.ActionLedgerCredit, logs[0].Action)
	assert.Equal(t, entry.ID, logs[0].Details["entry_id"])
	repo.AssertExpectations(t)
}

func TestLedgerService_RecordCredit_Invalid(t *testing.T) {
	reserved := domain.ReferenceReversal

	tests := []struct {
		name  string
		input domain.CreditInput
	}{
		{"zero amount", domain.CreditInput{Amount: decimal.Zero, Description: "x"}},
		{"negative amount", domain.CreditInput{Amount: decimal.NewFromInt(-5), Description: "x"}},
		{"sub-cent amount", domain.CreditInput{Amount: decimal.RequireFromString("1.005"), Description: "x"}},
		{"beyond column range", domain.CreditInput{Amount: decimal.RequireFromString("1000000000000000.00"), Description: "x"}},
		{"blank description", domain.CreditInput{Amount: decimal.NewFromInt(5), Description: "   "}},
		{"reserved reference type", domain.CreditInput{Amount: decimal.NewFromInt(5), Description: "x", ReferenceType: &reserved}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, repo, announcer := newLedgerFixture()

			_, err := svc.RecordCredit(context.Background(), testActor, tt.input)
			assert.ErrorIs(t, err, ErrInvalidInput)
			repo.AssertNotCalled(t, "GetOrCreateWallet", mock.Anything)
			repo.AssertNotCalled(t, "CreateEntry", mock.Anything, mock.Anything, mock.Anything)
			assert.Empty(t, announcer.announced())
		})
	}
}

func TestLedgerService_RecordDebit(t *testing.T) {
	ctx := context.Background()
	svc, repo, announcer := newLedgerFixture()

	repo.On("GetOrCreateWallet", ctx).Return(testWallet, nil)
	repo.On("CreateDebit", ctx,
		mock.MatchedBy(func(e domain.LedgerEntry) bool {
			return e.Type == domain.EntryDebit && e.Amount.Equal(decimal.NewFromInt(30)) && e.StudentID == nil
		}),
		mock.MatchedBy(func(a domain.AuditLog) bool {
			return a.Action == domain.ActionLedgerDebit && a.Severity == domain.SeverityWarning
		}),
	).Return(func(_ context.Context, e domain.LedgerEntry, _ domain.AuditLog) domain.LedgerEntry {
		return e
	}, decimal.NewFromInt(70), nil)

	entry, err := svc.RecordDebit(ctx, testActor, domain.DebitInput{
		Amount:      decimal.NewFromInt(30),
		Description: "Field trip bus",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.EntryDebit, entry.Type)
	assert.Len(t, announcer.announced(), 1)
	repo.AssertExpectations(t)
}

func TestLedgerService_RecordDebit_AmountTooLarge(t *testing.T) {
	svc, repo, announcer := newLedgerFixture()

	_, err := svc.RecordDebit(context.Background(), testActor, domain.DebitInput{
		Amount:      domain.MaxAmount.Add(decimal.RequireFromString("0.01")),
		Description: "Field trip bus",
	})
	assert.ErrorIs(t, err, ErrInvalidInput)
	repo.AssertNotCalled(t, "CreateDebit", mock.Anything, mock.Anything, mock.Anything)
	assert.Empty(t, announcer.announced())
}

func TestLedgerService_RecordDebit_InsufficientFunds(t *testing.T) {
	ctx := context.Background()
	svc, repo, announcer := newLedgerFixture()

	repo.On("GetOrCreateWallet", ctx).Return(testWallet, nil)
	repo.On("CreateDebit", ctx, mock.Anything, mock.Anything).
		Return(domain.LedgerEntry{}, decimal.NewFromInt(10), fmt.Errorf("r.dao.InsertDebit -> %w", repository.ErrInsufficientFunds))

	_, err := svc.RecordDebit(ctx, testActor, domain.DebitInput{
		Amount:      decimal.NewFromInt(30),
		Description: "Too much",
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInsufficientFunds)

	var fundsErr *domain.InsufficientFundsError
	require.True(t, errors.As(err, &fundsErr))
	assert.True(t, fundsErr.Balance.Equal(decimal.NewFromInt(10)))
	assert.True(t, fundsErr.Requested.Equal(decimal.NewFromInt(30)))
	assert.Empty(t, announcer.announced())
}

func TestLedgerService_ReverseEntry(t *testing.T) {
	ctx := context.Background()
	svc, repo, announcer := newLedgerFixture()
	student := "student-7"

	original := domain.LedgerEntry{
		ID:          "entry-1",
		WalletID:    testWallet.ID,
		Type:        domain.EntryCredit,
		Amount:      decimal.RequireFromString("20.00"),
		Description: "Raffle tickets",
		StudentID:   &student,
	}

	repo.On("FindEntryByID", ctx, "entry-1").Return(original, nil)
	repo.On("CreateEntry", ctx,
		mock.MatchedBy(func(e domain.LedgerEntry) bool {
			return e.Type == domain.EntryReversal &&
				e.WalletID == original.WalletID &&
				e.Amount.Equal(original.Amount) &&
				e.Description == "REVERSAL: Raffle tickets" &&
				e.ReferenceID != nil && *e.ReferenceID == "entry-1" &&
				e.ReferenceType != nil && *e.ReferenceType == domain.ReferenceReversal &&
				e.StudentID != nil && *e.StudentID == student
		}),
		mock.MatchedBy(func(a domain.AuditLog) bool {
			return a.Action == domain.ActionLedgerReversal &&
				a.Severity == domain.SeverityWarning &&
				a.Details["reversed_entry_id"] == "entry-1"
		}),
	).Return(func(_ context.Context, e domain.LedgerEntry, _ domain.AuditLog) domain.LedgerEntry {
		return e
	}, nil)

	reversal, err := svc.ReverseEntry(ctx, testActor, "entry-1")
	require.NoError(t, err)
	assert.NotEqual(t, original.ID, reversal.ID)
	assert.True(t, reversal.BalanceEffect().IsZero())
	assert.Len(t, announcer.announced(), 1)
	repo.AssertExpectations(t)
}

func TestLedgerService_ReverseEntry_NotFound(t *testing.T) {
	ctx := context.Background()
	svc, repo, announcer := newLedgerFixture()

	repo.On("FindEntryByID", ctx, "missing").
		Return(domain.LedgerEntry{}, fmt.Errorf("r.dao.FindEntryByID -> %w", repository.ErrEntryNotFound))

	_, err := svc.ReverseEntry(ctx, testActor, "missing")
	assert.ErrorIs(t, err, ErrEntryNotFound)
	repo.AssertNotCalled(t, "CreateEntry", mock.Anything, mock.Anything, mock.Anything)
	assert.Empty(t, announcer.announced())
}

func TestLedgerService_ListEntries_NormalizesPage(t *testing.T) {
	ctx := context.Background()
	svc, repo, _ := newLedgerFixture()

	repo.On("ListEntries", ctx, testWallet.ID, domain.Page{Number: 1, Size: 30}).
		Return([]domain.LedgerEntry{}, int64(0), nil).Once()
	repo.On("ListEntries", ctx, testWallet.ID, domain.Page{Number: 3, Size: domain.MaxPageSize}).
		Return([]domain.LedgerEntry{}, int64(0), nil).Once()

	_, _, err := svc.ListEntries(ctx, testWallet.ID, domain.Page{})
	require.NoError(t, err)
	_, _, err = svc.ListEntries(ctx, testWallet.ID, domain.Page{Number: 3, Size: 5000})
	require.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestLedgerService_Summary(t *testing.T) {
	ctx := context.Background()
	svc, repo, _ := newLedgerFixture()

	monthly := []domain.MonthlyTotals{
		{Month: "2026-09", Credits: decimal.NewFromInt(100), Debits: decimal.NewFromInt(30)},
	}
	repo.On("GetOrCreateWallet", ctx).Return(testWallet, nil)
	repo.On("Totals", ctx, testWallet.ID).Return(domain.LedgerTotals{
		Credits:  decimal.NewFromInt(100),
		Debits:   decimal.NewFromInt(30),
		Reversed: decimal.NewFromInt(15),
		Count:    4,
	}, nil)
	repo.On("MonthlyTotals", ctx, testWallet.ID, 12).Return(monthly, nil)

	summary, err := svc.Summary(ctx)
	require.NoError(t, err)
	assert.Equal(t, testWallet.ID, summary.ID)
	assert.True(t, summary.Balance.Equal(decimal.NewFromInt(70)), "reversed amounts must not affect the balance")
	assert.True(t, summary.TotalReversed.Equal(decimal.NewFromInt(15)))
	assert.Equal(t, int64(4), summary.EntryCount)
	assert.Equal(t, monthly, summary.Monthly)

	raised, err := svc.TotalRaised(ctx)
	require.NoError(t, err)
	assert.True(t, raised.Equal(decimal.NewFromInt(100)))
}

func TestLedgerService_Balance(t *testing.T) {
	ctx := context.Background()
	svc, repo, _ := newLedgerFixture()

	repo.On("GetOrCreateWallet", ctx).Return(testWallet, nil)
	repo.On("Balance", ctx, testWallet.ID).Return(decimal.RequireFromString("42.10"), nil)

	balance, err := svc.Balance(ctx)
	require.NoError(t, err)
	assert.Equal(t, "42.10", balance.StringFixed(2))
}

func TestLedgerService_ComputeBalance_UnknownWallet(t *testing.T) {
	ctx := context.Background()
	svc, repo, _ := newLedgerFixture()

	repo.On("Balance", ctx, "missing").Return(decimal.Zero, repository.ErrWalletNotFound)

	_, err := svc.ComputeBalance(ctx, "missing")
	assert.ErrorIs(t, err, ErrWalletNotFound)
}
