package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vietanh2810/class-treasury-api/internal/domain"
	"github.com/vietanh2810/class-treasury-api/internal/repository"
)

var (
	ErrWalletNotFound    = repository.ErrWalletNotFound
	ErrEntryNotFound     = repository.ErrEntryNotFound
	ErrInsufficientFunds = domain.ErrInsufficientFunds
)

const (
	defaultLedgerPageSize = 30
	summaryMonths         = 12
	amountScale           = 2
)

type LedgerRepository interface {
	GetOrCreateWallet(ctx context.Context) (domain.Wallet, error)
	Balance(ctx context.Context, walletID string) (decimal.Decimal, error)
	CreateEntry(ctx context.Context, entry domain.LedgerEntry, audit domain.AuditLog) (domain.LedgerEntry, error)
	CreateDebit(ctx context.Context, entry domain.LedgerEntry, audit domain.AuditLog) (domain.LedgerEntry, decimal.Decimal, error)
	FindEntryByID(ctx context.Context, id string) (domain.LedgerEntry, error)
	ListEntries(ctx context.Context, walletID string, page domain.Page) ([]domain.LedgerEntry, int64, error)
	AllEntries(ctx context.Context, walletID string) ([]domain.LedgerEntry, error)
	Totals(ctx context.Context, walletID string) (domain.LedgerTotals, error)
	MonthlyTotals(ctx context.Context, walletID string, months int) ([]domain.MonthlyTotals, error)
}

type LedgerService struct {
	repo  LedgerRepository
	audit AuditAnnouncer
}

func NewLedgerService(repo LedgerRepository, audit AuditAnnouncer) *LedgerService {
	return &LedgerService{
		repo:  repo,
		audit: audit,
	}
}

func (s *LedgerService) GetOrCreateWallet(ctx context.Context) (domain.Wallet, error) {
	wallet, err := s.repo.GetOrCreateWallet(ctx)
	if err != nil {
		return domain.Wallet{}, fmt.Errorf("s.repo.GetOrCreateWallet -> %w", err)
	}

	return wallet, nil
}

// ComputeBalance sums credits minus debits. Reversals are not counted.
func (s *LedgerService) ComputeBalance(ctx context.Context, walletID string) (decimal.Decimal, error) {
	balance, err := s.repo.Balance(ctx, walletID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("s.repo.Balance -> %w", err)
	}

	return balance, nil
}

// Balance returns the balance of the singleton wallet, creating it if needed.
func (s *LedgerService) Balance(ctx context.Context) (decimal.Decimal, error) {
	wallet, err := s.GetOrCreateWallet(ctx)
	if err != nil {
		return decimal.Zero, err
	}

	return s.ComputeBalance(ctx, wallet.ID)
}

func (s *LedgerService) RecordCredit(ctx context.Context, actor domain.Actor, in domain.CreditInput) (domain.LedgerEntry, error) {
	description := strings.TrimSpace(in.Description)
	if err := validateMovement(in.Amount, description); err != nil {
		return domain.LedgerEntry{}, err
	}
	if in.ReferenceType != nil && *in.ReferenceType == domain.ReferenceReversal {
		return domain.LedgerEntry{}, fmt.Errorf("%w: reference type %s is reserved", ErrInvalidInput, domain.ReferenceReversal)
	}

	wallet, err := s.GetOrCreateWallet(ctx)
	if err != nil {
		return domain.LedgerEntry{}, err
	}

	entry := domain.LedgerEntry{
		ID:            newID(),
		WalletID:      wallet.ID,
		Type:          domain.EntryCredit,
		Amount:        in.Amount,
		Description:   description,
		StudentID:     in.StudentID,
		ReferenceID:   in.ReferenceID,
		ReferenceType: in.ReferenceType,
		CreatedAt:     time.Now().UTC(),
	}

	details := map[string]any{
		"entry_id":    entry.ID,
		"amount":      entry.Amount.StringFixed(amountScale),
		"description": entry.Description,
	}
	if entry.StudentID != nil {
		details["student_id"] = *entry.StudentID
	}
	audit := newAuditLog(actor, domain.ActionLedgerCredit, domain.ModuleFinance, domain.SeverityInfo, details)

	created, err := s.repo.CreateEntry(ctx, entry, audit)
	if err != nil {
		return domain.LedgerEntry{}, fmt.Errorf("s.repo.CreateEntry -> %w", err)
	}

	s.audit.Announce(ctx, audit)

	return created, nil
}

// RecordDebit rejects the debit with *domain.InsufficientFundsError when the
// amount exceeds the balance observed under the wallet lock.
func (s *LedgerService) RecordDebit(ctx context.Context, actor domain.Actor, in domain.DebitInput) (domain.LedgerEntry, error) {
	description := strings.TrimSpace(in.Description)
	if err := validateMovement(in.Amount, description); err != nil {
		return domain.LedgerEntry{}, err
	}

	wallet, err := s.GetOrCreateWallet(ctx)
	if err != nil {
		return domain.LedgerEntry{}, err
	}

	entry := domain.LedgerEntry{
		ID:          newID(),
		WalletID:    wallet.ID,
		Type:        domain.EntryDebit,
		Amount:      in.Amount,
		Description: description,
	}

	audit := newAuditLog(actor, domain.ActionLedgerDebit, domain.ModuleFinance, domain.SeverityWarning, map[string]any{
		"entry_id":    entry.ID,
		"amount":      entry.Amount.StringFixed(amountScale),
		"description": entry.Description,
	})

	created, balance, err := s.repo.CreateDebit(ctx, entry, audit)
	if err != nil {
		if errors.Is(err, repository.ErrInsufficientFunds) {
			return domain.LedgerEntry{}, &domain.InsufficientFundsError{
				Balance:   balance,
				Requested: in.Amount,
			}
		}
		return domain.LedgerEntry{}, fmt.Errorf("s.repo.CreateDebit -> %w", err)
	}

	s.audit.Announce(ctx, audit)

	return created, nil
}

// ReverseEntry appends a REVERSAL annotation for entryID. The original entry
// is left untouched.
func (s *LedgerService) ReverseEntry(ctx context.Context, actor domain.Actor, entryID string) (domain.LedgerEntry, error) {
	original, err := s.repo.FindEntryByID(ctx, entryID)
	if err != nil {
		return domain.LedgerEntry{}, fmt.Errorf("s.repo.FindEntryByID -> %w", err)
	}

	referenceID := original.ID
	referenceType := domain.ReferenceReversal
	reversal := domain.LedgerEntry{
		ID:            newID(),
		WalletID:      original.WalletID,
		Type:          domain.EntryReversal,
		Amount:        original.Amount,
		Description:   domain.ReversalPrefix + original.Description,
		StudentID:     original.StudentID,
		ReferenceID:   &referenceID,
		ReferenceType: &referenceType,
		CreatedAt:     time.Now().UTC(),
	}

	audit := newAuditLog(actor, domain.ActionLedgerReversal, domain.ModuleFinance, domain.SeverityWarning, map[string]any{
		"entry_id":          reversal.ID,
		"reversed_entry_id": original.ID,
		"reversed_type":     string(original.Type),
		"amount":            original.Amount.StringFixed(amountScale),
	})

	created, err := s.repo.CreateEntry(ctx, reversal, audit)
	if err != nil {
		return domain.LedgerEntry{}, fmt.Errorf("s.repo.CreateEntry -> %w", err)
	}

	s.audit.Announce(ctx, audit)

	return created, nil
}

func (s *LedgerService) ListEntries(ctx context.Context, walletID string, page domain.Page) ([]domain.LedgerEntry, int64, error) {
	entries, total, err := s.repo.ListEntries(ctx, walletID, page.Normalize(defaultLedgerPageSize))
	if err != nil {
		return nil, 0, fmt.Errorf("s.repo.ListEntries -> %w", err)
	}

	return entries, total, nil
}

func (s *LedgerService) ExportAll(ctx context.Context, walletID string) ([]domain.LedgerEntry, error) {
	entries, err := s.repo.AllEntries(ctx, walletID)
	if err != nil {
		return nil, fmt.Errorf("s.repo.AllEntries -> %w", err)
	}

	return entries, nil
}

func (s *LedgerService) Summary(ctx context.Context) (domain.WalletSummary, error) {
	wallet, err := s.GetOrCreateWallet(ctx)
	if err != nil {
		return domain.WalletSummary{}, err
	}

	totals, err := s.repo.Totals(ctx, wallet.ID)
	if err != nil {
		return domain.WalletSummary{}, fmt.Errorf("s.repo.Totals -> %w", err)
	}

	monthly, err := s.repo.MonthlyTotals(ctx, wallet.ID, summaryMonths)
	if err != nil {
		return domain.WalletSummary{}, fmt.Errorf("s.repo.MonthlyTotals -> %w", err)
	}

	return domain.WalletSummary{
		Wallet:        wallet,
		Balance:       totals.Credits.Sub(totals.Debits),
		TotalCredits:  totals.Credits,
		TotalDebits:   totals.Debits,
		TotalReversed: totals.Reversed,
		EntryCount:    totals.Count,
		Monthly:       monthly,
	}, nil
}

// TotalRaised is the sum of every credit ever recorded.
func (s *LedgerService) TotalRaised(ctx context.Context) (decimal.Decimal, error) {
	wallet, err := s.GetOrCreateWallet(ctx)
	if err != nil {
		return decimal.Zero, err
	}

	totals, err := s.repo.Totals(ctx, wallet.ID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("s.repo.Totals -> %w", err)
	}

	return totals.Credits, nil
}

func validateMovement(amount decimal.Decimal, description string) error {
	if !amount.IsPositive() {
		return fmt.Errorf("%w: amount must be greater than zero", ErrInvalidInput)
	}
	if !amount.Equal(amount.Truncate(amountScale)) {
		return fmt.Errorf("%w: amount has more than %d decimal places", ErrInvalidInput, amountScale)
	}
	if amount.GreaterThan(domain.MaxAmount) {
		return fmt.Errorf("%w: amount exceeds %s", ErrInvalidInput, domain.MaxAmount.StringFixed(amountScale))
	}
	if description == "" {
		return fmt.Errorf("%w: description is required", ErrInvalidInput)
	}

	return nil
}
