package repository

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/vietanh2810/class-treasury-api/internal/domain"
	"github.com/vietanh2810/class-treasury-api/internal/repository/dao"
)

var (
	ErrWalletNotFound    = dao.ErrWalletNotFound
	ErrEntryNotFound     = dao.ErrEntryNotFound
	ErrInsufficientFunds = dao.ErrInsufficientFunds
)

type LedgerDAO interface {
	FindOrCreateWallet(ctx context.Context) (dao.Wallet, error)
	Balance(ctx context.Context, walletID string) (decimal.Decimal, error)
	InsertEntry(ctx context.Context, entry dao.LedgerEntry, audit dao.AuditLog) (dao.LedgerEntry, error)
	InsertDebit(ctx context.Context, entry dao.LedgerEntry, audit dao.AuditLog) (dao.LedgerEntry, decimal.Decimal, error)
	FindEntryByID(ctx context.Context, id string) (dao.LedgerEntry, error)
	ListEntries(ctx context.Context, walletID string, offset, limit int) ([]dao.LedgerEntry, int64, error)
	AllEntries(ctx context.Context, walletID string) ([]dao.LedgerEntry, error)
	Totals(ctx context.Context, walletID string) (dao.LedgerTotals, error)
	MonthlyTotals(ctx context.Context, walletID string, months int) ([]dao.MonthlyTotals, error)
}

type LedgerRepository struct {
	dao LedgerDAO
}

func NewLedgerRepository(dao LedgerDAO) *LedgerRepository {
	return &LedgerRepository{
		dao: dao,
	}
}

func (r *LedgerRepository) entryDomainToDao(e domain.LedgerEntry) dao.LedgerEntry {
	return dao.LedgerEntry{
		ID:            e.ID,
		WalletID:      e.WalletID,
		Type:          dao.EntryType(e.Type),
		Amount:        e.Amount,
		Description:   e.Description,
		StudentID:     e.StudentID,
		ReferenceID:   e.ReferenceID,
		ReferenceType: e.ReferenceType,
		CreatedAt:     e.CreatedAt,
	}
}

func (r *LedgerRepository) entryDaoToDomain(e dao.LedgerEntry) domain.LedgerEntry {
	return domain.LedgerEntry{
		ID:            e.ID,
		WalletID:      e.WalletID,
		Type:          domain.EntryType(e.Type),
		Amount:        e.Amount,
		Description:   e.Description,
		StudentID:     e.StudentID,
		ReferenceID:   e.ReferenceID,
		ReferenceType: e.ReferenceType,
		CreatedAt:     e.CreatedAt,
	}
}

func (r *LedgerRepository) entriesDaoToDomain(entries []dao.LedgerEntry) []domain.LedgerEntry {
	result := make([]domain.LedgerEntry, len(entries))
	for i, e := range entries {
		result[i] = r.entryDaoToDomain(e)
	}
	return result
}

func (r *LedgerRepository) GetOrCreateWallet(ctx context.Context) (domain.Wallet, error) {
	wallet, err := r.dao.FindOrCreateWallet(ctx)
	if err != nil {
		return domain.Wallet{}, fmt.Errorf("r.dao.FindOrCreateWallet -> %w", err)
	}

	return domain.Wallet{ID: wallet.ID, CreatedAt: wallet.CreatedAt}, nil
}

func (r *LedgerRepository) Balance(ctx context.Context, walletID string) (decimal.Decimal, error) {
	balance, err := r.dao.Balance(ctx, walletID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("r.dao.Balance -> %w", err)
	}

	return balance, nil
}

func (r *LedgerRepository) CreateEntry(ctx context.Context, entry domain.LedgerEntry, audit domain.AuditLog) (domain.LedgerEntry, error) {
	daoAudit, err := auditDomainToDao(audit)
	if err != nil {
		return domain.LedgerEntry{}, err
	}

	created, err := r.dao.InsertEntry(ctx, r.entryDomainToDao(entry), daoAudit)
	if err != nil {
		return domain.LedgerEntry{}, fmt.Errorf("r.dao.InsertEntry -> %w", err)
	}

	return r.entryDaoToDomain(created), nil
}

// CreateDebit returns the balance after the debit on success and the balance
// the debit was rejected against on ErrInsufficientFunds.
func (r *LedgerRepository) CreateDebit(ctx context.Context, entry domain.LedgerEntry, audit domain.AuditLog) (domain.LedgerEntry, decimal.Decimal, error) {
	daoAudit, err := auditDomainToDao(audit)
	if err != nil {
		return domain.LedgerEntry{}, decimal.Zero, err
	}

	created, balance, err := r.dao.InsertDebit(ctx, r.entryDomainToDao(entry), daoAudit)
	if err != nil {
		return domain.LedgerEntry{}, balance, fmt.Errorf("r.dao.InsertDebit -> %w", err)
	}

	return r.entryDaoToDomain(created), balance, nil
}

func (r *LedgerRepository) FindEntryByID(ctx context.Context, id string) (domain.LedgerEntry, error) {
	entry, err := r.dao.FindEntryByID(ctx, id)
	if err != nil {
		return domain.LedgerEntry{}, fmt.Errorf("r.dao.FindEntryByID -> %w", err)
	}

	return r.entryDaoToDomain(entry), nil
}

func (r *LedgerRepository) ListEntries(ctx context.Context, walletID string, page domain.Page) ([]domain.LedgerEntry, int64, error) {
	entries, total, err := r.dao.ListEntries(ctx, walletID, page.Offset(), page.Size)
	if err != nil {
		return nil, 0, fmt.Errorf("r.dao.ListEntries -> %w", err)
	}

	return r.entriesDaoToDomain(entries), total, nil
}

func (r *LedgerRepository) AllEntries(ctx context.Context, walletID string) ([]domain.LedgerEntry, error) {
	entries, err := r.dao.AllEntries(ctx, walletID)
	if err != nil {
		return nil, fmt.Errorf("r.dao.AllEntries -> %w", err)
	}

	return r.entriesDaoToDomain(entries), nil
}

func (r *LedgerRepository) Totals(ctx context.Context, walletID string) (domain.LedgerTotals, error) {
	totals, err := r.dao.Totals(ctx, walletID)
	if err != nil {
		return domain.LedgerTotals{}, fmt.Errorf("r.dao.Totals -> %w", err)
	}

	return domain.LedgerTotals{
		Credits:  totals.Credits,
		Debits:   totals.Debits,
		Reversed: totals.Reversed,
		Count:    totals.Count,
	}, nil
}

func (r *LedgerRepository) MonthlyTotals(ctx context.Context, walletID string, months int) ([]domain.MonthlyTotals, error) {
	rows, err := r.dao.MonthlyTotals(ctx, walletID, months)
	if err != nil {
		return nil, fmt.Errorf("r.dao.MonthlyTotals -> %w", err)
	}

	result := make([]domain.MonthlyTotals, len(rows))
	for i, row := range rows {
		result[i] = domain.MonthlyTotals{Month: row.Month, Credits: row.Credits, Debits: row.Debits}
	}

	return result, nil
}
