package dao

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrWalletNotFound    = errors.New("wallet not found")
	ErrEntryNotFound     = errors.New("ledger entry not found")
	ErrInsufficientFunds = errors.New("insufficient funds")
)

type EntryType string

const (
	EntryCredit   EntryType = "CREDIT"
	EntryDebit    EntryType = "DEBIT"
	EntryReversal EntryType = "REVERSAL"
)

// Wallet has a unique, always-true singleton column so that concurrent
// first accesses can only ever create one row.
type Wallet struct {
	ID        string    `gorm:"type:uuid;primaryKey"`
	Singleton bool      `gorm:"not null;default:true;uniqueIndex:uniq_wallets_singleton;check:chk_wallets_singleton,singleton"`
	CreatedAt time.Time `gorm:"not null"`
}

type LedgerEntry struct {
	ID            string          `gorm:"type:uuid;primaryKey"`
	WalletID      string          `gorm:"type:uuid;not null;index:idx_ledger_entries_wallet_created,priority:1"`
	Wallet        *Wallet         `gorm:"foreignKey:WalletID;constraint:OnUpdate:RESTRICT,OnDelete:RESTRICT"`
	Type          EntryType       `gorm:"type:varchar(16);not null;check:chk_ledger_entries_type,type IN ('CREDIT','DEBIT','REVERSAL')"`
	Amount        decimal.Decimal `gorm:"type:numeric(14,2);not null;check:chk_ledger_entries_amount,amount > 0"`
	Description   string          `gorm:"type:text;not null;check:chk_ledger_entries_description,description <> ''"`
	StudentID     *string         `gorm:"type:varchar(64);index"`
	ReferenceID   *string         `gorm:"type:varchar(64);index"`
	ReferenceType *string         `gorm:"type:varchar(32)"`
	CreatedAt     time.Time       `gorm:"not null;index:idx_ledger_entries_wallet_created,priority:2"`
}

func (e *LedgerEntry) BeforeCreate(*gorm.DB) error {
	if e.ID == "" {
		e.ID = newID()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = now()
	}
	return nil
}

type LedgerTotals struct {
	Credits  decimal.Decimal
	Debits   decimal.Decimal
	Reversed decimal.Decimal
	Count    int64
}

type MonthlyTotals struct {
	Month   string
	Credits decimal.Decimal
	Debits  decimal.Decimal
}

type LedgerDAO struct {
	db *gorm.DB
}

func NewLedgerDAO(db *gorm.DB) *LedgerDAO {
	return &LedgerDAO{
		db: db,
	}
}

// FindOrCreateWallet returns the singleton wallet. Creation is an
// insert-if-absent against the singleton constraint, never a blind insert.
func (d *LedgerDAO) FindOrCreateWallet(ctx context.Context) (Wallet, error) {
	db := d.db.WithContext(ctx)

	var wallet Wallet
	result := db.Where("singleton = ?", true).Take(&wallet)
	if result.Error == nil {
		return wallet, nil
	}
	if !errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return Wallet{}, result.Error
	}

	candidate := Wallet{ID: newID(), Singleton: true, CreatedAt: now()}
	if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&candidate).Error; err != nil {
		return Wallet{}, err
	}

	if err := db.Where("singleton = ?", true).Take(&wallet).Error; err != nil {
		return Wallet{}, err
	}

	return wallet, nil
}

// Balance is the sum of credits minus the sum of debits. Reversal entries
// are annotations and are left out.
func (d *LedgerDAO) Balance(ctx context.Context, walletID string) (decimal.Decimal, error) {
	db := d.db.WithContext(ctx)

	var wallet Wallet
	result := db.Select("id").Take(&wallet, "id = ?", walletID)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return decimal.Zero, ErrWalletNotFound
		}
		return decimal.Zero, result.Error
	}

	return balanceOf(db, wallet.ID)
}

func balanceOf(tx *gorm.DB, walletID string) (decimal.Decimal, error) {
	var balance decimal.Decimal
	err := tx.Model(&LedgerEntry{}).
		Select("COALESCE(SUM(CASE WHEN type = ? THEN amount WHEN type = ? THEN -amount ELSE 0 END), 0)", EntryCredit, EntryDebit).
		Where("wallet_id = ?", walletID).
		Scan(&balance).Error
	if err != nil {
		return decimal.Zero, err
	}

	return balance, nil
}

// InsertEntry stores a credit or reversal entry and its audit record in one
// transaction.
func (d *LedgerDAO) InsertEntry(ctx context.Context, entry LedgerEntry, audit AuditLog) (LedgerEntry, error) {
	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&entry).Error; err != nil {
			return err
		}

		return insertAudit(tx, &audit)
	})
	if err != nil {
		return LedgerEntry{}, err
	}

	return entry, nil
}

// InsertDebit locks the wallet row, checks the balance and stores the debit
// with its audit record. The row lock makes concurrent debits check the
// balance one after the other, and the timestamps are taken under it so
// created_at follows commit order. On ErrInsufficientFunds the balance seen
// under the lock is returned.
func (d *LedgerDAO) InsertDebit(ctx context.Context, entry LedgerEntry, audit AuditLog) (LedgerEntry, decimal.Decimal, error) {
	var balance decimal.Decimal

	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var wallet Wallet
		result := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Take(&wallet, "id = ?", entry.WalletID)
		if result.Error != nil {
			if errors.Is(result.Error, gorm.ErrRecordNotFound) {
				return ErrWalletNotFound
			}
			return result.Error
		}

		var err error
		balance, err = balanceOf(tx, wallet.ID)
		if err != nil {
			return err
		}

		if entry.Amount.GreaterThan(balance) {
			return ErrInsufficientFunds
		}

		stamp := now()
		entry.CreatedAt = stamp
		audit.CreatedAt = stamp

		if err = tx.Create(&entry).Error; err != nil {
			return err
		}

		return insertAudit(tx, &audit)
	})
	if err != nil {
		return LedgerEntry{}, balance, err
	}

	return entry, balance.Sub(entry.Amount), nil
}

func (d *LedgerDAO) FindEntryByID(ctx context.Context, id string) (LedgerEntry, error) {
	var entry LedgerEntry

	result := d.db.WithContext(ctx).Take(&entry, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return LedgerEntry{}, ErrEntryNotFound
		}

		return LedgerEntry{}, result.Error
	}

	return entry, nil
}

func (d *LedgerDAO) ListEntries(ctx context.Context, walletID string, offset, limit int) ([]LedgerEntry, int64, error) {
	db := d.db.WithContext(ctx)

	var total int64
	if err := db.Model(&LedgerEntry{}).Where("wallet_id = ?", walletID).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var entries []LedgerEntry
	result := db.Where("wallet_id = ?", walletID).
		Order("created_at DESC").
		Order("id DESC").
		Offset(offset).
		Limit(limit).
		Find(&entries)
	if result.Error != nil {
		return nil, 0, result.Error
	}

	return entries, total, nil
}

func (d *LedgerDAO) AllEntries(ctx context.Context, walletID string) ([]LedgerEntry, error) {
	var entries []LedgerEntry

	result := d.db.WithContext(ctx).
		Where("wallet_id = ?", walletID).
		Order("created_at DESC").
		Order("id DESC").
		Find(&entries)
	if result.Error != nil {
		return nil, result.Error
	}

	return entries, nil
}

func (d *LedgerDAO) Totals(ctx context.Context, walletID string) (LedgerTotals, error) {
	var totals LedgerTotals

	err := d.db.WithContext(ctx).Model(&LedgerEntry{}).
		Select(`COALESCE(SUM(CASE WHEN type = ? THEN amount ELSE 0 END), 0) AS credits,
			COALESCE(SUM(CASE WHEN type = ? THEN amount ELSE 0 END), 0) AS debits,
			COALESCE(SUM(CASE WHEN type = ? THEN amount ELSE 0 END), 0) AS reversed,
			COUNT(*) AS count`, EntryCredit, EntryDebit, EntryReversal).
		Where("wallet_id = ?", walletID).
		Scan(&totals).Error
	if err != nil {
		return LedgerTotals{}, err
	}

	return totals, nil
}

// MonthlyTotals returns per-month credit and debit sums for the latest
// months, oldest first.
func (d *LedgerDAO) MonthlyTotals(ctx context.Context, walletID string, months int) ([]MonthlyTotals, error) {
	var rows []MonthlyTotals

	err := d.db.WithContext(ctx).Model(&LedgerEntry{}).
		Select(`TO_CHAR(created_at, 'YYYY-MM') AS month,
			COALESCE(SUM(CASE WHEN type = ? THEN amount ELSE 0 END), 0) AS credits,
			COALESCE(SUM(CASE WHEN type = ? THEN amount ELSE 0 END), 0) AS debits`, EntryCredit, EntryDebit).
		Where("wallet_id = ?", walletID).
		Group("month").
		Order("month DESC").
		Limit(months).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	for i, j := 0, len(rows)-1; i < j; i, j = i+1, j-1 {
		rows[i], rows[j] = rows[j], rows[i]
	}

	return rows, nil
}
