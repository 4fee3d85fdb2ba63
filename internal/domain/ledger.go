package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type EntryType string

const (
	EntryCredit   EntryType = "CREDIT"
	EntryDebit    EntryType = "DEBIT"
	EntryReversal EntryType = "REVERSAL"
)

// ReversalPrefix is prepended to the description of the entry being reversed.
const ReversalPrefix = "REVERSAL: "

// ReferenceReversal is the reference type of every reversal entry. Credits
// may not claim it.
const ReferenceReversal = "REVERSAL"

// MaxAmount is the largest amount a single entry can carry, bounded by the
// numeric(14,2) amount column.
var MaxAmount = decimal.RequireFromString("999999999999.99")

type Wallet struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
}

// LedgerEntry is an immutable monetary fact recorded against the wallet.
type LedgerEntry struct {
	ID            string          `json:"id"`
	WalletID      string          `json:"wallet_id"`
	Type          EntryType       `json:"type"`
	Amount        decimal.Decimal `json:"amount"`
	Description   string          `json:"description"`
	StudentID     *string         `json:"student_id,omitempty"`
	ReferenceID   *string         `json:"reference_id,omitempty"`
	ReferenceType *string         `json:"reference_type,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
}

// BalanceEffect returns the signed contribution of the entry to the wallet
// balance. Reversals are record-only annotations and contribute nothing.
func (e LedgerEntry) BalanceEffect() decimal.Decimal {
	switch e.Type {
	case EntryCredit:
		return e.Amount
	case EntryDebit:
		return e.Amount.Neg()
	default:
		return decimal.Zero
	}
}

type CreditInput struct {
	Amount        decimal.Decimal
	Description   string
	StudentID     *string
	ReferenceID   *string
	ReferenceType *string
}

type DebitInput struct {
	Amount      decimal.Decimal
	Description string
}

type MonthlyTotals struct {
	Month   string          `json:"month"`
	Credits decimal.Decimal `json:"credits"`
	Debits  decimal.Decimal `json:"debits"`
}

type WalletSummary struct {
	Wallet
	Balance       decimal.Decimal `json:"balance"`
	TotalCredits  decimal.Decimal `json:"total_credits"`
	TotalDebits   decimal.Decimal `json:"total_debits"`
	TotalReversed decimal.Decimal `json:"total_reversed"`
	EntryCount    int64           `json:"entry_count"`
	Monthly       []MonthlyTotals `json:"monthly"`
}

type LedgerTotals struct {
	Credits  decimal.Decimal
	Debits   decimal.Decimal
	Reversed decimal.Decimal
	Count    int64
}
