package domain

import "time"

type Severity string

const (
	SeverityInfo     Severity = "INFO"
	SeverityWarning  Severity = "WARNING"
	SeverityCritical Severity = "CRITICAL"
)

const (
	ModuleFinance = "Finance"
	ModuleRaffles = "Raffles"
)

const (
	ActionLedgerCredit   = "LEDGER_CREDIT"
	ActionLedgerDebit    = "LEDGER_DEBIT"
	ActionLedgerReversal = "LEDGER_REVERSAL"
	ActionRaffleCreate   = "RAFFLE_CREATE"
	ActionRaffleEntry    = "RAFFLE_PARTICIPANT"
	ActionRaffleDraw     = "RAFFLE_DRAW"
	ActionRaffleCancel   = "RAFFLE_CANCEL"
)

type AuditLog struct {
	ID            string         `json:"id"`
	ActorID       string         `json:"actor_id"`
	Action        string         `json:"action"`
	Module        string         `json:"module"`
	Details       map[string]any `json:"details"`
	Severity      Severity       `json:"severity"`
	SourceAddress string         `json:"source_address"`
	CreatedAt     time.Time      `json:"created_at"`
}

// Actor is whoever triggered a mutation, as seen by the audit trail.
type Actor struct {
	ID            string
	Role          string
	SourceAddress string
}
