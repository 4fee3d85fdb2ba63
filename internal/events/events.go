// Package events carries committed audit records to downstream consumers.
// Publishing happens after the database commit and is best-effort: the audit
// table stays the source of truth.
package events

import (
	"context"
	"time"
)

const TopicAudit = "treasury.audit"

// AuditRecorded is the payload published for every committed audit record.
type AuditRecorded struct {
	ID            string         `json:"id"`
	ActorID       string         `json:"actor_id"`
	Action        string         `json:"action"`
	Module        string         `json:"module"`
	Severity      string         `json:"severity"`
	Details       map[string]any `json:"details"`
	SourceAddress string         `json:"source_address"`
	OccurredAt    time.Time      `json:"occurred_at"`
}

type Publisher interface {
	Publish(ctx context.Context, key string, event any) error
	Close() error
}

// NopPublisher drops every event. It is used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, string, any) error { return nil }

func (NopPublisher) Close() error { return nil }
