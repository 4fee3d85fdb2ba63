package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/vietanh2810/class-treasury-api/internal/domain"
	"github.com/vietanh2810/class-treasury-api/internal/events"
)

const (
	defaultAuditPageSize = 50
	publishTimeout       = 3 * time.Second
)

type AuditRepository interface {
	Create(ctx context.Context, log domain.AuditLog) (domain.AuditLog, error)
	List(ctx context.Context, page domain.Page) ([]domain.AuditLog, int64, error)
}

// AuditAnnouncer forwards committed audit records to the event stream.
type AuditAnnouncer interface {
	Announce(ctx context.Context, log domain.AuditLog)
}

type AuditService struct {
	repo      AuditRepository
	publisher events.Publisher
}

func NewAuditService(repo AuditRepository, publisher events.Publisher) *AuditService {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}

	return &AuditService{
		repo:      repo,
		publisher: publisher,
	}
}

// Record appends log on its own. Engines that mutate state write their audit
// record inside their own transaction instead.
func (s *AuditService) Record(ctx context.Context, log domain.AuditLog) (domain.AuditLog, error) {
	if log.ID == "" {
		log.ID = newID()
	}
	if log.CreatedAt.IsZero() {
		log.CreatedAt = time.Now().UTC()
	}

	created, err := s.repo.Create(ctx, log)
	if err != nil {
		return domain.AuditLog{}, fmt.Errorf("s.repo.Create -> %w", err)
	}

	s.Announce(ctx, created)

	return created, nil
}

func (s *AuditService) List(ctx context.Context, page domain.Page) ([]domain.AuditLog, int64, error) {
	logs, total, err := s.repo.List(ctx, page.Normalize(defaultAuditPageSize))
	if err != nil {
		return nil, 0, fmt.Errorf("s.repo.List -> %w", err)
	}

	return logs, total, nil
}

// Announce publishes log after its transaction committed. Failures are logged
// and dropped.
func (s *AuditService) Announce(ctx context.Context, log domain.AuditLog) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	event := events.AuditRecorded{
		ID:            log.ID,
		ActorID:       log.ActorID,
		Action:        log.Action,
		Module:        log.Module,
		Severity:      string(log.Severity),
		Details:       log.Details,
		SourceAddress: log.SourceAddress,
		OccurredAt:    log.CreatedAt,
	}

	if err := s.publisher.Publish(ctx, log.Module, event); err != nil {
		zap.L().Warn("failed to publish audit event",
			zap.String("audit_id", log.ID),
			zap.String("action", log.Action),
			zap.Error(err))
	}
}

func newID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}

	return id.String()
}

func newAuditLog(actor domain.Actor, action, module string, severity domain.Severity, details map[string]any) domain.AuditLog {
	return domain.AuditLog{
		ID:            newID(),
		ActorID:       actor.ID,
		Action:        action,
		Module:        module,
		Details:       details,
		Severity:      severity,
		SourceAddress: actor.SourceAddress,
		CreatedAt:     time.Now().UTC(),
	}
}
