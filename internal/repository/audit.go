package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"gorm.io/datatypes"

	"github.com/vietanh2810/class-treasury-api/internal/domain"
	"github.com/vietanh2810/class-treasury-api/internal/repository/dao"
)

type AuditDAO interface {
	Insert(ctx context.Context, log dao.AuditLog) (dao.AuditLog, error)
	List(ctx context.Context, offset, limit int) ([]dao.AuditLog, int64, error)
}

type AuditRepository struct {
	dao AuditDAO
}

func NewAuditRepository(dao AuditDAO) *AuditRepository {
	return &AuditRepository{
		dao: dao,
	}
}

func (r *AuditRepository) Create(ctx context.Context, log domain.AuditLog) (domain.AuditLog, error) {
	daoLog, err := auditDomainToDao(log)
	if err != nil {
		return domain.AuditLog{}, err
	}

	created, err := r.dao.Insert(ctx, daoLog)
	if err != nil {
		return domain.AuditLog{}, fmt.Errorf("r.dao.Insert -> %w", err)
	}

	return auditDaoToDomain(created), nil
}

func (r *AuditRepository) List(ctx context.Context, page domain.Page) ([]domain.AuditLog, int64, error) {
	logs, total, err := r.dao.List(ctx, page.Offset(), page.Size)
	if err != nil {
		return nil, 0, fmt.Errorf("r.dao.List -> %w", err)
	}

	result := make([]domain.AuditLog, len(logs))
	for i, l := range logs {
		result[i] = auditDaoToDomain(l)
	}

	return result, total, nil
}

func auditDomainToDao(log domain.AuditLog) (dao.AuditLog, error) {
	details := log.Details
	if details == nil {
		details = map[string]any{}
	}

	raw, err := json.Marshal(details)
	if err != nil {
		return dao.AuditLog{}, fmt.Errorf("json.Marshal audit details -> %w", err)
	}

	return dao.AuditLog{
		ID:            log.ID,
		ActorID:       log.ActorID,
		Action:        log.Action,
		Module:        log.Module,
		Details:       datatypes.JSON(raw),
		Severity:      string(log.Severity),
		SourceAddress: log.SourceAddress,
		CreatedAt:     log.CreatedAt,
	}, nil
}

func auditDaoToDomain(log dao.AuditLog) domain.AuditLog {
	details := map[string]any{}
	if len(log.Details) > 0 {
		// Rows are only ever written from a marshalled map.
		_ = json.Unmarshal(log.Details, &details)
	}

	return domain.AuditLog{
		ID:            log.ID,
		ActorID:       log.ActorID,
		Action:        log.Action,
		Module:        log.Module,
		Details:       details,
		Severity:      domain.Severity(log.Severity),
		SourceAddress: log.SourceAddress,
		CreatedAt:     log.CreatedAt,
	}
}
