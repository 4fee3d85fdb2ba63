package dao

import (
	"context"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type AuditLog struct {
	ID            string         `gorm:"type:uuid;primaryKey"`
	ActorID       string         `gorm:"type:varchar(64);index"`
	Action        string         `gorm:"type:varchar(64);not null;index"`
	Module        string         `gorm:"type:varchar(32);not null"`
	Details       datatypes.JSON `gorm:"type:jsonb;not null"`
	Severity      string         `gorm:"type:varchar(16);not null;check:chk_audit_logs_severity,severity IN ('INFO','WARNING','CRITICAL')"`
	SourceAddress string         `gorm:"type:varchar(64)"`
	CreatedAt     time.Time      `gorm:"not null;index"`
}

func (a *AuditLog) BeforeCreate(*gorm.DB) error {
	if a.ID == "" {
		a.ID = newID()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = now()
	}
	if len(a.Details) == 0 {
		a.Details = datatypes.JSON("{}")
	}
	return nil
}

type AuditDAO struct {
	db *gorm.DB
}

func NewAuditDAO(db *gorm.DB) *AuditDAO {
	return &AuditDAO{
		db: db,
	}
}

func (d *AuditDAO) Insert(ctx context.Context, log AuditLog) (AuditLog, error) {
	if err := insertAudit(d.db.WithContext(ctx), &log); err != nil {
		return AuditLog{}, err
	}

	return log, nil
}

func (d *AuditDAO) List(ctx context.Context, offset, limit int) ([]AuditLog, int64, error) {
	var total int64
	if err := d.db.WithContext(ctx).Model(&AuditLog{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var logs []AuditLog
	result := d.db.WithContext(ctx).
		Order("created_at DESC").
		Order("id DESC").
		Offset(offset).
		Limit(limit).
		Find(&logs)
	if result.Error != nil {
		return nil, 0, result.Error
	}

	return logs, total, nil
}

// insertAudit appends log through tx, so the record commits or rolls back
// together with the mutation it describes.
func insertAudit(tx *gorm.DB, log *AuditLog) error {
	return tx.Create(log).Error
}
