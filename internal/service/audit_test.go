package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/vietanh2810/class-treasury-api/internal/domain"
	"github.com/vietanh2810/class-treasury-api/internal/events"
)

func TestAuditService_Record(t *testing.T) {
	ctx := context.Background()
	repo := &mockAuditRepo{}
	publisher := &mockPublisher{}
	svc := NewAuditService(repo, publisher)

	repo.On("Create", ctx, mock.MatchedBy(func(l domain.AuditLog) bool {
		return l.ID != "" && !l.CreatedAt.IsZero() && l.Action == "EXPORT"
	})).Return(domain.AuditLog{ID: "audit-1", Action: "EXPORT", Module: domain.ModuleFinance}, nil)
	publisher.On("Publish", mock.Anything, domain.ModuleFinance, mock.MatchedBy(func(e events.AuditRecorded) bool {
		return e.ID == "audit-1" && e.Action == "EXPORT"
	})).Return(nil)

	log, err := svc.Record(ctx, domain.AuditLog{Action: "EXPORT", Module: domain.ModuleFinance, Severity: domain.SeverityInfo})
	require.NoError(t, err)
	assert.Equal(t, "audit-1", log.ID)
	repo.AssertExpectations(t)
	publisher.AssertExpectations(t)
}

func TestAuditService_Record_StoreFailure(t *testing.T) {
	ctx := context.Background()
	repo := &mockAuditRepo{}
	publisher := &mockPublisher{}
	svc := NewAuditService(repo, publisher)

	repo.On("Create", ctx, mock.Anything).Return(domain.AuditLog{}, errors.New("connection reset"))

	_, err := svc.Record(ctx, domain.AuditLog{Action: "EXPORT"})
	assert.Error(t, err)
	publisher.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything)
}

func TestAuditService_Announce_PublishFailureIsSwallowed(t *testing.T) {
	publisher := &mockPublisher{}
	svc := NewAuditService(&mockAuditRepo{}, publisher)

	publisher.On("Publish", mock.Anything, domain.ModuleRaffles, mock.Anything).Return(errors.New("broker unavailable"))

	assert.NotPanics(t, func() {
		svc.Announce(context.Background(), domain.AuditLog{ID: "a", Module: domain.ModuleRaffles})
	})
	publisher.AssertExpectations(t)
}

func TestAuditService_Announce_SurvivesCancelledRequest(t *testing.T) {
	publisher := &mockPublisher{}
	svc := NewAuditService(&mockAuditRepo{}, publisher)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	publisher.On("Publish", mock.MatchedBy(func(c context.Context) bool {
		return c.Err() == nil
	}), domain.ModuleFinance, mock.Anything).Return(nil)

	svc.Announce(ctx, domain.AuditLog{ID: "a", Module: domain.ModuleFinance})
	publisher.AssertExpectations(t)
}

func TestAuditService_List(t *testing.T) {
	ctx := context.Background()
	repo := &mockAuditRepo{}
	svc := NewAuditService(repo, nil)

	logs := []domain.AuditLog{{ID: "b"}, {ID: "a"}}
	repo.On("List", ctx, domain.Page{Number: 1, Size: 50}).Return(logs, int64(2), nil)

	got, total, err := svc.List(ctx, domain.Page{})
	require.NoError(t, err)
	assert.Equal(t, logs, got)
	assert.Equal(t, int64(2), total)
}
