package repository

import (
	"context"
	"fmt"

	"github.com/vietanh2810/class-treasury-api/internal/domain"
	"github.com/vietanh2810/class-treasury-api/internal/repository/dao"
)

var (
	ErrRaffleNotFound     = dao.ErrRaffleNotFound
	ErrRaffleNotOpen      = dao.ErrRaffleNotOpen
	ErrRaffleAlreadyDrawn = dao.ErrRaffleAlreadyDrawn
	ErrNoParticipants     = dao.ErrNoParticipants
	ErrDrawNotFound       = dao.ErrDrawNotFound
)

type RaffleDAO interface {
	Insert(ctx context.Context, raffle dao.Raffle, audit dao.AuditLog) (dao.Raffle, error)
	FindByID(ctx context.Context, id string) (dao.Raffle, error)
	List(ctx context.Context, status dao.RaffleStatus) ([]dao.Raffle, error)
	ListWithCounts(ctx context.Context, status dao.RaffleStatus) ([]dao.RaffleWithCount, error)
	UpsertParticipant(ctx context.Context, participant dao.RaffleParticipant, audit dao.AuditLog) (dao.RaffleParticipant, error)
	Draw(ctx context.Context, raffleID string, pick dao.DrawFunc) (dao.RaffleDraw, error)
	Cancel(ctx context.Context, raffleID string, audit dao.AuditLog) (dao.Raffle, error)
	FindDraw(ctx context.Context, raffleID string) (dao.RaffleDraw, []dao.RaffleParticipant, error)
}

// DrawPicker chooses the winner inside the draw transaction. It receives the
// locked raffle and its participants ordered by student id.
type DrawPicker func(raffle domain.Raffle, participants []domain.RaffleParticipant) (domain.RaffleDraw, domain.AuditLog, error)

type RaffleRepository struct {
	dao RaffleDAO
}

func NewRaffleRepository(dao RaffleDAO) *RaffleRepository {
	return &RaffleRepository{
		dao: dao,
	}
}

func (r *RaffleRepository) raffleDaoToDomain(raffle dao.Raffle) domain.Raffle {
	result := domain.Raffle{
		ID:               raffle.ID,
		Title:            raffle.Title,
		Description:      raffle.Description,
		Status:           domain.RaffleStatus(raffle.Status),
		DrawDate:         raffle.DrawDate,
		ParticipantCount: int64(len(raffle.Participants)),
		CreatedAt:        raffle.CreatedAt,
		UpdatedAt:        raffle.UpdatedAt,
	}

	if len(raffle.Participants) > 0 {
		result.Participants = r.participantsDaoToDomain(raffle.Participants)
	}

	if raffle.Draw != nil {
		draw := r.drawDaoToDomain(*raffle.Draw)
		result.Draw = &draw
	}

	return result
}

func (r *RaffleRepository) participantDaoToDomain(p dao.RaffleParticipant) domain.RaffleParticipant {
	return domain.RaffleParticipant{
		ID:        p.ID,
		RaffleID:  p.RaffleID,
		StudentID: p.StudentID,
		Tickets:   p.Tickets,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}

func (r *RaffleRepository) participantsDaoToDomain(participants []dao.RaffleParticipant) []domain.RaffleParticipant {
	result := make([]domain.RaffleParticipant, len(participants))
	for i, p := range participants {
		result[i] = r.participantDaoToDomain(p)
	}
	return result
}

func (r *RaffleRepository) drawDaoToDomain(d dao.RaffleDraw) domain.RaffleDraw {
	return domain.RaffleDraw{
		ID:           d.ID,
		RaffleID:     d.RaffleID,
		WinnerID:     d.WinnerID,
		Seed:         d.Seed,
		TicketIndex:  d.TicketIndex,
		TotalTickets: d.TotalTickets,
		Hash:         d.Hash,
		CreatedAt:    d.CreatedAt,
	}
}

func (r *RaffleRepository) drawDomainToDao(d domain.RaffleDraw) dao.RaffleDraw {
	return dao.RaffleDraw{
		ID:           d.ID,
		RaffleID:     d.RaffleID,
		WinnerID:     d.WinnerID,
		Seed:         d.Seed,
		TicketIndex:  d.TicketIndex,
		TotalTickets: d.TotalTickets,
		Hash:         d.Hash,
		CreatedAt:    d.CreatedAt,
	}
}

func (r *RaffleRepository) Create(ctx context.Context, raffle domain.NewRaffle, audit domain.AuditLog) (domain.Raffle, error) {
	daoAudit, err := auditDomainToDao(audit)
	if err != nil {
		return domain.Raffle{}, err
	}

	created, err := r.dao.Insert(ctx, dao.Raffle{
		ID:          raffle.ID,
		Title:       raffle.Title,
		Description: raffle.Description,
		Status:      dao.RaffleOpen,
		DrawDate:    raffle.DrawDate,
	}, daoAudit)
	if err != nil {
		return domain.Raffle{}, fmt.Errorf("r.dao.Insert -> %w", err)
	}

	return r.raffleDaoToDomain(created), nil
}

func (r *RaffleRepository) GetByID(ctx context.Context, id string) (domain.Raffle, error) {
	raffle, err := r.dao.FindByID(ctx, id)
	if err != nil {
		return domain.Raffle{}, fmt.Errorf("r.dao.FindByID -> %w", err)
	}

	return r.raffleDaoToDomain(raffle), nil
}

func (r *RaffleRepository) List(ctx context.Context, status domain.RaffleStatus) ([]domain.Raffle, error) {
	raffles, err := r.dao.List(ctx, dao.RaffleStatus(status))
	if err != nil {
		return nil, fmt.Errorf("r.dao.List -> %w", err)
	}

	result := make([]domain.Raffle, len(raffles))
	for i, raffle := range raffles {
		result[i] = r.raffleDaoToDomain(raffle)
	}

	return result, nil
}

// ListSummaries returns raffles without participant rows, only their count.
func (r *RaffleRepository) ListSummaries(ctx context.Context, status domain.RaffleStatus) ([]domain.Raffle, error) {
	rows, err := r.dao.ListWithCounts(ctx, dao.RaffleStatus(status))
	if err != nil {
		return nil, fmt.Errorf("r.dao.ListWithCounts -> %w", err)
	}

	result := make([]domain.Raffle, len(rows))
	for i, row := range rows {
		result[i] = r.raffleDaoToDomain(row.Raffle)
		result[i].ParticipantCount = row.ParticipantCount
	}

	return result, nil
}

func (r *RaffleRepository) AddParticipant(ctx context.Context, participant domain.RaffleParticipant, audit domain.AuditLog) (domain.RaffleParticipant, error) {
	daoAudit, err := auditDomainToDao(audit)
	if err != nil {
		return domain.RaffleParticipant{}, err
	}

	stored, err := r.dao.UpsertParticipant(ctx, dao.RaffleParticipant{
		RaffleID:  participant.RaffleID,
		StudentID: participant.StudentID,
		Tickets:   participant.Tickets,
	}, daoAudit)
	if err != nil {
		return domain.RaffleParticipant{}, fmt.Errorf("r.dao.UpsertParticipant -> %w", err)
	}

	return r.participantDaoToDomain(stored), nil
}

func (r *RaffleRepository) Draw(ctx context.Context, raffleID string, pick DrawPicker) (domain.RaffleDraw, error) {
	draw, err := r.dao.Draw(ctx, raffleID, func(raffle dao.Raffle, participants []dao.RaffleParticipant) (dao.RaffleDraw, dao.AuditLog, error) {
		picked, audit, err := pick(r.raffleDaoToDomain(raffle), r.participantsDaoToDomain(participants))
		if err != nil {
			return dao.RaffleDraw{}, dao.AuditLog{}, err
		}

		daoAudit, err := auditDomainToDao(audit)
		if err != nil {
			return dao.RaffleDraw{}, dao.AuditLog{}, err
		}

		return r.drawDomainToDao(picked), daoAudit, nil
	})
	if err != nil {
		return domain.RaffleDraw{}, fmt.Errorf("r.dao.Draw -> %w", err)
	}

	return r.drawDaoToDomain(draw), nil
}

func (r *RaffleRepository) Cancel(ctx context.Context, raffleID string, audit domain.AuditLog) (domain.Raffle, error) {
	daoAudit, err := auditDomainToDao(audit)
	if err != nil {
		return domain.Raffle{}, err
	}

	raffle, err := r.dao.Cancel(ctx, raffleID, daoAudit)
	if err != nil {
		return domain.Raffle{}, fmt.Errorf("r.dao.Cancel -> %w", err)
	}

	return r.raffleDaoToDomain(raffle), nil
}

func (r *RaffleRepository) GetDraw(ctx context.Context, raffleID string) (domain.RaffleDraw, []domain.RaffleParticipant, error) {
	draw, participants, err := r.dao.FindDraw(ctx, raffleID)
	if err != nil {
		return domain.RaffleDraw{}, nil, fmt.Errorf("r.dao.FindDraw -> %w", err)
	}

	return r.drawDaoToDomain(draw), r.participantsDaoToDomain(participants), nil
}
