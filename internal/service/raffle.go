package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/vietanh2810/class-treasury-api/internal/domain"
	"github.com/vietanh2810/class-treasury-api/internal/pkg/drawproof"
	"github.com/vietanh2810/class-treasury-api/internal/repository"
)

var (
	ErrRaffleNotFound     = repository.ErrRaffleNotFound
	ErrRaffleNotOpen      = repository.ErrRaffleNotOpen
	ErrRaffleAlreadyDrawn = repository.ErrRaffleAlreadyDrawn
	ErrNoParticipants     = repository.ErrNoParticipants
	ErrDrawNotFound       = repository.ErrDrawNotFound
)

type RaffleRepository interface {
	Create(ctx context.Context, raffle domain.NewRaffle, audit domain.AuditLog) (domain.Raffle, error)
	GetByID(ctx context.Context, id string) (domain.Raffle, error)
	List(ctx context.Context, status domain.RaffleStatus) ([]domain.Raffle, error)
	ListSummaries(ctx context.Context, status domain.RaffleStatus) ([]domain.Raffle, error)
	AddParticipant(ctx context.Context, participant domain.RaffleParticipant, audit domain.AuditLog) (domain.RaffleParticipant, error)
	Draw(ctx context.Context, raffleID string, pick repository.DrawPicker) (domain.RaffleDraw, error)
	Cancel(ctx context.Context, raffleID string, audit domain.AuditLog) (domain.Raffle, error)
	GetDraw(ctx context.Context, raffleID string) (domain.RaffleDraw, []domain.RaffleParticipant, error)
}

type RaffleService struct {
	repo   RaffleRepository
	audit  AuditAnnouncer
	random io.Reader
}

// NewRaffleService seeds draws from crypto/rand. Tests may swap random for a
// deterministic reader.
func NewRaffleService(repo RaffleRepository, audit AuditAnnouncer) *RaffleService {
	return &RaffleService{
		repo:   repo,
		audit:  audit,
		random: rand.Reader,
	}
}

func (s *RaffleService) CreateRaffle(ctx context.Context, actor domain.Actor, in domain.NewRaffle) (domain.Raffle, error) {
	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" {
		return domain.Raffle{}, fmt.Errorf("%w: title is required", ErrInvalidInput)
	}
	in.ID = newID()

	audit := newAuditLog(actor, domain.ActionRaffleCreate, domain.ModuleRaffles, domain.SeverityInfo, map[string]any{
		"raffle_id": in.ID,
		"title":     in.Title,
	})

	raffle, err := s.repo.Create(ctx, in, audit)
	if err != nil {
		return domain.Raffle{}, fmt.Errorf("s.repo.Create -> %w", err)
	}

	s.audit.Announce(ctx, audit)

	return raffle, nil
}

// ListRaffles returns every raffle when status is empty.
func (s *RaffleService) ListRaffles(ctx context.Context, status domain.RaffleStatus) ([]domain.Raffle, error) {
	raffles, err := s.repo.List(ctx, status)
	if err != nil {
		return nil, fmt.Errorf("s.repo.List -> %w", err)
	}

	return raffles, nil
}

func (s *RaffleService) ListOpenRaffles(ctx context.Context) ([]domain.Raffle, error) {
	raffles, err := s.repo.ListSummaries(ctx, domain.RaffleOpen)
	if err != nil {
		return nil, fmt.Errorf("s.repo.ListSummaries -> %w", err)
	}

	return raffles, nil
}

func (s *RaffleService) GetRaffle(ctx context.Context, id string) (domain.Raffle, error) {
	raffle, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return domain.Raffle{}, fmt.Errorf("s.repo.GetByID -> %w", err)
	}

	return raffle, nil
}

// AddParticipant adds tickets to the student's entry, creating it on first
// call.
func (s *RaffleService) AddParticipant(ctx context.Context, actor domain.Actor, raffleID, studentID string, tickets int64) (domain.RaffleParticipant, error) {
	if tickets < 1 {
		return domain.RaffleParticipant{}, fmt.Errorf("%w: tickets must be a positive integer", ErrInvalidInput)
	}
	if strings.TrimSpace(studentID) == "" {
		return domain.RaffleParticipant{}, fmt.Errorf("%w: student id is required", ErrInvalidInput)
	}

	audit := newAuditLog(actor, domain.ActionRaffleEntry, domain.ModuleRaffles, domain.SeverityInfo, map[string]any{
		"raffle_id":  raffleID,
		"student_id": studentID,
		"tickets":    tickets,
	})

	participant, err := s.repo.AddParticipant(ctx, domain.RaffleParticipant{
		RaffleID:  raffleID,
		StudentID: studentID,
		Tickets:   tickets,
	}, audit)
	if err != nil {
		return domain.RaffleParticipant{}, fmt.Errorf("s.repo.AddParticipant -> %w", err)
	}

	s.audit.Announce(ctx, audit)

	return participant, nil
}

// Draw closes the raffle and picks one winner weighted by ticket count. The
// returned seed and hash let anyone replay the selection.
func (s *RaffleService) Draw(ctx context.Context, actor domain.Actor, raffleID string) (domain.DrawResult, error) {
	var audit domain.AuditLog

	draw, err := s.repo.Draw(ctx, raffleID, func(raffle domain.Raffle, participants []domain.RaffleParticipant) (domain.RaffleDraw, domain.AuditLog, error) {
		pool, err := drawproof.NewPool(toEntries(participants))
		if err != nil {
			return domain.RaffleDraw{}, domain.AuditLog{}, fmt.Errorf("drawproof.NewPool -> %w", err)
		}

		proof, err := drawproof.Select(s.random, raffle.ID, pool)
		if err != nil {
			return domain.RaffleDraw{}, domain.AuditLog{}, fmt.Errorf("drawproof.Select -> %w", err)
		}

		audit = newAuditLog(actor, domain.ActionRaffleDraw, domain.ModuleRaffles, domain.SeverityCritical, map[string]any{
			"raffle_id":     raffle.ID,
			"winner_id":     proof.WinnerID,
			"hash":          proof.Hash,
			"ticket_index":  proof.Index,
			"total_tickets": proof.Total,
		})

		return domain.RaffleDraw{
			ID:           newID(),
			RaffleID:     raffle.ID,
			WinnerID:     proof.WinnerID,
			Seed:         proof.Seed,
			TicketIndex:  proof.Index,
			TotalTickets: proof.Total,
			Hash:         proof.Hash,
			CreatedAt:    time.Now().UTC(),
		}, audit, nil
	})
	if err != nil {
		return domain.DrawResult{}, fmt.Errorf("s.repo.Draw -> %w", err)
	}

	zap.L().Info("raffle drawn",
		zap.String("raffle_id", raffleID),
		zap.String("winner_id", draw.WinnerID),
		zap.Int64("total_tickets", draw.TotalTickets))

	s.audit.Announce(ctx, audit)

	return domain.DrawResult{
		Draw: draw,
		Seed: draw.Seed,
		Hash: draw.Hash,
	}, nil
}

func (s *RaffleService) Cancel(ctx context.Context, actor domain.Actor, raffleID string) (domain.Raffle, error) {
	audit := newAuditLog(actor, domain.ActionRaffleCancel, domain.ModuleRaffles, domain.SeverityWarning, map[string]any{
		"raffle_id": raffleID,
	})

	raffle, err := s.repo.Cancel(ctx, raffleID, audit)
	if err != nil {
		return domain.Raffle{}, fmt.Errorf("s.repo.Cancel -> %w", err)
	}

	s.audit.Announce(ctx, audit)

	return raffle, nil
}

// VerifyDraw replays the stored draw against the stored participant set.
func (s *RaffleService) VerifyDraw(ctx context.Context, raffleID string) (domain.DrawVerification, error) {
	draw, participants, err := s.repo.GetDraw(ctx, raffleID)
	if err != nil {
		return domain.DrawVerification{}, fmt.Errorf("s.repo.GetDraw -> %w", err)
	}

	result := domain.DrawVerification{
		RaffleID:       raffleID,
		StoredWinnerID: draw.WinnerID,
		StoredIndex:    draw.TicketIndex,
		StoredHash:     draw.Hash,
		TotalTickets:   draw.TotalTickets,
	}

	pool, err := drawproof.NewPool(toEntries(participants))
	if err != nil {
		if errors.Is(err, drawproof.ErrEmptyPool) {
			return result, nil
		}
		return domain.DrawVerification{}, fmt.Errorf("drawproof.NewPool -> %w", err)
	}

	proof, err := drawproof.Recompute(raffleID, draw.Seed, pool)
	if err != nil {
		return domain.DrawVerification{}, fmt.Errorf("drawproof.Recompute -> %w", err)
	}

	result.ComputedWinner = proof.WinnerID
	result.ComputedIndex = proof.Index
	result.ComputedHash = proof.Hash
	result.TotalTickets = proof.Total
	result.Valid = proof.WinnerID == draw.WinnerID &&
		proof.Index == draw.TicketIndex &&
		proof.Hash == draw.Hash &&
		proof.Total == draw.TotalTickets

	return result, nil
}

func toEntries(participants []domain.RaffleParticipant) []drawproof.Entry {
	entries := make([]drawproof.Entry, 0, len(participants))
	for _, p := range participants {
		entries = append(entries, drawproof.Entry{StudentID: p.StudentID, Tickets: p.Tickets})
	}

	return entries
}
