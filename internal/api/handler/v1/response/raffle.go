package response

import (
	"time"

	"github.com/vietanh2810/class-treasury-api/internal/domain"
)

// PublicRaffle is an open raffle as shown to visitors. It carries no
// participant identities.
type PublicRaffle struct {
	ID               string              `json:"id"`
	Title            string              `json:"title"`
	Description      *string             `json:"description,omitempty"`
	Status           domain.RaffleStatus `json:"status"`
	DrawDate         *time.Time          `json:"draw_date,omitempty"`
	ParticipantCount int64               `json:"participant_count"`
	CreatedAt        time.Time           `json:"created_at"`
}

func NewPublicRaffles(raffles []domain.Raffle) []PublicRaffle {
	result := make([]PublicRaffle, 0, len(raffles))
	for _, r := range raffles {
		result = append(result, PublicRaffle{
			ID:               r.ID,
			Title:            r.Title,
			Description:      r.Description,
			Status:           r.Status,
			DrawDate:         r.DrawDate,
			ParticipantCount: r.ParticipantCount,
			CreatedAt:        r.CreatedAt,
		})
	}

	return result
}
