package domain

import "time"

type RaffleStatus string

const (
	RaffleOpen      RaffleStatus = "OPEN"
	RaffleClosed    RaffleStatus = "CLOSED"
	RaffleCancelled RaffleStatus = "CANCELLED"
)

type Raffle struct {
	ID               string              `json:"id"`
	Title            string              `json:"title"`
	Description      *string             `json:"description,omitempty"`
	Status           RaffleStatus        `json:"status"`
	DrawDate         *time.Time          `json:"draw_date,omitempty"`
	Participants     []RaffleParticipant `json:"participants,omitempty"`
	ParticipantCount int64               `json:"participant_count"`
	Draw             *RaffleDraw         `json:"draw,omitempty"`
	CreatedAt        time.Time           `json:"created_at"`
	UpdatedAt        time.Time           `json:"updated_at"`
}

func (r Raffle) IsOpen() bool {
	return r.Status == RaffleOpen
}

type RaffleParticipant struct {
	ID        string    `json:"id"`
	RaffleID  string    `json:"raffle_id"`
	StudentID string    `json:"student_id"`
	Tickets   int64     `json:"tickets"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// RaffleDraw is the fairness record of a raffle. At most one exists per
// raffle and it is never modified.
type RaffleDraw struct {
	ID           string    `json:"id"`
	RaffleID     string    `json:"raffle_id"`
	WinnerID     string    `json:"winner_id"`
	Seed         string    `json:"seed"`
	TicketIndex  int64     `json:"ticket_index"`
	TotalTickets int64     `json:"total_tickets"`
	Hash         string    `json:"hash"`
	CreatedAt    time.Time `json:"created_at"`
}

type NewRaffle struct {
	ID          string
	Title       string
	Description *string
	DrawDate    *time.Time
}

type DrawResult struct {
	Draw RaffleDraw `json:"draw"`
	Seed string     `json:"seed"`
	Hash string     `json:"hash"`
}

type DrawVerification struct {
	RaffleID       string `json:"raffle_id"`
	StoredWinnerID string `json:"stored_winner_id"`
	ComputedWinner string `json:"computed_winner_id"`
	StoredIndex    int64  `json:"stored_index"`
	ComputedIndex  int64  `json:"computed_index"`
	StoredHash     string `json:"stored_hash"`
	ComputedHash   string `json:"computed_hash"`
	TotalTickets   int64  `json:"total_tickets"`
	Valid          bool   `json:"valid"`
}
