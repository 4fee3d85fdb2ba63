package request

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"

	"github.com/vietanh2810/class-treasury-api/internal/domain"
)

const (
	maxTitleLength             = 120
	maxRaffleDescriptionLength = 2000
	maxTicketsPerEntry         = 10000
)

type CreateRaffleRequest struct {
	Title       string     `json:"title" example:"Spring raffle"`
	Description *string    `json:"description,omitempty"`
	DrawDate    *time.Time `json:"draw_date,omitempty"`
}

func (req *CreateRaffleRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.Title, validation.Required, validation.Length(1, maxTitleLength)),
		validation.Field(&req.Description, validation.Length(0, maxRaffleDescriptionLength)),
	)
}

// AddParticipantRequest adds tickets to a student's entry. Tickets defaults to
// one when omitted.
type AddParticipantRequest struct {
	StudentID string `json:"student_id"`
	Tickets   *int64 `json:"tickets,omitempty" example:"1"`
}

func (req *AddParticipantRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.StudentID, validation.Required, validation.Length(1, maxStudentIDLength)),
		validation.Field(&req.Tickets, validation.NilOrNotEmpty, validation.Min(int64(1)), validation.Max(int64(maxTicketsPerEntry))),
	)
}

func (req *AddParticipantRequest) TicketCount() int64 {
	if req.Tickets == nil {
		return 1
	}
	return *req.Tickets
}

type ListRafflesQuery struct {
	Status string `form:"status"`
}

func (q *ListRafflesQuery) Validate() error {
	return validation.ValidateStruct(
		q,
		validation.Field(&q.Status, validation.In(
			string(domain.RaffleOpen),
			string(domain.RaffleClosed),
			string(domain.RaffleCancelled),
		)),
	)
}

// ValidateID checks a path identifier.
func ValidateID(id string) error {
	return validation.Validate(id, validation.Required, is.UUID)
}
