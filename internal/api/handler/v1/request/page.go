package request

import (
	validation "github.com/go-ozzo/ozzo-validation"

	"github.com/vietanh2810/class-treasury-api/internal/domain"
)

type PageQuery struct {
	Page  int `form:"page"`
	Limit int `form:"limit"`
}

func (q *PageQuery) Validate() error {
	return validation.ValidateStruct(
		q,
		validation.Field(&q.Page, validation.Min(1)),
		validation.Field(&q.Limit, validation.Min(1), validation.Max(domain.MaxPageSize)),
	)
}

func (q *PageQuery) ToDomain() domain.Page {
	return domain.Page{Number: q.Page, Size: q.Limit}
}
