package response

import "github.com/vietanh2810/class-treasury-api/internal/domain"

type AuditPage struct {
	Logs  []domain.AuditLog `json:"logs"`
	Total int64             `json:"total"`
}
