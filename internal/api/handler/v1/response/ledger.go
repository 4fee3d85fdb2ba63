package response

import "github.com/vietanh2810/class-treasury-api/internal/domain"

type Balance struct {
	Balance string `json:"balance" example:"70.00"`
}

type LedgerPage struct {
	Entries []domain.LedgerEntry `json:"entries"`
	Total   int64                `json:"total"`
}

type PublicInfo struct {
	TotalRaised string `json:"totalRaised" example:"1520.00"`
}
