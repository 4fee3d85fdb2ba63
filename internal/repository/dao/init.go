package dao

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

func InitTables(db *gorm.DB) error {
	return db.AutoMigrate(
		&Wallet{},
		&LedgerEntry{},
		&Raffle{},
		&RaffleParticipant{},
		&RaffleDraw{},
		&AuditLog{},
	)
}

// newID returns a time-ordered id so that ties on created_at still sort in
// insertion order.
func newID() string {
	return uuid.Must(uuid.NewV7()).String()
}

func now() time.Time {
	return time.Now().UTC()
}
