package dao

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrRaffleNotFound     = errors.New("raffle not found")
	ErrRaffleNotOpen      = errors.New("raffle is not open")
	ErrRaffleAlreadyDrawn = errors.New("raffle already drawn")
	ErrNoParticipants     = errors.New("raffle has no participants")
	ErrDrawNotFound       = errors.New("raffle draw not found")
)

const uniqRaffleDraw = "uniq_raffle_draws_raffle"

type RaffleStatus string

const (
	RaffleOpen      RaffleStatus = "OPEN"
	RaffleClosed    RaffleStatus = "CLOSED"
	RaffleCancelled RaffleStatus = "CANCELLED"
)

type Raffle struct {
	ID           string       `gorm:"type:uuid;primaryKey"`
	Title        string       `gorm:"type:varchar(120);not null"`
	Description  *string      `gorm:"type:text"`
	Status       RaffleStatus `gorm:"type:varchar(16);not null;default:OPEN;index;check:chk_raffles_status,status IN ('OPEN','CLOSED','CANCELLED')"`
	DrawDate     *time.Time
	Participants []RaffleParticipant `gorm:"foreignKey:RaffleID;constraint:OnDelete:RESTRICT"`
	Draw         *RaffleDraw         `gorm:"foreignKey:RaffleID;constraint:OnDelete:RESTRICT"`
	CreatedAt    time.Time           `gorm:"not null"`
	UpdatedAt    time.Time           `gorm:"not null"`
}

func (r *Raffle) BeforeCreate(*gorm.DB) error {
	if r.ID == "" {
		r.ID = newID()
	}
	if r.Status == "" {
		r.Status = RaffleOpen
	}
	return nil
}

type RaffleParticipant struct {
	ID        string    `gorm:"type:uuid;primaryKey"`
	RaffleID  string    `gorm:"type:uuid;not null;uniqueIndex:uniq_raffle_participants_raffle_student,priority:1"`
	StudentID string    `gorm:"type:varchar(64);not null;uniqueIndex:uniq_raffle_participants_raffle_student,priority:2"`
	Tickets   int64     `gorm:"not null;check:chk_raffle_participants_tickets,tickets >= 1"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

func (p *RaffleParticipant) BeforeCreate(*gorm.DB) error {
	if p.ID == "" {
		p.ID = newID()
	}
	return nil
}

type RaffleDraw struct {
	ID           string    `gorm:"type:uuid;primaryKey"`
	RaffleID     string    `gorm:"type:uuid;not null;uniqueIndex:uniq_raffle_draws_raffle"`
	WinnerID     string    `gorm:"type:varchar(64);not null"`
	Seed         string    `gorm:"type:char(64);not null"`
	TicketIndex  int64     `gorm:"not null"`
	TotalTickets int64     `gorm:"not null"`
	Hash         string    `gorm:"type:char(64);not null"`
	CreatedAt    time.Time `gorm:"not null"`
}

func (d *RaffleDraw) BeforeCreate(*gorm.DB) error {
	if d.ID == "" {
		d.ID = newID()
	}
	if d.CreatedAt.IsZero() {
		d.CreatedAt = now()
	}
	return nil
}

// RaffleWithCount is a raffle row plus its number of participants.
type RaffleWithCount struct {
	Raffle
	ParticipantCount int64
}

// DrawFunc picks the winner from the participants of an open, undrawn raffle
// and returns the draw record and the audit record to store with it. It runs
// inside the draw transaction and must not touch the database.
type DrawFunc func(raffle Raffle, participants []RaffleParticipant) (RaffleDraw, AuditLog, error)

type RaffleDAO struct {
	db *gorm.DB
}

func NewRaffleDAO(db *gorm.DB) *RaffleDAO {
	return &RaffleDAO{
		db: db,
	}
}

func (d *RaffleDAO) Insert(ctx context.Context, raffle Raffle, audit AuditLog) (Raffle, error) {
	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&raffle).Error; err != nil {
			return err
		}

		return insertAudit(tx, &audit)
	})
	if err != nil {
		return Raffle{}, err
	}

	return raffle, nil
}

func (d *RaffleDAO) FindByID(ctx context.Context, id string) (Raffle, error) {
	var raffle Raffle

	result := d.db.WithContext(ctx).
		Preload("Participants", func(db *gorm.DB) *gorm.DB {
			return db.Order("student_id")
		}).
		Preload("Draw").
		Take(&raffle, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return Raffle{}, ErrRaffleNotFound
		}

		return Raffle{}, result.Error
	}

	return raffle, nil
}

// List returns raffles newest first, optionally filtered by status.
func (d *RaffleDAO) List(ctx context.Context, status RaffleStatus) ([]Raffle, error) {
	db := d.db.WithContext(ctx).
		Preload("Participants", func(db *gorm.DB) *gorm.DB {
			return db.Order("student_id")
		}).
		Preload("Draw").
		Order("created_at DESC").
		Order("id DESC")
	if status != "" {
		db = db.Where("status = ?", status)
	}

	var raffles []Raffle
	if err := db.Find(&raffles).Error; err != nil {
		return nil, err
	}

	return raffles, nil
}

func (d *RaffleDAO) ListWithCounts(ctx context.Context, status RaffleStatus) ([]RaffleWithCount, error) {
	db := d.db.WithContext(ctx).Model(&Raffle{}).
		Select("raffles.*, (SELECT COUNT(*) FROM raffle_participants rp WHERE rp.raffle_id = raffles.id) AS participant_count").
		Order("raffles.created_at DESC").
		Order("raffles.id DESC")
	if status != "" {
		db = db.Where("raffles.status = ?", status)
	}

	var rows []RaffleWithCount
	if err := db.Scan(&rows).Error; err != nil {
		return nil, err
	}

	return rows, nil
}

// lockRaffle reads the raffle row under a row lock held until tx ends.
// Participant inserts take SHARE, state transitions take UPDATE, so no
// participant can be added once a draw has locked the raffle.
func lockRaffle(tx *gorm.DB, id, strength string) (Raffle, error) {
	var raffle Raffle

	result := tx.Clauses(clause.Locking{Strength: strength}).Take(&raffle, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return Raffle{}, ErrRaffleNotFound
		}

		return Raffle{}, result.Error
	}

	return raffle, nil
}

// UpsertParticipant adds tickets to the (raffle, student) row, creating it on
// first entry, in a single statement.
func (d *RaffleDAO) UpsertParticipant(ctx context.Context, participant RaffleParticipant, audit AuditLog) (RaffleParticipant, error) {
	var stored RaffleParticipant

	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		raffle, err := lockRaffle(tx, participant.RaffleID, "SHARE")
		if err != nil {
			return err
		}
		if raffle.Status != RaffleOpen {
			return ErrRaffleNotOpen
		}

		ts := now()
		participant.CreatedAt = ts
		participant.UpdatedAt = ts

		err = tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "raffle_id"}, {Name: "student_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"tickets":    gorm.Expr("raffle_participants.tickets + EXCLUDED.tickets"),
				"updated_at": gorm.Expr("EXCLUDED.updated_at"),
			}),
		}).Create(&participant).Error
		if err != nil {
			return err
		}

		result := tx.Take(&stored, "raffle_id = ? AND student_id = ?", participant.RaffleID, participant.StudentID)
		if result.Error != nil {
			return result.Error
		}

		return insertAudit(tx, &audit)
	})
	if err != nil {
		return RaffleParticipant{}, err
	}

	return stored, nil
}

// Draw runs pick against the frozen participant set and persists the draw,
// the CLOSED status and the audit record as one unit.
func (d *RaffleDAO) Draw(ctx context.Context, raffleID string, pick DrawFunc) (RaffleDraw, error) {
	var draw RaffleDraw

	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		raffle, err := lockRaffle(tx, raffleID, "UPDATE")
		if err != nil {
			return err
		}

		var drawn int64
		if err = tx.Model(&RaffleDraw{}).Where("raffle_id = ?", raffleID).Count(&drawn).Error; err != nil {
			return err
		}
		if drawn > 0 {
			return ErrRaffleAlreadyDrawn
		}
		if raffle.Status != RaffleOpen {
			return ErrRaffleNotOpen
		}

		var participants []RaffleParticipant
		if err = tx.Where("raffle_id = ?", raffleID).Order("student_id").Find(&participants).Error; err != nil {
			return err
		}
		if len(participants) == 0 {
			return ErrNoParticipants
		}

		picked, audit, err := pick(raffle, participants)
		if err != nil {
			return err
		}
		picked.RaffleID = raffleID

		if err = tx.Create(&picked).Error; err != nil {
			if isUniqueViolation(err, uniqRaffleDraw) {
				return ErrRaffleAlreadyDrawn
			}
			return err
		}

		err = tx.Model(&Raffle{}).
			Where("id = ? AND status = ?", raffleID, RaffleOpen).
			Updates(map[string]interface{}{"status": RaffleClosed, "updated_at": now()}).Error
		if err != nil {
			return err
		}

		if err = insertAudit(tx, &audit); err != nil {
			return err
		}

		draw = picked
		return nil
	})
	if err != nil {
		return RaffleDraw{}, err
	}

	return draw, nil
}

func (d *RaffleDAO) Cancel(ctx context.Context, raffleID string, audit AuditLog) (Raffle, error) {
	var raffle Raffle

	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		raffle, err = lockRaffle(tx, raffleID, "UPDATE")
		if err != nil {
			return err
		}
		if raffle.Status != RaffleOpen {
			return ErrRaffleNotOpen
		}

		raffle.Status = RaffleCancelled
		raffle.UpdatedAt = now()
		err = tx.Model(&Raffle{}).
			Where("id = ?", raffleID).
			Updates(map[string]interface{}{"status": raffle.Status, "updated_at": raffle.UpdatedAt}).Error
		if err != nil {
			return err
		}

		return insertAudit(tx, &audit)
	})
	if err != nil {
		return Raffle{}, err
	}

	return raffle, nil
}

func (d *RaffleDAO) FindDraw(ctx context.Context, raffleID string) (RaffleDraw, []RaffleParticipant, error) {
	var draw RaffleDraw

	result := d.db.WithContext(ctx).Take(&draw, "raffle_id = ?", raffleID)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return RaffleDraw{}, nil, ErrDrawNotFound
		}

		return RaffleDraw{}, nil, result.Error
	}

	var participants []RaffleParticipant
	if err := d.db.WithContext(ctx).Where("raffle_id = ?", raffleID).Order("student_id").Find(&participants).Error; err != nil {
		return RaffleDraw{}, nil, err
	}

	return draw, participants, nil
}
