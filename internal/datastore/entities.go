package datastore

import (
	"time"

	"github.com/google/uuid"

	"github.com/danbi-garden/danbi/internal/plant"
)

// Plant is the persisted form of plant.Record.
type Plant struct {
	ID           string    `gorm:"primaryKey;size:36"`
	Name         string    `gorm:"size:200;not null"`
	Species      string    `gorm:"size:200"`
	LastWatered  time.Time `gorm:"not null"`
	IntervalDays int       `gorm:"not null;check:interval_days >= 1"`
	Image        []byte
	SortOrder    int    `gorm:"index;not null;default:0"`
	Note         string `gorm:"type:text"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// TableName returns the table name for GORM.
func (Plant) TableName() string {
	return "plants"
}

// PendingReminder mirrors one armed reminder so it survives a restart.
type PendingReminder struct {
	Key       string    `gorm:"primaryKey;column:reminder_key;size:100"`
	PlantID   string    `gorm:"index;size:36"`
	TriggerAt time.Time `gorm:"index;not null"`
	Title     string    `gorm:"size:200"`
	Body      string    `gorm:"size:500"`
	Badge     int
	CreatedAt time.Time
}

// TableName returns the table name for GORM.
func (PendingReminder) TableName() string {
	return "pending_reminders"
}

// Preference is one persisted user choice, such as the notifications switch.
type Preference struct {
	Key       string `gorm:"primaryKey;column:pref_key;size:100"`
	Value     string `gorm:"size:500;not null"`
	UpdatedAt time.Time
}

// TableName returns the table name for GORM.
func (Preference) TableName() string {
	return "preferences"
}

func toEntity(r *plant.Record) *Plant {
	return &Plant{
		ID:           r.ID.String(),
		Name:         r.Name,
		Species:      r.Species,
		LastWatered:  r.LastWatered,
		IntervalDays: r.IntervalDays,
		Image:        r.Image,
		SortOrder:    r.SortOrder,
		Note:         r.Note,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
}

func fromEntity(p *Plant) (*plant.Record, error) {
	id, err := uuid.Parse(p.ID)
	if err != nil {
		return nil, err
	}
	return &plant.Record{
		ID:           id,
		Name:         p.Name,
		Species:      p.Species,
		LastWatered:  p.LastWatered,
		IntervalDays: p.IntervalDays,
		Image:        p.Image,
		SortOrder:    p.SortOrder,
		Note:         p.Note,
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
	}, nil
}
