package datastore

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/danbi-garden/danbi/internal/errors"
)

// ReminderRepository persists the set of armed reminders.
type ReminderRepository interface {
	Save(ctx context.Context, r *PendingReminder) error
	Get(ctx context.Context, key string) (*PendingReminder, error)
	Delete(ctx context.Context, key string) error
	DeleteAll(ctx context.Context) error
	List(ctx context.Context) ([]PendingReminder, error)
}

// reminderRepository implements ReminderRepository.
type reminderRepository struct {
	db *gorm.DB
}

// NewReminderRepository creates a new ReminderRepository.
func NewReminderRepository(db *gorm.DB) ReminderRepository {
	return &reminderRepository{db: db}
}

// Save inserts or replaces the reminder stored under r.Key (upsert).
func (r *reminderRepository) Save(ctx context.Context, rem *PendingReminder) error {
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "reminder_key"}},
			UpdateAll: true,
		}).
		Create(rem).Error
	if err != nil {
		return dbError(err, "save pending reminder")
	}
	return nil
}

// Get loads the reminder stored under key.
func (r *reminderRepository) Get(ctx context.Context, key string) (*PendingReminder, error) {
	var rem PendingReminder
	err := r.db.WithContext(ctx).Where("reminder_key = ?", key).First(&rem).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrReminderNotFound
	}
	if err != nil {
		return nil, dbError(err, "get pending reminder")
	}
	return &rem, nil
}

// Delete removes the reminder stored under key. Missing keys are not an error.
func (r *reminderRepository) Delete(ctx context.Context, key string) error {
	if err := r.db.WithContext(ctx).Where("reminder_key = ?", key).Delete(&PendingReminder{}).Error; err != nil {
		return dbError(err, "delete pending reminder")
	}
	return nil
}

// DeleteAll removes every pending reminder.
func (r *reminderRepository) DeleteAll(ctx context.Context) error {
	if err := r.db.WithContext(ctx).Where("1 = 1").Delete(&PendingReminder{}).Error; err != nil {
		return dbError(err, "delete all pending reminders")
	}
	return nil
}

// List returns pending reminders ordered by trigger time.
func (r *reminderRepository) List(ctx context.Context) ([]PendingReminder, error) {
	var out []PendingReminder
	if err := r.db.WithContext(ctx).Order("trigger_at ASC").Find(&out).Error; err != nil {
		return nil, dbError(err, "list pending reminders")
	}
	return out, nil
}
