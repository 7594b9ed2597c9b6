package datastore

import (
	"context"
	"strconv"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/danbi-garden/danbi/internal/errors"
)

// PreferenceRepository persists user choices that outlive a single run.
type PreferenceRepository interface {
	// GetBool returns the value stored under key. ok is false when the key
	// was never set.
	GetBool(ctx context.Context, key string) (value, ok bool, err error)
	SetBool(ctx context.Context, key string, value bool) error
}

type preferenceRepository struct {
	db *gorm.DB
}

// NewPreferenceRepository creates a new PreferenceRepository.
func NewPreferenceRepository(db *gorm.DB) PreferenceRepository {
	return &preferenceRepository{db: db}
}

func (r *preferenceRepository) GetBool(ctx context.Context, key string) (value, ok bool, err error) {
	var pref Preference
	err = r.db.WithContext(ctx).Where("pref_key = ?", key).First(&pref).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, false, nil
	}
	if err != nil {
		return false, false, dbError(err, "get preference")
	}
	value, err = strconv.ParseBool(pref.Value)
	if err != nil {
		return false, false, errors.Newf("preference %q holds %q, not a bool", key, pref.Value).
			Category(errors.CategoryValidation).
			Component("datastore").
			Context("key", key).
			Build()
	}
	return value, true, nil
}

func (r *preferenceRepository) SetBool(ctx context.Context, key string, value bool) error {
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "pref_key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
		}).
		Create(&Preference{Key: key, Value: strconv.FormatBool(value)}).Error
	if err != nil {
		return dbError(err, "save preference")
	}
	return nil
}
