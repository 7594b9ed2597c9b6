// Package datastore persists plant records and pending reminders in SQLite through GORM.
package datastore

import (
	"os"
	"path/filepath"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/danbi-garden/danbi/internal/errors"
	"github.com/danbi-garden/danbi/internal/logger"
)

// Sentinel errors for repository operations.
var (
	// ErrPlantNotFound indicates the requested plant does not exist.
	ErrPlantNotFound = errors.NewStd("plant not found")

	// ErrReminderNotFound indicates no pending reminder exists for the key.
	ErrReminderNotFound = errors.NewStd("pending reminder not found")
)

// Store owns the database handle shared by the repositories.
type Store struct {
	DB  *gorm.DB
	log logger.Logger
}

// Open opens (creating if needed) the sqlite database at path and migrates
// the schema. ":memory:" opens a private in-memory database.
func Open(path string, log logger.Logger, slowThreshold time.Duration) (*Store, error) {
	if log == nil {
		log = logger.NewDiscardLogger()
	}
	log = log.Module("datastore")

	if path != ":memory:" {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o700); err != nil {
				return nil, errors.Newf("failed to create database directory: %w", err).
					Category(errors.CategoryFileIO).
					Context("dir", dir).
					Component("datastore").
					Build()
			}
		}
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.NewGormLoggerAdapter(log, slowThreshold),
	})
	if err != nil {
		return nil, errors.Newf("failed to open SQLite database: %w", err).
			Category(errors.CategoryDatabase).
			Context("path", path).
			Component("datastore").
			Build()
	}

	if path == ":memory:" {
		// every new connection would see an empty database
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.SetMaxOpenConns(1)
		}
	}

	return NewStore(db, log)
}

// NewStore wraps an existing connection and migrates the schema.
func NewStore(db *gorm.DB, log logger.Logger) (*Store, error) {
	if log == nil {
		log = logger.NewDiscardLogger()
	}
	if err := db.AutoMigrate(&Plant{}, &PendingReminder{}, &Preference{}); err != nil {
		return nil, errors.Newf("failed to migrate schema: %w", err).
			Category(errors.CategoryDatabase).
			Component("datastore").
			Build()
	}
	log.Debug("database schema ready")
	return &Store{DB: db, log: log}, nil
}

// Plants returns the plant repository.
func (s *Store) Plants() PlantRepository {
	return NewPlantRepository(s.DB)
}

// Reminders returns the pending reminder repository.
func (s *Store) Reminders() ReminderRepository {
	return NewReminderRepository(s.DB)
}

// Preferences returns the user preference repository.
func (s *Store) Preferences() PreferenceRepository {
	return NewPreferenceRepository(s.DB)
}

// Close releases the underlying connection.
func (s *Store) Close() error {
	sqlDB, err := s.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func dbError(err error, operation string) error {
	return errors.Newf("%s: %w", operation, err).
		Category(errors.CategoryDatabase).
		Context("operation", operation).
		Component("datastore").
		Build()
}
