// Package plant defines the houseplant record and its watering arithmetic.
package plant

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/danbi-garden/danbi/internal/errors"
)

// DefaultIntervalDays is the watering interval a new plant form starts with.
const DefaultIntervalDays = 7

// ErrInvalidInterval is returned when a watering interval is below one day.
var ErrInvalidInterval = errors.NewStd("watering interval must be at least 1 day")

// ErrEmptyName is returned when a plant has no display name.
var ErrEmptyName = errors.NewStd("plant name is required")

// Record is one registered houseplant. ID is assigned once and never reused.
type Record struct {
	ID           uuid.UUID
	Name         string
	Species      string
	LastWatered  time.Time
	IntervalDays int
	Image        []byte
	SortOrder    int
	Note         string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// New builds a record with a fresh identifier.
func New(name, species string, lastWatered time.Time, intervalDays int) (*Record, error) {
	r := &Record{
		ID:           uuid.New(),
		Name:         strings.TrimSpace(name),
		Species:      strings.TrimSpace(species),
		LastWatered:  lastWatered,
		IntervalDays: intervalDays,
	}
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return r, nil
}

// Validate checks the record invariants.
func (r *Record) Validate() error {
	if r.Name == "" {
		return errors.New(ErrEmptyName).
			Category(errors.CategoryValidation).
			Component("plant").
			Build()
	}
	return ValidateInterval(r.IntervalDays)
}

// ValidateInterval rejects watering intervals below one day.
func ValidateInterval(days int) error {
	if days < 1 {
		return errors.Newf("%w: got %d", ErrInvalidInterval, days).
			Category(errors.CategoryValidation).
			Context("interval_days", days).
			Component("plant").
			Build()
	}
	return nil
}

// ReminderKey is the notification identifier owned by this plant.
func (r *Record) ReminderKey() string {
	return ReminderKey(r.ID)
}

// ReminderKey derives the notification identifier for a plant ID.
func ReminderKey(id uuid.UUID) string {
	return "watering-" + id.String()
}

// DaysSinceWatered is the number of calendar days between the day of the
// last watering and the day of now, both taken in now's location. It is
// never negative.
func (r *Record) DaysSinceWatered(now time.Time) int {
	days := CalendarDaysBetween(r.LastWatered, now)
	if days < 0 {
		return 0
	}
	return days
}

// DaysUntilDue is the interval minus the elapsed days. Zero or negative means due.
func (r *Record) DaysUntilDue(now time.Time) int {
	return r.IntervalDays - r.DaysSinceWatered(now)
}

// NeedsWater reports whether the interval has elapsed.
func (r *Record) NeedsWater(now time.Time) bool {
	return r.DaysSinceWatered(now) >= r.IntervalDays
}

// Progress is elapsed/interval capped at 1.0.
func (r *Record) Progress(now time.Time) float64 {
	if r.IntervalDays < 1 {
		return 1.0
	}
	return min(float64(r.DaysSinceWatered(now))/float64(r.IntervalDays), 1.0)
}

// Water resets the last watered timestamp.
func (r *Record) Water(now time.Time) {
	r.LastWatered = now
}

// StartOfDay truncates t to local midnight in t's location.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// CalendarDaysBetween counts midnights crossed from a to b in b's location.
// Daylight saving transitions do not shift the count.
func CalendarDaysBetween(a, b time.Time) int {
	loc := b.Location()
	ay, am, ad := a.In(loc).Date()
	by, bm, bd := b.Date()
	// Noon UTC anchors avoid 23h/25h days.
	start := time.Date(ay, am, ad, 12, 0, 0, 0, time.UTC)
	end := time.Date(by, bm, bd, 12, 0, 0, 0, time.UTC)
	return int(end.Sub(start).Hours() / 24)
}
