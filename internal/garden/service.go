// Package garden implements the plant registry flows the shells call:
// create, water, edit, delete, reorder and the foreground refresh. Every
// mutation is committed before its reminder is touched.
package garden

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/danbi-garden/danbi/internal/careinfo"
	"github.com/danbi-garden/danbi/internal/datastore"
	"github.com/danbi-garden/danbi/internal/errors"
	"github.com/danbi-garden/danbi/internal/identify"
	"github.com/danbi-garden/danbi/internal/logger"
	"github.com/danbi-garden/danbi/internal/observability/metrics"
	"github.com/danbi-garden/danbi/internal/plant"
	"github.com/danbi-garden/danbi/internal/reminder"
	"github.com/danbi-garden/danbi/internal/species"
)

// Authorizer gates plant creation.
type Authorizer interface {
	Authorize(ctx context.Context, currentCount int) error
}

// Identifier classifies a plant photo.
type Identifier interface {
	Identify(ctx context.Context, image []byte) (identify.Result, error)
}

// CareResolver looks up a care profile by species name.
type CareResolver interface {
	Resolve(ctx context.Context, name, fallback string) (*careinfo.Profile, error)
}

// AppOpenAd shows an app-open ad when one is loaded.
type AppOpenAd interface {
	ShowIfAvailable(ctx context.Context) bool
}

// Preferences persists user choices across runs.
type Preferences interface {
	SetBool(ctx context.Context, key string, value bool) error
}

// NotificationsPreference is the preference key of the global reminder switch.
const NotificationsPreference = "notifications_enabled"

// Draft is the input of Create.
type Draft struct {
	Name         string
	Species      string
	LastWatered  time.Time // zero means now
	IntervalDays int       // zero means plant.DefaultIntervalDays
	Image        []byte
	Note         string
}

// Patch lists the fields Edit changes. Nil fields are left alone.
type Patch struct {
	Name         *string
	Species      *string
	LastWatered  *time.Time
	IntervalDays *int
	Image        *[]byte
	Note         *string
}

// Service coordinates the store, the reminder scheduler and the optional
// collaborators.
type Service struct {
	plants    datastore.PlantRepository
	scheduler *reminder.Scheduler

	gate       Authorizer
	identifier Identifier
	resolver   CareResolver
	appOpen    AppOpenAd
	prefs      Preferences

	now     func() time.Time
	log     logger.Logger
	metrics *metrics.GardenMetrics

	mu                   sync.Mutex
	notificationsEnabled bool
}

// Option configures a Service.
type Option func(*Service)

// WithGate sets the creation gate. Without one creation is never gated.
func WithGate(g Authorizer) Option {
	return func(s *Service) { s.gate = g }
}

// WithIdentifier sets the photo identifier.
func WithIdentifier(i Identifier) Option {
	return func(s *Service) { s.identifier = i }
}

// WithResolver sets the care profile resolver.
func WithResolver(r CareResolver) Option {
	return func(s *Service) { s.resolver = r }
}

// WithAppOpenAd sets the app-open ad shown by Foreground.
func WithAppOpenAd(a AppOpenAd) Option {
	return func(s *Service) { s.appOpen = a }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithLogger sets the logger.
func WithLogger(log logger.Logger) Option {
	return func(s *Service) { s.log = log }
}

// WithMetrics records plant operations.
func WithMetrics(m *metrics.GardenMetrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithPreferences persists the reminder switch so the next run honors it.
func WithPreferences(p Preferences) Option {
	return func(s *Service) { s.prefs = p }
}

// WithNotifications sets whether reminders are scheduled. Enabled by default.
func WithNotifications(enabled bool) Option {
	return func(s *Service) { s.notificationsEnabled = enabled }
}

// NewService creates the garden service.
func NewService(plants datastore.PlantRepository, scheduler *reminder.Scheduler, opts ...Option) *Service {
	s := &Service{
		plants:               plants,
		scheduler:            scheduler,
		now:                  time.Now,
		log:                  logger.NewDiscardLogger(),
		notificationsEnabled: true,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.Module("garden")
	return s
}

// Create registers a new plant. Beyond the free limit the gate must
// authorize first; a gate failure creates nothing. The reminder is
// scheduled only after the record is committed.
func (s *Service) Create(ctx context.Context, d Draft) (*plant.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	start := time.Now()

	count, err := s.plants.Count(ctx)
	if err != nil {
		return nil, s.fail(metrics.OpCreate, err)
	}

	if s.gate != nil {
		if err := s.gate.Authorize(ctx, count); err != nil {
			s.log.Info("plant creation not authorized",
				logger.Int("plant_count", count),
				logger.Error(err))
			return nil, s.fail(metrics.OpCreate, err)
		}
	}

	lastWatered := d.LastWatered
	if lastWatered.IsZero() {
		lastWatered = s.now()
	}
	interval := d.IntervalDays
	if interval == 0 {
		interval = plant.DefaultIntervalDays
	}

	rec, err := plant.New(d.Name, d.Species, lastWatered, interval)
	if err != nil {
		return nil, s.fail(metrics.OpCreate, err)
	}
	rec.Image = d.Image
	rec.Note = strings.TrimSpace(d.Note)

	if rec.SortOrder, err = s.plants.NextSortOrder(ctx); err != nil {
		return nil, s.fail(metrics.OpCreate, err)
	}
	if err := s.plants.Insert(ctx, rec); err != nil {
		return nil, s.fail(metrics.OpCreate, err)
	}

	s.scheduleLocked(ctx, rec)
	s.succeed(metrics.OpCreate, start)
	s.setPlantGauge(count + 1)

	s.log.Info("plant created",
		logger.String("plant_id", rec.ID.String()),
		logger.String("name", rec.Name),
		logger.Int("interval_days", rec.IntervalDays))
	return rec, nil
}

// Water records a watering now and reschedules the reminder.
func (s *Service) Water(ctx context.Context, id uuid.UUID) (*plant.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	start := time.Now()

	rec, err := s.plants.Get(ctx, id)
	if err != nil {
		return nil, s.fail(metrics.OpWater, err)
	}
	rec.Water(s.now())
	if err := s.plants.Update(ctx, rec); err != nil {
		return nil, s.fail(metrics.OpWater, err)
	}

	s.scheduleLocked(ctx, rec)
	s.succeed(metrics.OpWater, start)
	s.log.Info("plant watered",
		logger.String("plant_id", rec.ID.String()),
		logger.String("name", rec.Name))
	return rec, nil
}

// Edit applies p, validates the result and reschedules the reminder.
func (s *Service) Edit(ctx context.Context, id uuid.UUID, p Patch) (*plant.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	start := time.Now()

	rec, err := s.plants.Get(ctx, id)
	if err != nil {
		return nil, s.fail(metrics.OpEdit, err)
	}

	if p.Name != nil {
		rec.Name = strings.TrimSpace(*p.Name)
	}
	if p.Species != nil {
		rec.Species = strings.TrimSpace(*p.Species)
	}
	if p.LastWatered != nil {
		rec.LastWatered = *p.LastWatered
	}
	if p.IntervalDays != nil {
		rec.IntervalDays = *p.IntervalDays
	}
	if p.Image != nil {
		rec.Image = *p.Image
	}
	if p.Note != nil {
		rec.Note = strings.TrimSpace(*p.Note)
	}

	if err := rec.Validate(); err != nil {
		return nil, s.fail(metrics.OpEdit, err)
	}
	if err := s.plants.Update(ctx, rec); err != nil {
		return nil, s.fail(metrics.OpEdit, err)
	}

	s.scheduleLocked(ctx, rec)
	s.succeed(metrics.OpEdit, start)
	return rec, nil
}

// Delete removes a plant and cancels its reminder.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	start := time.Now()

	rec, err := s.plants.Get(ctx, id)
	if err != nil {
		return s.fail(metrics.OpDelete, err)
	}
	if err := s.plants.Delete(ctx, id); err != nil {
		return s.fail(metrics.OpDelete, err)
	}

	s.scheduler.CancelFor(ctx, rec)
	s.succeed(metrics.OpDelete, start)
	if n, err := s.plants.Count(ctx); err == nil {
		s.setPlantGauge(n)
	}

	s.log.Info("plant deleted",
		logger.String("plant_id", rec.ID.String()),
		logger.String("name", rec.Name))
	return nil
}

// Reorder sets the display order to the order of ids.
func (s *Service) Reorder(ctx context.Context, ids []uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	start := time.Now()

	if err := s.plants.Reorder(ctx, ids); err != nil {
		return s.fail(metrics.OpReorder, err)
	}
	s.succeed(metrics.OpReorder, start)
	return nil
}

// Get returns one plant.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*plant.Record, error) {
	return s.plants.Get(ctx, id)
}

// List returns every plant in display order.
func (s *Service) List(ctx context.Context) ([]*plant.Record, error) {
	return s.plants.List(ctx)
}

// Count returns the number of registered plants.
func (s *Service) Count(ctx context.Context) (int, error) {
	return s.plants.Count(ctx)
}

// NeedingWater counts the plants whose interval has elapsed as of now.
func (s *Service) NeedingWater(ctx context.Context) (int, error) {
	plants, err := s.plants.List(ctx)
	if err != nil {
		return 0, err
	}
	now := s.now()
	n := 0
	for _, p := range plants {
		if p.NeedsWater(now) {
			n++
		}
	}
	return n, nil
}

// SummaryMessage is the home screen banner for n plants due today.
func SummaryMessage(n int) string {
	if n > 0 {
		return fmt.Sprintf("오늘은 %d번 단비를 내려야해요!", n)
	}
	return "오늘은 물 줄 식물이 없어요!"
}

// NextReminder returns when the plant's reminder fires under the current
// policy.
func (s *Service) NextReminder(rec *plant.Record) time.Time {
	return s.scheduler.TriggerFor(rec)
}

// PendingReminders lists the reminders currently armed.
func (s *Service) PendingReminders(ctx context.Context) ([]reminder.Reminder, error) {
	return s.scheduler.Pending(ctx)
}

// Now returns the service clock's current time.
func (s *Service) Now() time.Time {
	return s.now()
}

// NotificationsEnabled reports whether reminders are scheduled.
func (s *Service) NotificationsEnabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.notificationsEnabled
}

// SetNotificationsEnabled turns reminders on (rescheduling every plant) or
// off (cancelling every reminder). The choice is saved before reminders are
// touched; a save failure changes nothing.
func (s *Service) SetNotificationsEnabled(ctx context.Context, enabled bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.prefs != nil {
		if err := s.prefs.SetBool(ctx, NotificationsPreference, enabled); err != nil {
			return err
		}
	}
	s.notificationsEnabled = enabled
	if !enabled {
		s.scheduler.CancelAll(ctx)
		s.log.Info("notifications disabled")
		return nil
	}

	plants, err := s.plants.List(ctx)
	if err != nil {
		return err
	}
	s.scheduler.RescheduleAll(ctx, plants)
	s.log.Info("notifications enabled", logger.Int("plants", len(plants)))
	return nil
}

// Foreground refreshes every reminder, since dates may have shifted while
// the app was in the background, and shows an app-open ad when one is
// ready. It reports whether an ad was shown.
func (s *Service) Foreground(ctx context.Context) (bool, error) {
	s.mu.Lock()
	enabled := s.notificationsEnabled
	if enabled {
		plants, err := s.plants.List(ctx)
		if err != nil {
			s.mu.Unlock()
			return false, err
		}
		s.scheduler.RescheduleAll(ctx, plants)
		s.setPlantGauge(len(plants))
	}
	s.mu.Unlock()

	if s.appOpen == nil {
		return false, nil
	}
	return s.appOpen.ShowIfAvailable(ctx), nil
}

// Identify classifies a plant photo. Without an identifier every photo is
// reported as not a plant.
func (s *Service) Identify(ctx context.Context, image []byte) (identify.Result, error) {
	if s.identifier == nil {
		return identify.NewIdentifier(nil, nil).Identify(ctx, image)
	}
	return s.identifier.Identify(ctx, image)
}

// Search filters the curated manual-selection list.
func (s *Service) Search(query string) []species.Houseplant {
	return species.Search(query)
}

func (s *Service) scheduleLocked(ctx context.Context, rec *plant.Record) {
	if !s.notificationsEnabled {
		return
	}
	s.scheduler.ScheduleFor(ctx, rec)
}

func (s *Service) fail(op string, err error) error {
	if s.metrics != nil {
		s.metrics.RecordOperation(op, metrics.StatusError)
		s.metrics.RecordError(op, string(errors.CategoryOf(err)))
	}
	return err
}

func (s *Service) succeed(op string, start time.Time) {
	if s.metrics != nil {
		s.metrics.RecordOperation(op, metrics.StatusSuccess)
		s.metrics.RecordDuration(op, time.Since(start).Seconds())
	}
}

func (s *Service) setPlantGauge(n int) {
	if s.metrics != nil {
		s.metrics.SetPlants(n)
	}
}
