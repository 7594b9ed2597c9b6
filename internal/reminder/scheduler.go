// Package reminder keeps exactly one correctly dated watering reminder per plant.
package reminder

import (
	"context"
	"fmt"
	"time"

	"github.com/danbi-garden/danbi/internal/logger"
	"github.com/danbi-garden/danbi/internal/plant"
)

// DefaultHour is the local hour every reminder fires at.
const DefaultHour = 10

// Reminder text shown to the user.
const (
	Title      = "💧 물 줄 시간이에요!"
	bodyFormat = "%s에게 단비를 내려주세요"
	Badge      = 1
)

// Reminder is one non-repeating local notification owned by a plant.
type Reminder struct {
	Key       string
	PlantID   string
	TriggerAt time.Time
	Title     string
	Body      string
	Badge     int
}

// Delivery is the local notification collaborator.
type Delivery interface {
	Schedule(ctx context.Context, r Reminder) error
	Cancel(ctx context.Context, key string) error
	CancelAll(ctx context.Context) error
	Pending(ctx context.Context) ([]Reminder, error)
}

// Scheduler computes trigger dates and registers reminders with a Delivery.
// Delivery failures are logged and never returned.
type Scheduler struct {
	delivery Delivery
	now      func() time.Time
	location *time.Location
	hour     int
	log      logger.Logger
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) { s.now = now }
}

// WithLocation sets the timezone reminders are computed in.
func WithLocation(loc *time.Location) Option {
	return func(s *Scheduler) { s.location = loc }
}

// WithHour sets the fixed trigger hour.
func WithHour(hour int) Option {
	return func(s *Scheduler) { s.hour = hour }
}

// WithLogger sets the logger.
func WithLogger(log logger.Logger) Option {
	return func(s *Scheduler) { s.log = log }
}

// NewScheduler creates a Scheduler.
func NewScheduler(delivery Delivery, opts ...Option) *Scheduler {
	s := &Scheduler{
		delivery: delivery,
		now:      time.Now,
		location: time.Local,
		hour:     DefaultHour,
		log:      logger.NewDiscardLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.Module("reminder")
	return s
}

// Hour returns the fixed trigger hour.
func (s *Scheduler) Hour() int {
	return s.hour
}

// TriggerFor computes when the plant's reminder should fire.
// Overdue or due-today plants fire today at the fixed hour, or tomorrow at
// that hour when it has already passed.
func (s *Scheduler) TriggerFor(p *plant.Record) time.Time {
	now := s.now().In(s.location)
	today := plant.StartOfDay(now)

	daysUntilDue := p.DaysUntilDue(now)
	target := today
	if daysUntilDue > 0 {
		target = today.AddDate(0, 0, daysUntilDue)
	}

	trigger := atHour(target, s.hour)
	if target.Equal(today) && now.Hour() >= s.hour {
		trigger = atHour(today.AddDate(0, 0, 1), s.hour)
	}
	return trigger
}

// Build returns the reminder ScheduleFor would register for p.
func (s *Scheduler) Build(p *plant.Record) Reminder {
	return Reminder{
		Key:       p.ReminderKey(),
		PlantID:   p.ID.String(),
		TriggerAt: s.TriggerFor(p),
		Title:     Title,
		Body:      fmt.Sprintf(bodyFormat, p.Name),
		Badge:     Badge,
	}
}

// ScheduleFor replaces any reminder for p with a freshly computed one.
func (s *Scheduler) ScheduleFor(ctx context.Context, p *plant.Record) {
	key := p.ReminderKey()
	if err := s.delivery.Cancel(ctx, key); err != nil {
		s.log.Warn("failed to cancel previous reminder",
			logger.String("key", key),
			logger.Error(err))
	}

	r := s.Build(p)
	if err := s.delivery.Schedule(ctx, r); err != nil {
		s.log.Error("failed to schedule reminder",
			logger.String("key", key),
			logger.String("plant", p.Name),
			logger.Time("trigger_at", r.TriggerAt),
			logger.Error(err))
		return
	}

	s.log.Info("reminder scheduled",
		logger.String("key", key),
		logger.String("plant", p.Name),
		logger.Int("days_until_due", p.DaysUntilDue(s.now().In(s.location))),
		logger.Time("trigger_at", r.TriggerAt))
}

// CancelFor removes any reminder for p. Idempotent.
func (s *Scheduler) CancelFor(ctx context.Context, p *plant.Record) {
	key := p.ReminderKey()
	if err := s.delivery.Cancel(ctx, key); err != nil {
		s.log.Warn("failed to cancel reminder",
			logger.String("key", key),
			logger.Error(err))
		return
	}
	s.log.Debug("reminder cancelled", logger.String("key", key))
}

// CancelAll removes every pending reminder.
func (s *Scheduler) CancelAll(ctx context.Context) {
	if err := s.delivery.CancelAll(ctx); err != nil {
		s.log.Warn("failed to cancel all reminders", logger.Error(err))
	}
}

// RescheduleAll cancels every pending reminder, then schedules one per plant.
// The global cancel finishes before the first ScheduleFor starts.
func (s *Scheduler) RescheduleAll(ctx context.Context, plants []*plant.Record) {
	s.CancelAll(ctx)

	for i, p := range plants {
		if ctx.Err() != nil {
			s.log.Warn("reschedule interrupted",
				logger.Int("remaining", len(plants)-i),
				logger.Error(ctx.Err()))
			return
		}
		s.ScheduleFor(ctx, p)
	}

	s.log.Info("reminders rescheduled", logger.Int("plants", len(plants)))
}

// Pending lists armed reminders for debugging.
func (s *Scheduler) Pending(ctx context.Context) ([]Reminder, error) {
	return s.delivery.Pending(ctx)
}

func atHour(day time.Time, hour int) time.Time {
	y, m, d := day.Date()
	return time.Date(y, m, d, hour, 0, 0, 0, day.Location())
}
