// Package notification delivers watering reminders on this machine.
//
// LocalCenter arms one gocron one-time job per reminder key and mirrors the
// armed set into the datastore so it survives a restart.
package notification

import (
	"context"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"

	"github.com/danbi-garden/danbi/internal/datastore"
	"github.com/danbi-garden/danbi/internal/errors"
	"github.com/danbi-garden/danbi/internal/logger"
	"github.com/danbi-garden/danbi/internal/observability/metrics"
	"github.com/danbi-garden/danbi/internal/reminder"
)

const (
	defaultSendTimeout = 30 * time.Second
	clearTimeout       = 5 * time.Second
)

type armedJob struct {
	job      gocron.Job
	seq      uint64
	reminder reminder.Reminder
}

// PendingGauge receives the number of armed reminders.
type PendingGauge interface {
	SetPending(n int)
}

// LocalCenter implements reminder.Delivery on top of gocron.
type LocalCenter struct {
	mu        sync.Mutex
	scheduler gocron.Scheduler
	repo      datastore.ReminderRepository
	sender    Sender
	armed     map[string]armedJob
	seq       uint64

	now         func() time.Time
	sendTimeout time.Duration
	recorder    metrics.Recorder
	gauge       PendingGauge
	log         logger.Logger
}

var _ reminder.Delivery = (*LocalCenter)(nil)

// Option configures a LocalCenter.
type Option func(*LocalCenter)

// WithSender sets the delivery channel. Defaults to a LogSender.
func WithSender(s Sender) Option {
	return func(c *LocalCenter) { c.sender = s }
}

// WithLogger sets the logger.
func WithLogger(log logger.Logger) Option {
	return func(c *LocalCenter) { c.log = log }
}

// WithMetrics records operations and the pending count.
func WithMetrics(m *metrics.ReminderMetrics) Option {
	return func(c *LocalCenter) {
		if m != nil {
			c.recorder = m
			c.gauge = m
		}
	}
}

// WithClock overrides the time source used to detect overdue reminders.
func WithClock(now func() time.Time) Option {
	return func(c *LocalCenter) { c.now = now }
}

// WithSendTimeout bounds a single Sender call.
func WithSendTimeout(d time.Duration) Option {
	return func(c *LocalCenter) { c.sendTimeout = d }
}

// NewLocalCenter creates and starts a LocalCenter.
func NewLocalCenter(repo datastore.ReminderRepository, opts ...Option) (*LocalCenter, error) {
	c := &LocalCenter{
		repo:        repo,
		armed:       make(map[string]armedJob),
		now:         time.Now,
		sendTimeout: defaultSendTimeout,
		recorder:    metrics.NoOpRecorder{},
		log:         logger.NewDiscardLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.log = c.log.Module("notification")
	if c.sender == nil {
		c.sender = NewLogSender(c.log)
	}

	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, errors.New(err).
			Category(errors.CategoryNotification).
			Component("notification").
			Context("operation", "create_scheduler").
			Build()
	}
	c.scheduler = s
	c.scheduler.Start()
	return c, nil
}

// Schedule arms r, replacing any reminder under the same key.
func (c *LocalCenter) Schedule(ctx context.Context, r reminder.Reminder) error {
	start := time.Now()
	c.mu.Lock()
	defer c.mu.Unlock()

	c.disarmLocked(r.Key)

	if err := c.repo.Save(ctx, toPending(r)); err != nil {
		c.recorder.RecordError(metrics.OpSchedule, "persist")
		return errors.New(err).
			Category(errors.CategoryNotification).
			Component("notification").
			Context("key", r.Key).
			Build()
	}

	if err := c.armLocked(r); err != nil {
		c.recorder.RecordError(metrics.OpSchedule, "arm")
		if delErr := c.repo.Delete(ctx, r.Key); delErr != nil {
			c.log.Warn("failed to remove unarmed reminder", logger.String("key", r.Key), logger.Error(delErr))
		}
		return err
	}

	c.recorder.RecordOperation(metrics.OpSchedule, metrics.StatusSuccess)
	c.recorder.RecordDuration(metrics.OpSchedule, time.Since(start).Seconds())
	c.updateGaugeLocked()
	return nil
}

// Cancel disarms the reminder under key. Unknown keys are not an error.
func (c *LocalCenter) Cancel(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.disarmLocked(key)
	if err := c.repo.Delete(ctx, key); err != nil {
		c.recorder.RecordError(metrics.OpCancel, "persist")
		return errors.New(err).
			Category(errors.CategoryNotification).
			Component("notification").
			Context("key", key).
			Build()
	}
	c.recorder.RecordOperation(metrics.OpCancel, metrics.StatusSuccess)
	c.updateGaugeLocked()
	return nil
}

// CancelAll disarms every reminder.
func (c *LocalCenter) CancelAll(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for key := range c.armed {
		c.disarmLocked(key)
	}
	if err := c.repo.DeleteAll(ctx); err != nil {
		c.recorder.RecordError(metrics.OpCancel, "persist")
		return errors.New(err).
			Category(errors.CategoryNotification).
			Component("notification").
			Context("operation", "cancel_all").
			Build()
	}
	c.recorder.RecordOperation(metrics.OpCancel, metrics.StatusSuccess)
	c.updateGaugeLocked()
	return nil
}

// Pending lists persisted reminders ordered by trigger time.
func (c *LocalCenter) Pending(ctx context.Context) ([]reminder.Reminder, error) {
	rows, err := c.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]reminder.Reminder, 0, len(rows))
	for i := range rows {
		out = append(out, fromPending(&rows[i]))
	}
	return out, nil
}

// Restore arms every persisted reminder. Reminders whose time has passed
// fire immediately. It returns the number of reminders armed.
func (c *LocalCenter) Restore(ctx context.Context) (int, error) {
	rows, err := c.repo.List(ctx)
	if err != nil {
		c.recorder.RecordError(metrics.OpRestore, "persist")
		return 0, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	restored := 0
	for i := range rows {
		r := fromPending(&rows[i])
		c.disarmLocked(r.Key)
		if err := c.armLocked(r); err != nil {
			c.log.Warn("failed to restore reminder",
				logger.String("key", r.Key),
				logger.Error(err))
			continue
		}
		restored++
	}

	c.recorder.RecordOperation(metrics.OpRestore, metrics.StatusSuccess)
	c.updateGaugeLocked()
	c.log.Info("reminders restored", logger.Int("count", restored))
	return restored, nil
}

// Shutdown stops the scheduler and waits for running deliveries.
func (c *LocalCenter) Shutdown() error {
	return c.scheduler.Shutdown()
}

// armLocked registers a gocron job for r. Caller holds c.mu.
func (c *LocalCenter) armLocked(r reminder.Reminder) error {
	c.seq++
	seq := c.seq

	start := gocron.OneTimeJobStartImmediately()
	if r.TriggerAt.After(c.now()) {
		start = gocron.OneTimeJobStartDateTime(r.TriggerAt)
	}

	job, err := c.scheduler.NewJob(
		gocron.OneTimeJob(start),
		gocron.NewTask(c.fire, r.Key, seq),
		gocron.WithName(r.Key),
		gocron.WithTags(r.PlantID),
	)
	if err != nil {
		return errors.New(err).
			Category(errors.CategoryNotification).
			Component("notification").
			Context("key", r.Key).
			Context("trigger_at", r.TriggerAt.Format(time.RFC3339)).
			Build()
	}

	c.armed[r.Key] = armedJob{job: job, seq: seq, reminder: r}
	c.log.Debug("reminder armed",
		logger.String("key", r.Key),
		logger.Time("trigger_at", r.TriggerAt))
	return nil
}

// disarmLocked removes the job for key if one is armed. Caller holds c.mu.
func (c *LocalCenter) disarmLocked(key string) {
	armed, ok := c.armed[key]
	if !ok {
		return
	}
	delete(c.armed, key)
	if err := c.scheduler.RemoveJob(armed.job.ID()); err != nil && !errors.Is(err, gocron.ErrJobNotFound) {
		c.log.Warn("failed to remove reminder job",
			logger.String("key", key),
			logger.Error(err))
	}
}

func (c *LocalCenter) updateGaugeLocked() {
	if c.gauge != nil {
		c.gauge.SetPending(len(c.armed))
	}
}

// fire runs on a scheduler goroutine. A job replaced after it was queued
// carries a stale seq and does nothing.
func (c *LocalCenter) fire(key string, seq uint64) {
	c.mu.Lock()
	armed, ok := c.armed[key]
	if !ok || armed.seq != seq {
		c.mu.Unlock()
		return
	}
	delete(c.armed, key)
	c.updateGaugeLocked()
	c.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), c.sendTimeout)
	defer cancel()

	start := time.Now()
	if err := c.sender.Send(ctx, armed.reminder); err != nil {
		c.recorder.RecordOperation(metrics.OpFire, metrics.StatusError)
		c.recorder.RecordError(metrics.OpFire, string(errors.CategoryOf(err)))
		c.log.Error("failed to deliver reminder",
			logger.String("key", key),
			logger.String("sender", c.sender.Name()),
			logger.Error(err))
	} else {
		c.recorder.RecordOperation(metrics.OpFire, metrics.StatusSuccess)
		c.log.Info("reminder delivered",
			logger.String("key", key),
			logger.String("sender", c.sender.Name()))
	}
	c.recorder.RecordDuration(metrics.OpFire, time.Since(start).Seconds())

	c.mu.Lock()
	defer c.mu.Unlock()
	// a new reminder may have been scheduled under the same key meanwhile
	if _, rearmed := c.armed[key]; rearmed {
		return
	}
	// the send context may have expired while the sender blocked
	clearCtx, clearCancel := context.WithTimeout(context.Background(), clearTimeout)
	defer clearCancel()
	if err := c.repo.Delete(clearCtx, key); err != nil {
		c.log.Warn("failed to clear delivered reminder",
			logger.String("key", key),
			logger.Error(err))
	}
}

func toPending(r reminder.Reminder) *datastore.PendingReminder {
	return &datastore.PendingReminder{
		Key:       r.Key,
		PlantID:   r.PlantID,
		TriggerAt: r.TriggerAt,
		Title:     r.Title,
		Body:      r.Body,
		Badge:     r.Badge,
	}
}

func fromPending(p *datastore.PendingReminder) reminder.Reminder {
	return reminder.Reminder{
		Key:       p.Key,
		PlantID:   p.PlantID,
		TriggerAt: p.TriggerAt,
		Title:     p.Title,
		Body:      p.Body,
		Badge:     p.Badge,
	}
}
