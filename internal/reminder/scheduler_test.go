package reminder

import (
	"bytes"
	"context"
	"encoding/json"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danbi-garden/danbi/internal/errors"
	"github.com/danbi-garden/danbi/internal/logger"
	"github.com/danbi-garden/danbi/internal/plant"
)

// fakeDelivery records calls in order and keeps at most one reminder per key.
type fakeDelivery struct {
	mu          sync.Mutex
	calls       []string
	pending     map[string]Reminder
	scheduleErr error
	cancelErr   error
}

func newFakeDelivery() *fakeDelivery {
	return &fakeDelivery{pending: make(map[string]Reminder)}
}

func (f *fakeDelivery) Schedule(_ context.Context, r Reminder) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "schedule:"+r.Key)
	if f.scheduleErr != nil {
		return f.scheduleErr
	}
	f.pending[r.Key] = r
	return nil
}

func (f *fakeDelivery) Cancel(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "cancel:"+key)
	if f.cancelErr != nil {
		return f.cancelErr
	}
	delete(f.pending, key)
	return nil
}

func (f *fakeDelivery) CancelAll(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "cancel-all")
	clear(f.pending)
	return nil
}

func (f *fakeDelivery) Pending(context.Context) ([]Reminder, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Reminder, 0, len(f.pending))
	for _, r := range f.pending {
		out = append(out, r)
	}
	slices.SortFunc(out, func(a, b Reminder) int { return a.TriggerAt.Compare(b.TriggerAt) })
	return out, nil
}

var seoul = time.FixedZone("KST", 9*60*60)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func newPlant(t *testing.T, name string, lastWatered time.Time, interval int) *plant.Record {
	t.Helper()
	p, err := plant.New(name, "", lastWatered, interval)
	require.NoError(t, err)
	return p
}

func TestTriggerFor(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		now         time.Time
		lastWatered time.Time
		interval    int
		want        time.Time
	}{
		{
			name:        "due in future fires on due date",
			now:         time.Date(2026, 5, 10, 8, 0, 0, 0, seoul),
			lastWatered: time.Date(2026, 5, 8, 19, 0, 0, 0, seoul),
			interval:    7,
			want:        time.Date(2026, 5, 15, 10, 0, 0, 0, seoul),
		},
		{
			name:        "due in future ignores current hour",
			now:         time.Date(2026, 5, 10, 22, 0, 0, 0, seoul),
			lastWatered: time.Date(2026, 5, 10, 21, 0, 0, 0, seoul),
			interval:    3,
			want:        time.Date(2026, 5, 13, 10, 0, 0, 0, seoul),
		},
		{
			name:        "overdue before hour fires today",
			now:         time.Date(2026, 5, 10, 9, 59, 0, 0, seoul),
			lastWatered: time.Date(2026, 5, 1, 10, 0, 0, 0, seoul),
			interval:    5,
			want:        time.Date(2026, 5, 10, 10, 0, 0, 0, seoul),
		},
		{
			name:        "overdue at hour rolls to tomorrow",
			now:         time.Date(2026, 5, 10, 10, 0, 0, 0, seoul),
			lastWatered: time.Date(2026, 5, 1, 10, 0, 0, 0, seoul),
			interval:    5,
			want:        time.Date(2026, 5, 11, 10, 0, 0, 0, seoul),
		},
		{
			name:        "due today after hour rolls to tomorrow",
			now:         time.Date(2026, 5, 10, 15, 0, 0, 0, seoul),
			lastWatered: time.Date(2026, 5, 3, 23, 0, 0, 0, seoul),
			interval:    7,
			want:        time.Date(2026, 5, 11, 10, 0, 0, 0, seoul),
		},
		{
			name:        "rollover crosses month end",
			now:         time.Date(2026, 5, 31, 11, 0, 0, 0, seoul),
			lastWatered: time.Date(2026, 5, 30, 11, 0, 0, 0, seoul),
			interval:    1,
			want:        time.Date(2026, 6, 1, 10, 0, 0, 0, seoul),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			s := NewScheduler(newFakeDelivery(), WithClock(fixedClock(tt.now)), WithLocation(seoul))
			got := s.TriggerFor(newPlant(t, "p", tt.lastWatered, tt.interval))
			assert.True(t, tt.want.Equal(got), "want %s, got %s", tt.want, got)
		})
	}
}

func TestTriggerFor_CustomHour(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 5, 10, 7, 30, 0, 0, seoul)
	s := NewScheduler(newFakeDelivery(), WithClock(fixedClock(now)), WithLocation(seoul), WithHour(7))
	got := s.TriggerFor(newPlant(t, "p", now.AddDate(0, 0, -3), 3))
	assert.Equal(t, time.Date(2026, 5, 11, 7, 0, 0, 0, seoul), got)
	assert.Equal(t, 7, s.Hour())
}

func TestScheduleFor_CancelsThenSchedules(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 5, 10, 8, 0, 0, 0, seoul)
	d := newFakeDelivery()
	s := NewScheduler(d, WithClock(fixedClock(now)), WithLocation(seoul))
	p := newPlant(t, "몬스테라", now.AddDate(0, 0, -2), 7)

	s.ScheduleFor(t.Context(), p)
	s.ScheduleFor(t.Context(), p)

	key := "watering-" + p.ID.String()
	assert.Equal(t, []string{"cancel:" + key, "schedule:" + key, "cancel:" + key, "schedule:" + key}, d.calls)

	pending, err := s.Pending(t.Context())
	require.NoError(t, err)
	require.Len(t, pending, 1)
	r := pending[0]
	assert.Equal(t, key, r.Key)
	assert.Equal(t, p.ID.String(), r.PlantID)
	assert.Equal(t, "💧 물 줄 시간이에요!", r.Title)
	assert.Equal(t, "몬스테라에게 단비를 내려주세요", r.Body)
	assert.Equal(t, 1, r.Badge)
	assert.Equal(t, time.Date(2026, 5, 15, 10, 0, 0, 0, seoul), r.TriggerAt)
}

func TestScheduleFor_DeliveryErrorsAreSwallowed(t *testing.T) {
	t.Parallel()

	d := newFakeDelivery()
	d.cancelErr = errors.NewStd("cancel failed")
	d.scheduleErr = errors.NewStd("permission denied")
	s := NewScheduler(d, WithLocation(seoul))

	assert.NotPanics(t, func() {
		s.ScheduleFor(t.Context(), newPlant(t, "p", time.Now(), 3))
	})
	assert.Len(t, d.calls, 2, "cancel failure must not stop scheduling")
}

func TestCancelFor_Idempotent(t *testing.T) {
	t.Parallel()

	d := newFakeDelivery()
	s := NewScheduler(d)
	p := newPlant(t, "p", time.Now(), 3)

	s.CancelFor(t.Context(), p)
	s.CancelFor(t.Context(), p)

	pending, err := s.Pending(t.Context())
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestRescheduleAll_CancelAllFirst(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 5, 10, 8, 0, 0, 0, seoul)
	d := newFakeDelivery()
	s := NewScheduler(d, WithClock(fixedClock(now)), WithLocation(seoul))

	stale := newPlant(t, "deleted elsewhere", now, 3)
	s.ScheduleFor(t.Context(), stale)

	plants := []*plant.Record{
		newPlant(t, "a", now.AddDate(0, 0, -2), 7),
		newPlant(t, "b", now.AddDate(0, 0, -10), 14),
	}
	d.calls = nil
	s.RescheduleAll(t.Context(), plants)

	require.NotEmpty(t, d.calls)
	assert.Equal(t, "cancel-all", d.calls[0])

	pending, err := s.Pending(t.Context())
	require.NoError(t, err)
	require.Len(t, pending, 2)
	keys := []string{pending[0].Key, pending[1].Key}
	assert.ElementsMatch(t, []string{plants[0].ReminderKey(), plants[1].ReminderKey()}, keys)
}

func TestRescheduleAll_EmptyOnlyCancels(t *testing.T) {
	t.Parallel()

	d := newFakeDelivery()
	s := NewScheduler(d)
	s.RescheduleAll(t.Context(), nil)
	assert.Equal(t, []string{"cancel-all"}, d.calls)
}

func TestRescheduleAll_StopsOnCancelledContext(t *testing.T) {
	t.Parallel()

	d := newFakeDelivery()
	s := NewScheduler(d)
	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	s.RescheduleAll(ctx, []*plant.Record{newPlant(t, "a", time.Now(), 3)})
	assert.Equal(t, []string{"cancel-all"}, d.calls)
}

// cancellingDelivery cancels the caller's context after the first schedule.
type cancellingDelivery struct {
	*fakeDelivery
	cancel context.CancelFunc
}

func (d *cancellingDelivery) Schedule(ctx context.Context, r Reminder) error {
	err := d.fakeDelivery.Schedule(ctx, r)
	d.cancel()
	return err
}

func TestRescheduleAll_InterruptedLogsRemaining(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(t.Context())
	defer cancel()
	d := &cancellingDelivery{fakeDelivery: newFakeDelivery(), cancel: cancel}

	buf := &bytes.Buffer{}
	s := NewScheduler(d, WithLogger(logger.NewSlogLogger(buf, logger.LogLevelWarn, time.UTC)))

	now := time.Now()
	plants := []*plant.Record{
		newPlant(t, "a", now, 3),
		newPlant(t, "b", now, 3),
		newPlant(t, "c", now, 3),
	}
	s.RescheduleAll(ctx, plants)
	assert.Len(t, d.pending, 1)

	var warned map[string]any
	for line := range strings.SplitSeq(strings.TrimSpace(buf.String()), "\n") {
		var rec map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &rec), line)
		if rec["msg"] == "reschedule interrupted" {
			warned = rec
		}
	}
	require.NotNil(t, warned, buf.String())
	assert.InDelta(t, 2, warned["remaining"], 0)
}
