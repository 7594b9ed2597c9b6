package ads

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/danbi-garden/danbi/internal/errors"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// fakeSDK counts loads and answers shows from fields.
type fakeSDK struct {
	rewardedLoads atomic.Int32
	appOpenLoads  atomic.Int32
	shows         atomic.Int32

	loadErr  error
	showErr  error
	reward   bool
	gate     chan struct{} // blocks LoadRewarded when set
	lastUnit atomic.Value
}

func (f *fakeSDK) LoadRewarded(ctx context.Context, unitID string) error {
	f.lastUnit.Store(unitID)
	f.rewardedLoads.Add(1)
	if f.gate != nil {
		select {
		case <-f.gate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return f.loadErr
}

func (f *fakeSDK) ShowRewarded(context.Context, string) (bool, error) {
	f.shows.Add(1)
	return f.reward, f.showErr
}

func (f *fakeSDK) LoadAppOpen(_ context.Context, unitID string) error {
	f.lastUnit.Store(unitID)
	f.appOpenLoads.Add(1)
	return f.loadErr
}

func (f *fakeSDK) ShowAppOpen(context.Context, string) error {
	f.shows.Add(1)
	return f.showErr
}

// fakeClock is a settable time source.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type countingRecorder struct {
	mu     sync.Mutex
	events map[string]int
}

func (r *countingRecorder) RecordAd(format, status string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.events == nil {
		r.events = map[string]int{}
	}
	r.events[format+"/"+status]++
}

func (r *countingRecorder) count(key string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.events[key]
}

func TestRewarded_LoadAndPresent(t *testing.T) {
	sdk := &fakeSDK{reward: true}
	rec := &countingRecorder{}
	m := NewRewardedManager(sdk, WithRecorder(rec))
	defer m.Close()

	require.NoError(t, m.Load(t.Context()))
	assert.True(t, m.Ready())
	assert.Equal(t, DefaultRewardedUnitID, sdk.lastUnit.Load())

	rewarded, err := m.PresentRewarded(t.Context())
	require.NoError(t, err)
	assert.True(t, rewarded)
	assert.Equal(t, int32(1), sdk.shows.Load())
	assert.Equal(t, 1, rec.count("rewarded/rewarded"))

	// The ad is consumed and a reload follows.
	require.Eventually(t, func() bool { return sdk.rewardedLoads.Load() == 2 }, time.Second, 5*time.Millisecond)
	require.Eventually(t, m.Ready, time.Second, 5*time.Millisecond)
}

func TestRewarded_NotGranted(t *testing.T) {
	sdk := &fakeSDK{reward: false}
	m := NewRewardedManager(sdk)
	defer m.Close()

	require.NoError(t, m.Load(t.Context()))
	rewarded, err := m.PresentRewarded(t.Context())
	require.NoError(t, err)
	assert.False(t, rewarded)
}

func TestRewarded_NotLoadedStartsLoad(t *testing.T) {
	sdk := &fakeSDK{reward: true}
	m := NewRewardedManager(sdk)
	defer m.Close()

	rewarded, err := m.PresentRewarded(t.Context())
	require.ErrorIs(t, err, ErrNotReady)
	assert.True(t, errors.IsCategory(err, errors.CategoryAds))
	assert.False(t, rewarded)
	assert.Zero(t, sdk.shows.Load())

	require.Eventually(t, m.Ready, time.Second, 5*time.Millisecond)
}

func TestRewarded_ExpiredAdDiscarded(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
	sdk := &fakeSDK{reward: true}
	rec := &countingRecorder{}
	m := NewRewardedManager(sdk, WithClock(clock.Now), WithRecorder(rec))
	defer m.Close()

	require.NoError(t, m.Load(t.Context()))

	clock.Advance(4*time.Hour - time.Second)
	assert.True(t, m.Ready(), "still inside the validity window")

	clock.Advance(time.Second)
	assert.False(t, m.Ready(), "exactly four hours old is expired")
	assert.Equal(t, 1, rec.count("rewarded/expired"))

	rewarded, err := m.PresentRewarded(t.Context())
	require.ErrorIs(t, err, ErrNotReady)
	assert.False(t, rewarded)
	assert.Zero(t, sdk.shows.Load(), "expired ads are never shown")
	require.Eventually(t, func() bool { return sdk.rewardedLoads.Load() == 2 }, time.Second, 5*time.Millisecond)
}

func TestRewarded_LoadDeduplicated(t *testing.T) {
	sdk := &fakeSDK{gate: make(chan struct{})}
	m := NewRewardedManager(sdk)
	defer m.Close()

	var wg sync.WaitGroup
	for range 5 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, m.Load(t.Context()))
		}()
	}
	require.Eventually(t, func() bool { return sdk.rewardedLoads.Load() == 1 }, time.Second, 5*time.Millisecond)
	close(sdk.gate)
	wg.Wait()

	assert.Equal(t, int32(1), sdk.rewardedLoads.Load())
	assert.True(t, m.Ready())

	require.NoError(t, m.Load(t.Context()))
	assert.Equal(t, int32(1), sdk.rewardedLoads.Load(), "fresh ad is not reloaded")
}

func TestRewarded_LoadFailure(t *testing.T) {
	sdk := &fakeSDK{loadErr: errors.NewStd("no fill")}
	m := NewRewardedManager(sdk)
	defer m.Close()

	err := m.Load(t.Context())
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryAds))
	assert.False(t, m.Ready())
}

func TestRewarded_ShowFailure(t *testing.T) {
	sdk := &fakeSDK{showErr: errors.NewStd("presentation failed")}
	m := NewRewardedManager(sdk, WithUnitID("test-unit"))
	defer m.Close()

	require.NoError(t, m.Load(t.Context()))
	assert.Equal(t, "test-unit", sdk.lastUnit.Load())

	rewarded, err := m.PresentRewarded(t.Context())
	require.Error(t, err)
	assert.False(t, rewarded)
}

func TestAppOpen_ShowIfAvailable(t *testing.T) {
	sdk := &fakeSDK{}
	m := NewAppOpenManager(sdk, WithExpiry(time.Hour))
	defer m.Close()

	assert.False(t, m.ShowIfAvailable(t.Context()), "nothing loaded yet")
	require.Eventually(t, m.Ready, time.Second, 5*time.Millisecond)
	assert.Equal(t, DefaultAppOpenUnitID, sdk.lastUnit.Load())

	assert.True(t, m.ShowIfAvailable(t.Context()))
	assert.False(t, m.Showing())
	assert.Equal(t, int32(1), sdk.shows.Load())
	require.Eventually(t, func() bool { return sdk.appOpenLoads.Load() == 2 }, time.Second, 5*time.Millisecond)
}

func TestAppOpen_ExpiredNotShown(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
	sdk := &fakeSDK{}
	m := NewAppOpenManager(sdk, WithClock(clock.Now))
	defer m.Close()

	require.NoError(t, m.Load(t.Context()))
	clock.Advance(5 * time.Hour)

	assert.False(t, m.ShowIfAvailable(t.Context()))
	assert.Zero(t, sdk.shows.Load())
}

func TestAppOpen_ShowFailureReloads(t *testing.T) {
	sdk := &fakeSDK{showErr: errors.NewStd("window unavailable")}
	m := NewAppOpenManager(sdk)
	defer m.Close()

	require.NoError(t, m.Load(t.Context()))
	assert.False(t, m.ShowIfAvailable(t.Context()))
	require.Eventually(t, func() bool { return sdk.appOpenLoads.Load() == 2 }, time.Second, 5*time.Millisecond)
}

func TestSlot_TakeWhileShowing(t *testing.T) {
	sdk := &fakeSDK{}
	m := NewAppOpenManager(sdk)
	defer m.Close()

	require.NoError(t, m.Load(t.Context()))
	require.NoError(t, m.slot.take())
	assert.ErrorIs(t, m.slot.take(), ErrAlreadyShowing)
	m.slot.release()
}

func TestConsoleSDK(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	sdk := &ConsoleSDK{In: strings.NewReader("y\nn\n"), Out: &out}

	granted, err := sdk.ShowRewarded(t.Context(), "unit")
	require.NoError(t, err)
	assert.True(t, granted)

	granted, err = sdk.ShowRewarded(t.Context(), "unit")
	require.NoError(t, err)
	assert.False(t, granted)

	granted, err = sdk.ShowRewarded(t.Context(), "unit")
	require.NoError(t, err)
	assert.False(t, granted, "end of input is not a reward")
	assert.Contains(t, out.String(), "리워드 광고")

	auto := &ConsoleSDK{AutoGrant: true}
	granted, err = auto.ShowRewarded(t.Context(), "unit")
	require.NoError(t, err)
	assert.True(t, granted)

	require.NoError(t, auto.LoadRewarded(t.Context(), "unit"))
	require.NoError(t, auto.ShowAppOpen(t.Context(), "unit"))
}
