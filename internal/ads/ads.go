// Package ads manages rewarded and app-open advertisements on top of an
// ad SDK. Loaded ads are valid for a fixed window after loading.
package ads

import (
	"context"
	"time"

	"github.com/danbi-garden/danbi/internal/errors"
	"github.com/danbi-garden/danbi/internal/logger"
)

// Production ad unit identifiers.
const (
	DefaultRewardedUnitID = "ca-app-pub-4144682979193082/8526010513"
	DefaultAppOpenUnitID  = "ca-app-pub-4144682979193082/4095810916"
)

// DefaultExpiry is how long a loaded ad stays presentable.
const DefaultExpiry = 4 * time.Hour

// Ad formats.
const (
	FormatRewarded = "rewarded"
	FormatAppOpen  = "app_open"
)

// Statuses passed to Recorder.RecordAd.
const (
	StatusLoaded      = "loaded"
	StatusLoadFailed  = "load_failed"
	StatusExpired     = "expired"
	StatusNotReady    = "not_ready"
	StatusShown       = "shown"
	StatusShowFailed  = "show_failed"
	StatusRewarded    = "rewarded"
	StatusNotRewarded = "not_rewarded"
)

// Sentinel errors.
var (
	ErrNotReady       = errors.NewStd("ads: no ad loaded")
	ErrAlreadyShowing = errors.NewStd("ads: an ad is already showing")
)

// SDK is the ad network collaborator. ShowRewarded blocks until the ad is
// dismissed and reports whether the reward was earned.
type SDK interface {
	LoadRewarded(ctx context.Context, unitID string) error
	ShowRewarded(ctx context.Context, unitID string) (bool, error)
	LoadAppOpen(ctx context.Context, unitID string) error
	ShowAppOpen(ctx context.Context, unitID string) error
}

// Recorder receives ad lifecycle events.
type Recorder interface {
	RecordAd(format, status string)
}

type noopRecorder struct{}

func (noopRecorder) RecordAd(string, string) {}

type config struct {
	unitID   string
	expiry   time.Duration
	now      func() time.Time
	log      logger.Logger
	recorder Recorder
}

// Option configures a manager.
type Option func(*config)

// WithUnitID overrides the ad unit.
func WithUnitID(id string) Option {
	return func(c *config) {
		if id != "" {
			c.unitID = id
		}
	}
}

// WithExpiry overrides the validity window.
func WithExpiry(d time.Duration) Option {
	return func(c *config) {
		if d > 0 {
			c.expiry = d
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(c *config) { c.now = now }
}

// WithLogger sets the logger.
func WithLogger(log logger.Logger) Option {
	return func(c *config) { c.log = log }
}

// WithRecorder records ad lifecycle events.
func WithRecorder(r Recorder) Option {
	return func(c *config) {
		if r != nil {
			c.recorder = r
		}
	}
}

func newConfig(defaultUnit string, opts []Option) *config {
	cfg := &config{
		unitID:   defaultUnit,
		expiry:   DefaultExpiry,
		now:      time.Now,
		log:      logger.NewDiscardLogger(),
		recorder: noopRecorder{},
	}
	for _, opt := range opts {
		opt(cfg)
	}
	cfg.log = cfg.log.Module("ads")
	return cfg
}

// RewardedManager holds one rewarded ad and presents it on demand.
type RewardedManager struct {
	sdk    SDK
	unitID string
	slot   *slot
}

// NewRewardedManager creates a manager for the rewarded unit.
func NewRewardedManager(sdk SDK, opts ...Option) *RewardedManager {
	cfg := newConfig(DefaultRewardedUnitID, opts)
	m := &RewardedManager{sdk: sdk, unitID: cfg.unitID}
	m.slot = newSlot(FormatRewarded, func(ctx context.Context) error {
		return sdk.LoadRewarded(ctx, m.unitID)
	}, cfg)
	return m
}

// Load fetches a rewarded ad unless a fresh one is held.
func (m *RewardedManager) Load(ctx context.Context) error {
	return m.slot.load(ctx)
}

// Ready reports whether a fresh ad is loaded.
func (m *RewardedManager) Ready() bool {
	return m.slot.ready()
}

// PresentRewarded shows the loaded ad and reports whether the reward was
// granted. Without a fresh ad it returns false with ErrNotReady and starts
// a load. The ad is consumed either way and a reload follows.
func (m *RewardedManager) PresentRewarded(ctx context.Context) (bool, error) {
	if err := m.slot.take(); err != nil {
		if errors.Is(err, ErrNotReady) {
			m.slot.reloadAsync()
		}
		return false, errors.New(err).
			Category(errors.CategoryAds).
			Context("format", FormatRewarded).
			Component("ads").
			Build()
	}
	defer m.slot.reloadAsync()
	defer m.slot.release()

	rewarded, err := m.sdk.ShowRewarded(ctx, m.unitID)
	if err != nil {
		m.slot.recorder.RecordAd(FormatRewarded, StatusShowFailed)
		m.slot.log.Warn("rewarded ad failed to show", logger.Error(err))
		return false, errors.Newf("rewarded ad failed to show: %w", err).
			Category(errors.CategoryAds).
			Context("format", FormatRewarded).
			Component("ads").
			Build()
	}

	m.slot.recorder.RecordAd(FormatRewarded, StatusShown)
	if rewarded {
		m.slot.recorder.RecordAd(FormatRewarded, StatusRewarded)
	} else {
		m.slot.recorder.RecordAd(FormatRewarded, StatusNotRewarded)
	}
	m.slot.log.Info("rewarded ad dismissed", logger.Bool("rewarded", rewarded))
	return rewarded, nil
}

// Close stops background loads.
func (m *RewardedManager) Close() {
	m.slot.close()
}

// AppOpenManager holds one app-open ad shown on foreground.
type AppOpenManager struct {
	sdk    SDK
	unitID string
	slot   *slot
}

// NewAppOpenManager creates a manager for the app-open unit.
func NewAppOpenManager(sdk SDK, opts ...Option) *AppOpenManager {
	cfg := newConfig(DefaultAppOpenUnitID, opts)
	m := &AppOpenManager{sdk: sdk, unitID: cfg.unitID}
	m.slot = newSlot(FormatAppOpen, func(ctx context.Context) error {
		return sdk.LoadAppOpen(ctx, m.unitID)
	}, cfg)
	return m
}

// Load fetches an app-open ad unless a fresh one is held.
func (m *AppOpenManager) Load(ctx context.Context) error {
	return m.slot.load(ctx)
}

// Ready reports whether a fresh ad is loaded.
func (m *AppOpenManager) Ready() bool {
	return m.slot.ready()
}

// Showing reports whether an app-open ad is on screen.
func (m *AppOpenManager) Showing() bool {
	return m.slot.isShowing()
}

// ShowIfAvailable presents the loaded ad and reports whether it was shown.
// Without a fresh ad, or while one is on screen, it returns false; a load
// starts unless an ad is already showing.
func (m *AppOpenManager) ShowIfAvailable(ctx context.Context) bool {
	if err := m.slot.take(); err != nil {
		if errors.Is(err, ErrNotReady) {
			m.slot.reloadAsync()
		}
		return false
	}
	defer m.slot.reloadAsync()
	defer m.slot.release()

	if err := m.sdk.ShowAppOpen(ctx, m.unitID); err != nil {
		m.slot.recorder.RecordAd(FormatAppOpen, StatusShowFailed)
		m.slot.log.Warn("app-open ad failed to show", logger.Error(err))
		return false
	}
	m.slot.recorder.RecordAd(FormatAppOpen, StatusShown)
	return true
}

// Close stops background loads.
func (m *AppOpenManager) Close() {
	m.slot.close()
}
