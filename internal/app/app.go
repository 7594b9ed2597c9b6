// Package app wires settings into the running component graph shared by the
// CLI and HTTP shells.
package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/getsentry/sentry-go"

	"github.com/danbi-garden/danbi/internal/ads"
	"github.com/danbi-garden/danbi/internal/careinfo"
	"github.com/danbi-garden/danbi/internal/classifier"
	"github.com/danbi-garden/danbi/internal/conf"
	"github.com/danbi-garden/danbi/internal/datastore"
	"github.com/danbi-garden/danbi/internal/entitlement"
	"github.com/danbi-garden/danbi/internal/errors"
	"github.com/danbi-garden/danbi/internal/garden"
	"github.com/danbi-garden/danbi/internal/identify"
	"github.com/danbi-garden/danbi/internal/logger"
	"github.com/danbi-garden/danbi/internal/notification"
	"github.com/danbi-garden/danbi/internal/observability"
	"github.com/danbi-garden/danbi/internal/perenual"
	"github.com/danbi-garden/danbi/internal/plantnet"
	"github.com/danbi-garden/danbi/internal/reminder"
)

const sentryFlushTimeout = 2 * time.Second

// App holds every long-lived component.
type App struct {
	Settings *conf.Settings
	Log      logger.Logger
	Metrics  *observability.Metrics

	Store     *datastore.Store
	Sender    notification.Sender
	Center    *notification.LocalCenter
	Scheduler *reminder.Scheduler
	Garden    *garden.Service

	Identifier *identify.Identifier
	Resolver   *careinfo.Resolver
	Rewarded   *ads.RewardedManager
	AppOpen    *ads.AppOpenManager
	Gate       *entitlement.Gate

	central    *logger.CentralLogger
	classifier *classifier.Classifier
	sentry     bool

	sdk    ads.SDK
	stdin  io.Reader
	stdout io.Writer
}

// Option configures an App before it is built.
type Option func(*App)

// WithAdSDK replaces the console ad driver.
func WithAdSDK(sdk ads.SDK) Option {
	return func(a *App) { a.sdk = sdk }
}

// WithConsole sets the streams the console ad driver uses.
func WithConsole(in io.Reader, out io.Writer) Option {
	return func(a *App) {
		a.stdin = in
		a.stdout = out
	}
}

// New builds the component graph. Optional remote services and the
// classifier degrade to "unavailable" when they cannot be set up; a store
// or notification failure is fatal.
func New(ctx context.Context, settings *conf.Settings, opts ...Option) (*App, error) {
	if settings == nil {
		return nil, fmt.Errorf("settings are required")
	}

	a := &App{
		Settings: settings,
		stdin:    os.Stdin,
		stdout:   os.Stderr,
	}
	for _, opt := range opts {
		opt(a)
	}

	if err := a.initLogging(); err != nil {
		return nil, err
	}
	a.initTelemetry()

	m, err := observability.NewMetrics()
	if err != nil {
		return nil, fmt.Errorf("failed to create metrics: %w", err)
	}
	a.Metrics = m

	loc, err := settings.Location()
	if err != nil {
		return nil, errors.Newf("invalid timezone %q: %w", settings.Main.Timezone, err).
			Category(errors.CategoryConfiguration).
			Component("app").
			Build()
	}

	if a.Store, err = datastore.Open(settings.Store.Path, a.central.Module("datastore"), settings.Store.SlowThreshold); err != nil {
		return nil, err
	}

	// a saved toggle outranks the config file
	notify := settings.Reminder.Enabled
	prefs := a.Store.Preferences()
	if saved, ok, err := prefs.GetBool(ctx, garden.NotificationsPreference); err != nil {
		a.Log.Warn("failed to load notification preference", logger.Error(err))
	} else if ok {
		notify = saved
	}

	if err := a.initNotifications(ctx, loc, notify); err != nil {
		_ = a.Store.Close()
		return nil, err
	}

	a.Identifier = identify.NewIdentifier(a.remoteIdentifier(), a.localClassifier(),
		identify.WithLogger(a.central.Module("identify")),
		identify.WithMetrics(m.Identify))

	a.Resolver = careinfo.NewResolver(a.careDirectory(),
		careinfo.WithLanguage(settings.Main.Locale),
		careinfo.WithLogger(a.central.Module("careinfo")))

	a.initAds(ctx)

	a.Gate = entitlement.NewGate(a.Rewarded,
		entitlement.WithLimit(settings.Entitlement.FreePlantLimit),
		entitlement.WithLogger(a.central.Module("entitlement")))

	a.Garden = garden.NewService(a.Store.Plants(), a.Scheduler,
		garden.WithGate(a.Gate),
		garden.WithIdentifier(a.Identifier),
		garden.WithResolver(a.Resolver),
		garden.WithAppOpenAd(a.AppOpen),
		garden.WithLogger(a.central.Module("garden")),
		garden.WithMetrics(m.Garden),
		garden.WithPreferences(prefs),
		garden.WithNotifications(notify))

	a.Log.Info("application ready",
		logger.Bool("remote_identification", a.Identifier.RemoteConfigured()),
		logger.Bool("local_classifier", a.Identifier.LocalAvailable()),
		logger.Bool("notifications", notify))
	return a, nil
}

func (a *App) initLogging() error {
	central, err := logger.NewCentralLogger(&a.Settings.Logging)
	if err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	a.central = central
	a.Log = central.Module("app")
	return nil
}

func (a *App) initTelemetry() {
	s := a.Settings.Sentry
	if !s.Enabled {
		return
	}
	if err := errors.InitSentry(s.DSN, s.Environment, a.Settings.Version); err != nil {
		a.Log.Warn("error telemetry disabled", logger.Error(err))
		return
	}
	a.sentry = true
	a.Log.Info("error telemetry enabled", logger.String("environment", s.Environment))
}

func (a *App) initNotifications(ctx context.Context, loc *time.Location, enabled bool) error {
	s := a.Settings

	log := a.central.Module("notification")

	a.Sender = notification.NewLogSender(log)
	if len(s.Notification.URLs) > 0 {
		push, err := notification.NewPushSender(s.Notification.URLs, s.Notification.Timeout)
		if err != nil {
			return err
		}
		a.Sender = push
	}

	center, err := notification.NewLocalCenter(a.Store.Reminders(),
		notification.WithSender(a.Sender),
		notification.WithLogger(log),
		notification.WithMetrics(a.Metrics.Reminder),
		notification.WithSendTimeout(s.Notification.Timeout))
	if err != nil {
		return err
	}
	switch {
	case !enabled:
		// nothing may stay armed while reminders are off
		if err := center.CancelAll(ctx); err != nil {
			a.Log.Warn("failed to clear pending reminders", logger.Error(err))
		}
	default:
		if n, err := center.Restore(ctx); err != nil {
			a.Log.Warn("failed to restore pending reminders", logger.Error(err))
		} else if n > 0 {
			a.Log.Info("pending reminders restored", logger.Int("count", n))
		}
	}
	a.Center = center

	a.Scheduler = reminder.NewScheduler(center,
		reminder.WithLocation(loc),
		reminder.WithHour(s.Reminder.Hour),
		reminder.WithLogger(a.central.Module("reminder")))
	return nil
}

// remoteIdentifier returns nil, not a typed nil, when the service is off.
func (a *App) remoteIdentifier() identify.Remote {
	s := a.Settings.PlantNet
	if !s.Enabled || s.APIKey == "" {
		a.Log.Info("remote identification not configured")
		return nil
	}

	cfg := plantnet.DefaultConfig()
	cfg.APIKey = s.APIKey
	if s.BaseURL != "" {
		cfg.BaseURL = s.BaseURL
	}
	if s.Lang != "" {
		cfg.Lang = s.Lang
	}
	if s.Results > 0 {
		cfg.Results = s.Results
	}
	if s.Timeout > 0 {
		cfg.Timeout = s.Timeout
	}
	if s.MaxImageBytes > 0 {
		cfg.MaxImageBytes = s.MaxImageBytes
	}
	if s.RateLimit > 0 {
		cfg.RateLimit = s.RateLimit
	}

	client, err := plantnet.NewClient(cfg,
		plantnet.WithLogger(a.central.Module("plantnet")),
		plantnet.WithMetrics(a.Metrics.Remote))
	if err != nil {
		a.Log.Warn("remote identification unavailable", logger.Error(err))
		return nil
	}
	return client
}

func (a *App) localClassifier() identify.Local {
	s := a.Settings.Classifier
	if !s.Enabled {
		return nil
	}

	c, err := classifier.Load(classifier.Config{
		ModelPath: s.ModelPath,
		LabelPath: s.LabelPath,
		Threads:   s.Threads,
		InputSize: s.InputSize,
		Signed:    s.Signed,
	},
		classifier.WithLogger(a.central.Module("classifier")),
		classifier.WithRecorder(a.Metrics.Identify))
	if err != nil {
		a.Log.Warn("local classifier unavailable", logger.Error(err))
		return nil
	}
	a.classifier = c
	return c
}

func (a *App) careDirectory() careinfo.Directory {
	s := a.Settings.Perenual
	if !s.Enabled || s.APIKey == "" {
		a.Log.Info("care directory not configured")
		return nil
	}

	cfg := perenual.DefaultConfig()
	cfg.APIKey = s.APIKey
	if s.BaseURL != "" {
		cfg.BaseURL = s.BaseURL
	}
	if s.Timeout > 0 {
		cfg.Timeout = s.Timeout
	}
	if s.CacheTTL > 0 {
		cfg.CacheTTL = s.CacheTTL
	}
	cfg.DetailsEnabled = s.DetailsEnabled

	client, err := perenual.NewClient(cfg,
		perenual.WithLogger(a.central.Module("perenual")),
		perenual.WithMetrics(a.Metrics.Remote))
	if err != nil {
		a.Log.Warn("care directory unavailable", logger.Error(err))
		return nil
	}
	return client
}

func (a *App) initAds(ctx context.Context) {
	if a.sdk == nil {
		a.sdk = &ads.ConsoleSDK{In: a.stdin, Out: a.stdout}
	}
	s := a.Settings.Ads
	log := a.central.Module("ads")

	a.Rewarded = ads.NewRewardedManager(a.sdk,
		ads.WithUnitID(s.RewardedUnitID),
		ads.WithExpiry(s.Expiration),
		ads.WithLogger(log),
		ads.WithRecorder(a.Metrics.Garden))
	a.AppOpen = ads.NewAppOpenManager(a.sdk,
		ads.WithUnitID(s.AppOpenUnitID),
		ads.WithExpiry(s.Expiration),
		ads.WithLogger(log),
		ads.WithRecorder(a.Metrics.Garden))

	if err := a.Rewarded.Load(ctx); err != nil {
		a.Log.Warn("rewarded ad preload failed", logger.Error(err))
	}
	if err := a.AppOpen.Load(ctx); err != nil {
		a.Log.Warn("app open ad preload failed", logger.Error(err))
	}
}

// Module returns a logger for a named subsystem.
func (a *App) Module(name string) logger.Logger {
	return a.central.Module(name)
}

// Close releases every component in reverse start order.
func (a *App) Close() error {
	var errs []error

	if a.Rewarded != nil {
		a.Rewarded.Close()
	}
	if a.AppOpen != nil {
		a.AppOpen.Close()
	}
	if a.Center != nil {
		if err := a.Center.Shutdown(); err != nil {
			errs = append(errs, err)
		}
	}
	if a.classifier != nil {
		a.classifier.Close()
	}
	if a.Store != nil {
		if err := a.Store.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if a.sentry {
		sentry.Flush(sentryFlushTimeout)
	}
	if a.central != nil {
		if err := a.central.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
