// Package conf loads and validates Danbi settings.
package conf

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/danbi-garden/danbi/internal/errors"
	"github.com/danbi-garden/danbi/internal/logger"
	"github.com/danbi-garden/danbi/internal/secrets"
)

// MainSettings holds process-wide settings
type MainSettings struct {
	Name     string // application name used in logs and telemetry
	Locale   string // "ko" or "en", selects care summary phrasing
	Timezone string // IANA timezone used for reminder dates, "Local" for system time
}

// StoreSettings configures the sqlite plant registry
type StoreSettings struct {
	Path          string        // sqlite database file
	SlowThreshold time.Duration // queries slower than this are logged at WARN
}

// ReminderSettings configures watering reminders
type ReminderSettings struct {
	Enabled bool // global notification switch
	Hour    int  // local hour the reminder fires at
}

// NotificationSettings configures reminder delivery
type NotificationSettings struct {
	URLs    []string      // shoutrrr service URLs with optional ${VAR} references, empty means log-only delivery
	Timeout time.Duration // push send timeout
}

// PlantNetSettings configures the remote species identification service
type PlantNetSettings struct {
	Enabled       bool
	APIKey        string // may hold ${VAR} references
	APIKeyFile    string // secret file, takes precedence over APIKey
	BaseURL       string
	Lang          string
	Results       int           // nb-results query parameter
	Timeout       time.Duration // per identification request
	MaxImageBytes int           // upload size bound
	RateLimit     float64       // requests per second
}

// PerenualSettings configures the remote care directory
type PerenualSettings struct {
	Enabled        bool
	APIKey         string
	APIKeyFile     string
	BaseURL        string
	Timeout        time.Duration
	CacheTTL       time.Duration
	DetailsEnabled bool // fetch species details for benchmark and toxicity
}

// ClassifierSettings configures the on-device image classifier
type ClassifierSettings struct {
	Enabled   bool
	ModelPath string
	LabelPath string
	Threads   int
	InputSize int  // square input edge in pixels
	Signed    bool // scale pixels to [-1,1] instead of [0,1]
}

// AdsSettings configures the ad collaborator
type AdsSettings struct {
	RewardedUnitID string
	AppOpenUnitID  string
	Expiration     time.Duration // loaded ads older than this are discarded
}

// EntitlementSettings configures the free tier
type EntitlementSettings struct {
	FreePlantLimit int
}

// WebServerSettings configures the optional HTTP shell
type WebServerSettings struct {
	Enabled bool
	Listen  string
	Metrics bool // expose /metrics
}

// SentrySettings configures optional error telemetry
type SentrySettings struct {
	Enabled     bool
	DSN         string
	Environment string
}

// Settings contains all configuration options for Danbi
type Settings struct {
	Debug bool

	Version string `yaml:"-"` // set from build info, not stored

	Main         MainSettings
	Logging      logger.LoggingConfig
	Store        StoreSettings
	Reminder     ReminderSettings
	Notification NotificationSettings
	PlantNet     PlantNetSettings
	Perenual     PerenualSettings
	Classifier   ClassifierSettings
	Ads          AdsSettings
	Entitlement  EntitlementSettings
	WebServer    WebServerSettings
	Sentry       SentrySettings
}

// Location resolves Main.Timezone.
func (s *Settings) Location() (*time.Location, error) {
	switch s.Main.Timezone {
	case "", "Local":
		return time.Local, nil
	default:
		return time.LoadLocation(s.Main.Timezone)
	}
}

var (
	settingsInstance *Settings
	settingsMutex    sync.RWMutex
)

// Load reads configuration from configFile, or from the default search paths
// when configFile is empty. A missing config in the search paths is created
// with defaults. Values in a .env file in the working directory and in
// DANBI_* environment variables override the file.
func Load(configFile string) (*Settings, error) {
	settingsMutex.Lock()
	defer settingsMutex.Unlock()

	// .env is optional
	_ = godotenv.Load()

	v := viper.New()
	if err := initViper(v, configFile); err != nil {
		return nil, fmt.Errorf("error initializing viper: %w", err)
	}

	settings := &Settings{}
	if err := v.Unmarshal(settings); err != nil {
		return nil, errors.Newf("error unmarshaling config into struct: %w", err).
			Category(errors.CategoryConfiguration).
			Component("conf").
			Build()
	}

	if err := resolveSecrets(settings); err != nil {
		return nil, err
	}

	if err := ValidateSettings(settings); err != nil {
		return nil, fmt.Errorf("error validating settings: %w", err)
	}

	settingsInstance = settings
	return settings, nil
}

// resolveSecrets replaces credential references with their values.
func resolveSecrets(s *Settings) error {
	var err error
	if s.PlantNet.APIKey, err = secrets.Resolve(s.PlantNet.APIKeyFile, s.PlantNet.APIKey); err != nil {
		return fmt.Errorf("plantnet.apikey: %w", err)
	}
	if s.Perenual.APIKey, err = secrets.Resolve(s.Perenual.APIKeyFile, s.Perenual.APIKey); err != nil {
		return fmt.Errorf("perenual.apikey: %w", err)
	}
	if s.Sentry.DSN, err = secrets.Expand(s.Sentry.DSN); err != nil {
		return fmt.Errorf("sentry.dsn: %w", err)
	}
	for i, u := range s.Notification.URLs {
		if s.Notification.URLs[i], err = secrets.Expand(u); err != nil {
			return fmt.Errorf("notification.urls[%d]: %w", i, err)
		}
	}
	return nil
}

// GetSettings returns the most recently loaded settings, or nil.
func GetSettings() *Settings {
	settingsMutex.RLock()
	defer settingsMutex.RUnlock()
	return settingsInstance
}

// initViper sets defaults, binds environment variables and reads the config file.
func initViper(v *viper.Viper, configFile string) error {
	setDefaultConfig(v)

	if err := bindEnvVars(v); err != nil {
		return err
	}

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return errors.Newf("fatal error reading config file: %w", err).
				Category(errors.CategoryConfiguration).
				Context("config_file", configFile).
				Component("conf").
				Build()
		}
		return nil
	}

	v.SetConfigName("config")
	v.SetConfigType("yaml")

	configPaths, err := GetDefaultConfigPaths()
	if err != nil {
		return fmt.Errorf("error getting default config paths: %w", err)
	}
	for _, path := range configPaths {
		v.AddConfigPath(path)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return createDefaultConfig(v, configPaths[0])
		}
		return fmt.Errorf("fatal error reading config file: %w", err)
	}
	return nil
}

// createDefaultConfig writes the current default values to dir/config.yaml
func createDefaultConfig(v *viper.Viper, dir string) error {
	configPath := filepath.Join(dir, "config.yaml")

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Newf("error creating config directory: %w", err).
			Category(errors.CategoryFileIO).
			Context("dir", dir).
			Component("conf").
			Build()
	}

	data, err := yaml.Marshal(v.AllSettings())
	if err != nil {
		return fmt.Errorf("error encoding default config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0o600); err != nil {
		return errors.Newf("error writing default config file: %w", err).
			Category(errors.CategoryFileIO).
			Context("path", configPath).
			Component("conf").
			Build()
	}

	return nil
}

// Dump renders settings as YAML with secrets masked.
func Dump(s *Settings) ([]byte, error) {
	masked := *s
	masked.PlantNet.APIKey = maskSecret(s.PlantNet.APIKey)
	masked.Perenual.APIKey = maskSecret(s.Perenual.APIKey)
	masked.Sentry.DSN = maskSecret(s.Sentry.DSN)
	masked.Notification.URLs = make([]string, len(s.Notification.URLs))
	for i, u := range s.Notification.URLs {
		masked.Notification.URLs[i] = maskURL(u)
	}
	return yaml.Marshal(&masked)
}

// maskURL keeps the service scheme of a push URL so the dump still shows
// which services are configured.
func maskURL(u string) string {
	if scheme, _, ok := strings.Cut(u, "://"); ok {
		return scheme + "://********"
	}
	return maskSecret(u)
}

func maskSecret(s string) string {
	if s == "" {
		return ""
	}
	return "********"
}
