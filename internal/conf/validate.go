// conf/validate.go

package conf

import (
	"fmt"
	"net"
	"strings"
	"time"
)

// supportedLocales lists the locales with care summary phrase tables.
var supportedLocales = map[string]struct{}{
	"ko": {},
	"en": {},
}

// ValidationError represents a collection of validation errors
type ValidationError struct {
	Errors []string
}

// Error returns a string representation of the validation errors
func (ve ValidationError) Error() string {
	return fmt.Sprintf("Validation errors: %v", ve.Errors)
}

// ValidateSettings validates the entire Settings struct
func ValidateSettings(settings *Settings) error {
	ve := ValidationError{}

	validators := []func(*Settings) error{
		validateMainSettings,
		validateReminderSettings,
		validatePlantNetSettings,
		validatePerenualSettings,
		validateClassifierSettings,
		validateAdsSettings,
		validateEntitlementSettings,
		validateWebServerSettings,
		validateSentrySettings,
	}

	for _, validate := range validators {
		if err := validate(settings); err != nil {
			ve.Errors = append(ve.Errors, err.Error())
		}
	}

	if len(ve.Errors) > 0 {
		return ve
	}
	return nil
}

func validateMainSettings(s *Settings) error {
	if _, ok := supportedLocales[strings.ToLower(s.Main.Locale)]; !ok {
		return fmt.Errorf("main.locale %q is not supported", s.Main.Locale)
	}
	if s.Main.Timezone != "" && s.Main.Timezone != "Local" {
		if _, err := time.LoadLocation(s.Main.Timezone); err != nil {
			return fmt.Errorf("main.timezone %q is invalid: %w", s.Main.Timezone, err)
		}
	}
	return nil
}

func validateReminderSettings(s *Settings) error {
	if s.Reminder.Hour < 0 || s.Reminder.Hour > 23 {
		return fmt.Errorf("reminder.hour must be between 0 and 23, got %d", s.Reminder.Hour)
	}
	return nil
}

func validatePlantNetSettings(s *Settings) error {
	p := &s.PlantNet
	if !p.Enabled {
		return nil
	}
	if p.BaseURL == "" {
		return fmt.Errorf("plantnet.baseurl is required")
	}
	if p.Timeout <= 0 {
		return fmt.Errorf("plantnet.timeout must be positive")
	}
	if p.Results < 1 {
		return fmt.Errorf("plantnet.results must be at least 1, got %d", p.Results)
	}
	if p.MaxImageBytes <= 0 {
		return fmt.Errorf("plantnet.maximagebytes must be positive")
	}
	if p.RateLimit < 0 {
		return fmt.Errorf("plantnet.ratelimit cannot be negative")
	}
	return nil
}

func validatePerenualSettings(s *Settings) error {
	p := &s.Perenual
	if !p.Enabled {
		return nil
	}
	if p.BaseURL == "" {
		return fmt.Errorf("perenual.baseurl is required")
	}
	if p.Timeout <= 0 {
		return fmt.Errorf("perenual.timeout must be positive")
	}
	return nil
}

func validateClassifierSettings(s *Settings) error {
	c := &s.Classifier
	if !c.Enabled {
		return nil
	}
	if c.InputSize <= 0 {
		return fmt.Errorf("classifier.inputsize must be positive")
	}
	if c.Threads < 0 {
		return fmt.Errorf("classifier.threads cannot be negative")
	}
	return nil
}

func validateAdsSettings(s *Settings) error {
	if s.Ads.Expiration <= 0 {
		return fmt.Errorf("ads.expiration must be positive")
	}
	if s.Ads.RewardedUnitID == "" {
		return fmt.Errorf("ads.rewardedunitid is required")
	}
	return nil
}

func validateEntitlementSettings(s *Settings) error {
	if s.Entitlement.FreePlantLimit < 0 {
		return fmt.Errorf("entitlement.freeplantlimit cannot be negative")
	}
	return nil
}

func validateWebServerSettings(s *Settings) error {
	if !s.WebServer.Enabled {
		return nil
	}
	if _, _, err := net.SplitHostPort(s.WebServer.Listen); err != nil {
		return fmt.Errorf("webserver.listen %q is invalid: %w", s.WebServer.Listen, err)
	}
	return nil
}

func validateSentrySettings(s *Settings) error {
	if s.Sentry.Enabled && s.Sentry.DSN == "" {
		return fmt.Errorf("sentry.dsn is required when sentry is enabled")
	}
	return nil
}
