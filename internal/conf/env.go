// env.go - Environment variable configuration and validation for Danbi
package conf

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/viper"
)

// envBinding holds metadata for environment variable bindings (internal use)
type envBinding struct {
	ConfigKey string             // Viper config key
	EnvVar    string             // Environment variable name
	Validate  func(string) error // Optional validation function
}

// getEnvBindings returns all environment variable bindings with validation
func getEnvBindings() []envBinding {
	return []envBinding{
		{"debug", "DANBI_DEBUG", validateEnvBool},
		{"main.locale", "DANBI_LOCALE", validateEnvLocale},
		{"main.timezone", "DANBI_TIMEZONE", nil},

		{"store.path", "DANBI_STORE_PATH", nil},

		{"reminder.enabled", "DANBI_REMINDER_ENABLED", validateEnvBool},
		{"reminder.hour", "DANBI_REMINDER_HOUR", validateEnvHour},

		// Third party API credentials
		{"plantnet.apikey", "DANBI_PLANTNET_APIKEY", nil},
		{"perenual.apikey", "DANBI_PERENUAL_APIKEY", nil},
		{"plantnet.apikeyfile", "DANBI_PLANTNET_APIKEY_FILE", nil},
		{"perenual.apikeyfile", "DANBI_PERENUAL_APIKEY_FILE", nil},

		{"classifier.modelpath", "DANBI_CLASSIFIER_MODELPATH", nil},
		{"classifier.labelpath", "DANBI_CLASSIFIER_LABELPATH", nil},

		{"sentry.dsn", "DANBI_SENTRY_DSN", nil},
	}
}

// bindEnvVars sets up environment variable bindings with validation (internal)
func bindEnvVars(v *viper.Viper) error {
	var warnings []string

	for _, binding := range getEnvBindings() {
		if err := v.BindEnv(binding.ConfigKey, binding.EnvVar); err != nil {
			warnings = append(warnings, fmt.Sprintf("Failed to bind %s: %v", binding.EnvVar, err))
			continue
		}

		if binding.Validate == nil {
			continue
		}
		if envValue := os.Getenv(binding.EnvVar); envValue != "" {
			if err := binding.Validate(envValue); err != nil {
				warnings = append(warnings, fmt.Sprintf("Invalid %s value '%s': %v", binding.EnvVar, envValue, err))
			}
		}
	}

	if len(warnings) > 0 {
		return fmt.Errorf("environment variable issues:\n  - %s", strings.Join(warnings, "\n  - "))
	}
	return nil
}

func validateEnvBool(value string) error {
	if _, err := strconv.ParseBool(value); err != nil {
		return fmt.Errorf("invalid boolean value '%s': must be true/false, 1/0", value)
	}
	return nil
}

func validateEnvLocale(value string) error {
	if _, ok := supportedLocales[strings.ToLower(value)]; !ok {
		return fmt.Errorf("unsupported locale '%s', expected one of: ko, en", value)
	}
	return nil
}

func validateEnvHour(value string) error {
	hour, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("invalid hour: %w", err)
	}
	if hour < 0 || hour > 23 {
		return fmt.Errorf("hour must be between 0 and 23, got %d", hour)
	}
	return nil
}
