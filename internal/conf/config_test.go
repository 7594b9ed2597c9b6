package conf

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	path := writeConfig(t, "main:\n  name: Danbi\n")

	s, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "ko", s.Main.Locale)
	assert.Equal(t, 10, s.Reminder.Hour)
	assert.True(t, s.Reminder.Enabled)
	assert.Equal(t, 15*time.Second, s.PlantNet.Timeout)
	assert.Equal(t, 3, s.PlantNet.Results)
	assert.Equal(t, "https://my-api.plantnet.org", s.PlantNet.BaseURL)
	assert.Equal(t, "https://perenual.com", s.Perenual.BaseURL)
	assert.Equal(t, 4*time.Hour, s.Ads.Expiration)
	assert.Equal(t, DefaultRewardedUnitID, s.Ads.RewardedUnitID)
	assert.Equal(t, DefaultAppOpenUnitID, s.Ads.AppOpenUnitID)
	assert.Equal(t, 3, s.Entitlement.FreePlantLimit)
	assert.Equal(t, "info", s.Logging.DefaultLevel)
	require.NotNil(t, s.Logging.Console)
	assert.True(t, s.Logging.Console.Enabled)
	assert.Same(t, s, GetSettings())
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
reminder:
  hour: 9
plantnet:
  apikey: from-file
  timeout: 5s
logging:
  default_level: debug
  module_levels:
    datastore: trace
`)

	s, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9, s.Reminder.Hour)
	assert.Equal(t, "from-file", s.PlantNet.APIKey)
	assert.Equal(t, 5*time.Second, s.PlantNet.Timeout)
	assert.Equal(t, "debug", s.Logging.DefaultLevel)
	assert.Equal(t, "trace", s.Logging.ModuleLevels["datastore"])
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "perenual:\n  apikey: from-file\n")
	t.Setenv("DANBI_PERENUAL_APIKEY", "from-env")
	t.Setenv("DANBI_REMINDER_HOUR", "8")

	s, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "from-env", s.Perenual.APIKey)
	assert.Equal(t, 8, s.Reminder.Hour)
}

func TestLoad_ResolvesSecretReferences(t *testing.T) {
	keyFile := filepath.Join(t.TempDir(), "perenual")
	require.NoError(t, os.WriteFile(keyFile, []byte("from-secret-file\n"), 0o600))
	t.Setenv("DANBI_TEST_PLANTNET", "from-reference")
	t.Setenv("DANBI_TEST_BOT", "bot-token")

	path := writeConfig(t, `
plantnet:
  apikey: ${DANBI_TEST_PLANTNET}
perenual:
  apikeyfile: `+keyFile+`
notification:
  urls:
    - telegram://${DANBI_TEST_BOT}@telegram?chats=1
`)

	s, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "from-reference", s.PlantNet.APIKey)
	assert.Equal(t, "from-secret-file", s.Perenual.APIKey)
	assert.Equal(t, []string{"telegram://bot-token@telegram?chats=1"}, s.Notification.URLs)
}

func TestLoad_MissingSecretReference(t *testing.T) {
	path := writeConfig(t, "plantnet:\n  apikey: ${DANBI_TEST_UNSET_KEY}\n")

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "plantnet.apikey")
}

func TestLoad_InvalidEnvValue(t *testing.T) {
	path := writeConfig(t, "{}\n")
	t.Setenv("DANBI_REMINDER_HOUR", "25")

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DANBI_REMINDER_HOUR")
}

func TestLoad_ValidationFailure(t *testing.T) {
	path := writeConfig(t, "reminder:\n  hour: 30\nmain:\n  locale: fr\n")

	_, err := Load(path)
	require.Error(t, err)

	var ve ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Len(t, ve.Errors, 2)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestValidateSettings_Sentry(t *testing.T) {
	s := &Settings{
		Main:        MainSettings{Locale: "en"},
		Reminder:    ReminderSettings{Hour: 10},
		Ads:         AdsSettings{Expiration: time.Hour, RewardedUnitID: "unit"},
		Sentry:      SentrySettings{Enabled: true},
		Entitlement: EntitlementSettings{FreePlantLimit: 3},
	}

	err := ValidateSettings(s)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sentry.dsn")

	s.Sentry.DSN = "https://public@sentry.example.com/1"
	require.NoError(t, ValidateSettings(s))
}

func TestLocation(t *testing.T) {
	s := &Settings{Main: MainSettings{Timezone: "Asia/Seoul"}}
	loc, err := s.Location()
	require.NoError(t, err)
	assert.Equal(t, "Asia/Seoul", loc.String())

	s.Main.Timezone = ""
	loc, err = s.Location()
	require.NoError(t, err)
	assert.Equal(t, time.Local, loc)
}

func TestDumpMasksSecrets(t *testing.T) {
	s := &Settings{}
	s.PlantNet.APIKey = "secret-plantnet"
	s.Perenual.APIKey = "secret-perenual"
	s.Notification.URLs = []string{"telegram://secret-token@telegram?chats=1"}

	out, err := Dump(s)
	require.NoError(t, err)
	assert.NotContains(t, string(out), "secret-token")
	assert.Contains(t, string(out), "telegram://********")
	assert.NotContains(t, string(out), "secret-plantnet")
	assert.NotContains(t, string(out), "secret-perenual")
	assert.Contains(t, string(out), "********")
	assert.Equal(t, "secret-plantnet", s.PlantNet.APIKey)
}
