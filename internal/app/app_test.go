package app

import (
	"io"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danbi-garden/danbi/internal/ads"
	"github.com/danbi-garden/danbi/internal/conf"
	"github.com/danbi-garden/danbi/internal/garden"
	"github.com/danbi-garden/danbi/internal/logger"
)

func testSettings(t *testing.T) *conf.Settings {
	t.Helper()
	return &conf.Settings{
		Main: conf.MainSettings{Name: "Danbi", Locale: "ko", Timezone: "UTC"},
		Logging: logger.LoggingConfig{
			Console: &logger.ConsoleOutput{Enabled: false},
		},
		Store:        conf.StoreSettings{Path: filepath.Join(t.TempDir(), "danbi.db")},
		Reminder:     conf.ReminderSettings{Enabled: true, Hour: 10},
		Notification: conf.NotificationSettings{Timeout: time.Second},
		Ads: conf.AdsSettings{
			RewardedUnitID: conf.DefaultRewardedUnitID,
			AppOpenUnitID:  conf.DefaultAppOpenUnitID,
			Expiration:     4 * time.Hour,
		},
		Entitlement: conf.EntitlementSettings{FreePlantLimit: 3},
	}
}

func TestNew_RequiresSettings(t *testing.T) {
	_, err := New(t.Context(), nil)
	require.Error(t, err)
}

func TestNew_OptionalServicesDegrade(t *testing.T) {
	settings := testSettings(t)
	settings.PlantNet.Enabled = true // no API key
	settings.Classifier = conf.ClassifierSettings{Enabled: true, ModelPath: filepath.Join(t.TempDir(), "missing.tflite")}

	a, err := New(t.Context(), settings, WithAdSDK(&ads.ConsoleSDK{Out: io.Discard, AutoGrant: true}))
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })

	assert.False(t, a.Identifier.RemoteConfigured())
	assert.False(t, a.Identifier.LocalAvailable())
	assert.Equal(t, 3, a.Gate.Limit())
}

func TestNew_InvalidTimezone(t *testing.T) {
	settings := testSettings(t)
	settings.Main.Timezone = "Not/AZone"

	_, err := New(t.Context(), settings)
	require.Error(t, err)
}

func TestApp_GatedCreateAndRestore(t *testing.T) {
	settings := testSettings(t)
	sdk := &ads.ConsoleSDK{Out: io.Discard, AutoGrant: true}

	a, err := New(t.Context(), settings, WithAdSDK(sdk))
	require.NoError(t, err)

	for _, name := range []string{"a", "b", "c", "d"} {
		_, err := a.Garden.Create(t.Context(), garden.Draft{Name: name})
		require.NoError(t, err, name)
	}

	pending, err := a.Garden.PendingReminders(t.Context())
	require.NoError(t, err)
	assert.Len(t, pending, 4)
	require.NoError(t, a.Close())

	// a second process sees the same plants and reminders
	b, err := New(t.Context(), settings, WithAdSDK(sdk))
	require.NoError(t, err)
	t.Cleanup(func() { _ = b.Close() })

	n, err := b.Garden.Count(t.Context())
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	pending, err = b.Garden.PendingReminders(t.Context())
	require.NoError(t, err)
	assert.Len(t, pending, 4)
}

func TestApp_NotificationSwitchSurvivesRestart(t *testing.T) {
	settings := testSettings(t)
	sdk := &ads.ConsoleSDK{Out: io.Discard, AutoGrant: true}

	a, err := New(t.Context(), settings, WithAdSDK(sdk))
	require.NoError(t, err)
	rec, err := a.Garden.Create(t.Context(), garden.Draft{Name: "몬스테라"})
	require.NoError(t, err)
	require.NoError(t, a.Garden.SetNotificationsEnabled(t.Context(), false))
	require.NoError(t, a.Close())

	// config still says enabled; the saved choice wins
	b, err := New(t.Context(), settings, WithAdSDK(sdk))
	require.NoError(t, err)
	assert.False(t, b.Garden.NotificationsEnabled())

	_, err = b.Garden.Water(t.Context(), rec.ID)
	require.NoError(t, err)
	pending, err := b.Garden.PendingReminders(t.Context())
	require.NoError(t, err)
	assert.Empty(t, pending)

	require.NoError(t, b.Garden.SetNotificationsEnabled(t.Context(), true))
	require.NoError(t, b.Close())

	c, err := New(t.Context(), settings, WithAdSDK(sdk))
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	assert.True(t, c.Garden.NotificationsEnabled())
	pending, err = c.Garden.PendingReminders(t.Context())
	require.NoError(t, err)
	assert.Len(t, pending, 1)
}
