package observability

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danbi-garden/danbi/internal/observability/metrics"
)

func TestNewMetrics_RegistersCollectors(t *testing.T) {
	t.Parallel()

	m, err := NewMetrics()
	require.NoError(t, err)

	m.Remote.For("plantnet").RecordOperation(metrics.OpIdentify, metrics.StatusSuccess)
	m.Remote.SetQuotaRemaining("plantnet", 42)
	m.Reminder.RecordOperation(metrics.OpSchedule, metrics.StatusSuccess)
	m.Reminder.SetPending(3)
	m.Identify.RecordOutcome("identified")
	m.Garden.SetPlants(4)
	m.Garden.RecordAd("rewarded", metrics.StatusSuccess)

	assert.Equal(t, 1, testutil.CollectAndCount(m.Remote, "danbi_remote_requests_total"))
	assert.Equal(t, 1, testutil.CollectAndCount(m.Remote, "danbi_remote_quota_remaining"))
	assert.Equal(t, 1, testutil.CollectAndCount(m.Reminder, "danbi_reminders_pending"))
	assert.Equal(t, 1, testutil.CollectAndCount(m.Identify, "danbi_identify_outcomes_total"))
	assert.Equal(t, 1, testutil.CollectAndCount(m.Garden, "danbi_ads_presented_total"))
}

func TestMetricsHandler(t *testing.T) {
	t.Parallel()

	m, err := NewMetrics()
	require.NoError(t, err)
	m.Garden.SetPlants(2)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", http.NoBody))

	require.Equal(t, http.StatusOK, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "danbi_plants_registered 2")
}

func TestNoOpRecorder(t *testing.T) {
	t.Parallel()

	r := metrics.OrNoOp(nil)
	assert.NotPanics(t, func() {
		r.RecordOperation("x", "y")
		r.RecordDuration("x", 1)
		r.RecordError("x", "y")
	})
}
