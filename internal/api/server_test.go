package api

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danbi-garden/danbi/internal/careinfo"
	"github.com/danbi-garden/danbi/internal/datastore"
	"github.com/danbi-garden/danbi/internal/entitlement"
	"github.com/danbi-garden/danbi/internal/garden"
	"github.com/danbi-garden/danbi/internal/identify"
	"github.com/danbi-garden/danbi/internal/observability"
	"github.com/danbi-garden/danbi/internal/reminder"
)

var seoul = time.FixedZone("KST", 9*60*60)

type memoryDelivery struct {
	mu      sync.Mutex
	pending map[string]reminder.Reminder
}

func (d *memoryDelivery) Schedule(_ context.Context, r reminder.Reminder) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.pending[r.Key] = r
	return nil
}

func (d *memoryDelivery) Cancel(_ context.Context, key string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.pending, key)
	return nil
}

func (d *memoryDelivery) CancelAll(context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	clear(d.pending)
	return nil
}

func (d *memoryDelivery) Pending(context.Context) ([]reminder.Reminder, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]reminder.Reminder, 0, len(d.pending))
	for _, r := range d.pending {
		out = append(out, r)
	}
	return out, nil
}

type stubIdentifier struct {
	result identify.Result
	got    []byte
}

func (s *stubIdentifier) Identify(_ context.Context, image []byte) (identify.Result, error) {
	s.got = image
	if len(image) == 0 {
		return identify.NewIdentifier(nil, nil).Identify(context.Background(), image)
	}
	return s.result, nil
}

type stubResolver struct{ profile *careinfo.Profile }

func (s stubResolver) Resolve(context.Context, string, string) (*careinfo.Profile, error) {
	return s.profile, nil
}

type denyPresenter struct{}

func (denyPresenter) PresentRewarded(context.Context) (bool, error) { return false, nil }

func setupTestServer(t *testing.T, opts ...garden.Option) *Server {
	t.Helper()

	store, err := datastore.Open(":memory:", nil, 0)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	now := func() time.Time { return time.Date(2026, time.May, 10, 8, 0, 0, 0, seoul) }
	scheduler := reminder.NewScheduler(&memoryDelivery{pending: map[string]reminder.Reminder{}},
		reminder.WithClock(now), reminder.WithLocation(seoul))

	opts = append([]garden.Option{garden.WithClock(now)}, opts...)
	svc := garden.NewService(store.Plants(), scheduler, opts...)

	m, err := observability.NewMetrics()
	require.NoError(t, err)

	srv, err := New(DefaultConfig(), svc, WithMetrics(m))
	require.NoError(t, err)
	return srv
}

func doJSON(t *testing.T, srv *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	return rec
}

func intPtr(v int) *int { return &v }

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestConfigValidate(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	cfg.Listen = "no-port"
	require.Error(t, cfg.Validate())

	_, err := New(nil, nil)
	require.Error(t, err)
}

func TestHealthAndMetrics(t *testing.T) {
	srv := setupTestServer(t)

	rec := doJSON(t, srv, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)

	rec = doJSON(t, srv, http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestPlantLifecycle(t *testing.T) {
	srv := setupTestServer(t)

	lastWatered := time.Date(2026, time.April, 30, 9, 0, 0, 0, seoul)
	rec := doJSON(t, srv, http.MethodPost, "/api/v1/plants", CreatePlantRequest{
		Name:         "몬스테라",
		Species:      "Monstera deliciosa",
		LastWatered:  &lastWatered,
		IntervalDays: intPtr(7),
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[PlantResponse](t, rec)
	assert.True(t, created.NeedsWater)
	assert.Equal(t, 10, created.DaysSinceWatered)
	assert.InDelta(t, 1.0, created.Progress, 0)
	assert.True(t, created.NextReminder.Equal(time.Date(2026, time.May, 10, 10, 0, 0, 0, seoul)))

	rec = doJSON(t, srv, http.MethodGet, "/api/v1/reminders", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	reminders := decode[[]ReminderResponse](t, rec)
	require.Len(t, reminders, 1)
	assert.Equal(t, created.ID, reminders[0].PlantID)

	rec = doJSON(t, srv, http.MethodPost, "/api/v1/plants/"+created.ID+"/water", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	watered := decode[PlantResponse](t, rec)
	assert.False(t, watered.NeedsWater)
	assert.Equal(t, 7, watered.DaysUntilDue)

	note := "창가"
	rec = doJSON(t, srv, http.MethodPatch, "/api/v1/plants/"+created.ID, UpdatePlantRequest{Note: &note})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "창가", decode[PlantResponse](t, rec).Note)

	rec = doJSON(t, srv, http.MethodDelete, "/api/v1/plants/"+created.ID, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = doJSON(t, srv, http.MethodGet, "/api/v1/plants/"+created.ID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not-found", decode[ErrorResponse](t, rec).Category)

	rec = doJSON(t, srv, http.MethodGet, "/api/v1/reminders", nil)
	assert.Empty(t, decode[[]ReminderResponse](t, rec))
}

func TestCreatePlant_Errors(t *testing.T) {
	srv := setupTestServer(t, garden.WithGate(entitlement.NewGate(denyPresenter{}, entitlement.WithLimit(1))))

	rec := doJSON(t, srv, http.MethodPost, "/api/v1/plants", CreatePlantRequest{Name: ""})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "validation", decode[ErrorResponse](t, rec).Category)

	rec = doJSON(t, srv, http.MethodPost, "/api/v1/plants", CreatePlantRequest{Name: "a"})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, srv, http.MethodPost, "/api/v1/plants", CreatePlantRequest{Name: "b"})
	assert.Equal(t, http.StatusPaymentRequired, rec.Code)

	rec = doJSON(t, srv, http.MethodGet, "/api/v1/plants", nil)
	assert.Len(t, decode[[]PlantResponse](t, rec), 1)
}

func TestCreatePlant_IntervalDays(t *testing.T) {
	srv := setupTestServer(t)

	for _, days := range []int{0, -3} {
		rec := doJSON(t, srv, http.MethodPost, "/api/v1/plants", CreatePlantRequest{Name: "율마", IntervalDays: intPtr(days)})
		assert.Equal(t, http.StatusBadRequest, rec.Code, "interval %d", days)
		assert.Equal(t, "validation", decode[ErrorResponse](t, rec).Category)
	}

	rec := doJSON(t, srv, http.MethodGet, "/api/v1/plants", nil)
	assert.Empty(t, decode[[]PlantResponse](t, rec))

	rec = doJSON(t, srv, http.MethodPost, "/api/v1/plants", CreatePlantRequest{Name: "율마"})
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, 7, decode[PlantResponse](t, rec).IntervalDays)
}

func TestSummary(t *testing.T) {
	srv := setupTestServer(t)

	rec := doJSON(t, srv, http.MethodGet, "/api/v1/summary", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	empty := decode[SummaryResponse](t, rec)
	assert.Zero(t, empty.NeedingWater)
	assert.Equal(t, "오늘은 물 줄 식물이 없어요!", empty.Message)

	overdue := time.Date(2026, time.April, 20, 9, 0, 0, 0, seoul)
	for _, name := range []string{"몬스테라", "스투키"} {
		rec = doJSON(t, srv, http.MethodPost, "/api/v1/plants", CreatePlantRequest{Name: name, LastWatered: &overdue})
		require.Equal(t, http.StatusCreated, rec.Code)
	}
	rec = doJSON(t, srv, http.MethodPost, "/api/v1/plants", CreatePlantRequest{Name: "율마"})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, srv, http.MethodGet, "/api/v1/summary", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	summary := decode[SummaryResponse](t, rec)
	assert.Equal(t, 3, summary.Plants)
	assert.Equal(t, 2, summary.NeedingWater)
	assert.Equal(t, "오늘은 2번 단비를 내려야해요!", summary.Message)
}

func TestInvalidPlantID(t *testing.T) {
	srv := setupTestServer(t)
	rec := doJSON(t, srv, http.MethodPost, "/api/v1/plants/not-a-uuid/water", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.NotEmpty(t, decode[ErrorResponse](t, rec).CorrelationID)
}

func TestReorderPlants(t *testing.T) {
	srv := setupTestServer(t)

	var ids []string
	for _, name := range []string{"a", "b", "c"} {
		rec := doJSON(t, srv, http.MethodPost, "/api/v1/plants", CreatePlantRequest{Name: name})
		require.Equal(t, http.StatusCreated, rec.Code)
		ids = append(ids, decode[PlantResponse](t, rec).ID)
	}

	rec := doJSON(t, srv, http.MethodPut, "/api/v1/plants/order", ReorderRequest{IDs: []string{ids[1], ids[2], ids[0]}})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	list := decode[[]PlantResponse](t, rec)
	require.Len(t, list, 3)
	assert.Equal(t, []string{"b", "c", "a"}, []string{list[0].Name, list[1].Name, list[2].Name})
}

func TestPlantImage(t *testing.T) {
	srv := setupTestServer(t)

	png := []byte("\x89PNG\r\n\x1a\n0000")
	rec := doJSON(t, srv, http.MethodPost, "/api/v1/plants", CreatePlantRequest{Name: "a", Image: png})
	require.Equal(t, http.StatusCreated, rec.Code)
	created := decode[PlantResponse](t, rec)
	assert.True(t, created.HasImage)

	rec = doJSON(t, srv, http.MethodGet, "/api/v1/plants/"+created.ID+"/image", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.Equal(t, png, rec.Body.Bytes())

	rec = doJSON(t, srv, http.MethodPost, "/api/v1/plants", CreatePlantRequest{Name: "b"})
	other := decode[PlantResponse](t, rec)
	rec = doJSON(t, srv, http.MethodGet, "/api/v1/plants/"+other.ID+"/image", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestIdentifyPhoto(t *testing.T) {
	stub := &stubIdentifier{result: identify.Result{
		Outcome: identify.OutcomeIdentified,
		Candidates: []identify.Candidate{
			{ScientificName: "Monstera deliciosa", DisplayName: "몬스테라", Confidence: 0.9},
		},
	}}
	srv := setupTestServer(t, garden.WithIdentifier(stub))

	var body bytes.Buffer
	mpw := multipart.NewWriter(&body)
	part, err := mpw.CreateFormFile(imageField, "plant.jpg")
	require.NoError(t, err)
	_, err = part.Write([]byte{0xff, 0xd8, 0xff})
	require.NoError(t, err)
	require.NoError(t, mpw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/identify", &body)
	req.Header.Set("Content-Type", mpw.FormDataContentType())
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, []byte{0xff, 0xd8, 0xff}, stub.got)
	result := decode[identify.Result](t, rec)
	assert.Equal(t, identify.OutcomeIdentified, result.Outcome)
	require.Len(t, result.Candidates, 1)
	assert.Equal(t, "몬스테라", result.Candidates[0].DisplayName)

	req = httptest.NewRequest(http.MethodPost, "/api/v1/identify", strings.NewReader(""))
	req.Header.Set("Content-Type", "image/jpeg")
	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetCare(t *testing.T) {
	three := 3
	srv := setupTestServer(t, garden.WithResolver(stubResolver{profile: &careinfo.Profile{
		CommonName:      "Monstera",
		RecommendedDays: &three,
		Summary:         "💧 물주기: 자주",
	}}))

	rec := doJSON(t, srv, http.MethodGet, "/api/v1/care?name=%EB%AA%AC%EC%8A%A4%ED%85%8C%EB%9D%BC", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	resp := decode[CareResponse](t, rec)
	assert.Equal(t, 3, resp.IntervalDays)
	assert.Equal(t, "💧 물주기: 자주", resp.Note)
	assert.Equal(t, "Monstera", resp.Profile.CommonName)

	rec = doJSON(t, srv, http.MethodGet, "/api/v1/care", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	empty := setupTestServer(t, garden.WithResolver(stubResolver{}))
	rec = doJSON(t, empty, http.MethodGet, "/api/v1/care?name=x", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSearchSpecies(t *testing.T) {
	srv := setupTestServer(t)

	rec := doJSON(t, srv, http.MethodGet, "/api/v1/species?q=zzzz-nothing", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())

	rec = doJSON(t, srv, http.MethodGet, "/api/v1/species", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, decode[[]map[string]string](t, rec))
}

func TestNotificationsAndForeground(t *testing.T) {
	srv := setupTestServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/api/v1/plants", CreatePlantRequest{Name: "a"})
	require.Equal(t, http.StatusCreated, rec.Code)

	off := false
	rec = doJSON(t, srv, http.MethodPut, "/api/v1/settings/notifications", NotificationSettingsRequest{Enabled: &off})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"enabled":false}`, rec.Body.String())

	rec = doJSON(t, srv, http.MethodGet, "/api/v1/reminders", nil)
	assert.Empty(t, decode[[]ReminderResponse](t, rec))

	rec = doJSON(t, srv, http.MethodPut, "/api/v1/settings/notifications", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	on := true
	rec = doJSON(t, srv, http.MethodPut, "/api/v1/settings/notifications", NotificationSettingsRequest{Enabled: &on})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, srv, http.MethodPost, "/api/v1/foreground", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"ad_shown":false}`, rec.Body.String())

	rec = doJSON(t, srv, http.MethodGet, "/api/v1/reminders", nil)
	assert.Len(t, decode[[]ReminderResponse](t, rec), 1)
}

func TestUnknownRoute(t *testing.T) {
	srv := setupTestServer(t)
	rec := doJSON(t, srv, http.MethodGet, "/api/v1/nope", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, http.StatusNotFound, decode[ErrorResponse](t, rec).Code)
}
