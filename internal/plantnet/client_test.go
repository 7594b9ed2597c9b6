package plantnet

import (
	"context"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/jarcoal/httpmock"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danbi-garden/danbi/internal/errors"
	"github.com/danbi-garden/danbi/internal/observability/metrics"
)

const (
	testBaseURL     = "https://plantnet.test"
	testIdentifyURL = testBaseURL + "/v2/identify/all"
)

var testImage = []byte{0xff, 0xd8, 0xff, 0xe0, 0x00, 0x10, 'J', 'F', 'I', 'F'}

const monsteraResponse = `{
  "bestMatch": "Monstera deliciosa Liebm.",
  "results": [
    {
      "score": 0.8731,
      "species": {
        "scientificNameWithoutAuthor": "Monstera deliciosa",
        "scientificName": "Monstera deliciosa Liebm.",
        "commonNames": ["몬스테라", "Swiss cheese plant", "Split-leaf philodendron"],
        "genus": {"scientificName": "Monstera"},
        "family": {"scientificName": "Araceae"}
      }
    },
    {
      "score": 0.05,
      "species": {
        "scientificNameWithoutAuthor": "Thaumatophyllum bipinnatifidum",
        "scientificName": "Thaumatophyllum bipinnatifidum (Schott ex Endl.) Sakur. et al.",
        "commonNames": []
      }
    }
  ],
  "remainingIdentificationRequests": 487
}`

func setupTestClient(t *testing.T, opts ...Option) (*Client, *httpmock.MockTransport) {
	t.Helper()
	transport := httpmock.NewMockTransport()
	cfg := DefaultConfig()
	cfg.APIKey = "test-key"
	cfg.BaseURL = testBaseURL
	cfg.RateLimit = 1000
	cfg.Timeout = 2 * time.Second

	client, err := NewClient(cfg, append([]Option{WithHTTPClient(&http.Client{Transport: transport})}, opts...)...)
	require.NoError(t, err)
	return client, transport
}

func TestNewClient_RequiresAPIKey(t *testing.T) {
	t.Parallel()

	_, err := NewClient(Config{})
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryConfiguration))
}

func TestIdentify_Success(t *testing.T) {
	t.Parallel()

	client, transport := setupTestClient(t)
	transport.RegisterResponder(http.MethodPost, testIdentifyURL,
		func(req *http.Request) (*http.Response, error) {
			q := req.URL.Query()
			assert.Equal(t, "test-key", q.Get("api-key"))
			assert.Equal(t, "en", q.Get("lang"))
			assert.Equal(t, "3", q.Get("nb-results"))

			require.NoError(t, req.ParseMultipartForm(1<<20))
			assert.Equal(t, "auto", req.FormValue("organs"))
			file, header, err := req.FormFile("images")
			require.NoError(t, err)
			defer file.Close()
			assert.Equal(t, "plant.jpg", header.Filename)
			assert.Equal(t, "image/jpeg", header.Header.Get("Content-Type"))
			data, err := io.ReadAll(file)
			require.NoError(t, err)
			assert.Equal(t, testImage, data)

			return httpmock.NewStringResponse(http.StatusOK, monsteraResponse), nil
		})

	matches, err := client.Identify(t.Context(), testImage)
	require.NoError(t, err)
	require.Len(t, matches, 2)

	top := matches[0]
	assert.Equal(t, "Monstera deliciosa", top.ScientificName)
	assert.Equal(t, "Monstera deliciosa Liebm.", top.FullName)
	assert.Equal(t, "Monstera", top.Genus)
	assert.Equal(t, "Araceae", top.Family)
	assert.InDelta(t, 0.8731, top.Score, 1e-9)
	assert.Equal(t, "몬스테라", top.FirstCommonName())
	assert.Equal(t, "Swiss cheese plant", top.EnglishName())

	assert.Equal(t, "Thaumatophyllum bipinnatifidum", matches[1].EnglishName())
	assert.Empty(t, matches[1].Genus)

	remaining, ok := client.RemainingRequests()
	require.True(t, ok)
	assert.Equal(t, 487, remaining)
	assert.Equal(t, 1, transport.GetTotalCallCount())
}

func TestIdentify_StatusMapping(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		status   int
		body     string
		sentinel error
		category errors.ErrorCategory
	}{
		{"unauthorized", http.StatusUnauthorized, `{"message":"Invalid API key"}`, ErrAuth, errors.CategoryConfiguration},
		{"forbidden", http.StatusForbidden, `{}`, ErrAuth, errors.CategoryConfiguration},
		{"quota", http.StatusTooManyRequests, `{"message":"Too Many Requests"}`, ErrQuotaExceeded, errors.CategoryLimit},
		{"not recognized", http.StatusNotFound, `{"message":"Species not found"}`, ErrNotRecognized, errors.CategoryNotFound},
		{"empty results", http.StatusOK, `{"results":[]}`, ErrNotRecognized, errors.CategoryNotFound},
		{"malformed", http.StatusOK, `<html>oops</html>`, ErrParse, errors.CategoryFileParsing},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			client, transport := setupTestClient(t)
			transport.RegisterResponder(http.MethodPost, testIdentifyURL,
				httpmock.NewStringResponder(tt.status, tt.body))

			_, err := client.Identify(t.Context(), testImage)
			require.Error(t, err)
			require.ErrorIs(t, err, tt.sentinel)
			assert.True(t, errors.IsCategory(err, tt.category), "category %s", errors.CategoryOf(err))
			assert.NotContains(t, err.Error(), "test-key")
		})
	}
}

func TestIdentify_ServerError(t *testing.T) {
	t.Parallel()

	client, transport := setupTestClient(t)
	transport.RegisterResponder(http.MethodPost, testIdentifyURL,
		httpmock.NewStringResponder(http.StatusServiceUnavailable, "maintenance"))

	_, err := client.Identify(t.Context(), testImage)
	require.Error(t, err)

	var serverErr *ServerError
	require.ErrorAs(t, err, &serverErr)
	assert.Equal(t, http.StatusServiceUnavailable, serverErr.Code)
	assert.True(t, errors.IsCategory(err, errors.CategoryNetwork))
}

func TestIdentify_TransportErrors(t *testing.T) {
	t.Parallel()

	client, transport := setupTestClient(t)
	transport.RegisterResponder(http.MethodPost, testIdentifyURL,
		httpmock.NewErrorResponder(errors.NewStd("connection refused")))

	_, err := client.Identify(t.Context(), testImage)
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryNetwork))
	assert.NotContains(t, err.Error(), "test-key", "request URL must not leak")
}

func TestIdentify_Timeout(t *testing.T) {
	t.Parallel()

	client, transport := setupTestClient(t)
	transport.RegisterResponder(http.MethodPost, testIdentifyURL,
		func(req *http.Request) (*http.Response, error) {
			<-req.Context().Done()
			return nil, req.Context().Err()
		})

	ctx, cancel := context.WithTimeout(t.Context(), 50*time.Millisecond)
	defer cancel()

	_, err := client.Identify(ctx, testImage)
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryTimeout))
}

func TestIdentify_ImageValidation(t *testing.T) {
	t.Parallel()

	client, transport := setupTestClient(t)

	_, err := client.Identify(t.Context(), nil)
	require.ErrorIs(t, err, ErrEmptyImage)
	assert.True(t, errors.IsCategory(err, errors.CategoryValidation))

	big := make([]byte, DefaultConfig().MaxImageBytes+1)
	_, err = client.Identify(t.Context(), big)
	require.ErrorIs(t, err, ErrImageTooLarge)

	assert.Zero(t, transport.GetTotalCallCount(), "invalid images must not reach the network")
}

func TestIdentify_RecordsMetrics(t *testing.T) {
	t.Parallel()

	registry := prometheus.NewRegistry()
	m, err := metrics.NewRemoteMetrics(registry)
	require.NoError(t, err)

	client, transport := setupTestClient(t, WithMetrics(m))
	transport.RegisterResponder(http.MethodPost, testIdentifyURL,
		httpmock.NewStringResponder(http.StatusOK, monsteraResponse))

	_, err = client.Identify(t.Context(), testImage)
	require.NoError(t, err)

	families, err := registry.Gather()
	require.NoError(t, err)
	found := map[string]bool{}
	for _, f := range families {
		found[f.GetName()] = true
	}
	assert.True(t, found["danbi_remote_requests_total"])
	assert.True(t, found["danbi_remote_quota_remaining"])
}
