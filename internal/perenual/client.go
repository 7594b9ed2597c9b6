package perenual

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/tidwall/gjson"

	"github.com/danbi-garden/danbi/internal/errors"
	"github.com/danbi-garden/danbi/internal/logger"
	"github.com/danbi-garden/danbi/internal/observability/metrics"
)

const (
	searchPath       = "/api/v2/species-list"
	detailsPath      = "/api/v2/species/details/"
	maxPreviewLength = 500
	maxResponseBytes = 2 * 1024 * 1024
	providerName     = "perenual"
)

// Sentinel errors returned (wrapped) by the client.
var (
	ErrAuth          = errors.NewStd("perenual: authentication failed")
	ErrQuotaExceeded = errors.NewStd("perenual: rate limit exceeded")
	ErrNotFound      = errors.NewStd("perenual: resource not found")
	ErrParse         = errors.NewStd("perenual: unexpected response")
)

// ServerError is a non-success status the client has no specific mapping for.
type ServerError struct {
	Code int
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("perenual: server error (status %d)", e.Code)
}

// ErrorCategory implements errors.CategorizedError.
func (e *ServerError) ErrorCategory() errors.ErrorCategory {
	return errors.CategoryNetwork
}

// searchEntry is cached per query; a nil species records a miss.
type searchEntry struct {
	species *Species
}

// Client provides methods for interacting with the Perenual API
type Client struct {
	config     Config
	httpClient *http.Client
	cache      *cache.Cache
	log        logger.Logger
	recorder   metrics.Recorder
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithLogger sets the logger.
func WithLogger(log logger.Logger) Option {
	return func(c *Client) { c.log = log }
}

// WithMetrics records request outcomes and cache hits.
func WithMetrics(m *metrics.RemoteMetrics) Option {
	return func(c *Client) {
		if m != nil {
			c.recorder = m.For(providerName)
		}
	}
}

// NewClient creates a new Perenual API client
func NewClient(config Config, opts ...Option) (*Client, error) {
	if config.APIKey == "" {
		return nil, errors.Newf("Perenual API key is required").
			Category(errors.CategoryConfiguration).
			Component(providerName).
			Build()
	}

	defaults := DefaultConfig()
	if config.BaseURL == "" {
		config.BaseURL = defaults.BaseURL
	}
	config.BaseURL = strings.TrimRight(config.BaseURL, "/")
	if config.Timeout <= 0 {
		config.Timeout = defaults.Timeout
	}
	if config.CacheTTL <= 0 {
		config.CacheTTL = defaults.CacheTTL
	}

	c := &Client{
		config:     config,
		httpClient: &http.Client{},
		cache:      cache.New(config.CacheTTL, config.CacheTTL*2),
		log:        logger.NewDiscardLogger(),
		recorder:   metrics.NoOpRecorder{},
	}
	for _, opt := range opts {
		opt(c)
	}
	c.log = c.log.Module(providerName)

	c.log.Info("Perenual client initialized",
		logger.String("base_url", config.BaseURL),
		logger.Duration("timeout", config.Timeout),
		logger.Duration("cache_ttl", config.CacheTTL),
		logger.Bool("details_enabled", config.DetailsEnabled),
		logger.Bool("api_key_configured", true))

	return c, nil
}

// Search looks up query and returns the first matching species, or nil
// when the directory has no entry for it.
func (c *Client) Search(ctx context.Context, query string) (*Species, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}

	cacheKey := "search:" + strings.ToLower(query)
	if cached, found := c.cache.Get(cacheKey); found {
		c.recorder.RecordOperation(metrics.OpSearch, metrics.StatusHit)
		c.log.Debug("cache hit", logger.String("query", query))
		return cloneSpecies(cached.(searchEntry).species), nil
	}
	c.recorder.RecordOperation(metrics.OpSearch, metrics.StatusMiss)

	start := time.Now()
	species, err := c.search(ctx, query)
	c.recorder.RecordDuration(metrics.OpSearch, time.Since(start).Seconds())
	if err != nil {
		c.recorder.RecordOperation(metrics.OpSearch, metrics.StatusError)
		c.recorder.RecordError(metrics.OpSearch, string(errors.CategoryOf(err)))
		return nil, err
	}
	c.recorder.RecordOperation(metrics.OpSearch, metrics.StatusSuccess)

	if species != nil && c.config.DetailsEnabled && species.ID > 0 {
		if err := c.fillDetails(ctx, species); err != nil {
			c.log.Warn("species details unavailable, using list entry",
				logger.Int("species_id", species.ID),
				logger.String("category", string(errors.CategoryOf(err))),
				logger.Error(err))
		}
	}

	c.cache.Set(cacheKey, searchEntry{species: cloneSpecies(species)}, cache.DefaultExpiration)
	return species, nil
}

// Details fetches the details record for id.
func (c *Client) Details(ctx context.Context, id int) (*Species, error) {
	s := &Species{ID: id, Watering: DefaultWatering}
	if err := c.fillDetails(ctx, s); err != nil {
		return nil, err
	}
	return s, nil
}

// ClearCache clears all cached data
func (c *Client) ClearCache() {
	c.cache.Flush()
	c.log.Info("Perenual cache cleared")
}

// CacheSize returns the number of cached queries.
func (c *Client) CacheSize() int {
	return c.cache.ItemCount()
}

func (c *Client) search(ctx context.Context, query string) (*Species, error) {
	q := url.Values{}
	q.Set("key", c.config.APIKey)
	q.Set("q", query)

	body, err := c.get(ctx, c.config.BaseURL+searchPath+"?"+q.Encode(), metrics.OpSearch)
	if err != nil {
		return nil, err
	}
	if !gjson.ValidBytes(body) {
		return nil, c.parseError(body)
	}

	species, ok := parseFirstSpecies(body)
	if !ok {
		c.log.Debug("no species found", logger.String("query", query))
		return nil, nil
	}

	c.log.Debug("species found",
		logger.String("query", query),
		logger.Int("species_id", species.ID),
		logger.String("common_name", species.CommonName))
	return species, nil
}

func (c *Client) fillDetails(ctx context.Context, s *Species) error {
	q := url.Values{}
	q.Set("key", c.config.APIKey)
	endpoint := c.config.BaseURL + detailsPath + strconv.Itoa(s.ID) + "?" + q.Encode()

	start := time.Now()
	body, err := c.get(ctx, endpoint, metrics.OpDetails)
	c.recorder.RecordDuration(metrics.OpDetails, time.Since(start).Seconds())
	if err == nil && !gjson.ValidBytes(body) {
		err = c.parseError(body)
	}
	if err != nil {
		c.recorder.RecordOperation(metrics.OpDetails, metrics.StatusError)
		c.recorder.RecordError(metrics.OpDetails, string(errors.CategoryOf(err)))
		return err
	}
	c.recorder.RecordOperation(metrics.OpDetails, metrics.StatusSuccess)

	applyDetails(s, body)
	return nil
}

// get performs a GET and returns the body of a 200 response.
func (c *Client) get(ctx context.Context, endpoint, operation string) ([]byte, error) {
	reqCtx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, endpoint, http.NoBody)
	if err != nil {
		return nil, errors.Newf("failed to create HTTP request: %w", err).
			Category(errors.CategoryNetwork).
			Context("operation", operation).
			Component(providerName).
			Build()
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Warn("Perenual request failed",
			logger.String("operation", operation),
			logger.Error(err))
		return nil, transportError(err, operation)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			c.log.Debug("failed to close response body", logger.Error(err))
		}
	}()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, transportError(err, operation)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, c.statusError(resp.StatusCode, body, operation)
	}
	return body, nil
}

func (c *Client) statusError(status int, body []byte, operation string) error {
	c.log.Warn("Perenual error response",
		logger.String("operation", operation),
		logger.Int("status_code", status),
		logger.String("response_preview", preview(body)))

	var sentinel error
	category := errors.CategoryNetwork
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		c.log.Error("Perenual authentication failed",
			logger.Int("status_code", status),
			logger.String("message", "Check your Perenual API key in the configuration"))
		sentinel, category = ErrAuth, errors.CategoryConfiguration
	case http.StatusTooManyRequests:
		sentinel, category = ErrQuotaExceeded, errors.CategoryLimit
	case http.StatusNotFound:
		sentinel, category = ErrNotFound, errors.CategoryNotFound
	default:
		sentinel = &ServerError{Code: status}
	}

	return errors.New(sentinel).
		Category(category).
		Context("status_code", status).
		Context("operation", operation).
		Component(providerName).
		Build()
}

func (c *Client) parseError(body []byte) error {
	c.log.Error("Failed to parse Perenual response",
		logger.Int("response_size", len(body)),
		logger.String("response_preview", preview(body)))
	return errors.New(ErrParse).
		Category(errors.CategoryFileParsing).
		Context("response_size", len(body)).
		Component(providerName).
		Build()
}

// transportError classifies failures that happen before a status is known.
// The request URL carries the API key and is never included.
func transportError(err error, operation string) error {
	category := errors.CategoryNetwork
	var netErr net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		category = errors.CategoryTimeout
	case errors.As(err, &netErr) && netErr.Timeout():
		category = errors.CategoryTimeout
	case errors.Is(err, context.Canceled):
		category = errors.CategoryCancellation
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		err = urlErr.Err
	}
	return errors.Newf("%s failed: %w", operation, err).
		Category(category).
		Context("operation", operation).
		Component(providerName).
		Build()
}

func cloneSpecies(s *Species) *Species {
	if s == nil {
		return nil
	}
	out := *s
	out.Sunlight = append([]string(nil), s.Sunlight...)
	return &out
}

func preview(body []byte) string {
	s := string(body)
	if len(s) > maxPreviewLength {
		return s[:maxPreviewLength] + "..."
	}
	return s
}
