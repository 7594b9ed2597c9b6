package plantnet

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net"
	"net/http"
	"net/textproto"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/danbi-garden/danbi/internal/errors"
	"github.com/danbi-garden/danbi/internal/logger"
	"github.com/danbi-garden/danbi/internal/observability/metrics"
)

const (
	identifyPath      = "/v2/identify/all"
	maxPreviewLength  = 500
	maxResponseBytes  = 2 * 1024 * 1024
	providerName      = "plantnet"
	defaultOrganHint  = "auto"
	uploadFilename    = "plant.jpg"
	uploadContentType = "image/jpeg"
)

// QuotaGauge receives the remaining daily quota reported by the API.
type QuotaGauge interface {
	SetQuotaRemaining(provider string, remaining int)
}

// Client provides methods for interacting with the Pl@ntNet API
type Client struct {
	config      Config
	httpClient  *http.Client
	rateLimiter *rate.Limiter
	log         logger.Logger
	recorder    metrics.Recorder
	quota       QuotaGauge

	mu        sync.RWMutex
	remaining int
	hasQuota  bool
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

// WithMetrics records request outcomes and the remaining quota.
func WithMetrics(m *metrics.RemoteMetrics) Option {
	return func(c *Client) {
		if m != nil {
			c.recorder = m.For(providerName)
			c.quota = m
		}
	}
}

// NewClient creates a new Pl@ntNet API client
func NewClient(config Config, opts ...Option) (*Client, error) {
	if config.APIKey == "" {
		return nil, errors.Newf("Pl@ntNet API key is required").
			Category(errors.CategoryConfiguration).
			Component(providerName).
			Build()
	}

	defaults := DefaultConfig()
	if config.BaseURL == "" {
		config.BaseURL = defaults.BaseURL
	}
	config.BaseURL = strings.TrimRight(config.BaseURL, "/")
	if config.Lang == "" {
		config.Lang = defaults.Lang
	}
	if config.Results <= 0 {
		config.Results = defaults.Results
	}
	if config.Timeout <= 0 {
		config.Timeout = defaults.Timeout
	}
	if config.MaxImageBytes <= 0 {
		config.MaxImageBytes = defaults.MaxImageBytes
	}
	if config.RateLimit <= 0 {
		config.RateLimit = defaults.RateLimit
	}

	c := &Client{
		config:      config,
		httpClient:  &http.Client{},
		rateLimiter: rate.NewLimiter(rate.Limit(config.RateLimit), 1),
		log:         logger.NewDiscardLogger(),
		recorder:    metrics.NoOpRecorder{},
	}
	for _, opt := range opts {
		opt(c)
	}
	c.log = c.log.Module(providerName)

	c.log.Info("Pl@ntNet client initialized",
		logger.String("base_url", config.BaseURL),
		logger.String("lang", config.Lang),
		logger.Int("results", config.Results),
		logger.Duration("timeout", config.Timeout),
		logger.Bool("api_key_configured", true))

	return c, nil
}

// RemainingRequests returns the daily quota left as of the last response.
func (c *Client) RemainingRequests() (int, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.remaining, c.hasQuota
}

// Identify uploads a JPEG photo and returns ranked candidates, best first.
func (c *Client) Identify(ctx context.Context, image []byte) ([]Match, error) {
	if len(image) == 0 {
		return nil, errors.New(ErrEmptyImage).
			Category(errors.CategoryValidation).
			Component(providerName).
			Build()
	}
	if len(image) > c.config.MaxImageBytes {
		return nil, errors.New(ErrImageTooLarge).
			Category(errors.CategoryValidation).
			Context("image_bytes", len(image)).
			Context("max_image_bytes", c.config.MaxImageBytes).
			Component(providerName).
			Build()
	}

	start := time.Now()
	matches, err := c.identify(ctx, image)
	c.recorder.RecordDuration(metrics.OpIdentify, time.Since(start).Seconds())
	if err != nil {
		c.recorder.RecordOperation(metrics.OpIdentify, metrics.StatusError)
		c.recorder.RecordError(metrics.OpIdentify, string(errors.CategoryOf(err)))
		return nil, err
	}
	c.recorder.RecordOperation(metrics.OpIdentify, metrics.StatusSuccess)
	return matches, nil
}

func (c *Client) identify(ctx context.Context, image []byte) ([]Match, error) {
	reqCtx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	if err := c.rateLimiter.Wait(reqCtx); err != nil {
		return nil, transportError(err, "rate limiter wait")
	}

	body, contentType, err := buildMultipart(image)
	if err != nil {
		return nil, errors.Newf("failed to build upload body: %w", err).
			Category(errors.CategoryValidation).
			Component(providerName).
			Build()
	}

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, c.requestURL(), body)
	if err != nil {
		return nil, errors.Newf("failed to create HTTP request: %w", err).
			Category(errors.CategoryNetwork).
			Component(providerName).
			Build()
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")

	c.log.Debug("Pl@ntNet identification request",
		logger.String("endpoint", c.config.BaseURL+identifyPath),
		logger.Int("image_kb", len(image)/1024))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Warn("Pl@ntNet request failed", logger.Error(err))
		return nil, transportError(err, "http request")
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			c.log.Debug("failed to close response body", logger.Error(err))
		}
	}()

	bodyBytes, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, transportError(err, "read response body")
	}

	if err := c.checkStatus(resp.StatusCode, bodyBytes); err != nil {
		return nil, err
	}

	var parsed identifyResponse
	if err := json.Unmarshal(bodyBytes, &parsed); err != nil {
		c.log.Error("Failed to parse Pl@ntNet response",
			logger.Error(err),
			logger.Int("response_size", len(bodyBytes)),
			logger.String("response_preview", preview(bodyBytes)))
		return nil, errors.Newf("%w: %w", ErrParse, err).
			Category(errors.CategoryFileParsing).
			Context("response_size", len(bodyBytes)).
			Component(providerName).
			Build()
	}

	if parsed.RemainingIdentificationRequests != nil {
		c.setRemaining(*parsed.RemainingIdentificationRequests)
	}

	if len(parsed.Results) == 0 {
		return nil, errors.New(ErrNotRecognized).
			Category(errors.CategoryNotFound).
			Component(providerName).
			Build()
	}

	matches := make([]Match, 0, len(parsed.Results))
	for i := range parsed.Results {
		r := &parsed.Results[i]
		sci := r.Species.ScientificNameWithoutAuthor
		if sci == "" {
			sci = r.Species.ScientificName
		}
		matches = append(matches, Match{
			ScientificName: sci,
			FullName:       r.Species.ScientificName,
			CommonNames:    r.Species.CommonNames,
			Genus:          r.Species.Genus.name(),
			Family:         r.Species.Family.name(),
			Score:          r.Score,
		})
	}

	c.log.Info("Pl@ntNet identification succeeded",
		logger.String("best_match", matches[0].ScientificName),
		logger.Float64("score", matches[0].Score),
		logger.Int("candidates", len(matches)))

	return matches, nil
}

// checkStatus maps non-success statuses to typed errors.
func (c *Client) checkStatus(status int, body []byte) error {
	if status == http.StatusOK {
		return nil
	}

	c.log.Warn("Pl@ntNet error response",
		logger.Int("status_code", status),
		logger.String("response_preview", preview(body)))

	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		c.log.Error("Pl@ntNet authentication failed",
			logger.Int("status_code", status),
			logger.String("message", "Check your Pl@ntNet API key in the configuration"))
		return errors.New(ErrAuth).
			Category(errors.CategoryConfiguration).
			Context("status_code", status).
			Component(providerName).
			Build()
	case http.StatusTooManyRequests:
		return errors.New(ErrQuotaExceeded).
			Category(errors.CategoryLimit).
			Context("status_code", status).
			Component(providerName).
			Build()
	case http.StatusNotFound:
		return errors.New(ErrNotRecognized).
			Category(errors.CategoryNotFound).
			Context("status_code", status).
			Component(providerName).
			Build()
	default:
		return errors.New(&ServerError{Code: status}).
			Category(errors.CategoryNetwork).
			Context("status_code", status).
			Component(providerName).
			Build()
	}
}

func (c *Client) requestURL() string {
	q := url.Values{}
	q.Set("api-key", c.config.APIKey)
	q.Set("lang", c.config.Lang)
	q.Set("nb-results", strconv.Itoa(c.config.Results))
	return c.config.BaseURL + identifyPath + "?" + q.Encode()
}

func (c *Client) setRemaining(n int) {
	c.mu.Lock()
	c.remaining = n
	c.hasQuota = true
	c.mu.Unlock()

	if c.quota != nil {
		c.quota.SetQuotaRemaining(providerName, n)
	}
	c.log.Debug("Pl@ntNet quota", logger.Int("remaining", n))
}

// buildMultipart writes the images and organs fields.
func buildMultipart(image []byte) (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="images"; filename=%q`, uploadFilename))
	header.Set("Content-Type", uploadContentType)
	part, err := w.CreatePart(header)
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(image); err != nil {
		return nil, "", err
	}
	if err := w.WriteField("organs", defaultOrganHint); err != nil {
		return nil, "", err
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
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

func preview(body []byte) string {
	s := string(body)
	if len(s) > maxPreviewLength {
		return s[:maxPreviewLength] + "..."
	}
	return s
}
