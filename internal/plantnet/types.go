// Package plantnet provides a client for the Pl@ntNet identification API v2
package plantnet

import (
	"fmt"
	"time"

	"github.com/danbi-garden/danbi/internal/errors"
)

// Match is one ranked species candidate. ScientificName carries no author
// citation; FullName does.
type Match struct {
	ScientificName string   `json:"scientific_name"`
	FullName       string   `json:"full_name,omitempty"`
	CommonNames    []string `json:"common_names,omitempty"`
	Genus          string   `json:"genus,omitempty"`
	Family         string   `json:"family,omitempty"`
	Score          float64  `json:"score"`
}

// EnglishName is the first common name written in Latin script, or the
// scientific name when there is none.
func (m *Match) EnglishName() string {
	for _, name := range m.CommonNames {
		if hasLatinLetter(name) {
			return name
		}
	}
	return m.ScientificName
}

// FirstCommonName is the first common name, or "".
func (m *Match) FirstCommonName() string {
	if len(m.CommonNames) == 0 {
		return ""
	}
	return m.CommonNames[0]
}

func hasLatinLetter(s string) bool {
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') {
			return true
		}
	}
	return false
}

// identifyResponse is the subset of the /v2/identify response Danbi reads.
type identifyResponse struct {
	BestMatch                       string   `json:"bestMatch"`
	Results                         []result `json:"results"`
	RemainingIdentificationRequests *int     `json:"remainingIdentificationRequests"`
}

type result struct {
	Score   float64 `json:"score"`
	Species struct {
		ScientificNameWithoutAuthor string   `json:"scientificNameWithoutAuthor"`
		ScientificName              string   `json:"scientificName"`
		CommonNames                 []string `json:"commonNames"`
		Genus                       *taxon   `json:"genus"`
		Family                      *taxon   `json:"family"`
	} `json:"species"`
}

type taxon struct {
	ScientificName string `json:"scientificName"`
}

func (t *taxon) name() string {
	if t == nil {
		return ""
	}
	return t.ScientificName
}

// Config holds configuration for the Pl@ntNet client
type Config struct {
	APIKey        string        `json:"api_key"`
	BaseURL       string        `json:"base_url"`
	Lang          string        `json:"lang"`
	Results       int           `json:"results"`         // nb-results
	Timeout       time.Duration `json:"timeout"`         // per identification request
	MaxImageBytes int           `json:"max_image_bytes"` // upload bound
	RateLimit     float64       `json:"rate_limit"`      // requests per second
}

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() Config {
	return Config{
		BaseURL:       "https://my-api.plantnet.org",
		Lang:          "en",
		Results:       3,
		Timeout:       15 * time.Second,
		MaxImageBytes: 5 * 1024 * 1024,
		RateLimit:     2,
	}
}

// Sentinel errors returned (wrapped) by Identify.
var (
	ErrAuth          = errors.NewStd("plantnet: authentication failed")
	ErrQuotaExceeded = errors.NewStd("plantnet: daily quota exceeded")
	ErrNotRecognized = errors.NewStd("plantnet: plant not recognized")
	ErrParse         = errors.NewStd("plantnet: unexpected response")
	ErrEmptyImage    = errors.NewStd("plantnet: image is empty")
	ErrImageTooLarge = errors.NewStd("plantnet: image exceeds upload limit")
)

// ServerError is a non-success status the client has no specific mapping for.
type ServerError struct {
	Code int
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("plantnet: server error (status %d)", e.Code)
}

// ErrorCategory implements errors.CategorizedError.
func (e *ServerError) ErrorCategory() errors.ErrorCategory {
	return errors.CategoryNetwork
}
