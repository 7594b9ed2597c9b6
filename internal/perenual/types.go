// Package perenual provides a client for the Perenual plant care API v2
package perenual

import "time"

// Species is the care record Danbi reads from the directory. Optional
// fields are empty or nil when the response omits them.
type Species struct {
	ID                int      `json:"id"`
	CommonName        string   `json:"common_name"`
	ScientificName    string   `json:"scientific_name"`
	Watering          string   `json:"watering"` // Frequent, Average, Minimum, None
	Benchmark         string   `json:"benchmark,omitempty"`
	Sunlight          []string `json:"sunlight,omitempty"`
	Cycle             string   `json:"cycle,omitempty"`
	GrowthRate        string   `json:"growth_rate,omitempty"`
	Maintenance       string   `json:"maintenance,omitempty"`
	PoisonousToHumans *bool    `json:"poisonous_to_humans,omitempty"`
	PoisonousToPets   *bool    `json:"poisonous_to_pets,omitempty"`
}

// DefaultWatering is assumed when a record has no watering category.
const DefaultWatering = "Average"

// Config holds configuration for the Perenual client
type Config struct {
	APIKey         string        `json:"api_key"`
	BaseURL        string        `json:"base_url"`
	Timeout        time.Duration `json:"timeout"`
	CacheTTL       time.Duration `json:"cache_ttl"`
	DetailsEnabled bool          `json:"details_enabled"`
}

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() Config {
	return Config{
		BaseURL:  "https://perenual.com",
		Timeout:  10 * time.Second,
		CacheTTL: 24 * time.Hour, // care data rarely changes
	}
}
