// Package careinfo turns a confirmed species name into a care profile used
// to prefill the plant form.
package careinfo

import (
	"context"
	"strconv"
	"strings"
	"unicode"

	"github.com/danbi-garden/danbi/internal/errors"
	"github.com/danbi-garden/danbi/internal/logger"
	"github.com/danbi-garden/danbi/internal/perenual"
	"github.com/danbi-garden/danbi/internal/species"
)

// Directory is the remote care directory. Search returns nil when nothing
// matches the query.
type Directory interface {
	Search(ctx context.Context, query string) (*perenual.Species, error)
}

// Profile is a species' general care requirements.
type Profile struct {
	CommonName        string   `json:"common_name"`
	ScientificName    string   `json:"scientific_name"`
	Watering          string   `json:"watering"`
	Benchmark         string   `json:"benchmark,omitempty"`
	RecommendedDays   *int     `json:"recommended_days,omitempty"`
	Sunlight          []string `json:"sunlight,omitempty"`
	Cycle             string   `json:"cycle,omitempty"`
	GrowthRate        string   `json:"growth_rate,omitempty"`
	Maintenance       string   `json:"maintenance,omitempty"`
	PoisonousToHumans bool     `json:"poisonous_to_humans"`
	PoisonousToPets   bool     `json:"poisonous_to_pets"`
	Summary           string   `json:"summary"`
}

// Resolver looks up care profiles.
type Resolver struct {
	dir  Directory
	lang string
	log  logger.Logger
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithLanguage sets the summary language (BCP 47). Korean by default.
func WithLanguage(lang string) Option {
	return func(r *Resolver) { r.lang = lang }
}

// WithLogger sets the logger.
func WithLogger(log logger.Logger) Option {
	return func(r *Resolver) { r.log = log }
}

// NewResolver creates a resolver. A nil directory resolves nothing.
func NewResolver(dir Directory, opts ...Option) *Resolver {
	r := &Resolver{
		dir:  dir,
		lang: "ko",
		log:  logger.NewDiscardLogger(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.log = r.log.Module("careinfo")
	return r
}

// SearchTermFor translates a display name into the directory query: the
// curated search-term table first, then the identifier's scientific-name
// mapping, then the name itself.
func SearchTermFor(name string) string {
	name = strings.TrimSpace(name)
	if term, ok := species.SearchTerm(name); ok {
		return term
	}
	if sci, ok := species.ScientificFor(name); ok {
		return sci
	}
	return name
}

// Resolve returns the care profile for name, trying fallback once when the
// first lookup comes back empty or fails. A nil profile with a nil error
// means nothing was found. The only error returned is context cancellation.
func (r *Resolver) Resolve(ctx context.Context, name, fallback string) (*Profile, error) {
	name = strings.TrimSpace(name)
	fallback = strings.TrimSpace(fallback)
	if r.dir == nil || name == "" {
		return nil, nil
	}

	s := r.lookup(ctx, SearchTermFor(name))
	if err := ctx.Err(); err != nil {
		return nil, cancelled(err)
	}

	if s == nil && fallback != "" && fallback != name {
		r.log.Debug("retrying with fallback name",
			logger.String("name", name),
			logger.String("fallback", fallback))
		s = r.lookup(ctx, SearchTermFor(fallback))
		if err := ctx.Err(); err != nil {
			return nil, cancelled(err)
		}
	}

	if s == nil {
		r.log.Info("no care profile found", logger.String("name", name))
		return nil, nil
	}

	p := profileFrom(s)
	p.Summary = Summary(p, r.lang)

	r.log.Info("care profile resolved",
		logger.String("name", name),
		logger.String("common_name", p.CommonName),
		logger.String("watering", p.Watering),
		logger.Bool("has_recommendation", p.RecommendedDays != nil))
	return p, nil
}

// lookup runs one directory query. Failures are logged and read as empty.
func (r *Resolver) lookup(ctx context.Context, query string) *perenual.Species {
	s, err := r.dir.Search(ctx, query)
	if err != nil {
		r.log.Warn("care directory lookup failed",
			logger.String("query", query),
			logger.String("category", string(errors.CategoryOf(err))),
			logger.Error(err))
		return nil
	}
	return s
}

func profileFrom(s *perenual.Species) *Profile {
	return &Profile{
		CommonName:        s.CommonName,
		ScientificName:    s.ScientificName,
		Watering:          s.Watering,
		Benchmark:         s.Benchmark,
		RecommendedDays:   RecommendedInterval(s.Benchmark, s.Watering),
		Sunlight:          append([]string(nil), s.Sunlight...),
		Cycle:             s.Cycle,
		GrowthRate:        s.GrowthRate,
		Maintenance:       s.Maintenance,
		PoisonousToHumans: s.PoisonousToHumans != nil && *s.PoisonousToHumans,
		PoisonousToPets:   s.PoisonousToPets != nil && *s.PoisonousToPets,
	}
}

// RecommendedInterval derives a watering interval in days. Two or more
// integers in the benchmark give the mean of the first two (integer
// division); one gives itself. Without a usable benchmark the watering
// category decides. Nil means no recommendation.
func RecommendedInterval(benchmark, watering string) *int {
	nums := positiveInts(benchmark)
	switch {
	case len(nums) >= 2:
		return intPtr((nums[0] + nums[1]) / 2)
	case len(nums) == 1:
		return intPtr(nums[0])
	}

	switch strings.ToLower(strings.TrimSpace(watering)) {
	case "frequent":
		return intPtr(3)
	case "average":
		return intPtr(7)
	case "minimum":
		return intPtr(14)
	}
	return nil
}

// positiveInts extracts every run of digits with a value above zero.
func positiveInts(s string) []int {
	fields := strings.FieldsFunc(s, func(r rune) bool { return !unicode.IsDigit(r) })
	out := make([]int, 0, len(fields))
	for _, f := range fields {
		if n, err := strconv.Atoi(f); err == nil && n > 0 {
			out = append(out, n)
		}
	}
	return out
}

func intPtr(n int) *int { return &n }

func cancelled(err error) error {
	return errors.Newf("care lookup cancelled: %w", err).
		Category(errors.CategoryCancellation).
		Component("careinfo").
		Build()
}
