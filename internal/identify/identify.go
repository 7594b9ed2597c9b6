// Package identify turns a plant photo into species candidates, a generic
// plant-detected signal, or a not-a-plant result. Remote identification
// runs first; the on-device classifier is the fallback.
package identify

import (
	"context"
	"sort"
	"time"

	"github.com/danbi-garden/danbi/internal/classifier"
	"github.com/danbi-garden/danbi/internal/errors"
	"github.com/danbi-garden/danbi/internal/logger"
	"github.com/danbi-garden/danbi/internal/observability/metrics"
	"github.com/danbi-garden/danbi/internal/plantnet"
	"github.com/danbi-garden/danbi/internal/species"
)

// Acceptance thresholds. Both comparisons are inclusive.
const (
	RemoteAcceptThreshold = 0.10
	LocalPlantThreshold   = 0.05
	LocalLabelsInspected  = 10
)

// Outcome is the terminal state of one identification.
type Outcome string

const (
	OutcomeIdentified    Outcome = "identified"
	OutcomePlantDetected Outcome = "plant_detected"
	OutcomeNotPlant      Outcome = "not_plant"
)

// Remote is the remote species identification service.
type Remote interface {
	Identify(ctx context.Context, image []byte) ([]plantnet.Match, error)
}

// Local is the on-device classifier.
type Local interface {
	Classify(ctx context.Context, image []byte, topN int) ([]classifier.Prediction, error)
}

// Candidate is one species guess.
type Candidate struct {
	CommonName     string  `json:"common_name"`
	ScientificName string  `json:"scientific_name"`
	DisplayName    string  `json:"display_name"`
	EnglishName    string  `json:"english_name"`
	Confidence     float64 `json:"confidence"`
	Family         string  `json:"family,omitempty"`
	Genus          string  `json:"genus,omitempty"`
}

// Result is the outcome of Identify. Candidates is set only for
// OutcomeIdentified; Evidence only for OutcomePlantDetected.
type Result struct {
	Outcome    Outcome                `json:"outcome"`
	Candidates []Candidate            `json:"candidates,omitempty"`
	Evidence   *classifier.Prediction `json:"evidence,omitempty"`
}

// ErrEmptyImage is returned for a zero-length photo.
var ErrEmptyImage = errors.NewStd("identify: image is empty")

// Identifier runs the remote-then-local fallback chain.
type Identifier struct {
	remote  Remote
	local   Local
	log     logger.Logger
	metrics *metrics.IdentifyMetrics
}

// Option configures an Identifier.
type Option func(*Identifier)

// WithLogger sets the logger.
func WithLogger(log logger.Logger) Option {
	return func(i *Identifier) { i.log = log }
}

// WithMetrics records outcomes and stage confidences.
func WithMetrics(m *metrics.IdentifyMetrics) Option {
	return func(i *Identifier) { i.metrics = m }
}

// NewIdentifier creates an identifier. A nil remote means the service is
// not configured; a nil local means no classifier is available.
func NewIdentifier(remote Remote, local Local, opts ...Option) *Identifier {
	i := &Identifier{
		remote: remote,
		local:  local,
		log:    logger.NewDiscardLogger(),
	}
	for _, opt := range opts {
		opt(i)
	}
	i.log = i.log.Module("identify")
	return i
}

// RemoteConfigured reports whether a remote service is wired.
func (i *Identifier) RemoteConfigured() bool { return i.remote != nil }

// LocalAvailable reports whether an on-device classifier is wired.
func (i *Identifier) LocalAvailable() bool { return i.local != nil }

// Identify produces exactly one outcome per call. Remote and classifier
// failures degrade to the next stage; the only error is an empty image.
func (i *Identifier) Identify(ctx context.Context, image []byte) (Result, error) {
	if len(image) == 0 {
		return Result{}, errors.New(ErrEmptyImage).
			Category(errors.CategoryValidation).
			Component("identify").
			Build()
	}

	var result Result
	if candidates, ok := i.identifyRemote(ctx, image); ok {
		result = Result{Outcome: OutcomeIdentified, Candidates: candidates}
	} else {
		result = i.detectLocal(ctx, image)
	}

	if i.metrics != nil {
		i.metrics.RecordOutcome(string(result.Outcome))
	}
	i.log.Info("identification complete",
		logger.String("outcome", string(result.Outcome)),
		logger.Int("candidates", len(result.Candidates)))
	return result, nil
}

// identifyRemote returns candidates when the top remote score clears the
// acceptance threshold.
func (i *Identifier) identifyRemote(ctx context.Context, image []byte) ([]Candidate, bool) {
	if i.remote == nil {
		i.log.Debug("remote identification not configured")
		return nil, false
	}

	start := time.Now()
	matches, err := i.remote.Identify(ctx, image)
	i.recordStage(metrics.OpIdentify, start, err)
	if err != nil {
		i.log.Warn("remote identification failed, falling back to classifier",
			logger.String("category", string(errors.CategoryOf(err))),
			logger.Error(err))
		return nil, false
	}
	if len(matches) == 0 {
		i.log.Info("remote identification returned no candidates")
		return nil, false
	}

	candidates := make([]Candidate, 0, len(matches))
	for idx := range matches {
		candidates = append(candidates, candidateFrom(&matches[idx]))
	}
	sort.SliceStable(candidates, func(a, b int) bool {
		return candidates[a].Confidence > candidates[b].Confidence
	})

	top := candidates[0].Confidence
	if i.metrics != nil {
		i.metrics.RecordConfidence(metrics.OpIdentify, top)
	}
	if top < RemoteAcceptThreshold {
		i.log.Info("remote confidence below threshold",
			logger.String("best_match", candidates[0].ScientificName),
			logger.Float64("confidence", top),
			logger.Float64("threshold", RemoteAcceptThreshold))
		return nil, false
	}
	return candidates, true
}

// detectLocal inspects the classifier's top labels for plant evidence.
func (i *Identifier) detectLocal(ctx context.Context, image []byte) Result {
	if i.local == nil {
		i.log.Debug("classifier unavailable")
		return Result{Outcome: OutcomeNotPlant}
	}

	start := time.Now()
	preds, err := i.local.Classify(ctx, image, LocalLabelsInspected)
	i.recordStage(metrics.OpClassify, start, err)
	if err != nil {
		i.log.Warn("classifier failed",
			logger.String("category", string(errors.CategoryOf(err))),
			logger.Error(err))
		return Result{Outcome: OutcomeNotPlant}
	}

	if len(preds) > LocalLabelsInspected {
		preds = preds[:LocalLabelsInspected]
	}
	if len(preds) > 0 && i.metrics != nil {
		i.metrics.RecordConfidence(metrics.OpClassify, preds[0].Confidence)
	}

	for idx := range preds {
		p := preds[idx]
		if p.Confidence >= LocalPlantThreshold && species.IsPlantRelated(p.Label) {
			i.log.Debug("plant evidence found",
				logger.String("label", p.Label),
				logger.Float64("confidence", p.Confidence))
			return Result{Outcome: OutcomePlantDetected, Evidence: &p}
		}
	}
	return Result{Outcome: OutcomeNotPlant}
}

func (i *Identifier) recordStage(op string, start time.Time, err error) {
	if i.metrics == nil {
		return
	}
	i.metrics.RecordDuration(op, time.Since(start).Seconds())
	if err != nil {
		i.metrics.RecordOperation(op, metrics.StatusError)
		i.metrics.RecordError(op, string(errors.CategoryOf(err)))
		return
	}
	i.metrics.RecordOperation(op, metrics.StatusSuccess)
}

// candidateFrom localizes a remote match. The display name is the
// localized name, then the remote common name, then the scientific name.
func candidateFrom(m *plantnet.Match) Candidate {
	common := m.FirstCommonName()
	if common == "" {
		common = m.ScientificName
	}

	display, ok := species.LocalizedName(m.ScientificName)
	if !ok {
		display = common
	}

	return Candidate{
		CommonName:     common,
		ScientificName: m.ScientificName,
		DisplayName:    display,
		EnglishName:    m.EnglishName(),
		Confidence:     m.Score,
		Family:         m.Family,
		Genus:          m.Genus,
	}
}
