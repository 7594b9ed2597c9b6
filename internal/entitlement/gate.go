// Package entitlement enforces the free-tier plant cap. Registering a plant
// beyond the cap requires a granted rewarded ad.
package entitlement

import (
	"context"
	"sync"

	"github.com/danbi-garden/danbi/internal/errors"
	"github.com/danbi-garden/danbi/internal/logger"
)

// FreePlantLimit is the number of plants a user may register without
// watching an ad.
const FreePlantLimit = 3

// Sentinel errors.
var (
	ErrAdNotRewarded  = errors.NewStd("entitlement: rewarded ad was not completed")
	ErrFlowInProgress = errors.NewStd("entitlement: another authorization is in progress")
)

// RewardPresenter shows a rewarded ad and reports whether the reward was
// granted.
type RewardPresenter interface {
	PresentRewarded(ctx context.Context) (bool, error)
}

// RequiresAd reports whether registering another plant needs a reward at
// the default limit.
func RequiresAd(currentCount int) bool {
	return currentCount >= FreePlantLimit
}

// Gate authorizes plant creation. It holds no plant state; only one
// authorization may run at a time.
type Gate struct {
	presenter RewardPresenter
	limit     int
	log       logger.Logger
	flow      sync.Mutex
}

// Option configures a Gate.
type Option func(*Gate)

// WithLimit overrides FreePlantLimit.
func WithLimit(n int) Option {
	return func(g *Gate) {
		if n > 0 {
			g.limit = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(log logger.Logger) Option {
	return func(g *Gate) { g.log = log }
}

// NewGate creates a gate. A nil presenter denies every gated request.
func NewGate(presenter RewardPresenter, opts ...Option) *Gate {
	g := &Gate{
		presenter: presenter,
		limit:     FreePlantLimit,
		log:       logger.NewDiscardLogger(),
	}
	for _, opt := range opts {
		opt(g)
	}
	g.log = g.log.Module("entitlement")
	return g
}

// Limit returns the free-tier cap.
func (g *Gate) Limit() int { return g.limit }

// RequiresAd reports whether currentCount is at or above the cap.
func (g *Gate) RequiresAd(currentCount int) bool {
	return currentCount >= g.limit
}

// Authorize returns nil when a plant may be created. Above the cap it
// presents a rewarded ad and fails with ErrAdNotRewarded unless the reward
// is granted. A call made while another is running fails immediately with
// ErrFlowInProgress.
func (g *Gate) Authorize(ctx context.Context, currentCount int) error {
	if !g.flow.TryLock() {
		return errors.New(ErrFlowInProgress).
			Category(errors.CategoryEntitlement).
			Component("entitlement").
			Build()
	}
	defer g.flow.Unlock()

	if !g.RequiresAd(currentCount) {
		return nil
	}

	g.log.Info("free plant limit reached, presenting rewarded ad",
		logger.Int("plant_count", currentCount),
		logger.Int("limit", g.limit))

	if g.presenter == nil {
		return errors.Newf("%w: no ad presenter configured", ErrAdNotRewarded).
			Category(errors.CategoryEntitlement).
			Context("plant_count", currentCount).
			Component("entitlement").
			Build()
	}

	granted, err := g.presenter.PresentRewarded(ctx)
	if err != nil {
		g.log.Warn("rewarded ad failed", logger.Error(err))
		return errors.Newf("%w: %w", ErrAdNotRewarded, err).
			Category(errors.CategoryEntitlement).
			Context("plant_count", currentCount).
			Component("entitlement").
			Build()
	}
	if !granted {
		g.log.Info("reward not granted")
		return errors.New(ErrAdNotRewarded).
			Category(errors.CategoryEntitlement).
			Context("plant_count", currentCount).
			Component("entitlement").
			Build()
	}

	g.log.Info("reward granted")
	return nil
}
