package ads

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/danbi-garden/danbi/internal/errors"
	"github.com/danbi-garden/danbi/internal/logger"
)

// slot holds at most one loaded ad of a format. Loads are deduplicated and
// a loaded ad older than expiry is discarded.
type slot struct {
	format   string
	loadFn   func(ctx context.Context) error
	expiry   time.Duration
	now      func() time.Time
	log      logger.Logger
	recorder Recorder

	group singleflight.Group

	mu       sync.Mutex
	loaded   bool
	loadedAt time.Time
	showing  bool

	// background reloads
	closed   bool
	bgCtx    context.Context
	bgCancel context.CancelFunc
	wg       sync.WaitGroup
}

func newSlot(format string, loadFn func(ctx context.Context) error, cfg *config) *slot {
	ctx, cancel := context.WithCancel(context.Background())
	return &slot{
		format:   format,
		loadFn:   loadFn,
		expiry:   cfg.expiry,
		now:      cfg.now,
		log:      cfg.log.With(logger.String("format", format)),
		recorder: cfg.recorder,
		bgCtx:    ctx,
		bgCancel: cancel,
	}
}

// load fetches an ad unless a fresh one is already held. Concurrent
// callers share one SDK request.
func (s *slot) load(ctx context.Context) error {
	if s.ready() {
		return nil
	}

	fetched, err, shared := s.group.Do(s.format, func() (any, error) {
		if s.ready() {
			return false, nil
		}
		s.log.Debug("loading ad")
		if err := s.loadFn(ctx); err != nil {
			return nil, err
		}
		s.mu.Lock()
		s.loaded = true
		s.loadedAt = s.now()
		s.mu.Unlock()
		return true, nil
	})
	if err != nil {
		if !shared {
			s.recorder.RecordAd(s.format, StatusLoadFailed)
			s.log.Warn("ad failed to load", logger.Error(err))
		}
		return errors.Newf("%s ad failed to load: %w", s.format, err).
			Category(errors.CategoryAds).
			Context("format", s.format).
			Component("ads").
			Build()
	}
	if loaded, _ := fetched.(bool); loaded && !shared {
		s.recorder.RecordAd(s.format, StatusLoaded)
		s.log.Info("ad loaded")
	}
	return nil
}

// ready reports whether a fresh ad is held. An expired ad is discarded.
func (s *slot) ready() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.freshLocked()
}

func (s *slot) freshLocked() bool {
	if !s.loaded {
		return false
	}
	if age := s.now().Sub(s.loadedAt); age >= s.expiry {
		s.loaded = false
		s.recorder.RecordAd(s.format, StatusExpired)
		s.log.Info("discarding expired ad", logger.Duration("age", age))
		return false
	}
	return true
}

// take consumes the held ad for presentation. It fails when nothing fresh
// is loaded or another presentation is on screen.
func (s *slot) take() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.showing {
		return ErrAlreadyShowing
	}
	if !s.freshLocked() {
		s.recorder.RecordAd(s.format, StatusNotReady)
		return ErrNotReady
	}
	s.loaded = false
	s.showing = true
	return nil
}

// release ends a presentation.
func (s *slot) release() {
	s.mu.Lock()
	s.showing = false
	s.mu.Unlock()
}

func (s *slot) isShowing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.showing
}

// reloadAsync starts a load that outlives the caller's context. It stops
// when close runs.
func (s *slot) reloadAsync() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.load(s.bgCtx); err != nil {
			s.log.Debug("background reload failed", logger.Error(err))
		}
	}()
}

// close cancels background loads and waits for them.
func (s *slot) close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	s.bgCancel()
	s.wg.Wait()
}
