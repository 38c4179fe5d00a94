// Package service owns the live network state and serves LED frames,
// refreshing departures lazily when the last fetch is older than the
// freshness window.
package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/mini-rodalies-3d/metroled/internal/feed"
	"github.com/mini-rodalies-3d/metroled/internal/led"
	"github.com/mini-rodalies-3d/metroled/internal/logging"
	"github.com/mini-rodalies-3d/metroled/internal/metrics"
	"github.com/mini-rodalies-3d/metroled/internal/network"
	"github.com/mini-rodalies-3d/metroled/internal/render"
)

var (
	// ErrUnknownScheme is returned for a scheme no stop has an index for
	ErrUnknownScheme = errors.New("unknown led scheme")
	// ErrFetchFailed wraps any feed failure during a refresh
	ErrFetchFailed = errors.New("feed fetch failed")
)

const (
	DefaultFreshness    = 30 * time.Second
	DefaultFetchTimeout = 10 * time.Second
)

// RefreshRecorder persists a summary of each successful refresh
type RefreshRecorder interface {
	RecordRefresh(ctx context.Context, fetchedAt time.Time, stats feed.MapStats) (string, error)
}

// Options tunes a Service. Zero values select the defaults.
type Options struct {
	Freshness    time.Duration
	FetchTimeout time.Duration
	Recorder     RefreshRecorder
	Logger       *zap.SugaredLogger
	Now          func() time.Time
}

// Result is one answer of the query operation
type Result struct {
	Scheme    string
	FetchedAt time.Time
	// RefreshID identifies the recorded refresh, empty without a recorder.
	RefreshID string
	LEDs      render.Frame
}

// Status describes the cache state without triggering a refresh
type Status struct {
	LastFetch time.Time
	Fresh     bool
	Stats     feed.MapStats
	Schemes   []string
	Refreshes metrics.Summary
}

// Service is the single owner of the network's mutable departure state
type Service struct {
	net     *network.Network
	source  feed.Source
	schemes []string

	freshness time.Duration
	timeout   time.Duration
	recorder  RefreshRecorder
	now       func() time.Time
	log       *zap.SugaredLogger

	group   singleflight.Group
	metrics metrics.Refreshes

	mu        sync.RWMutex
	lastFetch time.Time
	lastStats feed.MapStats
	refreshID string
}

// New wraps a built network whose LED indices are already assigned
func New(n *network.Network, source feed.Source, opts Options) *Service {
	s := &Service{
		net:       n,
		source:    source,
		schemes:   led.Schemes(n),
		freshness: opts.Freshness,
		timeout:   opts.FetchTimeout,
		recorder:  opts.Recorder,
		now:       opts.Now,
		log:       logging.OrNop(opts.Logger),
	}
	if s.freshness <= 0 {
		s.freshness = DefaultFreshness
	}
	if s.timeout <= 0 {
		s.timeout = DefaultFetchTimeout
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// Schemes lists the schemes Query accepts
func (s *Service) Schemes() []string {
	return slices.Clone(s.schemes)
}

// HasScheme reports whether scheme is known
func (s *Service) HasScheme(scheme string) bool {
	_, found := slices.BinarySearch(s.schemes, scheme)
	return found
}

// LastFetch returns the time of the last successful fetch, zero if none
func (s *Service) LastFetch() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastFetch
}

// Status reports the cache state
func (s *Service) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Status{
		LastFetch: s.lastFetch,
		Fresh:     s.freshLocked(),
		Stats:     s.lastStats,
		Schemes:   s.Schemes(),
		Refreshes: s.metrics.Summary(),
	}
}

// Query returns the LED frame for scheme, refreshing departures first when
// they are stale. A failed refresh returns ErrFetchFailed and keeps the
// previous departures for later queries.
func (s *Service) Query(ctx context.Context, scheme string) (*Result, error) {
	if !s.HasScheme(scheme) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownScheme, scheme)
	}

	if err := s.Refresh(ctx); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	return &Result{
		Scheme:    scheme,
		FetchedAt: s.lastFetch,
		RefreshID: s.refreshID,
		LEDs:      render.Resolve(s.net, scheme),
	}, nil
}

// Refresh fetches a new snapshot if the current one is stale. Concurrent
// callers share one in-flight fetch and its result.
func (s *Service) Refresh(ctx context.Context) error {
	if s.fresh() {
		return nil
	}

	_, err, shared := s.group.Do("refresh", func() (any, error) {
		// another caller may have refreshed between the check and Do
		if s.fresh() {
			return nil, nil
		}
		return nil, s.fetch(ctx)
	})
	if shared {
		s.log.Debugw("joined in-flight refresh")
	}
	return err
}

func (s *Service) fetch(ctx context.Context) error {
	// the fetch outlives a cancelled caller since other callers may be waiting on it
	fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
	defer cancel()

	start := s.now()
	snap, err := s.source.Fetch(fetchCtx)
	if err != nil {
		s.metrics.ObserveFailure()
		s.log.Warnw("feed fetch failed, keeping previous departures", "error", err)
		return fmt.Errorf("%w: %w", ErrFetchFailed, err)
	}

	s.mu.Lock()
	stats := feed.Map(s.net, snap, s.log)
	fetchedAt := s.now()
	s.lastFetch = fetchedAt
	s.lastStats = stats
	s.refreshID = ""
	s.mu.Unlock()
	s.metrics.ObserveSuccess(fetchedAt.Sub(start), stats.Departures)

	s.log.Infow("departures refreshed",
		"monitors", stats.Monitors,
		"departures", stats.Departures,
		"skipped", stats.Skipped(),
		"took", fetchedAt.Sub(start),
	)

	if s.recorder != nil {
		id, err := s.recorder.RecordRefresh(fetchCtx, fetchedAt, stats)
		if err != nil {
			s.log.Warnw("failed to record refresh", "error", err)
			return nil
		}
		s.mu.Lock()
		s.refreshID = id
		s.mu.Unlock()
	}
	return nil
}

func (s *Service) fresh() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.freshLocked()
}

func (s *Service) freshLocked() bool {
	return !s.lastFetch.IsZero() && s.now().Sub(s.lastFetch) <= s.freshness
}
