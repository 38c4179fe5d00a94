package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mini-rodalies-3d/metroled/internal/feed"
	"github.com/mini-rodalies-3d/metroled/internal/led"
	"github.com/mini-rodalies-3d/metroled/internal/network"
	"github.com/mini-rodalies-3d/metroled/internal/network/networktest"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

// countingSource counts fetches and answers with the snapshot of the moment
type countingSource struct {
	calls atomic.Int32
	mu    sync.Mutex
	snap  *feed.Snapshot
	err   error
}

func (s *countingSource) Fetch(ctx context.Context) (*feed.Snapshot, error) {
	s.calls.Add(1)
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap, s.err
}

func (s *countingSource) set(snap *feed.Snapshot, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap, s.err = snap, err
}

func atPlatform(stop int, line string) *feed.Snapshot {
	return &feed.Snapshot{Monitors: []feed.Monitor{
		{StopRef: stop, Lines: []feed.MonitorLine{{Name: line, Countdowns: []int{0}}}},
	}}
}

func newNetwork(t *testing.T) *network.Network {
	t.Helper()
	n := networktest.Build(t)
	led.AssignSimple(n, led.SimpleScheme, led.SameName)
	return n
}

func newService(t *testing.T, src feed.Source, opts Options) (*Service, *fakeClock) {
	t.Helper()
	clock := &fakeClock{t: time.Date(2025, 2, 27, 13, 30, 0, 0, time.UTC)}
	opts.Now = clock.Now
	return New(newNetwork(t), src, opts), clock
}

func TestQueryReusesSnapshotWithinWindow(t *testing.T) {
	src := &countingSource{snap: atPlatform(11, "U1")}
	svc, clock := newService(t, src, Options{})

	first, err := svc.Query(context.Background(), led.SimpleScheme)
	require.NoError(t, err)
	assert.Equal(t, int32(1), src.calls.Load())
	assert.Equal(t, []int{0}, first.LEDs.Indices())

	src.set(atPlatform(13, "U1"), nil)
	clock.Advance(30 * time.Second)

	second, err := svc.Query(context.Background(), led.SimpleScheme)
	require.NoError(t, err)
	assert.Equal(t, int32(1), src.calls.Load(), "no fetch inside the freshness window")
	assert.Equal(t, first.FetchedAt, second.FetchedAt)
	assert.Equal(t, first.LEDs.Indices(), second.LEDs.Indices())

	clock.Advance(time.Second)
	third, err := svc.Query(context.Background(), led.SimpleScheme)
	require.NoError(t, err)
	assert.Equal(t, int32(2), src.calls.Load())
	assert.Equal(t, []int{4}, third.LEDs.Indices())
	assert.Equal(t, clock.Now(), third.FetchedAt)
}

// blockingSource holds every fetch until released
type blockingSource struct {
	calls   atomic.Int32
	started chan struct{}
	release chan struct{}
}

func (s *blockingSource) Fetch(ctx context.Context) (*feed.Snapshot, error) {
	if s.calls.Add(1) == 1 {
		close(s.started)
	}
	<-s.release
	return atPlatform(11, "U1"), nil
}

func TestQueryConcurrentCallersShareOneFetch(t *testing.T) {
	src := &blockingSource{started: make(chan struct{}), release: make(chan struct{})}
	svc, _ := newService(t, src, Options{})

	const callers = 32
	var wg sync.WaitGroup
	results := make([]*Result, callers)
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = svc.Query(context.Background(), led.SimpleScheme)
		}(i)
	}

	<-src.started
	time.Sleep(20 * time.Millisecond)
	close(src.release)
	wg.Wait()

	assert.Equal(t, int32(1), src.calls.Load())
	for i := range results {
		require.NoError(t, errs[i])
		assert.Equal(t, []int{0}, results[i].LEDs.Indices())
	}
}

func TestQueryFetchFailureKeepsPreviousState(t *testing.T) {
	src := &countingSource{snap: atPlatform(11, "U1")}
	svc, clock := newService(t, src, Options{})

	first, err := svc.Query(context.Background(), led.SimpleScheme)
	require.NoError(t, err)

	clock.Advance(31 * time.Second)
	boom := errors.New("connection refused")
	src.set(nil, boom)

	_, err = svc.Query(context.Background(), led.SimpleScheme)
	assert.ErrorIs(t, err, ErrFetchFailed)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, first.FetchedAt, svc.LastFetch())
	assert.False(t, svc.Status().Fresh)

	src.set(atPlatform(12, "U1"), nil)
	res, err := svc.Query(context.Background(), led.SimpleScheme)
	require.NoError(t, err)
	assert.Equal(t, []int{2}, res.LEDs.Indices())
	assert.Equal(t, int32(3), src.calls.Load())

	refreshes := svc.Status().Refreshes
	assert.Equal(t, 2, refreshes.Successes)
	assert.Equal(t, 1, refreshes.Failures)
	assert.Equal(t, 1.0, refreshes.DeparturesMean)
}

func TestQueryFailureBeforeFirstFetch(t *testing.T) {
	src := &countingSource{err: feed.ErrMalformed}
	svc, _ := newService(t, src, Options{})

	_, err := svc.Query(context.Background(), led.SimpleScheme)
	assert.ErrorIs(t, err, ErrFetchFailed)
	assert.ErrorIs(t, err, feed.ErrMalformed)
	assert.True(t, svc.LastFetch().IsZero())
}

func TestQueryUnknownScheme(t *testing.T) {
	src := &countingSource{snap: atPlatform(11, "U1")}
	svc, _ := newService(t, src, Options{})

	_, err := svc.Query(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrUnknownScheme)
	assert.Equal(t, int32(0), src.calls.Load())
	assert.Equal(t, []string{led.SimpleScheme}, svc.Schemes())
}

func TestQueryFetchTimeout(t *testing.T) {
	src := feed.SourceFunc(func(ctx context.Context) (*feed.Snapshot, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})
	svc, _ := newService(t, src, Options{FetchTimeout: 20 * time.Millisecond})

	_, err := svc.Query(context.Background(), led.SimpleScheme)
	assert.ErrorIs(t, err, ErrFetchFailed)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestQueryUnknownFeedEntriesDoNotLight(t *testing.T) {
	src := &countingSource{snap: &feed.Snapshot{Monitors: []feed.Monitor{
		{StopRef: 4242, Lines: []feed.MonitorLine{{Name: "U1", Countdowns: []int{0}}}},
		{StopRef: 11, Lines: []feed.MonitorLine{{Name: "U7", Countdowns: []int{0}}}},
	}}}
	svc, _ := newService(t, src, Options{})

	res, err := svc.Query(context.Background(), led.SimpleScheme)
	require.NoError(t, err)
	assert.Equal(t, 0, res.LEDs.Len())
	assert.Equal(t, 2, svc.Status().Stats.Skipped())
}

type fakeRecorder struct {
	mu    sync.Mutex
	stats []feed.MapStats
	err   error
}

func (r *fakeRecorder) RecordRefresh(ctx context.Context, fetchedAt time.Time, stats feed.MapStats) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return "", r.err
	}
	r.stats = append(r.stats, stats)
	return "refresh-1", nil
}

func TestQueryRecordsRefresh(t *testing.T) {
	rec := &fakeRecorder{}
	src := &countingSource{snap: atPlatform(11, "U1")}
	svc, clock := newService(t, src, Options{Recorder: rec})

	res, err := svc.Query(context.Background(), led.SimpleScheme)
	require.NoError(t, err)
	assert.Equal(t, "refresh-1", res.RefreshID)
	assert.Equal(t, []feed.MapStats{{Monitors: 1, Departures: 1}}, rec.stats)

	// a failing recorder does not fail the query
	rec.err = errors.New("disk full")
	clock.Advance(time.Minute)
	res, err = svc.Query(context.Background(), led.SimpleScheme)
	require.NoError(t, err)
	assert.Empty(t, res.RefreshID)
}
