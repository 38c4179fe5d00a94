// Package metrics keeps running statistics about feed refreshes.
package metrics

import (
	"math"
	"sync"
	"time"
)

// Running accumulates mean and variance with Welford's online algorithm
type Running struct {
	n    int
	mean float64
	m2   float64
}

// Add records one observation
func (r *Running) Add(v float64) {
	r.n++
	delta := v - r.mean
	r.mean += delta / float64(r.n)
	r.m2 += delta * (v - r.mean)
}

func (r *Running) Count() int { return r.n }

func (r *Running) Mean() float64 { return r.mean }

// StdDev is the population standard deviation, 0 below two observations
func (r *Running) StdDev() float64 {
	if r.n < 2 {
		return 0
	}
	return math.Sqrt(r.m2 / float64(r.n))
}

// ZScore reports how many standard deviations v lies from the mean
func (r *Running) ZScore(v float64) float64 {
	sd := r.StdDev()
	if sd == 0 {
		return 0
	}
	return (v - r.mean) / sd
}

// Summary is a point-in-time copy of the refresh statistics
type Summary struct {
	Successes        int     `json:"successes"`
	Failures         int     `json:"failures"`
	LatencyMeanMs    float64 `json:"latencyMeanMs"`
	LatencyStdDevMs  float64 `json:"latencyStdDevMs"`
	DeparturesMean   float64 `json:"departuresMean"`
	DeparturesStdDev float64 `json:"departuresStdDev"`
	LastDeparturesZ  float64 `json:"lastDeparturesZ"`
}

// Refreshes tracks fetch latency and departures per successful refresh.
// It is safe for concurrent use.
type Refreshes struct {
	mu         sync.Mutex
	latency    Running
	departures Running
	failures   int
	lastZ      float64
}

// ObserveSuccess records a successful refresh
func (r *Refreshes) ObserveSuccess(took time.Duration, departures int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	// z-score against the history before this sample
	r.lastZ = r.departures.ZScore(float64(departures))
	r.latency.Add(float64(took) / float64(time.Millisecond))
	r.departures.Add(float64(departures))
}

// ObserveFailure records a failed fetch
func (r *Refreshes) ObserveFailure() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failures++
}

// Summary returns the current statistics
func (r *Refreshes) Summary() Summary {
	r.mu.Lock()
	defer r.mu.Unlock()
	return Summary{
		Successes:        r.latency.Count(),
		Failures:         r.failures,
		LatencyMeanMs:    r.latency.Mean(),
		LatencyStdDevMs:  r.latency.StdDev(),
		DeparturesMean:   r.departures.Mean(),
		DeparturesStdDev: r.departures.StdDev(),
		LastDeparturesZ:  r.lastZ,
	}
}
