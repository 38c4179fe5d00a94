// Package feed defines the live departure snapshot and maps it onto a
// built network.
package feed

import (
	"context"
	"errors"
	"time"
)

// ErrMalformed is returned by sources whose response body cannot be decoded
var ErrMalformed = errors.New("malformed feed response")

// Snapshot is one complete answer of a feed source. It replaces the previous
// snapshot as a whole.
type Snapshot struct {
	Monitors []Monitor
	// ServerTime is the source's own timestamp, zero if unknown.
	ServerTime time.Time
}

// Monitor carries the upcoming departures at one located stop
type Monitor struct {
	StopRef int
	Lines   []MonitorLine
}

// MonitorLine lists a line's countdowns at the monitor's stop, in feed order.
// A countdown of 0 means the train is at the platform now.
type MonitorLine struct {
	Name       string
	Countdowns []int
}

// Source fetches a departure snapshot
type Source interface {
	Fetch(ctx context.Context) (*Snapshot, error)
}

// SourceFunc adapts a function to Source
type SourceFunc func(ctx context.Context) (*Snapshot, error)

// Fetch calls f
func (f SourceFunc) Fetch(ctx context.Context) (*Snapshot, error) {
	return f(ctx)
}
