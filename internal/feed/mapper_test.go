package feed

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mini-rodalies-3d/metroled/internal/network/networktest"
)

func TestMapAppendsInFeedOrder(t *testing.T) {
	n := networktest.Build(t)
	snap := &Snapshot{Monitors: []Monitor{
		{StopRef: 11, Lines: []MonitorLine{{Name: "U1", Countdowns: []int{0, 5, 11}}}},
		{StopRef: 32, Lines: []MonitorLine{{Name: "U2", Countdowns: []int{1}}}},
	}}

	stats := Map(n, snap, nil)
	assert.Equal(t, MapStats{Monitors: 2, Departures: 4}, stats)
	assert.Equal(t, []int{0, 5, 11}, networktest.Stop(t, n, 11).Departures())
	assert.Equal(t, []int{1}, networktest.Stop(t, n, 32).Departures())
	assert.Empty(t, networktest.Stop(t, n, 12).Departures())
}

func TestMapReplacesPreviousSnapshot(t *testing.T) {
	n := networktest.Build(t)
	Map(n, &Snapshot{Monitors: []Monitor{
		{StopRef: 11, Lines: []MonitorLine{{Name: "U1", Countdowns: []int{0, 3}}}},
		{StopRef: 12, Lines: []MonitorLine{{Name: "U1", Countdowns: []int{2}}}},
	}}, nil)

	Map(n, &Snapshot{Monitors: []Monitor{
		{StopRef: 11, Lines: []MonitorLine{{Name: "U1", Countdowns: []int{1}}}},
	}}, nil)

	assert.Equal(t, []int{1}, networktest.Stop(t, n, 11).Departures())
	assert.Empty(t, networktest.Stop(t, n, 12).Departures(), "departures are not cumulative")
}

func TestMapSkipsMismatches(t *testing.T) {
	n := networktest.Build(t)
	snap := &Snapshot{Monitors: []Monitor{
		{StopRef: 11, Lines: []MonitorLine{
			{Name: "U9", Countdowns: []int{0}},
			{Name: "U1", Countdowns: []int{4}},
		}},
		{StopRef: 31, Lines: []MonitorLine{{Name: "U1", Countdowns: []int{0}}}},
		{StopRef: 12345, Lines: []MonitorLine{{Name: "U2", Countdowns: []int{0}}}},
	}}

	stats := Map(n, snap, nil)
	assert.Equal(t, 1, stats.UnknownLines)
	assert.Equal(t, 2, stats.UnknownStops)
	assert.Equal(t, 3, stats.Skipped())
	assert.Equal(t, 1, stats.Departures)
	assert.Equal(t, []int{4}, networktest.Stop(t, n, 11).Departures())
	assert.Empty(t, networktest.Stop(t, n, 31).Departures(), "stop 31 belongs to U2, not U1")
}

func TestMapNilSnapshotClears(t *testing.T) {
	n := networktest.Build(t)
	networktest.Stop(t, n, 11).AddDeparture(0)

	stats := Map(n, nil, nil)
	assert.Zero(t, stats.Monitors)
	assert.Empty(t, networktest.Stop(t, n, 11).Departures())
}
