// Package networktest provides a small two-line metro used across tests.
//
//	U1 (301): A - B - C          direction 1 stops 11,12,13; direction 2 stops 23,22,21
//	U2 (302): X - B              direction 1 stops 31,32;    direction 2 stops 42,41
//	tram 1:   T                  stop 50
//	stop 99 is referenced by no connection
package networktest

import (
	"testing"

	"github.com/mini-rodalies-3d/metroled/internal/config"
	"github.com/mini-rodalies-3d/metroled/internal/network"
	"github.com/mini-rodalies-3d/metroled/internal/static/wl"
)

const (
	U1 = 301
	U2 = 302

	U1Color = "#DA3831"
	U2Color = "#9769A6"
	U2Dir2  = "#00FF00"
)

func intPtr(v int) *int { return &v }

// Input returns the raw tables of the fixture network
func Input() network.Input {
	return network.Input{
		Lines: []wl.Line{
			{ID: U2, Name: "U2", Type: "ptMetro"},
			{ID: U1, Name: "U1", Type: "ptMetro"},
			{ID: 1, Name: "1", Type: "ptTram"},
		},
		Stops: []wl.Stop{
			{ID: 11, Diva: intPtr(1001), Name: "A"},
			{ID: 12, Diva: intPtr(1002), Name: "B"},
			{ID: 13, Diva: intPtr(1003), Name: "C"},
			{ID: 21, Diva: intPtr(1001), Name: "A"},
			{ID: 22, Diva: intPtr(1002), Name: "B"},
			{ID: 23, Diva: intPtr(1003), Name: "C"},
			{ID: 31, Diva: intPtr(2001), Name: "X"},
			{ID: 32, Diva: intPtr(1002), Name: "B"},
			{ID: 41, Diva: intPtr(2001), Name: "X"},
			{ID: 42, Diva: intPtr(1002), Name: "B"},
			{ID: 50, Name: "T"},
			{ID: 99, Name: "Orphan"},
		},
		Connections: []wl.Connection{
			// U1 direction 1 with gaps in the sequence numbers
			{LineID: U1, Sequence: 5, StopID: 13, Direction: 1},
			{LineID: U1, Sequence: 0, StopID: 11, Direction: 1},
			{LineID: U1, Sequence: 2, StopID: 12, Direction: 1},
			{LineID: U1, Sequence: 0, StopID: 23, Direction: 2},
			{LineID: U1, Sequence: 1, StopID: 22, Direction: 2},
			{LineID: U1, Sequence: 2, StopID: 21, Direction: 2},
			{LineID: U2, Sequence: 0, StopID: 31, Direction: 1},
			{LineID: U2, Sequence: 1, StopID: 32, Direction: 1},
			{LineID: U2, Sequence: 0, StopID: 42, Direction: 2},
			{LineID: U2, Sequence: 1, StopID: 41, Direction: 2},
			{LineID: 1, Sequence: 0, StopID: 50, Direction: 1},
		},
		Include: network.IncludeType("ptMetro", ""),
		Colors: map[int]config.LineColors{
			U1: {Color: U1Color},
			U2: {Color: U2Color, Direction2: U2Dir2},
		},
	}
}

// Build builds the fixture network and fails the test on error
func Build(t testing.TB) *network.Network {
	t.Helper()
	n, err := network.Build(Input())
	if err != nil {
		t.Fatalf("build fixture network: %v", err)
	}
	return n
}

// Stop returns a stop of the fixture by id
func Stop(t testing.TB, n *network.Network, id int) *network.Stop {
	t.Helper()
	s, ok := n.Stop(id)
	if !ok {
		t.Fatalf("fixture stop %d missing", id)
	}
	return s
}
