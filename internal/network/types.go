package network

import (
	"errors"
	"slices"
	"sort"
)

// Direction is a travel direction of a line. The reference tables use 1 and 2.
type Direction int

const (
	Direction1 Direction = 1
	Direction2 Direction = 2
)

// Directions lists both travel directions in processing order
var Directions = [...]Direction{Direction1, Direction2}

// Valid reports whether d is one of the two known directions
func (d Direction) Valid() bool {
	return d == Direction1 || d == Direction2
}

// Opposite returns the other travel direction
func (d Direction) Opposite() Direction {
	if d == Direction1 {
		return Direction2
	}
	return Direction1
}

func (d Direction) slot() int {
	return int(d) - 1
}

// ErrUnmappedIndex is returned when a stop has no LED index under a scheme.
// It means "no display hardware here", which callers must tell apart from
// "no train here".
var ErrUnmappedIndex = errors.New("unmapped led index")

// Neighbors is the predecessor/successor pair of a stop within one direction
type Neighbors struct {
	Prev *Stop
	Next *Stop
}

// ledIndex maps scheme name to LED index. Stops sharing a physical
// platform indicator hold the same *ledIndex.
type ledIndex struct {
	byScheme map[string]int
}

func newLEDIndex() *ledIndex {
	return &ledIndex{byScheme: make(map[string]int)}
}

// Stop is a physical platform
type Stop struct {
	ID   int
	Diva *int
	Name string
	City string
	Lat  *float64
	Lon  *float64

	line      *Line
	neighbors [len(Directions)]Neighbors

	departures []int

	led       *ledIndex
	sharedLED *ledIndex
}

// Line returns the owning line, or nil if no connection references the stop
func (s *Stop) Line() *Line {
	return s.line
}

// Next returns the successor in direction d, nil for the last stop
func (s *Stop) Next(d Direction) *Stop {
	if !d.Valid() {
		return nil
	}
	return s.neighbors[d.slot()].Next
}

// Prev returns the predecessor in direction d, nil for the first stop
func (s *Stop) Prev(d Direction) *Stop {
	if !d.Valid() {
		return nil
	}
	return s.neighbors[d.slot()].Prev
}

// Departures returns a copy of the upcoming-arrival countdowns, nearest first
func (s *Stop) Departures() []int {
	return slices.Clone(s.departures)
}

// NextDepartures returns at most n countdowns
func (s *Stop) NextDepartures(n int) []int {
	if n > len(s.departures) {
		n = len(s.departures)
	}
	if n < 0 {
		n = 0
	}
	return slices.Clone(s.departures[:n])
}

// HasCountdown reports whether any upcoming arrival has the given countdown
func (s *Stop) HasCountdown(minutes int) bool {
	return slices.Contains(s.departures, minutes)
}

// ClearDepartures empties the departure list before a new snapshot is applied
func (s *Stop) ClearDepartures() {
	s.departures = s.departures[:0]
}

// AddDeparture appends a countdown in feed order
func (s *Stop) AddDeparture(minutes int) {
	s.departures = append(s.departures, minutes)
}

// SetLEDIndex records the stop's own index under scheme
func (s *Stop) SetLEDIndex(scheme string, index int) {
	if s.led == nil {
		s.led = newLEDIndex()
	}
	s.led.byScheme[scheme] = index
}

// ShareLEDIndex makes s read its LED indices from canonical's mapping. The
// mapping is shared by reference, so later changes to canonical show up on s.
func (s *Stop) ShareLEDIndex(canonical *Stop) {
	if canonical == s {
		return
	}
	if canonical.led == nil && canonical.sharedLED == nil {
		canonical.led = newLEDIndex()
	}
	s.sharedLED = canonical.effectiveLED()
}

// SharesLEDIndex reports whether s reads its indices from another stop
func (s *Stop) SharesLEDIndex() bool {
	return s.sharedLED != nil
}

// LEDIndex returns the stop's index under scheme or ErrUnmappedIndex
func (s *Stop) LEDIndex(scheme string) (int, error) {
	idx := s.effectiveLED()
	if idx == nil {
		return 0, ErrUnmappedIndex
	}
	i, ok := idx.byScheme[scheme]
	if !ok {
		return 0, ErrUnmappedIndex
	}
	return i, nil
}

// LEDSchemes lists the schemes the stop has an index for, sorted
func (s *Stop) LEDSchemes() []string {
	idx := s.effectiveLED()
	if idx == nil {
		return nil
	}
	schemes := make([]string, 0, len(idx.byScheme))
	for name := range idx.byScheme {
		schemes = append(schemes, name)
	}
	sort.Strings(schemes)
	return schemes
}

func (s *Stop) effectiveLED() *ledIndex {
	if s.sharedLED != nil {
		return s.sharedLED
	}
	return s.led
}

func (s *Stop) String() string {
	return s.Name
}

// Line is a transit route with one stop pattern per direction
type Line struct {
	ID   int
	Name string
	Type string

	Color           string
	DirectionColors [len(Directions)]string

	patterns [len(Directions)][]*Stop
	stops    map[int]*Stop
}

// Pattern returns the stops of direction d in sequence order
func (l *Line) Pattern(d Direction) []*Stop {
	if !d.Valid() {
		return nil
	}
	return slices.Clone(l.patterns[d.slot()])
}

// Stop looks up a stop of either direction by id
func (l *Line) Stop(id int) (*Stop, bool) {
	s, ok := l.stops[id]
	return s, ok
}

// Stops returns the union of both directions sorted by stop id
func (l *Line) Stops() []*Stop {
	out := make([]*Stop, 0, len(l.stops))
	for _, s := range l.stops {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// DirectionColor returns the LED color of direction d as a hex string
func (l *Line) DirectionColor(d Direction) string {
	if !d.Valid() {
		return l.Color
	}
	if c := l.DirectionColors[d.slot()]; c != "" {
		return c
	}
	return l.Color
}

func (l *Line) String() string {
	return l.Name
}

// Network is the built topology: lines in id order plus the raw stop table
type Network struct {
	lines  []*Line
	byID   map[int]*Line
	byName map[string]*Line
	stops  map[int]*Stop
}

// Lines returns the lines sorted by id
func (n *Network) Lines() []*Line {
	return slices.Clone(n.lines)
}

// Line looks up a line by id
func (n *Network) Line(id int) (*Line, bool) {
	l, ok := n.byID[id]
	return l, ok
}

// LineByName looks up a line by its display name
func (n *Network) LineByName(name string) (*Line, bool) {
	l, ok := n.byName[name]
	return l, ok
}

// Stop looks up any stop of the raw table, owned or not
func (n *Network) Stop(id int) (*Stop, bool) {
	s, ok := n.stops[id]
	return s, ok
}

// OwnedStops returns every stop that belongs to a line, ordered by line id
// then stop id. Stops without a line are left out.
func (n *Network) OwnedStops() []*Stop {
	var out []*Stop
	for _, l := range n.lines {
		out = append(out, l.Stops()...)
	}
	return out
}
