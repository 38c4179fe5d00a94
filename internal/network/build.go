package network

import (
	"errors"
	"fmt"
	"sort"

	"github.com/mini-rodalies-3d/metroled/internal/config"
	"github.com/mini-rodalies-3d/metroled/internal/static/wl"
)

var (
	// ErrUnknownStop means a connection references a stop missing from the stop table
	ErrUnknownStop = errors.New("unknown stop")
	// ErrUnknownLine means a connection references a line missing from the line table
	ErrUnknownLine = errors.New("unknown line")
	// ErrBadRecord covers connection rows that cannot be placed in a pattern
	ErrBadRecord = errors.New("bad connection record")
)

// Input is everything Build consumes. Lines is the full line table; Include
// selects the lines that make up the network (nil keeps all of them).
// Connections of excluded lines are ignored.
type Input struct {
	Lines       []wl.Line
	Stops       []wl.Stop
	Connections []wl.Connection
	Include     func(wl.Line) bool
	Colors      map[int]config.LineColors
}

// IncludeType keeps lines of one type and, if name is set, only that line
func IncludeType(lineType, name string) func(wl.Line) bool {
	return func(l wl.Line) bool {
		return l.Type == lineType && (name == "" || l.Name == name)
	}
}

type patternEntry struct {
	sequence int
	stop     *Stop
}

// Build orders every included line's connections into one pattern per
// direction and links each stop to its neighbours in that direction.
// Referential errors abort the build.
func Build(in Input) (*Network, error) {
	n := &Network{
		byID:   make(map[int]*Line),
		byName: make(map[string]*Line),
		stops:  make(map[int]*Stop, len(in.Stops)),
	}

	for _, s := range in.Stops {
		if _, dup := n.stops[s.ID]; dup {
			return nil, fmt.Errorf("%w: stop %d listed twice", ErrBadRecord, s.ID)
		}
		n.stops[s.ID] = &Stop{
			ID:   s.ID,
			Diva: s.Diva,
			Name: s.Name,
			City: s.City,
			Lat:  s.Lat,
			Lon:  s.Lon,
		}
	}

	known := make(map[int]bool, len(in.Lines))
	for _, l := range in.Lines {
		known[l.ID] = true
		if in.Include != nil && !in.Include(l) {
			continue
		}
		if _, dup := n.byID[l.ID]; dup {
			return nil, fmt.Errorf("%w: line %d listed twice", ErrBadRecord, l.ID)
		}
		line := &Line{
			ID:    l.ID,
			Name:  l.Name,
			Type:  l.Type,
			stops: make(map[int]*Stop),
		}
		if c, ok := in.Colors[l.ID]; ok {
			line.Color = c.Color
			for _, d := range Directions {
				line.DirectionColors[d.slot()] = c.ForDirection(int(d))
			}
		}
		n.byID[l.ID] = line
		n.lines = append(n.lines, line)
	}
	sort.Slice(n.lines, func(i, j int) bool { return n.lines[i].ID < n.lines[j].ID })
	for _, l := range n.lines {
		if _, taken := n.byName[l.Name]; !taken {
			n.byName[l.Name] = l
		}
	}

	raw := make(map[*Line]*[len(Directions)][]patternEntry)
	for i, c := range in.Connections {
		if !known[c.LineID] {
			return nil, fmt.Errorf("connection %d: %w: line %d", i, ErrUnknownLine, c.LineID)
		}
		line, ok := n.byID[c.LineID]
		if !ok {
			continue
		}
		stop, ok := n.stops[c.StopID]
		if !ok {
			return nil, fmt.Errorf("connection %d: %w: stop %d on line %d", i, ErrUnknownStop, c.StopID, c.LineID)
		}
		d := Direction(c.Direction)
		if !d.Valid() {
			return nil, fmt.Errorf("connection %d: %w: direction %d", i, ErrBadRecord, c.Direction)
		}
		if stop.line != nil && stop.line != line {
			return nil, fmt.Errorf("connection %d: %w: stop %d already belongs to line %d", i, ErrBadRecord, stop.ID, stop.line.ID)
		}
		stop.line = line

		p, ok := raw[line]
		if !ok {
			p = &[len(Directions)][]patternEntry{}
			raw[line] = p
		}
		p[d.slot()] = append(p[d.slot()], patternEntry{sequence: c.Sequence, stop: stop})
	}

	for _, line := range n.lines {
		p, ok := raw[line]
		if !ok {
			continue
		}
		for _, d := range Directions {
			stops, err := normalize(p[d.slot()])
			if err != nil {
				return nil, fmt.Errorf("line %d direction %d: %w", line.ID, d, err)
			}
			line.patterns[d.slot()] = stops
			link(line, d, stops)
		}
	}

	return n, nil
}

// normalize sorts entries by sequence number and drops the gaps so the
// pattern index is the 0-based position along the line.
func normalize(entries []patternEntry) ([]*Stop, error) {
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].sequence < entries[j].sequence })

	stops := make([]*Stop, 0, len(entries))
	seen := make(map[*Stop]bool, len(entries))
	for i, e := range entries {
		if i > 0 && entries[i-1].sequence == e.sequence {
			if entries[i-1].stop == e.stop {
				continue
			}
			return nil, fmt.Errorf("%w: sequence %d holds stops %d and %d", ErrBadRecord, e.sequence, entries[i-1].stop.ID, e.stop.ID)
		}
		if seen[e.stop] {
			return nil, fmt.Errorf("%w: stop %d appears twice", ErrBadRecord, e.stop.ID)
		}
		seen[e.stop] = true
		stops = append(stops, e.stop)
	}
	return stops, nil
}

func link(line *Line, d Direction, stops []*Stop) {
	for i, s := range stops {
		nb := Neighbors{}
		if i > 0 {
			nb.Prev = stops[i-1]
		}
		if i < len(stops)-1 {
			nb.Next = stops[i+1]
		}
		s.neighbors[d.slot()] = nb
		line.stops[s.ID] = s
	}
}
