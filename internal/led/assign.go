// Package led assigns LED strip indices to the stops of a built network.
package led

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/mini-rodalies-3d/metroled/internal/network"
	"github.com/mini-rodalies-3d/metroled/internal/static/wl"
)

// SimpleScheme is the name of the auto-generated sequential scheme
const SimpleScheme = "simple"

// Matcher decides whether two stops are the same physical station
type Matcher func(a, b *network.Stop) bool

// SameName matches stops by display name. Every station pairing goes
// through a Matcher so a stricter rule can replace this one.
func SameName(a, b *network.Stop) bool {
	return a.Name == b.Name
}

// Options configures Assign
type Options struct {
	// Simple names the sequential scheme; empty skips it.
	Simple string
	// Table holds externally curated indices.
	Table []wl.LEDIndexRow
	// Match pairs platforms; nil means SameName.
	Match Matcher
}

// Report summarises an Assign run
type Report struct {
	Simple      int
	FromTable   int
	UnknownRefs []int
	Shared      int
	Schemes     []string
}

// Assign runs the simple scheme, applies the external table and finally
// coalesces same-station stops across lines.
func Assign(n *network.Network, opts Options) Report {
	match := opts.Match
	if match == nil {
		match = SameName
	}

	var r Report
	if opts.Simple != "" {
		r.Simple = AssignSimple(n, opts.Simple, match)
	}
	if len(opts.Table) > 0 {
		r.FromTable, r.UnknownRefs = ApplyTable(n, opts.Table)
	}
	r.Shared = ShareAcrossLines(n, match)
	r.Schemes = Schemes(n)
	return r
}

// AssignSimple numbers each line's direction-1 platforms 0, 2, 4, ... in
// sequence order, continuing the counter from line to line. The direction-2
// platform of the same station on the same line receives the same value.
// Direction-2 platforms without a partner are numbered after the line's
// pairs. It returns the number of stops that received an index.
func AssignSimple(n *network.Network, scheme string, match Matcher) int {
	counter := 0
	assigned := 0
	for _, line := range n.Lines() {
		forward := line.Pattern(network.Direction1)
		if len(forward) == 0 && len(line.Pattern(network.Direction2)) == 0 {
			continue
		}

		paired := make(map[*network.Stop]bool)
		for _, s := range forward {
			s.SetLEDIndex(scheme, counter)
			assigned++
			for _, back := range line.Pattern(network.Direction2) {
				if paired[back] || !match(s, back) {
					continue
				}
				if back != s {
					back.SetLEDIndex(scheme, counter)
					assigned++
				}
				paired[back] = true
				break
			}
			counter += 2
		}

		for _, back := range line.Pattern(network.Direction2) {
			if paired[back] {
				continue
			}
			if _, err := back.LEDIndex(scheme); err == nil {
				continue
			}
			back.SetLEDIndex(scheme, counter)
			assigned++
			counter += 2
		}
	}
	return assigned
}

// ApplyTable copies externally curated indices onto owned stops by their
// reference code. Refs of the table that match no owned stop are returned.
func ApplyTable(n *network.Network, rows []wl.LEDIndexRow) (int, []int) {
	byRef := make(map[int][]wl.LEDIndexRow)
	for _, row := range rows {
		byRef[row.Ref] = append(byRef[row.Ref], row)
	}

	applied := 0
	used := make(map[int]bool)
	for _, s := range n.OwnedStops() {
		if s.Diva == nil {
			continue
		}
		for _, row := range byRef[*s.Diva] {
			s.SetLEDIndex(row.Scheme, row.Index)
			applied++
		}
		if _, ok := byRef[*s.Diva]; ok {
			used[*s.Diva] = true
		}
	}

	var unknown []int
	for ref := range byRef {
		if !used[ref] {
			unknown = append(unknown, ref)
		}
	}
	sort.Ints(unknown)
	return applied, unknown
}

// ShareAcrossLines walks the network in line order (direction 1 first) and
// makes every stop that matches an earlier one read that stop's index
// mapping. The first stop of a station is canonical. It returns the number
// of stops that now share a mapping.
func ShareAcrossLines(n *network.Network, match Matcher) int {
	var canonical []*network.Stop
	shared := 0
	for _, s := range walk(n) {
		var found *network.Stop
		for _, c := range canonical {
			if match(c, s) {
				found = c
				break
			}
		}
		if found == nil {
			canonical = append(canonical, s)
			continue
		}
		s.ShareLEDIndex(found)
		shared++
	}
	return shared
}

// walk returns each owned stop once: lines by id, direction 1 then 2 in
// sequence order.
func walk(n *network.Network) []*network.Stop {
	var out []*network.Stop
	seen := make(map[*network.Stop]bool)
	for _, line := range n.Lines() {
		for _, d := range network.Directions {
			for _, s := range line.Pattern(d) {
				if !seen[s] {
					seen[s] = true
					out = append(out, s)
				}
			}
		}
	}
	return out
}

// Schemes lists every scheme at least one owned stop has an index for
func Schemes(n *network.Network) []string {
	set := make(map[string]bool)
	for _, s := range n.OwnedStops() {
		for _, name := range s.LEDSchemes() {
			set[name] = true
		}
	}
	out := make([]string, 0, len(set))
	for name := range set {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Export writes the indices of scheme as an LED index table, one row per
// reference code. Stops without a reference code or index are skipped.
func Export(w io.Writer, n *network.Network, scheme string) (int, error) {
	cw := csv.NewWriter(w)
	cw.Comma = ';'
	if err := cw.Write([]string{"Ref", "Name", "Scheme", "Index"}); err != nil {
		return 0, err
	}

	written := 0
	seen := make(map[int]bool)
	for _, s := range walk(n) {
		if s.Diva == nil || seen[*s.Diva] {
			continue
		}
		idx, err := s.LEDIndex(scheme)
		if err != nil {
			continue
		}
		seen[*s.Diva] = true
		row := []string{strconv.Itoa(*s.Diva), s.Name, scheme, strconv.Itoa(idx)}
		if err := cw.Write(row); err != nil {
			return written, fmt.Errorf("failed to write row for stop %d: %w", s.ID, err)
		}
		written++
	}
	cw.Flush()
	return written, cw.Error()
}
