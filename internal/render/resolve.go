// Package render turns mapped departures into a sparse LED frame.
package render

import (
	"encoding/json"
	"sort"

	"github.com/mini-rodalies-3d/metroled/internal/network"
)

// Frame maps LED indices to the colors emitted for them.
//
// Two trains can resolve to the same index, for example both directions of
// a paired platform or an arriving train next to one at the platform. Every
// emission is kept, in resolution order, and no precedence is applied.
// Display clients decide how to show an index with more than one color.
type Frame struct {
	leds map[int][]RGB
}

// NewFrame returns an empty frame
func NewFrame() Frame {
	return Frame{leds: make(map[int][]RGB)}
}

// Set appends a color at index i
func (f Frame) Set(i int, c RGB) {
	f.leds[i] = append(f.leds[i], c)
}

// Colors returns the colors emitted at index i, nil if the LED is off
func (f Frame) Colors(i int) []RGB {
	return f.leds[i]
}

// Color returns the first color at index i
func (f Frame) Color(i int) (RGB, bool) {
	cs := f.leds[i]
	if len(cs) == 0 {
		return RGB{}, false
	}
	return cs[0], true
}

// Indices lists the lit indices in ascending order
func (f Frame) Indices() []int {
	out := make([]int, 0, len(f.leds))
	for i := range f.leds {
		out = append(out, i)
	}
	sort.Ints(out)
	return out
}

// Len is the number of lit indices
func (f Frame) Len() int {
	return len(f.leds)
}

// MarshalJSON encodes the frame as {"<index>": [[r,g,b], ...]}
func (f Frame) MarshalJSON() ([]byte, error) {
	if f.leds == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(f.leds)
}

// UnmarshalJSON decodes the form written by MarshalJSON
func (f *Frame) UnmarshalJSON(data []byte) error {
	leds := make(map[int][]RGB)
	if err := json.Unmarshal(data, &leds); err != nil {
		return err
	}
	f.leds = leds
	return nil
}

// Resolve walks every line, direction and stop of n. A train at the
// platform (countdown 0) lights the stop's index in the direction color. A
// train one minute out lights the index between the stop and its
// predecessor in that direction, which is min(index, predecessor index)+1.
// Stops without an index under scheme are skipped.
func Resolve(n *network.Network, scheme string) Frame {
	frame := NewFrame()
	for _, line := range n.Lines() {
		for _, d := range network.Directions {
			color, err := ParseHex(line.DirectionColor(d))
			if err != nil {
				continue
			}
			for _, stop := range line.Pattern(d) {
				idx, err := stop.LEDIndex(scheme)
				if err != nil {
					continue
				}
				if stop.HasCountdown(0) {
					frame.Set(idx, color)
				}
				if stop.HasCountdown(1) {
					if i, ok := between(stop, d, idx, scheme); ok {
						frame.Set(i, color)
					}
				}
			}
		}
	}
	return frame
}

func between(stop *network.Stop, d network.Direction, idx int, scheme string) (int, bool) {
	prev := stop.Prev(d)
	if prev == nil {
		return 0, false
	}
	prevIdx, err := prev.LEDIndex(scheme)
	if err != nil {
		return 0, false
	}
	return min(idx, prevIdx) + 1, true
}
