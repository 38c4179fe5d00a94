package render

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// RGB is one LED color
type RGB struct {
	R, G, B uint8
}

// ParseHex parses "#RRGGBB" or the short "#RGB" form
func ParseHex(s string) (RGB, error) {
	h := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(h) == 3 {
		h = string([]byte{h[0], h[0], h[1], h[1], h[2], h[2]})
	}
	if len(h) != 6 {
		return RGB{}, fmt.Errorf("invalid hex color %q", s)
	}
	v, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return RGB{}, fmt.Errorf("invalid hex color %q: %w", s, err)
	}
	return RGB{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v)}, nil
}

// Hex formats the color as "#RRGGBB"
func (c RGB) Hex() string {
	return fmt.Sprintf("#%02X%02X%02X", c.R, c.G, c.B)
}

// MarshalJSON encodes the color as an [r, g, b] triple
func (c RGB) MarshalJSON() ([]byte, error) {
	return json.Marshal([3]uint8{c.R, c.G, c.B})
}

// UnmarshalJSON accepts the [r, g, b] triple written by MarshalJSON
func (c *RGB) UnmarshalJSON(data []byte) error {
	var t [3]uint8
	if err := json.Unmarshal(data, &t); err != nil {
		return err
	}
	c.R, c.G, c.B = t[0], t[1], t[2]
	return nil
}
