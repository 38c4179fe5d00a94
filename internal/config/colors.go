package config

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// LineColors is the display palette of one line. Direction colors fall back
// to Color when empty.
type LineColors struct {
	Color      string `yaml:"color" validate:"required,hexcolor"`
	Direction1 string `yaml:"direction1" validate:"omitempty,hexcolor"`
	Direction2 string `yaml:"direction2" validate:"omitempty,hexcolor"`
}

// ColorsFile is the YAML document loaded from COLORS_FILE
type ColorsFile struct {
	Lines map[int]LineColors `yaml:"lines" validate:"required,dive"`
}

// DefaultLineColors holds the Wiener Linien U-Bahn colors keyed by line id
var DefaultLineColors = map[int]LineColors{
	301: {Color: "#DA3831"}, // U1
	302: {Color: "#9769A6"}, // U2
	303: {Color: "#E7883B"}, // U3
	304: {Color: "#4AA45A"}, // U4
	306: {Color: "#946A41"}, // U6
}

// ForDirection returns the LED color for direction 1 or 2
func (c LineColors) ForDirection(direction int) string {
	switch {
	case direction == 1 && c.Direction1 != "":
		return c.Direction1
	case direction == 2 && c.Direction2 != "":
		return c.Direction2
	}
	return c.Color
}

// LoadColors returns the default palette overlaid with the entries of path.
// An empty path yields the defaults.
func LoadColors(path string) (map[int]LineColors, error) {
	colors := make(map[int]LineColors, len(DefaultLineColors))
	for id, c := range DefaultLineColors {
		colors[id] = c
	}
	if path == "" {
		return colors, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read colors file: %w", err)
	}
	var file ColorsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse colors file: %w", err)
	}
	if err := validator.New().Struct(file); err != nil {
		return nil, fmt.Errorf("invalid colors file: %w", err)
	}
	for id, c := range file.Lines {
		colors[id] = c
	}
	return colors, nil
}
