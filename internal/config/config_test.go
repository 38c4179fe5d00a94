package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, "8081", cfg.Port)
	assert.Equal(t, "ptMetro", cfg.LineType)
	assert.Equal(t, FeedKindMonitor, cfg.FeedKind)
	assert.Equal(t, 30*time.Second, cfg.FreshnessWindow)
	assert.Equal(t, 10*time.Second, cfg.FetchTimeout)
	assert.Equal(t, 24*time.Hour, cfg.RetentionDuration)
	assert.Equal(t, []string{"*"}, cfg.CORSOrigins)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("FEED_KIND", FeedKindGTFSRT)
	t.Setenv("FRESHNESS_SECONDS", "45")
	t.Setenv("FETCH_TIMEOUT_SECONDS", "not-a-number")
	t.Setenv("CORS_ORIGINS", "http://a.example, ,http://b.example")

	cfg := Load()
	assert.Equal(t, "9000", cfg.Port)
	assert.Equal(t, FeedKindGTFSRT, cfg.FeedKind)
	assert.Equal(t, 45*time.Second, cfg.FreshnessWindow)
	assert.Equal(t, 10*time.Second, cfg.FetchTimeout, "invalid ints fall back to the default")
	assert.Equal(t, []string{"http://a.example", "http://b.example"}, cfg.CORSOrigins)
}

func TestLoadColors(t *testing.T) {
	colors, err := LoadColors("")
	require.NoError(t, err)
	assert.Equal(t, "#DA3831", colors[301].Color)

	path := filepath.Join(t.TempDir(), "colors.yml")
	require.NoError(t, os.WriteFile(path, []byte(`
lines:
  301:
    color: "#FF0000"
    direction2: "#00FF00"
  399:
    color: "#123"
`), 0644))

	colors, err = LoadColors(path)
	require.NoError(t, err)
	assert.Equal(t, "#FF0000", colors[301].ForDirection(1))
	assert.Equal(t, "#00FF00", colors[301].ForDirection(2))
	assert.Equal(t, "#123", colors[399].Color)
	assert.Equal(t, "#9769A6", colors[302].Color, "defaults survive for lines not in the file")

	// the defaults table is not modified by an overlay
	assert.Equal(t, "#DA3831", DefaultLineColors[301].Color)
}

func TestLoadColorsInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"not yaml", "lines: [unterminated"},
		{"bad hex", "lines:\n  301:\n    color: red\n"},
		{"missing color", "lines:\n  301:\n    direction1: \"#FFFFFF\"\n"},
		{"no lines", "other: 1\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "colors.yml")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0644))
			_, err := LoadColors(path)
			assert.Error(t, err)
		})
	}

	_, err := LoadColors(filepath.Join(t.TempDir(), "missing.yml"))
	assert.Error(t, err)
}
