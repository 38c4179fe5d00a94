package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration for the LED service
type Config struct {
	// HTTP
	Port        string
	CORSOrigins []string

	// Static reference tables
	LinesFile       string
	StopsFile       string
	ConnectionsFile string
	LEDIndexFile    string
	LineType        string
	LineName        string
	ColorsFile      string

	// StaticBaseURL enables downloading the tables at startup when set.
	StaticBaseURL     string
	StaticRefreshDays int

	// Feed source
	FeedKind             string
	FeedBaseURL          string
	GTFSRTTripUpdatesURL string
	FeedReplayFile       string
	FeedArchiveDir       string
	FreshnessWindow      time.Duration
	FetchTimeout         time.Duration

	// Storage
	DatabasePath      string
	LEDIndexDSN       string
	RetentionDuration time.Duration
}

// Feed kinds understood by FeedKind
const (
	FeedKindMonitor = "monitor"
	FeedKindGTFSRT  = "gtfsrt"
)

// Load reads configuration from environment variables with sensible defaults
func Load() *Config {
	return &Config{
		Port:        getEnv("PORT", "8081"),
		CORSOrigins: getEnvList("CORS_ORIGINS", []string{"*"}),

		LinesFile:       getEnv("LINES_FILE", "data/wienerlinien-ogd-linien.csv"),
		StopsFile:       getEnv("STOPS_FILE", "data/wienerlinien-ogd-haltepunkte.csv"),
		ConnectionsFile: getEnv("CONNECTIONS_FILE", "data/wienerlinien-ogd-fahrwegverlaeufe.csv"),
		LEDIndexFile:    getEnv("LED_INDEX_FILE", ""),
		LineType:        getEnv("LINE_TYPE", "ptMetro"),
		LineName:        getEnv("LINE_NAME", ""),
		ColorsFile:      getEnv("COLORS_FILE", ""),

		StaticBaseURL:     getEnv("STATIC_BASE_URL", ""),
		StaticRefreshDays: getEnvInt("STATIC_REFRESH_DAYS", 7),

		FeedKind:             getEnv("FEED_KIND", FeedKindMonitor),
		FeedBaseURL:          getEnv("FEED_BASE_URL", "https://www.wienerlinien.at/ogd_realtime/monitor"),
		GTFSRTTripUpdatesURL: getEnv("GTFSRT_TRIP_UPDATES_URL", ""),
		FeedReplayFile:       getEnv("FEED_REPLAY_FILE", ""),
		FeedArchiveDir:       getEnv("FEED_ARCHIVE_DIR", ""),
		FreshnessWindow:      time.Duration(getEnvInt("FRESHNESS_SECONDS", 30)) * time.Second,
		FetchTimeout:         time.Duration(getEnvInt("FETCH_TIMEOUT_SECONDS", 10)) * time.Second,

		DatabasePath:      getEnv("SQLITE_DATABASE", ""),
		LEDIndexDSN:       getEnv("LED_INDEX_DATABASE_URL", ""),
		RetentionDuration: time.Duration(getEnvInt("RETENTION_HOURS", 24)) * time.Hour,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
