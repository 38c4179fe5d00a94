// Package static keeps the on-disk reference tables current.
package static

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/mini-rodalies-3d/metroled/internal/logging"
	"github.com/mini-rodalies-3d/metroled/internal/static/wl"
)

// DefaultBaseURL hosts the Wiener Linien open data tables
const DefaultBaseURL = "https://www.wienerlinien.at/ogd_realtime/doku/ogd/"

// Remote file names below the base URL
const (
	LinesFile       = "wienerlinien-ogd-linien.csv"
	StopsFile       = "wienerlinien-ogd-haltepunkte.csv"
	ConnectionsFile = "wienerlinien-ogd-fahrwegverlaeufe.csv"
)

// ManifestName is written next to the lines table after a refresh
const ManifestName = "manifest.json"

// Manifest records when the tables were last downloaded
type Manifest struct {
	GeneratedAt string `json:"generated_at"`
	Source      string `json:"source"`
}

// Refresher downloads the reference tables
type Refresher struct {
	BaseURL string
	MaxAge  time.Duration
	Client  *http.Client
	Log     *zap.SugaredLogger
	now     func() time.Time
}

// RefreshIfStale downloads the lines, stops and connections tables into
// paths when the manifest is missing, unreadable or older than MaxAge.
// The LED index table is curated locally and never downloaded.
func (r *Refresher) RefreshIfStale(ctx context.Context, paths wl.Paths) (bool, error) {
	log := logging.OrNop(r.Log)
	now := time.Now
	if r.now != nil {
		now = r.now
	}

	manifestPath := filepath.Join(filepath.Dir(paths.Lines), ManifestName)
	if !isStaleOrMissing(manifestPath, r.MaxAge, now()) {
		log.Debugw("reference tables are fresh", "manifest", manifestPath)
		return false, nil
	}

	client := r.Client
	if client == nil {
		client = &http.Client{Timeout: 60 * time.Second}
	}

	downloads := []struct{ name, dest string }{
		{LinesFile, paths.Lines},
		{StopsFile, paths.Stops},
		{ConnectionsFile, paths.Connections},
	}
	for _, d := range downloads {
		if err := download(ctx, client, r.BaseURL+d.name, d.dest); err != nil {
			return false, fmt.Errorf("failed to refresh %s: %w", d.name, err)
		}
		log.Infow("reference table downloaded", "file", d.dest)
	}

	data, err := json.Marshal(Manifest{
		GeneratedAt: now().UTC().Format(time.RFC3339),
		Source:      r.BaseURL,
	})
	if err != nil {
		return true, err
	}
	return true, os.WriteFile(manifestPath, data, 0644)
}

func isStaleOrMissing(manifestPath string, maxAge time.Duration, now time.Time) bool {
	data, err := os.ReadFile(manifestPath)
	if err != nil {
		return true
	}

	var manifest Manifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		return true
	}

	generatedAt, err := time.Parse(time.RFC3339, manifest.GeneratedAt)
	if err != nil {
		return true
	}
	return now.Sub(generatedAt) > maxAge
}

// download writes to a temporary file first so a failed transfer keeps
// the previous table
func download(ctx context.Context, client *http.Client, url, dest string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s returned status %d", url, resp.StatusCode)
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(dest), filepath.Base(dest)+".*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, resp.Body); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), dest)
}
