// Package wienerlinien fetches the Wiener Linien realtime monitor feed.
package wienerlinien

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mini-rodalies-3d/metroled/internal/feed"
	"github.com/mini-rodalies-3d/metroled/internal/logging"
	"github.com/mini-rodalies-3d/metroled/internal/network"
)

// DefaultBaseURL is the public monitor endpoint
const DefaultBaseURL = "https://www.wienerlinien.at/ogd_realtime/monitor"

const serverTimeLayout = "2006-01-02T15:04:05.000-0700"

// BuildURL requests every owned stop of the network as a repeated stopId
// parameter. Ids are sorted and deduplicated.
func BuildURL(base string, stops []*network.Stop) string {
	seen := make(map[int]bool, len(stops))
	ids := make([]int, 0, len(stops))
	for _, s := range stops {
		if s.Line() == nil || seen[s.ID] {
			continue
		}
		seen[s.ID] = true
		ids = append(ids, s.ID)
	}
	sort.Ints(ids)

	var b strings.Builder
	b.WriteString(base)
	sep := "?"
	if strings.Contains(base, "?") {
		sep = "&"
	}
	for _, id := range ids {
		b.WriteString(sep)
		b.WriteString("stopId=")
		b.WriteString(strconv.Itoa(id))
		sep = "&"
	}
	return b.String()
}

// Client fetches and decodes monitor responses
type Client struct {
	url        string
	httpClient *http.Client
	archiveDir string
	now        func() time.Time
	log        *zap.SugaredLogger
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) { cl.httpClient = c }
}

// WithArchiveDir stores every fetched body as <dir>/<timestamp>_stations.json
func WithArchiveDir(dir string) Option {
	return func(cl *Client) { cl.archiveDir = dir }
}

// WithLogger sets the client logger
func WithLogger(l *zap.SugaredLogger) Option {
	return func(cl *Client) { cl.log = l }
}

// NewClient creates a client for a fully built request URL
func NewClient(url string, opts ...Option) *Client {
	c := &Client{
		url: url,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		now: time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.log = logging.OrNop(c.log)
	return c
}

// Fetch implements feed.Source
func (c *Client) Fetch(ctx context.Context) (*feed.Snapshot, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch monitor: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("monitor returned %d: %s", resp.StatusCode, string(body))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if c.archiveDir != "" {
		if path, err := c.archive(body); err != nil {
			c.log.Warnw("failed to archive monitor response", "error", err)
		} else {
			c.log.Debugw("archived monitor response", "path", path)
		}
	}

	return Decode(body)
}

func (c *Client) archive(body []byte) (string, error) {
	if err := os.MkdirAll(c.archiveDir, 0755); err != nil {
		return "", err
	}
	name := c.now().Format("20060102150405") + "_stations.json"
	path := filepath.Join(c.archiveDir, name)
	return path, os.WriteFile(path, body, 0644)
}

// FileSource replays a saved monitor response
type FileSource struct {
	Path string
}

// Fetch implements feed.Source
func (f FileSource) Fetch(ctx context.Context) (*feed.Snapshot, error) {
	body, err := os.ReadFile(f.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to read replay file: %w", err)
	}
	return Decode(body)
}

type monitorResponse struct {
	Data *struct {
		Monitors []struct {
			LocationStop struct {
				Properties struct {
					Attributes struct {
						RBL json.Number `json:"rbl"`
					} `json:"attributes"`
				} `json:"properties"`
			} `json:"locationStop"`
			Lines []struct {
				Name       string `json:"name"`
				Departures struct {
					Departure []struct {
						DepartureTime struct {
							Countdown *int `json:"countdown"`
						} `json:"departureTime"`
					} `json:"departure"`
				} `json:"departures"`
			} `json:"lines"`
		} `json:"monitors"`
	} `json:"data"`
	Message struct {
		ServerTime string `json:"serverTime"`
	} `json:"message"`
}

// Decode converts a monitor response body into a snapshot. Departures
// without a countdown are dropped.
func Decode(body []byte) (*feed.Snapshot, error) {
	var raw monitorResponse
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", feed.ErrMalformed, err)
	}
	if raw.Data == nil {
		return nil, fmt.Errorf("%w: missing data", feed.ErrMalformed)
	}

	snap := &feed.Snapshot{Monitors: make([]feed.Monitor, 0, len(raw.Data.Monitors))}
	if t, err := time.Parse(serverTimeLayout, raw.Message.ServerTime); err == nil {
		snap.ServerTime = t
	}

	for i, m := range raw.Data.Monitors {
		rbl, err := strconv.Atoi(m.LocationStop.Properties.Attributes.RBL.String())
		if err != nil {
			return nil, fmt.Errorf("%w: monitor %d: rbl %q", feed.ErrMalformed, i, m.LocationStop.Properties.Attributes.RBL)
		}
		mon := feed.Monitor{StopRef: rbl, Lines: make([]feed.MonitorLine, 0, len(m.Lines))}
		for _, l := range m.Lines {
			ml := feed.MonitorLine{Name: l.Name}
			for _, d := range l.Departures.Departure {
				if d.DepartureTime.Countdown != nil {
					ml.Countdowns = append(ml.Countdowns, *d.DepartureTime.Countdown)
				}
			}
			mon.Lines = append(mon.Lines, ml)
		}
		snap.Monitors = append(snap.Monitors, mon)
	}
	return snap, nil
}
