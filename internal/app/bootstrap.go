// Package app wires configuration into a ready network and feed source
// for the binaries under cmd/.
package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/mini-rodalies-3d/metroled/internal/config"
	"github.com/mini-rodalies-3d/metroled/internal/db"
	"github.com/mini-rodalies-3d/metroled/internal/feed"
	"github.com/mini-rodalies-3d/metroled/internal/led"
	"github.com/mini-rodalies-3d/metroled/internal/logging"
	"github.com/mini-rodalies-3d/metroled/internal/network"
	"github.com/mini-rodalies-3d/metroled/internal/realtime/gtfsrt"
	"github.com/mini-rodalies-3d/metroled/internal/realtime/wienerlinien"
	"github.com/mini-rodalies-3d/metroled/internal/static/wl"
)

// LoadNetwork reads the reference tables, builds the network and assigns
// LED indices. Curated rows are applied in order: the CSV table, then
// store, then the Postgres table named by cfg.LEDIndexDSN. store may be nil.
func LoadNetwork(ctx context.Context, cfg *config.Config, store db.IndexSource, log *zap.SugaredLogger) (*network.Network, led.Report, error) {
	log = logging.OrNop(log)

	data, err := wl.Load(wl.Paths{
		Lines:       cfg.LinesFile,
		Stops:       cfg.StopsFile,
		Connections: cfg.ConnectionsFile,
		LEDIndex:    cfg.LEDIndexFile,
	}, log)
	if err != nil {
		return nil, led.Report{}, err
	}

	colors, err := config.LoadColors(cfg.ColorsFile)
	if err != nil {
		return nil, led.Report{}, err
	}

	n, err := network.Build(network.Input{
		Lines:       data.Lines,
		Stops:       data.Stops,
		Connections: data.Connections,
		Include:     network.IncludeType(cfg.LineType, cfg.LineName),
		Colors:      colors,
	})
	if err != nil {
		return nil, led.Report{}, fmt.Errorf("failed to build network: %w", err)
	}

	table := data.LEDIndex
	if store != nil {
		rows, err := store.LoadLEDIndex(ctx)
		if err != nil {
			return nil, led.Report{}, err
		}
		table = append(table, rows...)
	}
	if cfg.LEDIndexDSN != "" {
		pg, err := db.NewPostgresIndexSource(ctx, cfg.LEDIndexDSN)
		if err != nil {
			return nil, led.Report{}, err
		}
		rows, err := pg.LoadLEDIndex(ctx)
		pg.Close()
		if err != nil {
			return nil, led.Report{}, err
		}
		table = append(table, rows...)
	}

	report := led.Assign(n, led.Options{Simple: led.SimpleScheme, Table: table})
	if len(report.UnknownRefs) > 0 {
		log.Warnw("led index rows match no stop", "refs", report.UnknownRefs)
	}
	log.Infow("network ready",
		"lines", len(n.Lines()),
		"stops", len(n.OwnedStops()),
		"schemes", report.Schemes,
		"shared", report.Shared,
	)
	return n, report, nil
}

// NewFeedSource picks the feed source for cfg. A replay file wins over
// live sources.
func NewFeedSource(cfg *config.Config, n *network.Network, log *zap.SugaredLogger) (feed.Source, error) {
	if cfg.FeedReplayFile != "" {
		return wienerlinien.FileSource{Path: cfg.FeedReplayFile}, nil
	}

	switch cfg.FeedKind {
	case config.FeedKindMonitor:
		url := wienerlinien.BuildURL(cfg.FeedBaseURL, n.OwnedStops())
		opts := []wienerlinien.Option{wienerlinien.WithLogger(log)}
		if cfg.FeedArchiveDir != "" {
			opts = append(opts, wienerlinien.WithArchiveDir(cfg.FeedArchiveDir))
		}
		return wienerlinien.NewClient(url, opts...), nil
	case config.FeedKindGTFSRT:
		if cfg.GTFSRTTripUpdatesURL == "" {
			return nil, fmt.Errorf("GTFSRT_TRIP_UPDATES_URL is required for feed kind %q", cfg.FeedKind)
		}
		return gtfsrt.NewClient(cfg.GTFSRTTripUpdatesURL, nil, log), nil
	default:
		return nil, fmt.Errorf("unknown feed kind %q", cfg.FeedKind)
	}
}
