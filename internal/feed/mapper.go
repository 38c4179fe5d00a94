package feed

import (
	"go.uber.org/zap"

	"github.com/mini-rodalies-3d/metroled/internal/logging"
	"github.com/mini-rodalies-3d/metroled/internal/network"
)

// MapStats counts what Map did with a snapshot
type MapStats struct {
	Monitors     int
	Departures   int
	UnknownLines int
	UnknownStops int
}

// Skipped is the number of monitor line entries that matched nothing
func (s MapStats) Skipped() int {
	return s.UnknownLines + s.UnknownStops
}

// Map clears every owned stop's departures and fills them from snap. Lines
// are resolved by name and stops by reference within that line. Entries
// that match neither are skipped.
func Map(n *network.Network, snap *Snapshot, log *zap.SugaredLogger) MapStats {
	log = logging.OrNop(log)
	for _, s := range n.OwnedStops() {
		s.ClearDepartures()
	}

	stats := MapStats{}
	if snap == nil {
		return stats
	}
	stats.Monitors = len(snap.Monitors)

	for _, m := range snap.Monitors {
		for _, ml := range m.Lines {
			line, ok := n.LineByName(ml.Name)
			if !ok {
				stats.UnknownLines++
				log.Debugw("feed line not in topology", "line", ml.Name, "stop", m.StopRef)
				continue
			}
			stop, ok := line.Stop(m.StopRef)
			if !ok {
				stats.UnknownStops++
				log.Debugw("feed stop not on line", "line", ml.Name, "stop", m.StopRef)
				continue
			}
			for _, c := range ml.Countdowns {
				stop.AddDeparture(c)
				stats.Departures++
			}
		}
	}
	return stats
}
