// Package gtfsrt adapts a GTFS-realtime TripUpdates feed into departure
// snapshots, for operators that do not offer a monitor endpoint.
package gtfsrt

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strconv"
	"time"

	"go.uber.org/zap"
	"google.golang.org/protobuf/proto"

	gtfs "github.com/MobilityData/gtfs-realtime-bindings/golang/gtfs"

	"github.com/mini-rodalies-3d/metroled/internal/feed"
	"github.com/mini-rodalies-3d/metroled/internal/logging"
)

// Client fetches a TripUpdates feed
type Client struct {
	url        string
	httpClient *http.Client
	// routeNames maps route_id to the line name used by the network.
	// Unmapped routes keep their route_id.
	routeNames map[string]string
	now        func() time.Time
	log        *zap.SugaredLogger
}

// NewClient creates a TripUpdates client
func NewClient(url string, routeNames map[string]string, log *zap.SugaredLogger) *Client {
	return &Client{
		url: url,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		routeNames: routeNames,
		now:        time.Now,
		log:        logging.OrNop(log),
	}
}

// Fetch implements feed.Source
func (c *Client) Fetch(ctx context.Context) (*feed.Snapshot, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("feed returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	msg := &gtfs.FeedMessage{}
	if err := proto.Unmarshal(body, msg); err != nil {
		return nil, fmt.Errorf("%w: %v", feed.ErrMalformed, err)
	}

	return c.Snapshot(msg), nil
}

type groupKey struct {
	stop int
	line string
}

// Snapshot converts trip updates into per-stop countdowns. Countdowns are
// whole minutes relative to the feed header timestamp, or the local clock
// when the header has none. Past events and non-numeric stop ids are
// dropped.
func (c *Client) Snapshot(msg *gtfs.FeedMessage) *feed.Snapshot {
	ref := c.now()
	snap := &feed.Snapshot{}
	if ts := msg.GetHeader().GetTimestamp(); ts > 0 {
		ref = time.Unix(int64(ts), 0)
		snap.ServerTime = ref
	}

	groups := make(map[groupKey][]int)
	for _, entity := range msg.GetEntity() {
		tu := entity.GetTripUpdate()
		if tu == nil || tu.GetTrip() == nil {
			continue
		}
		if tu.GetTrip().GetScheduleRelationship() == gtfs.TripDescriptor_CANCELED {
			continue
		}
		line := c.lineName(tu.GetTrip().GetRouteId())
		if line == "" {
			continue
		}

		for _, stu := range tu.GetStopTimeUpdate() {
			if stu.GetScheduleRelationship() == gtfs.TripUpdate_StopTimeUpdate_SKIPPED {
				continue
			}
			stop, err := strconv.Atoi(stu.GetStopId())
			if err != nil {
				c.log.Debugw("skipping non-numeric stop id", "stop_id", stu.GetStopId())
				continue
			}
			at := eventTime(stu)
			if at == 0 {
				continue
			}
			delta := time.Unix(at, 0).Sub(ref)
			if delta < 0 {
				continue
			}
			key := groupKey{stop: stop, line: line}
			groups[key] = append(groups[key], int(delta/time.Minute))
		}
	}

	byStop := make(map[int][]feed.MonitorLine)
	for key, countdowns := range groups {
		sort.Ints(countdowns)
		byStop[key.stop] = append(byStop[key.stop], feed.MonitorLine{Name: key.line, Countdowns: countdowns})
	}

	refs := make([]int, 0, len(byStop))
	for stop := range byStop {
		refs = append(refs, stop)
	}
	sort.Ints(refs)

	snap.Monitors = make([]feed.Monitor, 0, len(refs))
	for _, r := range refs {
		lines := byStop[r]
		sort.Slice(lines, func(i, j int) bool { return lines[i].Name < lines[j].Name })
		snap.Monitors = append(snap.Monitors, feed.Monitor{StopRef: r, Lines: lines})
	}
	return snap
}

func (c *Client) lineName(routeID string) string {
	if name, ok := c.routeNames[routeID]; ok {
		return name
	}
	return routeID
}

// eventTime prefers the arrival estimate
func eventTime(stu *gtfs.TripUpdate_StopTimeUpdate) int64 {
	if t := stu.GetArrival().GetTime(); t != 0 {
		return t
	}
	return stu.GetDeparture().GetTime()
}
