package collector

import (
	"context"
	"fmt"
	"time"

	"github.com/omnizone/hostd/internal/hoststate"
	"github.com/omnizone/hostd/internal/model"
	"github.com/omnizone/hostd/internal/platform"
	"github.com/omnizone/hostd/internal/runner"
	"github.com/omnizone/hostd/internal/store"
)

// NetworkUsageCollector samples per-link cumulative counters on a short
// cadence and persists the delta against the previous sample older than
// (interval - 2s), per §4.3's Network-usage algorithm. A short/truncated
// link name is correlated against known interfaces before the delta is
// computed, labeling the row with the confidence of that correlation.
type NetworkUsageCollector struct {
	base
	interval time.Duration
}

func NewNetworkUsageCollector(r *runner.CommandRunner, s *store.Store, st *hoststate.State, host string, interval time.Duration) *NetworkUsageCollector {
	return &NetworkUsageCollector{
		base:     base{family: platform.FamilyNetworkUsage, runner: r, store: s, state: st, host: host},
		interval: interval,
	}
}

func (c *NetworkUsageCollector) Family() platform.ResourceFamily { return c.family }

func (c *NetworkUsageCollector) Collect(ctx context.Context) error {
	return c.guard(ctx, c.collect)
}

func (c *NetworkUsageCollector) collect(ctx context.Context) error {
	res, err := c.runner.Run(ctx, "dladm", "show-link", "-s", "-p", "-o",
		"link,ipackets,rbytes,ierrors,opackets,obytes,oerrors")
	if err != nil {
		return fmt.Errorf("show-link -s: %w", err)
	}
	snapshots := platform.ParseDladmShowLinkStat([]byte(res.Stdout))
	if len(snapshots) == 0 {
		return nil
	}

	knownLinks, err := c.store.KnownLinkNames(c.host)
	if err != nil {
		return fmt.Errorf("known link names: %w", err)
	}

	cutoff := snapshots[0].At.Add(-(c.interval - 2*time.Second))

	var batch []model.NetworkUsage
	for _, cur := range snapshots {
		linkName := cur.Link
		confidence := ""
		if !contains(knownLinks, linkName) {
			candidates, conf := platform.TruncationCorrelate(linkName, knownLinks)
			if len(candidates) > 0 {
				linkName = candidates[0]
				confidence = conf
			}
		}

		prev, err := c.store.LatestUsageSnapshotBefore(c.host, linkName, cutoff)
		if err != nil {
			return fmt.Errorf("latest usage snapshot for %s: %w", linkName, err)
		}
		if prev == nil {
			// No earlier sample for this link: store the raw counters
			// (no deltas) as the baseline the next pass diffs against.
			cur.Link = linkName
			baseline := platform.ComputeUsageDelta(c.host, cur, cur, nil, "")
			baseline.TruncationConfidence = confidence
			batch = append(batch, baseline)
			continue
		}

		speed, class, err := c.store.LinkSpeedAndClass(c.host, linkName)
		if err != nil {
			return fmt.Errorf("link speed/class for %s: %w", linkName, err)
		}

		prevSnapshot := platform.LinkCounterSnapshot{
			Link:     prev.Link,
			At:       prev.ScanTimestamp,
			RBytes:   prev.RBytes,
			OBytes:   prev.OBytes,
			IPackets: prev.IPackets,
			OPackets: prev.OPackets,
			IErrors:  prev.IErrors,
			OErrors:  prev.OErrors,
		}
		cur.Link = linkName
		usage := platform.ComputeUsageDelta(c.host, prevSnapshot, cur, speed, class)
		usage.TruncationConfidence = confidence
		batch = append(batch, usage)
	}

	if len(batch) == 0 {
		return nil
	}
	if err := c.store.InsertNetworkUsageBatch(batch); err != nil {
		return fmt.Errorf("insert network usage batch: %w", err)
	}
	return nil
}

func contains(haystack []string, needle string) bool {
	for _, h := range haystack {
		if h == needle {
			return true
		}
	}
	return false
}
