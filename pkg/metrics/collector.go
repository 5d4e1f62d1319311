package metrics

import (
	"time"

	"github.com/kestrel-dev/kestrel/pkg/types"
)

// StatsSource is the read-only view of SystemState the Collector polls.
// pkg/system's accessor satisfies this without metrics importing pkg/system
// directly.
type StatsSource interface {
	ActiveProfileId() (types.ServiceId, bool)
	ServiceCount() int
	BlockStatusCounts() map[types.ServiceId]map[types.BlockStatusKind]int
	TaskStatusCounts() map[types.TaskStatusKind]int
	OutputBucketCount() int
}

// Collector periodically samples a StatsSource into the package's gauges.
type Collector struct {
	source StatsSource
	stopCh chan struct{}
}

// NewCollector creates a new metrics collector over source.
func NewCollector(source StatsSource) *Collector {
	return &Collector{
		source: source,
		stopCh: make(chan struct{}),
	}
}

// Start begins collecting metrics every 15s until Stop is called.
func (c *Collector) Start() {
	ticker := time.NewTicker(15 * time.Second)
	go func() {
		c.collect()

		for {
			select {
			case <-ticker.C:
				c.collect()
			case <-c.stopCh:
				ticker.Stop()
				return
			}
		}
	}()
}

// Stop stops the collector.
func (c *Collector) Stop() {
	close(c.stopCh)
}

func (c *Collector) collect() {
	c.collectProfileMetrics()
	c.collectBlockMetrics()
	c.collectTaskMetrics()
	OutputBucketsTotal.Set(float64(c.source.OutputBucketCount()))
}

func (c *Collector) collectProfileMetrics() {
	ActiveProfile.Reset()
	if id, ok := c.source.ActiveProfileId(); ok {
		ActiveProfile.WithLabelValues(string(id)).Set(1)
	}
	ServicesTotal.Set(float64(c.source.ServiceCount()))
}

func (c *Collector) collectBlockMetrics() {
	BlocksTotal.Reset()
	for service, statuses := range c.source.BlockStatusCounts() {
		for status, count := range statuses {
			BlocksTotal.WithLabelValues(string(service), string(status)).Set(float64(count))
		}
	}
}

func (c *Collector) collectTaskMetrics() {
	TasksTotal.Reset()
	for status, count := range c.source.TaskStatusCounts() {
		TasksTotal.WithLabelValues(string(status)).Set(float64(count))
	}
}
