package metrics

import (
	"time"
)

// StatsProvider reports the live state of a conversion run.
type StatsProvider interface {
	GetStats() Stats
}

// Stats holds the current run statistics
type Stats struct {
	Total     int
	InFlight  int
	Done      int
	Succeeded int
	Failed    int
	Canceled  int
}

// Collector periodically copies run statistics into the progress gauges
type Collector struct {
	statsProvider StatsProvider
	interval      time.Duration
	stopChan      chan struct{}
}

// NewCollector creates a new metrics collector
func NewCollector(provider StatsProvider, interval time.Duration) *Collector {
	return &Collector{
		statsProvider: provider,
		interval:      interval,
		stopChan:      make(chan struct{}),
	}
}

// Start begins the metrics collection loop
func (c *Collector) Start() {
	go c.collectLoop()
}

// Stop stops the metrics collection and records a final snapshot
func (c *Collector) Stop() {
	close(c.stopChan)
	c.collect()
}

func (c *Collector) collectLoop() {
	// Collect immediately on start
	c.collect()

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.collect()
		case <-c.stopChan:
			return
		}
	}
}

func (c *Collector) collect() {
	if c.statsProvider == nil {
		return
	}

	stats := c.statsProvider.GetStats()

	RunItemsPlanned.Set(float64(stats.Total))
	TasksInFlight.Set(float64(stats.InFlight))
	RunProgress.WithLabelValues("done").Set(float64(stats.Done))
	RunProgress.WithLabelValues("succeeded").Set(float64(stats.Succeeded))
	RunProgress.WithLabelValues("failed").Set(float64(stats.Failed))
	RunProgress.WithLabelValues("canceled").Set(float64(stats.Canceled))
}
