package metrics

import (
	"time"

	"vidcompress/internal/logging"
)

// StatsProvider interface for collecting stats
type StatsProvider interface {
	GetStats() Stats
}

// Stats holds the current library statistics
type Stats struct {
	TotalVideos   int
	StoredBytes   int64
	OriginalBytes int64
}

// Collector periodically collects and updates metrics
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

// Stop stops the metrics collection
func (c *Collector) Stop() {
	close(c.stopChan)
}

func (c *Collector) collectLoop() {
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

	LibraryVideosTotal.Set(float64(stats.TotalVideos))
	LibraryStoredBytes.Set(float64(stats.StoredBytes))
	LibrarySavedBytes.Set(float64(stats.OriginalBytes - stats.StoredBytes))

	logging.Debug("Metrics collected: videos=%d, stored=%d bytes, original=%d bytes",
		stats.TotalVideos, stats.StoredBytes, stats.OriginalBytes)
}
