package metrics

import (
	"time"

	"github.com/relforge/relcore/pkg/catalog"
)

// Collector periodically samples catalog state into the gauge metrics that
// can't be updated incrementally at the call site (e.g. relations-by-kind,
// which needs a full pg_class scan rather than a per-operation counter).
type Collector struct {
	catalog *catalog.Store
	stopCh  chan struct{}
}

// NewCollector creates a new metrics collector over store.
func NewCollector(store *catalog.Store) *Collector {
	return &Collector{
		catalog: store,
		stopCh:  make(chan struct{}),
	}
}

// Start begins periodic collection.
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
	c.collectRelationMetrics()
}

func (c *Collector) collectRelationMetrics() {
	rows, err := c.catalog.ListClassRows()
	if err != nil {
		return
	}

	counts := make(map[string]int)
	for _, row := range rows {
		counts[string(row.Desc.Kind)]++
	}

	for kind, count := range counts {
		RelationsTotal.WithLabelValues(kind).Set(float64(count))
	}
}
