package metrics

import (
	"time"

	"github.com/anicoll/bytewatt-integration/internal/pkg/model"
	"github.com/anicoll/bytewatt-integration/internal/pkg/projection"
	"github.com/prometheus/client_golang/prometheus"
)

// snapshotSource is the refresher's read-only surface; collection never
// triggers a fetch.
type snapshotSource interface {
	Snapshot() (model.Snapshot, bool)
	LastUpdate() time.Time
	LastErr() error
}

// Collector exposes the cached snapshot's derived readings as gauges.
type Collector struct {
	source  snapshotSource
	sensors []projection.Sensor

	sensorValue *prometheus.Desc
	lastUpdate  *prometheus.Desc
	refreshOK   *prometheus.Desc
}

func NewCollector(source snapshotSource, sensors []projection.Sensor) *Collector {
	return &Collector{
		source:  source,
		sensors: sensors,
		sensorValue: prometheus.NewDesc(
			"bytewatt_sensor_value",
			"Derived reading projected from the latest battery snapshot",
			[]string{"sensor", "unit"},
			nil,
		),
		lastUpdate: prometheus.NewDesc(
			"bytewatt_last_update_timestamp_seconds",
			"Unix time of the last successful refresh",
			nil,
			nil,
		),
		refreshOK: prometheus.NewDesc(
			"bytewatt_refresh_success",
			"Whether the most recent refresh succeeded (1=yes, 0=no)",
			nil,
			nil,
		),
	}
}

func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.sensorValue
	ch <- c.lastUpdate
	ch <- c.refreshOK
}

func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	ok := 1.0
	if c.source.LastErr() != nil {
		ok = 0
	}
	ch <- prometheus.MustNewConstMetric(c.refreshOK, prometheus.GaugeValue, ok)

	snapshot, exists := c.source.Snapshot()
	if !exists {
		return
	}
	ch <- prometheus.MustNewConstMetric(c.lastUpdate, prometheus.GaugeValue, float64(c.source.LastUpdate().Unix()))

	for _, sensor := range c.sensors {
		ch <- prometheus.MustNewConstMetric(
			c.sensorValue,
			prometheus.GaugeValue,
			projection.Evaluate(sensor, snapshot),
			sensor.Slug(), sensor.Unit,
		)
	}
}
