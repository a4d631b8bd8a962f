package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus metrics wired through handlers and services.
type Metrics struct {
	RoomsJoined       prometheus.Counter
	RecordsSubmitted  *prometheus.CounterVec
	SnapshotDuration  prometheus.Histogram
	StreamEvents      *prometheus.CounterVec
	NameLookupBatches prometheus.Counter
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	return &Metrics{
		RoomsJoined: promauto.NewCounter(prometheus.CounterOpts{
			Name: "pairhub_rooms_joined_total",
			Help: "Total number of successful room join operations",
		}),
		RecordsSubmitted: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "pairhub_records_submitted_total",
			Help: "Total number of records submitted, by table",
		}, []string{"table"}),
		SnapshotDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "pairhub_snapshot_fetch_duration_ms",
			Help:    "Latency of room snapshot fetches in milliseconds",
			Buckets: []float64{1, 2.5, 5, 10, 25, 50, 100, 250, 500},
		}),
		StreamEvents: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "pairhub_stream_events_total",
			Help: "Change-stream events applied, by table and event type",
		}, []string{"table", "type"}),
		NameLookupBatches: promauto.NewCounter(prometheus.CounterOpts{
			Name: "pairhub_name_lookup_batches_total",
			Help: "Total number of batched display-name lookups",
		}),
	}
}
