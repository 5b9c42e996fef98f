package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Item pipeline metrics
var (
	// ItemsTotal counts items by terminal outcome ("complete", "failed", "cancelled").
	ItemsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "harvester_items_total",
			Help: "Total number of catalog items processed, by outcome.",
		},
		[]string{"outcome"},
	)

	// ItemFailuresTotal counts failed items by the last state they reached.
	ItemFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "harvester_item_failures_total",
			Help: "Total number of failed items, by last good state.",
		},
		[]string{"state"},
	)
)

// Transfer metrics
var (
	PageFetchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "harvester_page_fetches_total",
			Help: "Total number of page fetches, by status (success, retry, error).",
		},
		[]string{"status"},
	)

	DownloadsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "harvester_downloads_total",
			Help: "Total number of file downloads, by kind and status.",
		},
		[]string{"kind", "status"},
	)

	DownloadBytesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "harvester_download_bytes_total",
			Help: "Total bytes written to disk by downloads, by kind.",
		},
		[]string{"kind"},
	)

	DownloadDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "harvester_download_duration_seconds",
			Help:    "Download duration in seconds, by kind.",
			Buckets: []float64{0.1, 0.5, 1, 5, 15, 60, 300, 900},
		},
		[]string{"kind"},
	)
)

// Worker pool metrics
var (
	WorkersActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "harvester_workers_active",
			Help: "Number of workers currently processing a chunk.",
		},
	)

	WorkersTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "harvester_workers_total",
			Help: "Total number of workers run, by status (ok, unavailable).",
		},
		[]string{"status"},
	)
)

// Download kinds
const (
	KindThumbnail = "thumbnail"
	KindVideo     = "video"
)

func init() {
	prometheus.MustRegister(
		ItemsTotal,
		ItemFailuresTotal,
		PageFetchesTotal,
		DownloadsTotal,
		DownloadBytesTotal,
		DownloadDuration,
		WorkersActive,
		WorkersTotal,
	)
}
