package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	AreasProcessed  *prometheus.CounterVec
	TileCandidates  prometheus.Counter
	TilesMatched    prometheus.Counter
	Downloads       *prometheus.CounterVec
	DownloadedBytes prometheus.Counter
	DownloadSeconds *prometheus.HistogramVec
	ActiveWorkers   prometheus.Gauge
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	return &Metrics{
		AreasProcessed: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "gaia_areas_processed_total",
			Help: "Total number of areas processed by tile selection.",
		}, []string{"status"}),
		TileCandidates: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "gaia_tile_candidates_total",
			Help: "Total number of tile names generated from area extents.",
		}),
		TilesMatched: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "gaia_tiles_matched_total",
			Help: "Total number of catalog entries selected for download.",
		}),
		Downloads: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "gaia_downloads_total",
			Help: "Total number of downloaded files by dataset and status.",
		}, []string{"dataset", "status"}),
		DownloadedBytes: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "gaia_downloaded_bytes_total",
			Help: "Total number of bytes written to disk.",
		}),
		DownloadSeconds: promauto.With(reg).NewHistogramVec(prometheus.HistogramOpts{
			Name:    "gaia_download_duration_seconds",
			Help:    "Duration of single file downloads.",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 10),
		}, []string{"dataset"}),
		ActiveWorkers: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Name: "gaia_active_workers",
			Help: "Current number of workers downloading files.",
		}),
	}
}

// WriteTextfile dumps the gathered metrics in the node exporter textfile format.
func WriteTextfile(path string, gatherer prometheus.Gatherer) error {
	if err := prometheus.WriteToTextfile(path, gatherer); err != nil {
		return fmt.Errorf("failed to write metrics textfile: %w", err)
	}

	return nil
}
