package app

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/tiaanhavenga/DriveCatalogue/models"
)

var (
	scansTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "drivecat_scans_total",
			Help: "Completed scan jobs by root and final status",
		},
		[]string{"root", "status"},
	)

	scanErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "drivecat_scan_errors_total",
			Help: "Non-fatal errors reported during scans",
		},
		[]string{"kind"},
	)

	scanDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "drivecat_scan_duration_seconds",
			Help:    "Wall time of completed scans",
			Buckets: prometheus.ExponentialBuckets(0.1, 4, 8),
		},
	)

	indexedRecords = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "drivecat_indexed_records",
			Help: "Records currently held in the index",
		},
		[]string{"root"},
	)

	queueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "drivecat_queue_depth",
			Help: "Jobs waiting or running in the scan queue",
		},
	)
)

func observeScan(job *models.ScanJob) {
	scansTotal.WithLabelValues(job.Root, string(job.Status)).Inc()
	for _, se := range job.Errors {
		scanErrorsTotal.WithLabelValues(string(se.Kind)).Inc()
	}
	if job.Summary != nil {
		scanDuration.Observe(job.Summary.Duration.Seconds())
	}
}

func setIndexedRecords(root string, n int) {
	indexedRecords.WithLabelValues(root).Set(float64(n))
}

func dropRootMetrics(root string) {
	indexedRecords.DeleteLabelValues(root)
}
