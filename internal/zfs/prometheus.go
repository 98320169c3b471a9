package zfs

import "github.com/prometheus/client_golang/prometheus"

var metrics struct {
	listDuration    *prometheus.HistogramVec
	droppedDatasets prometheus.Counter
}

var listBuckets = []float64{0.01, 0.05, 0.1, 0.2, 0.5, 1, 2, 5, 10, 30}

func init() {
	metrics.listDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "zfs_stats",
		Subsystem: "list",
		Name:      "duration_seconds",
		Help:      "seconds from starting zfs list until its output was decoded",
		Buckets:   listBuckets,
	}, []string{"result"})
	metrics.droppedDatasets = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "zfs_stats",
		Name:      "datasets_dropped_total",
		Help:      "datasets of unknown type left out of the aggregated stats",
	})
}

func RegisterMetrics(r prometheus.Registerer) error {
	if err := r.Register(metrics.listDuration); err != nil {
		return err
	}
	return r.Register(metrics.droppedDatasets)
}
