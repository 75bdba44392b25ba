package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const prefix = "forest_bench_"

var requestDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    prefix + "http_request_duration_seconds",
		Help:    "Latency of query server requests",
		Buckets: prometheus.DefBuckets,
	},
	[]string{"method", "route", "status"},
)

var reloadsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: prefix + "results_reloads_total",
		Help: "Number of results directory scans",
	},
	[]string{"outcome"},
)

var reloadDuration = promauto.NewHistogram(
	prometheus.HistogramOpts{
		Name:    prefix + "results_reload_duration_seconds",
		Help:    "Time taken to scan the results directory",
		Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10, 30},
	},
)

var recordsLoaded = promauto.NewGauge(
	prometheus.GaugeOpts{
		Name: prefix + "results_records",
		Help: "Number of records in the current results snapshot",
	},
)

var healthProbes = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: prefix + "health_probes_total",
		Help: "Health probes sent to deployed servers",
	},
	[]string{"container", "healthy"},
)

func RecordRequest(method, route string, status int, d time.Duration) {
	requestDuration.
		With(prometheus.Labels{"method": method, "route": route, "status": statusClass(status)}).
		Observe(d.Seconds())
}

// RecordReload counts a scan. records is only published for successful scans.
func RecordReload(records int, d time.Duration, err error) {
	reloadDuration.Observe(d.Seconds())
	if err != nil {
		reloadsTotal.WithLabelValues("error").Inc()
		return
	}
	reloadsTotal.WithLabelValues("ok").Inc()
	recordsLoaded.Set(float64(records))
}

func RecordHealthProbe(container string, healthy bool) {
	label := "false"
	if healthy {
		label = "true"
	}
	healthProbes.WithLabelValues(container, label).Inc()
}

func statusClass(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
