package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	CommandsProcessed *prometheus.CounterVec
	APIErrors         prometheus.Counter
	RequestSeconds    *prometheus.HistogramVec
	ExportsWritten    prometheus.Counter
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	return &Metrics{
		CommandsProcessed: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "usermap_commands_processed_total",
			Help: "Total number of processed bot commands.",
		}, []string{"command", "status"}),
		APIErrors: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "usermap_provider_api_errors_total",
			Help: "Total number of errors received from the geocoding provider API.",
		}),
		RequestSeconds: promauto.With(reg).NewHistogramVec(prometheus.HistogramOpts{
			Name:    "usermap_provider_request_duration_seconds",
			Help:    "Duration of requests to the geocoding provider API.",
			Buckets: prometheus.DefBuckets,
		}, []string{"provider"}),
		ExportsWritten: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "usermap_exports_written_total",
			Help: "Total number of export artifact regenerations.",
		}),
	}
}
