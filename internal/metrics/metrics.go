package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	HTTPRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "podstream",
		Name:      "http_requests_total",
		Help:      "Total HTTP requests by method, path and status code.",
	}, []string{"method", "path", "status"})

	HTTPRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "podstream",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request duration in seconds.",
		Buckets:   []float64{0.05, 0.1, 0.3, 0.5, 1, 2, 5, 10, 30},
	}, []string{"method", "path"})

	EpisodesTotal = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "podstream",
		Name:      "episodes_total",
		Help:      "Number of episodes currently in the catalog.",
	})

	UploadsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "podstream",
		Name:      "uploads_total",
		Help:      "Total number of episode uploads accepted.",
	})

	UploadFailuresTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "podstream",
		Name:      "upload_failures_total",
		Help:      "Total number of rejected or failed uploads by reason.",
	}, []string{"reason"})

	UploadBytesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "podstream",
		Name:      "upload_bytes_total",
		Help:      "Total bytes of media accepted for storage.",
	})

	StreamRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "podstream",
		Name:      "stream_requests_total",
		Help:      "Total file streaming requests by kind (audio or image).",
	}, []string{"kind"})

	StreamBytesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "podstream",
		Name:      "stream_bytes_total",
		Help:      "Total bytes streamed to clients by kind (audio or image).",
	}, []string{"kind"})

	AuthFailuresTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "podstream",
		Name:      "auth_failures_total",
		Help:      "Total number of rejected authentication attempts.",
	})

	WSClientsConnected = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "podstream",
		Name:      "ws_clients_connected",
		Help:      "Number of currently connected websocket clients.",
	})
)

func Register(reg prometheus.Registerer) {
	reg.MustRegister(
		HTTPRequestsTotal,
		HTTPRequestDuration,
		EpisodesTotal,
		UploadsTotal,
		UploadFailuresTotal,
		UploadBytesTotal,
		StreamRequestsTotal,
		StreamBytesTotal,
		AuthFailuresTotal,
		WSClientsConnected,
	)
}
