package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	APIRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "api_http_requests_total", Help: "HTTP requests"},
		[]string{"method", "path", "status"},
	)
	APIRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_http_request_duration_seconds",
			Help:    "HTTP request duration",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	DispatchRunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "dispatch_runs_total", Help: "Dispatch runs by outcome"},
		[]string{"result"},
	)
	DispatchEmailsSent = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "dispatch_emails_sent_total", Help: "Emails delivered to the transport"},
	)
	DispatchEmailsFailed = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "dispatch_emails_failed_total", Help: "Emails the transport rejected"},
	)
	DispatchRunDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "dispatch_run_duration_seconds",
			Help:    "Time spent in one dispatch run",
			Buckets: prometheus.DefBuckets,
		},
	)

	EventsPublishedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "events_published_total", Help: "Campaign events published to the queue"},
	)
)

func init() {
	prometheus.MustRegister(
		APIRequestsTotal, APIRequestDuration,
		DispatchRunsTotal, DispatchEmailsSent, DispatchEmailsFailed, DispatchRunDuration,
		EventsPublishedTotal,
	)
}

func Handler() http.Handler { return promhttp.Handler() }
