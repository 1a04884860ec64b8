package obs

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Run and check outcome counters, labelled by terminal status.
var (
	RunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sitewatch_runs_total",
		Help: "Completed monitoring runs by final status.",
	}, []string{"status"})

	CheckResults = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sitewatch_check_results_total",
		Help: "Individual check results by status.",
	}, []string{"status"})

	CleanupBytesFreed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sitewatch_cleanup_bytes_freed_total",
		Help: "Bytes reclaimed by the retention sweeper.",
	})
)

// MetricsHandler serves the prometheus scrape endpoint.
func MetricsHandler() http.Handler {
	return promhttp.Handler()
}
