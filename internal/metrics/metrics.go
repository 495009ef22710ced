// Package metrics exposes the Prometheus instruments shared across the
// server and workers.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "quadra_http_requests_total",
		Help: "HTTP requests by method, route and status code.",
	}, []string{"method", "route", "status"})

	GamesCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "quadra_games_created_total",
		Help: "Game occurrences created by the scheduler.",
	})

	RSVPUpdates = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "quadra_rsvp_updates_total",
		Help: "Attendance status updates by resulting status.",
	}, []string{"status"})

	TransactionsCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "quadra_transactions_created_total",
		Help: "Treasury transactions created by type.",
	}, []string{"type"})

	TreasurySyncs = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "quadra_treasury_syncs_total",
		Help: "Treasury sheet sync attempts by result.",
	}, []string{"result"})
)

// Handler returns the /metrics endpoint handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
