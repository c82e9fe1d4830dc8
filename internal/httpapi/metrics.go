package httpapi

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "arena_http_requests_total",
			Help: "Total HTTP requests by route and status code",
		},
		[]string{"route", "status"},
	)
	walletOperations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "arena_wallet_operations_total",
			Help: "Total wallet operations by kind and outcome",
		},
		[]string{"operation", "outcome"},
	)
	tournamentRegistrations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "arena_tournament_registrations_total",
			Help: "Total tournament registration attempts by outcome",
		},
		[]string{"outcome"},
	)
)

func init() {
	prometheus.MustRegister(httpRequests)
	prometheus.MustRegister(walletOperations)
	prometheus.MustRegister(tournamentRegistrations)
}

func metricsMiddleware() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		ctx.Next()
		route := ctx.FullPath()
		if route == "" {
			route = "unmatched"
		}
		httpRequests.WithLabelValues(route, strconv.Itoa(ctx.Writer.Status())).Inc()
	}
}

func metricsHandler() gin.HandlerFunc {
	return gin.WrapH(promhttp.Handler())
}

func observeWalletOperation(operation string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	walletOperations.WithLabelValues(operation, outcome).Inc()
}

func observeRegistration(err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	tournamentRegistrations.WithLabelValues(outcome).Inc()
}
