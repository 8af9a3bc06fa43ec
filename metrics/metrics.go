package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	ActivationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "wallet_connector_activations_total", Help: "Connector activations by outcome"},
		[]string{"result"},
	)
	FallbackTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "wallet_connector_fallback_total", Help: "Query tiers that produced no value and fell through"},
		[]string{"query", "tier"},
	)
	EventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "wallet_connector_events_total", Help: "Provider events relayed by the connector"},
		[]string{"event"},
	)
)

func init() {
	prometheus.MustRegister(ActivationsTotal, FallbackTotal, EventsTotal)
}

func Serve(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}
	go func() { _ = srv.ListenAndServe() }()
	return srv
}
