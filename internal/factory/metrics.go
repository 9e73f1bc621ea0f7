package factory

import (
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/gridwatch/outage-notifier/internal/config"
)

// CreatePrometheusServer serves /metrics and a /healthz probe for the periodic mode.
func CreatePrometheusServer(conf config.Metrics, registry *prometheus.Registry) *http.Server {
	ret := &http.Server{
		Addr:              fmt.Sprintf(":%v", conf.Port),
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       5 * time.Second,
	}
	ret.SetKeepAlivesEnabled(true)

	router := http.NewServeMux()
	router.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{
		Registry:          registry,
		EnableOpenMetrics: true,
	}))
	router.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, "ok")
	})
	ret.Handler = router

	return ret
}
