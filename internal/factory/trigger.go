package factory

import (
	"fmt"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/gridwatch/outage-notifier/internal/config"
	"github.com/gridwatch/outage-notifier/internal/log"
	"github.com/gridwatch/outage-notifier/internal/trigger"
)

func CreateTriggerServer(conf config.Trigger) *http.Server {
	handler := trigger.NewHandler(conf.Secret.Value(), conf.RedirectURL, trigger.NewGitHub(conf.GitHub)).
		WithLogger(log.Logger())

	return &http.Server{
		Addr:              fmt.Sprintf(":%v", conf.Port),
		Handler:           otelhttp.NewHandler(handler.Routes(), "trigger"),
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       30 * time.Second,
	}
}
