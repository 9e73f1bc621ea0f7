// Package trigger exposes the http endpoint that starts a run on the automation service.
package trigger

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"

	"github.com/go-logr/logr"
)

type WorkflowDispatcher interface {
	Dispatch(ctx context.Context, inputs Inputs) error
}

type Handler struct {
	secret      string
	redirectURL string
	dispatcher  WorkflowDispatcher

	logger *logr.Logger
}

func NewHandler(secret, redirectURL string, dispatcher WorkflowDispatcher) Handler {
	return Handler{
		secret:      secret,
		redirectURL: redirectURL,
		dispatcher:  dispatcher,
	}
}

func (h Handler) WithLogger(logger logr.Logger) Handler {
	h.logger = &logger

	return h
}

// Routes serves /trigger and /healthz.
func (h Handler) Routes() http.Handler {
	router := http.NewServeMux()
	router.HandleFunc("/trigger", h.trigger)
	router.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	return router
}

func (h Handler) trigger(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodPost {
		w.Header().Set("Allow", "GET, POST")
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)

		return
	}

	query := r.URL.Query()

	if !h.authorized(query.Get("secret")) {
		h.logInfo(0, "Unauthorized trigger", "remote", r.RemoteAddr)
		http.Error(w, "unauthorized", http.StatusUnauthorized)

		return
	}

	inputs := Inputs{
		ForceNotify: isTrue(query.Get("force_notify")),
		DebugLog:    isTrue(query.Get("debug_log")),
	}

	err := h.dispatcher.Dispatch(r.Context(), inputs)
	if err != nil {
		h.logError(err, "Failed to dispatch workflow", "forceNotify", inputs.ForceNotify, "debugLog", inputs.DebugLog)

		upstream := &UpstreamError{}
		if errors.As(err, &upstream) {
			w.Header().Set("Content-Type", "text/plain; charset=utf-8")
			w.WriteHeader(http.StatusBadGateway)
			_, _ = w.Write(upstream.Body)

			return
		}

		http.Error(w, err.Error(), http.StatusBadGateway)

		return
	}

	h.logInfo(0, "Workflow dispatched", "forceNotify", inputs.ForceNotify, "debugLog", inputs.DebugLog)

	if h.redirectURL == "" {
		w.WriteHeader(http.StatusAccepted)
		_, _ = w.Write([]byte("dispatched"))

		return
	}

	http.Redirect(w, r, h.redirectURL, http.StatusFound)
}

func (h Handler) authorized(secret string) bool {
	if h.secret == "" || secret == "" {
		return false
	}

	return subtle.ConstantTimeCompare([]byte(secret), []byte(h.secret)) == 1
}

func isTrue(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}

func (h Handler) logInfo(level int, msg string, keysAndValues ...any) {
	if h.logger == nil {
		return
	}

	h.logger.V(level).Info(msg, keysAndValues...)
}

func (h Handler) logError(err error, msg string, keysAndValues ...any) {
	if h.logger == nil {
		return
	}

	h.logger.Error(err, msg, keysAndValues...)
}
