package trigger

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/gridwatch/outage-notifier/internal/config"
)

const maxUpstreamBody = 64 << 10

// Inputs of the dispatched workflow run.
type Inputs struct {
	ForceNotify bool
	DebugLog    bool
}

// UpstreamError is returned when the automation service refuses a dispatch.
type UpstreamError struct {
	StatusCode int
	Body       []byte
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("workflow dispatch answered %d: %s", e.StatusCode, e.Body)
}

// GitHub dispatches a workflow run through the GitHub Actions REST API.
type GitHub struct {
	client *http.Client
	conf   config.GitHub
}

func NewGitHub(conf config.GitHub) GitHub {
	return GitHub{
		client: &http.Client{
			Timeout:   15 * time.Second,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		conf: conf,
	}
}

type dispatchRequest struct {
	Ref    string            `json:"ref"`
	Inputs map[string]string `json:"inputs"`
}

func (g GitHub) Dispatch(ctx context.Context, inputs Inputs) error {
	body, err := json.Marshal(dispatchRequest{
		Ref: g.conf.Ref,
		Inputs: map[string]string{
			"force_notify": fmt.Sprint(inputs.ForceNotify),
			"debug_log":    fmt.Sprint(inputs.DebugLog),
		},
	})
	if err != nil {
		return fmt.Errorf("failed to marshal dispatch request: %w", err)
	}

	endpoint, err := url.JoinPath(g.conf.APIURL, "repos", g.conf.Owner, g.conf.Repo, "actions", "workflows", g.conf.Workflow, "dispatches")
	if err != nil {
		return fmt.Errorf("invalid api url: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create dispatch request: %w", err)
	}

	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("Authorization", "Bearer "+g.conf.Token.Value())
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-GitHub-Api-Version", "2022-11-28")

	resp, err := g.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to dispatch workflow: %w", err)
	}

	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	content, _ := io.ReadAll(io.LimitReader(resp.Body, maxUpstreamBody))

	return &UpstreamError{StatusCode: resp.StatusCode, Body: content}
}
