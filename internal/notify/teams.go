package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/gridwatch/outage-notifier/internal/common"
	"github.com/gridwatch/outage-notifier/internal/config"
	"github.com/gridwatch/outage-notifier/pkg/pipeline"
)

type messageCard struct {
	Type    string `json:"@type"`
	Context string `json:"@context"`
	Summary string `json:"summary"`
	Title   string `json:"title"`
	Text    string `json:"text"`
}

// Teams posts messages to an incoming webhook as legacy message cards.
type Teams struct {
	client *http.Client
	url    string
}

func NewTeams(conf config.Teams) (Teams, error) {
	if conf.WebhookURL == "" {
		return Teams{}, errors.New("teams notification requires a webhook url")
	}

	return Teams{
		client: &http.Client{
			Timeout:   conf.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		url: conf.WebhookURL.Value(),
	}, nil
}

func (t Teams) Process(ctx context.Context, message Message) error {
	body, err := json.Marshal(messageCard{
		Type:    "MessageCard",
		Context: "https://schema.org/extensions",
		Summary: message.Subject,
		Title:   message.Subject,
		Text:    message.HTML,
	})
	if err != nil {
		return common.NewErrProcessingError(err, CategoryDelivery, nil, "failed to marshal message card")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.url, bytes.NewReader(body))
	if err != nil {
		return common.NewErrProcessingError(err, CategoryDelivery, nil, "failed to create webhook request")
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return common.NewRetryableErrProcessingError(err, CategoryDelivery, nil, "failed to post to webhook")
	}

	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	content, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
	err = fmt.Errorf("%w: webhook answered %d: %s", ErrDelivery, resp.StatusCode, content)

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		return pipeline.NewRetryableErrProcessingError(err, CategoryDelivery, nil)
	}

	return pipeline.NewErrProcessingError(err, CategoryDelivery, nil)
}
