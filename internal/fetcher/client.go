// Package fetcher retrieves the incidents currently reported by the outage API for one region.
package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/avast/retry-go/v4"
	"github.com/go-logr/logr"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/gridwatch/outage-notifier/internal/common"
	"github.com/gridwatch/outage-notifier/internal/config"
	"github.com/gridwatch/outage-notifier/internal/domain/entity"
	"github.com/gridwatch/outage-notifier/pkg/pipeline"
)

const (
	CategoryTransient = "fetch_transient"
	CategoryPermanent = "fetch_permanent"

	regionParam = "nomarxiaki_enothta_id"

	maxBodySize = 16 << 20
)

var (
	// ErrTransient means retries were exhausted on network errors, timeouts, 429 or 5xx responses.
	ErrTransient = errors.New("transient fetch error")
	// ErrPermanent means the request can not succeed by retrying it: 4xx, malformed body, cancelled run.
	ErrPermanent = errors.New("permanent fetch error")
)

type Client struct {
	httpClient *http.Client

	baseURL   string
	userAgent string
	retry     config.Retry

	debug  bool
	logger *logr.Logger
}

func NewClient(conf config.Provider) Client {
	return Client{
		httpClient: &http.Client{
			Timeout:   conf.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		baseURL:   conf.BaseURL,
		userAgent: conf.UserAgent,
		retry:     conf.Retry,
	}
}

func (c Client) WithLogger(logger logr.Logger) Client {
	c.logger = &logger

	return c
}

// WithDebug logs a sample of every payload.
func (c Client) WithDebug(debug bool) Client {
	c.debug = debug

	return c
}

// Fetch returns the incidents of region, with unique identities.
//
// Errors wrap ErrTransient, ErrPermanent or diff.ErrDataIntegrity.
func (c Client) Fetch(ctx context.Context, region entity.RegionID) ([]entity.Incident, error) {
	target, err := c.url(region)
	if err != nil {
		return nil, permanentError(err, region)
	}

	var body []byte

	attempts := c.retry.Attempts
	if attempts == 0 {
		attempts = 1
	}

	err = retry.Do(
		func() error {
			var err error

			body, err = c.get(ctx, target)

			return err
		},
		retry.Context(ctx),
		retry.Attempts(attempts),
		retry.RetryIf(func(err error) bool {
			return errors.Is(err, pipeline.ErrRetryableError)
		}),
		retry.Delay(c.retry.Delay),
		retry.MaxDelay(c.retry.MaxDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			c.logInfo(1, "Retrying fetch", "region", region, "attempt", n+1, "error", err.Error())
		}),
	)

	switch {
	case err == nil:
	case ctx.Err() != nil:
		return nil, permanentError(errors.Join(ctx.Err(), err), region)
	case errors.Is(err, pipeline.ErrRetryableError):
		return nil, common.NewErrProcessingError(fmt.Errorf("%w: %w", ErrTransient, err), CategoryTransient, nil, "failed to fetch region %s", region)
	default:
		return nil, permanentError(err, region)
	}

	records, err := decodeBody(body)
	if err != nil {
		return nil, permanentError(err, region)
	}

	if c.debug && c.logger != nil {
		logPayloadSample(c.logger.WithValues("region", region), records)
	}

	incidents, err := parseRecords(region, records)
	if err != nil {
		return nil, err
	}

	c.logInfo(1, "Fetched incidents", "region", region, "payloads", len(records), "incidents", len(incidents))

	return incidents, nil
}

func (c Client) url(region entity.RegionID) (string, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return "", fmt.Errorf("invalid base url: %w", err)
	}

	query := u.Query()
	query.Set(regionParam, string(region))
	u.RawQuery = query.Encode()

	return u.String(), nil
}

func (c Client) get(ctx context.Context, target string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	c.logInfo(2, "Fetching", "url", target)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, err
		}

		// Network error or client timeout
		return nil, pipeline.NewErrRetryableError(err)
	}

	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, pipeline.NewErrRetryableError(fmt.Errorf("failed to read body: %w", err))
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests, resp.StatusCode >= http.StatusInternalServerError:
		return nil, pipeline.NewErrRetryableError(fmt.Errorf("unexpected status %d", resp.StatusCode))
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, truncate(body, 256))
	}

	return body, nil
}

func permanentError(err error, region entity.RegionID) error {
	return common.NewErrProcessingError(fmt.Errorf("%w: %w", ErrPermanent, err), CategoryPermanent, nil, "failed to fetch region %s", region)
}

func truncate(b []byte, size int) string {
	if len(b) <= size {
		return string(b)
	}

	return string(b[:size]) + "..."
}

func (c Client) logInfo(level int, msg string, keysAndValues ...any) {
	if c.logger == nil {
		return
	}

	c.logger.V(level).Info(msg, keysAndValues...)
}
