package e2e

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/jonboulle/clockwork"
	"gopkg.in/yaml.v3"

	"github.com/gridwatch/outage-notifier/internal/domain/entity"
	"github.com/gridwatch/outage-notifier/internal/domain/repo/snapshot"
)

const regionParam = "nomarxiaki_enothta_id"

// Card is a message received by the fake Teams webhook.
type Card struct {
	Title string `json:"title"`
	Text  string `json:"text"`
}

// TestContext runs the notifier binary against a fake provider and a fake Teams webhook.
type TestContext struct {
	Dir    string
	Binary string

	provider *httptest.Server
	teams    *httptest.Server

	mu       sync.Mutex
	payloads map[string]string
	failing  map[string]int
	cards    []Card
}

func CreateTestContext(binary string, dir string) *TestContext {
	ret := &TestContext{
		Dir:      dir,
		Binary:   binary,
		payloads: map[string]string{},
		failing:  map[string]int{},
	}

	ret.provider = httptest.NewServer(http.HandlerFunc(ret.serveProvider))
	ret.teams = httptest.NewServer(http.HandlerFunc(ret.serveTeams))

	return ret
}

func (tc *TestContext) Close() {
	tc.provider.Close()
	tc.teams.Close()
}

// SetPayload changes what the provider answers for region.
func (tc *TestContext) SetPayload(region string, payload string) {
	tc.mu.Lock()
	defer tc.mu.Unlock()

	tc.payloads[region] = payload
}

// SetFailing makes the provider answer status for region, 0 restoring the payload.
func (tc *TestContext) SetFailing(region string, status int) {
	tc.mu.Lock()
	defer tc.mu.Unlock()

	tc.failing[region] = status
}

func (tc *TestContext) Cards() []Card {
	tc.mu.Lock()
	defer tc.mu.Unlock()

	ret := make([]Card, len(tc.cards))
	copy(ret, tc.cards)

	return ret
}

func (tc *TestContext) StatePath() string {
	return filepath.Join(tc.Dir, "state.json")
}

// WriteConfig writes a file backed configuration polling regions; a metrics port of 0 disables metrics.
func (tc *TestContext) WriteConfig(regions []string, metricsPort int) (string, error) {
	conf := map[string]any{
		"logs": map[string]any{
			"level":   2,
			"encoder": "json",
		},
		"metrics": map[string]any{
			"enabled": metricsPort > 0,
			"port":    metricsPort,
		},
		"regions": regions,
		"provider": map[string]any{
			"baseURL": tc.provider.URL + "/rest/powercutreport/getPowerOutagesperNE",
			"timeout": "2s",
			"retry": map[string]any{
				"attempts": 2,
				"delay":    "10ms",
				"maxDelay": "20ms",
			},
		},
		"state": map[string]any{
			"backend": "file",
			"file": map[string]any{
				"path": tc.StatePath(),
			},
		},
		"notify": map[string]any{
			"mode": "batch",
			"retry": map[string]any{
				"attempts": 1,
				"delay":    "10ms",
			},
			"teams": map[string]any{
				"enabled":    true,
				"webhookURL": tc.teams.URL,
				"timeout":    "2s",
			},
		},
	}

	data, err := yaml.Marshal(conf)
	if err != nil {
		return "", fmt.Errorf("failed to marshal config: %w", err)
	}

	ret := filepath.Join(tc.Dir, "config.yaml")

	err = os.WriteFile(ret, data, 0o600)
	if err != nil {
		return "", fmt.Errorf("failed to write config: %w", err)
	}

	return ret, nil
}

// Run executes a single run of the notifier.
func (tc *TestContext) Run(confPath string, args ...string) (string, error) {
	command := fmt.Sprintf("%s run --config %s %s", tc.Binary, confPath, strings.Join(args, " "))

	return runCommand(command, os.Environ())
}

// Start runs the notifier periodically until the returned command is stopped.
func (tc *TestContext) Start(confPath string, args ...string) (*Background, error) {
	command := fmt.Sprintf("%s run --config %s %s", tc.Binary, confPath, strings.Join(args, " "))

	return startCommand(command)
}

func (tc *TestContext) State(ctx context.Context) (entity.Snapshot, error) {
	return snapshot.NewFileStore(tc.StatePath(), clockwork.NewRealClock()).Load(ctx)
}

func (tc *TestContext) serveProvider(w http.ResponseWriter, r *http.Request) {
	region := r.URL.Query().Get(regionParam)

	tc.mu.Lock()
	payload, ok := tc.payloads[region]
	status := tc.failing[region]
	tc.mu.Unlock()

	if status != 0 {
		w.WriteHeader(status)
		return
	}

	if !ok {
		payload = "[]"
	}

	w.Header().Set("Content-Type", "application/json")
	_, _ = io.WriteString(w, payload)
}

func (tc *TestContext) serveTeams(w http.ResponseWriter, r *http.Request) {
	var card Card

	err := json.NewDecoder(r.Body).Decode(&card)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	tc.mu.Lock()
	tc.cards = append(tc.cards, card)
	tc.mu.Unlock()

	_, _ = io.WriteString(w, "1")
}

// FreePort returns a local port nothing listens on.
func FreePort() (int, error) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return 0, fmt.Errorf("failed to find free port: %w", err)
	}

	defer listener.Close()

	return listener.Addr().(*net.TCPAddr).Port, nil
}

func HttpGet(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to get %s: %w", url, err)
	}

	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status %d: %s", resp.StatusCode, body)
	}

	return string(body), nil
}
