package replicate

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	defaultBaseURL           = "https://api.replicate.com/v1"
	defaultPollInterval      = 2 * time.Second
	defaultPredictionTimeout = 10 * time.Minute
	defaultHTTPTimeout       = 60 * time.Second
)

// Config captures the runtime settings required to talk to Replicate.
type Config struct {
	APIToken              string
	BaseURL               string
	PollIntervalSeconds   int
	PredictionTimeoutSecs int
}

// Client wraps the Replicate predictions API.
type Client struct {
	cfg               Config
	httpClient        *http.Client
	pollInterval      time.Duration
	predictionTimeout time.Duration
	sleeper           func(time.Duration)
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithPollInterval overrides how often predictions are polled.
func WithPollInterval(interval time.Duration) Option {
	return func(c *Client) {
		if interval > 0 {
			c.pollInterval = interval
		}
	}
}

// WithSleeper overrides how poll sleeps are performed (useful for tests).
func WithSleeper(sleeper func(time.Duration)) Option {
	return func(c *Client) {
		c.sleeper = sleeper
	}
}

// NewClient constructs a predictions client using the supplied configuration.
func NewClient(cfg Config, opts ...Option) *Client {
	client := &Client{
		cfg: Config{
			APIToken: strings.TrimSpace(cfg.APIToken),
			BaseURL:  strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
		},
		httpClient:        &http.Client{Timeout: defaultHTTPTimeout},
		pollInterval:      defaultPollInterval,
		predictionTimeout: defaultPredictionTimeout,
	}
	if cfg.PollIntervalSeconds > 0 {
		client.pollInterval = time.Duration(cfg.PollIntervalSeconds) * time.Second
	}
	if cfg.PredictionTimeoutSecs > 0 {
		client.predictionTimeout = time.Duration(cfg.PredictionTimeoutSecs) * time.Second
	}
	for _, opt := range opts {
		opt(client)
	}
	if client.cfg.BaseURL == "" {
		client.cfg.BaseURL = defaultBaseURL
	}
	return client
}

// Prediction is the state of a Replicate prediction.
type Prediction struct {
	ID     string          `json:"id"`
	Status string          `json:"status"`
	Output json.RawMessage `json:"output"`
	Error  string          `json:"error"`
	URLs   struct {
		Get    string `json:"get"`
		Cancel string `json:"cancel"`
	} `json:"urls"`
}

func (p *Prediction) terminal() bool {
	switch p.Status {
	case "succeeded", "failed", "canceled":
		return true
	default:
		return false
	}
}

// OutputURL returns the single file URL produced by a media model. When the
// model returns a list, the first entry wins.
func (p *Prediction) OutputURL() (string, error) {
	urls, err := p.OutputURLs()
	if err != nil {
		return "", err
	}
	if len(urls) == 0 {
		return "", errors.New("prediction output contains no URLs")
	}
	return urls[0], nil
}

// OutputURLs returns the file URLs produced by a media model, accepting both
// a bare string and a list of strings.
func (p *Prediction) OutputURLs() ([]string, error) {
	if len(p.Output) == 0 {
		return nil, errors.New("prediction has no output")
	}
	var single string
	if err := json.Unmarshal(p.Output, &single); err == nil {
		if single = strings.TrimSpace(single); single != "" {
			return []string{single}, nil
		}
		return nil, errors.New("prediction output is empty")
	}
	var many []string
	if err := json.Unmarshal(p.Output, &many); err == nil {
		urls := make([]string, 0, len(many))
		for _, u := range many {
			if u = strings.TrimSpace(u); u != "" {
				urls = append(urls, u)
			}
		}
		return urls, nil
	}
	return nil, fmt.Errorf("prediction output is not a URL payload: %s", snippet(p.Output))
}

// DecodeOutput unmarshals a structured output payload (transcription models).
func (p *Prediction) DecodeOutput(target any) error {
	if len(p.Output) == 0 {
		return errors.New("prediction has no output")
	}
	if err := json.Unmarshal(p.Output, target); err != nil {
		return fmt.Errorf("decode prediction output: %w", err)
	}
	return nil
}

// Run creates a prediction for the given model and polls it to completion.
// Model accepts "owner/name" or "owner/name:version".
func (c *Client) Run(ctx context.Context, model string, input map[string]any) (*Prediction, error) {
	if c.cfg.APIToken == "" {
		return nil, errors.New("replicate run: api token required")
	}
	model = strings.TrimSpace(model)
	if model == "" {
		return nil, errors.New("replicate run: model required")
	}

	prediction, err := c.createPrediction(ctx, model, input)
	if err != nil {
		return nil, err
	}
	return c.waitForPrediction(ctx, prediction)
}

func (c *Client) createPrediction(ctx context.Context, model string, input map[string]any) (*Prediction, error) {
	var (
		endpoint string
		body     map[string]any
	)
	if idx := strings.LastIndex(model, ":"); idx >= 0 {
		endpoint = c.cfg.BaseURL + "/predictions"
		body = map[string]any{"version": model[idx+1:], "input": input}
	} else {
		endpoint = c.cfg.BaseURL + "/models/" + model + "/predictions"
		body = map[string]any{"input": input}
	}

	encoded, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("replicate run: encode body: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(encoded))
	if err != nil {
		return nil, fmt.Errorf("replicate run: new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIToken)
	req.Header.Set("Content-Type", "application/json")

	prediction, err := c.doPredictionRequest(req)
	if err != nil {
		return nil, fmt.Errorf("replicate run %s: %w", model, err)
	}
	return prediction, nil
}

func (c *Client) waitForPrediction(ctx context.Context, prediction *Prediction) (*Prediction, error) {
	deadline := time.Now().Add(c.predictionTimeout)
	for {
		if prediction.terminal() {
			break
		}
		if time.Now().After(deadline) {
			return nil, fmt.Errorf("replicate prediction %s: timed out after %s in status %q", prediction.ID, c.predictionTimeout, prediction.Status)
		}
		if err := c.sleep(ctx, c.pollInterval); err != nil {
			return nil, err
		}

		pollURL := prediction.URLs.Get
		if pollURL == "" {
			pollURL = c.cfg.BaseURL + "/predictions/" + prediction.ID
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, pollURL, nil)
		if err != nil {
			return nil, fmt.Errorf("replicate poll: new request: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIToken)

		polled, err := c.doPredictionRequest(req)
		if err != nil {
			return nil, fmt.Errorf("replicate poll %s: %w", prediction.ID, err)
		}
		prediction = polled
	}

	switch prediction.Status {
	case "succeeded":
		return prediction, nil
	case "canceled":
		return nil, fmt.Errorf("replicate prediction %s: canceled", prediction.ID)
	default:
		message := strings.TrimSpace(prediction.Error)
		if message == "" {
			message = "no error detail"
		}
		return nil, fmt.Errorf("replicate prediction %s: failed: %s", prediction.ID, message)
	}
}

func (c *Client) doPredictionRequest(req *http.Request) (*Prediction, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http error: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		return nil, fmt.Errorf("http %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	var prediction Prediction
	if err := json.Unmarshal(body, &prediction); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &prediction, nil
}

// HealthCheck verifies the API token against the account endpoint.
func (c *Client) HealthCheck(ctx context.Context) error {
	if c.cfg.APIToken == "" {
		return errors.New("replicate health: api token required")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+"/account", nil)
	if err != nil {
		return fmt.Errorf("replicate health: new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("replicate health: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	if resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("replicate health: http %d", resp.StatusCode)
	}
	return nil
}

func (c *Client) sleep(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return ctx.Err()
	}
	if c.sleeper != nil {
		c.sleeper(delay)
		return ctx.Err()
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func snippet(raw []byte) string {
	clean := strings.Join(strings.Fields(string(raw)), " ")
	const limit = 160
	runes := []rune(clean)
	if len(runes) > limit {
		clean = string(runes[:limit]) + "..."
	}
	return clean
}
