package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/failsafe-go/failsafe-go"
	"github.com/failsafe-go/failsafe-go/circuitbreaker"
	"github.com/failsafe-go/failsafe-go/retrypolicy"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/mathieu-neron/creatordash/internal/metrics"
	"github.com/mathieu-neron/creatordash/internal/model"
)

var (
	// ErrNotConfigured means no prompt backend URL or key was provided.
	ErrNotConfigured = errors.New("prompt backend not configured")

	// ErrRejected means the backend answered but did not report success.
	ErrRejected = errors.New("prompt backend rejected the request")
)

// Executor runs a prompt and returns the generated text.
type Executor interface {
	Execute(ctx context.Context, prompt string, data any) (string, error)
}

// Config configures the HTTP relay client.
type Config struct {
	URL        string
	RatePerSec float64
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
	Timeout    time.Duration
	HTTPClient *http.Client
}

// DefaultConfig returns the settings used in production.
func DefaultConfig(url string, ratePerSec float64) Config {
	return Config{
		URL:        url,
		RatePerSec: ratePerSec,
		MaxRetries: 2,
		BaseDelay:  500 * time.Millisecond,
		MaxDelay:   5 * time.Second,
		Timeout:    60 * time.Second,
	}
}

// Client posts {prompt, data} to a script endpoint and reads back
// {status, data: {analysis}, message}.
type Client struct {
	url      string
	http     *http.Client
	limiter  *rate.Limiter
	executor failsafe.Executor[*http.Response]
}

//nolint:bodyclose // *http.Response is a type parameter here, not a live body
func NewClient(cfg Config) *Client {
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = 500 * time.Millisecond
	}
	if cfg.MaxDelay < cfg.BaseDelay {
		cfg.MaxDelay = cfg.BaseDelay
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 60 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	limit := rate.Inf
	if cfg.RatePerSec > 0 {
		limit = rate.Limit(cfg.RatePerSec)
	}

	// Transient failures come back from the attempt as errors, so both
	// policies only need to look at err.
	retry := retrypolicy.NewBuilder[*http.Response]().
		HandleIf(func(_ *http.Response, err error) bool { return retryable(err) }).
		WithBackoff(cfg.BaseDelay, cfg.MaxDelay).
		WithMaxRetries(cfg.MaxRetries).
		WithJitterFactor(0.1).
		Build()

	breaker := circuitbreaker.NewBuilder[*http.Response]().
		HandleIf(func(_ *http.Response, err error) bool { return err != nil }).
		WithFailureThresholdRatio(5, 10).
		WithDelay(30 * time.Second).
		WithSuccessThreshold(1).
		OnStateChanged(func(e circuitbreaker.StateChangedEvent) {
			log.Warn().
				Str("from", stateName(e.OldState)).
				Str("to", stateName(e.NewState)).
				Msg("relay: circuit breaker state change")
		}).
		Build()

	return &Client{
		url:      cfg.URL,
		http:     httpClient,
		limiter:  rate.NewLimiter(limit, 1),
		executor: failsafe.With(retry, breaker),
	}
}

func stateName(s circuitbreaker.State) string {
	switch s {
	case circuitbreaker.OpenState:
		return "open"
	case circuitbreaker.HalfOpenState:
		return "half-open"
	default:
		return "closed"
	}
}

// retryable reports whether a failed attempt should be retried. An open
// breaker fails fast.
func retryable(err error) bool {
	return err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, circuitbreaker.ErrOpen)
}

// transientStatus reports whether an HTTP status is worth retrying.
func transientStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= 500
}

// Execute sends the prompt. Only a "success" status with non-empty analysis
// counts as a result.
func (c *Client) Execute(ctx context.Context, prompt string, data any) (string, error) {
	if c.url == "" {
		return "", ErrNotConfigured
	}
	if data == nil {
		data = map[string]any{}
	}

	start := time.Now()
	defer func() {
		metrics.RelayDuration.WithLabelValues("relay").Observe(time.Since(start).Seconds())
	}()

	if err := c.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("relay: rate limit wait: %w", err)
	}

	body, err := json.Marshal(model.PromptRequest{Prompt: prompt, Data: data})
	if err != nil {
		return "", fmt.Errorf("relay: encode request: %w", err)
	}

	resp, err := c.executor.WithContext(ctx).Get(func() (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.http.Do(req)
		if err != nil {
			return nil, err
		}
		if transientStatus(resp.StatusCode) {
			_, _ = io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
			return nil, fmt.Errorf("relay status %d", resp.StatusCode)
		}
		return resp, nil
	})
	if err != nil {
		metrics.UpstreamErrors.WithLabelValues("relay").Inc()
		return "", fmt.Errorf("relay: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		metrics.UpstreamErrors.WithLabelValues("relay").Inc()
		return "", fmt.Errorf("relay: unexpected status %d", resp.StatusCode)
	}

	var out model.PromptResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("relay: decode response: %w", err)
	}
	if out.Status != "success" || out.Data.Analysis == "" {
		msg := out.Message
		if msg == "" {
			msg = "empty analysis"
		}
		return "", fmt.Errorf("%w: %s", ErrRejected, msg)
	}
	return out.Data.Analysis, nil
}
