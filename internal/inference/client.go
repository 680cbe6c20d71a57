package inference

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"syscall"
	"time"

	"cadence/internal/logging"
)

const (
	defaultHTTPTimeout = 120 * time.Second
	defaultMaxAttempts = 3

	// Fixed per-class waits between attempts; deliberately not exponential.
	connectionRefusedDelay = 10 * time.Second
	transientDelay         = 5 * time.Second
)

// Config captures the runtime settings required to talk to the endpoint.
// All fields are read-only after construction.
type Config struct {
	Host           string
	Model          string
	TimeoutSeconds int
	MaxAttempts    int
	// EmptyOnExhaustion restores the legacy swallow-to-empty behavior: once
	// all attempts are spent Generate returns ("", nil) instead of an
	// *ExhaustedError, so callers cannot tell exhaustion from a valid empty
	// completion. Off by default.
	EmptyOnExhaustion bool
}

// Client calls an Ollama-compatible generate endpoint with bounded retries.
// It is safe for concurrent use.
type Client struct {
	cfg        Config
	httpClient *http.Client
	logger     *slog.Logger
	sleeper    func(time.Duration)
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

// WithLogger attaches a structured logger for per-attempt records.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithSleeper overrides how retry sleeps are performed (useful for tests).
func WithSleeper(sleeper func(time.Duration)) Option {
	return func(c *Client) {
		c.sleeper = sleeper
	}
}

// NewClient constructs an inference client using the supplied configuration.
func NewClient(cfg Config, opts ...Option) *Client {
	timeout := defaultHTTPTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = defaultMaxAttempts
	}
	cfg.Host = strings.TrimRight(strings.TrimSpace(cfg.Host), "/")
	if cfg.Host != "" && !strings.HasPrefix(cfg.Host, "http://") && !strings.HasPrefix(cfg.Host, "https://") {
		cfg.Host = "http://" + cfg.Host
	}
	cfg.Model = strings.TrimSpace(cfg.Model)

	client := &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logging.NewNop(),
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

type generateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	System string `json:"system,omitempty"`
	Stream bool   `json:"stream"`
}

type generateResponse struct {
	Response string `json:"response"`
}

// Generate sends the prompt to the endpoint and returns the completion text,
// retrying transient failures with class-specific fixed backoff. After the
// retry budget is spent it returns an *ExhaustedError, unless
// EmptyOnExhaustion is set, in which case it returns an empty completion.
func (c *Client) Generate(ctx context.Context, prompt, system string) (string, error) {
	if strings.TrimSpace(prompt) == "" {
		return "", errors.New("inference generate: prompt required")
	}
	if c.cfg.Host == "" {
		return "", errors.New("inference generate: host required")
	}

	attempts := c.cfg.MaxAttempts
	var last *CallError

	for attempt := 1; attempt <= attempts; attempt++ {
		attemptStart := time.Now()
		text, callErr, fatal := c.generateOnce(ctx, prompt, system)
		if fatal != nil {
			return "", fatal
		}
		if callErr == nil {
			c.logger.Debug("inference call succeeded",
				logging.Int(logging.FieldAttempt, attempt),
				logging.String("host", c.cfg.Host),
				logging.String("model", c.cfg.Model),
				logging.Int("response_chars", len(text)),
				logging.Duration("elapsed", time.Since(attemptStart)),
			)
			return text, nil
		}

		last = callErr
		c.logger.Warn("inference call failed",
			logging.Int(logging.FieldAttempt, attempt),
			logging.Int("max_attempts", attempts),
			logging.String("class", string(callErr.Class)),
			logging.String("host", c.cfg.Host),
			logging.Duration("elapsed", time.Since(attemptStart)),
			logging.Error(callErr),
		)

		// No wait follows the final attempt for any class.
		if attempt == attempts {
			break
		}
		if err := c.sleep(ctx, classDelay(callErr.Class)); err != nil {
			return "", err
		}
	}

	if c.cfg.EmptyOnExhaustion {
		c.logger.Warn("inference attempts exhausted; returning empty completion",
			logging.Int("attempts", attempts),
			logging.String("host", c.cfg.Host),
		)
		return "", nil
	}
	return "", &ExhaustedError{Attempts: attempts, Last: last}
}

// generateOnce performs a single endpoint call. Retryable failures come back
// as a *CallError; context cancellation is fatal and aborts the retry loop.
func (c *Client) generateOnce(ctx context.Context, prompt, system string) (string, *CallError, error) {
	payload := generateRequest{
		Model:  c.cfg.Model,
		Prompt: prompt,
		System: system,
		Stream: false,
	}
	encoded, err := json.Marshal(payload)
	if err != nil {
		return "", nil, fmt.Errorf("inference request: encode body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.Host+"/api/generate", bytes.NewReader(encoded))
	if err != nil {
		return "", nil, fmt.Errorf("inference request: new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) || ctx.Err() != nil {
			return "", nil, ctx.Err()
		}
		return "", classifyTransportError(err), nil
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", classifyTransportError(err), nil
	}
	if resp.StatusCode != http.StatusOK {
		return "", &CallError{
			Class:  ClassServerError,
			Status: resp.StatusCode,
			Body:   summarizeBody(body),
		}, nil
	}

	var decoded generateResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return "", &CallError{
			Class: ClassUnknown,
			Err:   fmt.Errorf("decode response: %w", err),
			Body:  summarizeBody(body),
		}, nil
	}
	return decoded.Response, nil, nil
}

func classifyTransportError(err error) *CallError {
	if errors.Is(err, syscall.ECONNREFUSED) {
		return &CallError{Class: ClassConnectionRefused, Err: err}
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &CallError{Class: ClassTimeout, Err: err}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &CallError{Class: ClassTimeout, Err: err}
	}
	return &CallError{Class: ClassUnknown, Err: err}
}

func classDelay(class FailureClass) time.Duration {
	if class == ClassConnectionRefused {
		return connectionRefusedDelay
	}
	return transientDelay
}

func (c *Client) sleep(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return nil
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if c.sleeper != nil {
		c.sleeper(delay)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return nil
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

func summarizeBody(body []byte) string {
	trimmed := strings.TrimSpace(string(body))
	replacer := strings.NewReplacer("\r", " ", "\n", " ", "\t", " ")
	clean := strings.Join(strings.Fields(replacer.Replace(trimmed)), " ")
	const limit = 160
	runes := []rune(clean)
	if len(runes) > limit {
		clean = string(runes[:limit]) + "..."
	}
	return clean
}
