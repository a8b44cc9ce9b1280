package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/KaramelBytes/medflow-cli/internal/logger"
)

const defaultOpenRouterURL = "https://openrouter.ai/api/v1"

// Client talks to the OpenRouter chat completions API.
type Client struct {
	httpClient *http.Client
	apiKey     string
	baseURL    string
	retry      backoff
}

// NewOpenRouterClient returns a client with default timeouts and retry strategy.
func NewOpenRouterClient(apiKey string) *Client {
	return NewClient(apiKey, 60*time.Second, 3, 500*time.Millisecond, 4*time.Second)
}

// NewClient allows customizing HTTP timeout and retry/backoff behavior.
func NewClient(apiKey string, httpTimeout time.Duration, retryMax int, baseDelay, maxDelay time.Duration) *Client {
	if httpTimeout <= 0 {
		httpTimeout = 60 * time.Second
	}
	if retryMax <= 0 {
		retryMax = 3
	}
	if baseDelay <= 0 {
		baseDelay = 500 * time.Millisecond
	}
	if maxDelay <= 0 {
		maxDelay = 4 * time.Second
	}
	return &Client{
		httpClient: &http.Client{Timeout: httpTimeout},
		apiKey:     apiKey,
		baseURL:    defaultOpenRouterURL,
		retry:      backoff{maxAttempts: retryMax, base: baseDelay, max: maxDelay},
	}
}

// NewClientWithBaseURL allows injecting a custom base URL (used in tests).
func NewClientWithBaseURL(apiKey string, httpTimeout time.Duration, retryMax int, baseDelay, maxDelay time.Duration, baseURL string) *Client {
	c := NewClient(apiKey, httpTimeout, retryMax, baseDelay, maxDelay)
	if baseURL != "" {
		c.baseURL = baseURL
	}
	return c
}

func (c *Client) Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error) {
	if c.apiKey == "" {
		return nil, ErrMissingAPIKey
	}
	if req.Model == "" {
		return nil, errors.New("model cannot be empty")
	}
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, errors.Wrap(err, "marshal request")
	}
	endpoint := c.baseURL + "/chat/completions"
	log := logger.Named("openrouter")

	var out GenerateResponse
	err = c.retry.run(ctx, func(ctx context.Context, attempt int) (bool, time.Duration, error) {
		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
		if err != nil {
			return false, 0, errors.Wrap(err, "build request")
		}
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
		httpReq.Header.Set("Content-Type", "application/json")
		httpReq.Header.Set("HTTP-Referer", "https://github.com/KaramelBytes/medflow-cli")
		httpReq.Header.Set("X-Title", "MedFlow CLI")

		start := time.Now()
		resp, err := c.httpClient.Do(httpReq)
		if err != nil {
			if isRetryableNetErr(err) {
				return true, 0, errors.Wrap(err, "http request")
			}
			return false, 0, errors.Wrap(err, "http request")
		}
		defer resp.Body.Close()
		log.Debugw("chat completion",
			logger.FieldModel, req.Model,
			logger.FieldStatus, resp.StatusCode,
			"attempt", attempt,
			logger.FieldDuration, time.Since(start).Milliseconds())

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			apiErr := readAPIError(resp)
			if retryableStatus(resp.StatusCode) {
				return true, retryAfter(resp), classifyAPIError(apiErr, resp)
			}
			return false, 0, classifyAPIError(apiErr, resp)
		}
		if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
			return false, 0, errors.Wrap(err, "decode response")
		}
		out.RequestID = extractRequestID(resp)
		return false, 0, nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}
