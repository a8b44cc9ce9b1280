package ai

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
)

// ErrMissingAPIKey is returned by hosted runtimes built without a key.
var ErrMissingAPIKey = errors.WithHint(
	errors.New("api key is missing"),
	"set MEDFLOW_API_KEY or run: medflow config set api_key <key>")

// APIError is a non-2xx answer from a runtime.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
	RequestID  string
	// Raw is the decoded error body, nil when it was not JSON.
	Raw map[string]any
}

func (e *APIError) Error() string {
	parts := []string{"status " + strconv.Itoa(e.StatusCode)}
	if e.Code != "" {
		parts = append(parts, "code "+e.Code)
	}
	if e.RequestID != "" {
		parts = append(parts, "request "+e.RequestID)
	}
	out := "runtime answered " + strings.Join(parts, ", ")
	if e.Message != "" {
		out += ": " + e.Message
	}
	return out
}

// Typed failures. Each wraps the APIError it was classified from.
type (
	AuthError          struct{ *APIError }
	ModelNotFoundError struct{ *APIError }
	BadRequestError    struct{ *APIError }
	QuotaExceededError struct{ *APIError }
	ServerError        struct{ *APIError }
	RateLimitError     struct {
		*APIError
		RetryAfter time.Duration
	}
)

func (e *AuthError) Error() string          { return "rejected credentials: " + e.APIError.Error() }
func (e *ModelNotFoundError) Error() string { return "unknown model: " + e.APIError.Error() }
func (e *BadRequestError) Error() string    { return "invalid request: " + e.APIError.Error() }
func (e *QuotaExceededError) Error() string { return "out of credits: " + e.APIError.Error() }
func (e *ServerError) Error() string        { return "runtime failure: " + e.APIError.Error() }

func (e *RateLimitError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("rate limited (retry in %s): %s", e.RetryAfter, e.APIError.Error())
	}
	return "rate limited: " + e.APIError.Error()
}

// UnreachableError means no connection could be made, e.g. Ollama is not running.
type UnreachableError struct {
	Host string
	Err  error
}

func (e *UnreachableError) Error() string {
	if e.Host == "" {
		return fmt.Sprintf("runtime unreachable: %v", e.Err)
	}
	return fmt.Sprintf("runtime unreachable at %s: %v", e.Host, e.Err)
}

func (e *UnreachableError) Unwrap() error { return e.Err }

// errorBody covers {"error":{"message","code"}} and {"error":"..."}.
type errorBody struct {
	Error json.RawMessage `json:"error"`
}

type errorDetail struct {
	Message string `json:"message"`
	Code    any    `json:"code"`
}

// readAPIError decodes at most 8 KiB of an error response.
func readAPIError(resp *http.Response) *APIError {
	apiErr := &APIError{StatusCode: resp.StatusCode, RequestID: extractRequestID(resp)}
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 8<<10))
	if json.Unmarshal(data, &apiErr.Raw) != nil {
		apiErr.Message = strings.TrimSpace(string(data))
		return apiErr
	}
	var body errorBody
	_ = json.Unmarshal(data, &body)
	var detail errorDetail
	if json.Unmarshal(body.Error, &detail) == nil && (detail.Message != "" || detail.Code != nil) {
		apiErr.Message = detail.Message
		if detail.Code != nil {
			apiErr.Code = fmt.Sprint(detail.Code)
		}
	} else if err := json.Unmarshal(body.Error, &apiErr.Message); err != nil {
		_ = json.Unmarshal(data, &detail)
		apiErr.Message = detail.Message
	}
	return apiErr
}

// classifyAPIError picks the typed error for a response status. OpenRouter
// reports exhausted credits as 402.
func classifyAPIError(apiErr *APIError, resp *http.Response) error {
	switch sc := apiErr.StatusCode; {
	case sc == http.StatusUnauthorized || sc == http.StatusForbidden:
		return &AuthError{APIError: apiErr}
	case sc == http.StatusTooManyRequests:
		return &RateLimitError{APIError: apiErr, RetryAfter: retryAfter(resp)}
	case sc == http.StatusPaymentRequired || apiErr.Code == "quota_exceeded":
		return &QuotaExceededError{APIError: apiErr}
	case sc == http.StatusNotFound:
		msg := strings.ToLower(apiErr.Message)
		if apiErr.Code == "model_not_found" || (strings.Contains(msg, "model") && strings.Contains(msg, "not found")) {
			return &ModelNotFoundError{APIError: apiErr}
		}
		return apiErr
	case sc == http.StatusBadRequest:
		return &BadRequestError{APIError: apiErr}
	case sc >= 500:
		return &ServerError{APIError: apiErr}
	}
	return apiErr
}

// retryableStatus reports whether a response status is worth another attempt.
func retryableStatus(sc int) bool {
	return sc == http.StatusTooManyRequests || sc >= 500
}

func extractRequestID(resp *http.Response) string {
	if resp == nil {
		return ""
	}
	if id := resp.Header.Get("X-Request-Id"); id != "" {
		return id
	}
	return resp.Header.Get("Openrouter-Request-Id")
}
