// internal/suggest/client.go

// Package suggest implements the "help me write" workflow: one suggestion
// request per narrative field, previewed and confirmed by the user before it
// touches the record.
package suggest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	stderrors "application-wizard/internal/common/errors"
	"application-wizard/internal/common/httpx"
	"application-wizard/internal/common/logger"
	"application-wizard/internal/common/metrics"
	"application-wizard/internal/models"
)

var (
	ErrSuggestionTimeout = errors.New("SUGGESTION_TIMEOUT")
	ErrSuggestionFailed  = errors.New("SUGGESTION_FAILED")
	ErrInvalidField      = errors.New("INVALID_SUGGESTION_FIELD")
)

type Client struct {
	config *Config
	client *httpx.Client
	logger logger.Logger
}

// NewClient builds a suggestion service client. Deadlines come from the call
// context, not the HTTP client.
func NewClient(config *Config, log logger.Logger) *Client {
	return &Client{
		config: config,
		client: httpx.NewClient(0),
		logger: log.With(map[string]interface{}{"component": "suggestion-client"}),
	}
}

// Suggest requests generated text for one narrative field. The field whitelist
// is enforced before any call is made.
func (c *Client) Suggest(ctx context.Context, req *Request) (string, error) {
	if !models.IsNarrativeField(req.Field) {
		metrics.SuggestionRequests.WithLabelValues(req.Field, "rejected").Inc()
		return "", fmt.Errorf("%w: %s", ErrInvalidField, req.Field)
	}
	if req.Locale == "" {
		req.Locale = c.config.Locale
	}

	start := time.Now()
	suggestion, err := c.post(ctx, req)
	metrics.SuggestionDuration.WithLabelValues(req.Field).Observe(time.Since(start).Seconds())

	switch {
	case err == nil:
		metrics.SuggestionRequests.WithLabelValues(req.Field, "success").Inc()
	case errors.Is(err, ErrSuggestionTimeout):
		metrics.SuggestionRequests.WithLabelValues(req.Field, "timeout").Inc()
	default:
		metrics.SuggestionRequests.WithLabelValues(req.Field, "error").Inc()
	}

	return suggestion, err
}

func (c *Client) post(ctx context.Context, req *Request) (string, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrSuggestionFailed, err)
	}

	var resp *http.Response
	var lastErr error

	for attempt := 0; attempt <= c.config.MaxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(100*(1<<(attempt-1))) * time.Millisecond
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return "", ErrSuggestionTimeout
			}
		}

		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+"/api/suggestions", bytes.NewReader(body))
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrSuggestionFailed, err)
		}
		httpReq.Header.Set("Content-Type", "application/json")
		if c.config.APIKey != "" {
			httpReq.Header.Set("Authorization", "Bearer "+c.config.APIKey)
		}

		resp, lastErr = c.client.Do(httpReq)
		if lastErr == nil {
			if resp.StatusCode == http.StatusOK {
				break
			}
			resp.Body.Close()
			lastErr = fmt.Errorf("status %d", resp.StatusCode)
			resp = nil
		}

		if ctx.Err() != nil {
			return "", ErrSuggestionTimeout
		}
	}

	if lastErr != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return "", ErrSuggestionTimeout
		}
		return "", fmt.Errorf("%w: %v", ErrSuggestionFailed, lastErr)
	}
	if resp == nil {
		return "", fmt.Errorf("%w: no successful response after retries", ErrSuggestionFailed)
	}
	defer resp.Body.Close()

	var apiResponse Response
	if err := json.NewDecoder(resp.Body).Decode(&apiResponse); err != nil {
		return "", fmt.Errorf("%w: decode error: %v", ErrSuggestionFailed, err)
	}
	if apiResponse.Error != "" {
		return "", fmt.Errorf("%w: %s", ErrSuggestionFailed, apiResponse.Error)
	}
	if strings.TrimSpace(apiResponse.Suggestion) == "" {
		return "", fmt.Errorf("%w: empty suggestion", ErrSuggestionFailed)
	}

	c.logger.Info("suggestion generated", map[string]interface{}{
		"field":  req.Field,
		"length": len(apiResponse.Suggestion),
	})

	return apiResponse.Suggestion, nil
}

// AsStandardError maps a client error to the surfaced error taxonomy.
func AsStandardError(field string, err error) *stderrors.StandardError {
	switch {
	case errors.Is(err, ErrInvalidField):
		return stderrors.NewInvalidSuggestionFieldError(field)
	case errors.Is(err, ErrSuggestionTimeout):
		return stderrors.NewSuggestionTimeoutError(field)
	default:
		return stderrors.NewSuggestionFailedError(field, err)
	}
}
