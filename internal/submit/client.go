// internal/submit/client.go

// Package submit delivers the completed application record to the submission
// service. Any non-success response is a recoverable failure: the caller keeps
// the record and the draft and may retry.
package submit

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	stderrors "application-wizard/internal/common/errors"
	"application-wizard/internal/common/httpx"
	"application-wizard/internal/common/logger"
	"application-wizard/internal/common/metrics"
	"application-wizard/internal/models"
)

var (
	ErrSubmissionTimeout = errors.New("SUBMISSION_TIMEOUT")
	ErrSubmissionFailed  = errors.New("SUBMISSION_FAILED")
)

type Config struct {
	BaseURL    string
	Timeout    time.Duration
	MaxRetries int
}

// Response is the submission service reply.
type Response struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

type Client struct {
	config *Config
	client *httpx.Client
	logger logger.Logger
}

func NewClient(config *Config, log logger.Logger) *Client {
	return &Client{
		config: config,
		client: httpx.NewClient(0),
		logger: log.With(map[string]interface{}{"component": "submission-client"}),
	}
}

// Submit posts the full record as a JSON mapping. The returned message comes
// from the service on success; on failure the record is untouched.
func (c *Client) Submit(ctx context.Context, record models.Record) (string, error) {
	message, err := c.post(ctx, record)

	switch {
	case err == nil:
		metrics.WizardSubmissions.WithLabelValues("success").Inc()
	case errors.Is(err, ErrSubmissionTimeout):
		metrics.WizardSubmissions.WithLabelValues("timeout").Inc()
	default:
		metrics.WizardSubmissions.WithLabelValues("error").Inc()
	}

	return message, err
}

func (c *Client) post(ctx context.Context, record models.Record) (string, error) {
	body, err := json.Marshal(record)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrSubmissionFailed, err)
	}

	var resp *http.Response
	var lastErr error

	for attempt := 0; attempt <= c.config.MaxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(100*(1<<(attempt-1))) * time.Millisecond
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return "", ErrSubmissionTimeout
			}
		}

		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+"/api/submit", bytes.NewReader(body))
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrSubmissionFailed, err)
		}
		httpReq.Header.Set("Content-Type", "application/json")

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
			return "", ErrSubmissionTimeout
		}
	}

	if lastErr != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return "", ErrSubmissionTimeout
		}
		return "", fmt.Errorf("%w: %v", ErrSubmissionFailed, lastErr)
	}
	if resp == nil {
		return "", fmt.Errorf("%w: no successful response after retries", ErrSubmissionFailed)
	}
	defer resp.Body.Close()

	var apiResponse Response
	if err := json.NewDecoder(resp.Body).Decode(&apiResponse); err != nil {
		return "", fmt.Errorf("%w: decode error: %v", ErrSubmissionFailed, err)
	}
	if !apiResponse.Success {
		reason := apiResponse.Error
		if reason == "" {
			reason = "submission rejected"
		}
		return "", fmt.Errorf("%w: %s", ErrSubmissionFailed, reason)
	}

	c.logger.Info("application submitted", map[string]interface{}{
		"message": apiResponse.Message,
	})

	return apiResponse.Message, nil
}

// AsStandardError maps a client error to the surfaced error taxonomy.
func AsStandardError(err error) *stderrors.StandardError {
	if errors.Is(err, ErrSubmissionTimeout) {
		return stderrors.NewSubmissionTimeoutError()
	}
	return stderrors.NewSubmissionFailedError(err)
}
