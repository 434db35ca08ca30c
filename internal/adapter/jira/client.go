// Package jira posts compiled documents as issue comments via the Jira
// Cloud REST API v3.
package jira

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/tbraack/critique/internal/adf"
	llmhttp "github.com/tbraack/critique/internal/adapter/llm/http"
	"github.com/tbraack/critique/internal/config"
)

const defaultTimeout = 60 * time.Second

// Client posts comments on Jira issues using basic auth (email + API
// token).
type Client struct {
	baseURL   string
	email     string
	token     string
	retryConf llmhttp.RetryConfig
	client    *http.Client
}

// NewClient creates a Jira API client from configuration.
func NewClient(cfg config.JiraConfig, httpCfg config.HTTPConfig) *Client {
	timeout := llmhttp.ParseTimeout(nil, httpCfg.Timeout, defaultTimeout)

	return &Client{
		baseURL:   cfg.BaseURL,
		email:     cfg.Email,
		token:     cfg.Token,
		retryConf: llmhttp.BuildRetryConfig(config.ProviderConfig{}, httpCfg),
		client:    &http.Client{Timeout: timeout},
	}
}

// SetBaseURL sets a custom base URL (for testing).
func (c *Client) SetBaseURL(url string) {
	c.baseURL = url
}

type commentRequest struct {
	Body adf.Doc `json:"body"`
}

// AddComment posts the document as a comment on the issue.
func (c *Client) AddComment(ctx context.Context, issueKey string, doc adf.Doc) error {
	payload, err := json.Marshal(commentRequest{Body: doc})
	if err != nil {
		return fmt.Errorf("failed to marshal comment: %w", err)
	}

	requestURL := fmt.Sprintf("%s/rest/api/3/issue/%s/comment", c.baseURL, url.PathEscape(issueKey))

	return llmhttp.RetryWithBackoff(ctx, func(ctx context.Context) error {
		req, reqErr := http.NewRequestWithContext(ctx, http.MethodPost, requestURL, bytes.NewReader(payload))
		if reqErr != nil {
			return &llmhttp.Error{
				Type:      llmhttp.ErrTypeUnknown,
				Message:   reqErr.Error(),
				Retryable: false,
				Provider:  "jira",
			}
		}

		req.SetBasicAuth(c.email, c.token)
		req.Header.Set("Content-Type", "application/json")

		resp, callErr := c.client.Do(req)
		if callErr != nil {
			return &llmhttp.Error{
				Type:      llmhttp.ErrTypeTimeout,
				Message:   callErr.Error(),
				Retryable: false,
				Provider:  "jira",
			}
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 400 {
			bodyBytes, _ := io.ReadAll(resp.Body)
			return c.handleErrorResponse(resp.StatusCode, bodyBytes)
		}

		return nil
	}, c.retryConf)
}

// handleErrorResponse maps Jira API status codes to typed errors.
func (c *Client) handleErrorResponse(statusCode int, body []byte) error {
	message := fmt.Sprintf("HTTP %d", statusCode)

	var errResp struct {
		ErrorMessages []string `json:"errorMessages"`
	}
	if err := json.Unmarshal(body, &errResp); err == nil && len(errResp.ErrorMessages) > 0 {
		message = errResp.ErrorMessages[0]
	}

	switch statusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return &llmhttp.Error{
			Type:       llmhttp.ErrTypeAuthentication,
			Message:    message,
			StatusCode: statusCode,
			Retryable:  false,
			Provider:   "jira",
		}
	case http.StatusTooManyRequests:
		return &llmhttp.Error{
			Type:       llmhttp.ErrTypeRateLimit,
			Message:    message,
			StatusCode: statusCode,
			Retryable:  true,
			Provider:   "jira",
		}
	case http.StatusBadRequest, http.StatusNotFound:
		return &llmhttp.Error{
			Type:       llmhttp.ErrTypeInvalidRequest,
			Message:    message,
			StatusCode: statusCode,
			Retryable:  false,
			Provider:   "jira",
		}
	case http.StatusInternalServerError, http.StatusBadGateway, http.StatusServiceUnavailable:
		return &llmhttp.Error{
			Type:       llmhttp.ErrTypeServiceUnavailable,
			Message:    message,
			StatusCode: statusCode,
			Retryable:  true,
			Provider:   "jira",
		}
	default:
		return &llmhttp.Error{
			Type:       llmhttp.ErrTypeUnknown,
			Message:    message,
			StatusCode: statusCode,
			Retryable:  statusCode >= 500,
			Provider:   "jira",
		}
	}
}
