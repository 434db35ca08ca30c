// Package gitlab implements the merge request host adapter against the
// GitLab REST API v4.
package gitlab

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	llmhttp "github.com/tbraack/critique/internal/adapter/llm/http"
	"github.com/tbraack/critique/internal/config"
	"github.com/tbraack/critique/internal/domain"
)

const (
	defaultBaseURL = "https://gitlab.com"
	defaultTimeout = 60 * time.Second
)

// Client talks to a GitLab instance using a personal or project access
// token.
type Client struct {
	token     string
	baseURL   string
	retryConf llmhttp.RetryConfig
	client    *http.Client
}

// NewClient creates a GitLab API client from configuration.
func NewClient(cfg config.GitLabConfig, httpCfg config.HTTPConfig) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	timeout := llmhttp.ParseTimeout(nil, httpCfg.Timeout, defaultTimeout)

	return &Client{
		token:     cfg.Token,
		baseURL:   baseURL,
		retryConf: llmhttp.BuildRetryConfig(config.ProviderConfig{}, httpCfg),
		client:    &http.Client{Timeout: timeout},
	}
}

// SetBaseURL sets a custom base URL (for testing).
func (c *Client) SetBaseURL(url string) {
	c.baseURL = url
}

// GetMergeRequestChanges fetches a merge request with per-file diffs.
// The project may be a numeric ID or a "group/name" path.
func (c *Client) GetMergeRequestChanges(ctx context.Context, project string, iid int) (domain.MergeRequest, error) {
	path := fmt.Sprintf("/api/v4/projects/%s/merge_requests/%d/changes", url.PathEscape(project), iid)

	body, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return domain.MergeRequest{}, err
	}

	var resp mergeRequestChangesResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return domain.MergeRequest{}, fmt.Errorf("failed to parse changes response: %w", err)
	}

	mr := domain.MergeRequest{
		Project:      project,
		IID:          resp.IID,
		Title:        resp.Title,
		SourceBranch: resp.SourceBranch,
		TargetBranch: resp.TargetBranch,
		BaseSHA:      resp.DiffRefs.BaseSHA,
		HeadSHA:      resp.DiffRefs.HeadSHA,
		WebURL:       resp.WebURL,
	}
	for _, change := range resp.Changes {
		mr.Files = append(mr.Files, domain.FileDiff{
			OldPath:     change.OldPath,
			NewPath:     change.NewPath,
			Diff:        change.Diff,
			NewFile:     change.NewFile,
			RenamedFile: change.RenamedFile,
			DeletedFile: change.DeletedFile,
		})
	}

	return mr, nil
}

// CreateMergeRequestNote posts a plain note on the merge request.
func (c *Client) CreateMergeRequestNote(ctx context.Context, project string, iid int, body string) error {
	path := fmt.Sprintf("/api/v4/projects/%s/merge_requests/%d/notes", url.PathEscape(project), iid)

	payload, err := json.Marshal(noteRequest{Body: body})
	if err != nil {
		return fmt.Errorf("failed to marshal note: %w", err)
	}

	_, err = c.do(ctx, http.MethodPost, path, payload)
	return err
}

// CreateMergeRequestDiscussion posts a discussion, optionally anchored
// to a line of the diff via position.
func (c *Client) CreateMergeRequestDiscussion(ctx context.Context, project string, iid int, body string, position *Position) error {
	path := fmt.Sprintf("/api/v4/projects/%s/merge_requests/%d/discussions", url.PathEscape(project), iid)

	payload, err := json.Marshal(discussionRequest{Body: body, Position: position})
	if err != nil {
		return fmt.Errorf("failed to marshal discussion: %w", err)
	}

	_, err = c.do(ctx, http.MethodPost, path, payload)
	return err
}

// do issues the request with retry and returns the response body on 2xx.
func (c *Client) do(ctx context.Context, method, path string, payload []byte) ([]byte, error) {
	url := c.baseURL + path

	var body []byte

	err := llmhttp.RetryWithBackoff(ctx, func(ctx context.Context) error {
		var reader io.Reader
		if payload != nil {
			reader = bytes.NewReader(payload)
		}

		req, reqErr := http.NewRequestWithContext(ctx, method, url, reader)
		if reqErr != nil {
			return &llmhttp.Error{
				Type:      llmhttp.ErrTypeUnknown,
				Message:   reqErr.Error(),
				Retryable: false,
				Provider:  "gitlab",
			}
		}

		req.Header.Set("PRIVATE-TOKEN", c.token)
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, callErr := c.client.Do(req)
		if callErr != nil {
			return &llmhttp.Error{
				Type:      llmhttp.ErrTypeTimeout,
				Message:   callErr.Error(),
				Retryable: false,
				Provider:  "gitlab",
			}
		}
		defer resp.Body.Close()

		bodyBytes, readErr := io.ReadAll(resp.Body)
		if readErr != nil {
			return &llmhttp.Error{
				Type:      llmhttp.ErrTypeUnknown,
				Message:   readErr.Error(),
				Retryable: false,
				Provider:  "gitlab",
			}
		}

		if resp.StatusCode >= 400 {
			return c.handleErrorResponse(resp.StatusCode, bodyBytes)
		}

		body = bodyBytes
		return nil
	}, c.retryConf)

	if err != nil {
		return nil, err
	}
	return body, nil
}

// handleErrorResponse maps GitLab API status codes to typed errors.
func (c *Client) handleErrorResponse(statusCode int, body []byte) error {
	message := fmt.Sprintf("HTTP %d", statusCode)

	var errResp struct {
		Message json.RawMessage `json:"message"`
		Error   string          `json:"error"`
	}
	if err := json.Unmarshal(body, &errResp); err == nil {
		if len(errResp.Message) > 0 {
			message = string(errResp.Message)
		} else if errResp.Error != "" {
			message = errResp.Error
		}
	}

	switch statusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return &llmhttp.Error{
			Type:       llmhttp.ErrTypeAuthentication,
			Message:    message,
			StatusCode: statusCode,
			Retryable:  false,
			Provider:   "gitlab",
		}
	case http.StatusTooManyRequests:
		return &llmhttp.Error{
			Type:       llmhttp.ErrTypeRateLimit,
			Message:    message,
			StatusCode: statusCode,
			Retryable:  true,
			Provider:   "gitlab",
		}
	case http.StatusNotFound:
		return &llmhttp.Error{
			Type:       llmhttp.ErrTypeInvalidRequest,
			Message:    message,
			StatusCode: statusCode,
			Retryable:  false,
			Provider:   "gitlab",
		}
	case http.StatusInternalServerError, http.StatusBadGateway, http.StatusServiceUnavailable:
		return &llmhttp.Error{
			Type:       llmhttp.ErrTypeServiceUnavailable,
			Message:    message,
			StatusCode: statusCode,
			Retryable:  true,
			Provider:   "gitlab",
		}
	default:
		return &llmhttp.Error{
			Type:       llmhttp.ErrTypeUnknown,
			Message:    message,
			StatusCode: statusCode,
			Retryable:  statusCode >= 500,
			Provider:   "gitlab",
		}
	}
}
