// Package apiclient is the request/response client for the CMS job API.
// It owns no domain state; every failure surfaces as a typed RequestError
// and nothing is retried automatically. Approval in particular is not
// safely retryable.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/lehrwerk/ai-authoring-sync/internal/domain"
)

// DefaultTimeout bounds every request unless the caller's context is
// stricter.
const DefaultTimeout = 15 * time.Second

// Client talks to the CMS job API.
type Client struct {
	baseURL string
	http    *http.Client
	log     zerolog.Logger

	mu         sync.RWMutex
	credential string
}

// New creates a Client for the API at baseURL, authenticating with the
// given bearer credential.
func New(baseURL, credential string, log zerolog.Logger) *Client {
	return &Client{
		baseURL:    baseURL,
		credential: credential,
		http:       &http.Client{Timeout: DefaultTimeout},
		log:        log,
	}
}

// SetCredential replaces the bearer credential for subsequent requests.
// Safe to call while requests are in flight; those keep the credential
// they started with.
func (c *Client) SetCredential(credential string) {
	c.mu.Lock()
	c.credential = credential
	c.mu.Unlock()
}

// CreateJobRequest is the payload for starting a generation job.
type CreateJobRequest struct {
	ConfigurationID string          `json:"configuration_id"`
	JobType         domain.JobKind  `json:"job_type"`
	InputPrompt     string          `json:"input_prompt"`
	InputMetadata   json.RawMessage `json:"input_metadata,omitempty"`
}

// ApprovalResult carries the created-content reference returned when a
// suggestion is approved.
type ApprovalResult struct {
	Message        string `json:"message"`
	CreatedBlockID string `json:"created_block_id,omitempty"`
	BlockSlug      string `json:"block_slug,omitempty"`
}

type rejectRequest struct {
	Feedback string `json:"feedback,omitempty"`
}

type apiError struct {
	Detail string `json:"detail"`
}

// CreateJob submits a new generation job and returns the server's record.
func (c *Client) CreateJob(ctx context.Context, req CreateJobRequest) (*domain.Job, error) {
	var job domain.Job
	if err := c.do(ctx, "create job", http.MethodPost, "/v1/ai/jobs", req, &job); err != nil {
		return nil, err
	}
	return &job, nil
}

// GetJob fetches the current server-side record of one job.
func (c *Client) GetJob(ctx context.Context, jobID string) (*domain.Job, error) {
	var job domain.Job
	if err := c.do(ctx, "get job", http.MethodGet, "/v1/ai/jobs/"+jobID, nil, &job); err != nil {
		return nil, err
	}
	return &job, nil
}

// ListJobs fetches all jobs visible to the credential.
func (c *Client) ListJobs(ctx context.Context) ([]domain.Job, error) {
	var jobs []domain.Job
	if err := c.do(ctx, "list jobs", http.MethodGet, "/v1/ai/jobs", nil, &jobs); err != nil {
		return nil, err
	}
	return jobs, nil
}

// CancelJob asks the server to cancel a job. The local record stays
// untouched until either this response or a pushed cancelled event
// confirms it, whichever arrives first.
func (c *Client) CancelJob(ctx context.Context, jobID string) error {
	return c.do(ctx, "cancel job", http.MethodPost, "/v1/ai/jobs/"+jobID+"/cancel", nil, nil)
}

// ListSuggestions fetches the suggestion set of a completed job.
func (c *Client) ListSuggestions(ctx context.Context, jobID string) ([]domain.Suggestion, error) {
	var suggestions []domain.Suggestion
	if err := c.do(ctx, "list suggestions", http.MethodGet, "/v1/ai/jobs/"+jobID+"/suggestions", nil, &suggestions); err != nil {
		return nil, err
	}
	return suggestions, nil
}

// ApproveSuggestion approves a pending suggestion, creating the content
// block server-side. A second call for the same suggestion yields a
// conflict.
func (c *Client) ApproveSuggestion(ctx context.Context, suggestionID string) (*ApprovalResult, error) {
	var result ApprovalResult
	if err := c.do(ctx, "approve suggestion", http.MethodPost, "/v1/ai/suggestions/"+suggestionID+"/approve", nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// RejectSuggestion rejects a pending suggestion with optional feedback.
func (c *Client) RejectSuggestion(ctx context.Context, suggestionID, feedback string) error {
	return c.do(ctx, "reject suggestion", http.MethodPost, "/v1/ai/suggestions/"+suggestionID+"/reject", rejectRequest{Feedback: feedback}, nil)
}

func (c *Client) do(ctx context.Context, op, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return &RequestError{Kind: KindNetwork, Op: op, Err: err}
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return &RequestError{Kind: KindNetwork, Op: op, Err: err}
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	c.mu.RLock()
	credential := c.credential
	c.mu.RUnlock()
	if credential != "" {
		req.Header.Set("Authorization", "Bearer "+credential)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Debug().Str("op", op).Err(err).Msg("request transport failure")
		return classifyTransport(op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return c.serverError(op, resp)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return &RequestError{Kind: KindServer, Op: op, StatusCode: resp.StatusCode,
				Err: fmt.Errorf("decoding response: %w", err)}
		}
	}
	return nil
}

func (c *Client) serverError(op string, resp *http.Response) error {
	kind := KindServer
	if resp.StatusCode == http.StatusConflict {
		kind = KindConflict
	}

	var apiErr apiError
	if err := json.NewDecoder(resp.Body).Decode(&apiErr); err == nil {
		// The server reports processed suggestions with 400 rather than
		// 409; treat that as a conflict too so callers never retry it.
		if resp.StatusCode == http.StatusBadRequest && apiErr.Detail == "Suggestion already processed" {
			kind = KindConflict
		}
		return &RequestError{Kind: kind, Op: op, StatusCode: resp.StatusCode, Message: apiErr.Detail}
	}
	return &RequestError{Kind: kind, Op: op, StatusCode: resp.StatusCode,
		Message: http.StatusText(resp.StatusCode)}
}
