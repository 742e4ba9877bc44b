// Package client provides an HTTP client for the BrandLens server.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/brandlens/brandlens/internal/metrics"
	"github.com/brandlens/brandlens/internal/queue"
)

// Client is a REST client for the BrandLens server.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a new client.
// If baseURL is empty, uses BRANDLENS_SERVER_URL env var or defaults to localhost:8484.
// Timeout can be configured via BRANDLENS_CLIENT_TIMEOUT env var (default 2m).
func New(baseURL string) *Client {
	if baseURL == "" {
		baseURL = os.Getenv("BRANDLENS_SERVER_URL")
	}
	if baseURL == "" {
		baseURL = "http://localhost:8484"
	}
	baseURL = strings.TrimSuffix(baseURL, "/")

	timeout := 2 * time.Minute
	if t := os.Getenv("BRANDLENS_CLIENT_TIMEOUT"); t != "" {
		if d, err := time.ParseDuration(t); err == nil {
			timeout = d
		}
	}

	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// errorResponse is the error payload returned by the server.
type errorResponse struct {
	Error string `json:"error"`
}

// do sends a JSON request and decodes the response into result.
func (c *Client) do(ctx context.Context, method, path string, body any, result any) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		var errResp errorResponse
		if json.Unmarshal(data, &errResp) == nil && errResp.Error != "" {
			return fmt.Errorf("server error: %s", errResp.Error)
		}
		return fmt.Errorf("server error: %s - %s", resp.Status, string(data))
	}

	if result != nil && len(data) > 0 {
		if err := json.Unmarshal(data, result); err != nil {
			return fmt.Errorf("unmarshal response: %w", err)
		}
	}

	return nil
}

// =============================================================================
// JOB OPERATIONS
// =============================================================================

// CreateAnalysis submits a website for analysis and returns the created job.
func (c *Client) CreateAnalysis(ctx context.Context, websiteURL, userID, brandID string) (*queue.Job, error) {
	body := map[string]string{
		"websiteUrl": websiteURL,
		"userId":     userID,
	}
	if brandID != "" {
		body["brandId"] = brandID
	}

	var job queue.Job
	if err := c.do(ctx, http.MethodPost, "/api/analyze", body, &job); err != nil {
		return nil, err
	}
	return &job, nil
}

// GetJob retrieves a job by ID.
func (c *Client) GetJob(ctx context.Context, id string) (*queue.Job, error) {
	var job queue.Job
	if err := c.do(ctx, http.MethodGet, "/api/jobs/"+url.PathEscape(id), nil, &job); err != nil {
		return nil, err
	}
	return &job, nil
}

// ListJobs returns all jobs for a user, newest first.
func (c *Client) ListJobs(ctx context.Context, userID string) ([]queue.Job, error) {
	var result struct {
		Jobs []queue.Job `json:"jobs"`
	}
	path := "/api/jobs?userId=" + url.QueryEscape(userID)
	if err := c.do(ctx, http.MethodGet, path, nil, &result); err != nil {
		return nil, err
	}
	return result.Jobs, nil
}

// =============================================================================
// REVIEW OPERATIONS
// =============================================================================

// JobReviewsResult wraps the reviews for a job.
type JobReviewsResult struct {
	JobID         string                   `json:"jobId"`
	Reviews       []queue.ExtractionReview `json:"reviews"`
	HasAnyPending bool                     `json:"hasAnyPending"`
}

// JobReviews returns all reviews belonging to a job.
func (c *Client) JobReviews(ctx context.Context, jobID string) (*JobReviewsResult, error) {
	var result JobReviewsResult
	path := "/api/jobs/" + url.PathEscape(jobID) + "/reviews"
	if err := c.do(ctx, http.MethodGet, path, nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// PendingReviews returns all reviews awaiting a decision.
func (c *Client) PendingReviews(ctx context.Context) ([]queue.ExtractionReview, error) {
	var result struct {
		Reviews []queue.ExtractionReview `json:"reviews"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/reviews/pending", nil, &result); err != nil {
		return nil, err
	}
	return result.Reviews, nil
}

// GetReview retrieves a review by ID.
func (c *Client) GetReview(ctx context.Context, id string) (*queue.ExtractionReview, error) {
	var review queue.ExtractionReview
	if err := c.do(ctx, http.MethodGet, "/api/reviews/"+url.PathEscape(id), nil, &review); err != nil {
		return nil, err
	}
	return &review, nil
}

// ApproveReview submits per-field decisions for a review.
func (c *Client) ApproveReview(ctx context.Context, id string, req queue.ApproveReviewRequest) (*queue.ExtractionReview, error) {
	var review queue.ExtractionReview
	path := "/api/reviews/" + url.PathEscape(id) + "/approve"
	if err := c.do(ctx, http.MethodPost, path, req, &review); err != nil {
		return nil, err
	}
	return &review, nil
}

// RejectReview rejects a review outright.
func (c *Client) RejectReview(ctx context.Context, id, reason string) (*queue.ExtractionReview, error) {
	var body any
	if reason != "" {
		body = map[string]string{"reason": reason}
	}

	var review queue.ExtractionReview
	path := "/api/reviews/" + url.PathEscape(id) + "/reject"
	if err := c.do(ctx, http.MethodPost, path, body, &review); err != nil {
		return nil, err
	}
	return &review, nil
}

// =============================================================================
// STATS OPERATIONS
// =============================================================================

// QueueStatsResult combines job and review queue counters.
type QueueStatsResult struct {
	Jobs    queue.JobStats    `json:"jobs"`
	Reviews queue.ReviewStats `json:"reviews"`
}

// QueueStats returns current queue depth counters.
func (c *Client) QueueStats(ctx context.Context) (*QueueStatsResult, error) {
	var result QueueStatsResult
	if err := c.do(ctx, http.MethodGet, "/api/queue/stats", nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Metrics returns in-memory pipeline timing statistics (resets on server restart).
func (c *Client) Metrics(ctx context.Context) (*metrics.Snapshot, error) {
	var snap metrics.Snapshot
	if err := c.do(ctx, http.MethodGet, "/api/metrics", nil, &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

// =============================================================================
// STREAMING OPERATIONS
// =============================================================================

// JobUpdate is a progress event pushed over the websocket.
type JobUpdate struct {
	Type        string `json:"type"`
	JobID       string `json:"jobId"`
	Status      string `json:"status"`
	Progress    int    `json:"progress"`
	CurrentStep string `json:"currentStep"`
	Error       string `json:"error,omitempty"`
}

// WatchJob streams progress updates for a job until it reaches a terminal
// status. The onUpdate callback is invoked for each update. Return an error
// from onUpdate to abort.
func (c *Client) WatchJob(ctx context.Context, jobID string, onUpdate func(JobUpdate) error) error {
	wsURL := c.baseURL
	wsURL = strings.Replace(wsURL, "http://", "ws://", 1)
	wsURL = strings.Replace(wsURL, "https://", "wss://", 1)
	wsURL += "/ws"

	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
	}

	conn, _, err := dialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return fmt.Errorf("websocket connect: %w", err)
	}
	defer conn.Close()

	var mu sync.Mutex
	closed := false
	closeConn := func() {
		mu.Lock()
		defer mu.Unlock()
		if !closed {
			closed = true
			conn.Close()
		}
	}
	defer closeConn()

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			closeConn()
		case <-done:
		}
	}()

	for {
		var update JobUpdate
		if err := conn.ReadJSON(&update); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("read update: %w", err)
		}

		// The hub broadcasts every job; filter for ours.
		if update.Type != "job_update" || update.JobID != jobID {
			continue
		}

		if err := onUpdate(update); err != nil {
			return err
		}

		if update.Status == string(queue.JobStatusCompleted) || update.Status == string(queue.JobStatusFailed) {
			return nil
		}
	}
}
