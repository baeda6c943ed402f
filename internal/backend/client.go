// Package backend is the HTTP client for the upstream ATS, the system
// of record for applications. The pipeline engine never writes
// durable state itself; every mutation is confirmed (or rejected) by
// this API before the engine commits it locally.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"talentboard/internal/model"
	"talentboard/internal/stage"
)

// API is the subset of the upstream ATS the pipeline engine depends
// on. Batch actions are dispatched as independent single-item calls
// so partial failure stays isolated per application.
type API interface {
	FetchApplications(ctx context.Context, jobID string) ([]model.Application, error)
	UpdateApplicationStatus(ctx context.Context, applicationID string, newStage stage.Stage) (*model.Application, error)
	TagApplication(ctx context.Context, applicationID string, tags []string) error
	DeleteApplication(ctx context.Context, applicationID string) error
	SendEmail(ctx context.Context, applicationID, subject, body string) error
	Ping(ctx context.Context) error
}

// FetchError wraps a failed application-list load. The store keeps
// its previous contents when it sees one of these.
type FetchError struct {
	JobID string
	Err   error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch applications for job %s: %v", e.JobID, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// StatusError reports a non-2xx response from the upstream API.
type StatusError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("upstream returned %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("upstream returned %d", e.StatusCode)
}

// Client talks to the upstream ATS over JSON/HTTP.
type Client struct {
	baseURL string
	token   string
	client  *http.Client
}

// NewClient constructs a Client. The timeout bounds every request so
// no optimistic operation can stay pending indefinitely; a timed-out
// call surfaces as an ordinary error and takes the revert path.
func NewClient(baseURL, token string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		client:  &http.Client{Timeout: timeout},
	}
}

// envelope is the upstream response wrapper shared by all endpoints.
type envelope struct {
	Success      bool                `json:"success"`
	Code         string              `json:"code,omitempty"`
	Error        string              `json:"error,omitempty"`
	Application  *model.Application  `json:"application,omitempty"`
	Applications []model.Application `json:"applications,omitempty"`
}

func (c *Client) do(ctx context.Context, method, path string, body any, out *envelope) error {
	var rdr io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return err
		}
		rdr = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rdr)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	var env envelope
	if len(raw) > 0 {
		// Decode errors on error responses are tolerated; the status
		// code alone is enough to classify the failure.
		_ = json.Unmarshal(raw, &env)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &StatusError{StatusCode: resp.StatusCode, Code: env.Code, Message: env.Error}
	}
	if out != nil {
		*out = env
	}
	return nil
}

func (c *Client) FetchApplications(ctx context.Context, jobID string) ([]model.Application, error) {
	var env envelope
	path := "/v1/jobs/" + url.PathEscape(jobID) + "/applications"
	if err := c.do(ctx, http.MethodGet, path, nil, &env); err != nil {
		return nil, &FetchError{JobID: jobID, Err: err}
	}
	return env.Applications, nil
}

func (c *Client) UpdateApplicationStatus(ctx context.Context, applicationID string, newStage stage.Stage) (*model.Application, error) {
	var env envelope
	path := "/v1/applications/" + url.PathEscape(applicationID) + "/status"
	body := map[string]string{"status": string(newStage)}
	if err := c.do(ctx, http.MethodPatch, path, body, &env); err != nil {
		return nil, err
	}
	return env.Application, nil
}

func (c *Client) TagApplication(ctx context.Context, applicationID string, tags []string) error {
	path := "/v1/applications/" + url.PathEscape(applicationID) + "/tags"
	return c.do(ctx, http.MethodPost, path, map[string][]string{"tags": tags}, nil)
}

func (c *Client) DeleteApplication(ctx context.Context, applicationID string) error {
	path := "/v1/applications/" + url.PathEscape(applicationID)
	return c.do(ctx, http.MethodDelete, path, nil, nil)
}

func (c *Client) SendEmail(ctx context.Context, applicationID, subject, body string) error {
	path := "/v1/applications/" + url.PathEscape(applicationID) + "/email"
	payload := map[string]string{"subject": subject, "body": body}
	return c.do(ctx, http.MethodPost, path, payload, nil)
}

// Ping checks upstream reachability for deep health checks.
func (c *Client) Ping(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/healthz", nil, nil)
}
