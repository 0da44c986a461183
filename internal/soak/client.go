package soak

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/bytedance/sonic"

	service "github.com/okian/playmedia/internal/app"
	"github.com/okian/playmedia/internal/adapters/repository"
	"github.com/okian/playmedia/internal/domain/model"
	"github.com/okian/playmedia/internal/domain/types"
)

// ErrAPI marks a non-2xx answer from the picker API.
var ErrAPI = errors.New("picker api error")

// APIError carries the error body returned by the picker API.
type APIError struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%d %s: %s", e.Status, e.Code, e.Message)
}

func (e *APIError) Unwrap() error { return ErrAPI }

// Client talks to a running picker service.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a client for baseURL with a per-request timeout.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
	}
}

// Health checks GET /healthz.
func (c *Client) Health(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/healthz", nil, nil)
}

// Open creates a picker session and returns its id.
func (c *Client) Open(ctx context.Context, req service.OpenRequest) (string, error) {
	var out struct {
		ID string `json:"id"`
	}
	if err := c.do(ctx, http.MethodPost, "/sessions", req, &out); err != nil {
		return "", err
	}
	return out.ID, nil
}

// View fetches one page of a session.
func (c *Client) View(ctx context.Context, id string, page types.Page) (types.SessionView, error) {
	q := url.Values{}
	q.Set("offset", strconv.Itoa(page.Offset))
	if page.Limit > 0 {
		q.Set("limit", strconv.Itoa(page.Limit))
	}
	var view types.SessionView
	err := c.do(ctx, http.MethodGet, "/sessions/"+url.PathEscape(id)+"?"+q.Encode(), nil, &view)
	return view, err
}

// SetFacets applies facet values and returns the new view.
func (c *Client) SetFacets(ctx context.Context, id string, values map[string]string) (types.SessionView, error) {
	var view types.SessionView
	err := c.do(ctx, http.MethodPut, "/sessions/"+url.PathEscape(id)+"/facets", values, &view)
	return view, err
}

// ResetFacets clears every facet and returns the new view.
func (c *Client) ResetFacets(ctx context.Context, id string) (types.SessionView, error) {
	var view types.SessionView
	err := c.do(ctx, http.MethodDelete, "/sessions/"+url.PathEscape(id)+"/facets", nil, &view)
	return view, err
}

// Toggle flips one candidate.
func (c *Client) Toggle(ctx context.Context, id, entityID string) (types.ToggleResult, error) {
	var res types.ToggleResult
	body := map[string]string{"id": entityID}
	err := c.do(ctx, http.MethodPost, "/sessions/"+url.PathEscape(id)+"/toggle", body, &res)
	return res, err
}

// Commit commits the session.
func (c *Client) Commit(ctx context.Context, id string) (types.CommitResult, error) {
	var res types.CommitResult
	err := c.do(ctx, http.MethodPost, "/sessions/"+url.PathEscape(id)+"/commit", nil, &res)
	return res, err
}

// Cancel discards the session.
func (c *Client) Cancel(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/sessions/"+url.PathEscape(id), nil, nil)
}

// Field reads a form field.
func (c *Client) Field(ctx context.Context, ref repository.FieldRef) (model.Collection, error) {
	var out model.Collection
	err := c.do(ctx, http.MethodGet, fieldPath(ref), nil, &out)
	return out, err
}

// SetField replaces a form field.
func (c *Client) SetField(ctx context.Context, ref repository.FieldRef, value model.Collection) error {
	return c.do(ctx, http.MethodPut, fieldPath(ref), value, nil)
}

func fieldPath(ref repository.FieldRef) string {
	return "/fields/" + url.PathEscape(ref.ContentType) + "/" + url.PathEscape(ref.ContentID) + "/" + url.PathEscape(ref.Key)
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := sonic.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Status: resp.StatusCode}
		_ = sonic.Unmarshal(raw, apiErr)
		return apiErr
	}
	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := sonic.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}
