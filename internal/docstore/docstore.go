// Package docstore is a client for the realtime document store holding
// coaches and contact requests.
package docstore

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

	"github.com/ashureev/coach-finder/internal/domain"
)

// StatusError is returned when the store answers with a non-success status.
type StatusError struct {
	Status  int
	Message string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("document store returned %d: %s", e.Status, e.Message)
}

// Client talks to the document store over its REST interface.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a client. A nil httpClient uses a client with a 15s
// timeout.
func NewClient(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
	}
}

// ListCoaches reads the whole coach collection.
func (c *Client) ListCoaches(ctx context.Context) ([]domain.Coach, error) {
	data, err := c.do(ctx, http.MethodGet, c.url("coaches", ""), nil)
	if err != nil {
		return nil, err
	}
	return DecodeKeyed(data, func(coach *domain.Coach, key string) {
		coach.ID = key
		if coach.Areas == nil {
			coach.Areas = []domain.Area{}
		}
	})
}

// PutCoach writes the coach record under id. An empty token sends the
// request unauthenticated.
func (c *Client) PutCoach(ctx context.Context, id, token string, fields domain.CoachFields) error {
	_, err := c.do(ctx, http.MethodPut, c.url("coaches/"+url.PathEscape(id), token), fields)
	return err
}

// ListRequests reads every request stored under ownerID.
func (c *Client) ListRequests(ctx context.Context, ownerID, token string) ([]domain.ContactRequest, error) {
	data, err := c.do(ctx, http.MethodGet, c.url("requests/"+url.PathEscape(ownerID), token), nil)
	if err != nil {
		return nil, err
	}
	return DecodeKeyed(data, func(r *domain.ContactRequest, key string) {
		r.ID = key
		r.CoachID = ownerID
	})
}

// PostRequest appends a request under coachID and returns the generated key.
func (c *Client) PostRequest(ctx context.Context, coachID string, fields domain.RequestFields) (string, error) {
	data, err := c.do(ctx, http.MethodPost, c.url("requests/"+url.PathEscape(coachID), ""), fields)
	if err != nil {
		return "", err
	}
	var out struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return "", fmt.Errorf("decode post response: %w", err)
	}
	if out.Name == "" {
		return "", fmt.Errorf("decode post response: missing name")
	}
	return out.Name, nil
}

func (c *Client) url(path, token string) string {
	u := c.baseURL + "/" + path + ".json"
	if token != "" {
		u += "?auth=" + url.QueryEscape(token)
	}
	return u
}

func (c *Client) do(ctx context.Context, method, endpoint string, payload any) ([]byte, error) {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send %s request: %w", method, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{Status: resp.StatusCode, Message: errorMessage(data, resp.Status)}
	}
	return data, nil
}

// errorMessage extracts the message from either {"error":"..."} or
// {"error":{"message":"..."}}.
func errorMessage(data []byte, fallback string) string {
	var envelope struct {
		Error json.RawMessage `json:"error"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil || len(envelope.Error) == 0 {
		return fallback
	}

	var s string
	if err := json.Unmarshal(envelope.Error, &s); err == nil && s != "" {
		return s
	}
	var nested struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(envelope.Error, &nested); err == nil && nested.Message != "" {
		return nested.Message
	}
	return fallback
}
