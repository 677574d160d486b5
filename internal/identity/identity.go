// Package identity is a client for the password-based identity provider.
package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// DefaultBaseURL is the public identity toolkit endpoint.
const DefaultBaseURL = "https://identitytoolkit.googleapis.com/v1"

// Mode selects the provider operation.
type Mode string

const (
	ModeSignUp Mode = "signUp"
	ModeSignIn Mode = "signInWithPassword"
)

// Credentials are returned by a successful authentication.
type Credentials struct {
	IDToken   string
	LocalID   string
	ExpiresIn time.Duration
}

// ProviderError is returned when the provider answers with a non-success
// status.
type ProviderError struct {
	Status  int
	Message string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("identity provider rejected request (%d): %s", e.Status, e.Message)
}

var errMalformedResponse = errors.New("malformed identity response")

// Client talks to the identity provider over HTTP.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

// NewClient creates a client. A nil httpClient uses a client with a 15s
// timeout; an empty baseURL uses DefaultBaseURL.
func NewClient(baseURL, apiKey string, httpClient *http.Client) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		http:    httpClient,
	}
}

type authRequest struct {
	Email             string `json:"email"`
	Password          string `json:"password"`
	ReturnSecureToken bool   `json:"returnSecureToken"`
}

type authResponse struct {
	IDToken   string `json:"idToken"`
	LocalID   string `json:"localId"`
	ExpiresIn string `json:"expiresIn"`
}

type errorResponse struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Authenticate signs up or signs in with email and password.
func (c *Client) Authenticate(ctx context.Context, mode Mode, email, password string) (*Credentials, error) {
	body, err := json.Marshal(authRequest{Email: email, Password: password, ReturnSecureToken: true})
	if err != nil {
		return nil, fmt.Errorf("encode auth request: %w", err)
	}

	endpoint := c.baseURL + "/accounts:" + string(mode) + "?key=" + url.QueryEscape(c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build auth request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send auth request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var e errorResponse
		msg := ""
		if err := json.NewDecoder(resp.Body).Decode(&e); err == nil {
			msg = e.Error.Message
		}
		if msg == "" {
			msg = "Failed to authenticate. Check your login data."
		}
		return nil, &ProviderError{Status: resp.StatusCode, Message: msg}
	}

	var out authResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode auth response: %w", err)
	}
	if out.IDToken == "" || out.LocalID == "" {
		return nil, fmt.Errorf("%w: missing idToken or localId", errMalformedResponse)
	}

	seconds, err := strconv.ParseInt(strings.TrimSpace(out.ExpiresIn), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: expiresIn %q", errMalformedResponse, out.ExpiresIn)
	}

	return &Credentials{
		IDToken:   out.IDToken,
		LocalID:   out.LocalID,
		ExpiresIn: time.Duration(seconds) * time.Second,
	}, nil
}
