// Package client drives an interview against the turn service.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/spigell/interview-conductor/internal/interview"
)

const (
	contentType = "application/json"
	userAgent   = "spigell/interview-conductor"

	// Covers the server-side model call on slow turns.
	defaultTimeout = 3 * time.Minute
)

// ErrSessionNotFound is returned when deleting a session the server does not know.
var ErrSessionNotFound = errors.New("session not found")

// Client is a thin HTTP wrapper around the turn service endpoints.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
	UserAgent  string
}

func New(baseURL string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout: defaultTimeout,
		},
		UserAgent: userAgent,
	}
}

// Ask submits one turn and returns the structured reply.
func (c *Client) Ask(ctx context.Context, turn interview.TurnRequest) (*interview.TurnResponse, error) {
	payload, err := json.Marshal(turn)
	if err != nil {
		return nil, fmt.Errorf("marshal turn request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/ask", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	c.setHeaders(req)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("turn request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("turn request: %s: %s", resp.Status, decodeError(resp))
	}

	var turnResp interview.TurnResponse
	if err := json.NewDecoder(resp.Body).Decode(&turnResp); err != nil {
		return nil, fmt.Errorf("decode turn response: %w", err)
	}

	return &turnResp, nil
}

// SessionExists reports whether the server still holds the given session.
func (c *Client) SessionExists(ctx context.Context, sessionID string) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.sessionURL(sessionID), nil)
	if err != nil {
		return false, err
	}
	c.setHeaders(req)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return false, fmt.Errorf("session lookup: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("session lookup: %s", resp.Status)
	}

	var status struct {
		SessionExists bool `json:"sessionExists"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return false, fmt.Errorf("decode session status: %w", err)
	}

	return status.SessionExists, nil
}

// DeleteSession removes the session server-side.
func (c *Client) DeleteSession(ctx context.Context, sessionID string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.sessionURL(sessionID), nil)
	if err != nil {
		return err
	}
	c.setHeaders(req)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("session delete: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		return nil
	case http.StatusNotFound:
		return ErrSessionNotFound
	default:
		return fmt.Errorf("session delete: %s", resp.Status)
	}
}

func (c *Client) sessionURL(sessionID string) string {
	return fmt.Sprintf("%s/session/%s", c.BaseURL, sessionID)
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("User-Agent", c.UserAgent)
}

func decodeError(resp *http.Response) string {
	var body struct {
		Error string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil || body.Error == "" {
		return "no error details"
	}

	return body.Error
}
