package indexnow

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

const DefaultEndpoint = "https://api.indexnow.org/indexnow"

// ErrRateLimited is returned for HTTP 429.
var ErrRateLimited = errors.New("indexnow rate limited")

// StatusError is a non-success response.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("indexnow: HTTP %d: %s", e.Code, e.Body)
}

// Retryable reports whether resubmitting the same URL can succeed.
func (e *StatusError) Retryable() bool {
	switch e.Code {
	case http.StatusBadRequest, http.StatusForbidden, http.StatusUnprocessableEntity:
		return false
	}
	return true
}

// Submitter sends one URL.
type Submitter interface {
	Submit(ctx context.Context, url string) error
}

// Client posts URL lists to an IndexNow endpoint.
type Client struct {
	endpoint    string
	host        string
	key         string
	keyLocation string
	http        *http.Client
}

var _ Submitter = (*Client)(nil)

func NewClient(endpoint, host, key, keyLocation string) *Client {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	return &Client{
		endpoint:    endpoint,
		host:        host,
		key:         key,
		keyLocation: keyLocation,
		http:        &http.Client{Timeout: 30 * time.Second},
	}
}

type submitRequest struct {
	Host        string   `json:"host"`
	Key         string   `json:"key"`
	KeyLocation string   `json:"keyLocation,omitempty"`
	URLList     []string `json:"urlList"`
}

func (c *Client) Submit(ctx context.Context, url string) error {
	body, err := json.Marshal(submitRequest{Host: c.host, Key: c.key, KeyLocation: c.keyLocation, URLList: []string{url}})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build indexnow request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json; charset=utf-8")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("indexnow request: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusAccepted:
		return nil
	case resp.StatusCode == http.StatusTooManyRequests:
		return fmt.Errorf("%w: %s", ErrRateLimited, url)
	}
	msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	return &StatusError{Code: resp.StatusCode, Body: string(msg)}
}
