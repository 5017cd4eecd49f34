package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// fallbackMessage is used when a failed response carries no body text.
const fallbackMessage = "request failed"

// RequestError is returned for any non-2xx backend response. Message is
// the response body text when non-empty, else a generic fallback.
type RequestError struct {
	Status  int
	Message string
}

func (e *RequestError) Error() string {
	return e.Message
}

// Client issues authenticated JSON requests against the backend API.
// Every request carries the Telegram init-data assertion (possibly
// empty) in the X-Telegram-Init-Data header. The client never retries
// and never caches.
type Client struct {
	serverURL  string
	base       string
	initData   string
	httpClient *http.Client
}

// New constructs a Client for the given backend origin. apiBase is
// joined to serverURL unless it is an absolute URL of its own.
func New(serverURL, apiBase, initData string) (*Client, error) {
	serverURL = strings.TrimRight(serverURL, "/")
	if serverURL == "" {
		return nil, errors.New("server URL is required")
	}
	if _, err := url.Parse(serverURL); err != nil {
		return nil, fmt.Errorf("invalid server URL: %w", err)
	}

	base := apiBase
	if !strings.Contains(apiBase, "://") {
		base = serverURL + "/" + strings.Trim(apiBase, "/")
	}

	return &Client{
		serverURL:  serverURL,
		base:       strings.TrimRight(base, "/"),
		initData:   initData,
		httpClient: &http.Client{},
	}, nil
}

// InitData returns the assertion the client was constructed with.
func (c *Client) InitData() string {
	return c.initData
}

// ServerURL returns the backend origin without the API base path.
func (c *Client) ServerURL() string {
	return c.serverURL
}

// Do issues one request. body is JSON-encoded when non-nil; the
// response body is decoded into out when non-nil.
func (c *Client) Do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Telegram-Init-Data", c.initData)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		text, _ := io.ReadAll(resp.Body)
		message := strings.TrimSpace(string(text))
		if message == "" {
			message = fallbackMessage
		}
		return &RequestError{Status: resp.StatusCode, Message: message}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
