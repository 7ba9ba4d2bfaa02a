package httpx

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/docketwatch/docketwatch/models"
)

// Client is a bounded, retrying HTTP client. Transient failures (network
// errors, rate limits, server errors) are retried with exponential
// backoff; everything else returns immediately.
type Client struct {
	client  *http.Client
	retries int
	backoff time.Duration
}

func NewClient(timeout time.Duration, retries int, backoff time.Duration) *Client {
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	if retries < 0 {
		retries = 0
	}
	if backoff == 0 {
		backoff = 300 * time.Millisecond
	}
	return &Client{client: &http.Client{Timeout: timeout}, retries: retries, backoff: backoff}
}

// DoJSON performs a request with an optional JSON body and decodes a JSON
// response into out. Errors wrap models.ErrTransient or models.ErrNotFound
// so callers can classify without parsing messages.
func (c *Client) DoJSON(ctx context.Context, method, url string, headers map[string]string, body any, out any) error {
	var payload []byte
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		payload = b
	}

	var lastErr error
	tries := c.retries + 1
	for attempt := 0; attempt < tries; attempt++ {
		var bodyReader io.Reader
		if payload != nil {
			bodyReader = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
		if err != nil {
			return err
		}
		for k, v := range headers {
			req.Header.Set(k, v)
		}
		if payload != nil && req.Header.Get("Content-Type") == "" {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.client.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("%s %s: %v: %w", method, url, err, models.ErrTransient)
		} else {
			func() {
				defer resp.Body.Close()
				if resp.StatusCode >= 200 && resp.StatusCode < 300 {
					if out == nil {
						lastErr = nil
						return
					}
					dec := json.NewDecoder(resp.Body)
					lastErr = dec.Decode(out)
					return
				}
				b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
				lastErr = statusError(method, url, resp.StatusCode, string(b))
			}()
			if lastErr == nil {
				return nil
			}
			if !errors.Is(lastErr, models.ErrTransient) {
				return lastErr
			}
		}

		if attempt < tries-1 {
			select {
			case <-time.After(c.backoff * time.Duration(1<<attempt)):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
	return lastErr
}

// GetBytes fetches a raw binary, capped at maxBytes.
func (c *Client) GetBytes(ctx context.Context, url string, headers map[string]string, maxBytes int64) ([]byte, error) {
	var lastErr error
	tries := c.retries + 1
	for attempt := 0; attempt < tries; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, err
		}
		for k, v := range headers {
			req.Header.Set(k, v)
		}

		resp, err := c.client.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("GET %s: %v: %w", url, err, models.ErrTransient)
		} else {
			var data []byte
			func() {
				defer resp.Body.Close()
				if resp.StatusCode >= 200 && resp.StatusCode < 300 {
					reader := io.Reader(resp.Body)
					if maxBytes > 0 {
						reader = io.LimitReader(resp.Body, maxBytes)
					}
					data, lastErr = io.ReadAll(reader)
					return
				}
				lastErr = statusError(http.MethodGet, url, resp.StatusCode, "")
			}()
			if lastErr == nil {
				return data, nil
			}
			if !errors.Is(lastErr, models.ErrTransient) {
				return nil, lastErr
			}
		}

		if attempt < tries-1 {
			select {
			case <-time.After(c.backoff * time.Duration(1<<attempt)):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
	}
	return nil, lastErr
}

func statusError(method, url string, code int, body string) error {
	switch {
	case code == http.StatusNotFound, code == http.StatusUnauthorized, code == http.StatusForbidden:
		return fmt.Errorf("%s %s: status %d: %w", method, url, code, models.ErrNotFound)
	case code == http.StatusTooManyRequests, code >= 500:
		return fmt.Errorf("%s %s: status %d: %w", method, url, code, models.ErrTransient)
	}
	return fmt.Errorf("%s %s: status %d: %s", method, url, code, body)
}
