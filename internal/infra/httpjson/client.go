// Package httpjson provides the GET-and-decode plumbing shared by the REST
// API clients.
package httpjson

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/cockroachdb/errors"
	"golang.org/x/time/rate"
)

// ErrorDecoder inspects a response and returns the API error it carries, or
// nil when the body should be decoded as a result.
type ErrorDecoder func(status int, body []byte) error

// Client performs JSON GET requests against one API.
type Client struct {
	BaseURL     string        // Endpoint prefix; paths are appended as-is
	HTTP        *http.Client  // Defaults to http.DefaultClient
	Limiter     *rate.Limiter // Optional request pacing
	Params      url.Values    // Sent with every request
	DecodeError ErrorDecoder  // Defaults to StatusError
}

// StatusError treats any non-2xx status as an error.
func StatusError(status int, body []byte) error {
	if status < 200 || status >= 300 {
		return errors.Newf("unexpected status %d", status)
	}
	return nil
}

// Get requests path with params and decodes the JSON body into out.
func (c *Client) Get(ctx context.Context, path string, params url.Values, out any) error {
	if c.Limiter != nil {
		if err := c.Limiter.Wait(ctx); err != nil {
			return errors.Wrap(err, "rate limiter wait failed")
		}
	}

	q := url.Values{}
	for k, v := range c.Params {
		q[k] = v
	}
	for k, v := range params {
		q[k] = v
	}
	reqURL := strings.TrimRight(c.BaseURL, "/") + path
	if len(q) > 0 {
		reqURL += "?" + q.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return errors.Wrap(err, "failed to create request")
	}

	httpClient := c.HTTP
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return errors.Wrap(err, "failed to send request")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.Wrap(err, "failed to read response body")
	}

	decodeError := c.DecodeError
	if decodeError == nil {
		decodeError = StatusError
	}
	if err := decodeError(resp.StatusCode, body); err != nil {
		return err
	}

	if err := json.Unmarshal(body, out); err != nil {
		return errors.Wrap(err, "failed to parse response")
	}
	return nil
}
