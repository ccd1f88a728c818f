// Package client is a read only client of the prover API, used by light
// clients to fetch the verifying keys and the latest export.
package client

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/vocdoni/albatross-zkp/api"
	"github.com/vocdoni/albatross-zkp/log"
)

const (
	// DefaultRetries is the number of attempts of a request whose
	// connection fails.
	DefaultRetries = 3
	// DefaultTimeout is the default timeout for the HTTP client
	DefaultTimeout = 10 * time.Second

	retryInterval = 500 * time.Millisecond
)

// Error is an error response of the API.
type Error struct {
	HTTPStatus int    `json:"-"`
	Code       int    `json:"code"`
	Message    string `json:"error"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("API error %d (http %d): %s", e.Code, e.HTTPStatus, e.Message)
}

// HTTPclient is the prover API HTTP client.
type HTTPclient struct {
	c         *http.Client
	host      *url.URL
	retries   uint64
	retryWait time.Duration
}

// New connects to the API host and returns the handle
func New(host string) (*HTTPclient, error) {
	hostURL, err := url.Parse(host)
	if err != nil {
		return nil, err
	}
	tr := &http.Transport{
		IdleConnTimeout: DefaultTimeout,
		ReadBufferSize:  1 * 1024 * 1024, // 1 MiB
	}
	c := &HTTPclient{
		c:         &http.Client{Transport: tr, Timeout: DefaultTimeout},
		host:      hostURL,
		retries:   DefaultRetries,
		retryWait: retryInterval,
	}
	log.Debugw("http client created", "host", hostURL.String())
	if _, err := c.get(api.PingEndpoint); err != nil {
		return nil, err
	}
	return c, nil
}

// get performs a GET request to the path and returns the response body.
// Requests whose connection fails are retried; a response with a status
// other than 200 is returned as an *Error.
func (c *HTTPclient) get(urlPath ...string) ([]byte, error) {
	u := *c.host
	u.Path = path.Join(u.Path, path.Join(urlPath...))
	log.Debugw("http client request", "url", u.String())

	var resp *http.Response
	op := func() error {
		var err error
		resp, err = c.c.Get(u.String())
		if err != nil {
			log.Warnw("http request failed", "url", u.String(), "error", err.Error())
		}
		return err
	}
	policy := backoff.WithMaxRetries(backoff.NewConstantBackOff(c.retryWait), c.retries-1)
	if err := backoff.Retry(op, policy); err != nil {
		return nil, fmt.Errorf("http request failed after %d attempts: %w", c.retries, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		apiErr := &Error{HTTPStatus: resp.StatusCode}
		if err := json.Unmarshal(data, apiErr); err != nil {
			apiErr.Message = string(data)
		}
		return nil, apiErr
	}
	return data, nil
}
