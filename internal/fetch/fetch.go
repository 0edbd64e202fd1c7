// Package fetch provides the outbound HTTP client shared by the OAI-PMH,
// vocabulary and ELSST clients.
package fetch

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v3"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const (
	MediaTypeJSON = "application/json"
	MediaTypeXML  = "application/xml, text/xml, */*"
)

// ErrEmptyBody is returned when the server answers 200 with no content.
var ErrEmptyBody = errors.New("empty response body")

// StatusError is returned when the server answers with a status other than
// 200 OK.
type StatusError struct {
	URL        string
	StatusCode int
}

func (err *StatusError) Error() string {
	return fmt.Sprintf("unexpected response status %d (%s) from %s",
		err.StatusCode, http.StatusText(err.StatusCode), err.URL)
}

// Options configures a Client. Zero values fall back to the defaults below.
type Options struct {
	DialTimeout time.Duration
	Timeout     time.Duration
	UserAgent   string

	// Retries is the number of additional attempts made after a network
	// error or a server error. Zero means a single attempt.
	Retries uint64
}

const (
	defaultDialTimeout      = 10 * time.Second
	defaultTimeout          = 30 * time.Second
	defaultHandshakeTimeout = 10 * time.Second
)

// Client performs GET requests with bounded timeouts.
type Client struct {
	logger    logrus.FieldLogger
	client    *http.Client
	userAgent string
	retries   uint64
}

func New(logger logrus.FieldLogger, opts Options) *Client {
	if opts.DialTimeout <= 0 {
		opts.DialTimeout = defaultDialTimeout
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	return &Client{
		logger:    logger,
		userAgent: opts.UserAgent,
		retries:   opts.Retries,
		client: &http.Client{
			Timeout: opts.Timeout,
			Transport: &http.Transport{
				Proxy:               http.ProxyFromEnvironment,
				DialContext:         (&net.Dialer{Timeout: opts.DialTimeout}).DialContext,
				TLSHandshakeTimeout: defaultHandshakeTimeout,
			},
		},
	}
}

// Get retrieves url and returns the full response body. Any failure,
// including a timeout, a non-200 status and an empty body, is an error.
func (c *Client) Get(ctx context.Context, url, accept string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.Wrap(err, "error creating request")
	}
	req.Header.Set("Accept", accept)
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	var body []byte
	op := func() error {
		resp, err := c.client.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return backoff.Permanent(err)
			}
			return err
		}
		defer resp.Body.Close()

		switch {
		// Retry on server errors.
		case resp.StatusCode >= 500:
			return &StatusError{URL: url, StatusCode: resp.StatusCode}
		// Give up right away on anything else.
		case resp.StatusCode != http.StatusOK:
			return backoff.Permanent(&StatusError{URL: url, StatusCode: resp.StatusCode})
		}

		blob, err := io.ReadAll(resp.Body)
		if err != nil {
			return errors.Wrap(err, "error reading the response body")
		}
		if len(bytes.TrimSpace(blob)) == 0 {
			return backoff.Permanent(ErrEmptyBody)
		}
		body = blob
		return nil
	}

	// WithMaxRetries treats zero as unlimited.
	var policy backoff.BackOff = &backoff.StopBackOff{}
	if c.retries > 0 {
		policy = backoff.WithMaxRetries(&backoff.ExponentialBackOff{
			InitialInterval:     500 * time.Millisecond,
			RandomizationFactor: 0.5,
			Multiplier:          1.5,
			MaxInterval:         5 * time.Second,
			MaxElapsedTime:      time.Minute,
			Clock:               backoff.SystemClock,
		}, c.retries)
	}
	strategy := backoff.WithContext(policy, ctx)
	notify := func(err error, wait time.Duration) {
		c.logger.WithFields(logrus.Fields{"url": url, "wait": wait}).Debugf("Retrying request: %v", err)
	}
	if err := backoff.RetryNotify(op, strategy, notify); err != nil {
		return nil, err
	}

	return body, nil
}
