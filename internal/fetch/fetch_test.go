package fetch_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/JiscSD/cessda-fair-checker/internal/fetch"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGet(t *testing.T) {
	t.Parallel()
	tests := map[string]struct {
		// To provision the test.
		respStatus  int
		respPayload string
		retries     uint64

		// To evaluate the results.
		wantedBody     string
		wantedStatus   int
		wantedEmpty    bool
		wantedRequests int32
	}{
		"Body is returned on 200": {
			respStatus:     http.StatusOK,
			respPayload:    "<OAI-PMH/>",
			wantedBody:     "<OAI-PMH/>",
			wantedRequests: 1,
		},
		"Not found is reported": {
			respStatus:     http.StatusNotFound,
			wantedStatus:   http.StatusNotFound,
			wantedRequests: 1,
		},
		"Client errors are not retried": {
			respStatus:     http.StatusBadRequest,
			retries:        3,
			wantedStatus:   http.StatusBadRequest,
			wantedRequests: 1,
		},
		"Server errors are attempted once by default": {
			respStatus:     http.StatusServiceUnavailable,
			wantedStatus:   http.StatusServiceUnavailable,
			wantedRequests: 1,
		},
		"Server errors are retried when configured": {
			respStatus:     http.StatusBadGateway,
			retries:        2,
			wantedStatus:   http.StatusBadGateway,
			wantedRequests: 3,
		},
		"Empty body is an error": {
			respStatus:     http.StatusOK,
			wantedEmpty:    true,
			wantedRequests: 1,
		},
		"Blank body is an error": {
			respStatus:     http.StatusOK,
			respPayload:    " \n\t ",
			wantedEmpty:    true,
			wantedRequests: 1,
		},
	}
	for name, tc := range tests {
		tc := tc
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			var requests int32
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				atomic.AddInt32(&requests, 1)
				assert.Equal(t, http.MethodGet, r.Method)
				assert.Equal(t, fetch.MediaTypeXML, r.Header.Get("Accept"))
				assert.Equal(t, "test", r.Header.Get("User-Agent"))
				w.WriteHeader(tc.respStatus)
				w.Write([]byte(tc.respPayload))
			}))
			defer ts.Close()

			c := fetch.New(logrus.New(), fetch.Options{UserAgent: "test", Retries: tc.retries})
			body, err := c.Get(context.Background(), ts.URL, fetch.MediaTypeXML)

			assert.Equal(t, tc.wantedRequests, atomic.LoadInt32(&requests))
			switch {
			case tc.wantedStatus != 0:
				require.Error(t, err)
				serr, ok := err.(*fetch.StatusError)
				require.True(t, ok, "unexpected error type %T", err)
				assert.Equal(t, tc.wantedStatus, serr.StatusCode)
				assert.Equal(t, ts.URL, serr.URL)
				assert.Nil(t, body)
			case tc.wantedEmpty:
				assert.Equal(t, fetch.ErrEmptyBody, err)
				assert.Nil(t, body)
			default:
				require.NoError(t, err)
				assert.Equal(t, tc.wantedBody, string(body))
			}
		})
	}
}

func TestGet_Timeout(t *testing.T) {
	t.Parallel()

	done := make(chan struct{})
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-done:
		case <-time.After(5 * time.Second):
		}
	}))
	defer ts.Close()
	defer close(done)

	c := fetch.New(logrus.New(), fetch.Options{Timeout: 50 * time.Millisecond})
	_, err := c.Get(context.Background(), ts.URL, fetch.MediaTypeJSON)

	assert.Error(t, err)
}

func TestGet_Canceled(t *testing.T) {
	t.Parallel()

	var requests int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&requests, 1)
	}))
	defer ts.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := fetch.New(logrus.New(), fetch.Options{Retries: 3})
	_, err := c.Get(ctx, ts.URL, fetch.MediaTypeJSON)

	require.Error(t, err)
	assert.Contains(t, err.Error(), context.Canceled.Error())
	assert.Equal(t, int32(0), atomic.LoadInt32(&requests))
}

func TestGet_SingleAttemptByDefault(t *testing.T) {
	t.Parallel()

	var requests int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&requests, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer ts.Close()

	c := fetch.New(logrus.New(), fetch.Options{})
	start := time.Now()
	_, err := c.Get(context.Background(), ts.URL, fetch.MediaTypeJSON)

	require.Error(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&requests))
	assert.True(t, time.Since(start) < 400*time.Millisecond, "request was retried")
}

func TestGet_NetworkErrorSingleAttempt(t *testing.T) {
	t.Parallel()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	addr := ts.URL
	ts.Close()

	c := fetch.New(logrus.New(), fetch.Options{})
	start := time.Now()
	_, err := c.Get(context.Background(), addr, fetch.MediaTypeJSON)

	assert.Error(t, err)
	assert.True(t, time.Since(start) < 400*time.Millisecond, "request was retried")
}

func TestGet_InvalidURL(t *testing.T) {
	c := fetch.New(logrus.New(), fetch.Options{})

	_, err := c.Get(context.Background(), "http://[::1", fetch.MediaTypeJSON)

	assert.Error(t, err)
}

func TestStatusError(t *testing.T) {
	err := &fetch.StatusError{URL: "http://example.com", StatusCode: 404}

	assert.EqualError(t, err, "unexpected response status 404 (Not Found) from http://example.com")
}
