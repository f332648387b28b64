package http_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fwojciec/docdex"
	dochttp "github.com/fwojciec/docdex/http"
	"github.com/fwojciec/docdex/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetcher_Fetch(t *testing.T) {
	t.Parallel()

	var gotUA, gotAccept string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		gotAccept = r.Header.Get("Accept")
		w.Header().Set("Content-Type", "application/pdf")
		w.Header().Set("ETag", `"v1"`)
		w.Header().Set("Last-Modified", "Mon, 02 Jan 2006 15:04:05 GMT")
		w.Write([]byte("%PDF-1.4 data"))
	}))
	defer srv.Close()

	f := dochttp.NewFetcher("docdex-test/1.0")
	resp, err := f.Fetch(context.Background(), docdex.FetchRequest{URL: srv.URL + "/files/a.pdf"})
	require.NoError(t, err)

	assert.Equal(t, "docdex-test/1.0", gotUA)
	assert.Contains(t, gotAccept, "application/pdf")
	assert.Equal(t, []byte("%PDF-1.4 data"), resp.Body)
	assert.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, "application/pdf", resp.ContentType)
	assert.Equal(t, `"v1"`, resp.ETag)
	assert.Equal(t, "Mon, 02 Jan 2006 15:04:05 GMT", resp.LastModified)
	assert.Equal(t, srv.URL+"/files/a.pdf", resp.FinalURL)
}

func TestFetcher_Fetch_RetriesTransientStatus(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	f := dochttp.NewFetcher("docdex-test/1.0", dochttp.WithRetryDelays([]time.Duration{0}))
	resp, err := f.Fetch(context.Background(), docdex.FetchRequest{URL: srv.URL})
	require.NoError(t, err)
	assert.Equal(t, []byte("ok"), resp.Body)
	assert.Equal(t, int32(2), hits.Load())
}

func TestFetcher_Fetch_PermanentStatusDoesNotRetry(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		http.NotFound(w, r)
	}))
	defer srv.Close()

	f := dochttp.NewFetcher("docdex-test/1.0", dochttp.WithRetryDelays([]time.Duration{0, 0}))
	_, err := f.Fetch(context.Background(), docdex.FetchRequest{URL: srv.URL + "/gone.pdf"})
	require.Error(t, err)

	var fe *docdex.FetchError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, 404, fe.Status)
	assert.False(t, fe.Transient)
	assert.Equal(t, docdex.EFETCH, docdex.ErrorCode(err))
	assert.Equal(t, int32(1), hits.Load())
}

func TestFetcher_Fetch_RetryBudgetExhausted(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	f := dochttp.NewFetcher("docdex-test/1.0", dochttp.WithRetryDelays([]time.Duration{0, 0}))
	_, err := f.Fetch(context.Background(), docdex.FetchRequest{URL: srv.URL})
	require.Error(t, err)

	var fe *docdex.FetchError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, 503, fe.Status)
	assert.True(t, fe.Transient)
	assert.Equal(t, int32(3), hits.Load())
}

func TestFetcher_Fetch_ConditionalNotModified(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("If-None-Match") == `"v1"` {
			w.WriteHeader(http.StatusNotModified)
			return
		}
		w.Write([]byte("fresh"))
	}))
	defer srv.Close()

	f := dochttp.NewFetcher("docdex-test/1.0")
	resp, err := f.Fetch(context.Background(), docdex.FetchRequest{URL: srv.URL, ETag: `"v1"`})
	require.NoError(t, err)
	assert.True(t, resp.NotModified)
	assert.Empty(t, resp.Body)
}

func TestFetcher_Fetch_RobotsDisallowed(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))
	defer srv.Close()

	robots := &mock.RobotsService{
		AllowedFn: func(ctx context.Context, rawURL string) (bool, error) {
			return false, nil
		},
	}

	f := dochttp.NewFetcher("docdex-test/1.0", dochttp.WithRobots(robots))
	_, err := f.Fetch(context.Background(), docdex.FetchRequest{URL: srv.URL + "/private/a.pdf"})
	require.Error(t, err)
	assert.Equal(t, docdex.EPOLICY, docdex.ErrorCode(err))

	// A robots denial never touches the target URL.
	assert.Equal(t, int32(0), hits.Load())
}

func TestFetcher_Fetch_WaitsOnHostLimiter(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	var waitedHost string
	limiter := &mock.HostLimiter{
		WaitFn: func(ctx context.Context, host string) error {
			waitedHost = host
			return nil
		},
	}

	f := dochttp.NewFetcher("docdex-test/1.0", dochttp.WithLimiter(limiter))
	_, err := f.Fetch(context.Background(), docdex.FetchRequest{URL: srv.URL})
	require.NoError(t, err)
	assert.NotEmpty(t, waitedHost)
	assert.Contains(t, srv.URL, waitedHost)
}

func TestRobotsCache_Allowed(t *testing.T) {
	t.Parallel()

	var robotsHits atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/robots.txt", func(w http.ResponseWriter, r *http.Request) {
		robotsHits.Add(1)
		w.Write([]byte("User-agent: *\nDisallow: /private/\n"))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := dochttp.NewRobotsCache("docdex-test/1.0")
	ctx := context.Background()

	allowed, err := c.Allowed(ctx, srv.URL+"/files/a.pdf")
	require.NoError(t, err)
	assert.True(t, allowed)

	allowed, err = c.Allowed(ctx, srv.URL+"/private/secret.pdf")
	require.NoError(t, err)
	assert.False(t, allowed)

	// Rules for one host are fetched once.
	assert.Equal(t, int32(1), robotsHits.Load())
}

func TestRobotsCache_RefetchesAfterTTL(t *testing.T) {
	t.Parallel()

	// The rules flip between fetches; an expired entry must pick them up.
	var robotsHits atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/robots.txt", func(w http.ResponseWriter, r *http.Request) {
		if robotsHits.Add(1) == 1 {
			w.Write([]byte("User-agent: *\nDisallow: /files/\n"))
			return
		}
		w.Write([]byte("User-agent: *\nDisallow:\n"))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := dochttp.NewRobotsCache("docdex-test/1.0", dochttp.WithRobotsTTL(0))
	ctx := context.Background()

	allowed, err := c.Allowed(ctx, srv.URL+"/files/a.pdf")
	require.NoError(t, err)
	assert.False(t, allowed)

	allowed, err = c.Allowed(ctx, srv.URL+"/files/a.pdf")
	require.NoError(t, err)
	assert.True(t, allowed)

	assert.Equal(t, int32(2), robotsHits.Load())
}

func TestRobotsCache_UnreachableAllowsAll(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	c := dochttp.NewRobotsCache("docdex-test/1.0")
	allowed, err := c.Allowed(context.Background(), srv.URL+"/files/a.pdf")
	require.NoError(t, err)
	assert.True(t, allowed)
}
