package slog_test

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/fwojciec/docdex"
	"github.com/fwojciec/docdex/mock"
	docslog "github.com/fwojciec/docdex/slog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoggingFetcher_Fetch(t *testing.T) {
	t.Parallel()

	t.Run("logs successful fetch with duration", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger := slog.New(slog.NewTextHandler(&buf, nil))
		inner := &mock.Fetcher{
			FetchFn: func(ctx context.Context, req docdex.FetchRequest) (*docdex.FetchResponse, error) {
				return &docdex.FetchResponse{Body: []byte("data"), StatusCode: 200}, nil
			},
		}

		f := docslog.NewLoggingFetcher(inner, logger)
		resp, err := f.Fetch(context.Background(), docdex.FetchRequest{URL: "https://example.gov/a.pdf"})

		require.NoError(t, err)
		assert.Equal(t, []byte("data"), resp.Body)

		output := buf.String()
		assert.Contains(t, output, "fetch")
		assert.Contains(t, output, "url=https://example.gov/a.pdf")
		assert.Contains(t, output, "status=200")
		assert.Contains(t, output, "bytes=4")
		assert.Contains(t, output, "duration=")
	})

	t.Run("logs failed fetch with error", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger := slog.New(slog.NewTextHandler(&buf, nil))
		inner := &mock.Fetcher{
			FetchFn: func(ctx context.Context, req docdex.FetchRequest) (*docdex.FetchResponse, error) {
				return nil, &docdex.FetchError{URL: req.URL, Status: 503, Transient: true}
			},
		}

		f := docslog.NewLoggingFetcher(inner, logger)
		_, err := f.Fetch(context.Background(), docdex.FetchRequest{URL: "https://example.gov/a.pdf"})

		require.Error(t, err)
		output := buf.String()
		assert.Contains(t, output, "level=ERROR")
		assert.Contains(t, output, "err=")
	})
}

func TestLoggingIndex(t *testing.T) {
	t.Parallel()

	t.Run("logs upsert", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger := slog.New(slog.NewTextHandler(&buf, nil))
		inner := &mock.IndexService{
			UpsertFn: func(ctx context.Context, documentID, text string) error {
				return nil
			},
		}

		s := docslog.NewLoggingIndex(inner, logger)
		require.NoError(t, s.Upsert(context.Background(), "hash1", "body text"))

		output := buf.String()
		assert.Contains(t, output, "index upsert")
		assert.Contains(t, output, "documentID=hash1")
	})

	t.Run("logs search result count", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger := slog.New(slog.NewTextHandler(&buf, nil))
		inner := &mock.IndexService{
			SearchFn: func(ctx context.Context, query string, limit, offset int) ([]*docdex.IndexRecord, error) {
				return []*docdex.IndexRecord{{DocumentID: "hash1"}}, nil
			},
		}

		s := docslog.NewLoggingIndex(inner, logger)
		records, err := s.Search(context.Background(), "budget", 10, 0)

		require.NoError(t, err)
		assert.Len(t, records, 1)
		assert.Contains(t, buf.String(), "results=1")
	})

	t.Run("delegates remove errors", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger := slog.New(slog.NewTextHandler(&buf, nil))
		inner := &mock.IndexService{
			RemoveFn: func(ctx context.Context, documentID string) error {
				return docdex.Errorf(docdex.EINTERNAL, "disk full")
			},
		}

		s := docslog.NewLoggingIndex(inner, logger)
		err := s.Remove(context.Background(), "hash1")

		require.Error(t, err)
		assert.Contains(t, buf.String(), "level=ERROR")
	})
}
