package mock

import (
	"context"

	"github.com/fwojciec/docdex"
)

var _ docdex.Fetcher = (*Fetcher)(nil)

// Fetcher is a mock implementation of docdex.Fetcher.
type Fetcher struct {
	FetchFn func(ctx context.Context, req docdex.FetchRequest) (*docdex.FetchResponse, error)
}

func (f *Fetcher) Fetch(ctx context.Context, req docdex.FetchRequest) (*docdex.FetchResponse, error) {
	return f.FetchFn(ctx, req)
}
