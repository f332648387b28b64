package mock

import (
	"context"

	"github.com/fwojciec/docdex"
)

var _ docdex.FrontierService = (*FrontierService)(nil)

// FrontierService is a mock implementation of docdex.FrontierService.
type FrontierService struct {
	UpsertEntriesFn func(ctx context.Context, entries []*docdex.FrontierEntry, preserveDone bool) error
	NextPendingFn   func(ctx context.Context, limit int) ([]*docdex.FrontierEntry, error)
	FindEntryFn     func(ctx context.Context, url string) (*docdex.FrontierEntry, error)
	UpdateEntryFn   func(ctx context.Context, url string, upd docdex.FrontierUpdate) error
	ResetEntryFn    func(ctx context.Context, url string) error
	CountByStatusFn func(ctx context.Context) (map[docdex.EntryStatus]int, error)
}

func (s *FrontierService) UpsertEntries(ctx context.Context, entries []*docdex.FrontierEntry, preserveDone bool) error {
	return s.UpsertEntriesFn(ctx, entries, preserveDone)
}

func (s *FrontierService) NextPending(ctx context.Context, limit int) ([]*docdex.FrontierEntry, error) {
	return s.NextPendingFn(ctx, limit)
}

func (s *FrontierService) FindEntry(ctx context.Context, url string) (*docdex.FrontierEntry, error) {
	return s.FindEntryFn(ctx, url)
}

func (s *FrontierService) UpdateEntry(ctx context.Context, url string, upd docdex.FrontierUpdate) error {
	return s.UpdateEntryFn(ctx, url, upd)
}

func (s *FrontierService) ResetEntry(ctx context.Context, url string) error {
	return s.ResetEntryFn(ctx, url)
}

func (s *FrontierService) CountByStatus(ctx context.Context) (map[docdex.EntryStatus]int, error) {
	return s.CountByStatusFn(ctx)
}

var _ docdex.HostLimiter = (*HostLimiter)(nil)

// HostLimiter is a mock implementation of docdex.HostLimiter.
type HostLimiter struct {
	WaitFn func(ctx context.Context, host string) error
}

func (l *HostLimiter) Wait(ctx context.Context, host string) error {
	return l.WaitFn(ctx, host)
}

var _ docdex.RobotsService = (*RobotsService)(nil)

// RobotsService is a mock implementation of docdex.RobotsService.
type RobotsService struct {
	AllowedFn func(ctx context.Context, rawURL string) (bool, error)
}

func (s *RobotsService) Allowed(ctx context.Context, rawURL string) (bool, error) {
	return s.AllowedFn(ctx, rawURL)
}
