package plotting

import (
	"context"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
)

// downloadingSemaphore bounds concurrent downloads (and, since a permit is
// held across both stages, the entire per-job pipeline). Unlike the bare
// *semaphore.Weighted it wraps, it can be closed: once closed, Acquire
// fails immediately instead of blocking, which is how the engine answers
// spec.md §4.1's "permit acquisition fails (semaphore closed)" case on
// teardown.
type downloadingSemaphore struct {
	weighted *semaphore.Weighted
	closed   atomic.Bool
}

func newDownloadingSemaphore(capacity int64) *downloadingSemaphore {
	return &downloadingSemaphore{weighted: semaphore.NewWeighted(capacity)}
}

// acquire blocks until a permit is free or ctx is done. The returned
// release func is idempotent and safe to call from a defer.
func (s *downloadingSemaphore) acquire(ctx context.Context) (release func(), err error) {
	if s.closed.Load() {
		return nil, ErrSemaphoreClosed
	}
	if err := s.weighted.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	var once sync.Once
	return func() { once.Do(func() { s.weighted.Release(1) }) }, nil
}

// close marks the semaphore as no longer accepting new acquisitions.
// Permits already held continue to be valid until released.
func (s *downloadingSemaphore) close() {
	s.closed.Store(true)
}
