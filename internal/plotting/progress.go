package plotting

import (
	"sync"
	"sync/atomic"
)

// ProgressSink receives progress events for a single PlotSector call. Send
// reports a non-nil error once the sink can no longer accept events (e.g.
// the caller dropped its receiving end); the job treats that as terminal
// for the sink only — registered handlers keep receiving events.
type ProgressSink interface {
	Send(SectorPlottingProgress) error
}

// ProgressHandler observes progress for every sector plotted by the
// engine, across all concurrent calls. It must be cheap: invocation is
// synchronous, on the job's goroutine, or on the PlotSector caller's
// goroutine for an event that rejects the request at admission.
type ProgressHandler func(pubKey PublicKey, sector SectorIndex, progress SectorPlottingProgress)

// Subscription is returned by a handler registration; Unsubscribe removes
// the callback. Calling Unsubscribe more than once is a no-op.
type Subscription struct {
	id       uint64
	unsub    func(uint64)
	unsubbed atomic.Bool
}

// Unsubscribe removes the handler. Safe to call multiple times and from
// any goroutine.
func (s *Subscription) Unsubscribe() {
	if s == nil || s.unsubbed.Swap(true) {
		return
	}
	s.unsub(s.id)
}

// progressRegistry fans a progress event out to every registered handler,
// then (the caller does this separately) to the per-call sink. It makes no
// ordering guarantee across handlers.
type progressRegistry struct {
	mu       sync.RWMutex
	nextID   uint64
	handlers map[uint64]ProgressHandler
}

func newProgressRegistry() *progressRegistry {
	return &progressRegistry{handlers: make(map[uint64]ProgressHandler)}
}

// Subscribe registers a handler and returns a token whose Unsubscribe
// removes it.
func (r *progressRegistry) Subscribe(h ProgressHandler) *Subscription {
	r.mu.Lock()
	id := r.nextID
	r.nextID++
	r.handlers[id] = h
	r.mu.Unlock()

	return &Subscription{id: id, unsub: r.remove}
}

func (r *progressRegistry) remove(id uint64) {
	r.mu.Lock()
	delete(r.handlers, id)
	r.mu.Unlock()
}

// Notify invokes every registered handler synchronously, in an
// unspecified order, swallowing panics from individual handlers so one
// broken observer cannot take down a plotting job.
func (r *progressRegistry) Notify(pubKey PublicKey, sector SectorIndex, progress SectorPlottingProgress) {
	r.mu.RLock()
	handlers := make([]ProgressHandler, 0, len(r.handlers))
	for _, h := range r.handlers {
		handlers = append(handlers, h)
	}
	r.mu.RUnlock()

	for _, h := range handlers {
		callHandlerSafely(h, pubKey, sector, progress)
	}
}

func callHandlerSafely(h ProgressHandler, pubKey PublicKey, sector SectorIndex, progress SectorPlottingProgress) {
	defer func() { _ = recover() }()
	h(pubKey, sector, progress)
}
