// Package threadpoolmgr is the concrete ThreadPoolManager used outside of
// tests: N pairs of (plotting, replotting) worker-goroutine pools, handed
// out one pair at a time and returned to a free-list on release.
//
// It generalizes the single-slot admission pattern in
// engine_block_downloader.StartDownloading (a mutex guarding one in-flight
// download) to N slots behind a buffered channel, and gives each pool a
// single long-lived worker goroutine in the style of the goroutine-per-
// worker pattern in miner/worker.go.
package threadpoolmgr

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/erigontech/erigon-lib/log/v3"

	"github.com/sectorfarm/plotengine/internal/plotting"
)

var errPoolClosed = errors.New("threadpoolmgr: pool closed")

// workerPool is a single long-lived worker goroutine consuming closures
// off a channel. Only one closure is ever in flight at a time, which is
// all a PoolPair's Plotting/Replotting pool needs: the manager only lends
// a pair to one job at a time, and a job installs on exactly one of the
// pair's two pools.
type workerPool struct {
	name   string
	logger log.Logger

	tasks chan poolTask
	quit  chan struct{}
}

type poolTask struct {
	fn   func()
	done chan struct{}
}

func newWorkerPool(name string, logger log.Logger) *workerPool {
	p := &workerPool{name: name, logger: logger, tasks: make(chan poolTask), quit: make(chan struct{})}
	go p.run()
	return p
}

func (p *workerPool) run() {
	for {
		select {
		case t := <-p.tasks:
			t.fn()
			close(t.done)
		case <-p.quit:
			return
		}
	}
}

// Install blocks until fn has run to completion on this pool's worker, or
// returns early if ctx is done or the pool is closed before the task is
// accepted. Once accepted, fn always runs to completion — teardown can
// only interrupt the wait, not the running closure; the closure itself is
// expected to cooperate via AbortEarly.
func (p *workerPool) Install(ctx context.Context, fn func()) error {
	task := poolTask{fn: fn, done: make(chan struct{})}
	select {
	case p.tasks <- task:
	case <-ctx.Done():
		return ctx.Err()
	case <-p.quit:
		return errPoolClosed
	}
	<-task.done
	return nil
}

func (p *workerPool) close() {
	close(p.quit)
}

// pair is one (plotting, replotting) thread-pool pair.
type pair struct {
	index      int
	plotting   *workerPool
	replotting *workerPool
}

// Manager owns N pool pairs and hands them out one at a time via a
// buffered free-list channel.
type Manager struct {
	logger log.Logger
	pairs  []*pair
	free   chan int
}

// New constructs a Manager with the given number of pool pairs. pairs
// must be nonzero.
func New(pairs int, logger log.Logger) (*Manager, error) {
	if pairs <= 0 {
		return nil, fmt.Errorf("threadpoolmgr: pairs must be nonzero, got %d", pairs)
	}
	if logger == nil {
		logger = log.Root()
	}
	m := &Manager{logger: logger, pairs: make([]*pair, pairs), free: make(chan int, pairs)}
	for i := 0; i < pairs; i++ {
		m.pairs[i] = &pair{
			index:      i,
			plotting:   newWorkerPool(fmt.Sprintf("plotting-%d", i), logger),
			replotting: newWorkerPool(fmt.Sprintf("replotting-%d", i), logger),
		}
		m.free <- i
	}
	return m, nil
}

// ThreadPoolPairs implements plotting.ThreadPoolManager.
func (m *Manager) ThreadPoolPairs() int { return len(m.pairs) }

// GetThreadPools implements plotting.ThreadPoolManager.
func (m *Manager) GetThreadPools(ctx context.Context) (plotting.PoolPair, error) {
	select {
	case idx := <-m.free:
		return &poolPairHandle{manager: m, index: idx}, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Close stops every worker goroutine. It does not wait for pairs on loan
// to be released; callers should close the manager only after the engine
// that borrows from it has finished tearing down.
func (m *Manager) Close() {
	for _, pr := range m.pairs {
		pr.plotting.close()
		pr.replotting.close()
	}
}

type poolPairHandle struct {
	manager  *Manager
	index    int
	released atomic.Bool
}

func (h *poolPairHandle) Index() int               { return h.index }
func (h *poolPairHandle) Plotting() plotting.Pool   { return h.manager.pairs[h.index].plotting }
func (h *poolPairHandle) Replotting() plotting.Pool { return h.manager.pairs[h.index].replotting }

// Release returns the pair to the free-list. Safe to call exactly once;
// subsequent calls are no-ops.
func (h *poolPairHandle) Release() {
	if h.released.Swap(true) {
		return
	}
	h.manager.free <- h.index
}
