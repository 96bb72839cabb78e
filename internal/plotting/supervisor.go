package plotting

import (
	"sync"

	mapset "github.com/deckarep/golang-set/v2"

	"github.com/erigontech/erigon-lib/log/v3"
)

// supervisedJob is the owning handle the supervisor holds for one
// in-flight per-sector task: cancel aborts it, and the job reports its own
// completion (success, failure, or abort) by calling markDone with id.
type supervisedJob struct {
	id     uint64
	cancel func()
}

// supervisor holds every in-flight per-sector job in an unordered set so
// that dropping it (close) cancels all of them deterministically. It is
// the Go translation of a JoinSet-plus-sentinel: Go's select over a fixed
// set of channels has no equivalent of a collection completing itself
// when it empties, so the sentinel the original needs to keep a
// FuturesUnordered alive has no counterpart here — the run loop only
// exits once closing is signalled, regardless of how many jobs are
// currently tracked.
type supervisor struct {
	logger log.Logger

	incoming chan *supervisedJob
	done     chan uint64
	closing  chan struct{}

	wg sync.WaitGroup
}

func newSupervisor(logger log.Logger) *supervisor {
	s := &supervisor{
		logger:   logger,
		incoming: make(chan *supervisedJob),
		done:     make(chan uint64),
		closing:  make(chan struct{}),
	}
	s.wg.Add(1)
	go s.run()
	return s
}

// enroll sends a newly admitted job's handle to the supervisor. It
// returns ErrSupervisorClosed if the supervisor has already started
// tearing down.
func (s *supervisor) enroll(job *supervisedJob) error {
	select {
	case s.incoming <- job:
		return nil
	case <-s.closing:
		return ErrSupervisorClosed
	}
}

// markDone signals that job id has finished.
func (s *supervisor) markDone(id uint64) {
	select {
	case s.done <- id:
	case <-s.closing:
	}
}

func (s *supervisor) run() {
	defer s.wg.Done()

	jobs := mapset.NewSet[*supervisedJob]()
	byID := make(map[uint64]*supervisedJob)

	for {
		select {
		case job := <-s.incoming:
			jobs.Add(job)
			byID[job.id] = job

		case id := <-s.done:
			if job, ok := byID[id]; ok {
				jobs.Remove(job)
				delete(byID, id)
			}

		case <-s.closing:
			s.logger.Debug("plotting supervisor tearing down", "inFlight", jobs.Cardinality())
			for id, job := range byID {
				job.cancel()
				delete(byID, id)
			}
			jobs.Clear()
			return
		}
	}
}

// close stops accepting new jobs and cancels every currently tracked job.
// It blocks until the supervisor's internal goroutine has exited.
func (s *supervisor) close() {
	close(s.closing)
	s.wg.Wait()
}
