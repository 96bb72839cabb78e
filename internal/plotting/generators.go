package plotting

import (
	"fmt"
	"sync"
)

// TableGenerator is reusable working state for one proof-of-space table
// construction. The engine never looks inside it; it is created by a
// caller-supplied factory and handed opaquely to the encoder.
type TableGenerator any

// TableGeneratorSet is the inner sequence handed to one encode call: its
// length equals the configured record-encoding concurrency.
type TableGeneratorSet []TableGenerator

// TableGeneratorPool is the two-level container from spec.md §3: outer
// length is the number of thread-pool pairs (constant for the engine's
// lifetime), inner length is the record-encoding concurrency. A job pops
// the set belonging to the pool-pair index it was handed and pushes it
// back unconditionally once the encoder returns or panics, so at rest the
// outer length always equals its initial value and no set is ever
// double-borrowed.
type TableGeneratorPool struct {
	mu          sync.Mutex
	sets        []TableGeneratorSet
	borrowed    []bool
	concurrency int
}

// NewTableGeneratorPool eagerly allocates pairs * concurrency generators
// via newGen, one set per thread-pool pair.
func NewTableGeneratorPool(pairs, concurrency int, newGen func() TableGenerator) *TableGeneratorPool {
	sets := make([]TableGeneratorSet, pairs)
	for i := range sets {
		set := make(TableGeneratorSet, concurrency)
		for j := range set {
			set[j] = newGen()
		}
		sets[i] = set
	}
	return &TableGeneratorPool{sets: sets, borrowed: make([]bool, pairs), concurrency: concurrency}
}

// Pairs reports the constant outer length.
func (p *TableGeneratorPool) Pairs() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.sets)
}

// Pop removes the generator set owned by pairIndex so the caller can hand
// it to the encoder. It must be paired with exactly one Push of the same
// index once the encoder has returned.
func (p *TableGeneratorPool) Pop(pairIndex int) (TableGeneratorSet, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if pairIndex < 0 || pairIndex >= len(p.sets) {
		return nil, fmt.Errorf("plotting: pool-pair index %d out of range [0,%d)", pairIndex, len(p.sets))
	}
	if p.borrowed[pairIndex] {
		return nil, fmt.Errorf("plotting: generator set %d already borrowed", pairIndex)
	}
	set := p.sets[pairIndex]
	p.sets[pairIndex] = nil
	p.borrowed[pairIndex] = true
	return set, nil
}

// Push returns a previously popped generator set. Must be called exactly
// once per Pop, unconditionally of encode success or failure.
func (p *TableGeneratorPool) Push(pairIndex int, set TableGeneratorSet) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if pairIndex < 0 || pairIndex >= len(p.sets) {
		return
	}
	p.sets[pairIndex] = set
	p.borrowed[pairIndex] = false
}

// Count returns the total number of generators currently tracked by the
// pool, borrowed or not — used by tests to assert generator conservation.
func (p *TableGeneratorPool) Count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	total := 0
	for i, set := range p.sets {
		if p.borrowed[i] {
			total += p.concurrency
			continue
		}
		total += len(set)
	}
	return total
}
