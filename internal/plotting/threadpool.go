package plotting

import "context"

// Pool runs closures on one of its worker threads. Install blocks the
// caller until fn has finished running on a worker, or returns early with
// an error if the pool is shutting down or ctx is done first.
type Pool interface {
	Install(ctx context.Context, fn func()) error
}

// PoolPair is two thread pools, one for plotting and one for replotting,
// handed out as a unit by the manager. Release returns the pair to the
// manager; it must be called exactly once, regardless of how the encode
// stage exits.
type PoolPair interface {
	Index() int
	Plotting() Pool
	Replotting() Pool
	Release()
}

// ThreadPoolManager owns N pairs of (plotting, replotting) thread pools
// and hands out one pair at a time. GetThreadPools suspends the caller
// until a pair is free. The engine assumes at most
// ThreadPoolPairs() jobs are ever inside the encoder concurrently.
type ThreadPoolManager interface {
	ThreadPoolPairs() int
	GetThreadPools(ctx context.Context) (PoolPair, error)
}
