// Package piecegetter is a benchmark-only plotting.PieceGetter: it
// fabricates deterministic piece bytes instead of pulling them from the
// DSN, with an LRU cache (mirroring the cache idiom in
// turbo/engineapi/engine_helpers/fork_validator.go) and bounded retry
// under exponential backoff so cmd/plotbench can simulate a flaky network
// without wiring a real piece-retrieval stack.
package piecegetter

import (
	"context"
	"crypto/sha256"
	"fmt"
	"sync/atomic"

	"github.com/cenkalti/backoff/v4"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/sectorfarm/plotengine/internal/plotting"
)

// FlakyFunc lets a test or benchmark inject transient failures into piece
// retrieval, keyed by the global piece index and the 0-based attempt
// number. A nil FlakyFunc never fails.
type FlakyFunc func(pieceIndex uint64, attempt int) error

// Mock is a deterministic, in-memory stand-in for a real DSN piece
// retrieval client.
type Mock struct {
	pieceSize int
	cache     *lru.Cache[uint64, []byte]
	flaky     FlakyFunc

	fetches atomic.Uint64
	retries atomic.Uint64
}

// New constructs a Mock. cacheSize bounds the number of pieces kept
// in memory; pieceSize is the length in bytes of every fabricated piece.
func New(pieceSize, cacheSize int) (*Mock, error) {
	if pieceSize <= 0 {
		return nil, fmt.Errorf("piecegetter: piece size must be nonzero")
	}
	cache, err := lru.New[uint64, []byte](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("piecegetter: %w", err)
	}
	return &Mock{pieceSize: pieceSize, cache: cache}, nil
}

// WithFlaky installs a FlakyFunc used to simulate transient failures in
// tests. Returns m for chaining.
func (m *Mock) WithFlaky(f FlakyFunc) *Mock {
	m.flaky = f
	return m
}

// Fetches reports the number of distinct pieces materialised (cache
// misses), for benchmark reporting.
func (m *Mock) Fetches() uint64 { return m.fetches.Load() }

// Retries reports the number of retry attempts consumed across every
// DownloadSector call.
func (m *Mock) Retries() uint64 { return m.retries.Load() }

// DownloadSector implements plotting.PieceGetter. It fabricates
// opts.PiecesInSector pieces addressed by a global index derived from the
// sector index, retrying each one individually under exponential backoff.
func (m *Mock) DownloadSector(ctx context.Context, opts plotting.DownloadSectorOptions) (plotting.DownloadedSector, error) {
	pieces := make([][]byte, opts.PiecesInSector)
	base := uint64(opts.SectorIndex) * uint64(opts.PiecesInSector)

	for i := range pieces {
		pieceIndex := base + uint64(i)
		piece, err := m.fetchWithRetry(ctx, pieceIndex)
		if err != nil {
			return plotting.DownloadedSector{}, fmt.Errorf("piecegetter: piece %d: %w", pieceIndex, err)
		}
		pieces[i] = piece
	}
	return plotting.DownloadedSector{Pieces: pieces}, nil
}

func (m *Mock) fetchWithRetry(ctx context.Context, pieceIndex uint64) ([]byte, error) {
	if cached, ok := m.cache.Get(pieceIndex); ok {
		return cached, nil
	}

	attempt := 0
	bo := backoff.WithContext(backoff.NewExponentialBackOff(), ctx)
	piece, err := backoff.RetryWithData(func() ([]byte, error) {
		if attempt > 0 {
			m.retries.Add(1)
		}
		if m.flaky != nil {
			if err := m.flaky(pieceIndex, attempt); err != nil {
				attempt++
				return nil, err
			}
		}
		attempt++
		return fabricatePiece(pieceIndex, m.pieceSize), nil
	}, bo)
	if err != nil {
		return nil, err
	}

	m.fetches.Add(1)
	m.cache.Add(pieceIndex, piece)
	return piece, nil
}

// fabricatePiece deterministically fills pieceSize bytes from a SHA-256
// keystream seeded by the piece index, so repeated calls for the same
// index are byte-identical without needing to materialize real data.
func fabricatePiece(pieceIndex uint64, pieceSize int) []byte {
	out := make([]byte, 0, pieceSize)
	var counter uint64
	for len(out) < pieceSize {
		h := sha256.Sum256(seedBytes(pieceIndex, counter))
		out = append(out, h[:]...)
		counter++
	}
	return out[:pieceSize]
}

func seedBytes(pieceIndex, counter uint64) []byte {
	b := make([]byte, 16)
	for i := 0; i < 8; i++ {
		b[i] = byte(pieceIndex >> (8 * i))
		b[8+i] = byte(counter >> (8 * i))
	}
	return b
}
