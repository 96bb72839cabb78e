// Package encoder is a benchmark-only plotting.Encoder. It performs none
// of the real erasure coding or proof-of-space table construction — both
// are explicit non-goals — but it reproduces the shape those stages have
// in the real engine closely enough to exercise cancellation, the global
// mutex, and the table-generator handoff: a per-generator work loop that
// polls AbortEarly between iterations, grounded on the same
// poll-then-work pattern plotter/cpu.rs uses around its table rounds.
package encoder

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"time"

	"github.com/sectorfarm/plotengine/internal/plotting"
)

// Mock produces a deterministic PlottedSector from the downloaded pieces
// without doing any real erasure coding.
type Mock struct {
	// WorkPerGenerator is slept once per table generator in the borrowed
	// set, between AbortEarly polls, to simulate CPU-bound table
	// construction taking real wall-clock time. Zero disables the sleep.
	WorkPerGenerator time.Duration
}

// New returns a Mock with no simulated per-generator work.
func New() *Mock { return &Mock{} }

// EncodeSector implements plotting.Encoder.
func (m *Mock) EncodeSector(ctx context.Context, downloaded plotting.DownloadedSector, opts plotting.EncodeSectorOptions) (plotting.PlottedSector, error) {
	for range opts.Generators {
		if opts.Abort.IsSet() {
			return plotting.PlottedSector{}, plotting.ErrAbortEarly
		}
		select {
		case <-ctx.Done():
			return plotting.PlottedSector{}, ctx.Err()
		default:
		}
		if m.WorkPerGenerator > 0 {
			time.Sleep(m.WorkPerGenerator)
		}
	}

	opts.GlobalMutex.Lock()
	sector, metadata, root := m.assemble(downloaded, opts)
	opts.GlobalMutex.Unlock()

	*opts.Sector = sector
	*opts.SectorMetadata = metadata

	pieceIndices := make([]uint64, len(downloaded.Pieces))
	for i := range pieceIndices {
		pieceIndices[i] = uint64(opts.SectorIndex)*uint64(opts.PiecesInSector) + uint64(i)
	}

	return plotting.PlottedSector{
		SectorIndex:  opts.SectorIndex,
		PieceIndices: pieceIndices,
		RecordsRoot:  root,
	}, nil
}

// assemble concatenates the downloaded pieces into a sector buffer,
// derives a small metadata trailer, and hashes the result into a records
// root. It runs under opts.GlobalMutex like the real encoder's
// commitments bookkeeping would.
func (m *Mock) assemble(downloaded plotting.DownloadedSector, opts plotting.EncodeSectorOptions) (sector, metadata []byte, root [32]byte) {
	var size int
	for _, piece := range downloaded.Pieces {
		size += len(piece)
	}
	sector = make([]byte, 0, size)
	for _, piece := range downloaded.Pieces {
		sector = append(sector, piece...)
	}

	metadata = make([]byte, 8)
	binary.LittleEndian.PutUint64(metadata, uint64(opts.SectorIndex))

	h := sha256.New()
	h.Write(sector)
	h.Write(metadata)
	sum := h.Sum(nil)
	copy(root[:], sum)
	return sector, metadata, root
}
