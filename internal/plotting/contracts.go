package plotting

import (
	"context"
	"sync"

	kzg "github.com/crate-crypto/go-kzg-4844"
)

// GlobalMutex gates all plotting work. The download stage briefly acquires
// and releases it as a checkpoint, never holding it while reading data;
// the encoder is given the same handle and is expected to lock it around
// its own critical sections. It may also be held externally (by whatever
// orchestrates maintenance pauses) for arbitrarily long stretches.
type GlobalMutex = *sync.Mutex

// DownloadSectorOptions is passed to PieceGetter.DownloadSector.
type DownloadSectorOptions struct {
	PublicKey      PublicKey
	SectorIndex    SectorIndex
	ProtocolInfo   FarmerProtocolInfo
	PiecesInSector uint16
	KZG            *kzg.Context
}

// PieceGetter is the external collaborator that materialises individual
// pieces by identifier over the network. The engine only ever calls
// DownloadSector; piece-level retrieval and addressing are its concern.
type PieceGetter interface {
	DownloadSector(ctx context.Context, opts DownloadSectorOptions) (DownloadedSector, error)
}

// EncodeSectorOptions is passed to Encoder.EncodeSector. Sector and
// SectorMetadata are out-parameters the encoder fills in place; Generators
// is the inner table-generator sequence borrowed from the pool for the
// duration of the call.
type EncodeSectorOptions struct {
	SectorIndex    SectorIndex
	ErasureCoding  ErasureCoding
	PiecesInSector uint16
	Sector         *[]byte
	SectorMetadata *[]byte
	Generators     TableGeneratorSet
	Abort          *AbortEarly
	GlobalMutex    GlobalMutex
}

// Encoder is the external collaborator that erasure-codes a downloaded
// sector and builds its proof-of-space tables. It is CPU-bound and
// blocking; the engine runs it on a borrowed thread-pool pair and never
// calls it from the async scheduler's own goroutines. Implementations
// must poll opts.Abort frequently enough that a single flag write is
// observed in bounded time, and must return ErrAbortEarly (wrapped or
// bare, checked with errors.Is) rather than a generic error when they
// stop because of it.
type Encoder interface {
	EncodeSector(ctx context.Context, downloaded DownloadedSector, opts EncodeSectorOptions) (PlottedSector, error)
}
