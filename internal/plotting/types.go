// Package plotting implements the sector plotting engine: the component
// that turns a SectorRequest into a plotted sector by downloading its
// pieces, erasure-coding them, and building proof-of-space tables across
// the result, all under bounded concurrency and cooperative cancellation.
package plotting

import "time"

// FarmerProtocolInfo carries the parameters the encoder needs: record size,
// table construction parameters, and commitments configuration. The engine
// never interprets these fields; it copies the value into each job and
// hands it unchanged to the piece-getter via DownloadSectorOptions.
// EncodeSectorOptions does not carry it.
type FarmerProtocolInfo struct {
	RecordSize               uint64
	RecordsPerSector         uint64
	TableGenerationSeedLen   uint32
	PieceCommitmentsRandSeed [32]byte
}

// PublicKey identifies the farmer operating the sector.
type PublicKey [32]byte

// SectorIndex identifies one sector among those owned by a public key.
type SectorIndex uint64

// SectorRequest is consumed once by Plotter.PlotSector.
type SectorRequest struct {
	PublicKey      PublicKey
	SectorIndex    SectorIndex
	ProtocolInfo   FarmerProtocolInfo
	PiecesInSector uint16
	Replotting     bool
}

// ErasureCoding is the opaque erasure-coding handle shared by every job;
// the engine never inspects it, only forwards it to the encoder. The
// erasure-coding algorithm itself is an external collaborator (spec.md
// §1, Out of scope).
type ErasureCoding any

// DownloadedSector is the opaque result of the download stage. It is owned
// by the job until it is handed to the encoder.
type DownloadedSector struct {
	Pieces [][]byte
}

// PlottedSector describes what the encoder produced. The actual bytes live
// in separate buffers so that Finished can report them without copying the
// descriptor itself.
type PlottedSector struct {
	SectorIndex  SectorIndex
	PieceIndices []uint64
	RecordsRoot  [32]byte
}

// ProgressKind tags a SectorPlottingProgress value.
type ProgressKind int

const (
	Downloading ProgressKind = iota
	Downloaded
	Encoding
	Encoded
	Finished
	Error
)

func (k ProgressKind) String() string {
	switch k {
	case Downloading:
		return "Downloading"
	case Downloaded:
		return "Downloaded"
	case Encoding:
		return "Encoding"
	case Encoded:
		return "Encoded"
	case Finished:
		return "Finished"
	case Error:
		return "Error"
	default:
		return "Unknown"
	}
}

// SectorPlottingProgress is the tagged variant published through every
// progress sink and every registered handler. Only the fields relevant to
// Kind are populated; the rest are zero values.
type SectorPlottingProgress struct {
	Kind ProgressKind

	// Downloaded, Encoded.
	Duration time.Duration

	// Finished.
	PlottedSector  PlottedSector
	TotalDuration  time.Duration
	Sector         []byte
	SectorMetadata []byte

	// Error.
	Message string
}
