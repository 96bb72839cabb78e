package plotting

import (
	"context"

	kzg "github.com/crate-crypto/go-kzg-4844"
)

// downloadSector runs the download stage for one job: a brief acquire/
// release of the global mutex as a checkpoint (never held while data is
// read — see spec.md §4.2 and the design note on this in DESIGN.md), then
// a single call into the piece-getter.
func downloadSector(ctx context.Context, getter PieceGetter, req SectorRequest, mu GlobalMutex, kzgCtx *kzg.Context) (DownloadedSector, error) {
	mu.Lock()
	mu.Unlock() //nolint:staticcheck // checkpoint, not a held lock: blocks new downloads while an external actor holds mu for maintenance

	sector, err := getter.DownloadSector(ctx, DownloadSectorOptions{
		PublicKey:      req.PublicKey,
		SectorIndex:    req.SectorIndex,
		ProtocolInfo:   req.ProtocolInfo,
		PiecesInSector: req.PiecesInSector,
		KZG:            kzgCtx,
	})
	if err != nil {
		return DownloadedSector{}, &DownloadError{Err: err}
	}
	return sector, nil
}
