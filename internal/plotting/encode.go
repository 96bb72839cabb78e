package plotting

import (
	"context"
	"errors"
	"fmt"
	"runtime"
)

// encodeSector runs the encode stage for one job. It yields once before
// picking a pool so that a teardown racing with a long encode has a
// chance to observe AbortEarly first, then submits the encoder closure to
// the plotting or replotting pool according to req.Replotting. A panic
// inside the encoder is recovered here (not relied upon from Pool.Install)
// so that the caller's deferred generator/pool-pair release always runs.
func encodeSector(
	ctx context.Context,
	enc Encoder,
	pair PoolPair,
	generators TableGeneratorSet,
	abort *AbortEarly,
	mu GlobalMutex,
	erasureCoding ErasureCoding,
	req SectorRequest,
	downloaded DownloadedSector,
	sector, sectorMetadata *[]byte,
) (PlottedSector, error) {
	runtime.Gosched()

	pool := pair.Plotting()
	if req.Replotting {
		pool = pair.Replotting()
	}

	var (
		result PlottedSector
		encErr error
	)
	installErr := pool.Install(ctx, func() {
		defer func() {
			if r := recover(); r != nil {
				encErr = fmt.Errorf("plotting: encoder panicked: %v", r)
			}
		}()
		result, encErr = enc.EncodeSector(ctx, downloaded, EncodeSectorOptions{
			SectorIndex:    req.SectorIndex,
			ErasureCoding:  erasureCoding,
			PiecesInSector: req.PiecesInSector,
			Sector:         sector,
			SectorMetadata: sectorMetadata,
			Generators:     generators,
			Abort:          abort,
			GlobalMutex:    mu,
		})
	})
	if installErr != nil {
		return PlottedSector{}, installErr
	}
	if encErr != nil {
		if errors.Is(encErr, ErrAbortEarly) {
			return PlottedSector{}, ErrAbortEarly
		}
		return PlottedSector{}, &EncodeError{Err: encErr}
	}
	return result, nil
}
