package encoder

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/sectorfarm/plotengine/internal/plotting"
)

func TestMock_EncodeSectorAssemblesSector(t *testing.T) {
	m := New()
	downloaded := plotting.DownloadedSector{Pieces: [][]byte{[]byte("aa"), []byte("bb")}}

	var sector, metadata []byte
	opts := plotting.EncodeSectorOptions{
		SectorIndex:    7,
		PiecesInSector: 2,
		Sector:         &sector,
		SectorMetadata: &metadata,
		Generators:     plotting.TableGeneratorSet{struct{}{}, struct{}{}},
		Abort:          plotting.NewAbortEarly(),
		GlobalMutex:    &sync.Mutex{},
	}

	plotted, err := m.EncodeSector(context.Background(), downloaded, opts)
	require.NoError(t, err)
	require.Equal(t, plotting.SectorIndex(7), plotted.SectorIndex)
	require.Equal(t, []uint64{14, 15}, plotted.PieceIndices)
	require.Equal(t, "aabb", string(sector))
	require.NotEmpty(t, metadata)
	require.NotZero(t, plotted.RecordsRoot)
}

func TestMock_EncodeSectorDeterministic(t *testing.T) {
	m := New()
	downloaded := plotting.DownloadedSector{Pieces: [][]byte{[]byte("xyz")}}

	run := func() plotting.PlottedSector {
		var sector, metadata []byte
		opts := plotting.EncodeSectorOptions{
			SectorIndex:    1,
			PiecesInSector: 1,
			Sector:         &sector,
			SectorMetadata: &metadata,
			Abort:          plotting.NewAbortEarly(),
			GlobalMutex:    &sync.Mutex{},
		}
		plotted, err := m.EncodeSector(context.Background(), downloaded, opts)
		require.NoError(t, err)
		return plotted
	}

	a := run()
	b := run()
	require.Equal(t, a.RecordsRoot, b.RecordsRoot)
}

func TestMock_EncodeSectorStopsOnAbort(t *testing.T) {
	m := &Mock{WorkPerGenerator: 50 * time.Millisecond}
	abort := plotting.NewAbortEarly()
	abort.Set()

	var sector, metadata []byte
	opts := plotting.EncodeSectorOptions{
		Generators:     plotting.TableGeneratorSet{struct{}{}},
		Abort:          abort,
		GlobalMutex:    &sync.Mutex{},
		Sector:         &sector,
		SectorMetadata: &metadata,
	}

	_, err := m.EncodeSector(context.Background(), plotting.DownloadedSector{}, opts)
	require.ErrorIs(t, err, plotting.ErrAbortEarly)
}

func TestMock_EncodeSectorStopsOnContextCancel(t *testing.T) {
	m := &Mock{}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var sector, metadata []byte
	opts := plotting.EncodeSectorOptions{
		Generators:     plotting.TableGeneratorSet{struct{}{}},
		Abort:          plotting.NewAbortEarly(),
		GlobalMutex:    &sync.Mutex{},
		Sector:         &sector,
		SectorMetadata: &metadata,
	}

	_, err := m.EncodeSector(ctx, plotting.DownloadedSector{}, opts)
	require.ErrorIs(t, err, context.Canceled)
}
