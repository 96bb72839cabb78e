package threadpoolmgr

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNew_RejectsZeroPairs(t *testing.T) {
	_, err := New(0, nil)
	require.Error(t, err)
}

func TestManager_HandsOutDistinctPairs(t *testing.T) {
	m, err := New(2, nil)
	require.NoError(t, err)
	defer m.Close()

	ctx := context.Background()
	a, err := m.GetThreadPools(ctx)
	require.NoError(t, err)
	b, err := m.GetThreadPools(ctx)
	require.NoError(t, err)

	require.NotEqual(t, a.Index(), b.Index())
}

func TestManager_GetThreadPoolsBlocksUntilReleased(t *testing.T) {
	m, err := New(1, nil)
	require.NoError(t, err)
	defer m.Close()

	ctx := context.Background()
	pair, err := m.GetThreadPools(ctx)
	require.NoError(t, err)

	acquired := make(chan struct{})
	go func() {
		ctx2, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		second, err := m.GetThreadPools(ctx2)
		require.NoError(t, err)
		second.Release()
		close(acquired)
	}()

	select {
	case <-acquired:
		t.Fatal("second GetThreadPools returned before the first pair was released")
	case <-time.After(50 * time.Millisecond):
	}

	pair.Release()

	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatal("second GetThreadPools never unblocked after release")
	}
}

func TestManager_GetThreadPoolsRespectsContext(t *testing.T) {
	m, err := New(1, nil)
	require.NoError(t, err)
	defer m.Close()

	pair, err := m.GetThreadPools(context.Background())
	require.NoError(t, err)
	defer pair.Release()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = m.GetThreadPools(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestPoolPair_PlottingAndReplottingAreIndependent(t *testing.T) {
	m, err := New(1, nil)
	require.NoError(t, err)
	defer m.Close()

	pair, err := m.GetThreadPools(context.Background())
	require.NoError(t, err)
	defer pair.Release()

	var wg sync.WaitGroup
	wg.Add(2)
	var plottingRan, replottingRan bool
	go func() {
		defer wg.Done()
		_ = pair.Plotting().Install(context.Background(), func() { plottingRan = true })
	}()
	go func() {
		defer wg.Done()
		_ = pair.Replotting().Install(context.Background(), func() { replottingRan = true })
	}()
	wg.Wait()

	require.True(t, plottingRan)
	require.True(t, replottingRan)
}

func TestPoolPair_ReleaseIsIdempotent(t *testing.T) {
	m, err := New(1, nil)
	require.NoError(t, err)
	defer m.Close()

	pair, err := m.GetThreadPools(context.Background())
	require.NoError(t, err)

	require.NotPanics(t, func() {
		pair.Release()
		pair.Release()
	})

	// A double release must put the single slot back on the free-list only
	// once: the first acquisition succeeds and the second one waits.
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	first, err := m.GetThreadPools(ctx)
	require.NoError(t, err)
	defer first.Release()

	ctx2, cancel2 := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel2()
	_, err = m.GetThreadPools(ctx2)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestManager_CloseStopsInstall(t *testing.T) {
	m, err := New(1, nil)
	require.NoError(t, err)

	pair, err := m.GetThreadPools(context.Background())
	require.NoError(t, err)

	m.Close()

	err = pair.Plotting().Install(context.Background(), func() {})
	require.Error(t, err)
}
