package rpcmock

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sectorfarm/plotengine/internal/plotting"
)

func TestClient_FarmerMetadataReturnsConstructedValue(t *testing.T) {
	info := plotting.FarmerProtocolInfo{RecordSize: 4096}
	c := New(info)

	got, err := c.FarmerMetadata(context.Background())
	require.NoError(t, err)
	require.Equal(t, info, got)
}

func TestClient_FeedAndSubscribeSlotInfo(t *testing.T) {
	c := New(plotting.FarmerProtocolInfo{})
	ch, err := c.SubscribeSlotInfo(context.Background())
	require.NoError(t, err)

	require.NoError(t, c.FeedSlotInfo(context.Background(), SlotInfo{SlotNumber: 42}))

	select {
	case info := <-ch:
		require.Equal(t, uint64(42), info.SlotNumber)
	default:
		t.Fatal("slot info was not delivered")
	}
}

func TestClient_SubmitSolutionResponsePanics(t *testing.T) {
	c := New(plotting.FarmerProtocolInfo{})
	require.Panics(t, func() {
		_ = c.SubmitSolutionResponse(context.Background(), SolutionResponse{})
	})
}
