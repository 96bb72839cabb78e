// Package rpcmock is a benchmark-only stand-in for the farmer's node RPC
// client, grounded directly on bench_rpc_client.rs: it answers
// FarmerMetadata and BestBlockNumber from static state, exposes slot-info
// and archived-segment feeds as channels fed by the caller instead of by
// a live node connection, and panics on the calls a benchmark run never
// reaches, exactly as the original's unreachable!() arms do.
package rpcmock

import (
	"context"
	"math"

	"github.com/sectorfarm/plotengine/internal/plotting"
)

// SlotInfo is the minimal slot-notification payload the farmer reacts to.
type SlotInfo struct {
	SlotNumber uint64
}

// ArchivedSegment is one archived history segment made available for
// plotting.
type ArchivedSegment struct {
	SegmentIndex uint64
	Pieces       [][]byte
}

// SolutionResponse is submitted back to the node when a solution is
// found. A benchmark run never produces one.
type SolutionResponse struct {
	SlotNumber uint64
}

// Client implements the subset of the farmer's node RPC surface the
// plotting pipeline and its surrounding benchmark driver need.
type Client struct {
	metadata plotting.FarmerProtocolInfo

	slotInfo         chan SlotInfo
	archivedSegments chan ArchivedSegment
	acks             chan uint64
}

// New constructs a Client reporting the given protocol metadata. Feed
// slot info and archived segments into it with FeedSlotInfo and
// FeedArchivedSegment; a real benchmark driver typically does this from a
// single goroutine that paces a synthetic farming chain.
func New(metadata plotting.FarmerProtocolInfo) *Client {
	return &Client{
		metadata:         metadata,
		slotInfo:         make(chan SlotInfo, 10),
		archivedSegments: make(chan ArchivedSegment, 10),
		acks:             make(chan uint64, 1),
	}
}

// FeedSlotInfo delivers one slot notification to SubscribeSlotInfo's
// channel, blocking until delivered or ctx is done.
func (c *Client) FeedSlotInfo(ctx context.Context, info SlotInfo) error {
	select {
	case c.slotInfo <- info:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// FeedArchivedSegment delivers one archived segment to
// SubscribeArchivedSegments' channel, blocking until delivered or ctx is
// done.
func (c *Client) FeedArchivedSegment(ctx context.Context, segment ArchivedSegment) error {
	select {
	case c.archivedSegments <- segment:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// FarmerMetadata returns the static protocol info this Client was built
// with.
func (c *Client) FarmerMetadata(ctx context.Context) (plotting.FarmerProtocolInfo, error) {
	return c.metadata, nil
}

// BestBlockNumber doesn't matter for benchmarking, matching the
// original's comment verbatim in spirit: a benchmark run never checks it.
func (c *Client) BestBlockNumber(ctx context.Context) (uint64, error) {
	return math.MaxUint64, nil
}

// SubscribeSlotInfo returns the channel FeedSlotInfo delivers into.
func (c *Client) SubscribeSlotInfo(ctx context.Context) (<-chan SlotInfo, error) {
	return c.slotInfo, nil
}

// SubscribeArchivedSegments returns the channel FeedArchivedSegment
// delivers into.
func (c *Client) SubscribeArchivedSegments(ctx context.Context) (<-chan ArchivedSegment, error) {
	return c.archivedSegments, nil
}

// AcknowledgeArchivedSegment records that segmentIndex has been consumed.
func (c *Client) AcknowledgeArchivedSegment(ctx context.Context, segmentIndex uint64) error {
	select {
	case c.acks <- segmentIndex:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// SubmitSolutionResponse is unreachable: a benchmark run never starts
// farming, only plotting.
func (c *Client) SubmitSolutionResponse(ctx context.Context, _ SolutionResponse) error {
	panic("rpcmock: unreachable, benchmark runs never start farming")
}

// SubscribeBlockSigning is unreachable: a benchmark run never starts
// farming, only plotting.
func (c *Client) SubscribeBlockSigning(ctx context.Context) (<-chan struct{}, error) {
	panic("rpcmock: unreachable, benchmark runs never start farming")
}

// SubmitBlockSignature is unreachable: a benchmark run never starts
// farming, only plotting.
func (c *Client) SubmitBlockSignature(ctx context.Context, _ struct{}) error {
	panic("rpcmock: unreachable, benchmark runs never start farming")
}
