package plotting

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	kzg "github.com/crate-crypto/go-kzg-4844"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/erigontech/erigon-lib/log/v3"
)

// Config holds everything Plotter needs at construction time. Logger,
// MetricsRegisterer and NewTableGenerator are optional. NewPlotter rejects
// a nil ThreadPools or GlobalMutex and a non-positive
// RecordEncodingConcurrency; the remaining fields are used as given.
type Config struct {
	PieceGetter               PieceGetter
	Encoder                   Encoder
	ThreadPools               ThreadPoolManager
	RecordEncodingConcurrency int
	GlobalMutex               GlobalMutex
	ErasureCoding             ErasureCoding
	KZG                       *kzg.Context

	// DownloadingSemaphoreCapacity bounds concurrent downloads (and,
	// transitively, concurrent in-flight jobs, since a permit is held
	// across both stages).
	DownloadingSemaphoreCapacity int64

	// NewTableGenerator constructs one opaque TableGenerator; called
	// ThreadPools.ThreadPoolPairs() * RecordEncodingConcurrency times at
	// construction. Defaults to a no-op placeholder if nil.
	NewTableGenerator func() TableGenerator

	Logger            log.Logger
	MetricsRegisterer prometheus.Registerer
}

// Plotter is the engine's facade: it accepts PlotSector calls, enforces
// admission, drives the per-sector pipeline, and publishes progress. See
// spec.md §4.1.
type Plotter struct {
	logger  log.Logger
	metrics *engineMetrics

	pieceGetter   PieceGetter
	encoder       Encoder
	threadPools   ThreadPoolManager
	generators    *TableGeneratorPool
	globalMu      GlobalMutex
	erasureCoding ErasureCoding
	kzg           *kzg.Context

	downloadSem *downloadingSemaphore

	abort      *AbortEarly
	supervisor *supervisor
	progress   *progressRegistry

	rootCtx    context.Context
	rootCancel context.CancelFunc

	nextJobID atomic.Uint64
}

// NewPlotter allocates the full TableGeneratorPool eagerly, starts the
// background supervisor, and returns a ready-to-use engine with
// AbortEarly clear.
func NewPlotter(cfg Config) (*Plotter, error) {
	if cfg.RecordEncodingConcurrency <= 0 {
		return nil, fmt.Errorf("plotting: record encoding concurrency must be nonzero")
	}
	if cfg.ThreadPools == nil {
		return nil, fmt.Errorf("plotting: thread pool manager is required")
	}
	pairs := cfg.ThreadPools.ThreadPoolPairs()
	if pairs <= 0 {
		return nil, fmt.Errorf("plotting: thread pool manager reports zero pairs")
	}
	if cfg.GlobalMutex == nil {
		return nil, fmt.Errorf("plotting: global mutex is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = log.Root()
	}
	newGen := cfg.NewTableGenerator
	if newGen == nil {
		newGen = func() TableGenerator { return struct{}{} }
	}

	rootCtx, rootCancel := context.WithCancel(context.Background())

	return &Plotter{
		logger:        logger,
		metrics:       newEngineMetrics(cfg.MetricsRegisterer),
		pieceGetter:   cfg.PieceGetter,
		encoder:       cfg.Encoder,
		threadPools:   cfg.ThreadPools,
		generators:    NewTableGeneratorPool(pairs, cfg.RecordEncodingConcurrency, newGen),
		globalMu:      cfg.GlobalMutex,
		erasureCoding: cfg.ErasureCoding,
		kzg:           cfg.KZG,
		downloadSem:   newDownloadingSemaphore(cfg.DownloadingSemaphoreCapacity),
		abort:         NewAbortEarly(),
		supervisor:    newSupervisor(logger),
		progress:      newProgressRegistry(),
		rootCtx:       rootCtx,
		rootCancel:    rootCancel,
	}, nil
}

// OnPlottingProgress registers a callback receiving every progress event
// for every sector plotted by this engine. Unsubscribe via the returned
// token's Unsubscribe method.
func (p *Plotter) OnPlottingProgress(h ProgressHandler) *Subscription {
	return p.progress.Subscribe(h)
}

// PlotSector is fire-and-forget: it returns once the request has been
// admitted (or rejected, with a single Error event). It does not wait for
// the job itself to finish.
func (p *Plotter) PlotSector(ctx context.Context, req SectorRequest, sink ProgressSink) {
	release, err := p.downloadSem.acquire(ctx)
	if err != nil {
		p.logger.Warn("plotting: admission failed", "sector", req.SectorIndex, "err", err)
		p.emit(req, sink, SectorPlottingProgress{Kind: Error, Message: err.Error()})
		return
	}

	jobCtx, cancel := context.WithCancel(p.rootCtx)
	id := p.nextJobID.Add(1)
	if err := p.supervisor.enroll(&supervisedJob{id: id, cancel: cancel}); err != nil {
		cancel()
		release()
		p.logger.Warn("plotting: could not enroll job with supervisor", "sector", req.SectorIndex, "err", err)
		// The sink may already be gone in this failure mode (spec.md §4.1,
		// guarantee 2); handlers must still observe it.
		p.progress.Notify(req.PublicKey, req.SectorIndex, SectorPlottingProgress{Kind: Error, Message: err.Error()})
		return
	}

	go p.runJob(jobCtx, id, req, sink, release)
}

// Close tears the engine down: AbortEarly is set so the encoder stops at
// its next poll, the downloading semaphore stops accepting admissions,
// and every in-flight job is cancelled via the supervisor. No new
// PlotSector call progresses past admission afterwards.
func (p *Plotter) Close() {
	p.abort.Set()
	p.downloadSem.close()
	p.rootCancel()
	p.supervisor.close()
}

// emit publishes progress to registered handlers first, then to sink (if
// non-nil), per spec.md §4.1. It returns the sink to keep using for
// subsequent events of this call — nil once the sink has failed, so the
// job stops sending to it without affecting handler delivery.
func (p *Plotter) emit(req SectorRequest, sink ProgressSink, progress SectorPlottingProgress) ProgressSink {
	p.progress.Notify(req.PublicKey, req.SectorIndex, progress)
	if sink == nil {
		return nil
	}
	if err := sink.Send(progress); err != nil {
		p.logger.Debug("plotting: progress sink closed", "sector", req.SectorIndex, "kind", progress.Kind.String(), "err", err)
		return nil
	}
	return sink
}

// runJob drives one admitted request through download then encode,
// publishing progress at every transition, and unconditionally releases
// the download permit and marks itself done with the supervisor on every
// exit path.
func (p *Plotter) runJob(ctx context.Context, id uint64, req SectorRequest, sink ProgressSink, release func()) {
	defer p.supervisor.markDone(id)
	defer release()

	start := time.Now()

	sink = p.emit(req, sink, SectorPlottingProgress{Kind: Downloading})

	p.metrics.activeDownloads.Inc()
	downloadStart := time.Now()
	downloaded, err := downloadSector(ctx, p.pieceGetter, req, p.globalMu, p.kzg)
	p.metrics.activeDownloads.Dec()
	if err != nil {
		p.metrics.sectorErrors.Inc()
		p.emit(req, sink, SectorPlottingProgress{Kind: Error, Message: err.Error()})
		return
	}
	sink = p.emit(req, sink, SectorPlottingProgress{Kind: Downloaded, Duration: time.Since(downloadStart)})

	if p.abort.IsSet() {
		return
	}

	pair, err := p.threadPools.GetThreadPools(ctx)
	if err != nil {
		p.metrics.sectorErrors.Inc()
		p.emit(req, sink, SectorPlottingProgress{Kind: Error, Message: err.Error()})
		return
	}
	defer pair.Release()

	generators, err := p.generators.Pop(pair.Index())
	if err != nil {
		p.metrics.sectorErrors.Inc()
		p.emit(req, sink, SectorPlottingProgress{Kind: Error, Message: err.Error()})
		return
	}
	defer p.generators.Push(pair.Index(), generators)

	sink = p.emit(req, sink, SectorPlottingProgress{Kind: Encoding})

	p.metrics.activeEncodes.Inc()
	encodeStart := time.Now()
	var sectorBytes, sectorMetadata []byte
	plotted, err := encodeSector(ctx, p.encoder, pair, generators, p.abort, p.globalMu, p.erasureCoding, req, downloaded, &sectorBytes, &sectorMetadata)
	p.metrics.activeEncodes.Dec()
	if err != nil {
		if errors.Is(err, ErrAbortEarly) {
			return
		}
		p.metrics.sectorErrors.Inc()
		p.emit(req, sink, SectorPlottingProgress{Kind: Error, Message: err.Error()})
		return
	}
	sink = p.emit(req, sink, SectorPlottingProgress{Kind: Encoded, Duration: time.Since(encodeStart)})

	p.metrics.sectorsPlotted.Inc()
	totalDuration := time.Since(start)
	p.metrics.plotDuration.Observe(totalDuration.Seconds())
	p.emit(req, sink, SectorPlottingProgress{
		Kind:           Finished,
		PlottedSector:  plotted,
		TotalDuration:  totalDuration,
		Sector:         sectorBytes,
		SectorMetadata: sectorMetadata,
	})
}
