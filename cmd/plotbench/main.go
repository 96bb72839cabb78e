// Command plotbench drives the plotting engine against mock collaborators
// (piecegetter.Mock, encoder.Mock, threadpoolmgr.Manager, rpcmock.Client)
// so its throughput and concurrency behaviour can be exercised without a
// live farming node or real erasure coding, mirroring the role
// subspace-farmer's bench_rpc_client.rs plays for its own CLI benchmarks.
package main

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/erigontech/erigon-lib/common"
	"github.com/erigontech/erigon-lib/log/v3"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/sectorfarm/plotengine/internal/config"
	"github.com/sectorfarm/plotengine/internal/encoder"
	"github.com/sectorfarm/plotengine/internal/piecegetter"
	"github.com/sectorfarm/plotengine/internal/plotting"
	"github.com/sectorfarm/plotengine/internal/rpcmock"
	"github.com/sectorfarm/plotengine/internal/threadpoolmgr"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "plotbench",
	Short: "Benchmark the sector plotting engine against mock collaborators",
	RunE:  runBench,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to a TOML config file (defaults built in if unset)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Root().Error("plotbench: fatal", "err", err)
	}
}

func runBench(cmd *cobra.Command, args []string) error {
	logger := log.Root()

	cfg := config.Default()
	if configPath != "" {
		loaded, err := config.Load(configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}

	ctx, cancel := common.RootContext()
	defer cancel()

	pools, err := threadpoolmgr.New(cfg.Engine.ThreadPoolPairs, logger)
	if err != nil {
		return fmt.Errorf("plotbench: %w", err)
	}
	defer pools.Close()

	getter, err := piecegetter.New(cfg.Sectors.PieceSizeBytes, cfg.Sectors.PieceCacheSize)
	if err != nil {
		return fmt.Errorf("plotbench: %w", err)
	}

	rpc := rpcmock.New(plotting.FarmerProtocolInfo{
		RecordSize:       uint64(cfg.Sectors.PieceSizeBytes),
		RecordsPerSector: uint64(cfg.Sectors.PiecesPerSector),
	})
	protocolInfo, err := rpc.FarmerMetadata(ctx)
	if err != nil {
		return fmt.Errorf("plotbench: %w", err)
	}

	plotter, err := plotting.NewPlotter(plotting.Config{
		PieceGetter:                  getter,
		Encoder:                      encoder.New(),
		ThreadPools:                  pools,
		RecordEncodingConcurrency:    cfg.Engine.RecordEncodingConcurrency,
		GlobalMutex:                  &sync.Mutex{},
		DownloadingSemaphoreCapacity: cfg.Engine.DownloadingSemaphoreCapacity,
		Logger:                       logger,
	})
	if err != nil {
		return fmt.Errorf("plotbench: %w", err)
	}
	defer plotter.Close()

	var finished sync.WaitGroup
	finished.Add(cfg.Sectors.Count)

	sub := plotter.OnPlottingProgress(func(pubKey plotting.PublicKey, sector plotting.SectorIndex, progress plotting.SectorPlottingProgress) {
		switch progress.Kind {
		case plotting.Finished:
			logger.Info("sector plotted", "sector", sector, "duration", progress.TotalDuration)
			finished.Done()
		case plotting.Error:
			logger.Warn("sector failed", "sector", sector, "err", progress.Message)
			finished.Done()
		}
	})
	defer sub.Unsubscribe()

	// PlotSector blocks its caller until the request has been admitted
	// (or rejected), so submission itself is fanned out through an
	// errgroup rather than a plain loop: otherwise a full downloading
	// semaphore would serialize every later sector behind admission of
	// the earlier ones instead of just queuing for a permit.
	start := time.Now()
	var submit errgroup.Group
	for i := 0; i < cfg.Sectors.Count; i++ {
		i := i
		submit.Go(func() error {
			req := plotting.SectorRequest{
				SectorIndex:    plotting.SectorIndex(i),
				ProtocolInfo:   protocolInfo,
				PiecesInSector: cfg.Sectors.PiecesPerSector,
			}
			plotter.PlotSector(ctx, req, nil)
			return nil
		})
	}
	_ = submit.Wait()

	done := make(chan struct{})
	go func() {
		finished.Wait()
		close(done)
	}()

	select {
	case <-done:
		logger.Info("plotbench run complete", "sectors", cfg.Sectors.Count, "elapsed", time.Since(start))
	case <-ctx.Done():
		logger.Warn("plotbench interrupted", "elapsed", time.Since(start))
	}
	return nil
}
