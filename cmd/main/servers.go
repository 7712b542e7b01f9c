package main

import (
	"context"
	"time"

	"rdm-dashboard/src/dashboard"
	"rdm-dashboard/src/grpc_control"
	"rdm-dashboard/src/interfaces"
	"rdm-dashboard/src/logger"
	"rdm-dashboard/src/models"

	"golang.org/x/sync/errgroup"
)

const (
	defaultGrpcPort = 50051
	cleanupInterval = time.Hour
)

// -----------------------------------------------------------------------------

// runServices starts the host server, the gRPC health server, the sync loop
// and the audit cleanup, and blocks until ctx ends or one of them fails.
func runServices(
	ctx context.Context,
	config *models.MConfig,
	srv interfaces.IDataExchanger,
	loop *dashboard.SyncLoop,
	health *grpc_control.ControlService,
	db interfaces.IDatabase,
	appLogger *logger.Logger,
) error {
	g, gctx := errgroup.WithContext(ctx)

	// 1. Dashboard Server
	g.Go(srv.Start)

	// 2. gRPC Health Server
	g.Go(func() error {
		port := config.GrpcPort
		if port == 0 {
			port = defaultGrpcPort
		}
		return health.Serve(config.GrpcHost, port)
	})

	// 3. Sync Loop
	if err := loop.Start(gctx); err != nil {
		return err
	}

	// 4. Audit Cleanup
	g.Go(func() error {
		runCleanup(gctx, db, appLogger)
		return nil
	})

	// 5. Shutdown
	g.Go(func() error {
		<-gctx.Done()
		appLogger.Info("Shutting down...")
		loop.Stop()
		health.Stop()
		return srv.Stop()
	})

	return g.Wait()
}

// -----------------------------------------------------------------------------

func runCleanup(ctx context.Context, db interfaces.IDatabase, appLogger *logger.Logger) {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for {
		if err := db.CleanupOldData(); err != nil {
			appLogger.Warning("Audit cleanup failed: %v", err)
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
