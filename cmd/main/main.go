package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"rdm-dashboard/src/config"
	"rdm-dashboard/src/grpc_control"
	"rdm-dashboard/src/logger"
	"rdm-dashboard/src/server"
)

func main() {
	// 1. Parse command line flags
	configPath := flag.String("config", "config/default.yaml", "path to config file")
	flag.Parse()

	// 2. Load config
	conf, err := config.NewConfig(*configPath)
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}

	// 3. Setup Logger
	appLogger := logger.NewLogger(conf.MConfig, conf.Name)
	defer appLogger.Sync()

	// Lifecycle Management
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 4. Setup Components
	db, err := setupDatabase(ctx, conf.MConfig, appLogger)
	if err != nil {
		appLogger.Critical("Audit store unavailable: %v", err)
	}
	defer db.Close()

	backend := setupBackend(conf.MConfig)
	v := setupView(conf.MConfig)
	defer v.Close()

	loop := setupSyncLoop(conf.MConfig, backend, v, db)
	health := grpc_control.NewControlService(logger.NewLogger(conf.MConfig, "ControlService"))
	loop.AddObserver(health)

	disp := setupDispatcher(conf.MConfig, backend, loop, v, db)

	srv := server.NewDashboardServer(conf.MConfig, logger.NewLogger(conf.MConfig, "DashboardServer"), v, loop, disp, db)
	v.OnChange(srv.Broadcast)

	// 5. Run until a signal arrives or a service fails
	if err := runServices(ctx, conf.MConfig, srv, loop, health, db, appLogger); err != nil {
		appLogger.Critical("Service failed: %v", err)
	}
	appLogger.Info("Shutdown complete.")
}
