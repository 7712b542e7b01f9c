package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"rdm-dashboard/src/backend"
	"rdm-dashboard/src/config"
	"rdm-dashboard/src/logger"
)

// Serves the aggregation endpoint the dashboard config points at, with demo data.
func main() {
	configPath := flag.String("config", "config/default.yaml", "path to config file")
	addr := flag.String("addr", "127.0.0.1:8081", "listen address")
	flag.Parse()

	conf, err := config.NewConfig(*configPath)
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}

	mockLogger := logger.NewLogger(conf.MConfig, "MockEndpoint")
	defer mockLogger.Sync()

	mock := backend.NewMockEndpoint(conf.Endpoint, mockLogger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		mock.Stop(shutdownCtx)
	}()

	if err := mock.Start(*addr); err != nil {
		mockLogger.Error("%v", err)
		os.Exit(1)
	}
}
