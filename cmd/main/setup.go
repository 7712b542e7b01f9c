package main

import (
	"context"
	"time"

	"rdm-dashboard/src/dashboard"
	"rdm-dashboard/src/dispatcher"
	"rdm-dashboard/src/helpers"
	"rdm-dashboard/src/interfaces"
	"rdm-dashboard/src/logger"
	"rdm-dashboard/src/models"
	"rdm-dashboard/src/network"
	"rdm-dashboard/src/render"
	"rdm-dashboard/src/storage"
	"rdm-dashboard/src/view"
)

// -----------------------------------------------------------------------------

// setupDatabase opens the audit store. Opening is retried: postgres may still
// be starting next to us.
func setupDatabase(ctx context.Context, config *models.MConfig, appLogger *logger.Logger) (interfaces.IDatabase, error) {
	dbLogger := logger.NewLogger(config, "AuditStore")
	db, err := storage.NewDatabase(config, dbLogger)
	if err != nil {
		return nil, err
	}

	err = helpers.RetryWithBackoff(ctx, "open audit store", 5, time.Second, appLogger, db.Initialize)
	if err != nil {
		return nil, err
	}
	return db, nil
}

// -----------------------------------------------------------------------------

// setupBackend builds the AJAX client for the aggregation endpoint
func setupBackend(config *models.MConfig) *network.AjaxClient {
	networkLogger := logger.NewLogger(config, "NetworkManager")
	nm := network.NewAsyncNetworkManager(config, networkLogger)
	return network.NewAjaxClient(config.Endpoint, nm, logger.NewLogger(config, "AjaxClient"))
}

// -----------------------------------------------------------------------------

func setupView(config *models.MConfig) *view.View {
	return view.NewView(logger.NewLogger(config, "View"))
}

// -----------------------------------------------------------------------------

// setupSyncLoop wires the loop with its renderer and the audit observer
func setupSyncLoop(config *models.MConfig, backend interfaces.IBackend, v *view.View, db interfaces.IDatabase) *dashboard.SyncLoop {
	loopLogger := logger.NewLogger(config, "SyncLoop")
	renderer := render.NewRenderer(config, logger.NewLogger(config, "Renderer"))

	loop := dashboard.NewSyncLoop(config, backend, v, renderer, loopLogger)
	loop.AddObserver(dashboard.NewAuditObserver(db, loopLogger))
	return loop
}

// -----------------------------------------------------------------------------

func setupDispatcher(config *models.MConfig, backend interfaces.IBackend, loop interfaces.ISyncLoop, v *view.View, db interfaces.IDatabase) *dispatcher.Dispatcher {
	disp := dispatcher.NewDispatcher(backend, loop, v, render.Strings(config.Strings), logger.NewLogger(config, "Dispatcher"))
	disp.DB = db
	return disp
}
