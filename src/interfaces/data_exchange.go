package interfaces

import "rdm-dashboard/src/models"

// -----------------------------------------------------------------------------
// IDataExchanger pushes view updates to connected host pages.
// -----------------------------------------------------------------------------

type IDataExchanger interface {
	// -----------------------------------------------------------------------------
	// Broadcast sends a view update to every listener.
	Broadcast(view models.MViewState)

	// -----------------------------------------------------------------------------
	// Start the server
	Start() error

	// -----------------------------------------------------------------------------
	// Stop the server gracefully
	Stop() error
}
