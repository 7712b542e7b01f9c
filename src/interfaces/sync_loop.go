package interfaces

import "context"

// -----------------------------------------------------------------------------
// ISyncLoop is the part of the dashboard sync loop other components drive.
// -----------------------------------------------------------------------------

type ISyncLoop interface {

	// -----------------------------------------------------------------------------

	// Refresh runs a full manual fetch and render.
	Refresh(ctx context.Context) error

	// -----------------------------------------------------------------------------

	// ShowError surfaces msg through the shared notice.
	ShowError(msg string)
}
