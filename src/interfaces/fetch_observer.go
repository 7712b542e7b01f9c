package interfaces

import "rdm-dashboard/src/models"

// -----------------------------------------------------------------------------
// IFetchObserver is told about every completed aggregation fetch.
// -----------------------------------------------------------------------------

type IFetchObserver interface {
	// OnFetchComplete runs on the fetching goroutine after the view was updated.
	OnFetchComplete(rec models.MFetchRecord)
}
