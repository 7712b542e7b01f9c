package interfaces

import "rdm-dashboard/src/models"

// -----------------------------------------------------------------------------
// IDatabase defines the contract for the audit store.
// -----------------------------------------------------------------------------

type IDatabase interface {

	// -----------------------------------------------------------------------------

	// Initialize sets up the database schema and tables.
	Initialize() error

	// -----------------------------------------------------------------------------

	// SaveFetchRecord stores the outcome of one aggregation fetch.
	SaveFetchRecord(rec models.MFetchRecord) error

	// -----------------------------------------------------------------------------

	// SaveActionRecord stores the outcome of one confirmed action.
	SaveActionRecord(rec models.MActionRecord) error

	// -----------------------------------------------------------------------------

	// RecentFetches returns the newest fetch records first.
	RecentFetches(limit int) ([]models.MFetchRecord, error)

	// -----------------------------------------------------------------------------

	// RecentActions returns the newest action records first.
	RecentActions(limit int) ([]models.MActionRecord, error)

	// -----------------------------------------------------------------------------

	// CleanupOldData removes records older than the retention policy.
	CleanupOldData() error

	// -----------------------------------------------------------------------------

	// Close the database connection
	Close() error
}
