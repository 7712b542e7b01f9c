package interfaces

import (
	"context"

	"rdm-dashboard/src/models"
)

// -----------------------------------------------------------------------------
// IBackend is the aggregation endpoint as seen by the dashboard core.
// -----------------------------------------------------------------------------

type IBackend interface {

	// -----------------------------------------------------------------------------

	// FetchSnapshot issues one aggregation request.
	FetchSnapshot(ctx context.Context) (*models.MDashboardSnapshot, error)

	// -----------------------------------------------------------------------------

	// UpdateOrderStatus asks the backend to move an order to a new status.
	UpdateOrderStatus(ctx context.Context, orderID int64, status string) error

	// -----------------------------------------------------------------------------

	// UpdateAgentStatus asks the backend to change an agent's availability.
	UpdateAgentStatus(ctx context.Context, agentID int64, status string) error
}
