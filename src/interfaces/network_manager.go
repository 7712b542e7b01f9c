package interfaces

import (
	"context"
	"net/url"
)

// -----------------------------------------------------------------------------
// INetworkManager defines the contract for the single request/response transport.
// -----------------------------------------------------------------------------

type INetworkManager interface {

	// -----------------------------------------------------------------------------

	// PostForm sends a form-encoded POST and returns the body of a 2xx response.
	// Any other outcome is an error; nothing is retried.
	PostForm(ctx context.Context, url string, form url.Values) ([]byte, error)
}
