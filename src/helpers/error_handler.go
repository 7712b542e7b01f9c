package helpers

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"rdm-dashboard/src/logger"
)

// -----------------------------------------------------------------------------
// Custom Error Types
// -----------------------------------------------------------------------------

type DashboardError struct {
	Message string
	Cause   error
}

func (e *DashboardError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *DashboardError) Unwrap() error {
	return e.Cause
}

// TransportError: the request never produced a structured response
// (connection failure, timeout, non-2xx, undecodable body).
type TransportError struct{ DashboardError }

// ApplicationError: a structured response with success=false. Message is the
// backend-supplied text and may be empty.
type ApplicationError struct{ DashboardError }

func (e *ApplicationError) Error() string {
	if e.Message == "" {
		return "backend reported failure"
	}
	return e.Message
}

type ConfigurationError struct{ DashboardError }

// ErrConfirmationDeclined marks a user-initiated abort. It is not surfaced.
var ErrConfirmationDeclined = errors.New("confirmation declined")

// -----------------------------------------------------------------------------

func NewTransportError(operation string, cause error) *TransportError {
	return &TransportError{DashboardError{Message: fmt.Sprintf("%s failed", operation), Cause: cause}}
}

func NewApplicationError(message string) *ApplicationError {
	return &ApplicationError{DashboardError{Message: message}}
}

// IsTransport reports whether err is (or wraps) a TransportError
func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

// IsApplication reports whether err is (or wraps) an ApplicationError
func IsApplication(err error) bool {
	var ae *ApplicationError
	return errors.As(err, &ae)
}

// UserMessage picks the text to show for a failure: the backend message for
// application errors, otherwise the fallback (generic error string).
func UserMessage(err error, fallback string) string {
	var ae *ApplicationError
	if errors.As(err, &ae) && ae.Message != "" {
		return ae.Message
	}
	return fallback
}

// -----------------------------------------------------------------------------
// Retry Logic
// -----------------------------------------------------------------------------

// RetryWithBackoff attempts fn up to maxRetries times with exponential backoff.
// Only used for startup dependencies; dashboard requests are never retried.
func RetryWithBackoff(ctx context.Context, operation string, maxRetries int, baseDelay time.Duration, log *logger.Logger, fn func() error) error {
	var lastErr error

	for attempt := 0; attempt < maxRetries; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}

		lastErr = err
		if attempt == maxRetries-1 {
			break
		}

		delay := baseDelay * (1 << attempt)
		if log != nil {
			log.Warning("Attempt %d/%d failed for %s: %v. Retrying in %v", attempt+1, maxRetries, operation, err, delay)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operation, maxRetries, lastErr)
}

// -----------------------------------------------------------------------------
// Error Handler
// -----------------------------------------------------------------------------

type ErrorHandler struct {
	Logger     *logger.Logger
	ErrorCount atomic.Int64
}

func NewErrorHandler(log *logger.Logger) *ErrorHandler {
	return &ErrorHandler{Logger: log}
}

// -----------------------------------------------------------------------------

// ResetErrorCount starts a new run of consecutive failures.
func (e *ErrorHandler) ResetErrorCount() {
	e.ErrorCount.Store(0)
}

// -----------------------------------------------------------------------------

// Handle logs err with its category. Declines are ignored.
func (e *ErrorHandler) Handle(err error, where string) {
	if err == nil || errors.Is(err, ErrConfirmationDeclined) {
		return
	}
	e.ErrorCount.Add(1)
	switch {
	case IsTransport(err):
		e.Logger.Error("Transport error in %s: %v", where, err)
	case IsApplication(err):
		e.Logger.Warning("Backend rejected %s: %v", where, err)
	default:
		e.Logger.Error("Error in %s: %v", where, err)
	}
}
