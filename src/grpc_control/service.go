package grpc_control

import (
	"fmt"
	"net"
	"sync"

	"rdm-dashboard/src/dashboard"
	"rdm-dashboard/src/logger"
	"rdm-dashboard/src/models"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// SyncService is the health service name that tracks the sync loop.
const SyncService = "rdm.dashboard.Sync"

// DefaultFailureThreshold is how many consecutive failed fetches flip the
// sync service to NOT_SERVING.
const DefaultFailureThreshold = 1

// ControlService reports dashboard health over the standard gRPC health
// protocol. The empty service name covers the whole process.
type ControlService struct {
	Logger           *logger.Logger
	Health           *health.Server
	FailureThreshold int

	mu       sync.Mutex
	failures int
	server   *grpc.Server
	stopped  bool
}

// NewControlService creates the service with everything SERVING.
func NewControlService(log *logger.Logger) *ControlService {
	s := &ControlService{
		Logger:           log,
		Health:           health.NewServer(),
		FailureThreshold: DefaultFailureThreshold,
	}
	s.Health.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	s.Health.SetServingStatus(SyncService, healthpb.HealthCheckResponse_SERVING)
	return s
}

// -----------------------------------------------------------------------------

// OnFetchComplete tracks consecutive fetch failures. Stale responses count as
// success: the endpoint answered.
func (s *ControlService) OnFetchComplete(rec models.MFetchRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if rec.Outcome != dashboard.OutcomeError {
		if s.failures >= s.FailureThreshold {
			s.Logger.Info("Sync recovered after %d failed fetches", s.failures)
		}
		s.failures = 0
		s.Health.SetServingStatus(SyncService, healthpb.HealthCheckResponse_SERVING)
		return
	}

	s.failures++
	if s.failures == s.FailureThreshold {
		s.Logger.Warning("Sync degraded: %d consecutive failed fetches (last: %s)", s.failures, rec.Message)
		s.Health.SetServingStatus(SyncService, healthpb.HealthCheckResponse_NOT_SERVING)
	}
}

// Failures returns the current run of failed fetches.
func (s *ControlService) Failures() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.failures
}

// -----------------------------------------------------------------------------

// Register attaches the health service to srv.
func (s *ControlService) Register(srv *grpc.Server) {
	healthpb.RegisterHealthServer(srv, s.Health)
}

// Serve listens on host:port and blocks until Stop.
func (s *ControlService) Serve(host string, port int) error {
	lis, err := net.Listen("tcp", fmt.Sprintf("%s:%d", host, port))
	if err != nil {
		return fmt.Errorf("failed to listen for gRPC: %w", err)
	}
	return s.ServeListener(lis)
}

// ServeListener serves on an existing listener and blocks until Stop.
func (s *ControlService) ServeListener(lis net.Listener) error {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		lis.Close()
		return nil
	}
	srv := grpc.NewServer()
	s.Register(srv)
	s.server = srv
	s.mu.Unlock()

	s.Logger.Info("Starting gRPC health server on %s", lis.Addr())
	return srv.Serve(lis)
}

// Stop marks every service NOT_SERVING and drains the server.
func (s *ControlService) Stop() {
	s.Health.Shutdown()

	s.mu.Lock()
	s.stopped = true
	srv := s.server
	s.mu.Unlock()
	if srv != nil {
		srv.GracefulStop()
	}
}
