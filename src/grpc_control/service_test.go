package grpc_control

import (
	"context"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/test/bufconn"

	"rdm-dashboard/src/dashboard"
	"rdm-dashboard/src/logger"
	"rdm-dashboard/src/models"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newTestService() *ControlService {
	return NewControlService(logger.FromZap(zap.NewNop(), "grpc"))
}

func syncStatus(t *testing.T, s *ControlService) healthpb.HealthCheckResponse_ServingStatus {
	t.Helper()
	resp, err := s.Health.Check(context.Background(), &healthpb.HealthCheckRequest{Service: SyncService})
	require.NoError(t, err)
	return resp.Status
}

func failed() models.MFetchRecord {
	return models.MFetchRecord{Outcome: dashboard.OutcomeError, Message: "Nonce expired"}
}

// -----------------------------------------------------------------------------

func TestSyncHealthFollowsFetchOutcomes(t *testing.T) {
	s := newTestService()
	s.FailureThreshold = 3
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, syncStatus(t, s))

	s.OnFetchComplete(failed())
	s.OnFetchComplete(failed())
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, syncStatus(t, s), "below threshold")
	assert.Equal(t, 2, s.Failures())

	s.OnFetchComplete(failed())
	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, syncStatus(t, s))

	s.OnFetchComplete(models.MFetchRecord{Outcome: dashboard.OutcomeStale})
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, syncStatus(t, s))
	assert.Zero(t, s.Failures())
}

func TestHealthOverGRPC(t *testing.T) {
	s := newTestService()
	lis := bufconn.Listen(1 << 20)

	served := make(chan error, 1)
	go func() { served <- s.ServeListener(lis) }()

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)

	client := healthpb.NewHealthClient(conn)
	resp, err := client.Check(context.Background(), &healthpb.HealthCheckRequest{})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, resp.Status)

	for i := 0; i < DefaultFailureThreshold; i++ {
		s.OnFetchComplete(failed())
	}
	resp, err = client.Check(context.Background(), &healthpb.HealthCheckRequest{Service: SyncService})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, resp.Status)

	require.NoError(t, conn.Close())
	s.Stop()
	require.NoError(t, <-served)
}

func TestStopBeforeServe(t *testing.T) {
	s := newTestService()
	s.Stop()
	assert.NoError(t, s.ServeListener(bufconn.Listen(1024)))

	resp, err := s.Health.Check(context.Background(), &healthpb.HealthCheckRequest{})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, resp.Status)
}
