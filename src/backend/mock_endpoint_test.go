package backend

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"

	"rdm-dashboard/src/config"
	"rdm-dashboard/src/dashboard"
	"rdm-dashboard/src/dispatcher"
	"rdm-dashboard/src/helpers"
	"rdm-dashboard/src/logger"
	"rdm-dashboard/src/models"
	"rdm-dashboard/src/network"
	"rdm-dashboard/src/render"
	"rdm-dashboard/src/view"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m,
		goleak.IgnoreTopFunction("internal/poll.runtime_pollWait"),
		goleak.IgnoreTopFunction("net/http.(*persistConn).readLoop"),
		goleak.IgnoreTopFunction("net/http.(*persistConn).writeLoop"),
	)
}

type fixture struct {
	mock   *MockEndpoint
	client *network.AjaxClient
	cfg    *models.MConfig
	log    *logger.Logger
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	log := logger.FromZap(zap.NewNop(), "mock")
	cfg := &models.MConfig{Strings: map[string]string{}}
	for k, v := range config.DefaultStrings {
		cfg.Strings[k] = v
	}
	cfg.Network.RequestTimeout = 2
	cfg.Dashboard.PollIntervalSeconds = 3600
	cfg.Endpoint = models.MEndpointConfig{
		Nonce:             "n0nce",
		AggregateAction:   config.DefaultAggregateAction,
		OrderStatusAction: config.DefaultOrderStatusAction,
		AgentStatusAction: config.DefaultAgentStatusAction,
	}

	mock := NewMockEndpoint(cfg.Endpoint, log)
	srv := httptest.NewServer(mock.Handler())
	t.Cleanup(srv.Close)

	cfg.Endpoint.URL = srv.URL + DefaultPath
	client := network.NewAjaxClient(cfg.Endpoint, network.NewAsyncNetworkManager(cfg, log), log)
	return &fixture{mock: mock, client: client, cfg: cfg, log: log}
}

// -----------------------------------------------------------------------------

func TestAggregateSnapshot(t *testing.T) {
	f := newFixture(t)

	snap, err := f.client.FetchSnapshot(context.Background())
	require.NoError(t, err)

	total, _ := snap.Stats["total_orders"].Value.Float()
	assert.Equal(t, float64(6), total)
	active, _ := snap.Stats["active_orders"].Value.Float()
	assert.Equal(t, float64(4), active)
	assert.Equal(t, "Revenue", snap.Stats["revenue"].Label)

	require.Len(t, snap.RecentOrders, 6)
	assert.Equal(t, int64(1006), snap.RecentOrders[0].OrderID, "newest first")

	require.Len(t, snap.AgentStatus, 3)
	assert.Equal(t, models.MCount(1), snap.AgentStatus[0].ActiveDeliveries)
	assert.Len(t, snap.SystemStatus["database"].Details, 2)
	assert.Equal(t, 1, f.mock.Calls(config.DefaultAggregateAction))
}

func TestBadNonceIsApplicationFailure(t *testing.T) {
	f := newFixture(t)
	endpoint := f.cfg.Endpoint
	endpoint.Nonce = "expired"
	client := network.NewAjaxClient(endpoint, network.NewAsyncNetworkManager(f.cfg, f.log), f.log)

	_, err := client.FetchSnapshot(context.Background())
	require.Error(t, err)
	assert.True(t, helpers.IsApplication(err))
	assert.Equal(t, "Security check failed", helpers.UserMessage(err, ""))
}

func TestUnknownActionIsTransportFailure(t *testing.T) {
	f := newFixture(t)

	_, err := f.client.Call(context.Background(), "rdm_unknown", nil)
	require.Error(t, err)
	assert.True(t, helpers.IsTransport(err))
}

func TestOrderStatusUpdates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.client.UpdateOrderStatus(ctx, 1001, "preparing"))
	order, ok := f.mock.Order(1001)
	require.True(t, ok)
	assert.Equal(t, "preparing", order.Status)

	cases := []struct {
		id      int64
		status  string
		message string
	}{
		{id: 9999, status: "ready", message: "Order not found"},
		{id: 1001, status: "teleported", message: "Invalid status"},
		{id: 0, status: "ready", message: "Invalid order ID"},
	}
	for _, tc := range cases {
		err := f.client.UpdateOrderStatus(ctx, tc.id, tc.status)
		require.Error(t, err)
		assert.Equal(t, tc.message, helpers.UserMessage(err, ""))
	}
}

func TestAgentStatusUpdates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.client.UpdateAgentStatus(ctx, 13, "online"))
	agent, _ := f.mock.Agent(13)
	assert.Equal(t, "online", agent.Status)

	err := f.client.UpdateAgentStatus(ctx, 13, "Online")
	assert.Equal(t, "Invalid status", helpers.UserMessage(err, ""), "availability is case-sensitive")
	err = f.client.UpdateAgentStatus(ctx, 99, "busy")
	assert.Equal(t, "Agent not found", helpers.UserMessage(err, ""))
}

func TestFailWith(t *testing.T) {
	f := newFixture(t)
	f.mock.FailWith("Maintenance mode")

	_, err := f.client.FetchSnapshot(context.Background())
	assert.Equal(t, "Maintenance mode", helpers.UserMessage(err, ""))

	f.mock.FailWith("")
	_, err = f.client.FetchSnapshot(context.Background())
	assert.NoError(t, err)
}

// -----------------------------------------------------------------------------
// End to end: loop and dispatcher against the mock endpoint
// -----------------------------------------------------------------------------

func TestDispatchRefreshesView(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	v := view.NewView(f.log)
	t.Cleanup(v.Close)
	loop := dashboard.NewSyncLoop(f.cfg, f.client, v, render.NewRenderer(f.cfg, f.log), f.log)
	disp := dispatcher.NewDispatcher(f.client, loop, v, render.Strings(f.cfg.Strings), f.log)

	require.NoError(t, loop.Refresh(ctx))
	orders, _ := v.Section(models.SlotRecentOrders)
	assert.Contains(t, string(orders), `rdm-order-status pending`)

	var prompt string
	err := disp.Dispatch(ctx, models.ActionOrderStatus, 1001, "delivered", "", func(p string) bool {
		prompt = p
		return true
	})
	require.NoError(t, err)
	assert.Equal(t, config.DefaultStrings["confirm_order_status"], prompt)

	orders, _ = v.Section(models.SlotRecentOrders)
	assert.NotContains(t, string(orders), `rdm-order-status pending`)
	assert.Equal(t, 2, f.mock.Calls(config.DefaultAggregateAction), "one refresh after the action")
	assert.Empty(t, v.State().DisabledControls)

	err = disp.Dispatch(ctx, models.ActionAgentStatus, 11, "offline", "", func(string) bool { return false })
	assert.ErrorIs(t, err, helpers.ErrConfirmationDeclined)
	assert.Zero(t, f.mock.Calls(config.DefaultAgentStatusAction))
}
