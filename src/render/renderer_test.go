package render

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"rdm-dashboard/src/config"
	"rdm-dashboard/src/logger"
	"rdm-dashboard/src/models"
)

func newTestRenderer(t *testing.T) (*Renderer, *observer.ObservedLogs) {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	cfg := &models.MConfig{Strings: map[string]string{}}
	for k, v := range config.DefaultStrings {
		cfg.Strings[k] = v
	}
	cfg.Dashboard.CurrencySymbol = "$"
	cfg.Dashboard.OrderActions = []string{"preparing", "ready", "out-for-delivery", "delivered"}
	return NewRenderer(cfg, logger.FromZap(zap.New(core), "render")), logs
}

func trend(f float64) *models.MScalar {
	s := models.NumberScalar(f)
	return &s
}

// -----------------------------------------------------------------------------

func TestStatsTrendIndicators(t *testing.T) {
	r, _ := newTestRenderer(t)

	out, err := r.Stats(map[string]models.MStatValue{
		"revenue":   {IsRecord: true, Label: "Revenue", Value: models.NumberScalar(1520), Trend: trend(5)},
		"refunds":   {IsRecord: true, Value: models.NumberScalar(3), Trend: trend(-3)},
		"new_users": {IsRecord: true, Value: models.NumberScalar(7), Trend: trend(0)},
	})
	require.NoError(t, err)
	html := string(out)

	assert.Contains(t, html, `<div class="rdm-stat-trend positive">↑ 5%</div>`)
	assert.Contains(t, html, `<div class="rdm-stat-trend negative">↓ 3%</div>`)
	assert.Equal(t, 2, strings.Count(html, "rdm-stat-trend"), "zero trend has no indicator")
	assert.Contains(t, html, ">Revenue<")
	assert.Contains(t, html, ">1,520<")
	assert.Contains(t, html, ">New Users<")
}

func TestStatsTitleFromKey(t *testing.T) {
	r, _ := newTestRenderer(t)

	out, err := r.Stats(map[string]models.MStatValue{
		"avg_delivery_time": {Value: models.TextScalar("32 min")},
	})
	require.NoError(t, err)
	assert.Contains(t, string(out), `<h3 class="rdm-stat-title">Avg Delivery Time</h3>`)
	assert.Contains(t, string(out), `<div class="rdm-stat-value">32 min</div>`)
}

func TestStatsNeverRenderReservedKey(t *testing.T) {
	r, _ := newTestRenderer(t)

	out, err := r.Stats(map[string]models.MStatValue{
		models.ReservedStatsKey: {Value: models.TextScalar("nope")},
		"total_orders":          {Value: models.NumberScalar(12)},
	})
	require.NoError(t, err)
	assert.NotContains(t, string(out), models.ReservedStatsKey)
	assert.NotContains(t, string(out), "nope")

	out, err = r.Stats(map[string]models.MStatValue{models.ReservedStatsKey: {}})
	require.NoError(t, err)
	assert.Contains(t, string(out), "rdm-no-data")
}

func TestStatsOrderedByKey(t *testing.T) {
	r, _ := newTestRenderer(t)

	out, err := r.Stats(map[string]models.MStatValue{
		"zeta":  {Value: models.NumberScalar(1)},
		"alpha": {Value: models.NumberScalar(2)},
	})
	require.NoError(t, err)
	html := string(out)
	assert.Less(t, strings.Index(html, "Alpha"), strings.Index(html, "Zeta"))
}

// -----------------------------------------------------------------------------

func TestSystemStatusDetails(t *testing.T) {
	r, _ := newTestRenderer(t)

	out, err := r.SystemStatus(map[string]models.MSystemStatus{
		"database_tables": {
			Status:  "ERROR",
			Message: "1 table missing",
			Details: models.MStatusDetails{
				{TableName: "wp_rdm_agents", Exists: true, Name: "Agents"},
				{TableName: "wp_rdm_locations", Exists: false, Name: "Locations"},
			},
		},
		"gps": {Label: "GPS", Status: "OK"},
	})
	require.NoError(t, err)
	html := string(out)

	assert.Contains(t, html, `<span class="rdm-status-label">Database Tables</span>`)
	assert.Contains(t, html, `<span class="rdm-status-pill error">ERROR</span>`)
	assert.Contains(t, html, `<span class="rdm-status-pill ok">OK</span>`)
	assert.Contains(t, html, `<li class="rdm-status-detail ok">`)
	assert.Contains(t, html, `<li class="rdm-status-detail error">`)
	assert.Equal(t, 1, strings.Count(html, "<details"), "only entries with details get a breakdown")
}

func TestSectionMergesReservedStatus(t *testing.T) {
	r, _ := newTestRenderer(t)
	snap := &models.MDashboardSnapshot{
		SystemStatus:   map[string]models.MSystemStatus{"gps": {Status: "OK"}},
		ReservedStatus: map[string]models.MSystemStatus{"cron": {Status: "WARNING"}},
	}

	out, err := r.Section(models.SlotSystemStatus, snap)
	require.NoError(t, err)
	assert.Contains(t, string(out), `data-subsystem="cron"`)
	assert.Contains(t, string(out), `data-subsystem="gps"`)

	out, err = r.Section("rdm-unknown", snap)
	require.NoError(t, err)
	assert.Empty(t, out)
}

// -----------------------------------------------------------------------------

func TestOrdersEmptyRendersNoTable(t *testing.T) {
	r, _ := newTestRenderer(t)

	out, err := r.Orders(nil)
	require.NoError(t, err)
	assert.Equal(t, `<p class="rdm-no-data">No data available</p>`, string(out))
	assert.NotContains(t, string(out), "<table")
}

func TestOrdersRowsAndControls(t *testing.T) {
	r, logs := newTestRenderer(t)

	out, err := r.Orders([]models.MOrder{
		{OrderID: 42, CustomerName: "Ada <script>", Amount: models.NumberScalar(1520.5), Status: "wc-ready", AgentName: "Bo"},
		{OrderID: 7, CustomerName: "Cy", Amount: models.TextScalar("$3.00"), Status: "teleported"},
	})
	require.NoError(t, err)
	html := string(out)

	assert.Contains(t, html, `<tr data-order-id="42">`)
	assert.Contains(t, html, "$1,520.50")
	assert.Contains(t, html, "$3.00")
	assert.Contains(t, html, `class="rdm-order-status ready"`)
	assert.Contains(t, html, `class="rdm-order-status unknown"`)
	assert.NotContains(t, html, "<script>")
	assert.Contains(t, html, "&lt;script&gt;")
	assert.Contains(t, html, "post.php?post=42")

	assert.Contains(t, html, `data-control-id="order_status:42:delivered"`)
	assert.NotContains(t, html, `data-control-id="order_status:42:ready"`, "current status has no control")
	assert.Contains(t, html, `data-control-id="order_status:7:ready"`)

	assert.Contains(t, html, "<td>-</td>", "missing agent shows a dash")
	assert.Equal(t, 1, logs.FilterMessageSnippet("teleported").Len())
}

// -----------------------------------------------------------------------------

func TestAgentsAvailabilityStates(t *testing.T) {
	r, logs := newTestRenderer(t)

	out, err := r.Agents([]models.MAgent{
		{ID: 1, DisplayName: "émile", UserEmail: "e@example.com", Status: "busy", ActiveDeliveries: 2},
		{ID: 2, DisplayName: "Zed", Status: "on_break"},
		{ID: 3, DisplayName: "", Status: "online"},
	})
	require.NoError(t, err)
	html := string(out)

	assert.Contains(t, html, `<span class="rdm-status-dot busy"></span><span class="rdm-status-text">Busy</span>`)
	assert.Contains(t, html, `<span class="rdm-status-dot offline"></span><span class="rdm-status-text">Offline</span>`)
	assert.Contains(t, html, `<span class="rdm-status-dot online"></span>`)
	assert.Contains(t, html, `<div class="rdm-agent-avatar">É</div>`)
	assert.Contains(t, html, `<div class="rdm-agent-avatar">?</div>`)

	assert.Equal(t, 1, strings.Count(html, "rdm-agent-deliveries"), "only agents with deliveries show a count")
	assert.Contains(t, html, "Active deliveries: 2")

	assert.NotContains(t, html, `data-control-id="agent_status:1:busy"`)
	assert.Contains(t, html, `data-control-id="agent_status:1:online"`)
	assert.Contains(t, html, `data-control-id="agent_status:2:offline"`, "unknown availability offers every target")

	warnings := logs.FilterLevelExact(zapcore.WarnLevel)
	require.Equal(t, 1, warnings.Len())
	assert.Contains(t, warnings.All()[0].Message, "on_break")
}

func TestAgentsEmpty(t *testing.T) {
	r, _ := newTestRenderer(t)

	out, err := r.Agents([]models.MAgent{})
	require.NoError(t, err)
	assert.Contains(t, string(out), "rdm-no-data")
}

// -----------------------------------------------------------------------------

func TestRenderIsIdempotent(t *testing.T) {
	r, _ := newTestRenderer(t)
	snap := &models.MDashboardSnapshot{
		Stats: map[string]models.MStatValue{
			"a": {Value: models.NumberScalar(1)}, "b": {Value: models.NumberScalar(2)}, "c": {Value: models.NumberScalar(3)},
		},
		SystemStatus: map[string]models.MSystemStatus{"x": {Status: "OK"}, "y": {Status: "ERROR"}},
		RecentOrders: []models.MOrder{{OrderID: 1, Status: "pending"}},
		AgentStatus:  []models.MAgent{{ID: 1, DisplayName: "A", Status: "online"}},
	}

	for _, slot := range []string{models.SlotStats, models.SlotSystemStatus, models.SlotRecentOrders, models.SlotAgentGrid} {
		first, err := r.Section(slot, snap)
		require.NoError(t, err)
		for i := 0; i < 5; i++ {
			again, err := r.Section(slot, snap)
			require.NoError(t, err)
			assert.Equal(t, first, again, slot)
		}
	}
}

// -----------------------------------------------------------------------------

func TestFormatHelpers(t *testing.T) {
	assert.Equal(t, "Avg Delivery Time", TitleFromKey("avg_delivery_time"))
	assert.Equal(t, "Total Orders 24h", TitleFromKey("total_orders_24h"))
	assert.Equal(t, "1,234", FormatNumber(1234))
	assert.Equal(t, "12.5", FormatNumber(12.5))
	assert.Equal(t, "€9.90", FormatAmount(models.TextScalar("9.9"), "€"))
	assert.Equal(t, "n/a", FormatAmount(models.TextScalar("n/a"), "€"))
	assert.Equal(t, "order_status:1234:ready", ControlID(models.ActionOrderStatus, 1234, "ready"))

	_, _, _, ok := FormatTrend(0)
	assert.False(t, ok)
	arrow, class, text, ok := FormatTrend(-12.5)
	assert.True(t, ok)
	assert.Equal(t, "↓", arrow)
	assert.Equal(t, "negative", class)
	assert.Equal(t, "12.5%", text)
}
