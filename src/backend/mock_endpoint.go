package backend

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"rdm-dashboard/src/logger"
	"rdm-dashboard/src/models"

	"github.com/gin-gonic/gin"
)

// DefaultPath is where WordPress serves admin-ajax requests.
const DefaultPath = "/wp-admin/admin-ajax.php"

// -----------------------------------------------------------------------------
// MockEndpoint
// -----------------------------------------------------------------------------

// MockEndpoint implements the aggregation endpoint contract over in-memory
// orders and agents. It is meant for local development and integration tests.
type MockEndpoint struct {
	Endpoint models.MEndpointConfig
	Logger   *logger.Logger
	Path     string

	engine     *gin.Engine
	httpServer *http.Server

	mu       sync.Mutex
	orders   []models.MOrder
	agents   []models.MAgent
	failWith string
	calls    map[string]int
}

// -----------------------------------------------------------------------------

func NewMockEndpoint(endpoint models.MEndpointConfig, log *logger.Logger) *MockEndpoint {
	path := DefaultPath
	if u, err := url.Parse(endpoint.URL); err == nil && u.Path != "" {
		path = u.Path
	}

	m := &MockEndpoint{
		Endpoint: endpoint,
		Logger:   log,
		Path:     path,
		engine:   gin.New(),
		calls:    make(map[string]int),
	}
	m.engine.Use(gin.Recovery())
	m.engine.POST(path, m.handleAjax)
	m.Seed(DemoOrders(), DemoAgents())
	return m
}

// Handler exposes the router, mostly for httptest.
func (m *MockEndpoint) Handler() http.Handler {
	return m.engine
}

// -----------------------------------------------------------------------------
// Data
// -----------------------------------------------------------------------------

// Seed replaces the in-memory data set.
func (m *MockEndpoint) Seed(orders []models.MOrder, agents []models.MAgent) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.orders = append([]models.MOrder(nil), orders...)
	m.agents = append([]models.MAgent(nil), agents...)
}

// FailWith makes every following request answer success:false with message.
// An empty message restores normal operation.
func (m *MockEndpoint) FailWith(message string) {
	m.mu.Lock()
	m.failWith = message
	m.mu.Unlock()
}

// Calls returns how many requests carried the given action.
func (m *MockEndpoint) Calls(action string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[action]
}

// Order returns a copy of the order with the given id.
func (m *MockEndpoint) Order(id int64) (models.MOrder, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if i := m.orderIndex(id); i >= 0 {
		return m.orders[i], true
	}
	return models.MOrder{}, false
}

// Agent returns a copy of the agent with the given id.
func (m *MockEndpoint) Agent(id int64) (models.MAgent, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if i := m.agentIndex(id); i >= 0 {
		return m.agents[i], true
	}
	return models.MAgent{}, false
}

// -----------------------------------------------------------------------------
// Request handling
// -----------------------------------------------------------------------------

func (m *MockEndpoint) handleAjax(c *gin.Context) {
	action := c.PostForm("action")

	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls[action]++

	switch action {
	case m.Endpoint.AggregateAction, m.Endpoint.OrderStatusAction, m.Endpoint.AgentStatusAction:
	default:
		// admin-ajax answers unknown actions with a bare 0
		c.String(http.StatusBadRequest, "0")
		return
	}

	if c.PostForm("nonce") != m.Endpoint.Nonce {
		m.Logger.Debug("Rejecting %s: bad nonce", action)
		m.failure(c, "Security check failed")
		return
	}
	if m.failWith != "" {
		m.failure(c, m.failWith)
		return
	}

	var err error
	switch action {
	case m.Endpoint.AggregateAction:
		c.JSON(http.StatusOK, gin.H{"success": true, "data": m.snapshotLocked()})
		return
	case m.Endpoint.OrderStatusAction:
		err = m.updateOrderLocked(c.PostForm("order_id"), c.PostForm("status"))
	case m.Endpoint.AgentStatusAction:
		err = m.updateAgentLocked(c.PostForm("agent_id"), c.PostForm("status"))
	}

	if err != nil {
		m.failure(c, err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": nil})
}

func (m *MockEndpoint) failure(c *gin.Context, message string) {
	c.JSON(http.StatusOK, gin.H{
		"success": false,
		"data":    gin.H{"message": message},
	})
}

// -----------------------------------------------------------------------------

func (m *MockEndpoint) updateOrderLocked(rawID, rawStatus string) error {
	id, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil || id <= 0 {
		return errors.New("Invalid order ID")
	}
	status, ok := models.ParseOrderStatus(rawStatus)
	if !ok {
		return errors.New("Invalid status")
	}
	i := m.orderIndex(id)
	if i < 0 {
		return errors.New("Order not found")
	}

	m.orders[i].Status = status.String()
	m.Logger.Info("Order #%d -> %s", id, status)
	return nil
}

func (m *MockEndpoint) updateAgentLocked(rawID, rawStatus string) error {
	id, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil || id <= 0 {
		return errors.New("Invalid agent ID")
	}
	status, ok := models.ParseAvailability(rawStatus)
	if !ok {
		return errors.New("Invalid status")
	}
	i := m.agentIndex(id)
	if i < 0 {
		return errors.New("Agent not found")
	}

	m.agents[i].Status = status.String()
	m.Logger.Info("Agent #%d -> %s", id, status)
	return nil
}

func (m *MockEndpoint) orderIndex(id int64) int {
	for i := range m.orders {
		if m.orders[i].OrderID == id {
			return i
		}
	}
	return -1
}

func (m *MockEndpoint) agentIndex(id int64) int {
	for i := range m.agents {
		if m.agents[i].ID == id {
			return i
		}
	}
	return -1
}

// -----------------------------------------------------------------------------
// Server Lifecycle
// -----------------------------------------------------------------------------

// Start serves on addr until Stop. A clean stop returns nil.
func (m *MockEndpoint) Start(addr string) error {
	m.mu.Lock()
	m.httpServer = &http.Server{
		Addr:              addr,
		Handler:           m.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	srv := m.httpServer
	m.mu.Unlock()

	m.Logger.Info("Mock endpoint listening on http://%s%s", addr, m.Path)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("mock endpoint: %w", err)
	}
	return nil
}

func (m *MockEndpoint) Stop(ctx context.Context) error {
	m.mu.Lock()
	srv := m.httpServer
	m.mu.Unlock()
	if srv == nil {
		return nil
	}
	return srv.Shutdown(ctx)
}
