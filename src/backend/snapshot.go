package backend

import (
	"sort"

	"rdm-dashboard/src/models"
)

// recentOrderLimit matches the number of rows the plugin sends.
const recentOrderLimit = 10

// -----------------------------------------------------------------------------

// snapshotLocked derives the aggregation payload from the current data set.
func (m *MockEndpoint) snapshotLocked() models.MDashboardSnapshot {
	var active, delivered int
	var revenue float64
	deliveries := make(map[string]int)

	for _, o := range m.orders {
		status, _ := models.ParseOrderStatus(o.Status)
		switch status {
		case models.OrderStatusDelivered, models.OrderStatusCompleted:
			delivered++
		case models.OrderStatusCancelled, models.OrderStatusRefunded, models.OrderStatusFailed:
			continue
		default:
			active++
			if status == models.OrderStatusOutForDelivery && o.AgentName != "" {
				deliveries[o.AgentName]++
			}
		}
		if f, ok := o.Amount.Float(); ok {
			revenue += f
		}
	}

	var available int
	agents := make([]models.MAgent, len(m.agents))
	for i, a := range m.agents {
		a.ActiveDeliveries = models.MCount(deliveries[a.DisplayName])
		if a.Status == "online" {
			available++
		}
		agents[i] = a
	}

	orders := append([]models.MOrder(nil), m.orders...)
	sort.SliceStable(orders, func(i, j int) bool { return orders[i].OrderID > orders[j].OrderID })
	if len(orders) > recentOrderLimit {
		orders = orders[:recentOrderLimit]
	}

	return models.MDashboardSnapshot{
		Stats: map[string]models.MStatValue{
			"total_orders":     {Value: models.NumberScalar(float64(len(m.orders)))},
			"active_orders":    {Label: "Active Orders", Value: models.NumberScalar(float64(active)), IsRecord: true},
			"delivered_orders": {Value: models.NumberScalar(float64(delivered))},
			"revenue":          {Label: "Revenue", Value: models.NumberScalar(revenue), IsRecord: true},
			"available_agents": {Value: models.NumberScalar(float64(available))},
		},
		SystemStatus: map[string]models.MSystemStatus{
			"database": {
				Label:   "Database",
				Status:  "OK",
				Message: "All tables present",
				Details: models.MStatusDetails{
					{TableName: "rdm_deliveries", Exists: true, Name: "Deliveries"},
					{TableName: "rdm_agents", Exists: true, Name: "Agents"},
				},
			},
			"woocommerce": {Label: "WooCommerce", Status: "OK", Message: "Active"},
		},
		RecentOrders: orders,
		AgentStatus:  agents,
	}
}

// -----------------------------------------------------------------------------
// Demo data
// -----------------------------------------------------------------------------

func DemoOrders() []models.MOrder {
	return []models.MOrder{
		{OrderID: 1001, CustomerName: "Alice Martin", Amount: models.NumberScalar(42.5), Status: "pending"},
		{OrderID: 1002, CustomerName: "Bruno Costa", Amount: models.NumberScalar(18), Status: "preparing"},
		{OrderID: 1003, CustomerName: "Chloé Dubois", Amount: models.TextScalar("27.90"), Status: "ready"},
		{OrderID: 1004, CustomerName: "Dev Patel", Amount: models.NumberScalar(1520.5), Status: "out-for-delivery", AgentName: "Sam Rivera"},
		{OrderID: 1005, CustomerName: "Eve Kim", Amount: models.NumberScalar(33.1), Status: "delivered", AgentName: "Jo Chen"},
		{OrderID: 1006, CustomerName: "Farid Haddad", Amount: models.NumberScalar(12), Status: "cancelled"},
	}
}

func DemoAgents() []models.MAgent {
	return []models.MAgent{
		{ID: 11, DisplayName: "Sam Rivera", UserEmail: "sam@example.com", Status: "busy"},
		{ID: 12, DisplayName: "Jo Chen", UserEmail: "jo@example.com", Status: "online"},
		{ID: 13, DisplayName: "Ola Nowak", UserEmail: "ola@example.com", Status: "offline"},
	}
}
