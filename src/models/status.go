package models

import "strings"

// -----------------------------------------------------------------------------
// OrderStatus
// -----------------------------------------------------------------------------

// OrderStatus is the closed set of order states the dashboard knows how to display.
type OrderStatus int

const (
	OrderStatusUnknown OrderStatus = iota
	OrderStatusPending
	OrderStatusProcessing
	OrderStatusOnHold
	OrderStatusPreparing
	OrderStatusReady
	OrderStatusOutForDelivery
	OrderStatusDelivered
	OrderStatusCompleted
	OrderStatusCancelled
	OrderStatusRefunded
	OrderStatusFailed
)

var orderStatusNames = map[OrderStatus]string{
	OrderStatusUnknown:        "unknown",
	OrderStatusPending:        "pending",
	OrderStatusProcessing:     "processing",
	OrderStatusOnHold:         "on-hold",
	OrderStatusPreparing:      "preparing",
	OrderStatusReady:          "ready",
	OrderStatusOutForDelivery: "out-for-delivery",
	OrderStatusDelivered:      "delivered",
	OrderStatusCompleted:      "completed",
	OrderStatusCancelled:      "cancelled",
	OrderStatusRefunded:       "refunded",
	OrderStatusFailed:         "failed",
}

var orderStatusByName = func() map[string]OrderStatus {
	m := make(map[string]OrderStatus, len(orderStatusNames))
	for s, n := range orderStatusNames {
		if s != OrderStatusUnknown {
			m[n] = s
		}
	}
	return m
}()

// ParseOrderStatus maps a wire status to its variant. The match is done on the
// lower-cased value with an optional "wc-" prefix stripped; ok is false when
// the value is not one of the known states.
func ParseOrderStatus(raw string) (OrderStatus, bool) {
	key := strings.TrimPrefix(strings.ToLower(strings.TrimSpace(raw)), "wc-")
	s, ok := orderStatusByName[key]
	if !ok {
		return OrderStatusUnknown, false
	}
	return s, true
}

// String returns the wire name.
func (s OrderStatus) String() string {
	if n, ok := orderStatusNames[s]; ok {
		return n
	}
	return orderStatusNames[OrderStatusUnknown]
}

// Class is the CSS class of the status cell.
func (s OrderStatus) Class() string {
	return s.String()
}

// LabelKey is the strings-bundle key of the status label.
func (s OrderStatus) LabelKey() string {
	return "status_" + s.String()
}

// -----------------------------------------------------------------------------
// AgentAvailability
// -----------------------------------------------------------------------------

// AgentAvailability is the closed set of delivery agent states.
type AgentAvailability int

const (
	AvailabilityUnknown AgentAvailability = iota
	AvailabilityOnline
	AvailabilityBusy
	AvailabilityOffline
)

// ParseAvailability matches case-sensitively. Anything else is
// AvailabilityUnknown and ok is false.
func ParseAvailability(raw string) (AgentAvailability, bool) {
	switch raw {
	case "online":
		return AvailabilityOnline, true
	case "busy":
		return AvailabilityBusy, true
	case "offline":
		return AvailabilityOffline, true
	}
	return AvailabilityUnknown, false
}

func (a AgentAvailability) String() string {
	switch a {
	case AvailabilityOnline:
		return "online"
	case AvailabilityBusy:
		return "busy"
	case AvailabilityOffline:
		return "offline"
	}
	return "unknown"
}

// Class returns one of exactly three visual states. Unknown is shown as offline.
func (a AgentAvailability) Class() string {
	switch a {
	case AvailabilityOnline:
		return "online"
	case AvailabilityBusy:
		return "busy"
	}
	return "offline"
}

// LabelKey is the strings-bundle key of the availability label.
func (a AgentAvailability) LabelKey() string {
	return "agent_" + a.Class()
}
