package models

// -----------------------------------------------------------------------------
// View State (pushed to the host page)
// -----------------------------------------------------------------------------

// Slot names of the rendering surface.
const (
	SlotStats        = "rdm-stats"
	SlotSystemStatus = "rdm-system-status"
	SlotRecentOrders = "rdm-recent-orders"
	SlotAgentGrid    = "rdm-agent-grid"
	SlotRoot         = "rdm-dashboard"
)

type MNotice struct {
	ID      uint64 `json:"id"`
	Message string `json:"message"`
	Kind    string `json:"kind"` // "error" or "success"
}

// MViewState is a copy of the rendered view at a point in time.
type MViewState struct {
	Sections         map[string]string `json:"sections"`
	Loading          bool              `json:"loading"`
	Notice           *MNotice          `json:"notice,omitempty"`
	DisabledControls []string          `json:"disabled_controls"`
	Version          uint64            `json:"version"`
}

// MViewUpdate is the websocket message envelope.
type MViewUpdate struct {
	Type string     `json:"type"` // "INITIAL" or "UPDATE"
	View MViewState `json:"view"`
}

// -----------------------------------------------------------------------------
// Client commands received over the websocket
// -----------------------------------------------------------------------------

type MClientCommand struct {
	Command  string `json:"command"` // "refresh", "state" or "dismiss"
	NoticeID uint64 `json:"notice_id,omitempty"`
}
