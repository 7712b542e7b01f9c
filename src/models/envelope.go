package models

import (
	"bytes"
	"encoding/json"
)

// -----------------------------------------------------------------------------
// AJAX Envelope
// -----------------------------------------------------------------------------

// MEnvelope is the {success, data} wrapper every endpoint action answers with.
// Data is kept raw because its shape depends on the action and on Success.
type MEnvelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
}

// MFailure is the data payload of an unsuccessful envelope.
type MFailure struct {
	Message string `json:"message"`
}

// FailureMessage extracts data.message, accepting a bare string as well.
func (e *MEnvelope) FailureMessage() string {
	data := bytes.TrimSpace(e.Data)
	if len(data) == 0 {
		return ""
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err == nil {
			return s
		}
		return ""
	}
	var f MFailure
	if err := json.Unmarshal(data, &f); err != nil {
		return ""
	}
	return f.Message
}

// -----------------------------------------------------------------------------
// Actions
// -----------------------------------------------------------------------------

// ActionKind discriminates the state-changing requests the dashboard can issue.
type ActionKind string

const (
	ActionOrderStatus ActionKind = "order_status"
	ActionAgentStatus ActionKind = "agent_status"
)

// MActionRequest is what the host page posts to request an action.
type MActionRequest struct {
	Kind      ActionKind `json:"kind" binding:"required"`
	EntityID  int64      `json:"entity_id" binding:"required"`
	Value     string     `json:"value" binding:"required"`
	ControlID string     `json:"control_id"`
}
