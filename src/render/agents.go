package render

import (
	"html/template"

	"rdm-dashboard/src/models"
)

type agentCard struct {
	ID               int64
	Name             string
	Email            string
	Avatar           string
	Class            string
	Label            string
	ActiveDeliveries int
	Controls         []statusControl
}

const agentsTemplate = `<div class="rdm-agents-grid">
{{- range .Agents }}
<div class="rdm-agent-card" data-agent-id="{{ .ID }}">
<div class="rdm-agent-avatar">{{ .Avatar }}</div>
<div class="rdm-agent-info">
<h4 class="rdm-agent-name">{{ .Name }}</h4>
<span class="rdm-agent-email">{{ .Email }}</span>
<div class="rdm-agent-status"><span class="rdm-status-dot {{ .Class }}"></span><span class="rdm-status-text">{{ .Label }}</span></div>
{{- if gt .ActiveDeliveries 0 }}
<div class="rdm-agent-deliveries">{{ $.DeliveriesLabel }}: {{ .ActiveDeliveries }}</div>
{{- end }}
</div>
<div class="rdm-agent-actions">
{{- range .Controls }}
{{- if not .Current }}
<button type="button" class="rdm-status-change button-link" data-kind="agent_status" data-control-id="{{ .ControlID }}" data-agent-id="{{ .EntityID }}" data-status="{{ .Value }}">{{ .Label }}</button>
{{- end }}
{{- end }}
</div>
</div>
{{- end }}
</div>`

var agentTargets = []models.AgentAvailability{
	models.AvailabilityOnline,
	models.AvailabilityBusy,
	models.AvailabilityOffline,
}

// Agents renders the agent grid. Unrecognised availabilities are logged and
// shown with the offline visual state.
func (r *Renderer) Agents(agents []models.MAgent) (template.HTML, error) {
	if len(agents) == 0 {
		return r.empty()
	}

	cards := make([]agentCard, 0, len(agents))
	for _, a := range agents {
		avail, ok := models.ParseAvailability(a.Status)
		if !ok && r.Logger != nil {
			r.Logger.Warning("Unrecognised availability %q for agent %q", a.Status, a.DisplayName)
		}

		active := int(a.ActiveDeliveries)
		if active < 0 {
			active = 0
		}

		card := agentCard{
			ID:               a.ID,
			Name:             a.DisplayName,
			Email:            a.UserEmail,
			Avatar:           AvatarGlyph(a.DisplayName),
			Class:            avail.Class(),
			Label:            r.Strings.Get(avail.LabelKey()),
			ActiveDeliveries: active,
		}
		for _, target := range agentTargets {
			card.Controls = append(card.Controls, statusControl{
				EntityID:  a.ID,
				ControlID: ControlID(models.ActionAgentStatus, a.ID, target.String()),
				Value:     target.String(),
				Label:     r.Strings.Get(target.LabelKey()),
				Current:   target == avail,
			})
		}
		cards = append(cards, card)
	}

	return r.execute(r.agents, struct {
		Agents          []agentCard
		DeliveriesLabel string
	}{cards, r.Strings.Get("active_deliveries")})
}
