package render

import (
	"fmt"
	"html/template"
	"strings"

	"rdm-dashboard/src/models"
)

type orderRow struct {
	OrderID     int64
	Customer    string
	Amount      string
	StatusClass string
	StatusLabel string
	RawStatus   string
	Agent       string
	DetailURL   string
	Actions     []statusControl
}

type statusControl struct {
	EntityID  int64
	ControlID string
	Value     string
	Label     string
	Current   bool
}

const ordersTemplate = `<table class="rdm-orders-table widefat">
<thead><tr>
<th>{{ .Labels.Get "order_id" }}</th><th>{{ .Labels.Get "customer" }}</th><th>{{ .Labels.Get "amount" }}</th><th>{{ .Labels.Get "status" }}</th><th>{{ .Labels.Get "agent" }}</th><th>{{ .Labels.Get "actions" }}</th>
</tr></thead>
<tbody>
{{- range .Rows }}
<tr data-order-id="{{ .OrderID }}">
<td>#{{ .OrderID }}</td>
<td>{{ .Customer }}</td>
<td>{{ .Amount }}</td>
<td class="rdm-order-status {{ .StatusClass }}" title="{{ .RawStatus }}">{{ .StatusLabel }}</td>
<td>{{ .Agent }}</td>
<td class="rdm-order-actions">
<a class="rdm-view-order button" href="{{ .DetailURL }}">{{ $.Labels.Get "view" }}</a>
{{- range .Actions }}
{{- if not .Current }}
<button type="button" class="rdm-status-change button" data-kind="order_status" data-control-id="{{ .ControlID }}" data-order-id="{{ .EntityID }}" data-status="{{ .Value }}">{{ .Label }}</button>
{{- end }}
{{- end }}
</td>
</tr>
{{- end }}
</tbody>
</table>`

// Orders renders the recent-orders table, or the empty state without any table.
func (r *Renderer) Orders(orders []models.MOrder) (template.HTML, error) {
	if len(orders) == 0 {
		return r.empty()
	}

	rows := make([]orderRow, 0, len(orders))
	for _, o := range orders {
		status, ok := models.ParseOrderStatus(o.Status)
		if !ok && r.Logger != nil {
			r.Logger.Warning("Unrecognised status %q on order #%d", o.Status, o.OrderID)
		}

		agent := strings.TrimSpace(o.AgentName)
		if agent == "" {
			agent = "-"
		}

		row := orderRow{
			OrderID:     o.OrderID,
			Customer:    o.CustomerName,
			Amount:      FormatAmount(o.Amount, r.Currency),
			StatusClass: status.Class(),
			StatusLabel: r.Strings.Get(status.LabelKey()),
			RawStatus:   o.Status,
			Agent:       agent,
			DetailURL:   fmt.Sprintf(r.OrderURL, o.OrderID),
		}
		for _, target := range r.OrderActions {
			ts, _ := models.ParseOrderStatus(target)
			row.Actions = append(row.Actions, statusControl{
				EntityID:  o.OrderID,
				ControlID: ControlID(models.ActionOrderStatus, o.OrderID, ts.String()),
				Value:     ts.String(),
				Label:     r.Strings.Get(ts.LabelKey()),
				Current:   ts == status,
			})
		}
		rows = append(rows, row)
	}

	return r.execute(r.orders, ordersView{Rows: rows, Labels: r.Strings})
}

type ordersView struct {
	Rows   []orderRow
	Labels Strings
}
