package render

import (
	"html/template"
	"sort"
	"strings"

	"rdm-dashboard/src/models"
)

type statusItem struct {
	Key     string
	Label   string
	Status  string
	Class   string
	Message string
	Details []statusDetail
}

type statusDetail struct {
	Name      string
	TableName string
	Class     string
}

const systemStatusTemplate = `<div class="rdm-system-status-list">
{{- range .Items }}
<div class="rdm-status-item" data-subsystem="{{ .Key }}">
<div class="rdm-status-header">
<span class="rdm-status-label">{{ .Label }}</span>
<span class="rdm-status-pill {{ .Class }}">{{ .Status }}</span>
</div>
{{- if .Message }}
<p class="rdm-status-message">{{ .Message }}</p>
{{- end }}
{{- if .Details }}
<details class="rdm-status-details">
<summary>{{ $.DetailsLabel }}</summary>
<ul>
{{- range .Details }}
<li class="rdm-status-detail {{ .Class }}"><span class="rdm-detail-name">{{ .Name }}</span> <code>{{ .TableName }}</code></li>
{{- end }}
</ul>
</details>
{{- end }}
</div>
{{- end }}
</div>`

// SystemStatus renders one pill per subsystem, ordered by key. Entries with
// details get a collapsed breakdown tagged ok/error by the exists flag.
func (r *Renderer) SystemStatus(status map[string]models.MSystemStatus) (template.HTML, error) {
	if len(status) == 0 {
		return r.empty()
	}

	keys := make([]string, 0, len(status))
	for k := range status {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	items := make([]statusItem, 0, len(keys))
	for _, k := range keys {
		s := status[k]
		item := statusItem{
			Key:     k,
			Label:   s.Label,
			Status:  s.Status,
			Class:   strings.ToLower(s.Status),
			Message: s.Message,
		}
		if item.Label == "" {
			item.Label = TitleFromKey(k)
		}
		for _, d := range s.Details {
			cls := "error"
			if d.Exists {
				cls = "ok"
			}
			item.Details = append(item.Details, statusDetail{Name: d.Name, TableName: d.TableName, Class: cls})
		}
		items = append(items, item)
	}

	return r.execute(r.status, struct {
		Items        []statusItem
		DetailsLabel string
	}{items, r.Strings.Get("details")})
}
