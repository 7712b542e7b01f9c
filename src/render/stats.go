package render

import (
	"html/template"
	"sort"

	"rdm-dashboard/src/models"
)

type statCard struct {
	Key        string
	Title      string
	Value      string
	TrendArrow string
	TrendClass string
	TrendText  string
}

const statsTemplate = `<div class="rdm-stats-grid">
{{- range . }}
<div class="rdm-stat-card" data-stat="{{ .Key }}">
<h3 class="rdm-stat-title">{{ .Title }}</h3>
<div class="rdm-stat-value">{{ .Value }}</div>
{{- if .TrendText }}
<div class="rdm-stat-trend {{ .TrendClass }}">{{ .TrendArrow }} {{ .TrendText }}</div>
{{- end }}
</div>
{{- end }}
</div>`

// Stats renders the metric cards. The reserved subsystem key is skipped even
// if a caller hands it in. Cards are ordered by key.
func (r *Renderer) Stats(stats map[string]models.MStatValue) (template.HTML, error) {
	keys := make([]string, 0, len(stats))
	for k := range stats {
		if k == models.ReservedStatsKey {
			continue
		}
		keys = append(keys, k)
	}
	if len(keys) == 0 {
		return r.empty()
	}
	sort.Strings(keys)

	cards := make([]statCard, 0, len(keys))
	for _, k := range keys {
		cards = append(cards, buildStatCard(k, stats[k]))
	}
	return r.execute(r.stats, cards)
}

func buildStatCard(key string, v models.MStatValue) statCard {
	card := statCard{
		Key:   key,
		Title: TitleFromKey(key),
		Value: FormatScalar(v.Value),
	}
	if v.IsRecord && v.Label != "" {
		card.Title = v.Label
	}
	if trend, ok := v.TrendValue(); ok {
		card.TrendArrow, card.TrendClass, card.TrendText, _ = FormatTrend(trend)
	}
	return card
}
