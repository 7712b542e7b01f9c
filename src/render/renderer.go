package render

import (
	"bytes"
	"fmt"
	"html/template"

	"rdm-dashboard/src/logger"
	"rdm-dashboard/src/models"
)

const defaultOrderURL = "post.php?post=%d&action=edit"

// Renderer maps snapshot slices to section markup. It holds only display
// configuration, so every method is a pure function of its input apart from
// anomaly logging.
type Renderer struct {
	Strings      Strings
	Currency     string
	OrderURL     string
	OrderActions []string
	Logger       *logger.Logger

	stats  *template.Template
	status *template.Template
	orders *template.Template
	agents *template.Template
	noData *template.Template
}

// -----------------------------------------------------------------------------

func NewRenderer(cfg *models.MConfig, log *logger.Logger) *Renderer {
	orderURL := cfg.Dashboard.OrderURL
	if orderURL == "" {
		orderURL = defaultOrderURL
	}
	return &Renderer{
		Strings:      Strings(cfg.Strings),
		Currency:     cfg.Dashboard.CurrencySymbol,
		OrderURL:     orderURL,
		OrderActions: cfg.Dashboard.OrderActions,
		Logger:       log,
		stats:        template.Must(template.New("stats").Parse(statsTemplate)),
		status:       template.Must(template.New("status").Parse(systemStatusTemplate)),
		orders:       template.Must(template.New("orders").Parse(ordersTemplate)),
		agents:       template.Must(template.New("agents").Parse(agentsTemplate)),
		noData:       template.Must(template.New("no-data").Parse(noDataTemplate)),
	}
}

// -----------------------------------------------------------------------------

// Section renders one slot of the snapshot. Unknown slots render nothing.
func (r *Renderer) Section(slot string, snap *models.MDashboardSnapshot) (template.HTML, error) {
	switch slot {
	case models.SlotStats:
		return r.Stats(snap.Stats)
	case models.SlotSystemStatus:
		return r.SystemStatus(snap.MergedSystemStatus())
	case models.SlotRecentOrders:
		return r.Orders(snap.RecentOrders)
	case models.SlotAgentGrid:
		return r.Agents(snap.AgentStatus)
	}
	return "", nil
}

// -----------------------------------------------------------------------------

func (r *Renderer) execute(t *template.Template, data any) (template.HTML, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render %s: %w", t.Name(), err)
	}
	return template.HTML(buf.String()), nil
}

func (r *Renderer) empty() (template.HTML, error) {
	return r.execute(r.noData, r.Strings.Get("no_data"))
}

const noDataTemplate = `<p class="rdm-no-data">{{.}}</p>`
