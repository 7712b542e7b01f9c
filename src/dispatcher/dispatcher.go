package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"rdm-dashboard/src/helpers"
	"rdm-dashboard/src/interfaces"
	"rdm-dashboard/src/logger"
	"rdm-dashboard/src/models"
	"rdm-dashboard/src/render"
	"rdm-dashboard/src/view"
)

var (
	ErrAlreadyResolved = errors.New("confirmation already resolved")
	ErrNotFound        = errors.New("pending confirmation not found")
	ErrUnknownAction   = errors.New("unknown action kind")
	ErrInvalidRequest  = errors.New("invalid action request")
	ErrControlBusy     = errors.New("control busy")
)

// DefaultPendingTTL bounds how long an unanswered confirmation is kept.
const DefaultPendingTTL = 10 * time.Minute

// -----------------------------------------------------------------------------
// Dispatcher
// -----------------------------------------------------------------------------

// Dispatcher runs state-changing actions with a confirm step. It never touches
// snapshot data: after a successful action it asks the loop for a full refresh.
type Dispatcher struct {
	Backend      interfaces.IBackend
	Loop         interfaces.ISyncLoop
	View         *view.View
	DB           interfaces.IDatabase
	Strings      render.Strings
	Logger       *logger.Logger
	ErrorHandler *helpers.ErrorHandler
	PendingTTL   time.Duration

	mu      sync.Mutex
	pending map[string]*PendingConfirmation
}

func NewDispatcher(backend interfaces.IBackend, loop interfaces.ISyncLoop, v *view.View, labels render.Strings, log *logger.Logger) *Dispatcher {
	return &Dispatcher{
		Backend:      backend,
		Loop:         loop,
		View:         v,
		Strings:      labels,
		Logger:       log,
		ErrorHandler: helpers.NewErrorHandler(log),
		PendingTTL:   DefaultPendingTTL,
		pending:      make(map[string]*PendingConfirmation),
	}
}

// -----------------------------------------------------------------------------
// PendingConfirmation
// -----------------------------------------------------------------------------

// PendingConfirmation is an action waiting for the user's answer. It resolves
// exactly once, through Confirm or Cancel.
type PendingConfirmation struct {
	ID        string                `json:"confirmation_id"`
	Request   models.MActionRequest `json:"request"`
	Prompt    string                `json:"prompt"`
	CreatedAt time.Time             `json:"created_at"`

	d        *Dispatcher
	resolved atomic.Bool
}

// Confirm sends the request. The originating control is disabled for the
// duration of the call and re-enabled whatever the outcome. When another
// confirmation holds the control the request is not sent, ErrControlBusy is
// returned and this confirmation stays resolved.
func (p *PendingConfirmation) Confirm(ctx context.Context) error {
	if !p.resolved.CompareAndSwap(false, true) {
		return ErrAlreadyResolved
	}
	p.d.forget(p.ID)
	return p.d.execute(ctx, p)
}

// Cancel declines the action: no request, no notice, no control change.
func (p *PendingConfirmation) Cancel() error {
	if !p.resolved.CompareAndSwap(false, true) {
		return ErrAlreadyResolved
	}
	p.d.forget(p.ID)
	p.d.Logger.Debug("Action %s on #%d declined", p.Request.Kind, p.Request.EntityID)
	return nil
}

// -----------------------------------------------------------------------------
// Requesting
// -----------------------------------------------------------------------------

// RequestAction validates the action and returns its pending confirmation.
// Nothing is sent and no state changes until Confirm.
func (d *Dispatcher) RequestAction(kind models.ActionKind, entityID int64, value, controlID string) (*PendingConfirmation, error) {
	switch kind {
	case models.ActionOrderStatus, models.ActionAgentStatus:
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownAction, kind)
	}
	value = strings.TrimSpace(value)
	if entityID <= 0 || value == "" {
		return nil, fmt.Errorf("%w: entity %d, value %q", ErrInvalidRequest, entityID, value)
	}
	if controlID == "" {
		controlID = render.ControlID(kind, entityID, value)
	}
	if d.View.IsDisabled(controlID) {
		return nil, fmt.Errorf("%w: %s", ErrControlBusy, controlID)
	}

	p := &PendingConfirmation{
		ID: uuid.NewString(),
		Request: models.MActionRequest{
			Kind:      kind,
			EntityID:  entityID,
			Value:     value,
			ControlID: controlID,
		},
		Prompt:    d.Strings.Get("confirm_" + string(kind)),
		CreatedAt: time.Now().UTC(),
		d:         d,
	}

	d.mu.Lock()
	d.pruneLocked(p.CreatedAt)
	d.pending[p.ID] = p
	d.mu.Unlock()
	return p, nil
}

// Confirm resolves the pending confirmation with the given id.
func (d *Dispatcher) Confirm(ctx context.Context, id string) error {
	p, err := d.lookup(id)
	if err != nil {
		return err
	}
	return p.Confirm(ctx)
}

// Cancel declines the pending confirmation with the given id.
func (d *Dispatcher) Cancel(id string) error {
	p, err := d.lookup(id)
	if err != nil {
		return err
	}
	return p.Cancel()
}

// Pending lists unanswered confirmations, oldest first.
func (d *Dispatcher) Pending() []*PendingConfirmation {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]*PendingConfirmation, 0, len(d.pending))
	for _, p := range d.pending {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

// Dispatch is the blocking form: ask confirm, then run or decline. A decline
// returns helpers.ErrConfirmationDeclined.
func (d *Dispatcher) Dispatch(ctx context.Context, kind models.ActionKind, entityID int64, value, controlID string, confirm func(prompt string) bool) error {
	p, err := d.RequestAction(kind, entityID, value, controlID)
	if err != nil {
		return err
	}
	if !confirm(p.Prompt) {
		_ = p.Cancel()
		return helpers.ErrConfirmationDeclined
	}
	return p.Confirm(ctx)
}

// -----------------------------------------------------------------------------
// Execution
// -----------------------------------------------------------------------------

func (d *Dispatcher) execute(ctx context.Context, p *PendingConfirmation) error {
	req := p.Request

	// only the claiming confirmation re-enables the control
	if !d.View.ClaimControl(req.ControlID) {
		d.Logger.Warning("Action %s on #%d rejected, %s is busy", req.Kind, req.EntityID, req.ControlID)
		return fmt.Errorf("%w: %s", ErrControlBusy, req.ControlID)
	}
	err := d.send(ctx, req)
	d.View.EnableControl(req.ControlID)

	d.record(p, err)

	if err != nil {
		d.ErrorHandler.Handle(err, string(req.Kind))
		d.Loop.ShowError(helpers.UserMessage(err, d.Strings.Get("error")))
		return err
	}

	d.Logger.Info("Action %s on #%d -> %s succeeded", req.Kind, req.EntityID, req.Value)
	if rerr := d.Loop.Refresh(ctx); rerr != nil {
		d.Logger.Debug("Refresh after %s failed: %v", req.Kind, rerr)
	}
	return nil
}

func (d *Dispatcher) send(ctx context.Context, req models.MActionRequest) error {
	switch req.Kind {
	case models.ActionOrderStatus:
		return d.Backend.UpdateOrderStatus(ctx, req.EntityID, req.Value)
	case models.ActionAgentStatus:
		return d.Backend.UpdateAgentStatus(ctx, req.EntityID, req.Value)
	}
	return fmt.Errorf("%w: %q", ErrUnknownAction, req.Kind)
}

func (d *Dispatcher) record(p *PendingConfirmation, err error) {
	if d.DB == nil {
		return
	}
	rec := models.MActionRecord{
		ID:        p.ID,
		Kind:      p.Request.Kind,
		EntityID:  p.Request.EntityID,
		Value:     p.Request.Value,
		Success:   err == nil,
		CreatedAt: time.Now().UTC(),
	}
	if err != nil {
		rec.Message = err.Error()
	}
	if serr := d.DB.SaveActionRecord(rec); serr != nil {
		d.Logger.Error("Failed to save action record %s: %v", p.ID, serr)
	}
}

// -----------------------------------------------------------------------------

func (d *Dispatcher) lookup(id string) (*PendingConfirmation, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	p, ok := d.pending[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return p, nil
}

func (d *Dispatcher) forget(id string) {
	d.mu.Lock()
	delete(d.pending, id)
	d.mu.Unlock()
}

func (d *Dispatcher) pruneLocked(now time.Time) {
	if d.PendingTTL <= 0 {
		return
	}
	for id, p := range d.pending {
		if now.Sub(p.CreatedAt) > d.PendingTTL {
			p.resolved.Store(true)
			delete(d.pending, id)
		}
	}
}
