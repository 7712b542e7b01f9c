package view

import (
	"html/template"
	"sort"
	"sync"
	"time"

	"rdm-dashboard/src/logger"
	"rdm-dashboard/src/models"
)

// -----------------------------------------------------------------------------
// View
// -----------------------------------------------------------------------------

// Listener receives a copy of the view after every change. It runs while the
// view is locked, so it must not block or call back into the View.
type Listener func(state models.MViewState)

// DefaultSlots are the named regions of the dashboard page.
var DefaultSlots = []string{
	models.SlotRoot,
	models.SlotStats,
	models.SlotSystemStatus,
	models.SlotRecentOrders,
	models.SlotAgentGrid,
}

// View is the rendering surface shared by the sync loop and the dispatcher.
// Every mutation goes through one mutex, so exactly one writer touches it at
// a time.
type View struct {
	Logger *logger.Logger

	mu        sync.Mutex
	slots     map[string]struct{}
	sections  map[string]string
	loading   bool
	notice    *models.MNotice
	noticeSeq uint64
	timer     *time.Timer
	disabled  map[string]struct{}
	version   uint64
	listeners []Listener
}

// -----------------------------------------------------------------------------

// NewView creates a view with the given slots present. With no slots the
// DefaultSlots are used.
func NewView(log *logger.Logger, slots ...string) *View {
	if len(slots) == 0 {
		slots = DefaultSlots
	}
	v := &View{
		Logger:   log,
		slots:    make(map[string]struct{}, len(slots)),
		sections: make(map[string]string, len(slots)),
		disabled: make(map[string]struct{}),
	}
	for _, s := range slots {
		v.slots[s] = struct{}{}
	}
	return v
}

// -----------------------------------------------------------------------------

// OnChange registers a listener.
func (v *View) OnChange(l Listener) {
	v.mu.Lock()
	v.listeners = append(v.listeners, l)
	v.mu.Unlock()
}

// HasSlot reports whether the page has the named region.
func (v *View) HasSlot(slot string) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	_, ok := v.slots[slot]
	return ok
}

// SetSection replaces the content of a slot. A missing slot is a no-op and
// returns false.
func (v *View) SetSection(slot string, html template.HTML) bool {
	v.mu.Lock()
	defer v.mu.Unlock()

	if _, ok := v.slots[slot]; !ok {
		if v.Logger != nil {
			v.Logger.Debug("Slot %s not present, skipping render", slot)
		}
		return false
	}
	if v.sections[slot] == string(html) {
		return true
	}
	v.sections[slot] = string(html)
	v.changedLocked()
	return true
}

// Section returns the current content of a slot.
func (v *View) Section(slot string) (template.HTML, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	s, ok := v.sections[slot]
	return template.HTML(s), ok
}

// -----------------------------------------------------------------------------
// Loading overlay
// -----------------------------------------------------------------------------

func (v *View) ShowLoading() {
	v.setLoading(true)
}

// HideLoading is idempotent.
func (v *View) HideLoading() {
	v.setLoading(false)
}

func (v *View) Loading() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.loading
}

func (v *View) setLoading(on bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.loading == on {
		return
	}
	v.loading = on
	v.changedLocked()
}

// -----------------------------------------------------------------------------
// Notice
// -----------------------------------------------------------------------------

// ShowNotice replaces the current notice. When ttl is positive the notice is
// removed after ttl unless a newer notice replaced it first.
func (v *View) ShowNotice(message, kind string, ttl time.Duration) uint64 {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.stopTimerLocked()
	v.noticeSeq++
	id := v.noticeSeq
	v.notice = &models.MNotice{ID: id, Message: message, Kind: kind}
	if ttl > 0 {
		v.timer = time.AfterFunc(ttl, func() { v.expireNotice(id) })
	}
	v.changedLocked()
	return id
}

// ClearNotice removes the notice, if any.
func (v *View) ClearNotice() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.stopTimerLocked()
	if v.notice == nil {
		return
	}
	v.notice = nil
	v.changedLocked()
}

// DismissNotice removes the notice when id is zero or matches the notice on
// screen, and reports whether anything was removed.
func (v *View) DismissNotice(id uint64) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.notice == nil || (id != 0 && v.notice.ID != id) {
		return false
	}
	v.stopTimerLocked()
	v.notice = nil
	v.changedLocked()
	return true
}

// Notice returns a copy of the current notice.
func (v *View) Notice() *models.MNotice {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.notice == nil {
		return nil
	}
	n := *v.notice
	return &n
}

func (v *View) expireNotice(id uint64) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.notice == nil || v.notice.ID != id {
		return
	}
	v.notice = nil
	v.timer = nil
	v.changedLocked()
}

func (v *View) stopTimerLocked() {
	if v.timer != nil {
		v.timer.Stop()
		v.timer = nil
	}
}

// -----------------------------------------------------------------------------
// Controls
// -----------------------------------------------------------------------------

// ClaimControl disables id unless it is already disabled and reports whether
// this call did it. The empty id is always free.
func (v *View) ClaimControl(id string) bool {
	if id == "" {
		return true
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	if _, ok := v.disabled[id]; ok {
		return false
	}
	v.disabled[id] = struct{}{}
	v.changedLocked()
	return true
}

func (v *View) EnableControl(id string) {
	if id == "" {
		return
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	if _, ok := v.disabled[id]; !ok {
		return
	}
	delete(v.disabled, id)
	v.changedLocked()
}

func (v *View) IsDisabled(id string) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	_, ok := v.disabled[id]
	return ok
}

// -----------------------------------------------------------------------------
// State
// -----------------------------------------------------------------------------

// State returns a copy of the whole view.
func (v *View) State() models.MViewState {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.stateLocked()
}

// Close stops the pending notice timer.
func (v *View) Close() {
	v.mu.Lock()
	v.stopTimerLocked()
	v.mu.Unlock()
}

func (v *View) stateLocked() models.MViewState {
	sections := make(map[string]string, len(v.sections))
	for k, s := range v.sections {
		sections[k] = s
	}
	disabled := make([]string, 0, len(v.disabled))
	for id := range v.disabled {
		disabled = append(disabled, id)
	}
	sort.Strings(disabled)

	state := models.MViewState{
		Sections:         sections,
		Loading:          v.loading,
		DisabledControls: disabled,
		Version:          v.version,
	}
	if v.notice != nil {
		n := *v.notice
		state.Notice = &n
	}
	return state
}

func (v *View) changedLocked() {
	v.version++
	if len(v.listeners) == 0 {
		return
	}
	state := v.stateLocked()
	for _, l := range v.listeners {
		l(state)
	}
}
