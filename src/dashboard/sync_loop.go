package dashboard

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"sync"
	"sync/atomic"
	"time"

	"rdm-dashboard/src/helpers"
	"rdm-dashboard/src/interfaces"
	"rdm-dashboard/src/logger"
	"rdm-dashboard/src/models"
	"rdm-dashboard/src/render"
	"rdm-dashboard/src/view"
)

// -----------------------------------------------------------------------------
// Loop State
// -----------------------------------------------------------------------------

type LoopState int

const (
	StateIdle LoopState = iota
	StateFetching
	StateRendering
	StateErrorDisplayed
)

func (s LoopState) String() string {
	switch s {
	case StateFetching:
		return "fetching"
	case StateRendering:
		return "rendering"
	case StateErrorDisplayed:
		return "error_displayed"
	}
	return "idle"
}

type Trigger string

const (
	TriggerScheduled Trigger = "scheduled"
	TriggerManual    Trigger = "manual"
)

const (
	OutcomeRendered = "rendered"
	OutcomeStale    = "stale"
	OutcomeError    = "error"
)

var ErrAlreadyStarted = errors.New("sync loop already started")

// sectionSlots is the render order of the four dashboard areas.
var sectionSlots = []string{
	models.SlotStats,
	models.SlotSystemStatus,
	models.SlotRecentOrders,
	models.SlotAgentGrid,
}

// -----------------------------------------------------------------------------
// SyncLoop
// -----------------------------------------------------------------------------

// SyncLoop keeps the view in line with the aggregation endpoint. Scheduled
// fetches never overlap each other; manual refreshes may overlap anything.
type SyncLoop struct {
	Backend      interfaces.IBackend
	View         *view.View
	Renderer     *render.Renderer
	Logger       *logger.Logger
	ErrorHandler *helpers.ErrorHandler

	Interval       time.Duration
	ErrorDisplay   time.Duration
	StrictOrdering bool

	mu           sync.Mutex
	running      bool
	cancel       context.CancelFunc
	done         chan struct{}
	inflight     int
	rendering    bool
	errorNotice  uint64
	observers    []interfaces.IFetchObserver
	scheduledRun atomic.Bool
	seq          atomic.Uint64

	renderMu sync.Mutex
	applied  uint64
}

// -----------------------------------------------------------------------------

func NewSyncLoop(cfg *models.MConfig, backend interfaces.IBackend, v *view.View, r *render.Renderer, log *logger.Logger) *SyncLoop {
	interval := time.Duration(cfg.Dashboard.PollIntervalSeconds) * time.Second
	if interval <= 0 {
		interval = 30 * time.Second
	}
	errorDisplay := time.Duration(cfg.Dashboard.ErrorDisplaySeconds) * time.Second
	if errorDisplay <= 0 {
		errorDisplay = 5 * time.Second
	}
	return &SyncLoop{
		Backend:        backend,
		View:           v,
		Renderer:       r,
		Logger:         log,
		ErrorHandler:   helpers.NewErrorHandler(log),
		Interval:       interval,
		ErrorDisplay:   errorDisplay,
		StrictOrdering: cfg.Dashboard.StrictOrdering,
	}
}

// AddObserver registers a hook called after every fetch.
func (s *SyncLoop) AddObserver(o interfaces.IFetchObserver) {
	s.mu.Lock()
	s.observers = append(s.observers, o)
	s.mu.Unlock()
}

// -----------------------------------------------------------------------------
// Lifecycle
// -----------------------------------------------------------------------------

// Start fetches immediately and then every Interval until ctx is done or Stop
// is called. Only one scheduler runs per loop.
func (s *SyncLoop) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return ErrAlreadyStarted
	}

	ctx, cancel := context.WithCancel(ctx)
	s.running = true
	s.cancel = cancel
	s.done = make(chan struct{})

	s.Logger.Info("Starting sync loop, polling every %v", s.Interval)
	go s.run(ctx, s.done)
	return nil
}

// Stop cancels the scheduler and waits for its in-flight fetch to return.
func (s *SyncLoop) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	cancel, done := s.cancel, s.done
	s.running = false
	s.mu.Unlock()

	cancel()
	<-done
	s.Logger.Info("Sync loop stopped")
}

func (s *SyncLoop) run(ctx context.Context, done chan struct{}) {
	var wg sync.WaitGroup
	defer close(done)
	defer wg.Wait()

	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	s.tick(ctx, &wg)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.tick(ctx, &wg)
		}
	}
}

// tick launches a scheduled fetch unless the previous one is still out.
func (s *SyncLoop) tick(ctx context.Context, wg *sync.WaitGroup) {
	if !s.scheduledRun.CompareAndSwap(false, true) {
		s.Logger.Debug("Scheduled fetch still outstanding, skipping tick")
		return
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		defer s.scheduledRun.Store(false)
		_ = s.FetchSnapshot(ctx, TriggerScheduled)
	}()
}

// -----------------------------------------------------------------------------
// Fetch
// -----------------------------------------------------------------------------

// Refresh is a manual fetch. It may run while a scheduled fetch is pending.
func (s *SyncLoop) Refresh(ctx context.Context) error {
	return s.FetchSnapshot(ctx, TriggerManual)
}

// FetchSnapshot performs one aggregation request and applies the result. On
// failure the previous view is kept and a notice is shown. The loading
// overlay is removed on every completion.
func (s *SyncLoop) FetchSnapshot(ctx context.Context, trigger Trigger) error {
	seq := s.seq.Add(1)
	started := time.Now()

	s.beginFetch()
	s.View.ShowLoading()
	defer s.View.HideLoading()

	rec := models.MFetchRecord{Sequence: seq, Trigger: string(trigger)}

	snap, err := s.Backend.FetchSnapshot(ctx)
	if err != nil && ctx.Err() != nil {
		s.endFetch(false, 0)
		return err
	}

	if err != nil {
		noticeID := s.surface(err, "FetchSnapshot")
		s.endFetch(false, noticeID)
		rec.Outcome, rec.Message = OutcomeError, err.Error()
		s.notify(rec, started)
		return err
	}

	rec.Orders, rec.Agents = len(snap.RecentOrders), len(snap.AgentStatus)
	applied, err := s.apply(seq, snap)
	switch {
	case err != nil:
		noticeID := s.surface(err, "Render")
		s.endFetch(false, noticeID)
		rec.Outcome, rec.Message = OutcomeError, err.Error()
	case !applied:
		s.Logger.Info("Discarding stale response #%d (%s)", seq, trigger)
		// the newer outcome owns the notice
		s.endFetch(false, 0)
		rec.Outcome = OutcomeStale
	default:
		s.endFetch(true, 0)
		s.ErrorHandler.ResetErrorCount()
		rec.Outcome = OutcomeRendered
	}
	s.notify(rec, started)
	return err
}

// apply renders snap unless strict ordering says a newer response already won.
func (s *SyncLoop) apply(seq uint64, snap *models.MDashboardSnapshot) (bool, error) {
	s.renderMu.Lock()
	defer s.renderMu.Unlock()

	if s.StrictOrdering && seq < s.applied {
		return false, nil
	}

	s.setRendering(true)
	defer s.setRendering(false)

	if err := s.renderLocked(snap); err != nil {
		return false, err
	}
	if seq > s.applied {
		s.applied = seq
	}
	s.View.ClearNotice()
	return true, nil
}

// Render writes every present section from snap. Either all sections are
// written or, on a render error, none are.
func (s *SyncLoop) Render(snap *models.MDashboardSnapshot) error {
	s.renderMu.Lock()
	defer s.renderMu.Unlock()
	return s.renderLocked(snap)
}

func (s *SyncLoop) renderLocked(snap *models.MDashboardSnapshot) error {
	if snap == nil {
		return fmt.Errorf("nil snapshot")
	}

	out := make(map[string]template.HTML, len(sectionSlots))
	for _, slot := range sectionSlots {
		if !s.View.HasSlot(slot) {
			continue
		}
		html, err := s.Renderer.Section(slot, snap)
		if err != nil {
			return fmt.Errorf("section %s: %w", slot, err)
		}
		out[slot] = html
	}
	for _, slot := range sectionSlots {
		if html, ok := out[slot]; ok {
			s.View.SetSection(slot, html)
		}
	}
	return nil
}

// -----------------------------------------------------------------------------
// Error surfacing
// -----------------------------------------------------------------------------

func (s *SyncLoop) surface(err error, where string) uint64 {
	s.ErrorHandler.Handle(err, where)
	msg := helpers.UserMessage(err, s.Renderer.Strings.Get("error"))
	return s.View.ShowNotice(msg, "error", s.ErrorDisplay)
}

// ShowError puts msg in the shared notice. Used by the dispatcher.
func (s *SyncLoop) ShowError(msg string) {
	id := s.View.ShowNotice(msg, "error", s.ErrorDisplay)
	s.mu.Lock()
	s.errorNotice = id
	s.mu.Unlock()
}

// -----------------------------------------------------------------------------
// State
// -----------------------------------------------------------------------------

// State reports where the loop is in Idle -> Fetching -> Rendering|ErrorDisplayed -> Idle.
// ErrorDisplayed lasts as long as the failure notice stays on screen.
func (s *SyncLoop) State() LoopState {
	s.mu.Lock()
	inflight, rendering, errorNotice := s.inflight, s.rendering, s.errorNotice
	s.mu.Unlock()

	switch {
	case rendering:
		return StateRendering
	case inflight > 0:
		return StateFetching
	}
	if errorNotice != 0 {
		if n := s.View.Notice(); n != nil && n.ID == errorNotice {
			return StateErrorDisplayed
		}
	}
	return StateIdle
}

func (s *SyncLoop) beginFetch() {
	s.mu.Lock()
	s.inflight++
	s.mu.Unlock()
}

// endFetch closes one fetch. A success forgets the failure notice; otherwise a
// non-zero noticeID replaces it and zero keeps the current one.
func (s *SyncLoop) endFetch(success bool, noticeID uint64) {
	s.mu.Lock()
	s.inflight--
	if success {
		s.errorNotice = 0
	} else if noticeID != 0 {
		s.errorNotice = noticeID
	}
	s.mu.Unlock()
}

func (s *SyncLoop) setRendering(on bool) {
	s.mu.Lock()
	s.rendering = on
	s.mu.Unlock()
}

func (s *SyncLoop) notify(rec models.MFetchRecord, started time.Time) {
	rec.DurationMs = time.Since(started).Milliseconds()
	rec.CreatedAt = time.Now().UTC()

	s.mu.Lock()
	observers := append([]interfaces.IFetchObserver(nil), s.observers...)
	s.mu.Unlock()

	for _, o := range observers {
		o.OnFetchComplete(rec)
	}
}
