package dispatcher

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"

	"rdm-dashboard/src/config"
	"rdm-dashboard/src/helpers"
	"rdm-dashboard/src/logger"
	"rdm-dashboard/src/models"
	"rdm-dashboard/src/render"
	"rdm-dashboard/src/view"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// -----------------------------------------------------------------------------
// Fakes
// -----------------------------------------------------------------------------

type updateCall struct {
	kind            models.ActionKind
	id              int64
	value           string
	controlDisabled bool
}

type fakeBackend struct {
	mu      sync.Mutex
	view    *view.View
	calls   []updateCall
	failure error

	// when set, updates signal entered and wait for hold to close
	entered chan struct{}
	hold    chan struct{}
}

func (f *fakeBackend) FetchSnapshot(context.Context) (*models.MDashboardSnapshot, error) {
	return &models.MDashboardSnapshot{}, nil
}

func (f *fakeBackend) UpdateOrderStatus(_ context.Context, id int64, status string) error {
	return f.update(models.ActionOrderStatus, id, status)
}

func (f *fakeBackend) UpdateAgentStatus(_ context.Context, id int64, status string) error {
	return f.update(models.ActionAgentStatus, id, status)
}

func (f *fakeBackend) update(kind models.ActionKind, id int64, value string) error {
	disabled := f.view.IsDisabled(render.ControlID(kind, id, value))
	f.mu.Lock()
	f.calls = append(f.calls, updateCall{kind, id, value, disabled})
	failure, entered, hold := f.failure, f.entered, f.hold
	f.mu.Unlock()

	if hold != nil {
		entered <- struct{}{}
		<-hold
	}
	return failure
}

func (f *fakeBackend) Calls() []updateCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]updateCall(nil), f.calls...)
}

type fakeLoop struct {
	mu        sync.Mutex
	refreshes int
	errors    []string
}

func (l *fakeLoop) Refresh(context.Context) error {
	l.mu.Lock()
	l.refreshes++
	l.mu.Unlock()
	return nil
}

func (l *fakeLoop) ShowError(msg string) {
	l.mu.Lock()
	l.errors = append(l.errors, msg)
	l.mu.Unlock()
}

type actionDB struct {
	records []models.MActionRecord
}

func (d *actionDB) Initialize() error { return nil }
func (d *actionDB) SaveFetchRecord(models.MFetchRecord) error { return nil }
func (d *actionDB) RecentFetches(int) ([]models.MFetchRecord, error) { return nil, nil }
func (d *actionDB) RecentActions(int) ([]models.MActionRecord, error) {
	return d.records, nil
}
func (d *actionDB) CleanupOldData() error { return nil }
func (d *actionDB) Close() error { return nil }
func (d *actionDB) SaveActionRecord(rec models.MActionRecord) error {
	d.records = append(d.records, rec)
	return nil
}

type fixture struct {
	d        *Dispatcher
	view     *view.View
	backend  *fakeBackend
	loop     *fakeLoop
	db       *actionDB
	everOff  map[string]bool
	everOffM *sync.Mutex
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	log := logger.FromZap(zap.NewNop(), "dispatcher")
	v := view.NewView(log)
	t.Cleanup(v.Close)

	f := &fixture{
		view:     v,
		backend:  &fakeBackend{view: v},
		loop:     &fakeLoop{},
		db:       &actionDB{},
		everOff:  map[string]bool{},
		everOffM: &sync.Mutex{},
	}
	v.OnChange(func(s models.MViewState) {
		f.everOffM.Lock()
		for _, id := range s.DisabledControls {
			f.everOff[id] = true
		}
		f.everOffM.Unlock()
	})

	f.d = NewDispatcher(f.backend, f.loop, v, render.Strings(config.DefaultStrings), log)
	f.d.DB = f.db
	return f
}

// -----------------------------------------------------------------------------

func TestDeclineSendsNothing(t *testing.T) {
	f := newFixture(t)

	var prompt string
	err := f.d.Dispatch(context.Background(), models.ActionOrderStatus, 42, "delivered", "", func(p string) bool {
		prompt = p
		return false
	})

	assert.ErrorIs(t, err, helpers.ErrConfirmationDeclined)
	assert.Equal(t, config.DefaultStrings["confirm_order_status"], prompt)
	assert.Empty(t, f.backend.Calls(), "no network call")
	assert.Empty(t, f.everOff, "control never disabled")
	assert.Nil(t, f.view.Notice(), "no notice")
	assert.Empty(t, f.loop.errors)
	assert.Zero(t, f.loop.refreshes)
	assert.Empty(t, f.db.records)
	assert.Empty(t, f.d.Pending())
}

func TestConfirmSuccessRefreshes(t *testing.T) {
	f := newFixture(t)

	p, err := f.d.RequestAction(models.ActionOrderStatus, 42, "delivered", "")
	require.NoError(t, err)
	assert.Empty(t, f.backend.Calls(), "requesting sends nothing")
	assert.Len(t, f.d.Pending(), 1)

	require.NoError(t, p.Confirm(context.Background()))

	calls := f.backend.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, updateCall{models.ActionOrderStatus, 42, "delivered", true}, calls[0], "control is disabled while the request runs")
	assert.False(t, f.view.IsDisabled("order_status:42:delivered"))
	assert.Equal(t, 1, f.loop.refreshes)
	assert.Empty(t, f.loop.errors)

	require.Len(t, f.db.records, 1)
	assert.True(t, f.db.records[0].Success)
	assert.Equal(t, p.ID, f.db.records[0].ID)
	assert.Empty(t, f.d.Pending())
}

func TestConfirmFailureSurfacesMessage(t *testing.T) {
	f := newFixture(t)
	f.backend.failure = helpers.NewApplicationError("Invalid status transition")

	err := f.d.Dispatch(context.Background(), models.ActionAgentStatus, 7, "busy", "agent-7", func(string) bool { return true })
	require.Error(t, err)
	assert.True(t, helpers.IsApplication(err))

	assert.Equal(t, []string{"Invalid status transition"}, f.loop.errors)
	assert.Zero(t, f.loop.refreshes, "no refresh after failure")
	assert.True(t, f.everOff["agent-7"])
	assert.False(t, f.view.IsDisabled("agent-7"), "re-enabled after failure")
	require.Len(t, f.backend.Calls(), 1, "no retry")

	require.Len(t, f.db.records, 1)
	assert.False(t, f.db.records[0].Success)
	assert.Equal(t, "Invalid status transition", f.db.records[0].Message)
}

func TestTransportFailureUsesGenericMessage(t *testing.T) {
	f := newFixture(t)
	f.backend.failure = helpers.NewTransportError("order status request", errors.New("timeout"))

	err := f.d.Dispatch(context.Background(), models.ActionOrderStatus, 1, "ready", "", func(string) bool { return true })
	require.Error(t, err)
	assert.Equal(t, []string{config.DefaultStrings["error"]}, f.loop.errors)
}

// -----------------------------------------------------------------------------

func TestResolvesOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	p, err := f.d.RequestAction(models.ActionOrderStatus, 42, "ready", "")
	require.NoError(t, err)
	require.NoError(t, p.Cancel())
	assert.ErrorIs(t, p.Cancel(), ErrAlreadyResolved)
	assert.ErrorIs(t, p.Confirm(ctx), ErrAlreadyResolved)
	assert.ErrorIs(t, f.d.Confirm(ctx, p.ID), ErrNotFound)

	q, err := f.d.RequestAction(models.ActionOrderStatus, 42, "ready", "")
	require.NoError(t, err)
	require.NoError(t, f.d.Confirm(ctx, q.ID))
	assert.ErrorIs(t, q.Cancel(), ErrAlreadyResolved)
	assert.Len(t, f.backend.Calls(), 1)
}

func TestConcurrentConfirmSendsOnce(t *testing.T) {
	f := newFixture(t)
	p, err := f.d.RequestAction(models.ActionAgentStatus, 3, "offline", "")
	require.NoError(t, err)

	var wg sync.WaitGroup
	var mu sync.Mutex
	var resolvedErrs int
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if errors.Is(p.Confirm(context.Background()), ErrAlreadyResolved) {
				mu.Lock()
				resolvedErrs++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Len(t, f.backend.Calls(), 1)
	assert.Equal(t, 7, resolvedErrs)
}

func TestBusyControlRejectsDuplicateSubmission(t *testing.T) {
	f := newFixture(t)
	f.backend.entered = make(chan struct{}, 1)
	f.backend.hold = make(chan struct{})
	ctx := context.Background()
	control := render.ControlID(models.ActionOrderStatus, 42, "delivered")

	first, err := f.d.RequestAction(models.ActionOrderStatus, 42, "delivered", "")
	require.NoError(t, err)
	early, err := f.d.RequestAction(models.ActionOrderStatus, 42, "delivered", "")
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- first.Confirm(ctx) }()
	<-f.backend.entered
	require.True(t, f.view.IsDisabled(control))

	_, err = f.d.RequestAction(models.ActionOrderStatus, 42, "delivered", "")
	assert.ErrorIs(t, err, ErrControlBusy)
	assert.ErrorIs(t, early.Confirm(ctx), ErrControlBusy)
	assert.True(t, f.view.IsDisabled(control), "the rejected confirmation leaves the control alone")

	close(f.backend.hold)
	require.NoError(t, <-done)

	assert.Len(t, f.backend.Calls(), 1, "one request reached the backend")
	assert.False(t, f.view.IsDisabled(control))
	require.Len(t, f.db.records, 1)
	assert.Equal(t, first.ID, f.db.records[0].ID)

	_, err = f.d.RequestAction(models.ActionOrderStatus, 42, "delivered", "")
	assert.NoError(t, err, "free again once the first request finished")
}

func TestRequestValidation(t *testing.T) {
	f := newFixture(t)

	_, err := f.d.RequestAction("delete_order", 1, "x", "")
	assert.ErrorIs(t, err, ErrUnknownAction)
	_, err = f.d.RequestAction(models.ActionOrderStatus, 0, "ready", "")
	assert.ErrorIs(t, err, ErrInvalidRequest)
	_, err = f.d.RequestAction(models.ActionOrderStatus, 1, "  ", "")
	assert.ErrorIs(t, err, ErrInvalidRequest)
	assert.ErrorIs(t, f.d.Cancel("missing"), ErrNotFound)
}

func TestUnansweredConfirmationsExpire(t *testing.T) {
	f := newFixture(t)
	f.d.PendingTTL = time.Millisecond

	old, err := f.d.RequestAction(models.ActionOrderStatus, 1, "ready", "")
	require.NoError(t, err)
	time.Sleep(5 * time.Millisecond)
	_, err = f.d.RequestAction(models.ActionOrderStatus, 2, "ready", "")
	require.NoError(t, err)

	assert.Len(t, f.d.Pending(), 1)
	assert.ErrorIs(t, f.d.Confirm(context.Background(), old.ID), ErrNotFound)
	assert.ErrorIs(t, old.Confirm(context.Background()), ErrAlreadyResolved)
}
