package view

import (
	"html/template"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"

	"rdm-dashboard/src/logger"
	"rdm-dashboard/src/models"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newTestView(slots ...string) *View {
	return NewView(logger.FromZap(zap.NewNop(), "view"), slots...)
}

func TestSetSectionAbsentSlotIsNoop(t *testing.T) {
	v := newTestView(models.SlotStats)

	assert.True(t, v.SetSection(models.SlotStats, "<p>a</p>"))
	assert.False(t, v.SetSection(models.SlotAgentGrid, "<p>b</p>"))

	state := v.State()
	assert.Equal(t, map[string]string{models.SlotStats: "<p>a</p>"}, state.Sections)
	_, ok := v.Section(models.SlotAgentGrid)
	assert.False(t, ok)
}

func TestSetSectionSameContentDoesNotBumpVersion(t *testing.T) {
	v := newTestView()
	v.SetSection(models.SlotStats, "x")
	before := v.State().Version
	v.SetSection(models.SlotStats, template.HTML("x"))
	assert.Equal(t, before, v.State().Version)
}

func TestLoadingHideIsIdempotent(t *testing.T) {
	v := newTestView()
	v.HideLoading()
	assert.Equal(t, uint64(0), v.State().Version)

	v.ShowLoading()
	assert.True(t, v.Loading())
	v.HideLoading()
	v.HideLoading()
	assert.False(t, v.Loading())
	assert.Equal(t, uint64(2), v.State().Version)
}

func TestNoticeExpires(t *testing.T) {
	v := newTestView()
	defer v.Close()

	v.ShowNotice("boom", "error", 20*time.Millisecond)
	require.NotNil(t, v.Notice())
	assert.Equal(t, "boom", v.Notice().Message)

	assert.Eventually(t, func() bool { return v.Notice() == nil }, time.Second, 5*time.Millisecond)
}

func TestNewerNoticeSurvivesOlderTimer(t *testing.T) {
	v := newTestView()
	defer v.Close()

	first := v.ShowNotice("first", "error", 10*time.Millisecond)
	second := v.ShowNotice("second", "error", 0)
	assert.Greater(t, second, first)

	time.Sleep(40 * time.Millisecond)
	n := v.Notice()
	require.NotNil(t, n)
	assert.Equal(t, "second", n.Message)

	v.ClearNotice()
	assert.Nil(t, v.Notice())
}

func TestControls(t *testing.T) {
	v := newTestView()
	assert.True(t, v.ClaimControl("order_status:42:ready"))
	assert.True(t, v.ClaimControl("agent_status:1:busy"))
	assert.False(t, v.ClaimControl("order_status:42:ready"), "already held")
	assert.True(t, v.ClaimControl(""))

	assert.True(t, v.IsDisabled("order_status:42:ready"))
	assert.Equal(t, []string{"agent_status:1:busy", "order_status:42:ready"}, v.State().DisabledControls)

	v.EnableControl("order_status:42:ready")
	v.EnableControl("order_status:42:ready")
	assert.False(t, v.IsDisabled("order_status:42:ready"))
	assert.Len(t, v.State().DisabledControls, 1)
}

func TestListenersSeeEveryChangeInOrder(t *testing.T) {
	v := newTestView()

	var mu sync.Mutex
	var versions []uint64
	v.OnChange(func(s models.MViewState) {
		mu.Lock()
		versions = append(versions, s.Version)
		mu.Unlock()
	})

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			v.ShowLoading()
			v.SetSection(models.SlotStats, template.HTML(string(rune('a'+i))))
			v.HideLoading()
		}(i)
	}
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	require.NotEmpty(t, versions)
	for i := 1; i < len(versions); i++ {
		assert.Equal(t, versions[i-1]+1, versions[i])
	}
	assert.Equal(t, v.State().Version, versions[len(versions)-1])
}

func TestStateIsACopy(t *testing.T) {
	v := newTestView()
	v.SetSection(models.SlotStats, "a")
	v.ShowNotice("n", "error", 0)

	s := v.State()
	s.Sections[models.SlotStats] = "mutated"
	s.Notice.Message = "mutated"

	got, _ := v.Section(models.SlotStats)
	assert.Equal(t, template.HTML("a"), got)
	assert.Equal(t, "n", v.Notice().Message)
}
