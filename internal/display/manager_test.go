package display

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/toastui/internal/config"
	"github.com/jmylchreest/toastui/internal/model"
)

type closeRecord struct {
	id     string
	reason CloseReason
	at     time.Time
}

type closeRecorder struct {
	mu      sync.Mutex
	sched   Scheduler
	records []closeRecord
}

func (r *closeRecorder) callback(t model.Toast, reason CloseReason) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, closeRecord{id: t.ID, reason: reason, at: r.sched.Now()})
}

func (r *closeRecorder) forID(id string) []closeRecord {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []closeRecord
	for _, rec := range r.records {
		if rec.id == id {
			out = append(out, rec)
		}
	}
	return out
}

func newTestManager(t *testing.T) (*Manager, *fakeScheduler, *closeRecorder) {
	t.Helper()
	sched := newFakeScheduler()
	m := NewManager(config.DefaultConfig(), sched, nil)
	rec := &closeRecorder{sched: sched}
	m.SetCloseCallback(rec.callback)
	t.Cleanup(m.Close)
	return m, sched, rec
}

func activeIDs(m *Manager) []string {
	var ids []string
	for _, a := range m.Active() {
		ids = append(ids, a.ID)
	}
	return ids
}

func TestManager_ShowNormalizes(t *testing.T) {
	m, _, _ := newTestManager(t)

	id := m.Show(model.Request{Kind: "bogus"})
	got, ok := m.Get(id)
	require.True(t, ok)

	assert.Equal(t, model.KindInfo, got.Kind)
	assert.Equal(t, "", got.Title)
	assert.Equal(t, 3500*time.Millisecond, got.Duration)
	assert.Equal(t, StateEntering, got.State)
}

func TestManager_NeverExceedsCapacity(t *testing.T) {
	m, _, _ := newTestManager(t)

	for i := 0; i < 50; i++ {
		m.Notify(model.KindInfo, fmt.Sprintf("toast %d", i), "", 0)
		assert.LessOrEqual(t, m.ActiveCount(), 3)
	}
}

func TestManager_EvictsOldestWithoutExitAnimation(t *testing.T) {
	m, sched, rec := newTestManager(t)

	a := m.Notify(model.KindInfo, "A", "", 0)
	b := m.Notify(model.KindInfo, "B", "", 0)
	c := m.Notify(model.KindInfo, "C", "", 0)
	d := m.Notify(model.KindInfo, "D", "", 0)

	assert.Equal(t, []string{b, c, d}, activeIDs(m))

	_, ok := m.Get(a)
	assert.False(t, ok)

	closes := rec.forID(a)
	require.Len(t, closes, 1)
	assert.Equal(t, CloseReasonEvicted, closes[0].reason)
	assert.Equal(t, sched.Now(), closes[0].at, "evicted with no delay")

	// A's timers were cancelled, so running the clock past its expiry
	// produces no second removal.
	sched.Advance(10 * time.Second)
	assert.Len(t, rec.forID(a), 1)
}

func TestManager_EvictsOldestRegardlessOfRemainingTime(t *testing.T) {
	m, _, rec := newTestManager(t)

	long := m.Notify(model.KindInfo, "long", "", time.Hour)
	m.Notify(model.KindInfo, "short", "", time.Second)
	m.Notify(model.KindInfo, "short", "", time.Second)
	m.Notify(model.KindInfo, "new", "", time.Second)

	closes := rec.forID(long)
	require.Len(t, closes, 1)
	assert.Equal(t, CloseReasonEvicted, closes[0].reason)
}

func TestManager_EvictsExitingToast(t *testing.T) {
	m, _, rec := newTestManager(t)

	a := m.Notify(model.KindInfo, "A", "", 0)
	m.Notify(model.KindInfo, "B", "", 0)
	m.Notify(model.KindInfo, "C", "", 0)
	m.Dismiss(a)

	got, ok := m.Get(a)
	require.True(t, ok)
	assert.Equal(t, StateExiting, got.State)

	m.Notify(model.KindInfo, "D", "", 0)

	closes := rec.forID(a)
	require.Len(t, closes, 1)
	assert.Equal(t, CloseReasonEvicted, closes[0].reason)
}

func TestManager_StateMachine(t *testing.T) {
	m, sched, rec := newTestManager(t)

	id := m.Notify(model.KindSuccess, "saved", "", time.Second)
	start := sched.Now()

	got, _ := m.Get(id)
	assert.Equal(t, StateEntering, got.State)

	sched.Advance(240 * time.Millisecond)
	got, _ = m.Get(id)
	assert.Equal(t, StateVisible, got.State)

	// Expiry counts from creation, not from the end of the entrance
	sched.Advance(760 * time.Millisecond)
	got, ok := m.Get(id)
	require.True(t, ok)
	assert.Equal(t, StateExiting, got.State)
	assert.Equal(t, start.Add(time.Second), got.StateSince)

	sched.Advance(280 * time.Millisecond)
	_, ok = m.Get(id)
	assert.False(t, ok)

	closes := rec.forID(id)
	require.Len(t, closes, 1)
	assert.Equal(t, CloseReasonExpired, closes[0].reason)
	assert.Equal(t, start.Add(time.Second+280*time.Millisecond), closes[0].at)
	assert.Equal(t, 0, sched.Pending())
}

func TestManager_DismissDuringCountdown(t *testing.T) {
	m, sched, rec := newTestManager(t)

	a := m.Notify(model.KindInfo, "A", "", time.Second)

	sched.Advance(500 * time.Millisecond)
	m.Dismiss(a)

	got, ok := m.Get(a)
	require.True(t, ok)
	assert.Equal(t, StateExiting, got.State)

	sched.Advance(280 * time.Millisecond)
	_, ok = m.Get(a)
	assert.False(t, ok)

	// Past the scheduled 1000ms expiry: no second removal
	sched.Advance(2 * time.Second)
	closes := rec.forID(a)
	require.Len(t, closes, 1)
	assert.Equal(t, CloseReasonDismissed, closes[0].reason)
}

func TestManager_DismissTwice(t *testing.T) {
	m, sched, rec := newTestManager(t)

	a := m.Notify(model.KindInfo, "A", "", 0)
	m.Dismiss(a)
	m.Dismiss(a)
	sched.Advance(time.Second)
	m.Dismiss(a)

	assert.Len(t, rec.forID(a), 1)
	assert.Equal(t, 0, m.ActiveCount())
}

func TestManager_DismissRacingExpiry(t *testing.T) {
	m, sched, rec := newTestManager(t)
	// Stopped timers still fire, as if their callbacks were already queued
	sched.ignoreStop = true

	a := m.Notify(model.KindInfo, "A", "", time.Second)
	sched.Advance(999 * time.Millisecond)
	m.Dismiss(a)
	sched.Advance(5 * time.Second)

	closes := rec.forID(a)
	require.Len(t, closes, 1)
	assert.Equal(t, CloseReasonDismissed, closes[0].reason)
}

func TestManager_EvictionRacingExpiry(t *testing.T) {
	m, sched, rec := newTestManager(t)
	sched.ignoreStop = true

	a := m.Notify(model.KindInfo, "A", "", time.Second)
	m.Notify(model.KindInfo, "B", "", time.Minute)
	m.Notify(model.KindInfo, "C", "", time.Minute)
	m.Notify(model.KindInfo, "D", "", time.Minute)
	sched.Advance(5 * time.Second)

	closes := rec.forID(a)
	require.Len(t, closes, 1)
	assert.Equal(t, CloseReasonEvicted, closes[0].reason)
	assert.Equal(t, 3, m.ActiveCount())
}

func TestManager_DismissUnknownIsNoop(t *testing.T) {
	m, _, rec := newTestManager(t)

	a := m.Notify(model.KindInfo, "A", "", 0)
	before := m.Active()

	assert.NotPanics(t, func() { m.Dismiss("does-not-exist") })
	assert.NotPanics(t, func() { m.Dismiss("") })

	assert.Equal(t, before, m.Active())
	assert.Empty(t, rec.forID(a))
}

func TestManager_IndependentLifecycles(t *testing.T) {
	m, sched, rec := newTestManager(t)

	a := m.Notify(model.KindInfo, "A", "", 3500*time.Millisecond)
	b := m.Notify(model.KindWarning, "B", "", 3500*time.Millisecond)
	start := sched.Now()

	sched.Advance(3500 * time.Millisecond)
	assert.Equal(t, 2, m.ActiveCount(), "both exiting, neither evicted")
	for _, at := range m.Active() {
		assert.Equal(t, StateExiting, at.State)
	}

	sched.Advance(280 * time.Millisecond)
	assert.Equal(t, 0, m.ActiveCount())

	for _, id := range []string{a, b} {
		closes := rec.forID(id)
		require.Len(t, closes, 1)
		assert.Equal(t, CloseReasonExpired, closes[0].reason)
		assert.Equal(t, start.Add(3780*time.Millisecond), closes[0].at)
	}
}

func TestManager_NoAnimations(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Toast.EnterDuration = 0
	cfg.Toast.ExitDuration = 0

	sched := newFakeScheduler()
	m := NewManager(cfg, sched, nil)
	defer m.Close()
	rec := &closeRecorder{sched: sched}
	m.SetCloseCallback(rec.callback)

	id := m.Notify(model.KindInfo, "A", "", 3500*time.Millisecond)
	got, _ := m.Get(id)
	assert.Equal(t, StateVisible, got.State)

	start := sched.Now()
	sched.Advance(3500 * time.Millisecond)

	closes := rec.forID(id)
	require.Len(t, closes, 1)
	assert.Equal(t, start.Add(3500*time.Millisecond), closes[0].at)
}

func TestManager_CloseAll(t *testing.T) {
	m, sched, rec := newTestManager(t)

	ids := []string{
		m.Notify(model.KindInfo, "A", "", 0),
		m.Notify(model.KindInfo, "B", "", 0),
	}
	m.CloseAll()
	for _, a := range m.Active() {
		assert.Equal(t, StateExiting, a.State)
	}

	sched.Advance(time.Second)
	assert.Equal(t, 0, m.ActiveCount())
	for _, id := range ids {
		closes := rec.forID(id)
		require.Len(t, closes, 1)
		assert.Equal(t, CloseReasonClosed, closes[0].reason)
	}
}

func TestManager_UpdateConfigShrinksCapacity(t *testing.T) {
	m, _, rec := newTestManager(t)

	a := m.Notify(model.KindInfo, "A", "", 0)
	b := m.Notify(model.KindInfo, "B", "", 0)
	c := m.Notify(model.KindInfo, "C", "", 0)

	cfg := config.DefaultConfig()
	cfg.Toast.Capacity = 1
	cfg.Toast.DefaultDuration = config.Duration(time.Second)
	m.UpdateConfig(cfg)

	assert.Equal(t, []string{c}, activeIDs(m))
	assert.Equal(t, CloseReasonEvicted, rec.forID(a)[0].reason)
	assert.Equal(t, CloseReasonEvicted, rec.forID(b)[0].reason)

	d := m.Show(model.Request{})
	got, _ := m.Get(d)
	assert.Equal(t, time.Second, got.Duration)
}

func TestManager_UpdateConfigNilRestoresDefaults(t *testing.T) {
	m, _, _ := newTestManager(t)

	cfg := config.DefaultConfig()
	cfg.Toast.Capacity = 1
	m.UpdateConfig(cfg)

	require.NotPanics(t, func() { m.UpdateConfig(nil) })

	for _, title := range []string{"A", "B", "C", "D"} {
		m.Notify(model.KindInfo, title, "", 0)
	}
	active := m.Active()
	require.Len(t, active, 3)
	assert.Equal(t, 3500*time.Millisecond, active[0].Duration)
}

func TestManager_Subscribe(t *testing.T) {
	m, sched, _ := newTestManager(t)
	ch := m.Subscribe()

	id := m.Notify(model.KindError, "boom", "details", time.Second)

	ev := <-ch
	assert.Equal(t, EventAdded, ev.Type)
	assert.Equal(t, id, ev.Toast.ID)
	assert.Equal(t, 1, ev.Active)

	sched.Advance(time.Second + 280*time.Millisecond)

	var types []EventType
	var states []State
	for len(types) < 3 {
		ev := <-ch
		types = append(types, ev.Type)
		states = append(states, ev.State)
	}
	assert.Equal(t, []EventType{EventStateChanged, EventStateChanged, EventRemoved}, types)
	assert.Equal(t, []State{StateVisible, StateExiting, StateRemoved}, states)

	m.Unsubscribe(ch)
	_, open := <-ch
	assert.False(t, open)
}

func TestManager_EvictionEventOrder(t *testing.T) {
	m, _, _ := newTestManager(t)

	a := m.Notify(model.KindInfo, "A", "", 0)
	m.Notify(model.KindInfo, "B", "", 0)
	m.Notify(model.KindInfo, "C", "", 0)

	ch := m.Subscribe()
	d := m.Notify(model.KindInfo, "D", "", 0)

	ev := <-ch
	assert.Equal(t, EventRemoved, ev.Type)
	assert.Equal(t, a, ev.Toast.ID)
	assert.Equal(t, CloseReasonEvicted, ev.Reason)

	ev = <-ch
	assert.Equal(t, EventAdded, ev.Type)
	assert.Equal(t, d, ev.Toast.ID)
	assert.Equal(t, 3, ev.Active)
}

func TestManager_Close(t *testing.T) {
	sched := newFakeScheduler()
	m := NewManager(nil, sched, nil)
	ch := m.Subscribe()

	m.Notify(model.KindInfo, "A", "", 0)
	<-ch
	m.Close()
	m.Close()

	assert.Equal(t, 0, m.ActiveCount())
	assert.Equal(t, 0, sched.Pending())
	_, open := <-ch
	assert.False(t, open)

	assert.NotEmpty(t, m.Show(model.Request{Title: "late"}))
	assert.Equal(t, 0, m.ActiveCount())
}

func TestManager_UninitializedPanics(t *testing.T) {
	var nilManager *Manager
	assert.Panics(t, func() { nilManager.Active() })

	var zero Manager
	assert.Panics(t, func() { zero.Active() })
	assert.Panics(t, func() { zero.Dismiss("x") })
}

func TestFromContext(t *testing.T) {
	m := NewManager(nil, newFakeScheduler(), nil)
	defer m.Close()

	ctx := WithManager(context.Background(), m)
	assert.Same(t, m, FromContext(ctx))

	assert.Panics(t, func() { FromContext(context.Background()) })
	assert.Panics(t, func() { FromContext(WithManager(context.Background(), nil)) })
}

func TestManager_RealTimers(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Toast.EnterDuration = config.Duration(5 * time.Millisecond)
	cfg.Toast.ExitDuration = config.Duration(5 * time.Millisecond)

	m := NewManager(cfg, nil, nil)
	defer m.Close()

	var mu sync.Mutex
	removed := make(map[string]time.Duration)
	start := time.Now()
	m.SetCloseCallback(func(t model.Toast, reason CloseReason) {
		mu.Lock()
		defer mu.Unlock()
		removed[t.ID] = time.Since(start)
	})

	a := m.Notify(model.KindInfo, "A", "", 50*time.Millisecond)
	b := m.Notify(model.KindInfo, "B", "", 50*time.Millisecond)

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(removed) == 2
	}, 2*time.Second, 5*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.GreaterOrEqual(t, removed[a], 50*time.Millisecond)
	assert.GreaterOrEqual(t, removed[b], 50*time.Millisecond)
}

func TestManager_ConcurrentCallers(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Toast.EnterDuration = config.Duration(time.Millisecond)
	cfg.Toast.ExitDuration = config.Duration(time.Millisecond)

	m := NewManager(cfg, nil, nil)
	defer m.Close()

	var mu sync.Mutex
	closes := make(map[string]int)
	m.SetCloseCallback(func(t model.Toast, reason CloseReason) {
		mu.Lock()
		defer mu.Unlock()
		closes[t.ID]++
	})

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				id := m.Notify(model.KindInfo, "x", "", 2*time.Millisecond)
				if i%2 == 0 {
					m.Dismiss(id)
				}
				assert.LessOrEqual(t, m.ActiveCount(), 3)
			}
		}()
	}
	wg.Wait()

	assert.Eventually(t, func() bool { return m.ActiveCount() == 0 }, 2*time.Second, 5*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Len(t, closes, 400)
	for id, n := range closes {
		assert.Equal(t, 1, n, id)
	}
}
