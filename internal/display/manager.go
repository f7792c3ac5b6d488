package display

import (
	"log/slog"
	"sync"
	"time"

	"github.com/jmylchreest/toastui/internal/config"
	"github.com/jmylchreest/toastui/internal/model"
)

// entry is the Manager's record of one active toast.
type entry struct {
	toast      model.Toast
	state      State
	stateSince time.Time
	reason     CloseReason

	// dismissed is set by the first removal path to run. Every later path,
	// including a timer callback that was already in flight, sees it and stops.
	dismissed bool

	expireTimer Timer // auto-dismiss countdown, started at creation
	animTimer   Timer // entrance or exit animation
}

// stopTimers cancels any pending callbacks for the entry.
func (e *entry) stopTimers() {
	if e.expireTimer != nil {
		e.expireTimer.Stop()
		e.expireTimer = nil
	}
	if e.animTimer != nil {
		e.animTimer.Stop()
		e.animTimer = nil
	}
}

type closedToast struct {
	toast  model.Toast
	reason CloseReason
}

// Manager owns the ordered set of active toasts.
// At most Toast.Capacity toasts are active at any time; when a new toast
// would exceed that, the oldest one is evicted without an exit animation.
type Manager struct {
	mu     sync.Mutex
	config *config.Config
	sched  Scheduler
	logger *slog.Logger

	// Active toasts, oldest first
	entries []*entry
	index   map[string]*entry

	onClose CloseCallback
	pending []closedToast // close callbacks to run once the lock is released

	subscribers []chan Event
	closed      bool
}

// NewManager creates a new Manager.
// A nil cfg uses the defaults, a nil sched uses real timers.
func NewManager(cfg *config.Config, sched Scheduler, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if sched == nil {
		sched = ClockScheduler()
	}

	return &Manager{
		config: cfg,
		sched:  sched,
		logger: logger,
		index:  make(map[string]*entry),
	}
}

// mustInit panics when m was not built by NewManager.
func (m *Manager) mustInit() {
	if m == nil || m.index == nil {
		panic("display: Manager used before NewManager")
	}
}

// unlock releases the lock and then runs queued close callbacks.
func (m *Manager) unlock() {
	pending := m.pending
	m.pending = nil
	cb := m.onClose
	m.mu.Unlock()

	if cb == nil {
		return
	}
	for _, p := range pending {
		cb(p.toast, p.reason)
	}
}

// SetCloseCallback sets the callback for toasts leaving the active set.
func (m *Manager) SetCloseCallback(cb CloseCallback) {
	m.mustInit()
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onClose = cb
}

// Show adds a toast and returns its id.
// Malformed requests are normalized; Show never fails.
func (m *Manager) Show(req model.Request) string {
	m.mustInit()
	m.mu.Lock()
	defer m.unlock()

	now := m.sched.Now()
	t := model.NewToast(req, m.config.Toast.DefaultDuration.Duration(), now)

	if m.closed {
		m.logger.Debug("manager closed, dropping toast", "toast_id", t.ID)
		return t.ID
	}

	e := &entry{
		toast:      t,
		state:      StateEntering,
		stateSince: now,
	}
	m.entries = append(m.entries, e)
	m.index[t.ID] = e

	// The countdown runs from creation, in parallel with the entrance
	e.expireTimer = m.sched.AfterFunc(t.Duration, func() { m.expire(e) })
	if enter := m.config.Toast.EnterDuration.Duration(); enter > 0 {
		e.animTimer = m.sched.AfterFunc(enter, func() { m.entered(e) })
	} else {
		e.state = StateVisible
	}

	m.logger.Debug("showed toast",
		"toast_id", t.ID,
		"kind", t.Kind,
		"duration", t.Duration,
		"active", len(m.entries),
	)

	m.evictOverflowLocked()

	m.notifyChange(Event{Type: EventAdded, Toast: t, State: e.state, Active: len(m.entries)})

	return t.ID
}

// Notify is shorthand for Show with the individual fields.
func (m *Manager) Notify(kind model.Kind, title, message string, duration time.Duration) string {
	return m.Show(model.Request{Kind: kind, Title: title, Message: message, Duration: duration})
}

// Dismiss starts the exit of the toast with id.
// Unknown, already dismissed or removed ids are ignored.
func (m *Manager) Dismiss(id string) {
	m.mustInit()
	m.mu.Lock()
	defer m.unlock()

	e, exists := m.index[id]
	if !exists || e.dismissed {
		return
	}
	m.beginExitLocked(e, CloseReasonDismissed)
}

// CloseAll starts the exit of every active toast.
func (m *Manager) CloseAll() {
	m.mustInit()
	m.mu.Lock()
	defer m.unlock()

	// beginExitLocked may splice entries when there is no exit animation
	entries := append([]*entry(nil), m.entries...)
	for _, e := range entries {
		if !e.dismissed {
			m.beginExitLocked(e, CloseReasonClosed)
		}
	}
}

// Active returns a snapshot of the active sequence, oldest first.
func (m *Manager) Active() []ActiveToast {
	m.mustInit()
	m.mu.Lock()
	defer m.mu.Unlock()

	active := make([]ActiveToast, len(m.entries))
	for i, e := range m.entries {
		active[i] = ActiveToast{Toast: e.toast, State: e.state, StateSince: e.stateSince}
	}
	return active
}

// Get returns the active toast with id.
func (m *Manager) Get(id string) (ActiveToast, bool) {
	m.mustInit()
	m.mu.Lock()
	defer m.mu.Unlock()

	e, exists := m.index[id]
	if !exists {
		return ActiveToast{}, false
	}
	return ActiveToast{Toast: e.toast, State: e.state, StateSince: e.stateSince}, true
}

// ActiveCount returns the number of toasts in the active set.
func (m *Manager) ActiveCount() int {
	m.mustInit()
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// Now returns the scheduler's current time, for renderers computing progress.
func (m *Manager) Now() time.Time {
	m.mustInit()
	return m.sched.Now()
}

// UpdateConfig swaps the configuration. New durations apply to later toasts;
// a smaller capacity evicts the oldest toasts straight away. A nil cfg
// restores the defaults.
func (m *Manager) UpdateConfig(cfg *config.Config) {
	m.mustInit()
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	m.mu.Lock()
	defer m.unlock()

	oldCapacity := m.config.Toast.Capacity
	m.config = cfg

	m.logger.Debug("display manager config updated",
		"old_capacity", oldCapacity,
		"new_capacity", cfg.Toast.Capacity,
	)

	m.evictOverflowLocked()
}

// Subscribe returns a channel that receives change events.
// Events are dropped for a subscriber whose buffer is full.
func (m *Manager) Subscribe() <-chan Event {
	m.mustInit()
	m.mu.Lock()
	defer m.mu.Unlock()

	ch := make(chan Event, 32)
	if m.closed {
		close(ch)
		return ch
	}
	m.subscribers = append(m.subscribers, ch)
	return ch
}

// Unsubscribe removes a subscription.
func (m *Manager) Unsubscribe(ch <-chan Event) {
	m.mustInit()
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, sub := range m.subscribers {
		if sub == ch {
			m.subscribers = append(m.subscribers[:i], m.subscribers[i+1:]...)
			close(sub)
			return
		}
	}
}

// Close cancels every timer, drops all toasts and closes all subscriptions.
// Close callbacks are not run for the dropped toasts.
func (m *Manager) Close() {
	m.mustInit()
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return
	}
	m.closed = true

	for _, e := range m.entries {
		e.dismissed = true
		e.stopTimers()
		e.state = StateRemoved
	}
	m.entries = nil
	m.index = make(map[string]*entry)

	for _, ch := range m.subscribers {
		close(ch)
	}
	m.subscribers = nil

	m.logger.Debug("display manager closed")
}

// entered runs when the entrance animation completes.
func (m *Manager) entered(e *entry) {
	m.mu.Lock()
	defer m.unlock()

	if e.state != StateEntering {
		return
	}
	e.animTimer = nil
	m.setStateLocked(e, StateVisible)
}

// expire runs when the display duration runs out.
func (m *Manager) expire(e *entry) {
	m.mu.Lock()
	defer m.unlock()

	if e.dismissed {
		return
	}
	e.expireTimer = nil
	m.beginExitLocked(e, CloseReasonExpired)
}

// exited runs when the exit animation completes.
func (m *Manager) exited(e *entry) {
	m.mu.Lock()
	defer m.unlock()

	if e.state != StateExiting {
		return
	}
	e.animTimer = nil
	m.removeLocked(e, e.reason)
}

// beginExitLocked sets the guard, cancels pending timers and starts the
// exit animation. Caller must hold the lock.
func (m *Manager) beginExitLocked(e *entry, reason CloseReason) {
	e.dismissed = true
	e.reason = reason
	e.stopTimers()

	exit := m.config.Toast.ExitDuration.Duration()
	if exit <= 0 {
		m.removeLocked(e, reason)
		return
	}

	m.setStateLocked(e, StateExiting)
	e.animTimer = m.sched.AfterFunc(exit, func() { m.exited(e) })
}

// evictOverflowLocked removes the oldest toasts until the set fits the
// capacity. Evicted toasts skip the exit animation. Caller must hold the lock.
func (m *Manager) evictOverflowLocked() {
	capacity := m.config.Toast.Capacity
	if capacity < 1 {
		capacity = 1
	}

	for len(m.entries) > capacity {
		oldest := m.entries[0]
		oldest.dismissed = true
		oldest.stopTimers()
		m.removeLocked(oldest, CloseReasonEvicted)
	}
}

// removeLocked splices e out of the active sequence. Caller must hold the lock.
func (m *Manager) removeLocked(e *entry, reason CloseReason) {
	for i, cur := range m.entries {
		if cur == e {
			m.entries = append(m.entries[:i], m.entries[i+1:]...)
			break
		}
	}
	delete(m.index, e.toast.ID)

	e.state = StateRemoved
	e.stateSince = m.sched.Now()

	m.logger.Debug("removed toast",
		"toast_id", e.toast.ID,
		"reason", reason.String(),
		"active", len(m.entries),
	)

	m.notifyChange(Event{
		Type:   EventRemoved,
		Toast:  e.toast,
		State:  StateRemoved,
		Reason: reason,
		Active: len(m.entries),
	})
	m.pending = append(m.pending, closedToast{toast: e.toast, reason: reason})
}

// setStateLocked moves e to state and announces it. Caller must hold the lock.
func (m *Manager) setStateLocked(e *entry, state State) {
	e.state = state
	e.stateSince = m.sched.Now()

	m.logger.Debug("toast state changed",
		"toast_id", e.toast.ID,
		"state", state.String(),
	)

	m.notifyChange(Event{
		Type:   EventStateChanged,
		Toast:  e.toast,
		State:  state,
		Reason: e.reason,
		Active: len(m.entries),
	})
}

// notifyChange fans an event out to subscribers. Caller must hold the lock.
func (m *Manager) notifyChange(event Event) {
	for _, ch := range m.subscribers {
		select {
		case ch <- event:
		default:
			// Channel full, skip
		}
	}
}
