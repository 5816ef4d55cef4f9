package sessionkit

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/miraiworks/sessionkit/tokenstore"
)

// Manager is the session orchestrator. It owns the single live [Session]
// value and coordinates the [Backend], the token store, and the reducer.
//
// Manager instances are built through [Builder.Build] and are safe for
// concurrent use. State changes flow exclusively through the reducer; see
// the package documentation for the completion-ordering contract.
type Manager struct {
	config  Config
	backend Backend
	tokens  tokenstore.Store
	audit   *auditDispatcher
	metrics *Metrics
	logger  zerolog.Logger

	mu     sync.Mutex
	state  Session
	gen    uint64
	closed bool

	// pendingTwoFactor holds the challenge token of a login that stopped
	// at the second-factor step. Cleared on completion and on logout.
	pendingTwoFactor string

	refreshGroup singleflight.Group

	subMu   sync.Mutex
	subs    map[uint64]func(Session)
	nextSub uint64
}

// Snapshot returns a copy of the current session state.
func (m *Manager) Snapshot() Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Subscribe registers fn to be called with a session copy after every
// applied action. fn must not block; it runs on the dispatching
// goroutine. The returned function cancels the subscription.
func (m *Manager) Subscribe(fn func(Session)) func() {
	m.subMu.Lock()
	id := m.nextSub
	m.nextSub++
	if m.subs == nil {
		m.subs = make(map[uint64]func(Session))
	}
	m.subs[id] = fn
	m.subMu.Unlock()

	return func() {
		m.subMu.Lock()
		delete(m.subs, id)
		m.subMu.Unlock()
	}
}

// Close invalidates all in-flight operations and shuts down the audit
// dispatcher. Operations invoked after Close return [ErrManagerClosed].
func (m *Manager) Close() {
	if m == nil {
		return
	}
	m.mu.Lock()
	m.closed = true
	m.gen++
	m.mu.Unlock()

	if m.audit != nil {
		m.audit.Close()
	}
}

// MetricsSnapshot returns a point-in-time copy of all metrics.
func (m *Manager) MetricsSnapshot() MetricsSnapshot {
	if m == nil || m.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return m.metrics.Snapshot()
}

// AuditDropped reports how many audit events were dropped under
// dispatcher backpressure.
func (m *Manager) AuditDropped() uint64 {
	if m == nil || m.audit == nil {
		return 0
	}
	return m.audit.Dropped()
}

// begin opens a state-mutating operation: it advances the in-flight
// generation and returns the new value. Completions carrying an older
// generation are discarded by dispatchIf.
func (m *Manager) begin() (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return 0, ErrManagerClosed
	}
	m.gen++
	return m.gen, nil
}

// dispatch applies an action unconditionally. Used by the synchronous
// operations (UpdateUser, ClearError) that neither open a generation nor
// invalidate in-flight work.
func (m *Manager) dispatch(a action) Session {
	m.mu.Lock()
	m.state = reduce(m.state, a)
	next := m.state
	m.mu.Unlock()

	m.notify(next)
	return next
}

// dispatchIf applies an action only when gen is still the current
// in-flight generation. A false return means the completion was stale and
// the session state was left untouched.
func (m *Manager) dispatchIf(gen uint64, a action) bool {
	m.mu.Lock()
	if gen != m.gen {
		m.mu.Unlock()
		m.metricInc(MetricStaleCompletionDiscarded)
		m.logger.Debug().Uint64("generation", gen).Msg("discarded stale completion")
		return false
	}
	m.state = reduce(m.state, a)
	next := m.state
	m.mu.Unlock()

	m.notify(next)
	return true
}

func (m *Manager) notify(s Session) {
	m.subMu.Lock()
	fns := make([]func(Session), 0, len(m.subs))
	for _, fn := range m.subs {
		fns = append(fns, fn)
	}
	m.subMu.Unlock()

	for _, fn := range fns {
		fn(s)
	}
}

func (m *Manager) currentUser() *User {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.User
}

func (m *Manager) metricInc(id MetricID) {
	if m == nil || m.metrics == nil {
		return
	}
	m.metrics.Inc(id)
}

// observeBackend records backend call latency when histograms are on.
// Callers defer it with the call's start time.
func (m *Manager) observeBackend(start time.Time) {
	if m == nil || m.metrics == nil || !m.metrics.LatencyEnabled() {
		return
	}
	m.metrics.Observe(MetricBackendLatency, time.Since(start))
}

func (m *Manager) emitAudit(ctx context.Context, op string, success bool, userID string, err error, metadata func() map[string]string) {
	if m == nil || m.audit == nil {
		return
	}

	event := AuditEvent{
		Timestamp: time.Now(),
		Operation: op,
		UserID:    userID,
		Success:   success,
	}
	if err != nil {
		event.Error = err.Error()
	}
	if metadata != nil {
		event.Metadata = metadata()
	}

	m.audit.Emit(ctx, event)
}
