package session

import (
	"sync"
	"sync/atomic"

	"github.com/cordbroker/cord-broker/internal/presence"
)

// Manager is the BrokerState's session map plus the two pieces of global
// activity state that depend on it: current_activity and shared_timestamp
// (§3). A single RWMutex guards the map and current_activity together,
// matching §4.3's "backed by a map guarded by a single reader-writer lock".
type Manager struct {
	mu       sync.RWMutex
	sessions map[uint64]*Session

	currentActivity *presence.Activity

	sharedTimestamp int64 // unix seconds; 0 means unset (atomic)
}

// NewManager constructs an empty session manager.
func NewManager() *Manager {
	return &Manager{sessions: make(map[uint64]*Session)}
}

// Create registers a new session. Callers (the pipe server's accept loop)
// own id assignment (§4.2 point 1); Create only stores it.
func (m *Manager) Create(id uint64) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := &Session{ID: id}
	m.sessions[id] = s
	return s
}

// Remove deletes a session, returning whether it existed.
func (m *Manager) Remove(id uint64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[id]; !ok {
		return false
	}
	delete(m.sessions, id)
	return true
}

// Count returns the number of live sessions.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// WithSession runs fn with exclusive access to the session identified by id,
// matching §4.3's "a session reference returned from get_session_mut holds
// the write lock for its lifetime; callers must drop it promptly" — here
// the lock's lifetime is exactly fn's execution, so it is dropped
// automatically when fn returns.
func (m *Manager) WithSession(id uint64, fn func(s *Session)) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return false
	}
	fn(s)
	return true
}

// Touch records a fresh activity for session id and stamps last_updated.
func (m *Manager) Touch(id uint64, a *presence.Activity) bool {
	return m.WithSession(id, func(s *Session) { s.touch(a) })
}

// ClearSessionActivity drops session id's last_activity.
func (m *Manager) ClearSessionActivity(id uint64) bool {
	return m.WithSession(id, func(s *Session) { s.clear() })
}

// SetWorkspace records session id's workspace name (`update_workspace`).
func (m *Manager) SetWorkspace(id uint64, workspace string) bool {
	return m.WithSession(id, func(s *Session) { s.setWorkspace(workspace) })
}

// SetTimestamp records session id's explicit timestamp (`set_timestamp`).
func (m *Manager) SetTimestamp(id uint64, ts *int64) bool {
	return m.WithSession(id, func(s *Session) { s.setTimestamp(ts) })
}

// ResetTimestamp clears session id's explicit timestamp (`reset_timestamp`).
func (m *Manager) ResetTimestamp(id uint64) bool {
	return m.WithSession(id, func(s *Session) { s.resetTimestamp() })
}

// Snapshot returns a shallow copy of the session, or nil if it doesn't exist.
func (m *Manager) Snapshot(id uint64) *Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil
	}
	cp := *s
	return &cp
}

// CurrentActivity returns the broker's current upstream activity (I2).
func (m *Manager) CurrentActivity() *presence.Activity {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.currentActivity
}

// SetCurrentActivity records a (or nil to clear) as the broker's current
// upstream activity.
func (m *Manager) SetCurrentActivity(a *presence.Activity) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.currentActivity = a
}

// SharedTimestamp reads the shared timestamp (0 if never set).
func (m *Manager) SharedTimestamp() int64 {
	return atomic.LoadInt64(&m.sharedTimestamp)
}

// EnableSharedTimestamp compare-and-swaps the shared timestamp from 0 to
// now, per §4.6 Initialize ("atomic compare-and-swap the shared_timestamp
// from 0 to now_secs"). Returns whether the swap happened.
func (m *Manager) EnableSharedTimestamp(now int64) bool {
	return atomic.CompareAndSwapInt64(&m.sharedTimestamp, 0, now)
}

// ResetSharedTimestamp zeroes the shared timestamp, done when the last
// session disconnects (§4.6 Disconnect).
func (m *Manager) ResetSharedTimestamp() {
	atomic.StoreInt64(&m.sharedTimestamp, 0)
}

// SelectOwner implements the "current owner" rule of §4.3: among sessions
// other than excludeID with a non-nil LastActivity, pick the maximum by
// (is_idle == false, last_updated); non-idle wins, ties break by the most
// recent update. Returns nil if no such session exists.
func (m *Manager) SelectOwner(excludeID uint64) *Session {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var best *Session
	for id, s := range m.sessions {
		if id == excludeID || s.LastActivity == nil {
			continue
		}
		if best == nil || ownerKeyLess(best, s) {
			best = s
		}
	}
	if best == nil {
		return nil
	}
	cp := *best
	return &cp
}

// ownerKeyLess reports whether candidate outranks current under the
// (is_idle == false, last_updated) ordering.
func ownerKeyLess(current, candidate *Session) bool {
	currentNonIdle := !current.LastActivity.IsIdle
	candidateNonIdle := !candidate.LastActivity.IsIdle
	if candidateNonIdle != currentNonIdle {
		return candidateNonIdle
	}
	return candidate.LastUpdated.After(current.LastUpdated)
}
