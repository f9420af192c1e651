// Package session tracks per-editor state: the Session data model from §3
// and the Manager that owns the session map, the broker's current activity
// and the shared timestamp, grounded on internal/daemon/session_manager.go's
// RWMutex-guarded map shape and original_source/src/session/mod.rs.
package session

import (
	"time"

	"github.com/cordbroker/cord-broker/internal/presence"
)

// Session is one connected editor instance (§3).
type Session struct {
	ID            uint64
	Workspace     string
	Timestamp     *int64
	LastActivity  *presence.Activity
	LastUpdated   time.Time
	Config        *presence.PluginConfig
}

// touch records a fresh activity mutation, used for owner-selection
// tie-breaking (§4.3).
func (s *Session) touch(a *presence.Activity) {
	s.LastActivity = a
	s.LastUpdated = time.Now()
}

// clear drops the session's declared activity without affecting timestamp
// or config.
func (s *Session) clear() {
	s.LastActivity = nil
}

// setWorkspace records the session's workspace name, set by an
// `update_workspace` client event.
func (s *Session) setWorkspace(workspace string) {
	s.Workspace = workspace
}

// setTimestamp records an explicit session timestamp, set by a
// `set_timestamp` client event (nil clears it, same as resetTimestamp).
func (s *Session) setTimestamp(ts *int64) {
	s.Timestamp = ts
}

// resetTimestamp clears the session's explicit timestamp, set by a
// `reset_timestamp` client event.
func (s *Session) resetTimestamp() {
	s.Timestamp = nil
}
