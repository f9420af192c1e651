// Package activity implements the Activity Manager (§4.4): it converts a
// session's activity intent into upstream writes, honoring the configured
// rate-limit mode and optional field padding. Grounded on
// original_source/src/presence/manager.rs.
package activity

import (
	"math/rand"
	"sync"
	"time"

	"github.com/cordbroker/cord-broker/internal/presence"
)

// Sender is the subset of the upstream client the Activity Manager writes
// through; kept as an interface so tests can substitute a recorder.
type Sender interface {
	Update(a *presence.Activity) error
	Clear() error
}

const tickInterval = 500 * time.Millisecond

// Manager rate-limits activity updates per §4.4's behavior table.
type Manager struct {
	mu     sync.Mutex
	sender Sender
	cfg    presence.SyncConfig

	firstUpdate bool // true once the first update/clear has been sent

	lastUpdate       time.Time // stamped on every send (Periodic+Defer)
	lastPeriodicSync time.Time // stamped by the first send and each periodic resend; the tick's reference when reset_on_update is false

	pending     *presence.Activity // Defer mode: buffered update
	pendingIsClear bool             // Defer mode: buffered clear

	remembered *presence.Activity // Periodic mode: last activity sent, for resend

	stop chan struct{}
	done chan struct{}
}

// NewManager constructs a Manager with the disabled (send-immediately)
// config; call SetConfig to change it.
func NewManager(sender Sender) *Manager {
	return &Manager{
		sender: sender,
		cfg:    presence.DefaultSyncConfig(),
	}
}

// Start launches the 500ms background worker. Call Stop to shut it down.
func (m *Manager) Start() {
	m.mu.Lock()
	if m.stop != nil {
		m.mu.Unlock()
		return
	}
	m.stop = make(chan struct{})
	m.done = make(chan struct{})
	m.mu.Unlock()

	go m.run()
}

// Stop halts the background worker and waits for it to exit.
func (m *Manager) Stop() {
	m.mu.Lock()
	stop, done := m.stop, m.done
	m.stop = nil
	m.done = nil
	m.mu.Unlock()

	if stop == nil {
		return
	}
	close(stop)
	<-done
}

func (m *Manager) run() {
	defer close(m.done)
	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()
	for {
		select {
		case <-m.stop:
			return
		case <-ticker.C:
			m.tick()
		}
	}
}

// SetConfig installs a new SyncConfig (§4.4 set_config).
func (m *Manager) SetConfig(cfg presence.SyncConfig) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cfg = cfg
}

// Update applies §4.4's update(a) behavior table.
func (m *Manager) Update(a *presence.Activity) error {
	m.mu.Lock()
	cfg := m.cfg
	if cfg.Pad {
		a = pad(a)
	}

	if !cfg.Enabled {
		m.mu.Unlock()
		return m.sender.Update(a)
	}

	now := time.Now()

	if cfg.Mode == presence.ModePeriodic {
		m.remembered = a
		m.lastUpdate = now
		if !m.firstUpdate {
			m.lastPeriodicSync = now
		}
		m.firstUpdate = true
		m.mu.Unlock()
		return m.sender.Update(a)
	}

	// Defer mode.
	interval := time.Duration(cfg.IntervalMs) * time.Millisecond
	if !m.firstUpdate || now.Sub(m.lastUpdate) >= interval {
		m.firstUpdate = true
		m.lastUpdate = now
		m.pending = nil
		m.pendingIsClear = false
		m.mu.Unlock()
		return m.sender.Update(a)
	}
	m.pending = a
	m.pendingIsClear = false
	m.mu.Unlock()
	return nil
}

// Clear applies §4.4's clear() behavior table (same contract as update,
// buffering a Clear instead of an activity in Defer mode).
func (m *Manager) Clear() error {
	m.mu.Lock()
	cfg := m.cfg

	if !cfg.Enabled {
		m.mu.Unlock()
		return m.sender.Clear()
	}

	now := time.Now()

	if cfg.Mode == presence.ModePeriodic {
		m.remembered = nil
		m.lastUpdate = now
		if !m.firstUpdate {
			m.lastPeriodicSync = now
		}
		m.firstUpdate = true
		m.mu.Unlock()
		return m.sender.Clear()
	}

	interval := time.Duration(cfg.IntervalMs) * time.Millisecond
	if !m.firstUpdate || now.Sub(m.lastUpdate) >= interval {
		m.firstUpdate = true
		m.lastUpdate = now
		m.pending = nil
		m.pendingIsClear = false
		m.mu.Unlock()
		return m.sender.Clear()
	}
	m.pending = nil
	m.pendingIsClear = true
	m.mu.Unlock()
	return nil
}

// tick is the 500ms worker body (§4.4).
func (m *Manager) tick() {
	m.mu.Lock()
	cfg := m.cfg
	if !cfg.Enabled {
		m.mu.Unlock()
		return
	}
	now := time.Now()
	interval := time.Duration(cfg.IntervalMs) * time.Millisecond

	if cfg.Mode == presence.ModePeriodic {
		reference := m.lastPeriodicSync
		if cfg.ResetOnUpdate {
			reference = m.lastUpdate
		}
		if now.Sub(reference) < interval {
			m.mu.Unlock()
			return
		}
		remembered := m.remembered
		m.lastPeriodicSync = now
		m.lastUpdate = now
		m.mu.Unlock()

		if remembered != nil {
			_ = m.sender.Update(remembered)
		} else {
			_ = m.sender.Clear()
		}
		return
	}

	// Defer mode.
	if now.Sub(m.lastUpdate) < interval {
		m.mu.Unlock()
		return
	}
	pending, isClear := m.pending, m.pendingIsClear
	hasPending := pending != nil || isClear
	m.pending = nil
	m.pendingIsClear = false
	if hasPending {
		m.lastUpdate = now
	}
	m.mu.Unlock()

	if !hasPending {
		return
	}
	if isClear {
		_ = m.sender.Clear()
	} else {
		_ = m.sender.Update(pending)
	}
}

// pad applies §4.4's padding law to Details and State, returning a cloned
// Activity so the caller's value is never mutated in place.
func pad(a *presence.Activity) *presence.Activity {
	out := a.Clone()
	out.Details = padField(out.Details)
	out.State = padField(out.State)
	return out
}

func padField(s string) string {
	const max = presence.MaxFieldLen
	n := len(s)
	if n >= max {
		return s
	}
	available := max - n
	var padLen int
	if available < 3 {
		padLen = available
	} else {
		padLen = 3 + rand.Intn(available-2) //nolint:gosec // non-cryptographic padding, determinism not required
	}
	if padLen == 0 {
		return s
	}
	spaces := make([]byte, padLen)
	for i := range spaces {
		spaces[i] = ' '
	}
	return s + string(spaces)
}
