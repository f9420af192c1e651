package broker

import (
	"log/slog"
	"path/filepath"
	"time"

	"github.com/cordbroker/cord-broker/internal/events"
	"github.com/cordbroker/cord-broker/internal/icons"
	"github.com/cordbroker/cord-broker/internal/presence"
	"github.com/cordbroker/cord-broker/internal/session"
	"github.com/cordbroker/cord-broker/internal/wire"
)

// dispatch routes one message to its handler (§4.6). Handlers never run
// concurrently with each other (I5): dispatch is only ever called from
// runDispatcher's single loop.
func (b *Broker) dispatch(msg events.Message) {
	switch msg.Event.Kind {
	case events.Connect:
		b.handleConnect(msg.ClientID)
	case events.Initialize:
		b.handleInitialize(msg.ClientID, msg.Event.Initialize)
	case events.UpdateActivity:
		b.handleUpdateActivity(msg.ClientID, msg.Event.UpdateActivity)
	case events.ClearActivity:
		b.handleClearActivity(msg.ClientID, msg.Event.ClearActivity)
	case events.UpdateWorkspace:
		b.handleUpdateWorkspace(msg.ClientID, msg.Event.UpdateWorkspace)
	case events.SetTimestamp:
		b.handleSetTimestamp(msg.ClientID, msg.Event.SetTimestamp)
	case events.ResetTimestamp:
		b.sessions.ResetTimestamp(msg.ClientID)
	case events.Disconnect:
		b.handleDisconnect(msg.ClientID)
	case events.Error:
		b.handleError(msg.ClientID, msg.Event.Err)
	case events.Shutdown:
		b.handleShutdown("shutdown")
	case events.Restart:
		b.handleShutdown("restart")
	case events.Log:
		b.handleLog(msg.Event.Log)
	case events.StatusUpdate:
		b.handleStatusUpdate(msg.Event.Status)
	case events.Ready:
		b.handleStatusUpdate(events.StatusReady)
	}
}

// handleConnect is a no-op: the session was already inserted synchronously
// by Broker.CreateSession when the accept loop accepted the connection
// (§4.2 step 3), before this event could reach the dispatcher. Reserved for
// future per-editor negotiation (§4.6 Connect).
func (b *Broker) handleConnect(clientID uint64) {}

func (b *Broker) handleInitialize(clientID uint64, payload *events.InitializePayload) {
	if payload == nil {
		return
	}
	cfg := payload.Config

	if b.level != nil {
		if lvl, err := parseLevel(cfg.LogLevel); err == nil {
			b.level.Set(lvl)
		}
	}

	if cfg.SharedTimestamp {
		b.sessions.EnableSharedTimestamp(time.Now().Unix())
	}

	b.attachConfig(clientID, cfg)
}

func (b *Broker) handleUpdateActivity(clientID uint64, payload *events.UpdateActivityPayload) {
	if payload == nil {
		return
	}
	if !b.upstream.IsReady() {
		return
	}

	cfg := presence.DefaultPluginConfig()
	var sessionTimestamp *int64
	var sessionWorkspace string
	b.sessions.WithSession(clientID, func(s *session.Session) {
		if s.Config != nil {
			cfg = *s.Config
		}
		sessionTimestamp = s.Timestamp
		sessionWorkspace = s.Workspace
	})

	actx := payload.Context
	if actx.Workspace == "" {
		actx.Workspace = sessionWorkspace
	}
	built := actx.Build(cfg, icons.Resolve, sessionTimestamp, b.sessions.SharedTimestamp())
	b.sessions.Touch(clientID, built)

	if built.Equal(b.sessions.CurrentActivity()) {
		return
	}
	if err := b.activity.Update(built); err != nil {
		b.log.Error("activity update failed", "client_id", clientID, "error", err)
		return
	}
	b.sessions.SetCurrentActivity(built)
}

func (b *Broker) handleClearActivity(clientID uint64, payload *events.ClearActivityPayload) {
	force := payload != nil && payload.Force
	b.sessions.ClearSessionActivity(clientID)

	if force {
		if b.sessions.CurrentActivity() != nil {
			_ = b.activity.Clear()
			b.sessions.SetCurrentActivity(nil)
		}
		return
	}

	owner := b.sessions.SelectOwner(clientID)
	if owner != nil {
		if owner.LastActivity.Equal(b.sessions.CurrentActivity()) {
			return
		}
		if err := b.activity.Update(owner.LastActivity); err == nil {
			b.sessions.SetCurrentActivity(owner.LastActivity)
		}
		return
	}
	if b.sessions.CurrentActivity() != nil {
		_ = b.activity.Clear()
		b.sessions.SetCurrentActivity(nil)
	}
}

// handleUpdateWorkspace stores the workspace's basename on the session, per
// original_source's update_workspace handler (reduces an arbitrary workspace
// path down to its final path component before storing it).
func (b *Broker) handleUpdateWorkspace(clientID uint64, payload *events.UpdateWorkspacePayload) {
	if payload == nil {
		return
	}
	workspace := filepath.Base(payload.Workspace)
	if payload.Workspace == "" {
		workspace = ""
	}
	b.sessions.SetWorkspace(clientID, workspace)
}

func (b *Broker) handleSetTimestamp(clientID uint64, payload *events.SetTimestampPayload) {
	if payload == nil {
		return
	}
	b.sessions.SetTimestamp(clientID, payload.Timestamp)
}

func (b *Broker) handleDisconnect(clientID uint64) {
	b.sessions.Remove(clientID)

	if b.sessions.Count() == 0 {
		_ = b.activity.Clear()
		b.sessions.SetCurrentActivity(nil)
		b.sessions.ResetSharedTimestamp()
		return
	}

	owner := b.sessions.SelectOwner(clientID)
	if owner == nil {
		_ = b.activity.Clear()
		b.sessions.SetCurrentActivity(nil)
		return
	}
	if owner.LastActivity.Equal(b.sessions.CurrentActivity()) {
		return
	}
	if err := b.activity.Update(owner.LastActivity); err == nil {
		b.sessions.SetCurrentActivity(owner.LastActivity)
	}
}

func (b *Broker) handleError(clientID uint64, err error) {
	b.log.Error("event error", "client_id", clientID, "error", err)
}

func (b *Broker) handleShutdown(msgType string) {
	payload, err := wire.EncodeMessage(msgType, nil)
	if err == nil {
		b.pipe.Broadcast(payload)
	}
	b.running.Store(false)
}

func (b *Broker) handleLog(payload *events.LogPayload) {
	if payload == nil {
		return
	}
	if b.sessions.Count() == 0 {
		b.logBuffer.Push(LogRecord{Level: payload.Level, Message: payload.Message})
		return
	}
	encoded, err := wire.EncodeMessage("log", map[string]interface{}{
		"message": payload.Message,
		"level":   uint64(payload.Level),
	})
	if err != nil {
		return
	}
	if payload.ClientID == 0 {
		b.pipe.Broadcast(encoded)
		return
	}
	_ = b.pipe.WriteTo(payload.ClientID, encoded)
}

func (b *Broker) handleStatusUpdate(status events.Status) {
	if status == events.StatusReady && b.ready.CompareAndSwap(false, true) {
		b.drainLogBuffer()
	}
	payload, err := wire.EncodeMessage("status_update", map[string]interface{}{"status": string(status)})
	if err != nil {
		return
	}
	b.pipe.Broadcast(payload)
}

func (b *Broker) drainLogBuffer() {
	for _, rec := range b.logBuffer.Drain() {
		encoded, err := wire.EncodeMessage("log", map[string]interface{}{
			"message": rec.Message,
			"level":   uint64(rec.Level),
		})
		if err != nil {
			continue
		}
		b.pipe.Broadcast(encoded)
	}
}

func (b *Broker) attachConfig(clientID uint64, cfg presence.PluginConfig) {
	b.sessions.WithSession(clientID, func(s *session.Session) {
		s.Config = &cfg
	})
	b.activity.SetConfig(cfg.Sync)
}

func parseLevel(level string) (slog.Level, error) {
	var l slog.Level
	err := l.UnmarshalText([]byte(level))
	return l, err
}
