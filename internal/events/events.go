// Package events defines the broker's event vocabulary (§4.5) as a closed
// set of Go types. It depends only on internal/presence, so internal/upstream
// and internal/pipeserver can produce events, and internal/broker consume
// them, without the producers importing internal/broker.
package events

import "github.com/cordbroker/cord-broker/internal/presence"

// Kind tags which field of Event is populated.
type Kind int

const (
	// Client events: one per connected editor, decoded off the downstream wire.
	Connect Kind = iota
	Initialize
	UpdateActivity
	ClearActivity
	UpdateWorkspace
	SetTimestamp
	ResetTimestamp
	Disconnect

	// Local events: broker-internal, not addressed to any specific client.
	Error
	Shutdown

	// Server events: broker-originated, broadcast or targeted back to editors.
	Log
	StatusUpdate
	Ready
	Restart
	ServerDisconnect
)

// Status is the upstream connection status broadcast by StatusUpdate (§4.6).
type Status string

const (
	StatusDisconnected Status = "disconnected"
	StatusConnecting   Status = "connecting"
	StatusConnected    Status = "connected"
	StatusReady        Status = "ready"
)

// InitializePayload carries the per-session config attached by an
// `initialize` downstream message.
type InitializePayload struct {
	Config presence.PluginConfig
}

// UpdateActivityPayload carries the raw editor-supplied activity context;
// the handler builds the final presence.Activity from it.
type UpdateActivityPayload struct {
	Context presence.ActivityContext
}

// ClearActivityPayload carries whether the clear should force-clear the
// broker's current activity (§4.6 ClearActivity).
type ClearActivityPayload struct {
	Force bool
}

// UpdateWorkspacePayload carries the raw workspace path from an
// `update_workspace` downstream message; the handler reduces it to a
// basename before storing it on the session.
type UpdateWorkspacePayload struct {
	Workspace string
}

// SetTimestampPayload carries the timestamp from a `set_timestamp`
// downstream message (nil clears it, mirroring reset_timestamp).
type SetTimestampPayload struct {
	Timestamp *int64
}

// LogPayload carries a single log record bound for the log buffer or a
// broadcast (§4.6 Log). ClientID 0 means broadcast; any other value targets
// that one session.
type LogPayload struct {
	ClientID uint64
	Level    uint8
	Message  string
}

// Event is a tagged union over the variants named in §4.5. Exactly one of
// the payload fields is meaningful, selected by Kind.
type Event struct {
	Kind Kind

	Initialize      *InitializePayload
	UpdateActivity  *UpdateActivityPayload
	ClearActivity   *ClearActivityPayload
	UpdateWorkspace *UpdateWorkspacePayload
	SetTimestamp    *SetTimestampPayload
	Err             error
	Log             *LogPayload
	Status          Status
}

// Message pairs an Event with the session that produced it (0 for events
// with no originating session, e.g. upstream-originated or broker-internal
// events).
type Message struct {
	ClientID uint64
	Event    Event
}

// NewConnect builds a Connect event for client id.
func NewConnect(clientID uint64) Message {
	return Message{ClientID: clientID, Event: Event{Kind: Connect}}
}

// NewDisconnect builds a Disconnect event for client id.
func NewDisconnect(clientID uint64) Message {
	return Message{ClientID: clientID, Event: Event{Kind: Disconnect}}
}

// NewError builds a LocalEvent Error carrying err, optionally scoped to a client.
func NewError(clientID uint64, err error) Message {
	return Message{ClientID: clientID, Event: Event{Kind: Error, Err: err}}
}

// NewShutdown builds the Shutdown LocalEvent.
func NewShutdown() Message {
	return Message{Event: Event{Kind: Shutdown}}
}

// NewReady builds the upstream-originated Ready ServerEvent.
func NewReady() Message {
	return Message{Event: Event{Kind: Ready}}
}

// NewStatusUpdate builds a StatusUpdate ServerEvent.
func NewStatusUpdate(status Status) Message {
	return Message{Event: Event{Kind: StatusUpdate, Status: status}}
}

// NewLog builds a Log ServerEvent.
func NewLog(clientID uint64, level uint8, message string) Message {
	return Message{Event: Event{Kind: Log, Log: &LogPayload{ClientID: clientID, Level: level, Message: message}}}
}

// NewRestart builds the Restart ServerEvent.
func NewRestart() Message {
	return Message{Event: Event{Kind: Restart}}
}

// NewUpdateWorkspace builds an UpdateWorkspace ClientEvent for client id.
func NewUpdateWorkspace(clientID uint64, workspace string) Message {
	return Message{ClientID: clientID, Event: Event{
		Kind:            UpdateWorkspace,
		UpdateWorkspace: &UpdateWorkspacePayload{Workspace: workspace},
	}}
}

// NewSetTimestamp builds a SetTimestamp ClientEvent for client id.
func NewSetTimestamp(clientID uint64, timestamp *int64) Message {
	return Message{ClientID: clientID, Event: Event{
		Kind:         SetTimestamp,
		SetTimestamp: &SetTimestampPayload{Timestamp: timestamp},
	}}
}

// NewResetTimestamp builds a ResetTimestamp ClientEvent for client id.
func NewResetTimestamp(clientID uint64) Message {
	return Message{ClientID: clientID, Event: Event{Kind: ResetTimestamp}}
}
