// Package presence holds the Activity data model (the broker's presence
// intent) and the logic that turns a session's raw activity context into a
// finished Activity ready to hand to the activity manager.
package presence

// Activity is the declarative description of what a user is doing, as
// pushed to the presence endpoint. Field names match the upstream wire
// protocol (§6) so the JSON encoder in internal/wire needs no remapping.
type Activity struct {
	Details    string      `json:"details,omitempty"`
	State      string      `json:"state,omitempty"`
	Assets     *Assets     `json:"assets,omitempty"`
	Timestamps *Timestamps `json:"timestamps,omitempty"`
	Buttons    []Button    `json:"buttons,omitempty"`

	// IsIdle marks a placeholder activity; it loses owner-selection ties
	// against any non-idle activity (spec §4.3) but is never serialized
	// upstream.
	IsIdle bool `json:"-"`
}

// Assets names the large/small image+text pairs shown alongside an Activity.
type Assets struct {
	LargeImage string `json:"large_image,omitempty"`
	LargeText  string `json:"large_text,omitempty"`
	SmallImage string `json:"small_image,omitempty"`
	SmallText  string `json:"small_text,omitempty"`
}

// Timestamps marks the start/end of an Activity in Unix seconds.
type Timestamps struct {
	Start *int64 `json:"start,omitempty"`
	End   *int64 `json:"end,omitempty"`
}

// Button is a single clickable presence button. Buttons holds at most two
// entries with an "http"-prefixed URL; the `initialize` decoder in
// internal/pipeserver drops any others before they reach a PluginConfig.
type Button struct {
	Label string `json:"label"`
	URL   string `json:"url"`
}

// MaxFieldLen is the maximum length of Details/State after padding (§3).
const MaxFieldLen = 128

// Equal reports whether two activities are identical for the purposes of
// the broker's "no-op if unchanged" rule (I2) and owner-switch suppression.
// IsIdle participates because two otherwise-identical activities with
// different idle-ness are not the same presence intent.
func (a *Activity) Equal(other *Activity) bool {
	if a == nil || other == nil {
		return a == other
	}
	if a.Details != other.Details || a.State != other.State || a.IsIdle != other.IsIdle {
		return false
	}
	if !assetsEqual(a.Assets, other.Assets) {
		return false
	}
	if !timestampsEqual(a.Timestamps, other.Timestamps) {
		return false
	}
	return buttonsEqual(a.Buttons, other.Buttons)
}

func assetsEqual(a, b *Assets) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func timestampsEqual(a, b *Timestamps) bool {
	if a == nil || b == nil {
		return a == b
	}
	return int64PtrEqual(a.Start, b.Start) && int64PtrEqual(a.End, b.End)
}

func int64PtrEqual(a, b *int64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func buttonsEqual(a, b []Button) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Clone returns a deep copy that shares no slices/pointers with a; the
// activity manager's padding uses it so the caller's value is not mutated.
func (a *Activity) Clone() *Activity {
	if a == nil {
		return nil
	}
	out := *a
	if a.Assets != nil {
		assets := *a.Assets
		out.Assets = &assets
	}
	if a.Timestamps != nil {
		ts := *a.Timestamps
		out.Timestamps = &ts
	}
	if len(a.Buttons) > 0 {
		out.Buttons = append([]Button(nil), a.Buttons...)
	}
	return &out
}
