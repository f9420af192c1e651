package presence

import "strings"

// SyncConfig controls the Activity Manager's rate-limiting behavior (§4.4).
type SyncConfig struct {
	Enabled       bool
	Mode          SyncMode
	IntervalMs    int64
	Pad           bool
	ResetOnUpdate bool
}

// SyncMode selects between Periodic and Defer rate-limiting (§4.4).
type SyncMode int

const (
	ModePeriodic SyncMode = iota
	ModeDefer
)

// DefaultSyncConfig matches sending every update immediately, the behavior
// of (enabled=false).
func DefaultSyncConfig() SyncConfig {
	return SyncConfig{Enabled: false}
}

// PluginConfig is the per-session configuration attached by the `initialize`
// downstream event (§4.6 Initialize), grounded on
// original_source/src/types/config.rs's PluginConfig.
type PluginConfig struct {
	LogLevel        string
	SharedTimestamp bool

	IdleText    string
	IdleTooltip string

	// EditingTemplate and WorkspaceTemplate contain a single "{}" placeholder
	// substituted with the active filename / workspace path respectively.
	EditingTemplate   string
	WorkspaceTemplate string

	Buttons []Button

	SwapFields bool
	SwapIcons  bool

	Sync SyncConfig
}

// DefaultPluginConfig mirrors the original's defaults: plain "editing"/
// "workspace" templates and an "Idle" placeholder.
func DefaultPluginConfig() PluginConfig {
	return PluginConfig{
		LogLevel:          "info",
		IdleText:          "Idle",
		IdleTooltip:       "Idle",
		EditingTemplate:   "editing {}",
		WorkspaceTemplate: "workspace: {}",
		Sync:              DefaultSyncConfig(),
	}
}

// ActivityContext is the raw, editor-supplied description of what a session
// is doing; Build turns it into a finished Activity using the session's
// PluginConfig, grounded on
// original_source/src/presence/activity.rs's ActivityContext.
type ActivityContext struct {
	Filename     string
	Filetype     string
	IsReadOnly   bool
	CursorLine   int
	CursorCol    int
	ProblemCount int
	CustomAsset  string
	Workspace    string
	IsIdle       bool

	// StartTimestamp, when set, takes priority over the session timestamp
	// and the broker's shared timestamp.
	StartTimestamp *int64
}

// Build assembles the final Activity from ctx, cfg and whichever timestamp
// source applies (session timestamp, else shared timestamp when nonzero,
// else none), per §4.6's "idle shortcut, template substitution, icon/asset
// resolution, shared-timestamp injection".
func (ctx ActivityContext) Build(cfg PluginConfig, iconLookup func(filetype string) (icon, tooltip string), sessionTimestamp *int64, sharedTimestamp int64) *Activity {
	if ctx.IsIdle {
		return ctx.buildIdle(cfg)
	}

	details := substitute(cfg.EditingTemplate, ctx.effectiveName())
	state := ""
	if ctx.Workspace != "" {
		state = substitute(cfg.WorkspaceTemplate, ctx.Workspace)
	}

	icon, tooltip := ctx.effectiveIcon(iconLookup)
	assets := &Assets{
		LargeImage: icon,
		LargeText:  tooltip,
	}
	if ctx.IsReadOnly {
		assets.SmallImage = "lock"
		assets.SmallText = "read-only"
	}

	a := &Activity{
		Details:    details,
		State:      state,
		Assets:     assets,
		Timestamps: ctx.timestamps(sessionTimestamp, sharedTimestamp),
		Buttons:    cfg.Buttons,
	}
	if cfg.SwapFields {
		a.Details, a.State = a.State, a.Details
	}
	if cfg.SwapIcons {
		assets.LargeImage, assets.SmallImage = assets.SmallImage, assets.LargeImage
		assets.LargeText, assets.SmallText = assets.SmallText, assets.LargeText
	}
	return a
}

func (ctx ActivityContext) buildIdle(cfg PluginConfig) *Activity {
	idleText := cfg.IdleText
	if idleText == "" {
		idleText = "Idle"
	}
	idleTooltip := cfg.IdleTooltip
	if idleTooltip == "" {
		idleTooltip = idleText
	}
	return &Activity{
		Details: idleText,
		IsIdle:  true,
		Assets: &Assets{
			LargeImage: "idle",
			LargeText:  idleTooltip,
		},
	}
}

func (ctx ActivityContext) effectiveName() string {
	if ctx.Filename != "" {
		return ctx.Filename
	}
	return "a file"
}

func (ctx ActivityContext) effectiveIcon(lookup func(filetype string) (icon, tooltip string)) (icon, tooltip string) {
	if ctx.CustomAsset != "" {
		return ctx.CustomAsset, ctx.Filetype
	}
	if lookup != nil {
		return lookup(ctx.Filetype)
	}
	return "unknown", ctx.Filetype
}

func (ctx ActivityContext) timestamps(sessionTimestamp *int64, sharedTimestamp int64) *Timestamps {
	switch {
	case ctx.StartTimestamp != nil:
		v := *ctx.StartTimestamp
		return &Timestamps{Start: &v}
	case sessionTimestamp != nil:
		v := *sessionTimestamp
		return &Timestamps{Start: &v}
	case sharedTimestamp != 0:
		v := sharedTimestamp
		return &Timestamps{Start: &v}
	default:
		return nil
	}
}

// substitute replaces the single "{}" placeholder in template with value.
// A non-empty template with no placeholder is returned unchanged; an empty
// template yields value itself.
func substitute(template, value string) string {
	if template == "" {
		return value
	}
	return strings.Replace(template, "{}", value, 1)
}
