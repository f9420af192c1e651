package pipeserver

import (
	"fmt"
	"strings"

	"github.com/cordbroker/cord-broker/internal/presence"
)

// decodeInitialize interprets the `initialize` event's data map into a
// PluginConfig. Unset fields keep DefaultPluginConfig's values; this shape
// is the broker's own internal contract with the editor plugin (§1 treats
// the wire grammar, not per-type data shapes, as the external contract).
func decodeInitialize(data interface{}) (presence.PluginConfig, error) {
	cfg := presence.DefaultPluginConfig()
	m, ok := data.(map[string]interface{})
	if !ok {
		if data == nil {
			return cfg, nil
		}
		return cfg, fmt.Errorf("initialize: expected map data, got %T", data)
	}

	if v, ok := m["log_level"].(string); ok {
		cfg.LogLevel = v
	}
	if v, ok := m["shared_timestamp"].(bool); ok {
		cfg.SharedTimestamp = v
	}
	if v, ok := m["idle_text"].(string); ok {
		cfg.IdleText = v
	}
	if v, ok := m["idle_tooltip"].(string); ok {
		cfg.IdleTooltip = v
	}
	if v, ok := m["editing_template"].(string); ok {
		cfg.EditingTemplate = v
	}
	if v, ok := m["workspace_template"].(string); ok {
		cfg.WorkspaceTemplate = v
	}
	if v, ok := m["swap_fields"].(bool); ok {
		cfg.SwapFields = v
	}
	if v, ok := m["swap_icons"].(bool); ok {
		cfg.SwapIcons = v
	}
	if buttons, ok := m["buttons"].([]interface{}); ok {
		cfg.Buttons = decodeButtons(buttons)
	}
	if sync, ok := m["sync"].(map[string]interface{}); ok {
		cfg.Sync = decodeSyncConfig(sync)
	}
	return cfg, nil
}

func decodeButtons(raw []interface{}) []presence.Button {
	var out []presence.Button
	for _, item := range raw {
		m, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		label, _ := m["label"].(string)
		url, _ := m["url"].(string)
		if label == "" || !strings.HasPrefix(url, "http") {
			continue
		}
		out = append(out, presence.Button{Label: label, URL: url})
		if len(out) == 2 {
			break
		}
	}
	return out
}

func decodeSyncConfig(m map[string]interface{}) presence.SyncConfig {
	cfg := presence.DefaultSyncConfig()
	if v, ok := m["enabled"].(bool); ok {
		cfg.Enabled = v
	}
	if v, ok := asInt64(m["interval_ms"]); ok {
		cfg.IntervalMs = v
	}
	if v, ok := m["pad"].(bool); ok {
		cfg.Pad = v
	}
	if v, ok := m["reset_on_update"].(bool); ok {
		cfg.ResetOnUpdate = v
	}
	if v, ok := m["mode"].(string); ok && v == "defer" {
		cfg.Mode = presence.ModeDefer
	}
	return cfg
}

// decodeActivityContext interprets the `update_activity` event's data map.
func decodeActivityContext(data interface{}) (presence.ActivityContext, error) {
	var ctx presence.ActivityContext
	m, ok := data.(map[string]interface{})
	if !ok {
		return ctx, fmt.Errorf("update_activity: expected map data, got %T", data)
	}

	ctx.Filename, _ = m["filename"].(string)
	ctx.Filetype, _ = m["filetype"].(string)
	ctx.IsReadOnly, _ = m["is_read_only"].(bool)
	ctx.Workspace, _ = m["workspace"].(string)
	ctx.IsIdle, _ = m["is_idle"].(bool)
	ctx.CustomAsset, _ = m["custom_asset"].(string)
	if v, ok := asInt64(m["cursor_line"]); ok {
		ctx.CursorLine = int(v)
	}
	if v, ok := asInt64(m["cursor_col"]); ok {
		ctx.CursorCol = int(v)
	}
	if v, ok := asInt64(m["problem_count"]); ok {
		ctx.ProblemCount = int(v)
	}
	if v, ok := asInt64(m["start_timestamp"]); ok {
		ctx.StartTimestamp = &v
	}
	return ctx, nil
}

func decodeForce(data interface{}) bool {
	m, ok := data.(map[string]interface{})
	if !ok {
		return false
	}
	force, _ := m["force"].(bool)
	return force
}

// decodeWorkspace interprets the `update_workspace` event's data map.
func decodeWorkspace(data interface{}) (string, error) {
	m, ok := data.(map[string]interface{})
	if !ok {
		return "", fmt.Errorf("update_workspace: expected map data, got %T", data)
	}
	workspace, _ := m["workspace"].(string)
	return workspace, nil
}

// decodeTimestamp interprets the `set_timestamp` event's data map; a missing
// or non-numeric "timestamp" key means nil (clear).
func decodeTimestamp(data interface{}) (*int64, error) {
	m, ok := data.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("set_timestamp: expected map data, got %T", data)
	}
	v, ok := asInt64(m["timestamp"])
	if !ok {
		return nil, nil
	}
	return &v, nil
}

// asInt64 accepts any of the codec's decoded numeric Go types.
func asInt64(v interface{}) (int64, bool) {
	switch x := v.(type) {
	case int64:
		return x, true
	case uint64:
		return int64(x), true
	case float64:
		return int64(x), true
	case float32:
		return int64(x), true
	default:
		return 0, false
	}
}
