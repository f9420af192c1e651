// Package icons holds the immutable filetype→(icon, tooltip) lookup tables
// built at startup (spec §9: "build them as immutable lookup tables at
// startup"). The mapping table *contents* are explicitly out of scope
// (spec.md §1) so this carries a small, representative set per category
// rather than the original's full table; it exists purely so
// internal/presence's UpdateActivity path has something to resolve against.
package icons

// entry is one filetype's icon/tooltip pair. The table below is grouped by
// category, mirroring the category split in original_source/src/mappings.
type entry struct {
	icon    string
	tooltip string
}

var byFiletype = map[string]entry{
	// language
	"go":         {"go", "Go"},
	"rust":       {"rust", "Rust"},
	"python":     {"python", "Python"},
	"javascript": {"javascript", "JavaScript"},
	"typescript": {"typescript", "TypeScript"},
	"c":          {"c", "C"},
	"cpp":        {"cpp", "C++"},
	"java":       {"java", "Java"},
	"ruby":       {"ruby", "Ruby"},
	"lua":        {"lua", "Lua"},
	"markdown":   {"markdown", "Markdown"},
	"json":       {"json", "JSON"},
	"yaml":       {"yaml", "YAML"},
	"toml":       {"toml", "TOML"},
	"sh":         {"shell", "Shell script"},

	// file_browser
	"netrw":       {"file_browser", "File browser"},
	"nvimtree":    {"file_browser", "File browser"},
	"neo-tree":    {"file_browser", "File browser"},
	"oil":         {"file_browser", "File browser"},

	// plugin_manager
	"lazy":   {"plugin_manager", "Plugin manager"},
	"packer": {"plugin_manager", "Plugin manager"},

	// lsp
	"lspinfo": {"lsp", "LSP"},
	"mason":   {"lsp", "LSP"},

	// vcs
	"gitcommit": {"vcs", "Git"},
	"fugitive":  {"vcs", "Git"},
	"git":       {"vcs", "Git"},
}

const (
	unknownIcon    = "unknown"
	unknownTooltip = "Unknown filetype"
)

// Resolve returns the icon and tooltip for filetype, falling back to an
// "unknown" entry when there is no match.
func Resolve(filetype string) (icon, tooltip string) {
	if e, ok := byFiletype[filetype]; ok {
		return e.icon, e.tooltip
	}
	return unknownIcon, unknownTooltip
}
