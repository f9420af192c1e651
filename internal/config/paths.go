// Package config resolves the broker's runtime directory and loads optional
// on-disk defaults for the CLI flags in §6.
package config

import (
	"os"
	"path/filepath"
	"runtime"
)

// Paths holds the directory the broker reads its defaults file from. All paths are relative to BaseDir (~/.cord-broker on Unix,
// %APPDATA%\cord-broker on Windows), adapted from clai's ~/.clai layout.
type Paths struct {
	BaseDir string
}

// DefaultPaths resolves BaseDir, honoring a CORD_BROKER_HOME override.
func DefaultPaths() *Paths {
	if home := os.Getenv("CORD_BROKER_HOME"); home != "" {
		return &Paths{BaseDir: home}
	}

	home := homeDir()
	if runtime.GOOS == "windows" {
		appData := os.Getenv("APPDATA")
		if appData == "" {
			appData = filepath.Join(home, "AppData", "Roaming")
		}
		return &Paths{BaseDir: filepath.Join(appData, "cord-broker")}
	}
	return &Paths{BaseDir: filepath.Join(home, ".cord-broker")}
}

// ConfigFile returns the path to the defaults file (§6 Configuration).
func (p *Paths) ConfigFile() string {
	return filepath.Join(p.BaseDir, "config.yaml")
}

// LogFile returns the path of a broker log file under BaseDir. The CLI in
// cmd/cord-broker logs to stderr and does not use this path.
func (p *Paths) LogFile() string {
	return filepath.Join(p.BaseDir, "cord-broker.log")
}

// EnsureBaseDir creates BaseDir if it does not already exist.
func (p *Paths) EnsureBaseDir() error {
	return os.MkdirAll(p.BaseDir, 0o755)
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		if runtime.GOOS == "windows" {
			return os.Getenv("USERPROFILE")
		}
		return os.Getenv("HOME")
	}
	return home
}
