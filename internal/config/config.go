package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Defaults supplies fallback values for the CLI flags of §6 when a flag is
// left unset on the command line. Every field is optional; zero values mean
// "no override, keep the CLI's built-in default". LogLevel has no matching
// flag: it is parsed from the file but the CLI does not apply it.
type Defaults struct {
	PipeName            string `yaml:"pipe_name"`
	ClientID            uint64 `yaml:"client_id"`
	TimeoutMs           int64  `yaml:"timeout_ms"`
	ReconnectIntervalMs int64  `yaml:"reconnect_interval_ms"`
	InitialReconnect    bool   `yaml:"initial_reconnect"`
	LogLevel            string `yaml:"log_level"`
}

// Load reads the defaults file at the standard path, returning an empty
// Defaults (not an error) if the file does not exist.
func Load() (*Defaults, error) {
	return LoadFromFile(DefaultPaths().ConfigFile())
}

// LoadFromFile reads and parses a defaults file at path.
func LoadFromFile(path string) (*Defaults, error) {
	d := &Defaults{}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return d, nil
		}
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, d); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return d, nil
}
