package broker

// Config mirrors the CLI flag table of §6.
type Config struct {
	PipeName            string
	ClientID            uint64
	TimeoutMs           int64
	ReconnectIntervalMs int64
	InitialReconnect    bool
}

// DefaultTimeoutMs is §6's default idle timeout (60 000 ms).
const DefaultTimeoutMs = 60_000

// DefaultPipeName returns the OS-appropriate default pipe name from §6.
func DefaultPipeName() string {
	return defaultPipeName()
}
