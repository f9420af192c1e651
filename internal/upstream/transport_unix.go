//go:build !windows

package upstream

import (
	"errors"
	"fmt"
	"net"
	"os"
	"time"
)

const dialTimeout = 2 * time.Second

// candidateDirSuffixes mirrors §4.1's "construct candidate directories by
// concatenating each of [env vars] with suffixes".
var candidateDirSuffixes = []string{"", "/app/com.discordapp.Discord", "/snap.discord"}

var candidateEnvVars = []string{"XDG_RUNTIME_DIR", "TMPDIR", "TMP", "TEMP"}

// dialTransport implements §4.1's non-Windows candidate search: for each
// base directory (from the env vars above, then "/tmp"), for each suffix,
// try <dir><suffix>/discord-ipc-<N> for N in 0..10. A NotFound error tries
// the next candidate; any other error fails immediately.
func dialTransport() (net.Conn, error) {
	var lastErr error
	for _, base := range candidateBaseDirs() {
		for _, suffix := range candidateDirSuffixes {
			dir := base + suffix
			for n := 0; n < 10; n++ {
				path := fmt.Sprintf("%s/discord-ipc-%d", dir, n)
				conn, err := net.DialTimeout("unix", path, dialTimeout)
				if err == nil {
					return conn, nil
				}
				if os.IsNotExist(err) || errors.Is(err, os.ErrNotExist) {
					lastErr = err
					continue
				}
				if isNotFoundDialErr(err) {
					lastErr = err
					continue
				}
				return nil, err
			}
		}
	}
	if lastErr == nil {
		lastErr = errors.New("no presence endpoint found")
	}
	return nil, lastErr
}

func candidateBaseDirs() []string {
	var dirs []string
	for _, envVar := range candidateEnvVars {
		if v := os.Getenv(envVar); v != "" {
			dirs = append(dirs, v)
		}
	}
	dirs = append(dirs, "/tmp")
	return dirs
}

// isNotFoundDialErr reports whether err from net.DialTimeout("unix", ...)
// reflects a missing socket path rather than a live-but-refusing peer.
func isNotFoundDialErr(err error) bool {
	var pathErr *os.PathError
	if errors.As(err, &pathErr) {
		return os.IsNotExist(pathErr.Err)
	}
	return false
}
