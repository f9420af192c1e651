//go:build windows

package broker

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"golang.org/x/sys/windows"
)

const windowsStillActive = 259

// LockFile is the process-wide singleton guard of §6, adapted from
// internal/daemon/lockfile_windows.go: exclusive-create plus an
// OpenProcess/GetExitCodeProcess alive check in place of flock.
type LockFile struct {
	path string
	file *os.File
}

// LockPath returns the fixed lock file path (§6).
func LockPath() string {
	return filepath.Join(os.TempDir(), "cord-server.lock")
}

// NewLockFile constructs a LockFile at the fixed path.
func NewLockFile() *LockFile {
	return &LockFile{path: LockPath()}
}

// Acquire takes the lock by atomically creating the lock file.
func (l *LockFile) Acquire() error {
	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_EXCL|os.O_RDWR, 0o600)
	if err != nil {
		if os.IsExist(err) {
			stalePID, readErr := readHeldPID(l.path)
			if readErr == nil && stalePID > 0 && !isProcessAlive(stalePID) {
				if remErr := os.Remove(l.path); remErr == nil {
					return l.retryAcquire()
				}
			}
			if stalePID > 0 {
				return fmt.Errorf("broker: another instance already running (pid %d), lock file: %s", stalePID, l.path)
			}
		}
		return fmt.Errorf("broker: acquire lock on %s: %w", l.path, err)
	}
	return l.writePID(f)
}

func (l *LockFile) retryAcquire() error {
	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_EXCL|os.O_RDWR, 0o600)
	if err != nil {
		return fmt.Errorf("broker: acquire lock on retry: %w", err)
	}
	return l.writePID(f)
}

func (l *LockFile) writePID(f *os.File) error {
	if _, err := fmt.Fprintf(f, "%d\n", os.Getpid()); err != nil {
		f.Close()
		_ = os.Remove(l.path)
		return fmt.Errorf("broker: write pid to lock file: %w", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		_ = os.Remove(l.path)
		return fmt.Errorf("broker: sync lock file: %w", err)
	}
	l.file = f
	return nil
}

// Release releases the lock and removes the lock file.
func (l *LockFile) Release() error {
	if l.file == nil {
		return nil
	}
	if err := l.file.Close(); err != nil {
		return fmt.Errorf("broker: close lock file: %w", err)
	}
	l.file = nil
	if err := os.Remove(l.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("broker: remove lock file: %w", err)
	}
	return nil
}

func readHeldPID(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	pid, _ := strconv.Atoi(strings.TrimSpace(string(data)))
	return pid, nil
}

func isProcessAlive(pid int) bool {
	if pid <= 0 {
		return false
	}
	h, err := windows.OpenProcess(windows.PROCESS_QUERY_LIMITED_INFORMATION, false, uint32(pid))
	if err != nil {
		return false
	}
	defer windows.CloseHandle(h)

	var code uint32
	if err := windows.GetExitCodeProcess(h, &code); err != nil {
		return false
	}
	return code == windowsStillActive
}
