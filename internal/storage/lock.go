package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"syscall"
	"time"
)

// RunLock is the lock file claiming a checkpoint for one running process.
// Two runs writing the same checkpoint would lose each other's marks.
type RunLock struct {
	Holder    string    `json:"holder"`
	PID       int       `json:"pid"`
	Hostname  string    `json:"hostname"`
	StartedAt time.Time `json:"started_at"`
	RunID     string    `json:"run_id"`
}

// LockPath returns the lock file guarding checkpoint
func LockPath(checkpoint string) string {
	return checkpoint + ".lock"
}

// AcquireRunLock claims checkpoint for this process. A lock left by a dead
// process on this host is treated as stale and replaced.
// Returns the lock file path for ReleaseRunLock.
func AcquireRunLock(checkpoint, runID string) (lockPath string, err error) {
	lockPath = LockPath(checkpoint)

	if data, err := os.ReadFile(lockPath); err == nil {
		var existing RunLock
		if json.Unmarshal(data, &existing) == nil {
			if existing.PID != os.Getpid() && isProcessAlive(existing.PID, existing.Hostname) {
				return "", fmt.Errorf("checkpoint %s is in use by another run (PID %d on %s, started %s)",
					checkpoint, existing.PID, existing.Hostname, existing.StartedAt.Format(time.RFC3339))
			}
			// Stale lock - will overwrite
		}
	}

	hostname, err := os.Hostname()
	if err != nil {
		return "", fmt.Errorf("failed to get hostname: %w", err)
	}

	lock := RunLock{
		Holder:    "dcheck",
		PID:       os.Getpid(),
		Hostname:  hostname,
		StartedAt: time.Now(),
		RunID:     runID,
	}
	data, err := json.MarshalIndent(lock, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal lock: %w", err)
	}
	if err := os.WriteFile(lockPath, data, 0644); err != nil {
		return "", fmt.Errorf("failed to create run lock: %w", err)
	}
	return lockPath, nil
}

// ReleaseRunLock removes the lock file. Use defer after AcquireRunLock.
func ReleaseRunLock(lockPath string) error {
	if lockPath == "" {
		return nil
	}
	if err := os.Remove(lockPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove run lock: %w", err)
	}
	return nil
}

// isProcessAlive checks if a process with the given PID exists on the given hostname.
// Locks from other hosts cannot be checked and are assumed alive.
func isProcessAlive(pid int, hostname string) bool {
	currentHost, err := os.Hostname()
	if err != nil {
		return true
	}
	if !strings.EqualFold(hostname, currentHost) {
		return true
	}

	process, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	// Signal 0 probes for existence without delivering anything
	err = process.Signal(syscall.Signal(0))
	if err == nil {
		return true
	}
	// EPERM: the process exists but belongs to someone else
	return err == syscall.EPERM
}
