//go:build !windows

package daemon

import (
	"errors"
	"os"
	"path/filepath"
	"syscall"
)

// instanceLock is an flock on <home>/protected/daemon.lock held for the daemon's lifetime.
type instanceLock struct {
	f *os.File
}

func acquireLock(lockFile string) (*instanceLock, error) {
	if err := os.MkdirAll(filepath.Dir(lockFile), 0o755); err != nil {
		return nil, err
	}
	f, err := os.OpenFile(lockFile, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, err
	}
	if err := syscall.Flock(int(f.Fd()), syscall.LOCK_EX|syscall.LOCK_NB); err != nil {
		_ = f.Close()
		if errors.Is(err, syscall.EWOULDBLOCK) {
			return nil, alreadyRunning(lockFile)
		}
		return nil, err
	}
	recordHolder(f)
	return &instanceLock{f: f}, nil
}

// release unlocks but leaves the file; the next daemon overwrites the pid.
func (l *instanceLock) release() {
	if l == nil || l.f == nil {
		return
	}
	_ = l.f.Truncate(0)
	_ = syscall.Flock(int(l.f.Fd()), syscall.LOCK_UN)
	_ = l.f.Close()
}
