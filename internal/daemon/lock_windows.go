//go:build windows

package daemon

import (
	"os"
	"path/filepath"
)

// instanceLock is an exclusively created <home>/protected/daemon.lock, removed on release.
type instanceLock struct {
	f    *os.File
	path string
}

func acquireLock(lockFile string) (*instanceLock, error) {
	if err := os.MkdirAll(filepath.Dir(lockFile), 0o755); err != nil {
		return nil, err
	}
	f, err := os.OpenFile(lockFile, os.O_CREATE|os.O_EXCL|os.O_RDWR, 0o644)
	if err != nil {
		if os.IsExist(err) {
			return nil, alreadyRunning(lockFile)
		}
		return nil, err
	}
	recordHolder(f)
	return &instanceLock{f: f, path: lockFile}, nil
}

func (l *instanceLock) release() {
	if l == nil || l.f == nil {
		return
	}
	_ = l.f.Close()
	_ = os.Remove(l.path)
}
