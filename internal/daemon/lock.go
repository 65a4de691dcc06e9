package daemon

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strconv"
)

// ErrAlreadyRunning is returned when another careagent daemon holds the home's lock.
var ErrAlreadyRunning = errors.New("careagent is already running")

// alreadyRunning wraps ErrAlreadyRunning with the pid recorded in the lock file, if readable.
func alreadyRunning(lockFile string) error {
	if pid := lockHolder(lockFile); pid > 0 {
		return fmt.Errorf("%w (pid %d holds %s)", ErrAlreadyRunning, pid, lockFile)
	}
	return fmt.Errorf("%w (could not acquire %s)", ErrAlreadyRunning, lockFile)
}

func lockHolder(lockFile string) int {
	b, err := os.ReadFile(lockFile)
	if err != nil {
		return 0
	}
	pid, err := strconv.Atoi(string(bytes.TrimSpace(b)))
	if err != nil {
		return 0
	}
	return pid
}

// recordHolder writes the current pid into the held lock file.
func recordHolder(f *os.File) {
	if err := f.Truncate(0); err != nil {
		return
	}
	_, _ = f.WriteAt([]byte(strconv.Itoa(os.Getpid())+"\n"), 0)
}
