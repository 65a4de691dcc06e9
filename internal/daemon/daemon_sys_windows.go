//go:build windows

package daemon

import (
	"os"
	"os/exec"
)

func setDaemonSysProcAttr(cmd *exec.Cmd) {}

// processExists has no kill(pid, 0) equivalent here; a valid pid is assumed alive and a dead
// daemon shows up as a refused connection.
func processExists(pid int) bool {
	return pid > 0
}

// signalTerm kills the process since SIGTERM is not delivered on Windows.
func signalTerm(proc *os.Process) error {
	return proc.Kill()
}
