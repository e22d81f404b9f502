//go:build unix

package engine

import (
	"os"
	"os/exec"
	"syscall"
)

// detach starts the engine in its own process group so a terminal interrupt
// aimed at the CLI does not reach it. Stopping a running job is left to ctx.
func detach(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}

func signalName(ps *os.ProcessState) string {
	if ps == nil {
		return ""
	}
	ws, ok := ps.Sys().(syscall.WaitStatus)
	if !ok || !ws.Signaled() {
		return ""
	}
	return ws.Signal().String()
}
