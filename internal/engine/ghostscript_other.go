//go:build !unix

package engine

import (
	"os"
	"os/exec"
)

func detach(*exec.Cmd) {}

func signalName(*os.ProcessState) string {
	return ""
}
