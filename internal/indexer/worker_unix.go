//go:build unix

package indexer

import (
	"os/exec"
	"syscall"
)

// setDetached puts the worker in its own session so it survives the
// parent indexer process exiting (no parent wait, per spec §4.7).
func setDetached(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
}
