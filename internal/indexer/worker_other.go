//go:build !unix

package indexer

import "os/exec"

func setDetached(cmd *exec.Cmd) {}
