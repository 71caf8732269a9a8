//go:build linux

package system

import (
	"os/exec"
	"syscall"
)

func setRoot(cmd *exec.Cmd, root string) error {
	cmd.SysProcAttr = &syscall.SysProcAttr{Chroot: root}
	cmd.Dir = "/"
	return nil
}
