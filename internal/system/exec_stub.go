//go:build !linux

package system

import (
	"fmt"
	"os/exec"
	"runtime"
)

// ErrChrootNotSupported is returned when a Command with a Root is run on non-Linux systems.
var ErrChrootNotSupported = fmt.Errorf("chroot not supported on %s", runtime.GOOS)

func setRoot(cmd *exec.Cmd, root string) error {
	return ErrChrootNotSupported
}
