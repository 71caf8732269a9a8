//go:build linux

package ntp

import (
	"time"

	"golang.org/x/sys/unix"
)

// setSystemTimeOS needs CAP_SYS_TIME.
func setSystemTimeOS(t time.Time) error {
	tv := unix.NsecToTimeval(t.UnixNano())
	return unix.Settimeofday(&tv)
}
