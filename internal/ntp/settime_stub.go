//go:build !linux

package ntp

import (
	"fmt"
	"runtime"
	"time"
)

func setSystemTimeOS(t time.Time) error {
	return fmt.Errorf("setting the system time is not supported on %s", runtime.GOOS)
}
