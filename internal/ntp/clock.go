package ntp

import (
	"context"
	"fmt"
	"time"
)

// MinReasonableYear is the earliest year SetClock will step the clock to.
// Servers reporting an older time are treated as broken.
const MinReasonableYear = 2023

// setSystemTime is replaced in tests.
var setSystemTime = setSystemTimeOS

// SetClock steps the local clock to the time reported by server and returns
// the applied offset. Installers do this before writing timestamps to the
// new system.
func (q *QueryChecker) SetClock(ctx context.Context, server string) (time.Duration, error) {
	resp, err := q.Query(ctx, server)
	if err != nil {
		return 0, err
	}

	now := time.Now().Add(resp.ClockOffset)
	if now.Year() < MinReasonableYear {
		return 0, fmt.Errorf("refusing to set clock to %s from %s", now.Format(time.RFC3339), server)
	}
	if err := setSystemTime(now); err != nil {
		return 0, fmt.Errorf("set system time: %w", err)
	}

	q.logger.Info("Time synced", "server", server, "offset", resp.ClockOffset.String(), "stratum", resp.Stratum)
	return resp.ClockOffset, nil
}
