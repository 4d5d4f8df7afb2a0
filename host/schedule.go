package host

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/renatoliveira/chainable"
)

// NextFire computes when a timer link's schedule next becomes due after
// from. Schedules use standard 5-field cron syntax or the "@every
// <duration>" form. All hosts share this interpretation so a timer link
// behaves the same on every backend.
func NextFire(schedule string, from time.Time) (time.Time, error) {
	sched, err := cron.ParseStandard(schedule)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q: %v", chainable.ErrBadSchedule, schedule, err)
	}
	return sched.Next(from), nil
}

// ValidateSchedule reports whether a schedule string parses. The engine
// calls it at chain construction so a bad schedule fails fast, before any
// dispatch.
func ValidateSchedule(schedule string) error {
	if _, err := cron.ParseStandard(schedule); err != nil {
		return fmt.Errorf("%w: %q: %v", chainable.ErrBadSchedule, schedule, err)
	}
	return nil
}
