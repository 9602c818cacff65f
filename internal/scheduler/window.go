// Package scheduler implements the sync task engine: the window guard, the
// enqueuer that fans out one task per active user per platform, the
// processor that drains claimed batches through platform adapters, the
// cleanup job, and the runner that sequences them for a trigger cycle.
//
// All services take their database access as narrow consumer-side
// interfaces and accept a `now` parameter where time matters, for
// deterministic testing and manual backfill.
package scheduler

import "time"

// DefaultWindowTolerance is how long past a scheduled hour a trigger
// invocation is still considered on time for that slot.
const DefaultWindowTolerance = 30 * time.Minute

// WithinWindow reports whether now falls inside the execution window for
// the given scheduled UTC hour: the current hour equals targetHour and the
// elapsed minutes are less than the tolerance. Pure function, no I/O.
//
// Duplicate trigger firings for the same slot both see a true window; the
// task store's dedup constraint is what prevents duplicate work. An
// invocation outside every window may still process already-pending tasks
// but must not enqueue new ones.
func WithinWindow(now time.Time, targetHour int, tolerance time.Duration) bool {
	if tolerance <= 0 {
		tolerance = DefaultWindowTolerance
	}
	utc := now.UTC()
	if utc.Hour() != targetHour {
		return false
	}
	elapsed := time.Duration(utc.Minute())*time.Minute +
		time.Duration(utc.Second())*time.Second
	return elapsed < tolerance
}

// WindowFor returns the first scheduled hour whose window contains now,
// and whether any window matched. Hours must be valid UTC hours.
func WindowFor(now time.Time, hours []int, tolerance time.Duration) (int, bool) {
	for _, h := range hours {
		if WithinWindow(now, h, tolerance) {
			return h, true
		}
	}
	return 0, false
}

// NextSyncTime computes the next scheduled UTC timestamp strictly after now
// from the sorted list of target hours, wrapping to the first hour of the
// next day when now is past the last slot of the day. Stateless derived
// computation; nothing is persisted.
func NextSyncTime(now time.Time, hours []int) time.Time {
	if len(hours) == 0 {
		return time.Time{}
	}

	utc := now.UTC()
	for _, h := range hours {
		candidate := time.Date(utc.Year(), utc.Month(), utc.Day(), h, 0, 0, 0, time.UTC)
		if candidate.After(utc) {
			return candidate
		}
	}

	// Past the last slot of the day; wrap to the first hour tomorrow.
	next := utc.AddDate(0, 0, 1)
	return time.Date(next.Year(), next.Month(), next.Day(), hours[0], 0, 0, 0, time.UTC)
}

// SyncDateFor returns the logical sync date (midnight UTC) for a trigger
// firing at now. Tasks are deduplicated on this date, not on wall-clock
// creation time.
func SyncDateFor(now time.Time) time.Time {
	utc := now.UTC()
	return time.Date(utc.Year(), utc.Month(), utc.Day(), 0, 0, 0, 0, time.UTC)
}
