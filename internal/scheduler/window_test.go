package scheduler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func at(hour, minute, second int) time.Time {
	return time.Date(2026, 8, 31, hour, minute, second, 0, time.UTC)
}

func TestWithinWindow(t *testing.T) {
	tolerance := 30 * time.Minute

	tests := []struct {
		name       string
		now        time.Time
		targetHour int
		want       bool
	}{
		{"inside window", at(6, 15, 0), 6, true},
		{"exactly on the hour", at(6, 0, 0), 6, true},
		{"last second inside", at(6, 29, 59), 6, true},
		{"at tolerance boundary", at(6, 30, 0), 6, false},
		{"past tolerance", at(6, 45, 0), 6, false},
		{"minute before the hour", at(5, 59, 0), 6, false},
		{"wrong hour entirely", at(12, 10, 0), 6, false},
		{"midnight slot", at(0, 5, 0), 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, WithinWindow(tt.now, tt.targetHour, tolerance))
		})
	}
}

func TestWithinWindow_NonUTCInputNormalized(t *testing.T) {
	// 06:15 UTC expressed as 08:15 in UTC+2 is still inside the 6h window.
	loc := time.FixedZone("UTC+2", 2*3600)
	now := time.Date(2026, 8, 31, 8, 15, 0, 0, loc)

	assert.True(t, WithinWindow(now, 6, 30*time.Minute))
	assert.False(t, WithinWindow(now, 8, 30*time.Minute))
}

func TestWithinWindow_ZeroToleranceUsesDefault(t *testing.T) {
	assert.True(t, WithinWindow(at(6, 29, 0), 6, 0))
	assert.False(t, WithinWindow(at(6, 31, 0), 6, 0))
}

func TestWindowFor(t *testing.T) {
	hours := []int{0, 6, 12, 18}
	tolerance := 30 * time.Minute

	hour, ok := WindowFor(at(12, 10, 0), hours, tolerance)
	assert.True(t, ok)
	assert.Equal(t, 12, hour)

	_, ok = WindowFor(at(9, 0, 0), hours, tolerance)
	assert.False(t, ok)

	_, ok = WindowFor(at(12, 45, 0), hours, tolerance)
	assert.False(t, ok)
}

func TestNextSyncTime(t *testing.T) {
	hours := []int{0, 6, 12, 18}

	// Mid-morning rolls to the noon slot.
	next := NextSyncTime(at(9, 30, 0), hours)
	assert.Equal(t, at(12, 0, 0), next)

	// Exactly on a slot advances to the next one; "next" is strictly after now.
	next = NextSyncTime(at(12, 0, 0), hours)
	assert.Equal(t, at(18, 0, 0), next)

	// Past the last slot wraps to the first hour of the next day.
	next = NextSyncTime(at(19, 0, 0), hours)
	assert.Equal(t, time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC), next)
}

func TestNextSyncTime_EmptyHours(t *testing.T) {
	assert.True(t, NextSyncTime(at(9, 0, 0), nil).IsZero())
}

func TestSyncDateFor(t *testing.T) {
	assert.Equal(t,
		time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC),
		SyncDateFor(at(18, 25, 13)),
	)

	// A non-UTC time maps to the UTC day it falls in.
	loc := time.FixedZone("UTC-5", -5*3600)
	lateEvening := time.Date(2026, 8, 31, 20, 0, 0, 0, loc) // 01:00 UTC Sep 1
	assert.Equal(t,
		time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC),
		SyncDateFor(lateEvening),
	)
}
