package model

import (
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) civil.Date {
	parsed, err := civil.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return parsed
}

func TestNextWindow(t *testing.T) {
	window := NextWindow(d("2024-01-01"), d("2024-01-05"))

	assert.Equal(t, d("2024-01-01"), window.From)
	assert.Equal(t, d("2024-01-04"), window.To, "upper bound excludes today")
	assert.False(t, window.IsEmpty())
}

func TestNextWindow_CaughtUp(t *testing.T) {
	window := NextWindow(d("2024-01-05"), d("2024-01-05"))

	assert.True(t, window.IsEmpty(), "a watermark at today yields nothing to fetch")
}

func TestNextWindow_SingleDay(t *testing.T) {
	window := NextWindow(d("2024-01-04"), d("2024-01-05"))

	assert.False(t, window.IsEmpty())
	assert.Equal(t, window.From, window.To)
}

func TestNextWindow_UnsetWatermark(t *testing.T) {
	window := NextWindow(civil.Date{}, d("2024-01-05"))

	assert.Equal(t, civil.Date{}, window.From, "an unset watermark leaves the lower bound open")
	assert.Equal(t, d("2024-01-04"), window.To)
	assert.False(t, window.IsEmpty())
}

func TestNextWatermark(t *testing.T) {
	window := NextWindow(d("2024-01-01"), d("2024-01-05"))

	assert.Equal(t, d("2024-01-05"), NextWatermark(window), "watermark lands on today")
}

// TestWindowChain verifies that consecutive runs produce adjacent,
// non-overlapping windows: each run's lower bound is the previous run's upper
// bound plus one day.
func TestWindowChain(t *testing.T) {
	last := d("2024-01-01")
	days := []civil.Date{d("2024-01-05"), d("2024-01-08"), d("2024-01-09")}

	var prev FetchWindow
	for i, today := range days {
		window := NextWindow(last, today)
		require.False(t, window.IsEmpty())

		if i > 0 {
			assert.Equal(t, prev.To.AddDays(1), window.From)
		}

		last = NextWatermark(window)
		prev = window
	}

	assert.Equal(t, d("2024-01-09"), last)
}

func TestWindowString(t *testing.T) {
	window := FetchWindow{From: d("2024-01-01"), To: d("2024-01-04")}
	assert.Equal(t, "[2024-01-01, 2024-01-04]", window.String())
}

func TestSyncJobIsDue(t *testing.T) {
	today := civil.DateOf(time.Date(2024, 1, 5, 12, 0, 0, 0, time.UTC))

	tests := []struct {
		name string
		job  SyncJob
		want bool
	}{
		{"behind and active", SyncJob{LastDate: d("2024-01-03"), Active: true}, true},
		{"caught up", SyncJob{LastDate: d("2024-01-05"), Active: true}, false},
		{"ahead", SyncJob{LastDate: d("2024-01-06"), Active: true}, false},
		{"behind but paused", SyncJob{LastDate: d("2024-01-03"), Active: false}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.job.IsDue(today))
		})
	}
}
