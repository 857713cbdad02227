package model

import "cloud.google.com/go/civil"

// FetchWindow is the day-granularity date range a run pulls from the source.
// Both bounds are inclusive: the source is filtered from "From T00:00:00Z" to
// "To T23:59:59Z". A zero From means no lower bound (full-history fetch).
type FetchWindow struct {
	From civil.Date
	To   civil.Date
}

// IsEmpty reports whether the window covers no days at all. An unbounded
// window (zero From) is never empty.
func (w FetchWindow) IsEmpty() bool {
	if w.From == (civil.Date{}) {
		return false
	}
	return w.To.Before(w.From)
}

// String renders the window as "[from, to]" for logs and outcome summaries.
func (w FetchWindow) String() string {
	from := "-"
	if w.From != (civil.Date{}) {
		from = w.From.String()
	}
	return "[" + from + ", " + w.To.String() + "]"
}

// NextWindow computes the fetch window for a run: from the stored watermark
// (the last date already covered) up to yesterday. Stopping one day short of
// today avoids reading a day still in progress at the source, and avoids
// re-reading that day after the watermark is advanced to today.
func NextWindow(last civil.Date, today civil.Date) FetchWindow {
	return FetchWindow{
		From: last,
		To:   today.AddDays(-1),
	}
}

// NextWatermark is the last-synced date a successful run writes back: the
// window's upper bound advanced by one day, i.e. the inclusive start of the
// next run's window.
func NextWatermark(w FetchWindow) civil.Date {
	return w.To.AddDays(1)
}
