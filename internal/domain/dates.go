package domain

import "time"

// DateOf truncates t to the calendar date it falls on in loc. The result is midnight UTC,
// so dates compare and persist independently of the server zone.
func DateOf(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// AddMonthsClamped adds n calendar months to a date, clamping to the last day of the
// target month (Jan 31 + 1 month = Feb 28 or 29).
func AddMonthsClamped(date time.Time, n int) time.Time {
	y, m, d := date.Date()
	firstOfTarget := time.Date(y, m+time.Month(n), 1, 0, 0, 0, 0, date.Location())
	lastDay := firstOfTarget.AddDate(0, 1, -1).Day()
	if d > lastDay {
		d = lastDay
	}
	return time.Date(firstOfTarget.Year(), firstOfTarget.Month(), d, 0, 0, 0, 0, date.Location())
}

// NextServiceDate returns today advanced by one service period.
func (c ServiceCycle) NextServiceDate(today time.Time) time.Time {
	months, ok := c.months()
	if !ok {
		panic("domain: unknown service cycle " + string(c))
	}
	return AddMonthsClamped(today, months)
}
