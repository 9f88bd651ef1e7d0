package view

import "time"

// Timeframe narrows the booking table by booking date.
type Timeframe int

const (
	TimeframeAll Timeframe = iota
	TimeframeUpcoming
	TimeframeThisMonth
	TimeframeLastMonth
	TimeframePast

	timeframeCount
)

func (t Timeframe) String() string {
	switch t {
	case TimeframeAll:
		return "All Time"
	case TimeframeUpcoming:
		return "Upcoming"
	case TimeframeThisMonth:
		return "This Month"
	case TimeframeLastMonth:
		return "Last Month"
	case TimeframePast:
		return "Past"
	case timeframeCount:
	}

	return "Unknown"
}

// Next cycles through the timeframes.
func (t Timeframe) Next() Timeframe {
	return (t + 1) % timeframeCount
}

// Contains reports whether date falls in t as seen at now. Days are
// compared in UTC.
func (t Timeframe) Contains(date, now time.Time) bool {
	day := truncateDay(date)
	today := truncateDay(now)

	switch t {
	case TimeframeUpcoming:
		return !day.Before(today)
	case TimeframePast:
		return day.Before(today)
	case TimeframeThisMonth:
		start := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, time.UTC)
		return !day.Before(start) && day.Before(start.AddDate(0, 1, 0))
	case TimeframeLastMonth:
		start := time.Date(today.Year(), today.Month()-1, 1, 0, 0, 0, 0, time.UTC)
		return !day.Before(start) && day.Before(start.AddDate(0, 1, 0))
	case TimeframeAll, timeframeCount:
	}

	return true
}

func truncateDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
