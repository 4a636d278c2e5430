package usage

import "time"

// Window boundaries are computed in UTC for every caller. The source app
// derived them from device-local time inconsistently across call sites;
// one canonical timezone keeps counts identical no matter which surface
// asks, at the cost of quota resets not aligning with the user's midnight.

// WindowStart returns the start of the current counting window for the
// counter type at the given time: Monday 00:00 UTC for weekly counters,
// 00:00 UTC for daily ones.
func WindowStart(counterType CounterType, now time.Time) time.Time {
	now = now.UTC()
	switch counterType {
	case CounterWorkouts:
		return startOfWeek(now)
	default:
		return startOfDay(now)
	}
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// startOfWeek returns the most recent Monday 00:00 UTC.
func startOfWeek(t time.Time) time.Time {
	day := startOfDay(t)
	// time.Weekday numbers Sunday as 0.
	offset := (int(day.Weekday()) + 6) % 7
	return day.AddDate(0, 0, -offset)
}
