package calendar

import "time"

// Compute returns the ordered dates visible for anchor at granularity g.
//
//   - Month: first through last day of the anchor's month
//   - Week: the 7 days starting on the Monday on or before anchor
//   - Day: anchor alone
func Compute(anchor Date, g Granularity) []Date {
	switch g {
	case Month:
		n := DaysIn(anchor.Year, anchor.Month)
		dates := make([]Date, n)
		for i := range n {
			dates[i] = Date{Year: anchor.Year, Month: anchor.Month, Day: i + 1}
		}
		return dates
	case Week:
		start := WeekStart(anchor)
		dates := make([]Date, 7)
		for i := range 7 {
			dates[i] = start.AddDays(i)
		}
		return dates
	case Day:
		return []Date{anchor}
	}
	return nil
}

// WeekStart is the Monday on or before d.
func WeekStart(d Date) Date {
	offset := (int(d.Weekday()) - int(time.Monday) + 7) % 7
	return d.AddDays(-offset)
}

// Navigate moves anchor one granularity unit in dir. Month steps clamp
// the day-of-month (Jan 31 -> Feb 29/28), they never roll over.
func Navigate(anchor Date, g Granularity, dir Direction) Date {
	step := 1
	if dir == Previous {
		step = -1
	}
	switch g {
	case Month:
		return anchor.AddMonths(step)
	case Week:
		return anchor.AddDays(7 * step)
	case Day:
		return anchor.AddDays(step)
	}
	return anchor
}
