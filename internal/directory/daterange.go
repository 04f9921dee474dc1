package directory

import "time"

// DateRange is a named window relative to the current wall-clock day.
type DateRange string

const (
	RangeToday       DateRange = "today"
	RangeTomorrow    DateRange = "tomorrow"
	RangeThisWeek    DateRange = "this_week"
	RangeThisWeekend DateRange = "this_weekend"
	RangeNextWeek    DateRange = "next_week"
	RangeThisMonth   DateRange = "this_month"
)

// Ranges lists the named ranges in display order.
var Ranges = []DateRange{RangeToday, RangeTomorrow, RangeThisWeek, RangeThisWeekend, RangeNextWeek, RangeThisMonth}

// Valid reports whether r is a known range.
func (r DateRange) Valid() bool {
	for _, v := range Ranges {
		if r == v {
			return true
		}
	}
	return false
}

// Label is the human name shown in filter dropdowns.
func (r DateRange) Label() string {
	switch r {
	case RangeToday:
		return "Today"
	case RangeTomorrow:
		return "Tomorrow"
	case RangeThisWeek:
		return "This Week"
	case RangeThisWeekend:
		return "This Weekend"
	case RangeNextWeek:
		return "Next Week"
	case RangeThisMonth:
		return "This Month"
	}
	return string(r)
}

// Bounds returns the half-open interval [start, end) the range covers,
// computed in now's location. Weeks start on Sunday. The weekend runs from
// Friday 00:00 to Monday 00:00 and a Sunday belongs to the weekend it ends.
func (r DateRange) Bounds(now time.Time) (start, end time.Time, ok bool) {
	day := startOfDay(now)
	switch r {
	case RangeToday:
		return day, day.AddDate(0, 0, 1), true
	case RangeTomorrow:
		return day.AddDate(0, 0, 1), day.AddDate(0, 0, 2), true
	case RangeThisWeek:
		sunday := day.AddDate(0, 0, -int(day.Weekday()))
		return sunday, sunday.AddDate(0, 0, 7), true
	case RangeThisWeekend:
		friday := day.AddDate(0, 0, daysToWeekend(day.Weekday()))
		return friday, friday.AddDate(0, 0, 3), true
	case RangeNextWeek:
		sunday := day.AddDate(0, 0, 7-int(day.Weekday()))
		return sunday, sunday.AddDate(0, 0, 7), true
	case RangeThisMonth:
		first := time.Date(day.Year(), day.Month(), 1, 0, 0, 0, 0, day.Location())
		return first, first.AddDate(0, 1, 0), true
	}
	return time.Time{}, time.Time{}, false
}

// DayBounds returns [00:00, next 00:00) of day in its location.
func DayBounds(day time.Time) (start, end time.Time) {
	start = startOfDay(day)
	return start, start.AddDate(0, 0, 1)
}

// daysToWeekend is the offset from wd to the Friday that opens the
// current or next weekend. Saturday and Sunday look back.
func daysToWeekend(wd time.Weekday) int {
	switch wd {
	case time.Saturday:
		return -1
	case time.Sunday:
		return -2
	default:
		return int(time.Friday - wd)
	}
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
