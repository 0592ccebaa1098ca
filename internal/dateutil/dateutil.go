// Package dateutil provides the calendar arithmetic needed for recurrence
// evaluation: month and year lengths, ISO-style weekday numbering, week
// numbers with a configurable week start, and positioned-weekday lookup.
//
// All functions treat their time.Time arguments as civil dates; computations
// that count days are done on UTC copies so DST transitions in the argument's
// location cannot skew day arithmetic.
package dateutil

import "time"

// Weekday returns the ISO 8601 weekday of t: 1 for Monday through 7 for Sunday.
func Weekday(t time.Time) int {
	return (int(t.Weekday())+6)%7 + 1
}

// IsLeapYear reports whether year is a leap year in the Gregorian calendar.
func IsLeapYear(year int) bool {
	return year%4 == 0 && (year%100 != 0 || year%400 == 0)
}

// DaysInYear returns 365 or 366.
func DaysInYear(year int) int {
	if IsLeapYear(year) {
		return 366
	}
	return 365
}

var monthLengths = [13]int{0, 31, 28, 31, 30, 31, 30, 31, 31, 30, 31, 30, 31}

// DaysInMonth returns the number of days in the given month (1..12) of year.
func DaysInMonth(year, month int) int {
	if month == 2 && IsLeapYear(year) {
		return 29
	}
	return monthLengths[month]
}

// MaxDaysInMonth returns the largest length month can have in any year. Used
// for consistency checks when the year is not yet known.
func MaxDaysInMonth(month int) int {
	if month == 2 {
		return 29
	}
	return monthLengths[month]
}

// CivilUTC returns the civil date of t re-expressed as midnight UTC.
func CivilUTC(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// DaysBetween returns the number of civil days from a to b (negative if b is
// earlier than a).
func DaysBetween(a, b time.Time) int {
	return int(CivilUTC(b).Sub(CivilUTC(a)).Hours() / 24)
}

// SameDate reports whether a and b fall on the same civil date.
func SameDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// weekOneStart returns the first day of week 1 of year, for weeks starting on
// weekStart. Week 1 is the week containing January 4th.
func weekOneStart(year, weekStart int) time.Time {
	d := time.Date(year, time.January, 4, 0, 0, 0, 0, time.UTC)
	return d.AddDate(0, 0, -((7 + Weekday(d) - weekStart) % 7))
}

// WeekNumber returns the number of the week containing d together with the
// year that week is counted in. Days close to a year boundary may belong to a
// week of the neighbouring year (e.g. Jan 1 2005 is in week 53 of 2004 for a
// Monday week start).
func WeekNumber(d time.Time, weekStart int) (week, year int) {
	year = d.Year()
	days := DaysBetween(weekOneStart(year, weekStart), d)
	if days < 0 {
		year--
		days = DaysBetween(weekOneStart(year, weekStart), d)
	} else if days > 355 {
		if dn := DaysBetween(weekOneStart(year+1, weekStart), d); dn >= 0 {
			year++
			days = dn
		}
	}
	return days/7 + 1, year
}

// WeeksInYear returns 52 or 53, the number of numbered weeks of year for the
// given week start.
func WeeksInYear(year, weekStart int) int {
	return DaysBetween(weekOneStart(year, weekStart), weekOneStart(year+1, weekStart)) / 7
}

// WeekStartDate returns the first day of the given week of year. A negative
// week counts from the end of the year (-1 is the last numbered week). The
// result is a civil date at midnight UTC; it is not validated against the
// year's week count.
func WeekStartDate(year, week, weekStart int) time.Time {
	if week < 0 {
		week = WeeksInYear(year, weekStart) + week + 1
	}
	return weekOneStart(year, weekStart).AddDate(0, 0, (week-1)*7)
}

// NthWeekdayOfMonth returns the day of month of the n-th occurrence of weekday
// (1..7) in the given month. Negative n counts from the end of the month. The
// second return value is false when the month has no such occurrence.
func NthWeekdayOfMonth(year, month, weekday, n int) (int, bool) {
	ndays := DaysInMonth(year, month)
	var day int
	if n > 0 {
		first := Weekday(time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC))
		day = 1 + (7+weekday-first)%7 + (n-1)*7
	} else {
		last := Weekday(time.Date(year, time.Month(month), ndays, 0, 0, 0, 0, time.UTC))
		day = ndays - (7+last-weekday)%7 + (n+1)*7
	}
	if day < 1 || day > ndays {
		return 0, false
	}
	return day, true
}

// NthWeekdayOfYear returns the civil date (midnight UTC) of the n-th
// occurrence of weekday in year; negative n counts from the end of the year.
// The second return value is false when the year has no such occurrence.
func NthWeekdayOfYear(year, weekday, n int) (time.Time, bool) {
	var d time.Time
	if n > 0 {
		jan1 := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
		d = jan1.AddDate(0, 0, (7+weekday-Weekday(jan1))%7+(n-1)*7)
	} else {
		dec31 := time.Date(year, time.December, 31, 0, 0, 0, 0, time.UTC)
		d = dec31.AddDate(0, 0, -((7+Weekday(dec31)-weekday)%7)+(n+1)*7)
	}
	if d.Year() != year {
		return time.Time{}, false
	}
	return d, true
}

// AddMonths adds n months to t, clamping the day of month so that the result
// stays inside the target month (Jan 31 + 1 month is Feb 28/29, matching
// calendar conventions rather than Go's date normalization).
func AddMonths(t time.Time, n int) time.Time {
	y, m, d := t.Date()
	mi := y*12 + int(m) - 1 + n
	ny, nm := mi/12, mi%12+1
	if mi < 0 {
		// floor division for years before 1 AD keeps the month positive
		ny = (mi - 11) / 12
		nm = mi - ny*12 + 1
	}
	if max := DaysInMonth(ny, nm); d > max {
		d = max
	}
	return time.Date(ny, time.Month(nm), d, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}
