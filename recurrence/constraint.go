package recurrence

import (
	"time"

	"github.com/samber/mo"

	"github.com/cyp0633/librecur/internal/dateutil"
)

// Constraint is a partial date/time specification: every field is either
// fixed to a value or left open. A rule compiles its BY* lists into a set of
// constraints and evaluates queries by matching candidates against them and
// by enumerating the concrete date/times a constraint admits within one
// frequency bucket.
//
// Day and YearDay are signed: negative values count backwards from the end
// of the month or year (-1 is the last day). WeekNumber is signed the same
// way. WeekdayPos positions Weekday inside its month or year and is only
// meaningful when Weekday is set.
type Constraint struct {
	Year       mo.Option[int]
	Month      mo.Option[int]
	Day        mo.Option[int]
	Hour       mo.Option[int]
	Minute     mo.Option[int]
	Second     mo.Option[int]
	Weekday    mo.Option[int]
	WeekdayPos mo.Option[int]
	WeekNumber mo.Option[int]
	YearDay    mo.Option[int]

	weekStart int
	loc       *time.Location

	// canonical bucket start, derived once per interval step
	cachedDT   time.Time
	haveCached bool
}

// NewConstraint returns an empty constraint evaluated in loc with the given
// week start (1=Monday..7=Sunday).
func NewConstraint(loc *time.Location, weekStart int) Constraint {
	if weekStart < 1 || weekStart > 7 {
		weekStart = 1
	}
	return Constraint{weekStart: weekStart, loc: loc}
}

// IntervalConstraint returns the constraint describing the frequency bucket
// containing t at the given granularity: every field coarser than the period
// is fixed from t, everything finer stays open.
func IntervalConstraint(t time.Time, period PeriodType, weekStart int) Constraint {
	c := NewConstraint(t.Location(), weekStart)
	c.readDateTime(t, period)
	return c
}

func (c *Constraint) location() *time.Location {
	if c.loc == nil {
		return time.UTC
	}
	return c.loc
}

func (c *Constraint) clearCache() {
	c.haveCached = false
	c.cachedDT = time.Time{}
}

// readDateTime fixes the fields coarser than period's granularity from t.
// For weekly periods the date is recorded as week number plus the year that
// week belongs to, which may differ from the date's own year near a year
// boundary.
func (c *Constraint) readDateTime(t time.Time, period PeriodType) {
	t = t.In(c.location())
	switch period {
	case PeriodSecondly:
		c.Second = mo.Some(t.Second())
		fallthrough
	case PeriodMinutely:
		c.Minute = mo.Some(t.Minute())
		fallthrough
	case PeriodHourly:
		c.Hour = mo.Some(t.Hour())
		fallthrough
	case PeriodDaily:
		c.Day = mo.Some(t.Day())
		fallthrough
	case PeriodMonthly:
		c.Month = mo.Some(int(t.Month()))
		fallthrough
	case PeriodYearly:
		c.Year = mo.Some(t.Year())
	case PeriodWeekly:
		week, year := dateutil.WeekNumber(t, c.weekStart)
		c.WeekNumber = mo.Some(week)
		c.Year = mo.Some(year)
	}
	c.cachedDT = t
	c.haveCached = true
}

// MatchesDate reports whether the civil date carried by d satisfies every
// fixed date field. d's own location is not consulted; callers convert to
// the zone they want the date observed in. The period decides whether a
// weekday position is counted within the month or within the year.
func (c *Constraint) MatchesDate(d time.Time, period PeriodType) bool {
	year, month, day := d.Date()

	if wn, ok := c.WeekNumber.Get(); ok {
		// The week a date belongs to may lie in the neighbouring year, so
		// the year check must use the week's year, not the date's.
		week, weekYear := dateutil.WeekNumber(d, c.weekStart)
		if wn > 0 && wn != week {
			return false
		}
		if wn < 0 && wn != week-dateutil.WeeksInYear(weekYear, c.weekStart)-1 {
			return false
		}
		if y, ok := c.Year.Get(); ok && y != weekYear {
			return false
		}
	} else if y, ok := c.Year.Get(); ok && y != year {
		return false
	}

	if m, ok := c.Month.Get(); ok && m != int(month) {
		return false
	}
	if dd, ok := c.Day.Get(); ok {
		if dd > 0 && dd != day {
			return false
		}
		if dd < 0 && day != dateutil.DaysInMonth(year, int(month))+dd+1 {
			return false
		}
	}
	if wd, ok := c.Weekday.Get(); ok {
		if wd != dateutil.Weekday(d) {
			return false
		}
		if pos, ok := c.WeekdayPos.Get(); ok && pos != 0 {
			inMonth := period == PeriodMonthly || (period == PeriodYearly && c.Month.IsPresent())
			if inMonth {
				if pos > 0 && pos != (day-1)/7+1 {
					return false
				}
				if pos < 0 && pos != -((dateutil.DaysInMonth(year, int(month))-day)/7+1) {
					return false
				}
			} else {
				if pos > 0 && pos != (d.YearDay()-1)/7+1 {
					return false
				}
				if pos < 0 && pos != -((dateutil.DaysInYear(year)-d.YearDay())/7+1) {
					return false
				}
			}
		}
	}
	if yd, ok := c.YearDay.Get(); ok {
		if yd > 0 && yd != d.YearDay() {
			return false
		}
		if yd < 0 && yd != d.YearDay()-dateutil.DaysInYear(year)-1 {
			return false
		}
	}
	return true
}

// MatchesDateTime reports whether t satisfies every fixed field, date and
// time alike.
func (c *Constraint) MatchesDateTime(t time.Time, period PeriodType) bool {
	t = t.In(c.location())
	if !c.MatchesDate(t, period) {
		return false
	}
	if h, ok := c.Hour.Get(); ok && h != t.Hour() {
		return false
	}
	if m, ok := c.Minute.Get(); ok && m != t.Minute() {
		return false
	}
	if s, ok := c.Second.Get(); ok && s != t.Second() {
		return false
	}
	return true
}

func mergeField(dst *mo.Option[int], src mo.Option[int]) bool {
	v, ok := src.Get()
	if !ok {
		return true
	}
	if cur, ok := dst.Get(); ok {
		return cur == v
	}
	*dst = mo.Some(v)
	return true
}

// Merge unions other's fixed fields into c. It fails without mutating c when
// both sides fix the same field to different values; callers discard such
// combinations rather than silently picking a side.
func (c *Constraint) Merge(other Constraint) bool {
	merged := *c
	ok := mergeField(&merged.Year, other.Year) &&
		mergeField(&merged.Month, other.Month) &&
		mergeField(&merged.Day, other.Day) &&
		mergeField(&merged.Hour, other.Hour) &&
		mergeField(&merged.Minute, other.Minute) &&
		mergeField(&merged.Second, other.Second) &&
		mergeField(&merged.Weekday, other.Weekday) &&
		mergeField(&merged.WeekdayPos, other.WeekdayPos) &&
		mergeField(&merged.WeekNumber, other.WeekNumber) &&
		mergeField(&merged.YearDay, other.YearDay)
	if !ok {
		return false
	}
	merged.clearCache()
	*c = merged
	return true
}

// isConsistent rejects constraints no candidate can ever satisfy, such as a
// day number beyond the fixed month's maximum length. Merely rare
// combinations (Feb 29) are kept: they match in some years.
func (c *Constraint) isConsistent(period PeriodType) bool {
	year, haveYear := c.Year.Get()
	month, haveMonth := c.Month.Get()
	if haveMonth && (month < 1 || month > 12) {
		return false
	}
	if d, ok := c.Day.Get(); ok {
		if d == 0 || d > 31 || d < -31 {
			return false
		}
		if haveMonth {
			max := dateutil.MaxDaysInMonth(month)
			if haveYear {
				max = dateutil.DaysInMonth(year, month)
			}
			if d > max || d < -max {
				return false
			}
		}
	}
	if h, ok := c.Hour.Get(); ok && (h < 0 || h > 23) {
		return false
	}
	if m, ok := c.Minute.Get(); ok && (m < 0 || m > 59) {
		return false
	}
	if s, ok := c.Second.Get(); ok && (s < 0 || s > 60) {
		return false
	}
	if wd, ok := c.Weekday.Get(); ok && (wd < 1 || wd > 7) {
		return false
	}
	if pos, ok := c.WeekdayPos.Get(); ok {
		limit := 53
		if period == PeriodMonthly || (period == PeriodYearly && haveMonth) {
			limit = 5
		}
		if pos > limit || pos < -limit {
			return false
		}
	}
	if wn, ok := c.WeekNumber.Get(); ok && (wn == 0 || wn > 53 || wn < -53) {
		return false
	}
	if yd, ok := c.YearDay.Get(); ok {
		if yd == 0 || yd > 366 || yd < -366 {
			return false
		}
		if haveYear && (yd > dateutil.DaysInYear(year) || yd < -dateutil.DaysInYear(year)) {
			return false
		}
	}
	return true
}

// DateTimes enumerates every concrete date/time consistent with the
// constraint, in ascending order. Enumeration picks the cheapest applicable
// strategy; every produced date is verified against the full constraint
// again, so a strategy may over-generate but never under-filter.
func (c *Constraint) DateTimes(period PeriodType) []time.Time {
	if !c.isConsistent(period) {
		return nil
	}
	year, haveYear := c.Year.Get()
	if !haveYear {
		// without a year the admitted set is unbounded
		return nil
	}

	day, haveDay := c.Day.Get()
	month, haveMonth := c.Month.Get()
	weekday, haveWeekday := c.Weekday.Get()
	weekNum, haveWeek := c.WeekNumber.Get()
	yearDay, haveYearDay := c.YearDay.Get()

	var dates []time.Time // civil dates, midnight UTC
	addDay := func(y, m, d int) {
		dates = append(dates, time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC))
	}
	resolveDay := func(m int) (int, bool) {
		d := day
		if d < 0 {
			d = dateutil.DaysInMonth(year, m) + day + 1
		}
		return d, d >= 1 && d <= dateutil.DaysInMonth(year, m)
	}

	switch {
	case haveDay && haveMonth:
		// exact date within the year
		if d, ok := resolveDay(month); ok {
			addDay(year, month, d)
		}

	case !haveWeekday && !haveWeek && !haveYearDay:
		// plain day range implied by the month/day fields
		mstart, mend := 1, 12
		if haveMonth {
			mstart, mend = month, month
		}
		for m := mstart; m <= mend; m++ {
			if haveDay {
				if d, ok := resolveDay(m); ok {
					addDay(year, m, d)
				}
			} else {
				for d := 1; d <= dateutil.DaysInMonth(year, m); d++ {
					addDay(year, m, d)
				}
			}
		}

	case haveYearDay:
		d := yearDay
		if d < 0 {
			d = dateutil.DaysInYear(year) + yearDay + 1
		}
		if d >= 1 && d <= dateutil.DaysInYear(year) {
			dates = append(dates, time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, d-1))
		}

	case haveWeek:
		ws := dateutil.WeekStartDate(year, weekNum, c.weekStart)
		if haveWeekday {
			dates = append(dates, ws.AddDate(0, 0, (7+weekday-c.weekStart)%7))
		} else {
			for i := 0; i < 7; i++ {
				dates = append(dates, ws.AddDate(0, 0, i))
			}
		}

	case haveWeekday:
		pos := c.WeekdayPos.OrElse(0)
		inMonth := period == PeriodMonthly || (period == PeriodYearly && haveMonth)
		if inMonth {
			mstart, mend := 1, 12
			if haveMonth {
				mstart, mend = month, month
			}
			for m := mstart; m <= mend; m++ {
				if pos != 0 {
					if d, ok := dateutil.NthWeekdayOfMonth(year, m, weekday, pos); ok {
						addDay(year, m, d)
					}
				} else {
					for n := 1; n <= 5; n++ {
						if d, ok := dateutil.NthWeekdayOfMonth(year, m, weekday, n); ok {
							addDay(year, m, d)
						}
					}
				}
			}
		} else {
			if pos != 0 {
				if d, ok := dateutil.NthWeekdayOfYear(year, weekday, pos); ok {
					dates = append(dates, d)
				}
			} else {
				for n := 1; n <= 54; n++ {
					d, ok := dateutil.NthWeekdayOfYear(year, weekday, n)
					if !ok {
						break
					}
					dates = append(dates, d)
				}
			}
		}
	}

	hour := c.Hour.OrElse(0)
	minute := c.Minute.OrElse(0)
	second := c.Second.OrElse(0)
	result := make([]time.Time, 0, len(dates))
	for _, d := range dates {
		if !c.MatchesDate(d, period) {
			continue
		}
		result = append(result, time.Date(d.Year(), d.Month(), d.Day(), hour, minute, second, 0, c.location()))
	}
	return result
}

// IntervalDateTime returns the canonical start instant of the constraint's
// bucket at the given granularity: unset date fields default to the start of
// their range and time fields below the granularity are zero-filled. The
// result is cached until the constraint is stepped or merged.
func (c *Constraint) IntervalDateTime(period PeriodType) time.Time {
	if c.haveCached {
		return c.cachedDT
	}
	year := c.Year.OrElse(1)
	month := c.Month.OrElse(1)
	day := c.Day.OrElse(1)
	if day < 0 {
		day = dateutil.DaysInMonth(year, month) + day + 1
	}
	var hour, minute, second int
	switch period {
	case PeriodSecondly:
		second = c.Second.OrElse(0)
		fallthrough
	case PeriodMinutely:
		minute = c.Minute.OrElse(0)
		fallthrough
	case PeriodHourly:
		hour = c.Hour.OrElse(0)
	case PeriodWeekly:
		if wn, ok := c.WeekNumber.Get(); ok {
			ws := dateutil.WeekStartDate(year, wn, c.weekStart)
			year, month, day = ws.Year(), int(ws.Month()), ws.Day()
		}
	case PeriodMonthly:
		day = 1
	case PeriodYearly:
		month, day = 1, 1
	}
	c.cachedDT = time.Date(year, time.Month(month), day, hour, minute, second, 0, c.location())
	c.haveCached = true
	return c.cachedDT
}

// Increase steps the constraint's bucket forward by freq frequency units at
// the given granularity (backward for negative freq) and re-derives the
// coarse fields from the new bucket start.
func (c *Constraint) Increase(period PeriodType, freq int) {
	dt := c.IntervalDateTime(period)
	switch period {
	case PeriodSecondly:
		dt = dt.Add(time.Duration(freq) * time.Second)
	case PeriodMinutely:
		dt = dt.Add(time.Duration(freq) * time.Minute)
	case PeriodHourly:
		dt = dt.Add(time.Duration(freq) * time.Hour)
	case PeriodDaily:
		dt = dt.AddDate(0, 0, freq)
	case PeriodWeekly:
		dt = dt.AddDate(0, 0, 7*freq)
	case PeriodMonthly:
		dt = dateutil.AddMonths(dt, freq)
	case PeriodYearly:
		dt = dt.AddDate(freq, 0, 0)
	}
	c.readDateTime(dt, period)
}
