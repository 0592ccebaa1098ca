/*
Package recurrence evaluates iCalendar (RFC 5545) recurrence sets: RRULE,
RDATE, EXRULE and EXDATE, combined around a defining start instant.

# Basic Usage

Build a rule, attach it to a recurrence, and query occurrences:

	loc, _ := time.LoadLocation("Europe/Berlin")
	start := time.Date(2024, time.March, 4, 9, 0, 0, 0, loc)

	rec := recurrence.NewRecurrence()
	rec.SetStart(start, false)

	rule := recurrence.NewRule()
	rule.SetStart(start)
	rule.SetPeriod(recurrence.PeriodWeekly)
	rule.SetByDays([]recurrence.WDayPos{{Day: 1}, {Day: 3}}) // Mo, We
	rec.AddRRule(rule)

	next, ok := rec.GetNextDateTime(start).Get()
	onDay := rec.RecursOn(time.Date(2024, time.March, 6, 0, 0, 0, 0, loc), loc)

For the common single-rule case the Recurrence type carries a convenience
surface that manages its first rule:

	rec.SetWeekly(2, 1) // every two weeks, weeks starting Monday
	rec.AddWeeklyDays(2, 4)
	rec.SetDuration(10)

# Evaluation Model

An instant belongs to the set when the start, an RDATE or any inclusion
rule produces it and neither an EXDATE nor any exclusion rule removes it.
Exclusion dates are coarser than exclusion instants: an EXDATE removes the
whole civil date. For all-day recurrences a matching exclusion rule also
removes the whole date.

A Rule is either unbounded (Duration -1), bounded by a last instant
(Duration 0 plus SetEnd) or bounded by an occurrence count. Count-bounded
rules memoize their occurrence list on first use.

# Search Ceilings

Sparse rules ("every February 30th") would otherwise make queries loop
forever, so walks are bounded by Limits. The defaults in DefaultLimits are
generous; tighten them per recurrence with SetLimits when evaluating
untrusted input. A query that hits a ceiling reports absence and, when a
logger is attached via SetLogger, emits a debug event.

# Time Zones

Instants carry their zone via time.Location. Date-level queries such as
RecursOn take the observer's zone explicitly, since the civil date of an
occurrence depends on where it is observed. ShiftTimes re-expresses a whole
set in a new zone while keeping local clock times.

Parsing and serializing iCalendar input lives in the ical subpackage, not
here.
*/
package recurrence
