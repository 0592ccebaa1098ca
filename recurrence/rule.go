package recurrence

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/samber/mo"

	"github.com/cyp0633/librecur/internal/dateutil"
)

var (
	// ErrEndRequired rejects SetDuration(0): an end-bounded rule is entered
	// through SetEnd, which supplies the end instant.
	ErrEndRequired = errors.New("recurrence: duration 0 requires an end instant, use SetEnd")

	// ErrCountBounded rejects SetEnd on a rule already bounded by a count.
	ErrCountBounded = errors.New("recurrence: rule is bounded by an occurrence count")

	// ErrZeroEnd rejects SetEnd with the zero instant.
	ErrZeroEnd = errors.New("recurrence: zero end instant")
)

// Rule evaluates a single RFC 5545 recurrence rule: a base frequency and
// interval, an optional count or end instant, and the BY* lists narrowing the
// matching date/times. Queries never return errors; an impossible BY*
// combination simply yields no occurrences.
//
// The rule compiles its fields into a constraint set and, for count-limited
// rules, an occurrence cache. Both are rebuilt lazily on the first query
// after a mutation, so a Rule is safe for concurrent readers only once warmed
// and left unmodified; concurrent mutation needs external synchronization.
type Rule struct {
	period    PeriodType
	frequency int
	// duration is tri-state: -1 recurs forever, 0 an explicit end instant is
	// set, >0 an occurrence count.
	duration int
	end      time.Time
	start    time.Time
	allDay   bool
	weekStart int

	bySeconds     []int
	byMinutes     []int
	byHours       []int
	byDays        []WDayPos
	byMonthDays   []int
	byYearDays    []int
	byWeekNumbers []int
	byMonths      []int
	bySetPos      []int

	// verbatim RRULE text carried for round-trip fidelity, never interpreted
	rruleText string

	readOnly bool
	limits   Limits
	logger   *slog.Logger
	onChange func(*Rule)

	dirty       bool
	constraints []Constraint
	// flat repeat interval in seconds for BY*-free sub-daily rules
	timedRepetition int64

	cacheBuilt         bool
	cacheComplete      bool
	cachedDates        []time.Time
	cachedLastPossible time.Time
}

// NewRule returns a non-recurring rule: period none, interval 1, unbounded.
func NewRule() *Rule {
	return &Rule{
		period:    PeriodNone,
		frequency: 1,
		duration:  -1,
		weekStart: 1,
		limits:    DefaultLimits,
		dirty:     true,
	}
}

func (r *Rule) setDirty() {
	r.dirty = true
	r.constraints = nil
	r.timedRepetition = 0
	r.cacheBuilt = false
	r.cacheComplete = false
	r.cachedDates = nil
	r.cachedLastPossible = time.Time{}
	if r.onChange != nil {
		r.onChange(r)
	}
}

func (r *Rule) loc() *time.Location {
	if l := r.start.Location(); l != nil {
		return l
	}
	return time.UTC
}

// Period returns the rule's base frequency granularity.
func (r *Rule) Period() PeriodType { return r.period }

// SetPeriod sets the base frequency granularity.
func (r *Rule) SetPeriod(p PeriodType) {
	if r.readOnly {
		return
	}
	r.period = p
	r.setDirty()
}

// Frequency returns the interval between buckets, in period units.
func (r *Rule) Frequency() int { return r.frequency }

// SetFrequency sets the interval between buckets. Values below 1 are ignored.
func (r *Rule) SetFrequency(freq int) {
	if r.readOnly || freq < 1 {
		return
	}
	r.frequency = freq
	r.setDirty()
}

// Start returns the rule's start instant.
func (r *Rule) Start() time.Time { return r.start }

// SetStart sets the start instant the rule projects from. Its location is
// the zone the rule's calendar arithmetic runs in.
func (r *Rule) SetStart(t time.Time) {
	if r.readOnly {
		return
	}
	r.start = t
	r.setDirty()
}

// AllDay reports whether occurrences are whole calendar dates.
func (r *Rule) AllDay() bool { return r.allDay }

// SetAllDay marks the rule as recurring on whole dates rather than instants.
func (r *Rule) SetAllDay(allDay bool) {
	if r.readOnly {
		return
	}
	r.allDay = allDay
	r.setDirty()
}

// Duration returns -1 for an unbounded rule, 0 when an explicit end is set,
// or the occurrence count.
func (r *Rule) Duration() int { return r.duration }

// SetDuration sets an occurrence count (>0) or marks the rule unbounded
// (-1), clearing any explicit end. Passing 0 is rejected: an end-bounded
// state is only entered through SetEnd, which supplies the end instant.
func (r *Rule) SetDuration(duration int) error {
	if r.readOnly {
		return nil
	}
	if duration == 0 {
		return ErrEndRequired
	}
	r.duration = duration
	r.end = time.Time{}
	r.setDirty()
	return nil
}

// SetEnd bounds the rule by an explicit last possible instant (inclusive).
// It is rejected on a rule already bounded by an occurrence count, and for a
// zero end instant; prior state is kept in both cases.
func (r *Rule) SetEnd(end time.Time) error {
	if r.readOnly {
		return nil
	}
	if r.duration > 0 {
		return fmt.Errorf("%w (%d), clear it before setting an end", ErrCountBounded, r.duration)
	}
	if end.IsZero() {
		return ErrZeroEnd
	}
	r.duration = 0
	r.end = end
	r.setDirty()
	return nil
}

// End returns the last possible occurrence instant: the explicit end for an
// end-bounded rule, the final cached occurrence for a count-bounded rule.
// It is None for unbounded rules and for count-bounded rules whose
// occurrence list could not be fully built within the search ceiling.
func (r *Rule) End() mo.Option[time.Time] {
	switch {
	case r.duration < 0:
		return mo.None[time.Time]()
	case r.duration == 0:
		return mo.Some(r.end)
	default:
		r.ensureConstraints()
		if r.timedRepetition > 0 {
			return mo.Some(r.start.Add(time.Duration(int64(r.duration-1)*r.timedRepetition) * time.Second))
		}
		r.ensureCache()
		if r.cacheComplete && len(r.cachedDates) > 0 {
			return mo.Some(r.cachedDates[len(r.cachedDates)-1])
		}
		return mo.None[time.Time]()
	}
}

// WeekStart returns the first day of the week (1=Monday..7=Sunday).
func (r *Rule) WeekStart() int { return r.weekStart }

// SetWeekStart sets the first day of the week used for week numbering.
func (r *Rule) SetWeekStart(day int) {
	if r.readOnly || day < 1 || day > 7 {
		return
	}
	r.weekStart = day
	r.setDirty()
}

// ReadOnly reports whether mutations are ignored.
func (r *Rule) ReadOnly() bool { return r.readOnly }

// SetReadOnly freezes or unfreezes the rule. Setters on a frozen rule are
// silent no-ops.
func (r *Rule) SetReadOnly(readOnly bool) { r.readOnly = readOnly }

// RRuleText returns the verbatim RRULE text attached to this rule, if any.
func (r *Rule) RRuleText() string { return r.rruleText }

// SetRRuleText attaches the original RRULE text for round-trip fidelity. The
// engine never interprets it.
func (r *Rule) SetRRuleText(text string) {
	if r.readOnly {
		return
	}
	r.rruleText = text
}

// SetLimits replaces the rule's search ceilings.
func (r *Rule) SetLimits(limits Limits) {
	if r.readOnly {
		return
	}
	r.limits = limits
	r.setDirty()
}

// SetLogger attaches a logger for debug events (cache rebuilds, exhausted
// searches). A nil logger keeps the rule silent.
func (r *Rule) SetLogger(logger *slog.Logger) { r.logger = logger }

func (r *Rule) debug(msg string, args ...any) {
	if r.logger != nil {
		r.logger.Debug(msg, args...)
	}
}

// BySeconds returns the BYSECOND list.
func (r *Rule) BySeconds() []int { return slices.Clone(r.bySeconds) }

// SetBySeconds sets the BYSECOND list.
func (r *Rule) SetBySeconds(list []int) {
	if r.readOnly {
		return
	}
	r.bySeconds = slices.Clone(list)
	r.setDirty()
}

// ByMinutes returns the BYMINUTE list.
func (r *Rule) ByMinutes() []int { return slices.Clone(r.byMinutes) }

// SetByMinutes sets the BYMINUTE list.
func (r *Rule) SetByMinutes(list []int) {
	if r.readOnly {
		return
	}
	r.byMinutes = slices.Clone(list)
	r.setDirty()
}

// ByHours returns the BYHOUR list.
func (r *Rule) ByHours() []int { return slices.Clone(r.byHours) }

// SetByHours sets the BYHOUR list.
func (r *Rule) SetByHours(list []int) {
	if r.readOnly {
		return
	}
	r.byHours = slices.Clone(list)
	r.setDirty()
}

// ByDays returns the BYDAY list of positioned weekdays.
func (r *Rule) ByDays() []WDayPos { return slices.Clone(r.byDays) }

// SetByDays sets the BYDAY list.
func (r *Rule) SetByDays(list []WDayPos) {
	if r.readOnly {
		return
	}
	r.byDays = slices.Clone(list)
	r.setDirty()
}

// ByMonthDays returns the BYMONTHDAY list (signed days of month).
func (r *Rule) ByMonthDays() []int { return slices.Clone(r.byMonthDays) }

// SetByMonthDays sets the BYMONTHDAY list.
func (r *Rule) SetByMonthDays(list []int) {
	if r.readOnly {
		return
	}
	r.byMonthDays = slices.Clone(list)
	r.setDirty()
}

// ByYearDays returns the BYYEARDAY list (signed days of year).
func (r *Rule) ByYearDays() []int { return slices.Clone(r.byYearDays) }

// SetByYearDays sets the BYYEARDAY list.
func (r *Rule) SetByYearDays(list []int) {
	if r.readOnly {
		return
	}
	r.byYearDays = slices.Clone(list)
	r.setDirty()
}

// ByWeekNumbers returns the BYWEEKNO list (signed week numbers).
func (r *Rule) ByWeekNumbers() []int { return slices.Clone(r.byWeekNumbers) }

// SetByWeekNumbers sets the BYWEEKNO list.
func (r *Rule) SetByWeekNumbers(list []int) {
	if r.readOnly {
		return
	}
	r.byWeekNumbers = slices.Clone(list)
	r.setDirty()
}

// ByMonths returns the BYMONTH list.
func (r *Rule) ByMonths() []int { return slices.Clone(r.byMonths) }

// SetByMonths sets the BYMONTH list.
func (r *Rule) SetByMonths(list []int) {
	if r.readOnly {
		return
	}
	r.byMonths = slices.Clone(list)
	r.setDirty()
}

// BySetPos returns the BYSETPOS list of signed bucket positions.
func (r *Rule) BySetPos() []int { return slices.Clone(r.bySetPos) }

// SetBySetPos sets the BYSETPOS list, selecting ranked members of each
// bucket's match set.
func (r *Rule) SetBySetPos(list []int) {
	if r.readOnly {
		return
	}
	r.bySetPos = slices.Clone(list)
	r.setDirty()
}

func (r *Rule) noByRules() bool {
	return len(r.bySeconds) == 0 && len(r.byMinutes) == 0 && len(r.byHours) == 0 &&
		len(r.byDays) == 0 && len(r.byMonthDays) == 0 && len(r.byYearDays) == 0 &&
		len(r.byWeekNumbers) == 0 && len(r.byMonths) == 0 && len(r.bySetPos) == 0
}

// buildConstraints compiles the BY* lists into the constraint set: one
// constraint per combination in the cartesian product of the non-empty
// lists, with fields the lists leave open inherited from the start instant
// according to the frequency-dependent defaulting of RFC 5545.
func (r *Rule) buildConstraints() {
	r.dirty = false
	r.timedRepetition = 0
	cons := []Constraint{NewConstraint(r.loc(), r.weekStart)}

	product := func(list []int, set func(*Constraint, int)) {
		if len(list) == 0 {
			return
		}
		next := make([]Constraint, 0, len(cons)*len(list))
		for _, c := range cons {
			for _, v := range list {
				nc := c
				set(&nc, v)
				next = append(next, nc)
			}
		}
		cons = next
	}

	product(r.bySeconds, func(c *Constraint, v int) { c.Second = mo.Some(v) })
	product(r.byMinutes, func(c *Constraint, v int) { c.Minute = mo.Some(v) })
	product(r.byHours, func(c *Constraint, v int) { c.Hour = mo.Some(v) })
	if len(r.byDays) > 0 {
		next := make([]Constraint, 0, len(cons)*len(r.byDays))
		for _, c := range cons {
			for _, wp := range r.byDays {
				nc := c
				nc.Weekday = mo.Some(wp.Day)
				if wp.Pos != 0 {
					nc.WeekdayPos = mo.Some(wp.Pos)
				}
				next = append(next, nc)
			}
		}
		cons = next
	}
	product(r.byMonthDays, func(c *Constraint, v int) { c.Day = mo.Some(v) })
	product(r.byMonths, func(c *Constraint, v int) { c.Month = mo.Some(v) })
	product(r.byYearDays, func(c *Constraint, v int) { c.YearDay = mo.Some(v) })
	product(r.byWeekNumbers, func(c *Constraint, v int) { c.WeekNumber = mo.Some(v) })

	// Fields not constrained by any BY* list inherit from the start instant.
	start := r.start.In(r.loc())
	fix := func(set func(*Constraint)) {
		for i := range cons {
			set(&cons[i])
		}
	}
	noDateRules := len(r.byDays) == 0 && len(r.byWeekNumbers) == 0 && len(r.byYearDays) == 0
	if r.period == PeriodYearly && noDateRules && len(r.byMonths) == 0 {
		m := int(start.Month())
		fix(func(c *Constraint) { c.Month = mo.Some(m) })
	}
	if r.period >= PeriodMonthly && noDateRules && len(r.byMonthDays) == 0 {
		d := start.Day()
		fix(func(c *Constraint) { c.Day = mo.Some(d) })
	}
	if r.period == PeriodWeekly && len(r.byDays) == 0 {
		wd := dateutil.Weekday(start)
		fix(func(c *Constraint) { c.Weekday = mo.Some(wd) })
	}
	if !r.allDay {
		if r.period >= PeriodDaily && len(r.byHours) == 0 {
			h := start.Hour()
			fix(func(c *Constraint) { c.Hour = mo.Some(h) })
		}
		if r.period >= PeriodHourly && len(r.byMinutes) == 0 {
			m := start.Minute()
			fix(func(c *Constraint) { c.Minute = mo.Some(m) })
		}
		if r.period >= PeriodMinutely && len(r.bySeconds) == 0 {
			s := start.Second()
			fix(func(c *Constraint) { c.Second = mo.Some(s) })
		}
	} else {
		fix(func(c *Constraint) {
			c.Hour = mo.Some(0)
			c.Minute = mo.Some(0)
			c.Second = mo.Some(0)
		})
	}

	r.constraints = slices.DeleteFunc(cons, func(c Constraint) bool {
		return !c.isConsistent(r.period)
	})

	// BY*-free sub-daily rules repeat at a flat interval; constraint
	// evaluation would walk one bucket per occurrence, which is hopeless for
	// unbounded secondly rules.
	if r.noByRules() {
		switch r.period {
		case PeriodSecondly:
			r.timedRepetition = int64(r.frequency)
		case PeriodMinutely:
			r.timedRepetition = int64(r.frequency) * 60
		case PeriodHourly:
			r.timedRepetition = int64(r.frequency) * 3600
		}
	}
	r.debug("rebuilt recurrence constraints", "period", r.period.String(), "constraints", len(r.constraints))
}

func (r *Rule) ensureConstraints() {
	if r.dirty {
		r.buildConstraints()
	}
}

// validIntervalFor returns the constraint describing the frequency bucket
// that contains t, aligned to whole multiples of the frequency counted from
// the start instant. For t before the start it returns the start's bucket.
func (r *Rule) validIntervalFor(t time.Time) Constraint {
	start := r.start.In(r.loc())
	to := t.In(r.loc())
	aligned := start

	switch r.period {
	case PeriodSecondly, PeriodMinutely, PeriodHourly:
		unit := int64(1)
		if r.period == PeriodMinutely {
			unit = 60
		} else if r.period == PeriodHourly {
			unit = 3600
		}
		periods := (to.Unix() - start.Unix()) / unit
		periods = (periods / int64(r.frequency)) * int64(r.frequency)
		if periods > 0 {
			aligned = start.Add(time.Duration(periods*unit) * time.Second)
		}
	case PeriodDaily, PeriodWeekly:
		unit := 1
		if r.period == PeriodWeekly {
			// align both ends to the week start first
			to = to.AddDate(0, 0, -((7 + dateutil.Weekday(to) - r.weekStart) % 7))
			start = start.AddDate(0, 0, -((7 + dateutil.Weekday(start) - r.weekStart) % 7))
			unit = 7
		}
		periods := dateutil.DaysBetween(start, to) / unit
		periods = (periods / r.frequency) * r.frequency
		if periods > 0 {
			aligned = start.AddDate(0, 0, periods*unit)
		} else {
			aligned = start
		}
	case PeriodMonthly:
		periods := 12*(to.Year()-start.Year()) + int(to.Month()) - int(start.Month())
		periods = (periods / r.frequency) * r.frequency
		// first of month sidesteps nonexistent days like Feb 30
		first := time.Date(start.Year(), start.Month(), 1, start.Hour(), start.Minute(), start.Second(), 0, r.loc())
		if periods > 0 {
			aligned = dateutil.AddMonths(first, periods)
		} else {
			aligned = first
		}
	case PeriodYearly:
		periods := to.Year() - start.Year()
		periods = (periods / r.frequency) * r.frequency
		if periods > 0 {
			aligned = start.AddDate(periods, 0, 0)
		}
	}
	return IntervalConstraint(aligned, r.period, r.weekStart)
}

// datesForInterval enumerates the rule's full match set for one frequency
// bucket, sorted ascending, with BYSETPOS applied.
func (r *Rule) datesForInterval(interval *Constraint) []time.Time {
	var list []time.Time
	for _, c := range r.constraints {
		merged := *interval
		if !merged.Merge(c) {
			continue
		}
		list = append(list, merged.DateTimes(r.period)...)
	}
	list = sortUnique(list)
	if len(r.bySetPos) == 0 || len(list) == 0 {
		return list
	}
	selected := make([]time.Time, 0, len(r.bySetPos))
	for _, pos := range r.bySetPos {
		idx := pos - 1
		if pos < 0 {
			idx = len(list) + pos
		}
		if idx >= 0 && idx < len(list) {
			selected = append(selected, list[idx])
		}
	}
	return sortUnique(selected)
}

// buildCache materializes the occurrence list of a count-bounded rule. The
// build walks at most the interval ceiling's worth of buckets, so the list
// may come out short for pathologically sparse rules; cacheComplete records
// whether the full count was reached.
func (r *Rule) ensureCache() {
	if r.cacheBuilt {
		return
	}
	r.cacheBuilt = true
	interval := r.validIntervalFor(r.start)
	var dts []time.Time
	loop := 0
	for ; loop < r.limits.IntervalWalk && len(dts) < r.duration; loop++ {
		for _, t := range r.datesForInterval(&interval) {
			if !t.Before(r.start) {
				dts = append(dts, t)
			}
		}
		interval.Increase(r.period, r.frequency)
	}
	if len(dts) >= r.duration {
		dts = dts[:r.duration]
		r.cacheComplete = true
	} else {
		r.cacheComplete = false
		r.cachedLastPossible = interval.IntervalDateTime(r.period)
		r.debug("occurrence cache incomplete, search ceiling reached",
			"cached", len(dts), "count", r.duration)
	}
	r.cachedDates = dts
}

func (r *Rule) valid() bool {
	return r.period != PeriodNone && !r.start.IsZero()
}

// afterEnd reports whether t is past the rule's bounded end.
func (r *Rule) afterEnd(t time.Time) bool {
	if r.duration < 0 {
		return false
	}
	if e, ok := r.End().Get(); ok {
		return t.After(e)
	}
	return false
}

// RecursOn reports whether the rule has an occurrence on the civil date of
// day as observed in loc.
func (r *Rule) RecursOn(day time.Time, loc *time.Location) bool {
	if !r.valid() {
		return false
	}
	r.ensureConstraints()

	y, m, d := day.Date()
	dayStart := time.Date(y, m, d, 0, 0, 0, 0, loc)
	dayEnd := dayStart.AddDate(0, 0, 1)

	startDay := r.start.In(r.loc())
	if r.allDay {
		if dateutil.DaysBetween(startDay, dayStart) < 0 {
			return false
		}
	} else if dateutil.DaysBetween(r.start.In(loc), dayStart) < 0 {
		return false
	}

	windowEnd := dayEnd
	if r.duration >= 0 {
		if e, ok := r.End().Get(); ok {
			if dateutil.DaysBetween(e.In(loc), dayStart) > 0 {
				return false
			}
			if limit := e.Add(time.Second); limit.Before(windowEnd) {
				windowEnd = limit
			}
			if !dayStart.Before(windowEnd) && !r.allDay {
				return false
			}
		}
	}

	if r.timedRepetition > 0 {
		first := r.start
		if delta := dayStart.Unix() - r.start.Unix(); delta > 0 {
			k := (delta + r.timedRepetition - 1) / r.timedRepetition
			first = r.start.Add(time.Duration(k*r.timedRepetition) * time.Second)
		}
		return first.Before(windowEnd)
	}

	match := false
	for i := range r.constraints {
		if r.constraints[i].MatchesDate(dayStart, r.period) {
			match = true
			break
		}
	}
	if !match {
		return false
	}

	// Match alone is not a recurrence: the date must fall into a reachable
	// bucket, and BYSETPOS may deselect it, so enumerate bucket contents.
	interval := r.validIntervalFor(dayStart)
	for loop := 0; loop < r.limits.IntervalWalk; loop++ {
		for _, t := range r.datesForInterval(&interval) {
			if t.Before(r.start) {
				continue
			}
			if r.afterEnd(t) {
				return false
			}
			diff := dateutil.DaysBetween(dayStart, t.In(loc))
			if diff >= 0 {
				return diff == 0
			}
		}
		interval.Increase(r.period, r.frequency)
		if !interval.IntervalDateTime(r.period).In(loc).Before(dayEnd) {
			break
		}
	}
	return false
}

// RecursAt reports whether the rule has an occurrence at exactly t. For
// all-day rules this degrades to a date-level test.
func (r *Rule) RecursAt(t time.Time) bool {
	if !r.valid() {
		return false
	}
	r.ensureConstraints()
	dt := t.In(r.loc())
	if r.allDay {
		return r.RecursOn(dt, r.loc())
	}
	if dt.Before(r.start) {
		return false
	}
	if r.afterEnd(dt) {
		return false
	}
	if r.timedRepetition > 0 {
		return (dt.Unix()-r.start.Unix())%r.timedRepetition == 0
	}
	match := false
	for i := range r.constraints {
		if r.constraints[i].MatchesDateTime(dt, r.period) {
			match = true
			break
		}
	}
	if !match {
		return false
	}
	// The constraints carry no notion of which buckets the interval selects;
	// the candidate must also fall inside an aligned bucket, or an interval
	// above 1 would match skipped buckets.
	interval := r.validIntervalFor(dt)
	if !interval.MatchesDateTime(dt, r.period) {
		return false
	}
	if len(r.bySetPos) == 0 {
		return true
	}
	// BYSETPOS selects ranked members of the bucket's match set, so matching
	// the constraints is necessary but not sufficient.
	return containsTime(r.datesForInterval(&interval), dt)
}

// NextDate returns the first occurrence strictly after the given instant, or
// None when there is none within the rule's bounds or search ceiling.
func (r *Rule) NextDate(after time.Time) mo.Option[time.Time] {
	if !r.valid() {
		return mo.None[time.Time]()
	}
	r.ensureConstraints()

	adjusted := after.In(r.loc())
	if r.duration >= 0 {
		if e, ok := r.End().Get(); ok && !adjusted.Before(e) {
			return mo.None[time.Time]()
		}
	}
	// the start instant itself counts only when it matches the rule
	if adjusted.Before(r.start) {
		adjusted = r.start.Add(-time.Second)
	}

	if r.timedRepetition > 0 {
		delta := adjusted.Unix() - r.start.Unix()
		k := int64(0)
		if delta >= 0 {
			k = delta/r.timedRepetition + 1
		}
		next := r.start.Add(time.Duration(k*r.timedRepetition) * time.Second)
		if r.afterEnd(next) {
			return mo.None[time.Time]()
		}
		return mo.Some(next)
	}

	if r.duration > 0 {
		r.ensureCache()
		if i := firstAfter(r.cachedDates, adjusted); i < len(r.cachedDates) {
			return mo.Some(r.cachedDates[i])
		}
		if !r.cacheComplete {
			r.debug("next-occurrence search exhausted against incomplete cache", "after", after)
		}
		return mo.None[time.Time]()
	}

	interval := r.validIntervalFor(adjusted)
	for _, t := range r.datesForInterval(&interval) {
		if t.After(adjusted) && !t.Before(r.start) {
			if r.afterEnd(t) {
				return mo.None[time.Time]()
			}
			return mo.Some(t)
		}
	}
	for loop := 0; loop < r.limits.IntervalWalk; loop++ {
		interval.Increase(r.period, r.frequency)
		dts := r.datesForInterval(&interval)
		for _, t := range dts {
			if t.After(adjusted) && !t.Before(r.start) {
				if r.afterEnd(t) {
					return mo.None[time.Time]()
				}
				return mo.Some(t)
			}
		}
	}
	r.debug("next-occurrence search hit interval ceiling", "after", after)
	return mo.None[time.Time]()
}

// PreviousDate returns the last occurrence strictly before the given
// instant, or None when there is none.
func (r *Rule) PreviousDate(before time.Time) mo.Option[time.Time] {
	if !r.valid() {
		return mo.None[time.Time]()
	}
	r.ensureConstraints()

	to := before.In(r.loc())
	if !to.After(r.start) {
		return mo.None[time.Time]()
	}
	if r.duration >= 0 {
		if e, ok := r.End().Get(); ok {
			if limit := e.Add(time.Second); to.After(limit) {
				to = limit
			}
		}
	}

	if r.timedRepetition > 0 {
		delta := to.Unix() - r.start.Unix()
		// last occurrence strictly before to
		i := floorDiv(delta-1, r.timedRepetition)
		if i < 0 {
			return mo.None[time.Time]()
		}
		return mo.Some(r.start.Add(time.Duration(i*r.timedRepetition) * time.Second))
	}

	if r.duration > 0 {
		r.ensureCache()
		if i := lastBefore(r.cachedDates, to); i >= 0 {
			return mo.Some(r.cachedDates[i])
		}
		return mo.None[time.Time]()
	}

	interval := r.validIntervalFor(to)
	best := mo.None[time.Time]()
	for _, t := range r.datesForInterval(&interval) {
		if t.Before(to) && !t.Before(r.start) {
			best = mo.Some(t)
		}
	}
	if best.IsPresent() {
		return best
	}
	for loop := 0; loop < r.limits.IntervalWalk; loop++ {
		if !interval.IntervalDateTime(r.period).After(r.start) {
			break
		}
		interval.Increase(r.period, -r.frequency)
		dts := r.datesForInterval(&interval)
		for i := len(dts) - 1; i >= 0; i-- {
			t := dts[i]
			if t.Before(to) && !t.Before(r.start) {
				return mo.Some(t)
			}
		}
	}
	return mo.None[time.Time]()
}

// TimesInInterval returns every occurrence within [start, end], both ends
// inclusive, sorted ascending.
func (r *Rule) TimesInInterval(start, end time.Time) []time.Time {
	if !r.valid() {
		return nil
	}
	r.ensureConstraints()

	st := start.In(r.loc())
	en := end.In(r.loc())
	if en.Before(r.start) {
		return nil
	}
	if st.Before(r.start) {
		st = r.start
	}
	enddt := en
	if r.duration >= 0 {
		if e, ok := r.End().Get(); ok {
			if st.After(e) {
				return nil
			}
			if en.After(e) {
				enddt = e
			}
		}
	}

	if r.timedRepetition > 0 {
		var result []time.Time
		first := r.start
		if delta := st.Unix() - r.start.Unix(); delta > 0 {
			k := (delta + r.timedRepetition - 1) / r.timedRepetition
			first = r.start.Add(time.Duration(k*r.timedRepetition) * time.Second)
		}
		for t := first; !t.After(enddt) && len(result) < r.limits.IntervalWalk; t = t.Add(time.Duration(r.timedRepetition) * time.Second) {
			result = append(result, t)
		}
		return result
	}

	var result []time.Time
	if r.duration > 0 {
		r.ensureCache()
		for _, t := range r.cachedDates {
			if !t.Before(st) && !t.After(enddt) {
				result = append(result, t)
			}
		}
		if r.cacheComplete {
			return result
		}
		// resume past the truncated cache, still honoring the count
		remaining := r.duration - len(r.cachedDates)
		interval := IntervalConstraint(r.cachedLastPossible, r.period, r.weekStart)
		for loop := 0; loop < r.limits.IntervalWalk && remaining > 0; loop++ {
			for _, t := range r.datesForInterval(&interval) {
				if remaining == 0 || t.After(enddt) {
					remaining = 0
					break
				}
				remaining--
				if !t.Before(st) {
					result = append(result, t)
				}
			}
			interval.Increase(r.period, r.frequency)
		}
		return result
	}

	interval := r.validIntervalFor(st)
	for loop := 0; loop < r.limits.IntervalWalk; loop++ {
		for _, t := range r.datesForInterval(&interval) {
			if t.Before(st) {
				continue
			}
			if t.After(enddt) {
				return result
			}
			result = append(result, t)
		}
		interval.Increase(r.period, r.frequency)
		if interval.IntervalDateTime(r.period).After(enddt) {
			break
		}
	}
	return result
}

// DurationTo returns the number of occurrences at or before t.
func (r *Rule) DurationTo(t time.Time) int {
	if !r.valid() {
		return 0
	}
	r.ensureConstraints()
	dt := t.In(r.loc())
	if dt.Before(r.start) {
		return 0
	}
	if r.timedRepetition > 0 {
		n := (dt.Unix()-r.start.Unix())/r.timedRepetition + 1
		if r.duration > 0 && n > int64(r.duration) {
			n = int64(r.duration)
		}
		return int(n)
	}
	return len(r.TimesInInterval(r.start, dt))
}

// Clone returns a deep copy sharing no derived state with the original. The
// copy is mutable and detached from any observer.
func (r *Rule) Clone() *Rule {
	nr := NewRule()
	nr.period = r.period
	nr.frequency = r.frequency
	nr.duration = r.duration
	nr.end = r.end
	nr.start = r.start
	nr.allDay = r.allDay
	nr.weekStart = r.weekStart
	nr.bySeconds = slices.Clone(r.bySeconds)
	nr.byMinutes = slices.Clone(r.byMinutes)
	nr.byHours = slices.Clone(r.byHours)
	nr.byDays = slices.Clone(r.byDays)
	nr.byMonthDays = slices.Clone(r.byMonthDays)
	nr.byYearDays = slices.Clone(r.byYearDays)
	nr.byWeekNumbers = slices.Clone(r.byWeekNumbers)
	nr.byMonths = slices.Clone(r.byMonths)
	nr.bySetPos = slices.Clone(r.bySetPos)
	nr.rruleText = r.rruleText
	nr.limits = r.limits
	nr.logger = r.logger
	return nr
}

// Equal compares the defining fields of two rules, ignoring derived caches,
// read-only state and observers.
func (r *Rule) Equal(other *Rule) bool {
	if r == nil || other == nil {
		return r == other
	}
	return r.period == other.period &&
		r.frequency == other.frequency &&
		r.duration == other.duration &&
		(r.duration != 0 || r.end.Equal(other.end)) &&
		r.start.Equal(other.start) &&
		r.allDay == other.allDay &&
		r.weekStart == other.weekStart &&
		slices.Equal(r.bySeconds, other.bySeconds) &&
		slices.Equal(r.byMinutes, other.byMinutes) &&
		slices.Equal(r.byHours, other.byHours) &&
		slices.Equal(r.byDays, other.byDays) &&
		slices.Equal(r.byMonthDays, other.byMonthDays) &&
		slices.Equal(r.byYearDays, other.byYearDays) &&
		slices.Equal(r.byWeekNumbers, other.byWeekNumbers) &&
		slices.Equal(r.byMonths, other.byMonths) &&
		slices.Equal(r.bySetPos, other.bySetPos)
}

// String returns a debug summary of the rule's defining fields.
func (r *Rule) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "freq=%s interval=%d start=%s", r.period, r.frequency, r.start.Format(time.RFC3339))
	switch {
	case r.duration > 0:
		fmt.Fprintf(&b, " count=%d", r.duration)
	case r.duration == 0:
		fmt.Fprintf(&b, " until=%s", r.end.Format(time.RFC3339))
	}
	writeList := func(name string, list []int) {
		if len(list) > 0 {
			fmt.Fprintf(&b, " %s=%v", name, list)
		}
	}
	if len(r.byDays) > 0 {
		parts := make([]string, len(r.byDays))
		for i, w := range r.byDays {
			parts[i] = w.String()
		}
		fmt.Fprintf(&b, " byday=%s", strings.Join(parts, ","))
	}
	writeList("bymonthday", r.byMonthDays)
	writeList("byyearday", r.byYearDays)
	writeList("byweekno", r.byWeekNumbers)
	writeList("bymonth", r.byMonths)
	writeList("byhour", r.byHours)
	writeList("byminute", r.byMinutes)
	writeList("bysecond", r.bySeconds)
	writeList("bysetpos", r.bySetPos)
	return b.String()
}

// ShiftTimes re-expresses the rule's start and end in newLoc keeping their
// civil fields, for relocating a whole recurrence between zones.
func (r *Rule) ShiftTimes(oldLoc, newLoc *time.Location) {
	if r.readOnly {
		return
	}
	r.start = shiftTime(r.start, oldLoc, newLoc)
	if r.duration == 0 {
		r.end = shiftTime(r.end, oldLoc, newLoc)
	}
	r.setDirty()
}

func shiftTime(t time.Time, oldLoc, newLoc *time.Location) time.Time {
	ct := t.In(oldLoc)
	return time.Date(ct.Year(), ct.Month(), ct.Day(), ct.Hour(), ct.Minute(), ct.Second(), ct.Nanosecond(), newLoc)
}

func floorDiv(a, b int64) int64 {
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return q
}
