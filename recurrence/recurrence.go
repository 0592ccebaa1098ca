package recurrence

import (
	"log/slog"
	"slices"
	"time"

	"github.com/samber/mo"

	"github.com/cyp0633/librecur/internal/dateutil"
)

// Period associates a start instant with an end instant, as carried by
// RDATE;VALUE=PERIOD entries. The engine stores it verbatim alongside the
// date/time list; it never influences rule evaluation.
type Period struct {
	Start time.Time
	End   time.Time
}

// Recurrence is the full recurrence set of one calendar incidence: any
// number of inclusion rules, exclusion rules, explicit inclusion dates and
// date/times, mirrored exclusion lists, and the defining start. Membership
// is (RDATE or rule match or the start itself) minus (EXDATE or exclusion
// rule match); exclusions always win at equal specificity.
//
// All list members stay sorted and duplicate-free across mutations. Like
// Rule, a Recurrence is safe for concurrent readers only once its queries
// have warmed the per-rule caches and no further mutation happens.
type Recurrence struct {
	rRules  []*Rule
	exRules []*Rule

	rDates           []time.Time // civil dates as midnight in the start zone
	rDateTimes       []time.Time
	rDateTimePeriods map[int64]Period // keyed by start instant (unix nanoseconds)
	exDates          []time.Time
	exDateTimes      []time.Time

	start    time.Time
	allDay   bool
	readOnly bool

	limits    Limits
	logger    *slog.Logger
	observers []observerEntry
}

// NewRecurrence returns an empty, non-recurring set.
func NewRecurrence() *Recurrence {
	return &Recurrence{limits: DefaultLimits}
}

func (r *Recurrence) loc() *time.Location {
	return r.start.Location()
}

// dateKey normalizes the civil date carried by t to midnight in the start
// zone, the canonical representation of the date lists.
func (r *Recurrence) dateKey(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, r.loc())
}

// Recurs reports whether any inclusion rule or explicit inclusion exists.
func (r *Recurrence) Recurs() bool {
	return len(r.rRules) > 0 || len(r.rDates) > 0 || len(r.rDateTimes) > 0
}

// Start returns the defining start instant.
func (r *Recurrence) Start() time.Time { return r.start }

// SetStart sets the start instant and whether occurrences are whole dates,
// propagating both to every attached rule.
func (r *Recurrence) SetStart(start time.Time, allDay bool) {
	if r.readOnly {
		return
	}
	r.start = start
	r.allDay = allDay
	for _, rule := range r.rRules {
		rule.SetStart(start)
		rule.SetAllDay(allDay)
	}
	for _, rule := range r.exRules {
		rule.SetStart(start)
		rule.SetAllDay(allDay)
	}
	r.updated()
}

// AllDay reports whether the unit of occurrence is a calendar date.
func (r *Recurrence) AllDay() bool { return r.allDay }

// SetAllDay switches between date and instant occurrences.
func (r *Recurrence) SetAllDay(allDay bool) {
	if r.readOnly || r.allDay == allDay {
		return
	}
	r.allDay = allDay
	for _, rule := range r.rRules {
		rule.SetAllDay(allDay)
	}
	for _, rule := range r.exRules {
		rule.SetAllDay(allDay)
	}
	r.updated()
}

// ReadOnly reports whether mutations are ignored.
func (r *Recurrence) ReadOnly() bool { return r.readOnly }

// SetReadOnly freezes or unfreezes the recurrence; mutating a frozen one is
// a silent no-op.
func (r *Recurrence) SetReadOnly(readOnly bool) { r.readOnly = readOnly }

// SetLimits replaces the search ceilings of the aggregate and of every
// attached rule.
func (r *Recurrence) SetLimits(limits Limits) {
	if r.readOnly {
		return
	}
	r.limits = limits
	for _, rule := range r.rRules {
		rule.SetLimits(limits)
	}
	for _, rule := range r.exRules {
		rule.SetLimits(limits)
	}
}

// SetLogger attaches a logger for debug events, shared with attached rules.
func (r *Recurrence) SetLogger(logger *slog.Logger) {
	r.logger = logger
	for _, rule := range r.rRules {
		rule.SetLogger(logger)
	}
	for _, rule := range r.exRules {
		rule.SetLogger(logger)
	}
}

func (r *Recurrence) debug(msg string, args ...any) {
	if r.logger != nil {
		r.logger.Debug(msg, args...)
	}
}

// Clear removes every rule and explicit date, leaving a non-recurring set.
func (r *Recurrence) Clear() {
	if r.readOnly {
		return
	}
	r.rRules = nil
	r.exRules = nil
	r.rDates = nil
	r.rDateTimes = nil
	r.rDateTimePeriods = nil
	r.exDates = nil
	r.exDateTimes = nil
	r.updated()
}

// RRules returns the inclusion rules in order.
func (r *Recurrence) RRules() []*Rule { return slices.Clone(r.rRules) }

// AddRRule attaches an inclusion rule. The rule adopts the recurrence's
// all-day flag, limits and logger, and mutating it afterwards notifies the
// recurrence's observers.
func (r *Recurrence) AddRRule(rule *Rule) {
	if r.readOnly || rule == nil {
		return
	}
	r.adoptRule(rule)
	r.rRules = append(r.rRules, rule)
	r.updated()
}

// RemoveRRule detaches an inclusion rule previously added.
func (r *Recurrence) RemoveRRule(rule *Rule) {
	for i, got := range r.rRules {
		if got == rule {
			if r.readOnly {
				return
			}
			r.rRules = append(r.rRules[:i], r.rRules[i+1:]...)
			rule.onChange = nil
			r.updated()
			return
		}
	}
}

// ExRules returns the exclusion rules in order.
func (r *Recurrence) ExRules() []*Rule { return slices.Clone(r.exRules) }

// AddExRule attaches an exclusion rule; instants it matches are removed
// from the recurrence set.
func (r *Recurrence) AddExRule(rule *Rule) {
	if r.readOnly || rule == nil {
		return
	}
	r.adoptRule(rule)
	r.exRules = append(r.exRules, rule)
	r.updated()
}

// RemoveExRule detaches an exclusion rule previously added.
func (r *Recurrence) RemoveExRule(rule *Rule) {
	for i, got := range r.exRules {
		if got == rule {
			if r.readOnly {
				return
			}
			r.exRules = append(r.exRules[:i], r.exRules[i+1:]...)
			rule.onChange = nil
			r.updated()
			return
		}
	}
}

func (r *Recurrence) adoptRule(rule *Rule) {
	rule.SetAllDay(r.allDay)
	rule.SetLimits(r.limits)
	rule.SetLogger(r.logger)
	rule.onChange = func(*Rule) { r.updated() }
}

// RDates returns the explicit inclusion dates, ascending.
func (r *Recurrence) RDates() []time.Time { return slices.Clone(r.rDates) }

// SetRDates replaces the explicit inclusion dates; the list is normalized,
// sorted and de-duplicated.
func (r *Recurrence) SetRDates(dates []time.Time) {
	if r.readOnly {
		return
	}
	r.rDates = r.rDates[:0]
	for _, d := range dates {
		r.rDates = insertSorted(r.rDates, r.dateKey(d))
	}
	r.updated()
}

// AddRDate adds one explicit inclusion date.
func (r *Recurrence) AddRDate(date time.Time) {
	if r.readOnly {
		return
	}
	r.rDates = insertSorted(r.rDates, r.dateKey(date))
	r.updated()
}

// RDateTimes returns the explicit inclusion instants, ascending.
func (r *Recurrence) RDateTimes() []time.Time { return slices.Clone(r.rDateTimes) }

// SetRDateTimes replaces the explicit inclusion instants. Any period
// associations for instants no longer present are dropped.
func (r *Recurrence) SetRDateTimes(times []time.Time) {
	if r.readOnly {
		return
	}
	r.rDateTimes = sortUnique(slices.Clone(times))
	for key := range r.rDateTimePeriods {
		if !containsTime(r.rDateTimes, time.Unix(0, key)) {
			delete(r.rDateTimePeriods, key)
		}
	}
	r.updated()
}

// AddRDateTime adds one explicit inclusion instant.
func (r *Recurrence) AddRDateTime(t time.Time) {
	if r.readOnly {
		return
	}
	r.rDateTimes = insertSorted(r.rDateTimes, t)
	r.updated()
}

// AddRDateTimePeriod adds an explicit inclusion instant together with its
// period. The period is retrievable by the exact start instant and carried
// for round-trip fidelity only.
func (r *Recurrence) AddRDateTimePeriod(p Period) {
	if r.readOnly {
		return
	}
	r.rDateTimes = insertSorted(r.rDateTimes, p.Start)
	if r.rDateTimePeriods == nil {
		r.rDateTimePeriods = make(map[int64]Period)
	}
	r.rDateTimePeriods[p.Start.UnixNano()] = p
	r.updated()
}

// RDateTimePeriod returns the period associated with the given inclusion
// start instant, if any.
func (r *Recurrence) RDateTimePeriod(start time.Time) mo.Option[Period] {
	if p, ok := r.rDateTimePeriods[start.UnixNano()]; ok {
		return mo.Some(p)
	}
	return mo.None[Period]()
}

// ExDates returns the explicit exclusion dates, ascending.
func (r *Recurrence) ExDates() []time.Time { return slices.Clone(r.exDates) }

// SetExDates replaces the explicit exclusion dates.
func (r *Recurrence) SetExDates(dates []time.Time) {
	if r.readOnly {
		return
	}
	r.exDates = r.exDates[:0]
	for _, d := range dates {
		r.exDates = insertSorted(r.exDates, r.dateKey(d))
	}
	r.updated()
}

// AddExDate adds one explicit exclusion date; it removes every occurrence
// on that date regardless of time.
func (r *Recurrence) AddExDate(date time.Time) {
	if r.readOnly {
		return
	}
	r.exDates = insertSorted(r.exDates, r.dateKey(date))
	r.updated()
}

// ExDateTimes returns the explicit exclusion instants, ascending.
func (r *Recurrence) ExDateTimes() []time.Time { return slices.Clone(r.exDateTimes) }

// SetExDateTimes replaces the explicit exclusion instants.
func (r *Recurrence) SetExDateTimes(times []time.Time) {
	if r.readOnly {
		return
	}
	r.exDateTimes = sortUnique(slices.Clone(times))
	r.updated()
}

// AddExDateTime adds one explicit exclusion instant.
func (r *Recurrence) AddExDateTime(t time.Time) {
	if r.readOnly {
		return
	}
	r.exDateTimes = insertSorted(r.exDateTimes, t)
	r.updated()
}

// containsExDate reports whether the civil date carried by t is an EXDATE.
func (r *Recurrence) containsExDate(t time.Time) bool {
	return containsTime(r.exDates, r.dateKey(t))
}

func (r *Recurrence) containsRDate(t time.Time) bool {
	return containsTime(r.rDates, r.dateKey(t))
}

// rdateInstant is the occurrence instant an explicit inclusion date stands
// for: the start of that day in the recurrence's zone.
func (r *Recurrence) rdateInstant(date time.Time) time.Time {
	return r.dateKey(date)
}

// RecursOn reports whether anything recurs on the civil date of day as
// observed in loc, taking every exclusion into account.
func (r *Recurrence) RecursOn(day time.Time, loc *time.Location) bool {
	y, m, d := day.Date()
	dayStart := time.Date(y, m, d, 0, 0, 0, 0, loc)
	if !r.start.IsZero() && dayStart.AddDate(0, 0, 1).Add(-time.Second).Before(r.start) {
		return false
	}
	if r.containsExDate(dayStart) {
		return false
	}
	// A matching exclusion rule wipes the whole day of an all-day
	// recurrence; timed recurrences only lose the matched instants.
	if r.allDay {
		for _, rule := range r.exRules {
			if rule.RecursOn(dayStart, loc) {
				return false
			}
		}
	}

	recurs := r.startsOn(dayStart, loc) || r.containsRDate(dayStart)
	for i := 0; !recurs && i < len(r.rDateTimes); i++ {
		recurs = dateutil.SameDate(r.rDateTimes[i].In(loc), dayStart)
	}
	for i := 0; !recurs && i < len(r.rRules); i++ {
		recurs = r.rRules[i].RecursOn(dayStart, loc)
	}
	if !recurs {
		return false
	}

	// Check whether any instant on that day is excluded; only then is the
	// expensive included-minus-excluded set needed.
	exOn := false
	for i := 0; !exOn && i < len(r.exDateTimes); i++ {
		exOn = dateutil.SameDate(r.exDateTimes[i].In(loc), dayStart)
	}
	if !r.allDay {
		for i := 0; !exOn && i < len(r.exRules); i++ {
			exOn = r.exRules[i].RecursOn(dayStart, loc)
		}
	}
	if !exOn {
		return true
	}
	return len(r.RecurTimesOn(dayStart, loc)) > 0
}

func (r *Recurrence) startsOn(dayStart time.Time, loc *time.Location) bool {
	if r.start.IsZero() {
		return false
	}
	if r.allDay {
		return dateutil.SameDate(r.start, dayStart)
	}
	return dateutil.SameDate(r.start.In(loc), dayStart)
}

// RecursAt reports whether an occurrence exists at exactly t.
func (r *Recurrence) RecursAt(t time.Time) bool {
	dt := t.In(r.loc())
	if containsTime(r.exDateTimes, dt) || r.containsExDate(dt) {
		return false
	}
	for _, rule := range r.exRules {
		if rule.RecursAt(dt) {
			return false
		}
	}
	if (!r.start.IsZero() && r.start.Equal(dt)) || containsTime(r.rDateTimes, dt) {
		return true
	}
	if r.allDay && r.containsRDate(dt) {
		return true
	}
	for _, rule := range r.rRules {
		if rule.RecursAt(dt) {
			return true
		}
	}
	return false
}

// RecurTimesOn returns the surviving occurrence instants on the civil date
// of day as observed in loc: everything the start, RDATEs and rules produce
// on that date, minus everything the EXDATE-times and exclusion rules
// produce, sorted ascending.
func (r *Recurrence) RecurTimesOn(day time.Time, loc *time.Location) []time.Time {
	y, m, d := day.Date()
	dayStart := time.Date(y, m, d, 0, 0, 0, 0, loc)
	dayLast := dayStart.AddDate(0, 0, 1).Add(-time.Second)
	if !r.start.IsZero() && dayLast.Before(r.start) {
		return nil
	}
	if r.containsExDate(dayStart) {
		return nil
	}
	if r.allDay {
		for _, rule := range r.exRules {
			if rule.RecursOn(dayStart, loc) {
				return nil
			}
		}
	}

	var times []time.Time
	if r.startsOn(dayStart, loc) {
		times = append(times, r.start)
	}
	for _, t := range r.rDateTimes {
		if dateutil.SameDate(t.In(loc), dayStart) {
			times = append(times, t)
		}
	}
	if r.containsRDate(dayStart) {
		times = append(times, r.rdateInstant(dayStart))
	}
	for _, rule := range r.rRules {
		times = append(times, rule.TimesInInterval(dayStart, dayLast)...)
	}
	times = sortUnique(times)

	var ex []time.Time
	for _, t := range r.exDateTimes {
		if dateutil.SameDate(t.In(loc), dayStart) {
			ex = append(ex, t)
		}
	}
	if !r.allDay {
		for _, rule := range r.exRules {
			ex = append(ex, rule.TimesInInterval(dayStart, dayLast)...)
		}
	}
	for _, t := range ex {
		times = removeSorted(times, t)
	}
	return times
}

// TimesInInterval returns every occurrence in [start, end], both ends
// inclusive: the union of the start instant, explicit inclusions and rule
// occurrences, minus explicit exclusions and exclusion-rule occurrences,
// sorted ascending and duplicate-free.
func (r *Recurrence) TimesInInterval(start, end time.Time) []time.Time {
	var times []time.Time
	for _, rule := range r.rRules {
		times = append(times, rule.TimesInInterval(start, end)...)
	}
	for _, t := range r.rDateTimes {
		if !t.Before(start) && !t.After(end) {
			times = append(times, t)
		}
	}
	for _, d := range r.rDates {
		if inst := r.rdateInstant(d); !inst.Before(start) && !inst.After(end) {
			times = append(times, inst)
		}
	}
	if !r.start.IsZero() && !r.start.Before(start) && !r.start.After(end) {
		times = append(times, r.start)
	}
	times = sortUnique(times)

	times = slices.DeleteFunc(times, func(t time.Time) bool {
		return r.containsExDate(t.In(r.loc()))
	})

	var ex []time.Time
	for _, rule := range r.exRules {
		ex = append(ex, rule.TimesInInterval(start, end)...)
	}
	ex = append(ex, r.exDateTimes...)
	ex = sortUnique(ex)
	for _, t := range ex {
		times = removeSorted(times, t)
	}
	return times
}

// GetNextDateTime returns the first occurrence strictly after the given
// instant, or None when none exists within the search ceiling. Candidates
// proposed by the start, the explicit inclusions and each rule are taken
// nearest-first and tested against the exclusions; a pathological exclusion
// rule cancelling every inclusion terminates at the ceiling with None.
func (r *Recurrence) GetNextDateTime(after time.Time) mo.Option[time.Time] {
	nextDT := after
	for loop := 0; loop < r.limits.CandidateLoop; loop++ {
		var candidates []time.Time
		if !r.start.IsZero() && nextDT.Before(r.start) {
			candidates = append(candidates, r.start)
		}
		if i := firstAfter(r.rDateTimes, nextDT); i < len(r.rDateTimes) {
			candidates = append(candidates, r.rDateTimes[i])
		}
		for _, d := range r.rDates {
			if inst := r.rdateInstant(d); inst.After(nextDT) {
				candidates = append(candidates, inst)
				break
			}
		}
		for _, rule := range r.rRules {
			if t, ok := rule.NextDate(nextDT).Get(); ok {
				candidates = append(candidates, t)
			}
		}
		if len(candidates) == 0 {
			return mo.None[time.Time]()
		}
		nextDT = slices.MinFunc(candidates, cmpTimes)

		if !r.containsExDate(nextDT.In(r.loc())) && !containsTime(r.exDateTimes, nextDT) {
			allowed := true
			for _, rule := range r.exRules {
				if rule.RecursAt(nextDT) {
					allowed = false
					break
				}
			}
			if allowed {
				return mo.Some(nextDT)
			}
		}
	}
	r.debug("next-occurrence search hit candidate ceiling", "after", after)
	return mo.None[time.Time]()
}

// GetPreviousDateTime returns the last occurrence strictly before the given
// instant, or None when none exists within the search ceiling.
func (r *Recurrence) GetPreviousDateTime(before time.Time) mo.Option[time.Time] {
	prevDT := before
	for loop := 0; loop < r.limits.CandidateLoop; loop++ {
		var candidates []time.Time
		if !r.start.IsZero() && prevDT.After(r.start) {
			candidates = append(candidates, r.start)
		}
		if i := lastBefore(r.rDateTimes, prevDT); i >= 0 {
			candidates = append(candidates, r.rDateTimes[i])
		}
		for i := len(r.rDates) - 1; i >= 0; i-- {
			if inst := r.rdateInstant(r.rDates[i]); inst.Before(prevDT) {
				candidates = append(candidates, inst)
				break
			}
		}
		for _, rule := range r.rRules {
			if t, ok := rule.PreviousDate(prevDT).Get(); ok {
				candidates = append(candidates, t)
			}
		}
		if len(candidates) == 0 {
			return mo.None[time.Time]()
		}
		prevDT = slices.MaxFunc(candidates, cmpTimes)

		if !r.containsExDate(prevDT.In(r.loc())) && !containsTime(r.exDateTimes, prevDT) {
			allowed := true
			for _, rule := range r.exRules {
				if rule.RecursAt(prevDT) {
					allowed = false
					break
				}
			}
			if allowed {
				return mo.Some(prevDT)
			}
		}
	}
	r.debug("previous-occurrence search hit candidate ceiling", "before", before)
	return mo.None[time.Time]()
}

// EndDateTime returns the last instant of the whole recurrence set: the
// latest of the start, the explicit inclusions and every inclusion rule's
// own end. It is None when any inclusion rule is unbounded (or its end is
// unknowable within the search ceiling), even if everything else is finite.
func (r *Recurrence) EndDateTime() mo.Option[time.Time] {
	if r.start.IsZero() {
		return mo.None[time.Time]()
	}
	last := r.start
	if n := len(r.rDates); n > 0 {
		if inst := r.rdateInstant(r.rDates[n-1]); inst.After(last) {
			last = inst
		}
	}
	if n := len(r.rDateTimes); n > 0 && r.rDateTimes[n-1].After(last) {
		last = r.rDateTimes[n-1]
	}
	for _, rule := range r.rRules {
		e, ok := rule.End().Get()
		if !ok {
			return mo.None[time.Time]()
		}
		if e.After(last) {
			last = e
		}
	}
	return mo.Some(last)
}

// EndDate returns the civil date of EndDateTime in the recurrence's zone.
func (r *Recurrence) EndDate() mo.Option[time.Time] {
	return r.EndDateTime().Map(func(t time.Time) (time.Time, bool) {
		return dateutil.CivilUTC(t.In(r.loc())), true
	})
}

// DurationTo returns the default rule's occurrence count at or before t.
func (r *Recurrence) DurationTo(t time.Time) int {
	if rule := r.defaultRuleConst(); rule != nil {
		return rule.DurationTo(t)
	}
	return 0
}

// ShiftTimes re-expresses the whole recurrence set in newLoc, keeping the
// civil fields of every stored instant as observed in oldLoc. Used when an
// incidence moves between zones.
func (r *Recurrence) ShiftTimes(oldLoc, newLoc *time.Location) {
	if r.readOnly {
		return
	}
	r.start = shiftTime(r.start, oldLoc, newLoc)
	for i := range r.rDateTimes {
		r.rDateTimes[i] = shiftTime(r.rDateTimes[i], oldLoc, newLoc)
	}
	for i := range r.exDateTimes {
		r.exDateTimes[i] = shiftTime(r.exDateTimes[i], oldLoc, newLoc)
	}
	for i := range r.rDates {
		r.rDates[i] = shiftTime(r.rDates[i], oldLoc, newLoc)
	}
	for i := range r.exDates {
		r.exDates[i] = shiftTime(r.exDates[i], oldLoc, newLoc)
	}
	for _, rule := range r.rRules {
		rule.ShiftTimes(oldLoc, newLoc)
	}
	for _, rule := range r.exRules {
		rule.ShiftTimes(oldLoc, newLoc)
	}
	r.updated()
}

// Clone returns a deep copy with no observers attached.
func (r *Recurrence) Clone() *Recurrence {
	nr := NewRecurrence()
	nr.start = r.start
	nr.allDay = r.allDay
	nr.limits = r.limits
	nr.logger = r.logger
	for _, rule := range r.rRules {
		nr.AddRRule(rule.Clone())
	}
	for _, rule := range r.exRules {
		nr.AddExRule(rule.Clone())
	}
	nr.rDates = slices.Clone(r.rDates)
	nr.rDateTimes = slices.Clone(r.rDateTimes)
	nr.exDates = slices.Clone(r.exDates)
	nr.exDateTimes = slices.Clone(r.exDateTimes)
	if len(r.rDateTimePeriods) > 0 {
		nr.rDateTimePeriods = make(map[int64]Period, len(r.rDateTimePeriods))
		for k, v := range r.rDateTimePeriods {
			nr.rDateTimePeriods[k] = v
		}
	}
	return nr
}

// Equal compares two recurrence sets field by field, ignoring caches,
// read-only state and observers.
func (r *Recurrence) Equal(other *Recurrence) bool {
	if r == nil || other == nil {
		return r == other
	}
	if !r.start.Equal(other.start) || r.allDay != other.allDay {
		return false
	}
	eqRules := func(a, b []*Rule) bool {
		return slices.EqualFunc(a, b, func(x, y *Rule) bool { return x.Equal(y) })
	}
	eqTimes := func(a, b []time.Time) bool {
		return slices.EqualFunc(a, b, func(x, y time.Time) bool { return x.Equal(y) })
	}
	if len(r.rDateTimePeriods) != len(other.rDateTimePeriods) {
		return false
	}
	for key, p := range r.rDateTimePeriods {
		op, ok := other.rDateTimePeriods[key]
		if !ok || !p.Start.Equal(op.Start) || !p.End.Equal(op.End) {
			return false
		}
	}
	return eqRules(r.rRules, other.rRules) &&
		eqRules(r.exRules, other.exRules) &&
		eqTimes(r.rDates, other.rDates) &&
		eqTimes(r.rDateTimes, other.rDateTimes) &&
		eqTimes(r.exDates, other.exDates) &&
		eqTimes(r.exDateTimes, other.exDateTimes)
}
