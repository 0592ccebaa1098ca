package recurrence

import (
	"time"
)

// The methods in this file form the single-rule convenience surface: most
// calendar entries carry at most one inclusion rule, and callers that only
// ever need "every N weeks on Tuesday" should not have to assemble Rule
// values by hand. They all operate on the default rule, the first inclusion
// rule of the set.

// defaultRuleConst returns the first inclusion rule, or nil.
func (r *Recurrence) defaultRuleConst() *Rule {
	if len(r.rRules) == 0 {
		return nil
	}
	return r.rRules[0]
}

// defaultRule returns the first inclusion rule, creating an unbounded one
// inheriting the recurrence's start when create is set and none exists.
func (r *Recurrence) defaultRule(create bool) *Rule {
	if rule := r.defaultRuleConst(); rule != nil {
		return rule
	}
	if !create || r.readOnly {
		return nil
	}
	rule := NewRule()
	rule.SetStart(r.start)
	rule.SetDuration(-1)
	r.AddRRule(rule)
	return rule
}

// setNewRecurrenceType drops every inclusion rule and installs a fresh
// unbounded default rule with the given period and frequency. Exclusion
// rules and all explicit dates are kept.
func (r *Recurrence) setNewRecurrenceType(period PeriodType, freq int) *Rule {
	if r.readOnly {
		return nil
	}
	for _, rule := range r.rRules {
		rule.onChange = nil
	}
	r.rRules = nil
	rule := NewRule()
	rule.SetStart(r.start)
	rule.SetPeriod(period)
	rule.SetFrequency(freq)
	rule.SetDuration(-1)
	r.AddRRule(rule)
	return rule
}

// Frequency returns the default rule's interval, or 0 without one.
func (r *Recurrence) Frequency() int {
	if rule := r.defaultRuleConst(); rule != nil {
		return rule.Frequency()
	}
	return 0
}

// SetFrequency sets the default rule's interval, creating the rule if
// needed.
func (r *Recurrence) SetFrequency(freq int) {
	if rule := r.defaultRule(true); rule != nil {
		rule.SetFrequency(freq)
	}
}

// Duration returns the default rule's occurrence count: -1 unbounded, 0
// bounded by an end instant, otherwise the count. Without a rule it is 0.
func (r *Recurrence) Duration() int {
	if rule := r.defaultRuleConst(); rule != nil {
		return rule.Duration()
	}
	return 0
}

// SetDuration sets the default rule's occurrence count. Passing 0 is
// rejected by the rule; use SetEndDateTime instead.
func (r *Recurrence) SetDuration(duration int) {
	if rule := r.defaultRule(true); rule != nil {
		rule.SetDuration(duration)
	}
}

// SetEndDateTime bounds the default rule by a last possible instant.
func (r *Recurrence) SetEndDateTime(end time.Time) {
	rule := r.defaultRule(true)
	if rule == nil {
		return
	}
	rule.SetDuration(-1)
	rule.SetEnd(end)
}

// SetEndDate bounds the default rule by a last possible civil date. For
// all-day recurrences the bound is the end of that day.
func (r *Recurrence) SetEndDate(end time.Time) {
	y, m, d := end.Date()
	if r.allDay {
		r.SetEndDateTime(time.Date(y, m, d, 23, 59, 59, 0, r.loc()))
		return
	}
	// Keep the start's time of day on the final date.
	s := r.start
	r.SetEndDateTime(time.Date(y, m, d, s.Hour(), s.Minute(), s.Second(), 0, r.loc()))
}

// SetSecondly installs a new every-freq-seconds default rule.
func (r *Recurrence) SetSecondly(freq int) { r.setNewRecurrenceType(PeriodSecondly, freq) }

// SetMinutely installs a new every-freq-minutes default rule.
func (r *Recurrence) SetMinutely(freq int) { r.setNewRecurrenceType(PeriodMinutely, freq) }

// SetHourly installs a new every-freq-hours default rule.
func (r *Recurrence) SetHourly(freq int) { r.setNewRecurrenceType(PeriodHourly, freq) }

// SetDaily installs a new every-freq-days default rule.
func (r *Recurrence) SetDaily(freq int) { r.setNewRecurrenceType(PeriodDaily, freq) }

// SetWeekly installs a new every-freq-weeks default rule with the given
// week start (1=Monday .. 7=Sunday).
func (r *Recurrence) SetWeekly(freq, weekStart int) {
	if rule := r.setNewRecurrenceType(PeriodWeekly, freq); rule != nil {
		rule.SetWeekStart(weekStart)
	}
}

// SetMonthly installs a new every-freq-months default rule.
func (r *Recurrence) SetMonthly(freq int) { r.setNewRecurrenceType(PeriodMonthly, freq) }

// SetYearly installs a new every-freq-years default rule.
func (r *Recurrence) SetYearly(freq int) { r.setNewRecurrenceType(PeriodYearly, freq) }

// AddWeeklyDays adds weekdays (1=Monday .. 7=Sunday) to the default rule's
// weekday list. Only meaningful for a weekly rule.
func (r *Recurrence) AddWeeklyDays(days ...int) {
	rule := r.defaultRule(true)
	if rule == nil {
		return
	}
	got := rule.ByDays()
	for _, d := range days {
		got = append(got, WDayPos{Day: d})
	}
	rule.SetByDays(got)
}

// AddMonthlyPos adds a positioned weekday (e.g. pos 2, Monday for "the
// second Monday") to a monthly default rule. Ignored unless the default
// rule is monthly.
func (r *Recurrence) AddMonthlyPos(pos int, days ...int) {
	rule := r.defaultRuleConst()
	if rule == nil || rule.Period() != PeriodMonthly {
		return
	}
	got := rule.ByDays()
	for _, d := range days {
		got = append(got, WDayPos{Day: d, Pos: pos})
	}
	rule.SetByDays(got)
}

// AddMonthlyDate adds a day of the month (negative counts from the end) to
// a monthly default rule.
func (r *Recurrence) AddMonthlyDate(day int) {
	rule := r.defaultRuleConst()
	if rule == nil || rule.Period() != PeriodMonthly {
		return
	}
	rule.SetByMonthDays(append(rule.ByMonthDays(), day))
}

// AddYearlyDay adds a day of the year (negative counts from the end) to a
// yearly default rule.
func (r *Recurrence) AddYearlyDay(day int) {
	rule := r.defaultRuleConst()
	if rule == nil || rule.Period() != PeriodYearly {
		return
	}
	rule.SetByYearDays(append(rule.ByYearDays(), day))
}

// AddYearlyDate adds a day of the month to a yearly default rule; combine
// with AddYearlyMonth to pin the month.
func (r *Recurrence) AddYearlyDate(day int) {
	rule := r.defaultRuleConst()
	if rule == nil || rule.Period() != PeriodYearly {
		return
	}
	rule.SetByMonthDays(append(rule.ByMonthDays(), day))
}

// AddYearlyMonth adds a month (1..12) to a yearly default rule.
func (r *Recurrence) AddYearlyMonth(month int) {
	rule := r.defaultRuleConst()
	if rule == nil || rule.Period() != PeriodYearly {
		return
	}
	rule.SetByMonths(append(rule.ByMonths(), month))
}

// AddYearlyPos adds a positioned weekday to a yearly default rule; the
// position counts within the months added via AddYearlyMonth.
func (r *Recurrence) AddYearlyPos(pos int, days ...int) {
	rule := r.defaultRuleConst()
	if rule == nil || rule.Period() != PeriodYearly {
		return
	}
	got := rule.ByDays()
	for _, d := range days {
		got = append(got, WDayPos{Day: d, Pos: pos})
	}
	rule.SetByDays(got)
}

// MonthPositions returns the positioned weekdays of the default rule.
func (r *Recurrence) MonthPositions() []WDayPos {
	if rule := r.defaultRuleConst(); rule != nil {
		return rule.ByDays()
	}
	return nil
}

// MonthDays returns the month-day list of the default rule.
func (r *Recurrence) MonthDays() []int {
	if rule := r.defaultRuleConst(); rule != nil {
		return rule.ByMonthDays()
	}
	return nil
}

// YearDays returns the year-day list of the default rule.
func (r *Recurrence) YearDays() []int {
	if rule := r.defaultRuleConst(); rule != nil {
		return rule.ByYearDays()
	}
	return nil
}

// YearDates returns the day-of-month list of a yearly default rule.
func (r *Recurrence) YearDates() []int { return r.MonthDays() }

// YearMonths returns the month list of the default rule.
func (r *Recurrence) YearMonths() []int {
	if rule := r.defaultRuleConst(); rule != nil {
		return rule.ByMonths()
	}
	return nil
}

// WeeklyDays returns the weekdays (1=Monday .. 7=Sunday) of the default
// rule, ignoring positions.
func (r *Recurrence) WeeklyDays() []int {
	rule := r.defaultRuleConst()
	if rule == nil {
		return nil
	}
	var days []int
	for _, wp := range rule.ByDays() {
		days = append(days, wp.Day)
	}
	return days
}

// RecurrenceType classifies the default rule into the coarse legacy
// categories; a rule mixing constraints beyond one category is TypeOther.
func (r *Recurrence) RecurrenceType() Type {
	return RuleType(r.defaultRuleConst())
}

// RuleType classifies a single rule. Any BYSETPOS, BYWEEKNO, BYHOUR,
// BYMINUTE or BYSECOND constraint makes it TypeOther, as does a secondly
// period.
func RuleType(rule *Rule) Type {
	if rule == nil {
		return TypeNone
	}
	if len(rule.BySetPos()) > 0 || len(rule.ByWeekNumbers()) > 0 ||
		len(rule.ByHours()) > 0 || len(rule.ByMinutes()) > 0 || len(rule.BySeconds()) > 0 {
		return TypeOther
	}
	switch rule.Period() {
	case PeriodMinutely:
		return TypeMinutely
	case PeriodHourly:
		return TypeHourly
	case PeriodDaily:
		return TypeDaily
	case PeriodWeekly:
		return TypeWeekly
	case PeriodMonthly:
		switch {
		case len(rule.ByDays()) > 0 && len(rule.ByMonthDays()) > 0:
			return TypeOther
		case len(rule.ByDays()) > 0:
			return TypeMonthlyPos
		default:
			return TypeMonthlyDay
		}
	case PeriodYearly:
		switch {
		case len(rule.ByDays()) > 0:
			if len(rule.ByYearDays()) == 0 && len(rule.ByMonthDays()) == 0 {
				return TypeYearlyPos
			}
			return TypeOther
		case len(rule.ByYearDays()) > 0:
			if len(rule.ByMonths()) == 0 && len(rule.ByMonthDays()) == 0 {
				return TypeYearlyDay
			}
			return TypeOther
		default:
			return TypeYearlyMonth
		}
	default:
		return TypeOther
	}
}
