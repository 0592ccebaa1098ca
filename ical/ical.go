// Package ical converts between iCalendar components and recurrence sets.
// It leans on go-ical for property access and on rrule-go for RRULE text
// parsing; the evaluation semantics live entirely in the recurrence
// package.
package ical

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	goical "github.com/emersion/go-ical"
	rrule "github.com/teambition/rrule-go"

	"github.com/cyp0633/librecur/recurrence"
)

// PropExceptionRule is the deprecated RFC 2445 EXRULE property name, which
// go-ical has no constant for.
const PropExceptionRule = "EXRULE"

var rruleWeekdays = [...]rrule.Weekday{
	rrule.MO, rrule.TU, rrule.WE, rrule.TH, rrule.FR, rrule.SA, rrule.SU,
}

// FromComponent builds a recurrence set from a component's DTSTART, RRULE,
// EXRULE, RDATE and EXDATE properties. Floating date-times are interpreted
// in loc (pass nil for UTC). A component without DTSTART yields an error;
// one without recurrence properties yields a valid non-recurring set.
func FromComponent(comp *goical.Component, loc *time.Location) (*recurrence.Recurrence, error) {
	if loc == nil {
		loc = time.UTC
	}
	dtstart := comp.Props.Get(goical.PropDateTimeStart)
	if dtstart == nil || dtstart.Value == "" {
		return nil, fmt.Errorf("component %s has no DTSTART", comp.Name)
	}
	start, dateOnly, err := parseDateTime(dtstart.Value, dtstart.Params, loc)
	if err != nil {
		return nil, fmt.Errorf("parse DTSTART %q: %w", dtstart.Value, err)
	}

	rec := recurrence.NewRecurrence()
	rec.SetStart(start, dateOnly)

	if prop := comp.Props.Get(goical.PropRecurrenceRule); prop != nil && prop.Value != "" {
		rule, err := ParseRule(prop.Value, start, dateOnly)
		if err != nil {
			return nil, err
		}
		rec.AddRRule(rule)
	}
	if prop := comp.Props.Get(PropExceptionRule); prop != nil && prop.Value != "" {
		rule, err := ParseRule(prop.Value, start, dateOnly)
		if err != nil {
			return nil, err
		}
		rec.AddExRule(rule)
	}

	for _, prop := range comp.Props.Values(goical.PropRecurrenceDates) {
		if err := addRecurrenceDates(rec, prop, loc); err != nil {
			return nil, err
		}
	}
	for _, prop := range comp.Props.Values(goical.PropExceptionDates) {
		times, dateOnly, err := parseDateTimeList(prop.Value, prop.Params, loc)
		if err != nil {
			return nil, fmt.Errorf("parse EXDATE %q: %w", prop.Value, err)
		}
		for _, t := range times {
			if dateOnly {
				rec.AddExDate(t)
			} else {
				rec.AddExDateTime(t)
			}
		}
	}
	return rec, nil
}

// ParseRule parses RRULE text (the part after "RRULE:") into a rule
// anchored at start. The verbatim text is retained and reproduced by
// RuleText.
func ParseRule(text string, start time.Time, allDay bool) (*recurrence.Rule, error) {
	opt, err := rrule.StrToROption(text)
	if err != nil {
		return nil, fmt.Errorf("parse rule %q: %w", text, err)
	}
	rule, err := RuleFromROption(opt, start, allDay)
	if err != nil {
		return nil, err
	}
	rule.SetRRuleText(text)
	return rule, nil
}

// RuleFromROption maps a parsed rrule-go option set onto a rule anchored
// at start.
func RuleFromROption(opt *rrule.ROption, start time.Time, allDay bool) (*recurrence.Rule, error) {
	rule := recurrence.NewRule()
	rule.SetStart(start)
	rule.SetAllDay(allDay)

	switch opt.Freq {
	case rrule.YEARLY:
		rule.SetPeriod(recurrence.PeriodYearly)
	case rrule.MONTHLY:
		rule.SetPeriod(recurrence.PeriodMonthly)
	case rrule.WEEKLY:
		rule.SetPeriod(recurrence.PeriodWeekly)
	case rrule.DAILY:
		rule.SetPeriod(recurrence.PeriodDaily)
	case rrule.HOURLY:
		rule.SetPeriod(recurrence.PeriodHourly)
	case rrule.MINUTELY:
		rule.SetPeriod(recurrence.PeriodMinutely)
	case rrule.SECONDLY:
		rule.SetPeriod(recurrence.PeriodSecondly)
	default:
		return nil, fmt.Errorf("unsupported FREQ %v", opt.Freq)
	}
	if opt.Interval > 0 {
		rule.SetFrequency(opt.Interval)
	}
	rule.SetWeekStart(opt.Wkst.Day() + 1)

	if opt.Count > 0 {
		if err := rule.SetDuration(opt.Count); err != nil {
			return nil, err
		}
	} else if !opt.Until.IsZero() {
		if err := rule.SetEnd(opt.Until); err != nil {
			return nil, err
		}
	}

	var byDays []recurrence.WDayPos
	for _, wd := range opt.Byweekday {
		byDays = append(byDays, recurrence.WDayPos{Day: wd.Day() + 1, Pos: wd.N()})
	}
	rule.SetByDays(byDays)
	rule.SetByMonths(opt.Bymonth)
	rule.SetByMonthDays(opt.Bymonthday)
	rule.SetByYearDays(opt.Byyearday)
	rule.SetByWeekNumbers(opt.Byweekno)
	rule.SetByHours(opt.Byhour)
	rule.SetByMinutes(opt.Byminute)
	rule.SetBySeconds(opt.Bysecond)
	rule.SetBySetPos(opt.Bysetpos)
	return rule, nil
}

// RuleText renders a rule as RRULE text. Rules that were parsed reproduce
// their original text byte for byte; hand-built rules are rendered from
// their fields.
func RuleText(rule *recurrence.Rule) string {
	if text := rule.RRuleText(); text != "" {
		return text
	}
	opt := rrule.ROption{Interval: rule.Frequency()}
	switch rule.Period() {
	case recurrence.PeriodYearly:
		opt.Freq = rrule.YEARLY
	case recurrence.PeriodMonthly:
		opt.Freq = rrule.MONTHLY
	case recurrence.PeriodWeekly:
		opt.Freq = rrule.WEEKLY
	case recurrence.PeriodDaily:
		opt.Freq = rrule.DAILY
	case recurrence.PeriodHourly:
		opt.Freq = rrule.HOURLY
	case recurrence.PeriodMinutely:
		opt.Freq = rrule.MINUTELY
	case recurrence.PeriodSecondly:
		opt.Freq = rrule.SECONDLY
	}
	opt.Wkst = rruleWeekdays[rule.WeekStart()-1]
	switch d := rule.Duration(); {
	case d > 0:
		opt.Count = d
	case d == 0:
		if until, ok := rule.End().Get(); ok {
			opt.Until = until.UTC()
		}
	}
	for _, wp := range rule.ByDays() {
		wd := rruleWeekdays[wp.Day-1]
		if wp.Pos != 0 {
			wd = wd.Nth(wp.Pos)
		}
		opt.Byweekday = append(opt.Byweekday, wd)
	}
	opt.Bymonth = rule.ByMonths()
	opt.Bymonthday = rule.ByMonthDays()
	opt.Byyearday = rule.ByYearDays()
	opt.Byweekno = rule.ByWeekNumbers()
	opt.Byhour = rule.ByHours()
	opt.Byminute = rule.ByMinutes()
	opt.Bysecond = rule.BySeconds()
	opt.Bysetpos = rule.BySetPos()
	return opt.RRuleString()
}

// ApplyToComponent writes the recurrence properties of rec onto comp,
// replacing any existing RRULE, EXRULE, RDATE and EXDATE. DTSTART is left
// alone; it belongs to the component, not to the recurrence set.
func ApplyToComponent(rec *recurrence.Recurrence, comp *goical.Component) {
	comp.Props.Del(goical.PropRecurrenceRule)
	comp.Props.Del(PropExceptionRule)
	comp.Props.Del(goical.PropRecurrenceDates)
	comp.Props.Del(goical.PropExceptionDates)

	for _, rule := range rec.RRules() {
		comp.Props.Add(&goical.Prop{Name: goical.PropRecurrenceRule, Value: RuleText(rule)})
	}
	for _, rule := range rec.ExRules() {
		comp.Props.Add(&goical.Prop{Name: PropExceptionRule, Value: RuleText(rule)})
	}
	if dates := rec.RDates(); len(dates) > 0 {
		comp.Props.Add(dateListProp(goical.PropRecurrenceDates, dates, true))
	}
	if times := rec.RDateTimes(); len(times) > 0 {
		comp.Props.Add(dateListProp(goical.PropRecurrenceDates, times, false))
	}
	if dates := rec.ExDates(); len(dates) > 0 {
		comp.Props.Add(dateListProp(goical.PropExceptionDates, dates, true))
	}
	if times := rec.ExDateTimes(); len(times) > 0 {
		comp.Props.Add(dateListProp(goical.PropExceptionDates, times, false))
	}
}

func dateListProp(name string, times []time.Time, dateOnly bool) *goical.Prop {
	vals := make([]string, len(times))
	for i, t := range times {
		if dateOnly {
			vals[i] = t.Format("20060102")
		} else {
			vals[i] = t.UTC().Format("20060102T150405Z")
		}
	}
	prop := &goical.Prop{Name: name, Value: strings.Join(vals, ","), Params: goical.Params{}}
	if dateOnly {
		prop.Params.Set(goical.ParamValue, string(goical.ValueDate))
	}
	return prop
}

// addRecurrenceDates folds one RDATE property into rec, handling the
// DATE, DATE-TIME and PERIOD value forms.
func addRecurrenceDates(rec *recurrence.Recurrence, prop goical.Prop, loc *time.Location) error {
	if valueParam(prop.Params) == "PERIOD" {
		for _, part := range splitList(prop.Value) {
			p, err := parsePeriod(part, loc)
			if err != nil {
				return fmt.Errorf("parse RDATE period %q: %w", part, err)
			}
			rec.AddRDateTimePeriod(p)
		}
		return nil
	}
	times, dateOnly, err := parseDateTimeList(prop.Value, prop.Params, loc)
	if err != nil {
		return fmt.Errorf("parse RDATE %q: %w", prop.Value, err)
	}
	for _, t := range times {
		if dateOnly {
			rec.AddRDate(t)
		} else {
			rec.AddRDateTime(t)
		}
	}
	return nil
}

func valueParam(params goical.Params) string {
	if params == nil {
		return ""
	}
	return strings.ToUpper(params.Get(goical.ParamValue))
}

func splitList(value string) []string {
	var parts []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			parts = append(parts, part)
		}
	}
	return parts
}

// parseDateTimeList parses a comma separated DATE or DATE-TIME list. The
// returned flag reports whether the values were dates.
func parseDateTimeList(value string, params goical.Params, loc *time.Location) ([]time.Time, bool, error) {
	var times []time.Time
	dateOnly := false
	for _, part := range splitList(value) {
		t, isDate, err := parseDateTime(part, params, loc)
		if err != nil {
			return nil, false, err
		}
		times = append(times, t)
		dateOnly = isDate
	}
	return times, dateOnly, nil
}

// parseDateTime parses one iCalendar DATE or DATE-TIME value, honoring the
// VALUE and TZID parameters. The second result reports a date-only value.
func parseDateTime(value string, params goical.Params, loc *time.Location) (time.Time, bool, error) {
	if tzid := params.Get("TZID"); tzid != "" {
		tzloc, err := time.LoadLocation(tzid)
		if err != nil {
			return time.Time{}, false, fmt.Errorf("unknown TZID %q: %w", tzid, err)
		}
		loc = tzloc
	}
	if valueParam(params) == "DATE" || len(value) == 8 {
		t, err := time.ParseInLocation("20060102", value, loc)
		return t, true, err
	}
	if strings.HasSuffix(value, "Z") {
		t, err := time.Parse("20060102T150405Z", value)
		return t, false, err
	}
	t, err := time.ParseInLocation("20060102T150405", value, loc)
	return t, false, err
}

// parsePeriod parses an explicit period, either "start/end" or
// "start/duration".
func parsePeriod(value string, loc *time.Location) (recurrence.Period, error) {
	startStr, rest, ok := strings.Cut(value, "/")
	if !ok {
		return recurrence.Period{}, fmt.Errorf("missing '/' separator")
	}
	start, _, err := parseDateTime(startStr, nil, loc)
	if err != nil {
		return recurrence.Period{}, err
	}
	if strings.HasPrefix(rest, "P") || strings.HasPrefix(rest, "+P") || strings.HasPrefix(rest, "-P") {
		dur, err := parseDuration(rest)
		if err != nil {
			return recurrence.Period{}, err
		}
		return recurrence.Period{Start: start, End: start.Add(dur)}, nil
	}
	end, _, err := parseDateTime(rest, nil, loc)
	if err != nil {
		return recurrence.Period{}, err
	}
	return recurrence.Period{Start: start, End: end}, nil
}

// parseDuration parses an RFC 5545 duration (weeks, days, hours, minutes,
// seconds; no months or years).
func parseDuration(value string) (time.Duration, error) {
	s := value
	neg := false
	switch {
	case strings.HasPrefix(s, "-"):
		neg = true
		s = s[1:]
	case strings.HasPrefix(s, "+"):
		s = s[1:]
	}
	if !strings.HasPrefix(s, "P") {
		return 0, fmt.Errorf("invalid duration %q", value)
	}
	s = s[1:]

	var dur time.Duration
	inTime := false
	for len(s) > 0 {
		if s[0] == 'T' {
			inTime = true
			s = s[1:]
			continue
		}
		i := 0
		for i < len(s) && s[i] >= '0' && s[i] <= '9' {
			i++
		}
		if i == 0 || i == len(s) {
			return 0, fmt.Errorf("invalid duration %q", value)
		}
		n, err := strconv.Atoi(s[:i])
		if err != nil {
			return 0, fmt.Errorf("invalid duration %q: %w", value, err)
		}
		switch s[i] {
		case 'W':
			dur += time.Duration(n) * 7 * 24 * time.Hour
		case 'D':
			dur += time.Duration(n) * 24 * time.Hour
		case 'H':
			if !inTime {
				return 0, fmt.Errorf("invalid duration %q", value)
			}
			dur += time.Duration(n) * time.Hour
		case 'M':
			if !inTime {
				return 0, fmt.Errorf("invalid duration %q", value)
			}
			dur += time.Duration(n) * time.Minute
		case 'S':
			if !inTime {
				return 0, fmt.Errorf("invalid duration %q", value)
			}
			dur += time.Duration(n) * time.Second
		default:
			return 0, fmt.Errorf("invalid duration %q", value)
		}
		s = s[i+1:]
	}
	if neg {
		dur = -dur
	}
	return dur, nil
}
