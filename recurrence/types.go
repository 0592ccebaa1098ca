package recurrence

import (
	"fmt"
	"strconv"
)

// PeriodType is the base frequency of a recurrence rule, ordered from the
// finest granularity to the coarsest.
type PeriodType int

const (
	PeriodNone PeriodType = iota
	PeriodSecondly
	PeriodMinutely
	PeriodHourly
	PeriodDaily
	PeriodWeekly
	PeriodMonthly
	PeriodYearly
)

func (p PeriodType) String() string {
	switch p {
	case PeriodSecondly:
		return "SECONDLY"
	case PeriodMinutely:
		return "MINUTELY"
	case PeriodHourly:
		return "HOURLY"
	case PeriodDaily:
		return "DAILY"
	case PeriodWeekly:
		return "WEEKLY"
	case PeriodMonthly:
		return "MONTHLY"
	case PeriodYearly:
		return "YEARLY"
	default:
		return "NONE"
	}
}

// WDayPos is a weekday with an optional position inside its period, as used
// by BYDAY parts. Day is 1 (Monday) through 7 (Sunday). Pos 0 selects every
// such weekday in the period; a positive Pos selects the Pos-th occurrence
// counted from the period start, a negative Pos counts from the period end.
type WDayPos struct {
	Day int
	Pos int
}

func (w WDayPos) String() string {
	names := [8]string{"", "MO", "TU", "WE", "TH", "FR", "SA", "SU"}
	name := strconv.Itoa(w.Day)
	if w.Day >= 1 && w.Day <= 7 {
		name = names[w.Day]
	}
	if w.Pos == 0 {
		return name
	}
	return fmt.Sprintf("%d%s", w.Pos, name)
}

// Type is the coarse classification of a recurrence derived from the default
// rule's populated BY* fields. It mirrors the pre-RFC-5545 recurrence kinds
// that single-rule calendar UIs expose.
type Type int

const (
	TypeNone Type = iota
	TypeMinutely
	TypeHourly
	TypeDaily
	TypeWeekly
	TypeMonthlyPos   // monthly, on positioned weekdays (e.g. second Tuesday)
	TypeMonthlyDay   // monthly, on fixed days of the month
	TypeYearlyMonth  // yearly, on a fixed date of fixed months
	TypeYearlyDay    // yearly, on fixed days of the year
	TypeYearlyPos    // yearly, on positioned weekdays of fixed months
	TypeOther        // anything the legacy classification cannot express
)
