package recurrence

import (
	"testing"
	"time"

	rrule "github.com/teambition/rrule-go"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func requireTimes(t *testing.T, want, got []time.Time) {
	t.Helper()
	require.Len(t, got, len(want))
	for i := range want {
		assert.True(t, want[i].Equal(got[i]), "index %d: want %v, got %v", i, want[i], got[i])
	}
}

func TestRuleDailyCount(t *testing.T) {
	start := time.Date(2006, 1, 1, 0, 0, 0, 0, time.UTC)
	r := NewRule()
	r.SetStart(start)
	r.SetPeriod(PeriodDaily)
	require.NoError(t, r.SetDuration(3))

	want := []time.Time{
		start,
		start.AddDate(0, 0, 1),
		start.AddDate(0, 0, 2),
	}

	t.Run("times in interval", func(t *testing.T) {
		got := r.TimesInInterval(start, start.AddDate(0, 1, 0))
		requireTimes(t, want, got)
	})

	t.Run("next date walks the sequence", func(t *testing.T) {
		cur := start.Add(-time.Second)
		for _, w := range want {
			next, ok := r.NextDate(cur).Get()
			require.True(t, ok, "after %v", cur)
			assert.True(t, w.Equal(next), "want %v, got %v", w, next)
			cur = next
		}
		assert.True(t, r.NextDate(cur).IsAbsent(), "no date after the final occurrence")
	})

	t.Run("end is the final occurrence", func(t *testing.T) {
		end, ok := r.End().Get()
		require.True(t, ok)
		assert.True(t, want[2].Equal(end))
	})

	t.Run("recurs on covered days only", func(t *testing.T) {
		assert.True(t, r.RecursOn(start, time.UTC))
		assert.True(t, r.RecursOn(start.AddDate(0, 0, 2), time.UTC))
		assert.False(t, r.RecursOn(start.AddDate(0, 0, 3), time.UTC))
		assert.False(t, r.RecursOn(start.AddDate(0, 0, -1), time.UTC))
	})

	t.Run("duration to", func(t *testing.T) {
		assert.Equal(t, 0, r.DurationTo(start.Add(-time.Second)))
		assert.Equal(t, 1, r.DurationTo(start))
		assert.Equal(t, 3, r.DurationTo(start.AddDate(0, 1, 0)))
	})
}

func TestRuleWeeklyByDay(t *testing.T) {
	// Tuesday through Friday, weeks starting Monday. The start is a Friday.
	start := time.Date(2020, 11, 6, 12, 0, 0, 0, time.UTC)
	r := NewRule()
	r.SetStart(start)
	r.SetPeriod(PeriodWeekly)
	r.SetWeekStart(1)
	r.SetByDays([]WDayPos{{Day: 2}, {Day: 3}, {Day: 4}, {Day: 5}})

	t.Run("first occurrence after the day begins is the start", func(t *testing.T) {
		dayStart := time.Date(2020, 11, 6, 0, 0, 0, 0, time.UTC)
		next, ok := r.NextDate(dayStart).Get()
		require.True(t, ok)
		assert.True(t, start.Equal(next), "got %v", next)
	})

	t.Run("after the start comes next week's Tuesday", func(t *testing.T) {
		next, ok := r.NextDate(start).Get()
		require.True(t, ok)
		assert.True(t, start.AddDate(0, 0, 4).Equal(next), "got %v", next)

		next, ok = r.NextDate(start.AddDate(0, 0, 1)).Get()
		require.True(t, ok)
		assert.True(t, start.AddDate(0, 0, 4).Equal(next), "got %v", next)
	})

	t.Run("repeated queries agree", func(t *testing.T) {
		first := r.NextDate(start)
		second := r.NextDate(start)
		assert.Equal(t, first.MustGet(), second.MustGet())
		requireTimes(t,
			r.TimesInInterval(start, start.AddDate(0, 1, 0)),
			r.TimesInInterval(start, start.AddDate(0, 1, 0)))
	})

	t.Run("listed weekdays recur, others do not", func(t *testing.T) {
		assert.True(t, r.RecursOn(time.Date(2020, 11, 10, 0, 0, 0, 0, time.UTC), time.UTC))  // Tue
		assert.True(t, r.RecursOn(time.Date(2020, 11, 13, 0, 0, 0, 0, time.UTC), time.UTC))  // Fri
		assert.False(t, r.RecursOn(time.Date(2020, 11, 9, 0, 0, 0, 0, time.UTC), time.UTC))  // Mon
		assert.False(t, r.RecursOn(time.Date(2020, 11, 14, 0, 0, 0, 0, time.UTC), time.UTC)) // Sat
		// Thursday of the start week precedes the start.
		assert.False(t, r.RecursOn(time.Date(2020, 11, 5, 0, 0, 0, 0, time.UTC), time.UTC))
	})

	t.Run("recurs at keeps the start's time of day", func(t *testing.T) {
		assert.True(t, r.RecursAt(time.Date(2020, 11, 10, 12, 0, 0, 0, time.UTC)))
		assert.False(t, r.RecursAt(time.Date(2020, 11, 10, 13, 0, 0, 0, time.UTC)))
	})
}

func TestRuleMonthlyLastDay(t *testing.T) {
	start := time.Date(2006, 1, 31, 0, 0, 0, 0, time.UTC)
	r := NewRule()
	r.SetStart(start)
	r.SetPeriod(PeriodMonthly)
	r.SetByMonthDays([]int{-1})

	want := []time.Time{
		time.Date(2006, 1, 31, 0, 0, 0, 0, time.UTC),
		time.Date(2006, 2, 28, 0, 0, 0, 0, time.UTC),
		time.Date(2006, 3, 31, 0, 0, 0, 0, time.UTC),
		time.Date(2006, 4, 30, 0, 0, 0, 0, time.UTC),
	}
	got := r.TimesInInterval(start, time.Date(2006, 5, 1, 0, 0, 0, 0, time.UTC))
	requireTimes(t, want, got)

	t.Run("leap February", func(t *testing.T) {
		assert.True(t, r.RecursOn(time.Date(2008, 2, 29, 0, 0, 0, 0, time.UTC), time.UTC))
		assert.False(t, r.RecursOn(time.Date(2008, 2, 28, 0, 0, 0, 0, time.UTC), time.UTC))
	})
}

func TestRuleMonthlyLastWeekday(t *testing.T) {
	start := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	r := NewRule()
	r.SetStart(start)
	r.SetPeriod(PeriodMonthly)
	r.SetByDays([]WDayPos{{Day: 1}, {Day: 2}, {Day: 3}, {Day: 4}, {Day: 5}})
	r.SetBySetPos([]int{-1})

	want := []time.Time{
		time.Date(2024, 1, 31, 9, 0, 0, 0, time.UTC), // Wednesday
		time.Date(2024, 2, 29, 9, 0, 0, 0, time.UTC), // Thursday
		time.Date(2024, 3, 29, 9, 0, 0, 0, time.UTC), // Friday; the 30th/31st fall on a weekend
	}
	got := r.TimesInInterval(start, time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC))
	requireTimes(t, want, got)

	t.Run("deselected weekday does not recur", func(t *testing.T) {
		// Tuesday January 30 matches BYDAY but is not the last weekday.
		assert.False(t, r.RecursOn(time.Date(2024, 1, 30, 0, 0, 0, 0, time.UTC), time.UTC))
		assert.False(t, r.RecursAt(time.Date(2024, 1, 30, 9, 0, 0, 0, time.UTC)))
		assert.True(t, r.RecursAt(time.Date(2024, 1, 31, 9, 0, 0, 0, time.UTC)))
	})
}

func TestRuleYearly(t *testing.T) {
	// An anniversary inherits month and day from the start.
	start := time.Date(2000, 6, 15, 0, 0, 0, 0, time.UTC)
	r := NewRule()
	r.SetStart(start)
	r.SetPeriod(PeriodYearly)

	next, ok := r.NextDate(start).Get()
	require.True(t, ok)
	assert.True(t, time.Date(2001, 6, 15, 0, 0, 0, 0, time.UTC).Equal(next))

	t.Run("interval skips years", func(t *testing.T) {
		r2 := NewRule()
		r2.SetStart(start)
		r2.SetPeriod(PeriodYearly)
		r2.SetFrequency(4)
		next, ok := r2.NextDate(start).Get()
		require.True(t, ok)
		assert.True(t, time.Date(2004, 6, 15, 0, 0, 0, 0, time.UTC).Equal(next))
	})

	t.Run("leap day only recurs in leap years", func(t *testing.T) {
		r2 := NewRule()
		r2.SetStart(time.Date(2004, 2, 29, 0, 0, 0, 0, time.UTC))
		r2.SetPeriod(PeriodYearly)
		next, ok := r2.NextDate(time.Date(2004, 2, 29, 0, 0, 0, 0, time.UTC)).Get()
		require.True(t, ok)
		assert.True(t, time.Date(2008, 2, 29, 0, 0, 0, 0, time.UTC).Equal(next), "got %v", next)
	})
}

func TestRuleSubDailyFastPath(t *testing.T) {
	start := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	r := NewRule()
	r.SetStart(start)
	r.SetPeriod(PeriodHourly)
	r.SetFrequency(2)

	t.Run("next and previous", func(t *testing.T) {
		next, ok := r.NextDate(start).Get()
		require.True(t, ok)
		assert.True(t, start.Add(2*time.Hour).Equal(next))

		prev, ok := r.PreviousDate(start.Add(3 * time.Hour)).Get()
		require.True(t, ok)
		assert.True(t, start.Add(2*time.Hour).Equal(prev))

		assert.True(t, r.PreviousDate(start).IsAbsent())
	})

	t.Run("recurs at", func(t *testing.T) {
		assert.True(t, r.RecursAt(start))
		assert.True(t, r.RecursAt(start.Add(4*time.Hour)))
		assert.False(t, r.RecursAt(start.Add(3*time.Hour)))
		assert.False(t, r.RecursAt(start.Add(-2*time.Hour)))
	})

	t.Run("times in interval", func(t *testing.T) {
		got := r.TimesInInterval(start.Add(time.Hour), start.Add(6*time.Hour))
		requireTimes(t, []time.Time{
			start.Add(2 * time.Hour),
			start.Add(4 * time.Hour),
			start.Add(6 * time.Hour),
		}, got)
	})

	t.Run("duration to", func(t *testing.T) {
		assert.Equal(t, 3, r.DurationTo(start.Add(5*time.Hour)))
	})

	t.Run("hour list disables the fast path", func(t *testing.T) {
		r2 := NewRule()
		r2.SetStart(start)
		r2.SetPeriod(PeriodHourly)
		r2.SetByHours([]int{10, 14})
		next, ok := r2.NextDate(start).Get()
		require.True(t, ok)
		assert.True(t, start.Add(4*time.Hour).Equal(next), "got %v", next)
	})
}

func TestRuleUntil(t *testing.T) {
	start := time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)
	end := time.Date(2024, 1, 5, 8, 0, 0, 0, time.UTC)
	r := NewRule()
	r.SetStart(start)
	r.SetPeriod(PeriodDaily)
	require.NoError(t, r.SetEnd(end))

	assert.Equal(t, 0, r.Duration())
	got, ok := r.End().Get()
	require.True(t, ok)
	assert.True(t, end.Equal(got))

	times := r.TimesInInterval(start, start.AddDate(0, 1, 0))
	require.Len(t, times, 5)
	assert.True(t, end.Equal(times[4]))

	assert.True(t, r.NextDate(end).IsAbsent())
	assert.False(t, r.RecursOn(end.AddDate(0, 0, 1), time.UTC))
}

func TestRuleSetterValidation(t *testing.T) {
	r := NewRule()
	r.SetStart(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	r.SetPeriod(PeriodDaily)

	t.Run("duration zero needs an end", func(t *testing.T) {
		assert.ErrorIs(t, r.SetDuration(0), ErrEndRequired)
	})

	t.Run("end conflicts with a count", func(t *testing.T) {
		require.NoError(t, r.SetDuration(3))
		assert.ErrorIs(t, r.SetEnd(time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)), ErrCountBounded)
	})

	t.Run("zero end instant is rejected", func(t *testing.T) {
		r2 := NewRule()
		assert.ErrorIs(t, r2.SetEnd(time.Time{}), ErrZeroEnd)
	})

	t.Run("frequency below one is ignored", func(t *testing.T) {
		r.SetFrequency(0)
		assert.Equal(t, 1, r.Frequency())
	})

	t.Run("week start out of range is ignored", func(t *testing.T) {
		r.SetWeekStart(8)
		assert.Equal(t, 1, r.WeekStart())
	})

	t.Run("read-only rules ignore setters", func(t *testing.T) {
		r2 := NewRule()
		r2.SetStart(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
		r2.SetPeriod(PeriodDaily)
		r2.SetReadOnly(true)
		r2.SetPeriod(PeriodWeekly)
		r2.SetFrequency(5)
		assert.Equal(t, PeriodDaily, r2.Period())
		assert.Equal(t, 1, r2.Frequency())
	})
}

func TestRuleNextPreviousRoundTrip(t *testing.T) {
	start := time.Date(2024, 1, 31, 10, 30, 0, 0, time.UTC)
	r := NewRule()
	r.SetStart(start)
	r.SetPeriod(PeriodMonthly)
	r.SetByMonthDays([]int{-1})

	cur := start
	for i := 0; i < 12; i++ {
		next, ok := r.NextDate(cur).Get()
		require.True(t, ok, "after %v", cur)
		prev, ok := r.PreviousDate(next).Get()
		require.True(t, ok, "before %v", next)
		assert.True(t, cur.Equal(prev), "round trip at %v gave %v", cur, prev)
		cur = next
	}
}

func TestRuleCloneAndEqual(t *testing.T) {
	start := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	r := NewRule()
	r.SetStart(start)
	r.SetPeriod(PeriodWeekly)
	r.SetByDays([]WDayPos{{Day: 1}, {Day: 3}})
	require.NoError(t, r.SetDuration(10))

	c := r.Clone()
	assert.True(t, r.Equal(c))

	c.SetFrequency(2)
	assert.False(t, r.Equal(c))
	assert.Equal(t, 1, r.Frequency(), "clone mutation leaks into the original")
}

func TestRuleShiftTimes(t *testing.T) {
	berlin, err := time.LoadLocation("Europe/Berlin")
	require.NoError(t, err)
	tokyo, err := time.LoadLocation("Asia/Tokyo")
	require.NoError(t, err)

	start := time.Date(2024, 5, 6, 9, 0, 0, 0, berlin)
	r := NewRule()
	r.SetStart(start)
	r.SetPeriod(PeriodDaily)

	r.ShiftTimes(berlin, tokyo)
	got := r.Start()
	assert.Equal(t, tokyo.String(), got.Location().String())
	assert.Equal(t, 9, got.Hour())
	assert.Equal(t, 6, got.Day())
}

func TestRuleAllDay(t *testing.T) {
	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	r := NewRule()
	r.SetStart(start)
	r.SetAllDay(true)
	r.SetPeriod(PeriodWeekly)

	assert.True(t, r.RecursOn(start.AddDate(0, 0, 7), time.UTC))
	assert.False(t, r.RecursOn(start.AddDate(0, 0, 8), time.UTC))
	// For an all-day rule an instant query degrades to its date.
	assert.True(t, r.RecursAt(start.AddDate(0, 0, 7).Add(15*time.Hour)))
}

// Cross-checks against an independent RFC 5545 implementation.
func TestRuleAgainstReferenceImplementation(t *testing.T) {
	winEnd := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		build func() *Rule
		opt   rrule.ROption
	}{
		{
			name: "daily count",
			build: func() *Rule {
				r := NewRule()
				r.SetStart(time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC))
				r.SetPeriod(PeriodDaily)
				r.SetDuration(40)
				return r
			},
			opt: rrule.ROption{
				Freq:    rrule.DAILY,
				Count:   40,
				Dtstart: time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC),
			},
		},
		{
			name: "every third day",
			build: func() *Rule {
				r := NewRule()
				r.SetStart(time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC))
				r.SetPeriod(PeriodDaily)
				r.SetFrequency(3)
				r.SetDuration(30)
				return r
			},
			opt: rrule.ROption{
				Freq:     rrule.DAILY,
				Interval: 3,
				Count:    30,
				Dtstart:  time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC),
			},
		},
		{
			name: "weekly on Tuesday and Thursday",
			build: func() *Rule {
				r := NewRule()
				r.SetStart(time.Date(2024, 1, 2, 12, 0, 0, 0, time.UTC))
				r.SetPeriod(PeriodWeekly)
				r.SetByDays([]WDayPos{{Day: 2}, {Day: 4}})
				r.SetDuration(25)
				return r
			},
			opt: rrule.ROption{
				Freq:      rrule.WEEKLY,
				Byweekday: []rrule.Weekday{rrule.TU, rrule.TH},
				Count:     25,
				Dtstart:   time.Date(2024, 1, 2, 12, 0, 0, 0, time.UTC),
			},
		},
		{
			name: "biweekly with Monday week start",
			build: func() *Rule {
				r := NewRule()
				r.SetStart(time.Date(2024, 1, 3, 8, 0, 0, 0, time.UTC))
				r.SetPeriod(PeriodWeekly)
				r.SetFrequency(2)
				r.SetWeekStart(1)
				r.SetByDays([]WDayPos{{Day: 3}})
				r.SetDuration(20)
				return r
			},
			opt: rrule.ROption{
				Freq:      rrule.WEEKLY,
				Interval:  2,
				Wkst:      rrule.MO,
				Byweekday: []rrule.Weekday{rrule.WE},
				Count:     20,
				Dtstart:   time.Date(2024, 1, 3, 8, 0, 0, 0, time.UTC),
			},
		},
		{
			name: "monthly last day",
			build: func() *Rule {
				r := NewRule()
				r.SetStart(time.Date(2024, 1, 31, 10, 0, 0, 0, time.UTC))
				r.SetPeriod(PeriodMonthly)
				r.SetByMonthDays([]int{-1})
				r.SetDuration(14)
				return r
			},
			opt: rrule.ROption{
				Freq:       rrule.MONTHLY,
				Bymonthday: []int{-1},
				Count:      14,
				Dtstart:    time.Date(2024, 1, 31, 10, 0, 0, 0, time.UTC),
			},
		},
		{
			name: "monthly last weekday",
			build: func() *Rule {
				r := NewRule()
				r.SetStart(time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC))
				r.SetPeriod(PeriodMonthly)
				r.SetByDays([]WDayPos{{Day: 1}, {Day: 2}, {Day: 3}, {Day: 4}, {Day: 5}})
				r.SetBySetPos([]int{-1})
				r.SetDuration(12)
				return r
			},
			opt: rrule.ROption{
				Freq:      rrule.MONTHLY,
				Byweekday: []rrule.Weekday{rrule.MO, rrule.TU, rrule.WE, rrule.TH, rrule.FR},
				Bysetpos:  []int{-1},
				Count:     12,
				Dtstart:   time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC),
			},
		},
		{
			name: "second Tuesday of every month",
			build: func() *Rule {
				r := NewRule()
				r.SetStart(time.Date(2024, 1, 9, 9, 0, 0, 0, time.UTC))
				r.SetPeriod(PeriodMonthly)
				r.SetByDays([]WDayPos{{Day: 2, Pos: 2}})
				r.SetDuration(15)
				return r
			},
			opt: rrule.ROption{
				Freq:      rrule.MONTHLY,
				Byweekday: []rrule.Weekday{rrule.TU.Nth(2)},
				Count:     15,
				Dtstart:   time.Date(2024, 1, 9, 9, 0, 0, 0, time.UTC),
			},
		},
		{
			name: "yearly in March and September",
			build: func() *Rule {
				r := NewRule()
				r.SetStart(time.Date(2020, 3, 10, 6, 0, 0, 0, time.UTC))
				r.SetPeriod(PeriodYearly)
				r.SetByMonths([]int{3, 9})
				r.SetDuration(10)
				return r
			},
			opt: rrule.ROption{
				Freq:    rrule.YEARLY,
				Bymonth: []int{3, 9},
				Count:   10,
				Dtstart: time.Date(2020, 3, 10, 6, 0, 0, 0, time.UTC),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := tt.build()
			oracle, err := rrule.NewRRule(tt.opt)
			require.NoError(t, err)

			want := oracle.Between(tt.opt.Dtstart.Add(-time.Second), winEnd, false)
			got := r.TimesInInterval(r.Start(), winEnd)
			requireTimes(t, want, got)
		})
	}
}

func TestRuleRecursAtIntervalAlignment(t *testing.T) {
	t.Run("every third day skips the days between", func(t *testing.T) {
		start := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
		r := NewRule()
		r.SetStart(start)
		r.SetPeriod(PeriodDaily)
		r.SetFrequency(3)

		assert.True(t, r.RecursAt(start))
		assert.False(t, r.RecursAt(start.AddDate(0, 0, 1)))
		assert.False(t, r.RecursAt(start.AddDate(0, 0, 2)))
		assert.True(t, r.RecursAt(start.AddDate(0, 0, 3)))
		assert.False(t, r.RecursAt(start.AddDate(0, 0, 4)))
		assert.True(t, r.RecursAt(start.AddDate(0, 0, 6)))
	})

	t.Run("biweekly Wednesday skips the off weeks", func(t *testing.T) {
		// 2024-01-03 is a Wednesday.
		start := time.Date(2024, 1, 3, 8, 0, 0, 0, time.UTC)
		r := NewRule()
		r.SetStart(start)
		r.SetPeriod(PeriodWeekly)
		r.SetFrequency(2)
		r.SetWeekStart(1)
		r.SetByDays([]WDayPos{{Day: 3}})

		assert.True(t, r.RecursAt(start))
		assert.False(t, r.RecursAt(start.AddDate(0, 0, 7)))
		assert.True(t, r.RecursAt(start.AddDate(0, 0, 14)))
		assert.False(t, r.RecursAt(start.AddDate(0, 0, 21)))
	})

	t.Run("every second month skips alternate months", func(t *testing.T) {
		start := time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)
		r := NewRule()
		r.SetStart(start)
		r.SetPeriod(PeriodMonthly)
		r.SetFrequency(2)

		assert.True(t, r.RecursAt(start))
		assert.False(t, r.RecursAt(time.Date(2024, 2, 15, 10, 0, 0, 0, time.UTC)))
		assert.True(t, r.RecursAt(time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)))
	})

	t.Run("agrees with the enumerated occurrences", func(t *testing.T) {
		start := time.Date(2024, 1, 3, 8, 0, 0, 0, time.UTC)
		r := NewRule()
		r.SetStart(start)
		r.SetPeriod(PeriodWeekly)
		r.SetFrequency(2)
		r.SetWeekStart(1)
		r.SetByDays([]WDayPos{{Day: 3}})
		require.NoError(t, r.SetDuration(10))

		oracle, err := rrule.NewRRule(rrule.ROption{
			Freq:      rrule.WEEKLY,
			Interval:  2,
			Wkst:      rrule.MO,
			Byweekday: []rrule.Weekday{rrule.WE},
			Count:     10,
			Dtstart:   start,
		})
		require.NoError(t, err)
		occurrences := oracle.Between(start.Add(-time.Second), start.AddDate(1, 0, 0), false)
		require.Len(t, occurrences, 10)

		for day, end := start, start.AddDate(0, 0, 160); day.Before(end); day = day.AddDate(0, 0, 1) {
			want := containsTime(occurrences, day)
			assert.Equal(t, want, r.RecursAt(day), "at %v", day)
		}
	})
}
