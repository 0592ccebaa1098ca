package recurrence

import (
	"slices"
	"time"
)

// Helpers for the sorted, duplicate-free instant lists the engine keeps
// (occurrence sets, RDATE/EXDATE lists). All of them require their input to
// be sorted ascending.

func cmpTimes(a, b time.Time) int { return a.Compare(b) }

func sortUnique(list []time.Time) []time.Time {
	slices.SortFunc(list, cmpTimes)
	return slices.CompactFunc(list, func(a, b time.Time) bool { return a.Equal(b) })
}

func insertSorted(list []time.Time, t time.Time) []time.Time {
	i, found := slices.BinarySearchFunc(list, t, cmpTimes)
	if found {
		return list
	}
	return slices.Insert(list, i, t)
}

func removeSorted(list []time.Time, t time.Time) []time.Time {
	if i, found := slices.BinarySearchFunc(list, t, cmpTimes); found {
		return slices.Delete(list, i, i+1)
	}
	return list
}

func containsTime(list []time.Time, t time.Time) bool {
	_, found := slices.BinarySearchFunc(list, t, cmpTimes)
	return found
}

// firstAfter returns the index of the first element strictly after t, which
// is len(list) when there is none.
func firstAfter(list []time.Time, t time.Time) int {
	i, found := slices.BinarySearchFunc(list, t, cmpTimes)
	if found {
		return i + 1
	}
	return i
}

// lastBefore returns the index of the last element strictly before t, or -1.
func lastBefore(list []time.Time, t time.Time) int {
	i, _ := slices.BinarySearchFunc(list, t, cmpTimes)
	return i - 1
}
