package recurrence

// Limits bounds the engine's searches. Impossible BY* combinations (say,
// BYMONTHDAY=31 with BYMONTH=2) legitimately produce zero matches forever;
// the ceilings turn such searches into a deterministic "no occurrence found"
// instead of an unbounded walk. They are fixed constants rather than
// timeouts: tests depend on deterministic termination.
type Limits struct {
	// IntervalWalk is the maximum number of frequency buckets a single-rule
	// search examines before giving up.
	IntervalWalk int

	// CandidateLoop is the maximum number of propose-then-reject rounds the
	// aggregate next/previous search runs. A pathological exclusion rule can
	// cancel every occurrence of an inclusion rule; the ceiling keeps that
	// case terminating.
	CandidateLoop int
}

// DefaultLimits is used by every rule and recurrence unless replaced with
// SetLimits. Raising the ceilings trades longer worst-case searches for
// fewer false "no occurrence" reports on sparse rules.
var DefaultLimits = Limits{
	IntervalWalk:  10000,
	CandidateLoop: 1000,
}
