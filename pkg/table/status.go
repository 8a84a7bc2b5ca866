package table

// Status is the lifecycle state of a view instance.
type Status int

const (
	// StatusIdle means no fetch is outstanding and the last one succeeded.
	StatusIdle Status = iota

	// StatusLoading means a fetch is outstanding.
	StatusLoading

	// StatusFailed means the last applied fetch failed; previous results
	// are still shown.
	StatusFailed

	// StatusUnmounted is terminal.
	StatusUnmounted
)

// String implements fmt.Stringer.
func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusLoading:
		return "loading"
	case StatusFailed:
		return "failed"
	case StatusUnmounted:
		return "unmounted"
	default:
		return "unknown"
	}
}

// Ordering decides which of several overlapping responses is shown.
type Ordering string

const (
	// LatestIssued shows only the response of the most recently issued request.
	LatestIssued Ordering = "latest_issued"

	// LatestResolved shows whichever response arrives last.
	LatestResolved Ordering = "latest_resolved"
)

// Valid reports whether o names a known ordering.
func (o Ordering) Valid() bool {
	return o == LatestIssued || o == LatestResolved
}

// ParseOrdering maps a config string to an Ordering, defaulting to LatestIssued.
// Callers that must reject typos check Valid first.
func ParseOrdering(s string) Ordering {
	if Ordering(s) == LatestResolved {
		return LatestResolved
	}
	return LatestIssued
}
