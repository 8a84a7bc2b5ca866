package query

import "strings"

// Direction is a column sort direction.
type Direction string

const (
	// Ascending sorts smallest first.
	Ascending Direction = "asc"

	// Descending sorts largest first.
	Descending Direction = "desc"
)

// ParseDirection maps "asc"/"desc" (any case) to a Direction.
func ParseDirection(s string) (Direction, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "asc":
		return Ascending, true
	case "desc":
		return Descending, true
	default:
		return "", false
	}
}

// Toggle returns the opposite direction.
func (d Direction) Toggle() Direction {
	if d == Descending {
		return Ascending
	}
	return Descending
}

// SortFor builds the sort parameter for a column: "name" or "-name".
func SortFor(column string, dir Direction) string {
	if dir == Descending {
		return "-" + column
	}
	return column
}

// ParseSort splits a sort parameter into column and direction.
// A blank parameter yields an empty column.
func ParseSort(sort string) (string, Direction) {
	sort = strings.TrimSpace(sort)
	if strings.HasPrefix(sort, "-") {
		return sort[1:], Descending
	}
	return sort, Ascending
}
