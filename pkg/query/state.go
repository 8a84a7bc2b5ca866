// Package query holds the typed pagination, filter and sort parameters that
// drive a remote list query, and their URL representation.
package query

import (
	"errors"
	"fmt"
	"strings"
)

// Defaults applied when a parameter is missing from the URL.
const (
	DefaultLimit  = 10
	DefaultOffset = 0
	DefaultLike   = ""
	DefaultSort   = " "
)

// Errors returned by Validate.
var (
	ErrNegativeLimit  = errors.New("limit cannot be negative")
	ErrNegativeOffset = errors.New("offset cannot be negative")
	ErrInvalidSort    = errors.New("invalid sort column")
)

// State is the tuple of pagination, filter and sort parameters of a list query.
type State struct {
	// Limit is the page size.
	Limit int `json:"limit"`

	// Offset is the index of the first item of the page.
	Offset int `json:"offset"`

	// Like is the free-text filter.
	Like string `json:"like"`

	// Sort is a column name, prefixed with "-" for descending order.
	// Blank means unsorted.
	Sort string `json:"sort"`
}

// Default returns the state used when the URL carries no parameters.
func Default() State {
	return State{
		Limit:  DefaultLimit,
		Offset: DefaultOffset,
		Like:   DefaultLike,
		Sort:   DefaultSort,
	}
}

// Page returns the zero-based page index the offset falls on.
func (s State) Page() int {
	if s.Limit <= 0 {
		return 0
	}
	return s.Offset / s.Limit
}

// Sorted reports whether a sort column is set.
func (s State) Sorted() bool {
	return strings.TrimSpace(s.Sort) != ""
}

// Validate checks the invariants a backend expects. The table controller
// never calls it; request builders do.
func (s State) Validate() error {
	if s.Limit < 0 {
		return ErrNegativeLimit
	}
	if s.Offset < 0 {
		return ErrNegativeOffset
	}
	if !s.Sorted() {
		return nil
	}
	column, _ := ParseSort(s.Sort)
	if !validColumn(column) {
		return fmt.Errorf("%w: %q", ErrInvalidSort, s.Sort)
	}
	return nil
}

// OffsetFor converts a zero-based page index into an offset.
func OffsetFor(page, rowsPerPage int) int {
	return rowsPerPage * page
}

func validColumn(column string) bool {
	if column == "" {
		return false
	}
	for _, r := range column {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '_', r == '.':
		default:
			return false
		}
	}
	return true
}
