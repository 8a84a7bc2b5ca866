package table

import "errors"

// Errors returned by the controller.
var (
	// ErrStale is returned to the caller whose response was superseded by a
	// newer request and therefore not applied.
	ErrStale = errors.New("response superseded by a newer request")

	// ErrUnmounted is returned when the view was torn down before or while
	// the request ran.
	ErrUnmounted = errors.New("view unmounted")

	// ErrUnknownField is returned by FilterChange for a field that is not
	// part of the query.
	ErrUnknownField = errors.New("unknown filter field")

	// ErrInvalidValue is returned by FilterChange when a numeric field
	// receives a non-numeric value.
	ErrInvalidValue = errors.New("invalid filter value")

	// ErrNoSearch is returned by New without a search function.
	ErrNoSearch = errors.New("search function is required")
)
