package query

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// URL parameter names, in canonical serialization order.
const (
	ParamLimit  = "limit"
	ParamOffset = "offset"
	ParamLike   = "like"
	ParamSort   = "sort"
)

// Params lists the parameter names in the order Encode writes them.
var Params = []string{ParamLimit, ParamOffset, ParamLike, ParamSort}

// FromValues builds a State from URL values, filling defaults for missing,
// empty, malformed or negative entries.
func FromValues(v url.Values) State {
	s := Default()
	if n, ok := nonNegativeInt(v.Get(ParamLimit)); ok {
		s.Limit = n
	}
	if n, ok := nonNegativeInt(v.Get(ParamOffset)); ok {
		s.Offset = n
	}
	if like := v.Get(ParamLike); like != "" {
		s.Like = like
	}
	if sort := v.Get(ParamSort); sort != "" {
		s.Sort = sort
	}
	return s.normalized()
}

// ParseRawQuery parses a raw query string (with or without a leading "?").
func ParseRawQuery(raw string) (State, error) {
	values, err := url.ParseQuery(strings.TrimPrefix(raw, "?"))
	if err != nil {
		return Default(), fmt.Errorf("parse query string: %w", err)
	}
	return FromValues(values), nil
}

// Encode serializes the state as key=value pairs joined by "&", always in the
// order limit, offset, like, sort.
func (s State) Encode() string {
	var b strings.Builder
	for i, key := range Params {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(key)
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(s.value(key)))
	}
	return b.String()
}

// Values returns the parameters to send to a backend. Empty filters and
// blank sorts are omitted.
func (s State) Values() url.Values {
	v := url.Values{}
	v.Set(ParamLimit, strconv.Itoa(s.Limit))
	v.Set(ParamOffset, strconv.Itoa(s.Offset))
	if s.Like != "" {
		v.Set(ParamLike, s.Like)
	}
	if s.Sorted() {
		v.Set(ParamSort, strings.TrimSpace(s.Sort))
	}
	return v
}

// String implements fmt.Stringer.
func (s State) String() string {
	return s.Encode()
}

func (s State) value(key string) string {
	switch key {
	case ParamLimit:
		return strconv.Itoa(s.Limit)
	case ParamOffset:
		return strconv.Itoa(s.Offset)
	case ParamLike:
		return s.Like
	case ParamSort:
		return s.Sort
	default:
		return ""
	}
}

func nonNegativeInt(raw string) (int, bool) {
	if raw == "" {
		return 0, false
	}
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}
