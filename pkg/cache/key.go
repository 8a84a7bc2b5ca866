package cache

import (
	"net/url"
	"sort"
	"strings"
)

// KeyPrefix starts every key written by this package.
const KeyPrefix = "admin"

// Key identifies one cached backend response.
type Key struct {
	// Resource is the list endpoint path (e.g., "/v1/admissions/cohort")
	Resource string

	// Query holds the request parameters (limit, offset, like, sort)
	Query url.Values

	// Scope separates backends sharing one Redis (usually the API host)
	Scope string
}

// String generates a deterministic key string.
// Format: admin:scope:resource:param1=val1:param2=val2
//
// Example:
//
//	admin:api.example.com:v1/admissions/cohort:limit=10:offset=0
func (k Key) String() string {
	parts := []string{KeyPrefix}

	if k.Scope != "" {
		parts = append(parts, k.Scope)
	}

	if resource := strings.Trim(k.Resource, "/"); resource != "" {
		parts = append(parts, resource)
	}

	if len(k.Query) > 0 {
		names := make([]string, 0, len(k.Query))
		for name := range k.Query {
			names = append(names, name)
		}
		sort.Strings(names)

		for _, name := range names {
			parts = append(parts, name+"="+strings.Join(k.Query[name], ","))
		}
	}

	return strings.Join(parts, ":")
}

// ResourcePattern returns the Redis MATCH pattern covering every cached page
// of the key's resource in the key's scope.
func (k Key) ResourcePattern() string {
	base := Key{Resource: k.Resource, Scope: k.Scope}.String()
	return base + ":*"
}
