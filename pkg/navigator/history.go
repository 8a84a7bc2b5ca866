// Package navigator provides URL sinks for the table controller: an
// in-memory browser-style history, a function adapter and a writer that
// prints shareable links.
package navigator

import (
	"net/url"
	"strings"
	"sync"
)

// Entry is one history entry.
type Entry struct {
	Path     string
	RawQuery string
}

// String renders the entry as path?query.
func (e Entry) String() string {
	if e.RawQuery == "" {
		return e.Path
	}
	return e.Path + "?" + e.RawQuery
}

// History is an in-memory navigation stack. Replace rewrites the current
// entry; Push appends a new one.
type History struct {
	mu      sync.RWMutex
	entries []Entry
}

// NewHistory creates a history whose current entry is the given URL.
// The URL may be a path with an optional query string.
func NewHistory(rawURL string) *History {
	return &History{entries: []Entry{ParseEntry(rawURL)}}
}

// ParseEntry splits a path?query string into an Entry.
func ParseEntry(rawURL string) Entry {
	if u, err := url.Parse(rawURL); err == nil {
		return Entry{Path: u.Path, RawQuery: u.RawQuery}
	}
	path, rawQuery, _ := strings.Cut(rawURL, "?")
	return Entry{Path: path, RawQuery: rawQuery}
}

// Replace rewrites the current entry.
func (h *History) Replace(path, rawQuery string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.entries) == 0 {
		h.entries = append(h.entries, Entry{})
	}
	h.entries[len(h.entries)-1] = Entry{Path: path, RawQuery: rawQuery}
}

// Push appends a new entry.
func (h *History) Push(path, rawQuery string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.entries = append(h.entries, Entry{Path: path, RawQuery: rawQuery})
}

// Back drops the current entry. The first entry is never dropped.
func (h *History) Back() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.entries) <= 1 {
		return false
	}
	h.entries = h.entries[:len(h.entries)-1]
	return true
}

// Current returns the current entry.
func (h *History) Current() Entry {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if len(h.entries) == 0 {
		return Entry{}
	}
	return h.entries[len(h.entries)-1]
}

// Len returns the number of entries.
func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.entries)
}

// Path returns the path of the current entry.
func (h *History) Path() string {
	return h.Current().Path
}

// RawQuery returns the query string of the current entry.
func (h *History) RawQuery() string {
	return h.Current().RawQuery
}
