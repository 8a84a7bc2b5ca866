// Package testutil provides a mock admin REST backend and fixtures for tests.
package testutil

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/Sternrassler/admin-datatable/pkg/admin"
	"github.com/Sternrassler/admin-datatable/pkg/query"
	"github.com/Sternrassler/admin-datatable/pkg/ratelimit"
	"github.com/gin-gonic/gin"
)

// MockResponse is a canned response that replaces the listing of a path.
type MockResponse struct {
	StatusCode int
	Body       string
	Headers    map[string]string
}

// MockBackend is an httptest server speaking the admin list protocol:
// limit/offset/like/sort in, {"count", "results"} out, with ETags,
// quota headers and failure injection.
type MockBackend struct {
	server *httptest.Server

	mu        sync.RWMutex
	cohorts   []admin.Cohort
	staff     []admin.Staff
	overrides map[string][]MockResponse
	delay     func(r *http.Request) time.Duration
	maxAge    int
	remaining int

	// Tracking
	requestCount     int
	conditionalCount int
	lastQuery        url.Values
	lastHeader       http.Header
}

// NewMockBackend starts a backend seeded with 45 cohorts and 23 staff members.
func NewMockBackend() *MockBackend {
	gin.SetMode(gin.TestMode)

	m := &MockBackend{
		cohorts:   Cohorts(45),
		staff:     StaffMembers(23),
		overrides: make(map[string][]MockResponse),
		remaining: 1000,
	}

	router := gin.New()
	router.Use(gin.Recovery(), m.track, m.inject)

	router.GET(admin.CohortResource, listHandler(m, admin.Cohorts, func() []admin.Cohort { return m.cohorts }))
	router.DELETE(admin.CohortResource, deleteHandler(m, admin.Cohorts, &m.cohorts))
	router.GET(admin.StaffResource, listHandler(m, admin.StaffMembers, func() []admin.Staff { return m.staff }))
	router.DELETE(admin.StaffResource, deleteHandler(m, admin.StaffMembers, &m.staff))

	m.server = httptest.NewServer(router)
	return m
}

// URL returns the mock server URL.
func (m *MockBackend) URL() string {
	return m.server.URL
}

// Close shuts down the mock server.
func (m *MockBackend) Close() {
	m.server.Close()
}

// Reset clears all tracking counters and injected responses.
func (m *MockBackend) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requestCount = 0
	m.conditionalCount = 0
	m.lastQuery = nil
	m.lastHeader = nil
	m.overrides = make(map[string][]MockResponse)
}

// SetCohorts replaces the cohort fixtures.
func (m *MockBackend) SetCohorts(cohorts []admin.Cohort) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cohorts = cohorts
}

// SetStaff replaces the staff fixtures.
func (m *MockBackend) SetStaff(staff []admin.Staff) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.staff = staff
}

// SetMaxAge sets the Cache-Control max-age of list responses. Zero sends no-cache.
func (m *MockBackend) SetMaxAge(seconds int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.maxAge = seconds
}

// SetQuotaRemaining sets the X-RateLimit-Remaining header value.
func (m *MockBackend) SetQuotaRemaining(remaining int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.remaining = remaining
}

// SetDelay delays every response by the duration fn returns for it.
func (m *MockBackend) SetDelay(fn func(r *http.Request) time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.delay = fn
}

// QueueResponses makes the next requests to path return the given responses,
// in order, before normal service resumes.
func (m *MockBackend) QueueResponses(path string, responses ...MockResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.overrides[path] = append(m.overrides[path], responses...)
}

// GetRequestCount returns the number of requests made to the server.
func (m *MockBackend) GetRequestCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.requestCount
}

// GetConditionalCount returns the number of conditional requests.
func (m *MockBackend) GetConditionalCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.conditionalCount
}

// LastQuery returns the query parameters of the latest request.
func (m *MockBackend) LastQuery() url.Values {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastQuery
}

// LastHeader returns the headers of the latest request.
func (m *MockBackend) LastHeader() http.Header {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastHeader
}

func (m *MockBackend) track(c *gin.Context) {
	m.mu.Lock()
	m.requestCount++
	m.lastQuery = c.Request.URL.Query()
	m.lastHeader = c.Request.Header.Clone()
	if c.GetHeader("If-None-Match") != "" || c.GetHeader("If-Modified-Since") != "" {
		m.conditionalCount++
	}
	delay := m.delay
	remaining := m.remaining
	m.mu.Unlock()

	c.Header(ratelimit.HeaderRemaining, strconv.Itoa(remaining))
	c.Header(ratelimit.HeaderReset, "60")

	if delay != nil {
		if d := delay(c.Request); d > 0 {
			select {
			case <-time.After(d):
			case <-c.Request.Context().Done():
				c.Abort()
				return
			}
		}
	}
	c.Next()
}

func (m *MockBackend) inject(c *gin.Context) {
	m.mu.Lock()
	queue := m.overrides[c.Request.URL.Path]
	if len(queue) == 0 {
		m.mu.Unlock()
		c.Next()
		return
	}
	resp := queue[0]
	m.overrides[c.Request.URL.Path] = queue[1:]
	m.mu.Unlock()

	for key, value := range resp.Headers {
		c.Header(key, value)
	}
	c.Data(resp.StatusCode, "application/json; charset=utf-8", []byte(resp.Body))
	c.Abort()
}

func listHandler[T any](m *MockBackend, res admin.Resource[T], items func() []T) gin.HandlerFunc {
	return func(c *gin.Context) {
		m.mu.RLock()
		all := append([]T(nil), items()...)
		maxAge := m.maxAge
		m.mu.RUnlock()

		q := query.FromValues(c.Request.URL.Query())
		filtered := filter(res, all, q.Like)

		if q.Sorted() {
			column, dir := query.ParseSort(q.Sort)
			col, ok := res.Column(column)
			if !ok || !col.Sortable {
				c.JSON(http.StatusBadRequest, gin.H{"detail": "Invalid sort column: " + column, "status_code": http.StatusBadRequest})
				return
			}
			sort.SliceStable(filtered, func(i, j int) bool {
				if dir == query.Descending {
					return col.Value(filtered[i]) > col.Value(filtered[j])
				}
				return col.Value(filtered[i]) < col.Value(filtered[j])
			})
		}

		var payload any = filtered
		if c.Query(query.ParamLimit) != "" {
			payload = query.PageResult[T]{Results: page(filtered, q.Offset, q.Limit), Count: len(filtered)}
		}

		body, err := json.Marshal(payload)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"detail": err.Error()})
			return
		}

		sum := sha256.Sum256(body)
		etag := `"` + hex.EncodeToString(sum[:8]) + `"`
		c.Header("ETag", etag)
		if maxAge > 0 {
			c.Header("Cache-Control", "max-age="+strconv.Itoa(maxAge))
		} else {
			c.Header("Cache-Control", "no-cache")
		}

		if c.GetHeader("If-None-Match") == etag {
			c.Status(http.StatusNotModified)
			return
		}
		c.Data(http.StatusOK, "application/json; charset=utf-8", body)
	}
}

func deleteHandler[T any](m *MockBackend, res admin.Resource[T], items *[]T) gin.HandlerFunc {
	return func(c *gin.Context) {
		remove := map[int]bool{}
		for _, raw := range strings.Split(c.Query("id"), ",") {
			id, err := strconv.Atoi(strings.TrimSpace(raw))
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"detail": "Invalid id: " + raw})
				return
			}
			remove[id] = true
		}

		m.mu.Lock()
		kept := (*items)[:0:0]
		for _, item := range *items {
			if !remove[res.ID(item)] {
				kept = append(kept, item)
			}
		}
		*items = kept
		m.mu.Unlock()

		c.Status(http.StatusNoContent)
	}
}

func filter[T any](res admin.Resource[T], items []T, like string) []T {
	like = strings.ToLower(strings.TrimSpace(like))
	if like == "" {
		return items
	}
	out := items[:0:0]
	for _, item := range items {
		for _, cell := range res.Row(item) {
			if strings.Contains(strings.ToLower(cell), like) {
				out = append(out, item)
				break
			}
		}
	}
	return out
}

func page[T any](items []T, offset, limit int) []T {
	if offset >= len(items) {
		return []T{}
	}
	end := offset + limit
	if end > len(items) {
		end = len(items)
	}
	return items[offset:end]
}
