package client

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Sternrassler/admin-datatable/pkg/query"
	"github.com/Sternrassler/admin-datatable/pkg/ratelimit"
	"github.com/redis/go-redis/v9"
)

const testUserAgent = "AdminTable/1.0.0 (test@example.com)"

// setupTestRedis creates a test Redis client.
func setupTestRedis(t *testing.T) *redis.Client {
	t.Helper()

	client := redis.NewClient(&redis.Options{
		Addr: "localhost:6379",
		DB:   15,
	})

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("Redis not available for testing: %v", err)
	}
	if err := client.FlushDB(ctx).Err(); err != nil {
		t.Fatalf("Failed to flush test DB: %v", err)
	}

	t.Cleanup(func() {
		client.FlushDB(context.Background())
		client.Close()
	})

	return client
}

// newTestClient creates a client against server with millisecond backoff.
func newTestClient(t *testing.T, server *httptest.Server, redisClient *redis.Client) *Client {
	t.Helper()

	cfg := DefaultConfig(redisClient, server.URL, testUserAgent)
	cfg.InitialBackoff = time.Millisecond
	c, err := New(cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

type cohort struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

func TestNew_Validation(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(*Config)
		expectError bool
	}{
		{
			name:   "valid config",
			mutate: func(*Config) {},
		},
		{
			name:        "missing base url",
			mutate:      func(c *Config) { c.BaseURL = "" },
			expectError: true,
		},
		{
			name:        "relative base url",
			mutate:      func(c *Config) { c.BaseURL = "/v1" },
			expectError: true,
		},
		{
			name:        "missing user agent",
			mutate:      func(c *Config) { c.UserAgent = "" },
			expectError: true,
		},
		{
			name:        "quota threshold too low",
			mutate:      func(c *Config) { c.QuotaThreshold = 0 },
			expectError: true,
		},
		{
			name:        "negative retries",
			mutate:      func(c *Config) { c.MaxRetries = -1 },
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig(nil, "https://api.example.com", testUserAgent)
			tt.mutate(&cfg)

			_, err := New(cfg)
			if (err != nil) != tt.expectError {
				t.Errorf("New() error = %v, expectError %v", err, tt.expectError)
			}
		})
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig(nil, "https://api.example.com", testUserAgent)

	if cfg.UserAgent != testUserAgent {
		t.Errorf("UserAgent = %q", cfg.UserAgent)
	}
	if cfg.Timeout != 30*time.Second {
		t.Errorf("Timeout = %v, want 30s", cfg.Timeout)
	}
	if cfg.QuotaThreshold != ratelimit.DefaultThresholdCritical {
		t.Errorf("QuotaThreshold = %d, want %d", cfg.QuotaThreshold, ratelimit.DefaultThresholdCritical)
	}
}

func TestNew_WithoutRedis(t *testing.T) {
	c, err := New(DefaultConfig(nil, "https://api.example.com", testUserAgent))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if c.Cache() != nil {
		t.Error("Cache() should be nil without Redis")
	}
	if n, err := c.Invalidate(context.Background(), "/v1/admissions/cohort"); n != 0 || err != nil {
		t.Errorf("Invalidate() = %d, %v, want 0, nil", n, err)
	}
}

func TestClient_URL(t *testing.T) {
	c, err := New(DefaultConfig(nil, "https://api.example.com/api", testUserAgent))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	got := c.URL("/v1/admissions/cohort", query.State{Limit: 10, Offset: 20, Sort: "-name"}.Values())
	want := "https://api.example.com/api/v1/admissions/cohort?limit=10&offset=20&sort=-name"
	if got != want {
		t.Errorf("URL() = %q, want %q", got, want)
	}
}

func TestDo_HeadersSet(t *testing.T) {
	var userAgent, accept string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userAgent = r.Header.Get("User-Agent")
		accept = r.Header.Get("Accept")
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	c := newTestClient(t, server, nil)
	resp, err := c.Get(context.Background(), "/v1/admissions/cohort", nil)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	resp.Body.Close()

	if userAgent != testUserAgent {
		t.Errorf("User-Agent = %q, want %q", userAgent, testUserAgent)
	}
	if accept != "application/json" {
		t.Errorf("Accept = %q, want application/json", accept)
	}
}

func TestDo_NoRetryOnClientError(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"detail": "Cohort not found"}`))
	}))
	defer server.Close()

	c := newTestClient(t, server, nil)
	_, err := c.Get(context.Background(), "/v1/admissions/cohort/99", nil)

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("Expected *APIError, got %v", err)
	}
	if apiErr.StatusCode != http.StatusNotFound || apiErr.ErrorClass != ErrorClassClient {
		t.Errorf("APIError = %+v", apiErr)
	}
	if apiErr.Message != "Cohort not found" {
		t.Errorf("Message = %q", apiErr.Message)
	}
	if calls.Load() != 1 {
		t.Errorf("Expected 1 call, got %d", calls.Load())
	}
}

func TestDo_RetryOnServerError(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"results": [], "count": 0}`))
	}))
	defer server.Close()

	c := newTestClient(t, server, nil)
	resp, err := c.Get(context.Background(), "/v1/admissions/cohort", nil)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	resp.Body.Close()

	if calls.Load() != 3 {
		t.Errorf("Expected 3 calls, got %d", calls.Load())
	}
}

func TestDo_RetryOnRateLimit(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	c := newTestClient(t, server, nil)
	resp, err := c.Get(context.Background(), "/v1/admissions/cohort", nil)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	resp.Body.Close()

	if calls.Load() != 2 {
		t.Errorf("Expected 2 calls, got %d", calls.Load())
	}
}

func TestDo_RetryExhausted(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	c := newTestClient(t, server, nil)
	_, err := c.Get(context.Background(), "/v1/admissions/cohort", nil)

	if !errors.Is(err, ErrRetryExhausted) {
		t.Errorf("Expected ErrRetryExhausted, got %v", err)
	}
	// DefaultConfig allows two retries.
	if calls.Load() != 3 {
		t.Errorf("Expected 3 calls, got %d", calls.Load())
	}
}

func TestDo_CacheHit(t *testing.T) {
	redisClient := setupTestRedis(t)

	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Cache-Control", "max-age=300")
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"results": [{"id": 1, "name": "Miami"}], "count": 1}`))
	}))
	defer server.Close()

	c := newTestClient(t, server, redisClient)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		resp, err := c.Get(ctx, "/v1/admissions/cohort", nil)
		if err != nil {
			t.Fatalf("Get() #%d error = %v", i+1, err)
		}
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		if len(body) == 0 {
			t.Errorf("Get() #%d returned an empty body", i+1)
		}
	}

	if calls.Load() != 1 {
		t.Errorf("Expected 1 backend call, got %d", calls.Load())
	}
}

func TestDo_Revalidate304(t *testing.T) {
	redisClient := setupTestRedis(t)

	var calls, conditional atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if r.Header.Get("If-None-Match") == `"page-v1"` {
			conditional.Add(1)
			w.Header().Set("Cache-Control", "max-age=60")
			w.WriteHeader(http.StatusNotModified)
			return
		}
		w.Header().Set("ETag", `"page-v1"`)
		w.Header().Set("Cache-Control", "max-age=60")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"results": [{"id": 1, "name": "Miami"}], "count": 1}`))
	}))
	defer server.Close()

	c := newTestClient(t, server, redisClient)
	ctx := context.Background()

	resp, err := c.Get(ctx, "/v1/admissions/cohort", nil)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	resp.Body.Close()

	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, c.URL("/v1/admissions/cohort", nil), nil)
	req.Header.Set("Cache-Control", "no-cache")
	resp, err = c.Do(req)
	if err != nil {
		t.Fatalf("Do() error = %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("StatusCode = %d, want cached 200", resp.StatusCode)
	}
	if string(body) != `{"results": [{"id": 1, "name": "Miami"}], "count": 1}` {
		t.Errorf("Body = %s", body)
	}
	if calls.Load() != 2 || conditional.Load() != 1 {
		t.Errorf("calls = %d, conditional = %d, want 2 and 1", calls.Load(), conditional.Load())
	}
}

func TestDo_QuotaBlock(t *testing.T) {
	redisClient := setupTestRedis(t)

	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set(ratelimit.HeaderRemaining, "1")
		w.Header().Set(ratelimit.HeaderReset, "60")
		w.Header().Set("Cache-Control", "no-store")
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	c := newTestClient(t, server, redisClient)
	ctx := context.Background()

	resp, err := c.Get(ctx, "/v1/admissions/cohort", nil)
	if err != nil {
		t.Fatalf("First Get() error = %v", err)
	}
	resp.Body.Close()

	if _, err := c.Get(ctx, "/v1/admissions/cohort", nil); !errors.Is(err, ErrQuotaExhausted) {
		t.Errorf("Second Get() error = %v, want ErrQuotaExhausted", err)
	}
	if calls.Load() != 1 {
		t.Errorf("Expected 1 backend call, got %d", calls.Load())
	}
}
