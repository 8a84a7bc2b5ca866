// Package client provides the HTTP client for the admin REST backend with
// quota tracking, response caching, retries and error classification.
package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/Sternrassler/admin-datatable/pkg/cache"
	"github.com/Sternrassler/admin-datatable/pkg/ratelimit"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	tracerName = "github.com/Sternrassler/admin-datatable/pkg/client"

	// baselineBackoff is the InitialBackoff the per-class retry configs are tuned for.
	baselineBackoff = 1 * time.Second
)

// Client talks to the admin REST backend.
type Client struct {
	httpClient  *http.Client
	baseURL     *url.URL
	rateLimiter *ratelimit.Tracker
	cache       *cache.Manager
	config      Config
	logger      zerolog.Logger
	tracer      trace.Tracer
}

// Config holds the client configuration.
type Config struct {
	// BaseURL of the backend, e.g. "https://api.example.com" (REQUIRED)
	BaseURL string

	// Redis client for caching and quota state. Nil disables both.
	Redis *redis.Client

	// User-Agent header (REQUIRED)
	// Format: "AppName/Version (contact@example.com)"
	UserAgent string

	// Timeout per HTTP attempt
	Timeout time.Duration

	// Retry
	MaxRetries     int
	InitialBackoff time.Duration

	// QuotaThreshold blocks requests when fewer calls remain.
	// Warning and healthy thresholds are derived from it.
	QuotaThreshold int

	// Logger defaults to the global logger with component=admin-client.
	Logger *zerolog.Logger
}

// DefaultConfig returns a safe default configuration.
func DefaultConfig(redis *redis.Client, baseURL, userAgent string) Config {
	return Config{
		BaseURL:        baseURL,
		Redis:          redis,
		UserAgent:      userAgent,
		Timeout:        30 * time.Second,
		MaxRetries:     2,
		InitialBackoff: 1 * time.Second,
		QuotaThreshold: ratelimit.DefaultThresholdCritical,
	}
}

// New creates a new backend client.
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base url is required")
	}

	baseURL, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if baseURL.Scheme == "" || baseURL.Host == "" {
		return nil, fmt.Errorf("base url must be absolute (got %q)", cfg.BaseURL)
	}

	if cfg.UserAgent == "" {
		return nil, fmt.Errorf("user-agent is required")
	}

	if cfg.QuotaThreshold < 1 {
		return nil, fmt.Errorf("quota_threshold must be >= 1 (got %d)", cfg.QuotaThreshold)
	}

	if cfg.MaxRetries < 0 {
		return nil, fmt.Errorf("max_retries must be >= 0 (got %d)", cfg.MaxRetries)
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = baselineBackoff
	}

	logger := log.With().Str("component", "admin-client").Logger()
	if cfg.Logger != nil {
		logger = *cfg.Logger
	}

	c := &Client{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		baseURL: baseURL,
		config:  cfg,
		logger:  logger,
		tracer:  otel.Tracer(tracerName),
	}

	if cfg.Redis != nil {
		quota := ratelimit.DefaultConfig(baseURL.Host)
		quota.Thresholds = ratelimit.Thresholds{
			Critical: cfg.QuotaThreshold,
			Warning:  cfg.QuotaThreshold * 4,
			Healthy:  cfg.QuotaThreshold * 10,
		}
		c.rateLimiter = ratelimit.NewTracker(cfg.Redis, quota, logger)
		c.cache = cache.NewManager(cfg.Redis)
	} else {
		logger.Debug().Msg("No Redis configured, cache and quota tracking disabled")
	}

	return c, nil
}

// Do performs a request with quota gating, caching and retries.
//
// GET responses are cached in Redis. A fresh entry is served without a
// network call unless the request carries "Cache-Control: no-cache"; an
// expired entry with a validator is revalidated with a conditional request.
// Any final status >= 400 is returned as *APIError.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	resource := req.URL.Path
	ctx, span := c.tracer.Start(req.Context(), "client.do", trace.WithAttributes(
		attribute.String("http.method", req.Method),
		attribute.String("url.path", resource),
	))
	defer span.End()
	req = req.WithContext(ctx)

	startTime := time.Now()
	defer func() {
		requestDuration.WithLabelValues(resource).Observe(time.Since(startTime).Seconds())
	}()

	resp, err := c.do(ctx, req, resource, span)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))
	return resp, nil
}

func (c *Client) do(ctx context.Context, req *http.Request, resource string, span trace.Span) (*http.Response, error) {
	// Step 1: Check quota
	if c.rateLimiter != nil {
		allowed, err := c.rateLimiter.ShouldAllowRequest(ctx)
		if err != nil {
			c.logger.Error().Err(err).Msg("Quota check failed")
			return nil, fmt.Errorf("quota check: %w", err)
		}
		if !allowed {
			c.logger.Warn().
				Str("resource", resource).
				Msg("Request blocked by quota tracker")
			requestsTotal.WithLabelValues(resource, "quota_blocked").Inc()
			return nil, ErrQuotaExhausted
		}
	}

	// Step 2: Check cache
	cacheable := c.cache != nil && req.Method == http.MethodGet
	cacheKey := c.cacheKey(resource, req.URL.Query())
	var cachedEntry *cache.Entry

	if cacheable {
		entry, err := c.cache.Get(ctx, cacheKey)
		switch {
		case err == nil:
			cachedEntry = entry
		case !errors.Is(err, cache.ErrCacheMiss):
			c.logger.Warn().Err(err).Str("resource", resource).Msg("Cache get error")
		}

		if cachedEntry != nil && !cachedEntry.IsExpired() && !wantsRevalidation(req) {
			c.logger.Debug().
				Str("resource", resource).
				Bool("cache_hit", true).
				Msg("Serving response from cache")
			span.SetAttributes(attribute.Bool("cache.hit", true))
			requestsTotal.WithLabelValues(resource, "cache").Inc()
			return cache.EntryToResponse(cachedEntry), nil
		}

		// Step 3: Make conditional request if we hold a validator
		if cache.ShouldMakeConditionalRequest(cachedEntry) {
			cache.AddConditionalHeaders(req, cachedEntry)
			cache.ConditionalRequestsSent.Inc()
			c.logger.Debug().
				Str("resource", resource).
				Str("etag", cachedEntry.ETag).
				Msg("Making conditional request")
		}
	}

	// Step 4: Set headers
	req.Header.Set("User-Agent", c.config.UserAgent)
	req.Header.Set("Accept", "application/json")

	// Step 5: Execute HTTP request with retry logic
	c.logger.Debug().
		Str("resource", resource).
		Str("method", req.Method).
		Msg("Executing backend request")

	var resp *http.Response
	err := retryWithBackoff(ctx, c.logger, c.retryConfig, func() error {
		r, reqErr := c.httpClient.Do(req)
		if reqErr != nil {
			if ctx.Err() != nil {
				return fmt.Errorf("%w: %w", ErrContextCancelled, ctx.Err())
			}
			c.logger.Error().Err(reqErr).Str("resource", resource).Msg("HTTP request failed")
			errorsTotal.WithLabelValues(string(ErrorClassNetwork)).Inc()
			requestsTotal.WithLabelValues(resource, "network_error").Inc()
			return &APIError{
				ErrorClass: ErrorClassNetwork,
				Message:    "request failed",
				Err:        reqErr,
			}
		}

		if c.rateLimiter != nil {
			if err := c.rateLimiter.UpdateFromHeaders(ctx, r.Header); err != nil {
				c.logger.Warn().Err(err).Msg("Failed to update quota from headers")
			}
		}

		if r.StatusCode >= 400 {
			apiErr := newAPIError(r)
			errorsTotal.WithLabelValues(string(apiErr.ErrorClass)).Inc()
			requestsTotal.WithLabelValues(resource, strconv.Itoa(r.StatusCode)).Inc()

			c.logger.Warn().
				Str("resource", resource).
				Int("status_code", r.StatusCode).
				Str("error_class", string(apiErr.ErrorClass)).
				Msg("Backend request error")
			return apiErr
		}

		requestsTotal.WithLabelValues(resource, strconv.Itoa(r.StatusCode)).Inc()
		resp = r
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Step 6: Handle 304 Not Modified
	if resp.StatusCode == http.StatusNotModified && cachedEntry != nil {
		resp.Body.Close()
		c.logger.Debug().Str("resource", resource).Msg("304 Not Modified - using cache")
		cache.NotModifiedResponses.Inc()
		span.SetAttributes(attribute.Bool("cache.revalidated", true))

		newExpires := cache.ParseExpires(resp.Header)
		if err := c.cache.UpdateTTL(ctx, cacheKey, newExpires); err != nil {
			c.logger.Warn().Err(err).Msg("Failed to update cache TTL")
		}
		return cache.EntryToResponse(cachedEntry), nil
	}

	// Step 7: Update cache on success
	if cacheable && resp.StatusCode == http.StatusOK {
		entry, err := cache.ResponseToEntry(resp)
		if err != nil {
			c.logger.Warn().Err(err).Msg("Failed to create cache entry")
		} else if err := c.cache.Set(ctx, cacheKey, entry); err != nil {
			c.logger.Warn().Err(err).Msg("Failed to cache response")
		} else {
			c.logger.Debug().
				Str("resource", resource).
				Dur("ttl", entry.TTL()).
				Msg("Cached response")
		}
	}

	return resp, nil
}

// retryConfig scales the per-class baseline to the configured backoff and
// attempt budget.
func (c *Client) retryConfig(errorClass ErrorClass) RetryConfig {
	rc := RetryConfigForErrorClass(errorClass)
	scale := float64(c.config.InitialBackoff) / float64(baselineBackoff)
	rc.InitialBackoff = time.Duration(float64(rc.InitialBackoff) * scale)
	rc.MaxBackoff = time.Duration(float64(rc.MaxBackoff) * scale)
	rc.MaxAttempts = c.config.MaxRetries + 1
	return rc
}

func (c *Client) cacheKey(resource string, values url.Values) cache.Key {
	return cache.Key{
		Resource: resource,
		Query:    values,
		Scope:    c.baseURL.Host,
	}
}

func wantsRevalidation(req *http.Request) bool {
	return strings.Contains(strings.ToLower(req.Header.Get("Cache-Control")), "no-cache")
}

// URL resolves a resource path and query against the base URL.
func (c *Client) URL(resource string, values url.Values) string {
	u := c.baseURL.JoinPath(resource)
	if len(values) > 0 {
		u.RawQuery = values.Encode()
	}
	return u.String()
}

// Get performs a GET request to a backend resource.
func (c *Client) Get(ctx context.Context, resource string, values url.Values) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.URL(resource, values), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	return c.Do(req)
}

// Invalidate drops every cached page of resource. It returns the number of
// purged entries; without Redis it is a no-op.
func (c *Client) Invalidate(ctx context.Context, resource string) (int, error) {
	if c.cache == nil {
		return 0, nil
	}
	n, err := c.cache.Purge(ctx, c.cacheKey(resource, nil))
	if err != nil {
		return n, fmt.Errorf("invalidate %s: %w", resource, err)
	}
	c.logger.Debug().Str("resource", resource).Int("purged", n).Msg("Cache invalidated")
	return n, nil
}

// Close releases idle connections.
func (c *Client) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}

// SetHTTPClient sets a custom HTTP client (for testing).
func (c *Client) SetHTTPClient(client *http.Client) {
	c.httpClient = client
}

// Cache returns the cache manager, nil without Redis.
func (c *Client) Cache() *cache.Manager {
	return c.cache
}
