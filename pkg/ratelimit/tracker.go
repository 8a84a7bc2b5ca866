package ratelimit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Prometheus metrics for quota tracking.
var (
	quotaRemaining = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "admin_quota_remaining",
		Help: "Number of backend calls remaining in the current quota window",
	}, []string{"scope"})

	quotaBlocksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "admin_quota_blocks_total",
		Help: "Total number of requests blocked due to critical quota",
	}, []string{"scope"})

	quotaThrottlesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "admin_quota_throttles_total",
		Help: "Total number of requests throttled due to warning quota",
	}, []string{"scope"})
)

// Config configures a Tracker.
type Config struct {
	// Scope separates backends sharing one Redis (usually the API host).
	Scope string

	// Thresholds decide blocking and throttling.
	Thresholds Thresholds

	// ThrottleDelay is the pause applied below the warning threshold.
	ThrottleDelay time.Duration
}

// DefaultConfig returns a config with default thresholds for scope.
func DefaultConfig(scope string) Config {
	return Config{
		Scope:         scope,
		Thresholds:    DefaultThresholds(),
		ThrottleDelay: DefaultThrottleDelay,
	}
}

func (c Config) key(suffix string) string {
	if c.Scope == "" {
		return "admin:quota:" + suffix
	}
	return "admin:quota:" + c.Scope + ":" + suffix
}

// Tracker monitors the backend quota and gates requests.
type Tracker struct {
	redis  *redis.Client
	cfg    Config
	logger zerolog.Logger
}

// NewTracker creates a new quota tracker.
func NewTracker(redisClient *redis.Client, cfg Config, logger zerolog.Logger) *Tracker {
	if cfg.Thresholds == (Thresholds{}) {
		cfg.Thresholds = DefaultThresholds()
	}
	return &Tracker{
		redis:  redisClient,
		cfg:    cfg,
		logger: logger,
	}
}

// GetState retrieves the current quota state from Redis.
// Returns a healthy default state if nothing has been recorded yet.
func (t *Tracker) GetState(ctx context.Context) (*QuotaState, error) {
	values, err := t.redis.MGet(ctx,
		t.cfg.key(keyRemaining),
		t.cfg.key(keyReset),
		t.cfg.key(keyLastUpdate),
	).Result()
	if err != nil {
		return nil, fmt.Errorf("get quota state: %w", err)
	}

	if values[0] == nil {
		t.logger.Debug().Msg("No quota state in Redis, returning default healthy state")
		state := NewQuotaState(t.cfg.Thresholds.Healthy*2, time.Now().Add(60*time.Second), t.cfg.Thresholds)
		return state, nil
	}

	remaining, err := strconv.Atoi(fmt.Sprint(values[0]))
	if err != nil {
		return nil, fmt.Errorf("parse remaining: %w", err)
	}

	var resetUnix int64
	if values[1] != nil {
		resetUnix, err = strconv.ParseInt(fmt.Sprint(values[1]), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("parse reset timestamp: %w", err)
		}
	}

	state := &QuotaState{
		Remaining:  remaining,
		ResetAt:    time.Unix(resetUnix, 0),
		thresholds: t.cfg.Thresholds,
	}
	if values[2] != nil {
		if err := json.Unmarshal([]byte(fmt.Sprint(values[2])), &state.LastUpdate); err != nil {
			return nil, fmt.Errorf("parse last update: %w", err)
		}
	}
	state.UpdateHealth()

	return state, nil
}

// UpdateFromHeaders parses the quota headers and stores the state in Redis.
// Responses without quota headers are ignored.
func (t *Tracker) UpdateFromHeaders(ctx context.Context, headers http.Header) error {
	remainStr := headers.Get(HeaderRemaining)
	if remainStr == "" {
		return nil
	}

	remain, err := strconv.Atoi(remainStr)
	if err != nil {
		return fmt.Errorf("parse %s header: %w", HeaderRemaining, err)
	}

	resetStr := headers.Get(HeaderReset)
	if resetStr == "" {
		return fmt.Errorf("%s header missing", HeaderReset)
	}

	resetSeconds, err := strconv.Atoi(resetStr)
	if err != nil {
		return fmt.Errorf("parse %s header: %w", HeaderReset, err)
	}

	state := NewQuotaState(remain, time.Now().Add(time.Duration(resetSeconds)*time.Second), t.cfg.Thresholds)

	lastUpdateJSON, err := json.Marshal(state.LastUpdate)
	if err != nil {
		return fmt.Errorf("marshal last update: %w", err)
	}

	// Expire with the window so a stale quota never blocks forever.
	ttl := state.TimeUntilReset() + time.Minute
	pipe := t.redis.TxPipeline()
	pipe.Set(ctx, t.cfg.key(keyRemaining), remain, ttl)
	pipe.Set(ctx, t.cfg.key(keyReset), state.ResetAt.Unix(), ttl)
	pipe.Set(ctx, t.cfg.key(keyLastUpdate), lastUpdateJSON, ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("store quota state in redis: %w", err)
	}

	quotaRemaining.WithLabelValues(t.cfg.Scope).Set(float64(remain))

	switch {
	case state.NeedsCriticalBlock():
		t.logger.Error().
			Int("remaining", remain).
			Time("reset_at", state.ResetAt).
			Msg("Backend quota CRITICAL - requests will be blocked")
	case state.NeedsThrottling():
		t.logger.Warn().
			Int("remaining", remain).
			Time("reset_at", state.ResetAt).
			Msg("Backend quota WARNING - requests will be throttled")
	default:
		t.logger.Debug().
			Int("remaining", remain).
			Time("reset_at", state.ResetAt).
			Bool("is_healthy", state.IsHealthy).
			Msg("Backend quota updated")
	}

	return nil
}

// ShouldAllowRequest reports whether a request may be sent.
// Below the critical threshold it returns false. Below the warning threshold
// it waits ThrottleDelay (or until ctx is done) and then returns true.
func (t *Tracker) ShouldAllowRequest(ctx context.Context) (bool, error) {
	state, err := t.GetState(ctx)
	if err != nil {
		return false, fmt.Errorf("get quota state: %w", err)
	}

	if state.NeedsCriticalBlock() {
		t.logger.Error().
			Int("remaining", state.Remaining).
			Dur("wait_duration", state.TimeUntilReset()).
			Msg("Backend quota critical - blocking request")

		quotaBlocksTotal.WithLabelValues(t.cfg.Scope).Inc()
		return false, nil
	}

	if state.NeedsThrottling() {
		t.logger.Warn().
			Int("remaining", state.Remaining).
			Msg("Backend quota warning - throttling request")

		quotaThrottlesTotal.WithLabelValues(t.cfg.Scope).Inc()

		timer := time.NewTimer(t.cfg.ThrottleDelay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return false, ctx.Err()
		case <-timer.C:
		}
	}

	return true, nil
}

// Reset removes the stored quota state.
func (t *Tracker) Reset(ctx context.Context) error {
	err := t.redis.Del(ctx,
		t.cfg.key(keyRemaining),
		t.cfg.key(keyReset),
		t.cfg.key(keyLastUpdate),
	).Err()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("reset quota state: %w", err)
	}
	return nil
}
