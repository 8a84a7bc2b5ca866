// Package ratelimit tracks the backend request quota and gates requests.
// It reads the X-RateLimit-Remaining and X-RateLimit-Reset headers and
// shares the resulting state across client instances through Redis.
package ratelimit

import (
	"time"
)

// Quota headers sent by the backend.
const (
	HeaderRemaining = "X-RateLimit-Remaining"
	HeaderReset     = "X-RateLimit-Reset"
)

// Redis key suffixes for quota state storage. Keys are built by Config.key.
const (
	keyRemaining  = "remaining"
	keyReset      = "reset_timestamp"
	keyLastUpdate = "last_update"
)

// Default thresholds for quota decisions.
const (
	// DefaultThresholdCritical blocks all requests below this many remaining calls.
	DefaultThresholdCritical = 5

	// DefaultThresholdWarning throttles requests below this many remaining calls.
	DefaultThresholdWarning = 20

	// DefaultThresholdHealthy marks the quota healthy at or above this value.
	DefaultThresholdHealthy = 50

	// DefaultThrottleDelay is the pause applied to throttled requests.
	DefaultThrottleDelay = 1 * time.Second
)

// Thresholds decide when the quota blocks or throttles requests.
type Thresholds struct {
	Critical int
	Warning  int
	Healthy  int
}

// DefaultThresholds returns the default thresholds.
func DefaultThresholds() Thresholds {
	return Thresholds{
		Critical: DefaultThresholdCritical,
		Warning:  DefaultThresholdWarning,
		Healthy:  DefaultThresholdHealthy,
	}
}

// QuotaState is the last known backend quota.
type QuotaState struct {
	// Remaining is the number of calls left in the window (X-RateLimit-Remaining).
	Remaining int `json:"remaining"`

	// ResetAt is when the window resets (now + X-RateLimit-Reset seconds).
	ResetAt time.Time `json:"reset_at"`

	// LastUpdate is when the state was last written.
	LastUpdate time.Time `json:"last_update"`

	// IsHealthy is true when Remaining >= Thresholds.Healthy.
	IsHealthy bool `json:"is_healthy"`

	thresholds Thresholds
}

// NewQuotaState creates a state evaluated against the given thresholds.
func NewQuotaState(remaining int, resetAt time.Time, thresholds Thresholds) *QuotaState {
	s := &QuotaState{
		Remaining:  remaining,
		ResetAt:    resetAt,
		LastUpdate: time.Now(),
		thresholds: thresholds,
	}
	s.UpdateHealth()
	return s
}

// IsStale returns true if the state is older than maxAge.
func (s *QuotaState) IsStale(maxAge time.Duration) bool {
	return time.Since(s.LastUpdate) > maxAge
}

// NeedsCriticalBlock returns true if requests must be blocked.
func (s *QuotaState) NeedsCriticalBlock() bool {
	return s.Remaining < s.thresholds.Critical
}

// NeedsThrottling returns true if requests should be slowed down.
func (s *QuotaState) NeedsThrottling() bool {
	return s.Remaining < s.thresholds.Warning && !s.NeedsCriticalBlock()
}

// TimeUntilReset returns the duration until the quota window resets.
// Returns 0 if the reset time has already passed.
func (s *QuotaState) TimeUntilReset() time.Duration {
	duration := time.Until(s.ResetAt)
	if duration < 0 {
		return 0
	}
	return duration
}

// UpdateHealth recomputes IsHealthy from Remaining.
func (s *QuotaState) UpdateHealth() {
	s.IsHealthy = s.Remaining >= s.thresholds.Healthy
}
