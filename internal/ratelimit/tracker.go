// Package ratelimit tracks recent LLM call volume and token consumption in a
// sliding one-minute window and decides when to pause before issuing more
// calls. It performs no network calls itself; callers consult it before every
// provider request and record usage after each success.
package ratelimit

import (
	"sync"
	"time"

	"github.com/rs/zerolog"

	"docanalyzer/internal/logger"
)

// Reason identifies which budget triggered a pause.
type Reason string

const (
	ReasonNone     Reason = ""
	ReasonRequests Reason = "requests"
	ReasonTokens   Reason = "tokens"
)

const window = time.Minute

// Limits configures the sliding-window budgets. Pause thresholds sit below
// the hard provider limits to leave a safety margin.
type Limits struct {
	MaxRequestsPerMinute   int
	MaxTokensPerMinute     int
	PauseThresholdRequests int
	PauseThresholdTokens   int
}

// DefaultLimits returns conservative budgets for a Tier 1 gpt-4o-mini quota
// (real limits 3000 requests and 200K tokens per minute).
func DefaultLimits() Limits {
	return Limits{
		MaxRequestsPerMinute:   500,
		MaxTokensPerMinute:     150_000,
		PauseThresholdRequests: 450,
		PauseThresholdTokens:   130_000,
	}
}

// Tracker is process-wide shared mutable state: every concurrent answering
// task consults and updates it. The request-time and token-count sequences
// are appended and pruned in lockstep under one lock so totals never drift.
type Tracker struct {
	mu           sync.Mutex
	limits       Limits
	now          func() time.Time
	requestTimes []time.Time
	tokenCounts  []int
	log          zerolog.Logger
}

// NewTracker creates a tracker with the given limits.
func NewTracker(limits Limits) *Tracker {
	return &Tracker{
		limits: limits,
		now:    time.Now,
		log:    logger.WithComponent("ratelimit"),
	}
}

// ShouldPause reports whether the caller should pause before the next
// request, and which budget triggered the pause. Entries older than the
// window are pruned first.
func (t *Tracker) ShouldPause() (bool, Reason) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.prune(t.now())

	requests := len(t.requestTimes)
	tokens := t.totalTokens()

	t.log.Debug().
		Int("requests", requests).
		Int("tokens", tokens).
		Msg("Rate window state")

	if requests >= t.limits.PauseThresholdRequests {
		t.log.Warn().
			Int("requests", requests).
			Int("limit", t.limits.MaxRequestsPerMinute).
			Msg("Approaching request limit")
		return true, ReasonRequests
	}

	if tokens >= t.limits.PauseThresholdTokens {
		t.log.Warn().
			Int("tokens", tokens).
			Int("limit", t.limits.MaxTokensPerMinute).
			Msg("Approaching token limit")
		return true, ReasonTokens
	}

	return false, ReasonNone
}

// Record registers one completed request and its token usage as a single
// atomic unit.
func (t *Tracker) Record(tokensUsed int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	t.requestTimes = append(t.requestTimes, now)
	t.tokenCounts = append(t.tokenCounts, tokensUsed)
	t.prune(now)
}

// PauseDuration returns how long to sleep for the given pause reason.
// For the request budget it is the time until the oldest request exits the
// window plus a buffer, floored at 10s; token decay is less predictable, so
// that budget gets a fixed conservative delay.
func (t *Tracker) PauseDuration(reason Reason) time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()

	switch reason {
	case ReasonRequests:
		if len(t.requestTimes) > 0 {
			oldest := t.requestTimes[0]
			untilReset := window - t.now().Sub(oldest) + 5*time.Second
			if untilReset < 10*time.Second {
				untilReset = 10 * time.Second
			}
			return untilReset
		}
	case ReasonTokens:
		return 30 * time.Second
	}
	return 15 * time.Second
}

// Snapshot returns the current request and token totals within the window.
func (t *Tracker) Snapshot() (requests, tokens int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.prune(t.now())
	return len(t.requestTimes), t.totalTokens()
}

// prune drops entries older than the window. requestTimes is append-only in
// time order, so a single cut index keeps both sequences aligned.
// Callers must hold t.mu.
func (t *Tracker) prune(now time.Time) {
	horizon := now.Add(-window)
	cut := 0
	for cut < len(t.requestTimes) && !t.requestTimes[cut].After(horizon) {
		cut++
	}
	if cut > 0 {
		t.requestTimes = append(t.requestTimes[:0], t.requestTimes[cut:]...)
		t.tokenCounts = append(t.tokenCounts[:0], t.tokenCounts[cut:]...)
	}
}

func (t *Tracker) totalTokens() int {
	total := 0
	for _, n := range t.tokenCounts {
		total += n
	}
	return total
}
