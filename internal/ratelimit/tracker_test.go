package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock lets tests advance time deterministically.
type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time {
	return c.t
}

func (c *fakeClock) advance(d time.Duration) {
	c.t = c.t.Add(d)
}

func newTestTracker(limits Limits) (*Tracker, *fakeClock) {
	clock := &fakeClock{t: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	tracker := NewTracker(limits)
	tracker.now = clock.now
	return tracker, clock
}

func TestShouldPauseBelowThresholds(t *testing.T) {
	tracker, _ := newTestTracker(DefaultLimits())

	for i := 0; i < 100; i++ {
		tracker.Record(500)
	}

	pause, reason := tracker.ShouldPause()
	assert.False(t, pause)
	assert.Equal(t, ReasonNone, reason)
}

func TestShouldPauseOnRequestThreshold(t *testing.T) {
	tracker, _ := newTestTracker(DefaultLimits())

	for i := 0; i < 450; i++ {
		tracker.Record(0)
	}

	pause, reason := tracker.ShouldPause()
	require.True(t, pause)
	assert.Equal(t, ReasonRequests, reason)
}

func TestShouldPauseOnTokenThreshold(t *testing.T) {
	tracker, _ := newTestTracker(DefaultLimits())

	for i := 0; i < 10; i++ {
		tracker.Record(13_000)
	}

	pause, reason := tracker.ShouldPause()
	require.True(t, pause)
	assert.Equal(t, ReasonTokens, reason)
}

func TestRequestThresholdWinsOverTokens(t *testing.T) {
	tracker, _ := newTestTracker(DefaultLimits())

	for i := 0; i < 450; i++ {
		tracker.Record(1_000)
	}

	pause, reason := tracker.ShouldPause()
	require.True(t, pause)
	assert.Equal(t, ReasonRequests, reason)
}

func TestPruneDropsExpiredEntries(t *testing.T) {
	tracker, clock := newTestTracker(DefaultLimits())

	tracker.Record(10_000)
	clock.advance(30 * time.Second)
	tracker.Record(20_000)

	requests, tokens := tracker.Snapshot()
	assert.Equal(t, 2, requests)
	assert.Equal(t, 30_000, tokens)

	// The first entry falls out of the window; its tokens leave with it.
	clock.advance(31 * time.Second)
	requests, tokens = tracker.Snapshot()
	assert.Equal(t, 1, requests)
	assert.Equal(t, 20_000, tokens)

	clock.advance(time.Minute)
	requests, tokens = tracker.Snapshot()
	assert.Zero(t, requests)
	assert.Zero(t, tokens)
}

func TestPauseDurationForRequests(t *testing.T) {
	tracker, clock := newTestTracker(DefaultLimits())

	tracker.Record(0)
	clock.advance(20 * time.Second)

	// Oldest request resets in 40s; plus the 5s buffer.
	assert.Equal(t, 45*time.Second, tracker.PauseDuration(ReasonRequests))
}

func TestPauseDurationFloor(t *testing.T) {
	tracker, clock := newTestTracker(DefaultLimits())

	tracker.Record(0)
	clock.advance(59 * time.Second)

	// Nearly expired oldest request would suggest 6s; the floor applies.
	assert.Equal(t, 10*time.Second, tracker.PauseDuration(ReasonRequests))
}

func TestPauseDurationForTokens(t *testing.T) {
	tracker, _ := newTestTracker(DefaultLimits())
	assert.Equal(t, 30*time.Second, tracker.PauseDuration(ReasonTokens))
}

func TestPauseDurationDefault(t *testing.T) {
	tracker, _ := newTestTracker(DefaultLimits())
	assert.Equal(t, 15*time.Second, tracker.PauseDuration(ReasonNone))
	assert.Equal(t, 15*time.Second, tracker.PauseDuration(ReasonRequests))
}

func TestSnapshotDoesNotMutateBeyondPruning(t *testing.T) {
	tracker, _ := newTestTracker(DefaultLimits())
	tracker.Record(100)

	first, _ := tracker.Snapshot()
	second, _ := tracker.Snapshot()
	assert.Equal(t, first, second)
}

func TestConcurrentRecordAndCheck(t *testing.T) {
	tracker := NewTracker(DefaultLimits())

	done := make(chan struct{})
	for i := 0; i < 10; i++ {
		go func() {
			defer func() { done <- struct{}{} }()
			for j := 0; j < 100; j++ {
				tracker.Record(10)
				tracker.ShouldPause()
				tracker.Snapshot()
			}
		}()
	}
	for i := 0; i < 10; i++ {
		<-done
	}

	requests, tokens := tracker.Snapshot()
	assert.Equal(t, 1000, requests)
	assert.Equal(t, 10_000, tokens)
}
