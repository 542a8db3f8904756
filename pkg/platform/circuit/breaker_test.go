package circuit

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// step is one recorded outcome and the breaker state expected after it.
type step struct {
	fail      bool
	wantOpen  bool
	opened    bool
	closed    bool
	useBackup bool
}

func replay(t *testing.T, b *Breaker, steps []step) {
	t.Helper()
	for i, s := range steps {
		if s.fail {
			useFallback, change := b.RecordFailure()
			assert.Equal(t, s.useBackup, useFallback, "step %d fallback", i)
			assert.Equal(t, s.opened, change.Opened, "step %d opened", i)
		} else {
			usePrimary, change := b.RecordSuccess()
			assert.Equal(t, !s.useBackup, usePrimary, "step %d primary", i)
			assert.Equal(t, s.closed, change.Closed, "step %d closed", i)
		}
		require.Equal(t, s.wantOpen, b.IsOpen(), "step %d state", i)
	}
}

func TestBreaker_Transitions(t *testing.T) {
	tests := []struct {
		name  string
		opts  []Option
		steps []step
	}{
		{
			name: "opens on the threshold failure",
			opts: []Option{WithFailureThreshold(3)},
			steps: []step{
				{fail: true},
				{fail: true},
				{fail: true, wantOpen: true, opened: true, useBackup: true},
				{fail: true, wantOpen: true, useBackup: true},
			},
		},
		{
			name: "success clears the failure run",
			opts: []Option{WithFailureThreshold(2)},
			steps: []step{
				{fail: true},
				{},
				{fail: true},
				{fail: true, wantOpen: true, opened: true, useBackup: true},
			},
		},
		{
			name: "closes after the success run",
			opts: []Option{WithFailureThreshold(1), WithSuccessThreshold(2)},
			steps: []step{
				{fail: true, wantOpen: true, opened: true, useBackup: true},
				{wantOpen: true, useBackup: true},
				{closed: true},
			},
		},
		{
			name: "failure while open restarts the success run",
			opts: []Option{WithFailureThreshold(1), WithSuccessThreshold(2)},
			steps: []step{
				{fail: true, wantOpen: true, opened: true, useBackup: true},
				{wantOpen: true, useBackup: true},
				{fail: true, wantOpen: true, useBackup: true},
				{wantOpen: true, useBackup: true},
				{closed: true},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			replay(t, New("eligibility-cache", tt.opts...), tt.steps)
		})
	}
}

func TestBreaker_Defaults(t *testing.T) {
	b := New("eligibility-cache")
	assert.Equal(t, "eligibility-cache", b.Name())
	assert.Equal(t, StateClosed, b.State())

	for i := 0; i < 4; i++ {
		b.RecordFailure()
	}
	assert.False(t, b.IsOpen(), "default threshold is five")
	b.RecordFailure()
	assert.True(t, b.IsOpen())

	b.Reset()
	assert.Equal(t, StateClosed, b.State())
	assert.True(t, b.Allow())
}

func TestBreaker_AllowProbesAfterCooldown(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	b := New("eligibility-cache",
		WithFailureThreshold(1),
		WithCooldown(30*time.Second),
		withClock(func() time.Time { return now }),
	)

	assert.True(t, b.Allow(), "closed breaker admits calls")

	b.RecordFailure()
	assert.False(t, b.Allow(), "open breaker rejects calls during cooldown")

	now = now.Add(30 * time.Second)
	assert.True(t, b.Allow(), "one trial call after cooldown")
	assert.False(t, b.Allow(), "next trial call waits another cooldown")

	_, change := b.RecordSuccess()
	assert.True(t, change.Closed)
	assert.True(t, b.Allow())
}

func TestBreaker_ConcurrentFailuresOpenOnce(t *testing.T) {
	b := New("eligibility-cache", WithFailureThreshold(10))

	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		opened int
	)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, change := b.RecordFailure(); change.Opened {
				mu.Lock()
				opened++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, opened)
	assert.True(t, b.IsOpen())
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "closed", StateClosed.String())
	assert.Equal(t, "open", StateOpen.String())
}
