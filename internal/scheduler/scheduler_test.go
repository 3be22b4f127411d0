package scheduler

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArmFiresOnce(t *testing.T) {
	s := New()
	var fired int32

	epoch := s.Arm("tick", 10*time.Millisecond, func(e uint64) {
		if s.IsCurrent("tick", e) {
			atomic.AddInt32(&fired, 1)
		}
	})
	require.NotZero(t, epoch)

	time.Sleep(50 * time.Millisecond)
	assert.EqualValues(t, 1, atomic.LoadInt32(&fired))
}

func TestCancelMakesCallbackStale(t *testing.T) {
	s := New()
	var fired int32

	s.Arm("buzzer", 10*time.Millisecond, func(e uint64) {
		if s.IsCurrent("buzzer", e) {
			atomic.AddInt32(&fired, 1)
		}
	})
	s.Cancel("buzzer")

	time.Sleep(50 * time.Millisecond)
	assert.EqualValues(t, 0, atomic.LoadInt32(&fired))
}

func TestReArmInvalidatesPreviousEpoch(t *testing.T) {
	s := New()
	var firstFired, secondFired int32

	firstEpoch := s.Arm("phase", 20*time.Millisecond, func(e uint64) {
		if s.IsCurrent("phase", e) {
			atomic.AddInt32(&firstFired, 1)
		}
	})

	secondEpoch := s.Arm("phase", 5*time.Millisecond, func(e uint64) {
		if s.IsCurrent("phase", e) {
			atomic.AddInt32(&secondFired, 1)
		}
	})

	assert.NotEqual(t, firstEpoch, secondEpoch)

	time.Sleep(50 * time.Millisecond)
	assert.EqualValues(t, 0, atomic.LoadInt32(&firstFired))
	assert.EqualValues(t, 1, atomic.LoadInt32(&secondFired))
}

func TestCancelAllStopsEverything(t *testing.T) {
	s := New()
	var fired int32

	for _, name := range []string{"a", "b", "c"} {
		s.Arm(name, 10*time.Millisecond, func(e uint64) {
			atomic.AddInt32(&fired, 1)
		})
	}
	s.CancelAll()

	time.Sleep(30 * time.Millisecond)
	assert.True(t, atomic.LoadInt32(&fired) <= 3)
	for _, name := range []string{"a", "b", "c"} {
		assert.False(t, s.Armed(name))
	}
}

func TestCancelPrefixOnlyAffectsMatchingTimers(t *testing.T) {
	s := New()
	s.Arm("bot:1:word", time.Hour, func(uint64) {})
	s.Arm("bot:2:word", time.Hour, func(uint64) {})
	s.Arm("votingTimer", time.Hour, func(uint64) {})

	s.CancelPrefix("bot:")

	assert.False(t, s.Armed("bot:1:word"))
	assert.False(t, s.Armed("bot:2:word"))
	assert.True(t, s.Armed("votingTimer"))
}
