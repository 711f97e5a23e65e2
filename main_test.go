package main

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSchedulerRejectsInvalidExpression(t *testing.T) {
	for _, schedule := range []string{"every hour", "* * *", "61 * * * *", "@hourlyish"} {
		t.Run(schedule, func(t *testing.T) {
			c, err := newScheduler(schedule, func() {})
			require.Error(t, err)
			assert.Nil(t, c)
			assert.Contains(t, err.Error(), "invalid schedule")
		})
	}
}

func TestNewSchedulerAcceptsCronAndDescriptors(t *testing.T) {
	for _, schedule := range []string{"*/15 * * * *", "0 6 * * 1-5", "@hourly", "@every 10m"} {
		t.Run(schedule, func(t *testing.T) {
			c, err := newScheduler(schedule, func() {})
			require.NoError(t, err)
			assert.Len(t, c.Entries(), 1)
		})
	}
}

func TestNewSchedulerSkipsOverlappingRuns(t *testing.T) {
	var started, running int32
	release := make(chan struct{})

	c, err := newScheduler("@every 1s", func() {
		atomic.AddInt32(&started, 1)
		if atomic.AddInt32(&running, 1) > 1 {
			t.Error("runs overlapped")
		}
		<-release
		atomic.AddInt32(&running, -1)
	})
	require.NoError(t, err)

	c.Start()
	time.Sleep(2500 * time.Millisecond)
	close(release)
	<-c.Stop().Done()

	assert.Equal(t, int32(1), atomic.LoadInt32(&started))
}
