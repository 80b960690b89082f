package task

import (
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
)

func TestTickerTaskRunsOnEveryTick(t *testing.T) {
	var runs int32
	mockClock := clock.NewMock()
	ticker := NewTickerTaskWithOptions(Options{
		Interval: time.Minute,
		Runner:   FuncRunner(func() error { atomic.AddInt32(&runs, 1); return nil }),
		Clock:    mockClock,
	})

	ticker.Start()
	assert.Equal(t, int32(1), atomic.LoadInt32(&runs), "initial run")

	for i := int32(2); i <= 4; i++ {
		mockClock.Add(time.Minute)
		expected := i
		assert.Eventually(t, func() bool { return atomic.LoadInt32(&runs) == expected }, time.Second, time.Millisecond)
	}

	ticker.Stop()
	<-ticker.Done()
}

func TestTickerTaskSkipInitialRun(t *testing.T) {
	var runs int32
	ticker := NewTickerTaskWithOptions(Options{
		Runner:         FuncRunner(func() error { atomic.AddInt32(&runs, 1); return errors.New("ignored") }),
		SkipInitialRun: true,
		Clock:          clock.NewMock(),
	})

	ticker.Start()
	assert.Equal(t, int32(0), atomic.LoadInt32(&runs))
	ticker.Stop()
}

func TestTickerTaskWithoutInterval(t *testing.T) {
	var runs int32
	ticker := NewTickerTaskFromFunc(0, func() error { atomic.AddInt32(&runs, 1); return nil })
	ticker.Start()
	assert.Equal(t, int32(1), atomic.LoadInt32(&runs))
	ticker.Stop()
}
