// Package task runs background jobs on a fixed interval.
package task

import (
	"time"

	"github.com/benbjohnson/clock"
	"github.com/golang/glog"
)

type Runner interface {
	Run() error
}

type TickerTask struct {
	interval       time.Duration
	runner         Runner
	skipInitialRun bool
	clock          clock.Clock
	done           chan struct{}
}

func NewTickerTask(interval time.Duration, runner Runner) *TickerTask {
	return NewTickerTaskWithOptions(Options{
		Interval: interval,
		Runner:   runner,
	})
}

type Options struct {
	Interval       time.Duration
	Runner         Runner
	SkipInitialRun bool
	// Clock defaults to the wall clock.
	Clock clock.Clock
}

func NewTickerTaskWithOptions(opt Options) *TickerTask {
	clk := opt.Clock
	if clk == nil {
		clk = clock.New()
	}
	return &TickerTask{
		interval:       opt.Interval,
		runner:         opt.Runner,
		skipInitialRun: opt.SkipInitialRun,
		clock:          clk,
		done:           make(chan struct{}),
	}
}

// Start runs the task immediately and then schedules it to run periodically
// if a positive interval has been specified.
func (t *TickerTask) Start() {
	if !t.skipInitialRun {
		t.run()
	}

	if t.interval > 0 {
		go t.runRecurring(t.clock.Ticker(t.interval))
	}
}

// Stop stops the periodic task.
func (t *TickerTask) Stop() {
	close(t.done)
}

// Done exports readonly done channel
func (t *TickerTask) Done() <-chan struct{} {
	return t.done
}

func (t *TickerTask) runRecurring(ticker *clock.Ticker) {
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			t.run()
		case <-t.done:
			return
		}
	}
}

func (t *TickerTask) run() {
	if err := t.runner.Run(); err != nil {
		glog.Errorf("Background task failed: %v", err)
	}
}
