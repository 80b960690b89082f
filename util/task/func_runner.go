package task

import "time"

// FuncRunner adapts a function to the Runner interface.
type FuncRunner func() error

func (r FuncRunner) Run() error {
	return r()
}

func NewTickerTaskFromFunc(interval time.Duration, runner func() error) *TickerTask {
	return NewTickerTask(interval, FuncRunner(runner))
}
