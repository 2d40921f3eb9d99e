package app

import "time"

// Timer is a scheduled task that can be cancelled.
type Timer interface {
	Stop() bool
}

// Scheduler runs f once after d. Sessions use it for the reveal-then-advance step.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type timeScheduler struct{}

func (timeScheduler) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// DefaultScheduler is backed by time.AfterFunc.
var DefaultScheduler Scheduler = timeScheduler{}
