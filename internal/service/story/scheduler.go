package story

import "time"

// Timer is a cancellation handle for a scheduled callback.
type Timer interface {
	Stop() bool
}

// Scheduler runs fn once after d.
type Scheduler interface {
	AfterFunc(d time.Duration, fn func()) Timer
}

type clockScheduler struct{}

func (clockScheduler) AfterFunc(d time.Duration, fn func()) Timer {
	return time.AfterFunc(d, fn)
}

// Clock is the wall-clock scheduler backed by time.AfterFunc.
var Clock Scheduler = clockScheduler{}
