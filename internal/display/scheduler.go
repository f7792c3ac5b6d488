package display

import "time"

// Timer is a cancellation handle for a scheduled callback.
type Timer interface {
	// Stop prevents the callback from running. It returns false if the
	// callback already ran or was already stopped.
	Stop() bool
}

// Scheduler runs callbacks after a delay and tells the time.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
	Now() time.Time
}

// clockScheduler is the wall-clock Scheduler backed by time.AfterFunc.
type clockScheduler struct{}

// ClockScheduler returns a Scheduler that uses real timers.
func ClockScheduler() Scheduler {
	return clockScheduler{}
}

func (clockScheduler) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

func (clockScheduler) Now() time.Time {
	return time.Now()
}
