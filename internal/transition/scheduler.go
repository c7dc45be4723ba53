package transition

import "time"

// ---------------------------------------------------------------------------
// Scheduler
// ---------------------------------------------------------------------------

// Scheduler runs a function after a delay. Transition phases are scheduled
// continuations, never blocking waits, so the controller can be driven by
// real timers in production and stepped manually in tests.
type Scheduler interface {
	// AfterFunc schedules fn and returns a cancel function. Cancel is
	// best-effort: fn may already be running.
	AfterFunc(d time.Duration, fn func()) (cancel func())
}

// TimerScheduler schedules on real wall-clock timers.
type TimerScheduler struct{}

// AfterFunc implements Scheduler via time.AfterFunc.
func (TimerScheduler) AfterFunc(d time.Duration, fn func()) func() {
	t := time.AfterFunc(d, fn)
	return func() { t.Stop() }
}

// ImmediateScheduler runs every continuation synchronously. Used in tests
// to step through all three phases without waiting on timers.
type ImmediateScheduler struct{}

// AfterFunc implements Scheduler by calling fn inline.
func (ImmediateScheduler) AfterFunc(_ time.Duration, fn func()) func() {
	fn()
	return func() {}
}
