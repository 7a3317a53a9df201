package motion

import (
	"sync"
	"time"
)

// FrameInterval approximates one display frame at 60 Hz.
const FrameInterval = 16 * time.Millisecond

// FrameScheduler coalesces update requests so at most one visual update is
// pending per frame. Requests arriving while one is pending are dropped.
type FrameScheduler struct {
	mu       sync.Mutex
	pending  bool
	schedule func(func())
}

// NewFrameScheduler uses schedule to run the update on the next frame. A nil
// schedule defers by FrameInterval.
func NewFrameScheduler(schedule func(func())) *FrameScheduler {
	if schedule == nil {
		schedule = func(fn func()) { time.AfterFunc(FrameInterval, fn) }
	}
	return &FrameScheduler{schedule: schedule}
}

// Request queues update for the next frame and reports whether it was accepted.
func (f *FrameScheduler) Request(update func()) bool {
	f.mu.Lock()
	if f.pending {
		f.mu.Unlock()
		return false
	}
	f.pending = true
	f.mu.Unlock()

	f.schedule(func() {
		f.mu.Lock()
		f.pending = false
		f.mu.Unlock()
		update()
	})
	return true
}

func (f *FrameScheduler) Pending() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pending
}
