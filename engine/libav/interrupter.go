package libav

import (
	"sync"
	"time"

	"github.com/asticode/go-astiav"
	"go.uber.org/atomic"
)

// deadline aborts a blocking libav call (it makes libav return AVERROR_EXIT)
// once the armed duration elapses.
type deadline struct {
	interrupt  func()
	resume     func()
	locker     sync.Mutex
	timer      *time.Timer
	generation uint64
	fired      atomic.Bool
}

func newDeadline(fc *astiav.FormatContext) *deadline {
	ii := astiav.NewIOInterrupter()
	fc.SetIOInterrupter(ii)
	return &deadline{
		interrupt: ii.Interrupt,
		resume:    ii.Resume,
	}
}

func (d *deadline) Arm(timeout time.Duration) {
	d.locker.Lock()
	defer d.locker.Unlock()
	if d.timer != nil {
		d.timer.Stop()
	}
	d.generation++
	generation := d.generation
	d.fired.Store(false)
	d.resume()
	d.timer = time.AfterFunc(timeout, func() {
		d.expire(generation)
	})
}

// expire interrupts only if the deadline was not re-armed or disarmed
// since the timer of the given generation was started.
func (d *deadline) expire(generation uint64) bool {
	d.locker.Lock()
	defer d.locker.Unlock()
	if generation != d.generation || d.timer == nil {
		return false
	}
	d.fired.Store(true)
	d.interrupt()
	return true
}

// Disarm stops the timer and reports whether it had already fired.
func (d *deadline) Disarm() bool {
	d.locker.Lock()
	defer d.locker.Unlock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.generation++
	return d.fired.Load()
}
