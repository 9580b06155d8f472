// Package hw provides PulseOutput backends for real hardware: a
// periph.io GPIO backend for Linux hosts and a PIO-assisted backend
// for the RP2040. The portable part is ClockedOutput, a software
// emulation of the one-shot 16-bit timer that drives any PortWriter at
// 500 ns per tick with monotonic deadlines.
package hw

import (
	"errors"
	"runtime"
	"sync"
	"time"

	"github.com/opencnc/stepcore/step"
)

// ErrUnsupported is returned when no GPIO backend exists for the
// build platform.
var ErrUnsupported = errors.New("hw: no GPIO backend on this platform")

// PortWriter applies an 8-bit activation to the physical CLK/DIR
// lines in one call.
type PortWriter interface {
	WritePort(mask byte)
}

// ClockedOutput implements step.PulseOutput over a PortWriter using a
// monotonic software timer. Deadlines chain from one another rather
// than from time.Now, so jitter does not accumulate across ticks.
type ClockedOutput struct {
	ports PortWriter

	mu       sync.Mutex
	enabled  bool
	armed    bool
	interval time.Duration
	deadline time.Time
	timer    *time.Timer
	tick     func()
}

// NewClockedOutput wraps a port writer.
func NewClockedOutput(ports PortWriter) *ClockedOutput {
	return &ClockedOutput{ports: ports}
}

// Apply implements step.PulseOutput.
func (o *ClockedOutput) Apply(mask byte) {
	o.ports.WritePort(mask)
}

// Arm implements step.PulseOutput: reverse the timer-value transform
// into a tick count and schedule the next overflow from the previous
// deadline.
func (o *ClockedOutput) Arm(value uint16) {
	ticks := uint16(uint32(0xFFFF) - uint32(value) + step.TimerResetCompensation)

	o.mu.Lock()
	defer o.mu.Unlock()
	o.interval = time.Duration(ticks) * step.TickDuration
	o.armed = true
	if o.enabled {
		o.schedule()
	}
}

// EnableTimer implements step.PulseOutput.
func (o *ClockedOutput) EnableTimer() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.enabled {
		return
	}
	o.enabled = true
	o.deadline = time.Now()
	if o.armed {
		o.schedule()
	}
}

// DisableTimer implements step.PulseOutput.
func (o *ClockedOutput) DisableTimer() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.enabled = false
	if o.timer != nil {
		o.timer.Stop()
	}
}

// TimerEnabled implements step.PulseOutput.
func (o *ClockedOutput) TimerEnabled() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.enabled
}

// SetTickHandler implements step.PulseOutput.
func (o *ClockedOutput) SetTickHandler(f func()) {
	o.tick = f
}

// Idle implements step.PulseOutput.
func (o *ClockedOutput) Idle() {
	runtime.Gosched()
}

// schedule arms the OS timer for the pending interval. Caller holds
// the lock.
func (o *ClockedOutput) schedule() {
	o.deadline = o.deadline.Add(o.interval)
	o.armed = false
	d := time.Until(o.deadline)
	if d < 0 {
		d = 0
	}
	if o.timer == nil {
		o.timer = time.AfterFunc(d, o.fire)
	} else {
		o.timer.Reset(d)
	}
}

// fire runs one overflow. The tick handler re-arms (or disables)
// before it returns, matching the hardware contract.
func (o *ClockedOutput) fire() {
	o.mu.Lock()
	if !o.enabled {
		o.mu.Unlock()
		return
	}
	o.mu.Unlock()

	if o.tick != nil {
		o.tick()
	}
}
