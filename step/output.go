package step

import "io"

// PulseOutput abstracts the hardware behind the core: two GPIO output
// ports carrying the four CLK/DIR pairs, and a one-shot 16-bit timer
// whose overflow drives the tick. Real backends write MMIO registers
// or kernel GPIO lines; the test backend records the pulse timeline.
type PulseOutput interface {
	// Apply drives the CLK/DIR lines to the given levels in a single
	// write, restricted to the bits the core owns.
	Apply(mask byte)

	// Arm loads the hardware timer so it overflows after
	// 0xFFFF - value + TimerResetCompensation ticks.
	Arm(value uint16)

	// EnableTimer lets the armed timer fire; DisableTimer masks the
	// overflow without clearing the armed value.
	EnableTimer()
	DisableTimer()
	TimerEnabled() bool

	// SetTickHandler registers the function the backend invokes on
	// every timer overflow.
	SetTickHandler(func())

	// Idle is called while the producer spins on a full ring. The
	// backend may use it to drain a simulated timer or simply yield.
	Idle()
}

// Notifier receives the single-byte upstream events the core emits on
// the serial boundary: 'S' scheduler started, 'F' instruction
// finished, 'M' missed step, 'X' internal fault.
type Notifier interface {
	Notify(b byte)
}

// NotifierFunc adapts a function to the Notifier interface.
type NotifierFunc func(byte)

// Notify implements Notifier.
func (f NotifierFunc) Notify(b byte) { f(b) }

// WriterNotifier writes each notification byte to w, the firmware's
// serial line. Write errors are dropped: the tick path has no error
// channel and the upstream protocol tolerates lost notifications.
type WriterNotifier struct {
	W io.Writer
}

// Notify implements Notifier.
func (n WriterNotifier) Notify(b byte) {
	if n.W != nil {
		n.W.Write([]byte{b})
	}
}
