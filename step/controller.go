package step

import "sync/atomic"

// Controller is the facade over the consumer half of the pipeline: it
// owns the tick sequence that drains the schedule ring, the per-axis
// step counters, the external inhibit mask and the start/stop event
// flags. One controller is shared by all schedulers.
type Controller struct {
	ring     *ScheduleRing
	out      PulseOutput
	notifier Notifier

	// cur is the record whose activation fires at the next overflow.
	// Consumer-owned: written by StartScheduler (with the timer off)
	// and by Tick.
	cur Record

	// inhibit is OR'd into every emitted activation. A set bit forces
	// the corresponding active-low line high, parking it.
	inhibit atomic.Uint32

	stoppedEvent atomic.Bool
	startedEvent atomic.Bool

	steps [NumSlots]atomic.Int32
}

// NewController wires the ring and the output together and registers
// the tick handler.
func NewController(ring *ScheduleRing, out PulseOutput, notifier Notifier) *Controller {
	c := &Controller{ring: ring, out: out, notifier: notifier}
	out.SetTickHandler(c.Tick)
	return c
}

// Initialize puts the output stage in its idle state: timer disabled,
// nothing armed, ring untouched.
func (c *Controller) Initialize() {
	c.out.DisableTimer()
}

// StartScheduler is idempotent. If the timer is already running it
// returns true. If the ring is empty there is nothing to run and it
// returns false. Otherwise it primes the tick state from readHead,
// enables the timer, latches the started event, emits 'S' and returns
// false, meaning "I just started it".
func (c *Controller) StartScheduler() bool {
	if c.out.TimerEnabled() {
		return true
	}
	if c.ring.IsEmpty() {
		return false
	}

	c.notify('S')
	c.startedEvent.Store(true)

	c.cur = c.ring.Peek()
	c.ring.Advance()
	c.out.Arm(c.cur.Delay)
	c.out.EnableTimer()
	return false
}

// IsSchedulerRunning reports the timer state.
func (c *Controller) IsSchedulerRunning() bool {
	return c.out.TimerEnabled()
}

// SetActivationMask installs the external inhibit mask, effective on
// the next tick. A set bit blocks the corresponding output line.
func (c *Controller) SetActivationMask(mask byte) {
	c.inhibit.Store(uint32(mask))
}

// ActivationMask returns the current inhibit mask.
func (c *Controller) ActivationMask() byte {
	return byte(c.inhibit.Load())
}

// StepPosition returns the signed step distance of the given slot
// from the home position.
func (c *Controller) StepPosition(slot int) int32 {
	return c.steps[slot].Load()
}

// ResetStepPosition zeroes one slot's counter (homing completion).
func (c *Controller) ResetStepPosition(slot int) {
	c.steps[slot].Store(0)
}

// TakeStoppedEvent returns and clears the latched stopped flag. Only
// the producer clears, so the tick never observes a misread.
func (c *Controller) TakeStoppedEvent() bool {
	return c.stoppedEvent.Swap(false)
}

// TakeStartedEvent returns and clears the latched started flag.
func (c *Controller) TakeStartedEvent() bool {
	return c.startedEvent.Swap(false)
}

// SchedulerStopped reports the stopped flag without clearing it.
func (c *Controller) SchedulerStopped() bool {
	return c.stoppedEvent.Load()
}

// Tick runs the timer-overflow sequence. It must complete in bounded
// time: one re-arm, two output writes, the counter accounting and at
// most one notification byte.
func (c *Controller) Tick() {
	rec := c.cur

	// One empty decision per tick: a record pushed after this read is
	// picked up by the producer restarting the scheduler, never by a
	// half-armed timer.
	empty := c.ring.IsEmpty()

	// Re-arm first: the timer reload is the timing-critical write and
	// everything after it eats into the next interval.
	if !empty {
		c.cur = c.ring.Peek()
		c.out.Arm(c.cur.Delay)
	}

	activation := rec.Activation | byte(c.inhibit.Load())

	// Pulse start: stepping axes' CLK bits go low here.
	c.out.Apply(activation)

	if empty {
		c.out.DisableTimer()
		c.stoppedEvent.Store(true)
	} else {
		c.ring.Advance()
	}

	// Step accounting between the two edges; the work doubles as the
	// minimum-pulse-width window. With the default polarity CLK and
	// DIR both low count a forward step, CLK low alone a backward one.
	inverted := ^activation
	for i := 0; i < NumSlots; i++ {
		pair := slotClkMask[i] | slotDirMask[i]
		switch inverted & pair {
		case pair:
			c.steps[i].Add(1)
		case slotClkMask[i]:
			c.steps[i].Add(-1)
		}
	}

	if rec.End {
		c.notify('F')
	}

	// Pulse end: every CLK line returns high, DIR levels stay.
	c.out.Apply(activation | ClockMask)
}

func (c *Controller) notify(b byte) {
	if c.notifier != nil {
		c.notifier.Notify(b)
	}
}
