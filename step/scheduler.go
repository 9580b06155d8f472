package step

import (
	"fmt"
	"math"
)

// Config carries the wiring options shared by both schedulers.
type Config struct {
	// Axes is the number of driven slots, 2 or 4. Slots beyond Axes
	// stay parked.
	Axes int

	// DirOnNegative selects the direction polarity: when true (the
	// default) a negative step count sets the axis's DIR bit.
	DirOnNegative bool
}

// DefaultConfig returns the four-axis default wiring.
func DefaultConfig() Config {
	return Config{Axes: NumSlots, DirOnNegative: true}
}

// Validate rejects axis counts the slot layout cannot carry.
func (c Config) Validate() error {
	if c.Axes != 2 && c.Axes != 4 {
		return fmt.Errorf("step: unsupported axis count %d (want 2 or 4)", c.Axes)
	}
	return nil
}

// Scheduler merges N plan evaluators of one kind onto the single
// schedule time axis. It owns its plans exclusively and carries the
// per-axis activation slack that stitches step cadence across
// back-to-back instructions.
type Scheduler struct {
	kind  PlanKind
	plans []*Plan

	ctrl     *Controller
	ring     *ScheduleRing
	out      PulseOutput
	notifier Notifier

	// slack holds each axis's residual ticks from the previous
	// instruction: positive when the plan ended short of its next
	// cadence point, negative when other axes ran past it.
	slack []int32

	needInit bool
	hasEnd   bool
}

// NewScheduler builds a scheduler with one plan per configured axis,
// sharing the controller's ring and output.
func NewScheduler(kind PlanKind, cfg Config, ctrl *Controller, notifier Notifier) *Scheduler {
	plans := make([]*Plan, cfg.Axes)
	for i := range plans {
		plans[i] = NewPlan(kind, slotClkMask[i], slotDirMask[i], cfg.DirOnNegative)
	}
	return &Scheduler{
		kind:     kind,
		plans:    plans,
		ctrl:     ctrl,
		ring:     ctrl.ring,
		out:      ctrl.out,
		notifier: notifier,
		slack:    make([]int32, cfg.Axes),
	}
}

// Kind returns the plan kind this scheduler evaluates.
func (s *Scheduler) Kind() PlanKind { return s.kind }

// Axes returns the number of driven axes.
func (s *Scheduler) Axes() int { return len(s.plans) }

// DataSize returns the instruction payload size: one plan payload per
// axis, concatenated.
func (s *Scheduler) DataSize() int { return s.kind.DataSize() * len(s.plans) }

// Slack returns a copy of the current per-axis slack.
func (s *Scheduler) Slack() []int32 {
	out := make([]int32, len(s.slack))
	copy(out, s.slack)
	return out
}

// RegisterLastActivationSlack installs slack harvested from another
// scheduler, so cadence survives a change of plan kind between
// instructions.
func (s *Scheduler) RegisterLastActivationSlack(slack []int32) {
	for i := range s.slack {
		if i < len(slack) {
			s.slack[i] = slack[i]
		}
	}
}

func (s *Scheduler) resetSlack() {
	for i := range s.slack {
		s.slack[i] = 0
	}
}

// InitFrom decodes one instruction (the concatenation of per-axis
// payloads), materializes each axis's first activation and applies the
// carried slack. A latched stopped event resets the slack first: a
// drained schedule means the cadence chain is broken anyway.
func (s *Scheduler) InitFrom(data []byte) error {
	if len(data) < s.DataSize() {
		return fmt.Errorf("step: %s instruction too short: %d bytes, need %d",
			s.kind, len(data), s.DataSize())
	}

	if s.ctrl.TakeStoppedEvent() {
		s.resetSlack()
	}

	offset := 0
	for _, p := range s.plans {
		if err := p.LoadFrom(data[offset : offset+p.DataSize()]); err != nil {
			return err
		}
		offset += p.DataSize()
	}
	for _, p := range s.plans {
		if p.Faulted() {
			s.notify('X')
		}
	}

	for _, p := range s.plans {
		p.CreateNextActivation()
	}

	missed := false
	for i, p := range s.plans {
		if s.applySlack(&s.slack[i], p) {
			missed = true
		}
	}
	if missed {
		s.notify('M')
	}

	s.needInit = true
	s.hasEnd = true
	return nil
}

// InitForHoming seeds every axis with the fixed homing profile. No
// slack is applied and no instruction end is reported.
func (s *Scheduler) InitForHoming() {
	for _, p := range s.plans {
		switch s.kind {
		case PlanAcceleration:
			p.initAccelForHoming()
		case PlanConstant:
			p.initConstantForHoming()
		}
	}
	for _, p := range s.plans {
		p.CreateNextActivation()
	}
	s.needInit = true
	s.hasEnd = false
}

// applySlack shifts an axis's first activation by its carried slack.
// Boundary plans reset the slack instead. If the shifted time would
// land inside the DIR guard window the step is late beyond repair:
// clamp and report a missed step.
func (s *Scheduler) applySlack(slackTime *int32, p *Plan) bool {
	if p.IsActivationBoundary {
		*slackTime = 0
		return false
	}

	p.NextActivationTime += *slackTime
	if p.NextActivationTime < PortChangeDelay {
		p.NextActivationTime = PortChangeDelay
		// Cannot go backwards in time.
		return true
	}
	return false
}

// FillSchedule pushes records until either the ring fills (returns
// true: the caller is free to do other work and must call again) or
// the instruction is exhausted (returns false). When mayStartConsumer
// is set the consumer is started opportunistically: while spinning on
// a full ring and once on completion.
func (s *Scheduler) FillSchedule(mayStartConsumer bool) bool {
	for s.anyActive() {
		minActive := int32(math.MaxInt32)
		for _, p := range s.plans {
			if p.IsActive && p.NextActivationTime < minActive {
				minActive = p.NextActivationTime
			}
		}

		// Clip to the timer's 16-bit range; a very long gap becomes an
		// intermediate record with no CLK edges.
		earliest := minActive
		if earliest > 0xFFFF {
			earliest = 0xFFFF
		}

		if s.needInit {
			// First record of an instruction: it lasts the guard time
			// and establishes the DIR levels. Only an axis due within
			// the grouping window of the guard time clocks in it.
			earliest = PortChangeDelay

			cumulative := ClockMask
			for _, p := range s.plans {
				cumulative |= p.StepMask
			}
			s.ring.setCumulative(cumulative)
			s.needInit = false
		}

		// Restore the CLK-high bits; new pulse-start edges are formed
		// below by clearing them again.
		s.ring.orCumulative(ClockMask)

		for _, p := range s.plans {
			s.trigger(p, earliest)
		}

		end := s.hasEnd && !s.anyActive()

		for s.ring.IsFull() {
			if mayStartConsumer {
				s.ctrl.StartScheduler()
			}
			s.out.Idle()
		}
		s.ring.Push(delayFor(earliest), s.ring.Cumulative(), end)

		if s.ring.IsFull() {
			return true
		}
	}

	// Instruction exhausted: harvest each axis's residual as slack for
	// the next instruction.
	for i, p := range s.plans {
		s.slack[i] = p.NextActivationTime
	}
	if mayStartConsumer {
		s.ctrl.StartScheduler()
	}
	return false
}

// trigger advances one axis against the chosen earliest time. Axes
// whose next step falls inside the grouping window fire in this
// record; a small positive residual is re-added to the following step
// so the intended spacing survives the grouping. Inactive axes that
// are not boundaries keep counting down so their slack stays truthful.
func (s *Scheduler) trigger(p *Plan, earliest int32) {
	if !p.IsActive {
		if !p.IsActivationBoundary {
			p.NextActivationTime -= earliest
		}
		return
	}

	p.NextActivationTime -= earliest
	if p.NextActivationTime > MinActivationDelay {
		return
	}

	// Pulse-start edge for this axis at this tick.
	s.ring.clearCumulativeBits(p.ClkMask)

	if p.NextActivationTime > 0 {
		// Grouped early: prepay the skipped ticks on the next step.
		skipped := p.NextActivationTime
		p.CreateNextActivation()
		p.NextActivationTime += skipped
	} else {
		p.CreateNextActivation()
	}
}

func (s *Scheduler) anyActive() bool {
	for _, p := range s.plans {
		if p.IsActive {
			return true
		}
	}
	return false
}

func (s *Scheduler) notify(b byte) {
	if s.notifier != nil {
		s.notifier.Notify(b)
	}
}

// delayFor converts an interval to the value loaded into the 16-bit
// timer: the remaining count until overflow, advanced by the reset
// compensation. Intervals at or below the compensation wrap and fire
// almost immediately, which is the intended grouping behavior.
func delayFor(earliest int32) uint16 {
	return uint16(int32(0xFFFF) - earliest + TimerResetCompensation)
}
