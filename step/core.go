package step

import "fmt"

// Core bundles the process-wide state of the embedded target (ring,
// controller, one scheduler per plan kind, event flags and counters)
// into one object, so hosted code constructs an isolated instance per
// test or per simulation run.
type Core struct {
	cfg  Config
	ring *ScheduleRing
	ctrl *Controller

	acceleration *Scheduler
	constant     *Scheduler

	// last remembers which scheduler ran the previous instruction so
	// its slack can be handed to the other kind.
	last *Scheduler
}

// NewCore wires a complete pipeline over the given output and
// notifier.
func NewCore(cfg Config, out PulseOutput, notifier Notifier) (*Core, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	ring := NewScheduleRing()
	ctrl := NewController(ring, out, notifier)
	ctrl.Initialize()
	return &Core{
		cfg:          cfg,
		ring:         ring,
		ctrl:         ctrl,
		acceleration: NewScheduler(PlanAcceleration, cfg, ctrl, notifier),
		constant:     NewScheduler(PlanConstant, cfg, ctrl, notifier),
	}, nil
}

// Controller returns the consumer-side facade.
func (c *Core) Controller() *Controller { return c.ctrl }

// Ring returns the shared schedule ring.
func (c *Core) Ring() *ScheduleRing { return c.ring }

// Config returns the wiring options.
func (c *Core) Config() Config { return c.cfg }

// SchedulerFor returns the scheduler evaluating the given kind.
func (c *Core) SchedulerFor(kind PlanKind) *Scheduler {
	if kind == PlanAcceleration {
		return c.acceleration
	}
	return c.constant
}

// Execute runs one instruction: hand over slack if the plan kind
// changed, decode, fill the schedule (spinning through back-pressure)
// and make sure the consumer is running. It returns once every record
// is enqueued; draining is the timer's business.
func (c *Core) Execute(kind PlanKind, payload []byte) error {
	s := c.SchedulerFor(kind)
	if len(payload) != s.DataSize() {
		return fmt.Errorf("step: %s instruction is %d bytes, want %d",
			kind, len(payload), s.DataSize())
	}

	if c.last != nil && c.last != s {
		s.RegisterLastActivationSlack(c.last.Slack())
	}
	c.last = s

	if err := s.InitFrom(payload); err != nil {
		return err
	}
	for s.FillSchedule(true) {
	}
	c.ctrl.StartScheduler()
	return nil
}

// Home runs the fixed homing profile on the given kind's scheduler.
func (c *Core) Home(kind PlanKind) {
	s := c.SchedulerFor(kind)
	if c.last != nil && c.last != s {
		// Homing ignores incoming slack but the handover keeps the
		// bookkeeping consistent for whatever follows.
		s.RegisterLastActivationSlack(c.last.Slack())
	}
	c.last = s
	s.InitForHoming()
	for s.FillSchedule(true) {
	}
	c.ctrl.StartScheduler()
}
