package step

import "fmt"

// PlanKind selects the evaluator variant used for one instruction.
// All axes of an instruction share the same kind.
type PlanKind uint8

const (
	// PlanAcceleration ramps the step rate with an incremental
	// Taylor-series profile.
	PlanAcceleration PlanKind = iota
	// PlanConstant steps at a fixed period with a Bresenham-style
	// fractional remainder.
	PlanConstant
)

func (k PlanKind) String() string {
	switch k {
	case PlanAcceleration:
		return "acceleration"
	case PlanConstant:
		return "constant"
	default:
		return "unknown"
	}
}

// DataSize returns the encoded payload size of one axis's plan.
func (k PlanKind) DataSize() int {
	switch k {
	case PlanAcceleration:
		return accelerationDataSize
	case PlanConstant:
		return constantDataSize
	default:
		return 0
	}
}

// Plan holds one axis's contribution to the current instruction. The
// common state lives here; the per-variant evaluator state lives in
// the accel/constant sub-structs with dispatch on kind. A plan is
// created once per axis at scheduler construction and reloaded in
// place for every instruction.
type Plan struct {
	// ClkMask selects the axis's clock line in an activation.
	ClkMask byte

	// DirMask selects the axis's direction line.
	DirMask byte

	// StepMask is OR'd into the first record of an instruction; its
	// DIR bit reflects the plan's sign.
	StepMask byte

	// StepCount is the total number of steps planned.
	StepCount uint16

	// RemainingSteps counts down as activations are produced.
	RemainingSteps uint16

	// IsActive reports whether the plan still produces steps.
	IsActive bool

	// IsActivationBoundary is true iff the plan contributes zero
	// steps; boundary plans reset their slack instead of carrying it.
	IsActivationBoundary bool

	// NextActivationTime is the time of the axis's next step in
	// ticks, relative to the scheduler's current position.
	NextActivationTime int32

	kind          PlanKind
	dirOnNegative bool
	faulted       bool

	accel    accelState
	constant constState
}

// NewPlan returns a plan bound to the given CLK/DIR masks.
// dirOnNegative selects the direction polarity: when true a negative
// step count sets the DIR bit.
func NewPlan(kind PlanKind, clkMask, dirMask byte, dirOnNegative bool) *Plan {
	return &Plan{
		kind:          kind,
		ClkMask:       clkMask,
		DirMask:       dirMask,
		dirOnNegative: dirOnNegative,
	}
}

// Kind returns the plan's evaluator variant.
func (p *Plan) Kind() PlanKind { return p.kind }

// DataSize returns the encoded payload size of this plan.
func (p *Plan) DataSize() int { return p.kind.DataSize() }

// Faulted reports whether the last LoadFrom rejected the payload and
// idled the axis for this instruction.
func (p *Plan) Faulted() bool { return p.faulted }

// LoadFrom decodes one axis payload and resets the evaluator state.
func (p *Plan) LoadFrom(data []byte) error {
	if len(data) < p.DataSize() {
		return fmt.Errorf("step: %s plan payload too short: %d bytes, need %d",
			p.kind, len(data), p.DataSize())
	}
	switch p.kind {
	case PlanAcceleration:
		p.loadAcceleration(data)
	case PlanConstant:
		p.loadConstant(data)
	}
	return nil
}

// CreateNextActivation advances the evaluator by one step, leaving the
// new interval in NextActivationTime. When no steps remain the plan
// deactivates and NextActivationTime is left untouched so the residual
// can be harvested as slack.
func (p *Plan) CreateNextActivation() {
	switch p.kind {
	case PlanAcceleration:
		p.createNextAccelActivation()
	case PlanConstant:
		p.createNextConstantActivation()
	}
}

// resetCommon applies the shared part of every load: step bookkeeping,
// direction mask and boundary detection.
func (p *Plan) resetCommon(stepCount int16) {
	p.StepCount = uint16(abs32(int32(stepCount)))
	p.RemainingSteps = p.StepCount
	p.IsActive = p.RemainingSteps > 0
	negative := stepCount < 0
	if !p.dirOnNegative {
		negative = !negative
	}
	if negative {
		p.StepMask = p.DirMask
	} else {
		p.StepMask = 0
	}
	p.NextActivationTime = 0
	p.IsActivationBoundary = !p.IsActive
	p.faulted = false
}

func abs32(v int32) int32 {
	if v < 0 {
		return -v
	}
	return v
}
