package step

import "encoding/binary"

// constantDataSize is the encoded payload size of one constant plan:
// stepCount i16, baseDeltaT i32, periodNumerator u16,
// periodDenominator u16, big-endian.
const constantDataSize = 10

// constState steps at a fixed period. The numerator/denominator pair
// is a Bresenham remainder: periodNumerator out of every
// periodDenominator steps get one extra tick, without any long-term
// drift. The segment's total time is stepCount*baseDeltaT plus
// stepCount*num/den exactly when stepCount*num is a multiple of den;
// otherwise, because of the phase-offset seed, the extra ticks number
// floor(stepCount*num/den) or one more.
type constState struct {
	baseDeltaT        int32
	periodNumerator   uint16
	periodDenominator uint16
	periodAccumulator uint32
}

func (p *Plan) loadConstant(data []byte) {
	stepCount := int16(binary.BigEndian.Uint16(data[0:2]))
	baseDeltaT := int32(binary.BigEndian.Uint32(data[2:6]))
	periodNumerator := binary.BigEndian.Uint16(data[6:8])
	periodDenominator := binary.BigEndian.Uint16(data[8:10])

	p.resetCommon(stepCount)

	c := &p.constant
	c.baseDeltaT = baseDeltaT
	c.periodNumerator = periodNumerator
	c.periodDenominator = periodDenominator
	c.periodAccumulator = 0
	if c.periodNumerator > 0 {
		// Phase-offset the first extra tick: seeding with den/num
		// brings it about 1/num of a distribution period earlier (a
		// whole period when num is 1), so parallel axes don't bunch
		// their corrections on the same steps.
		c.periodAccumulator = uint32(c.periodDenominator / c.periodNumerator)
	}
}

func (p *Plan) createNextConstantActivation() {
	if p.RemainingSteps == 0 {
		p.IsActive = false
		return
	}
	p.RemainingSteps--

	c := &p.constant
	currentDeltaT := c.baseDeltaT

	if c.periodNumerator > 0 {
		c.periodAccumulator += uint32(c.periodNumerator)
		if uint32(c.periodDenominator) < c.periodAccumulator {
			c.periodAccumulator -= uint32(c.periodDenominator)
			currentDeltaT++
		}
	}

	p.NextActivationTime = currentDeltaT
}

// initConstantForHoming seeds the fixed backward homing crawl.
func (p *Plan) initConstantForHoming() {
	const homingSteps = -200

	p.resetCommon(homingSteps)

	c := &p.constant
	c.baseDeltaT = 400
	c.periodNumerator = 0
	c.periodDenominator = 0
	c.periodAccumulator = 0
}
