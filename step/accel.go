package step

import "encoding/binary"

// accelerationDataSize is the encoded payload size of one
// acceleration plan: stepCount i16, initialDeltaT i32, n i32,
// baseDelta i16, baseRemainder i16, big-endian.
const accelerationDataSize = 14

// accelState evolves the step period with the incremental form of the
// AVR446 Taylor-series ramp:
//
//	c(n+1) = c(n) -+ 2*c(n) / (4*n + 1)
//
// current4N carries 4*n so the denominator is a single add away, and
// currentDeltaTBuffer2 accumulates the 2*c(n) numerator modulo the
// denominator so the integer division stays exact across steps.
type accelState struct {
	isDeceleration       bool
	current4N            uint32
	currentDeltaTBuffer2 uint32
	currentDeltaT        int32

	// baseDeltaT is a constant offset added to every step; the
	// remainder pair distributes a sub-tick fraction of it evenly
	// over the segment.
	baseDeltaT          int32
	baseRemainder       int32
	baseRemainderBuffer int32
}

func (p *Plan) loadAcceleration(data []byte) {
	stepCount := int16(binary.BigEndian.Uint16(data[0:2]))
	initialDeltaT := int32(binary.BigEndian.Uint32(data[2:6]))
	n := int32(binary.BigEndian.Uint32(data[6:10]))
	baseDelta := int16(binary.BigEndian.Uint16(data[10:12]))
	baseRemainder := int16(binary.BigEndian.Uint16(data[12:14]))

	p.resetCommon(stepCount)

	a := &p.accel
	a.isDeceleration = n < 0
	a.baseDeltaT = int32(baseDelta)
	a.baseRemainder = abs32(int32(baseRemainder))
	a.baseRemainderBuffer = a.baseRemainder / 2
	a.currentDeltaT = initialDeltaT
	a.current4N = 4 * uint32(abs32(n))
	a.currentDeltaTBuffer2 = 0

	// A deceleration must start at a Taylor index large enough to
	// cover every planned step; otherwise current4N would underflow.
	// The axis idles for this instruction and the scheduler reports
	// the fault upstream.
	if a.isDeceleration && abs32(n) < int32(p.StepCount) {
		p.faulted = true
		p.RemainingSteps = 0
		p.IsActive = false
	}
}

func (p *Plan) createNextAccelActivation() {
	if p.RemainingSteps == 0 {
		p.IsActive = false
		return
	}
	p.RemainingSteps--

	a := &p.accel
	p.NextActivationTime = a.currentDeltaT + a.baseDeltaT

	if a.baseRemainder > 0 {
		a.baseRemainderBuffer += a.baseRemainder
		if a.baseRemainderBuffer > int32(p.StepCount) {
			a.baseRemainderBuffer -= int32(p.StepCount)
			p.NextActivationTime++
		}
	}

	if a.current4N == 0 {
		// One-time compensation for the error at c0 (AVR446 eq. 5).
		a.currentDeltaT = a.currentDeltaT * 676 / 1000
	}

	nextDeltaT := a.currentDeltaT
	var change int32
	a.currentDeltaTBuffer2 += uint32(nextDeltaT) * 2

	if a.isDeceleration {
		a.current4N -= 4
	} else {
		a.current4N += 4
	}

	if nextDeltaT > quotientThreshold {
		change = int32(a.currentDeltaTBuffer2 / (a.current4N + 1))
		a.currentDeltaTBuffer2 = a.currentDeltaTBuffer2 % (a.current4N + 1)
	} else {
		// For small periods the denominator has caught up with the
		// numerator and a few subtractions beat a 32-bit division.
		for a.currentDeltaTBuffer2 >= a.current4N+1 {
			a.currentDeltaTBuffer2 -= a.current4N + 1
			change++
		}
	}

	if a.isDeceleration {
		nextDeltaT += change
	} else {
		nextDeltaT -= change
	}
	a.currentDeltaT = nextDeltaT
}

// initAccelForHoming seeds the fixed backward homing ramp.
func (p *Plan) initAccelForHoming() {
	const homingSteps = -150
	const homingN = 6

	p.resetCommon(homingSteps)

	a := &p.accel
	a.isDeceleration = false
	a.baseDeltaT = 0
	a.baseRemainder = 0
	a.baseRemainderBuffer = 0
	a.currentDeltaT = 2000
	a.current4N = 4 * homingN
	a.currentDeltaTBuffer2 = 0
}

// CurrentDeltaT exposes the evolving acceleration period for tests.
func (p *Plan) CurrentDeltaT() int32 { return p.accel.currentDeltaT }
