package step

import "testing"

// noteRecorder captures notification bytes in order.
type noteRecorder struct {
	bytes []byte
}

func (n *noteRecorder) Notify(b byte) {
	n.bytes = append(n.bytes, b)
}

func (n *noteRecorder) count(b byte) int {
	c := 0
	for _, v := range n.bytes {
		if v == b {
			c++
		}
	}
	return c
}

// newTestCore builds an isolated pipeline over a simulated output.
func newTestCore(t *testing.T, axes int) (*Core, *SimOutput, *noteRecorder) {
	t.Helper()
	sim := NewSimOutput()
	notes := &noteRecorder{}
	core, err := NewCore(Config{Axes: axes, DirOnNegative: true}, sim, notes)
	if err != nil {
		t.Fatalf("NewCore: %v", err)
	}
	return core, sim, notes
}

// buildConstant concatenates constant payloads, one [steps, deltaT,
// num, den] group per axis.
func buildConstant(specs ...[4]int32) []byte {
	var buf []byte
	for _, s := range specs {
		buf = append(buf, EncodeConstant(int16(s[0]), s[1], uint16(s[2]), uint16(s[3]))...)
	}
	return buf
}

// buildAcceleration concatenates acceleration payloads, one
// [steps, initialDeltaT, n, baseDelta, baseRemainder] group per axis.
func buildAcceleration(specs ...[5]int32) []byte {
	var buf []byte
	for _, s := range specs {
		buf = append(buf, EncodeAcceleration(int16(s[0]), s[1], s[2], int16(s[3]), int16(s[4]))...)
	}
	return buf
}

// execDrain schedules one instruction and drains the simulated timer.
func execDrain(t *testing.T, core *Core, sim *SimOutput, kind PlanKind, payload []byte) {
	t.Helper()
	sim.AutoDrain = true
	if err := core.Execute(kind, payload); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	sim.Run()
}

// stepTimes returns the tick times at which the given CLK line pulsed
// low.
func stepTimes(sim *SimOutput, clkMask byte) []uint64 {
	var out []uint64
	for _, e := range sim.StepEvents() {
		if e.ClkLow()&clkMask != 0 {
			out = append(out, e.At)
		}
	}
	return out
}

// planDeltas runs a loaded plan's evaluator n times and collects the
// emitted intervals. The final CreateNextActivation past the step
// count only deactivates the plan.
func planDeltas(p *Plan, n int) []int32 {
	var out []int32
	for i := 0; i < n && p.RemainingSteps > 0; i++ {
		p.CreateNextActivation()
		out = append(out, p.NextActivationTime)
	}
	return out
}
