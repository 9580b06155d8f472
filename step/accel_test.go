package step

import (
	"math"
	"testing"
)

func newAccelPlan() *Plan {
	return NewPlan(PlanAcceleration, Slot0ClkMask, Slot0DirMask, true)
}

func TestAccelerationPlan_LoadFrom(t *testing.T) {
	p := newAccelPlan()
	if err := p.LoadFrom(EncodeAcceleration(50, 2000, 6, 0, 0)); err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}

	if p.StepCount != 50 || p.RemainingSteps != 50 {
		t.Errorf("step counts: got %d/%d, want 50/50", p.StepCount, p.RemainingSteps)
	}
	if !p.IsActive {
		t.Error("plan should be active")
	}
	if p.IsActivationBoundary {
		t.Error("plan with steps should not be a boundary")
	}
	if p.StepMask != 0 {
		t.Errorf("forward plan stepMask: got %#02x, want 0", p.StepMask)
	}
	if p.NextActivationTime != 0 {
		t.Errorf("nextActivationTime after load: got %d, want 0", p.NextActivationTime)
	}
}

func TestAccelerationPlan_DirectionMask(t *testing.T) {
	tests := []struct {
		name          string
		stepCount     int16
		dirOnNegative bool
		wantMask      byte
	}{
		{"forward default", 10, true, 0},
		{"backward default", -10, true, Slot0DirMask},
		{"forward inverted", 10, false, Slot0DirMask},
		{"backward inverted", -10, false, 0},
	}
	for _, tc := range tests {
		p := NewPlan(PlanAcceleration, Slot0ClkMask, Slot0DirMask, tc.dirOnNegative)
		if err := p.LoadFrom(EncodeAcceleration(tc.stepCount, 2000, 6, 0, 0)); err != nil {
			t.Fatalf("%s: LoadFrom: %v", tc.name, err)
		}
		if p.StepMask != tc.wantMask {
			t.Errorf("%s: stepMask got %#02x, want %#02x", tc.name, p.StepMask, tc.wantMask)
		}
	}
}

func TestAccelerationPlan_ZeroStepsIsBoundary(t *testing.T) {
	p := newAccelPlan()
	if err := p.LoadFrom(EncodeAcceleration(0, 2000, 6, 0, 0)); err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if p.IsActive {
		t.Error("zero-step plan should be inactive")
	}
	if !p.IsActivationBoundary {
		t.Error("zero-step plan should be an activation boundary")
	}
	p.CreateNextActivation()
	if p.IsActive {
		t.Error("boundary plan must stay inactive")
	}
}

// TestAccelerationPlan_DeltaSequence pins the exact integer outputs of
// the incremental formula and checks the ramp against the continuous
// model c(k) = c0*(sqrt(k+1)-sqrt(k)).
func TestAccelerationPlan_DeltaSequence(t *testing.T) {
	p := newAccelPlan()
	if err := p.LoadFrom(EncodeAcceleration(50, 2000, 6, 0, 0)); err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}

	deltas := planDeltas(p, 50)
	if len(deltas) != 50 {
		t.Fatalf("emitted %d deltas, want 50", len(deltas))
	}

	// First values of the exact integer recurrence from deltaT=2000,
	// 4N seeded at 24.
	wantHead := []int32{2000, 1863, 1750, 1655}
	for i, want := range wantHead {
		if deltas[i] != want {
			t.Errorf("delta[%d]: got %d, want %d", i, deltas[i], want)
		}
	}

	// Monotonically decreasing during acceleration.
	for i := 1; i < len(deltas); i++ {
		if deltas[i] >= deltas[i-1] {
			t.Errorf("delta[%d]=%d not below delta[%d]=%d", i, deltas[i], i-1, deltas[i-1])
		}
	}

	// Continuous-model agreement: scale the reference so its seed
	// index matches n=6 and compare within 2%.
	c0 := 2000.0 / (math.Sqrt(7) - math.Sqrt(6))
	for i, d := range deltas {
		k := float64(6 + i)
		ref := c0 * (math.Sqrt(k+1) - math.Sqrt(k))
		if math.Abs(float64(d)-ref)/ref > 0.02 {
			t.Errorf("delta[%d]=%d deviates from reference %.1f by more than 2%%", i, d, ref)
		}
	}

	// Terminates exactly at the step count.
	if p.RemainingSteps != 0 {
		t.Errorf("remaining steps after 50 deltas: %d", p.RemainingSteps)
	}
	p.CreateNextActivation()
	if p.IsActive {
		t.Error("plan still active after final step")
	}
}

// TestAccelerationPlan_C0Correction starts from standstill (n=0): the
// one-time *676/1000 compensation applies to the very first update.
func TestAccelerationPlan_C0Correction(t *testing.T) {
	p := newAccelPlan()
	if err := p.LoadFrom(EncodeAcceleration(3, 2000, 0, 0, 0)); err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}

	// Step 1 emits the seed period, then deltaT becomes
	// 2000*676/1000 = 1352, minus 2*1352/5 = 540 -> 812, then
	// 812 - 180 -> 632.
	want := []int32{2000, 812, 632}
	got := planDeltas(p, 3)
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("delta[%d]: got %d, want %d", i, got[i], want[i])
		}
	}
}

// TestAccelerationPlan_LargeNNeverCorrects: with n far above the step
// count an accelerating plan never crosses the c0 boundary.
func TestAccelerationPlan_LargeNNeverCorrects(t *testing.T) {
	p := newAccelPlan()
	if err := p.LoadFrom(EncodeAcceleration(10, 1000, 30000, 0, 0)); err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	deltas := planDeltas(p, 10)
	if len(deltas) != 10 {
		t.Fatalf("emitted %d deltas, want 10", len(deltas))
	}
	// With current4N at 120000 each change is tiny; the sharp *0.676
	// drop would be unmissable.
	for i := 1; i < len(deltas); i++ {
		if deltas[i-1]-deltas[i] > 10 {
			t.Errorf("delta[%d]->%d dropped by %d, correction should not fire",
				i-1, deltas[i], deltas[i-1]-deltas[i])
		}
	}
}

func TestAccelerationPlan_Deceleration(t *testing.T) {
	p := newAccelPlan()
	if err := p.LoadFrom(EncodeAcceleration(5, 1000, -10, 0, 0)); err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if p.Faulted() {
		t.Fatal("valid deceleration reported as fault")
	}

	deltas := planDeltas(p, 5)
	wantHead := []int32{1000, 1054}
	for i, want := range wantHead {
		if deltas[i] != want {
			t.Errorf("delta[%d]: got %d, want %d", i, deltas[i], want)
		}
	}
	for i := 1; i < len(deltas); i++ {
		if deltas[i] <= deltas[i-1] {
			t.Errorf("deceleration delta[%d]=%d not above delta[%d]=%d",
				i, deltas[i], i-1, deltas[i-1])
		}
	}
}

// TestAccelerationPlan_MalformedDeceleration: a deceleration whose
// Taylor index cannot cover its step count idles the axis.
func TestAccelerationPlan_MalformedDeceleration(t *testing.T) {
	p := newAccelPlan()
	if err := p.LoadFrom(EncodeAcceleration(10, 1000, -5, 0, 0)); err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if !p.Faulted() {
		t.Fatal("underflowing deceleration not flagged")
	}
	if p.IsActive || p.RemainingSteps != 0 {
		t.Errorf("faulted axis should idle: active=%v remaining=%d", p.IsActive, p.RemainingSteps)
	}

	// The fault clears on the next valid load.
	if err := p.LoadFrom(EncodeAcceleration(10, 1000, -10, 0, 0)); err != nil {
		t.Fatalf("reload: %v", err)
	}
	if p.Faulted() {
		t.Error("fault flag survived a valid reload")
	}
}

// TestAccelerationPlan_BaseRemainder: the Bresenham remainder adds one
// extra tick to baseRemainder out of stepCount steps.
func TestAccelerationPlan_BaseRemainder(t *testing.T) {
	p := newAccelPlan()
	if err := p.LoadFrom(EncodeAcceleration(10, 1000, 1000000, 50, 5)); err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}

	// With n huge the ramp change per step is zero, isolating the
	// base offset and its remainder.
	deltas := planDeltas(p, 10)
	extras := 0
	for _, d := range deltas {
		switch d {
		case 1050:
		case 1051:
			extras++
		default:
			t.Fatalf("unexpected delta %d", d)
		}
	}
	if extras != 5 {
		t.Errorf("extra ticks: got %d, want 5", extras)
	}
}
