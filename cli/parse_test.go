package cli

import (
	"strings"
	"testing"

	"github.com/opencnc/stepcore/step"
)

func TestParseInstructions(t *testing.T) {
	src := `
# two-axis job
C 100,1000,0,0  0,0,0,0
A 50,2000,6,0,0 -20,2400,-30,0,0

C -5,800,1,3 5,800,1,3
`
	instrs, err := ParseInstructions(strings.NewReader(src), 2)
	if err != nil {
		t.Fatalf("ParseInstructions: %v", err)
	}
	if len(instrs) != 3 {
		t.Fatalf("instructions: got %d, want 3", len(instrs))
	}

	if instrs[0].Kind != step.PlanConstant {
		t.Errorf("instr 0 kind: %v", instrs[0].Kind)
	}
	if len(instrs[0].Payload) != 2*10 {
		t.Errorf("instr 0 payload: %d bytes", len(instrs[0].Payload))
	}
	if instrs[1].Kind != step.PlanAcceleration {
		t.Errorf("instr 1 kind: %v", instrs[1].Kind)
	}
	if len(instrs[1].Payload) != 2*14 {
		t.Errorf("instr 1 payload: %d bytes", len(instrs[1].Payload))
	}

	// The payloads must decode back to the written values.
	p := step.NewPlan(step.PlanConstant, step.Slot0ClkMask, step.Slot0DirMask, true)
	if err := p.LoadFrom(instrs[2].Payload[:10]); err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if p.StepCount != 5 || p.StepMask != step.Slot0DirMask {
		t.Errorf("decoded plan: count=%d mask=%#02x", p.StepCount, p.StepMask)
	}
}

func TestParseInstructions_Errors(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"wrong axis count", "C 1,1000,0,0\n"},
		{"unknown kind", "Q 1,1000,0,0 0,0,0,0\n"},
		{"bad number", "C 1,x,0,0 0,0,0,0\n"},
		{"wrong field count", "C 1,1000,0 0,0,0,0\n"},
		{"accel fields in constant", "C 1,1000,0,0,0 0,0,0,0,0\n"},
	}
	for _, tc := range tests {
		if _, err := ParseInstructions(strings.NewReader(tc.src), 2); err == nil {
			t.Errorf("%s: accepted", tc.name)
		}
	}
}

func TestParseInstructions_EmptyInput(t *testing.T) {
	instrs, err := ParseInstructions(strings.NewReader("\n# nothing\n"), 2)
	if err != nil {
		t.Fatalf("ParseInstructions: %v", err)
	}
	if len(instrs) != 0 {
		t.Errorf("instructions from comments: %d", len(instrs))
	}
}
