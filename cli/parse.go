package cli

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/opencnc/stepcore/step"
)

// Instruction is one parsed line of an instruction script.
type Instruction struct {
	Kind    step.PlanKind
	Payload []byte
}

// ParseInstructions reads the text instruction format: one instruction
// per line, a kind letter followed by one comma-separated field group
// per axis.
//
//	# axis0: 100 steps at 1000 ticks, axis1 idle
//	C 100,1000,0,0 0,0,0,0
//	A 50,2000,6,0,0 0,0,0,0,0
//
// Constant groups are steps,deltaT,num,den; acceleration groups are
// steps,deltaT,n,baseDelta,baseRemainder.
func ParseInstructions(r io.Reader, axes int) ([]Instruction, error) {
	var out []Instruction
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		fields := strings.Fields(line)
		if len(fields) != axes+1 {
			return nil, fmt.Errorf("line %d: %d axis groups, want %d", lineNo, len(fields)-1, axes)
		}

		var kind step.PlanKind
		switch strings.ToUpper(fields[0]) {
		case "A":
			kind = step.PlanAcceleration
		case "C":
			kind = step.PlanConstant
		default:
			return nil, fmt.Errorf("line %d: unknown instruction kind %q", lineNo, fields[0])
		}

		var payload []byte
		for i, group := range fields[1:] {
			vals, err := parseGroup(group)
			if err != nil {
				return nil, fmt.Errorf("line %d axis %d: %w", lineNo, i, err)
			}
			enc, err := encodeGroup(kind, vals)
			if err != nil {
				return nil, fmt.Errorf("line %d axis %d: %w", lineNo, i, err)
			}
			payload = append(payload, enc...)
		}
		out = append(out, Instruction{Kind: kind, Payload: payload})
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func parseGroup(group string) ([]int64, error) {
	parts := strings.Split(group, ",")
	vals := make([]int64, len(parts))
	for i, p := range parts {
		v, err := strconv.ParseInt(strings.TrimSpace(p), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("bad number %q", p)
		}
		vals[i] = v
	}
	return vals, nil
}

func encodeGroup(kind step.PlanKind, vals []int64) ([]byte, error) {
	switch kind {
	case step.PlanConstant:
		if len(vals) != 4 {
			return nil, fmt.Errorf("constant group has %d fields, want 4", len(vals))
		}
		return step.EncodeConstant(int16(vals[0]), int32(vals[1]), uint16(vals[2]), uint16(vals[3])), nil
	case step.PlanAcceleration:
		if len(vals) != 5 {
			return nil, fmt.Errorf("acceleration group has %d fields, want 5", len(vals))
		}
		return step.EncodeAcceleration(int16(vals[0]), int32(vals[1]), int32(vals[2]), int16(vals[3]), int16(vals[4])), nil
	}
	return nil, fmt.Errorf("unknown kind")
}
