// Package link is the serial boundary of the core: it frames encoded
// instructions for the wire and decodes the one-byte notifications the
// firmware sends back.
package link

import (
	"fmt"

	"github.com/opencnc/stepcore/step"
)

// Instruction kind bytes on the wire.
const (
	KindAcceleration byte = 'A'
	KindConstant     byte = 'C'
)

// Notification bytes emitted by the firmware.
const (
	NoteStarted    byte = 'S'
	NoteFinished   byte = 'F'
	NoteMissedStep byte = 'M'
	NoteFault      byte = 'X'
)

// Notification is one decoded upstream event.
type Notification struct {
	Kind byte
	// Known reports whether Kind is one of the defined notification
	// bytes; the line may carry unrelated traffic.
	Known bool
}

// DecodeNotification classifies one byte from the firmware.
func DecodeNotification(b byte) Notification {
	switch b {
	case NoteStarted, NoteFinished, NoteMissedStep, NoteFault:
		return Notification{Kind: b, Known: true}
	}
	return Notification{Kind: b}
}

func (n Notification) String() string {
	switch n.Kind {
	case NoteStarted:
		return "scheduler started"
	case NoteFinished:
		return "instruction finished"
	case NoteMissedStep:
		return "missed step"
	case NoteFault:
		return "internal fault"
	}
	return fmt.Sprintf("raw %#02x", n.Kind)
}

func kindByte(kind step.PlanKind) byte {
	if kind == step.PlanAcceleration {
		return KindAcceleration
	}
	return KindConstant
}

// EncodeFrame builds one wire instruction: the kind byte followed by
// one payload per axis, all of the same kind.
func EncodeFrame(kind step.PlanKind, payloads [][]byte) ([]byte, error) {
	if len(payloads) != 2 && len(payloads) != 4 {
		return nil, fmt.Errorf("link: %d axis payloads, want 2 or 4", len(payloads))
	}
	frame := []byte{kindByte(kind)}
	for i, p := range payloads {
		if len(p) != kind.DataSize() {
			return nil, fmt.Errorf("link: axis %d payload is %d bytes, want %d",
				i, len(p), kind.DataSize())
		}
		frame = append(frame, p...)
	}
	return frame, nil
}

// DecodeFrame splits a wire instruction into its kind and the
// concatenated axis payloads, validating the length against the axis
// count.
func DecodeFrame(frame []byte, axes int) (step.PlanKind, []byte, error) {
	if len(frame) < 1 {
		return 0, nil, fmt.Errorf("link: empty frame")
	}
	var kind step.PlanKind
	switch frame[0] {
	case KindAcceleration:
		kind = step.PlanAcceleration
	case KindConstant:
		kind = step.PlanConstant
	default:
		return 0, nil, fmt.Errorf("link: unknown instruction kind %#02x", frame[0])
	}
	want := kind.DataSize() * axes
	if len(frame)-1 != want {
		return 0, nil, fmt.Errorf("link: %s frame body is %d bytes, want %d",
			kind, len(frame)-1, want)
	}
	return kind, frame[1:], nil
}
