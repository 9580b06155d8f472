//go:build rp2040

package hw

import (
	"machine"
	"time"

	rp2pio "github.com/tinygo-org/pio/rp2-pio"

	"github.com/opencnc/stepcore/step"
)

// RP2040Output drives four CLK/DIR pairs with PIO-shaped pulses. DIR
// lines are plain GPIO; the four consecutive CLK pins belong to a PIO
// state machine whose program holds any commanded low level for the
// minimum pulse width before restoring all clocks high, so the CPU
// never has to busy-wait the 3 us window.
//
// The state machine runs at 2 MHz (one cycle per scheduler tick), so
// the 7-cycle hold in the program is 3.5 us.
type RP2040Output struct {
	sm      rp2pio.StateMachine
	clkBase machine.Pin
	dir     [step.NumSlots]machine.Pin

	arm     chan time.Duration
	enabled bool
	tick    func()
}

// buildPulseProgram assembles the CLK pulse shaper:
//
//	pull block        ; wait for a commanded CLK level word
//	out pins, 4 [7]   ; drive the four CLK pins, hold 7 cycles
//	set pins, 0b1111  ; restore all clocks high
func buildPulseProgram() []uint16 {
	asm := rp2pio.AssemblerV0{}
	return []uint16{
		asm.Pull(false, true).Encode(),
		asm.Out(rp2pio.OutDestPins, 4).Delay(7).Encode(),
		asm.Set(rp2pio.SetDestPins, 0b1111).Encode(),
	}
}

// NewRP2040Output claims a state machine on the given PIO block.
// clkBase is the first of four consecutive CLK pins.
func NewRP2040Output(pio *rp2pio.PIO, clkBase machine.Pin, dir [step.NumSlots]machine.Pin) (*RP2040Output, error) {
	sm := pio.StateMachine(0)
	offset, err := pio.AddProgram(buildPulseProgram(), 0)
	if err != nil {
		return nil, err
	}

	cfg := rp2pio.DefaultStateMachineConfig()
	cfg.SetOutPins(clkBase, 4)
	cfg.SetSetPins(clkBase, 4)
	// 125 MHz / 62.5 = 2 MHz: one PIO cycle per 0.5 us tick.
	cfg.SetClkDivIntFrac(62, 128)
	sm.Init(offset, cfg)
	for i := 0; i < 4; i++ {
		p := clkBase + machine.Pin(i)
		p.Configure(machine.PinConfig{Mode: pio.PinMode()})
	}
	sm.SetEnabled(true)

	for _, d := range dir {
		d.Configure(machine.PinConfig{Mode: machine.PinOutput})
		d.Low()
	}

	o := &RP2040Output{
		sm:      sm,
		clkBase: clkBase,
		dir:     dir,
		arm:     make(chan time.Duration, 1),
	}
	go o.timerLoop()
	return o, nil
}

// Apply implements step.PulseOutput. DIR bits go straight to GPIO;
// if any CLK bit is commanded low the level word is handed to the
// state machine, which shapes the pulse and restores the lines.
func (o *RP2040Output) Apply(mask byte) {
	for i, d := range o.dir {
		d.Set(mask&(byte(1)<<(2*i+1)) != 0)
	}

	clk := uint32(0)
	low := false
	for i := 0; i < step.NumSlots; i++ {
		if mask&(byte(1)<<(2*i)) != 0 {
			clk |= uint32(1) << i
		} else {
			low = true
		}
	}
	if low {
		o.sm.TxPut(clk)
	}
}

// Arm implements step.PulseOutput.
func (o *RP2040Output) Arm(value uint16) {
	ticks := uint16(uint32(0xFFFF) - uint32(value) + step.TimerResetCompensation)
	select {
	case o.arm <- time.Duration(ticks) * step.TickDuration:
	default:
		// Replace a stale arm; the loop consumes at most one.
		select {
		case <-o.arm:
		default:
		}
		o.arm <- time.Duration(ticks) * step.TickDuration
	}
}

// EnableTimer implements step.PulseOutput.
func (o *RP2040Output) EnableTimer() { o.enabled = true }

// DisableTimer implements step.PulseOutput.
func (o *RP2040Output) DisableTimer() { o.enabled = false }

// TimerEnabled implements step.PulseOutput.
func (o *RP2040Output) TimerEnabled() bool { return o.enabled }

// SetTickHandler implements step.PulseOutput.
func (o *RP2040Output) SetTickHandler(f func()) { o.tick = f }

// Idle implements step.PulseOutput.
func (o *RP2040Output) Idle() { time.Sleep(step.TickDuration) }

// timerLoop emulates the one-shot overflow with the scheduler's
// goroutine timer; on this target time.Sleep resolves to the 1 us
// hardware timer.
func (o *RP2040Output) timerLoop() {
	for d := range o.arm {
		time.Sleep(d)
		if o.enabled && o.tick != nil {
			o.tick()
		}
	}
}
