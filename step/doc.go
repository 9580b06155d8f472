// Package step is the motion-control core of the firmware: it turns
// per-axis motion plans into precisely timed step pulses on up to four
// CLK/DIR output slots.
//
// The pipeline has two stages. Plan evaluators (the PlanAcceleration
// and PlanConstant kinds of Plan) produce each axis's next inter-step interval using
// integer incremental formulas. The merge scheduler interleaves the
// per-axis step events onto one time axis, groups near-coincident
// events into a single output record, and feeds a fixed 256-slot
// schedule ring that a hardware-timer tick drains one record per
// overflow.
//
// All times are in ticks of 0.5 microseconds, the effective resolution
// of the hardware timer. Hosted builds drive the same tick path from a
// simulated clock (SimOutput).
package step
