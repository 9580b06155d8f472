package step

import "sync/atomic"

// Record is one schedule entry: the timer value armed for the tick,
// the output levels applied when it fires, and whether the tick is the
// last pulse of an upstream instruction.
type Record struct {
	Delay      uint16
	Activation byte
	End        bool
}

// ScheduleRing is the fixed 256-slot single-producer/single-consumer
// buffer between the merge scheduler and the timer tick. The cursors
// are 8-bit values that wrap naturally; one slot stays reserved, so
// the effective capacity is 255 records.
//
// Lock-free by construction: the producer publishes a record's payload
// before advancing writeHead, the consumer reads a slot before
// advancing readHead, and both cursors are atomics so the orderings
// hold on every platform. The slot at readHead is always the next
// record to emit.
type ScheduleRing struct {
	delay      [scheduleBufferLen]uint16
	activation [scheduleBufferLen]byte
	ends       [scheduleBufferLen]bool

	writeHead atomic.Uint32
	readHead  atomic.Uint32

	// cumulative holds the level of every output line as of the last
	// enqueued record. Producer-owned: the scheduler composes each new
	// record by mutating this state.
	cumulative byte
}

// NewScheduleRing returns an empty ring.
func NewScheduleRing() *ScheduleRing {
	return &ScheduleRing{}
}

// IsEmpty reports whether no records are pending.
func (r *ScheduleRing) IsEmpty() bool {
	return byte(r.writeHead.Load()) == byte(r.readHead.Load())
}

// IsFull reports whether the next Push would fail.
func (r *ScheduleRing) IsFull() bool {
	return byte(r.writeHead.Load())+1 == byte(r.readHead.Load())
}

// Len returns the number of pending records.
func (r *ScheduleRing) Len() int {
	return int(byte(r.writeHead.Load()) - byte(r.readHead.Load()))
}

// Push appends a record. It fails iff the ring is full; the producer
// must spin (and may start the consumer) in that case.
func (r *ScheduleRing) Push(delay uint16, activation byte, end bool) bool {
	w := byte(r.writeHead.Load())
	if w+1 == byte(r.readHead.Load()) {
		return false
	}
	r.delay[w] = delay
	r.activation[w] = activation
	r.ends[w] = end
	// Payload first, cursor second: the store is the publication.
	r.writeHead.Store(uint32(w + 1))
	return true
}

// Peek returns the record at readHead without consuming it. Consumer
// side only.
func (r *ScheduleRing) Peek() Record {
	i := byte(r.readHead.Load())
	return Record{Delay: r.delay[i], Activation: r.activation[i], End: r.ends[i]}
}

// Advance consumes the record at readHead. Consumer side only, and
// only after the slot's values have been read.
func (r *ScheduleRing) Advance() {
	r.readHead.Store(uint32(byte(r.readHead.Load()) + 1))
}

// Cumulative returns the running activation state.
func (r *ScheduleRing) Cumulative() byte { return r.cumulative }

func (r *ScheduleRing) setCumulative(b byte)       { r.cumulative = b }
func (r *ScheduleRing) orCumulative(b byte)        { r.cumulative |= b }
func (r *ScheduleRing) clearCumulativeBits(b byte) { r.cumulative &^= b }
