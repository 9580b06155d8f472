package step

import "encoding/binary"

// Host-side payload encoders. The firmware only decodes; the encoders
// exist for the CLI, the serial bridge and the tests, and mirror the
// big-endian layouts in LoadFrom exactly.

// EncodeAcceleration builds one axis's acceleration payload. A
// negative stepCount reverses the axis; a negative n selects
// deceleration.
func EncodeAcceleration(stepCount int16, initialDeltaT int32, n int32, baseDelta int16, baseRemainder int16) []byte {
	buf := make([]byte, accelerationDataSize)
	binary.BigEndian.PutUint16(buf[0:2], uint16(stepCount))
	binary.BigEndian.PutUint32(buf[2:6], uint32(initialDeltaT))
	binary.BigEndian.PutUint32(buf[6:10], uint32(n))
	binary.BigEndian.PutUint16(buf[10:12], uint16(baseDelta))
	binary.BigEndian.PutUint16(buf[12:14], uint16(baseRemainder))
	return buf
}

// EncodeConstant builds one axis's constant payload.
func EncodeConstant(stepCount int16, baseDeltaT int32, periodNumerator, periodDenominator uint16) []byte {
	buf := make([]byte, constantDataSize)
	binary.BigEndian.PutUint16(buf[0:2], uint16(stepCount))
	binary.BigEndian.PutUint32(buf[2:6], uint32(baseDeltaT))
	binary.BigEndian.PutUint16(buf[6:8], periodNumerator)
	binary.BigEndian.PutUint16(buf[8:10], periodDenominator)
	return buf
}
