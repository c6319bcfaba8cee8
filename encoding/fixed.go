package encoding

import (
	"math"

	"github.com/packetzero/crow/endian"
)

// AppendFixed32 appends the 4-byte representation of v in the engine's
// byte order (endian.Little for the wire format).
func AppendFixed32(dst []byte, v uint32, engine endian.EndianEngine) []byte {
	return engine.AppendUint32(dst, v)
}

// AppendFixed64 appends the 8-byte representation of v in the engine's
// byte order (endian.Little for the wire format).
func AppendFixed64(dst []byte, v uint64, engine endian.EndianEngine) []byte {
	return engine.AppendUint64(dst, v)
}

// Fixed32 reads a 4-byte fixed-width value from the front of buf.
// The caller guarantees len(buf) >= 4.
func Fixed32(buf []byte, engine endian.EndianEngine) uint32 {
	return engine.Uint32(buf)
}

// Fixed64 reads an 8-byte fixed-width value from the front of buf.
// The caller guarantees len(buf) >= 8.
func Fixed64(buf []byte, engine endian.EndianEngine) uint64 {
	return engine.Uint64(buf)
}

// Float32Bits reinterprets a float32 as its IEEE 754 bit pattern.
func Float32Bits(v float32) uint32 {
	return math.Float32bits(v)
}

// Float32FromBits is the inverse of Float32Bits.
func Float32FromBits(bits uint32) float32 {
	return math.Float32frombits(bits)
}

// Float64Bits reinterprets a float64 as its IEEE 754 bit pattern.
func Float64Bits(v float64) uint64 {
	return math.Float64bits(v)
}

// Float64FromBits is the inverse of Float64Bits.
func Float64FromBits(bits uint64) float64 {
	return math.Float64frombits(bits)
}
