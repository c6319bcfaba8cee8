// Package endian defines the byte-order engines used by the crow wire
// format.
//
// Fixed-width values -- float payloads and the envelope header words --
// travel little-endian. The big-endian engine exists only to honor the
// envelope header's endianness bit on foreign streams.
package endian

import "encoding/binary"

// EndianEngine bundles encoding/binary's read and append interfaces so a
// fixed-width value can be appended to a buffer directly, without a
// scratch array in between. binary.LittleEndian and binary.BigEndian
// both satisfy it.
type EndianEngine interface {
	binary.ByteOrder
	binary.AppendByteOrder
}

// The two engines. Little is the wire order.
var (
	Little EndianEngine = binary.LittleEndian
	Big    EndianEngine = binary.BigEndian
)
