package format

type (
	// CrowType identifies the primitive type of a column.
	// The ordinal values are part of the wire format and must not change.
	CrowType        uint8
	CompressionType uint8
)

const (
	TypeNone    CrowType = 0   // TypeNone marks an invalid or unset field type.
	TypeString  CrowType = 0x1 // TypeString is a length-prefixed UTF-8 string.
	TypeInt32   CrowType = 0x2 // TypeInt32 is a zigzag varint signed 32-bit integer.
	TypeUint32  CrowType = 0x3 // TypeUint32 is a varint unsigned 32-bit integer.
	TypeInt64   CrowType = 0x4 // TypeInt64 is a zigzag varint signed 64-bit integer.
	TypeUint64  CrowType = 0x5 // TypeUint64 is a varint unsigned 64-bit integer.
	TypeInt16   CrowType = 0x6 // TypeInt16 is a zigzag varint signed 16-bit integer.
	TypeUint16  CrowType = 0x7 // TypeUint16 is a varint unsigned 16-bit integer.
	TypeInt8    CrowType = 0x8 // TypeInt8 is a single raw byte.
	TypeUint8   CrowType = 0x9 // TypeUint8 is a single raw byte.
	TypeFloat32 CrowType = 0xA // TypeFloat32 is a 4-byte little-endian IEEE 754 value.
	TypeFloat64 CrowType = 0xB // TypeFloat64 is an 8-byte little-endian IEEE 754 value.
	TypeBytes   CrowType = 0xC // TypeBytes is a length-prefixed raw byte sequence.

	NumTypes = 13 // NumTypes is one past the highest valid type ordinal.
)

const (
	CompressionNone CompressionType = 0x1 // CompressionNone represents no compression.
	CompressionZstd CompressionType = 0x2 // CompressionZstd represents Zstandard compression.
	CompressionS2   CompressionType = 0x3 // CompressionS2 represents S2 compression.
	CompressionLZ4  CompressionType = 0x4 // CompressionLZ4 represents LZ4 compression.
)

// Valid reports whether t is one of the 12 encodable primitive types.
func (t CrowType) Valid() bool {
	return t > TypeNone && t < NumTypes
}

// ByteSize returns the fixed width of t in bytes, or 0 for the
// variable-length types (String, Bytes) and TypeNone.
func (t CrowType) ByteSize() int {
	switch t {
	case TypeInt8, TypeUint8:
		return 1
	case TypeInt16, TypeUint16:
		return 2
	case TypeInt32, TypeUint32, TypeFloat32:
		return 4
	case TypeInt64, TypeUint64, TypeFloat64:
		return 8
	default:
		return 0
	}
}

func (t CrowType) String() string {
	switch t {
	case TypeNone:
		return "None"
	case TypeString:
		return "String"
	case TypeInt32:
		return "Int32"
	case TypeUint32:
		return "Uint32"
	case TypeInt64:
		return "Int64"
	case TypeUint64:
		return "Uint64"
	case TypeInt16:
		return "Int16"
	case TypeUint16:
		return "Uint16"
	case TypeInt8:
		return "Int8"
	case TypeUint8:
		return "Uint8"
	case TypeFloat32:
		return "Float32"
	case TypeFloat64:
		return "Float64"
	case TypeBytes:
		return "Bytes"
	default:
		return "Unknown"
	}
}

func (c CompressionType) String() string {
	switch c {
	case CompressionNone:
		return "None"
	case CompressionZstd:
		return "Zstd"
	case CompressionS2:
		return "S2"
	case CompressionLZ4:
		return "LZ4"
	default:
		return "Unknown"
	}
}
