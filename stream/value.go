package stream

import (
	"fmt"
	"math"
	"strconv"

	"github.com/packetzero/crow/format"
)

// Value is a sum-typed column value: a primitive type tag plus a union of
// payload representations. The zero Value is null; putting a null value
// declares the field's header without emitting data.
type Value struct {
	typ format.CrowType
	num uint64 // numeric payload bits (zigzag/width handling is the codec's)
	str string
	raw []byte
}

// NullValue returns the null value.
func NullValue() Value {
	return Value{}
}

func Int8Value(v int8) Value {
	return Value{typ: format.TypeInt8, num: uint64(uint8(v))}
}

func Uint8Value(v uint8) Value {
	return Value{typ: format.TypeUint8, num: uint64(v)}
}

func Int16Value(v int16) Value {
	return Value{typ: format.TypeInt16, num: uint64(uint16(v))}
}

func Uint16Value(v uint16) Value {
	return Value{typ: format.TypeUint16, num: uint64(v)}
}

func Int32Value(v int32) Value {
	return Value{typ: format.TypeInt32, num: uint64(uint32(v))}
}

func Uint32Value(v uint32) Value {
	return Value{typ: format.TypeUint32, num: uint64(v)}
}

func Int64Value(v int64) Value {
	return Value{typ: format.TypeInt64, num: uint64(v)}
}

func Uint64Value(v uint64) Value {
	return Value{typ: format.TypeUint64, num: v}
}

func Float32Value(v float32) Value {
	return Value{typ: format.TypeFloat32, num: uint64(math.Float32bits(v))}
}

func Float64Value(v float64) Value {
	return Value{typ: format.TypeFloat64, num: math.Float64bits(v)}
}

func StringValue(v string) Value {
	return Value{typ: format.TypeString, str: v}
}

func BytesValue(v []byte) Value {
	return Value{typ: format.TypeBytes, raw: v}
}

// BoolValue encodes a bool as a uint8 column, 1 for true.
func BoolValue(v bool) Value {
	if v {
		return Uint8Value(1)
	}

	return Uint8Value(0)
}

// Type returns the primitive type tag, TypeNone for null.
func (v Value) Type() format.CrowType {
	return v.typ
}

// IsNull reports whether the value is null.
func (v Value) IsNull() bool {
	return v.typ == format.TypeNone
}

// Int64 returns the payload of any signed integer value, sign-extended.
func (v Value) Int64() int64 {
	switch v.typ {
	case format.TypeInt8:
		return int64(int8(v.num))
	case format.TypeInt16:
		return int64(int16(v.num))
	case format.TypeInt32:
		return int64(int32(v.num))
	case format.TypeInt64:
		return int64(v.num)
	default:
		return 0
	}
}

// Uint64 returns the payload of any unsigned integer value.
func (v Value) Uint64() uint64 {
	switch v.typ {
	case format.TypeUint8, format.TypeUint16, format.TypeUint32, format.TypeUint64:
		return v.num
	default:
		return 0
	}
}

// Float64 returns the payload of a float value.
func (v Value) Float64() float64 {
	switch v.typ {
	case format.TypeFloat32:
		return float64(math.Float32frombits(uint32(v.num)))
	case format.TypeFloat64:
		return math.Float64frombits(v.num)
	default:
		return 0
	}
}

// Str returns the payload of a string value.
func (v Value) Str() string {
	return v.str
}

// Bytes returns the payload of a bytes value.
func (v Value) Bytes() []byte {
	return v.raw
}

// String implements fmt.Stringer with a plain textual rendering of the
// payload, matching what a CSV-style consumer would print.
func (v Value) String() string {
	switch v.typ {
	case format.TypeNone:
		return ""
	case format.TypeString:
		return v.str
	case format.TypeBytes:
		return fmt.Sprintf("%x", v.raw)
	case format.TypeInt8, format.TypeInt16, format.TypeInt32, format.TypeInt64:
		return strconv.FormatInt(v.Int64(), 10)
	case format.TypeUint8, format.TypeUint16, format.TypeUint32, format.TypeUint64:
		return strconv.FormatUint(v.Uint64(), 10)
	case format.TypeFloat32, format.TypeFloat64:
		return strconv.FormatFloat(v.Float64(), 'g', -1, 64)
	default:
		return ""
	}
}
