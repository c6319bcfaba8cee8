package stream

import (
	"fmt"

	"github.com/packetzero/crow/encoding"
	"github.com/packetzero/crow/endian"
	"github.com/packetzero/crow/errs"
	"github.com/packetzero/crow/format"
	"github.com/packetzero/crow/section"
)

// Decoder walks an encoded crow stream, dispatching tag bytes to listener
// callbacks. It borrows the input buffer for its lifetime; byte slices
// handed to the listener point into the input and are only valid for the
// duration of each callback. String values and field names are copied out
// of the input.
//
// Errors are sticky: on the first malformed or truncated record the
// decoder records a POSIX-style code and the byte offset, skips to the end
// of the buffer, and reports "done" from then on. No callback is issued
// for the offending record.
//
// Note: The Decoder is NOT thread-safe and not reusable across streams.
type Decoder struct {
	data   []byte
	pos    int
	engine endian.EndianEngine

	fields       []*FieldInfo
	structFields []*FieldInfo
	structLen    int

	errCode   int
	errOffset int
	typeMask  uint64

	flags      uint8
	tableFlags uint8

	segStart   int
	rowOpen    bool
	terminated bool
	dataRows   int

	skipValues bool

	decorating  bool
	decorFields []*FieldInfo
	decorValues []Value
}

// NewDecoder creates a Decoder over the encoded bytes.
func NewDecoder(data []byte) *Decoder {
	return &Decoder{
		data:   data,
		engine: endian.Little,
	}
}

// SetSkipValues switches the decoder to framing-only mode: field
// definitions, table and row boundaries are still processed, but value
// callbacks are not issued and struct variable sections are skipped.
func (d *Decoder) SetSkipValues(skip bool) {
	d.skipValues = skip
}

// Decode drains the whole buffer and returns the number of data rows
// decoded. Decorator-table rows are not counted.
func (d *Decoder) Decode(l Listener) int {
	for !d.DecodeRow(l) {
	}

	return d.dataRows
}

// DecodeRow advances the decoder through exactly one row. It returns true
// when the stream is exhausted or an error was recorded.
func (d *Decoder) DecodeRow(l Listener) bool {
	if d.errCode != errs.CodeNone || d.terminated {
		return true
	}

	for {
		if d.pos >= len(d.data) {
			// clean boundary: close the open row and terminate
			d.terminated = true
			if d.rowOpen {
				d.endRow(l, d.data[d.segStart:])
			}

			return true
		}

		tag := d.data[d.pos]
		tagPos := d.pos
		d.pos++

		if tag&section.IndexBit != 0 {
			index := int(tag & 0x7f)
			if index >= len(d.fields) {
				d.markError(errs.CodeESPIPE)
				return true
			}

			if !d.decodeValue(d.fields[index], l) {
				return true
			}

			continue
		}

		switch tag & 0x0f {
		case section.TagRow:
			if d.rowOpen {
				d.endRow(l, d.data[d.segStart:tagPos])
			} else {
				l.OnRowEnd(true, d.data[d.segStart:tagPos])
			}

			d.flags = (tag >> 4) & section.RowFlagMask
			d.segStart = d.pos
			d.rowOpen = true
			l.OnRowStart()

			if d.structLen > 0 && !d.decodeStruct(l) {
				return true
			}

			return false

		case section.TagHeader:
			if !d.decodeFieldHeader(tag) {
				return true
			}

		case section.TagTable:
			if d.rowOpen {
				d.endRow(l, d.data[d.segStart:tagPos])
			}

			if tag&section.TableFlagDecorate != 0 {
				// a new decorator table replaces any captured decorators
				d.decorFields = d.decorFields[:0]
				d.decorValues = d.decorValues[:0]
			}
			d.decorating = tag&section.TableFlagDecorate != 0

			d.fields = d.fields[:0]
			d.structFields = d.structFields[:0]
			d.structLen = 0
			d.tableFlags = tag & 0xf0
			d.segStart = tagPos
			l.OnTableStart(d.tableFlags)

		case section.TagFlags:
			d.flags = (tag >> 4) & section.RowFlagMask

		default:
			d.markError(errs.CodeEINVAL)
			return true
		}
	}
}

// endRow closes the currently open row: the listener is notified and,
// outside decorator tables, the data-row counter advances.
func (d *Decoder) endRow(l Listener, row []byte) {
	l.OnRowEnd(false, row)
	d.rowOpen = false
	if !d.decorating {
		d.dataRows++
	}
}

// decodeStruct consumes the fixed-width struct prefix of a freshly opened
// row, plus the variable-section length when variable fields exist.
// Reports false when an error was recorded.
func (d *Decoder) decodeStruct(l Listener) bool {
	if len(d.data)-d.pos < d.structLen {
		d.markError(errs.CodeENOSPC)
		return false
	}

	structBytes := d.data[d.pos : d.pos+d.structLen]
	d.pos += d.structLen

	varLen := uint64(0)
	hasVariable := len(d.fields) > len(d.structFields)
	if hasVariable {
		v, ok := d.readUvarint()
		if !ok {
			return false
		}
		if v > uint64(len(d.data)-d.pos) {
			d.markError(errs.CodeENOSPC)
			return false
		}
		varLen = v
	}

	action := SkipVariableFields
	if !d.skipValues {
		action = l.OnStruct(structBytes, d.structFields)
	}

	if action == SkipVariableFields {
		d.pos += int(varLen)
	}

	return true
}

// decodeFieldHeader parses a field-definition record following tag and
// appends it to the registry. Reports false when an error was recorded.
func (d *Decoder) decodeFieldHeader(tag byte) bool {
	hasSubID := tag&section.HeaderFlagHasSubID != 0
	hasName := tag&section.HeaderFlagHasName != 0
	isRaw := tag&section.HeaderFlagRaw != 0

	if len(d.data)-d.pos < 2 {
		d.markError(errs.CodeENOSPC)
		return false
	}

	index := d.data[d.pos] & 0x7f
	d.pos++

	// indices decode in registration order and never reach the reserved bit
	if int(index) != len(d.fields) || index >= section.MaxFields {
		d.markError(errs.CodeEINVAL)
		return false
	}

	typ := format.CrowType(d.data[d.pos] & 0x0f)
	d.pos++

	if !typ.Valid() {
		d.markError(errs.CodeEINVAL)
		return false
	}

	id, ok := d.readUvarint()
	if !ok {
		return false
	}

	var subID uint64
	if hasSubID {
		if subID, ok = d.readUvarint(); !ok {
			return false
		}
	}

	var name string
	if hasName {
		nameLen, ok := d.readUvarint()
		if !ok {
			return false
		}
		if nameLen > section.MaxFieldName {
			d.markError(errs.CodeEINVAL)
			return false
		}
		if nameLen > uint64(len(d.data)-d.pos) {
			d.markError(errs.CodeENOSPC)
			return false
		}
		name = string(d.data[d.pos : d.pos+int(nameLen)])
		d.pos += int(nameLen)
	}

	var fixedLen uint64
	if isRaw {
		if typ == format.TypeString || typ == format.TypeBytes {
			if fixedLen, ok = d.readUvarint(); !ok {
				return false
			}
		} else {
			fixedLen = uint64(typ.ByteSize())
		}
	}

	f := &FieldInfo{
		FieldDef: FieldDef{
			Type:  typ,
			ID:    uint32(id),
			SubID: uint32(subID),
			Name:  name,
		},
		Index:     index,
		StructLen: uint32(fixedLen),
	}
	d.fields = append(d.fields, f)

	if isRaw {
		d.structFields = append(d.structFields, f)
		d.structLen += int(fixedLen)
	}

	d.typeMask |= 1 << typ

	return true
}

// decodeValue consumes one value for f and dispatches it. In decorator
// tables the value is captured instead of dispatched; in skip mode it is
// consumed silently. Reports false when an error was recorded.
func (d *Decoder) decodeValue(f *FieldInfo, l Listener) bool {
	switch f.Type {
	case format.TypeInt8:
		if d.pos >= len(d.data) {
			d.markError(errs.CodeENOSPC)
			return false
		}
		v := int8(d.data[d.pos])
		d.pos++
		d.deliver(f, Int8Value(v), func() { l.OnInt8(f, v, d.flags) })

	case format.TypeUint8:
		if d.pos >= len(d.data) {
			d.markError(errs.CodeENOSPC)
			return false
		}
		v := d.data[d.pos]
		d.pos++
		d.deliver(f, Uint8Value(v), func() { l.OnUint8(f, v, d.flags) })

	case format.TypeInt16:
		raw, ok := d.readUvarint()
		if !ok {
			return false
		}
		v := int16(encoding.ZigZagDecode32(uint32(raw)))
		d.deliver(f, Int16Value(v), func() { l.OnInt32(f, int32(v), d.flags) })

	case format.TypeUint16:
		raw, ok := d.readUvarint()
		if !ok {
			return false
		}
		v := uint16(raw)
		d.deliver(f, Uint16Value(v), func() { l.OnUint32(f, uint32(v), d.flags) })

	case format.TypeInt32:
		raw, ok := d.readUvarint()
		if !ok {
			return false
		}
		v := encoding.ZigZagDecode32(uint32(raw))
		d.deliver(f, Int32Value(v), func() { l.OnInt32(f, v, d.flags) })

	case format.TypeUint32:
		raw, ok := d.readUvarint()
		if !ok {
			return false
		}
		v := uint32(raw)
		d.deliver(f, Uint32Value(v), func() { l.OnUint32(f, v, d.flags) })

	case format.TypeInt64:
		raw, ok := d.readUvarint()
		if !ok {
			return false
		}
		v := encoding.ZigZagDecode64(raw)
		d.deliver(f, Int64Value(v), func() { l.OnInt64(f, v, d.flags) })

	case format.TypeUint64:
		raw, ok := d.readUvarint()
		if !ok {
			return false
		}
		d.deliver(f, Uint64Value(raw), func() { l.OnUint64(f, raw, d.flags) })

	case format.TypeFloat32:
		if len(d.data)-d.pos < 4 {
			d.markError(errs.CodeENOSPC)
			return false
		}
		v := encoding.Float32FromBits(encoding.Fixed32(d.data[d.pos:], d.engine))
		d.pos += 4
		d.deliver(f, Float32Value(v), func() { l.OnFloat64(f, float64(v), d.flags) })

	case format.TypeFloat64:
		if len(d.data)-d.pos < 8 {
			d.markError(errs.CodeENOSPC)
			return false
		}
		v := encoding.Float64FromBits(encoding.Fixed64(d.data[d.pos:], d.engine))
		d.pos += 8
		d.deliver(f, Float64Value(v), func() { l.OnFloat64(f, v, d.flags) })

	case format.TypeString:
		b, ok := d.readLengthPrefixed()
		if !ok {
			return false
		}
		d.deliver(f, StringValue(string(b)), func() { l.OnString(f, string(b), d.flags) })

	case format.TypeBytes:
		b, ok := d.readLengthPrefixed()
		if !ok {
			return false
		}
		d.deliver(f, BytesValue(b), func() { l.OnBytes(f, b, d.flags) })

	default:
		d.markError(errs.CodeEINVAL)
		return false
	}

	return true
}

// deliver routes one decoded value: captured in decorator tables, dropped
// in skip mode, dispatched otherwise.
func (d *Decoder) deliver(f *FieldInfo, v Value, dispatch func()) {
	if d.skipValues {
		return
	}

	if d.decorating {
		d.decorFields = append(d.decorFields, f)
		d.decorValues = append(d.decorValues, v)

		return
	}

	dispatch()
}

// readUvarint reads a varint at the cursor, recording ENOSPC when the
// buffer ends mid-varint and EINVAL for an overlong encoding.
func (d *Decoder) readUvarint() (uint64, bool) {
	v, n := encoding.Uvarint(d.data[d.pos:])
	if n <= 0 {
		if n == 0 {
			d.markError(errs.CodeENOSPC)
		} else {
			d.markError(errs.CodeEINVAL)
		}

		return 0, false
	}
	d.pos += n

	return v, true
}

// readLengthPrefixed reads a varint length followed by that many bytes.
func (d *Decoder) readLengthPrefixed() ([]byte, bool) {
	length, ok := d.readUvarint()
	if !ok {
		return nil, false
	}
	if length > uint64(len(d.data)-d.pos) {
		d.markError(errs.CodeENOSPC)
		return nil, false
	}

	b := d.data[d.pos : d.pos+int(length)]
	d.pos += int(length)

	return b, true
}

// markError records the first error and its offset, then short-circuits
// the remaining input. Later errors are ignored.
func (d *Decoder) markError(code int) {
	if d.errCode != errs.CodeNone {
		return
	}

	d.errCode = code
	d.errOffset = d.pos
	d.pos = len(d.data)
}

// ErrCode returns the POSIX-style code of the first recorded error, or 0.
func (d *Decoder) ErrCode() int {
	return d.errCode
}

// ErrOffset returns the byte offset at which the first error was recorded.
func (d *Decoder) ErrOffset() int {
	return d.errOffset
}

// Err returns the first recorded error, or nil.
func (d *Decoder) Err() error {
	switch d.errCode {
	case errs.CodeNone:
		return nil
	case errs.CodeENOSPC:
		return fmt.Errorf("%w: at offset %d", errs.ErrTruncated, d.errOffset)
	case errs.CodeESPIPE:
		return fmt.Errorf("%w: at offset %d", errs.ErrDanglingRef, d.errOffset)
	default:
		return fmt.Errorf("%w: at offset %d", errs.ErrMalformed, d.errOffset)
	}
}

// TypeMask returns a bitmask with bit 1<<type set for every field type
// defined so far.
func (d *Decoder) TypeMask() uint64 {
	return d.typeMask
}

// Fields returns the current table's field registry in index order.
func (d *Decoder) Fields() []*FieldInfo {
	return d.fields
}

// DecoratorFields returns the fields captured from the most recent
// decorator table, paired with DecoratorRow. Decorators persist until the
// next decorator table replaces them.
func (d *Decoder) DecoratorFields() []*FieldInfo {
	return d.decorFields
}

// DecoratorRow returns the values captured from the most recent decorator
// table.
func (d *Decoder) DecoratorRow() []Value {
	return d.decorValues
}
