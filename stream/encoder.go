package stream

import (
	"fmt"
	"io"

	"github.com/packetzero/crow/encoding"
	"github.com/packetzero/crow/endian"
	"github.com/packetzero/crow/errs"
	"github.com/packetzero/crow/format"
	"github.com/packetzero/crow/internal/pool"
	"github.com/packetzero/crow/section"
)

// Encoder builds an encoded crow stream row by row.
//
// Three staging regions accumulate during a row: field-definition records,
// the fixed-width struct prefix, and variable-length entries. StartRow (or
// Flush) merges them into the output buffer as header records, row tag,
// struct bytes, variable-section length, variable entries -- in that order,
// so a field's definition always precedes the first row referencing it.
//
// Note: The Encoder is NOT thread-safe. Each instance should be used by a
// single goroutine at a time.
type Encoder struct {
	out  *pool.ByteBuffer // merged output
	hdr  *pool.ByteBuffer // header-definition staging
	data *pool.ByteBuffer // variable-entry staging

	structBuf      *pool.ByteBuffer // current row's struct payload
	reg            *fieldRegistry
	structFields   []*FieldInfo
	structLen      int
	haveStructData bool
	structFrozen   bool

	rowFlags uint8
	engine   endian.EndianEngine
	scratch  []byte // varint scratch, reused across writes
}

// EncoderOption configures an Encoder at construction.
type EncoderOption func(*Encoder) error

// WithInitialCapacity sets the initial capacity of the output buffer.
func WithInitialCapacity(n int) EncoderOption {
	return func(e *Encoder) error {
		if n <= 0 {
			return fmt.Errorf("invalid initial capacity: %d", n)
		}
		e.out = pool.NewByteBuffer(n)

		return nil
	}
}

// NewEncoder creates an Encoder ready for its first row.
func NewEncoder(opts ...EncoderOption) (*Encoder, error) {
	e := &Encoder{
		out:       pool.NewByteBuffer(4096),
		hdr:       pool.GetStagingBuffer(),
		data:      pool.GetStagingBuffer(),
		structBuf: pool.GetStagingBuffer(),
		reg:       newFieldRegistry(),
		engine:    endian.Little,
	}

	for _, opt := range opts {
		if err := opt(e); err != nil {
			return nil, err
		}
	}

	return e, nil
}

// fieldFor resolves def to its FieldInfo, registering it on first touch.
func (e *Encoder) fieldFor(def FieldDef) (*FieldInfo, error) {
	if !def.Valid() {
		return nil, errs.ErrInvalidFieldDef
	}
	if len(def.Name) > section.MaxFieldName {
		return nil, fmt.Errorf("%w: %d bytes, max %d", errs.ErrNameTooLong, len(def.Name), section.MaxFieldName)
	}

	if f := e.reg.lookup(def); f != nil {
		return f, nil
	}

	return e.reg.add(def, 0)
}

// Put writes one field value into the current row. A null value declares
// the field's header without emitting any data entry.
func (e *Encoder) Put(def FieldDef, v Value) error {
	f, err := e.fieldFor(def)
	if err != nil {
		return err
	}

	if f.IsStructField() {
		return fmt.Errorf("%w: struct field %q accepts data only via PutStruct", errs.ErrTypeMismatch, def.Name)
	}

	if v.IsNull() {
		if !f.written {
			e.writeHeader(f)
		}

		return nil
	}

	if v.Type() != f.Type {
		return fmt.Errorf("%w: field is %s, value is %s", errs.ErrTypeMismatch, f.Type, v.Type())
	}

	e.writeIndexRef(f)
	e.writeValue(f, v)

	return nil
}

func (e *Encoder) PutInt8(def FieldDef, v int8) error     { return e.Put(def, Int8Value(v)) }
func (e *Encoder) PutUint8(def FieldDef, v uint8) error   { return e.Put(def, Uint8Value(v)) }
func (e *Encoder) PutInt16(def FieldDef, v int16) error   { return e.Put(def, Int16Value(v)) }
func (e *Encoder) PutUint16(def FieldDef, v uint16) error { return e.Put(def, Uint16Value(v)) }
func (e *Encoder) PutInt32(def FieldDef, v int32) error   { return e.Put(def, Int32Value(v)) }
func (e *Encoder) PutUint32(def FieldDef, v uint32) error { return e.Put(def, Uint32Value(v)) }
func (e *Encoder) PutInt64(def FieldDef, v int64) error   { return e.Put(def, Int64Value(v)) }
func (e *Encoder) PutUint64(def FieldDef, v uint64) error { return e.Put(def, Uint64Value(v)) }

func (e *Encoder) PutFloat32(def FieldDef, v float32) error { return e.Put(def, Float32Value(v)) }
func (e *Encoder) PutFloat64(def FieldDef, v float64) error { return e.Put(def, Float64Value(v)) }
func (e *Encoder) PutString(def FieldDef, v string) error   { return e.Put(def, StringValue(v)) }
func (e *Encoder) PutBytes(def FieldDef, v []byte) error    { return e.Put(def, BytesValue(v)) }
func (e *Encoder) PutBool(def FieldDef, v bool) error       { return e.Put(def, BoolValue(v)) }

// PutNull declares def's header without writing a value for it.
func (e *Encoder) PutNull(def FieldDef) error { return e.Put(def, NullValue()) }

// DeclareStructField registers def as a fixed-width struct member of the
// current table. All struct fields must be declared before any variable
// field is touched, and before the first struct row is flushed. fixedLen
// is required for String and Bytes members; for numeric members it may be
// 0 (the width is implied by the type).
func (e *Encoder) DeclareStructField(def FieldDef, fixedLen int) error {
	if !def.Valid() {
		return errs.ErrInvalidFieldDef
	}

	if e.structFrozen {
		return errs.ErrStructFrozen
	}

	if len(e.reg.fields) > len(e.structFields) {
		return errs.ErrStructAfterVar
	}

	width := def.Type.ByteSize()
	switch {
	case width == 0 && fixedLen <= 0:
		return errs.ErrStructFieldLength
	case width == 0:
		width = fixedLen
	case fixedLen > 0 && fixedLen != width:
		return fmt.Errorf("%w: %s is %d bytes wide", errs.ErrStructFieldLength, def.Type, width)
	}

	if e.reg.lookup(def) != nil {
		return errs.ErrFieldAlreadyExists
	}

	f, err := e.reg.add(def, uint32(width))
	if err != nil {
		return err
	}

	e.structFields = append(e.structFields, f)
	e.structLen += width
	e.writeHeader(f)

	return nil
}

// PutStruct supplies the current row's whole struct payload. The length
// must equal the sum of the declared struct widths.
func (e *Encoder) PutStruct(b []byte) error {
	if e.structLen == 0 || len(b) != e.structLen {
		return fmt.Errorf("%w: got %d bytes, layout is %d", errs.ErrStructSizeMismatch, len(b), e.structLen)
	}

	e.structBuf.Reset()
	e.structBuf.MustWrite(b)
	e.haveStructData = true

	return nil
}

// StartRow flushes the staged content of the current row and begins a new
// one.
func (e *Encoder) StartRow() {
	e.flushRow()
}

// SetRowFlags sets the producer flags (bits 0-2) carried in the next
// flushed row tag. Flags reset after each row.
func (e *Encoder) SetRowFlags(flags uint8) {
	e.rowFlags = flags & section.RowFlagMask
}

// PutFlags emits an in-stream flags update, changing the flags byte the
// decoder attaches to subsequent values of the current row.
func (e *Encoder) PutFlags(flags uint8) {
	e.data.PushByte(section.TagFlags | (flags&section.RowFlagMask)<<4)
}

// StartTable flushes any pending row, emits a table boundary carrying
// flags (e.g. section.TableFlagDecorate), and clears the field registry
// and struct layout.
func (e *Encoder) StartTable(flags uint8) {
	e.flushRow()

	e.hdr.PushByte(section.TagTable | flags&0x70)
	e.reg.clear()
	e.structFields = e.structFields[:0]
	e.structLen = 0
	e.structFrozen = false
	e.haveStructData = false
	e.structBuf.Reset()
}

// Flush drains all staged regions into the output buffer.
func (e *Encoder) Flush() {
	e.flushRow()
}

// FlushTo drains staged regions and writes the accumulated output to w,
// clearing the output buffer on success.
func (e *Encoder) FlushTo(w io.Writer) (int, error) {
	e.flushRow()

	n, err := w.Write(e.out.Bytes())
	if err != nil {
		return n, err
	}
	e.out.Reset()

	return n, nil
}

// Bytes flushes and returns the encoded stream. The slice is invalidated
// by further encoding.
func (e *Encoder) Bytes() []byte {
	e.flushRow()
	return e.out.Bytes()
}

// Size flushes and returns the encoded stream length in bytes.
func (e *Encoder) Size() int {
	e.flushRow()
	return e.out.Len()
}

// Clear resets the encoder for a fresh stream, retaining buffer capacity.
func (e *Encoder) Clear() {
	e.out.Reset()
	e.hdr.Reset()
	e.data.Reset()
	e.structBuf.Reset()
	e.reg.clear()
	e.structFields = e.structFields[:0]
	e.structLen = 0
	e.haveStructData = false
	e.structFrozen = false
	e.rowFlags = 0
}

// Close releases the staging buffers back to the pool. The encoder must
// not be used afterwards.
func (e *Encoder) Close() {
	pool.PutStagingBuffer(e.hdr)
	pool.PutStagingBuffer(e.data)
	pool.PutStagingBuffer(e.structBuf)
	e.hdr, e.data, e.structBuf = nil, nil, nil
}

// flushRow merges the staged regions into the output buffer in
// header / row tag / struct / variable-length / variable order.
func (e *Encoder) flushRow() {
	if e.hdr.Len() > 0 {
		e.out.MustWrite(e.hdr.Bytes())
		e.hdr.Reset()
	}

	if e.structLen > 0 && e.haveStructData {
		e.out.PushByte(section.TagRow | e.rowFlags<<4)
		e.out.MustWrite(e.structBuf.Bytes())
		e.structFrozen = true

		// with both struct and variable fields defined, the variable
		// section is length-prefixed even when empty
		if len(e.reg.fields) > len(e.structFields) {
			e.appendUvarint(e.out, uint64(e.data.Len()))
		}
	} else if e.structLen > 0 && e.data.Len() > 0 {
		panic("crow: row in a struct table has variable data but no struct payload")
	}

	if e.data.Len() > 0 {
		if e.structLen == 0 {
			e.out.PushByte(section.TagRow | e.rowFlags<<4)
		}
		e.out.MustWrite(e.data.Bytes())
		e.data.Reset()
	}

	e.haveStructData = false
	e.rowFlags = 0
}

// writeIndexRef stages the single-byte index reference for f, emitting the
// field's header record first if this is its first touch.
func (e *Encoder) writeIndexRef(f *FieldInfo) {
	if !f.written {
		e.writeHeader(f)
	}

	e.data.PushByte(f.Index | section.IndexBit)
}

// writeHeader stages f's field-definition record. At most one header is
// emitted per field per table.
func (e *Encoder) writeHeader(f *FieldInfo) {
	if f.written {
		return
	}

	tag := byte(section.TagHeader)
	if f.SubID > 0 {
		tag |= section.HeaderFlagHasSubID
	}
	if len(f.Name) > 0 {
		tag |= section.HeaderFlagHasName
	}
	if f.IsStructField() {
		tag |= section.HeaderFlagRaw
	}

	e.hdr.PushByte(tag)
	e.hdr.PushByte(f.Index)
	e.hdr.PushByte(byte(f.Type))
	e.appendUvarint(e.hdr, uint64(f.ID))

	if f.SubID > 0 {
		e.appendUvarint(e.hdr, uint64(f.SubID))
	}

	if len(f.Name) > 0 {
		e.appendUvarint(e.hdr, uint64(len(f.Name)))
		e.hdr.MustWrite([]byte(f.Name))
	}

	// numeric struct widths are implied by the type; only variable-width
	// struct members carry an explicit length
	if f.IsStructField() && (f.Type == format.TypeString || f.Type == format.TypeBytes) {
		e.appendUvarint(e.hdr, uint64(f.StructLen))
	}

	f.written = true
}

// writeValue stages a value's wire bytes per its field's declared type.
func (e *Encoder) writeValue(f *FieldInfo, v Value) {
	switch f.Type {
	case format.TypeInt8, format.TypeUint8:
		e.data.PushByte(byte(v.num))
	case format.TypeInt16:
		e.appendUvarint(e.data, uint64(encoding.ZigZagEncode32(int32(int16(v.num)))))
	case format.TypeUint16:
		e.appendUvarint(e.data, v.num)
	case format.TypeInt32:
		e.appendUvarint(e.data, uint64(encoding.ZigZagEncode32(int32(v.num))))
	case format.TypeUint32:
		e.appendUvarint(e.data, v.num)
	case format.TypeInt64:
		e.appendUvarint(e.data, encoding.ZigZagEncode64(int64(v.num)))
	case format.TypeUint64:
		e.appendUvarint(e.data, v.num)
	case format.TypeFloat32:
		e.scratch = encoding.AppendFixed32(e.scratch[:0], uint32(v.num), e.engine)
		e.data.MustWrite(e.scratch)
	case format.TypeFloat64:
		e.scratch = encoding.AppendFixed64(e.scratch[:0], v.num, e.engine)
		e.data.MustWrite(e.scratch)
	case format.TypeString:
		e.appendUvarint(e.data, uint64(len(v.str)))
		e.data.MustWrite([]byte(v.str))
	case format.TypeBytes:
		e.appendUvarint(e.data, uint64(len(v.raw)))
		e.data.MustWrite(v.raw)
	}
}

func (e *Encoder) appendUvarint(bb *pool.ByteBuffer, v uint64) {
	e.scratch = encoding.AppendUvarint(e.scratch[:0], v)
	bb.MustWrite(e.scratch)
}
