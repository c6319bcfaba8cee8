package stream

import (
	"math"
	"sort"
	"strings"
	"testing"

	"github.com/packetzero/crow/errs"
	"github.com/packetzero/crow/format"
	"github.com/stretchr/testify/require"
)

func rowValue(t *testing.T, row Row, name string) CollectedValue {
	t.Helper()

	for f, v := range row {
		if f.Name == name {
			return v
		}
	}
	t.Fatalf("field %q not present in row", name)

	return CollectedValue{}
}

func rowValueByID(row Row, id uint32) (CollectedValue, bool) {
	for f, v := range row {
		if f.ID == id {
			return v, true
		}
	}

	return CollectedValue{}, false
}

func TestDecoder_RoundTripAllTypes(t *testing.T) {
	enc := newTestEncoder(t)

	require.NoError(t, enc.PutString(NewNamedField(format.TypeString, "s"), "hello"))
	require.NoError(t, enc.PutInt32(NewNamedField(format.TypeInt32, "i32"), -123456))
	require.NoError(t, enc.PutUint32(NewNamedField(format.TypeUint32, "u32"), 0x8000ffff))
	require.NoError(t, enc.PutInt64(NewNamedField(format.TypeInt64, "i64"), math.MinInt64))
	require.NoError(t, enc.PutUint64(NewNamedField(format.TypeUint64, "u64"), math.MaxUint64))
	require.NoError(t, enc.PutInt16(NewNamedField(format.TypeInt16, "i16"), -32768))
	require.NoError(t, enc.PutUint16(NewNamedField(format.TypeUint16, "u16"), 65535))
	require.NoError(t, enc.PutInt8(NewNamedField(format.TypeInt8, "i8"), -128))
	require.NoError(t, enc.PutUint8(NewNamedField(format.TypeUint8, "u8"), 255))
	require.NoError(t, enc.PutFloat32(NewNamedField(format.TypeFloat32, "f32"), 123.456))
	require.NoError(t, enc.PutFloat64(NewNamedField(format.TypeFloat64, "f64"), 3000444888.325))
	require.NoError(t, enc.PutBytes(NewNamedField(format.TypeBytes, "b"), []byte{0x00, 0xff, 0x7f}))

	dec := NewDecoder(enc.Bytes())
	rows := NewRowCollector()
	require.Equal(t, 1, dec.Decode(rows))
	require.NoError(t, dec.Err())
	require.Len(t, rows.Rows, 1)

	row := rows.Rows[0]
	require.Equal(t, "hello", rowValue(t, row, "s").Str())
	require.Equal(t, int64(-123456), rowValue(t, row, "i32").Int64())
	require.Equal(t, uint64(0x8000ffff), rowValue(t, row, "u32").Uint64())
	require.Equal(t, int64(math.MinInt64), rowValue(t, row, "i64").Int64())
	require.Equal(t, uint64(math.MaxUint64), rowValue(t, row, "u64").Uint64())
	require.Equal(t, int64(-32768), rowValue(t, row, "i16").Int64())
	require.Equal(t, uint64(65535), rowValue(t, row, "u16").Uint64())
	require.Equal(t, int64(-128), rowValue(t, row, "i8").Int64())
	require.Equal(t, uint64(255), rowValue(t, row, "u8").Uint64())
	require.Equal(t, []byte{0x00, 0xff, 0x7f}, rowValue(t, row, "b").Bytes())

	// floats round-trip bit-exact
	f32 := rowValue(t, row, "f32").Float64()
	require.Equal(t, math.Float32bits(123.456), math.Float32bits(float32(f32)))
	require.Equal(t, math.Float64bits(3000444888.325), math.Float64bits(rowValue(t, row, "f64").Float64()))

	require.Len(t, dec.Fields(), 12)
}

func TestDecoder_FloatEdgeValues(t *testing.T) {
	values := []float64{
		0,
		math.Copysign(0, -1),
		math.SmallestNonzeroFloat64, // sub-normal
		math.Inf(1),
		math.Inf(-1),
	}

	for _, v := range values {
		enc := newTestEncoder(t)
		require.NoError(t, enc.PutFloat64(NewField(format.TypeFloat64, 1), v))

		dec := NewDecoder(enc.Bytes())
		rows := NewRowCollector()
		require.Equal(t, 1, dec.Decode(rows))

		got, ok := rowValueByID(rows.Rows[0], 1)
		require.True(t, ok)
		require.Equal(t, math.Float64bits(v), math.Float64bits(got.Float64()))
	}
}

func TestDecoder_EmptyInput(t *testing.T) {
	dec := NewDecoder(nil)
	rows := NewRowCollector()

	require.Equal(t, 0, dec.Decode(rows))
	require.Zero(t, dec.ErrCode())
	require.NoError(t, dec.Err())
	require.Empty(t, rows.Rows)
}

func TestDecoder_SparseColumns(t *testing.T) {
	enc := newTestEncoder(t)

	a := NewNamedField(format.TypeString, "a")
	b := NewNamedField(format.TypeInt32, "b")
	c := NewNamedField(format.TypeUint8, "c")

	require.NoError(t, enc.PutString(a, "x"))
	enc.StartRow()
	require.NoError(t, enc.PutInt32(b, -5))
	require.NoError(t, enc.PutUint8(c, 1))
	enc.StartRow()
	require.NoError(t, enc.PutString(a, "y"))
	require.NoError(t, enc.PutUint8(c, 2))
	enc.StartRow()
	require.NoError(t, enc.PutInt32(b, 9))

	dec := NewDecoder(enc.Bytes())
	rows := NewRowCollector()
	require.Equal(t, 4, dec.Decode(rows))
	require.NoError(t, dec.Err())
	require.Len(t, dec.Fields(), 3)

	require.Len(t, rows.Rows[0], 1)
	require.Len(t, rows.Rows[1], 2)
	require.Len(t, rows.Rows[2], 2)
	require.Len(t, rows.Rows[3], 1)

	require.Equal(t, "y", rowValue(t, rows.Rows[2], "a").Str())
	require.Equal(t, int64(9), rowValue(t, rows.Rows[3], "b").Int64())
}

func TestDecoder_NullFieldSeenButNeverDispatched(t *testing.T) {
	enc := newTestEncoder(t)

	require.NoError(t, enc.PutString(NewNamedField(format.TypeString, "a"), "x"))
	require.NoError(t, enc.PutNull(NewNamedField(format.TypeUint32, "b")))

	dec := NewDecoder(enc.Bytes())
	rows := NewRowCollector()
	require.Equal(t, 1, dec.Decode(rows))
	require.NoError(t, dec.Err())

	require.Len(t, dec.Fields(), 2)
	require.Equal(t, "b", dec.Fields()[1].Name)
	require.Len(t, rows.Rows, 1)
	require.Len(t, rows.Rows[0], 1)
}

func TestDecoder_RowFlagsReachCallbacks(t *testing.T) {
	enc := newTestEncoder(t)

	a := NewField(format.TypeUint8, 1)
	enc.SetRowFlags(0x5)
	require.NoError(t, enc.PutUint8(a, 9))

	dec := NewDecoder(enc.Bytes())
	rows := NewRowCollector()
	require.Equal(t, 1, dec.Decode(rows))

	v, ok := rowValueByID(rows.Rows[0], 1)
	require.True(t, ok)
	require.Equal(t, uint8(0x5), v.Flags)
}

func TestDecoder_InRowFlagsUpdate(t *testing.T) {
	enc := newTestEncoder(t)

	a := NewField(format.TypeUint8, 1)
	b := NewField(format.TypeUint8, 2)
	require.NoError(t, enc.PutUint8(a, 1))
	enc.PutFlags(0x3)
	require.NoError(t, enc.PutUint8(b, 2))

	dec := NewDecoder(enc.Bytes())
	rows := NewRowCollector()
	require.Equal(t, 1, dec.Decode(rows))

	first, ok := rowValueByID(rows.Rows[0], 1)
	require.True(t, ok)
	second, ok := rowValueByID(rows.Rows[0], 2)
	require.True(t, ok)
	require.Equal(t, uint8(0), first.Flags)
	require.Equal(t, uint8(3), second.Flags)
}

func TestDecoder_StructFraming(t *testing.T) {
	enc := newTestEncoder(t)

	require.NoError(t, enc.DeclareStructField(NewField(format.TypeInt32, 10), 0))
	require.NoError(t, enc.DeclareStructField(NewField(format.TypeUint8, 11), 0))
	require.NoError(t, enc.DeclareStructField(NewField(format.TypeString, 12), 3))
	name := NewNamedField(format.TypeString, "name")

	require.NoError(t, enc.PutStruct(personBytes(23, true, "Bob")))
	require.NoError(t, enc.PutString(name, "bo"))
	enc.StartRow()
	require.NoError(t, enc.PutStruct(personBytes(62, false, "Moe")))
	require.NoError(t, enc.PutString(name, "bobo"))
	enc.StartRow()
	require.NoError(t, enc.PutStruct(personBytes(62, false, "Moe")))

	dec := NewDecoder(enc.Bytes())
	rows := NewRowCollector()
	require.Equal(t, 3, dec.Decode(rows))
	require.NoError(t, dec.Err())

	require.Len(t, rows.StructRows, 3)
	require.Equal(t, personBytes(23, true, "Bob"), rows.StructRows[0])
	require.Equal(t, personBytes(62, false, "Moe"), rows.StructRows[1])
	require.Equal(t, personBytes(62, false, "Moe"), rows.StructRows[2])

	require.Equal(t, "bo", rowValue(t, rows.Rows[0], "name").Str())
	require.Equal(t, "bobo", rowValue(t, rows.Rows[1], "name").Str())
	require.Len(t, rows.Rows[2], 0)
}

// skipStructListener requests variable-field skipping from OnStruct.
type skipStructListener struct {
	RowCollector
	stringCount int
}

func (l *skipStructListener) OnStruct(data []byte, fields []*FieldInfo) StructAction {
	l.RowCollector.OnStruct(data, fields)
	return SkipVariableFields
}

func (l *skipStructListener) OnString(f *FieldInfo, v string, flags uint8) {
	l.stringCount++
}

func TestDecoder_StructSkipSentinel(t *testing.T) {
	enc := newTestEncoder(t)

	require.NoError(t, enc.DeclareStructField(NewField(format.TypeUint8, 1), 0))
	name := NewNamedField(format.TypeString, "name")

	require.NoError(t, enc.PutStruct([]byte{0x01}))
	require.NoError(t, enc.PutString(name, "first"))
	enc.StartRow()
	require.NoError(t, enc.PutStruct([]byte{0x02}))
	require.NoError(t, enc.PutString(name, "second"))

	dec := NewDecoder(enc.Bytes())
	l := &skipStructListener{}
	require.Equal(t, 2, dec.Decode(l))
	require.NoError(t, dec.Err())

	require.Len(t, l.StructRows, 2)
	require.Zero(t, l.stringCount, "variable fields must be skipped")
}

func TestDecoder_SkipValuesMode(t *testing.T) {
	enc := newTestEncoder(t)

	a := NewNamedField(format.TypeString, "a")
	b := NewNamedField(format.TypeInt32, "b")
	for i := 0; i < 3; i++ {
		if i > 0 {
			enc.StartRow()
		}
		require.NoError(t, enc.PutString(a, "value"))
		require.NoError(t, enc.PutInt32(b, int32(i)))
	}

	dec := NewDecoder(enc.Bytes())
	dec.SetSkipValues(true)
	rows := NewRowCollector()

	require.Equal(t, 3, dec.Decode(rows))
	require.NoError(t, dec.Err())
	require.Len(t, dec.Fields(), 2)

	for _, row := range rows.Rows {
		require.Empty(t, row)
	}
}

func TestDecoder_DecodeRowStepping(t *testing.T) {
	enc := newTestEncoder(t)

	a := NewField(format.TypeUint32, 1)
	for i := 0; i < 3; i++ {
		if i > 0 {
			enc.StartRow()
		}
		require.NoError(t, enc.PutUint32(a, uint32(i)))
	}

	dec := NewDecoder(enc.Bytes())
	rows := NewRowCollector()

	require.False(t, dec.DecodeRow(rows))
	require.False(t, dec.DecodeRow(rows))
	require.False(t, dec.DecodeRow(rows))
	require.True(t, dec.DecodeRow(rows))
	require.True(t, dec.DecodeRow(rows), "done state is sticky")
	require.NoError(t, dec.Err())
	require.Len(t, rows.Rows, 3)
}

func TestDecoder_TypeMask(t *testing.T) {
	enc := newTestEncoder(t)

	require.NoError(t, enc.PutString(NewNamedField(format.TypeString, "s"), "x"))
	require.NoError(t, enc.PutUint64(NewNamedField(format.TypeUint64, "u"), 1))

	dec := NewDecoder(enc.Bytes())
	dec.Decode(NewRowCollector())

	want := uint64(1)<<uint64(format.TypeString) | uint64(1)<<uint64(format.TypeUint64)
	require.Equal(t, want, dec.TypeMask())
}

func TestDecoder_MultipleTables(t *testing.T) {
	enc := newTestEncoder(t)

	a := NewNamedField(format.TypeUint32, "a")
	require.NoError(t, enc.PutUint32(a, 1))

	enc.StartTable(0)
	b := NewNamedField(format.TypeString, "b")
	require.NoError(t, enc.PutString(b, "x"))
	enc.StartRow()
	require.NoError(t, enc.PutString(b, "y"))

	dec := NewDecoder(enc.Bytes())
	rows := NewRowCollector()
	require.Equal(t, 3, dec.Decode(rows))
	require.NoError(t, dec.Err())

	// registry reflects the last table only
	require.Len(t, dec.Fields(), 1)
	require.Equal(t, "b", dec.Fields()[0].Name)
	require.Equal(t, "y", rowValue(t, rows.Rows[2], "b").Str())
}

func TestDecoder_DecoratorTable(t *testing.T) {
	enc := newTestEncoder(t)

	enc.StartTable(0x10) // decorator
	require.NoError(t, enc.PutString(NewNamedField(format.TypeString, "date"), "20180502"))
	require.NoError(t, enc.PutInt32(NewNamedField(format.TypeInt32, "domain"), 23))

	enc.StartTable(0)
	name := NewNamedField(format.TypeString, "name")
	age := NewNamedField(format.TypeInt32, "age")
	active := NewNamedField(format.TypeUint8, "active")

	people := []struct {
		name   string
		age    int32
		active bool
	}{
		{"bob", 23, true},
		{"jerry", 58, false},
		{"linda", 33, true},
	}
	for i, p := range people {
		if i > 0 {
			enc.StartRow()
		}
		require.NoError(t, enc.PutString(name, p.name))
		require.NoError(t, enc.PutInt32(age, p.age))
		require.NoError(t, enc.PutBool(active, p.active))
	}

	dec := NewDecoder(enc.Bytes())
	rows := NewRowCollector()

	// decorator rows do not count as data rows
	require.Equal(t, 3, dec.Decode(rows))
	require.NoError(t, dec.Err())
	require.Len(t, rows.Rows, 3)

	decorFields := dec.DecoratorFields()
	decorRow := dec.DecoratorRow()
	require.Len(t, decorFields, 2)
	require.Len(t, decorRow, 2)
	require.Equal(t, "date", decorFields[0].Name)
	require.Equal(t, "20180502", decorRow[0].Str())
	require.Equal(t, "domain", decorFields[1].Name)
	require.Equal(t, int64(23), decorRow[1].Int64())

	// graft decorator columns onto each data row, CSV-style
	require.Equal(t, "bob,23,1,20180502,23", rowCSV(rows.Rows[0], decorRow))
	require.Equal(t, "jerry,58,0,20180502,23", rowCSV(rows.Rows[1], decorRow))
	require.Equal(t, "linda,33,1,20180502,23", rowCSV(rows.Rows[2], decorRow))
}

// rowCSV renders a row's values in field-index order, then appends the
// decorator values.
func rowCSV(row Row, decorators []Value) string {
	type cell struct {
		index uint8
		text  string
	}

	cells := make([]cell, 0, len(row))
	for f, v := range row {
		cells = append(cells, cell{f.Index, v.String()})
	}
	sort.Slice(cells, func(i, j int) bool { return cells[i].index < cells[j].index })

	parts := make([]string, 0, len(cells)+len(decorators))
	for _, c := range cells {
		parts = append(parts, c.text)
	}
	for _, v := range decorators {
		parts = append(parts, v.String())
	}

	return strings.Join(parts, ",")
}

func TestDecoder_TruncationSweep(t *testing.T) {
	enc := newTestEncoder(t)

	name := NewNamedField(format.TypeString, "name")
	age := NewNamedField(format.TypeInt32, "age")
	active := NewNamedField(format.TypeUint8, "active")
	require.NoError(t, enc.PutString(name, "bob"))
	require.NoError(t, enc.PutInt32(age, 23))
	require.NoError(t, enc.PutBool(active, true))

	full := enc.Bytes()

	for k := 0; k < len(full); k++ {
		dec := NewDecoder(full[:k])
		rows := NewRowCollector()
		count := dec.Decode(rows)

		code := dec.ErrCode()
		require.Contains(t, []int{errs.CodeNone, errs.CodeENOSPC}, code, "prefix length %d", k)
		require.Less(t, count, 3, "prefix length %d", k)

		// no spurious values: anything decoded must match the originals
		for _, row := range rows.Rows {
			for f, v := range row {
				switch f.Name {
				case "name":
					require.Equal(t, "bob", v.Str())
				case "age":
					require.Equal(t, int64(23), v.Int64())
				case "active":
					require.Equal(t, uint64(1), v.Uint64())
				}
			}
		}
	}
}

func TestDecoder_TruncatedStruct(t *testing.T) {
	enc := newTestEncoder(t)

	require.NoError(t, enc.DeclareStructField(NewField(format.TypeInt32, 1), 0))
	require.NoError(t, enc.PutStruct([]byte{1, 2, 3, 4}))

	full := enc.Bytes()

	// cut inside the struct payload
	dec := NewDecoder(full[:len(full)-2])
	require.Equal(t, 0, dec.Decode(NewRowCollector()))
	require.Equal(t, errs.CodeENOSPC, dec.ErrCode())
	require.ErrorIs(t, dec.Err(), errs.ErrTruncated)
}

func TestDecoder_ReservedTags(t *testing.T) {
	for _, tag := range []byte{0x00, 0x04, 0x05, 0x06, 0x08, 0x0f} {
		dec := NewDecoder([]byte{tag})
		require.Equal(t, 0, dec.Decode(NewRowCollector()))
		require.Equal(t, errs.CodeEINVAL, dec.ErrCode(), "tag %#02x", tag)
		require.ErrorIs(t, dec.Err(), errs.ErrMalformed)
	}
}

func TestDecoder_DanglingIndexReference(t *testing.T) {
	dec := NewDecoder([]byte{0x85})
	require.Equal(t, 0, dec.Decode(NewRowCollector()))
	require.Equal(t, errs.CodeESPIPE, dec.ErrCode())
	require.ErrorIs(t, dec.Err(), errs.ErrDanglingRef)
}

func TestDecoder_MalformedHeaders(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		code int
	}{
		{"index out of order", []byte{0x01, 0x01, 0x02, 0x00}, errs.CodeEINVAL},
		{"invalid type ordinal", []byte{0x01, 0x00, 0x0d, 0x00}, errs.CodeEINVAL},
		{"name too long", []byte{0x41, 0x00, 0x01, 0x00, 0x41}, errs.CodeEINVAL},
		{"truncated record", []byte{0x01, 0x00}, errs.CodeENOSPC},
		{"truncated name bytes", []byte{0x41, 0x00, 0x01, 0x00, 0x04, 'n', 'a'}, errs.CodeENOSPC},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dec := NewDecoder(tt.data)
			require.Equal(t, 0, dec.Decode(NewRowCollector()))
			require.Equal(t, tt.code, dec.ErrCode())
		})
	}
}

func TestDecoder_ErrorIsSticky(t *testing.T) {
	dec := NewDecoder([]byte{0x04, 0x85, 0x00})
	rows := NewRowCollector()

	require.True(t, dec.DecodeRow(rows))
	require.Equal(t, errs.CodeEINVAL, dec.ErrCode())
	offset := dec.ErrOffset()

	require.True(t, dec.DecodeRow(rows))
	require.Equal(t, errs.CodeEINVAL, dec.ErrCode())
	require.Equal(t, offset, dec.ErrOffset())
}

func TestDecoder_RowEndSegments(t *testing.T) {
	enc := newTestEncoder(t)

	a := NewField(format.TypeUint8, 1)
	require.NoError(t, enc.PutUint8(a, 1))
	enc.StartRow()
	require.NoError(t, enc.PutUint8(a, 2))

	var headerRows, dataRows int
	l := &rowEndRecorder{onEnd: func(isHeader bool, row []byte) {
		if isHeader {
			headerRows++
		} else {
			dataRows++
		}
	}}

	dec := NewDecoder(enc.Bytes())
	require.Equal(t, 2, dec.Decode(l))
	require.Equal(t, 1, headerRows)
	require.Equal(t, 2, dataRows)
}

type rowEndRecorder struct {
	BaseListener
	onEnd func(bool, []byte)
}

func (l *rowEndRecorder) OnRowEnd(isHeaderRow bool, row []byte) {
	l.onEnd(isHeaderRow, row)
}
