package stream

import "github.com/packetzero/crow/section"

// CollectedValue is a decoded value plus the flags byte it arrived with.
type CollectedValue struct {
	Value
	Flags uint8
}

// Row is one materialized row, keyed by field descriptor.
type Row map[*FieldInfo]CollectedValue

// RowCollector is a generic Listener that materializes every decoded row.
// It is convenient for tests and for consumers that want whole rows rather
// than streaming callbacks.
type RowCollector struct {
	BaseListener

	// Rows holds one entry per data row, in decode order.
	Rows []Row

	// StructRows holds a copy of each row's struct payload, in decode
	// order, when the table defines struct fields.
	StructRows [][]byte

	// TableFlags is the flags byte of the most recent table boundary.
	TableFlags uint8
}

// NewRowCollector creates an empty collector.
func NewRowCollector() *RowCollector {
	return &RowCollector{}
}

func (c *RowCollector) OnTableStart(flags uint8) {
	c.TableFlags = flags
}

func (c *RowCollector) OnRowStart() {
	// decorator rows are captured by the decoder, not materialized here
	if c.TableFlags&section.TableFlagDecorate != 0 {
		return
	}

	c.Rows = append(c.Rows, Row{})
}

func (c *RowCollector) OnStruct(data []byte, structFields []*FieldInfo) StructAction {
	cp := make([]byte, len(data))
	copy(cp, data)
	c.StructRows = append(c.StructRows, cp)

	return StructContinue
}

func (c *RowCollector) add(f *FieldInfo, v Value, flags uint8) {
	if len(c.Rows) == 0 {
		c.Rows = append(c.Rows, Row{})
	}
	c.Rows[len(c.Rows)-1][f] = CollectedValue{Value: v, Flags: flags}
}

func (c *RowCollector) OnInt8(f *FieldInfo, v int8, flags uint8) {
	c.add(f, Int8Value(v), flags)
}

func (c *RowCollector) OnUint8(f *FieldInfo, v uint8, flags uint8) {
	c.add(f, Uint8Value(v), flags)
}

func (c *RowCollector) OnInt32(f *FieldInfo, v int32, flags uint8) {
	c.add(f, Int32Value(v), flags)
}

func (c *RowCollector) OnUint32(f *FieldInfo, v uint32, flags uint8) {
	c.add(f, Uint32Value(v), flags)
}

func (c *RowCollector) OnInt64(f *FieldInfo, v int64, flags uint8) {
	c.add(f, Int64Value(v), flags)
}

func (c *RowCollector) OnUint64(f *FieldInfo, v uint64, flags uint8) {
	c.add(f, Uint64Value(v), flags)
}

func (c *RowCollector) OnFloat64(f *FieldInfo, v float64, flags uint8) {
	c.add(f, Float64Value(v), flags)
}

func (c *RowCollector) OnString(f *FieldInfo, v string, flags uint8) {
	c.add(f, StringValue(v), flags)
}

func (c *RowCollector) OnBytes(f *FieldInfo, v []byte, flags uint8) {
	cp := make([]byte, len(v))
	copy(cp, v)
	c.add(f, BytesValue(cp), flags)
}
