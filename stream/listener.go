package stream

// StructAction is returned by OnStruct to steer decoding of the rest of
// the row.
type StructAction int

const (
	// StructContinue proceeds to the row's variable-length entries.
	StructContinue StructAction = 0

	// SkipVariableFields advances past the row's variable section without
	// dispatching its field callbacks.
	SkipVariableFields StructAction = 2
)

// Listener receives decode events. One callback exists per wire value
// shape; the 16-bit integer types arrive through the matching 32-bit
// callback and Float32 arrives widened through OnFloat64 (the widening is
// exact). Embed BaseListener to override only what you need.
//
// The flags argument of each value callback is the producer-defined flags
// channel carried by the enclosing row tag (or the last flags tag).
// Slices passed to callbacks point into the decoder's input and are only
// valid for the duration of the call.
type Listener interface {
	OnRowStart()
	// OnRowEnd reports the end of a decoded segment. isHeaderRow marks the
	// header/table prologue preceding the first row; row spans the
	// segment's raw bytes.
	OnRowEnd(isHeaderRow bool, row []byte)
	OnTableStart(flags uint8)
	// OnStruct hands over the row's fixed-width struct prefix and the
	// struct member fields, in registration order.
	OnStruct(data []byte, structFields []*FieldInfo) StructAction

	OnInt8(field *FieldInfo, value int8, flags uint8)
	OnUint8(field *FieldInfo, value uint8, flags uint8)
	OnInt32(field *FieldInfo, value int32, flags uint8)
	OnUint32(field *FieldInfo, value uint32, flags uint8)
	OnInt64(field *FieldInfo, value int64, flags uint8)
	OnUint64(field *FieldInfo, value uint64, flags uint8)
	OnFloat64(field *FieldInfo, value float64, flags uint8)
	OnString(field *FieldInfo, value string, flags uint8)
	OnBytes(field *FieldInfo, value []byte, flags uint8)
}

// BaseListener is a no-op implementation of Listener for embedding.
type BaseListener struct{}

var _ Listener = (*BaseListener)(nil)

func (BaseListener) OnRowStart()           {}
func (BaseListener) OnRowEnd(bool, []byte) {}
func (BaseListener) OnTableStart(uint8)    {}
func (BaseListener) OnStruct([]byte, []*FieldInfo) StructAction {
	return StructContinue
}
func (BaseListener) OnInt8(*FieldInfo, int8, uint8)       {}
func (BaseListener) OnUint8(*FieldInfo, uint8, uint8)     {}
func (BaseListener) OnInt32(*FieldInfo, int32, uint8)     {}
func (BaseListener) OnUint32(*FieldInfo, uint32, uint8)   {}
func (BaseListener) OnInt64(*FieldInfo, int64, uint8)     {}
func (BaseListener) OnUint64(*FieldInfo, uint64, uint8)   {}
func (BaseListener) OnFloat64(*FieldInfo, float64, uint8) {}
func (BaseListener) OnString(*FieldInfo, string, uint8)   {}
func (BaseListener) OnBytes(*FieldInfo, []byte, uint8)    {}
