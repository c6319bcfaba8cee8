package stream

import (
	"github.com/packetzero/crow/errs"
	"github.com/packetzero/crow/format"
	"github.com/packetzero/crow/internal/hash"
	"github.com/packetzero/crow/section"
)

// FieldDef is the stable identity of a column: a primitive type plus a
// numeric id (optionally qualified by a sub-id) or a name. Two defs refer
// to the same column iff (id, sub-id) match when id > 0, else when the
// names match.
type FieldDef struct {
	Type  format.CrowType
	ID    uint32
	SubID uint32
	Name  string
}

// NewField creates an id-keyed field definition.
func NewField(typ format.CrowType, id uint32) FieldDef {
	return FieldDef{Type: typ, ID: id}
}

// NewFieldSub creates an id-keyed field definition qualified by a sub-id.
func NewFieldSub(typ format.CrowType, id, subID uint32) FieldDef {
	return FieldDef{Type: typ, ID: id, SubID: subID}
}

// NewNamedField creates a name-keyed field definition.
func NewNamedField(typ format.CrowType, name string) FieldDef {
	return FieldDef{Type: typ, Name: name}
}

// Valid reports whether the definition has a usable type and identity.
func (d FieldDef) Valid() bool {
	return d.Type.Valid() && (d.ID > 0 || d.Name != "")
}

// FieldInfo is a FieldDef plus codec bookkeeping: the dense registry index
// used as the on-wire reference, and the fixed width for struct members.
type FieldInfo struct {
	FieldDef

	// Index is the 0-based registry position, emitted on the wire as a
	// single byte with the high bit set.
	Index uint8

	// StructLen is the fixed byte width when the field is a struct member,
	// 0 for variable-length fields.
	StructLen uint32

	written bool // encoder-only: header record already staged
}

// IsStructField reports whether the field lives in the fixed-width struct
// prefix of each row.
func (f *FieldInfo) IsStructField() bool {
	return f.StructLen > 0
}

// fieldRegistry is the encoder-side field list with identity lookup.
// Indices are assigned strictly monotonically and match the on-wire
// field-index byte.
type fieldRegistry struct {
	fields []*FieldInfo
	byID   map[uint64]*FieldInfo
	byName map[uint64]*FieldInfo
}

func newFieldRegistry() *fieldRegistry {
	return &fieldRegistry{
		byID:   make(map[uint64]*FieldInfo),
		byName: make(map[uint64]*FieldInfo),
	}
}

func idKey(id, subID uint32) uint64 {
	return uint64(id)<<32 | uint64(subID)
}

// lookup returns the registered field matching the definition's identity,
// or nil.
func (r *fieldRegistry) lookup(def FieldDef) *FieldInfo {
	if def.ID > 0 {
		return r.byID[idKey(def.ID, def.SubID)]
	}

	return r.byName[hash.ID(def.Name)]
}

// add registers a new field and assigns the next index. It refuses to grow
// past section.MaxFields.
func (r *fieldRegistry) add(def FieldDef, structLen uint32) (*FieldInfo, error) {
	if len(r.fields) >= section.MaxFields {
		return nil, errs.ErrFieldLimit
	}

	f := &FieldInfo{
		FieldDef:  def,
		Index:     uint8(len(r.fields)),
		StructLen: structLen,
	}
	r.fields = append(r.fields, f)

	if def.ID > 0 {
		r.byID[idKey(def.ID, def.SubID)] = f
	} else {
		r.byName[hash.ID(def.Name)] = f
	}

	return f, nil
}

// clear drops all registered fields, beginning a new table.
func (r *fieldRegistry) clear() {
	r.fields = r.fields[:0]
	clear(r.byID)
	clear(r.byName)
}
