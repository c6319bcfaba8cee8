package section

// Tag ids occupy the low nibble of a tag byte when the high bit is clear.
// Ids 0x4-0x6 belonged to the set/setref extension and are reserved;
// decoders reject them.
const (
	TagHeader = 0x1 // field-definition record follows
	TagTable  = 0x2 // table boundary; flags in bits 4-6
	TagRow    = 0x3 // row start; flags in bits 4-6
	TagFlags  = 0x7 // flags-only update; flags in bits 4-6

	// IndexBit marks a tag byte as a field-index reference; the low 7 bits
	// carry the index.
	IndexBit = 0x80
)

// Field-header flag bits, OR'ed into the header tag byte.
const (
	HeaderFlagRaw      = 0x10 // fixed-width struct member
	HeaderFlagHasSubID = 0x20 // varint sub-id follows the id
	HeaderFlagHasName  = 0x40 // varint length + name bytes follow
)

// Table flag bits, OR'ed into the table tag byte.
const (
	TableFlagDecorate = 0x10 // table supplies decorator columns
)

// Wire limits.
const (
	MaxFieldName = 64  // maximum field name length in bytes
	MaxFields    = 127 // indices 0..126; bit 7 of an index byte is reserved
	RowFlagMask  = 0x07
)
