// Package errs defines the sentinel errors shared across the crow codec.
//
// Encoder-side errors report producer API misuse; decoder-side errors mirror
// the POSIX-style integer codes surfaced through Decoder.ErrCode.
package errs

import "errors"

// Decoder error codes, POSIX-style. A zero code means no error.
const (
	CodeNone   = 0
	CodeEINVAL = 22 // malformed tag, bad type ordinal, header inconsistency
	CodeENOSPC = 28 // unexpected end of input mid-record
	CodeESPIPE = 29 // index reference to a nonexistent registry slot
)

// Encoder (producer) errors.
var (
	ErrFieldLimit         = errors.New("field limit reached")
	ErrInvalidFieldDef    = errors.New("invalid field definition")
	ErrNameTooLong        = errors.New("field name too long")
	ErrTypeMismatch       = errors.New("value type does not match field definition")
	ErrStructAfterVar     = errors.New("struct fields must be declared before variable fields")
	ErrStructFrozen       = errors.New("struct layout frozen after first struct row")
	ErrStructSizeMismatch = errors.New("struct data size does not match layout")
	ErrStructFieldLength  = errors.New("variable-width struct field requires a fixed length")
	ErrFieldAlreadyExists = errors.New("field already defined")
)

// Decoder errors.
var (
	ErrTruncated   = errors.New("unexpected end of encoded data")
	ErrMalformed   = errors.New("malformed tag or field definition")
	ErrDanglingRef = errors.New("field index references undefined field")
)

// Envelope errors.
var (
	ErrInvalidHeaderSize  = errors.New("invalid envelope header size")
	ErrInvalidMagic       = errors.New("invalid envelope magic number")
	ErrChecksumMismatch   = errors.New("envelope payload checksum mismatch")
	ErrPayloadTooLarge    = errors.New("payload exceeds maximum envelope size")
	ErrSizeMismatch       = errors.New("decompressed size does not match envelope header")
	ErrInvalidCompression = errors.New("invalid compression type")
)
