// Package crow provides a compact, self-describing columnar binary codec
// for streaming wide, sparse, heterogeneously-typed rows over the wire or
// to disk.
//
// A producer appends rows of (field, value) pairs; the first time a field
// is written its definition (type, numeric id, optional sub-id, optional
// name, optional fixed width) is emitted inline, and later occurrences
// cite only a single-byte index. Consumers decode the stream without any
// out-of-band schema.
//
// # Basic Usage
//
// Encoding rows:
//
//	import "github.com/packetzero/crow"
//
//	enc, _ := crow.NewEncoder()
//	name := crow.NamedField(crow.TypeString, "name")
//	age := crow.NamedField(crow.TypeInt32, "age")
//
//	enc.PutString(name, "bob")
//	enc.PutInt32(age, 23)
//	enc.StartRow()
//	enc.PutString(name, "jerry")
//	enc.PutInt32(age, 58)
//
//	encoded := enc.Bytes()
//
// Decoding with a materializing listener:
//
//	dec := crow.NewDecoder(encoded)
//	rows := crow.NewRowCollector()
//	count := dec.Decode(rows)
//
// Sealing a finished stream into a compressed transport envelope:
//
//	sealed, _ := crow.Seal(encoded, crow.CompressionZstd)
//	restored, _ := crow.Open(sealed)
//
// # Package Structure
//
// This package wraps the stream package for the common cases and adds the
// envelope layer. For fine-grained control (custom listeners, skip mode,
// decorator tables) use the stream package directly.
package crow

import (
	"fmt"

	"github.com/packetzero/crow/compress"
	"github.com/packetzero/crow/errs"
	"github.com/packetzero/crow/format"
	"github.com/packetzero/crow/internal/hash"
	"github.com/packetzero/crow/section"
	"github.com/packetzero/crow/stream"
)

// Re-exported wire types and constants for the common cases.
const (
	TypeString  = format.TypeString
	TypeInt32   = format.TypeInt32
	TypeUint32  = format.TypeUint32
	TypeInt64   = format.TypeInt64
	TypeUint64  = format.TypeUint64
	TypeInt16   = format.TypeInt16
	TypeUint16  = format.TypeUint16
	TypeInt8    = format.TypeInt8
	TypeUint8   = format.TypeUint8
	TypeFloat32 = format.TypeFloat32
	TypeFloat64 = format.TypeFloat64
	TypeBytes   = format.TypeBytes

	CompressionNone = format.CompressionNone
	CompressionZstd = format.CompressionZstd
	CompressionS2   = format.CompressionS2
	CompressionLZ4  = format.CompressionLZ4

	TableFlagDecorate = section.TableFlagDecorate
)

// NewEncoder creates a stream encoder.
func NewEncoder(opts ...stream.EncoderOption) (*stream.Encoder, error) {
	return stream.NewEncoder(opts...)
}

// NewDecoder creates a stream decoder over encoded bytes.
func NewDecoder(data []byte) *stream.Decoder {
	return stream.NewDecoder(data)
}

// NewRowCollector creates a listener that materializes decoded rows.
func NewRowCollector() *stream.RowCollector {
	return stream.NewRowCollector()
}

// Field creates an id-keyed field definition.
func Field(typ format.CrowType, id uint32) stream.FieldDef {
	return stream.NewField(typ, id)
}

// NamedField creates a name-keyed field definition.
func NamedField(typ format.CrowType, name string) stream.FieldDef {
	return stream.NewNamedField(typ, name)
}

// FieldID returns the xxHash64 of a field name, the key under which
// name-keyed fields are registered.
func FieldID(name string) uint64 {
	return hash.ID(name)
}

// Seal wraps an encoded stream in a transport envelope: a fixed header
// carrying the compression type, sizes, and an xxHash64 checksum of the
// stored payload. A payload the codec cannot shrink is stored raw, with
// CompressionNone recorded in the header.
func Seal(data []byte, compression format.CompressionType) ([]byte, error) {
	if len(data) > section.MaxPayloadSize {
		return nil, fmt.Errorf("%w: %d bytes, max %d", errs.ErrPayloadTooLarge, len(data), section.MaxPayloadSize)
	}

	codec, err := compress.CreateCodec(compression)
	if err != nil {
		return nil, err
	}

	stored, err := codec.Compress(data)
	if err != nil {
		return nil, err
	}

	if len(data) > 0 && (len(stored) == 0 || len(stored) >= len(data)) {
		stored = data
		compression = format.CompressionNone
	}

	h := section.NewEnvelopeHeader(compression)
	h.UncompressedSize = uint32(len(data))
	h.StoredSize = uint32(len(stored))
	h.Checksum = hash.Sum(stored)

	out := make([]byte, 0, section.EnvelopeHeaderSize+len(stored))
	out = append(out, h.Bytes()...)
	out = append(out, stored...)

	return out, nil
}

// Open validates and unwraps a sealed envelope, returning the original
// encoded stream.
func Open(data []byte) ([]byte, error) {
	h, err := section.ParseEnvelopeHeader(data)
	if err != nil {
		return nil, err
	}

	payload := data[section.EnvelopeHeaderSize:]
	if uint64(len(payload)) < uint64(h.StoredSize) {
		return nil, errs.ErrSizeMismatch
	}
	payload = payload[:h.StoredSize]

	if hash.Sum(payload) != h.Checksum {
		return nil, errs.ErrChecksumMismatch
	}

	codec, err := compress.CreateCodec(h.CompressionType)
	if err != nil {
		return nil, err
	}

	restored, err := codec.Decompress(payload, int(h.UncompressedSize))
	if err != nil {
		return nil, err
	}
	if uint64(len(restored)) != uint64(h.UncompressedSize) {
		return nil, errs.ErrSizeMismatch
	}

	return restored, nil
}
