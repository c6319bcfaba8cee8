package section

import (
	"github.com/packetzero/crow/endian"
	"github.com/packetzero/crow/errs"
	"github.com/packetzero/crow/format"
)

const (
	// EnvelopeHeaderSize is the fixed envelope header size in bytes.
	EnvelopeHeaderSize = 24

	// MaxPayloadSize caps the uncompressed size of a sealed stream.
	MaxPayloadSize = 32 * 1024 * 1024 // 32MB

	// Envelope option bits and magic number (bits 4-15 of Options).
	EnvelopeEndiannessMask = 0x0002 // 0=little-endian, 1=big-endian
	EnvelopeMagicMask      = 0xFFF0
	MagicStreamV1Opt       = 0xC710 // stream envelope format v1
)

// EnvelopeHeader is the fixed-size header prefixed to a sealed stream.
//
// Layout:
//
//	[0:2]   Options (magic + endianness)
//	[2]     CompressionType
//	[3]     reserved, 0
//	[4:8]   UncompressedSize
//	[8:12]  StoredSize (payload bytes as stored, post-compression)
//	[12:20] Checksum (xxHash64 of the stored payload)
//	[20:24] reserved, 0
type EnvelopeHeader struct {
	Options          uint16
	CompressionType  format.CompressionType
	UncompressedSize uint32
	StoredSize       uint32
	Checksum         uint64
}

// NewEnvelopeHeader creates a little-endian v1 envelope header for a payload.
func NewEnvelopeHeader(compression format.CompressionType) *EnvelopeHeader {
	return &EnvelopeHeader{
		Options:         MagicStreamV1Opt,
		CompressionType: compression,
	}
}

// GetEndianEngine returns the engine matching the header's endianness bit.
func (h *EnvelopeHeader) GetEndianEngine() endian.EndianEngine {
	if h.Options&EnvelopeEndiannessMask != 0 {
		return endian.Big
	}

	return endian.Little
}

// Validate checks the magic number and compression type.
func (h *EnvelopeHeader) Validate() error {
	if h.Options&EnvelopeMagicMask != MagicStreamV1Opt {
		return errs.ErrInvalidMagic
	}

	switch h.CompressionType {
	case format.CompressionNone, format.CompressionZstd, format.CompressionS2, format.CompressionLZ4:
	default:
		return errs.ErrInvalidCompression
	}

	if h.UncompressedSize > MaxPayloadSize {
		return errs.ErrPayloadTooLarge
	}

	return nil
}

// Parse parses the header from a byte slice of exactly EnvelopeHeaderSize
// bytes.
func (h *EnvelopeHeader) Parse(data []byte) error {
	if len(data) != EnvelopeHeaderSize {
		return errs.ErrInvalidHeaderSize
	}

	// Options is always little-endian; it carries the endianness bit itself.
	h.Options = uint16(data[0]) | uint16(data[1])<<8
	h.CompressionType = format.CompressionType(data[2])

	engine := h.GetEndianEngine()
	h.UncompressedSize = engine.Uint32(data[4:8])
	h.StoredSize = engine.Uint32(data[8:12])
	h.Checksum = engine.Uint64(data[12:20])

	return h.Validate()
}

// Bytes serializes the header into a fresh EnvelopeHeaderSize byte slice.
func (h *EnvelopeHeader) Bytes() []byte {
	b := make([]byte, EnvelopeHeaderSize)

	b[0] = byte(h.Options)
	b[1] = byte(h.Options >> 8)
	b[2] = byte(h.CompressionType)

	engine := h.GetEndianEngine()
	engine.PutUint32(b[4:8], h.UncompressedSize)
	engine.PutUint32(b[8:12], h.StoredSize)
	engine.PutUint64(b[12:20], h.Checksum)

	return b
}

// ParseEnvelopeHeader parses an EnvelopeHeader from the front of data.
func ParseEnvelopeHeader(data []byte) (EnvelopeHeader, error) {
	if len(data) < EnvelopeHeaderSize {
		return EnvelopeHeader{}, errs.ErrInvalidHeaderSize
	}

	h := EnvelopeHeader{}
	if err := h.Parse(data[:EnvelopeHeaderSize]); err != nil {
		return EnvelopeHeader{}, err
	}

	return h, nil
}
